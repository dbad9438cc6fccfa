package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestInitLevels(t *testing.T) {
	defer func() { Logger = nil }()

	var buf bytes.Buffer
	if err := Init(&buf, "warn", "logfmt"); err != nil {
		t.Fatalf("Init: %v", err)
	}

	Info("hidden", "k", 1)
	Warn("shown", "symbol", "NVDA")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info line written at warn level: %q", out)
	}
	if !strings.Contains(out, "shown") || !strings.Contains(out, "symbol=NVDA") {
		t.Errorf("warn line missing: %q", out)
	}
}

func TestInitRejectsBadInput(t *testing.T) {
	defer func() { Logger = nil }()

	if err := Init(nil, "loud", "text"); err == nil {
		t.Error("expected error for unknown level")
	}
	if err := Init(nil, "info", "xml"); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestHelpersWithoutInit(t *testing.T) {
	Logger = nil
	// Must not panic.
	Debug("x")
	Info("x")
	Warn("x")
	Error("x")
}
