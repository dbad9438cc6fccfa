package apperror

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
)

func TestNeedsCredential(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want bool
	}{
		{"missing", New(KindMissingCredential, "resolve", "no key"), true},
		{"invalid", New(KindInvalidCredentialFormat, "resolve", "bad"), true},
		{"forbidden", &Error{Kind: KindTransport, Status: 403}, true},
		{"bad request", &Error{Kind: KindTransport, Status: 400}, true},
		{"unauthorized", &Error{Kind: KindTransport, Status: 401}, true},
		{"server error", &Error{Kind: KindTransport, Status: 503}, false},
		{"network", &Error{Kind: KindTransport}, false},
		{"empty", New(KindEmptyResponse, "fetch", "blank"), false},
		{"schema", New(KindSchemaViolation, "fetch", "bad json"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.NeedsCredential(); got != tt.want {
				t.Errorf("NeedsCredential() = %v, want %v", got, tt.want)
			}
			wrapped := fmt.Errorf("scan: %w", tt.err)
			if got := NeedsCredential(wrapped); got != tt.want {
				t.Errorf("NeedsCredential(wrapped) = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestKindOfWrapped(t *testing.T) {
	cause := errors.New("unexpected end of JSON input")
	err := fmt.Errorf("load: %w", Wrap(KindSchemaViolation, "decode", cause))

	if got := KindOf(err); got != KindSchemaViolation {
		t.Errorf("KindOf() = %v, want SchemaViolation", got)
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false, want true")
	}
	if !errors.Is(err, &Error{Kind: KindSchemaViolation}) {
		t.Error("errors.Is by kind = false, want true")
	}
	if KindOf(errors.New("plain")) != KindUnknown {
		t.Error("KindOf(plain) should be KindUnknown")
	}
}

func TestWrapNil(t *testing.T) {
	if Wrap(KindTransport, "op", nil) != nil {
		t.Error("Wrap(nil) should return nil")
	}
}

func TestErrorString(t *testing.T) {
	err := &Error{Kind: KindTransport, Op: "generateContent", Status: 403, Msg: "permission denied"}
	want := "generateContent: TransportError: status 403: permission denied"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestKindJSON(t *testing.T) {
	b, err := json.Marshal(struct {
		Kind Kind `json:"kind"`
	}{KindEmptyResponse})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(b) != `{"kind":"EmptyResponse"}` {
		t.Errorf("got %s", b)
	}
}
