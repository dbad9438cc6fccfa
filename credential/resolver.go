// Package credential finds the Gemini API key and normalizes it.
package credential

import (
	"regexp"
	"strings"

	"sentix/apperror"
	"sentix/logging"
)

// Marker is the prefix every Google API key starts with.
const Marker = "AIza"

// minFallbackLen is the length a marker-prefixed run must exceed to be
// accepted when it doesn't match the canonical shape.
const minFallbackLen = 20

var (
	keyPattern   = regexp.MustCompile(`AIza[0-9A-Za-z_-]{35}`)
	outsideAlpha = regexp.MustCompile(`[^0-9A-Za-z_-]`)
)

// Credential is a resolved API key. Printing it shows only a masked prefix;
// use Reveal where the raw value must go on the wire.
type Credential string

func (c Credential) String() string { return Mask(string(c)) }

// Reveal returns the raw key.
func (c Credential) Reveal() string { return string(c) }

// Mask keeps at most the first five characters.
func Mask(s string) string {
	if len(s) > 5 {
		return s[:5] + "..."
	}
	return s + "..."
}

// Resolver picks the key from an explicit override or the first provider that
// holds one.
type Resolver struct {
	providers []Provider
}

// NewResolver returns a Resolver that consults providers in order.
func NewResolver(providers ...Provider) *Resolver {
	return &Resolver{providers: providers}
}

// Resolve returns the sanitized key. Errors are *apperror.Error of kind
// MissingCredential or InvalidCredentialFormat.
func (r *Resolver) Resolve(override string) (Credential, error) {
	raw, source, err := r.lookup(override)
	if err != nil {
		return "", err
	}
	if raw == "" {
		logging.Warn("No API key found", "sources", len(r.providers))
		return "", apperror.New(apperror.KindMissingCredential, "resolve credential",
			"no API key found in override, environment, .env files or config")
	}

	key, err := Sanitize(raw)
	if err != nil {
		logging.Error("Invalid API key format", "source", source, "prefix", Mask(strings.TrimSpace(raw)))
		return "", err
	}
	logging.Debug("API key resolved", "source", source, "prefix", Mask(key))
	return Credential(key), nil
}

func (r *Resolver) lookup(override string) (value, source string, err error) {
	if v := strings.TrimSpace(override); v != "" {
		return v, "override", nil
	}
	for _, p := range r.providers {
		v, err := p.Lookup()
		if err != nil {
			return "", p.Name(), apperror.Wrap(apperror.KindMissingCredential, "resolve credential: "+p.Name(), err)
		}
		if v = strings.TrimSpace(v); v != "" {
			return v, p.Name(), nil
		}
	}
	return "", "", nil
}

// Sanitize extracts a key from a value that may be quoted or wrapped in
// other text, e.g. `GEMINI_API_KEY: "AIza..."`.
func Sanitize(raw string) (string, error) {
	key := stripQuotes(strings.TrimSpace(raw))

	if m := keyPattern.FindString(key); m != "" {
		return m, nil
	}

	i := strings.Index(key, Marker)
	if i < 0 {
		return "", invalidFormat(key)
	}
	run := key[i:]
	if loc := outsideAlpha.FindStringIndex(run); loc != nil {
		run = run[:loc[0]]
	}
	if len(run) <= minFallbackLen {
		return "", invalidFormat(key)
	}
	return run, nil
}

// stripQuotes drops enclosing quote characters, balanced or not.
func stripQuotes(s string) string {
	return strings.TrimSpace(strings.Trim(s, `"'`))
}

func invalidFormat(key string) *apperror.Error {
	return apperror.New(apperror.KindInvalidCredentialFormat, "resolve credential",
		"API key must start with "+Marker+"; received key starting with '"+Mask(key)+"'")
}
