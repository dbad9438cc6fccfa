// Package apperror classifies the failures a market scan can end with.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is the failure class surfaced to the dashboard.
type Kind int

const (
	KindUnknown Kind = iota
	KindMissingCredential
	KindInvalidCredentialFormat
	KindTransport
	KindEmptyResponse
	KindSchemaViolation
)

var kindNames = map[Kind]string{
	KindUnknown:                 "Unknown",
	KindMissingCredential:       "MissingCredential",
	KindInvalidCredentialFormat: "InvalidCredentialFormat",
	KindTransport:               "TransportError",
	KindEmptyResponse:           "EmptyResponse",
	KindSchemaViolation:         "SchemaViolation",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// MarshalText lets Kind appear by name in JSON.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Error is a classified failure. Msg must never contain a full credential.
type Error struct {
	Kind   Kind
	Op     string
	Status int // HTTP status from the provider, TransportError only
	Msg    string
	Err    error
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	} else if e.Err != nil {
		msg = msg + ": " + e.Err.Error()
	}
	if e.Status != 0 {
		msg = fmt.Sprintf("status %d: %s", e.Status, msg)
	}
	if e.Op != "" {
		return fmt.Sprintf("%s: %s: %s", e.Op, e.Kind, msg)
	}
	return fmt.Sprintf("%s: %s", e.Kind, msg)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error by Kind, so errors.Is(err, &Error{Kind: k}) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// NeedsCredential reports whether the user should be offered a way to enter
// a key: the key is missing or malformed, or the provider rejected it.
func (e *Error) NeedsCredential() bool {
	switch e.Kind {
	case KindMissingCredential, KindInvalidCredentialFormat:
		return true
	case KindTransport:
		return e.Status == http.StatusBadRequest ||
			e.Status == http.StatusUnauthorized ||
			e.Status == http.StatusForbidden
	}
	return false
}

// New builds a classified error.
func New(kind Kind, op, msg string) *Error {
	return &Error{Kind: kind, Op: op, Msg: msg}
}

// Wrap classifies err. A nil err yields nil.
func Wrap(kind Kind, op string, err error) *Error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf returns the Kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// NeedsCredential is the chain-walking form of (*Error).NeedsCredential.
func NeedsCredential(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.NeedsCredential()
	}
	return false
}
