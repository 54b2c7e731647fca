package core

import (
	"context"
	"errors"
	"fmt"
)

// ErrorKind classifies every failure the engine can surface.
type ErrorKind string

const (
	// KindCredentialInvalid is fatal at startup: a backend rejected its credential during validation.
	KindCredentialInvalid ErrorKind = "credential_invalid"
	// KindUnauthorized maps HTTP 401/403.
	KindUnauthorized ErrorKind = "unauthorized"
	// KindRateLimited maps HTTP 429.
	KindRateLimited ErrorKind = "rate_limited"
	// KindServerError maps HTTP 5xx and any other unexpected status.
	KindServerError ErrorKind = "server_error"
	// KindTransportError covers connection-level failures.
	KindTransportError ErrorKind = "transport_error"
	// KindMalformedResponse is an unexpected response shape.
	KindMalformedResponse ErrorKind = "malformed_response"
	// KindEmptyPromptRejected is local validation; never reaches the network.
	KindEmptyPromptRejected ErrorKind = "empty_prompt_rejected"
	// KindRunAlreadyActive rejects a submission while another run is in flight.
	KindRunAlreadyActive ErrorKind = "run_already_active"
	// KindInvalidRunConfig rejects unknown models and other bad submissions.
	KindInvalidRunConfig ErrorKind = "invalid_run_config"
)

// String returns the kind identifier.
func (k ErrorKind) String() string { return string(k) }

// Retryable reports whether the retry policy may attempt the call again.
func (k ErrorKind) Retryable() bool {
	switch k {
	case KindUnauthorized, KindRateLimited, KindServerError, KindTransportError, KindMalformedResponse:
		return true
	default:
		return false
	}
}

// Sentinel errors, one per kind, for errors.Is checks.
var (
	ErrCredentialInvalid   = &Error{Kind: KindCredentialInvalid}
	ErrUnauthorized        = &Error{Kind: KindUnauthorized}
	ErrRateLimited         = &Error{Kind: KindRateLimited}
	ErrServerError         = &Error{Kind: KindServerError}
	ErrTransportError      = &Error{Kind: KindTransportError}
	ErrMalformedResponse   = &Error{Kind: KindMalformedResponse}
	ErrEmptyPromptRejected = &Error{Kind: KindEmptyPromptRejected}
	ErrRunAlreadyActive    = &Error{Kind: KindRunAlreadyActive}
	ErrInvalidRunConfig    = &Error{Kind: KindInvalidRunConfig}
)

// Error is a classified failure. Backend and StatusCode are filled in when
// the failure originated from a backend call.
type Error struct {
	Kind       ErrorKind
	Backend    string
	StatusCode int
	Message    string
	Err        error
}

// NewError builds a classified error wrapping cause (which may be nil).
func NewError(kind ErrorKind, backend, message string, cause error) *Error {
	return &Error{Kind: kind, Backend: backend, Message: message, Err: cause}
}

// Error implements error.
func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if msg == "" {
		msg = string(e.Kind)
	}
	prefix := string(e.Kind)
	if e.Backend != "" {
		prefix = e.Backend + ": " + prefix
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s (status %d): %s", prefix, e.StatusCode, msg)
	}
	if msg == string(e.Kind) {
		return prefix
	}
	return prefix + ": " + msg
}

// Unwrap exposes the underlying cause.
func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so sentinels work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf classifies an arbitrary error. Unclassified context errors count as
// transport failures; anything else unknown is reported as a server error.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return KindTransportError
	}
	return KindServerError
}

// Describe renders the human-readable message shown on both sides of the
// presentation layer when a run ends on err.
func Describe(err error) string {
	if err == nil {
		return ""
	}
	switch KindOf(err) {
	case KindUnauthorized, KindCredentialInvalid:
		return "Invalid API key. Please re-enter keys."
	case KindRateLimited:
		return "Rate limit exceeded. Try again later."
	case KindServerError:
		var e *Error
		if errors.As(err, &e) && e.StatusCode >= 500 {
			return "Server error. Please try again later."
		}
		return fmt.Sprintf("HTTP error: %v", err)
	default:
		return err.Error()
	}
}
