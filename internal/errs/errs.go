// Package errs defines SocialMapper's error taxonomy (spec §7). Every
// component returns one of these kinds instead of a bare error so the
// orchestrator can decide what is fatal and every error stays
// remediation-friendly for an end user.
package errs

import (
	"fmt"

	"github.com/rotisserie/eris"
)

// Kind enumerates the error taxonomy from spec.md §7.
type Kind string

const (
	KindConfiguration    Kind = "configuration"
	KindInvalidLocation  Kind = "invalid_location"
	KindNoDataFound      Kind = "no_data_found"
	KindExternalService  Kind = "external_service"
	KindRateLimit        Kind = "rate_limit"
	KindDataProcessing   Kind = "data_processing"
	KindMissingAPIKey    Kind = "missing_api_key"
	KindPartialFailure   Kind = "partial_failure"
)

// Error is a typed, stage-tagged, remediation-carrying error. It wraps
// an eris error so callers get a stack trace via eris.ToString /
// eris.ToJSON when that's useful for diagnostics.
type Error struct {
	Kind        Kind
	Stage       string
	Message     string
	Suggestions []string
	Host        string // set for KindExternalService / KindRateLimit
	Status      int    // last HTTP status, if any
	cause       error
}

func (e *Error) Error() string {
	if e.Stage != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Stage, e.Kind, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes the wrapped cause for errors.Is/errors.As.
func (e *Error) Unwrap() error { return e.cause }

// New builds a typed error wrapping it with eris for stack context.
func New(kind Kind, stage, message string, suggestions ...string) *Error {
	return &Error{
		Kind:        kind,
		Stage:       stage,
		Message:     message,
		Suggestions: suggestions,
		cause:       eris.New(message),
	}
}

// Wrap builds a typed error from an existing cause, preserving the
// original error's chain via eris.Wrap so the stage context appears in
// eris.ToString output without losing the underlying error for
// errors.Is/errors.As.
func Wrap(kind Kind, stage string, cause error, message string, suggestions ...string) *Error {
	return &Error{
		Kind:        kind,
		Stage:       stage,
		Message:     message,
		Suggestions: suggestions,
		cause:       eris.Wrap(cause, message),
	}
}

// IsFatal reports whether this kind should halt the orchestrator.
// PartialFailure is the only non-fatal kind by construction; every
// other kind short-circuits the run.
func (e *Error) IsFatal() bool {
	return e.Kind != KindPartialFailure
}

// AsTyped extracts a *Error from an error chain, if present.
func AsTyped(err error) (*Error, bool) {
	var te *Error
	if eris.As(err, &te) {
		return te, true
	}
	return nil, false
}
