// Package providererr classifies errors returned by search/LLM/embedding
// collaborators into the kinds the pipeline branches on: insufficient
// credits, rate limiting, and transport failures.
package providererr

import "errors"

// Kind is the error taxonomy used by search providers and the LLM client.
type Kind string

const (
	// KindInsufficientCredits means the provider is exhausted; the caller
	// should stop iterating further primary calls and fall back once.
	KindInsufficientCredits Kind = "insufficient_credits"
	// KindRateLimited means the call should be retried with backoff.
	KindRateLimited Kind = "rate_limited"
	// KindTransport covers network/transport failures, also retryable.
	KindTransport Kind = "transport"
)

// Error wraps an underlying error with a Kind so callers can branch on
// errors.As without string-matching.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return string(e.Kind)
	}
	return string(e.Kind) + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// New builds a kinded provider error.
func New(kind Kind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

// IsInsufficientCredits reports whether err (or a wrapped cause) indicates
// provider credit exhaustion.
func IsInsufficientCredits(err error) bool {
	var pe *Error
	return errors.As(err, &pe) && pe.Kind == KindInsufficientCredits
}

// IsTransient reports whether err is rate-limited or a transport error -
// the two kinds the Worker retries (spec.md §7 ProviderTransient).
func IsTransient(err error) bool {
	var pe *Error
	if !errors.As(err, &pe) {
		return false
	}
	return pe.Kind == KindRateLimited || pe.Kind == KindTransport
}
