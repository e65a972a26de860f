// Package services implements the orchestration layer sitting above the
// pipeline packages (querybuilder, searchprovider, extraction, scoring,
// dedup, enrichment) and the store layer: the Discovery Orchestrator
// (spec.md §6 HTTP-facing operations) and the Worker Runtime (spec.md §4.8).
package services

import "errors"

// Kind is the service-layer error taxonomy (spec.md §7): the subset of the
// pipeline's error kinds that originate at the orchestrator boundary rather
// than inside a pipeline component.
type Kind string

const (
	// KindValidation covers bad input shape - empty keywords/regions, an
	// unknown project (spec.md §7 "Validation").
	KindValidation Kind = "validation"
	// KindAuthorizationScope means the requested project does not belong to
	// the caller's organization (spec.md §7 "AuthorizationScope").
	KindAuthorizationScope Kind = "authorization_scope"
	// KindQuota means the organization's quota collaborator rejected the
	// request (spec.md §6 "402 over quota").
	KindQuota Kind = "quota"
	// KindNotFound means the requested run/competitor does not exist, or is
	// not accessible to the caller's organization.
	KindNotFound Kind = "not_found"
)

// Error wraps an underlying error with a Kind so HTTP handlers can map it to
// a status code without string-matching (mirrors internal/store.Error and
// internal/providererr.Error).
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Op != "" {
		return "services: " + e.Op + ": " + e.Err.Error()
	}
	return "services: " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// NewError wraps err as a kinded services.Error for operation op.
func NewError(op string, kind Kind, err error) *Error {
	return &Error{Op: op, Kind: kind, Err: err}
}

// IsValidation reports whether err is a KindValidation services.Error.
func IsValidation(err error) bool { return hasKind(err, KindValidation) }

// IsAuthorizationScope reports whether err is a KindAuthorizationScope
// services.Error.
func IsAuthorizationScope(err error) bool { return hasKind(err, KindAuthorizationScope) }

// IsQuota reports whether err is a KindQuota services.Error.
func IsQuota(err error) bool { return hasKind(err, KindQuota) }

// IsNotFound reports whether err is a KindNotFound services.Error.
func IsNotFound(err error) bool { return hasKind(err, KindNotFound) }

func hasKind(err error, kind Kind) bool {
	var se *Error
	return errors.As(err, &se) && se.Kind == kind
}
