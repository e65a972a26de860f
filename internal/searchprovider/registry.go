// File: internal/searchprovider/registry.go
package searchprovider

import (
	"context"
)

// Registry orders a primary provider ahead of a fallback provider and
// implements the degradation rule from spec.md §4.2: the Worker calls
// SearchPrimary once per query and stops iterating on exhaustion, then
// invokes SearchFallbackOnly at most once per run if the aggregate came back
// empty (internal/services.orchestrator.collectSearchResults owns that
// composition; Registry itself stays a thin dispatcher over the two
// providers rather than re-implementing the once-per-run rule).
type Registry struct {
	primary  Provider
	fallback Provider
}

// NewRegistry composes a primary and fallback provider. Either may be nil.
func NewRegistry(primary, fallback Provider) *Registry {
	return &Registry{primary: primary, fallback: fallback}
}

// SearchPrimary runs only the primary provider, returning a provider-
// unavailable outcome if it has no credential configured. It never consults
// the fallback provider; composing the two is the caller's job.
func (r *Registry) SearchPrimary(ctx context.Context, query string, opts SearchOptions) SearchOutcome {
	if r.primary == nil || !r.primary.IsAvailable() {
		return errOutcome("primary", errNoProviderAvailable)
	}
	return r.primary.Search(ctx, query, opts)
}

// SearchFallbackOnly runs only the fallback provider. The orchestrator calls
// it once per run when the primary loop produced no results, whether the
// primary has no credential configured, reported exhaustion, or found nothing
// (spec.md §4.2's "skip immediately" case is handled like exhaustion here).
func (r *Registry) SearchFallbackOnly(ctx context.Context, input FallbackInput) SearchOutcome {
	if r.fallback == nil || !r.fallback.IsAvailable() {
		return errOutcome("registry", errNoProviderAvailable)
	}
	return r.fallback.Search(ctx, BuildFallbackQuery(input), SearchOptions{Limit: input.Limit})
}

// HasAnyProvider reports whether at least one configured provider is usable.
func (r *Registry) HasAnyProvider() bool {
	return (r.primary != nil && r.primary.IsAvailable()) || (r.fallback != nil && r.fallback.IsAvailable())
}

var errNoProviderAvailable = providerUnavailableError{}

type providerUnavailableError struct{}

func (providerUnavailableError) Error() string {
	return "no search provider is available (no credentials configured)"
}
