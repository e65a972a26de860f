// Package searchprovider implements the uniform search capability described
// in spec.md §4.2: a primary web-search-and-scrape provider and an AI
// fallback provider, composed by the Worker with graceful degradation.
package searchprovider

import (
	"context"

	"github.com/compintel/discovery/internal/providererr"
)

// Result is a single search result, optionally carrying scraped content.
// Description and Country are populated only by providers that already know
// them as structured fields (the AI fallback provider, spec.md §4.2); the
// primary provider leaves them empty and the Extractor infers them from
// Title/Snippet/Content instead.
type Result struct {
	URL         string `json:"url"`
	Title       string `json:"title"`
	Snippet     string `json:"snippet"`
	Content     string `json:"content,omitempty"`
	Description string `json:"description,omitempty"`
	Country     string `json:"country,omitempty"`
}

// SearchOptions configures a single Search call.
type SearchOptions struct {
	Limit         int
	ScrapeContent bool
}

// SearchOutcome is the uniform return shape from Search: ok/results/provider
// name, plus an error_kind surfaced through providererr when !OK.
type SearchOutcome struct {
	OK       bool
	Results  []Result
	Provider string
	Err      error
}

// Provider is the uniform capability every search collaborator implements.
type Provider interface {
	Name() string
	// IsAvailable reports whether the provider has what it needs (e.g. a
	// credential) to be attempted at all.
	IsAvailable() bool
	Search(ctx context.Context, query string, opts SearchOptions) SearchOutcome
}

// Scraper is implemented by providers that can fetch a single URL's content
// directly (used by the Enrichment Engine, spec.md §4.7 step 1).
type Scraper interface {
	Scrape(ctx context.Context, url string) (content string, err error)
}

// FallbackInput is what the AI fallback provider needs to synthesize
// candidates when the primary provider is unavailable or exhausted.
type FallbackInput struct {
	Keywords []string
	Regions  []string
	Industry string
	Limit    int
}

// errOutcome is a small helper so provider implementations build a consistent
// failure shape instead of hand-rolling the struct literal everywhere.
func errOutcome(provider string, err error) SearchOutcome {
	return SearchOutcome{OK: false, Provider: provider, Err: err}
}

// IsExhausted reports whether outcome failed due to provider credit
// exhaustion (spec.md §4.2's "on insufficient_credits stop iterating").
func (o SearchOutcome) IsExhausted() bool {
	return !o.OK && providererr.IsInsufficientCredits(o.Err)
}
