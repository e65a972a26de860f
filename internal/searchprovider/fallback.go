// File: internal/searchprovider/fallback.go
package searchprovider

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/compintel/discovery/internal/llmclient"
	"github.com/compintel/discovery/internal/providererr"
)

// AIFallbackProvider synthesizes candidate competitor names and URLs from
// the model's training knowledge when the primary web-search-and-scrape
// provider is unavailable or exhausted (spec.md §4.2). It returns bare
// Results (no Content) - the Extractor still runs over whatever the model
// gives it, same as for the primary provider's un-scraped results.
type AIFallbackProvider struct {
	llm *llmclient.Client
}

// NewAIFallbackProvider creates an AIFallbackProvider around an LLM client.
func NewAIFallbackProvider(llm *llmclient.Client) *AIFallbackProvider {
	return &AIFallbackProvider{llm: llm}
}

func (p *AIFallbackProvider) Name() string { return "ai_fallback" }

// IsAvailable mirrors the LLM client's own credential check.
func (p *AIFallbackProvider) IsAvailable() bool {
	return p.llm != nil && p.llm.IsAvailable()
}

// BuildFallbackQuery turns a structured FallbackInput into the free-text
// query the AI fallback provider (and, for symmetry, the primary provider)
// is invoked with.
func BuildFallbackQuery(input FallbackInput) string {
	var sb strings.Builder
	sb.WriteString("Companies")
	if input.Industry != "" {
		sb.WriteString(" in the " + input.Industry + " industry")
	}
	if len(input.Regions) > 0 {
		sb.WriteString(" operating in " + strings.Join(input.Regions, ", "))
	}
	if len(input.Keywords) > 0 {
		sb.WriteString(" matching: " + strings.Join(input.Keywords, ", "))
	}
	return sb.String()
}

// fallbackResult is the literal per-candidate shape spec.md §4.2 requires of
// the AI fallback provider: "a strict JSON array of {name, website,
// description, country}".
type fallbackResult struct {
	Name        string `json:"name"`
	Website     string `json:"website"`
	Description string `json:"description"`
	Country     string `json:"country"`
}

// Search asks the model for candidate companies matching the query. The
// model is required to respond with a bare JSON array (not an object
// wrapping one); anything else is rejected as non-conforming, per spec.md
// §4.2's "callers reject non-conforming output".
func (p *AIFallbackProvider) Search(ctx context.Context, query string, opts SearchOptions) SearchOutcome {
	if !p.IsAvailable() {
		return errOutcome(p.Name(), providererr.New(providererr.KindTransport, fmt.Errorf("ai fallback provider has no credential configured")))
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = 10
	}

	system := "You are a market research assistant. Given a search query describing a market or " +
		"set of competitors, respond with a strict JSON array (no wrapping object) of the shape " +
		`[{"name":"...","website":"https://...","description":"...","country":"ISO-3166 alpha-2 or alpha-3"}] ` +
		fmt.Sprintf("listing up to %d real companies. Use the company's actual primary domain for website.", limit)

	raw, err := p.llm.CompleteJSON(ctx, system, query)
	if err != nil {
		return errOutcome(p.Name(), err)
	}

	var parsed []fallbackResult
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return errOutcome(p.Name(), providererr.New(providererr.KindTransport, fmt.Errorf("ai fallback response is not a conforming JSON array: %w", err)))
	}

	results := make([]Result, 0, len(parsed))
	for _, r := range parsed {
		name := strings.TrimSpace(r.Name)
		website := strings.TrimSpace(r.Website)
		if name == "" || website == "" {
			continue
		}
		results = append(results, Result{
			URL:         website,
			Title:       name,
			Snippet:     r.Description,
			Description: r.Description,
			Country:     r.Country,
		})
	}
	return SearchOutcome{OK: true, Results: results, Provider: p.Name()}
}
