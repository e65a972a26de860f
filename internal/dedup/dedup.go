// Package dedup implements the Deduplicator (spec.md §4.5): within-batch
// domain dedup, cross-tenant-corpus domain dedup, and an optional
// similarity-based semantic dedup pass that degrades cleanly when an
// embedding collaborator is unavailable (spec.md §9).
package dedup

import (
	"context"
	"log"
	"net/url"
	"strings"

	"github.com/compintel/discovery/internal/llmclient"
	"github.com/compintel/discovery/internal/models"
)

// SemanticThreshold is the cosine-similarity cutoff above which a candidate
// is treated as a duplicate of an existing tenant competitor (spec.md §4.5).
const SemanticThreshold = 0.85

// NormalizeDomain lowercases a URL's hostname and strips a leading "www.",
// the dedup key used throughout the pipeline (spec.md GLOSSARY).
func NormalizeDomain(website string) string {
	raw := strings.TrimSpace(website)
	if raw == "" {
		return ""
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return strings.ToLower(raw)
	}
	host := strings.ToLower(u.Hostname())
	return strings.TrimPrefix(host, "www.")
}

// Embedder generates a vector embedding for a text fingerprint. Implemented
// by internal/llmclient.EmbeddingClient; kept as an interface here so dedup
// stays testable without a live HTTP collaborator.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Deduplicator runs the two mandatory stages plus the optional semantic
// stage over a batch of candidates.
type Deduplicator struct {
	embedder Embedder
}

// New creates a Deduplicator. embedder may be nil, disabling semantic dedup.
func New(embedder Embedder) *Deduplicator {
	return &Deduplicator{embedder: embedder}
}

// Dedupe applies within-batch domain dedup (first occurrence wins), then
// drops candidates whose normalized domain already exists in
// existingDomains, then (if an embedder is configured) drops candidates
// whose text fingerprint is semantically similar to an existing embedding.
func (d *Deduplicator) Dedupe(ctx context.Context, candidates []models.BasicCompetitor, existingDomains map[string]struct{}, existingEmbeddings map[string][]float32) []models.BasicCompetitor {
	seen := make(map[string]struct{}, len(candidates))
	var stage1 []models.BasicCompetitor
	for _, c := range candidates {
		domain := NormalizeDomain(c.Website)
		if domain == "" {
			continue
		}
		if _, dup := seen[domain]; dup {
			continue
		}
		seen[domain] = struct{}{}
		if _, exists := existingDomains[domain]; exists {
			continue
		}
		stage1 = append(stage1, c)
	}

	if d.embedder == nil || len(existingEmbeddings) == 0 {
		return stage1
	}

	out := make([]models.BasicCompetitor, 0, len(stage1))
	for _, c := range stage1 {
		isDup, err := d.semanticDuplicate(ctx, c, existingEmbeddings)
		if err != nil {
			// Semantic dedup must not block the run on failure (spec.md §4.5).
			log.Printf("dedup: semantic check failed for %q, admitting candidate: %v", c.Name, err)
			out = append(out, c)
			continue
		}
		if !isDup {
			out = append(out, c)
		}
	}
	return out
}

func (d *Deduplicator) semanticDuplicate(ctx context.Context, c models.BasicCompetitor, existing map[string][]float32) (bool, error) {
	vec, err := d.embedder.Embed(ctx, Fingerprint(c))
	if err != nil {
		return false, err
	}
	for _, other := range existing {
		if llmclient.CosineSimilarity(vec, other) >= SemanticThreshold {
			return true, nil
		}
	}
	return false, nil
}

// Fingerprint builds the pipe-delimited text fingerprint a candidate's
// embedding is generated from (spec.md §4.5).
func Fingerprint(c models.BasicCompetitor) string {
	return strings.Join([]string{c.Name, c.Description, c.ValueProposition, c.BusinessModel, c.Industry}, " | ")
}
