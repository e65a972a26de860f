package enrichment

import (
	"context"
	"errors"
	"testing"

	"github.com/compintel/discovery/internal/models"
)

type fakeScraper struct {
	pages map[string]string
	err   map[string]error
}

func (f fakeScraper) Scrape(ctx context.Context, url string) (string, error) {
	if err, ok := f.err[url]; ok {
		return "", err
	}
	return f.pages[url], nil
}

func TestEnrichScrapeFailureStillReturnsRecord(t *testing.T) {
	scraper := fakeScraper{err: map[string]error{"https://acme.com": errors.New("boom")}}
	e := New(scraper, nil, nil)

	result, err := e.Enrich(context.Background(), "https://acme.com", Initial{Name: "Acme"}, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Name != "Acme" {
		t.Errorf("expected fallback to initial name, got %q", result.Name)
	}
	for _, s := range result.DataSources {
		if s == "website" {
			t.Errorf("website should not be a data source when scrape failed")
		}
	}
	if result.ConfidenceScore > 30 {
		t.Errorf("expected low confidence on zero sources, got %d", result.ConfidenceScore)
	}
}

func TestSynthesizedLinksNotScraped(t *testing.T) {
	scraper := fakeScraper{pages: map[string]string{}}
	e := New(scraper, nil, nil)

	result, err := e.Enrich(context.Background(), "https://novelco.com", Initial{Name: "NovelCo"}, Options{IncludeSocialMedia: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Fields.SocialLinks.LinkedIn == "" {
		t.Fatalf("expected synthesized linkedin link")
	}
	for _, s := range result.DataSources {
		if s == "linkedin" {
			t.Errorf("synthesized links must not be counted as a verified data source")
		}
	}
}

func TestDataCompletenessAndConfidenceBounds(t *testing.T) {
	r := &models.EnrichedCompetitor{
		Name:        "Flutterwave",
		Website:     "https://flutterwave.com",
		Description: "payments",
		Industry:    "fintech",
		Country:     "NG",
		Fields: models.EnrichedFields{
			Tagline:      "Pay globally",
			Headquarters: "Lagos",
			Founders:     []string{"Iyin Aboyeji"},
			FundingStage: "Series C",
			Investors:    []string{"a16z"},
			Technologies: []string{"Go", "Kubernetes"},
			SocialLinks:  models.SocialLinks{LinkedIn: "https://linkedin.com/company/flutterwave"},
			SWOT:         &models.SWOTAnalysis{Strengths: []string{"scale"}},
		},
		DataSources: []string{"website", "website_crawl", "linkedin", "twitter", "ai_analysis"},
	}
	r.DataCompleteness = DataCompleteness(r)
	r.ConfidenceScore = ConfidenceScore(r)

	if r.DataCompleteness < 70 {
		t.Errorf("expected data completeness >= 70 per literal scenario, got %d", r.DataCompleteness)
	}
	if r.ConfidenceScore < 80 {
		t.Errorf("expected confidence >= 80 per literal scenario, got %d", r.ConfidenceScore)
	}
	if r.ConfidenceScore > 100 {
		t.Errorf("confidence must be clamped to 100, got %d", r.ConfidenceScore)
	}
}

func TestParseCountExpandsSuffixes(t *testing.T) {
	cases := map[string]int64{
		"32.5K": 32500,
		"48000": 48000,
		"1.2M":  1200000,
	}
	for in, want := range cases {
		got, ok := parseCount(in)
		if !ok {
			t.Errorf("parseCount(%q) failed to parse", in)
			continue
		}
		if got != want {
			t.Errorf("parseCount(%q) = %d, want %d", in, got, want)
		}
	}
}
