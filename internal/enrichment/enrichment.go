// Package enrichment implements the Enrichment Engine (spec.md §4.7): given
// a competitor's website and whatever initial data is already known, it
// produces a fully-merged EnrichedCompetitor record by layering a
// structured scrape, an optional deep crawl, social-link synthesis, social
// metric scraping, and an AI SWOT/positioning analysis.
package enrichment

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/compintel/discovery/internal/extraction/competitor"
	"github.com/compintel/discovery/internal/llmclient"
	"github.com/compintel/discovery/internal/models"
	"github.com/compintel/discovery/internal/searchprovider"
)

// crawlAllowlist is the set of paths a deep crawl may visit (spec.md §4.7
// step 2).
var crawlAllowlist = []string{"/about", "/team", "/pricing", "/product", "/company"}

// Options configures a single Enrich call (spec.md §4.7).
type Options struct {
	IncludeSocialMedia bool
	IncludeAIAnalysis  bool
	CrawlDepth         int
}

// DefaultOptions matches the HTTP surface's POST /competitors/:id/enrich
// defaults (spec.md §6).
func DefaultOptions() Options {
	return Options{IncludeSocialMedia: true, IncludeAIAnalysis: true, CrawlDepth: 2}
}

// Initial is whatever the caller already knows about the competitor before
// enrichment runs (spec.md §4.7's "initial" argument).
type Initial struct {
	Name        string
	Description string
	Industry    string
	Country     string
}

// Engine runs the enrichment pipeline.
type Engine struct {
	scraper   searchprovider.Scraper
	extractor *competitor.Extractor
	llm       *llmclient.Client
}

// New creates an Engine.
func New(scraper searchprovider.Scraper, extractor *competitor.Extractor, llm *llmclient.Client) *Engine {
	return &Engine{scraper: scraper, extractor: extractor, llm: llm}
}

// Enrich runs all steps of spec.md §4.7 for a single competitor website.
func (e *Engine) Enrich(ctx context.Context, website string, initial Initial, opts Options) (*models.EnrichedCompetitor, error) {
	dataSources := map[string]struct{}{}

	// Step 1: structured scrape.
	var mainContent string
	if e.scraper != nil {
		content, err := e.scraper.Scrape(ctx, website)
		if err != nil {
			log.Printf("enrichment: structured scrape of %s failed, continuing with empty data: %v", website, err)
		} else {
			mainContent = content
			dataSources["website"] = struct{}{}
		}
	}

	// Step 2: optional deep crawl.
	var crawlContent strings.Builder
	if opts.CrawlDepth > 1 && e.scraper != nil {
		pages := 0
		for _, path := range crawlAllowlist {
			if pages >= opts.CrawlDepth {
				break
			}
			pageURL := strings.TrimRight(website, "/") + path
			content, err := e.scraper.Scrape(ctx, pageURL)
			if err != nil {
				continue
			}
			crawlContent.WriteString(content)
			crawlContent.WriteString("\n\n")
			pages++
		}
		if crawlContent.Len() > 0 {
			dataSources["website_crawl"] = struct{}{}
		}
	}

	combinedContent := mainContent + "\n\n" + crawlContent.String()

	basic, fields := e.extractFields(ctx, website, combinedContent, initial)

	// Step 3: social-link synthesis.
	regexLinks := competitor.ExtractSocialLinks(combinedContent)
	fields.SocialLinks = mergeSocialLinks(fields.SocialLinks, regexLinks)
	synthesized := false
	if fields.SocialLinks == (models.SocialLinks{}) && basic.Name != "" {
		fields.SocialLinks = synthesizeSocialLinks(basic.Name)
		synthesized = true
	}

	// Step 4: social enrichment.
	if opts.IncludeSocialMedia && e.scraper != nil {
		e.scrapeSocialMetrics(ctx, &fields, dataSources, synthesized)
	}

	// Step 5: AI analysis.
	if opts.IncludeAIAnalysis {
		swot, positioning, growth, risk := e.analyze(ctx, basic, fields, combinedContent)
		fields.SWOT = swot
		fields.MarketPosition = positioning
		fields.GrowthSignals = growth
		fields.RiskFactors = risk
		if swot != nil {
			dataSources["ai_analysis"] = struct{}{}
		}
	}

	// Step 6: merge field precedence is already encoded by extractFields
	// preferring scrape output over initial over a URL-derived fallback.

	sources := make([]string, 0, len(dataSources))
	for k := range dataSources {
		sources = append(sources, k)
	}

	result := &models.EnrichedCompetitor{
		Name:           basic.Name,
		Website:        website,
		Description:    basic.Description,
		Industry:       basic.Industry,
		Country:        basic.Country,
		Fields:         fields,
		DataSources:    sources,
		EnrichmentDate: time.Now().UTC(),
	}
	result.DataCompleteness = DataCompleteness(result)
	result.ConfidenceScore = ConfidenceScore(result)
	return result, nil
}

func (e *Engine) extractFields(ctx context.Context, website, content string, initial Initial) (models.BasicCompetitor, models.EnrichedFields) {
	fallbackName := domainToName(website)

	basic := models.BasicCompetitor{
		Name:        firstNonEmpty(initial.Name, fallbackName),
		Website:     website,
		Description: initial.Description,
		Industry:    initial.Industry,
		Country:     initial.Country,
	}
	var fields models.EnrichedFields

	if e.extractor == nil || strings.TrimSpace(content) == "" {
		return basic, fields
	}

	candidates := e.extractor.ExtractEnriched(ctx, []searchprovider.Result{{URL: website, Content: content}}, competitor.Context{})
	if len(candidates) == 0 {
		return basic, fields
	}

	c := candidates[0]
	basic.Name = firstNonEmpty(c.Basic.Name, basic.Name)
	basic.Description = firstNonEmpty(c.Basic.Description, basic.Description)
	basic.Industry = firstNonEmpty(c.Basic.Industry, basic.Industry)
	basic.Country = firstNonEmpty(c.Basic.Country, basic.Country)
	basic.BusinessModel = c.Basic.BusinessModel
	basic.ValueProposition = c.Basic.ValueProposition
	basic.FoundedYear = c.Basic.FoundedYear
	basic.FundingUSD = c.Basic.FundingUSD
	fields = c.Fields
	return basic, fields
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

var hostnameRe = regexp.MustCompile(`^(?:https?://)?(?:www\.)?([^/.]+)`)

func domainToName(website string) string {
	m := hostnameRe.FindStringSubmatch(website)
	if len(m) < 2 {
		return ""
	}
	return strings.Title(strings.ReplaceAll(m[1], "-", " "))
}

func mergeSocialLinks(extracted, regex models.SocialLinks) models.SocialLinks {
	return models.SocialLinks{
		LinkedIn:   firstNonEmpty(regex.LinkedIn, extracted.LinkedIn),
		Twitter:    firstNonEmpty(regex.Twitter, extracted.Twitter),
		Facebook:   firstNonEmpty(regex.Facebook, extracted.Facebook),
		Instagram:  firstNonEmpty(regex.Instagram, extracted.Instagram),
		Crunchbase: firstNonEmpty(regex.Crunchbase, extracted.Crunchbase),
	}
}

var nonAlnumRe = regexp.MustCompile(`[^a-z0-9]+`)

func slugify(name string) string {
	lower := strings.ToLower(name)
	return strings.Trim(nonAlnumRe.ReplaceAllString(lower, ""), "-")
}

// synthesizeSocialLinks generates plausible but unverified social URLs
// (spec.md §4.7 step 3, §9 "Social-link synthesis"). Callers must only mark
// these as verified if they also appear in DataSources.
func synthesizeSocialLinks(name string) models.SocialLinks {
	slug := slugify(name)
	if slug == "" {
		return models.SocialLinks{}
	}
	return models.SocialLinks{
		LinkedIn: fmt.Sprintf("https://linkedin.com/company/%s", slug),
		Twitter:  fmt.Sprintf("https://twitter.com/%s", slug),
	}
}
