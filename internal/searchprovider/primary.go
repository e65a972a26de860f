// File: internal/searchprovider/primary.go
package searchprovider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/compintel/discovery/internal/providererr"
)

// PrimaryConfig configures the primary web-search-and-scrape provider.
type PrimaryConfig struct {
	APIKey         string
	BaseURL        string // defaults to the hosted search-and-scrape endpoint
	SearchTimeout  time.Duration
	ScrapeTimeout  time.Duration
	MaxContentRead int64
}

const defaultPrimaryBaseURL = "https://api.search-and-scrape.example.com/v1"

// WebScrapeProvider is the canonical search-and-scrape provider (spec.md §9
// resolves the legacy-vs-newer-provider open question in its favor). It
// exposes Search, Scrape, and IsAvailable; absence of an API key makes
// IsAvailable() false so the Worker skips it immediately (spec.md §4.2).
type WebScrapeProvider struct {
	cfg    PrimaryConfig
	client *http.Client
}

func NewWebScrapeProvider(cfg PrimaryConfig) *WebScrapeProvider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultPrimaryBaseURL
	}
	if cfg.SearchTimeout <= 0 {
		cfg.SearchTimeout = 30 * time.Second
	}
	if cfg.ScrapeTimeout <= 0 {
		cfg.ScrapeTimeout = 60 * time.Second
	}
	if cfg.MaxContentRead <= 0 {
		cfg.MaxContentRead = 5 * 1024 * 1024
	}
	return &WebScrapeProvider{
		cfg:    cfg,
		client: &http.Client{},
	}
}

func (p *WebScrapeProvider) Name() string { return "web_search_scrape" }

// IsAvailable treats a missing credential as unavailable, per spec.md §4.2.
func (p *WebScrapeProvider) IsAvailable() bool {
	return strings.TrimSpace(p.cfg.APIKey) != ""
}

type searchAPIRequest struct {
	Query         string `json:"query"`
	Limit         int    `json:"limit"`
	ScrapeContent bool   `json:"scrape_content"`
}

type searchAPIResult struct {
	URL     string `json:"url"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
	Content string `json:"content,omitempty"`
}

type searchAPIResponse struct {
	Results []searchAPIResult `json:"results"`
}

func (p *WebScrapeProvider) Search(ctx context.Context, query string, opts SearchOptions) SearchOutcome {
	if !p.IsAvailable() {
		return errOutcome(p.Name(), providererr.New(providererr.KindTransport, fmt.Errorf("primary search provider has no credential configured")))
	}

	ctx, cancel := context.WithTimeout(ctx, p.cfg.SearchTimeout)
	defer cancel()

	body, err := json.Marshal(searchAPIRequest{Query: query, Limit: opts.Limit, ScrapeContent: opts.ScrapeContent})
	if err != nil {
		return errOutcome(p.Name(), providererr.New(providererr.KindTransport, err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.BaseURL+"/search", strings.NewReader(string(body)))
	if err != nil {
		return errOutcome(p.Name(), providererr.New(providererr.KindTransport, err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return errOutcome(p.Name(), providererr.New(providererr.KindTransport, err))
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusPaymentRequired, http.StatusForbidden:
		return errOutcome(p.Name(), providererr.New(providererr.KindInsufficientCredits, fmt.Errorf("search provider returned status %d", resp.StatusCode)))
	case http.StatusTooManyRequests:
		return errOutcome(p.Name(), providererr.New(providererr.KindRateLimited, fmt.Errorf("search provider rate limited (status %d)", resp.StatusCode)))
	}
	if resp.StatusCode != http.StatusOK {
		return errOutcome(p.Name(), providererr.New(providererr.KindTransport, fmt.Errorf("search provider returned status %d", resp.StatusCode)))
	}

	var parsed searchAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return errOutcome(p.Name(), providererr.New(providererr.KindTransport, fmt.Errorf("decoding search response: %w", err)))
	}

	results := make([]Result, 0, len(parsed.Results))
	for _, r := range parsed.Results {
		results = append(results, Result{URL: r.URL, Title: r.Title, Snippet: r.Snippet, Content: r.Content})
	}

	log.Printf("WebScrapeProvider: query %q returned %d results (scrape_content=%t)", query, len(results), opts.ScrapeContent)
	return SearchOutcome{OK: true, Results: results, Provider: p.Name()}
}

// Scrape fetches a single URL and converts its readable text into a
// markdown-ish representation (headings kept as "# "/"## " prefixes,
// paragraphs separated by blank lines) via goquery DOM traversal.
func (p *WebScrapeProvider) Scrape(ctx context.Context, rawURL string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.cfg.ScrapeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("building scrape request for %s: %w", rawURL, err)
	}
	req.Header.Set("User-Agent", "CompintelDiscoveryBot/1.0 (+https://compintel.example.com/bot)")
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("scraping %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("scraping %s: status %d", rawURL, resp.StatusCode)
	}

	limited := io.LimitReader(resp.Body, p.cfg.MaxContentRead)
	doc, err := goquery.NewDocumentFromReader(limited)
	if err != nil {
		return "", fmt.Errorf("parsing HTML from %s: %w", rawURL, err)
	}

	return documentToMarkdown(doc), nil
}

func documentToMarkdown(doc *goquery.Document) string {
	doc.Find("script, style, nav, footer, noscript").Remove()

	var sb strings.Builder
	doc.Find("h1, h2, h3, p, li").Each(func(_ int, sel *goquery.Selection) {
		text := strings.TrimSpace(sel.Text())
		if text == "" {
			return
		}
		switch goquery.NodeName(sel) {
		case "h1":
			sb.WriteString("# " + text + "\n\n")
		case "h2":
			sb.WriteString("## " + text + "\n\n")
		case "h3":
			sb.WriteString("### " + text + "\n\n")
		case "li":
			sb.WriteString("- " + text + "\n")
		default:
			sb.WriteString(text + "\n\n")
		}
	})
	return strings.TrimSpace(sb.String())
}
