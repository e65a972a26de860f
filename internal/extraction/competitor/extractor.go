// Package competitor implements the Extractor (spec.md §4.3): it turns a
// batch of search results into structured BasicCompetitor/EnrichedFields
// candidates using a JSON-mode chat-completion call, with deterministic
// regex extraction of social links merged in on top.
package competitor

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"regexp"
	"strconv"
	"strings"

	"github.com/compintel/discovery/internal/llmclient"
	"github.com/compintel/discovery/internal/models"
	"github.com/compintel/discovery/internal/searchprovider"
)

// maxInputResults bounds the prompt size (spec.md §4.3).
const maxInputResults = 15

// maxContentChars is how much of each result's scraped content is included
// per source block.
const maxContentChars = 1500

// Context is the targeting context a batch is extracted against.
type Context struct {
	Keywords []string
	Regions  []string
	Industry string
}

// Extractor turns search results into BasicCompetitor candidates via an LLM.
type Extractor struct {
	llm *llmclient.Client
}

// New creates an Extractor.
func New(llm *llmclient.Client) *Extractor {
	return &Extractor{llm: llm}
}

var countryCodeOverrides = map[string]string{
	"nigeria":       "NG",
	"ghana":         "GH",
	"kenya":         "KE",
	"south africa":  "ZA",
	"egypt":         "EG",
	"senegal":       "SN",
	"ivory coast":   "CI",
	"cote d'ivoire": "CI",
	"united states": "US",
	"usa":           "US",
	"united kingdom": "GB",
	"uk":            "GB",
}

// normalizeCountry maps a free-text or ISO-3166 country string to an
// uppercase two-letter code, or returns "" when ambiguous (spec.md §8).
func normalizeCountry(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	lower := strings.ToLower(trimmed)
	if code, ok := countryCodeOverrides[lower]; ok {
		return code
	}
	// Already alpha-2.
	if len(trimmed) == 2 {
		return strings.ToUpper(trimmed)
	}
	// Alpha-3 (e.g. "NGA"): truncate per spec.md §8's literal rule, best effort.
	if len(trimmed) == 3 {
		return strings.ToUpper(trimmed[:2])
	}
	return ""
}

// normalizeWebsite adds a scheme if missing and strips any trailing slashes.
func normalizeWebsite(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	if !strings.HasPrefix(trimmed, "http://") && !strings.HasPrefix(trimmed, "https://") {
		trimmed = "https://" + trimmed
	}
	return strings.TrimRight(trimmed, "/")
}

type rawCandidate struct {
	Name             string  `json:"name"`
	Website          string  `json:"website"`
	Description      string  `json:"description"`
	Industry         string  `json:"industry"`
	Country          string  `json:"country"`
	BusinessModel    string  `json:"businessModel"`
	ValueProposition string  `json:"valueProposition"`
	FoundedYear      int     `json:"foundedYear"`
	FundingUSD       float64 `json:"fundingUsd"`
}

// Extract runs the plain extraction variant, returning deduplicated
// BasicCompetitor candidates (spec.md §4.3).
func (e *Extractor) Extract(ctx context.Context, results []searchprovider.Result, tc Context) []models.BasicCompetitor {
	raw, err := e.complete(ctx, results, tc, basicInstructions)
	if err != nil {
		log.Printf("competitor extraction: llm call failed: %v", err)
		return nil
	}

	candidates, err := parseJSONArray[rawCandidate](raw)
	if err != nil {
		log.Printf("competitor extraction: parse failure, returning empty: %v", err)
		return nil
	}

	seen := make(map[string]struct{}, len(candidates))
	out := make([]models.BasicCompetitor, 0, len(candidates))
	for _, c := range candidates {
		name := strings.TrimSpace(c.Name)
		website := normalizeWebsite(c.Website)
		if name == "" || website == "" {
			continue
		}
		key := strings.ToLower(name) + "|" + strings.ToLower(website)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		bc := models.BasicCompetitor{
			Name:             name,
			Website:          website,
			Description:      strings.TrimSpace(c.Description),
			Industry:         strings.TrimSpace(c.Industry),
			Country:          normalizeCountry(c.Country),
			BusinessModel:    strings.TrimSpace(c.BusinessModel),
			ValueProposition: strings.TrimSpace(c.ValueProposition),
			FoundedYear:      c.FoundedYear,
		}
		if c.FundingUSD > 0 {
			v := int64(c.FundingUSD)
			bc.FundingUSD = &v
		}
		out = append(out, bc)
	}
	return out
}

type rawEnrichedCandidate struct {
	rawCandidate
	Tagline        string   `json:"tagline"`
	Headquarters   string   `json:"headquarters"`
	Founders       []string `json:"founders"`
	FundingStage   string   `json:"fundingStage"`
	TotalFunding   float64  `json:"totalFunding"`
	Investors      []string `json:"investors"`
	Technologies   []string `json:"technologies"`
	LinkedIn       string   `json:"linkedin"`
	Twitter        string   `json:"twitter"`
	Facebook       string   `json:"facebook"`
	Instagram      string   `json:"instagram"`
	Crunchbase     string   `json:"crunchbase"`
}

// ExtractEnriched runs the enriched extraction variant used by the
// Enrichment Engine (§4.7), merging regex-derived social links over the
// model's own output (regex wins on conflict, per spec.md §4.3).
func (e *Extractor) ExtractEnriched(ctx context.Context, results []searchprovider.Result, tc Context) []EnrichedCandidate {
	raw, err := e.complete(ctx, results, tc, enrichedInstructions)
	if err != nil {
		log.Printf("competitor extraction (enriched): llm call failed: %v", err)
		return nil
	}

	candidates, err := parseJSONArray[rawEnrichedCandidate](raw)
	if err != nil {
		log.Printf("competitor extraction (enriched): parse failure, returning empty: %v", err)
		return nil
	}

	var rawContent strings.Builder
	for _, r := range results {
		rawContent.WriteString(r.Content)
		rawContent.WriteString("\n")
	}
	regexLinks := ExtractSocialLinks(rawContent.String())

	out := make([]EnrichedCandidate, 0, len(candidates))
	for _, c := range candidates {
		name := strings.TrimSpace(c.Name)
		website := normalizeWebsite(c.Website)
		if name == "" || website == "" {
			continue
		}

		links := models.SocialLinks{
			LinkedIn:   firstNonEmpty(regexLinks.LinkedIn, c.LinkedIn),
			Twitter:    firstNonEmpty(regexLinks.Twitter, c.Twitter),
			Facebook:   firstNonEmpty(regexLinks.Facebook, c.Facebook),
			Instagram:  firstNonEmpty(regexLinks.Instagram, c.Instagram),
			Crunchbase: firstNonEmpty(regexLinks.Crunchbase, c.Crunchbase),
		}

		basic := models.BasicCompetitor{
			Name:             name,
			Website:          website,
			Description:      strings.TrimSpace(c.Description),
			Industry:         strings.TrimSpace(c.Industry),
			Country:          normalizeCountry(c.Country),
			BusinessModel:    strings.TrimSpace(c.BusinessModel),
			ValueProposition: strings.TrimSpace(c.ValueProposition),
			FoundedYear:      c.FoundedYear,
		}
		if c.FundingUSD > 0 {
			v := int64(c.FundingUSD)
			basic.FundingUSD = &v
		}

		fields := models.EnrichedFields{
			Tagline:      strings.TrimSpace(c.Tagline),
			Headquarters: strings.TrimSpace(c.Headquarters),
			Founders:     c.Founders,
			FundingStage: strings.TrimSpace(c.FundingStage),
			Investors:    c.Investors,
			Technologies: c.Technologies,
			SocialLinks:  links,
		}
		if c.TotalFunding > 0 {
			v := int64(c.TotalFunding)
			fields.TotalFunding = &v
		}

		out = append(out, EnrichedCandidate{Basic: basic, Fields: fields})
	}
	return out
}

// EnrichedCandidate pairs the basic and extended fields produced by the
// enriched extraction variant.
type EnrichedCandidate struct {
	Basic  models.BasicCompetitor
	Fields models.EnrichedFields
}

const basicInstructions = "Respond with strict JSON: an array of objects with keys " +
	"name, website, description, industry, country, businessModel, valueProposition, " +
	"foundedYear, fundingUsd. Extract companies from direct company pages and from " +
	"listicle articles (\"Top 10 X in Y\"). Skip generic news/directory pages unless " +
	"they are themselves the subject company. country should be the company's primary " +
	"country of operation."

const enrichedInstructions = "Respond with strict JSON: an array of objects with keys " +
	"name, website, description, industry, country, businessModel, valueProposition, " +
	"foundedYear, fundingUsd, tagline, headquarters, founders (array), fundingStage, " +
	"totalFunding, investors (array), technologies (array), linkedin, twitter, facebook, " +
	"instagram, crunchbase (social profile URLs if mentioned)."

func (e *Extractor) complete(ctx context.Context, results []searchprovider.Result, tc Context, instructions string) (string, error) {
	if len(results) > maxInputResults {
		results = results[:maxInputResults]
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Keywords: %s\n", strings.Join(tc.Keywords, ", ")))
	sb.WriteString(fmt.Sprintf("Regions: %s\n", strings.Join(tc.Regions, ", ")))
	if tc.Industry != "" {
		sb.WriteString(fmt.Sprintf("Industry: %s\n", tc.Industry))
	}
	sb.WriteString("\nSources:\n\n")
	for i, r := range results {
		content := r.Content
		if len(content) > maxContentChars {
			content = content[:maxContentChars]
		}
		sb.WriteString(fmt.Sprintf("[%d] url=%s title=%s\nsnippet: %s\n", i+1, r.URL, r.Title, r.Snippet))
		if r.Country != "" {
			// Set by providers that already know the candidate's country as a
			// structured field (the AI fallback provider); trust it over
			// whatever the model would otherwise infer from free text.
			sb.WriteString("country: " + r.Country + "\n")
		}
		if content != "" {
			sb.WriteString("content: " + content + "\n")
		}
		sb.WriteString("\n")
	}

	return e.llm.CompleteJSON(ctx, instructions, sb.String())
}

// parseJSONArray locates the first '[' and last ']' in raw and parses the
// substring, per spec.md §4.3's parsing contract.
func parseJSONArray[T any](raw string) ([]T, error) {
	start := strings.Index(raw, "[")
	end := strings.LastIndex(raw, "]")
	if start == -1 || end == -1 || end < start {
		return nil, fmt.Errorf("no JSON array found in response")
	}
	var out []T
	if err := json.Unmarshal([]byte(raw[start:end+1]), &out); err != nil {
		return nil, fmt.Errorf("unmarshaling candidate array: %w", err)
	}
	return out, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

var (
	linkedInRe  = regexp.MustCompile(`https?://(?:www\.)?linkedin\.com/company/[A-Za-z0-9._-]+`)
	twitterRe   = regexp.MustCompile(`https?://(?:www\.)?(?:twitter|x)\.com/[A-Za-z0-9_]+`)
	facebookRe  = regexp.MustCompile(`https?://(?:www\.)?facebook\.com/[A-Za-z0-9.]+`)
	instagramRe = regexp.MustCompile(`https?://(?:www\.)?instagram\.com/[A-Za-z0-9._]+`)
	crunchbaseRe = regexp.MustCompile(`https?://(?:www\.)?crunchbase\.com/organization/[A-Za-z0-9-]+`)
)

// excludedPaths are non-profile social paths that must never be mistaken
// for a company profile link (spec.md §4.3).
var excludedPaths = []string{"/intent", "/share", "/sharer", "/home"}

func isExcludedPath(url string) bool {
	for _, p := range excludedPaths {
		if strings.Contains(url, p) {
			return true
		}
	}
	return false
}

func firstMatch(re *regexp.Regexp, content string) string {
	for _, m := range re.FindAllString(content, -1) {
		if !isExcludedPath(m) {
			return m
		}
	}
	return ""
}

// ExtractSocialLinks deterministically finds social-profile URLs in raw
// page content, excluding known non-profile paths (spec.md §4.3).
func ExtractSocialLinks(content string) models.SocialLinks {
	return models.SocialLinks{
		LinkedIn:   firstMatch(linkedInRe, content),
		Twitter:    firstMatch(twitterRe, content),
		Facebook:   firstMatch(facebookRe, content),
		Instagram:  firstMatch(instagramRe, content),
		Crunchbase: firstMatch(crunchbaseRe, content),
	}
}

// ParseFundingString parses strings like "$2.5B", "€800K", "tbd" to a
// numeric USD-equivalent via a suffix multiplier table (spec.md §4.7 step
// 6); unparseable input returns (0, false).
func ParseFundingString(raw string) (int64, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return 0, false
	}
	re := regexp.MustCompile(`(?i)^[^0-9]*([0-9]+(?:\.[0-9]+)?)\s*([kmb])?`)
	m := re.FindStringSubmatch(trimmed)
	if m == nil {
		return 0, false
	}
	value, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	multiplier := 1.0
	switch strings.ToLower(m[2]) {
	case "k":
		multiplier = 1e3
	case "m":
		multiplier = 1e6
	case "b":
		multiplier = 1e9
	case "":
		// Bare numbers with no suffix are ambiguous only when there's no
		// currency symbol either; still accept as a literal USD amount.
	}
	return int64(value * multiplier), true
}
