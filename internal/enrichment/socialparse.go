package enrichment

import (
	"context"
	"log"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/compintel/discovery/internal/models"
)

// followerPatterns are locale-aware regexes for the common "N followers"
// phrasing social platforms use, per spec.md §4.7 step 4.
var followerPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)([\d.,]+\s*[kmb]?)\s*(?:followers|abonnés|abonnes)`),
}

var likePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)([\d.,]+\s*[kmb]?)\s*(?:likes|j'aime|jaime)`),
}

var employeePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)([\d.,]+\s*[kmb]?)\s*(?:employees|employés|employes)`),
}

// parseCount expands a "32.5K"-style count into an integer, per spec.md
// §4.7 step 4's "K/M suffix expansion".
func parseCount(raw string) (int64, bool) {
	trimmed := strings.ToLower(strings.TrimSpace(raw))
	trimmed = strings.ReplaceAll(trimmed, ",", "")
	if trimmed == "" {
		return 0, false
	}
	multiplier := 1.0
	switch {
	case strings.HasSuffix(trimmed, "k"):
		multiplier = 1e3
		trimmed = strings.TrimSuffix(trimmed, "k")
	case strings.HasSuffix(trimmed, "m"):
		multiplier = 1e6
		trimmed = strings.TrimSuffix(trimmed, "m")
	case strings.HasSuffix(trimmed, "b"):
		multiplier = 1e9
		trimmed = strings.TrimSuffix(trimmed, "b")
	}
	value, err := strconv.ParseFloat(strings.TrimSpace(trimmed), 64)
	if err != nil {
		return 0, false
	}
	return int64(value * multiplier), true
}

func firstCount(patterns []*regexp.Regexp, content string) (int64, bool) {
	for _, re := range patterns {
		m := re.FindStringSubmatch(content)
		if len(m) < 2 {
			continue
		}
		if v, ok := parseCount(m[1]); ok {
			return v, true
		}
	}
	return 0, false
}

// scrapeSocialMetrics probes LinkedIn, X/Twitter, and Facebook concurrently
// (spec.md §5: "enrichment may issue concurrent social-scrape probes for
// the three supported networks, bounded to those three") and fills in
// follower/employee/like counts. Parse failures are non-fatal (spec.md
// §4.7 step 4); each successfully-scraped network is added to dataSources.
func (e *Engine) scrapeSocialMetrics(ctx context.Context, fields *models.EnrichedFields, dataSources map[string]struct{}, linksAreSynthesized bool) {
	if linksAreSynthesized {
		// Unverified guesses are not real pages to scrape (spec.md §9).
		return
	}

	var mu sync.Mutex
	var wg sync.WaitGroup

	if fields.SocialLinks.LinkedIn != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			content, err := e.scraper.Scrape(ctx, fields.SocialLinks.LinkedIn)
			if err != nil {
				log.Printf("enrichment: linkedin scrape failed: %v", err)
				return
			}
			mu.Lock()
			defer mu.Unlock()
			if followers, ok := firstCount(followerPatterns, content); ok {
				fields.SocialMetrics.LinkedInFollowers = &followers
			}
			if employees, ok := firstCount(employeePatterns, content); ok {
				fields.SocialMetrics.LinkedInEmployees = &employees
			}
			dataSources["linkedin"] = struct{}{}
		}()
	}

	if fields.SocialLinks.Twitter != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			content, err := e.scraper.Scrape(ctx, fields.SocialLinks.Twitter)
			if err != nil {
				log.Printf("enrichment: twitter scrape failed: %v", err)
				return
			}
			mu.Lock()
			defer mu.Unlock()
			if followers, ok := firstCount(followerPatterns, content); ok {
				fields.SocialMetrics.TwitterFollowers = &followers
			}
			dataSources["twitter"] = struct{}{}
		}()
	}

	if fields.SocialLinks.Facebook != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			content, err := e.scraper.Scrape(ctx, fields.SocialLinks.Facebook)
			if err != nil {
				log.Printf("enrichment: facebook scrape failed: %v", err)
				return
			}
			mu.Lock()
			defer mu.Unlock()
			if likes, ok := firstCount(likePatterns, content); ok {
				fields.SocialMetrics.FacebookLikes = &likes
			}
			dataSources["facebook"] = struct{}{}
		}()
	}

	wg.Wait()
}
