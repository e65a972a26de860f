// Package scoring implements the Scorer (spec.md §4.4): a deterministic,
// pure function assigning an integer relevance score in [0, 100] to a
// candidate competitor against a targeting context.
package scoring

import (
	"math"
	"strings"
	"time"

	"github.com/compintel/discovery/internal/models"
)

// Context is the targeting context a candidate is scored against.
type Context struct {
	Industries []string
	Regions    []string
	Now        time.Time
}

// DefaultThreshold is the relevance cutoff below which candidates are
// dropped (spec.md §9: "the magic number 75... make it configuration-driven").
const DefaultThreshold = 75

// Score returns a deterministic integer in [0, 100].
func Score(c models.BasicCompetitor, tc Context) int {
	score := 0
	score += industryScore(c, tc)
	score += geoScore(c, tc)
	score += completenessScore(c)
	score += foundedRecencyScore(c, tc)
	score += fundingScore(c)

	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

func industryScore(c models.BasicCompetitor, tc Context) int {
	if c.Industry == "" {
		return 0
	}
	candidate := strings.ToLower(c.Industry)
	for _, ind := range tc.Industries {
		if ind == "" {
			continue
		}
		if strings.Contains(candidate, strings.ToLower(ind)) {
			return 30
		}
	}
	return 0
}

func geoScore(c models.BasicCompetitor, tc Context) int {
	if c.Country == "" {
		return 0
	}
	candidate := strings.ToLower(c.Country)
	for _, region := range tc.Regions {
		if strings.ToLower(region) == candidate {
			return 25
		}
	}
	return 0
}

func completenessScore(c models.BasicCompetitor) int {
	fields := []string{c.Name, c.Description, c.Website, c.BusinessModel, c.ValueProposition}
	filled := 0
	for _, f := range fields {
		if strings.TrimSpace(f) != "" {
			filled++
		}
	}
	fraction := float64(filled) / float64(len(fields))
	return int(math.Round(fraction * 20))
}

func foundedRecencyScore(c models.BasicCompetitor, tc Context) int {
	if c.FoundedYear <= 0 {
		return 0
	}
	now := tc.Now
	if now.IsZero() {
		now = time.Now()
	}
	age := now.Year() - c.FoundedYear
	switch {
	case age <= 3:
		return 15
	case age <= 5:
		return 10
	case age <= 10:
		return 5
	default:
		return 0
	}
}

func fundingScore(c models.BasicCompetitor) int {
	if c.FundingUSD == nil {
		return 0
	}
	switch {
	case *c.FundingUSD >= 1_000_000:
		return 10
	case *c.FundingUSD >= 100_000:
		return 5
	default:
		return 0
	}
}
