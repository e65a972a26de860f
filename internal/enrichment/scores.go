package enrichment

import (
	"math"

	"github.com/compintel/discovery/internal/models"
)

// filledCount counts how many of the ordered set of 14 fields
// data_completeness is computed over are filled (spec.md §4.7 step 7).
func filledCount(r *models.EnrichedCompetitor) int {
	filled := 0
	nonEmpty := func(s string) bool { return s != "" }
	nonEmptySlice := func(s []string) bool { return len(s) > 0 }

	checks := []bool{
		nonEmpty(r.Name),
		nonEmpty(r.Description),
		nonEmpty(r.Industry),
		nonEmpty(r.Country),
		nonEmpty(r.Fields.Tagline),
		nonEmpty(r.Fields.Headquarters),
		nonEmptySlice(r.Fields.Founders),
		nonEmpty(r.Fields.FundingStage),
		r.Fields.TotalFunding != nil,
		nonEmptySlice(r.Fields.Investors),
		nonEmptySlice(r.Fields.Technologies),
		r.Fields.SocialLinks != (models.SocialLinks{}),
		r.Fields.SWOT != nil,
		nonEmpty(r.Fields.MarketPosition),
	}
	for _, c := range checks {
		if c {
			filled++
		}
	}
	return filled
}

const totalImportantFields = 14

// DataCompleteness computes round(100 × filled / total) over the 14-field
// checklist (spec.md §4.7 step 7).
func DataCompleteness(r *models.EnrichedCompetitor) int {
	filled := filledCount(r)
	return int(math.Round(100 * float64(filled) / float64(totalImportantFields)))
}

// ConfidenceScore composites source diversity, completeness, and the
// presence of high-signal fields, clamped to [0, 100] (spec.md §4.7 step 7).
func ConfidenceScore(r *models.EnrichedCompetitor) int {
	score := min(len(r.DataSources)*10, 40)
	score += int(math.Round(float64(r.DataCompleteness) * 0.3))

	if r.Website != "" {
		score += 5
	}
	if r.Fields.SocialLinks.LinkedIn != "" {
		score += 10
	}
	if r.Fields.FundingStage != "" {
		score += 5
	}
	if len(r.Fields.Founders) > 0 {
		score += 5
	}
	if len(r.Fields.Technologies) > 0 {
		score += 5
	}

	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
