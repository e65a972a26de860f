package enrichment

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/compintel/discovery/internal/models"
)

const maxAnalysisContext = 2000

type analysisResponse struct {
	CompetitiveAnalysis struct {
		Strengths     []string `json:"strengths"`
		Weaknesses    []string `json:"weaknesses"`
		Opportunities []string `json:"opportunities"`
		Threats       []string `json:"threats"`
	} `json:"competitive_analysis"`
	MarketPositioning string   `json:"market_positioning"`
	GrowthSignals     []string `json:"growth_signals"`
	RiskFactors       []string `json:"risk_factors"`
}

// analyze prompts the configured LLM for a SWOT/positioning analysis (spec.md
// §4.7 step 5). On any failure it substitutes a deterministic fallback
// derived from whatever fields are already known, so enrichment never fails
// outright because the model call failed (EnrichmentPartial, spec.md §7).
func (e *Engine) analyze(ctx context.Context, basic models.BasicCompetitor, fields models.EnrichedFields, context string) (*models.SWOTAnalysis, string, []string, []string) {
	if e.llm == nil || !e.llm.IsAvailable() {
		return fallbackAnalysis(basic, fields)
	}

	capped := context
	if len(capped) > maxAnalysisContext {
		capped = capped[:maxAnalysisContext]
	}

	system := "You are a competitive intelligence analyst. Respond with strict JSON: " +
		`{"competitive_analysis":{"strengths":[],"weaknesses":[],"opportunities":[],"threats":[]},` +
		`"market_positioning":"...","growth_signals":[],"risk_factors":[]}`

	user := fmt.Sprintf("Company: %s\nDescription: %s\nIndustry: %s\nFunding stage: %s\nTechnologies: %s\n\nAdditional context:\n%s",
		basic.Name, basic.Description, basic.Industry, fields.FundingStage, strings.Join(fields.Technologies, ", "), capped)

	raw, err := e.llm.CompleteJSON(ctx, system, user)
	if err != nil {
		return fallbackAnalysis(basic, fields)
	}

	var parsed analysisResponse
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return fallbackAnalysis(basic, fields)
	}

	swot := &models.SWOTAnalysis{
		Strengths:     parsed.CompetitiveAnalysis.Strengths,
		Weaknesses:    parsed.CompetitiveAnalysis.Weaknesses,
		Opportunities: parsed.CompetitiveAnalysis.Opportunities,
		Threats:       parsed.CompetitiveAnalysis.Threats,
	}
	return swot, parsed.MarketPositioning, parsed.GrowthSignals, parsed.RiskFactors
}

// fallbackAnalysis derives a minimal, deterministic analysis purely from
// already-known fields when the model call is unavailable or fails.
func fallbackAnalysis(basic models.BasicCompetitor, fields models.EnrichedFields) (*models.SWOTAnalysis, string, []string, []string) {
	var strengths []string
	if fields.TotalFunding != nil && *fields.TotalFunding > 0 {
		strengths = append(strengths, "well-funded")
	}
	if len(fields.Technologies) > 0 {
		strengths = append(strengths, "established technology stack")
	}
	if len(strengths) == 0 {
		return nil, "", nil, nil
	}
	positioning := fmt.Sprintf("%s operates in the %s space", basic.Name, basic.Industry)
	return &models.SWOTAnalysis{Strengths: strengths}, positioning, nil, nil
}
