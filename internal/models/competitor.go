// File: internal/models/competitor.go
package models

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// ValidationStatus is the human-review status of a persisted Competitor.
type ValidationStatus string

const (
	ValidationStatusPending  ValidationStatus = "pending"
	ValidationStatusApproved ValidationStatus = "approved"
	ValidationStatusRejected ValidationStatus = "rejected"
)

// SWOTAnalysis is the structured output of enrichment AI analysis (§4.7 step 5).
type SWOTAnalysis struct {
	Strengths     []string `json:"strengths,omitempty"`
	Weaknesses    []string `json:"weaknesses,omitempty"`
	Opportunities []string `json:"opportunities,omitempty"`
	Threats       []string `json:"threats,omitempty"`
}

// SocialLinks holds the set of social-platform profile URLs known for a
// competitor. Entries here that have no corresponding entry in DataSources
// are unverified synthesized guesses (spec.md §9).
type SocialLinks struct {
	LinkedIn  string `json:"linkedin,omitempty"`
	Twitter   string `json:"twitter,omitempty"`
	Facebook  string `json:"facebook,omitempty"`
	Instagram string `json:"instagram,omitempty"`
	Crunchbase string `json:"crunchbase,omitempty"`
}

// SocialMetrics holds counts parsed off social profile pages (§4.7 step 4).
type SocialMetrics struct {
	LinkedInFollowers  *int64 `json:"linkedinFollowers,omitempty"`
	LinkedInEmployees  *int64 `json:"linkedinEmployees,omitempty"`
	TwitterFollowers   *int64 `json:"twitterFollowers,omitempty"`
	FacebookLikes      *int64 `json:"facebookLikes,omitempty"`
}

// BasicCompetitor is the output schema of the plain Extractor (§4.3),
// emitted from search results before scoring/dedup/persistence.
type BasicCompetitor struct {
	Name        string `json:"name"`
	Website     string `json:"website"`
	Description string `json:"description"`
	Industry    string `json:"industry,omitempty"`
	Country     string `json:"country,omitempty"`

	BusinessModel    string `json:"businessModel,omitempty"`
	ValueProposition string `json:"valueProposition,omitempty"`
	FoundedYear      int    `json:"foundedYear,omitempty"`
	FundingUSD       *int64 `json:"fundingUsd,omitempty"`
}

// EnrichedFields is the extended set of attributes produced either by the
// enriched extraction variant or by the Enrichment Engine (§4.7). It is a
// closed variant kept distinct from BasicCompetitor per spec.md §9's
// "Dynamic any payloads" design note.
type EnrichedFields struct {
	Tagline        string        `json:"tagline,omitempty"`
	Headquarters   string        `json:"headquarters,omitempty"`
	Founders       []string      `json:"founders,omitempty"`
	FundingStage   string        `json:"fundingStage,omitempty"`
	TotalFunding   *int64        `json:"totalFunding,omitempty"`
	Investors      []string      `json:"investors,omitempty"`
	Technologies   []string      `json:"technologies,omitempty"`
	SocialLinks    SocialLinks   `json:"socialLinks,omitempty"`
	SocialMetrics  SocialMetrics `json:"socialMetrics,omitempty"`
	SWOT           *SWOTAnalysis `json:"swot,omitempty"`
	MarketPosition string        `json:"marketPositioning,omitempty"`
	GrowthSignals  []string      `json:"growthSignals,omitempty"`
	RiskFactors    []string      `json:"riskFactors,omitempty"`
}

// Candidate is a transient, in-flight competitor between extraction and
// persistence. It carries the provisional score and dedup key the
// Persistence Adapter never sees.
type Candidate struct {
	Basic          BasicCompetitor
	Enriched       EnrichedFields
	Score          int
	NormalizedHost string
	SourceURLs     []string
}

// Competitor is a persisted discovered company.
type Competitor struct {
	ID             uuid.UUID  `json:"id" db:"id"`
	OrganizationID uuid.UUID  `json:"organizationId" db:"organization_id"`
	SearchRunID    uuid.NullUUID `json:"searchRunId,omitempty" db:"search_run_id"`

	Name        string `json:"name" db:"name"`
	Website     string `json:"website" db:"website"`
	Description string `json:"description" db:"description"`
	Industry    string `json:"industry" db:"industry"`
	Country     string `json:"country" db:"country"`

	Tagline      sql.NullString `json:"tagline,omitempty" db:"tagline"`
	Headquarters sql.NullString `json:"headquarters,omitempty" db:"headquarters"`
	Founders     []string       `json:"founders,omitempty" db:"founders"`
	FundingStage sql.NullString `json:"fundingStage,omitempty" db:"funding_stage"`
	TotalFunding sql.NullInt64  `json:"totalFunding,omitempty" db:"total_funding"`
	Investors    []string       `json:"investors,omitempty" db:"investors"`
	Technologies []string       `json:"technologies,omitempty" db:"technologies"`

	SocialLinks   []byte `json:"-" db:"social_links"`   // JSON-encoded SocialLinks
	SocialMetrics []byte `json:"-" db:"social_metrics"` // JSON-encoded SocialMetrics
	SWOT          []byte `json:"-" db:"swot"`           // JSON-encoded SWOTAnalysis
	Metrics       []byte `json:"-" db:"metrics"`        // JSON-encoded freeform growth/risk signals

	ConfidenceScore  sql.NullInt64 `json:"confidenceScore,omitempty" db:"confidence_score"`
	DataCompleteness sql.NullInt64 `json:"dataCompleteness,omitempty" db:"data_completeness"`
	DataSources      []string      `json:"dataSources,omitempty" db:"data_sources"`
	EnrichmentDate   sql.NullTime  `json:"enrichmentDate,omitempty" db:"enrichment_date"`

	RelevanceScore sql.NullInt64 `json:"relevanceScore,omitempty" db:"relevance_score"`

	ValidationStatus ValidationStatus `json:"validationStatus" db:"validation_status"`
	ValidatedBy      uuid.NullUUID    `json:"validatedBy,omitempty" db:"validated_by"`
	ValidatedAt      sql.NullTime     `json:"validatedAt,omitempty" db:"validated_at"`

	Embedding []float32 `json:"-" db:"-"`

	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// CompetitorEnrichmentPatch is the merge-only patch applied by
// UpdateCompetitorEnrichment. Only non-nil fields are merged; the adapter
// always stamps EnrichmentDate.
type CompetitorEnrichmentPatch struct {
	Tagline          *string
	Headquarters     *string
	Founders         []string
	FundingStage     *string
	TotalFunding     *int64
	Investors        []string
	Technologies     []string
	SocialLinks      *SocialLinks
	SocialMetrics    *SocialMetrics
	SWOT             *SWOTAnalysis
	DataSources      []string
	ConfidenceScore  *int
	DataCompleteness *int
}

// EnrichedCompetitor is the final record produced by the Enrichment Engine
// (§4.7), returned to the caller of POST /competitors/:id/enrich and used to
// build a CompetitorEnrichmentPatch.
type EnrichedCompetitor struct {
	Name        string
	Website     string
	Description string
	Industry    string
	Country     string

	Fields EnrichedFields

	DataSources      []string
	ConfidenceScore  int
	DataCompleteness int
	EnrichmentDate   time.Time
}
