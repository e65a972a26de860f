// File: internal/store/postgres/competitor_store.go
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/compintel/discovery/internal/models"
	"github.com/compintel/discovery/internal/store"
)

// CompetitorStore is the Postgres-backed store.CompetitorStore implementation.
type CompetitorStore struct {
	db *sqlx.DB
}

// NewCompetitorStore creates a new CompetitorStore.
func NewCompetitorStore(db *sqlx.DB) *CompetitorStore {
	return &CompetitorStore{db: db}
}

// BeginTxx starts a new transaction.
func (s *CompetitorStore) BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	return s.db.BeginTxx(ctx, opts)
}

func (s *CompetitorStore) exec(exec store.Querier) store.Querier {
	if exec != nil {
		return exec
	}
	return s.db
}

// NormalizeWebsite strips scheme, "www." and any trailing path/slash so the
// (organization_id, normalized website) uniqueness check is stable across
// "https://acme.com", "http://www.acme.com/" and "acme.com".
func NormalizeWebsite(website string) string {
	w := strings.ToLower(strings.TrimSpace(website))
	if u, err := url.Parse(w); err == nil && u.Host != "" {
		w = u.Host
	}
	w = strings.TrimPrefix(w, "www.")
	w = strings.TrimSuffix(w, "/")
	return w
}

// competitorRow is the wire shape for the competitors table; lib/pq needs
// text[] columns bound via pq.StringArray.
type competitorRow struct {
	ID             uuid.UUID     `db:"id"`
	OrganizationID uuid.UUID     `db:"organization_id"`
	SearchRunID    uuid.NullUUID `db:"search_run_id"`

	Name        string `db:"name"`
	Website     string `db:"website"`
	Description string `db:"description"`
	Industry    string `db:"industry"`
	Country     string `db:"country"`

	Tagline      sql.NullString `db:"tagline"`
	Headquarters sql.NullString `db:"headquarters"`
	Founders     pq.StringArray `db:"founders"`
	FundingStage sql.NullString `db:"funding_stage"`
	TotalFunding sql.NullInt64  `db:"total_funding"`
	Investors    pq.StringArray `db:"investors"`
	Technologies pq.StringArray `db:"technologies"`

	SocialLinks   []byte `db:"social_links"`
	SocialMetrics []byte `db:"social_metrics"`
	SWOT          []byte `db:"swot"`
	Metrics       []byte `db:"metrics"`

	ConfidenceScore  sql.NullInt64  `db:"confidence_score"`
	DataCompleteness sql.NullInt64  `db:"data_completeness"`
	DataSources      pq.StringArray `db:"data_sources"`
	EnrichmentDate   sql.NullTime   `db:"enrichment_date"`

	RelevanceScore sql.NullInt64 `db:"relevance_score"`

	ValidationStatus models.ValidationStatus `db:"validation_status"`
	ValidatedBy      uuid.NullUUID           `db:"validated_by"`
	ValidatedAt      sql.NullTime            `db:"validated_at"`

	Embedding []byte `db:"embedding"`

	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (r competitorRow) toModel() *models.Competitor {
	var embedding []float32
	if len(r.Embedding) > 0 {
		_ = json.Unmarshal(r.Embedding, &embedding)
	}
	return &models.Competitor{
		ID:               r.ID,
		OrganizationID:   r.OrganizationID,
		SearchRunID:      r.SearchRunID,
		Name:             r.Name,
		Website:          r.Website,
		Description:      r.Description,
		Industry:         r.Industry,
		Country:          r.Country,
		Tagline:          r.Tagline,
		Headquarters:     r.Headquarters,
		Founders:         []string(r.Founders),
		FundingStage:     r.FundingStage,
		TotalFunding:     r.TotalFunding,
		Investors:        []string(r.Investors),
		Technologies:     []string(r.Technologies),
		SocialLinks:      r.SocialLinks,
		SocialMetrics:    r.SocialMetrics,
		SWOT:             r.SWOT,
		Metrics:          r.Metrics,
		ConfidenceScore:  r.ConfidenceScore,
		DataCompleteness: r.DataCompleteness,
		DataSources:      []string(r.DataSources),
		EnrichmentDate:   r.EnrichmentDate,
		RelevanceScore:   r.RelevanceScore,
		ValidationStatus: r.ValidationStatus,
		ValidatedBy:      r.ValidatedBy,
		ValidatedAt:      r.ValidatedAt,
		Embedding:        embedding,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}
}

func competitorRowFromModel(c *models.Competitor) competitorRow {
	var embedding []byte
	if len(c.Embedding) > 0 {
		embedding, _ = json.Marshal(c.Embedding)
	}
	return competitorRow{
		ID:               c.ID,
		OrganizationID:   c.OrganizationID,
		SearchRunID:      c.SearchRunID,
		Name:             c.Name,
		Website:          c.Website,
		Description:      c.Description,
		Industry:         c.Industry,
		Country:          c.Country,
		Tagline:          c.Tagline,
		Headquarters:     c.Headquarters,
		Founders:         pq.StringArray(c.Founders),
		FundingStage:     c.FundingStage,
		TotalFunding:     c.TotalFunding,
		Investors:        pq.StringArray(c.Investors),
		Technologies:     pq.StringArray(c.Technologies),
		SocialLinks:      c.SocialLinks,
		SocialMetrics:    c.SocialMetrics,
		SWOT:             c.SWOT,
		Metrics:          c.Metrics,
		ConfidenceScore:  c.ConfidenceScore,
		DataCompleteness: c.DataCompleteness,
		DataSources:      pq.StringArray(c.DataSources),
		EnrichmentDate:   c.EnrichmentDate,
		RelevanceScore:   c.RelevanceScore,
		ValidationStatus: c.ValidationStatus,
		ValidatedBy:      c.ValidatedBy,
		ValidatedAt:      c.ValidatedAt,
		Embedding:        embedding,
		CreatedAt:        c.CreatedAt,
		UpdatedAt:        c.UpdatedAt,
	}
}

// UpsertCandidate inserts a Competitor, or on a (organization_id,
// normalized website) conflict leaves the existing row untouched and
// returns it via a re-fetch, per spec.md's idempotent-persistence
// requirement (a rediscovered company must not duplicate).
func (s *CompetitorStore) UpsertCandidate(ctx context.Context, exec store.Querier, c *models.Competitor) (bool, error) {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	now := time.Now().UTC()
	c.CreatedAt, c.UpdatedAt = now, now
	if c.ValidationStatus == "" {
		c.ValidationStatus = models.ValidationStatusPending
	}

	row := competitorRowFromModel(c)
	q := `INSERT INTO competitors (
			id, organization_id, search_run_id, name, website, description, industry, country,
			tagline, headquarters, founders, funding_stage, total_funding, investors, technologies,
			social_links, social_metrics, swot, metrics,
			confidence_score, data_completeness, data_sources, enrichment_date,
			relevance_score, validation_status, validated_by, validated_at, embedding,
			created_at, updated_at
		) VALUES (
			:id, :organization_id, :search_run_id, :name, :website, :description, :industry, :country,
			:tagline, :headquarters, :founders, :funding_stage, :total_funding, :investors, :technologies,
			:social_links, :social_metrics, :swot, :metrics,
			:confidence_score, :data_completeness, :data_sources, :enrichment_date,
			:relevance_score, :validation_status, :validated_by, :validated_at, :embedding,
			:created_at, :updated_at
		)
		ON CONFLICT (organization_id, (lower(regexp_replace(website, '^https?://(www\.)?', ''))))
		DO NOTHING`

	res, err := s.exec(exec).NamedExecContext(ctx, q, row)
	if err != nil {
		return false, store.NewError("UpsertCandidate", store.KindFatal, err)
	}
	n, _ := res.RowsAffected()
	if n > 0 {
		return true, nil
	}

	existing, err := s.GetByOrganizationAndWebsite(ctx, exec, c.OrganizationID, c.Website)
	if err != nil {
		return false, err
	}
	*c = *existing
	return false, nil
}

// GetByID fetches a Competitor by its ID.
func (s *CompetitorStore) GetByID(ctx context.Context, exec store.Querier, id uuid.UUID) (*models.Competitor, error) {
	var row competitorRow
	err := s.exec(exec).GetContext(ctx, &row, `SELECT * FROM competitors WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, store.NewError("GetByID", store.KindFatal, err)
	}
	return row.toModel(), nil
}

// GetByOrganizationAndWebsite looks up a Competitor by its dedup key.
func (s *CompetitorStore) GetByOrganizationAndWebsite(ctx context.Context, exec store.Querier, organizationID uuid.UUID, website string) (*models.Competitor, error) {
	var row competitorRow
	err := s.exec(exec).GetContext(ctx, &row,
		`SELECT * FROM competitors WHERE organization_id = $1 AND lower(regexp_replace(website, '^https?://(www\.)?', '')) = $2`,
		organizationID, NormalizeWebsite(website))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, store.NewError("GetByOrganizationAndWebsite", store.KindFatal, err)
	}
	return row.toModel(), nil
}

// ListByOrganization returns a page of Competitors for the given filter.
func (s *CompetitorStore) ListByOrganization(ctx context.Context, exec store.Querier, filter store.ListCompetitorsFilter) (*store.PaginatedResult[*models.Competitor], error) {
	clauses := " WHERE organization_id = $1"
	args := []interface{}{filter.OrganizationID}
	argN := 2

	if filter.Industry != "" {
		clauses += fmt.Sprintf(" AND industry = $%d", argN)
		args = append(args, filter.Industry)
		argN++
	}
	if filter.Country != "" {
		clauses += fmt.Sprintf(" AND country = $%d", argN)
		args = append(args, filter.Country)
		argN++
	}
	if filter.ValidationStatus != "" {
		clauses += fmt.Sprintf(" AND validation_status = $%d", argN)
		args = append(args, filter.ValidationStatus)
		argN++
	}
	if filter.MinRelevance != nil {
		clauses += fmt.Sprintf(" AND relevance_score >= $%d", argN)
		args = append(args, *filter.MinRelevance)
		argN++
	}

	limit := filter.GetLimit()
	q := `SELECT * FROM competitors` + clauses + fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", argN)
	args = append(args, limit+1) // fetch one extra to detect a next page

	var rows []competitorRow
	if err := s.exec(exec).SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, store.NewError("ListByOrganization", store.KindFatal, err)
	}

	hasNext := len(rows) > limit
	if hasNext {
		rows = rows[:limit]
	}
	data := make([]*models.Competitor, 0, len(rows))
	for _, r := range rows {
		data = append(data, r.toModel())
	}
	result := &store.PaginatedResult[*models.Competitor]{Data: data, PageInfo: store.PageInfo{HasNextPage: hasNext}}
	if len(data) > 0 {
		last := data[len(data)-1]
		result.PageInfo.EndCursor = store.EncodeCursor(store.CursorInfo{ID: last.ID, Timestamp: last.CreatedAt})
	}
	return result, nil
}

// ListByRun returns every Competitor persisted as an outcome of one run.
func (s *CompetitorStore) ListByRun(ctx context.Context, exec store.Querier, runID uuid.UUID) ([]*models.Competitor, error) {
	var rows []competitorRow
	if err := s.exec(exec).SelectContext(ctx, &rows, `SELECT * FROM competitors WHERE search_run_id = $1 ORDER BY created_at ASC`, runID); err != nil {
		return nil, store.NewError("ListByRun", store.KindFatal, err)
	}
	out := make([]*models.Competitor, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toModel())
	}
	return out, nil
}

// SetValidationStatus records a human review decision (§6 PATCH /competitors/:id/validate).
func (s *CompetitorStore) SetValidationStatus(ctx context.Context, exec store.Querier, id uuid.UUID, status models.ValidationStatus, validatedBy uuid.UUID) error {
	res, err := s.exec(exec).ExecContext(ctx,
		`UPDATE competitors SET validation_status = $1, validated_by = $2, validated_at = $3, updated_at = $3 WHERE id = $4`,
		status, validatedBy, time.Now().UTC(), id)
	if err != nil {
		return store.NewError("SetValidationStatus", store.KindFatal, err)
	}
	return checkRowsAffected(res, "SetValidationStatus")
}

// ApplyEnrichmentPatch merges only the non-nil fields of patch into the row.
func (s *CompetitorStore) ApplyEnrichmentPatch(ctx context.Context, exec store.Querier, id uuid.UUID, patch *models.CompetitorEnrichmentPatch) error {
	sets := []string{"enrichment_date = :enrichment_date", "updated_at = :updated_at"}
	args := map[string]interface{}{
		"id":              id,
		"enrichment_date": time.Now().UTC(),
		"updated_at":      time.Now().UTC(),
	}

	if patch.Tagline != nil {
		sets = append(sets, "tagline = :tagline")
		args["tagline"] = *patch.Tagline
	}
	if patch.Headquarters != nil {
		sets = append(sets, "headquarters = :headquarters")
		args["headquarters"] = *patch.Headquarters
	}
	if patch.Founders != nil {
		sets = append(sets, "founders = :founders")
		args["founders"] = pq.StringArray(patch.Founders)
	}
	if patch.FundingStage != nil {
		sets = append(sets, "funding_stage = :funding_stage")
		args["funding_stage"] = *patch.FundingStage
	}
	if patch.TotalFunding != nil {
		sets = append(sets, "total_funding = :total_funding")
		args["total_funding"] = *patch.TotalFunding
	}
	if patch.Investors != nil {
		sets = append(sets, "investors = :investors")
		args["investors"] = pq.StringArray(patch.Investors)
	}
	if patch.Technologies != nil {
		sets = append(sets, "technologies = :technologies")
		args["technologies"] = pq.StringArray(patch.Technologies)
	}
	if patch.SocialLinks != nil {
		b, _ := json.Marshal(patch.SocialLinks)
		sets = append(sets, "social_links = :social_links")
		args["social_links"] = b
	}
	if patch.SocialMetrics != nil {
		b, _ := json.Marshal(patch.SocialMetrics)
		sets = append(sets, "social_metrics = :social_metrics")
		args["social_metrics"] = b
	}
	if patch.SWOT != nil {
		b, _ := json.Marshal(patch.SWOT)
		sets = append(sets, "swot = :swot")
		args["swot"] = b
	}
	if patch.DataSources != nil {
		sets = append(sets, "data_sources = :data_sources")
		args["data_sources"] = pq.StringArray(patch.DataSources)
	}
	if patch.ConfidenceScore != nil {
		sets = append(sets, "confidence_score = :confidence_score")
		args["confidence_score"] = *patch.ConfidenceScore
	}
	if patch.DataCompleteness != nil {
		sets = append(sets, "data_completeness = :data_completeness")
		args["data_completeness"] = *patch.DataCompleteness
	}

	q := `UPDATE competitors SET ` + strings.Join(sets, ", ") + ` WHERE id = :id`
	res, err := s.exec(exec).NamedExecContext(ctx, q, args)
	if err != nil {
		return store.NewError("ApplyEnrichmentPatch", store.KindFatal, err)
	}
	return checkRowsAffected(res, "ApplyEnrichmentPatch")
}

// ListEmbeddingsForOrganization returns every stored embedding for an
// organization keyed by competitor ID, for the semantic dedup pass (§4.5).
func (s *CompetitorStore) ListEmbeddingsForOrganization(ctx context.Context, exec store.Querier, organizationID uuid.UUID) (map[uuid.UUID][]float32, error) {
	rows := []struct {
		ID        uuid.UUID `db:"id"`
		Embedding []byte    `db:"embedding"`
	}{}
	if err := s.exec(exec).SelectContext(ctx, &rows,
		`SELECT id, embedding FROM competitors WHERE organization_id = $1 AND embedding IS NOT NULL`, organizationID); err != nil {
		return nil, store.NewError("ListEmbeddingsForOrganization", store.KindFatal, err)
	}
	out := make(map[uuid.UUID][]float32, len(rows))
	for _, r := range rows {
		var vec []float32
		if err := json.Unmarshal(r.Embedding, &vec); err == nil {
			out[r.ID] = vec
		}
	}
	return out, nil
}

// SetEmbedding stores the JSON-encoded embedding vector for a competitor.
func (s *CompetitorStore) SetEmbedding(ctx context.Context, exec store.Querier, id uuid.UUID, embedding []float32) error {
	b, err := json.Marshal(embedding)
	if err != nil {
		return store.NewError("SetEmbedding", store.KindFatal, err)
	}
	res, err := s.exec(exec).ExecContext(ctx, `UPDATE competitors SET embedding = $1, updated_at = $2 WHERE id = $3`, b, time.Now().UTC(), id)
	if err != nil {
		return store.NewError("SetEmbedding", store.KindFatal, err)
	}
	return checkRowsAffected(res, "SetEmbedding")
}
