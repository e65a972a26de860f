// File: internal/store/postgres/project_lookup.go
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/compintel/discovery/internal/models"
	"github.com/compintel/discovery/internal/store"
)

// ProjectLookup is the Postgres-backed services.ProjectLookup implementation.
// Projects are owned by an external collaborator (spec.md §1's "project/
// organization CRUD" out-of-scope boundary); this type only reads the table
// the orchestrator needs to resolve a project's keywords/regions and to
// enforce organization scope.
type ProjectLookup struct {
	db *sqlx.DB
}

// NewProjectLookup creates a ProjectLookup.
func NewProjectLookup(db *sqlx.DB) *ProjectLookup {
	return &ProjectLookup{db: db}
}

type projectRow struct {
	ID             uuid.UUID      `db:"id"`
	OrganizationID uuid.UUID      `db:"organization_id"`
	Name           string         `db:"name"`
	Description    string         `db:"description"`
	Keywords       pq.StringArray `db:"keywords"`
	Industries     pq.StringArray `db:"industries"`
	Regions        pq.StringArray `db:"regions"`
}

func (r projectRow) toModel() *models.Project {
	return &models.Project{
		ID:             r.ID,
		OrganizationID: r.OrganizationID,
		Name:           r.Name,
		Description:    r.Description,
		Keywords:       []string(r.Keywords),
		Industries:     []string(r.Industries),
		Regions:        []string(r.Regions),
	}
}

// GetProject fetches a project by ID, returning store.ErrNotFound if it
// does not exist.
func (p *ProjectLookup) GetProject(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	var row projectRow
	err := p.db.GetContext(ctx, &row, `
		SELECT id, organization_id, name, description, keywords, industries, regions
		FROM projects WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, store.NewError("GetProject", store.KindTransient, fmt.Errorf("querying project %s: %w", id, err))
	}
	return row.toModel(), nil
}
