package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/pipeline-tokens/internal/model"
)

// PipelineRepo reads pipelines.  Pipelines are created by the pipeline sync
// job, never by this service.
type PipelineRepo struct {
	db *sql.DB
}

func NewPipelineRepo(db *sql.DB) *PipelineRepo {
	return &PipelineRepo{db: db}
}

// GetByID fetches a pipeline by its ID.  It returns ErrPipelineNotFound if
// no row is found.
func (r *PipelineRepo) GetByID(ctx context.Context, id uint64) (*model.Pipeline, error) {
	const q = "SELECT id, name, scm_uri, scm_context FROM pipelines WHERE id = ?"
	var p model.Pipeline
	if err := r.db.QueryRowContext(ctx, q, id).Scan(&p.ID, &p.Name, &p.SCMURI, &p.SCMContext); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPipelineNotFound
		}
		return nil, err
	}
	return &p, nil
}
