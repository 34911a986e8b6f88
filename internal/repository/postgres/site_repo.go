package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/and161185/stock-keeper/internal/model"
)

// JobSiteRepo implements JobSiteRepository using PostgreSQL.
type JobSiteRepo struct{ db *DB }

func NewJobSiteRepo(db *DB) *JobSiteRepo { return &JobSiteRepo{db: db} }

func scanJobSite(row pgx.Row) (model.JobSite, error) {
	var js model.JobSite
	err := row.Scan(&js.ID, &js.Name, &js.Address, &js.Description, &js.Active, &js.CreatedAt)
	return js, err
}

// List returns all job sites, oldest first, matching the local store.
func (r *JobSiteRepo) List(ctx context.Context) ([]model.JobSite, error) {
	const q = `SELECT id, name, address, description, is_active, created_at FROM job_sites ORDER BY created_at, id`
	rows, err := r.db.Pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.JobSite{}
	for rows.Next() {
		js, err := scanJobSite(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, js)
	}
	return out, rows.Err()
}

// Upsert inserts or replaces a job site by id.
func (r *JobSiteRepo) Upsert(ctx context.Context, js model.JobSite) (model.JobSite, error) {
	const q = `
INSERT INTO job_sites (id, name, address, description, is_active, created_at)
VALUES ($1,$2,$3,$4,$5,$6)
ON CONFLICT (id) DO UPDATE SET
    name=EXCLUDED.name, address=EXCLUDED.address, description=EXCLUDED.description,
    is_active=EXCLUDED.is_active
RETURNING id, name, address, description, is_active, created_at`
	return scanJobSite(r.db.Pool.QueryRow(ctx, q,
		js.ID, js.Name, js.Address, js.Description, js.Active, js.CreatedAt))
}
