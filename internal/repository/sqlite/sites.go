package sqlite

import (
	"context"

	"github.com/and161185/stock-keeper/internal/errs"
	"github.com/and161185/stock-keeper/internal/model"
)

const upsertJobSite = `
INSERT INTO job_sites (id, name, address, description, active, created_at)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET
    name = excluded.name, address = excluded.address, description = excluded.description,
    active = excluded.active, created_at = excluded.created_at`

func putJobSite(ctx context.Context, ex execer, js model.JobSite) error {
	_, err := ex.ExecContext(ctx, upsertJobSite,
		js.ID, js.Name, js.Address, js.Description, js.Active, formatTime(js.CreatedAt))
	return err
}

// JobSites returns all job sites in insertion order.
func (s *Store) JobSites(ctx context.Context) ([]model.JobSite, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx,
		`SELECT id, name, address, description, active, created_at FROM job_sites ORDER BY rowid`)
	if err != nil {
		return nil, errs.Storage("list job sites", err)
	}
	defer rows.Close()

	out := []model.JobSite{}
	for rows.Next() {
		var (
			js      model.JobSite
			created string
		)
		if err := rows.Scan(&js.ID, &js.Name, &js.Address, &js.Description, &js.Active, &created); err != nil {
			return nil, errs.Storage("scan job site", err)
		}
		if js.CreatedAt, err = parseTime(created); err != nil {
			return nil, errs.Storage("scan job site", err)
		}
		out = append(out, js)
	}
	return out, errs.Storage("list job sites", rows.Err())
}

// PutJobSite upserts one job site.
func (s *Store) PutJobSite(ctx context.Context, js model.JobSite) error {
	db, err := s.conn(ctx)
	if err != nil {
		return err
	}
	return errs.Storage("put job site", putJobSite(ctx, db, js))
}
