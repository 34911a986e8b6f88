package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/and161185/stock-keeper/internal/model"
)

const usageCols = `id, item_id, job_site_id, quantity_used, usage_date, notes`

// UsageRepo implements UsageRepository using PostgreSQL.
type UsageRepo struct{ db *DB }

func NewUsageRepo(db *DB) *UsageRepo { return &UsageRepo{db: db} }

func scanUsage(row pgx.Row) (model.Usage, error) {
	var u model.Usage
	err := row.Scan(&u.ID, &u.ItemID, &u.JobSiteID, &u.QuantityUsed, &u.UsedAt, &u.Notes)
	return u, err
}

// List returns the ledger, oldest first, matching the local store.
func (r *UsageRepo) List(ctx context.Context) ([]model.Usage, error) {
	rows, err := r.db.Pool.Query(ctx, `SELECT `+usageCols+` FROM job_site_usage ORDER BY usage_date, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Usage{}
	for rows.Next() {
		u, err := scanUsage(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// Record inserts the usage and decrements the item in one transaction.
// A known id returns the stored record with created=false and leaves stock alone.
func (r *UsageRepo) Record(ctx context.Context, u model.Usage) (rec model.Usage, created bool, err error) {
	const sel = `SELECT ` + usageCols + ` FROM job_site_usage WHERE id=$1`
	const ins = `
INSERT INTO job_site_usage (` + usageCols + `)
VALUES ($1,$2,$3,$4,$5,$6)
RETURNING ` + usageCols

	err = r.db.inTx(ctx, func(tx pgx.Tx) error {
		existing, err := scanUsage(tx.QueryRow(ctx, sel, u.ID))
		switch {
		case err == nil:
			rec = existing
			return nil
		case !errors.Is(err, pgx.ErrNoRows):
			return err
		}

		if _, err := reduce(ctx, tx, u.ItemID, u.QuantityUsed); err != nil {
			return err
		}
		rec, err = scanUsage(tx.QueryRow(ctx, ins,
			u.ID, u.ItemID, u.JobSiteID, u.QuantityUsed, u.UsedAt, u.Notes))
		if err != nil {
			return err
		}
		created = true
		return nil
	})
	if err != nil {
		return model.Usage{}, false, err
	}
	return rec, created, nil
}
