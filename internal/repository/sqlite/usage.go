package sqlite

import (
	"context"
	"database/sql"

	"github.com/and161185/stock-keeper/internal/errs"
	"github.com/and161185/stock-keeper/internal/model"
)

const upsertUsage = `
INSERT INTO usage_records (id, item_id, job_site_id, quantity_used, used_at, notes)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT (id) DO NOTHING`

func putUsage(ctx context.Context, ex execer, u model.Usage) error {
	_, err := ex.ExecContext(ctx, upsertUsage,
		u.ID, u.ItemID, u.JobSiteID, u.QuantityUsed, formatTime(u.UsedAt), u.Notes)
	return err
}

// Usage returns the ledger in insertion order.
func (s *Store) Usage(ctx context.Context) ([]model.Usage, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx,
		`SELECT id, item_id, job_site_id, quantity_used, used_at, notes FROM usage_records ORDER BY rowid`)
	if err != nil {
		return nil, errs.Storage("list usage", err)
	}
	defer rows.Close()

	out := []model.Usage{}
	for rows.Next() {
		var (
			u    model.Usage
			used string
		)
		if err := rows.Scan(&u.ID, &u.ItemID, &u.JobSiteID, &u.QuantityUsed, &used, &u.Notes); err != nil {
			return nil, errs.Storage("scan usage", err)
		}
		if u.UsedAt, err = parseTime(used); err != nil {
			return nil, errs.Storage("scan usage", err)
		}
		out = append(out, u)
	}
	return out, errs.Storage("list usage", rows.Err())
}

// PutUsage appends a ledger entry. The ledger is append-only: an existing id is left untouched.
func (s *Store) PutUsage(ctx context.Context, u model.Usage) error {
	db, err := s.conn(ctx)
	if err != nil {
		return err
	}
	return errs.Storage("put usage", putUsage(ctx, db, u))
}

// ReplaceAll swaps the three partitions for a remote snapshot in one transaction.
// Records with unsynced pending changes keep their local state: the snapshot
// neither removes nor overwrites them.
func (s *Store) ReplaceAll(ctx context.Context, items []model.Item, sites []model.JobSite, usage []model.Usage) error {
	return s.tx(ctx, "replace all", func(tx *sql.Tx) error {
		for _, p := range []struct {
			table  string
			entity model.Entity
		}{
			{"items", model.EntityItems},
			{"job_sites", model.EntityJobSites},
			{"usage_records", model.EntityUsage},
		} {
			if _, err := tx.ExecContext(ctx, `DELETE FROM `+p.table+` WHERE id NOT IN (
SELECT entity_id FROM pending_changes WHERE synced = 0 AND entity = ?)`, string(p.entity)); err != nil {
				return err
			}
		}

		held, err := pendingIDs(ctx, tx)
		if err != nil {
			return err
		}
		for _, it := range items {
			if held[model.EntityItems][it.ID] {
				continue
			}
			if err := putItem(ctx, tx, it); err != nil {
				return err
			}
		}
		for _, js := range sites {
			if held[model.EntityJobSites][js.ID] {
				continue
			}
			if err := putJobSite(ctx, tx, js); err != nil {
				return err
			}
		}
		for _, u := range usage {
			if held[model.EntityUsage][u.ID] {
				continue
			}
			if err := putUsage(ctx, tx, u); err != nil {
				return err
			}
		}
		return nil
	})
}

func pendingIDs(ctx context.Context, tx *sql.Tx) (map[model.Entity]map[string]bool, error) {
	rows, err := tx.QueryContext(ctx, `SELECT DISTINCT entity, entity_id FROM pending_changes WHERE synced = 0`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	held := map[model.Entity]map[string]bool{}
	for rows.Next() {
		var entity, id string
		if err := rows.Scan(&entity, &id); err != nil {
			return nil, err
		}
		e := model.Entity(entity)
		if held[e] == nil {
			held[e] = map[string]bool{}
		}
		held[e][id] = true
	}
	return held, rows.Err()
}
