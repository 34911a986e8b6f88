package sqlite

import (
	"context"
	"database/sql"

	"github.com/and161185/stock-keeper/internal/errs"
	"github.com/and161185/stock-keeper/internal/model"
)

const upsertItem = `
INSERT INTO items (id, name, description, quantity, min_quantity, category, location,
                   unit_price, supplier, barcode, notes, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET
    name = excluded.name, description = excluded.description, quantity = excluded.quantity,
    min_quantity = excluded.min_quantity, category = excluded.category, location = excluded.location,
    unit_price = excluded.unit_price, supplier = excluded.supplier, barcode = excluded.barcode,
    notes = excluded.notes, created_at = excluded.created_at, updated_at = excluded.updated_at`

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func putItem(ctx context.Context, ex execer, it model.Item) error {
	var price sql.NullFloat64
	if it.UnitPrice != nil {
		price = sql.NullFloat64{Float64: *it.UnitPrice, Valid: true}
	}
	_, err := ex.ExecContext(ctx, upsertItem,
		it.ID, it.Name, it.Description, it.Quantity, it.MinQuantity, it.Category, it.Location,
		price, it.Supplier, it.Barcode, it.Notes, formatTime(it.CreatedAt), formatTime(it.UpdatedAt),
	)
	return err
}

// Items returns all items in insertion order.
func (s *Store) Items(ctx context.Context) ([]model.Item, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, `
SELECT id, name, description, quantity, min_quantity, category, location,
       unit_price, supplier, barcode, notes, created_at, updated_at
FROM items ORDER BY rowid`)
	if err != nil {
		return nil, errs.Storage("list items", err)
	}
	defer rows.Close()

	out := []model.Item{}
	for rows.Next() {
		var (
			it               model.Item
			price            sql.NullFloat64
			created, updated string
		)
		if err := rows.Scan(&it.ID, &it.Name, &it.Description, &it.Quantity, &it.MinQuantity,
			&it.Category, &it.Location, &price, &it.Supplier, &it.Barcode, &it.Notes,
			&created, &updated); err != nil {
			return nil, errs.Storage("scan item", err)
		}
		if price.Valid {
			p := price.Float64
			it.UnitPrice = &p
		}
		if it.CreatedAt, err = parseTime(created); err != nil {
			return nil, errs.Storage("scan item", err)
		}
		if it.UpdatedAt, err = parseTime(updated); err != nil {
			return nil, errs.Storage("scan item", err)
		}
		out = append(out, it)
	}
	return out, errs.Storage("list items", rows.Err())
}

// PutItem upserts one item.
func (s *Store) PutItem(ctx context.Context, it model.Item) error {
	db, err := s.conn(ctx)
	if err != nil {
		return err
	}
	return errs.Storage("put item", putItem(ctx, db, it))
}

// PutItems upserts a batch atomically.
func (s *Store) PutItems(ctx context.Context, items []model.Item) error {
	return s.tx(ctx, "put items", func(tx *sql.Tx) error {
		for _, it := range items {
			if err := putItem(ctx, tx, it); err != nil {
				return err
			}
		}
		return nil
	})
}

// DeleteItem removes an item; deleting an absent id is a no-op.
func (s *Store) DeleteItem(ctx context.Context, id string) error {
	db, err := s.conn(ctx)
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `DELETE FROM items WHERE id = ?`, id)
	return errs.Storage("delete item", err)
}
