package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/and161185/stock-keeper/internal/errs"
	"github.com/and161185/stock-keeper/internal/model"
)

const itemCols = `id, name, description, quantity, min_quantity, category, location,
       unit_price, supplier, barcode, notes, created_at, updated_at`

// ItemRepo implements ItemRepository using PostgreSQL.
type ItemRepo struct{ db *DB }

// NewItemRepo constructs an item repository.
func NewItemRepo(db *DB) *ItemRepo { return &ItemRepo{db: db} }

func scanItem(row pgx.Row) (model.Item, error) {
	var it model.Item
	err := row.Scan(&it.ID, &it.Name, &it.Description, &it.Quantity, &it.MinQuantity,
		&it.Category, &it.Location, &it.UnitPrice, &it.Supplier, &it.Barcode, &it.Notes,
		&it.CreatedAt, &it.UpdatedAt)
	return it, err
}

// List returns all items, oldest first, matching the local store.
func (r *ItemRepo) List(ctx context.Context) ([]model.Item, error) {
	rows, err := r.db.Pool.Query(ctx, `SELECT `+itemCols+` FROM inventory_items ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Item{}
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// UpsertBatch inserts or replaces items by id in one transaction.
func (r *ItemRepo) UpsertBatch(ctx context.Context, items []model.Item) ([]model.Item, error) {
	const q = `
INSERT INTO inventory_items (` + itemCols + `)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
ON CONFLICT (id) DO UPDATE SET
    name=EXCLUDED.name, description=EXCLUDED.description, quantity=EXCLUDED.quantity,
    min_quantity=EXCLUDED.min_quantity, category=EXCLUDED.category, location=EXCLUDED.location,
    unit_price=EXCLUDED.unit_price, supplier=EXCLUDED.supplier, barcode=EXCLUDED.barcode,
    notes=EXCLUDED.notes, updated_at=EXCLUDED.updated_at
RETURNING ` + itemCols

	out := make([]model.Item, 0, len(items))
	err := r.db.inTx(ctx, func(tx pgx.Tx) error {
		for i, it := range items {
			saved, err := scanItem(tx.QueryRow(ctx, q,
				it.ID, it.Name, it.Description, it.Quantity, it.MinQuantity, it.Category, it.Location,
				it.UnitPrice, it.Supplier, it.Barcode, it.Notes, it.CreatedAt, it.UpdatedAt))
			if err != nil {
				if isCheckViolation(err) {
					return errs.Invalid(fmt.Sprintf("items[%d]", i), "violates a stock constraint")
				}
				return fmt.Errorf("item[%d]: %w", i, err)
			}
			out = append(out, saved)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes an item; ErrNotFound if absent.
func (r *ItemRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM inventory_items WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// ReduceQuantity subtracts qty under a row lock and returns the stock left.
// ErrConflict when the item holds less than qty.
func (r *ItemRepo) ReduceQuantity(ctx context.Context, id string, qty int) (left int, err error) {
	err = r.db.inTx(ctx, func(tx pgx.Tx) error {
		var err error
		left, err = reduce(ctx, tx, id, qty)
		return err
	})
	return left, err
}

// reduce is shared with usage recording so both run inside the caller's transaction.
func reduce(ctx context.Context, tx pgx.Tx, id string, qty int) (int, error) {
	const sel = `SELECT quantity FROM inventory_items WHERE id=$1 FOR UPDATE`
	const upd = `UPDATE inventory_items SET quantity=$2, updated_at=now() WHERE id=$1`

	var cur int
	if err := tx.QueryRow(ctx, sel, id).Scan(&cur); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, errs.ErrNotFound
		}
		return 0, err
	}
	if qty > cur {
		return 0, fmt.Errorf("%w: %d requested, %d in stock", errs.ErrConflict, qty, cur)
	}
	left := model.Decrement(cur, qty)
	if _, err := tx.Exec(ctx, upd, id, left); err != nil {
		return 0, err
	}
	return left, nil
}
