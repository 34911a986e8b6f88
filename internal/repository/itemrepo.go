package repository

import (
	"context"

	"github.com/and161185/stock-keeper/internal/model"
)

// ItemRepository provides access to inventory items on the remote backend.
type ItemRepository interface {
	// List returns all items, oldest first.
	List(ctx context.Context) ([]model.Item, error)

	// UpsertBatch inserts or replaces items by id in one transaction.
	UpsertBatch(ctx context.Context, items []model.Item) ([]model.Item, error)

	// Delete removes an item; ErrNotFound if absent.
	Delete(ctx context.Context, id string) error

	// ReduceQuantity atomically subtracts qty; ErrConflict if stock is insufficient.
	ReduceQuantity(ctx context.Context, id string, qty int) (int, error)
}
