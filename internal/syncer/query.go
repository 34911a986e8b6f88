package syncer

import (
	"context"

	"github.com/and161185/stock-keeper/internal/model"
	"github.com/and161185/stock-keeper/internal/resolver"
)

// Find resolves a scanned or typed token against the current items.
func (c *Coordinator) Find(token string) resolver.Result {
	return resolver.Resolve(c.state.Snapshot().Items, token)
}

// LowStock returns items at or below their threshold, in state order.
func (c *Coordinator) LowStock() []model.Item {
	out := []model.Item{}
	for _, it := range c.state.Snapshot().Items {
		if it.LowStock() {
			out = append(out, it)
		}
	}
	return out
}

// Pending returns the queued changes not yet replayed.
func (c *Coordinator) Pending(ctx context.Context) ([]model.PendingChange, error) {
	return c.store.UnsyncedPendingChanges(ctx)
}
