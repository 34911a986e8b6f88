package syncer

import (
	"context"
	"errors"
	"fmt"

	"github.com/and161185/stock-keeper/internal/errs"
	"github.com/and161185/stock-keeper/internal/model"
	"github.com/and161185/stock-keeper/internal/state"
)

// AddItem creates an item remotely when possible, else locally.
func (c *Coordinator) AddItem(ctx context.Context, n model.NewItem) (model.Item, error) {
	if err := n.Validate(); err != nil {
		return model.Item{}, err
	}

	var it model.Item
	remoteOK := false
	if c.useRemote() {
		created, err := c.remote.CreateItems(ctx, []model.NewItem{n})
		if err == nil && len(created) != 1 {
			err = errs.Remote("create items", fmt.Errorf("want 1 item, got %d", len(created)))
		}
		switch {
		case err == nil:
			it, remoteOK = created[0], true
		case !c.degrade("add item", err):
			return model.Item{}, err
		}
	}
	c.swapMu.RLock()
	defer c.swapMu.RUnlock()
	if !remoteOK {
		it = n.Materialize(c.id(), c.now())
		c.queue(ctx, model.ChangeAdd, model.EntityItems, it.ID, it)
	}

	c.storageFailed("put item", c.store.PutItem(ctx, it))
	c.state.Dispatch(state.AddItem{Item: it})
	return it, nil
}

// UpdateItem replaces an existing item. CreatedAt is preserved and UpdatedAt bumped.
func (c *Coordinator) UpdateItem(ctx context.Context, it model.Item) (model.Item, error) {
	if err := it.Validate(); err != nil {
		return model.Item{}, err
	}
	unlock := c.locks.Lock(it.ID)
	defer unlock()

	cur, ok := c.state.Snapshot().Item(it.ID)
	if !ok {
		return model.Item{}, fmt.Errorf("item %s: %w", it.ID, errs.ErrNotFound)
	}
	it.CreatedAt = cur.CreatedAt
	it.UpdatedAt = c.now()

	remoteOK := false
	if c.useRemote() {
		saved, err := c.remote.UpsertItem(ctx, it)
		switch {
		case err == nil:
			it, remoteOK = saved, true
		case !c.degrade("update item", err):
			return model.Item{}, err
		}
	}
	c.swapMu.RLock()
	defer c.swapMu.RUnlock()
	if !remoteOK {
		c.queue(ctx, model.ChangeUpdate, model.EntityItems, it.ID, it)
	}

	c.storageFailed("put item", c.store.PutItem(ctx, it))
	c.state.Dispatch(state.UpdateItem{Item: it})
	return it, nil
}

// DeleteItem removes an item everywhere.
func (c *Coordinator) DeleteItem(ctx context.Context, id string) error {
	unlock := c.locks.Lock(id)
	defer unlock()

	if _, ok := c.state.Snapshot().Item(id); !ok {
		return fmt.Errorf("item %s: %w", id, errs.ErrNotFound)
	}

	remoteOK := false
	if c.useRemote() {
		err := c.remote.DeleteItem(ctx, id)
		switch {
		case err == nil, errors.Is(err, errs.ErrNotFound):
			remoteOK = true
		case !c.degrade("delete item", err):
			return err
		}
	}
	c.swapMu.RLock()
	defer c.swapMu.RUnlock()
	if !remoteOK {
		c.queue(ctx, model.ChangeDelete, model.EntityItems, id, nil)
	}

	c.storageFailed("delete item", c.store.DeleteItem(ctx, id))
	c.state.Dispatch(state.DeleteItem{ID: id})
	return nil
}

// BulkAddItems creates a batch in one transition. Locally synthesized ids are
// unique within the batch.
func (c *Coordinator) BulkAddItems(ctx context.Context, batch []model.NewItem) ([]model.Item, error) {
	if err := model.ValidateBatch(batch); err != nil {
		return nil, err
	}

	var items []model.Item
	remoteOK := false
	if c.useRemote() {
		created, err := c.remote.CreateItems(ctx, batch)
		if err == nil && len(created) != len(batch) {
			err = errs.Remote("create items", fmt.Errorf("want %d items, got %d", len(batch), len(created)))
		}
		switch {
		case err == nil:
			items, remoteOK = created, true
		case !c.degrade("bulk add items", err):
			return nil, err
		}
	}
	c.swapMu.RLock()
	defer c.swapMu.RUnlock()
	if !remoteOK {
		now := c.now()
		items = make([]model.Item, 0, len(batch))
		for _, n := range batch {
			it := n.Materialize(c.id(), now)
			items = append(items, it)
			c.queue(ctx, model.ChangeAdd, model.EntityItems, it.ID, it)
		}
	}

	c.storageFailed("put items", c.store.PutItems(ctx, items))
	c.state.Dispatch(state.BulkAddItems{Items: items})
	return items, nil
}

// Withdraw takes qty units out of stock without a job site.
func (c *Coordinator) Withdraw(ctx context.Context, id string, qty int) (model.Item, error) {
	unlock := c.locks.Lock(id)
	defer unlock()

	it, ok := c.state.Snapshot().Item(id)
	if !ok {
		return model.Item{}, fmt.Errorf("item %s: %w", id, errs.ErrNotFound)
	}
	if err := model.ValidateUse(it, qty); err != nil {
		return model.Item{}, err
	}
	it.Quantity = model.Decrement(it.Quantity, qty)
	it.UpdatedAt = c.now()

	remoteOK := false
	if c.useRemote() {
		left, err := c.remote.ReduceQuantity(ctx, id, qty)
		switch {
		case err == nil:
			it.Quantity, remoteOK = left, true
		case !c.degrade("withdraw", err):
			return model.Item{}, err
		}
	}
	c.swapMu.RLock()
	defer c.swapMu.RUnlock()
	if !remoteOK {
		c.queue(ctx, model.ChangeUpdate, model.EntityItems, it.ID, it)
	}

	c.storageFailed("put item", c.store.PutItem(ctx, it))
	c.state.Dispatch(state.UpdateItem{Item: it})
	return it, nil
}
