package syncer

import (
	"context"
	"fmt"

	"github.com/and161185/stock-keeper/internal/errs"
	"github.com/and161185/stock-keeper/internal/model"
	"github.com/and161185/stock-keeper/internal/state"
)

// AddJobSite creates a job site remotely when possible, else locally.
func (c *Coordinator) AddJobSite(ctx context.Context, n model.NewJobSite) (model.JobSite, error) {
	if err := n.Validate(); err != nil {
		return model.JobSite{}, err
	}

	var js model.JobSite
	remoteOK := false
	if c.useRemote() {
		created, err := c.remote.CreateJobSite(ctx, n)
		switch {
		case err == nil:
			js, remoteOK = created, true
		case !c.degrade("add job site", err):
			return model.JobSite{}, err
		}
	}
	c.swapMu.RLock()
	defer c.swapMu.RUnlock()
	if !remoteOK {
		js = n.Materialize(c.id(), c.now())
		c.queue(ctx, model.ChangeAdd, model.EntityJobSites, js.ID, js)
	}

	c.storageFailed("put job site", c.store.PutJobSite(ctx, js))
	c.state.Dispatch(state.AddJobSite{JobSite: js})
	return js, nil
}

// UseItem records qty units of an item consumed at a job site and decrements its stock.
// Both effects land in one state transition.
func (c *Coordinator) UseItem(ctx context.Context, itemID, jobSiteID string, qty int, notes string) (model.Usage, error) {
	unlock := c.locks.Lock(itemID)
	defer unlock()

	snap := c.state.Snapshot()
	it, ok := snap.Item(itemID)
	if !ok {
		return model.Usage{}, fmt.Errorf("item %s: %w", itemID, errs.ErrNotFound)
	}
	if _, ok := snap.JobSite(jobSiteID); !ok {
		return model.Usage{}, fmt.Errorf("job site %s: %w", jobSiteID, errs.ErrNotFound)
	}
	if err := model.ValidateUse(it, qty); err != nil {
		return model.Usage{}, err
	}

	u := model.Usage{
		ID:           c.id(),
		ItemID:       itemID,
		JobSiteID:    jobSiteID,
		QuantityUsed: qty,
		UsedAt:       c.now(),
		Notes:        notes,
	}

	remoteOK := false
	if c.useRemote() {
		rec, err := c.remote.RecordUsage(ctx, u)
		switch {
		case err == nil:
			u, remoteOK = rec, true
		case !c.degrade("use item", err):
			return model.Usage{}, err
		}
	}
	c.swapMu.RLock()
	defer c.swapMu.RUnlock()
	if !remoteOK {
		// replaying the usage decrements remote stock; no item update is queued
		c.queue(ctx, model.ChangeAdd, model.EntityUsage, u.ID, u)
	}

	next := c.state.Dispatch(state.AddUsage{Usage: u})
	c.storageFailed("put usage", c.store.PutUsage(ctx, u))
	if after, ok := next.Item(itemID); ok {
		c.storageFailed("put item", c.store.PutItem(ctx, after))
	}
	return u, nil
}
