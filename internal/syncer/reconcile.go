package syncer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/and161185/stock-keeper/internal/errs"
	"github.com/and161185/stock-keeper/internal/model"
)

// Reconcile replays the pending-change log against the remote in sequence order
// and returns how many entries reached it.
//
// Entries whose record no longer exists locally are skipped (deletes excepted);
// a usage entry goes with its item. Entries the remote rejects (invalid, conflicting
// or referencing a record it does not have) are dropped with a warning. Any other
// failure stops the pass and the rest stays queued. A fully drained log is cleared.
func (c *Coordinator) Reconcile(ctx context.Context) (int, error) {
	if c.remote == nil {
		return 0, nil
	}
	c.syncMu.Lock()
	defer c.syncMu.Unlock()

	pending, err := c.store.UnsyncedPendingChanges(ctx)
	if err != nil {
		c.log.Error("read pending changes", zap.Error(err))
		return 0, err
	}
	if len(pending) == 0 {
		return 0, nil
	}
	live, err := c.localIDs(ctx)
	if err != nil {
		c.log.Error("read local ids", zap.Error(err))
		return 0, err
	}

	replayed := 0
	for _, ch := range pending {
		log := c.log.With(zap.Int64("seq", ch.Seq), zap.String("kind", string(ch.Kind)),
			zap.String("entity", string(ch.Entity)), zap.String("id", ch.EntityID))

		if stale(ch, live) {
			log.Debug("skipping pending change for removed record")
		} else if err := c.replay(ctx, ch); err != nil {
			switch {
			case errors.Is(err, errs.ErrValidation), errors.Is(err, errs.ErrConflict),
				errors.Is(err, errs.ErrNotFound):
				log.Warn("remote rejected pending change, dropping", zap.Error(err))
			default:
				if errors.Is(err, errs.ErrRemoteUnavailable) {
					c.setOnline(false)
				}
				log.Warn("reconcile stopped", zap.Error(err))
				return replayed, err
			}
		} else {
			replayed++
		}

		if err := c.store.MarkPendingSynced(ctx, ch.Seq); err != nil {
			c.log.Error("mark pending synced", zap.Int64("seq", ch.Seq), zap.Error(err))
			return replayed, err
		}
	}
	if replayed > 0 {
		c.setOnline(true)
	}

	c.pendingMu.Lock()
	defer c.pendingMu.Unlock()
	left, err := c.store.UnsyncedPendingChanges(ctx)
	if err != nil {
		return replayed, err
	}
	if len(left) == 0 {
		c.storageFailed("clear pending changes", c.store.ClearPendingChanges(ctx))
	}
	c.log.Info("reconciled pending changes", zap.Int("replayed", replayed), zap.Int("queued", len(left)))
	return replayed, nil
}

// stale reports whether the record ch targets is gone locally.
func stale(ch model.PendingChange, live map[model.Entity]map[string]bool) bool {
	if ch.Kind == model.ChangeDelete {
		return false
	}
	if !live[ch.Entity][ch.EntityID] {
		return true
	}
	if ch.Entity == model.EntityUsage {
		var u model.Usage
		if err := json.Unmarshal(ch.Payload, &u); err == nil && !live[model.EntityItems][u.ItemID] {
			return true
		}
	}
	return false
}

func (c *Coordinator) replay(ctx context.Context, ch model.PendingChange) error {
	switch ch.Entity {
	case model.EntityItems:
		if ch.Kind == model.ChangeDelete {
			err := c.remote.DeleteItem(ctx, ch.EntityID)
			if errors.Is(err, errs.ErrNotFound) {
				return nil
			}
			return err
		}
		var it model.Item
		if err := json.Unmarshal(ch.Payload, &it); err != nil {
			return errs.Invalid("payload", err.Error())
		}
		_, err := c.remote.UpsertItem(ctx, it)
		return err

	case model.EntityJobSites:
		var js model.JobSite
		if err := json.Unmarshal(ch.Payload, &js); err != nil {
			return errs.Invalid("payload", err.Error())
		}
		_, err := c.remote.UpsertJobSite(ctx, js)
		return err

	case model.EntityUsage:
		var u model.Usage
		if err := json.Unmarshal(ch.Payload, &u); err != nil {
			return errs.Invalid("payload", err.Error())
		}
		_, err := c.remote.RecordUsage(ctx, u)
		return err
	}
	return errs.Invalid("entity", fmt.Sprintf("unknown %q", ch.Entity))
}

func (c *Coordinator) localIDs(ctx context.Context) (map[model.Entity]map[string]bool, error) {
	ids := map[model.Entity]map[string]bool{
		model.EntityItems:    {},
		model.EntityJobSites: {},
		model.EntityUsage:    {},
	}
	items, err := c.store.Items(ctx)
	if err != nil {
		return nil, err
	}
	for _, it := range items {
		ids[model.EntityItems][it.ID] = true
	}
	sites, err := c.store.JobSites(ctx)
	if err != nil {
		return nil, err
	}
	for _, js := range sites {
		ids[model.EntityJobSites][js.ID] = true
	}
	usage, err := c.store.Usage(ctx)
	if err != nil {
		return nil, err
	}
	for _, u := range usage {
		ids[model.EntityUsage][u.ID] = true
	}
	return ids, nil
}
