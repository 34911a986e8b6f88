package syncer

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/and161185/stock-keeper/internal/model"
	"github.com/and161185/stock-keeper/internal/state"
)

// Load populates the state. With a remote it replays pending changes, fetches
// all collections and caches them locally; on remote failure, or without a
// remote, it loads the local store.
func (c *Coordinator) Load(ctx context.Context) error {
	c.state.Dispatch(state.SetLoading{Loading: true})
	defer c.state.Dispatch(state.SetLoading{Loading: false})

	if c.remote != nil {
		err := c.pull(ctx)
		if err == nil {
			return nil
		}
		c.log.Warn("remote load failed, using local store", zap.Error(err))
	}
	return c.loadLocal(ctx)
}

// SyncNow forces a remote round trip regardless of the online flag.
func (c *Coordinator) SyncNow(ctx context.Context) error {
	if c.remote == nil {
		return ErrNoRemote
	}
	c.state.Dispatch(state.SetLoading{Loading: true})
	defer c.state.Dispatch(state.SetLoading{Loading: false})
	return c.pull(ctx)
}

func (c *Coordinator) pull(ctx context.Context) error {
	if _, err := c.Reconcile(ctx); err != nil {
		return err
	}

	var (
		items []model.Item
		sites []model.JobSite
		usage []model.Usage
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		items, err = c.remote.ListItems(gctx)
		return err
	})
	g.Go(func() (err error) {
		sites, err = c.remote.ListJobSites(gctx)
		return err
	})
	g.Go(func() (err error) {
		usage, err = c.remote.ListUsage(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		c.setOnline(false)
		return err
	}
	c.setOnline(true)

	c.swapMu.Lock()
	defer c.swapMu.Unlock()
	// records with queued changes survive the swap, so state is reread from the store
	if err := c.store.ReplaceAll(ctx, items, sites, usage); err != nil {
		c.storageFailed("replace all", err)
		c.setAll(items, sites, usage)
	} else if err := c.loadLocal(ctx); err != nil {
		c.setAll(items, sites, usage)
	}
	c.log.Info("loaded from remote",
		zap.Int("items", len(items)), zap.Int("job_sites", len(sites)), zap.Int("usage", len(usage)))
	return nil
}

func (c *Coordinator) setAll(items []model.Item, sites []model.JobSite, usage []model.Usage) {
	c.state.Dispatch(state.SetItems{Items: items})
	c.state.Dispatch(state.SetJobSites{JobSites: sites})
	c.state.Dispatch(state.SetUsage{Usage: usage})
}

func (c *Coordinator) loadLocal(ctx context.Context) error {
	items, err := c.store.Items(ctx)
	if err != nil {
		c.log.Error("load local items", zap.Error(err))
		return err
	}
	sites, err := c.store.JobSites(ctx)
	if err != nil {
		c.log.Error("load local job sites", zap.Error(err))
		return err
	}
	usage, err := c.store.Usage(ctx)
	if err != nil {
		c.log.Error("load local usage", zap.Error(err))
		return err
	}

	c.setAll(items, sites, usage)
	return nil
}

