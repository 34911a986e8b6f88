package syncer

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/and161185/stock-keeper/internal/errs"
	"github.com/and161185/stock-keeper/internal/model"
)

var _ Backend = (*fakeBackend)(nil)

// fakeBackend is an in-memory remote. When down, every call fails as unavailable.
type fakeBackend struct {
	mu    sync.Mutex
	down  bool
	seq   int
	items []model.Item
	sites []model.JobSite
	usage []model.Usage
	calls []string

	// onListItems runs before ListItems takes the lock.
	onListItems func()
}

func (f *fakeBackend) setDown(v bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.down = v
}

func (f *fakeBackend) enter(op string) error {
	f.calls = append(f.calls, op)
	if f.down {
		return errs.Remote(op, fmt.Errorf("connection refused"))
	}
	return nil
}

func (f *fakeBackend) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeBackend) item(id string) (model.Item, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := slices.IndexFunc(f.items, func(it model.Item) bool { return it.ID == id })
	if i < 0 {
		return model.Item{}, false
	}
	return f.items[i], true
}

func (f *fakeBackend) ListItems(ctx context.Context) ([]model.Item, error) {
	if f.onListItems != nil {
		f.onListItems()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("list items"); err != nil {
		return nil, err
	}
	return slices.Clone(f.items), nil
}

func (f *fakeBackend) CreateItems(ctx context.Context, batch []model.NewItem) ([]model.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("create items"); err != nil {
		return nil, err
	}
	out := make([]model.Item, 0, len(batch))
	for _, n := range batch {
		f.seq++
		it := n.Materialize(fmt.Sprintf("r%d", f.seq), time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
		f.items = append(f.items, it)
		out = append(out, it)
	}
	return out, nil
}

func (f *fakeBackend) UpsertItem(ctx context.Context, it model.Item) (model.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("upsert item"); err != nil {
		return model.Item{}, err
	}
	if i := slices.IndexFunc(f.items, func(x model.Item) bool { return x.ID == it.ID }); i >= 0 {
		f.items[i] = it
	} else {
		f.items = append(f.items, it)
	}
	return it, nil
}

func (f *fakeBackend) DeleteItem(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("delete item"); err != nil {
		return err
	}
	i := slices.IndexFunc(f.items, func(x model.Item) bool { return x.ID == id })
	if i < 0 {
		return fmt.Errorf("delete item: %w", errs.ErrNotFound)
	}
	f.items = slices.Delete(f.items, i, i+1)
	return nil
}

func (f *fakeBackend) ReduceQuantity(ctx context.Context, id string, qty int) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("reduce quantity"); err != nil {
		return 0, err
	}
	i := slices.IndexFunc(f.items, func(x model.Item) bool { return x.ID == id })
	if i < 0 {
		return 0, fmt.Errorf("reduce: %w", errs.ErrNotFound)
	}
	if f.items[i].Quantity < qty {
		return 0, fmt.Errorf("reduce: %w", errs.ErrConflict)
	}
	f.items[i].Quantity -= qty
	return f.items[i].Quantity, nil
}

func (f *fakeBackend) ListJobSites(ctx context.Context) ([]model.JobSite, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("list job sites"); err != nil {
		return nil, err
	}
	return slices.Clone(f.sites), nil
}

func (f *fakeBackend) CreateJobSite(ctx context.Context, n model.NewJobSite) (model.JobSite, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("create job site"); err != nil {
		return model.JobSite{}, err
	}
	f.seq++
	js := n.Materialize(fmt.Sprintf("r%d", f.seq), time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	f.sites = append(f.sites, js)
	return js, nil
}

func (f *fakeBackend) UpsertJobSite(ctx context.Context, js model.JobSite) (model.JobSite, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("upsert job site"); err != nil {
		return model.JobSite{}, err
	}
	if i := slices.IndexFunc(f.sites, func(x model.JobSite) bool { return x.ID == js.ID }); i >= 0 {
		f.sites[i] = js
	} else {
		f.sites = append(f.sites, js)
	}
	return js, nil
}

func (f *fakeBackend) ListUsage(ctx context.Context) ([]model.Usage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("list usage"); err != nil {
		return nil, err
	}
	return slices.Clone(f.usage), nil
}

func (f *fakeBackend) RecordUsage(ctx context.Context, u model.Usage) (model.Usage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("record usage"); err != nil {
		return model.Usage{}, err
	}
	if slices.ContainsFunc(f.usage, func(x model.Usage) bool { return x.ID == u.ID }) {
		return u, nil
	}
	i := slices.IndexFunc(f.items, func(x model.Item) bool { return x.ID == u.ItemID })
	if i < 0 {
		return model.Usage{}, fmt.Errorf("record usage: %w", errs.ErrNotFound)
	}
	if f.items[i].Quantity < u.QuantityUsed {
		return model.Usage{}, fmt.Errorf("record usage: %w", errs.ErrConflict)
	}
	f.items[i].Quantity -= u.QuantityUsed
	f.usage = append(f.usage, u)
	return u, nil
}
