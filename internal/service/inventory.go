package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/and161185/stock-keeper/internal/cache"
	"github.com/and161185/stock-keeper/internal/errs"
	"github.com/and161185/stock-keeper/internal/model"
	"github.com/and161185/stock-keeper/internal/repository"
)

// InventoryService defines the remote backend operations over items, job sites and usage.
type InventoryService interface {
	ListItems(ctx context.Context) ([]model.Item, error)
	// CreateItems validates and stores a batch; missing ids and timestamps are assigned.
	CreateItems(ctx context.Context, items []model.Item) ([]model.Item, error)
	// PutItem inserts or replaces the item with the given id.
	PutItem(ctx context.Context, it model.Item) (model.Item, error)
	DeleteItem(ctx context.Context, id string) error
	// ReduceQuantity subtracts qty from stock and returns what is left.
	ReduceQuantity(ctx context.Context, id string, qty int) (int, error)

	ListJobSites(ctx context.Context) ([]model.JobSite, error)
	PutJobSite(ctx context.Context, js model.JobSite) (model.JobSite, error)

	ListUsage(ctx context.Context) ([]model.Usage, error)
	// RecordUsage appends a usage record and decrements stock. created is false
	// when the id was already recorded.
	RecordUsage(ctx context.Context, u model.Usage) (rec model.Usage, created bool, err error)
}

type InventoryServiceImpl struct {
	items    repository.ItemRepository
	sites    repository.JobSiteRepository
	usage    repository.UsageRepository
	cache    cache.ListCache
	log      *zap.Logger
	maxBatch int
	now      func() time.Time
}

// NewInventoryService constructs InventoryService with batch limits.
// A nil cache disables list caching.
func NewInventoryService(items repository.ItemRepository, sites repository.JobSiteRepository,
	usage repository.UsageRepository, lc cache.ListCache, log *zap.Logger, maxBatch int) *InventoryServiceImpl {
	if maxBatch <= 0 {
		maxBatch = 1000
	}
	if lc == nil {
		lc = cache.Nop{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &InventoryServiceImpl{
		items: items, sites: sites, usage: usage,
		cache: lc, log: log, maxBatch: maxBatch, now: time.Now,
	}
}

func newID() (string, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// cached serves key from the list cache or loads and stores it.
func cached[T any](ctx context.Context, s *InventoryServiceImpl, key string, load func(context.Context) ([]T, error)) ([]T, error) {
	var out []T
	hit, err := s.cache.Get(ctx, key, &out)
	if err != nil {
		s.log.Warn("list cache read failed", zap.String("key", key), zap.Error(err))
	}
	if hit {
		return out, nil
	}
	out, err = load(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, key, out); err != nil {
		s.log.Warn("list cache write failed", zap.String("key", key), zap.Error(err))
	}
	return out, nil
}

func (s *InventoryServiceImpl) invalidate(ctx context.Context, keys ...string) {
	if err := s.cache.Invalidate(ctx, keys...); err != nil {
		s.log.Warn("list cache invalidate failed", zap.Strings("keys", keys), zap.Error(err))
	}
}

func (s *InventoryServiceImpl) ListItems(ctx context.Context) ([]model.Item, error) {
	return cached(ctx, s, cache.KeyItems, s.items.List)
}

// CreateItems validates input and delegates atomic batch upsert to repository.
// Validation rules:
// - 0 < len(items) <= maxBatch
// - each payload passes NewItem validation
func (s *InventoryServiceImpl) CreateItems(ctx context.Context, items []model.Item) ([]model.Item, error) {
	if len(items) > s.maxBatch {
		return nil, errs.Invalid("items", fmt.Sprintf("batch too large (%d > %d)", len(items), s.maxBatch))
	}
	drafts := make([]model.NewItem, len(items))
	for i := range items {
		drafts[i] = items[i].Draft()
	}
	if err := model.ValidateBatch(drafts); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	batch := make([]model.Item, len(items))
	for i, it := range items {
		if strings.TrimSpace(it.ID) == "" {
			id, err := newID()
			if err != nil {
				return nil, err
			}
			it.ID = id
		}
		stamp(&it, now)
		batch[i] = it
	}

	out, err := s.items.UpsertBatch(ctx, batch)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, cache.KeyItems)
	return out, nil
}

// PutItem replaces one item by id; the client-chosen id is kept.
func (s *InventoryServiceImpl) PutItem(ctx context.Context, it model.Item) (model.Item, error) {
	if err := it.Validate(); err != nil {
		return model.Item{}, err
	}
	stamp(&it, s.now().UTC())
	out, err := s.items.UpsertBatch(ctx, []model.Item{it})
	if err != nil {
		return model.Item{}, err
	}
	s.invalidate(ctx, cache.KeyItems)
	return out[0], nil
}

func stamp(it *model.Item, now time.Time) {
	if it.CreatedAt.IsZero() {
		it.CreatedAt = now
	}
	if it.UpdatedAt.IsZero() {
		it.UpdatedAt = now
	}
}

func (s *InventoryServiceImpl) DeleteItem(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return errs.Invalid("id", "required")
	}
	if err := s.items.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, cache.KeyItems)
	return nil
}

func (s *InventoryServiceImpl) ReduceQuantity(ctx context.Context, id string, qty int) (int, error) {
	if strings.TrimSpace(id) == "" {
		return 0, errs.Invalid("item_id", "required")
	}
	if qty <= 0 {
		return 0, errs.Invalid("quantity_to_reduce", "must be positive")
	}
	left, err := s.items.ReduceQuantity(ctx, id, qty)
	if err != nil {
		return 0, err
	}
	s.invalidate(ctx, cache.KeyItems)
	return left, nil
}

func (s *InventoryServiceImpl) ListJobSites(ctx context.Context) ([]model.JobSite, error) {
	return cached(ctx, s, cache.KeyJobSites, s.sites.List)
}

// PutJobSite stores a job site; an empty id gets a fresh one.
func (s *InventoryServiceImpl) PutJobSite(ctx context.Context, js model.JobSite) (model.JobSite, error) {
	if err := (model.NewJobSite{Name: js.Name, Address: js.Address}).Validate(); err != nil {
		return model.JobSite{}, err
	}
	if strings.TrimSpace(js.ID) == "" {
		id, err := newID()
		if err != nil {
			return model.JobSite{}, err
		}
		js.ID = id
	}
	if js.CreatedAt.IsZero() {
		js.CreatedAt = s.now().UTC()
	}
	out, err := s.sites.Upsert(ctx, js)
	if err != nil {
		return model.JobSite{}, err
	}
	s.invalidate(ctx, cache.KeyJobSites)
	return out, nil
}

func (s *InventoryServiceImpl) ListUsage(ctx context.Context) ([]model.Usage, error) {
	return cached(ctx, s, cache.KeyUsage, s.usage.List)
}

func (s *InventoryServiceImpl) RecordUsage(ctx context.Context, u model.Usage) (model.Usage, bool, error) {
	switch {
	case strings.TrimSpace(u.ItemID) == "":
		return model.Usage{}, false, errs.Invalid("item_id", "required")
	case strings.TrimSpace(u.JobSiteID) == "":
		return model.Usage{}, false, errs.Invalid("job_site_id", "required")
	case u.QuantityUsed <= 0:
		return model.Usage{}, false, errs.Invalid("quantity_used", "must be positive")
	}
	if strings.TrimSpace(u.ID) == "" {
		id, err := newID()
		if err != nil {
			return model.Usage{}, false, err
		}
		u.ID = id
	}
	if u.UsedAt.IsZero() {
		u.UsedAt = s.now().UTC()
	}

	rec, created, err := s.usage.Record(ctx, u)
	if err != nil {
		return model.Usage{}, false, err
	}
	if created {
		s.invalidate(ctx, cache.KeyUsage, cache.KeyItems)
	}
	return rec, created, nil
}
