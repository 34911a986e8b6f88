package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/and161185/stock-keeper/internal/cache"
	"github.com/and161185/stock-keeper/internal/errs"
	"github.com/and161185/stock-keeper/internal/model"
	"github.com/and161185/stock-keeper/internal/repository"
)

type fakeItemRepo struct {
	listCalls int
	listOut   []model.Item

	upsertIn  []model.Item
	upsertErr error

	delIn  string
	delErr error

	reduceLeft int
	reduceErr  error
}

var _ repository.ItemRepository = (*fakeItemRepo)(nil)

func (f *fakeItemRepo) List(context.Context) ([]model.Item, error) {
	f.listCalls++
	return append([]model.Item(nil), f.listOut...), nil
}
func (f *fakeItemRepo) UpsertBatch(_ context.Context, items []model.Item) ([]model.Item, error) {
	f.upsertIn = append([]model.Item(nil), items...)
	if f.upsertErr != nil {
		return nil, f.upsertErr
	}
	return append([]model.Item(nil), items...), nil
}
func (f *fakeItemRepo) Delete(_ context.Context, id string) error {
	f.delIn = id
	return f.delErr
}
func (f *fakeItemRepo) ReduceQuantity(context.Context, string, int) (int, error) {
	return f.reduceLeft, f.reduceErr
}

type fakeSiteRepo struct{ saved []model.JobSite }

func (f *fakeSiteRepo) List(context.Context) ([]model.JobSite, error) { return f.saved, nil }
func (f *fakeSiteRepo) Upsert(_ context.Context, js model.JobSite) (model.JobSite, error) {
	f.saved = append(f.saved, js)
	return js, nil
}

type fakeUsageRepo struct {
	seen map[string]model.Usage
	err  error
}

func (f *fakeUsageRepo) List(context.Context) ([]model.Usage, error) { return nil, nil }
func (f *fakeUsageRepo) Record(_ context.Context, u model.Usage) (model.Usage, bool, error) {
	if f.err != nil {
		return model.Usage{}, false, f.err
	}
	if old, ok := f.seen[u.ID]; ok {
		return old, false, nil
	}
	if f.seen == nil {
		f.seen = map[string]model.Usage{}
	}
	f.seen[u.ID] = u
	return u, true, nil
}

type countingCache struct {
	cache.Nop
	invalidated [][]string
}

func (c *countingCache) Invalidate(_ context.Context, keys ...string) error {
	c.invalidated = append(c.invalidated, keys)
	return nil
}

var fixedNow = time.Date(2026, 4, 2, 10, 0, 0, 0, time.UTC)

func newInventory(t *testing.T, lc cache.ListCache, maxBatch int) (*InventoryServiceImpl, *fakeItemRepo, *fakeSiteRepo, *fakeUsageRepo) {
	t.Helper()
	items, sites, usage := &fakeItemRepo{}, &fakeSiteRepo{}, &fakeUsageRepo{}
	s := NewInventoryService(items, sites, usage, lc, zaptest.NewLogger(t), maxBatch)
	s.now = func() time.Time { return fixedNow }
	return s, items, sites, usage
}

func TestNewInventoryService_Defaults(t *testing.T) {
	s := NewInventoryService(&fakeItemRepo{}, &fakeSiteRepo{}, &fakeUsageRepo{}, nil, nil, 0)
	require.Equal(t, 1000, s.maxBatch)
	require.IsType(t, cache.Nop{}, s.cache)
}

func TestInventory_CreateItems_AssignsIdentity(t *testing.T) {
	lc := &countingCache{}
	s, repo, _, _ := newInventory(t, lc, 10)

	out, err := s.CreateItems(context.Background(), []model.Item{
		{Name: "Lock A", Quantity: 10},
		{ID: "keep-me", Name: "Lock B", Quantity: 1},
	})
	require.NoError(t, err)
	require.Len(t, out, 2)
	require.NotEmpty(t, out[0].ID)
	require.Equal(t, "keep-me", out[1].ID)
	require.Equal(t, fixedNow, repo.upsertIn[0].CreatedAt)
	require.Equal(t, fixedNow, repo.upsertIn[0].UpdatedAt)
	require.Equal(t, [][]string{{cache.KeyItems}}, lc.invalidated)
}

func TestInventory_CreateItems_Validation(t *testing.T) {
	s, repo, _, _ := newInventory(t, nil, 2)
	ctx := context.Background()

	_, err := s.CreateItems(ctx, nil)
	require.ErrorIs(t, err, errs.ErrValidation)

	_, err = s.CreateItems(ctx, make([]model.Item, 3))
	require.ErrorIs(t, err, errs.ErrValidation)

	_, err = s.CreateItems(ctx, []model.Item{{Name: "ok"}, {Name: "bad", Quantity: -1}})
	var ve *errs.ValidationError
	require.ErrorAs(t, err, &ve)
	require.Equal(t, "items[1].quantity", ve.Field)
	require.Nil(t, repo.upsertIn, "nothing reaches the repository")
}

func TestInventory_PutItem_RequiresID(t *testing.T) {
	s, _, _, _ := newInventory(t, nil, 0)
	_, err := s.PutItem(context.Background(), model.Item{Name: "x"})
	require.ErrorIs(t, err, errs.ErrValidation)

	got, err := s.PutItem(context.Background(), model.Item{ID: "a", Name: "x", Quantity: 2})
	require.NoError(t, err)
	require.Equal(t, "a", got.ID)
}

func TestInventory_DeleteItem_PropagatesNotFound(t *testing.T) {
	lc := &countingCache{}
	s, repo, _, _ := newInventory(t, lc, 0)
	repo.delErr = errs.ErrNotFound

	require.ErrorIs(t, s.DeleteItem(context.Background(), "x"), errs.ErrNotFound)
	require.Empty(t, lc.invalidated)
	require.ErrorIs(t, s.DeleteItem(context.Background(), " "), errs.ErrValidation)
}

func TestInventory_ReduceQuantity(t *testing.T) {
	s, repo, _, _ := newInventory(t, nil, 0)
	ctx := context.Background()

	_, err := s.ReduceQuantity(ctx, "a", 0)
	require.ErrorIs(t, err, errs.ErrValidation)

	repo.reduceLeft = 4
	left, err := s.ReduceQuantity(ctx, "a", 2)
	require.NoError(t, err)
	require.Equal(t, 4, left)

	repo.reduceErr = errs.ErrConflict
	_, err = s.ReduceQuantity(ctx, "a", 9)
	require.ErrorIs(t, err, errs.ErrConflict)
}

func TestInventory_PutJobSite(t *testing.T) {
	s, _, sites, _ := newInventory(t, nil, 0)

	_, err := s.PutJobSite(context.Background(), model.JobSite{Name: "Elm"})
	require.ErrorIs(t, err, errs.ErrValidation)

	js, err := s.PutJobSite(context.Background(), model.JobSite{Name: "Elm", Address: "12 Elm St", Active: true})
	require.NoError(t, err)
	require.NotEmpty(t, js.ID)
	require.Equal(t, fixedNow, js.CreatedAt)
	require.Len(t, sites.saved, 1)
}

func TestInventory_RecordUsage_IdempotentByID(t *testing.T) {
	lc := &countingCache{}
	s, _, _, _ := newInventory(t, lc, 0)
	ctx := context.Background()
	u := model.Usage{ID: "u1", ItemID: "a", JobSiteID: "s", QuantityUsed: 3}

	rec, created, err := s.RecordUsage(ctx, u)
	require.NoError(t, err)
	require.True(t, created)
	require.Equal(t, fixedNow, rec.UsedAt)

	_, created, err = s.RecordUsage(ctx, u)
	require.NoError(t, err)
	require.False(t, created)
	require.Len(t, lc.invalidated, 1, "replay does not invalidate again")
	require.ElementsMatch(t, []string{cache.KeyUsage, cache.KeyItems}, lc.invalidated[0])
}

func TestInventory_RecordUsage_Validation(t *testing.T) {
	s, _, _, usage := newInventory(t, nil, 0)
	ctx := context.Background()

	for _, u := range []model.Usage{
		{JobSiteID: "s", QuantityUsed: 1},
		{ItemID: "a", QuantityUsed: 1},
		{ItemID: "a", JobSiteID: "s"},
	} {
		_, _, err := s.RecordUsage(ctx, u)
		require.ErrorIs(t, err, errs.ErrValidation)
	}
	require.Empty(t, usage.seen)

	usage.err = errors.New("boom")
	_, _, err := s.RecordUsage(ctx, model.Usage{ItemID: "a", JobSiteID: "s", QuantityUsed: 1})
	require.Error(t, err)
}

func TestInventory_ListItems_ServedFromRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	lc := cache.NewRedisWithClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}), time.Minute)
	s, repo, _, _ := newInventory(t, lc, 0)
	repo.listOut = []model.Item{{ID: "a", Name: "Lock", Quantity: 1, CreatedAt: fixedNow, UpdatedAt: fixedNow}}
	ctx := context.Background()

	first, err := s.ListItems(ctx)
	require.NoError(t, err)
	second, err := s.ListItems(ctx)
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Equal(t, 1, repo.listCalls)

	_, err = s.PutItem(ctx, model.Item{ID: "b", Name: "Key", Quantity: 2})
	require.NoError(t, err)
	_, err = s.ListItems(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, repo.listCalls)
}
