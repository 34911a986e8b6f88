// Package syncer coordinates writes between the in-memory state, the local store
// and the optional remote backend.
//
// Every mutation tries the remote first when one is configured and the last
// remote call succeeded. Otherwise, or when the remote is unavailable, the record
// is synthesized locally and queued in the pending-change log for Reconcile.
package syncer

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/and161185/stock-keeper/internal/errs"
	"github.com/and161185/stock-keeper/internal/model"
	"github.com/and161185/stock-keeper/internal/repository"
	"github.com/and161185/stock-keeper/internal/state"
)

// ErrNoRemote is returned by SyncNow when no remote backend is configured.
var ErrNoRemote = errors.New("remote backend not configured")

// Backend is the remote object store as seen by the coordinator.
type Backend interface {
	ListItems(ctx context.Context) ([]model.Item, error)
	CreateItems(ctx context.Context, items []model.NewItem) ([]model.Item, error)
	UpsertItem(ctx context.Context, it model.Item) (model.Item, error)
	DeleteItem(ctx context.Context, id string) error
	ReduceQuantity(ctx context.Context, id string, qty int) (int, error)

	ListJobSites(ctx context.Context) ([]model.JobSite, error)
	CreateJobSite(ctx context.Context, n model.NewJobSite) (model.JobSite, error)
	UpsertJobSite(ctx context.Context, js model.JobSite) (model.JobSite, error)

	ListUsage(ctx context.Context) ([]model.Usage, error)
	RecordUsage(ctx context.Context, u model.Usage) (model.Usage, error)
}

// Coordinator is safe for concurrent use.
type Coordinator struct {
	store  repository.LocalStore
	remote Backend // nil when not configured
	state  *state.Store
	log    *zap.Logger

	now   func() time.Time
	newID func() (uuid.UUID, error)

	online atomic.Bool
	locks  keyedMutex

	// pendingMu orders log appends against the final clear in Reconcile.
	pendingMu sync.Mutex
	syncMu    sync.Mutex
	// swapMu is held shared by the local half of every mutation and exclusively
	// while pull swaps in a remote snapshot.
	swapMu sync.RWMutex
}

// Option customizes a Coordinator.
type Option func(*Coordinator)

// WithClock overrides the local clock.
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) { c.now = now }
}

// New builds a coordinator. Pass a nil remote when no backend is configured;
// a nil logger disables logging.
func New(store repository.LocalStore, remote Backend, log *zap.Logger, opts ...Option) *Coordinator {
	if log == nil {
		log = zap.NewNop()
	}
	c := &Coordinator{
		store:  store,
		remote: remote,
		state:  state.NewStore(state.Initial()),
		log:    log.Named("syncer"),
		now:    time.Now,
		newID:  uuid.NewV7,
	}
	c.online.Store(true)
	for _, o := range opts {
		o(c)
	}
	return c
}

// State exposes the snapshot store for subscribers.
func (c *Coordinator) State() *state.Store { return c.state }

// Snapshot returns a copy of the current state.
func (c *Coordinator) Snapshot() state.Snapshot { return c.state.Snapshot() }

// Online reports the outcome of the most recent remote call.
func (c *Coordinator) Online() bool { return c.online.Load() }

// RemoteConfigured reports whether a backend was supplied.
func (c *Coordinator) RemoteConfigured() bool { return c.remote != nil }

func (c *Coordinator) useRemote() bool { return c.remote != nil && c.online.Load() }

func (c *Coordinator) setOnline(v bool) {
	if c.online.Swap(v) != v {
		c.log.Info("online status changed", zap.Bool("online", v))
		c.state.Dispatch(state.SetOnlineStatus{Online: v})
	}
}

// degrade decides whether a remote error falls back to the local path.
// Rejections by a reachable backend are returned to the caller.
func (c *Coordinator) degrade(op string, err error) bool {
	if errors.Is(err, errs.ErrValidation) || errors.Is(err, errs.ErrConflict) {
		return false
	}
	c.log.Warn("remote failed, continuing locally", zap.String("op", op), zap.Error(err))
	if errors.Is(err, errs.ErrRemoteUnavailable) {
		c.setOnline(false)
	}
	return true
}

func (c *Coordinator) id() string {
	id, err := c.newID()
	if err != nil {
		// clock or entropy failure; a v4 never needs the clock
		id = uuid.Must(uuid.NewV4())
	}
	return id.String()
}

// storageFailed logs a local persistence failure. The in-memory state still advances.
func (c *Coordinator) storageFailed(op string, err error) {
	if err != nil {
		c.log.Error("local store write failed", zap.String("op", op), zap.Error(err))
	}
}

// queue appends to the pending-change log when a remote exists to drain it.
func (c *Coordinator) queue(ctx context.Context, kind model.ChangeKind, entity model.Entity, id string, payload any) {
	if c.remote == nil {
		return
	}
	ch := model.PendingChange{Kind: kind, Entity: entity, EntityID: id, CreatedAt: c.now()}
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			c.log.Error("encode pending change", zap.String("id", id), zap.Error(err))
			return
		}
		ch.Payload = b
	}

	c.pendingMu.Lock()
	defer c.pendingMu.Unlock()
	seq, err := c.store.AppendPendingChange(ctx, ch)
	if err != nil {
		c.storageFailed("append pending change", err)
		return
	}
	c.log.Debug("queued pending change",
		zap.Int64("seq", seq), zap.String("kind", string(kind)),
		zap.String("entity", string(entity)), zap.String("id", id))
}
