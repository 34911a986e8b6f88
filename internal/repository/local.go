package repository

import (
	"context"

	"github.com/and161185/stock-keeper/internal/model"
)

// LocalStore is the durable on-device copy of the inventory plus the pending-change log.
// Every method may fail with an error matching errs.ErrStorage.
type LocalStore interface {
	// Items returns all items in storage order; empty when none.
	Items(ctx context.Context) ([]model.Item, error)
	// PutItem upserts by id.
	PutItem(ctx context.Context, it model.Item) error
	// PutItems upserts a batch in one transaction.
	PutItems(ctx context.Context, items []model.Item) error
	// DeleteItem removes by id; absent ids are not an error.
	DeleteItem(ctx context.Context, id string) error

	JobSites(ctx context.Context) ([]model.JobSite, error)
	PutJobSite(ctx context.Context, js model.JobSite) error

	Usage(ctx context.Context) ([]model.Usage, error)
	PutUsage(ctx context.Context, u model.Usage) error

	// ReplaceAll swaps all three partitions for a snapshot of the remote. Records
	// with unsynced pending changes are left as they are.
	ReplaceAll(ctx context.Context, items []model.Item, sites []model.JobSite, usage []model.Usage) error

	// AppendPendingChange queues a mutation and returns its sequence number.
	AppendPendingChange(ctx context.Context, ch model.PendingChange) (int64, error)
	// UnsyncedPendingChanges returns queued mutations in sequence order.
	UnsyncedPendingChanges(ctx context.Context) ([]model.PendingChange, error)
	// MarkPendingSynced flags one entry as replayed.
	MarkPendingSynced(ctx context.Context, seq int64) error
	// ClearPendingChanges empties the log.
	ClearPendingChanges(ctx context.Context) error
}
