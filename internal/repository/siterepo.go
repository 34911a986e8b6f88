// Package repository defines storage interfaces implemented by concrete backends.
package repository

import (
	"context"

	"github.com/and161185/stock-keeper/internal/model"
)

// JobSiteRepository provides access to job sites on the remote backend.
type JobSiteRepository interface {
	// List returns all job sites, oldest first.
	List(ctx context.Context) ([]model.JobSite, error)
	// Upsert inserts or replaces a job site by id.
	Upsert(ctx context.Context, js model.JobSite) (model.JobSite, error)
}

// UsageRepository provides the append-only usage ledger on the remote backend.
type UsageRepository interface {
	// List returns the ledger, oldest first.
	List(ctx context.Context) ([]model.Usage, error)
	// Record inserts the usage and decrements the item in one transaction.
	// Re-recording an existing id returns the stored record and created=false without touching stock.
	Record(ctx context.Context, u model.Usage) (rec model.Usage, created bool, err error)
}
