// Package model defines domain entities used by the store, the reducer and the remote backend.
package model

import (
	"encoding/json"
	"time"
)

// Item is a stocked unit of inventory with a quantity on hand.
type Item struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Quantity    int       `json:"quantity"`              // never negative
	MinQuantity int       `json:"minQuantity,omitempty"` // low-stock threshold
	Category    string    `json:"category,omitempty"`
	Location    string    `json:"location,omitempty"`
	UnitPrice   *float64  `json:"unitPrice,omitempty"`
	Supplier    string    `json:"supplier,omitempty"`
	Barcode     string    `json:"barcode,omitempty"`
	Notes       string    `json:"notes,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// NewItem is the user-collected payload for a new item (no identity, no timestamps).
type NewItem struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Quantity    int      `json:"quantity"`
	MinQuantity int      `json:"minQuantity,omitempty"`
	Category    string   `json:"category,omitempty"`
	Location    string   `json:"location,omitempty"`
	UnitPrice   *float64 `json:"unitPrice,omitempty"`
	Supplier    string   `json:"supplier,omitempty"`
	Barcode     string   `json:"barcode,omitempty"`
	Notes       string   `json:"notes,omitempty"`
}

// Materialize turns the payload into an Item with the given identity and timestamps.
func (n NewItem) Materialize(id string, now time.Time) Item {
	return Item{
		ID:          id,
		Name:        n.Name,
		Description: n.Description,
		Quantity:    n.Quantity,
		MinQuantity: n.MinQuantity,
		Category:    n.Category,
		Location:    n.Location,
		UnitPrice:   n.UnitPrice,
		Supplier:    n.Supplier,
		Barcode:     n.Barcode,
		Notes:       n.Notes,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Draft strips identity and timestamps from an item.
func (it Item) Draft() NewItem {
	return NewItem{
		Name:        it.Name,
		Description: it.Description,
		Quantity:    it.Quantity,
		MinQuantity: it.MinQuantity,
		Category:    it.Category,
		Location:    it.Location,
		UnitPrice:   it.UnitPrice,
		Supplier:    it.Supplier,
		Barcode:     it.Barcode,
		Notes:       it.Notes,
	}
}

// LowStock reports whether the quantity is at or below the threshold.
// Items without a threshold are low only when empty.
func (it Item) LowStock() bool {
	return it.Quantity <= it.MinQuantity
}

// JobSite is a location where inventory items are consumed.
type JobSite struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Address     string    `json:"address"`
	Description string    `json:"description,omitempty"`
	Active      bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
}

// NewJobSite is the user-collected payload for a new job site.
type NewJobSite struct {
	Name        string `json:"name"`
	Address     string `json:"address"`
	Description string `json:"description,omitempty"`
	Active      bool   `json:"isActive"`
}

// Materialize turns the payload into a JobSite.
func (n NewJobSite) Materialize(id string, now time.Time) JobSite {
	return JobSite{
		ID:          id,
		Name:        n.Name,
		Address:     n.Address,
		Description: n.Description,
		Active:      n.Active,
		CreatedAt:   now,
	}
}

// Usage is an append-only ledger entry capturing consumption of an item at a job site.
type Usage struct {
	ID           string    `json:"id"`
	ItemID       string    `json:"itemId"`    // -> Item.ID
	JobSiteID    string    `json:"jobSiteId"` // -> JobSite.ID
	QuantityUsed int       `json:"quantityUsed"`
	UsedAt       time.Time `json:"usageDate"`
	Notes        string    `json:"notes,omitempty"`
}

// ChangeKind is the mutation recorded in the pending-change log.
type ChangeKind string

const (
	ChangeAdd    ChangeKind = "add"
	ChangeUpdate ChangeKind = "update"
	ChangeDelete ChangeKind = "delete"
)

// Entity names a partition of the local store.
type Entity string

const (
	EntityItems    Entity = "items"
	EntityJobSites Entity = "job_sites"
	EntityUsage    Entity = "usage"
)

// PendingChange is a locally-queued mutation awaiting remote reconciliation.
type PendingChange struct {
	Seq       int64           // assigned by the store, replay order
	Kind      ChangeKind      // add/update/delete
	Entity    Entity          // affected partition
	EntityID  string          // affected record id
	Payload   json.RawMessage // record snapshot; empty for deletes
	CreatedAt time.Time
	Synced    bool
}

// Decrement subtracts used from q, clamped at zero.
func Decrement(q, used int) int {
	if used >= q {
		return 0
	}
	return q - used
}
