// Package convert maps domain entities to and from the remote wire format (snake_case JSON).
package convert

import (
	"time"

	"github.com/and161185/stock-keeper/internal/model"
)

// --- inventory_items ---

// ItemDTO is an inventory_items row on the wire.
type ItemDTO struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Quantity    int       `json:"quantity"`
	MinQuantity int       `json:"min_quantity"`
	Category    string    `json:"category"`
	Location    string    `json:"location"`
	UnitPrice   *float64  `json:"unit_price"`
	Supplier    string    `json:"supplier"`
	Barcode     string    `json:"barcode"`
	Notes       string    `json:"notes"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ToItemDTO converts a domain item for transfer.
func ToItemDTO(it model.Item) ItemDTO {
	return ItemDTO{
		ID:          it.ID,
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
		CreatedAt:   it.CreatedAt,
		UpdatedAt:   it.UpdatedAt,
	}
}

// FromItemDTO converts a wire row to a domain item.
func FromItemDTO(d ItemDTO) model.Item {
	return model.Item{
		ID:          d.ID,
		Name:        d.Name,
		Description: d.Description,
		Quantity:    d.Quantity,
		MinQuantity: d.MinQuantity,
		Category:    d.Category,
		Location:    d.Location,
		UnitPrice:   d.UnitPrice,
		Supplier:    d.Supplier,
		Barcode:     d.Barcode,
		Notes:       d.Notes,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

// ToItemDTOs converts a slice of items; nil becomes an empty slice.
func ToItemDTOs(items []model.Item) []ItemDTO {
	out := make([]ItemDTO, 0, len(items))
	for _, it := range items {
		out = append(out, ToItemDTO(it))
	}
	return out
}

// FromItemDTOs converts a slice of wire rows.
func FromItemDTOs(in []ItemDTO) []model.Item {
	out := make([]model.Item, 0, len(in))
	for _, d := range in {
		out = append(out, FromItemDTO(d))
	}
	return out
}

// --- job_sites ---

// JobSiteDTO is a job_sites row on the wire.
type JobSiteDTO struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Address     string    `json:"address"`
	Description string    `json:"description"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

func ToJobSiteDTO(js model.JobSite) JobSiteDTO {
	return JobSiteDTO{
		ID:          js.ID,
		Name:        js.Name,
		Address:     js.Address,
		Description: js.Description,
		IsActive:    js.Active,
		CreatedAt:   js.CreatedAt,
	}
}

func FromJobSiteDTO(d JobSiteDTO) model.JobSite {
	return model.JobSite{
		ID:          d.ID,
		Name:        d.Name,
		Address:     d.Address,
		Description: d.Description,
		Active:      d.IsActive,
		CreatedAt:   d.CreatedAt,
	}
}

func ToJobSiteDTOs(in []model.JobSite) []JobSiteDTO {
	out := make([]JobSiteDTO, 0, len(in))
	for _, js := range in {
		out = append(out, ToJobSiteDTO(js))
	}
	return out
}

func FromJobSiteDTOs(in []JobSiteDTO) []model.JobSite {
	out := make([]model.JobSite, 0, len(in))
	for _, d := range in {
		out = append(out, FromJobSiteDTO(d))
	}
	return out
}

// --- job_site_usage ---

// UsageDTO is a job_site_usage row on the wire.
type UsageDTO struct {
	ID           string    `json:"id"`
	ItemID       string    `json:"item_id"`
	JobSiteID    string    `json:"job_site_id"`
	QuantityUsed int       `json:"quantity_used"`
	UsageDate    time.Time `json:"usage_date"`
	Notes        string    `json:"notes"`
}

func ToUsageDTO(u model.Usage) UsageDTO {
	return UsageDTO{
		ID:           u.ID,
		ItemID:       u.ItemID,
		JobSiteID:    u.JobSiteID,
		QuantityUsed: u.QuantityUsed,
		UsageDate:    u.UsedAt,
		Notes:        u.Notes,
	}
}

func FromUsageDTO(d UsageDTO) model.Usage {
	return model.Usage{
		ID:           d.ID,
		ItemID:       d.ItemID,
		JobSiteID:    d.JobSiteID,
		QuantityUsed: d.QuantityUsed,
		UsedAt:       d.UsageDate,
		Notes:        d.Notes,
	}
}

func ToUsageDTOs(in []model.Usage) []UsageDTO {
	out := make([]UsageDTO, 0, len(in))
	for _, u := range in {
		out = append(out, ToUsageDTO(u))
	}
	return out
}

func FromUsageDTOs(in []UsageDTO) []model.Usage {
	out := make([]model.Usage, 0, len(in))
	for _, d := range in {
		out = append(out, FromUsageDTO(d))
	}
	return out
}

// --- rpc / auth ---

// ReduceRequest is the body of rpc/reduce_inventory_quantity.
type ReduceRequest struct {
	ItemID           string `json:"item_id"`
	QuantityToReduce int    `json:"quantity_to_reduce"`
}

// ReduceResponse carries the quantity left after a reduction.
type ReduceResponse struct {
	Quantity int `json:"quantity"`
}

// TokenRequest exchanges a shared secret for an access key.
type TokenRequest struct {
	Secret string `json:"secret"`
}

// TokenResponse is an issued access key.
type TokenResponse struct {
	Token     string    `json:"access_token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}
