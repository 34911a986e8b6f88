package model

import (
	"errors"
	"fmt"
	"strings"

	"github.com/and161185/stock-keeper/internal/errs"
)

// Validate checks the payload of a new item.
// Rules:
// - name not blank
// - quantity, min quantity >= 0
// - unit price >= 0 when present
func (n NewItem) Validate() error {
	if strings.TrimSpace(n.Name) == "" {
		return errs.Invalid("name", "required")
	}
	if n.Quantity < 0 {
		return errs.Invalid("quantity", "must not be negative")
	}
	if n.MinQuantity < 0 {
		return errs.Invalid("minQuantity", "must not be negative")
	}
	if n.UnitPrice != nil && *n.UnitPrice < 0 {
		return errs.Invalid("unitPrice", "must not be negative")
	}
	return nil
}

// Validate checks an existing item, including its identity.
func (it Item) Validate() error {
	if strings.TrimSpace(it.ID) == "" {
		return errs.Invalid("id", "required")
	}
	return it.Draft().Validate()
}

// Validate checks the payload of a new job site.
func (n NewJobSite) Validate() error {
	if strings.TrimSpace(n.Name) == "" {
		return errs.Invalid("name", "required")
	}
	if strings.TrimSpace(n.Address) == "" {
		return errs.Invalid("address", "required")
	}
	return nil
}

// ValidateBatch checks every payload of a bulk add; the index is reported on failure.
func ValidateBatch(items []NewItem) error {
	if len(items) == 0 {
		return errs.Invalid("items", "empty batch")
	}
	for i := range items {
		if err := items[i].Validate(); err != nil {
			var ve *errs.ValidationError
			if errors.As(err, &ve) {
				return errs.Invalid(fmt.Sprintf("items[%d].%s", i, ve.Field), ve.Reason)
			}
			return err
		}
	}
	return nil
}

// ValidateUse checks that qty units of it can be consumed.
func ValidateUse(it Item, qty int) error {
	if qty <= 0 {
		return errs.Invalid("quantityUsed", "must be positive")
	}
	if qty > it.Quantity {
		return errs.Invalid("quantityUsed", "exceeds available stock")
	}
	return nil
}
