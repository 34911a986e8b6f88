package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/and161185/stock-keeper/internal/errs"
)

func price(v float64) *float64 { return &v }

func TestNewItem_Validate(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		in    NewItem
		field string
	}{
		{"ok", NewItem{Name: "Lock A", Quantity: 10, UnitPrice: price(1.5)}, ""},
		{"zero quantity ok", NewItem{Name: "Lock A"}, ""},
		{"blank name", NewItem{Name: "   ", Quantity: 1}, "name"},
		{"negative quantity", NewItem{Name: "x", Quantity: -1}, "quantity"},
		{"negative min", NewItem{Name: "x", MinQuantity: -2}, "minQuantity"},
		{"negative price", NewItem{Name: "x", UnitPrice: price(-0.01)}, "unitPrice"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.in.Validate()
			if tc.field == "" {
				require.NoError(t, err)
				return
			}
			var ve *errs.ValidationError
			require.ErrorAs(t, err, &ve)
			require.Equal(t, tc.field, ve.Field)
		})
	}
}

func TestItem_ValidateRequiresID(t *testing.T) {
	t.Parallel()

	require.ErrorIs(t, Item{Name: "x"}.Validate(), errs.ErrValidation)
	require.NoError(t, Item{ID: "1", Name: "x"}.Validate())
}

func TestNewJobSite_Validate(t *testing.T) {
	t.Parallel()

	require.NoError(t, NewJobSite{Name: "Site X", Address: "1 Main St"}.Validate())
	require.ErrorIs(t, NewJobSite{Address: "1 Main St"}.Validate(), errs.ErrValidation)
	require.ErrorIs(t, NewJobSite{Name: "Site X"}.Validate(), errs.ErrValidation)
}

func TestValidateBatch_ReportsIndex(t *testing.T) {
	t.Parallel()

	require.ErrorIs(t, ValidateBatch(nil), errs.ErrValidation)

	err := ValidateBatch([]NewItem{{Name: "a"}, {Name: "b", Quantity: -3}})
	var ve *errs.ValidationError
	require.ErrorAs(t, err, &ve)
	require.Equal(t, "items[1].quantity", ve.Field)

	require.NoError(t, ValidateBatch([]NewItem{{Name: "a"}, {Name: "b"}}))
}

func TestValidateUse(t *testing.T) {
	t.Parallel()

	it := Item{ID: "1", Name: "x", Quantity: 2}
	require.NoError(t, ValidateUse(it, 2))
	require.ErrorIs(t, ValidateUse(it, 0), errs.ErrValidation)
	require.ErrorIs(t, ValidateUse(it, 5), errs.ErrValidation)
}

func TestDecrement_NeverNegative(t *testing.T) {
	t.Parallel()

	for q := 0; q < 6; q++ {
		for used := 0; used < 9; used++ {
			got := Decrement(q, used)
			want := q - used
			if want < 0 {
				want = 0
			}
			require.Equal(t, want, got, "q=%d used=%d", q, used)
		}
	}
}

func TestMaterialize_And_Draft(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	n := NewItem{Name: "Deadbolt", Quantity: 4, Barcode: "123", UnitPrice: price(9.99)}
	it := n.Materialize("id-1", now)
	require.Equal(t, "id-1", it.ID)
	require.Equal(t, now, it.CreatedAt)
	require.Equal(t, now, it.UpdatedAt)
	require.Equal(t, n, it.Draft())

	site := NewJobSite{Name: "X", Address: "Y", Active: true}.Materialize("s-1", now)
	require.True(t, site.Active)
	require.Equal(t, now, site.CreatedAt)
}

func TestItem_LowStock(t *testing.T) {
	t.Parallel()

	require.True(t, Item{Quantity: 0}.LowStock())
	require.False(t, Item{Quantity: 1}.LowStock())
	require.True(t, Item{Quantity: 3, MinQuantity: 3}.LowStock())
}
