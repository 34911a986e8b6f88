package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"

	"github.com/and161185/stock-keeper/internal/errs"
	"github.com/and161185/stock-keeper/internal/model"
)

var usageColNames = []string{"id", "item_id", "job_site_id", "quantity_used", "usage_date", "notes"}

func sampleUsage() model.Usage {
	return model.Usage{
		ID: "u1", ItemID: "a", JobSiteID: "s1", QuantityUsed: 3,
		UsedAt: time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC), Notes: "kitchen",
	}
}

func usageRow(rows *pgxmock.Rows, u model.Usage) *pgxmock.Rows {
	return rows.AddRow(u.ID, u.ItemID, u.JobSiteID, u.QuantityUsed, u.UsedAt, u.Notes)
}

func TestUsageRepo_Record_New(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewUsageRepo(db)
	u := sampleUsage()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .* FROM job_site_usage WHERE id=\$1`).WithArgs(u.ID).WillReturnError(pgx.ErrNoRows)
	mock.ExpectQuery(`SELECT quantity FROM inventory_items WHERE id=\$1 FOR UPDATE`).WithArgs(u.ItemID).
		WillReturnRows(pgxmock.NewRows([]string{"quantity"}).AddRow(10))
	mock.ExpectExec(`UPDATE inventory_items SET quantity=\$2`).WithArgs(u.ItemID, 7).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectQuery(`INSERT INTO job_site_usage`).
		WithArgs(u.ID, u.ItemID, u.JobSiteID, u.QuantityUsed, u.UsedAt, u.Notes).
		WillReturnRows(usageRow(pgxmock.NewRows(usageColNames), u))
	mock.ExpectCommit()

	rec, created, err := r.Record(context.Background(), u)
	require.NoError(t, err)
	require.True(t, created)
	require.Equal(t, u, rec)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUsageRepo_Record_ExistingIDLeavesStock(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewUsageRepo(db)
	u := sampleUsage()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .* FROM job_site_usage WHERE id=\$1`).WithArgs(u.ID).
		WillReturnRows(usageRow(pgxmock.NewRows(usageColNames), u))
	mock.ExpectCommit()

	rec, created, err := r.Record(context.Background(), u)
	require.NoError(t, err)
	require.False(t, created)
	require.Equal(t, u.ID, rec.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUsageRepo_Record_OverUse(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewUsageRepo(db)
	u := sampleUsage()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .* FROM job_site_usage WHERE id=\$1`).WithArgs(u.ID).WillReturnError(pgx.ErrNoRows)
	mock.ExpectQuery(`SELECT quantity FROM inventory_items`).WithArgs(u.ItemID).
		WillReturnRows(pgxmock.NewRows([]string{"quantity"}).AddRow(1))
	mock.ExpectRollback()

	_, _, err := r.Record(context.Background(), u)
	require.ErrorIs(t, err, errs.ErrConflict)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUsageRepo_List(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewUsageRepo(db)

	mock.ExpectQuery(`SELECT .* FROM job_site_usage ORDER BY usage_date, id`).
		WillReturnRows(usageRow(pgxmock.NewRows(usageColNames), sampleUsage()))

	got, err := r.List(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, 3, got[0].QuantityUsed)
}

func TestJobSiteRepo_UpsertAndList(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewJobSiteRepo(db)
	ctx := context.Background()

	js := model.JobSite{ID: "s1", Name: "Elm St", Address: "12 Elm St", Active: true,
		CreatedAt: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)}
	cols := []string{"id", "name", "address", "description", "is_active", "created_at"}

	mock.ExpectQuery(`INSERT INTO job_sites`).
		WithArgs(js.ID, js.Name, js.Address, js.Description, js.Active, js.CreatedAt).
		WillReturnRows(pgxmock.NewRows(cols).AddRow(js.ID, js.Name, js.Address, js.Description, js.Active, js.CreatedAt))
	got, err := r.Upsert(ctx, js)
	require.NoError(t, err)
	require.Equal(t, js, got)

	mock.ExpectQuery(`SELECT .* FROM job_sites ORDER BY created_at, id`).
		WillReturnRows(pgxmock.NewRows(cols).AddRow(js.ID, js.Name, js.Address, js.Description, js.Active, js.CreatedAt))
	list, err := r.List(ctx)
	require.NoError(t, err)
	require.Equal(t, []model.JobSite{js}, list)
	require.NoError(t, mock.ExpectationsWereMet())
}
