package sqlite

import (
	"context"
	"database/sql"

	"github.com/and161185/stock-keeper/internal/errs"
	"github.com/and161185/stock-keeper/internal/model"
)

// AppendPendingChange queues a mutation; Seq and Synced of ch are ignored.
func (s *Store) AppendPendingChange(ctx context.Context, ch model.PendingChange) (int64, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return 0, err
	}
	var payload sql.NullString
	if len(ch.Payload) > 0 {
		payload = sql.NullString{String: string(ch.Payload), Valid: true}
	}
	res, err := db.ExecContext(ctx,
		`INSERT INTO pending_changes (kind, entity, entity_id, payload, created_at, synced) VALUES (?, ?, ?, ?, ?, 0)`,
		string(ch.Kind), string(ch.Entity), ch.EntityID, payload, formatTime(ch.CreatedAt))
	if err != nil {
		return 0, errs.Storage("append pending change", err)
	}
	seq, err := res.LastInsertId()
	return seq, errs.Storage("append pending change", err)
}

// UnsyncedPendingChanges returns entries not yet replayed, oldest first.
func (s *Store) UnsyncedPendingChanges(ctx context.Context) ([]model.PendingChange, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, `
SELECT seq, kind, entity, entity_id, payload, created_at
FROM pending_changes WHERE synced = 0 ORDER BY seq`)
	if err != nil {
		return nil, errs.Storage("list pending changes", err)
	}
	defer rows.Close()

	out := []model.PendingChange{}
	for rows.Next() {
		var (
			ch           model.PendingChange
			kind, entity string
			payload      sql.NullString
			created      string
		)
		if err := rows.Scan(&ch.Seq, &kind, &entity, &ch.EntityID, &payload, &created); err != nil {
			return nil, errs.Storage("scan pending change", err)
		}
		ch.Kind = model.ChangeKind(kind)
		ch.Entity = model.Entity(entity)
		if payload.Valid {
			ch.Payload = []byte(payload.String)
		}
		if ch.CreatedAt, err = parseTime(created); err != nil {
			return nil, errs.Storage("scan pending change", err)
		}
		out = append(out, ch)
	}
	return out, errs.Storage("list pending changes", rows.Err())
}

// MarkPendingSynced flags one entry as replayed.
func (s *Store) MarkPendingSynced(ctx context.Context, seq int64) error {
	db, err := s.conn(ctx)
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `UPDATE pending_changes SET synced = 1 WHERE seq = ?`, seq)
	return errs.Storage("mark pending synced", err)
}

// ClearPendingChanges empties the log.
func (s *Store) ClearPendingChanges(ctx context.Context) error {
	db, err := s.conn(ctx)
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `DELETE FROM pending_changes`)
	return errs.Storage("clear pending changes", err)
}
