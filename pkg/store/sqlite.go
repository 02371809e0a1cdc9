// Package store provides persistence for dispatch history and app state.
package store

import (
	"context"
	"database/sql"
	"errors"

	"beyondwords/pkg/db"
)

// SQLiteStore implements Store.
type SQLiteStore struct {
	db *db.DB
}

// NewSQLiteStore creates a new store.
func NewSQLiteStore(d *db.DB) *SQLiteStore {
	return &SQLiteStore{db: d}
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// --- History ---

func (s *SQLiteStore) AppendHistory(ctx context.Context, rec *HistoryRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO dispatch_history
		 (request_id, fingerprint, text_length, language, destination, tier, fallback_reason, output_path, container, cost)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.RequestID, rec.Fingerprint, rec.TextLength, rec.Language, rec.Destination,
		rec.Tier, rec.FallbackReason, rec.OutputPath, rec.Container, rec.Cost)
	return err
}

func (s *SQLiteStore) RecentHistory(ctx context.Context, limit int) ([]*HistoryRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT request_id, fingerprint, text_length, language, destination, tier, fallback_reason, output_path, container, cost, created_at
		 FROM dispatch_history ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*HistoryRecord
	for rows.Next() {
		var r HistoryRecord
		if err := rows.Scan(
			&r.RequestID, &r.Fingerprint, &r.TextLength, &r.Language, &r.Destination,
			&r.Tier, &r.FallbackReason, &r.OutputPath, &r.Container, &r.Cost, &r.CreatedAt,
		); err != nil {
			return nil, err
		}
		records = append(records, &r)
	}
	return records, rows.Err()
}

// --- State ---

func (s *SQLiteStore) GetState(ctx context.Context, key string) (string, bool) {
	row := s.db.QueryRowContext(ctx, "SELECT value FROM app_state WHERE key = ?", key)

	var val string
	if err := row.Scan(&val); err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return "", false
		}
		return "", false
	}
	return val, true
}

func (s *SQLiteStore) SetState(ctx context.Context, key, val string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO app_state (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, val)
	return err
}

func (s *SQLiteStore) DeleteState(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM app_state WHERE key = ?", key)
	return err
}
