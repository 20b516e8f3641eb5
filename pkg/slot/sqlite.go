package slot

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

const createSlotsTable = `
CREATE TABLE IF NOT EXISTS slots (
	key        TEXT PRIMARY KEY,
	value      BLOB NOT NULL,
	updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
)`

// SQLite keeps slots in a single key/value table.
type SQLite struct {
	db *sql.DB
}

// NewSQLite creates the slots table if needed. The caller owns db.
func NewSQLite(ctx context.Context, db *sql.DB) (*SQLite, error) {
	if _, err := db.ExecContext(ctx, createSlotsTable); err != nil {
		return nil, fmt.Errorf("slot: failed to create table: %w", err)
	}

	return &SQLite{db: db}, nil
}

func (s *SQLite) Slot(key string) *SQLiteSlot {
	return &SQLiteSlot{db: s.db, key: key}
}

type SQLiteSlot struct {
	db  *sql.DB
	key string
}

func (s *SQLiteSlot) Key() string {
	return s.key
}

func (s *SQLiteSlot) Read(ctx context.Context) ([]byte, bool, error) {
	var b []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM slots WHERE key = ?`, s.key).Scan(&b)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("slot: failed to select %q: %w", s.key, err)
	}

	return b, true, nil
}

func (s *SQLiteSlot) Write(ctx context.Context, b []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO slots (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		s.key, b)
	if err != nil {
		return fmt.Errorf("slot: failed to upsert %q: %w", s.key, err)
	}

	return nil
}
