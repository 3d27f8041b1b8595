// Package overridelog persists override records in a local SQLite file.
// Only the time, page URL and the user's note are stored.
package overridelog

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/mj1618/shopshield/internal/model"
	_ "modernc.org/sqlite" // CGO-free SQLite
)

// DefaultLimit is the number of entries List returns when no limit is given.
const DefaultLimit = 50

// Store is a SQLite-backed override log.
type Store struct {
	db *sql.DB
}

// Open opens or creates the log at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
	}

	// WAL + busy timeout to avoid "database is locked"
	db, err := sql.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := createTables(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func createTables(db *sql.DB) error {
	_, err := db.Exec(`
	CREATE TABLE IF NOT EXISTS overrides(
	  seq     INTEGER PRIMARY KEY,
	  id      TEXT    NOT NULL UNIQUE,
	  ts_utc  INTEGER NOT NULL,
	  ts_iso  TEXT    NOT NULL,
	  url     TEXT    NOT NULL,
	  note    TEXT    NOT NULL DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS idx_overrides_ts ON overrides(ts_utc);
	`)
	if err != nil {
		return fmt.Errorf("failed to create database tables: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Validate checks an entry before it is written.
func (s *Store) Validate(e model.OverrideLogEntry) error {
	if e.PageURL == "" {
		return fmt.Errorf("page URL cannot be empty")
	}
	if e.Timestamp.IsZero() {
		return fmt.Errorf("timestamp cannot be zero")
	}
	return nil
}

// Record appends e. A missing ID is generated and the note is truncated.
func (s *Store) Record(ctx context.Context, e model.OverrideLogEntry) error {
	if err := s.Validate(e); err != nil {
		return fmt.Errorf("invalid entry: %w", err)
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	e.Note = model.TruncateNote(e.Note)
	ts := e.Timestamp.UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO overrides(id, ts_utc, ts_iso, url, note) VALUES(?,?,?,?,?)`,
		e.ID, ts.UnixMilli(), ts.Format(time.RFC3339Nano), e.PageURL, e.Note)
	if err != nil {
		return fmt.Errorf("failed to insert entry: %w", err)
	}
	return nil
}

// List returns up to limit entries, newest first. A limit of zero or less
// means DefaultLimit.
func (s *Store) List(ctx context.Context, limit int) ([]model.OverrideLogEntry, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, ts_utc, url, note FROM overrides ORDER BY ts_utc DESC, seq DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	defer rows.Close()

	entries := []model.OverrideLogEntry{}
	for rows.Next() {
		var (
			e  model.OverrideLogEntry
			ms int64
		)
		if err := rows.Scan(&e.ID, &ms, &e.PageURL, &e.Note); err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		e.Timestamp = time.UnixMilli(ms).UTC()
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read entries: %w", err)
	}
	return entries, nil
}

// Count returns the number of stored entries.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM overrides`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count entries: %w", err)
	}
	return n, nil
}

// Clear deletes every entry and returns how many were removed.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM overrides`)
	if err != nil {
		return 0, fmt.Errorf("failed to clear entries: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count cleared entries: %w", err)
	}
	return n, nil
}
