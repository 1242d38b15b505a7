// Package store handles SQLite persistence.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/verte-zerg/tuistat/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// Store wraps SQLite access for the persisted history.
type Store struct {
	db *sqlx.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	// modernc sqlite serialises writers; one connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS history (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			entry_id TEXT NOT NULL,
			input TEXT NOT NULL,
			record_json TEXT NOT NULL,
			created_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_history_created_at ON history(created_at);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to migrate store: %w", err)
		}
	}
	return nil
}

type historyRow struct {
	ID         int64  `db:"id"`
	EntryID    string `db:"entry_id"`
	Input      string `db:"input"`
	RecordJSON string `db:"record_json"`
	CreatedAt  string `db:"created_at"`
}

// InsertEntry stores one history entry and returns its row id.
func (s *Store) InsertEntry(ctx context.Context, entry model.HistoryEntry) (int64, error) {
	record, err := json.Marshal(entry.Record)
	if err != nil {
		return 0, fmt.Errorf("failed to encode record: %w", err)
	}
	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO history (entry_id, input, record_json, created_at) VALUES (?, ?, ?, ?)`,
		entry.ID,
		entry.Input,
		string(record),
		createdAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	if err = tx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}

// ListEntries returns up to limit entries, newest first. limit <= 0 means all.
func (s *Store) ListEntries(ctx context.Context, limit int) ([]model.HistoryEntry, error) {
	query := `SELECT id, entry_id, input, record_json, created_at FROM history ORDER BY id DESC`
	args := []interface{}{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	var rows []historyRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	entries := make([]model.HistoryEntry, 0, len(rows))
	for _, row := range rows {
		var rec model.StatisticsRecord
		if err := json.Unmarshal([]byte(row.RecordJSON), &rec); err != nil {
			return nil, fmt.Errorf("failed to decode history row %d: %w", row.ID, err)
		}
		createdAt, err := time.Parse(time.RFC3339Nano, row.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse history time %d: %w", row.ID, err)
		}
		entries = append(entries, model.HistoryEntry{
			ID:        row.EntryID,
			Input:     row.Input,
			Record:    rec,
			CreatedAt: createdAt,
		})
	}
	return entries, nil
}

// CountEntries returns the number of stored entries.
func (s *Store) CountEntries(ctx context.Context) (int, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM history`); err != nil {
		return 0, fmt.Errorf("failed to count history: %w", err)
	}
	return n, nil
}

// DeleteEntries removes every stored entry.
func (s *Store) DeleteEntries(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM history`); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	return nil
}

// History adapts the store to the history log interface.
func (s *Store) History() *History {
	return &History{store: s}
}

// History is a persisted, newest-first history log.
type History struct {
	store *Store
}

// Prepend stores entry as the newest one.
func (h *History) Prepend(ctx context.Context, entry model.HistoryEntry) error {
	_, err := h.store.InsertEntry(ctx, entry)
	return err
}

// Clear removes every entry.
func (h *History) Clear(ctx context.Context) error {
	return h.store.DeleteEntries(ctx)
}

// Entries returns every entry, newest first.
func (h *History) Entries(ctx context.Context) ([]model.HistoryEntry, error) {
	return h.store.ListEntries(ctx, 0)
}
