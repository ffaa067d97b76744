package history

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewSQLiteStore opens or creates the database at dbPath.
// Use ":memory:" for an ephemeral store, or a file path for persistent storage.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initialize(); err != nil {
		_ = db.Close() // Best effort cleanup on initialization error
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS builds (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		build_id TEXT NOT NULL,
		started INTEGER NOT NULL,
		finished INTEGER NOT NULL,
		outcome TEXT NOT NULL,
		documents INTEGER NOT NULL,
		pages_written INTEGER NOT NULL,
		pages_skipped INTEGER NOT NULL,
		indexes_written INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_builds_build_id ON builds(build_id);
	CREATE INDEX IF NOT EXISTS idx_builds_started ON builds(started);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Append stores one completed build.
func (s *SQLiteStore) Append(ctx context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO builds (build_id, started, finished, outcome, documents, pages_written, pages_skipped, indexes_written) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		rec.BuildID, rec.Start.Unix(), rec.End.Unix(), rec.Outcome,
		rec.Documents, rec.PagesWritten, rec.PagesSkipped, rec.IndexesWritten,
	)
	if err != nil {
		return fmt.Errorf("insert build record: %w", err)
	}

	return nil
}

// Recent returns up to limit records, newest first.
func (s *SQLiteStore) Recent(ctx context.Context, limit int) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, build_id, started, finished, outcome, documents, pages_written, pages_skipped, indexes_written FROM builds ORDER BY id DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query build records: %w", err)
	}
	defer rows.Close()

	return s.scanRecords(rows)
}

func (s *SQLiteStore) scanRecords(rows *sql.Rows) ([]Record, error) {
	var records []Record
	for rows.Next() {
		var r Record
		var started, finished int64

		err := rows.Scan(&r.ID, &r.BuildID, &started, &finished, &r.Outcome,
			&r.Documents, &r.PagesWritten, &r.PagesSkipped, &r.IndexesWritten)
		if err != nil {
			return nil, fmt.Errorf("scan build record: %w", err)
		}

		r.Start = time.Unix(started, 0)
		r.End = time.Unix(finished, 0)
		records = append(records, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	return records, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}
