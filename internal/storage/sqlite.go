package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver registration.

	"seat_tracker/migrations"
)

const timeLayout = "2006-01-02T15:04:05Z"

// SQLite implements SeenStore backed by a SQLite database.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at dsn and runs pending migrations.
// With dsn ":memory:" the store lives only as long as the process.
func NewSQLite(dsn string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// Every connection to ":memory:" is a separate database.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	if err := migrations.Run(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLite{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// MarkSeen inserts key unless present and reports whether it was new.
func (s *SQLite) MarkSeen(ctx context.Context, key string) (bool, error) {
	now := time.Now().UTC().Format(timeLayout)
	res, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO seen_slots (key, seen_at) VALUES (?, ?)`, key, now,
	)
	if err != nil {
		return false, fmt.Errorf("insert seen slot: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n == 1, nil
}

// CountSeen returns the number of recorded keys.
func (s *SQLite) CountSeen(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM seen_slots`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count seen slots: %w", err)
	}
	return n, nil
}

var _ SeenStore = (*SQLite)(nil)
