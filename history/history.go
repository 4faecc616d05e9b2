// ABOUTME: SQLite-backed log of confirmed track changes
// ABOUTME: Opens and migrates the database and stores/reads history entries

// Package history keeps a local record of every title the debouncer confirmed.
package history

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3" // Import the driver anonymously
)

// DefaultFileName is the history database name inside the config directory
const DefaultFileName = "history.db"

// ErrClosed is returned when recording after the store was closed
var ErrClosed = errors.New("history closed")

// Entry is one confirmed title
type Entry struct {
	ID             int64     `db:"id"`
	Session        string    `db:"session"`
	StationName    string    `db:"station_name"`
	StationAddress string    `db:"station_address"`
	Title          string    `db:"title"`
	PlayedAt       time.Time `db:"played_at"`
}

// Store wraps the history database
type Store struct {
	db *sqlx.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS plays (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	session         TEXT NOT NULL,
	station_name    TEXT NOT NULL,
	station_address TEXT NOT NULL,
	title           TEXT NOT NULL,
	played_at       TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS plays_played_at ON plays (played_at);
`

// Open connects to the database at path and runs the schema migration
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create history directory: %w", err)
		}
	}

	db, err := sqlx.Connect("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history db: %w", err)
	}

	// SQLite allows a single writer; one connection avoids "database is locked"
	db.SetMaxOpenConns(1)

	s := &Store{db: db}

	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	return s, nil
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(schema)
	return err
}

// Record stores e and returns it with its assigned ID
func (s *Store) Record(ctx context.Context, e Entry) (Entry, error) {
	e.Title = strings.TrimSpace(e.Title)
	if e.Title == "" {
		return e, errors.New("empty title")
	}

	if e.PlayedAt.IsZero() {
		e.PlayedAt = time.Now()
	}

	e.PlayedAt = e.PlayedAt.UTC()

	res, err := s.db.NamedExecContext(ctx, `
		INSERT INTO plays (session, station_name, station_address, title, played_at)
		VALUES (:session, :station_name, :station_address, :title, :played_at)`, e)
	if err != nil {
		return e, fmt.Errorf("failed to record play: %w", err)
	}

	if e.ID, err = res.LastInsertId(); err != nil {
		return e, fmt.Errorf("failed to read play id: %w", err)
	}

	return e, nil
}

// Recent returns up to limit entries, newest first
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		return nil, nil
	}

	var entries []Entry

	err := s.db.SelectContext(ctx, &entries, `
		SELECT id, session, station_name, station_address, title, played_at
		FROM plays
		ORDER BY played_at DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}

	return entries, nil
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}
