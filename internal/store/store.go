// Package store persists build and run state in SQLite.
package store

import (
	"database/sql"
	"fmt"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"
)

// Store wraps the SQLite connection with benchtainer-specific operations.
type Store struct {
	conn *sql.DB
}

// Open creates or opens a SQLite database at the given path.
// It enables WAL mode, foreign keys, and runs migrations.
func Open(path string) (*Store, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s := &Store{conn: conn}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

// NewID returns a fresh ULID for build and run rows.
func NewID() string {
	return ulid.Make().String()
}

// migrate creates or updates the database schema.
func (s *Store) migrate() error {
	schema := `
-- Builds: one row per image build attempt
CREATE TABLE IF NOT EXISTS builds (
    id            TEXT PRIMARY KEY,
    benchmark     TEXT NOT NULL,
    fingerprint   TEXT NOT NULL,
    image         TEXT NOT NULL,
    runtime       TEXT NOT NULL,
    status        TEXT NOT NULL,
    started_at    TIMESTAMP,
    finished_at   TIMESTAMP,
    error         TEXT
);

CREATE INDEX IF NOT EXISTS idx_builds_benchmark ON builds(benchmark);
CREATE INDEX IF NOT EXISTS idx_builds_fingerprint ON builds(fingerprint);

-- Runs: one row per benchmark server container launch
CREATE TABLE IF NOT EXISTS runs (
    id            TEXT PRIMARY KEY,
    benchmark     TEXT NOT NULL,
    image         TEXT NOT NULL,
    container_id  TEXT,
    runtime       TEXT NOT NULL,
    status        TEXT NOT NULL,
    host_port     INTEGER,
    started_at    TIMESTAMP,
    finished_at   TIMESTAMP,
    exit_code     INTEGER,
    error         TEXT
);

CREATE INDEX IF NOT EXISTS idx_runs_benchmark ON runs(benchmark);
CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);

-- Events: append-only log per run or build
CREATE TABLE IF NOT EXISTS events (
    owner_id     TEXT NOT NULL,
    sequence     INTEGER NOT NULL,
    event_type   TEXT NOT NULL,
    payload_json TEXT,
    created_at   TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (owner_id, sequence)
);
`
	if _, err := s.conn.Exec(schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}
