package store

import (
	"database/sql"
	"fmt"
	"time"
)

// BuildStatus is the lifecycle state of a build row.
type BuildStatus string

const (
	BuildPending   BuildStatus = "pending"
	BuildRunning   BuildStatus = "running"
	BuildSucceeded BuildStatus = "succeeded"
	BuildFailed    BuildStatus = "failed"
)

// Build is one image build attempt.
type Build struct {
	ID          string
	Benchmark   string
	Fingerprint string
	Image       string
	Runtime     string
	Status      BuildStatus
	StartedAt   *time.Time
	FinishedAt  *time.Time
	Error       string
}

// CreateBuild inserts a new build row.
func (s *Store) CreateBuild(b *Build) error {
	if b.Status == BuildRunning && b.StartedAt == nil {
		now := time.Now()
		b.StartedAt = &now
	}

	query := `
		INSERT INTO builds (id, benchmark, fingerprint, image, runtime, status, started_at, finished_at, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.conn.Exec(query,
		b.ID, b.Benchmark, b.Fingerprint, b.Image, b.Runtime,
		b.Status, b.StartedAt, b.FinishedAt, b.Error)
	if err != nil {
		return fmt.Errorf("failed to create build: %w", err)
	}
	return nil
}

// MarkBuildRunning transitions a pending build to running and stamps
// its start time.
func (s *Store) MarkBuildRunning(id string) error {
	now := time.Now()
	result, err := s.conn.Exec(
		`UPDATE builds SET status = ?, started_at = ? WHERE id = ?`,
		BuildRunning, now, id)
	if err != nil {
		return fmt.Errorf("failed to mark build running: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("build %s not found", id)
	}
	return nil
}

// FinishBuild transitions a build to a terminal status.
func (s *Store) FinishBuild(id string, status BuildStatus, buildErr string) error {
	now := time.Now()
	result, err := s.conn.Exec(
		`UPDATE builds SET status = ?, finished_at = ?, error = ? WHERE id = ?`,
		status, now, buildErr, id)
	if err != nil {
		return fmt.Errorf("failed to finish build: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("build %s not found", id)
	}
	return nil
}

// GetBuild retrieves a build by ID. Returns nil, nil if not found.
func (s *Store) GetBuild(id string) (*Build, error) {
	row := s.conn.QueryRow(
		`SELECT id, benchmark, fingerprint, image, runtime, status, started_at, finished_at, error
		 FROM builds WHERE id = ?`, id)
	return scanBuild(row)
}

// LatestSucceededBuild returns the most recent succeeded build for the
// benchmark and fingerprint, or nil, nil if none exists. Used to skip
// rebuilds of unchanged recipes.
func (s *Store) LatestSucceededBuild(benchmark, fingerprint string) (*Build, error) {
	row := s.conn.QueryRow(
		`SELECT id, benchmark, fingerprint, image, runtime, status, started_at, finished_at, error
		 FROM builds
		 WHERE benchmark = ? AND fingerprint = ? AND status = ?
		 ORDER BY id DESC LIMIT 1`,
		benchmark, fingerprint, BuildSucceeded)
	return scanBuild(row)
}

// ListBuilds returns all builds, most recent first.
func (s *Store) ListBuilds() ([]*Build, error) {
	rows, err := s.conn.Query(
		`SELECT id, benchmark, fingerprint, image, runtime, status, started_at, finished_at, error
		 FROM builds ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list builds: %w", err)
	}
	defer rows.Close()

	var builds []*Build
	for rows.Next() {
		b := &Build{}
		if err := rows.Scan(&b.ID, &b.Benchmark, &b.Fingerprint, &b.Image, &b.Runtime,
			&b.Status, &b.StartedAt, &b.FinishedAt, &b.Error); err != nil {
			return nil, fmt.Errorf("failed to scan build: %w", err)
		}
		builds = append(builds, b)
	}
	return builds, rows.Err()
}

// PruneBuilds deletes terminal builds older than the cutoff.
// Returns the number of rows deleted.
func (s *Store) PruneBuilds(cutoff time.Time) (int64, error) {
	result, err := s.conn.Exec(
		`DELETE FROM builds WHERE status IN (?, ?) AND finished_at < ?`,
		BuildSucceeded, BuildFailed, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune builds: %w", err)
	}
	return result.RowsAffected()
}

func scanBuild(row *sql.Row) (*Build, error) {
	b := &Build{}
	err := row.Scan(&b.ID, &b.Benchmark, &b.Fingerprint, &b.Image, &b.Runtime,
		&b.Status, &b.StartedAt, &b.FinishedAt, &b.Error)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get build: %w", err)
	}
	return b, nil
}
