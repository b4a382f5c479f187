package store

import (
	"database/sql"
	"fmt"
	"time"
)

// RunStatus is the lifecycle state of a run row.
type RunStatus string

const (
	RunCreated RunStatus = "created"
	RunRunning RunStatus = "running"
	RunExited  RunStatus = "exited"
	RunStopped RunStatus = "stopped"
	RunFailed  RunStatus = "failed"
)

// Run is one benchmark server container launch.
type Run struct {
	ID          string
	Benchmark   string
	Image       string
	ContainerID string
	Runtime     string
	Status      RunStatus
	HostPort    int
	StartedAt   *time.Time
	FinishedAt  *time.Time
	ExitCode    *int
	Error       string
}

// CreateRun inserts a new run row.
func (s *Store) CreateRun(r *Run) error {
	if r.Status == RunRunning && r.StartedAt == nil {
		now := time.Now()
		r.StartedAt = &now
	}

	query := `
		INSERT INTO runs (id, benchmark, image, container_id, runtime, status, host_port, started_at, finished_at, exit_code, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.conn.Exec(query,
		r.ID, r.Benchmark, r.Image, r.ContainerID, r.Runtime,
		r.Status, r.HostPort, r.StartedAt, r.FinishedAt, r.ExitCode, r.Error)
	if err != nil {
		return fmt.Errorf("failed to create run: %w", err)
	}
	return nil
}

// MarkRunStarted transitions a run to running and records the container ID.
func (s *Store) MarkRunStarted(id, containerID string) error {
	now := time.Now()
	result, err := s.conn.Exec(
		`UPDATE runs SET status = ?, container_id = ?, started_at = ? WHERE id = ?`,
		RunRunning, containerID, now, id)
	if err != nil {
		return fmt.Errorf("failed to mark run started: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("run %s not found", id)
	}
	return nil
}

// FinishRun transitions a run to a terminal status with an optional exit code.
func (s *Store) FinishRun(id string, status RunStatus, exitCode *int, runErr string) error {
	now := time.Now()
	result, err := s.conn.Exec(
		`UPDATE runs SET status = ?, finished_at = ?, exit_code = ?, error = ? WHERE id = ?`,
		status, now, exitCode, runErr, id)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("run %s not found", id)
	}
	return nil
}

// GetRun retrieves a run by ID. Returns nil, nil if not found.
// A unique ID prefix is accepted, so CLI users can type short IDs.
func (s *Store) GetRun(id string) (*Run, error) {
	run, err := s.getRunExact(id)
	if err != nil || run != nil {
		return run, err
	}

	rows, err := s.conn.Query(
		`SELECT id FROM runs WHERE id LIKE ? || '%'`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to match run prefix: %w", err)
	}
	defer rows.Close()

	var matches []string
	for rows.Next() {
		var full string
		if err := rows.Scan(&full); err != nil {
			return nil, fmt.Errorf("failed to scan run id: %w", err)
		}
		matches = append(matches, full)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	switch len(matches) {
	case 0:
		return nil, nil
	case 1:
		return s.getRunExact(matches[0])
	default:
		return nil, fmt.Errorf("run prefix %q is ambiguous (%d matches)", id, len(matches))
	}
}

func (s *Store) getRunExact(id string) (*Run, error) {
	row := s.conn.QueryRow(
		`SELECT id, benchmark, image, container_id, runtime, status, host_port, started_at, finished_at, exit_code, error
		 FROM runs WHERE id = ?`, id)

	r := &Run{}
	err := row.Scan(&r.ID, &r.Benchmark, &r.Image, &r.ContainerID, &r.Runtime,
		&r.Status, &r.HostPort, &r.StartedAt, &r.FinishedAt, &r.ExitCode, &r.Error)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return r, nil
}

// ListRuns returns all runs, most recent first. When activeOnly is set,
// only created and running runs are returned.
func (s *Store) ListRuns(activeOnly bool) ([]*Run, error) {
	query := `SELECT id, benchmark, image, container_id, runtime, status, host_port, started_at, finished_at, exit_code, error
	          FROM runs`
	var args []any
	if activeOnly {
		query += ` WHERE status IN (?, ?)`
		args = append(args, RunCreated, RunRunning)
	}
	query += ` ORDER BY id DESC`

	rows, err := s.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		r := &Run{}
		if err := rows.Scan(&r.ID, &r.Benchmark, &r.Image, &r.ContainerID, &r.Runtime,
			&r.Status, &r.HostPort, &r.StartedAt, &r.FinishedAt, &r.ExitCode, &r.Error); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// PruneRuns deletes terminal runs older than the cutoff.
// Returns the number of rows deleted.
func (s *Store) PruneRuns(cutoff time.Time) (int64, error) {
	result, err := s.conn.Exec(
		`DELETE FROM runs WHERE status IN (?, ?, ?) AND finished_at < ?`,
		RunExited, RunStopped, RunFailed, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune runs: %w", err)
	}
	return result.RowsAffected()
}
