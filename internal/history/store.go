package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// StatusRunning marks a run that has not finished. Finished runs carry one of
// the services.Outcome* values.
const StatusRunning = "running"

// Run is one row of the runs table.
type Run struct {
	ID             int64
	RunID          string
	InputDir       string
	Status         string
	StartedAt      time.Time
	FinishedAt     *time.Time
	EncoderProfile string
	Inputs         int
	ScenesDetected int
	ScenesSelected int
	ClipsBuilt     int
	Graded         bool
	OutputPath     string
	OutputBytes    int64
	VerticalPath   string
	ErrorMessage   string
}

// Duration is the wall time of a finished run, zero while running.
func (r Run) Duration() time.Duration {
	if r.FinishedAt == nil {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Store persists run history in SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open creates or opens the history database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure history dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Begin inserts a running row for runID.
func (s *Store) Begin(ctx context.Context, runID, inputDir string) (*Run, error) {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (run_id, input_dir, status, started_at) VALUES (?, ?, ?, ?)`,
		runID, inputDir, StatusRunning, now.Format(timeLayout),
	)
	if err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}
	return s.Get(ctx, runID)
}

// Finish stamps the finish time and persists the run's final fields.
func (s *Store) Finish(ctx context.Context, run *Run) error {
	if run == nil {
		return errors.New("run is nil")
	}
	finished := time.Now().UTC()
	run.FinishedAt = &finished
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs
         SET status = ?, finished_at = ?, encoder_profile = ?, inputs = ?,
             scenes_detected = ?, scenes_selected = ?, clips_built = ?, graded = ?,
             output_path = ?, output_bytes = ?, vertical_path = ?, error_message = ?
         WHERE run_id = ?`,
		run.Status,
		nullableTime(run.FinishedAt),
		nullableString(run.EncoderProfile),
		run.Inputs,
		run.ScenesDetected,
		run.ScenesSelected,
		run.ClipsBuilt,
		boolToInt(run.Graded),
		nullableString(run.OutputPath),
		run.OutputBytes,
		nullableString(run.VerticalPath),
		nullableString(run.ErrorMessage),
		run.RunID,
	)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("update run: %s not found", run.RunID)
	}
	return nil
}

// Get returns the run with runID, or nil when absent.
func (s *Store) Get(ctx context.Context, runID string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE run_id = ?`, runID)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return run, nil
}

// List returns the most recent runs first. limit <= 0 returns all.
func (s *Store) List(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY started_at DESC, id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// MarkInterrupted fails every row still marked running. It is called while
// holding the work directory lock, so such rows belong to crashed processes.
func (s *Store) MarkInterrupted(ctx context.Context, status string) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, finished_at = ?, error_message = ? WHERE status = ?`,
		status, time.Now().UTC().Format(timeLayout), "interrupted before completion", StatusRunning,
	)
	if err != nil {
		return 0, fmt.Errorf("mark interrupted runs: %w", err)
	}
	return res.RowsAffected()
}

// Prune deletes finished runs that started before cutoff.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM runs WHERE status != ? AND started_at < ?`,
		StatusRunning, cutoff.UTC().Format(timeLayout),
	)
	if err != nil {
		return 0, fmt.Errorf("prune runs: %w", err)
	}
	return res.RowsAffected()
}
