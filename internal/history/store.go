// Package history keeps a SQLite ledger of every replace iteration so past
// runs can be inspected with `slop history`.
package history

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/harrison/slop/internal/models"
)

//go:embed schema.sql
var schemaSQL string

// Store manages the SQLite history database
type Store struct {
	db     *sql.DB
	dbPath string
}

// NewStore opens (creating if needed) the database at dbPath.
// ":memory:" opens a private in-memory database.
func NewStore(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if dbPath == ":memory:" {
		// Every connection would get its own empty database.
		db.SetMaxOpenConns(1)
	}

	pragmas := []string{
		"PRAGMA busy_timeout=5000", // Must be first
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
	}
	for _, pragma := range pragmas {
		if err := execWithRetry(db, pragma, 5, 10*time.Millisecond); err != nil {
			db.Close()
			return nil, fmt.Errorf("set %s: %w", pragma, err)
		}
	}

	store := &Store{db: db, dbPath: dbPath}
	if err := store.ApplyMigrations(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return store, nil
}

// execWithRetry executes a SQL statement with exponential backoff retry on lock errors.
func execWithRetry(db *sql.DB, stmt string, maxRetries int, baseDelay time.Duration) error {
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		_, err := db.Exec(stmt)
		if err == nil {
			return nil
		}
		if !strings.Contains(err.Error(), "database is locked") {
			return err
		}
		lastErr = err
		time.Sleep(baseDelay * time.Duration(1<<attempt))
	}
	return lastErr
}

// Path returns the database location.
func (s *Store) Path() string {
	return s.dbPath
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Record stores one iteration record.
func (s *Store) Record(ctx context.Context, rec models.IterationRecord) error {
	ts := rec.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	query := `INSERT INTO iterations
		(run_id, iteration, path, start_offset, end_offset, matched_text, replacement_length, retries, outcome, error_message, duration_ms, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, query,
		rec.RunID, rec.Iteration, rec.Path, rec.Start, rec.End, rec.MatchedText,
		rec.ReplacementLength, rec.Retries, rec.Outcome, rec.ErrorMessage,
		rec.Duration.Milliseconds(), ts.UTC())
	if err != nil {
		return fmt.Errorf("insert iteration: %w", err)
	}
	return nil
}

// RecordRun stores or replaces the summary of a run. Records are not
// written here; they arrive through Record as the run progresses.
func (s *Store) RecordRun(ctx context.Context, result *models.RunResult) error {
	query := `INSERT OR REPLACE INTO runs
		(run_id, job_path, commits, retries, final_state, started_at, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, query,
		result.RunID, result.JobPath, result.Commits, result.Retries,
		result.FinalState, result.StartedAt.UTC(), result.Duration.Milliseconds())
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

const iterationColumns = `run_id, iteration, path, start_offset, end_offset, matched_text,
	replacement_length, retries, outcome, COALESCE(error_message, ''), duration_ms, timestamp`

// ListRecent returns the most recent iterations across all runs, newest first.
func (s *Store) ListRecent(ctx context.Context, limit int) ([]models.IterationRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `SELECT ` + iterationColumns + ` FROM iterations ORDER BY timestamp DESC, id DESC LIMIT ?`
	return s.queryIterations(ctx, query, limit)
}

// ListRun returns the iterations of one run in execution order.
func (s *Store) ListRun(ctx context.Context, runID string) ([]models.IterationRecord, error) {
	query := `SELECT ` + iterationColumns + ` FROM iterations WHERE run_id = ? ORDER BY iteration ASC, id ASC`
	return s.queryIterations(ctx, query, runID)
}

// ListRuns returns run summaries, newest first. Records are left empty.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]models.RunResult, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `SELECT run_id, job_path, commits, retries, final_state, started_at, duration_ms
		FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []models.RunResult
	for rows.Next() {
		var (
			run        models.RunResult
			durationMs int64
		)
		if err := rows.Scan(&run.RunID, &run.JobPath, &run.Commits, &run.Retries,
			&run.FinalState, &run.StartedAt, &durationMs); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.Duration = time.Duration(durationMs) * time.Millisecond
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func (s *Store) queryIterations(ctx context.Context, query string, args ...interface{}) ([]models.IterationRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query iterations: %w", err)
	}
	defer rows.Close()

	var records []models.IterationRecord
	for rows.Next() {
		var (
			rec        models.IterationRecord
			durationMs int64
		)
		if err := rows.Scan(&rec.RunID, &rec.Iteration, &rec.Path, &rec.Start, &rec.End,
			&rec.MatchedText, &rec.ReplacementLength, &rec.Retries, &rec.Outcome,
			&rec.ErrorMessage, &durationMs, &rec.Timestamp); err != nil {
			return nil, fmt.Errorf("scan iteration: %w", err)
		}
		rec.Duration = time.Duration(durationMs) * time.Millisecond
		records = append(records, rec)
	}
	return records, rows.Err()
}
