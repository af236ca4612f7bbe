package history

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"git.home.luguber.info/inful/pomosite/internal/foundation/errors"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewSQLiteStore opens (or creates) the history database.
// Use ":memory:" for an in-memory database, or a file path for persistent storage.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o750); err != nil {
			return nil, errors.WrapError(err, errors.CategoryHistory, "create history directory").
				WithContext("path", dbPath).
				Build()
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryHistory, "open history database").
			WithContext("path", dbPath).
			Build()
	}
	// A single connection keeps ":memory:" databases alive across calls.
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{db: db}
	if err := store.initialize(); err != nil {
		_ = db.Close()
		return nil, errors.WrapError(err, errors.CategoryHistory, "initialize history schema").
			WithContext("path", dbPath).
			Build()
	}
	return store, nil
}

func (s *SQLiteStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		output_root TEXT NOT NULL,
		started_at INTEGER NOT NULL,
		finished_at INTEGER NOT NULL,
		outcome TEXT NOT NULL,
		failed_state TEXT NOT NULL DEFAULT '',
		error TEXT NOT NULL DEFAULT '',
		file_count INTEGER NOT NULL DEFAULT 0,
		manifest_digest TEXT NOT NULL DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
	CREATE INDEX IF NOT EXISTS idx_runs_output_root ON runs(output_root, outcome);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Record stores a finished run.
func (s *SQLiteStore) Record(ctx context.Context, run Run) error {
	if run.ID == "" {
		return errors.HistoryError("run id is empty").Build()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, output_root, started_at, finished_at, outcome, failed_state, error, file_count, manifest_digest)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.OutputRoot, run.StartedAt.UnixNano(), run.FinishedAt.UnixNano(), string(run.Outcome),
		run.FailedState, run.Error, run.FileCount, run.ManifestDigest,
	)
	if err != nil {
		return errors.WrapError(err, errors.CategoryHistory, "insert run").
			WithContext("run_id", run.ID).
			Build()
	}
	return nil
}

const selectRuns = `SELECT id, output_root, started_at, finished_at, outcome, failed_state, error, file_count, manifest_digest FROM runs`

// Get returns the run with the given id.
func (s *SQLiteStore) Get(ctx context.Context, id string) (Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, err := scanRun(s.db.QueryRowContext(ctx, selectRuns+` WHERE id = ?`, id))
	if stderrors.Is(err, sql.ErrNoRows) {
		return Run{}, errors.NotFoundError(fmt.Sprintf("run %s not found", id)).
			WithContext("run_id", id).
			Build()
	}
	if err != nil {
		return Run{}, errors.WrapError(err, errors.CategoryHistory, "query run").
			WithContext("run_id", id).
			Build()
	}
	return run, nil
}

// Recent returns up to n runs, newest first.
func (s *SQLiteStore) Recent(ctx context.Context, n int) ([]Run, error) {
	if n <= 0 {
		return nil, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, selectRuns+` ORDER BY started_at DESC, id LIMIT ?`, n)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryHistory, "query runs").Build()
	}
	defer func() { _ = rows.Close() }()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, errors.WrapError(err, errors.CategoryHistory, "scan run").Build()
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.WrapError(err, errors.CategoryHistory, "iterate runs").Build()
	}
	return runs, nil
}

// LastSuccessful returns the newest successful run for outputRoot.
func (s *SQLiteStore) LastSuccessful(ctx context.Context, outputRoot string) (Run, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, err := scanRun(s.db.QueryRowContext(ctx,
		selectRuns+` WHERE output_root = ? AND outcome = ? ORDER BY started_at DESC LIMIT 1`,
		outputRoot, string(OutcomeSuccess)))
	if stderrors.Is(err, sql.ErrNoRows) {
		return Run{}, false, nil
	}
	if err != nil {
		return Run{}, false, errors.WrapError(err, errors.CategoryHistory, "query last successful run").Build()
	}
	return run, true, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (Run, error) {
	var (
		r                 Run
		started, finished int64
		outcome           string
	)
	err := row.Scan(&r.ID, &r.OutputRoot, &started, &finished, &outcome, &r.FailedState, &r.Error, &r.FileCount, &r.ManifestDigest)
	if err != nil {
		return Run{}, err
	}
	r.StartedAt = time.Unix(0, started)
	r.FinishedAt = time.Unix(0, finished)
	r.Outcome = Outcome(outcome)
	return r, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}
