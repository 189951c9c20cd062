// Package store persists extraction run history in a single SQLite
// database file: one row per run, one row per task in the order the
// pipeline returned them.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/DSEENAIAH/meetingmind/internal/extract"
)

// Run is one recorded extraction run.
type Run struct {
	ID         int64     `json:"id"`
	Source     string    `json:"source"`
	InputChars int       `json:"inputChars"`
	TaskCount  int       `json:"taskCount"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Store is the SQLite-backed run history.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens (or creates) the database at path and migrates the schema.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("setting pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db, path: path}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate() error {
	ddl := `
CREATE TABLE IF NOT EXISTS runs (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	source      TEXT NOT NULL,
	input_chars INTEGER NOT NULL,
	created_at  TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS tasks (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id      INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	position    INTEGER NOT NULL,
	title       TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	assignee    TEXT NOT NULL DEFAULT '',
	priority    TEXT NOT NULL DEFAULT 'medium',
	due_date    TEXT NOT NULL DEFAULT '',
	confidence  REAL NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_tasks_run ON tasks(run_id, position);
CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at DESC);
`
	if _, err := s.db.Exec(ddl); err != nil {
		return fmt.Errorf("migrating schema: %w", err)
	}
	return nil
}

// SaveRun records one pipeline result and returns the run ID.
func (s *Store) SaveRun(ctx context.Context, res extract.Result) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`INSERT INTO runs (source, input_chars, created_at) VALUES (?, ?, ?)`,
		res.Meta.Source, res.Meta.InputChars, res.Meta.ProcessedAt.UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("inserting run: %w", err)
	}
	runID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading run id: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO tasks (run_id, position, title, description, assignee, priority, due_date, confidence)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("preparing task insert: %w", err)
	}
	defer stmt.Close()

	for i, task := range res.Tasks {
		if _, err := stmt.ExecContext(ctx, runID, i,
			task.Title, task.Description, task.Assignee, task.Priority, task.DueDate, task.Confidence,
		); err != nil {
			return 0, fmt.Errorf("inserting task %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing run: %w", err)
	}
	return runID, nil
}

// RecentRuns returns the newest runs first, with task counts.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.id, r.source, r.input_chars, r.created_at, COUNT(t.id)
		FROM runs r LEFT JOIN tasks t ON t.run_id = r.id
		GROUP BY r.id
		ORDER BY r.created_at DESC, r.id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.Source, &r.InputChars, &r.CreatedAt, &r.TaskCount); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// RunTasks returns a run's tasks in their stored order.
func (s *Store) RunTasks(ctx context.Context, runID int64) ([]extract.TaskCandidate, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT title, description, assignee, priority, due_date, confidence
		FROM tasks WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying tasks: %w", err)
	}
	defer rows.Close()

	var tasks []extract.TaskCandidate
	for rows.Next() {
		var t extract.TaskCandidate
		if err := rows.Scan(&t.Title, &t.Description, &t.Assignee, &t.Priority, &t.DueDate, &t.Confidence); err != nil {
			return nil, fmt.Errorf("scanning task: %w", err)
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
