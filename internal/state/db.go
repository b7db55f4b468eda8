// Package state provides the SQLite-backed run ledger
// (.auto-codex/state.db). WAL mode is enabled for concurrent reads.
package state

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/ShayCichocki/auto-codex/pkg/models"
)

// DB wraps an SQLite database connection with ledger operations.
type DB struct {
	conn *sql.DB
	path string
	mu   sync.Mutex
}

// Path returns the ledger path for a repository root.
func Path(repoRoot string) string {
	return filepath.Join(repoRoot, ".auto-codex", "state.db")
}

// Open opens (and if needed creates) the ledger at the given path.
func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	db := &DB{conn: conn, path: path}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, err
	}
	return db, nil
}

// migrate creates the ledger tables if missing.
func (db *DB) migrate() error {
	const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	goal        TEXT NOT NULL,
	base_branch TEXT NOT NULL,
	status      TEXT NOT NULL,
	created_at  TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS task_results (
	run_id    TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	task_id   TEXT NOT NULL,
	branch    TEXT NOT NULL,
	commit_sha TEXT NOT NULL DEFAULT '',
	exit_code INTEGER NOT NULL,
	error     TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (run_id, task_id)
);`
	if _, err := db.conn.Exec(schema); err != nil {
		return fmt.Errorf("migrate ledger: %w", err)
	}
	return nil
}

// RecordRun inserts a run with status "running".
func (db *DB) RecordRun(runID, goal, baseBranch string) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	_, err := db.conn.Exec(
		"INSERT INTO runs (id, goal, base_branch, status, created_at) VALUES (?, ?, ?, 'running', ?)",
		runID, goal, baseBranch, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("record run %s: %w", runID, err)
	}
	return nil
}

// FinishRun updates a run's final status.
func (db *DB) FinishRun(runID, status string) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	_, err := db.conn.Exec("UPDATE runs SET status = ? WHERE id = ?", status, runID)
	if err != nil {
		return fmt.Errorf("finish run %s: %w", runID, err)
	}
	return nil
}

// RecordTaskResult inserts one task result.
func (db *DB) RecordTaskResult(runID string, res *models.TaskResult) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	_, err := db.conn.Exec(
		"INSERT OR REPLACE INTO task_results (run_id, task_id, branch, commit_sha, exit_code, error) VALUES (?, ?, ?, ?, ?, ?)",
		runID, res.TaskID, res.Branch, res.Commit, res.ExitCode, res.Err)
	if err != nil {
		return fmt.Errorf("record result %s/%s: %w", runID, res.TaskID, err)
	}
	return nil
}

// RecentRuns lists the most recent runs, newest first.
func (db *DB) RecentRuns(limit int) ([]RunRecord, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if limit <= 0 {
		limit = 10
	}
	rows, err := db.conn.Query(
		"SELECT id, goal, base_branch, status, created_at FROM runs ORDER BY created_at DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []RunRecord
	for rows.Next() {
		var r RunRecord
		if err := rows.Scan(&r.ID, &r.Goal, &r.BaseBranch, &r.Status, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// TaskResults lists a run's task results ordered by task id.
func (db *DB) TaskResults(runID string) ([]TaskRecord, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	rows, err := db.conn.Query(
		"SELECT run_id, task_id, branch, commit_sha, exit_code, error FROM task_results WHERE run_id = ? ORDER BY task_id", runID)
	if err != nil {
		return nil, fmt.Errorf("list task results: %w", err)
	}
	defer rows.Close()

	var results []TaskRecord
	for rows.Next() {
		var t TaskRecord
		if err := rows.Scan(&t.RunID, &t.TaskID, &t.Branch, &t.Commit, &t.ExitCode, &t.Err); err != nil {
			return nil, fmt.Errorf("scan task result: %w", err)
		}
		results = append(results, t)
	}
	return results, rows.Err()
}

// Close releases the underlying database.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Verify DB implements Store at compile time.
var _ Store = (*DB)(nil)
