// Package runlog keeps a local SQLite log of completed import runs, so past
// confirmations stay inspectable after the session ends.
package runlog

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// Run is one confirmed import.
type Run struct {
	ID        string
	ProjectID int
	Source    string
	Sheet     string
	Inserted  int
	Skipped   int
	CreatedAt time.Time
}

// Log wraps the SQLite run database.
type Log struct {
	conn *sql.DB
	path string
}

// Open opens or creates the run log at the given path.
func Open(dbPath string) (*Log, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating run log directory: %w", err)
	}

	conn, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening run log: %w", err)
	}

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	l := &Log{conn: conn, path: dbPath}
	if err := l.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return l, nil
}

// Close closes the database connection.
func (l *Log) Close() error {
	return l.conn.Close()
}

// Path returns the database file path.
func (l *Log) Path() string {
	return l.path
}

func (l *Log) migrate() error {
	_, err := l.conn.Exec(`
		CREATE TABLE IF NOT EXISTS import_runs (
			id TEXT PRIMARY KEY,
			project_id INTEGER NOT NULL,
			source TEXT NOT NULL,
			sheet TEXT NOT NULL,
			inserted INTEGER NOT NULL,
			skipped INTEGER NOT NULL,
			created_at TIMESTAMP NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("creating import_runs table: %w", err)
	}
	return nil
}

// Record inserts a run. A missing ID or timestamp is filled in.
func (l *Log) Record(run Run) (Run, error) {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	_, err := l.conn.Exec(
		`INSERT INTO import_runs (id, project_id, source, sheet, inserted, skipped, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.ProjectID, run.Source, run.Sheet, run.Inserted, run.Skipped, run.CreatedAt,
	)
	if err != nil {
		return Run{}, fmt.Errorf("recording run: %w", err)
	}
	return run, nil
}

// Recent returns up to limit runs, newest first.
func (l *Log) Recent(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := l.conn.Query(
		`SELECT id, project_id, source, sheet, inserted, skipped, created_at
		 FROM import_runs ORDER BY created_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		if err := rows.Scan(&run.ID, &run.ProjectID, &run.Source, &run.Sheet, &run.Inserted, &run.Skipped, &run.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
