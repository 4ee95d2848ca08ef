package server

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fmizzell/chores"
	_ "modernc.org/sqlite"
)

// Store holds the snapshot served to clients
type Store interface {
	All(ctx context.Context) ([]chores.CompletedTask, error)
	ReplaceAll(ctx context.Context, entries []chores.CompletedTask) error
	Close() error
}

// SQLiteStore persists the snapshot in a SQLite database
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database at path
func OpenSQLite(path string) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	if path == ":memory:" {
		dsn = path
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// one connection keeps :memory: databases alive and serializes writers
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS completed_tasks (
			task_id INTEGER NOT NULL,
			date TEXT NOT NULL,
			child_name TEXT NOT NULL,
			PRIMARY KEY (task_id, date, child_name)
		);

		CREATE INDEX IF NOT EXISTS idx_completed_child ON completed_tasks(child_name);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database handle
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// All returns every stored entry ordered by date, child, task
func (s *SQLiteStore) All(ctx context.Context) ([]chores.CompletedTask, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT task_id, date, child_name FROM completed_tasks
		 ORDER BY date, child_name, task_id`)
	if err != nil {
		return nil, fmt.Errorf("query completed tasks: %w", err)
	}
	defer rows.Close()

	entries := []chores.CompletedTask{}
	for rows.Next() {
		var (
			e     chores.CompletedTask
			child string
		)
		if err := rows.Scan(&e.TaskID, &e.Date, &child); err != nil {
			return nil, fmt.Errorf("scan completed task: %w", err)
		}
		e.ChildName = chores.Child(child)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate completed tasks: %w", err)
	}
	return entries, nil
}

// ReplaceAll swaps the stored snapshot in one transaction
func (s *SQLiteStore) ReplaceAll(ctx context.Context, entries []chores.CompletedTask) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM completed_tasks`); err != nil {
		return fmt.Errorf("clear completed tasks: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR IGNORE INTO completed_tasks (task_id, date, child_name) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		if _, err := stmt.ExecContext(ctx, e.TaskID, e.Date, string(e.ChildName)); err != nil {
			return fmt.Errorf("insert %s: %w", e, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// MemoryStore keeps the snapshot in memory
type MemoryStore struct {
	mu      sync.Mutex
	entries []chores.CompletedTask
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore(entries ...chores.CompletedTask) *MemoryStore {
	return &MemoryStore{entries: chores.Dedupe(entries)}
}

func (m *MemoryStore) All(ctx context.Context) ([]chores.CompletedTask, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]chores.CompletedTask{}, m.entries...), nil
}

func (m *MemoryStore) ReplaceAll(ctx context.Context, entries []chores.CompletedTask) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = chores.Dedupe(entries)
	return nil
}

func (m *MemoryStore) Close() error { return nil }
