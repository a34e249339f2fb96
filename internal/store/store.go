// Package store persists vocabularies, module install records and settings
// in SQLite. Both the cgo driver (mattn/go-sqlite3, "sqlite3") and the pure
// Go driver (modernc.org/sqlite, "sqlite") are registered.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"bibliography/internal/logging"
	"bibliography/internal/module"

	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"
)

// Registered driver names.
const (
	DriverCGO  = "sqlite3"
	DriverPure = "sqlite"
)

// ErrNotFound is returned when a looked-up row does not exist.
var ErrNotFound = errors.New("not found")

// Store is the SQLite-backed persistence of the bibliography plugin.
type Store struct {
	db     *sql.DB
	mu     sync.RWMutex
	dbPath string
	driver string

	pendingMu sync.Mutex
	pending   []*module.Entity
}

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Open opens (creating if needed) the database at path and migrates it to
// the current schema. An empty driver selects DriverCGO.
func Open(driver, path string) (*Store, error) {
	timer := logging.StartTimer(logging.CategoryStore, "Open")
	defer timer.Stop()

	if driver == "" {
		driver = DriverCGO
	}
	if driver != DriverCGO && driver != DriverPure {
		return nil, fmt.Errorf("unsupported sqlite driver %q", driver)
	}

	logging.Store("Opening %s database at %s", driver, path)

	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open(driver, path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		logging.StoreDebug("Failed to set sqlite busy_timeout: %v", err)
	}
	if path != ":memory:" {
		if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
			logging.StoreDebug("Failed to set sqlite journal_mode=WAL: %v", err)
		}
	}

	if err := RunMigrations(context.Background(), db); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db, dbPath: path, driver: driver}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// Path returns the database path.
func (s *Store) Path() string { return s.dbPath }

// Driver returns the driver name the store was opened with.
func (s *Store) Driver() string { return s.driver }

// Stats returns row counts per table.
func (s *Store) Stats(ctx context.Context) (map[string]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := make(map[string]int)
	for _, table := range []string{"vocabulary", "resource_class", "property", "module", "setting", "site_setting"} {
		var n int
		if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
			return nil, fmt.Errorf("failed to count %s: %w", table, err)
		}
		stats[table] = n
	}
	return stats, nil
}

// withTx runs fn in a transaction. Callers hold s.mu.
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logging.StoreWarn("Rollback failed: %v", rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// tableExists checks if a table exists in the database.
func tableExists(ctx context.Context, q queryer, table string) bool {
	var name string
	err := q.QueryRowContext(ctx, "SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
	return err == nil
}

// isUniqueViolation matches the unique constraint error text of both drivers.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
