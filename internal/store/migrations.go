package store

import (
	"context"
	"database/sql"
	"fmt"

	"bibliography/internal/logging"
)

// Schema versions:
// v1: vocabulary, resource_class, property
// v2: module install records
// v3: global and per-site settings
const CurrentSchemaVersion = 3

// Migration is one schema step, applied in its own transaction.
type Migration struct {
	Version    int
	Name       string
	Statements []string
}

var migrations = []Migration{
	{1, "vocabularies", []string{
		`CREATE TABLE IF NOT EXISTS vocabulary (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			owner_id INTEGER,
			namespace_uri TEXT NOT NULL UNIQUE,
			prefix TEXT NOT NULL UNIQUE,
			label TEXT NOT NULL,
			comment TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS resource_class (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			owner_id INTEGER,
			vocabulary_id INTEGER NOT NULL REFERENCES vocabulary(id) ON DELETE CASCADE,
			local_name TEXT NOT NULL,
			label TEXT NOT NULL,
			comment TEXT,
			UNIQUE (vocabulary_id, local_name)
		)`,
		`CREATE TABLE IF NOT EXISTS property (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			owner_id INTEGER,
			vocabulary_id INTEGER NOT NULL REFERENCES vocabulary(id) ON DELETE CASCADE,
			local_name TEXT NOT NULL,
			label TEXT NOT NULL,
			comment TEXT,
			UNIQUE (vocabulary_id, local_name)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_resource_class_vocabulary ON resource_class(vocabulary_id)`,
		`CREATE INDEX IF NOT EXISTS idx_property_vocabulary ON property(vocabulary_id)`,
	}},
	{2, "modules", []string{
		`CREATE TABLE IF NOT EXISTS module (
			id TEXT PRIMARY KEY,
			is_active INTEGER NOT NULL DEFAULT 0,
			version TEXT NOT NULL DEFAULT ''
		)`,
	}},
	{3, "settings", []string{
		`CREATE TABLE IF NOT EXISTS setting (
			name TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS site_setting (
			site_id INTEGER NOT NULL,
			name TEXT NOT NULL,
			value TEXT NOT NULL,
			PRIMARY KEY (site_id, name)
		)`,
	}},
}

// SchemaVersion returns the applied schema version, 0 for a fresh database.
func SchemaVersion(ctx context.Context, db *sql.DB) (int, error) {
	if !tableExists(ctx, db, "schema_version") {
		return 0, nil
	}
	var v sql.NullInt64
	if err := db.QueryRowContext(ctx, "SELECT MAX(version) FROM schema_version").Scan(&v); err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	return int(v.Int64), nil
}

// RunMigrations brings db up to CurrentSchemaVersion.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	timer := logging.StartTimer(logging.CategoryStore, "RunMigrations")
	defer timer.Stop()

	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		return fmt.Errorf("failed to create schema_version table: %w", err)
	}

	current, err := SchemaVersion(ctx, db)
	if err != nil {
		return err
	}

	applied := 0
	for _, m := range migrations {
		if m.Version <= current {
			continue
		}
		if err := applyMigration(ctx, db, m); err != nil {
			return err
		}
		logging.Store("Migration applied: v%d %s", m.Version, m.Name)
		applied++
	}

	logging.StoreDebug("Schema migrations complete: from=v%d applied=%d", current, applied)
	return nil
}

func applyMigration(ctx context.Context, db *sql.DB, m Migration) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin migration v%d: %w", m.Version, err)
	}
	defer tx.Rollback()

	for _, stmt := range m.Statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply migration v%d (%s): %w", m.Version, m.Name, err)
		}
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version, name) VALUES (?, ?)", m.Version, m.Name); err != nil {
		return fmt.Errorf("failed to record migration v%d: %w", m.Version, err)
	}
	return tx.Commit()
}
