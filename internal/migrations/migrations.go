package migrations

import (
	"database/sql"
	"fmt"
)

// Migration represents a single database migration
type Migration struct {
	Version int
	Name    string
	Up      string
	Down    string
}

// AllMigrations contains all database migrations in order
var AllMigrations = []Migration{
	{
		Version: 1,
		Name:    "Add trigger history indices",
		Up: `
			CREATE INDEX IF NOT EXISTS idx_triggers_timestamp ON trigger_history(timestamp DESC);
			CREATE INDEX IF NOT EXISTS idx_triggers_kind ON trigger_history(kind);
		`,
		Down: `
			DROP INDEX IF EXISTS idx_triggers_timestamp;
			DROP INDEX IF EXISTS idx_triggers_kind;
		`,
	},
}

// InitSchema creates all tables required across all modules.
// This must be called before running migrations to ensure all tables exist.
func InitSchema(db *sql.DB) error {
	schema := `
	-- Dynamic bind cache, in least-recently-used order (position 0 is the
	-- next eviction victim).
	CREATE TABLE IF NOT EXISTS dynamic_binds (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		command_type TEXT NOT NULL,
		value TEXT NOT NULL,
		slot INTEGER NOT NULL UNIQUE,
		position INTEGER NOT NULL,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(command_type, value)
	);

	-- One row per executed trigger, for the stats endpoint and debugging.
	CREATE TABLE IF NOT EXISTS trigger_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp DATETIME NOT NULL,
		kind TEXT NOT NULL,
		name TEXT NOT NULL,
		value TEXT,
		slot INTEGER,
		success INTEGER NOT NULL,
		error TEXT
	);

	-- Single-row settings such as the persisted keyspace fingerprint.
	CREATE TABLE IF NOT EXISTS meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`

	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	return nil
}

// Run applies all pending migrations to the database
func Run(db *sql.DB) error {
	if err := InitSchema(db); err != nil {
		return err
	}

	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	var currentVersion int
	err = db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to get current migration version: %w", err)
	}

	for _, migration := range AllMigrations {
		if migration.Version <= currentVersion {
			continue
		}

		_, err := db.Exec(migration.Up)
		if err != nil {
			return fmt.Errorf("failed to apply migration %d (%s): %w", migration.Version, migration.Name, err)
		}

		_, err = db.Exec(
			"INSERT INTO schema_migrations (version, name) VALUES (?, ?)",
			migration.Version,
			migration.Name,
		)
		if err != nil {
			return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
		}
	}

	return nil
}

// GetCurrentVersion returns the current database schema version
func GetCurrentVersion(db *sql.DB) (int, error) {
	var version int
	err := db.QueryRow(`
		SELECT COALESCE(MAX(version), 0)
		FROM schema_migrations
	`).Scan(&version)
	if err != nil && err != sql.ErrNoRows {
		return 0, err
	}
	return version, nil
}
