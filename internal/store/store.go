// Package store persists dynamic bind state and trigger history in a
// SQLite sidecar database next to the settings file. The database is the
// authoritative record of the dynamic cache between runs; the comments in
// keys.cfg are a human-readable mirror that is only consulted when the
// database is empty.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/studiowebux/rustactions/internal/binds"
	"github.com/studiowebux/rustactions/internal/migrations"
)

const fingerprintKey = "keyspace_fingerprint"

type Manager struct {
	db *sql.DB
}

func NewManager(dbPath string) (*Manager, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open store database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to store database: %w", err)
	}

	if err := migrations.Run(db); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Manager{db: db}, nil
}

func (m *Manager) Close() error {
	return m.db.Close()
}

// EnsureFingerprint compares the persisted keyspace fingerprint against
// the current one. On mismatch every persisted dynamic bind is dropped,
// since its slot numbers refer to chords that no longer exist, and the
// new fingerprint is stored. Returns true when state was cleared.
func (m *Manager) EnsureFingerprint(fingerprint string) (bool, error) {
	var stored string
	err := m.db.QueryRow("SELECT value FROM meta WHERE key = ?", fingerprintKey).Scan(&stored)
	if err != nil && err != sql.ErrNoRows {
		return false, fmt.Errorf("failed to read keyspace fingerprint: %w", err)
	}

	if stored == fingerprint {
		return false, nil
	}

	tx, err := m.db.Begin()
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	cleared := false
	if stored != "" {
		if _, err := tx.Exec("DELETE FROM dynamic_binds"); err != nil {
			return false, fmt.Errorf("failed to clear stale dynamic binds: %w", err)
		}
		cleared = true
	}
	_, err = tx.Exec(
		"INSERT INTO meta (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		fingerprintKey, fingerprint,
	)
	if err != nil {
		return false, fmt.Errorf("failed to store keyspace fingerprint: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit fingerprint update: %w", err)
	}
	return cleared, nil
}

// ReplaceDynamic overwrites the persisted dynamic cache with entries,
// which must be in least-recently-used order. Called after every cache
// change so the database always reflects in-memory state.
func (m *Manager) ReplaceDynamic(entries []binds.DynamicEntry) error {
	tx, err := m.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM dynamic_binds"); err != nil {
		return fmt.Errorf("failed to clear dynamic binds: %w", err)
	}

	stmt, err := tx.Prepare(
		"INSERT INTO dynamic_binds (command_type, value, slot, position) VALUES (?, ?, ?, ?)",
	)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, e := range entries {
		if _, err := stmt.Exec(string(e.Type), e.Value, e.Slot, i); err != nil {
			return fmt.Errorf("failed to save dynamic bind for slot %d: %w", e.Slot, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit dynamic binds: %w", err)
	}
	return nil
}

// LoadDynamic returns the persisted dynamic cache in least-recently-used
// order.
func (m *Manager) LoadDynamic() ([]binds.DynamicEntry, error) {
	rows, err := m.db.Query(
		"SELECT command_type, value, slot FROM dynamic_binds ORDER BY position",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load dynamic binds: %w", err)
	}
	defer rows.Close()

	var entries []binds.DynamicEntry
	for rows.Next() {
		var commandType string
		var e binds.DynamicEntry
		if err := rows.Scan(&commandType, &e.Value, &e.Slot); err != nil {
			return nil, fmt.Errorf("failed to scan dynamic bind: %w", err)
		}
		e.Type = binds.CommandType(commandType)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read dynamic binds: %w", err)
	}
	return entries, nil
}

// AdoptDynamic seeds the persisted cache from entries recovered out of
// keys.cfg comments, but only when the database holds nothing yet. This
// is the one-time upgrade path for state written before the database
// existed.
func (m *Manager) AdoptDynamic(entries []binds.DynamicEntry) (bool, error) {
	if len(entries) == 0 {
		return false, nil
	}
	var count int
	if err := m.db.QueryRow("SELECT COUNT(*) FROM dynamic_binds").Scan(&count); err != nil {
		return false, fmt.Errorf("failed to count dynamic binds: %w", err)
	}
	if count > 0 {
		return false, nil
	}
	if err := m.ReplaceDynamic(entries); err != nil {
		return false, err
	}
	return true, nil
}

// TriggerRecord is one executed trigger, as stored and as returned by
// History.
type TriggerRecord struct {
	ID        int64     `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Kind      string    `json:"kind"`
	Name      string    `json:"name"`
	Value     string    `json:"value,omitempty"`
	Slot      int       `json:"slot"`
	Success   bool      `json:"success"`
	Error     string    `json:"error,omitempty"`
}

func (m *Manager) RecordTrigger(rec TriggerRecord) error {
	timestampStr := time.Now().Local().Format("2006-01-02 15:04:05")
	_, err := m.db.Exec(
		"INSERT INTO trigger_history (timestamp, kind, name, value, slot, success, error) VALUES (?, ?, ?, ?, ?, ?, ?)",
		timestampStr, rec.Kind, rec.Name, rec.Value, rec.Slot, rec.Success, rec.Error,
	)
	if err != nil {
		return fmt.Errorf("failed to save trigger record: %w", err)
	}
	return nil
}

// History returns the most recent trigger records, newest first.
func (m *Manager) History(limit int) ([]TriggerRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := m.db.Query(`
		SELECT id, timestamp, kind, name, COALESCE(value, ''), COALESCE(slot, -1), success, COALESCE(error, '')
		FROM trigger_history
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load trigger history: %w", err)
	}
	defer rows.Close()

	var records []TriggerRecord
	for rows.Next() {
		var rec TriggerRecord
		var timestamp string
		if err := rows.Scan(&rec.ID, &timestamp, &rec.Kind, &rec.Name, &rec.Value, &rec.Slot, &rec.Success, &rec.Error); err != nil {
			return nil, fmt.Errorf("failed to scan trigger record: %w", err)
		}
		parsed, err := time.ParseInLocation("2006-01-02 15:04:05", timestamp, time.Local)
		if err != nil {
			parsed, err = time.Parse(time.RFC3339, timestamp)
			if err != nil {
				parsed = time.Now()
			}
		}
		rec.Timestamp = parsed
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read trigger history: %w", err)
	}
	return records, nil
}

// CountTriggers returns the total number of recorded triggers.
func (m *Manager) CountTriggers() (int64, error) {
	var count int64
	if err := m.db.QueryRow("SELECT COUNT(*) FROM trigger_history").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count triggers: %w", err)
	}
	return count, nil
}
