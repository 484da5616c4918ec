package store

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	"nickandperla.net/texcalc/internal/vars"
)

// Current schema version
const SchemaVersion = "1"

// SQLite is a SQLite-backed store.
type SQLite struct {
	mu    sync.Mutex
	db    *sql.DB
	runID string
}

// NewSQLite creates a new SQLite store at the given path.
func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, err
	}

	// Create tables if not exists
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS variables (
			name TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS variable_history (
			name TEXT NOT NULL,
			version INTEGER NOT NULL,
			value TEXT NOT NULL,
			run_id TEXT NOT NULL DEFAULT '',
			ts TEXT NOT NULL,
			PRIMARY KEY (name, version)
		);
		CREATE TABLE IF NOT EXISTS metadata (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
	`)
	if err != nil {
		db.Close()
		return nil, err
	}

	s := &SQLite{db: db}

	// Check/set schema version (use unlocked versions since we're in init)
	version, err := s.getMetadataUnlocked("schema_version")
	if err != nil {
		db.Close()
		return nil, err
	}

	switch version {
	case "":
		if err := s.setMetadataUnlocked("schema_version", SchemaVersion); err != nil {
			db.Close()
			return nil, err
		}
	case SchemaVersion:
	default:
		db.Close()
		return nil, fmt.Errorf("unsupported schema version: %s (expected %s)", version, SchemaVersion)
	}

	return s, nil
}

// Put stores a value and appends a history version when it changed.
func (s *SQLite) Put(name, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var current string
	err = tx.QueryRow("SELECT value FROM variables WHERE name = ?", name).Scan(&current)
	switch {
	case err == sql.ErrNoRows:
	case err != nil:
		return err
	case current == value:
		return nil
	}

	if _, err := tx.Exec(`
		INSERT INTO variables (name, value) VALUES (?, ?)
		ON CONFLICT(name) DO UPDATE SET value = excluded.value
	`, name, value); err != nil {
		return err
	}

	var version int
	if err := tx.QueryRow("SELECT COALESCE(MAX(version), 0) + 1 FROM variable_history WHERE name = ?", name).Scan(&version); err != nil {
		return err
	}
	if _, err := tx.Exec(`
		INSERT INTO variable_history (name, version, value, run_id, ts) VALUES (?, ?, ?, ?, ?)
	`, name, version, value, s.runID, time.Now().UTC().Format(time.RFC3339Nano)); err != nil {
		return err
	}
	return tx.Commit()
}

// Bindings returns every stored variable sorted by name.
func (s *SQLite) Bindings() ([]vars.Binding, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query("SELECT name, value FROM variables ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []vars.Binding
	for rows.Next() {
		var b vars.Binding
		if err := rows.Scan(&b.Name, &b.Value); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// BeginRun tags subsequent versions with runID and records it as the last run.
func (s *SQLite) BeginRun(runID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runID = runID
	return s.setMetadataUnlocked("last_run_id", runID)
}

// GetHistory returns versions newest first. limit <= 0 returns all.
func (s *SQLite) GetHistory(name string, limit int) ([]VersionEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}
	rows, err := s.db.Query(`
		SELECT version, value, run_id, ts FROM variable_history
		WHERE name = ? ORDER BY version DESC LIMIT ?
	`, name, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []VersionEntry
	for rows.Next() {
		var e VersionEntry
		var ts string
		if err := rows.Scan(&e.Version, &e.Value, &e.RunID, &ts); err != nil {
			return nil, err
		}
		if e.Ts, err = time.Parse(time.RFC3339Nano, ts); err != nil {
			return nil, fmt.Errorf("history of %s: bad timestamp %q: %w", name, ts, err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Close closes the database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// getMetadataUnlocked retrieves metadata without locking (caller must hold lock).
func (s *SQLite) getMetadataUnlocked(key string) (string, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM metadata WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

// setMetadataUnlocked stores metadata without locking (caller must hold lock).
func (s *SQLite) setMetadataUnlocked(key, value string) error {
	_, err := s.db.Exec(`
		INSERT INTO metadata (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}
