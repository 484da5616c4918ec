package store

import (
	"database/sql"
	"os"
	"testing"

	"nickandperla.net/texcalc/internal/vars"
)

func tempDB(t *testing.T) string {
	t.Helper()
	f, err := os.CreateTemp("", "texcalc-test-*.db")
	if err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}
	path := f.Name()
	f.Close()
	t.Cleanup(func() { os.Remove(path) })
	return path
}

// valueOf returns the stored value of name, or "" when absent.
func valueOf(t *testing.T, s Store, name string) string {
	t.Helper()
	bindings, err := s.Bindings()
	if err != nil {
		t.Fatalf("Bindings failed: %v", err)
	}
	for _, b := range bindings {
		if b.Name == name {
			return b.Value
		}
	}
	return ""
}

func TestMemoryStore(t *testing.T) {
	s := NewMemory()
	defer s.Close()

	if got := valueOf(t, s, "x"); got != "" {
		t.Errorf("expected '' before Put, got '%s'", got)
	}
	if err := s.Put("x", "5"); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if got := valueOf(t, s, "x"); got != "5" {
		t.Errorf("expected '5', got '%s'", got)
	}
}

func TestSQLiteStore(t *testing.T) {
	path := tempDB(t)

	s, err := NewSQLite(path)
	if err != nil {
		t.Fatalf("Failed to create SQLite store: %v", err)
	}

	if err := s.Put("x", "5"); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if got := valueOf(t, s, "x"); got != "5" {
		t.Errorf("expected '5', got '%s'", got)
	}

	// Close and reopen to verify persistence
	s.Close()

	s2, err := NewSQLite(path)
	if err != nil {
		t.Fatalf("Failed to reopen SQLite store: %v", err)
	}
	defer s2.Close()

	if got := valueOf(t, s2, "x"); got != "5" {
		t.Errorf("expected '5' after reopen, got '%s'", got)
	}
}

func testVersioning(t *testing.T, s interface {
	Store
	HistoryStore
}) {
	s.BeginRun("run-1")

	// First put creates version 1
	s.Put("X", "first")

	// Second put with different value creates version 2
	s.BeginRun("run-2")
	s.Put("X", "second")
	got := valueOf(t, s, "X")
	if got != "second" {
		t.Errorf("expected 'second', got '%s'", got)
	}

	// Same value is a no-op
	s.Put("X", "second")

	// GetHistory returns newest first
	entries, err := s.GetHistory("X", 0)
	if err != nil {
		t.Fatalf("GetHistory: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Version != 2 || entries[0].Value != "second" || entries[0].RunID != "run-2" {
		t.Errorf("entry[0]: expected v2 'second' run-2, got v%d '%s' %s", entries[0].Version, entries[0].Value, entries[0].RunID)
	}
	if entries[1].Version != 1 || entries[1].Value != "first" || entries[1].RunID != "run-1" {
		t.Errorf("entry[1]: expected v1 'first' run-1, got v%d '%s' %s", entries[1].Version, entries[1].Value, entries[1].RunID)
	}
	if entries[0].Ts.IsZero() {
		t.Error("expected non-zero timestamp")
	}

	// GetHistory with limit
	entries, _ = s.GetHistory("X", 1)
	if len(entries) != 1 || entries[0].Version != 2 {
		t.Fatalf("expected only v2 with limit, got %v", entries)
	}

	// GetHistory on nonexistent returns nothing
	entries, err = s.GetHistory("nope", 0)
	if err != nil {
		t.Fatalf("GetHistory nonexistent failed: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected no entries for nonexistent, got %v", entries)
	}
}

func TestMemoryVersioning(t *testing.T) {
	testVersioning(t, NewMemory())
}

func TestSQLiteVersioning(t *testing.T) {
	s, err := NewSQLite(tempDB(t))
	if err != nil {
		t.Fatalf("NewSQLite: %v", err)
	}
	defer s.Close()
	testVersioning(t, s)
}

func TestSaveAndBindings(t *testing.T) {
	s, err := NewSQLite(tempDB(t))
	if err != nil {
		t.Fatalf("NewSQLite: %v", err)
	}
	defer s.Close()

	in := []vars.Binding{{Name: "b", Value: "2"}, {Name: "a", Value: "1"}}
	if err := Save(s, "run-1", in); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := s.Bindings()
	if err != nil {
		t.Fatalf("Bindings: %v", err)
	}
	if len(got) != 2 || got[0] != (vars.Binding{Name: "a", Value: "1"}) || got[1] != (vars.Binding{Name: "b", Value: "2"}) {
		t.Errorf("unexpected bindings: %v", got)
	}

	last, err := s.getMetadataUnlocked("last_run_id")
	if err != nil {
		t.Fatalf("reading last_run_id: %v", err)
	}
	if last != "run-1" {
		t.Errorf("expected last run 'run-1', got '%s'", last)
	}
}

func TestSQLiteRejectsUnknownSchema(t *testing.T) {
	path := tempDB(t)

	db, err := sql.Open(driverName, path)
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	db.Exec(`
		CREATE TABLE metadata (key TEXT PRIMARY KEY, value TEXT NOT NULL);
		INSERT INTO metadata (key, value) VALUES ('schema_version', '99');
	`)
	db.Close()

	if _, err := NewSQLite(path); err == nil {
		t.Fatal("expected error for unsupported schema version")
	}
}
