// Package store persists discovered variable bindings between runs.
package store

import (
	"time"

	"nickandperla.net/texcalc/internal/vars"
)

// Store is the interface for binding persistence.
type Store interface {
	// Put stores a value, recording a new version when it changed.
	Put(name, value string) error
	// Bindings returns every stored variable sorted by name.
	Bindings() ([]vars.Binding, error)
	// BeginRun tags subsequent versions with runID.
	BeginRun(runID string) error
	// Close releases resources.
	Close() error
}

// VersionEntry represents a single version of a persisted variable.
type VersionEntry struct {
	Version int
	Value   string
	RunID   string
	Ts      time.Time
}

// HistoryStore extends Store with version history queries.
type HistoryStore interface {
	GetHistory(name string, limit int) ([]VersionEntry, error)
}

// Save writes all bindings to s under runID.
func Save(s Store, runID string, bindings []vars.Binding) error {
	if err := s.BeginRun(runID); err != nil {
		return err
	}
	for _, b := range bindings {
		if err := s.Put(b.Name, b.Value); err != nil {
			return err
		}
	}
	return nil
}
