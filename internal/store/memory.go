package store

import (
	"sort"
	"sync"
	"time"

	"nickandperla.net/texcalc/internal/vars"
)

// Memory is an in-memory store for testing.
type Memory struct {
	mu       sync.RWMutex
	versions map[string][]VersionEntry // Oldest first
	runID    string
	now      func() time.Time
}

// NewMemory creates a new in-memory store.
func NewMemory() *Memory {
	return &Memory{
		versions: make(map[string][]VersionEntry),
		now:      time.Now,
	}
}

// Put stores a value; an unchanged value is a no-op.
func (m *Memory) Put(name, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v := m.versions[name]
	if len(v) > 0 && v[len(v)-1].Value == value {
		return nil
	}
	m.versions[name] = append(v, VersionEntry{
		Version: len(v) + 1,
		Value:   value,
		RunID:   m.runID,
		Ts:      m.now(),
	})
	return nil
}

// Bindings returns the latest value of every variable.
func (m *Memory) Bindings() ([]vars.Binding, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]vars.Binding, 0, len(m.versions))
	for name, v := range m.versions {
		out = append(out, vars.Binding{Name: name, Value: v[len(v)-1].Value})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// BeginRun tags subsequent versions with runID.
func (m *Memory) BeginRun(runID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runID = runID
	return nil
}

// GetHistory returns versions newest first. limit <= 0 returns all.
func (m *Memory) GetHistory(name string, limit int) ([]VersionEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v := m.versions[name]
	if len(v) == 0 {
		return nil, nil
	}
	var out []VersionEntry
	for i := len(v) - 1; i >= 0; i-- {
		out = append(out, v[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// Close is a no-op for memory store.
func (m *Memory) Close() error {
	return nil
}
