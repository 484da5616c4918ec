// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

// Package vars discovers variable assignments in expanded expressions and
// keeps their latest values for substitution.
package vars

import (
	"sort"
	"strings"
	"unicode"

	"nickandperla.net/texcalc/internal/trim"
)

// Binding is a discovered variable and its textual value.
type Binding struct {
	Name  string
	Value string
}

// ChangeFunc is called when a known variable gets a different value.
type ChangeFunc func(name, oldValue, newValue string)

// Registry maps variable names to their last known value.
// It is owned by a single document pass and is not safe for concurrent use.
type Registry struct {
	values   map[string]string
	added    int // New variables since the last ResetCounter
	onChange ChangeFunc
}

// Option configures a Registry.
type Option func(*Registry)

// WithChangeFunc sets the callback for value changes.
func WithChangeFunc(f ChangeFunc) Option {
	return func(r *Registry) { r.onChange = f }
}

// New creates an empty registry.
func New(opts ...Option) *Registry {
	r := &Registry{values: make(map[string]string)}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ValidName reports whether s can name a variable: non-empty, no whitespace.
func ValidName(s string) bool {
	return s != "" && strings.IndexFunc(s, unicode.IsSpace) < 0
}

// Parse extracts an assignment from line. Only the first and the last
// '='-separated segments are used.
func Parse(line string) (Binding, bool) {
	segments := strings.Split(line, "=")
	if len(segments) < 2 {
		return Binding{}, false
	}
	name := trim.Space(segments[0])
	value := trim.Space(segments[len(segments)-1])
	if !ValidName(name) || value == "" {
		return Binding{}, false
	}
	return Binding{Name: name, Value: value}, true
}

// Detect records the assignment in line, if any.
func (r *Registry) Detect(line string) (Binding, bool) {
	b, ok := Parse(line)
	if !ok {
		return Binding{}, false
	}
	if old, exists := r.values[b.Name]; exists {
		if old == b.Value {
			return b, true
		}
		if r.onChange != nil {
			r.onChange(b.Name, old, b.Value)
		}
	} else {
		r.added++
	}
	r.values[b.Name] = b.Value
	return b, true
}

// Load seeds the registry with known bindings without counting them as new.
func (r *Registry) Load(bindings []Binding) {
	for _, b := range bindings {
		if ValidName(b.Name) {
			r.values[b.Name] = b.Value
		}
	}
}

// Contains returns true if name is known.
func (r *Registry) Contains(name string) bool {
	_, ok := r.values[name]
	return ok
}

// Value returns the value of name, or "" if unknown.
func (r *Registry) Value(name string) string {
	return r.values[name]
}

// Len returns the number of known variables.
func (r *Registry) Len() int {
	return len(r.values)
}

// NewCount returns how many variables were first seen since the last reset.
func (r *Registry) NewCount() int {
	return r.added
}

// ResetCounter zeroes the new-variable counter.
func (r *Registry) ResetCounter() {
	r.added = 0
}

// Bindings returns all bindings sorted by name.
func (r *Registry) Bindings() []Binding {
	out := make([]Binding, 0, len(r.values))
	for name, value := range r.values {
		out = append(out, Binding{Name: name, Value: value})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
