package texcalc

import (
	"strings"
	"time"

	"nickandperla.net/texcalc/internal/diag"
	"nickandperla.net/texcalc/internal/evaluator"
	"nickandperla.net/texcalc/internal/store"
)

// Option configures a Runtime.
type Option func(*Runtime)

// WithSQLiteStore configures SQLite persistence of variables at the given path.
func WithSQLiteStore(path string) Option {
	return func(r *Runtime) {
		s, err := store.NewSQLite(path)
		if err != nil {
			r.err = err
			return
		}
		r.store = s
	}
}

// WithMemoryStore configures an in-memory store (for testing).
func WithMemoryStore() Option {
	return func(r *Runtime) {
		r.store = store.NewMemory()
	}
}

// WithStore sets a custom store.
func WithStore(s Store) Option {
	return func(r *Runtime) {
		r.store = s
	}
}

// WithEvaluator sets the evaluator CALC calls are handed to.
func WithEvaluator(ev Evaluator) Option {
	return func(r *Runtime) {
		r.evaluator = ev
	}
}

// WithCommand evaluates expressions with an external command.
// See evaluator.Command for the template syntax.
func WithCommand(template string, shell bool, timeout time.Duration) Option {
	return func(r *Runtime) {
		r.evaluator = evaluator.NewCommand(template,
			evaluator.WithShell(shell),
			evaluator.WithTimeout(timeout),
		)
	}
}

// WithMockEvaluator answers evaluations from a fixed table (for testing).
func WithMockEvaluator(responses map[string]string) Option {
	return func(r *Runtime) {
		r.evaluator = evaluator.NewMock(responses)
	}
}

// WithReporter sets where diagnostics go.
func WithReporter(rep *diag.Reporter) Option {
	return func(r *Runtime) {
		r.reporter = rep
	}
}

// WithOperatorName sets the operator name recognized in expressions.
func WithOperatorName(name string) Option {
	return func(r *Runtime) {
		r.opName = name
	}
}

// Store interface for custom stores.
type Store = store.Store

// Evaluator interface for custom evaluators.
type Evaluator = evaluator.Evaluator

// PersistMode controls how a configured store is used.
type PersistMode int

const (
	// PersistAlways loads known variables before a pass and saves them after.
	PersistAlways PersistMode = iota
	// PersistRead loads known variables but never writes.
	PersistRead
	// PersistNever ignores the store during passes.
	PersistNever
)

// String returns the string representation of a PersistMode.
func (m PersistMode) String() string {
	switch m {
	case PersistAlways:
		return "always"
	case PersistRead:
		return "read"
	case PersistNever:
		return "never"
	default:
		return "unknown"
	}
}

// ParsePersistMode parses a string into a PersistMode.
func ParsePersistMode(s string) (PersistMode, bool) {
	switch strings.ToLower(s) {
	case "always":
		return PersistAlways, true
	case "read":
		return PersistRead, true
	case "never":
		return PersistNever, true
	default:
		return PersistAlways, false
	}
}

// WithPersistMode sets the persistence mode.
func WithPersistMode(mode PersistMode) Option {
	return func(r *Runtime) {
		r.persistMode = mode
	}
}
