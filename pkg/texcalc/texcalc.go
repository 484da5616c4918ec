package texcalc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"

	"nickandperla.net/texcalc/internal/diag"
	"nickandperla.net/texcalc/internal/document"
	"nickandperla.net/texcalc/internal/evaluator"
	"nickandperla.net/texcalc/internal/expand"
	"nickandperla.net/texcalc/internal/store"
	"nickandperla.net/texcalc/internal/vars"
)

// ErrNoHistory is returned by History when the store keeps no versions.
var ErrNoHistory = errors.New("store does not keep history")

// Stats describes one finished pass.
type Stats struct {
	document.Stats
	RunID   string
	Elapsed time.Duration
}

// Runtime expands the CALC blocks of documents.
type Runtime struct {
	evaluator   Evaluator
	store       Store
	reporter    *diag.Reporter
	opName      string
	persistMode PersistMode
	registry    *vars.Registry
	err         error // Deferred configuration error
}

// New creates a runtime with the given options.
func New(opts ...Option) *Runtime {
	r := &Runtime{
		opName:   DefaultOperator,
		reporter: diag.Discard(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.evaluator == nil {
		template := os.Getenv(EnvEvaluator)
		if template == "" {
			template = DefaultCommandTemplate
		}
		r.evaluator = evaluator.NewCommand(template)
	}
	return r
}

// Err returns the first configuration error, e.g. a store that failed to open.
func (r *Runtime) Err() error {
	return r.err
}

// Registry returns the variables known after the last pass.
func (r *Runtime) Registry() *vars.Registry {
	return r.registry
}

// Process expands every block read from in and writes the document to out.
// Each call is one pass with its own variable registry.
func (r *Runtime) Process(ctx context.Context, in io.Reader, out io.Writer) (Stats, error) {
	if r.err != nil {
		return Stats{}, r.err
	}
	begin := time.Now()
	stats := Stats{RunID: uuid.NewString()}

	r.registry = vars.New(vars.WithChangeFunc(r.reporter.Changed))
	if r.store != nil && r.persistMode != PersistNever {
		known, err := r.store.Bindings()
		if err != nil {
			return stats, fmt.Errorf("loading variables: %w", err)
		}
		r.registry.Load(known)
	}

	p := expand.NewPipeline(
		expand.Substitute(r.registry, r.opName),
		expand.Calculate(r.evaluator, r.opName, r.reporter.Evaluated),
	)
	w := document.New(p, r.registry, document.WithReporter(r.reporter))

	var err error
	stats.Stats, err = w.Walk(ctx, in, out)
	stats.Elapsed = time.Since(begin)
	if err != nil {
		return stats, err
	}

	if r.store != nil && r.persistMode == PersistAlways {
		if err := store.Save(r.store, stats.RunID, r.registry.Bindings()); err != nil {
			return stats, fmt.Errorf("saving variables: %w", err)
		}
	}
	return stats, nil
}

// OutputPath names the document written for input path.
func OutputPath(path string) string {
	return path + OutputSuffix
}

// ProcessFile expands the document at path and writes it to outPath, or to
// OutputPath(path) when outPath is empty.
func (r *Runtime) ProcessFile(ctx context.Context, path, outPath string) (Stats, error) {
	if outPath == "" {
		outPath = OutputPath(path)
	}
	in, err := os.Open(path)
	if err != nil {
		return Stats{}, fmt.Errorf("could not open %s: %w", path, err)
	}
	defer in.Close()

	out, err := os.Create(outPath)
	if err != nil {
		return Stats{}, fmt.Errorf("could not create %s: %w", outPath, err)
	}

	stats, err := r.Process(ctx, in, out)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return stats, err
	}

	r.reporter.Done(diag.Summary{
		Output:       outPath,
		Expanded:     stats.Expanded,
		Skipped:      stats.Skipped,
		NewVariables: stats.NewVariables,
		Bytes:        stats.Bytes,
		Elapsed:      stats.Elapsed,
	})
	return stats, nil
}

// History returns up to limit stored versions of a variable, newest first.
// A limit of zero or less returns all versions.
func (r *Runtime) History(name string, limit int) ([]store.VersionEntry, error) {
	if r.err != nil {
		return nil, r.err
	}
	hs, ok := r.store.(store.HistoryStore)
	if !ok {
		return nil, ErrNoHistory
	}
	return hs.GetHistory(name, limit)
}

// Close releases the store.
func (r *Runtime) Close() error {
	if r.store != nil {
		return r.store.Close()
	}
	return nil
}
