// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

// Package diag prints human-readable progress and diagnostics for a
// document pass, with ANSI colors when writing to a terminal.
package diag

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/term"

	"nickandperla.net/texcalc/internal/store"
	"nickandperla.net/texcalc/internal/vars"
)

// Color is an ANSI foreground color code.
type Color int

const (
	Default Color = 39
	Red     Color = 31
	Green   Color = 32
	Yellow  Color = 33
	Cyan    Color = 36
)

// ColorMode controls when colors are emitted.
type ColorMode int

const (
	// ColorAuto colors output only when it is a terminal.
	ColorAuto ColorMode = iota
	ColorAlways
	ColorNever
)

// String returns the string representation of a ColorMode.
func (m ColorMode) String() string {
	switch m {
	case ColorAuto:
		return "auto"
	case ColorAlways:
		return "always"
	case ColorNever:
		return "never"
	default:
		return "unknown"
	}
}

// ParseColorMode parses a string into a ColorMode.
func ParseColorMode(s string) (ColorMode, bool) {
	switch strings.ToLower(s) {
	case "auto", "":
		return ColorAuto, true
	case "always":
		return ColorAlways, true
	case "never":
		return ColorNever, true
	default:
		return ColorAuto, false
	}
}

// Reporter writes diagnostics for a pass.
type Reporter struct {
	w     io.Writer
	color bool
	quiet bool
}

// Option configures a Reporter.
type Option func(*Reporter)

// WithColor sets the color mode.
func WithColor(mode ColorMode) Option {
	return func(r *Reporter) {
		switch mode {
		case ColorAlways:
			r.color = true
		case ColorNever:
			r.color = false
		default:
			r.color = isTerminal(r.w)
		}
	}
}

// WithQuiet suppresses informational messages; warnings and errors remain.
func WithQuiet(quiet bool) Option {
	return func(r *Reporter) { r.quiet = quiet }
}

// New creates a Reporter writing to w. Colors default to ColorAuto.
func New(w io.Writer, opts ...Option) *Reporter {
	if w == nil {
		w = io.Discard
	}
	r := &Reporter{w: w}
	r.color = isTerminal(w)
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Discard returns a Reporter that prints nothing.
func Discard() *Reporter {
	return New(io.Discard, WithColor(ColorNever))
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func (r *Reporter) paint(c Color, s string) string {
	if !r.color {
		return s
	}
	return fmt.Sprintf("\033[1;%dm%s\033[1;%dm", int(c), s, int(Default))
}

func (r *Reporter) printf(format string, args ...any) {
	fmt.Fprintf(r.w, format, args...)
}

// Evaluated reports a successful evaluator call.
func (r *Reporter) Evaluated(expression, result string) {
	if r.quiet {
		return
	}
	r.printf("%s%s = %s\n", r.paint(Yellow, "Evaluated: "), expression, r.paint(Cyan, result))
}

// Skipped reports an expression written back unexpanded.
func (r *Reporter) Skipped(line int, text string, err error) {
	r.printf("%s\n", r.paint(Red, fmt.Sprintf("line %d: Can't evaluate %s, skipping... (%v)", line, text, err)))
}

// Changed reports a variable whose value was replaced.
func (r *Reporter) Changed(name, oldValue, newValue string) {
	if r.quiet {
		return
	}
	r.printf("Variable %s changed from %s to %s\n", r.paint(Yellow, name), oldValue, newValue)
}

// Hint reports a call that looks like a misspelled operator.
func (r *Reporter) Hint(line int, got, want string) {
	if r.quiet {
		return
	}
	r.printf("line %d: %s( is not an operator, did you mean %s(?\n", line, got, r.paint(Green, want))
}

// Warnf reports a recoverable problem.
func (r *Reporter) Warnf(format string, args ...any) {
	r.printf("%s%s\n", r.paint(Yellow, "Warning: "), fmt.Sprintf(format, args...))
}

// Errorf reports a fatal problem.
func (r *Reporter) Errorf(format string, args ...any) {
	r.printf("%s%s\n", r.paint(Red, "Error: "), fmt.Sprintf(format, args...))
}

// Variables lists the known bindings.
func (r *Reporter) Variables(bindings []vars.Binding) {
	if r.quiet {
		return
	}
	r.printf("Recognized variables:\n")
	for _, b := range bindings {
		r.printf("%s = %s\n", r.paint(Yellow, b.Name), b.Value)
	}
}

// Summary describes a finished pass.
type Summary struct {
	Output       string
	Expanded     int
	Skipped      int
	NewVariables int
	Bytes        int64
	Elapsed      time.Duration
}

// Done reports the end of a pass.
func (r *Reporter) Done(s Summary) {
	if r.quiet {
		return
	}
	r.printf("Wrote %s to %s: %d expanded, %s, %d new variables (%s)\n",
		humanize.Bytes(uint64(s.Bytes)), s.Output, s.Expanded,
		r.paint(skippedColor(s.Skipped), fmt.Sprintf("%d skipped", s.Skipped)),
		s.NewVariables, s.Elapsed.Round(time.Millisecond))
}

func skippedColor(n int) Color {
	if n > 0 {
		return Red
	}
	return Green
}

// History lists the stored versions of a variable, newest first.
func (r *Reporter) History(name string, entries []store.VersionEntry) {
	if len(entries) == 0 {
		r.printf("No history for %s\n", name)
		return
	}
	r.printf("History of %s:\n", r.paint(Yellow, name))
	for _, e := range entries {
		r.printf("  v%d  %s  %s\n", e.Version, r.paint(Cyan, e.Value), humanize.Time(e.Ts))
	}
}
