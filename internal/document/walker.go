// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

// Package document walks a text document, expands every \[ ... \] block
// through an operator pipeline and writes the transformed copy.
package document

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"nickandperla.net/texcalc/internal/diag"
	"nickandperla.net/texcalc/internal/expand"
	"nickandperla.net/texcalc/internal/token"
	"nickandperla.net/texcalc/internal/vars"
)

// ErrUnbalancedBlock is returned when an end marker has no open block.
var ErrUnbalancedBlock = errors.New("unbalanced block markers")

// Stats counts what a pass did.
type Stats struct {
	Lines        int
	Expressions  int
	Expanded     int
	Skipped      int
	NewVariables int
	Bytes        int64
}

// Walker expands the blocks of one document at a time.
type Walker struct {
	pipeline *expand.Pipeline
	registry *vars.Registry
	reporter *diag.Reporter
}

// Option configures a Walker.
type Option func(*Walker)

// WithReporter sets where diagnostics go.
func WithReporter(r *diag.Reporter) Option {
	return func(w *Walker) { w.reporter = r }
}

// New creates a Walker. The registry is read by the pipeline's operators and
// updated from every expanded block.
func New(p *expand.Pipeline, reg *vars.Registry, opts ...Option) *Walker {
	w := &Walker{
		pipeline: p,
		registry: reg,
		reporter: diag.Discard(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// block accumulates an expression that may span lines.
type block struct {
	depth  int    // Open start markers
	line   int    // Line the block started on
	prefix string // Rendered text before the start marker on its line
	parts  []string
	raw    []string // Source text, written back if the block is abandoned
}

func (b *block) reset() {
	*b = block{}
}

// Walk reads r line by line and writes the transformed document to out.
// Markers on a line are matched left to right, so one line may close a
// block and open the next. Blocks that fail to expand are written back
// unchanged; an end marker without an open block aborts the pass.
func (w *Walker) Walk(ctx context.Context, r io.Reader, out io.Writer) (Stats, error) {
	var stats Stats
	cw := &countingWriter{w: out}
	bw := bufio.NewWriter(cw)
	reader := bufio.NewReader(NewDecoder(r))

	writeLine := func(s string) {
		bw.WriteString(s)
		bw.WriteByte('\n')
	}
	finish := func(err error) (Stats, error) {
		if ferr := bw.Flush(); err == nil {
			err = ferr
		}
		stats.Bytes = cw.n
		return stats, err
	}

	var b block
	for {
		if err := ctx.Err(); err != nil {
			return finish(err)
		}
		line, readErr := reader.ReadString('\n')
		if readErr != nil && readErr != io.EOF {
			return finish(readErr)
		}
		if readErr == io.EOF && line == "" {
			break
		}
		stats.Lines++
		line = strings.TrimSuffix(strings.TrimSuffix(line, "\n"), "\r")

		rendered := "" // Output for this line outside of blocks
		seg := 0       // Start of text not yet consumed
		opened := -1   // Offset of a start marker opened on this line
		for pos := 0; ; {
			idx, m := token.NextMarker(line, pos)
			if m == token.NONE {
				break
			}
			switch m {
			case token.START:
				pos = idx + len(token.BlockStart)
				if b.depth == 0 {
					b.line = stats.Lines
					b.prefix = rendered + line[seg:idx]
					rendered = ""
					seg = pos
					opened = idx
				}
				b.depth++

			case token.END:
				pos = idx + len(token.BlockEnd)
				if b.depth == 0 {
					return finish(fmt.Errorf("line %d: %w: %s without %s", stats.Lines, ErrUnbalancedBlock, token.BlockEnd, token.BlockStart))
				}
				b.depth--
				if b.depth > 0 {
					continue
				}
				b.parts = append(b.parts, line[seg:idx])
				rendered = w.complete(ctx, &stats, &b)
				b.reset()
				seg = pos
				opened = -1
			}
		}

		switch {
		case b.depth == 0:
			writeLine(rendered + line[seg:])
		case opened >= 0:
			b.parts = append(b.parts, line[seg:])
			b.raw = append(b.raw, b.prefix+line[opened:])
		default:
			b.parts = append(b.parts, line[seg:])
			b.raw = append(b.raw, line)
		}

		if err := ctx.Err(); err != nil {
			return finish(err)
		}
		if readErr == io.EOF {
			break
		}
	}

	if b.depth > 0 {
		w.abandon(&b, writeLine, fmt.Sprintf("block opened on line %d is never closed", b.line))
	}

	stats.NewVariables = w.registry.NewCount()
	w.registry.ResetCounter()
	w.reporter.Variables(w.registry.Bindings())
	return finish(nil)
}

// complete expands the accumulated block and renders it with its markers
// after the text that preceded it.
func (w *Walker) complete(ctx context.Context, stats *Stats, b *block) string {
	stats.Expressions++
	text := strings.Join(b.parts, "\n")

	for _, h := range expand.Suggest(text, w.pipeline.Names()) {
		w.reporter.Hint(b.line, h.Got, h.Want)
	}

	res := w.pipeline.Run(ctx, text)
	if !res.OK() {
		stats.Skipped++
		w.reporter.Skipped(b.line, text, res.Err)
		return b.prefix + token.BlockStart + text + token.BlockEnd
	}

	stats.Expanded++
	w.registry.Detect(res.Text)
	return b.prefix + token.BlockStart + res.Text + token.BlockEnd
}

// abandon writes an unfinished block back as it appeared in the source.
func (w *Walker) abandon(b *block, writeLine func(string), reason string) {
	w.reporter.Warnf("%s, writing it unchanged", reason)
	for _, l := range b.raw {
		writeLine(l)
	}
	b.reset()
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
