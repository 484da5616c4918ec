// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

// Package expand finds NAME(argument) calls in expression text and splices
// in the result of the named operator.
package expand

import (
	"context"
	"errors"
	"fmt"
	"io"

	"nickandperla.net/texcalc/internal/scanner"
	"nickandperla.net/texcalc/internal/token"
	"nickandperla.net/texcalc/internal/window"
)

// EvalFunc computes the replacement text for an operator argument.
type EvalFunc func(ctx context.Context, arg string) (string, error)

// Operator is a named macro bound to an evaluation function.
type Operator struct {
	Name string
	Eval EvalFunc
}

// ErrEmptyName is returned for an operator without a name.
var ErrEmptyName = errors.New("operator name is empty")

// buffer is the output of one expansion pass.
type buffer struct {
	runes []rune
}

func (b *buffer) write(r rune)        { b.runes = append(b.runes, r) }
func (b *buffer) writeString(s string) { b.runes = append(b.runes, []rune(s)...) }

// retract drops the last n runes.
func (b *buffer) retract(n int) {
	if n > len(b.runes) {
		n = len(b.runes)
	}
	b.runes = b.runes[:len(b.runes)-n]
}

func (b *buffer) String() string { return string(b.runes) }

// Expand replaces every op.Name(argument) call in src with the result of
// op.Eval(argument). Calls nested inside an argument are expanded before the
// enclosing call is evaluated. The output is not re-scanned.
func Expand(ctx context.Context, op Operator, src string) (string, error) {
	if op.Name == "" {
		return "", ErrEmptyName
	}
	n := len([]rune(op.Name))
	scan := scanner.NewFromString(src)
	win := window.New(n)
	var out buffer

	for {
		r, err := scan.Next()
		if err == io.EOF {
			return out.String(), nil
		}
		if err != nil {
			return "", err
		}

		if r != token.RuneOpen || !win.Matches(op.Name) {
			win.Write(r)
			out.write(r)
			continue
		}

		// The name was written as plain text; the call replaces it.
		out.retract(n)
		arg, err := scan.ScanArgument(token.RuneOpen, token.RuneClose)
		if err != nil {
			return "", fmt.Errorf("%s(: %w", op.Name, err)
		}
		// Innermost calls first.
		arg, err = Expand(ctx, op, arg)
		if err != nil {
			return "", err
		}
		result, err := op.Eval(ctx, arg)
		if err != nil {
			return "", err
		}
		out.writeString(result)
		win.Reset()
	}
}

// Result is the outcome of running a Pipeline on one expression.
type Result struct {
	Source string // Input text
	Text   string // Expanded text, valid when Err is nil
	Err    error
}

// OK reports whether the expansion succeeded.
func (r Result) OK() bool {
	return r.Err == nil
}

// Pipeline applies operators in order; each stage expands the previous
// stage's output.
type Pipeline struct {
	Stages []Operator
}

// NewPipeline creates a pipeline from stages, first applied first.
func NewPipeline(stages ...Operator) *Pipeline {
	return &Pipeline{Stages: stages}
}

// Run expands src through every stage.
func (p *Pipeline) Run(ctx context.Context, src string) Result {
	text := src
	for _, op := range p.Stages {
		var err error
		text, err = Expand(ctx, op, text)
		if err != nil {
			return Result{Source: src, Err: err}
		}
	}
	return Result{Source: src, Text: text}
}

// Names returns the distinct operator names in stage order.
func (p *Pipeline) Names() []string {
	var names []string
	seen := make(map[string]bool)
	for _, op := range p.Stages {
		if !seen[op.Name] {
			seen[op.Name] = true
			names = append(names, op.Name)
		}
	}
	return names
}
