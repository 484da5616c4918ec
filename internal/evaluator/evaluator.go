// Package evaluator defines the external computation engine that CALC calls
// are handed to, and its implementations.
package evaluator

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Evaluator turns an expression into a numeric or symbolic result.
type Evaluator interface {
	// Evaluate returns the result for expression or an error.
	Evaluate(ctx context.Context, expression string) (string, error)
}

// ErrEmptyTemplate is returned when no command is configured.
var ErrEmptyTemplate = errors.New("empty evaluator command")

// failureMarkers in evaluator output mark a failed evaluation.
var failureMarkers = []string{"Syntax", "Error", "Failed"}

// EvalError reports an expression the evaluator could not handle.
type EvalError struct {
	Expr   string
	Output string // Evaluator output, if any
	Err    error  // Underlying error, if any
}

func (e *EvalError) Error() string {
	msg := "evaluation failed: " + e.Expr
	if e.Output != "" {
		msg += ": " + e.Output
	}
	if e.Err != nil {
		msg += fmt.Sprintf(" (%v)", e.Err)
	}
	return msg
}

func (e *EvalError) Unwrap() error {
	return e.Err
}

// ParseOutput interprets captured evaluator output for expression.
// Output carrying a failure marker is an *EvalError. Otherwise exactly one
// trailing newline is removed.
func ParseOutput(expression, output string) (string, error) {
	for _, marker := range failureMarkers {
		if strings.Contains(output, marker) {
			return "", &EvalError{Expr: expression, Output: strings.TrimSpace(output)}
		}
	}
	return strings.TrimSuffix(output, "\n"), nil
}

// PrepareArgument doubles backslashes so the expression survives a
// double-quoted shell word.
func PrepareArgument(expression string) string {
	return strings.ReplaceAll(expression, `\`, `\\`)
}

// flatten joins a multi-line expression into a single line.
func flatten(expression string) string {
	expression = strings.ReplaceAll(expression, "\r\n", " ")
	return strings.ReplaceAll(expression, "\n", " ")
}
