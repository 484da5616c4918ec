package evaluator

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/kballard/go-shellquote"
)

// Placeholder marks where the expression goes in a command template.
const Placeholder = "{}"

// waitDelay bounds how long output pipes are drained after the context ends.
const waitDelay = time.Second

// Command evaluates expressions by running an external program.
type Command struct {
	Template string        // Command line; Placeholder is replaced by the expression
	Shell    bool          // Run Template through sh -c
	Timeout  time.Duration // Zero means no timeout
}

// CommandOption configures a Command.
type CommandOption func(*Command)

// WithShell runs the template through sh -c instead of executing it directly.
func WithShell(shell bool) CommandOption {
	return func(c *Command) { c.Shell = shell }
}

// WithTimeout bounds each evaluation.
func WithTimeout(timeout time.Duration) CommandOption {
	return func(c *Command) { c.Timeout = timeout }
}

// NewCommand creates a command evaluator from template.
func NewCommand(template string, opts ...CommandOption) *Command {
	c := &Command{Template: template}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Evaluate runs the command for expression and parses its standard output.
func (c *Command) Evaluate(ctx context.Context, expression string) (string, error) {
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	name, args, err := c.Argv(expression)
	if err != nil {
		return "", err
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = waitDelay
	if err := cmd.Run(); err != nil {
		return "", &EvalError{Expr: expression, Output: strings.TrimSpace(stderr.String()), Err: err}
	}
	return ParseOutput(expression, stdout.String())
}

// Argv builds the program and arguments that evaluate expression.
func (c *Command) Argv(expression string) (string, []string, error) {
	expression = flatten(expression)
	if strings.TrimSpace(c.Template) == "" {
		return "", nil, ErrEmptyTemplate
	}

	if c.Shell {
		line := c.Template
		if strings.Contains(line, Placeholder) {
			line = strings.ReplaceAll(line, Placeholder, PrepareArgument(expression))
		} else {
			line += " " + shellquote.Join(expression)
		}
		return "sh", []string{"-c", line}, nil
	}

	words, err := shellquote.Split(c.Template)
	if err != nil {
		return "", nil, fmt.Errorf("parse evaluator command %q: %w", c.Template, err)
	}
	if len(words) == 0 {
		return "", nil, ErrEmptyTemplate
	}

	substituted := false
	for i, w := range words {
		if strings.Contains(w, Placeholder) {
			words[i] = strings.ReplaceAll(w, Placeholder, expression)
			substituted = true
		}
	}
	if !substituted {
		words = append(words, expression)
	}
	return expandHome(words[0]), words[1:], nil
}

// expandHome resolves a leading ~/ in a program path.
func expandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}
