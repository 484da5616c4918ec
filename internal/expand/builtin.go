package expand

import (
	"context"
	"strings"
	"unicode/utf8"

	"nickandperla.net/texcalc/internal/token"
	"nickandperla.net/texcalc/internal/trim"
)

// Lookup resolves variable names to values.
type Lookup interface {
	Contains(name string) bool
	Value(name string) string
}

// Evaluator computes an expression.
type Evaluator interface {
	Evaluate(ctx context.Context, expression string) (string, error)
}

// EvaluatedFunc observes each successful evaluation.
type EvaluatedFunc func(expression, result string)

// Substitute returns an operator that replaces known variables in its
// argument and leaves a residual name(...) call for a later stage.
//
//	name(x+1)  ->  x+1 = name(5+1)   when x is 5
//	name(2+2)  ->  name(2+2)         when nothing is known
func Substitute(lookup Lookup, name string) Operator {
	return Operator{
		Name: name,
		Eval: func(ctx context.Context, arg string) (string, error) {
			replaced, ok := SubstituteTokens(lookup, arg)
			if !ok {
				return name + "(" + arg + ")", nil
			}
			return arg + " = " + name + "(" + trim.Space(replaced) + ")", nil
		},
	}
}

// SubstituteTokens replaces every whole token of s that names a known
// variable. Tokens are delimited by token.Separators. It reports whether
// anything was replaced.
func SubstituteTokens(lookup Lookup, s string) (string, bool) {
	var sb strings.Builder
	substituted := false
	start := 0

	flush := func(end int) {
		tok := s[start:end]
		if tok == "" {
			return
		}
		if name := trim.Space(tok); lookup.Contains(name) {
			sb.WriteString(lookup.Value(name))
			substituted = true
			return
		}
		sb.WriteString(tok)
	}

	for i, r := range s {
		if !token.IsSeparator(r) {
			continue
		}
		flush(i)
		sb.WriteRune(r)
		start = i + utf8.RuneLen(r)
	}
	flush(len(s))
	return sb.String(), substituted
}

// Calculate returns an operator that hands its argument to ev and yields
// "argument = result".
func Calculate(ev Evaluator, name string, onEval EvaluatedFunc) Operator {
	return Operator{
		Name: name,
		Eval: func(ctx context.Context, arg string) (string, error) {
			result, err := ev.Evaluate(ctx, arg)
			if err != nil {
				return "", err
			}
			if onEval != nil {
				onEval(arg, result)
			}
			return arg + " = " + result, nil
		},
	}
}
