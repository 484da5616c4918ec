// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

// Package scanner provides a streaming rune reader with balanced argument
// extraction for operator calls.
package scanner

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"nickandperla.net/texcalc/internal/token"
)

var (
	// ErrArgumentTooLong is returned when an argument exceeds token.MaxArgLength.
	ErrArgumentTooLong = errors.New("argument too long")
	// ErrUnterminated is returned when the input ends inside an argument.
	ErrUnterminated = errors.New("unterminated argument")
)

// Scanner reads input rune-by-rune.
type Scanner struct {
	reader *bufio.Reader
	line   int // Current line number (1-based)
}

// New creates a new Scanner from an io.Reader.
func New(r io.Reader) *Scanner {
	return &Scanner{
		reader: bufio.NewReader(r),
		line:   1,
	}
}

// NewFromString creates a new Scanner from a string.
func NewFromString(s string) *Scanner {
	return New(strings.NewReader(s))
}

// Next returns the next rune. It returns io.EOF at the end of input.
func (s *Scanner) Next() (rune, error) {
	r, _, err := s.reader.ReadRune()
	if err != nil {
		return 0, err
	}
	if r == '\n' {
		s.line++
	}
	return r, nil
}

// ScanArgument reads up to the close rune matching an open rune that has
// already been consumed. Nested open/close pairs are kept in the result; the
// outermost pair is not. The matching close rune is consumed.
func (s *Scanner) ScanArgument(open, close rune) (string, error) {
	var content strings.Builder
	depth := 1 // We start inside one open rune
	n := 0

	for {
		r, err := s.Next()
		if err == io.EOF {
			return content.String(), fmt.Errorf("%w: %d %q still open at line %d", ErrUnterminated, depth, open, s.line)
		}
		if err != nil {
			return "", err
		}

		switch r {
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return content.String(), nil
			}
		}

		if n >= token.MaxArgLength {
			return "", fmt.Errorf("%w: more than %d characters", ErrArgumentTooLong, token.MaxArgLength)
		}
		content.WriteRune(r)
		n++
	}
}
