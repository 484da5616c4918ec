// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

// Package token defines the delimiters and block markers texcalc recognizes.
package token

import "strings"

// Argument delimiters for operator calls: NAME(argument).
const (
	RuneOpen  = '('
	RuneClose = ')'
)

// Math-mode block markers.
const (
	BlockStart = `\[`
	BlockEnd   = `\]`
)

// MaxArgLength is the longest operator argument the scanner will extract.
const MaxArgLength = 1000

// Separators delimit variable tokens inside an operator argument.
const Separators = " ,\n\t()=;\\+-/%*^'\""

// IsSeparator returns true if the rune ends a variable token.
func IsSeparator(r rune) bool {
	return strings.ContainsRune(Separators, r)
}

// Marker identifies a block marker.
type Marker int

const (
	NONE Marker = iota
	START
	END
)

// String returns the string representation of a marker kind.
func (m Marker) String() string {
	switch m {
	case NONE:
		return "NONE"
	case START:
		return "START"
	case END:
		return "END"
	}
	return "UNKNOWN"
}

// NextMarker returns the byte offset and kind of the first block marker in
// line at or after from, or -1 and NONE when there is none.
func NextMarker(line string, from int) (int, Marker) {
	if from >= len(line) {
		return -1, NONE
	}
	start := strings.Index(line[from:], BlockStart)
	end := strings.Index(line[from:], BlockEnd)
	switch {
	case start < 0 && end < 0:
		return -1, NONE
	case end < 0 || (start >= 0 && start < end):
		return from + start, START
	default:
		return from + end, END
	}
}
