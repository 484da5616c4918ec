// Package trim strips surrounding whitespace from expression text.
package trim

import "strings"

// Cutset is the whitespace removed by Left, Right and Space.
const Cutset = " \t\n\r\f\v"

// Left removes leading whitespace.
func Left(s string) string {
	return strings.TrimLeft(s, Cutset)
}

// Right removes trailing whitespace.
func Right(s string) string {
	return strings.TrimRight(s, Cutset)
}

// Space removes leading and trailing whitespace.
func Space(s string) string {
	return Left(Right(s))
}
