// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

// Package window implements a fixed-size trailing rune buffer used to match
// operator names without backtracking.
package window

// Window holds the last Cap() runes written, in ring order.
type Window struct {
	buf    []rune
	cursor int // Next slot to write; also the oldest rune once full
}

// New creates a window holding n runes.
func New(n int) *Window {
	return &Window{buf: make([]rune, n)}
}

// Cap returns the fixed capacity.
func (w *Window) Cap() int {
	return len(w.buf)
}

// Write appends r, overwriting the oldest rune when full.
func (w *Window) Write(r rune) {
	if len(w.buf) == 0 {
		return
	}
	if w.cursor >= len(w.buf) {
		w.cursor = 0
	}
	w.buf[w.cursor] = r
	w.cursor++
}

// Read returns the buffered runes oldest first.
func (w *Window) Read() string {
	out := make([]rune, 0, len(w.buf))
	out = append(out, w.buf[w.cursor:]...)
	out = append(out, w.buf[:w.cursor]...)
	return string(out)
}

// Matches reports whether the last Cap() runes spell name.
func (w *Window) Matches(name string) bool {
	return len(w.buf) > 0 && w.Read() == name
}

// Reset clears the window.
func (w *Window) Reset() {
	for i := range w.buf {
		w.buf[i] = 0
	}
	w.cursor = 0
}
