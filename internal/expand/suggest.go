package expand

import (
	"strings"
	"unicode"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"nickandperla.net/texcalc/internal/token"
)

// Hint is an identifier called like an operator that nearly matches one.
type Hint struct {
	Got  string
	Want string
}

// Suggest finds identifiers directly before '(' that are within one edit or
// one swap of adjacent letters of an operator name, ignoring case, without
// being that name.
func Suggest(text string, names []string) []Hint {
	if len(names) == 0 {
		return nil
	}
	known := make(map[string]bool, len(names))
	for _, n := range names {
		known[n] = true
	}

	var hints []Hint
	seen := make(map[string]bool)
	runes := []rune(text)
	for i, r := range runes {
		if r != token.RuneOpen {
			continue
		}
		start := i
		for start > 0 && isIdentRune(runes[start-1]) {
			start--
		}
		ident := string(runes[start:i])
		if ident == "" || known[ident] || seen[ident] {
			continue
		}
		if want, ok := nearest(ident, names); ok {
			seen[ident] = true
			hints = append(hints, Hint{Got: ident, Want: want})
		}
	}
	return hints
}

// nearest returns the closest name to ident if it is a near miss.
func nearest(ident string, names []string) (string, bool) {
	folded := strings.ToLower(ident)
	best, dist := "", -1
	for _, n := range names {
		target := strings.ToLower(n)
		d := fuzzy.LevenshteinDistance(folded, target)
		if d > 1 && swapped(folded, target) {
			d = 1
		}
		if dist < 0 || d < dist {
			best, dist = n, d
		}
	}
	return best, dist <= 1
}

// swapped reports whether a and b differ by one transposition of adjacent runes.
func swapped(a, b string) bool {
	ra, rb := []rune(a), []rune(b)
	if len(ra) != len(rb) {
		return false
	}
	i := 0
	for i < len(ra) && ra[i] == rb[i] {
		i++
	}
	if i+1 >= len(ra) || ra[i] != rb[i+1] || ra[i+1] != rb[i] {
		return false
	}
	return string(ra[i+2:]) == string(rb[i+2:])
}

func isIdentRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}
