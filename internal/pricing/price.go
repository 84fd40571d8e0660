// Package pricing turns listing price display strings into comparable amounts.
package pricing

import (
	"strconv"
	"strings"
)

// qualifiers are Dutch legal-cost markers that carry no numeric meaning
var qualifiers = []string{"k.k.", "v.o.n.", "kk", "von"}

// Parse returns the whole-euro amount of a display price such as "€465.000 k.k.".
// Periods are thousands separators; anything after a comma is a decimal part and is
// dropped. Strings that do not reduce to digits yield 0.
func Parse(display string) int64 {
	s := strings.ToLower(strings.TrimSpace(display))
	s = strings.ReplaceAll(s, "€", "")
	s = strings.TrimPrefix(strings.TrimSpace(s), "eur")

	for _, q := range qualifiers {
		s = strings.TrimSpace(s)
		s = strings.TrimSuffix(s, q)
	}

	if i := strings.IndexByte(s, ','); i >= 0 {
		s = s[:i]
	}

	s = strings.ReplaceAll(s, ".", "")
	s = strings.Join(strings.Fields(s), "")
	if s == "" {
		return 0
	}

	for _, r := range s {
		if r < '0' || r > '9' {
			return 0
		}
	}

	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// Valid reports whether display parses to a positive amount
func Valid(display string) bool {
	return Parse(display) > 0
}
