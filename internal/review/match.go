package review

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// NormalizeValue reduces an answer value to a canonical comparison form:
// NFC normalization, lower case, punctuation folded to spaces, whitespace
// collapsed. "Technical (Benchmark)" and "technical benchmark" compare
// equal.
func NormalizeValue(s string) string {
	s = norm.NFC.String(s)

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(unicode.ToLower(r))
		default:
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// MatchesValue reports whether expected matches any entry in values.
//
// A match is either an exact string match, a normalized match, or a
// normalized match against the prefix of an entry in "Prefix: detail"
// form — so expected "Other" matches the stored value "Other: foo".
func MatchesValue(values []string, expected string) bool {
	normExpected := NormalizeValue(expected)

	for _, v := range values {
		if v == expected {
			return true
		}
		if prefix, _, found := strings.Cut(v, ":"); found {
			if NormalizeValue(prefix) == normExpected {
				return true
			}
		}
		if NormalizeValue(v) == normExpected {
			return true
		}
	}
	return false
}
