package strings

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// CollapseSpaces trims s and reduces every internal whitespace run to a single space.
func CollapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// ToTitleCase lower-cases s and capitalizes each word using Brazilian
// Portuguese casing rules. Whitespace is collapsed first.
//
//	ToTitleCase("JOÃO SILVA") // "João Silva"
func ToTitleCase(s string) string {
	s = CollapseSpaces(s)
	if s == "" {
		return s
	}
	// Casers keep state; build one per call.
	return cases.Title(language.BrazilianPortuguese).String(s)
}

// ToLower trims and lower-cases s.
func ToLower(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// ToUpper trims and upper-cases s.
func ToUpper(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// OnlyDigits returns the ASCII digits of s in order.
func OnlyDigits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if c := s[i]; c >= '0' && c <= '9' {
			b.WriteByte(c)
		}
	}
	return b.String()
}

// RemoveAccents strips combining marks: "Clínica Saúde" becomes "Clinica Saude".
func RemoveAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// ContainsFold reports whether needle occurs in s, ignoring case and
// accents. A blank needle matches everything.
func ContainsFold(s, needle string) bool {
	needle = strings.ToLower(RemoveAccents(strings.TrimSpace(needle)))
	return strings.Contains(strings.ToLower(RemoveAccents(s)), needle)
}

// Length returns the number of runes in s.
func Length(s string) int {
	return len([]rune(s))
}
