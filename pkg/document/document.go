// Package document validates Brazilian identity and contact formats.
//
// Every function is pure and accepts punctuated input: non-digits are
// stripped before checking, so "529.982.247-25" and "52998224725" are
// equivalent.
package document

import (
	"strings"

	pstrings "clinic/pkg/platform/strings"
)

const (
	CPFLength  = 11
	CNPJLength = 14
	CEPLength  = 8
)

var (
	cpfFirstMultipliers   = []int{10, 9, 8, 7, 6, 5, 4, 3, 2}
	cpfSecondMultipliers  = []int{11, 10, 9, 8, 7, 6, 5, 4, 3, 2}
	cnpjFirstMultipliers  = []int{5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}
	cnpjSecondMultipliers = []int{6, 5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}
)

// Repeated-digit sequences satisfy the check-digit arithmetic but are not
// issued, so they are rejected up front.
var (
	cpfBlacklist  = repeatedDigits(CPFLength)
	cnpjBlacklist = repeatedDigits(CNPJLength)
)

// IsCPF reports whether s is a valid CPF.
func IsCPF(s string) bool {
	digits := pstrings.OnlyDigits(s)
	if len(digits) != CPFLength {
		return false
	}
	if _, blocked := cpfBlacklist[digits]; blocked {
		return false
	}
	return hasCheckDigits(digits, cpfFirstMultipliers, cpfSecondMultipliers)
}

// IsCNPJ reports whether s is a valid CNPJ.
func IsCNPJ(s string) bool {
	digits := pstrings.OnlyDigits(s)
	if len(digits) != CNPJLength {
		return false
	}
	if _, blocked := cnpjBlacklist[digits]; blocked {
		return false
	}
	return hasCheckDigits(digits, cnpjFirstMultipliers, cnpjSecondMultipliers)
}

// IsCEP reports whether s holds exactly eight digits.
func IsCEP(s string) bool {
	return len(pstrings.OnlyDigits(s)) == CEPLength
}

// IsPhone reports whether s holds a subscriber number (8 or 9 digits),
// optionally prefixed by a two-digit DDD (10 or 11 digits).
func IsPhone(s string) bool {
	switch len(pstrings.OnlyDigits(s)) {
	case 8, 9, 10, 11:
		return true
	default:
		return false
	}
}

// hasCheckDigits verifies the two trailing digits of a digit-only string
// against weights w1 (first check digit) and w2 (second check digit).
func hasCheckDigits(digits string, w1, w2 []int) bool {
	n := len(digits)
	first := checkDigit(digits[:n-2], w1)
	if int(digits[n-2]-'0') != first {
		return false
	}
	second := checkDigit(digits[:n-1], w2)
	return int(digits[n-1]-'0') == second
}

func checkDigit(digits string, weights []int) int {
	sum := 0
	for i, w := range weights {
		sum += int(digits[i]-'0') * w
	}
	remainder := sum % 11
	if remainder < 2 {
		return 0
	}
	return 11 - remainder
}

func repeatedDigits(n int) map[string]struct{} {
	out := make(map[string]struct{}, 10)
	for d := '0'; d <= '9'; d++ {
		out[strings.Repeat(string(d), n)] = struct{}{}
	}
	return out
}
