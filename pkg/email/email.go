// Package email normalizes and validates e-mail addresses.
package email

import (
	"regexp"
	"strings"
)

const (
	MaxLength       = 254
	MaxLocalLength  = 64
	MaxDomainLength = 253
)

// Go's regexp is RE2-based and matches in linear time, so adversarial input
// cannot trigger catastrophic backtracking; the length bounds below keep the
// work small regardless.
var (
	localPattern  = regexp.MustCompile("^[A-Za-z0-9!#$%&'*+/=?^_\x60{|}~-]+(\\.[A-Za-z0-9!#$%&'*+/=?^_\x60{|}~-]+)*$")
	domainPattern = regexp.MustCompile(`^([A-Za-z0-9]([A-Za-z0-9-]{0,61}[A-Za-z0-9])?\.)+[A-Za-z]{2,63}$`)
)

// Normalize trims and lower-cases an address.
func Normalize(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// IsValid reports whether email is a syntactically valid address.
func IsValid(email string) bool {
	if email == "" || len(email) > MaxLength {
		return false
	}
	if strings.Count(email, "@") != 1 {
		return false
	}
	local, domain, _ := strings.Cut(email, "@")
	if local == "" || len(local) > MaxLocalLength {
		return false
	}
	if domain == "" || len(domain) > MaxDomainLength {
		return false
	}
	return localPattern.MatchString(local) && domainPattern.MatchString(domain)
}
