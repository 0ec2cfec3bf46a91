package secrets

import (
	"unicode"

	dErrors "clinic/pkg/domain-errors"
	"clinic/pkg/platform/validation"
)

var (
	MsgPasswordRequired = validation.Message{Key: "password.required", Default: "Password is required"}
	MsgPasswordTooShort = validation.Message{Key: "password.too_short", Default: "Password must be at least %d characters"}
	MsgPasswordTooLong  = validation.Message{Key: "password.too_long", Default: "Password must be at most %d characters"}
	MsgPasswordUpper    = validation.Message{Key: "password.upper", Default: "Password must contain an uppercase letter"}
	MsgPasswordLower    = validation.Message{Key: "password.lower", Default: "Password must contain a lowercase letter"}
	MsgPasswordDigit    = validation.Message{Key: "password.digit", Default: "Password must contain a digit"}
	MsgPasswordSpecial  = validation.Message{Key: "password.special", Default: "Password must contain a special character"}
)

// PasswordPolicy is a composable set of strength requirements.
// MaxLength of zero means unbounded.
type PasswordPolicy struct {
	MinLength      int
	MaxLength      int
	RequireUpper   bool
	RequireLower   bool
	RequireDigit   bool
	RequireSpecial bool
}

// DefaultPasswordPolicy requires 8 to 25 characters with every class present.
func DefaultPasswordPolicy() PasswordPolicy {
	return PasswordPolicy{
		MinLength:      8,
		MaxLength:      25,
		RequireUpper:   true,
		RequireLower:   true,
		RequireDigit:   true,
		RequireSpecial: true,
	}
}

type charClasses struct {
	upper, lower, digit, special bool
}

func classify(password string) charClasses {
	var c charClasses
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			c.upper = true
		case unicode.IsLower(r):
			c.lower = true
		case unicode.IsDigit(r):
			c.digit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r) || unicode.IsSpace(r):
			c.special = true
		}
	}
	return c
}

// Validate records every unmet requirement on c.
func (p PasswordPolicy) Validate(c *validation.Collector, password string) {
	if password == "" {
		c.Add(MsgPasswordRequired)
		return
	}
	length := len([]rune(password))
	classes := classify(password)
	c.When(length < p.MinLength, MsgPasswordTooShort, p.MinLength).
		When(p.MaxLength > 0 && length > p.MaxLength, MsgPasswordTooLong, p.MaxLength).
		When(p.RequireUpper && !classes.upper, MsgPasswordUpper).
		When(p.RequireLower && !classes.lower, MsgPasswordLower).
		When(p.RequireDigit && !classes.digit, MsgPasswordDigit).
		When(p.RequireSpecial && !classes.special, MsgPasswordSpecial)
}

// Strong reports whether password meets every requirement.
func (p PasswordPolicy) Strong(password string) bool {
	c := validation.NewCollector()
	p.Validate(c, password)
	return !c.HasViolations()
}

// IsPasswordStrong is the flat form of PasswordPolicy.Strong with no upper bound.
func IsPasswordStrong(password string, minLength int, requireUpper, requireLower, requireDigit, requireSpecial bool) bool {
	return PasswordPolicy{
		MinLength:      minLength,
		RequireUpper:   requireUpper,
		RequireLower:   requireLower,
		RequireDigit:   requireDigit,
		RequireSpecial: requireSpecial,
	}.Strong(password)
}

// Check returns the violations password produces under p, in rule order.
func (p PasswordPolicy) Check(password string) []dErrors.Violation {
	c := validation.NewCollector()
	p.Validate(c, password)
	return c.Violations()
}
