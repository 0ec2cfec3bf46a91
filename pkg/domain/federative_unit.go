package domain

import (
	"strings"

	dErrors "clinic/pkg/domain-errors"
)

// FederativeUnit is a Brazilian state abbreviation (UF).
// Invariant: the value is one of the 27 units, upper case.
//
// Construct via ParseFederativeUnit at trust boundaries; direct casting
// bypasses validation.
type FederativeUnit string

var federativeUnits = map[FederativeUnit]bool{
	"AC": true, "AL": true, "AP": true, "AM": true, "BA": true, "CE": true,
	"DF": true, "ES": true, "GO": true, "MA": true, "MT": true, "MS": true,
	"MG": true, "PA": true, "PB": true, "PR": true, "PE": true, "PI": true,
	"RJ": true, "RN": true, "RS": true, "RO": true, "RR": true, "SC": true,
	"SP": true, "SE": true, "TO": true,
}

// ParseFederativeUnit normalizes (trim, upper case) and validates a UF.
//
// Errors: returns CodeInvalidInput when the value is empty or unknown.
func ParseFederativeUnit(s string) (FederativeUnit, error) {
	u := FederativeUnit(strings.ToUpper(strings.TrimSpace(s)))
	if u == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "state cannot be empty")
	}
	if !u.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid state")
	}
	return u, nil
}

// IsValid checks the unit against the allowlist.
func (u FederativeUnit) IsValid() bool {
	return federativeUnits[u]
}

func (u FederativeUnit) String() string {
	return string(u)
}
