package models

import (
	"clinic/internal/contact"
	"clinic/pkg/platform/strings"
)

// Address is what a CEP determines about a postal address. Number is never
// part of it.
type Address struct {
	ZipCode    string `json:"zip_code"`
	Street     string `json:"street"`
	Complement string `json:"complement,omitempty"`
	District   string `json:"district"`
	City       string `json:"city"`
	State      string `json:"state"`
}

// FormattedZipCode renders the CEP as 00000-000.
func (a Address) FormattedZipCode() string {
	return strings.FormatCEP(a.ZipCode)
}

// Params returns the address as contact input, leaving Number blank.
func (a Address) Params() contact.AddressParams {
	return contact.AddressParams{
		Street:     a.Street,
		Complement: a.Complement,
		District:   a.District,
		ZipCode:    a.ZipCode,
		City:       a.City,
		State:      a.State,
	}
}
