package models

import "clinic/internal/contact"

type CreateProfessionalRequest struct {
	Params
	Phones    []contact.PhoneParams   `json:"phones"`
	Addresses []contact.AddressParams `json:"addresses"`
}

type UpdateProfessionalRequest struct {
	PersonParams
	RegistrationNumber string `json:"registration_number"`
	Email              string `json:"email"`
}

func (r UpdateProfessionalRequest) Params() Params {
	return Params{PersonParams: r.PersonParams, RegistrationNumber: r.RegistrationNumber, Email: r.Email}
}

type AddPhoneRequest struct {
	DDI       string `json:"ddi"`
	DDD       string `json:"ddd"`
	Number    string `json:"number"`
	Principal bool   `json:"is_principal"`
}

func (r AddPhoneRequest) Params() contact.PhoneParams {
	return contact.PhoneParams{DDI: r.DDI, DDD: r.DDD, Number: r.Number}
}

// AddAddressRequest carries a new address. Blank street, district, city and
// state are filled from the CEP lookup when one is configured.
type AddAddressRequest struct {
	contact.AddressParams
	Principal bool `json:"is_principal"`
}

// ListResponse wraps a page of professionals.
type ListResponse struct {
	Professionals []*Professional `json:"professionals"`
	Limit         int             `json:"limit"`
	Offset        int             `json:"offset"`
}
