package models

import (
	"clinic/internal/contact"
	id "clinic/pkg/domain"
)

type CreateOrganizationRequest struct {
	TradeName string                `json:"trade_name"`
	LegalName string                `json:"legal_name"`
	CNPJ      string                `json:"cnpj"`
	Phones    []contact.PhoneParams `json:"phones"`
}

func (r CreateOrganizationRequest) Params() Params {
	return Params{TradeName: r.TradeName, LegalName: r.LegalName, CNPJ: r.CNPJ}
}

type UpdateOrganizationRequest struct {
	TradeName string `json:"trade_name"`
	LegalName string `json:"legal_name"`
	CNPJ      string `json:"cnpj"`
}

func (r UpdateOrganizationRequest) Params() Params {
	return Params{TradeName: r.TradeName, LegalName: r.LegalName, CNPJ: r.CNPJ}
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

type LinkProfessionalRequest struct {
	ProfessionalID string `json:"professional_id"`
}

// ListResponse wraps a page of organizations.
type ListResponse struct {
	Organizations []*Organization `json:"organizations"`
	Limit         int             `json:"limit"`
	Offset        int             `json:"offset"`
}

// ProfessionalSummary is the read model of a linked professional used by
// listings and the spreadsheet export.
type ProfessionalSummary struct {
	ID                 id.ProfessionalID `json:"id"`
	Name               string            `json:"name"`
	Type               string            `json:"type"`
	Board              string            `json:"board"`
	RegistrationNumber string            `json:"registration_number"`
	Document           string            `json:"document"`
	Email              string            `json:"email"`
	Phone              string            `json:"phone"`
	Active             bool              `json:"active"`
}

// RosterFile is a rendered roster ready to be sent as an attachment.
type RosterFile struct {
	FileName    string
	ContentType string
	Content     []byte
}
