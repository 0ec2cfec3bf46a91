package models

import (
	"time"

	"clinic/pkg/document"
	"clinic/pkg/platform/strings"
	"clinic/pkg/platform/validation"
)

const (
	MinNameLength = 3
	MaxNameLength = 100
	MaxRGLength   = 20

	// DateLayout is the wire format of birth dates.
	DateLayout = "2006-01-02"
)

// MinBirthDate is the earliest accepted birth date.
var MinBirthDate = time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC)

var (
	MsgNameRequired      = validation.Message{Key: "person.name.required", Default: "Name is required"}
	MsgNameTooShort      = validation.Message{Key: "person.name.too_short", Default: "Name must be at least %d characters"}
	MsgNameTooLong       = validation.Message{Key: "person.name.too_long", Default: "Name must be at most %d characters"}
	MsgDocumentRequired  = validation.Message{Key: "person.document.required", Default: "CPF is required"}
	MsgDocumentInvalid   = validation.Message{Key: "person.document.invalid", Default: "CPF is invalid"}
	MsgRGTooLong         = validation.Message{Key: "person.rg.too_long", Default: "RG must be at most %d characters"}
	MsgRGInvalid         = validation.Message{Key: "person.rg.invalid", Default: "RG must contain only letters and digits"}
	MsgBirthDateInvalid  = validation.Message{Key: "person.birth_date.invalid", Default: "Birth date is invalid"}
	MsgBirthDateFuture   = validation.Message{Key: "person.birth_date.future", Default: "Birth date cannot be in the future"}
	MsgBirthDateTooEarly = validation.Message{Key: "person.birth_date.too_early", Default: "Birth date cannot be before 1900-01-01"}
	MsgGenderInvalid     = validation.Message{Key: "person.gender.invalid", Default: "Gender is invalid"}
)

// Gender as informed by the person.
type Gender string

const (
	GenderNotInformed Gender = "not_informed"
	GenderMale        Gender = "male"
	GenderFemale      Gender = "female"
	GenderOther       Gender = "other"
)

func (g Gender) IsValid() bool {
	switch g {
	case GenderNotInformed, GenderMale, GenderFemale, GenderOther:
		return true
	}
	return false
}

// State is the lifecycle state of a person. There is no physical delete.
type State string

const (
	StateActive   State = "active"
	StateInactive State = "inactive"
)

func (s State) IsValid() bool {
	return s == StateActive || s == StateInactive
}

// Person holds the identity data shared by every kind of professional.
type Person struct {
	Name      string                 `json:"name"`
	Document  string                 `json:"document"`
	RG        string                 `json:"rg,omitempty"`
	BirthDate *time.Time             `json:"birth_date,omitempty"`
	Gender    Gender                 `json:"gender"`
	State     State                  `json:"state"`
	Phones    []*ProfessionalPhone   `json:"phones"`
	Addresses []*ProfessionalAddress `json:"addresses"`
}

// FormattedDocument renders the CPF as 000.000.000-00.
func (p *Person) FormattedDocument() string {
	return strings.FormatCPF(p.Document)
}

// PersonParams is the raw identity input.
type PersonParams struct {
	Name      string `json:"name"`
	Document  string `json:"document"`
	RG        string `json:"rg"`
	BirthDate string `json:"birth_date"`
	Gender    string `json:"gender"`
}

// Normalize title-cases the name, strips document masks and defaults the gender.
func (p PersonParams) Normalize() PersonParams {
	p.Name = strings.ToTitleCase(p.Name)
	p.Document = strings.OnlyDigits(p.Document)
	p.RG = normalizeRG(p.RG)
	p.BirthDate = strings.CollapseSpaces(p.BirthDate)
	p.Gender = strings.ToLower(p.Gender)
	if p.Gender == "" {
		p.Gender = string(GenderNotInformed)
	}
	return p
}

// Validate records identity violations in c. today bounds the birth date.
func (p PersonParams) Validate(c *validation.Collector, today time.Time) {
	switch n := strings.Length(p.Name); {
	case n == 0:
		c.Add(MsgNameRequired)
	case n < MinNameLength:
		c.Add(MsgNameTooShort, MinNameLength)
	case n > MaxNameLength:
		c.Add(MsgNameTooLong, MaxNameLength)
	}

	switch {
	case p.Document == "":
		c.Add(MsgDocumentRequired)
	case !document.IsCPF(p.Document):
		c.Add(MsgDocumentInvalid)
	}

	switch {
	case strings.Length(p.RG) > MaxRGLength:
		c.Add(MsgRGTooLong, MaxRGLength)
	case !isAlphanumeric(p.RG):
		c.Add(MsgRGInvalid)
	}

	if p.BirthDate != "" {
		switch birth, err := time.Parse(DateLayout, p.BirthDate); {
		case err != nil:
			c.Add(MsgBirthDateInvalid)
		case birth.After(today):
			c.Add(MsgBirthDateFuture)
		case birth.Before(MinBirthDate):
			c.Add(MsgBirthDateTooEarly)
		}
	}

	c.When(!Gender(p.Gender).IsValid(), MsgGenderInvalid)
}

// person builds the identity from normalized, validated params.
func (p PersonParams) person() Person {
	person := Person{
		Name:     p.Name,
		Document: p.Document,
		RG:       p.RG,
		Gender:   Gender(p.Gender),
	}
	if p.BirthDate != "" {
		if birth, err := time.Parse(DateLayout, p.BirthDate); err == nil {
			person.BirthDate = &birth
		}
	}
	return person
}

func normalizeRG(rg string) string {
	out := make([]byte, 0, len(rg))
	for i := 0; i < len(rg); i++ {
		switch c := rg[i]; c {
		case '.', '-', ' ', '/':
		default:
			out = append(out, c)
		}
	}
	return strings.ToUpper(string(out))
}

func isAlphanumeric(s string) bool {
	for _, r := range s {
		if (r < '0' || r > '9') && (r < 'A' || r > 'Z') {
			return false
		}
	}
	return true
}
