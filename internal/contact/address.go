package contact

import (
	"clinic/pkg/document"
	"clinic/pkg/domain"
	"clinic/pkg/platform/strings"
	"clinic/pkg/platform/validation"
)

const (
	MaxStreetLength     = 150
	MaxNumberLength     = 10
	MaxComplementLength = 100
	MaxDistrictLength   = 100
	MaxCityLength       = 100
)

var (
	MsgStreetRequired    = validation.Message{Key: "address.street.required", Default: "Street is required"}
	MsgStreetTooLong     = validation.Message{Key: "address.street.too_long", Default: "Street must be at most %d characters"}
	MsgNumberRequired    = validation.Message{Key: "address.number.required", Default: "Number is required"}
	MsgNumberTooLong     = validation.Message{Key: "address.number.too_long", Default: "Number must be at most %d characters"}
	MsgComplementTooLong = validation.Message{Key: "address.complement.too_long", Default: "Complement must be at most %d characters"}
	MsgDistrictRequired  = validation.Message{Key: "address.district.required", Default: "District is required"}
	MsgDistrictTooLong   = validation.Message{Key: "address.district.too_long", Default: "District must be at most %d characters"}
	MsgZipCodeRequired   = validation.Message{Key: "address.zip_code.required", Default: "ZIP code is required"}
	MsgZipCodeInvalid    = validation.Message{Key: "address.zip_code.invalid", Default: "ZIP code is invalid"}
	MsgCityRequired      = validation.Message{Key: "address.city.required", Default: "City is required"}
	MsgCityTooLong       = validation.Message{Key: "address.city.too_long", Default: "City must be at most %d characters"}
	MsgStateRequired     = validation.Message{Key: "address.state.required", Default: "State is required"}
	MsgStateInvalid      = validation.Message{Key: "address.state.invalid", Default: "State is invalid"}
)

// Address is a Brazilian postal address.
type Address struct {
	ID         domain.AddressID      `json:"id"`
	Street     string                `json:"street"`
	Number     string                `json:"number"`
	Complement string                `json:"complement,omitempty"`
	District   string                `json:"district"`
	ZipCode    string                `json:"zip_code"`
	City       string                `json:"city"`
	State      domain.FederativeUnit `json:"state"`
}

// AddressParams is the raw input accepted by NewAddress.
type AddressParams struct {
	Street     string `json:"street"`
	Number     string `json:"number"`
	Complement string `json:"complement"`
	District   string `json:"district"`
	ZipCode    string `json:"zip_code"`
	City       string `json:"city"`
	State      string `json:"state"`
}

// Normalize collapses whitespace, strips the CEP mask and upper-cases the UF.
func (p AddressParams) Normalize() AddressParams {
	p.Street = strings.CollapseSpaces(p.Street)
	p.Number = strings.CollapseSpaces(p.Number)
	p.Complement = strings.CollapseSpaces(p.Complement)
	p.District = strings.CollapseSpaces(p.District)
	p.ZipCode = strings.OnlyDigits(p.ZipCode)
	p.City = strings.CollapseSpaces(p.City)
	p.State = strings.ToUpper(p.State)
	return p
}

// Validate records every address violation in c. Params must be normalized.
func (p AddressParams) Validate(c *validation.Collector) {
	required(c, p.Street, MaxStreetLength, MsgStreetRequired, MsgStreetTooLong)
	required(c, p.Number, MaxNumberLength, MsgNumberRequired, MsgNumberTooLong)
	c.When(strings.Length(p.Complement) > MaxComplementLength, MsgComplementTooLong, MaxComplementLength)
	required(c, p.District, MaxDistrictLength, MsgDistrictRequired, MsgDistrictTooLong)

	switch {
	case p.ZipCode == "":
		c.Add(MsgZipCodeRequired)
	case !document.IsCEP(p.ZipCode):
		c.Add(MsgZipCodeInvalid)
	}

	required(c, p.City, MaxCityLength, MsgCityRequired, MsgCityTooLong)

	switch {
	case p.State == "":
		c.Add(MsgStateRequired)
	case !domain.FederativeUnit(p.State).IsValid():
		c.Add(MsgStateInvalid)
	}
}

// NewAddress normalizes and validates params.
// Errors: one CodeValidation error listing every violation.
func NewAddress(addressID domain.AddressID, params AddressParams) (Address, error) {
	params = params.Normalize()
	c := validation.NewCollector()
	params.Validate(c)
	if err := c.Err(); err != nil {
		return Address{}, err
	}
	return Address{
		ID:         addressID,
		Street:     params.Street,
		Number:     params.Number,
		Complement: params.Complement,
		District:   params.District,
		ZipCode:    params.ZipCode,
		City:       params.City,
		State:      domain.FederativeUnit(params.State),
	}, nil
}

// FormattedZipCode renders the CEP as 00000-000.
func (a Address) FormattedZipCode() string {
	return strings.FormatCEP(a.ZipCode)
}

func required(c *validation.Collector, value string, limit int, missing, tooLong validation.Message) {
	switch {
	case value == "":
		c.Add(missing)
	case strings.Length(value) > limit:
		c.Add(tooLong, limit)
	}
}
