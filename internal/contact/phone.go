package contact

import (
	"clinic/pkg/document"
	id "clinic/pkg/domain"
	"clinic/pkg/platform/strings"
	"clinic/pkg/platform/validation"
)

// DefaultDDI is the Brazilian country calling code.
const DefaultDDI = "55"

var (
	MsgPhoneDDIInvalid     = validation.Message{Key: "phone.ddi.invalid", Default: "DDI must have 1 to 3 digits"}
	MsgPhoneDDDRequired    = validation.Message{Key: "phone.ddd.required", Default: "DDD is required"}
	MsgPhoneDDDInvalid     = validation.Message{Key: "phone.ddd.invalid", Default: "DDD must have 2 digits"}
	MsgPhoneNumberRequired = validation.Message{Key: "phone.number.required", Default: "Phone number is required"}
	MsgPhoneNumberInvalid  = validation.Message{Key: "phone.number.invalid", Default: "Phone number must have 8 or 9 digits"}
	MsgPhoneInvalid        = validation.Message{Key: "phone.invalid", Default: "Phone is invalid"}
)

// Phone is a Brazilian telephone number split into its dialing parts.
//
// Invariants (after NewPhone):
//   - DDI has 1 to 3 digits, "55" when not informed
//   - DDD has 2 digits and does not start with 0
//   - Number has 8 or 9 digits
type Phone struct {
	ID     id.PhoneID `json:"id"`
	DDI    string     `json:"ddi"`
	DDD    string     `json:"ddd"`
	Number string     `json:"number"`
}

// PhoneParams is the raw input accepted by NewPhone.
type PhoneParams struct {
	DDI    string `json:"ddi"`
	DDD    string `json:"ddd"`
	Number string `json:"number"`
}

// Normalize keeps only the digits of each part and defaults the DDI.
func (p PhoneParams) Normalize() PhoneParams {
	p.DDI = strings.OnlyDigits(p.DDI)
	if p.DDI == "" {
		p.DDI = DefaultDDI
	}
	p.DDD = strings.OnlyDigits(p.DDD)
	p.Number = strings.OnlyDigits(p.Number)
	return p
}

// Validate records every phone violation in c. Params must be normalized.
func (p PhoneParams) Validate(c *validation.Collector) {
	c.When(len(p.DDI) < 1 || len(p.DDI) > 3, MsgPhoneDDIInvalid)

	switch {
	case p.DDD == "":
		c.Add(MsgPhoneDDDRequired)
	case len(p.DDD) != 2 || p.DDD[0] == '0':
		c.Add(MsgPhoneDDDInvalid)
	}

	switch {
	case p.Number == "":
		c.Add(MsgPhoneNumberRequired)
	case len(p.Number) != 8 && len(p.Number) != 9:
		c.Add(MsgPhoneNumberInvalid)
	}

	if !c.HasViolations() {
		c.When(!document.IsPhone(p.DDD+p.Number), MsgPhoneInvalid)
	}
}

// NewPhone normalizes and validates params.
// Errors: one CodeValidation error listing every violation.
func NewPhone(phoneID id.PhoneID, params PhoneParams) (Phone, error) {
	params = params.Normalize()
	c := validation.NewCollector()
	params.Validate(c)
	if err := c.Err(); err != nil {
		return Phone{}, err
	}
	return Phone{
		ID:     phoneID,
		DDI:    params.DDI,
		DDD:    params.DDD,
		Number: params.Number,
	}, nil
}

// Digits returns DDD and number without formatting.
func (p Phone) Digits() string {
	return p.DDD + p.Number
}

// Formatted renders the phone as "+55 (11) 98765-4321".
func (p Phone) Formatted() string {
	return "+" + p.DDI + " " + strings.FormatPhone(p.Digits())
}

// SameNumber reports whether both phones dial the same line.
func (p Phone) SameNumber(other Phone) bool {
	return p.DDI == other.DDI && p.DDD == other.DDD && p.Number == other.Number
}
