package models

import (
	"slices"
	"time"

	"clinic/internal/contact"
	id "clinic/pkg/domain"
	dErrors "clinic/pkg/domain-errors"
	"clinic/pkg/email"
	"clinic/pkg/platform/paging"
	"clinic/pkg/platform/strings"
	"clinic/pkg/platform/validation"
)

var MsgEmailInvalid = validation.Message{Key: "professional.email.invalid", Default: "Email is invalid"}

// Type selects the professional variant and its registration board.
type Type string

const (
	TypePsychologist Type = "psychologist"
	TypeNutritionist Type = "nutritionist"
)

// ParseType reads a type received at a trust boundary. Whether the type is
// supported is decided by the registry, not here.
func ParseType(s string) Type {
	return Type(strings.ToLower(s))
}

// ParseState validates a state received at a trust boundary.
func ParseState(s string) (State, error) {
	state := State(strings.ToLower(s))
	if !state.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid professional state")
	}
	return state, nil
}

// Professional is a person registered with a professional board.
//
// Invariants (after NewProfessional):
//   - Person fields are normalized and valid
//   - RegistrationNumber satisfies the rules of Type
//   - at most one phone and at most one address is principal
type Professional struct {
	ID   id.ProfessionalID `json:"id"`
	Type Type              `json:"type"`
	Person
	RegistrationNumber string    `json:"registration_number"`
	Email              string    `json:"email,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// ProfessionalPhone is a phone owned by a professional.
type ProfessionalPhone struct {
	contact.Phone
	contact.Membership
}

// ProfessionalAddress is an address owned by a professional.
type ProfessionalAddress struct {
	contact.Address
	contact.Membership
}

// Params is the raw registration input of a professional.
type Params struct {
	Type Type `json:"type"`
	PersonParams
	RegistrationNumber string `json:"registration_number"`
	Email              string `json:"email"`
}

// Normalize normalizes the identity, trims the registration number and
// lower-cases the email.
func (p Params) Normalize() Params {
	p.Type = ParseType(string(p.Type))
	p.PersonParams = p.PersonParams.Normalize()
	p.RegistrationNumber = strings.CollapseSpaces(p.RegistrationNumber)
	p.Email = email.Normalize(p.Email)
	return p
}

// Validate records the identity and email violations in c. Board-specific
// rules are supplied separately.
func (p Params) Validate(c *validation.Collector, today time.Time) {
	p.PersonParams.Validate(c, today)
	c.When(p.Email != "" && !email.IsValid(p.Email), MsgEmailInvalid)
}

// Rule contributes variant-specific validation on normalized params.
type Rule func(p Params, c *validation.Collector)

func check(params Params, now time.Time, rules []Rule) (Params, error) {
	params = params.Normalize()
	c := validation.NewCollector()
	params.Validate(c, now)
	for _, rule := range rules {
		rule(params, c)
	}
	return params, c.Err()
}

// NewProfessional normalizes and validates params against the common rules
// and rules, and returns an active professional without phones or addresses.
// Errors: one CodeValidation error listing every violation.
func NewProfessional(professionalID id.ProfessionalID, params Params, now time.Time, rules ...Rule) (*Professional, error) {
	params, err := check(params, now, rules)
	if err != nil {
		return nil, err
	}
	person := params.person()
	person.State = StateActive
	person.Phones = []*ProfessionalPhone{}
	person.Addresses = []*ProfessionalAddress{}
	return &Professional{
		ID:                 professionalID,
		Type:               params.Type,
		Person:             person,
		RegistrationNumber: params.RegistrationNumber,
		Email:              params.Email,
		CreatedAt:          now,
		UpdatedAt:          now,
	}, nil
}

// Update replaces the registration fields. The type, state and contacts are
// kept. On failure p is left untouched.
func (p *Professional) Update(params Params, now time.Time, rules ...Rule) error {
	params.Type = p.Type
	params, err := check(params, now, rules)
	if err != nil {
		return err
	}
	person := params.person()
	p.Name = person.Name
	p.Document = person.Document
	p.RG = person.RG
	p.BirthDate = person.BirthDate
	p.Gender = person.Gender
	p.RegistrationNumber = params.RegistrationNumber
	p.Email = params.Email
	p.UpdatedAt = now
	return nil
}

func (p *Professional) IsActive() bool {
	return p.State == StateActive
}

func (p *Professional) Deactivate(now time.Time) error {
	if p.State != StateActive {
		return dErrors.New(dErrors.CodeInvariantViolation, "professional is not active")
	}
	p.State = StateInactive
	p.UpdatedAt = now
	return nil
}

func (p *Professional) Reactivate(now time.Time) error {
	if p.State == StateActive {
		return dErrors.New(dErrors.CodeInvariantViolation, "professional is already active")
	}
	p.State = StateActive
	p.UpdatedAt = now
	return nil
}

// AddPhone attaches phone. The first phone always becomes principal; a
// principal newcomer demotes the current one.
func (p *Professional) AddPhone(phone contact.Phone, principal bool, now time.Time) (*ProfessionalPhone, error) {
	for _, existing := range p.Phones {
		if existing.SameNumber(phone) {
			return nil, dErrors.New(dErrors.CodeConflict, "phone already registered")
		}
	}
	added := &ProfessionalPhone{Phone: phone, Membership: contact.NewMembership(principal, now)}
	p.Phones = contact.Add(p.Phones, added, now)
	p.UpdatedAt = now
	return added, nil
}

func (p *Professional) MarkPrincipalPhone(phoneID id.PhoneID, now time.Time) error {
	i := slices.IndexFunc(p.Phones, func(ph *ProfessionalPhone) bool { return ph.ID == phoneID })
	if i < 0 {
		return dErrors.New(dErrors.CodeNotFound, "phone not found")
	}
	contact.MarkPrincipal(p.Phones, i, now)
	p.UpdatedAt = now
	return nil
}

func (p *Professional) RemovePhone(phoneID id.PhoneID, now time.Time) error {
	i := slices.IndexFunc(p.Phones, func(ph *ProfessionalPhone) bool { return ph.ID == phoneID })
	if i < 0 {
		return dErrors.New(dErrors.CodeNotFound, "phone not found")
	}
	p.Phones = contact.RemoveAt(p.Phones, i, now)
	p.UpdatedAt = now
	return nil
}

// PrincipalPhone returns the principal phone, if any.
func (p *Professional) PrincipalPhone() (*ProfessionalPhone, bool) {
	return contact.PrincipalOf(p.Phones)
}

// AddAddress attaches address following the same principal rules as phones.
func (p *Professional) AddAddress(address contact.Address, principal bool, now time.Time) *ProfessionalAddress {
	added := &ProfessionalAddress{Address: address, Membership: contact.NewMembership(principal, now)}
	p.Addresses = contact.Add(p.Addresses, added, now)
	p.UpdatedAt = now
	return added
}

func (p *Professional) MarkPrincipalAddress(addressID id.AddressID, now time.Time) error {
	i := slices.IndexFunc(p.Addresses, func(a *ProfessionalAddress) bool { return a.ID == addressID })
	if i < 0 {
		return dErrors.New(dErrors.CodeNotFound, "address not found")
	}
	contact.MarkPrincipal(p.Addresses, i, now)
	p.UpdatedAt = now
	return nil
}

func (p *Professional) RemoveAddress(addressID id.AddressID, now time.Time) error {
	i := slices.IndexFunc(p.Addresses, func(a *ProfessionalAddress) bool { return a.ID == addressID })
	if i < 0 {
		return dErrors.New(dErrors.CodeNotFound, "address not found")
	}
	p.Addresses = contact.RemoveAt(p.Addresses, i, now)
	p.UpdatedAt = now
	return nil
}

// Clone returns a deep copy so stores never share children with callers.
func (p *Professional) Clone() *Professional {
	c := *p
	if p.BirthDate != nil {
		birth := *p.BirthDate
		c.BirthDate = &birth
	}
	c.Phones = make([]*ProfessionalPhone, len(p.Phones))
	for i, ph := range p.Phones {
		cp := *ph
		c.Phones[i] = &cp
	}
	c.Addresses = make([]*ProfessionalAddress, len(p.Addresses))
	for i, a := range p.Addresses {
		ca := *a
		c.Addresses[i] = &ca
	}
	return &c
}

// Filter narrows professional listings. Zero fields match everything.
type Filter struct {
	Type     Type
	State    State
	Name     string
	Document string
	Limit    int
	Offset   int
}

func (f Filter) Page() (limit, offset int) {
	return paging.Clamp(f.Limit, f.Offset)
}
