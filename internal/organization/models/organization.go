package models

import (
	"time"

	"clinic/internal/contact"
	"clinic/pkg/document"
	id "clinic/pkg/domain"
	dErrors "clinic/pkg/domain-errors"
	"clinic/pkg/platform/paging"
	"clinic/pkg/platform/strings"
	"clinic/pkg/platform/validation"
)

const (
	MaxTradeNameLength = 150
	MaxLegalNameLength = 150
)

var (
	MsgTradeNameRequired = validation.Message{Key: "organization.trade_name.required", Default: "Trade name is required"}
	MsgTradeNameTooLong  = validation.Message{Key: "organization.trade_name.too_long", Default: "Trade name must be at most %d characters"}
	MsgLegalNameRequired = validation.Message{Key: "organization.legal_name.required", Default: "Legal name is required"}
	MsgLegalNameTooLong  = validation.Message{Key: "organization.legal_name.too_long", Default: "Legal name must be at most %d characters"}
	MsgCNPJRequired      = validation.Message{Key: "organization.cnpj.required", Default: "CNPJ is required"}
	MsgCNPJInvalid       = validation.Message{Key: "organization.cnpj.invalid", Default: "CNPJ is invalid"}
)

// State is the lifecycle state of an organization or of a professional link.
type State string

const (
	StateActive   State = "active"
	StateInactive State = "inactive"
)

func (s State) IsValid() bool {
	return s == StateActive || s == StateInactive
}

// ParseState validates a state received at a trust boundary.
func ParseState(s string) (State, error) {
	state := State(strings.ToLower(s))
	if !state.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid organization state")
	}
	return state, nil
}

// Organization is a clinic: the aggregate root owning its phones and its
// links to professionals.
//
// Invariants:
//   - TradeName and LegalName are present and at most 150 characters
//   - CNPJ holds 14 digits with valid check digits
//   - at most one phone is principal, and there is one whenever phones exist
//   - a professional is linked at most once
type Organization struct {
	ID            id.OrganizationID           `json:"id"`
	TradeName     string                      `json:"trade_name"`
	LegalName     string                      `json:"legal_name"`
	CNPJ          string                      `json:"cnpj"`
	State         State                       `json:"state"`
	Phones        []*OrganizationPhone        `json:"phones"`
	Professionals []*OrganizationProfessional `json:"professionals"`
	CreatedAt     time.Time                   `json:"created_at"`
	UpdatedAt     time.Time                   `json:"updated_at"`
}

// OrganizationPhone is a phone owned by an organization.
type OrganizationPhone struct {
	contact.Phone
	contact.Membership
}

// OrganizationProfessional links a professional to an organization.
// Unlinking keeps the row and flips State to inactive.
type OrganizationProfessional struct {
	ProfessionalID id.ProfessionalID `json:"professional_id"`
	State          State             `json:"state"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

func (l *OrganizationProfessional) IsActive() bool {
	return l.State == StateActive
}

// Params carries the registration fields of an organization.
type Params struct {
	TradeName string `json:"trade_name"`
	LegalName string `json:"legal_name"`
	CNPJ      string `json:"cnpj"`
}

// Normalize collapses whitespace in the names and strips the CNPJ mask.
func (p Params) Normalize() Params {
	p.TradeName = strings.CollapseSpaces(p.TradeName)
	p.LegalName = strings.CollapseSpaces(p.LegalName)
	p.CNPJ = strings.OnlyDigits(p.CNPJ)
	return p
}

// Validate records every violation in c. Params must be normalized.
func (p Params) Validate(c *validation.Collector) {
	switch n := strings.Length(p.TradeName); {
	case n == 0:
		c.Add(MsgTradeNameRequired)
	case n > MaxTradeNameLength:
		c.Add(MsgTradeNameTooLong, MaxTradeNameLength)
	}

	switch n := strings.Length(p.LegalName); {
	case n == 0:
		c.Add(MsgLegalNameRequired)
	case n > MaxLegalNameLength:
		c.Add(MsgLegalNameTooLong, MaxLegalNameLength)
	}

	switch {
	case p.CNPJ == "":
		c.Add(MsgCNPJRequired)
	case !document.IsCNPJ(p.CNPJ):
		c.Add(MsgCNPJInvalid)
	}
}

// NewOrganization normalizes and validates params and returns an active
// organization without phones or professionals.
func NewOrganization(orgID id.OrganizationID, params Params, now time.Time) (*Organization, error) {
	params = params.Normalize()
	c := validation.NewCollector()
	params.Validate(c)
	if err := c.Err(); err != nil {
		return nil, err
	}
	return &Organization{
		ID:            orgID,
		TradeName:     params.TradeName,
		LegalName:     params.LegalName,
		CNPJ:          params.CNPJ,
		State:         StateActive,
		Phones:        []*OrganizationPhone{},
		Professionals: []*OrganizationProfessional{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// Update replaces the registration fields. On failure o is left untouched.
func (o *Organization) Update(params Params, now time.Time) error {
	params = params.Normalize()
	c := validation.NewCollector()
	params.Validate(c)
	if err := c.Err(); err != nil {
		return err
	}
	o.TradeName = params.TradeName
	o.LegalName = params.LegalName
	o.CNPJ = params.CNPJ
	o.UpdatedAt = now
	return nil
}

// FormattedCNPJ renders the CNPJ as "11.222.333/0001-81".
func (o *Organization) FormattedCNPJ() string {
	return strings.FormatCNPJ(o.CNPJ)
}

func (o *Organization) IsActive() bool {
	return o.State == StateActive
}

func (o *Organization) Deactivate(now time.Time) error {
	if o.State != StateActive {
		return dErrors.New(dErrors.CodeInvariantViolation, "organization is not active")
	}
	o.State = StateInactive
	o.UpdatedAt = now
	return nil
}

func (o *Organization) Reactivate(now time.Time) error {
	if o.State == StateActive {
		return dErrors.New(dErrors.CodeInvariantViolation, "organization is already active")
	}
	o.State = StateActive
	o.UpdatedAt = now
	return nil
}

// AddPhone attaches phone. The first phone always becomes principal; a
// principal newcomer demotes the current one.
func (o *Organization) AddPhone(phone contact.Phone, principal bool, now time.Time) (*OrganizationPhone, error) {
	for _, existing := range o.Phones {
		if existing.SameNumber(phone) {
			return nil, dErrors.New(dErrors.CodeConflict, "phone already registered")
		}
	}
	added := &OrganizationPhone{Phone: phone, Membership: contact.NewMembership(principal, now)}
	o.Phones = contact.Add(o.Phones, added, now)
	o.UpdatedAt = now
	return added, nil
}

// MarkPrincipalPhone makes phoneID the principal phone.
func (o *Organization) MarkPrincipalPhone(phoneID id.PhoneID, now time.Time) error {
	i := o.phoneIndex(phoneID)
	if i < 0 {
		return dErrors.New(dErrors.CodeNotFound, "phone not found")
	}
	contact.MarkPrincipal(o.Phones, i, now)
	o.UpdatedAt = now
	return nil
}

// RemovePhone detaches phoneID, promoting another phone when the principal goes.
func (o *Organization) RemovePhone(phoneID id.PhoneID, now time.Time) error {
	i := o.phoneIndex(phoneID)
	if i < 0 {
		return dErrors.New(dErrors.CodeNotFound, "phone not found")
	}
	o.Phones = contact.RemoveAt(o.Phones, i, now)
	o.UpdatedAt = now
	return nil
}

// PrincipalPhone returns the principal phone, if any.
func (o *Organization) PrincipalPhone() (*OrganizationPhone, bool) {
	return contact.PrincipalOf(o.Phones)
}

func (o *Organization) phoneIndex(phoneID id.PhoneID) int {
	for i, p := range o.Phones {
		if p.ID == phoneID {
			return i
		}
	}
	return -1
}

// LinkProfessional links professionalID, reviving an inactive link.
func (o *Organization) LinkProfessional(professionalID id.ProfessionalID, now time.Time) error {
	if !o.IsActive() {
		return dErrors.New(dErrors.CodeInvariantViolation, "organization is not active")
	}
	if link := o.link(professionalID); link != nil {
		if link.IsActive() {
			return dErrors.New(dErrors.CodeConflict, "professional already linked")
		}
		link.State = StateActive
		link.UpdatedAt = now
		o.UpdatedAt = now
		return nil
	}
	o.Professionals = append(o.Professionals, &OrganizationProfessional{
		ProfessionalID: professionalID,
		State:          StateActive,
		CreatedAt:      now,
		UpdatedAt:      now,
	})
	o.UpdatedAt = now
	return nil
}

// UnlinkProfessional deactivates the link to professionalID.
func (o *Organization) UnlinkProfessional(professionalID id.ProfessionalID, now time.Time) error {
	link := o.link(professionalID)
	if link == nil || !link.IsActive() {
		return dErrors.New(dErrors.CodeNotFound, "professional is not linked")
	}
	link.State = StateInactive
	link.UpdatedAt = now
	o.UpdatedAt = now
	return nil
}

// ActiveProfessionalIDs lists the professionals currently linked, in link order.
func (o *Organization) ActiveProfessionalIDs() []id.ProfessionalID {
	out := make([]id.ProfessionalID, 0, len(o.Professionals))
	for _, link := range o.Professionals {
		if link.IsActive() {
			out = append(out, link.ProfessionalID)
		}
	}
	return out
}

func (o *Organization) link(professionalID id.ProfessionalID) *OrganizationProfessional {
	for _, link := range o.Professionals {
		if link.ProfessionalID == professionalID {
			return link
		}
	}
	return nil
}

// Clone returns a deep copy so stores never share children with callers.
func (o *Organization) Clone() *Organization {
	c := *o
	c.Phones = make([]*OrganizationPhone, len(o.Phones))
	for i, p := range o.Phones {
		cp := *p
		c.Phones[i] = &cp
	}
	c.Professionals = make([]*OrganizationProfessional, len(o.Professionals))
	for i, l := range o.Professionals {
		cl := *l
		c.Professionals[i] = &cl
	}
	return &c
}

// Filter narrows organization listings. Zero fields match everything.
type Filter struct {
	State  State
	Name   string
	CNPJ   string
	Limit  int
	Offset int
}

func (f Filter) Page() (limit, offset int) {
	return paging.Clamp(f.Limit, f.Offset)
}
