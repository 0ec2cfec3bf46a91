package domain

import (
	"strings"

	"github.com/google/uuid"

	dErrors "clinic/pkg/domain-errors"
)

// Typed identifiers keep aggregates from being mixed up at compile time.
type (
	UserID         uuid.UUID
	OrganizationID uuid.UUID
	ProfessionalID uuid.UUID
	PhoneID        uuid.UUID
	AddressID      uuid.UUID
)

func NewUserID() UserID                 { return UserID(uuid.New()) }
func NewOrganizationID() OrganizationID { return OrganizationID(uuid.New()) }
func NewProfessionalID() ProfessionalID { return ProfessionalID(uuid.New()) }
func NewPhoneID() PhoneID               { return PhoneID(uuid.New()) }
func NewAddressID() AddressID           { return AddressID(uuid.New()) }

func (i UserID) String() string         { return uuid.UUID(i).String() }
func (i OrganizationID) String() string { return uuid.UUID(i).String() }
func (i ProfessionalID) String() string { return uuid.UUID(i).String() }
func (i PhoneID) String() string        { return uuid.UUID(i).String() }
func (i AddressID) String() string      { return uuid.UUID(i).String() }

func (i UserID) IsNil() bool         { return uuid.UUID(i) == uuid.Nil }
func (i OrganizationID) IsNil() bool { return uuid.UUID(i) == uuid.Nil }
func (i ProfessionalID) IsNil() bool { return uuid.UUID(i) == uuid.Nil }
func (i PhoneID) IsNil() bool        { return uuid.UUID(i) == uuid.Nil }
func (i AddressID) IsNil() bool      { return uuid.UUID(i) == uuid.Nil }

func (i UserID) MarshalText() ([]byte, error)         { return uuid.UUID(i).MarshalText() }
func (i OrganizationID) MarshalText() ([]byte, error) { return uuid.UUID(i).MarshalText() }
func (i ProfessionalID) MarshalText() ([]byte, error) { return uuid.UUID(i).MarshalText() }
func (i PhoneID) MarshalText() ([]byte, error)        { return uuid.UUID(i).MarshalText() }
func (i AddressID) MarshalText() ([]byte, error)      { return uuid.UUID(i).MarshalText() }

func (i *UserID) UnmarshalText(b []byte) error         { return (*uuid.UUID)(i).UnmarshalText(b) }
func (i *OrganizationID) UnmarshalText(b []byte) error { return (*uuid.UUID)(i).UnmarshalText(b) }
func (i *ProfessionalID) UnmarshalText(b []byte) error { return (*uuid.UUID)(i).UnmarshalText(b) }
func (i *PhoneID) UnmarshalText(b []byte) error        { return (*uuid.UUID)(i).UnmarshalText(b) }
func (i *AddressID) UnmarshalText(b []byte) error      { return (*uuid.UUID)(i).UnmarshalText(b) }

// ParseUserID parses a user ID at a trust boundary.
// Empty, malformed and nil UUIDs are rejected with CodeInvalidInput.
func ParseUserID(s string) (UserID, error) {
	u, err := parseUUID(s, "user ID")
	return UserID(u), err
}

func ParseOrganizationID(s string) (OrganizationID, error) {
	u, err := parseUUID(s, "organization ID")
	return OrganizationID(u), err
}

func ParseProfessionalID(s string) (ProfessionalID, error) {
	u, err := parseUUID(s, "professional ID")
	return ProfessionalID(u), err
}

func ParsePhoneID(s string) (PhoneID, error) {
	u, err := parseUUID(s, "phone ID")
	return PhoneID(u), err
}

func ParseAddressID(s string) (AddressID, error) {
	u, err := parseUUID(s, "address ID")
	return AddressID(u), err
}

func parseUUID(s, label string) (uuid.UUID, error) {
	if strings.TrimSpace(s) == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" is required")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+label)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+label)
	}
	return u, nil
}
