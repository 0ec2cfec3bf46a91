package models

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clinic/internal/contact"
	id "clinic/pkg/domain"
	dErrors "clinic/pkg/domain-errors"
	"clinic/pkg/platform/validation"
)

var now = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

var msgBoardRequired = validation.Message{Key: "test.board.required", Default: "Board is required"}

func requireBoard(p Params, c *validation.Collector) {
	c.When(p.RegistrationNumber == "", msgBoardRequired)
}

func validParams() Params {
	return Params{
		Type: TypePsychologist,
		PersonParams: PersonParams{
			Name:      "  maria   DA silva ",
			Document:  "529.982.247-25",
			RG:        "12.345.678-x",
			BirthDate: "1988-04-21",
		},
		RegistrationNumber: "06/123456",
		Email:              " Maria@Example.COM ",
	}
}

func newProfessional(t *testing.T) *Professional {
	t.Helper()
	p, err := NewProfessional(id.NewProfessionalID(), validParams(), now, requireBoard)
	require.NoError(t, err)
	return p
}

func newPhone(t *testing.T, number string) contact.Phone {
	t.Helper()
	phone, err := contact.NewPhone(id.NewPhoneID(), contact.PhoneParams{DDD: "11", Number: number})
	require.NoError(t, err)
	return phone
}

func newAddress(t *testing.T, number string) contact.Address {
	t.Helper()
	address, err := contact.NewAddress(id.NewAddressID(), contact.AddressParams{
		Street: "Avenida Paulista", Number: number, District: "Bela Vista",
		ZipCode: "01310-100", City: "São Paulo", State: "sp",
	})
	require.NoError(t, err)
	return address
}

func TestNewProfessional(t *testing.T) {
	t.Run("normalizes identity fields", func(t *testing.T) {
		p := newProfessional(t)
		assert.Equal(t, "Maria Da Silva", p.Name)
		assert.Equal(t, "52998224725", p.Document)
		assert.Equal(t, "529.982.247-25", p.FormattedDocument())
		assert.Equal(t, "12345678X", p.RG)
		assert.Equal(t, "maria@example.com", p.Email)
		assert.Equal(t, GenderNotInformed, p.Gender)
		assert.Equal(t, StateActive, p.State)
		require.NotNil(t, p.BirthDate)
		assert.Equal(t, "1988-04-21", p.BirthDate.Format(DateLayout))
		assert.Empty(t, p.Phones)
		assert.Empty(t, p.Addresses)
	})

	t.Run("birth date and rg are optional", func(t *testing.T) {
		params := validParams()
		params.BirthDate = ""
		params.RG = ""
		params.Email = ""
		p, err := NewProfessional(id.NewProfessionalID(), params, now)
		require.NoError(t, err)
		assert.Nil(t, p.BirthDate)
		assert.Empty(t, p.RG)
	})

	tests := []struct {
		name   string
		mutate func(*Params)
		want   []string
	}{
		{"missing name", func(p *Params) { p.Name = "  " }, []string{"Name is required"}},
		{"short name", func(p *Params) { p.Name = "Al" }, []string{"Name must be at least 3 characters"}},
		{"long name", func(p *Params) { p.Name = strings.Repeat("a", MaxNameLength+1) }, []string{"Name must be at most 100 characters"}},
		{"missing CPF", func(p *Params) { p.Document = "" }, []string{"CPF is required"}},
		{"repeated digit CPF", func(p *Params) { p.Document = "111.111.111-11" }, []string{"CPF is invalid"}},
		{"wrong CPF check digit", func(p *Params) { p.Document = "529.982.247-24" }, []string{"CPF is invalid"}},
		{"rg with symbols", func(p *Params) { p.RG = "12#45" }, []string{"RG must contain only letters and digits"}},
		{"long rg", func(p *Params) { p.RG = strings.Repeat("9", MaxRGLength+1) }, []string{"RG must be at most 20 characters"}},
		{"unparseable birth date", func(p *Params) { p.BirthDate = "21/04/1988" }, []string{"Birth date is invalid"}},
		{"future birth date", func(p *Params) { p.BirthDate = "2026-03-11" }, []string{"Birth date cannot be in the future"}},
		{"ancient birth date", func(p *Params) { p.BirthDate = "1899-12-31" }, []string{"Birth date cannot be before 1900-01-01"}},
		{"unknown gender", func(p *Params) { p.Gender = "robot" }, []string{"Gender is invalid"}},
		{"bad email", func(p *Params) { p.Email = "maria.example.com" }, []string{"Email is invalid"}},
		{"rule violation", func(p *Params) { p.RegistrationNumber = " " }, []string{"Board is required"}},
		{"violations in field order", func(p *Params) { p.Name = ""; p.Document = ""; p.RegistrationNumber = "" }, []string{"Name is required", "CPF is required", "Board is required"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := validParams()
			tt.mutate(&params)
			p, err := NewProfessional(id.NewProfessionalID(), params, now, requireBoard)
			require.Error(t, err)
			assert.Nil(t, p)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
			assert.Equal(t, tt.want, dErrors.Messages(err))
		})
	}
}

func TestUpdate(t *testing.T) {
	t.Run("replaces registration fields and keeps the type", func(t *testing.T) {
		p := newProfessional(t)
		params := validParams()
		params.Type = TypeNutritionist
		params.Name = "Maria Souza"
		params.Gender = "FEMALE"
		later := now.Add(time.Hour)

		require.NoError(t, p.Update(params, later, requireBoard))
		assert.Equal(t, TypePsychologist, p.Type)
		assert.Equal(t, "Maria Souza", p.Name)
		assert.Equal(t, GenderFemale, p.Gender)
		assert.Equal(t, later, p.UpdatedAt)
		assert.Equal(t, now, p.CreatedAt)
	})

	t.Run("failure leaves the professional untouched", func(t *testing.T) {
		p := newProfessional(t)
		before := p.Clone()
		params := validParams()
		params.Name = "Joana Lima"
		params.RegistrationNumber = ""

		err := p.Update(params, now.Add(time.Hour), requireBoard)
		require.Error(t, err)
		assert.Equal(t, []string{"Board is required"}, dErrors.Messages(err))
		assert.Equal(t, before, p)
	})
}

func TestTransitions(t *testing.T) {
	p := newProfessional(t)
	require.NoError(t, p.Deactivate(now))
	assert.False(t, p.IsActive())
	assert.True(t, dErrors.HasCode(p.Deactivate(now), dErrors.CodeInvariantViolation))
	require.NoError(t, p.Reactivate(now))
	assert.True(t, p.IsActive())
	assert.True(t, dErrors.HasCode(p.Reactivate(now), dErrors.CodeInvariantViolation))
}

func TestPhones(t *testing.T) {
	p := newProfessional(t)
	first, err := p.AddPhone(newPhone(t, "987654321"), false, now)
	require.NoError(t, err)
	assert.True(t, first.IsPrincipal())

	second, err := p.AddPhone(newPhone(t, "912345678"), true, now)
	require.NoError(t, err)
	assert.True(t, second.IsPrincipal())
	assert.False(t, first.IsPrincipal())

	_, err = p.AddPhone(newPhone(t, "912345678"), false, now)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))

	require.NoError(t, p.MarkPrincipalPhone(first.ID, now))
	principal, ok := p.PrincipalPhone()
	require.True(t, ok)
	assert.Equal(t, first.ID, principal.ID)

	require.NoError(t, p.RemovePhone(first.ID, now))
	assert.Len(t, p.Phones, 1)
	assert.True(t, p.Phones[0].IsPrincipal())

	assert.True(t, dErrors.HasCode(p.RemovePhone(first.ID, now), dErrors.CodeNotFound))
	assert.True(t, dErrors.HasCode(p.MarkPrincipalPhone(id.NewPhoneID(), now), dErrors.CodeNotFound))
}

func TestAddresses(t *testing.T) {
	p := newProfessional(t)
	home := p.AddAddress(newAddress(t, "100"), false, now)
	office := p.AddAddress(newAddress(t, "200"), false, now)
	assert.True(t, home.IsPrincipal())
	assert.False(t, office.IsPrincipal())

	require.NoError(t, p.MarkPrincipalAddress(office.ID, now))
	assert.False(t, home.IsPrincipal())
	assert.True(t, office.IsPrincipal())
	assert.Equal(t, 1, contact.CountPrincipal(p.Addresses))

	require.NoError(t, p.RemoveAddress(office.ID, now))
	require.Len(t, p.Addresses, 1)
	assert.True(t, p.Addresses[0].IsPrincipal())
	assert.True(t, dErrors.HasCode(p.RemoveAddress(office.ID, now), dErrors.CodeNotFound))
	assert.True(t, dErrors.HasCode(p.MarkPrincipalAddress(id.NewAddressID(), now), dErrors.CodeNotFound))
}

func TestClone(t *testing.T) {
	p := newProfessional(t)
	_, err := p.AddPhone(newPhone(t, "987654321"), true, now)
	require.NoError(t, err)
	p.AddAddress(newAddress(t, "100"), true, now)

	c := p.Clone()
	c.Phones[0].Number = "900000000"
	c.Addresses[0].Street = "Rua Augusta"
	*c.BirthDate = now

	assert.Equal(t, "987654321", p.Phones[0].Number)
	assert.Equal(t, "Avenida Paulista", p.Addresses[0].Street)
	assert.Equal(t, "1988-04-21", p.BirthDate.Format(DateLayout))
}

func TestParseState(t *testing.T) {
	state, err := ParseState(" Inactive ")
	require.NoError(t, err)
	assert.Equal(t, StateInactive, state)

	_, err = ParseState("deleted")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}
