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
)

var now = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

func validParams() Params {
	return Params{TradeName: "Clínica Saúde Total", LegalName: "Saúde Total Serviços Médicos Ltda", CNPJ: "11.222.333/0001-81"}
}

func newOrganization(t *testing.T) *Organization {
	t.Helper()
	org, err := NewOrganization(id.NewOrganizationID(), validParams(), now)
	require.NoError(t, err)
	return org
}

func newPhone(t *testing.T, number string) contact.Phone {
	t.Helper()
	phone, err := contact.NewPhone(id.NewPhoneID(), contact.PhoneParams{DDD: "11", Number: number})
	require.NoError(t, err)
	return phone
}

func TestNewOrganization(t *testing.T) {
	t.Run("accepts a masked valid CNPJ", func(t *testing.T) {
		org := newOrganization(t)
		assert.Equal(t, "Clínica Saúde Total", org.TradeName)
		assert.Equal(t, "11222333000181", org.CNPJ)
		assert.Equal(t, "11.222.333/0001-81", org.FormattedCNPJ())
		assert.Equal(t, StateActive, org.State)
		assert.Empty(t, org.Phones)
	})

	t.Run("collapses whitespace in names", func(t *testing.T) {
		params := validParams()
		params.TradeName = "  Clínica   Saúde Total "
		org, err := NewOrganization(id.NewOrganizationID(), params, now)
		require.NoError(t, err)
		assert.Equal(t, "Clínica Saúde Total", org.TradeName)
	})

	tests := []struct {
		name   string
		mutate func(*Params)
		want   []string
	}{
		{"repeated digit CNPJ", func(p *Params) { p.CNPJ = "11.111.111/1111-11" }, []string{"CNPJ is invalid"}},
		{"wrong check digit", func(p *Params) { p.CNPJ = "11.222.333/0001-82" }, []string{"CNPJ is invalid"}},
		{"missing everything", func(p *Params) { *p = Params{} }, []string{"Trade name is required", "Legal name is required", "CNPJ is required"}},
		{"trade name too long", func(p *Params) { p.TradeName = strings.Repeat("a", MaxTradeNameLength+1) }, []string{"Trade name must be at most 150 characters"}},
		{"legal name too long", func(p *Params) { p.LegalName = strings.Repeat("b", MaxLegalNameLength+1) }, []string{"Legal name must be at most 150 characters"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := validParams()
			tt.mutate(&params)
			org, err := NewOrganization(id.NewOrganizationID(), params, now)
			require.Error(t, err)
			assert.Nil(t, org)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
			assert.Equal(t, tt.want, dErrors.Messages(err))
		})
	}
}

func TestUpdate(t *testing.T) {
	t.Run("empty trade name leaves the organization untouched", func(t *testing.T) {
		org := newOrganization(t)
		before := org.Clone()

		params := validParams()
		params.TradeName = ""
		err := org.Update(params, now.Add(time.Hour))

		require.Error(t, err)
		assert.Equal(t, []string{"Trade name is required"}, dErrors.Messages(err))
		assert.Equal(t, before, org)
	})

	t.Run("applies valid changes", func(t *testing.T) {
		org := newOrganization(t)
		later := now.Add(time.Hour)
		params := validParams()
		params.TradeName = "Clínica Bem Estar"
		require.NoError(t, org.Update(params, later))
		assert.Equal(t, "Clínica Bem Estar", org.TradeName)
		assert.Equal(t, later, org.UpdatedAt)
	})
}

func TestStateTransitions(t *testing.T) {
	org := newOrganization(t)
	require.Error(t, org.Reactivate(now))
	require.NoError(t, org.Deactivate(now))
	assert.False(t, org.IsActive())

	err := org.Deactivate(now)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	require.NoError(t, org.Reactivate(now))
	assert.True(t, org.IsActive())
}

func TestPhones(t *testing.T) {
	t.Run("first phone becomes principal", func(t *testing.T) {
		org := newOrganization(t)
		first, err := org.AddPhone(newPhone(t, "987654321"), false, now)
		require.NoError(t, err)
		assert.True(t, first.IsPrincipal())
	})

	t.Run("principal newcomer demotes the current one", func(t *testing.T) {
		org := newOrganization(t)
		first, _ := org.AddPhone(newPhone(t, "987654321"), false, now)
		second, err := org.AddPhone(newPhone(t, "33334444"), true, now)
		require.NoError(t, err)

		assert.False(t, first.IsPrincipal())
		assert.True(t, second.IsPrincipal())
		assert.Equal(t, 1, contact.CountPrincipal(org.Phones))
	})

	t.Run("duplicate number", func(t *testing.T) {
		org := newOrganization(t)
		_, err := org.AddPhone(newPhone(t, "987654321"), false, now)
		require.NoError(t, err)
		_, err = org.AddPhone(newPhone(t, "987654321"), false, now)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
	})

	t.Run("mark and remove", func(t *testing.T) {
		org := newOrganization(t)
		first, _ := org.AddPhone(newPhone(t, "987654321"), false, now)
		second, _ := org.AddPhone(newPhone(t, "33334444"), false, now)

		require.NoError(t, org.MarkPrincipalPhone(second.ID, now))
		principal, ok := org.PrincipalPhone()
		require.True(t, ok)
		assert.Equal(t, second.ID, principal.ID)

		require.NoError(t, org.RemovePhone(second.ID, now))
		require.Len(t, org.Phones, 1)
		assert.True(t, org.Phones[0].IsPrincipal())
		assert.Equal(t, first.ID, org.Phones[0].ID)

		assert.True(t, dErrors.HasCode(org.RemovePhone(id.NewPhoneID(), now), dErrors.CodeNotFound))
		assert.True(t, dErrors.HasCode(org.MarkPrincipalPhone(id.NewPhoneID(), now), dErrors.CodeNotFound))
	})
}

func TestProfessionalLinks(t *testing.T) {
	org := newOrganization(t)
	profID := id.NewProfessionalID()

	require.NoError(t, org.LinkProfessional(profID, now))
	assert.True(t, dErrors.HasCode(org.LinkProfessional(profID, now), dErrors.CodeConflict))
	assert.Equal(t, []id.ProfessionalID{profID}, org.ActiveProfessionalIDs())

	require.NoError(t, org.UnlinkProfessional(profID, now))
	assert.Empty(t, org.ActiveProfessionalIDs())
	assert.Len(t, org.Professionals, 1)
	assert.True(t, dErrors.HasCode(org.UnlinkProfessional(profID, now), dErrors.CodeNotFound))

	require.NoError(t, org.LinkProfessional(profID, now))
	assert.Len(t, org.Professionals, 1)
	assert.Equal(t, []id.ProfessionalID{profID}, org.ActiveProfessionalIDs())

	t.Run("inactive organization cannot link", func(t *testing.T) {
		require.NoError(t, org.Deactivate(now))
		err := org.LinkProfessional(id.NewProfessionalID(), now)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})
}

func TestClone(t *testing.T) {
	org := newOrganization(t)
	_, _ = org.AddPhone(newPhone(t, "987654321"), false, now)
	clone := org.Clone()
	clone.Phones[0].Number = "11112222"
	assert.Equal(t, "987654321", org.Phones[0].Number)
}
