package models

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	id "clinic/pkg/domain"
	dErrors "clinic/pkg/domain-errors"
	"clinic/pkg/platform/paging"
	"clinic/pkg/secrets"
)

type UserModelSuite struct {
	suite.Suite
	now   time.Time
	rules PasswordRules
}

func TestUserModelSuite(t *testing.T) {
	suite.Run(t, new(UserModelSuite))
}

func (s *UserModelSuite) SetupTest() {
	s.now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.rules = PasswordRules{Policy: secrets.DefaultPasswordPolicy(), Iterations: secrets.MinIterations}
}

func (s *UserModelSuite) newUser() *User {
	u, err := NewUser(id.NewUserID(), Params{Name: "maria souza", Email: "maria@clinic.com.br"}, "SenhaForte@123", s.rules, s.now)
	s.Require().NoError(err)
	return u
}

func (s *UserModelSuite) TestNewUser() {
	s.Run("normalizes name and email and hashes password", func() {
		u, err := NewUser(id.NewUserID(), Params{Name: "  JOÃO   SILVA ", Email: " Joao.Silva@Example.COM "}, "SenhaForte@123", s.rules, s.now)
		s.Require().NoError(err)
		s.Equal("João Silva", u.Name)
		s.Equal("joao.silva@example.com", u.Email)
		s.Equal(StateActive, u.State)
		s.NotContains(u.PasswordHash, "SenhaForte@123")
		s.True(u.PasswordMatches("SenhaForte@123"))
		s.False(u.PasswordMatches("SenhaForte@124"))
		s.Equal(s.now, u.CreatedAt)
	})

	s.Run("collects profile and password violations together", func() {
		_, err := NewUser(id.NewUserID(), Params{Name: "Al", Email: "not-an-email"}, "abc", s.rules, s.now)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
		messages := dErrors.Messages(err)
		s.Equal("Name must be at least 3 characters", messages[0])
		s.Equal("Email is invalid", messages[1])
		s.Contains(messages, "Password must be at least 8 characters")
	})

	s.Run("required fields", func() {
		_, err := NewUser(id.NewUserID(), Params{}, "SenhaForte@123", s.rules, s.now)
		s.Require().Error(err)
		s.Equal([]string{"Name is required", "Email is required"}, dErrors.Messages(err))
	})

	s.Run("name too long", func() {
		_, err := NewUser(id.NewUserID(), Params{Name: strings.Repeat("a", MaxNameLength+1), Email: "a@b.com"}, "SenhaForte@123", s.rules, s.now)
		s.Require().Error(err)
		s.Equal([]string{"Name must be at most 100 characters"}, dErrors.Messages(err))
	})
}

func (s *UserModelSuite) TestUpdate() {
	s.Run("applies normalized values", func() {
		u := s.newUser()
		later := s.now.Add(time.Hour)
		s.Require().NoError(u.Update(Params{Name: "ANA LIMA", Email: "ANA@EXAMPLE.COM"}, later))
		s.Equal("Ana Lima", u.Name)
		s.Equal("ana@example.com", u.Email)
		s.Equal(later, u.UpdatedAt)
	})

	s.Run("failure leaves user untouched", func() {
		u := s.newUser()
		before := *u
		err := u.Update(Params{Name: "", Email: "ana@example.com"}, s.now.Add(time.Hour))
		s.Require().Error(err)
		s.Equal(before, *u)
	})
}

func (s *UserModelSuite) TestChangePassword() {
	u := s.newUser()
	s.Require().Error(u.ChangePassword("weak", s.rules, s.now))
	s.True(u.PasswordMatches("SenhaForte@123"))

	s.Require().NoError(u.ChangePassword("OutraSenha#2026", s.rules, s.now))
	s.True(u.PasswordMatches("OutraSenha#2026"))
	s.False(u.PasswordMatches("SenhaForte@123"))
}

func (s *UserModelSuite) TestNeedsRehash() {
	u := s.newUser()
	s.False(u.NeedsRehash(s.rules))
	s.True(u.NeedsRehash(PasswordRules{Iterations: secrets.MinIterations * 2}))
}

func (s *UserModelSuite) TestStateTransitions() {
	s.Run("deactivate and reactivate", func() {
		u := s.newUser()
		s.Require().NoError(u.Deactivate(s.now))
		s.Equal(StateInactive, u.State)
		s.False(u.CanLogin())
		s.True(dErrors.HasCode(u.Deactivate(s.now), dErrors.CodeInvariantViolation))

		s.Require().NoError(u.Reactivate(s.now))
		s.True(u.CanLogin())
		s.True(dErrors.HasCode(u.Reactivate(s.now), dErrors.CodeInvariantViolation))
	})

	s.Run("blocked user cannot log in or be deactivated", func() {
		u := s.newUser()
		s.Require().NoError(u.Block(s.now))
		s.False(u.CanLogin())
		s.Error(u.Block(s.now))
		s.Error(u.Deactivate(s.now))
		s.Require().NoError(u.Reactivate(s.now))
		s.True(u.CanLogin())
	})
}

func TestParseState(t *testing.T) {
	state, err := ParseState("Blocked")
	require.NoError(t, err)
	assert.Equal(t, StateBlocked, state)

	_, err = ParseState("deleted")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func TestFilterPage(t *testing.T) {
	limit, offset := Filter{}.Page()
	assert.Equal(t, paging.DefaultLimit, limit)
	assert.Equal(t, 0, offset)

	limit, offset = Filter{Limit: 1000, Offset: -4}.Page()
	assert.Equal(t, paging.MaxLimit, limit)
	assert.Equal(t, 0, offset)
}
