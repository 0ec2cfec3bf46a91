package models

import (
	"time"

	id "clinic/pkg/domain"
	dErrors "clinic/pkg/domain-errors"
	"clinic/pkg/email"
	"clinic/pkg/platform/paging"
	"clinic/pkg/platform/strings"
	"clinic/pkg/platform/validation"
	"clinic/pkg/secrets"
)

const (
	MinNameLength = 3
	MaxNameLength = 100
)

var (
	MsgNameRequired  = validation.Message{Key: "user.name.required", Default: "Name is required"}
	MsgNameTooShort  = validation.Message{Key: "user.name.too_short", Default: "Name must be at least %d characters"}
	MsgNameTooLong   = validation.Message{Key: "user.name.too_long", Default: "Name must be at most %d characters"}
	MsgEmailRequired = validation.Message{Key: "user.email.required", Default: "Email is required"}
	MsgEmailInvalid  = validation.Message{Key: "user.email.invalid", Default: "Email is invalid"}

	MsgCurrentPasswordInvalid = validation.Message{Key: "user.current_password.invalid", Default: "Current password is incorrect"}
)

// State is the lifecycle state of a user account.
type State string

const (
	StateActive   State = "active"
	StateInactive State = "inactive"
	StateBlocked  State = "blocked"
)

var transitions = map[State][]State{
	StateActive:   {StateInactive, StateBlocked},
	StateInactive: {StateActive, StateBlocked},
	StateBlocked:  {StateActive},
}

func (s State) IsValid() bool {
	_, ok := transitions[s]
	return ok
}

// CanTransitionTo reports whether s may move to next.
func (s State) CanTransitionTo(next State) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// ParseState validates a state received at a trust boundary.
func ParseState(s string) (State, error) {
	state := State(strings.ToLower(s))
	if !state.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid user state")
	}
	return state, nil
}

// User is the aggregate root for an account that can log in.
//
// Invariants:
//   - Name is title-cased and 3 to 100 characters
//   - Email is lower-cased and well formed
//   - PasswordHash is a PBKDF2 encoded string; the raw password is never kept
//   - Only active users can log in
type User struct {
	ID           id.UserID `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	State        State     `json:"state"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Params carries the mutable profile fields.
type Params struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Normalize title-cases the name and lower-cases the email.
func (p Params) Normalize() Params {
	p.Name = strings.ToTitleCase(p.Name)
	p.Email = email.Normalize(p.Email)
	return p
}

// Validate records profile violations in c. Params must be normalized.
func (p Params) Validate(c *validation.Collector) {
	switch n := strings.Length(p.Name); {
	case n == 0:
		c.Add(MsgNameRequired)
	case n < MinNameLength:
		c.Add(MsgNameTooShort, MinNameLength)
	case n > MaxNameLength:
		c.Add(MsgNameTooLong, MaxNameLength)
	}

	switch {
	case p.Email == "":
		c.Add(MsgEmailRequired)
	case !email.IsValid(p.Email):
		c.Add(MsgEmailInvalid)
	}
}

// PasswordRules decides which raw passwords are accepted and how they are hashed.
type PasswordRules struct {
	Policy     secrets.PasswordPolicy
	Iterations int
}

func DefaultPasswordRules() PasswordRules {
	return PasswordRules{Policy: secrets.DefaultPasswordPolicy(), Iterations: secrets.DefaultIterations}
}

func (r PasswordRules) hash(password string) (string, error) {
	hash, err := secrets.HashPassword(password, r.Iterations)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash password")
	}
	return hash, nil
}

// NewUser normalizes and validates the profile and password, then hashes the
// password. Every violation is reported in a single CodeValidation error.
func NewUser(userID id.UserID, params Params, password string, rules PasswordRules, now time.Time) (*User, error) {
	params = params.Normalize()
	c := validation.NewCollector()
	params.Validate(c)
	rules.Policy.Validate(c, password)
	if err := c.Err(); err != nil {
		return nil, err
	}

	hash, err := rules.hash(password)
	if err != nil {
		return nil, err
	}
	return &User{
		ID:           userID,
		Name:         params.Name,
		Email:        params.Email,
		PasswordHash: hash,
		State:        StateActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// Update replaces the profile fields. On failure u is left untouched.
func (u *User) Update(params Params, now time.Time) error {
	params = params.Normalize()
	c := validation.NewCollector()
	params.Validate(c)
	if err := c.Err(); err != nil {
		return err
	}
	u.Name = params.Name
	u.Email = params.Email
	u.UpdatedAt = now
	return nil
}

// PasswordMatches verifies password against the stored hash.
func (u *User) PasswordMatches(password string) bool {
	return secrets.VerifyPassword(password, u.PasswordHash)
}

// ChangePassword checks the new password against the policy and stores its hash.
func (u *User) ChangePassword(password string, rules PasswordRules, now time.Time) error {
	c := validation.NewCollector()
	rules.Policy.Validate(c, password)
	if err := c.Err(); err != nil {
		return err
	}
	hash, err := rules.hash(password)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	u.UpdatedAt = now
	return nil
}

// NeedsRehash reports whether the stored hash uses fewer iterations than rules.
func (u *User) NeedsRehash(rules PasswordRules) bool {
	return secrets.NeedsRehash(u.PasswordHash, rules.Iterations)
}

func (u *User) IsActive() bool {
	return u.State == StateActive
}

// CanLogin reports whether the account may authenticate.
func (u *User) CanLogin() bool {
	return u.IsActive() && u.PasswordHash != ""
}

// Deactivate moves an active user to inactive.
func (u *User) Deactivate(now time.Time) error {
	if u.State != StateActive {
		return dErrors.New(dErrors.CodeInvariantViolation, "user is not active")
	}
	u.apply(StateInactive, now)
	return nil
}

// Reactivate moves an inactive or blocked user back to active.
func (u *User) Reactivate(now time.Time) error {
	if !u.State.CanTransitionTo(StateActive) {
		return dErrors.New(dErrors.CodeInvariantViolation, "user is already active")
	}
	u.apply(StateActive, now)
	return nil
}

// Block prevents any further login until the user is reactivated.
func (u *User) Block(now time.Time) error {
	if !u.State.CanTransitionTo(StateBlocked) {
		return dErrors.New(dErrors.CodeInvariantViolation, "user is already blocked")
	}
	u.apply(StateBlocked, now)
	return nil
}

func (u *User) apply(state State, now time.Time) {
	u.State = state
	u.UpdatedAt = now
}

// Filter narrows user listings. Zero fields match everything.
type Filter struct {
	State  State
	Name   string
	Email  string
	Limit  int
	Offset int
}

// Page clamps Limit and Offset to sane bounds.
func (f Filter) Page() (limit, offset int) {
	return paging.Clamp(f.Limit, f.Offset)
}
