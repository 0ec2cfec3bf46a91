package models

import "time"

type CreateUserRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password" sanitize:"-"`
}

func (r CreateUserRequest) Params() Params {
	return Params{Name: r.Name, Email: r.Email}
}

type UpdateUserRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (r UpdateUserRequest) Params() Params {
	return Params{Name: r.Name, Email: r.Email}
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" sanitize:"-"`
	NewPassword     string `json:"new_password" sanitize:"-"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password" sanitize:"-"`
}

// LoginResult is returned on successful authentication.
type LoginResult struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
	User        *User     `json:"user"`
}

// ListResponse wraps a page of users.
type ListResponse struct {
	Users  []*User `json:"users"`
	Limit  int     `json:"limit"`
	Offset int     `json:"offset"`
}
