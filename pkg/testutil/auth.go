package testutil

import (
	"errors"

	id "clinic/pkg/domain"
	authmw "clinic/pkg/platform/middleware/auth"
)

// StaticValidator accepts exactly one bearer token and maps it to UserID.
type StaticValidator struct {
	Token  string
	UserID id.UserID
}

func (v StaticValidator) ValidateToken(token string) (*authmw.JWTClaims, error) {
	if token != v.Token {
		return nil, errors.New("invalid token")
	}
	return &authmw.JWTClaims{UserID: v.UserID.String()}, nil
}

// Bearer returns the Authorization header value for token.
func Bearer(token string) string {
	return "Bearer " + token
}
