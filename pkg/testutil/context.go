package testutil

import (
	"net/http"
	"time"

	id "clinic/pkg/domain"
	"clinic/pkg/requestcontext"
)

// WithUserID adds a user ID to the request context.
// This simulates what the auth middleware does for authenticated requests.
// If userID is not a valid UUID the request is returned unchanged.
func WithUserID(req *http.Request, userID string) *http.Request {
	parsed, err := id.ParseUserID(userID)
	if err != nil {
		return req
	}
	return req.WithContext(requestcontext.WithUserID(req.Context(), parsed))
}

// WithLocale sets the negotiated locale the locale middleware would store.
func WithLocale(req *http.Request, locale string) *http.Request {
	return req.WithContext(requestcontext.WithLocale(req.Context(), locale))
}

// WithTime pins the request time.
func WithTime(req *http.Request, t time.Time) *http.Request {
	return req.WithContext(requestcontext.WithTime(req.Context(), t))
}
