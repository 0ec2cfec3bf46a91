// Package locale negotiates the response language from Accept-Language.
package locale

import (
	"net/http"

	"clinic/pkg/requestcontext"
)

// Negotiator picks a supported locale for an Accept-Language header.
type Negotiator interface {
	Negotiate(acceptLanguage string) string
}

// Middleware stores the negotiated locale in the request context and echoes
// it in Content-Language.
func Middleware(n Negotiator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tag := n.Negotiate(r.Header.Get("Accept-Language"))
			w.Header().Set("Content-Language", tag)
			next.ServeHTTP(w, r.WithContext(requestcontext.WithLocale(r.Context(), tag)))
		})
	}
}
