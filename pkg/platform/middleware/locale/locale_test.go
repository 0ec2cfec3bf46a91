package locale

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"clinic/pkg/requestcontext"
)

type fixedNegotiator string

func (f fixedNegotiator) Negotiate(string) string { return string(f) }

func TestMiddleware(t *testing.T) {
	var seen string
	h := Middleware(fixedNegotiator("pt-BR"))(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = requestcontext.Locale(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, "pt-BR", seen)
	assert.Equal(t, "pt-BR", rec.Header().Get("Content-Language"))
}
