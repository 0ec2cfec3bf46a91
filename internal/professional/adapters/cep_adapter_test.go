package adapters

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clinic/internal/address/client"
	"clinic/internal/address/service"
	"clinic/internal/contact"
	dErrors "clinic/pkg/domain-errors"
)

func TestCEPAdapter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path != "/01310100/json/" {
			_, _ = w.Write([]byte(`{"erro": true}`))
			return
		}
		_, _ = w.Write([]byte(`{"cep":"01310-100","logradouro":"Avenida Paulista","bairro":"Bela Vista","localidade":"São Paulo","uf":"SP"}`))
	}))
	t.Cleanup(srv.Close)

	adapter := NewCEPAdapter(service.New(client.New(client.Config{BaseURL: srv.URL, Timeout: time.Second})))

	params, err := adapter.Lookup(context.Background(), "01310100")
	require.NoError(t, err)
	assert.Equal(t, contact.AddressParams{
		Street:   "Avenida Paulista",
		District: "Bela Vista",
		ZipCode:  "01310100",
		City:     "São Paulo",
		State:    "SP",
	}, params)

	_, err = adapter.Lookup(context.Background(), "99999999")
	assert.True(t, dErrors.Is(err, dErrors.CodeNotFound))
}
