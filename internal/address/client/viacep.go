// Package client queries a ViaCEP-compatible postal code API.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"clinic/internal/address/models"
	"clinic/pkg/platform/sentinel"
	"clinic/pkg/platform/strings"
)

// Config configures the lookup client.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	RetryCount int
}

// ViaCEP looks up CEPs at GET {BaseURL}/{cep}/json/.
type ViaCEP struct {
	http *resty.Client
}

func New(cfg Config) *ViaCEP {
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.RetryCount).
		SetRetryWaitTime(200 * time.Millisecond).
		SetRetryMaxWaitTime(time.Second).
		SetHeader("Accept", "application/json").
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r.StatusCode() >= http.StatusInternalServerError
		})
	return &ViaCEP{http: client}
}

type viaCEPResponse struct {
	CEP         string          `json:"cep"`
	Logradouro  string          `json:"logradouro"`
	Complemento string          `json:"complemento"`
	Bairro      string          `json:"bairro"`
	Localidade  string          `json:"localidade"`
	UF          string          `json:"uf"`
	Erro        json.RawMessage `json:"erro"`
}

// notFound reports the upstream "erro" flag, sent as true or "true".
func (r viaCEPResponse) notFound() bool {
	switch string(r.Erro) {
	case "true", `"true"`:
		return true
	}
	return false
}

// Lookup fetches the address of zipCode (8 digits).
// Errors: sentinel.ErrNotFound when the CEP does not exist.
func (c *ViaCEP) Lookup(ctx context.Context, zipCode string) (*models.Address, error) {
	var body viaCEPResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("cep", zipCode).
		SetResult(&body).
		Get("/{cep}/json/")
	if err != nil {
		return nil, fmt.Errorf("cep request: %w", err)
	}
	switch {
	case resp.StatusCode() == http.StatusNotFound, resp.StatusCode() == http.StatusBadRequest:
		return nil, sentinel.ErrNotFound
	case resp.IsError():
		return nil, fmt.Errorf("cep request: unexpected status %d", resp.StatusCode())
	case body.notFound():
		return nil, sentinel.ErrNotFound
	}
	return &models.Address{
		ZipCode:    strings.OnlyDigits(body.CEP),
		Street:     body.Logradouro,
		Complement: body.Complemento,
		District:   body.Bairro,
		City:       body.Localidade,
		State:      body.UF,
	}, nil
}
