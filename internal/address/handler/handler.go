package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"clinic/internal/address/models"
	dErrors "clinic/pkg/domain-errors"
	"clinic/pkg/platform/httputil"
	"clinic/pkg/platform/i18n"
	authmw "clinic/pkg/platform/middleware/auth"
	"clinic/pkg/requestcontext"
)

type Service interface {
	Lookup(ctx context.Context, zipCode string) (*models.Address, error)
}

// Handler serves CEP lookups to authenticated clients.
type Handler struct {
	service      Service
	logger       *slog.Logger
	jwtValidator authmw.JWTValidator
	accounts     authmw.AccountChecker
	catalog      *i18n.Catalog
}

func New(service Service, logger *slog.Logger, jwtValidator authmw.JWTValidator, accounts authmw.AccountChecker, catalog *i18n.Catalog) *Handler {
	return &Handler{
		service:      service,
		logger:       logger,
		jwtValidator: jwtValidator,
		accounts:     accounts,
		catalog:      catalog,
	}
}

func (h *Handler) Register(r chi.Router) {
	r.Route("/addresses", func(r chi.Router) {
		r.Use(authmw.RequireAuth(h.jwtValidator, h.accounts, h.logger))
		r.Get("/cep/{cep}", h.handleLookup)
	})
}

func (h *Handler) handleLookup(w http.ResponseWriter, r *http.Request) {
	address, err := h.service.Lookup(r.Context(), chi.URLParam(r, "cep"))
	if err != nil {
		ctx := r.Context()
		if dErrors.CodeOf(err) == dErrors.CodeInternal {
			h.logger.ErrorContext(ctx, "cep lookup failed",
				"request_id", requestcontext.RequestID(ctx),
				"error", err,
			)
		}
		httputil.WriteError(w, err, h.catalog.Translator(ctx))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, address)
}
