package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"clinic/internal/professional/models"
	id "clinic/pkg/domain"
	dErrors "clinic/pkg/domain-errors"
	"clinic/pkg/platform/httputil"
	"clinic/pkg/platform/i18n"
	authmw "clinic/pkg/platform/middleware/auth"
	"clinic/pkg/platform/strings"
	"clinic/pkg/requestcontext"
)

// Service defines the professional operations exposed over HTTP.
type Service interface {
	Create(ctx context.Context, req models.CreateProfessionalRequest) (*models.Professional, error)
	Get(ctx context.Context, professionalID id.ProfessionalID) (*models.Professional, error)
	List(ctx context.Context, filter models.Filter) ([]*models.Professional, error)
	Update(ctx context.Context, professionalID id.ProfessionalID, req models.UpdateProfessionalRequest) (*models.Professional, error)
	Deactivate(ctx context.Context, professionalID id.ProfessionalID) (*models.Professional, error)
	Reactivate(ctx context.Context, professionalID id.ProfessionalID) (*models.Professional, error)
	AddPhone(ctx context.Context, professionalID id.ProfessionalID, req models.AddPhoneRequest) (*models.Professional, error)
	MarkPrincipalPhone(ctx context.Context, professionalID id.ProfessionalID, phoneID id.PhoneID) (*models.Professional, error)
	RemovePhone(ctx context.Context, professionalID id.ProfessionalID, phoneID id.PhoneID) (*models.Professional, error)
	AddAddress(ctx context.Context, professionalID id.ProfessionalID, req models.AddAddressRequest) (*models.Professional, error)
	MarkPrincipalAddress(ctx context.Context, professionalID id.ProfessionalID, addressID id.AddressID) (*models.Professional, error)
	RemoveAddress(ctx context.Context, professionalID id.ProfessionalID, addressID id.AddressID) (*models.Professional, error)
}

// Handler serves the professional endpoints. Every route requires a bearer token.
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

// Register mounts the professional routes on r.
func (h *Handler) Register(r chi.Router) {
	r.Route("/professionals", func(r chi.Router) {
		r.Use(authmw.RequireAuth(h.jwtValidator, h.accounts, h.logger))
		r.Post("/", h.handleCreate)
		r.Get("/", h.handleList)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.handleGet)
			r.Put("/", h.handleUpdate)
			r.Post("/deactivate", h.transition(Service.Deactivate))
			r.Post("/reactivate", h.transition(Service.Reactivate))
			r.Post("/phones", h.handleAddPhone)
			r.Put("/phones/{phoneID}/principal", h.handlePhone(Service.MarkPrincipalPhone))
			r.Delete("/phones/{phoneID}", h.handlePhone(Service.RemovePhone))
			r.Post("/addresses", h.handleAddAddress)
			r.Put("/addresses/{addressID}/principal", h.handleAddress(Service.MarkPrincipalAddress))
			r.Delete("/addresses/{addressID}", h.handleAddress(Service.RemoveAddress))
		})
	})
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req models.CreateProfessionalRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	p, err := h.service.Create(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, p)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	professionals, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	limit, offset := filter.Page()
	httputil.WriteJSON(w, http.StatusOK, models.ListResponse{Professionals: professionals, Limit: limit, Offset: offset})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	professionalID, err := id.ParseProfessionalID(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	p, err := h.service.Get(r.Context(), professionalID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	professionalID, err := id.ParseProfessionalID(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req models.UpdateProfessionalRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	p, err := h.service.Update(r.Context(), professionalID, req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) transition(apply func(Service, context.Context, id.ProfessionalID) (*models.Professional, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		professionalID, err := id.ParseProfessionalID(chi.URLParam(r, "id"))
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		p, err := apply(h.service, r.Context(), professionalID)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, p)
	}
}

func (h *Handler) handleAddPhone(w http.ResponseWriter, r *http.Request) {
	professionalID, err := id.ParseProfessionalID(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req models.AddPhoneRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	p, err := h.service.AddPhone(r.Context(), professionalID, req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, p)
}

func (h *Handler) handlePhone(apply func(Service, context.Context, id.ProfessionalID, id.PhoneID) (*models.Professional, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		professionalID, err := id.ParseProfessionalID(chi.URLParam(r, "id"))
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		phoneID, err := id.ParsePhoneID(chi.URLParam(r, "phoneID"))
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		p, err := apply(h.service, r.Context(), professionalID, phoneID)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, p)
	}
}

func (h *Handler) handleAddAddress(w http.ResponseWriter, r *http.Request) {
	professionalID, err := id.ParseProfessionalID(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req models.AddAddressRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	p, err := h.service.AddAddress(r.Context(), professionalID, req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, p)
}

func (h *Handler) handleAddress(apply func(Service, context.Context, id.ProfessionalID, id.AddressID) (*models.Professional, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		professionalID, err := id.ParseProfessionalID(chi.URLParam(r, "id"))
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		addressID, err := id.ParseAddressID(chi.URLParam(r, "addressID"))
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		p, err := apply(h.service, r.Context(), professionalID, addressID)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, p)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(ctx, "professional request failed",
			"request_id", requestcontext.RequestID(ctx),
			"path", r.URL.Path,
			"error", err,
		)
	}
	httputil.WriteError(w, err, h.catalog.Translator(ctx))
}

func parseFilter(r *http.Request) (models.Filter, error) {
	q := r.URL.Query()
	filter := models.Filter{
		Type:     models.ParseType(q.Get("type")),
		Name:     q.Get("name"),
		Document: strings.OnlyDigits(q.Get("document")),
	}
	if raw := q.Get("state"); raw != "" {
		state, err := models.ParseState(raw)
		if err != nil {
			return models.Filter{}, err
		}
		filter.State = state
	}
	var err error
	if filter.Limit, err = httputil.QueryInt(r, "limit"); err != nil {
		return models.Filter{}, err
	}
	if filter.Offset, err = httputil.QueryInt(r, "offset"); err != nil {
		return models.Filter{}, err
	}
	return filter, nil
}
