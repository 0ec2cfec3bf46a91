package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"clinic/internal/organization/models"
	id "clinic/pkg/domain"
	dErrors "clinic/pkg/domain-errors"
	"clinic/pkg/platform/httputil"
	"clinic/pkg/platform/i18n"
	authmw "clinic/pkg/platform/middleware/auth"
	"clinic/pkg/platform/strings"
	"clinic/pkg/requestcontext"
)

// Service defines the organization operations exposed over HTTP.
type Service interface {
	Create(ctx context.Context, req models.CreateOrganizationRequest) (*models.Organization, error)
	Get(ctx context.Context, orgID id.OrganizationID) (*models.Organization, error)
	List(ctx context.Context, filter models.Filter) ([]*models.Organization, error)
	Update(ctx context.Context, orgID id.OrganizationID, req models.UpdateOrganizationRequest) (*models.Organization, error)
	Deactivate(ctx context.Context, orgID id.OrganizationID) (*models.Organization, error)
	Reactivate(ctx context.Context, orgID id.OrganizationID) (*models.Organization, error)
	AddPhone(ctx context.Context, orgID id.OrganizationID, req models.AddPhoneRequest) (*models.Organization, error)
	MarkPrincipalPhone(ctx context.Context, orgID id.OrganizationID, phoneID id.PhoneID) (*models.Organization, error)
	RemovePhone(ctx context.Context, orgID id.OrganizationID, phoneID id.PhoneID) (*models.Organization, error)
	LinkProfessional(ctx context.Context, orgID id.OrganizationID, professionalID id.ProfessionalID) (*models.Organization, error)
	UnlinkProfessional(ctx context.Context, orgID id.OrganizationID, professionalID id.ProfessionalID) (*models.Organization, error)
	ListProfessionals(ctx context.Context, orgID id.OrganizationID) ([]models.ProfessionalSummary, error)
	ExportRoster(ctx context.Context, orgID id.OrganizationID) (*models.RosterFile, error)
}

// Handler serves the organization endpoints. Every route requires a bearer token.
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

// Register mounts the organization routes on r.
func (h *Handler) Register(r chi.Router) {
	r.Route("/organizations", func(r chi.Router) {
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
			r.Get("/professionals", h.handleListProfessionals)
			r.Post("/professionals", h.handleLinkProfessional)
			r.Delete("/professionals/{professionalID}", h.handleUnlinkProfessional)
			r.Get("/professionals/export", h.handleExport)
		})
	})
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req models.CreateOrganizationRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	org, err := h.service.Create(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, org)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	orgs, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	limit, offset := filter.Page()
	httputil.WriteJSON(w, http.StatusOK, models.ListResponse{Organizations: orgs, Limit: limit, Offset: offset})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	orgID, err := id.ParseOrganizationID(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	org, err := h.service.Get(r.Context(), orgID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, org)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	orgID, err := id.ParseOrganizationID(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req models.UpdateOrganizationRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	org, err := h.service.Update(r.Context(), orgID, req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, org)
}

func (h *Handler) transition(apply func(Service, context.Context, id.OrganizationID) (*models.Organization, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orgID, err := id.ParseOrganizationID(chi.URLParam(r, "id"))
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		org, err := apply(h.service, r.Context(), orgID)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, org)
	}
}

func (h *Handler) handleAddPhone(w http.ResponseWriter, r *http.Request) {
	orgID, err := id.ParseOrganizationID(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req models.AddPhoneRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	org, err := h.service.AddPhone(r.Context(), orgID, req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, org)
}

func (h *Handler) handlePhone(apply func(Service, context.Context, id.OrganizationID, id.PhoneID) (*models.Organization, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orgID, err := id.ParseOrganizationID(chi.URLParam(r, "id"))
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		phoneID, err := id.ParsePhoneID(chi.URLParam(r, "phoneID"))
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		org, err := apply(h.service, r.Context(), orgID, phoneID)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, org)
	}
}

func (h *Handler) handleListProfessionals(w http.ResponseWriter, r *http.Request) {
	orgID, err := id.ParseOrganizationID(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	professionals, err := h.service.ListProfessionals(r.Context(), orgID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"professionals": professionals})
}

func (h *Handler) handleLinkProfessional(w http.ResponseWriter, r *http.Request) {
	orgID, err := id.ParseOrganizationID(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req models.LinkProfessionalRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	professionalID, err := id.ParseProfessionalID(req.ProfessionalID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	org, err := h.service.LinkProfessional(r.Context(), orgID, professionalID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, org)
}

func (h *Handler) handleUnlinkProfessional(w http.ResponseWriter, r *http.Request) {
	orgID, err := id.ParseOrganizationID(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	professionalID, err := id.ParseProfessionalID(chi.URLParam(r, "professionalID"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if _, err := h.service.UnlinkProfessional(r.Context(), orgID, professionalID); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	orgID, err := id.ParseOrganizationID(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	file, err := h.service.ExportRoster(r.Context(), orgID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", file.ContentType)
	w.Header().Set("Content-Disposition", "attachment; filename="+strconv.Quote(file.FileName))
	w.Header().Set("Content-Length", strconv.Itoa(len(file.Content)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(file.Content); err != nil {
		h.logger.WarnContext(r.Context(), "failed to write roster export", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(ctx, "organization request failed",
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
		Name: q.Get("name"),
		CNPJ: strings.OnlyDigits(q.Get("cnpj")),
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
