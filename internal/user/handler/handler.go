package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"clinic/internal/user/models"
	id "clinic/pkg/domain"
	dErrors "clinic/pkg/domain-errors"
	"clinic/pkg/platform/httputil"
	"clinic/pkg/platform/i18n"
	adminmw "clinic/pkg/platform/middleware/admin"
	authmw "clinic/pkg/platform/middleware/auth"
	"clinic/pkg/requestcontext"
)

// Service defines the user operations exposed over HTTP.
type Service interface {
	Create(ctx context.Context, req models.CreateUserRequest) (*models.User, error)
	Get(ctx context.Context, userID id.UserID) (*models.User, error)
	List(ctx context.Context, filter models.Filter) ([]*models.User, error)
	Update(ctx context.Context, userID id.UserID, req models.UpdateUserRequest) (*models.User, error)
	ChangePassword(ctx context.Context, userID id.UserID, req models.ChangePasswordRequest) error
	Deactivate(ctx context.Context, userID id.UserID) (*models.User, error)
	Reactivate(ctx context.Context, userID id.UserID) (*models.User, error)
	Block(ctx context.Context, userID id.UserID) (*models.User, error)
	Delete(ctx context.Context, userID id.UserID) error
	Login(ctx context.Context, req models.LoginRequest) (*models.LoginResult, error)
}

// Handler serves the user and login endpoints.
type Handler struct {
	service      Service
	logger       *slog.Logger
	jwtValidator authmw.JWTValidator
	accounts     authmw.AccountChecker
	adminToken   string
	catalog      *i18n.Catalog
}

// New creates a user Handler. A nil catalog leaves messages in English.
func New(service Service, logger *slog.Logger, jwtValidator authmw.JWTValidator, accounts authmw.AccountChecker, adminToken string, catalog *i18n.Catalog) *Handler {
	return &Handler{
		service:      service,
		logger:       logger,
		jwtValidator: jwtValidator,
		accounts:     accounts,
		adminToken:   adminToken,
		catalog:      catalog,
	}
}

// Register mounts the user routes on r.
//
// Account owners edit their own profile and password and may deactivate
// their own account. Blocking and reactivation are administrator actions,
// so a blocked or deactivated user cannot undo them with an old token.
func (h *Handler) Register(r chi.Router) {
	r.Post("/users", h.handleCreate)
	r.Post("/auth/login", h.handleLogin)

	r.Group(func(r chi.Router) {
		r.Use(authmw.RequireAuth(h.jwtValidator, h.accounts, h.logger))
		r.Get("/users", h.handleList)
		r.Get("/users/{id}", h.handleGet)
		r.Put("/users/{id}", h.handleUpdate)
		r.Post("/users/{id}/password", h.handleChangePassword)
		r.Post("/users/{id}/deactivate", h.ownerOnly(h.transition(Service.Deactivate)))
	})

	r.Group(func(r chi.Router) {
		r.Use(adminmw.RequireAdminToken(h.adminToken, h.logger))
		r.Post("/admin/users/{id}/block", h.transition(Service.Block))
		r.Post("/admin/users/{id}/reactivate", h.transition(Service.Reactivate))
		r.Delete("/admin/users/{id}", h.handleDelete)
	})
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req models.CreateUserRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	user, err := h.service.Create(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, user)
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	result, err := h.service.Login(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	users, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	limit, offset := filter.Page()
	httputil.WriteJSON(w, http.StatusOK, models.ListResponse{Users: users, Limit: limit, Offset: offset})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	userID, err := id.ParseUserID(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	user, err := h.service.Get(r.Context(), userID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, user)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	userID, err := id.ParseUserID(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if !isOwner(r, userID) {
		h.writeError(w, r, errNotOwner())
		return
	}
	var req models.UpdateUserRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	user, err := h.service.Update(r.Context(), userID, req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, user)
}

func (h *Handler) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	userID, err := id.ParseUserID(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if !isOwner(r, userID) {
		h.writeError(w, r, errNotOwner())
		return
	}
	var req models.ChangePasswordRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.service.ChangePassword(r.Context(), userID, req); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) transition(apply func(Service, context.Context, id.UserID) (*models.User, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := id.ParseUserID(chi.URLParam(r, "id"))
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		user, err := apply(h.service, r.Context(), userID)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, user)
	}
}

// ownerOnly rejects requests whose {id} is not the authenticated user.
func (h *Handler) ownerOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := id.ParseUserID(chi.URLParam(r, "id"))
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		if !isOwner(r, userID) {
			h.writeError(w, r, errNotOwner())
			return
		}
		next(w, r)
	}
}

func isOwner(r *http.Request, userID id.UserID) bool {
	return requestcontext.UserID(r.Context()) == userID
}

func errNotOwner() error {
	return dErrors.New(dErrors.CodeForbidden, "cannot act on another user's account")
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	userID, err := id.ParseUserID(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.service.Delete(r.Context(), userID); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(ctx, "user request failed",
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
		Name:  q.Get("name"),
		Email: q.Get("email"),
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
