package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"clinic/internal/user/handler/mocks"
	"clinic/internal/user/models"
	id "clinic/pkg/domain"
	dErrors "clinic/pkg/domain-errors"
	"clinic/pkg/platform/i18n"
	"clinic/pkg/testutil"
)

const (
	accessToken = "access-token"
	adminToken  = "admin-secret"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service
type HandlerSuite struct {
	suite.Suite
	service  *mocks.MockService
	router   chi.Router
	caller   id.UserID
	accounts *accountStates
}

// accountStates answers the middleware's account check; every account is
// active unless listed in inactive.
type accountStates struct {
	inactive map[id.UserID]bool
}

func (a *accountStates) IsAccountActive(_ context.Context, userID id.UserID) (bool, error) {
	return !a.inactive[userID], nil
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())
	s.service = mocks.NewMockService(ctrl)
	s.caller = id.NewUserID()

	catalog, err := i18n.Parse("en", map[string][]byte{
		"en":    []byte("user:\n  name:\n    required: Name is required\n"),
		"pt-BR": []byte("user:\n  name:\n    required: Nome é obrigatório\n"),
	})
	s.Require().NoError(err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.accounts = &accountStates{inactive: map[id.UserID]bool{}}
	h := New(s.service, logger, testutil.StaticValidator{Token: accessToken, UserID: s.caller}, s.accounts, adminToken, catalog)
	s.router = chi.NewRouter()
	h.Register(s.router)
}

func (s *HandlerSuite) authed(req *http.Request) *http.Request {
	req.Header.Set("Authorization", testutil.Bearer(accessToken))
	return req
}

func sampleUser() *models.User {
	now := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	return &models.User{
		ID:           id.NewUserID(),
		Name:         "Ana Lima",
		Email:        "ana@example.com",
		PasswordHash: "pbkdf2-sha256$10000$c2FsdA$aGFzaA",
		State:        models.StateActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func (s *HandlerSuite) TestCreate() {
	s.Run("created user never exposes hash", func() {
		user := sampleUser()
		s.service.EXPECT().Create(gomock.Any(), models.CreateUserRequest{Name: "Ana Lima", Email: "ana@example.com", Password: "SenhaForte@123"}).
			Return(user, nil)

		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/users", map[string]string{
			"name": "  Ana Lima ", "email": "ana@example.com", "password": "SenhaForte@123",
		})
		rr := testutil.DoRequest(s.router, req)

		testutil.AssertStatus(s.T(), rr, http.StatusCreated)
		s.NotContains(rr.Body.String(), "password")
		s.NotContains(rr.Body.String(), "pbkdf2")
		resp := testutil.UnmarshalResponse[map[string]any](s.T(), rr)
		s.Equal(user.ID.String(), (*resp)["id"])
	})

	s.Run("validation messages are translated", func() {
		s.service.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil, dErrors.Validation(
			dErrors.Violation{Key: "user.name.required", Message: "Name is required"},
			dErrors.Violation{Key: "user.email.invalid", Message: "Email is invalid"},
		))

		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/users", map[string]string{"name": "", "email": "x", "password": "y"})
		req = testutil.WithLocale(req, "pt-BR")
		rr := testutil.DoRequest(s.router, req)

		testutil.AssertValidationErrors(s.T(), rr, "Nome é obrigatório", "Email is invalid")
	})

	s.Run("unknown fields are rejected", func() {
		req := testutil.NewRequestWithBody(s.T(), http.MethodPost, "/users", `{"name":"Ana","role":"admin"}`)
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "bad_request")
	})

	s.Run("duplicate email", func() {
		s.service.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil, dErrors.New(dErrors.CodeConflict, "email already in use"))
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/users", map[string]string{"name": "Ana", "email": "ana@example.com", "password": "x"})
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusConflict, "conflict")
	})
}

func (s *HandlerSuite) TestLogin() {
	s.Run("returns token", func() {
		user := sampleUser()
		s.service.EXPECT().Login(gomock.Any(), models.LoginRequest{Email: "ana@example.com", Password: "SenhaForte@123"}).
			Return(&models.LoginResult{AccessToken: "jwt", TokenType: "Bearer", User: user}, nil)

		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/auth/login", models.LoginRequest{Email: "ana@example.com", Password: "SenhaForte@123"})
		rr := testutil.DoRequest(s.router, req)

		testutil.AssertStatus(s.T(), rr, http.StatusOK)
		resp := testutil.UnmarshalResponse[models.LoginResult](s.T(), rr)
		s.Equal("jwt", resp.AccessToken)
	})

	s.Run("password reaches the service verbatim", func() {
		s.service.EXPECT().Login(gomock.Any(), models.LoginRequest{Email: "ana@example.com", Password: " SenhaForte@123 "}).
			Return(&models.LoginResult{AccessToken: "jwt", TokenType: "Bearer", User: sampleUser()}, nil)

		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/auth/login", map[string]string{
			"email": " ana@example.com ", "password": " SenhaForte@123 ",
		})
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatus(s.T(), rr, http.StatusOK)
	})

	s.Run("too many attempts", func() {
		s.service.EXPECT().Login(gomock.Any(), gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeTooManyRequests, "too many failed login attempts, try again later"))
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/auth/login", models.LoginRequest{Email: "ana@example.com", Password: "bad"})
		rr := testutil.DoRequest(s.router, req)

		testutil.AssertStatusAndError(s.T(), rr, http.StatusTooManyRequests, "too_many_requests")
	})

	s.Run("invalid credentials", func() {
		s.service.EXPECT().Login(gomock.Any(), gomock.Any()).Return(nil, dErrors.New(dErrors.CodeUnauthorized, "invalid credentials"))
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/auth/login", models.LoginRequest{Email: "x@example.com", Password: "bad"})
		rr := testutil.DoRequest(s.router, req)

		testutil.AssertStatusAndError(s.T(), rr, http.StatusUnauthorized, "unauthorized")
		s.Equal("invalid credentials", testutil.UnmarshalErrorResponse(s.T(), rr).Description)
	})
}

func (s *HandlerSuite) TestAuthenticatedRoutesRequireToken() {
	req := testutil.NewJSONRequest(s.T(), http.MethodGet, "/users", nil)
	rr := testutil.DoRequest(s.router, req)
	testutil.AssertStatusAndError(s.T(), rr, http.StatusUnauthorized, "unauthorized")
}

func (s *HandlerSuite) TestList() {
	s.Run("parses filter", func() {
		s.service.EXPECT().List(gomock.Any(), models.Filter{State: models.StateBlocked, Name: "lima", Limit: 10, Offset: 20}).
			Return([]*models.User{sampleUser()}, nil)

		req := s.authed(testutil.NewJSONRequest(s.T(), http.MethodGet, "/users?state=blocked&name=lima&limit=10&offset=20", nil))
		rr := testutil.DoRequest(s.router, req)

		testutil.AssertStatus(s.T(), rr, http.StatusOK)
		resp := testutil.UnmarshalResponse[models.ListResponse](s.T(), rr)
		s.Len(resp.Users, 1)
		s.Equal(10, resp.Limit)
	})

	s.Run("bad state", func() {
		req := s.authed(testutil.NewJSONRequest(s.T(), http.MethodGet, "/users?state=gone", nil))
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "invalid_input")
	})

	s.Run("bad limit", func() {
		req := s.authed(testutil.NewJSONRequest(s.T(), http.MethodGet, "/users?limit=ten", nil))
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "bad_request")
	})
}

func (s *HandlerSuite) TestGet() {
	s.Run("malformed id", func() {
		req := s.authed(testutil.NewJSONRequest(s.T(), http.MethodGet, "/users/not-a-uuid", nil))
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "invalid_input")
	})

	s.Run("not found", func() {
		userID := id.NewUserID()
		s.service.EXPECT().Get(gomock.Any(), userID).Return(nil, dErrors.New(dErrors.CodeNotFound, "user not found"))
		req := s.authed(testutil.NewJSONRequest(s.T(), http.MethodGet, "/users/"+userID.String(), nil))
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusNotFound, "not_found")
	})

	s.Run("internal errors hide details", func() {
		userID := id.NewUserID()
		s.service.EXPECT().Get(gomock.Any(), userID).Return(nil, dErrors.New(dErrors.CodeInternal, "pq: connection refused"))
		req := s.authed(testutil.NewJSONRequest(s.T(), http.MethodGet, "/users/"+userID.String(), nil))
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatus(s.T(), rr, http.StatusInternalServerError)
		s.NotContains(rr.Body.String(), "connection refused")
	})
}

func (s *HandlerSuite) admin(req *http.Request) *http.Request {
	req.Header.Set("X-Admin-Token", adminToken)
	return req
}

func (s *HandlerSuite) TestUpdateAndTransitions() {
	user := sampleUser()
	user.ID = s.caller

	s.Run("update own profile", func() {
		s.service.EXPECT().Update(gomock.Any(), user.ID, models.UpdateUserRequest{Name: "Ana Maria", Email: "ana@example.com"}).Return(user, nil)
		req := s.authed(testutil.NewJSONRequest(s.T(), http.MethodPut, "/users/"+user.ID.String(), models.UpdateUserRequest{Name: "Ana Maria", Email: "ana@example.com"}))
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatus(s.T(), rr, http.StatusOK)
	})

	s.Run("deactivate own account", func() {
		s.service.EXPECT().Deactivate(gomock.Any(), user.ID).Return(user, nil)
		req := s.authed(testutil.NewJSONRequest(s.T(), http.MethodPost, "/users/"+user.ID.String()+"/deactivate", nil))
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatus(s.T(), rr, http.StatusOK)
	})

	s.Run("admin blocks", func() {
		blocked := *user
		blocked.State = models.StateBlocked
		s.service.EXPECT().Block(gomock.Any(), user.ID).Return(&blocked, nil)
		req := s.admin(testutil.NewJSONRequest(s.T(), http.MethodPost, "/admin/users/"+user.ID.String()+"/block", nil))
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatus(s.T(), rr, http.StatusOK)
		resp := testutil.UnmarshalResponse[models.User](s.T(), rr)
		s.Equal(models.StateBlocked, resp.State)
	})

	s.Run("admin reactivate conflict", func() {
		s.service.EXPECT().Reactivate(gomock.Any(), user.ID).Return(nil, dErrors.New(dErrors.CodeInvariantViolation, "user is already active"))
		req := s.admin(testutil.NewJSONRequest(s.T(), http.MethodPost, "/admin/users/"+user.ID.String()+"/reactivate", nil))
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusConflict, "invariant_violation")
	})
}

func (s *HandlerSuite) TestOtherAccountsAreOffLimits() {
	other := id.NewUserID().String()

	s.Run("update", func() {
		req := s.authed(testutil.NewJSONRequest(s.T(), http.MethodPut, "/users/"+other, models.UpdateUserRequest{Name: "X", Email: "x@example.com"}))
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusForbidden, "forbidden")
	})

	s.Run("deactivate", func() {
		req := s.authed(testutil.NewJSONRequest(s.T(), http.MethodPost, "/users/"+other+"/deactivate", nil))
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusForbidden, "forbidden")
	})

	s.Run("block and reactivate need the admin token", func() {
		for _, path := range []string{"/admin/users/" + other + "/block", "/admin/users/" + other + "/reactivate"} {
			req := s.authed(testutil.NewJSONRequest(s.T(), http.MethodPost, path, nil))
			rr := testutil.DoRequest(s.router, req)
			testutil.AssertStatus(s.T(), rr, http.StatusForbidden)
		}
	})

	s.Run("old user routes are gone", func() {
		req := s.authed(testutil.NewJSONRequest(s.T(), http.MethodPost, "/users/"+other+"/block", nil))
		rr := testutil.DoRequest(s.router, req)
		s.Contains([]int{http.StatusNotFound, http.StatusMethodNotAllowed}, rr.Code)
	})
}

func (s *HandlerSuite) TestInactiveAccountTokenIsRejected() {
	s.accounts.inactive[s.caller] = true

	req := s.authed(testutil.NewJSONRequest(s.T(), http.MethodPut, "/users/"+s.caller.String(), models.UpdateUserRequest{Name: "Ana", Email: "ana@example.com"}))
	rr := testutil.DoRequest(s.router, req)
	testutil.AssertStatusAndError(s.T(), rr, http.StatusUnauthorized, "unauthorized")

	req = s.authed(testutil.NewJSONRequest(s.T(), http.MethodGet, "/users", nil))
	rr = testutil.DoRequest(s.router, req)
	testutil.AssertStatusAndError(s.T(), rr, http.StatusUnauthorized, "unauthorized")
}

func (s *HandlerSuite) TestChangePassword() {
	body := models.ChangePasswordRequest{CurrentPassword: "SenhaForte@123", NewPassword: "OutraSenha#2026"}

	s.Run("own password", func() {
		s.service.EXPECT().ChangePassword(gomock.Any(), s.caller, body).Return(nil)
		req := s.authed(testutil.NewJSONRequest(s.T(), http.MethodPost, "/users/"+s.caller.String()+"/password", body))
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatus(s.T(), rr, http.StatusNoContent)
	})

	s.Run("passwords are not trimmed", func() {
		padded := models.ChangePasswordRequest{CurrentPassword: " SenhaForte@123", NewPassword: "OutraSenha#2026 "}
		s.service.EXPECT().ChangePassword(gomock.Any(), s.caller, padded).Return(nil)
		req := s.authed(testutil.NewJSONRequest(s.T(), http.MethodPost, "/users/"+s.caller.String()+"/password", padded))
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatus(s.T(), rr, http.StatusNoContent)
	})

	s.Run("someone else's password is forbidden", func() {
		req := s.authed(testutil.NewJSONRequest(s.T(), http.MethodPost, "/users/"+id.NewUserID().String()+"/password", body))
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusForbidden, "forbidden")
	})
}

func (s *HandlerSuite) TestAdminDelete() {
	userID := id.NewUserID()

	s.Run("requires admin token", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodDelete, "/admin/users/"+userID.String(), nil)
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusForbidden, "forbidden")
	})

	s.Run("bearer token is not enough", func() {
		req := s.authed(testutil.NewJSONRequest(s.T(), http.MethodDelete, "/admin/users/"+userID.String(), nil))
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatus(s.T(), rr, http.StatusForbidden)
	})

	s.Run("deletes", func() {
		s.service.EXPECT().Delete(gomock.Any(), userID).Return(nil)
		req := testutil.NewJSONRequest(s.T(), http.MethodDelete, "/admin/users/"+userID.String(), nil)
		req.Header.Set("X-Admin-Token", adminToken)
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatus(s.T(), rr, http.StatusNoContent)
	})
}
