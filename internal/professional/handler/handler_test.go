package handler

import (
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"clinic/internal/contact"
	"clinic/internal/professional/handler/mocks"
	"clinic/internal/professional/models"
	id "clinic/pkg/domain"
	dErrors "clinic/pkg/domain-errors"
	"clinic/pkg/testutil"
)

const accessToken = "access-token"

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service
type HandlerSuite struct {
	suite.Suite
	service *mocks.MockService
	router  chi.Router
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())
	s.service = mocks.NewMockService(ctrl)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := New(s.service, logger, testutil.StaticValidator{Token: accessToken, UserID: id.NewUserID()}, nil, nil)
	s.router = chi.NewRouter()
	h.Register(s.router)
}

func (s *HandlerSuite) do(method, path string, body any) *http.Request {
	req := testutil.NewJSONRequest(s.T(), method, path, body)
	req.Header.Set("Authorization", testutil.Bearer(accessToken))
	return req
}

func sampleProfessional() *models.Professional {
	now := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	return &models.Professional{
		ID:   id.NewProfessionalID(),
		Type: models.TypePsychologist,
		Person: models.Person{
			Name:      "Ana Paula Reis",
			Document:  "52998224725",
			Gender:    models.GenderFemale,
			State:     models.StateActive,
			Phones:    []*models.ProfessionalPhone{},
			Addresses: []*models.ProfessionalAddress{},
		},
		RegistrationNumber: "06/123456",
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}

func (s *HandlerSuite) TestRequiresToken() {
	rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodGet, "/professionals", nil))
	testutil.AssertStatusAndError(s.T(), rr, http.StatusUnauthorized, "unauthorized")
}

func (s *HandlerSuite) TestCreate() {
	s.Run("created", func() {
		p := sampleProfessional()
		s.service.EXPECT().Create(gomock.Any(), models.CreateProfessionalRequest{
			Params: models.Params{
				Type:               models.TypePsychologist,
				PersonParams:       models.PersonParams{Name: "Ana Paula Reis", Document: "529.982.247-25", BirthDate: "1990-07-15"},
				RegistrationNumber: "06/123456",
			},
			Phones: []contact.PhoneParams{{DDD: "11", Number: "987654321"}},
		}).Return(p, nil)

		rr := testutil.DoRequest(s.router, s.do(http.MethodPost, "/professionals", map[string]any{
			"type":                "psychologist",
			"name":                "Ana Paula Reis",
			"document":            "529.982.247-25",
			"birth_date":          "1990-07-15",
			"registration_number": "06/123456",
			"phones":              []map[string]string{{"ddd": "11", "number": "987654321"}},
		}))
		testutil.AssertStatus(s.T(), rr, http.StatusCreated)
		resp := testutil.UnmarshalResponse[models.Professional](s.T(), rr)
		s.Equal(p.ID, resp.ID)
		s.Equal("Ana Paula Reis", resp.Name)
		s.Equal(models.StateActive, resp.State)
	})

	s.Run("unsupported type", func() {
		s.service.EXPECT().Create(gomock.Any(), gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeInvalidInput, "unsupported professional type"))
		rr := testutil.DoRequest(s.router, s.do(http.MethodPost, "/professionals", map[string]string{"type": "dentist"}))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "invalid_input")
	})

	s.Run("invalid CRP", func() {
		s.service.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil, dErrors.Validation(
			dErrors.Violation{Key: "person.document.invalid", Message: "CPF is invalid"},
			dErrors.Violation{Key: "professional.crp.invalid", Message: "CRP is invalid"},
		))
		rr := testutil.DoRequest(s.router, s.do(http.MethodPost, "/professionals", map[string]string{"type": "psychologist"}))
		testutil.AssertValidationErrors(s.T(), rr, "CPF is invalid", "CRP is invalid")
	})

	s.Run("duplicate CPF", func() {
		s.service.EXPECT().Create(gomock.Any(), gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeConflict, "CPF already registered"))
		rr := testutil.DoRequest(s.router, s.do(http.MethodPost, "/professionals", map[string]string{"type": "psychologist"}))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusConflict, "conflict")
	})
}

func (s *HandlerSuite) TestList() {
	s.Run("filters", func() {
		s.service.EXPECT().List(gomock.Any(), models.Filter{
			Type: models.TypeNutritionist, State: models.StateActive, Document: "52998224725", Limit: 10, Offset: 20,
		}).Return([]*models.Professional{sampleProfessional()}, nil)

		rr := testutil.DoRequest(s.router, s.do(http.MethodGet,
			"/professionals?type=Nutritionist&state=active&document=529.982.247-25&limit=10&offset=20", nil))
		testutil.AssertStatus(s.T(), rr, http.StatusOK)
		resp := testutil.UnmarshalResponse[models.ListResponse](s.T(), rr)
		s.Len(resp.Professionals, 1)
		s.Equal(10, resp.Limit)
		s.Equal(20, resp.Offset)
	})

	s.Run("bad state", func() {
		rr := testutil.DoRequest(s.router, s.do(http.MethodGet, "/professionals?state=retired", nil))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "invalid_input")
	})
}

func (s *HandlerSuite) TestGetAndUpdate() {
	p := sampleProfessional()

	s.Run("get", func() {
		s.service.EXPECT().Get(gomock.Any(), p.ID).Return(p, nil)
		rr := testutil.DoRequest(s.router, s.do(http.MethodGet, "/professionals/"+p.ID.String(), nil))
		testutil.AssertStatus(s.T(), rr, http.StatusOK)
	})

	s.Run("not found", func() {
		s.service.EXPECT().Get(gomock.Any(), p.ID).Return(nil, dErrors.New(dErrors.CodeNotFound, "professional not found"))
		rr := testutil.DoRequest(s.router, s.do(http.MethodGet, "/professionals/"+p.ID.String(), nil))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusNotFound, "not_found")
	})

	s.Run("bad id", func() {
		rr := testutil.DoRequest(s.router, s.do(http.MethodGet, "/professionals/abc", nil))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "invalid_input")
	})

	s.Run("update", func() {
		req := models.UpdateProfessionalRequest{
			PersonParams:       models.PersonParams{Name: "Ana Reis", Document: "52998224725"},
			RegistrationNumber: "06/654321",
		}
		s.service.EXPECT().Update(gomock.Any(), p.ID, req).Return(p, nil)
		rr := testutil.DoRequest(s.router, s.do(http.MethodPut, "/professionals/"+p.ID.String(), req))
		testutil.AssertStatus(s.T(), rr, http.StatusOK)
	})

	s.Run("reactivate active professional", func() {
		s.service.EXPECT().Reactivate(gomock.Any(), p.ID).
			Return(nil, dErrors.New(dErrors.CodeInvariantViolation, "professional is already active"))
		rr := testutil.DoRequest(s.router, s.do(http.MethodPost, "/professionals/"+p.ID.String()+"/reactivate", nil))
		testutil.AssertStatus(s.T(), rr, http.StatusConflict)
	})

	s.Run("deactivate", func() {
		s.service.EXPECT().Deactivate(gomock.Any(), p.ID).Return(p, nil)
		rr := testutil.DoRequest(s.router, s.do(http.MethodPost, "/professionals/"+p.ID.String()+"/deactivate", nil))
		testutil.AssertStatus(s.T(), rr, http.StatusOK)
	})
}

func (s *HandlerSuite) TestContacts() {
	p := sampleProfessional()
	phoneID := id.NewPhoneID()
	addressID := id.NewAddressID()
	base := "/professionals/" + p.ID.String()

	s.Run("add phone", func() {
		req := models.AddPhoneRequest{DDD: "21", Number: "99999-8888"}
		s.service.EXPECT().AddPhone(gomock.Any(), p.ID, req).Return(p, nil)
		rr := testutil.DoRequest(s.router, s.do(http.MethodPost, base+"/phones", req))
		testutil.AssertStatus(s.T(), rr, http.StatusCreated)
	})

	s.Run("mark principal phone", func() {
		s.service.EXPECT().MarkPrincipalPhone(gomock.Any(), p.ID, phoneID).Return(p, nil)
		rr := testutil.DoRequest(s.router, s.do(http.MethodPut, base+"/phones/"+phoneID.String()+"/principal", nil))
		testutil.AssertStatus(s.T(), rr, http.StatusOK)
	})

	s.Run("remove phone", func() {
		s.service.EXPECT().RemovePhone(gomock.Any(), p.ID, phoneID).Return(p, nil)
		rr := testutil.DoRequest(s.router, s.do(http.MethodDelete, base+"/phones/"+phoneID.String(), nil))
		testutil.AssertStatus(s.T(), rr, http.StatusOK)
	})

	s.Run("add address by CEP", func() {
		req := models.AddAddressRequest{
			AddressParams: contact.AddressParams{Number: "1000", ZipCode: "01310-100"},
			Principal:     true,
		}
		s.service.EXPECT().AddAddress(gomock.Any(), p.ID, req).Return(p, nil)
		rr := testutil.DoRequest(s.router, s.do(http.MethodPost, base+"/addresses", map[string]any{
			"number": "1000", "zip_code": "01310-100", "is_principal": true,
		}))
		testutil.AssertStatus(s.T(), rr, http.StatusCreated)
	})

	s.Run("invalid address", func() {
		s.service.EXPECT().AddAddress(gomock.Any(), p.ID, gomock.Any()).Return(nil, dErrors.Validation(
			dErrors.Violation{Key: "address.zip_code.invalid", Message: "ZIP code is invalid"},
		))
		rr := testutil.DoRequest(s.router, s.do(http.MethodPost, base+"/addresses", map[string]any{"zip_code": "123"}))
		testutil.AssertValidationErrors(s.T(), rr, "ZIP code is invalid")
	})

	s.Run("mark principal address", func() {
		s.service.EXPECT().MarkPrincipalAddress(gomock.Any(), p.ID, addressID).Return(p, nil)
		rr := testutil.DoRequest(s.router, s.do(http.MethodPut, base+"/addresses/"+addressID.String()+"/principal", nil))
		testutil.AssertStatus(s.T(), rr, http.StatusOK)
	})

	s.Run("remove unknown address", func() {
		s.service.EXPECT().RemoveAddress(gomock.Any(), p.ID, addressID).
			Return(nil, dErrors.New(dErrors.CodeNotFound, "address not found"))
		rr := testutil.DoRequest(s.router, s.do(http.MethodDelete, base+"/addresses/"+addressID.String(), nil))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusNotFound, "not_found")
	})

	s.Run("bad address id", func() {
		rr := testutil.DoRequest(s.router, s.do(http.MethodDelete, base+"/addresses/nope", nil))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "invalid_input")
	})
}
