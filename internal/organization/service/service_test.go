package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"clinic/internal/contact"
	"clinic/internal/organization/export"
	"clinic/internal/organization/metrics"
	"clinic/internal/organization/models"
	"clinic/internal/organization/service/mocks"
	id "clinic/pkg/domain"
	dErrors "clinic/pkg/domain-errors"
	"clinic/pkg/platform/audit"
	"clinic/pkg/platform/sentinel"
	"clinic/pkg/requestcontext"
)

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks Store,Professionals,AuditPublisher
type ServiceSuite struct {
	suite.Suite
	ctrl          *gomock.Controller
	store         *mocks.MockStore
	professionals *mocks.MockProfessionals
	publisher     *mocks.MockAuditPublisher
	metrics       *metrics.Metrics
	service       *Service
	now           time.Time
	ctx           context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.store = mocks.NewMockStore(s.ctrl)
	s.professionals = mocks.NewMockProfessionals(s.ctrl)
	s.publisher = mocks.NewMockAuditPublisher(s.ctrl)
	s.metrics = metrics.New(prometheus.NewRegistry())
	s.now = time.Date(2026, 4, 2, 15, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)
	s.service = New(s.store, s.professionals,
		WithAuditPublisher(s.publisher),
		WithMetrics(s.metrics),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
}

func (s *ServiceSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *ServiceSuite) existing() *models.Organization {
	org, err := models.NewOrganization(id.NewOrganizationID(), models.Params{
		TradeName: "Clínica Saúde Total",
		LegalName: "Saúde Total Serviços Médicos Ltda",
		CNPJ:      "11.222.333/0001-81",
	}, s.now.Add(-time.Hour))
	s.Require().NoError(err)
	return org
}

func (s *ServiceSuite) expectAudit(action audit.AuditEvent) *gomock.Call {
	return s.publisher.EXPECT().Emit(gomock.Any(), gomock.Cond(func(e audit.Event) bool {
		return e.Action == string(action)
	})).Return(nil)
}

func (s *ServiceSuite) expectLoad(org *models.Organization) {
	s.store.EXPECT().FindByID(gomock.Any(), org.ID).Return(org, nil)
}

// expectExecute applies the change to org in place, as the store would to
// its locked copy.
func (s *ServiceSuite) expectExecute(org *models.Organization) *gomock.Call {
	return s.store.EXPECT().Execute(gomock.Any(), org.ID, gomock.Any()).DoAndReturn(
		func(_ context.Context, _ id.OrganizationID, fn func(*models.Organization) error) (*models.Organization, error) {
			if err := fn(org); err != nil {
				return nil, err
			}
			return org, nil
		})
}

func (s *ServiceSuite) TestCreate() {
	s.Run("stores organization with phones", func() {
		req := models.CreateOrganizationRequest{
			TradeName: "Clínica Saúde Total",
			LegalName: "Saúde Total Serviços Médicos Ltda",
			CNPJ:      "11.222.333/0001-81",
			Phones: []contact.PhoneParams{
				{DDD: "(11)", Number: "98765-4321"},
				{DDD: "11", Number: "3333-4444"},
			},
		}
		s.store.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, org *models.Organization) error {
			s.Equal("11222333000181", org.CNPJ)
			s.Len(org.Phones, 2)
			s.True(org.Phones[0].IsPrincipal())
			s.Equal(s.now, org.CreatedAt)
			return nil
		})
		s.publisher.EXPECT().Emit(gomock.Any(), gomock.Cond(func(e audit.Event) bool {
			return e.Action == string(audit.EventOrganizationCreated) && len(e.Subject) > len("organization:")
		})).Return(nil)

		org, err := s.service.Create(s.ctx, req)
		s.Require().NoError(err)
		s.Equal(models.StateActive, org.State)
		s.Equal(float64(1), promtest.ToFloat64(s.metrics.OrganizationsCreated))
	})

	s.Run("invalid CNPJ", func() {
		_, err := s.service.Create(s.ctx, models.CreateOrganizationRequest{
			TradeName: "Clínica Saúde Total", LegalName: "Saúde Total Ltda", CNPJ: "11.111.111/1111-11",
		})
		s.Require().Error(err)
		s.Equal([]string{"CNPJ is invalid"}, dErrors.Messages(err))
		s.Equal(float64(1), promtest.ToFloat64(s.metrics.ValidationFailures))
	})

	s.Run("organization and phone violations are reported together", func() {
		_, err := s.service.Create(s.ctx, models.CreateOrganizationRequest{
			LegalName: "Saúde Total Ltda",
			CNPJ:      "11.222.333/0001-81",
			Phones:    []contact.PhoneParams{{DDD: "1", Number: "123"}},
		})
		s.Require().Error(err)
		s.Equal([]string{
			"Trade name is required",
			"DDD must have 2 digits",
			"Phone number must have 8 or 9 digits",
		}, dErrors.Messages(err))
	})

	s.Run("audit failure fails the create", func() {
		s.store.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)
		s.publisher.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(errors.New("outbox unavailable"))
		_, err := s.service.Create(s.ctx, models.CreateOrganizationRequest{
			TradeName: "Clínica Saúde Total", LegalName: "Saúde Total Ltda", CNPJ: "11222333000181",
		})
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	})

	s.Run("duplicate CNPJ", func() {
		s.store.EXPECT().Create(gomock.Any(), gomock.Any()).Return(sentinel.ErrAlreadyUsed)
		_, err := s.service.Create(s.ctx, models.CreateOrganizationRequest{
			TradeName: "Clínica Saúde Total", LegalName: "Saúde Total Ltda", CNPJ: "11222333000181",
		})
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})
}

func (s *ServiceSuite) TestUpdate() {
	s.Run("empty trade name leaves the stored organization untouched", func() {
		org := s.existing()
		s.expectExecute(org)

		_, err := s.service.Update(s.ctx, org.ID, models.UpdateOrganizationRequest{
			TradeName: "", LegalName: org.LegalName, CNPJ: org.CNPJ,
		})
		s.Require().Error(err)
		s.Equal([]string{"Trade name is required"}, dErrors.Messages(err))
		s.Equal("Clínica Saúde Total", org.TradeName)
	})

	s.Run("saves valid changes", func() {
		org := s.existing()
		s.expectExecute(org)
		s.expectAudit(audit.EventOrganizationUpdated)

		updated, err := s.service.Update(s.ctx, org.ID, models.UpdateOrganizationRequest{
			TradeName: "Clínica Bem Estar", LegalName: org.LegalName, CNPJ: org.CNPJ,
		})
		s.Require().NoError(err)
		s.Equal("Clínica Bem Estar", updated.TradeName)
		s.Equal(s.now, updated.UpdatedAt)
	})

	s.Run("missing organization", func() {
		orgID := id.NewOrganizationID()
		s.store.EXPECT().Execute(gomock.Any(), orgID, gomock.Any()).Return(nil, sentinel.ErrNotFound)
		_, err := s.service.Update(s.ctx, orgID, models.UpdateOrganizationRequest{})
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("CNPJ taken by another organization", func() {
		org := s.existing()
		s.store.EXPECT().Execute(gomock.Any(), org.ID, gomock.Any()).Return(nil, sentinel.ErrAlreadyUsed)
		_, err := s.service.Update(s.ctx, org.ID, models.UpdateOrganizationRequest{
			TradeName: org.TradeName, LegalName: org.LegalName, CNPJ: org.CNPJ,
		})
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("audit failure fails the update", func() {
		org := s.existing()
		s.expectExecute(org)
		s.publisher.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(errors.New("outbox unavailable"))

		_, err := s.service.Update(s.ctx, org.ID, models.UpdateOrganizationRequest{
			TradeName: "Clínica Bem Estar", LegalName: org.LegalName, CNPJ: org.CNPJ,
		})
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	})
}

func (s *ServiceSuite) TestTransitions() {
	org := s.existing()
	s.expectExecute(org)
	s.expectAudit(audit.EventOrganizationDeactivated)

	deactivated, err := s.service.Deactivate(s.ctx, org.ID)
	s.Require().NoError(err)
	s.Equal(models.StateInactive, deactivated.State)

	s.expectExecute(org)
	_, err = s.service.Deactivate(s.ctx, org.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))

	s.expectExecute(org)
	s.expectAudit(audit.EventOrganizationReactivated)
	_, err = s.service.Reactivate(s.ctx, org.ID)
	s.Require().NoError(err)
}

func (s *ServiceSuite) TestPhones() {
	s.Run("add validates before loading", func() {
		_, err := s.service.AddPhone(s.ctx, id.NewOrganizationID(), models.AddPhoneRequest{DDD: "", Number: "987654321"})
		s.Equal([]string{"DDD is required"}, dErrors.Messages(err))
	})

	s.Run("add, mark principal and remove", func() {
		org := s.existing()
		s.expectExecute(org)
		s.expectAudit(audit.EventOrganizationPhoneChanged)
		_, err := s.service.AddPhone(s.ctx, org.ID, models.AddPhoneRequest{DDD: "11", Number: "987654321"})
		s.Require().NoError(err)

		s.expectExecute(org)
		s.expectAudit(audit.EventOrganizationPhoneChanged)
		_, err = s.service.AddPhone(s.ctx, org.ID, models.AddPhoneRequest{DDD: "11", Number: "33334444", Principal: true})
		s.Require().NoError(err)
		s.Equal(1, contact.CountPrincipal(org.Phones))
		s.True(org.Phones[1].IsPrincipal())

		s.expectExecute(org)
		s.expectAudit(audit.EventOrganizationPhoneChanged)
		_, err = s.service.MarkPrincipalPhone(s.ctx, org.ID, org.Phones[0].ID)
		s.Require().NoError(err)
		s.True(org.Phones[0].IsPrincipal())

		s.expectExecute(org)
		s.expectAudit(audit.EventOrganizationPhoneChanged)
		_, err = s.service.RemovePhone(s.ctx, org.ID, org.Phones[0].ID)
		s.Require().NoError(err)
		s.Len(org.Phones, 1)
		s.True(org.Phones[0].IsPrincipal())
	})

	s.Run("unknown phone", func() {
		org := s.existing()
		s.expectExecute(org)
		_, err := s.service.RemovePhone(s.ctx, org.ID, id.NewPhoneID())
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *ServiceSuite) TestProfessionalLinks() {
	profID := id.NewProfessionalID()

	s.Run("unknown professional", func() {
		s.professionals.EXPECT().Summaries(gomock.Any(), []id.ProfessionalID{profID}).Return(nil, nil)
		_, err := s.service.LinkProfessional(s.ctx, id.NewOrganizationID(), profID)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("link then unlink", func() {
		org := s.existing()
		s.professionals.EXPECT().Summaries(gomock.Any(), []id.ProfessionalID{profID}).
			Return([]models.ProfessionalSummary{{ID: profID, Name: "Ana Lima"}}, nil)
		s.expectExecute(org)
		s.expectAudit(audit.EventProfessionalLinked)

		_, err := s.service.LinkProfessional(s.ctx, org.ID, profID)
		s.Require().NoError(err)
		s.Equal([]id.ProfessionalID{profID}, org.ActiveProfessionalIDs())
		s.Equal(float64(1), promtest.ToFloat64(s.metrics.ProfessionalLinks.WithLabelValues("linked")))

		s.expectExecute(org)
		s.expectAudit(audit.EventProfessionalUnlinked)
		_, err = s.service.UnlinkProfessional(s.ctx, org.ID, profID)
		s.Require().NoError(err)
		s.Empty(org.ActiveProfessionalIDs())
	})
}

func (s *ServiceSuite) TestRoster() {
	org := s.existing()
	profID := id.NewProfessionalID()
	s.Require().NoError(org.LinkProfessional(profID, s.now))
	summaries := []models.ProfessionalSummary{{ID: profID, Name: "Ana Lima", Type: "psychologist", Board: "CRP", Active: true}}

	s.Run("lists linked professionals", func() {
		s.expectLoad(org)
		s.professionals.EXPECT().Summaries(gomock.Any(), []id.ProfessionalID{profID}).Return(summaries, nil)
		got, err := s.service.ListProfessionals(s.ctx, org.ID)
		s.Require().NoError(err)
		s.Equal(summaries, got)
	})

	s.Run("empty roster skips the lookup", func() {
		empty := s.existing()
		s.expectLoad(empty)
		got, err := s.service.ListProfessionals(s.ctx, empty.ID)
		s.Require().NoError(err)
		s.Empty(got)
	})

	s.Run("exports a workbook", func() {
		s.expectLoad(org)
		s.professionals.EXPECT().Summaries(gomock.Any(), gomock.Any()).Return(summaries, nil)
		s.expectAudit(audit.EventOrganizationRosterExported)

		file, err := s.service.ExportRoster(s.ctx, org.ID)
		s.Require().NoError(err)
		s.Equal(export.ContentType, file.ContentType)
		s.Equal("professionals-11222333000181.xlsx", file.FileName)
		s.NotEmpty(file.Content)
	})

	s.Run("export survives an audit failure", func() {
		s.expectLoad(org)
		s.professionals.EXPECT().Summaries(gomock.Any(), gomock.Any()).Return(summaries, nil)
		s.publisher.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(errors.New("outbox unavailable"))

		_, err := s.service.ExportRoster(s.ctx, org.ID)
		s.Require().NoError(err)
	})

	s.Run("lookup failure", func() {
		s.expectLoad(org)
		s.professionals.EXPECT().Summaries(gomock.Any(), gomock.Any()).Return(nil, errors.New("db down"))
		_, err := s.service.ExportRoster(s.ctx, org.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	})
}

func (s *ServiceSuite) TestList() {
	_, err := s.service.List(s.ctx, models.Filter{State: "archived"})
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))

	s.store.EXPECT().Find(gomock.Any(), models.Filter{State: models.StateActive}).Return([]*models.Organization{s.existing()}, nil)
	orgs, err := s.service.List(s.ctx, models.Filter{State: models.StateActive})
	s.Require().NoError(err)
	s.Len(orgs, 1)
}
