//go:build integration

package store_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"clinic/internal/contact"
	"clinic/internal/organization/models"
	"clinic/internal/organization/store"
	id "clinic/pkg/domain"
	"clinic/pkg/platform/sentinel"
	"clinic/pkg/platform/tx"
	"clinic/pkg/testutil/containers"
)

type PostgresIntegrationSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.PostgresStore
	runner   *tx.SQLRunner
}

func TestPostgresIntegrationSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresIntegrationSuite))
}

func (s *PostgresIntegrationSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.store = store.NewPostgres(s.postgres.DB)
	s.runner = tx.NewSQLRunner(s.postgres.DB, 0)
}

func (s *PostgresIntegrationSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "organizations", "professionals"))
}

func (s *PostgresIntegrationSuite) TestAggregateRoundTrip() {
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	org, err := models.NewOrganization(id.NewOrganizationID(), models.Params{
		TradeName: "Clínica Saúde Total",
		LegalName: "Saúde Total Ltda",
		CNPJ:      "11.222.333/0001-81",
	}, now)
	s.Require().NoError(err)
	first, err := contact.NewPhone(id.NewPhoneID(), contact.PhoneParams{DDD: "11", Number: "987654321"})
	s.Require().NoError(err)
	second, err := contact.NewPhone(id.NewPhoneID(), contact.PhoneParams{DDD: "21", Number: "33334444"})
	s.Require().NoError(err)
	_, err = org.AddPhone(first, false, now)
	s.Require().NoError(err)
	_, err = org.AddPhone(second, false, now)
	s.Require().NoError(err)

	s.Require().NoError(s.runner.RunInTx(ctx, func(ctx context.Context) error {
		return s.store.Create(ctx, org)
	}))

	found, err := s.store.FindByID(ctx, org.ID)
	s.Require().NoError(err)
	s.Require().Len(found.Phones, 2)
	s.Equal(1, contact.CountPrincipal(found.Phones))

	_, err = s.store.Execute(ctx, org.ID, func(o *models.Organization) error {
		return o.MarkPrincipalPhone(second.ID, now)
	})
	s.Require().NoError(err)

	again, err := s.store.FindByID(ctx, org.ID)
	s.Require().NoError(err)
	principal, ok := again.PrincipalPhone()
	s.Require().True(ok)
	s.Equal(second.ID, principal.ID)

	dup := *org
	dup.ID = id.NewOrganizationID()
	dup.Phones = nil
	dup.Professionals = nil
	s.ErrorIs(s.store.Create(ctx, &dup), sentinel.ErrAlreadyUsed)
}

func (s *PostgresIntegrationSuite) TestConcurrentExecuteKeepsEveryChange() {
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)
	org, err := models.NewOrganization(id.NewOrganizationID(), models.Params{
		TradeName: "Clínica Saúde Total",
		LegalName: "Saúde Total Ltda",
		CNPJ:      "11.222.333/0001-81",
	}, now)
	s.Require().NoError(err)
	s.Require().NoError(s.runner.RunInTx(ctx, func(ctx context.Context) error {
		return s.store.Create(ctx, org)
	}))

	const writers = 10
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		phone, err := contact.NewPhone(id.NewPhoneID(), contact.PhoneParams{DDD: "11", Number: fmt.Sprintf("9876543%02d", i)})
		s.Require().NoError(err)
		go func() {
			_, err := s.store.Execute(ctx, org.ID, func(o *models.Organization) error {
				_, err := o.AddPhone(phone, false, now)
				return err
			})
			errs <- err
		}()
	}
	for i := 0; i < writers; i++ {
		s.Require().NoError(<-errs)
	}

	found, err := s.store.FindByID(ctx, org.ID)
	s.Require().NoError(err)
	s.Len(found.Phones, writers)
	s.Equal(1, contact.CountPrincipal(found.Phones))
}

func (s *PostgresIntegrationSuite) TestFindIgnoresAccentsAndWildcards() {
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)
	org, err := models.NewOrganization(id.NewOrganizationID(), models.Params{
		TradeName: "Consultório São João",
		LegalName: "São João Ltda",
		CNPJ:      "11.222.333/0001-81",
	}, now)
	s.Require().NoError(err)
	s.Require().NoError(s.runner.RunInTx(ctx, func(ctx context.Context) error {
		return s.store.Create(ctx, org)
	}))

	found, err := s.store.Find(ctx, models.Filter{Name: "consultorio sao"})
	s.Require().NoError(err)
	s.Len(found, 1)

	found, err = s.store.Find(ctx, models.Filter{Name: "%"})
	s.Require().NoError(err)
	s.Empty(found)
}
