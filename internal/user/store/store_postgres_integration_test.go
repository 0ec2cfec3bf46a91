//go:build integration

package store_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"clinic/internal/user/models"
	"clinic/internal/user/store"
	id "clinic/pkg/domain"
	"clinic/pkg/platform/sentinel"
	"clinic/pkg/platform/tx"
	"clinic/pkg/testutil/containers"
)

type PostgresIntegrationSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.PostgresStore
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
}

func (s *PostgresIntegrationSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "users"))
}

func newUser(name, email string) *models.User {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &models.User{
		ID:           id.NewUserID(),
		Name:         name,
		Email:        email,
		PasswordHash: "pbkdf2-sha256$10000$c2FsdA$aGFzaA",
		State:        models.StateActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func (s *PostgresIntegrationSuite) TestRoundTrip() {
	ctx := context.Background()
	user := newUser("Ana Lima", "ana@example.com")
	s.Require().NoError(s.store.Create(ctx, user))

	found, err := s.store.FindByEmail(ctx, "ana@example.com")
	s.Require().NoError(err)
	s.Equal(user.ID, found.ID)
	s.True(user.CreatedAt.Equal(found.CreatedAt))

	_, err = s.store.Execute(ctx, found.ID, func(u *models.User) error {
		u.State = models.StateBlocked
		return nil
	})
	s.Require().NoError(err)

	blocked, err := s.store.Find(ctx, models.Filter{State: models.StateBlocked})
	s.Require().NoError(err)
	s.Len(blocked, 1)

	s.Require().NoError(s.store.Delete(ctx, user.ID))
	_, err = s.store.FindByID(ctx, user.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresIntegrationSuite) TestConcurrentCreateSameEmail() {
	ctx := context.Background()
	var (
		wg        sync.WaitGroup
		created   atomic.Int32
		conflicts atomic.Int32
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			switch err := s.store.Create(ctx, newUser("Ana Lima", "ana@example.com")); {
			case err == nil:
				created.Add(1)
			case err == sentinel.ErrAlreadyUsed:
				conflicts.Add(1)
			}
		}()
	}
	wg.Wait()
	s.Equal(int32(1), created.Load())
	s.Equal(int32(9), conflicts.Load())
}

func (s *PostgresIntegrationSuite) TestConcurrentExecuteKeepsEveryChange() {
	ctx := context.Background()
	user := newUser("", "ana@example.com")
	s.Require().NoError(s.store.Create(ctx, user))

	const writers = 10
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.store.Execute(ctx, user.ID, func(u *models.User) error {
				u.Name += "x"
				return nil
			})
			s.NoError(err)
		}()
	}
	wg.Wait()

	found, err := s.store.FindByID(ctx, user.ID)
	s.Require().NoError(err)
	s.Len(found.Name, writers)
}

func (s *PostgresIntegrationSuite) TestFindIgnoresAccents() {
	ctx := context.Background()
	user := newUser("João Conceição", "joao@example.com")
	s.Require().NoError(s.store.Create(ctx, user))

	found, err := s.store.Find(ctx, models.Filter{Name: "conceicao"})
	s.Require().NoError(err)
	s.Require().Len(found, 1)
	s.Equal(user.ID, found[0].ID)
}

func (s *PostgresIntegrationSuite) TestRollbackDiscardsWrites() {
	ctx := context.Background()
	user := newUser("Ana Lima", "ana@example.com")
	runner := tx.NewSQLRunner(s.postgres.DB, 0)

	err := runner.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.store.Create(ctx, user); err != nil {
			return err
		}
		return sentinel.ErrInvalidState
	})
	s.ErrorIs(err, sentinel.ErrInvalidState)

	_, err = s.store.FindByID(ctx, user.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)
}
