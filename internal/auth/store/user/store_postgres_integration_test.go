//go:build integration

package user_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"github.com/Aldorax/soo-ade/internal/auth/models"
	"github.com/Aldorax/soo-ade/internal/auth/store/user"
	"github.com/Aldorax/soo-ade/pkg/platform/sentinel"
	"github.com/Aldorax/soo-ade/pkg/testutil/containers"
)

type PostgresUserStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *user.PostgresUserStore
}

func TestPostgresUserStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresUserStoreSuite))
}

func (s *PostgresUserStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.store = user.NewPostgres(s.postgres.DB)
}

func (s *PostgresUserStoreSuite) SetupTest() {
	ctx := context.Background()
	// Truncate in dependency order
	err := s.postgres.TruncateTables(ctx, "transactions", "applications", "users")
	s.Require().NoError(err)
}

func newTestUser(email string) *models.User {
	now := time.Now()
	return &models.User{
		ID:           uuid.New(),
		FirstName:    "Jane",
		LastName:     "Doe",
		Email:        email,
		PasswordHash: "x",
		DateOfBirth:  time.Date(1995, 4, 12, 0, 0, 0, 0, time.UTC),
		Role:         models.RoleApplicant,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func (s *PostgresUserStoreSuite) TestCreateAndFind() {
	ctx := context.Background()
	u := newTestUser("jane.doe@example.com")
	s.Require().NoError(s.store.Create(ctx, u))

	found, err := s.store.FindByID(ctx, u.ID)
	s.Require().NoError(err)
	s.Equal("jane.doe@example.com", found.Email)

	found, err = s.store.FindByEmail(ctx, "JANE.DOE@example.com")
	s.Require().NoError(err)
	s.Equal(u.ID, found.ID)
}

func (s *PostgresUserStoreSuite) TestEmailUniqueness() {
	ctx := context.Background()
	s.Require().NoError(s.store.Create(ctx, newTestUser("dup@example.com")))

	err := s.store.Create(ctx, newTestUser("DUP@example.com"))
	s.Require().ErrorIs(err, sentinel.ErrConflict)
}

func (s *PostgresUserStoreSuite) TestNotFound() {
	ctx := context.Background()

	_, err := s.store.FindByID(ctx, uuid.New())
	s.ErrorIs(err, sentinel.ErrNotFound)

	_, err = s.store.FindByEmail(ctx, "missing@example.com")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresUserStoreSuite) TestDelete() {
	ctx := context.Background()
	u := newTestUser("gone@example.com")
	s.Require().NoError(s.store.Create(ctx, u))

	s.Require().NoError(s.store.Delete(ctx, u.ID))

	_, err := s.store.FindByID(ctx, u.ID)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)

	// The email is released and can be registered again.
	s.Require().NoError(s.store.Create(ctx, newTestUser("gone@example.com")))

	s.Require().ErrorIs(s.store.Delete(ctx, uuid.New()), sentinel.ErrNotFound)
}

func (s *PostgresUserStoreSuite) TestCountByRole() {
	ctx := context.Background()
	s.Require().NoError(s.store.Create(ctx, newTestUser("a@example.com")))
	s.Require().NoError(s.store.Create(ctx, newTestUser("b@example.com")))

	admin := newTestUser("admin@example.com")
	admin.Role = models.RoleAdmin
	s.Require().NoError(s.store.Create(ctx, admin))

	n, err := s.store.CountByRole(ctx, models.RoleApplicant)
	s.Require().NoError(err)
	s.Equal(2, n)
}
