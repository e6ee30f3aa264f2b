//go:build integration

package store_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	authmodels "github.com/Aldorax/soo-ade/internal/auth/models"
	userstore "github.com/Aldorax/soo-ade/internal/auth/store/user"
	"github.com/Aldorax/soo-ade/internal/payment/models"
	"github.com/Aldorax/soo-ade/internal/payment/store"
	"github.com/Aldorax/soo-ade/pkg/platform/sentinel"
	"github.com/Aldorax/soo-ade/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.Postgres
	users    *userstore.PostgresUserStore
	owner    *authmodels.User
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.store = store.NewPostgres(s.postgres.DB)
	s.users = userstore.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	ctx := context.Background()
	// Truncate in dependency order
	err := s.postgres.TruncateTables(ctx, "transactions", "applications", "users")
	s.Require().NoError(err)

	now := time.Now()
	s.owner = &authmodels.User{
		ID:           uuid.New(),
		FirstName:    "Jane",
		LastName:     "Doe",
		Email:        uuid.NewString() + "@example.com",
		PasswordHash: "x",
		DateOfBirth:  time.Date(1995, 4, 12, 0, 0, 0, 0, time.UTC),
		Role:         authmodels.RoleApplicant,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s.Require().NoError(s.users.Create(ctx, s.owner))
}

func (s *PostgresStoreSuite) newTransaction(reference string) *models.Transaction {
	now := time.Now()
	return &models.Transaction{
		ID:        uuid.New(),
		Reference: reference,
		Amount:    10000,
		Currency:  "NGN",
		Status:    models.StatusPending,
		UserID:    s.owner.ID,
		Metadata: models.Metadata{
			Version:         models.MetadataVersion,
			ApplicationType: "STATE_OF_ORIGIN",
			UserID:          s.owner.ID,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (s *PostgresStoreSuite) TestCreateAndFindByReference() {
	ctx := context.Background()
	tx := s.newTransaction("SOO-1-000001")
	s.Require().NoError(s.store.Create(ctx, tx))

	found, err := s.store.FindByReference(ctx, "SOO-1-000001")
	s.Require().NoError(err)
	s.Equal(tx.ID, found.ID)
	s.Equal(int64(10000), found.Amount)
	s.Equal(models.MetadataVersion, found.Metadata.Version)

	_, err = s.store.FindByReference(ctx, "SOO-1-999999")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestReferenceUniqueness() {
	ctx := context.Background()
	s.Require().NoError(s.store.Create(ctx, s.newTransaction("SOO-1-000001")))

	err := s.store.Create(ctx, s.newTransaction("SOO-1-000001"))
	s.Require().ErrorIs(err, sentinel.ErrConflict)
}

// TestConcurrentSettlement verifies that racing settlements of one pending
// transaction produce exactly one terminal write.
func (s *PostgresStoreSuite) TestConcurrentSettlement() {
	ctx := context.Background()
	tx := s.newTransaction("SOO-1-000001")
	s.Require().NoError(s.store.Create(ctx, tx))

	const goroutines = 20
	var wg sync.WaitGroup
	var successCount, invalidCount atomic.Int32

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			status := models.StatusSuccess
			if idx%2 == 1 {
				status = models.StatusFailed
			}
			err := s.store.MarkIfPending(ctx, tx.Reference, status)
			if err == nil {
				successCount.Add(1)
			} else if errors.Is(err, sentinel.ErrInvalidState) {
				invalidCount.Add(1)
			}
		}(i)
	}

	wg.Wait()

	s.Equal(int32(1), successCount.Load(), "exactly one settlement should win")
	s.Equal(int32(goroutines-1), invalidCount.Load())

	found, err := s.store.FindByReference(ctx, tx.Reference)
	s.Require().NoError(err)
	s.NotEqual(models.StatusPending, found.Status)
}

func (s *PostgresStoreSuite) TestListings() {
	ctx := context.Background()

	first := s.newTransaction("SOO-1-000001")
	first.CreatedAt = time.Now().Add(-time.Hour)
	s.Require().NoError(s.store.Create(ctx, first))

	second := s.newTransaction("SOO-2-000002")
	s.Require().NoError(s.store.Create(ctx, second))
	s.Require().NoError(s.store.MarkIfPending(ctx, second.Reference, models.StatusSuccess))

	mine, err := s.store.ListByUser(ctx, s.owner.ID)
	s.Require().NoError(err)
	s.Require().Len(mine, 2)
	s.Equal(second.Reference, mine[0].Reference)

	successful, err := s.store.ListByStatus(ctx, models.StatusSuccess)
	s.Require().NoError(err)
	s.Require().Len(successful, 1)
	s.Equal(second.Reference, successful[0].Reference)

	all, err := s.store.ListAll(ctx)
	s.Require().NoError(err)
	s.Len(all, 2)
}
