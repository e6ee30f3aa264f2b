package service_test

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aldorax/soo-ade/internal/application/models"
	"github.com/Aldorax/soo-ade/internal/application/service"
	"github.com/Aldorax/soo-ade/internal/application/store"
	authmodels "github.com/Aldorax/soo-ade/internal/auth/models"
	userstore "github.com/Aldorax/soo-ade/internal/auth/store/user"
	dErrors "github.com/Aldorax/soo-ade/pkg/domain-errors"
)

var certPattern = regexp.MustCompile(`^SOC-\d{6}-\d{4}$`)

func newService(t *testing.T) (*service.Service, *store.InMemory, *userstore.InMemoryUserStore) {
	t.Helper()
	apps := store.NewInMemory()
	users := userstore.New()
	return service.New(apps, users), apps, users
}

func createApplication(t *testing.T, svc *service.Service, userID uuid.UUID) *models.Application {
	t.Helper()
	app, err := svc.Create(context.Background(), userID, service.CreateInput{
		StateOfOrigin:   "Enugu",
		LocalGovernment: "Nsukka",
		Address:         "12 Marina Road",
		Nationality:     "Nigerian",
		NIN:             "12345678901",
	})
	require.NoError(t, err)
	return app
}

func TestCreate(t *testing.T) {
	svc, _, _ := newService(t)

	app := createApplication(t, svc, uuid.New())
	assert.Equal(t, models.StatusPending, app.Status)
	assert.Equal(t, models.PaymentUnpaid, app.PaymentStatus)
	assert.Empty(t, app.CertificateNumber)
}

func TestCreateSecondApplicationConflicts(t *testing.T) {
	svc, _, _ := newService(t)
	userID := uuid.New()
	createApplication(t, svc, userID)

	_, err := svc.Create(context.Background(), userID, service.CreateInput{
		StateOfOrigin:   "Enugu",
		LocalGovernment: "Udi",
		NIN:             "10987654321",
	})
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
}

func TestApprove(t *testing.T) {
	svc, _, _ := newService(t)
	app := createApplication(t, svc, uuid.New())

	approved, err := svc.Approve(context.Background(), app.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, approved.Status)
	assert.Regexp(t, certPattern, approved.CertificateNumber)
	require.NotNil(t, approved.ApprovedAt)
}

func TestApproveTwice(t *testing.T) {
	svc, _, _ := newService(t)
	app := createApplication(t, svc, uuid.New())
	ctx := context.Background()

	approved, err := svc.Approve(ctx, app.ID)
	require.NoError(t, err)

	_, err = svc.Approve(ctx, app.ID)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidState))

	// The failed second approval does not disturb the certificate number.
	current, err := svc.GetByID(ctx, app.ID)
	require.NoError(t, err)
	assert.Equal(t, approved.CertificateNumber, current.CertificateNumber)
}

func TestApproveMissing(t *testing.T) {
	svc, _, _ := newService(t)

	_, err := svc.Approve(context.Background(), uuid.New())
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestReject(t *testing.T) {
	svc, _, _ := newService(t)
	app := createApplication(t, svc, uuid.New())

	rejected, err := svc.Reject(context.Background(), app.ID, "incomplete records")
	require.NoError(t, err)
	assert.Equal(t, models.StatusRejected, rejected.Status)
	assert.Equal(t, "incomplete records", rejected.RejectionReason)
	assert.Empty(t, rejected.CertificateNumber)
}

func TestRejectRequiresReason(t *testing.T) {
	svc, _, _ := newService(t)
	app := createApplication(t, svc, uuid.New())

	_, err := svc.Reject(context.Background(), app.ID, "   ")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}

func TestApproveRejectedApplication(t *testing.T) {
	svc, _, _ := newService(t)
	app := createApplication(t, svc, uuid.New())
	ctx := context.Background()

	_, err := svc.Reject(ctx, app.ID, "incomplete records")
	require.NoError(t, err)

	_, err = svc.Approve(ctx, app.ID)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidState))
}

func TestApproveUsesInjectedClock(t *testing.T) {
	apps := store.NewInMemory()
	users := userstore.New()
	fixed := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	svc := service.New(apps, users, service.WithClock(func() time.Time { return fixed }))

	app := createApplication(t, svc, uuid.New())
	approved, err := svc.Approve(context.Background(), app.ID)
	require.NoError(t, err)
	require.NotNil(t, approved.ApprovedAt)
	assert.True(t, approved.ApprovedAt.Equal(fixed))
}

func TestVerifyCertificate(t *testing.T) {
	svc, _, users := newService(t)
	ctx := context.Background()

	holder := &authmodels.User{
		ID:        uuid.New(),
		FirstName: "Adaeze",
		LastName:  "Okafor",
		Email:     "adaeze@example.com",
		Role:      authmodels.RoleApplicant,
	}
	require.NoError(t, users.Create(ctx, holder))

	app := createApplication(t, svc, holder.ID)
	approved, err := svc.Approve(ctx, app.ID)
	require.NoError(t, err)

	details, err := svc.VerifyCertificate(ctx, approved.CertificateNumber)
	require.NoError(t, err)
	assert.Equal(t, approved.CertificateNumber, details.CertificateNumber)
	assert.Equal(t, holder.FullName(), details.HolderName)
	assert.Equal(t, "Enugu", details.StateOfOrigin)
}

func TestVerifyCertificateUnknownNumber(t *testing.T) {
	svc, _, _ := newService(t)

	_, err := svc.VerifyCertificate(context.Background(), "SOC-000000-0000")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}
