package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appmodels "github.com/Aldorax/soo-ade/internal/application/models"
	appservice "github.com/Aldorax/soo-ade/internal/application/service"
	appstore "github.com/Aldorax/soo-ade/internal/application/store"
	"github.com/Aldorax/soo-ade/internal/auth/models"
	"github.com/Aldorax/soo-ade/internal/auth/service"
	userstore "github.com/Aldorax/soo-ade/internal/auth/store/user"
	jwttoken "github.com/Aldorax/soo-ade/internal/jwt_token"
	dErrors "github.com/Aldorax/soo-ade/pkg/domain-errors"
)

func newService(t *testing.T) (*service.Service, *userstore.InMemoryUserStore, *appstore.InMemory) {
	t.Helper()
	users := userstore.New()
	apps := appstore.NewInMemory()
	appSvc := appservice.New(apps, users)
	tokens := jwttoken.NewJWTService("test-signing-key", "soo-portal", "soo-portal")
	return service.New(users, appSvc, tokens, time.Hour), users, apps
}

func validInput() service.RegisterInput {
	return service.RegisterInput{
		FirstName:       "Adaeze",
		LastName:        "Okafor",
		Email:           "Adaeze@Example.com",
		Password:        "s3cret-pass",
		Sex:             "F",
		DateOfBirth:     time.Date(1995, 4, 12, 0, 0, 0, 0, time.UTC),
		Phone:           "+2348012345678",
		Address:         "12 Marina Road, Enugu",
		StateOfOrigin:   "Enugu",
		LocalGovernment: "Nsukka",
		Nationality:     "Nigerian",
		NIN:             "12345678901",
	}
}

func TestRegisterCreatesUserAndApplication(t *testing.T) {
	svc, users, apps := newService(t)
	ctx := context.Background()

	res, err := svc.Register(ctx, validInput())
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, res.UserID)
	require.NotEqual(t, uuid.Nil, res.ApplicationID)

	// Email is normalized to lower case.
	user, err := users.FindByEmail(ctx, "adaeze@example.com")
	require.NoError(t, err)
	assert.Equal(t, models.RoleApplicant, user.Role)
	assert.NotEqual(t, "s3cret-pass", user.PasswordHash)

	app, err := apps.FindByUserID(ctx, res.UserID)
	require.NoError(t, err)
	assert.Equal(t, "Enugu", app.StateOfOrigin)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, validInput())
	require.NoError(t, err)

	_, err = svc.Register(ctx, validInput())
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
}

func TestRegisterValidation(t *testing.T) {
	svc, _, _ := newService(t)

	in := validInput()
	in.Email = "not-an-email"
	_, err := svc.Register(context.Background(), in)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}

func TestRegisterBadApplicationInputLeavesNoUser(t *testing.T) {
	svc, users, _ := newService(t)
	ctx := context.Background()

	in := validInput()
	in.NIN = ""
	_, err := svc.Register(ctx, in)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))

	// The failed attempt must not leave a user behind.
	_, err = users.FindByEmail(ctx, "adaeze@example.com")
	require.Error(t, err)

	// Retrying with the same email and complete details succeeds.
	res, err := svc.Register(ctx, validInput())
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, res.ApplicationID)
}

func TestRegisterRollsBackUserOnApplicationFailure(t *testing.T) {
	users := userstore.New()
	apps := &failingApplicationCreator{fail: true}
	tokens := jwttoken.NewJWTService("test-signing-key", "soo-portal", "soo-portal")
	svc := service.New(users, apps, tokens, time.Hour)
	ctx := context.Background()

	_, err := svc.Register(ctx, validInput())
	require.Error(t, err)

	// The user insert is compensated, so the email stays available.
	_, err = users.FindByEmail(ctx, "adaeze@example.com")
	require.Error(t, err)

	apps.fail = false
	res, err := svc.Register(ctx, validInput())
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, res.UserID)
}

// failingApplicationCreator simulates the application store erroring after
// the user row already exists.
type failingApplicationCreator struct {
	fail bool
}

func (f *failingApplicationCreator) Create(_ context.Context, userID uuid.UUID, in appservice.CreateInput) (*appmodels.Application, error) {
	if f.fail {
		return nil, dErrors.New(dErrors.CodeInternal, "application store unavailable")
	}
	return appmodels.NewApplication(userID, in.StateOfOrigin, in.LocalGovernment, in.Address, in.Nationality, in.NIN)
}

func TestLogin(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, validInput())
	require.NoError(t, err)

	res, err := svc.Login(ctx, "ADAEZE@example.com", "s3cret-pass")
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
	assert.Equal(t, models.RoleApplicant, res.Role)
}

func TestLoginWrongPassword(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, validInput())
	require.NoError(t, err)

	_, err = svc.Login(ctx, "adaeze@example.com", "wrong")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func TestLoginUnknownEmail(t *testing.T) {
	svc, _, _ := newService(t)

	_, err := svc.Login(context.Background(), "nobody@example.com", "whatever")
	require.Error(t, err)
	// Unknown email and bad password are indistinguishable to callers.
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	assert.Equal(t, "invalid email or password", dErrors.MessageOf(err))
}
