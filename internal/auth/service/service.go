package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	appmodels "github.com/Aldorax/soo-ade/internal/application/models"
	appservice "github.com/Aldorax/soo-ade/internal/application/service"
	"github.com/Aldorax/soo-ade/internal/audit"
	"github.com/Aldorax/soo-ade/internal/auth/models"
	"github.com/Aldorax/soo-ade/internal/platform/metrics"
	dErrors "github.com/Aldorax/soo-ade/pkg/domain-errors"
	"github.com/Aldorax/soo-ade/pkg/platform/sentinel"
	"github.com/Aldorax/soo-ade/pkg/secrets"
)

// UserStore is the persistence surface for users. Delete backs the
// compensating step when registration fails after the user row exists.
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	CountByRole(ctx context.Context, role models.Role) (int, error)
}

// ApplicationCreator lets registration open the citizen's application in
// the same step, matching the one-user-one-application invariant.
type ApplicationCreator interface {
	Create(ctx context.Context, userID uuid.UUID, in appservice.CreateInput) (*appmodels.Application, error)
}

// TokenIssuer signs access tokens for authenticated users.
type TokenIssuer interface {
	GenerateAccessToken(userID uuid.UUID, role string, expiresIn time.Duration) (string, error)
}

// AuditPublisher records registrations.
type AuditPublisher interface {
	Emit(ctx context.Context, base audit.Event) error
}

// Service handles citizen registration and login.
type Service struct {
	users        UserStore
	applications ApplicationCreator
	tokens       TokenIssuer
	tokenTTL     time.Duration
	logger       *slog.Logger
	metrics      *metrics.Metrics
	audit        AuditPublisher
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) { s.audit = publisher }
}

func New(users UserStore, applications ApplicationCreator, tokens TokenIssuer, tokenTTL time.Duration, opts ...Option) *Service {
	s := &Service{
		users:        users,
		applications: applications,
		tokens:       tokens,
		tokenTTL:     tokenTTL,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RegisterInput carries everything the registration form collects: the
// citizen's identity plus the origin details that seed their application.
type RegisterInput struct {
	FirstName   string
	MiddleName  string
	LastName    string
	Email       string
	Password    string
	Sex         string
	DateOfBirth time.Time
	Phone       string

	Address         string
	StateOfOrigin   string
	LocalGovernment string
	Nationality     string
	NIN             string
}

// RegisterResult reports the created user and application.
type RegisterResult struct {
	UserID        uuid.UUID
	ApplicationID uuid.UUID
}

// Register creates the user and their application together. Both writes
// succeed or neither survives: the application input is validated before the
// user row is inserted, and a create failure after that point deletes the
// user again so the citizen can retry with the same email.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*RegisterResult, error) {
	in.Email = strings.TrimSpace(strings.ToLower(in.Email))
	switch {
	case strings.TrimSpace(in.FirstName) == "":
		return nil, dErrors.New(dErrors.CodeValidation, "first name is required")
	case strings.TrimSpace(in.LastName) == "":
		return nil, dErrors.New(dErrors.CodeValidation, "last name is required")
	case in.Email == "" || !strings.Contains(in.Email, "@"):
		return nil, dErrors.New(dErrors.CodeValidation, "a valid email is required")
	}

	hash, err := secrets.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	user := &models.User{
		ID:           uuid.New(),
		FirstName:    strings.TrimSpace(in.FirstName),
		MiddleName:   strings.TrimSpace(in.MiddleName),
		LastName:     strings.TrimSpace(in.LastName),
		Email:        in.Email,
		PasswordHash: hash,
		Sex:          in.Sex,
		DateOfBirth:  in.DateOfBirth,
		Phone:        strings.TrimSpace(in.Phone),
		Role:         models.RoleApplicant,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if _, err := appmodels.NewApplication(user.ID, in.StateOfOrigin, in.LocalGovernment, in.Address, in.Nationality, in.NIN); err != nil {
		return nil, err
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "user with this email already exists")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create user")
	}

	app, err := s.applications.Create(ctx, user.ID, appservice.CreateInput{
		StateOfOrigin:   in.StateOfOrigin,
		LocalGovernment: in.LocalGovernment,
		Address:         in.Address,
		Nationality:     in.Nationality,
		NIN:             in.NIN,
	})
	if err != nil {
		if delErr := s.users.Delete(ctx, user.ID); delErr != nil {
			s.logger.ErrorContext(ctx, "failed to roll back user after application create failure",
				"user_id", user.ID,
				"error", delErr,
			)
		}
		return nil, err
	}

	s.metrics.IncUsersRegistered()
	if s.audit != nil {
		_ = s.audit.Emit(ctx, audit.Event{
			UserID:  user.ID,
			Action:  string(audit.EventUserRegistered),
			Subject: user.Email,
		})
	}

	return &RegisterResult{UserID: user.ID, ApplicationID: app.ID}, nil
}

// LoginResult carries the signed access token and basic profile fields.
type LoginResult struct {
	Token     string
	UserID    uuid.UUID
	Role      models.Role
	FirstName string
	LastName  string
}

// Login verifies credentials and issues a JWT.
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.TrimSpace(strings.ToLower(email))

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			// Same response as a bad password so login probes learn nothing.
			return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid email or password")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
	}

	if err := secrets.VerifyPassword(password, user.PasswordHash); err != nil {
		return nil, err
	}

	token, err := s.tokens.GenerateAccessToken(user.ID, string(user.Role), s.tokenTTL)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue token")
	}

	return &LoginResult{
		Token:     token,
		UserID:    user.ID,
		Role:      user.Role,
		FirstName: user.FirstName,
		LastName:  user.LastName,
	}, nil
}

// GetUser is a read-only lookup used by handlers rendering profiles.
func (s *Service) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "user not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
	}
	return user, nil
}
