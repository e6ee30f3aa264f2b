package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Aldorax/soo-ade/internal/application"
	"github.com/Aldorax/soo-ade/internal/application/models"
	"github.com/Aldorax/soo-ade/internal/audit"
	authmodels "github.com/Aldorax/soo-ade/internal/auth/models"
	"github.com/Aldorax/soo-ade/internal/platform/metrics"
	dErrors "github.com/Aldorax/soo-ade/pkg/domain-errors"
	"github.com/Aldorax/soo-ade/pkg/platform/sentinel"
)

// ApplicationStore is the persistence surface the lifecycle controller
// needs. Approve/Reject/MarkPaid are conditional updates: the store, not the
// service, decides whether the transition was legal, so there is no
// read-then-write window.
type ApplicationStore interface {
	Create(ctx context.Context, app *models.Application) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Application, error)
	FindByUserID(ctx context.Context, userID uuid.UUID) (*models.Application, error)
	FindByCertificateNumber(ctx context.Context, number string) (*models.Application, error)
	List(ctx context.Context) ([]*models.Application, error)
	Approve(ctx context.Context, id uuid.UUID, certificateNumber string, approvedAt time.Time) error
	Reject(ctx context.Context, id uuid.UUID, reason string, at time.Time) error
	MarkPaid(ctx context.Context, id uuid.UUID) error
}

// UserReader resolves certificate holders for the public verification page.
type UserReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*authmodels.User, error)
}

// DashboardInvalidator drops cached dashboard views after a state change.
type DashboardInvalidator interface {
	InvalidateAdmin(ctx context.Context)
	InvalidateUser(ctx context.Context, userID uuid.UUID)
}

// AuditPublisher records who did what.
type AuditPublisher interface {
	Emit(ctx context.Context, base audit.Event) error
}

// Service is the application lifecycle controller: it enforces the legal
// status transitions and their side effects.
type Service struct {
	apps       ApplicationStore
	users      UserReader
	logger     *slog.Logger
	metrics    *metrics.Metrics
	audit      AuditPublisher
	dashboards DashboardInvalidator
	now        func() time.Time
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

func WithDashboardInvalidator(inv DashboardInvalidator) Option {
	return func(s *Service) { s.dashboards = inv }
}

// WithClock sets the time source for testability.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func New(apps ApplicationStore, users UserReader, opts ...Option) *Service {
	s := &Service{
		apps:   apps,
		users:  users,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateInput carries the origin details collected at registration. An
// explicit struct (rather than an open map) keeps required fields visible at
// compile time.
type CreateInput struct {
	StateOfOrigin   string
	LocalGovernment string
	Address         string
	Nationality     string
	NIN             string
}

// Create registers a new pending, unpaid application for the user.
func (s *Service) Create(ctx context.Context, userID uuid.UUID, in CreateInput) (*models.Application, error) {
	app, err := models.NewApplication(userID, in.StateOfOrigin, in.LocalGovernment, in.Address, in.Nationality, in.NIN)
	if err != nil {
		return nil, err
	}

	if err := s.apps.Create(ctx, app); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "user already has an application")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create application")
	}

	s.metrics.IncApplicationsCreated()
	s.emit(ctx, audit.Event{
		UserID:  userID,
		Action:  string(audit.EventApplicationCreated),
		Subject: app.ID.String(),
	})
	return app, nil
}

func (s *Service) GetByUser(ctx context.Context, userID uuid.UUID) (*models.Application, error) {
	app, err := s.apps.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "application not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load application")
	}
	return app, nil
}

func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*models.Application, error) {
	app, err := s.apps.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "application not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load application")
	}
	return app, nil
}

// List returns every application, newest first, for the admin dashboard.
func (s *Service) List(ctx context.Context) ([]*models.Application, error) {
	apps, err := s.apps.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list applications")
	}
	return apps, nil
}

// certNumberAttempts bounds retries when a generated certificate number
// collides with an existing one.
const certNumberAttempts = 3

// Approve moves a pending application to APPROVED, assigning a fresh
// certificate number. Approving twice fails with invalid_state and leaves
// the original certificate number untouched.
func (s *Service) Approve(ctx context.Context, id uuid.UUID) (*models.Application, error) {
	approvedAt := s.now()

	var lastErr error
	for range certNumberAttempts {
		number := application.GenerateCertificateNumber()
		err := s.apps.Approve(ctx, id, number, approvedAt)
		if err == nil {
			lastErr = nil
			break
		}
		if errors.Is(err, sentinel.ErrConflict) {
			// Certificate number collision; generate another.
			lastErr = err
			continue
		}
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "application not found")
		}
		if errors.Is(err, sentinel.ErrInvalidState) {
			return nil, dErrors.New(dErrors.CodeInvalidState, "application is not in pending state")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to approve application")
	}
	if lastErr != nil {
		return nil, dErrors.Wrap(lastErr, dErrors.CodeInternal, "could not assign a unique certificate number")
	}

	app, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.metrics.IncApplicationsApproved()
	s.emit(ctx, audit.Event{
		UserID:  app.UserID,
		Action:  string(audit.EventApplicationApproved),
		Subject: app.CertificateNumber,
	})
	s.invalidate(ctx, app.UserID)
	return app, nil
}

// Reject moves a pending application to REJECTED with a mandatory reason.
func (s *Service) Reject(ctx context.Context, id uuid.UUID, reason string) (*models.Application, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "rejection reason is required")
	}

	if err := s.apps.Reject(ctx, id, reason, s.now()); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "application not found")
		}
		if errors.Is(err, sentinel.ErrInvalidState) {
			return nil, dErrors.New(dErrors.CodeInvalidState, "application is not in pending state")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to reject application")
	}

	app, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.metrics.IncApplicationsRejected()
	s.emit(ctx, audit.Event{
		UserID:  app.UserID,
		Action:  string(audit.EventApplicationRejected),
		Subject: app.ID.String(),
		Reason:  reason,
	})
	s.invalidate(ctx, app.UserID)
	return app, nil
}

// CertificateDetails is what the public verification page shows.
type CertificateDetails struct {
	CertificateNumber string
	HolderName        string
	StateOfOrigin     string
	LocalGovernment   string
	ApprovedAt        *time.Time
}

// VerifyCertificate resolves a certificate number to its approved
// application and holder.
func (s *Service) VerifyCertificate(ctx context.Context, certificateNumber string) (*CertificateDetails, error) {
	certificateNumber = strings.TrimSpace(certificateNumber)
	if certificateNumber == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "certificate number is required")
	}

	app, err := s.apps.FindByCertificateNumber(ctx, certificateNumber)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "certificate not found or not valid")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to verify certificate")
	}

	holder := ""
	if user, err := s.users.FindByID(ctx, app.UserID); err == nil {
		holder = user.FullName()
	}

	s.emit(ctx, audit.Event{
		UserID:  app.UserID,
		Action:  string(audit.EventCertificateVerified),
		Subject: certificateNumber,
	})

	return &CertificateDetails{
		CertificateNumber: app.CertificateNumber,
		HolderName:        holder,
		StateOfOrigin:     app.StateOfOrigin,
		LocalGovernment:   app.LocalGovernment,
		ApprovedAt:        app.ApprovedAt,
	}, nil
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to emit audit event",
			"action", event.Action,
			"error", err,
		)
	}
}

func (s *Service) invalidate(ctx context.Context, userID uuid.UUID) {
	if s.dashboards == nil {
		return
	}
	s.dashboards.InvalidateAdmin(ctx)
	s.dashboards.InvalidateUser(ctx, userID)
}
