package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	appmodels "github.com/Aldorax/soo-ade/internal/application/models"
	"github.com/Aldorax/soo-ade/internal/audit"
	authmodels "github.com/Aldorax/soo-ade/internal/auth/models"
	"github.com/Aldorax/soo-ade/internal/payment/gateway"
	"github.com/Aldorax/soo-ade/internal/payment/models"
	"github.com/Aldorax/soo-ade/internal/platform/metrics"
	dErrors "github.com/Aldorax/soo-ade/pkg/domain-errors"
	"github.com/Aldorax/soo-ade/pkg/platform/sentinel"
)

// TransactionStore is the persistence surface for payment attempts.
type TransactionStore interface {
	Create(ctx context.Context, tx *models.Transaction) error
	FindByReference(ctx context.Context, reference string) (*models.Transaction, error)
	MarkIfPending(ctx context.Context, reference string, status models.Status) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Transaction, error)
	ListAll(ctx context.Context) ([]*models.Transaction, error)
	ListByStatus(ctx context.Context, status models.Status) ([]*models.Transaction, error)
}

// UserReader resolves the paying citizen's email for the gateway.
type UserReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*authmodels.User, error)
}

// ApplicationStore is the slice of the application module payments need:
// ownership lookup before initializing, and the idempotent paid flip after a
// successful verification.
type ApplicationStore interface {
	FindByUserID(ctx context.Context, userID uuid.UUID) (*appmodels.Application, error)
	MarkPaid(ctx context.Context, id uuid.UUID) error
}

// Gateway is the external payment processor.
type Gateway interface {
	InitializeTransaction(ctx context.Context, email string, amount int64, reference string, metadata models.Metadata) (*gateway.InitializeResult, error)
	VerifyTransaction(ctx context.Context, reference string) (*gateway.VerifyResult, error)
}

// DashboardInvalidator drops cached dashboard views after a state change.
type DashboardInvalidator interface {
	InvalidateAdmin(ctx context.Context)
	InvalidateUser(ctx context.Context, userID uuid.UUID)
}

// AuditPublisher records payment milestones.
type AuditPublisher interface {
	Emit(ctx context.Context, base audit.Event) error
}

// Service orchestrates one payment attempt per application and reconciles
// the gateway's outcome with local state exactly once.
type Service struct {
	transactions TransactionStore
	users        UserReader
	applications ApplicationStore
	gateway      Gateway
	fee          int64
	logger       *slog.Logger
	metrics      *metrics.Metrics
	audit        AuditPublisher
	dashboards   DashboardInvalidator
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

// New constructs a Service. fee is the fixed application fee in Naira.
func New(transactions TransactionStore, users UserReader, applications ApplicationStore, gw Gateway, fee int64, opts ...Option) *Service {
	s := &Service{
		transactions: transactions,
		users:        users,
		applications: applications,
		gateway:      gw,
		fee:          fee,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// InitializeResult is what the page layer needs to redirect the citizen.
type InitializeResult struct {
	TransactionID    uuid.UUID
	AuthorizationURL string
	Reference        string
}

// referenceAttempts bounds retries when a generated reference collides with
// an existing one.
const referenceAttempts = 3

// Initialize starts a payment for the user's application: persist a pending
// transaction, then ask the gateway for a redirect URL. A gateway failure is
// propagated as-is; the pending transaction stays behind and a fresh
// Initialize call creates a new reference.
func (s *Service) Initialize(ctx context.Context, userID, applicationID uuid.UUID) (*InitializeResult, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "user not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
	}

	app, err := s.applications.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "no application found for this user")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load application")
	}
	if app.ID != applicationID {
		return nil, dErrors.New(dErrors.CodeNotFound, "application does not belong to this user")
	}
	if app.PaymentStatus == appmodels.PaymentPaid {
		return nil, dErrors.New(dErrors.CodeAlreadyPaid, "payment has already been made for this application")
	}

	now := time.Now()
	tx := &models.Transaction{
		ID:            uuid.New(),
		Amount:        s.fee,
		Currency:      "NGN",
		Status:        models.StatusPending,
		UserID:        userID,
		ApplicationID: app.ID,
		Metadata: models.Metadata{
			Version:         models.MetadataVersion,
			ApplicationType: "STATE_OF_ORIGIN",
			ApplicationID:   app.ID,
			UserID:          userID,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	var created bool
	for range referenceAttempts {
		tx.Reference = models.GenerateReference()
		err := s.transactions.Create(ctx, tx)
		if err == nil {
			created = true
			break
		}
		if errors.Is(err, sentinel.ErrConflict) {
			// Reference collision; generate another.
			continue
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create transaction")
	}
	if !created {
		return nil, dErrors.New(dErrors.CodeInternal, "could not assign a unique payment reference")
	}

	init, err := s.gateway.InitializeTransaction(ctx, user.Email, s.fee, tx.Reference, tx.Metadata)
	if err != nil {
		// No automatic retry: the citizen re-initiates payment explicitly.
		return nil, err
	}

	s.metrics.IncPaymentsInitialized()
	s.emit(ctx, audit.Event{
		UserID:  userID,
		Action:  string(audit.EventPaymentInitialized),
		Subject: tx.Reference,
	})

	return &InitializeResult{
		TransactionID:    tx.ID,
		AuthorizationURL: init.AuthorizationURL,
		Reference:        tx.Reference,
	}, nil
}

// VerifyResult reports the reconciled state of one payment attempt.
type VerifyResult struct {
	Success     bool
	Transaction *models.Transaction
}

// Verify reconciles a reference against the gateway exactly once. Any
// terminal transaction short-circuits without a gateway call: repeated
// callbacks cannot double-credit an application, and a FAILED transaction is
// never reopened. Paying after a failure means initializing a new reference.
// The application is only flipped to PAID by the call that actually settled
// the transaction SUCCESS.
func (s *Service) Verify(ctx context.Context, reference string) (*VerifyResult, error) {
	tx, err := s.transactions.FindByReference(ctx, reference)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "transaction not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load transaction")
	}

	if tx.Status != models.StatusPending {
		return &VerifyResult{Success: tx.Status == models.StatusSuccess, Transaction: tx}, nil
	}

	verification, err := s.gateway.VerifyTransaction(ctx, reference)
	if err != nil {
		return nil, err
	}

	if verification.Status != "success" {
		settled, err := s.settle(ctx, tx, models.StatusFailed)
		if err != nil {
			return nil, err
		}
		if !settled {
			return s.storedOutcome(ctx, reference)
		}
		s.metrics.IncPaymentsVerified("failed")
		s.emit(ctx, audit.Event{
			UserID:  tx.UserID,
			Action:  string(audit.EventPaymentFailed),
			Subject: reference,
		})
		tx.Status = models.StatusFailed
		return &VerifyResult{Success: false, Transaction: tx}, nil
	}

	settled, err := s.settle(ctx, tx, models.StatusSuccess)
	if err != nil {
		return nil, err
	}
	if !settled {
		return s.storedOutcome(ctx, reference)
	}

	if tx.ApplicationID != uuid.Nil {
		if err := s.applications.MarkPaid(ctx, tx.ApplicationID); err != nil && !errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update application payment status")
		}
	}

	s.metrics.IncPaymentsVerified("success")
	s.emit(ctx, audit.Event{
		UserID:  tx.UserID,
		Action:  string(audit.EventPaymentVerified),
		Subject: reference,
	})
	if s.dashboards != nil {
		s.dashboards.InvalidateAdmin(ctx)
		s.dashboards.InvalidateUser(ctx, tx.UserID)
	}

	tx.Status = models.StatusSuccess
	return &VerifyResult{Success: true, Transaction: tx}, nil
}

// settle writes the terminal status. Returns false when a concurrent verify
// already settled the transaction; the stored status then stands.
func (s *Service) settle(ctx context.Context, tx *models.Transaction, status models.Status) (bool, error) {
	err := s.transactions.MarkIfPending(ctx, tx.Reference, status)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, sentinel.ErrInvalidState) {
		return false, nil
	}
	return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to settle transaction")
}

// storedOutcome reports the state a concurrent verify already wrote.
func (s *Service) storedOutcome(ctx context.Context, reference string) (*VerifyResult, error) {
	tx, err := s.transactions.FindByReference(ctx, reference)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load transaction")
	}
	return &VerifyResult{Success: tx.Status == models.StatusSuccess, Transaction: tx}, nil
}

// ListByUser returns the citizen's payment history, newest first.
func (s *Service) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Transaction, error) {
	txs, err := s.transactions.ListByUser(ctx, userID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list transactions")
	}
	return txs, nil
}

// ListAll returns every transaction for the admin dashboard, newest first.
func (s *Service) ListAll(ctx context.Context) ([]*models.Transaction, error) {
	txs, err := s.transactions.ListAll(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list transactions")
	}
	return txs, nil
}

// WalletSummary aggregates successful payments for the admin wallet card.
type WalletSummary struct {
	TotalAmount      int64
	TransactionCount int
	Recent           []*models.Transaction
}

// Wallet computes the admin wallet summary: total collected, count of
// successful payments, and the five most recent transactions overall.
func (s *Service) Wallet(ctx context.Context) (*WalletSummary, error) {
	successful, err := s.transactions.ListByStatus(ctx, models.StatusSuccess)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to summarize wallet")
	}

	var total int64
	for _, tx := range successful {
		total += tx.Amount
	}

	recent, err := s.transactions.ListAll(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to summarize wallet")
	}
	if len(recent) > 5 {
		recent = recent[:5]
	}

	return &WalletSummary{
		TotalAmount:      total,
		TransactionCount: len(successful),
		Recent:           recent,
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
