package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Aldorax/soo-ade/internal/application/models"
	"github.com/Aldorax/soo-ade/pkg/platform/sentinel"
)

// InMemory keeps applications in maps guarded by a mutex. Conditional
// transitions hold the lock for the whole check-and-set, giving the same
// atomicity the SQL store gets from single conditional UPDATEs.
type InMemory struct {
	mu     sync.RWMutex
	byID   map[uuid.UUID]*models.Application
	byUser map[uuid.UUID]uuid.UUID
	byCert map[string]uuid.UUID
}

func NewInMemory() *InMemory {
	return &InMemory{
		byID:   make(map[uuid.UUID]*models.Application),
		byUser: make(map[uuid.UUID]uuid.UUID),
		byCert: make(map[string]uuid.UUID),
	}
}

// Create stores a new application, enforcing one application per user.
func (s *InMemory) Create(_ context.Context, app *models.Application) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byUser[app.UserID]; exists {
		return sentinel.ErrConflict
	}

	copied := *app
	s.byID[app.ID] = &copied
	s.byUser[app.UserID] = app.ID
	return nil
}

func (s *InMemory) FindByID(_ context.Context, id uuid.UUID) (*models.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.findLocked(id)
}

func (s *InMemory) FindByUserID(_ context.Context, userID uuid.UUID) (*models.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byUser[userID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return s.findLocked(id)
}

// FindByCertificateNumber resolves an approved application by its
// certificate number. Certificates only exist on approved applications, so
// nothing else can match.
func (s *InMemory) FindByCertificateNumber(_ context.Context, number string) (*models.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byCert[number]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return s.findLocked(id)
}

func (s *InMemory) List(_ context.Context) ([]*models.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Application, 0, len(s.byID))
	for _, app := range s.byID {
		copied := *app
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// Approve transitions a pending application to APPROVED with the given
// certificate number. Returns ErrNotFound, ErrInvalidState for non-pending
// applications, or ErrConflict when the certificate number is taken.
func (s *InMemory) Approve(_ context.Context, id uuid.UUID, certificateNumber string, approvedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	app, ok := s.byID[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	if app.Status != models.StatusPending {
		return sentinel.ErrInvalidState
	}
	if _, taken := s.byCert[certificateNumber]; taken {
		return sentinel.ErrConflict
	}

	app.Status = models.StatusApproved
	app.CertificateNumber = certificateNumber
	app.ApprovedAt = &approvedAt
	app.UpdatedAt = approvedAt
	s.byCert[certificateNumber] = id
	return nil
}

// Reject transitions a pending application to REJECTED, storing the reason.
func (s *InMemory) Reject(_ context.Context, id uuid.UUID, reason string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	app, ok := s.byID[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	if app.Status != models.StatusPending {
		return sentinel.ErrInvalidState
	}

	app.Status = models.StatusRejected
	app.RejectionReason = reason
	app.UpdatedAt = at
	return nil
}

// MarkPaid flips the payment status UNPAID -> PAID. Calling it on an
// already-paid application is a no-op, which is what makes payment
// verification safe to repeat.
func (s *InMemory) MarkPaid(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	app, ok := s.byID[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	if app.PaymentStatus == models.PaymentPaid {
		return nil
	}
	app.PaymentStatus = models.PaymentPaid
	app.UpdatedAt = time.Now()
	return nil
}

func (s *InMemory) findLocked(id uuid.UUID) (*models.Application, error) {
	app, ok := s.byID[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := *app
	return &copied, nil
}
