package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Aldorax/soo-ade/internal/payment/models"
	"github.com/Aldorax/soo-ade/pkg/platform/sentinel"
)

// InMemory keeps transactions in maps guarded by a mutex.
type InMemory struct {
	mu    sync.RWMutex
	byRef map[string]*models.Transaction
}

func NewInMemory() *InMemory {
	return &InMemory{byRef: make(map[string]*models.Transaction)}
}

// Create stores a new transaction, enforcing reference uniqueness.
func (s *InMemory) Create(_ context.Context, tx *models.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byRef[tx.Reference]; exists {
		return sentinel.ErrConflict
	}
	copied := *tx
	s.byRef[tx.Reference] = &copied
	return nil
}

func (s *InMemory) FindByReference(_ context.Context, reference string) (*models.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tx, ok := s.byRef[reference]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := *tx
	return &copied, nil
}

// MarkIfPending moves a pending transaction to the given terminal status.
// Returns ErrInvalidState when the transaction already settled, which the
// service treats as "someone else verified first".
func (s *InMemory) MarkIfPending(_ context.Context, reference string, status models.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, ok := s.byRef[reference]
	if !ok {
		return sentinel.ErrNotFound
	}
	if tx.Status != models.StatusPending {
		return sentinel.ErrInvalidState
	}
	tx.Status = status
	tx.UpdatedAt = time.Now()
	return nil
}

func (s *InMemory) ListByUser(_ context.Context, userID uuid.UUID) ([]*models.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Transaction
	for _, tx := range s.byRef {
		if tx.UserID == userID {
			copied := *tx
			out = append(out, &copied)
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func (s *InMemory) ListAll(_ context.Context) ([]*models.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Transaction, 0, len(s.byRef))
	for _, tx := range s.byRef {
		copied := *tx
		out = append(out, &copied)
	}
	sortNewestFirst(out)
	return out, nil
}

func (s *InMemory) ListByStatus(_ context.Context, status models.Status) ([]*models.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Transaction
	for _, tx := range s.byRef {
		if tx.Status == status {
			copied := *tx
			out = append(out, &copied)
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func sortNewestFirst(txs []*models.Transaction) {
	sort.Slice(txs, func(i, j int) bool {
		return txs[i].CreatedAt.After(txs[j].CreatedAt)
	})
}
