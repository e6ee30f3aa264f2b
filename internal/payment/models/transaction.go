package models

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
)

// Status is the settlement state of one payment attempt. PENDING is the
// only non-terminal state; SUCCESS and FAILED never reverse.
type Status string

const (
	StatusPending Status = "PENDING"
	StatusSuccess Status = "SUCCESS"
	StatusFailed  Status = "FAILED"
)

// Metadata is the structured payload echoed through the gateway. Versioned
// so the shape can evolve without breaking stored transactions.
type Metadata struct {
	Version         int       `json:"version"`
	ApplicationType string    `json:"application_type"`
	ApplicationID   uuid.UUID `json:"application_id"`
	UserID          uuid.UUID `json:"user_id"`
}

// MetadataVersion is the current Metadata schema version.
const MetadataVersion = 1

// Transaction records one payment attempt against the application fee. The
// reference is globally unique and immutable; it is the key the gateway
// echoes back during verification.
type Transaction struct {
	ID            uuid.UUID
	Reference     string
	Amount        int64
	Currency      string
	Status        Status
	UserID        uuid.UUID
	ApplicationID uuid.UUID
	Metadata      Metadata
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// GenerateReference produces a payment reference of the form
// SOO-<ms timestamp>-<6 zero-padded random digits>. Collisions are
// improbable but not impossible; the store's unique constraint is the
// backstop and callers retry on conflict.
func GenerateReference() string {
	return fmt.Sprintf("SOO-%d-%06d", time.Now().UnixMilli(), rand.Intn(1000000))
}
