package models

import (
	"strings"
	"time"

	"github.com/google/uuid"

	dErrors "github.com/Aldorax/soo-ade/pkg/domain-errors"
)

// Status is the review state of an application. PENDING is the only
// non-terminal state.
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusApproved Status = "APPROVED"
	StatusRejected Status = "REJECTED"
)

// PaymentStatus tracks whether the application fee has been collected.
// It moves UNPAID -> PAID exactly once and never reverses.
type PaymentStatus string

const (
	PaymentUnpaid PaymentStatus = "UNPAID"
	PaymentPaid   PaymentStatus = "PAID"
)

// Application is one citizen's request for a State of Origin certificate.
// Exactly one exists per user.
type Application struct {
	ID              uuid.UUID
	UserID          uuid.UUID
	StateOfOrigin   string
	LocalGovernment string
	Address         string
	Nationality     string
	NIN             string
	Status          Status
	PaymentStatus   PaymentStatus

	// CertificateNumber is set iff Status is APPROVED.
	CertificateNumber string
	// RejectionReason is set only when Status is REJECTED.
	RejectionReason string
	ApprovedAt      *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewApplication validates registration input and returns a pending, unpaid
// application.
func NewApplication(userID uuid.UUID, stateOfOrigin, localGovernment, address, nationality, nin string) (*Application, error) {
	stateOfOrigin = strings.TrimSpace(stateOfOrigin)
	localGovernment = strings.TrimSpace(localGovernment)
	nin = strings.TrimSpace(nin)

	switch {
	case userID == uuid.Nil:
		return nil, dErrors.New(dErrors.CodeValidation, "user id is required")
	case stateOfOrigin == "":
		return nil, dErrors.New(dErrors.CodeValidation, "state of origin is required")
	case localGovernment == "":
		return nil, dErrors.New(dErrors.CodeValidation, "local government is required")
	case nin == "":
		return nil, dErrors.New(dErrors.CodeValidation, "national identity number is required")
	}

	now := time.Now()
	return &Application{
		ID:              uuid.New(),
		UserID:          userID,
		StateOfOrigin:   stateOfOrigin,
		LocalGovernment: localGovernment,
		Address:         strings.TrimSpace(address),
		Nationality:     strings.TrimSpace(nationality),
		NIN:             nin,
		Status:          StatusPending,
		PaymentStatus:   PaymentUnpaid,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

// Terminal reports whether the application has left review.
func (a *Application) Terminal() bool {
	return a.Status == StatusApproved || a.Status == StatusRejected
}
