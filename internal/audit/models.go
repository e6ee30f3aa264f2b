package audit

import (
	"time"

	"github.com/google/uuid"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Timestamp time.Time
	UserID    uuid.UUID
	Action    string
	// Subject identifies the record acted on (application id, payment
	// reference, certificate number).
	Subject string
	// Reason carries the operator-supplied reason for rejections.
	Reason    string
	RequestID string
}

type Action string

const (
	EventUserRegistered      Action = "user_registered"
	EventApplicationCreated  Action = "application_created"
	EventApplicationApproved Action = "application_approved"
	EventApplicationRejected Action = "application_rejected"
	EventPaymentInitialized  Action = "payment_initialized"
	EventPaymentVerified     Action = "payment_verified"
	EventPaymentFailed       Action = "payment_failed"
	EventCertificateVerified Action = "certificate_verified"
)
