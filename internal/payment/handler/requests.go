package handler

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Aldorax/soo-ade/internal/payment/models"
	dErrors "github.com/Aldorax/soo-ade/pkg/domain-errors"
)

// InitializeRequest is the HTTP request body for POST /payments/initialize.
type InitializeRequest struct {
	ApplicationID string `json:"application_id"`

	parsedApplicationID uuid.UUID
}

// Validate implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *InitializeRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.ApplicationID = strings.TrimSpace(r.ApplicationID)
	if r.ApplicationID == "" {
		return dErrors.New(dErrors.CodeValidation, "application_id is required")
	}
	id, err := uuid.Parse(r.ApplicationID)
	if err != nil {
		return dErrors.New(dErrors.CodeValidation, "application_id must be a valid UUID")
	}
	r.parsedApplicationID = id
	return nil
}

// ParsedApplicationID returns the validated application id.
func (r *InitializeRequest) ParsedApplicationID() uuid.UUID {
	return r.parsedApplicationID
}

// InitializeResponse is the body returned by POST /payments/initialize.
type InitializeResponse struct {
	TransactionID    string `json:"transaction_id"`
	AuthorizationURL string `json:"authorization_url"`
	Reference        string `json:"reference"`
}

// TransactionResponse is one payment attempt as seen by its owner.
type TransactionResponse struct {
	ID        string    `json:"id"`
	Reference string    `json:"reference"`
	Amount    int64     `json:"amount"`
	Currency  string    `json:"currency"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// VerifyResponse is the body returned by GET /payments/verify/{reference}.
type VerifyResponse struct {
	Success     bool                `json:"success"`
	Transaction TransactionResponse `json:"transaction"`
}

// FromTransaction maps the domain record onto the response shape.
func FromTransaction(tx *models.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:        tx.ID.String(),
		Reference: tx.Reference,
		Amount:    tx.Amount,
		Currency:  tx.Currency,
		Status:    string(tx.Status),
		CreatedAt: tx.CreatedAt,
	}
}

// FromTransactions maps a listing, preserving order.
func FromTransactions(txs []*models.Transaction) []TransactionResponse {
	out := make([]TransactionResponse, 0, len(txs))
	for _, tx := range txs {
		out = append(out, FromTransaction(tx))
	}
	return out
}
