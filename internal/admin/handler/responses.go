package handler

import (
	"strings"
	"time"

	"github.com/google/uuid"

	appmodels "github.com/Aldorax/soo-ade/internal/application/models"
	paymodels "github.com/Aldorax/soo-ade/internal/payment/models"
	dErrors "github.com/Aldorax/soo-ade/pkg/domain-errors"
)

// RejectRequest is the HTTP request body for POST /admin/applications/{id}/reject.
type RejectRequest struct {
	Reason string `json:"reason"`
}

// Validate implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *RejectRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.Reason = strings.TrimSpace(r.Reason)
	if r.Reason == "" {
		return dErrors.New(dErrors.CodeValidation, "reason is required")
	}
	return nil
}

// ApplicationResponse is the reviewer's view of one application.
type ApplicationResponse struct {
	ID                string     `json:"id"`
	UserID            string     `json:"user_id"`
	Status            string     `json:"status"`
	PaymentStatus     string     `json:"payment_status"`
	StateOfOrigin     string     `json:"state_of_origin"`
	LocalGovernment   string     `json:"local_government"`
	Address           string     `json:"address"`
	Nationality       string     `json:"nationality"`
	NIN               string     `json:"nin"`
	CertificateNumber string     `json:"certificate_number,omitempty"`
	RejectionReason   string     `json:"rejection_reason,omitempty"`
	ApprovedAt        *time.Time `json:"approved_at,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// FromApplication maps the domain record onto the reviewer response.
func FromApplication(app *appmodels.Application) ApplicationResponse {
	return ApplicationResponse{
		ID:                app.ID.String(),
		UserID:            app.UserID.String(),
		Status:            string(app.Status),
		PaymentStatus:     string(app.PaymentStatus),
		StateOfOrigin:     app.StateOfOrigin,
		LocalGovernment:   app.LocalGovernment,
		Address:           app.Address,
		Nationality:       app.Nationality,
		NIN:               app.NIN,
		CertificateNumber: app.CertificateNumber,
		RejectionReason:   app.RejectionReason,
		ApprovedAt:        app.ApprovedAt,
		CreatedAt:         app.CreatedAt,
		UpdatedAt:         app.UpdatedAt,
	}
}

// ApplicationsView is the cached admin dashboard: the full listing plus
// per-status counts for the summary cards.
type ApplicationsView struct {
	Total        int                   `json:"total"`
	Pending      int                   `json:"pending"`
	Approved     int                   `json:"approved"`
	Rejected     int                   `json:"rejected"`
	Applications []ApplicationResponse `json:"applications"`
}

// BuildApplicationsView renders the listing and tallies statuses.
func BuildApplicationsView(apps []*appmodels.Application) ApplicationsView {
	view := ApplicationsView{
		Total:        len(apps),
		Applications: make([]ApplicationResponse, 0, len(apps)),
	}
	for _, app := range apps {
		switch app.Status {
		case appmodels.StatusPending:
			view.Pending++
		case appmodels.StatusApproved:
			view.Approved++
		case appmodels.StatusRejected:
			view.Rejected++
		}
		view.Applications = append(view.Applications, FromApplication(app))
	}
	return view
}

// TransactionResponse is the reviewer's view of one payment attempt.
type TransactionResponse struct {
	ID            string    `json:"id"`
	Reference     string    `json:"reference"`
	Amount        int64     `json:"amount"`
	Currency      string    `json:"currency"`
	Status        string    `json:"status"`
	UserID        string    `json:"user_id"`
	ApplicationID string    `json:"application_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// FromTransactions maps a listing, preserving order.
func FromTransactions(txs []*paymodels.Transaction) []TransactionResponse {
	out := make([]TransactionResponse, 0, len(txs))
	for _, tx := range txs {
		resp := TransactionResponse{
			ID:        tx.ID.String(),
			Reference: tx.Reference,
			Amount:    tx.Amount,
			Currency:  tx.Currency,
			Status:    string(tx.Status),
			UserID:    tx.UserID.String(),
			CreatedAt: tx.CreatedAt,
		}
		if tx.ApplicationID != uuid.Nil {
			resp.ApplicationID = tx.ApplicationID.String()
		}
		out = append(out, resp)
	}
	return out
}

// WalletResponse is the body returned by GET /admin/wallet.
type WalletResponse struct {
	TotalAmount      int64                 `json:"total_amount"`
	TransactionCount int                   `json:"transaction_count"`
	Recent           []TransactionResponse `json:"recent"`
}
