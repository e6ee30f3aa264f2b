package handler

import (
	"time"

	"github.com/Aldorax/soo-ade/internal/application/models"
)

// ApplicationResponse is the applicant's view of their own application.
type ApplicationResponse struct {
	ID                string     `json:"id"`
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
}

// FromApplication maps the domain record onto the response shape.
func FromApplication(app *models.Application) ApplicationResponse {
	return ApplicationResponse{
		ID:                app.ID.String(),
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
	}
}

// CertificateResponse is the public certificate verification result.
type CertificateResponse struct {
	Valid             bool       `json:"valid"`
	CertificateNumber string     `json:"certificate_number"`
	HolderName        string     `json:"holder_name"`
	StateOfOrigin     string     `json:"state_of_origin"`
	LocalGovernment   string     `json:"local_government"`
	ApprovedAt        *time.Time `json:"approved_at,omitempty"`
}
