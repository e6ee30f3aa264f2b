package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Aldorax/soo-ade/internal/application/models"
	"github.com/Aldorax/soo-ade/internal/application/service"
	"github.com/Aldorax/soo-ade/internal/dashboard"
	"github.com/Aldorax/soo-ade/internal/platform/middleware"
	dErrors "github.com/Aldorax/soo-ade/pkg/domain-errors"
	"github.com/Aldorax/soo-ade/pkg/platform/httputil"
)

// Service defines the application operations the citizen-facing endpoints
// need.
type Service interface {
	GetByUser(ctx context.Context, userID uuid.UUID) (*models.Application, error)
	VerifyCertificate(ctx context.Context, certificateNumber string) (*service.CertificateDetails, error)
}

// Handler wires the applicant-facing application endpoints.
type Handler struct {
	service Service
	cache   *dashboard.Cache
	logger  *slog.Logger
}

func New(service Service, cache *dashboard.Cache, logger *slog.Logger) *Handler {
	return &Handler{service: service, cache: cache, logger: logger}
}

// Register mounts the public certificate verification endpoint.
func (h *Handler) Register(r chi.Router) {
	r.Get("/verify/{certificateNumber}", h.HandleVerifyCertificate)
}

// RegisterProtected mounts endpoints that require an authenticated citizen.
func (h *Handler) RegisterProtected(r chi.Router) {
	r.Get("/applications/me", h.HandleGetMine)
}

// HandleGetMine handles GET /applications/me. The rendered view is cached
// per user; approvals, rejections and successful payments drop the key.
func (h *Handler) HandleGetMine(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, err := uuid.Parse(middleware.GetUserID(ctx))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	if payload, ok := h.cache.GetUser(ctx, userID); ok {
		writeCached(w, payload)
		return
	}

	app, err := h.service.GetByUser(ctx, userID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	resp := FromApplication(app)
	if payload, err := json.Marshal(resp); err == nil {
		h.cache.SetUser(ctx, userID, payload)
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

// HandleVerifyCertificate handles GET /verify/{certificateNumber}, the
// public authenticity check printed on each certificate.
func (h *Handler) HandleVerifyCertificate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	number := chi.URLParam(r, "certificateNumber")

	details, err := h.service.VerifyCertificate(ctx, number)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "certificate verified",
		"request_id", middleware.GetRequestID(ctx),
		"certificate_number", details.CertificateNumber,
	)

	httputil.WriteJSON(w, http.StatusOK, CertificateResponse{
		Valid:             true,
		CertificateNumber: details.CertificateNumber,
		HolderName:        details.HolderName,
		StateOfOrigin:     details.StateOfOrigin,
		LocalGovernment:   details.LocalGovernment,
		ApprovedAt:        details.ApprovedAt,
	})
}

func writeCached(w http.ResponseWriter, payload []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(payload)
}
