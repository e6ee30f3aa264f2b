package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	appmodels "github.com/Aldorax/soo-ade/internal/application/models"
	"github.com/Aldorax/soo-ade/internal/dashboard"
	paymodels "github.com/Aldorax/soo-ade/internal/payment/models"
	payservice "github.com/Aldorax/soo-ade/internal/payment/service"
	"github.com/Aldorax/soo-ade/internal/platform/middleware"
	dErrors "github.com/Aldorax/soo-ade/pkg/domain-errors"
	"github.com/Aldorax/soo-ade/pkg/platform/httputil"
)

// ApplicationService defines the lifecycle operations the review desk uses.
type ApplicationService interface {
	List(ctx context.Context) ([]*appmodels.Application, error)
	GetByID(ctx context.Context, id uuid.UUID) (*appmodels.Application, error)
	Approve(ctx context.Context, id uuid.UUID) (*appmodels.Application, error)
	Reject(ctx context.Context, id uuid.UUID, reason string) (*appmodels.Application, error)
}

// PaymentService defines the reporting operations the review desk uses.
type PaymentService interface {
	ListAll(ctx context.Context) ([]*paymodels.Transaction, error)
	Wallet(ctx context.Context) (*payservice.WalletSummary, error)
}

// Handler wires the admin review endpoints. It is mounted behind
// RequireAdminToken.
type Handler struct {
	applications ApplicationService
	payments     PaymentService
	cache        *dashboard.Cache
	logger       *slog.Logger
}

func New(applications ApplicationService, payments PaymentService, cache *dashboard.Cache, logger *slog.Logger) *Handler {
	return &Handler{
		applications: applications,
		payments:     payments,
		cache:        cache,
		logger:       logger,
	}
}

// Register mounts the admin endpoints on the (already token-guarded) router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/applications", h.HandleListApplications)
	r.Get("/applications/{id}", h.HandleGetApplication)
	r.Post("/applications/{id}/approve", h.HandleApprove)
	r.Post("/applications/{id}/reject", h.HandleReject)
	r.Get("/transactions", h.HandleListTransactions)
	r.Get("/wallet", h.HandleWallet)
}

// HandleListApplications handles GET /admin/applications. The rendered view
// is cached; approvals, rejections and settled payments drop the key.
func (h *Handler) HandleListApplications(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if payload, ok := h.cache.GetAdmin(ctx); ok {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(payload)
		return
	}

	apps, err := h.applications.List(ctx)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	view := BuildApplicationsView(apps)
	if payload, err := json.Marshal(view); err == nil {
		h.cache.SetAdmin(ctx, payload)
	}
	httputil.WriteJSON(w, http.StatusOK, view)
}

// HandleGetApplication handles GET /admin/applications/{id}.
func (h *Handler) HandleGetApplication(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, ok := parseID(w, r)
	if !ok {
		return
	}

	app, err := h.applications.GetByID(ctx, id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromApplication(app))
}

// HandleApprove handles POST /admin/applications/{id}/approve.
func (h *Handler) HandleApprove(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	id, ok := parseID(w, r)
	if !ok {
		return
	}

	app, err := h.applications.Approve(ctx, id)
	if err != nil {
		h.logger.WarnContext(ctx, "application approval failed",
			"request_id", requestID,
			"application_id", id,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "application approved",
		"request_id", requestID,
		"application_id", id,
		"certificate_number", app.CertificateNumber,
	)

	httputil.WriteJSON(w, http.StatusOK, FromApplication(app))
}

// HandleReject handles POST /admin/applications/{id}/reject.
func (h *Handler) HandleReject(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	id, ok := parseID(w, r)
	if !ok {
		return
	}

	req, decoded := httputil.DecodeAndPrepare[RejectRequest](w, r, h.logger, ctx, requestID)
	if !decoded {
		return
	}

	app, err := h.applications.Reject(ctx, id, req.Reason)
	if err != nil {
		h.logger.WarnContext(ctx, "application rejection failed",
			"request_id", requestID,
			"application_id", id,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "application rejected",
		"request_id", requestID,
		"application_id", id,
	)

	httputil.WriteJSON(w, http.StatusOK, FromApplication(app))
}

// HandleListTransactions handles GET /admin/transactions.
func (h *Handler) HandleListTransactions(w http.ResponseWriter, r *http.Request) {
	txs, err := h.payments.ListAll(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromTransactions(txs))
}

// HandleWallet handles GET /admin/wallet.
func (h *Handler) HandleWallet(w http.ResponseWriter, r *http.Request) {
	summary, err := h.payments.Wallet(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, WalletResponse{
		TotalAmount:      summary.TotalAmount,
		TransactionCount: summary.TransactionCount,
		Recent:           FromTransactions(summary.Recent),
	})
}

func parseID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "id must be a valid UUID"))
		return uuid.Nil, false
	}
	return id, true
}
