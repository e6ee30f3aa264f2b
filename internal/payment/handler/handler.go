package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Aldorax/soo-ade/internal/payment/models"
	"github.com/Aldorax/soo-ade/internal/payment/service"
	"github.com/Aldorax/soo-ade/internal/platform/middleware"
	dErrors "github.com/Aldorax/soo-ade/pkg/domain-errors"
	"github.com/Aldorax/soo-ade/pkg/platform/httputil"
)

// Service defines the payment operations the citizen-facing endpoints need.
type Service interface {
	Initialize(ctx context.Context, userID, applicationID uuid.UUID) (*service.InitializeResult, error)
	Verify(ctx context.Context, reference string) (*service.VerifyResult, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Transaction, error)
}

// Handler wires the payment endpoints to the reconciliation service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the callback landing endpoint. The gateway redirects the
// citizen here after checkout, so it carries no auth.
func (h *Handler) Register(r chi.Router) {
	r.Get("/payments/verify/{reference}", h.HandleVerify)
}

// RegisterProtected mounts endpoints that require an authenticated citizen.
func (h *Handler) RegisterProtected(r chi.Router) {
	r.Post("/payments/initialize", h.HandleInitialize)
	r.Get("/payments/me", h.HandleListMine)
}

// HandleInitialize handles POST /payments/initialize.
func (h *Handler) HandleInitialize(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	userID, err := uuid.Parse(middleware.GetUserID(ctx))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	req, ok := httputil.DecodeAndPrepare[InitializeRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	result, err := h.service.Initialize(ctx, userID, req.ParsedApplicationID())
	if err != nil {
		h.logger.WarnContext(ctx, "payment initialization failed",
			"request_id", requestID,
			"user_id", userID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "payment initialized",
		"request_id", requestID,
		"user_id", userID,
		"reference", result.Reference,
	)

	httputil.WriteJSON(w, http.StatusOK, InitializeResponse{
		TransactionID:    result.TransactionID.String(),
		AuthorizationURL: result.AuthorizationURL,
		Reference:        result.Reference,
	})
}

// HandleVerify handles GET /payments/verify/{reference}.
func (h *Handler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reference := strings.TrimSpace(chi.URLParam(r, "reference"))
	if reference == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "reference is required"))
		return
	}

	result, err := h.service.Verify(ctx, reference)
	if err != nil {
		h.logger.WarnContext(ctx, "payment verification failed",
			"request_id", middleware.GetRequestID(ctx),
			"reference", reference,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, VerifyResponse{
		Success:     result.Success,
		Transaction: FromTransaction(result.Transaction),
	})
}

// HandleListMine handles GET /payments/me.
func (h *Handler) HandleListMine(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, err := uuid.Parse(middleware.GetUserID(ctx))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	txs, err := h.service.ListByUser(ctx, userID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromTransactions(txs))
}
