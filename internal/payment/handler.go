package payment

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"roboreg/internal/models"
	id "roboreg/pkg/domain"
	dErrors "roboreg/pkg/domain-errors"
	"roboreg/pkg/platform/httputil"
	"roboreg/pkg/requestcontext"
)

// HandlerService defines the payment operations the handler depends on.
type HandlerService interface {
	SubmitPayment(ctx context.Context, orgID id.OrganisationID, req SubmitPaymentRequest) (*models.Payment, error)
	ListByEvent(ctx context.Context, orgID id.OrganisationID, eventID id.EventID) ([]*models.Payment, error)
	ListAll(ctx context.Context) ([]*models.Payment, error)
	Review(ctx context.Context, paymentID id.PaymentID, req ReviewPaymentRequest) (*models.Payment, error)
}

// Handler wires payment endpoints to the payment service.
type Handler struct {
	service HandlerService
	logger  *slog.Logger
}

// NewHandler constructs a payment handler.
func NewHandler(service HandlerService, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts organisation-facing payment endpoints. The router is
// expected to have organisation authentication applied already.
func (h *Handler) Register(r chi.Router) {
	r.Post("/payments", h.HandleSubmitPayment)
	r.Get("/payments/event/{eventID}", h.HandleListByEvent)
}

// RegisterAdmin mounts admin payment endpoints behind the admin token check.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Get("/payments/admin/all", h.HandleListAll)
	r.Put("/payments/admin/{paymentID}", h.HandleReview)
}

// HandleSubmitPayment handles POST /api/payments.
func (h *Handler) HandleSubmitPayment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	orgID := requestcontext.OrganisationID(ctx)
	if orgID == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	req, ok := httputil.DecodeAndPrepare[SubmitPaymentRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	payment, err := h.service.SubmitPayment(ctx, orgID, req)
	if err != nil {
		h.logger.WarnContext(ctx, "payment submission failed",
			"request_id", requestID,
			"organisation_id", orgID,
			"event_id", req.EventID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "payment submitted",
		"request_id", requestID,
		"organisation_id", orgID,
		"payment_id", payment.ID,
		"team_count", len(payment.TeamIDs),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusCreated, payment)
}

// HandleListByEvent handles GET /api/payments/event/{eventID}.
func (h *Handler) HandleListByEvent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	orgID := requestcontext.OrganisationID(ctx)
	if orgID == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	eventID, err := id.ParseEventID(chi.URLParam(r, "eventID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid event id"))
		return
	}

	payments, err := h.service.ListByEvent(ctx, orgID, eventID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, payments)
}

// HandleListAll handles GET /api/payments/admin/all.
func (h *Handler) HandleListAll(w http.ResponseWriter, r *http.Request) {
	payments, err := h.service.ListAll(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, payments)
}

// HandleReview handles PUT /api/payments/admin/{paymentID}.
func (h *Handler) HandleReview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	paymentID, err := id.ParsePaymentID(chi.URLParam(r, "paymentID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid payment id"))
		return
	}

	req, ok := httputil.DecodeAndPrepare[ReviewPaymentRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	payment, err := h.service.Review(ctx, paymentID, req)
	if err != nil {
		h.logger.WarnContext(ctx, "payment review failed",
			"request_id", requestID,
			"payment_id", paymentID,
			"status", req.Status,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "payment reviewed",
		"request_id", requestID,
		"payment_id", paymentID,
		"status", payment.Status,
	)
	httputil.WriteJSON(w, http.StatusOK, payment)
}
