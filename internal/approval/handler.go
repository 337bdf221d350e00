package approval

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"roboreg/internal/models"
	id "roboreg/pkg/domain"
	dErrors "roboreg/pkg/domain-errors"
	"roboreg/pkg/platform/httputil"
	"roboreg/pkg/requestcontext"
)

// HandlerService defines the approval operations the handler depends on.
type HandlerService interface {
	Approve(ctx context.Context, eventID id.EventID, registrationID id.RegistrationID) (*models.Registration, error)
	Reject(ctx context.Context, eventID id.EventID, registrationID id.RegistrationID, reason string) (*models.Registration, error)
	DeleteEvent(ctx context.Context, eventID id.EventID) error
}

// RejectRequest carries the mandatory rejection reason.
type RejectRequest struct {
	RejectionReason string `json:"rejection_reason"`
}

func (r *RejectRequest) Normalize() {
	r.RejectionReason = strings.TrimSpace(r.RejectionReason)
}

// registrationEnvelope is the response shape shared by approve and reject.
type registrationEnvelope struct {
	Message      string               `json:"message"`
	Registration *models.Registration `json:"registration"`
}

// Handler wires the admin approval endpoints to the approval service.
type Handler struct {
	service HandlerService
	logger  *slog.Logger
}

// NewHandler constructs an approval handler.
func NewHandler(service HandlerService, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the approval endpoints behind the admin token check.
func (h *Handler) Register(r chi.Router) {
	r.Post("/events/{eventID}/registrations/{registrationID}/approve", h.HandleApprove)
	r.Post("/events/{eventID}/registrations/{registrationID}/reject", h.HandleReject)
	r.Delete("/events/{eventID}", h.HandleDeleteEvent)
}

// HandleApprove handles POST /api/events/{eventID}/registrations/{registrationID}/approve.
func (h *Handler) HandleApprove(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	eventID, registrationID, ok := h.parseIDs(w, r)
	if !ok {
		return
	}

	registration, err := h.service.Approve(ctx, eventID, registrationID)
	if err != nil {
		h.logger.WarnContext(ctx, "registration approval failed",
			"request_id", requestID,
			"event_id", eventID,
			"registration_id", registrationID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "registration approved",
		"request_id", requestID,
		"event_id", eventID,
		"registration_id", registrationID,
	)
	httputil.WriteJSON(w, http.StatusOK, registrationEnvelope{
		Message:      "registration approved",
		Registration: registration,
	})
}

// HandleReject handles POST /api/events/{eventID}/registrations/{registrationID}/reject.
func (h *Handler) HandleReject(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	eventID, registrationID, ok := h.parseIDs(w, r)
	if !ok {
		return
	}

	req, ok := httputil.DecodeAndPrepare[RejectRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	registration, err := h.service.Reject(ctx, eventID, registrationID, req.RejectionReason)
	if err != nil {
		h.logger.WarnContext(ctx, "registration rejection failed",
			"request_id", requestID,
			"event_id", eventID,
			"registration_id", registrationID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "registration rejected",
		"request_id", requestID,
		"event_id", eventID,
		"registration_id", registrationID,
		"reason", registration.RejectionReason,
	)
	httputil.WriteJSON(w, http.StatusOK, registrationEnvelope{
		Message:      "registration rejected",
		Registration: registration,
	})
}

// HandleDeleteEvent handles DELETE /api/events/{eventID}.
func (h *Handler) HandleDeleteEvent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	eventID, err := id.ParseEventID(chi.URLParam(r, "eventID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid event id"))
		return
	}

	if err := h.service.DeleteEvent(ctx, eventID); err != nil {
		h.logger.WarnContext(ctx, "event deletion failed",
			"request_id", requestID,
			"event_id", eventID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "event deleted",
		"request_id", requestID,
		"event_id", eventID,
	)
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"message": "event deleted"})
}

func (h *Handler) parseIDs(w http.ResponseWriter, r *http.Request) (id.EventID, id.RegistrationID, bool) {
	eventID, err := id.ParseEventID(chi.URLParam(r, "eventID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid event id"))
		return id.EventID{}, id.RegistrationID{}, false
	}
	registrationID, err := id.ParseRegistrationID(chi.URLParam(r, "registrationID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid registration id"))
		return id.EventID{}, id.RegistrationID{}, false
	}
	return eventID, registrationID, true
}
