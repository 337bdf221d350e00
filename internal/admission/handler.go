package admission

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	id "roboreg/pkg/domain"
	dErrors "roboreg/pkg/domain-errors"
	"roboreg/pkg/platform/httputil"
	"roboreg/pkg/requestcontext"
)

// HandlerService defines the admission operations the handler depends on.
type HandlerService interface {
	CreateTeam(ctx context.Context, orgID id.OrganisationID, req CreateTeamRequest) (*TeamResponse, error)
	ListTeams(ctx context.Context, orgID id.OrganisationID, eventID id.EventID) ([]TeamResponse, error)
	WithdrawTeam(ctx context.Context, orgID id.OrganisationID, teamID id.TeamID) (*TeamResponse, error)
}

// Handler wires team endpoints to the admission service.
type Handler struct {
	service HandlerService
	logger  *slog.Logger
}

// NewHandler constructs an admission handler.
func NewHandler(service HandlerService, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts team endpoints on the router. The router is expected to
// have organisation authentication applied already.
func (h *Handler) Register(r chi.Router) {
	r.Post("/teams", h.HandleCreateTeam)
	r.Get("/teams/event/{eventID}", h.HandleListTeams)
	r.Put("/teams/{teamID}/withdraw", h.HandleWithdrawTeam)
}

// HandleCreateTeam handles POST /api/teams.
func (h *Handler) HandleCreateTeam(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	orgID := requestcontext.OrganisationID(ctx)
	if orgID == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	req, ok := httputil.DecodeAndPrepare[CreateTeamRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	team, err := h.service.CreateTeam(ctx, orgID, req)
	if err != nil {
		h.logger.WarnContext(ctx, "team admission failed",
			"request_id", requestID,
			"organisation_id", orgID,
			"event_id", req.EventID,
			"category", req.CategoryCode,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "team admitted",
		"request_id", requestID,
		"organisation_id", orgID,
		"team_id", team.ID,
		"category", team.CategoryCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusCreated, team)
}

// HandleListTeams handles GET /api/teams/event/{eventID}.
func (h *Handler) HandleListTeams(w http.ResponseWriter, r *http.Request) {
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

	teams, err := h.service.ListTeams(ctx, orgID, eventID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, teams)
}

// HandleWithdrawTeam handles PUT /api/teams/{teamID}/withdraw.
func (h *Handler) HandleWithdrawTeam(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	orgID := requestcontext.OrganisationID(ctx)
	if orgID == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	teamID := id.TeamID(chi.URLParam(r, "teamID"))
	team, err := h.service.WithdrawTeam(ctx, orgID, teamID)
	if err != nil {
		h.logger.WarnContext(ctx, "team withdrawal failed",
			"request_id", requestID,
			"organisation_id", orgID,
			"team_id", teamID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "team withdrawn",
		"request_id", requestID,
		"organisation_id", orgID,
		"team_id", teamID,
	)
	httputil.WriteJSON(w, http.StatusOK, team)
}
