package admission

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	id "roboreg/pkg/domain"
	dErrors "roboreg/pkg/domain-errors"
	"roboreg/pkg/requestcontext"
)

type stubService struct {
	createTeam   func(ctx context.Context, orgID id.OrganisationID, req CreateTeamRequest) (*TeamResponse, error)
	listTeams    func(ctx context.Context, orgID id.OrganisationID, eventID id.EventID) ([]TeamResponse, error)
	withdrawTeam func(ctx context.Context, orgID id.OrganisationID, teamID id.TeamID) (*TeamResponse, error)
}

func (s *stubService) CreateTeam(ctx context.Context, orgID id.OrganisationID, req CreateTeamRequest) (*TeamResponse, error) {
	return s.createTeam(ctx, orgID, req)
}

func (s *stubService) ListTeams(ctx context.Context, orgID id.OrganisationID, eventID id.EventID) ([]TeamResponse, error) {
	return s.listTeams(ctx, orgID, eventID)
}

func (s *stubService) WithdrawTeam(ctx context.Context, orgID id.OrganisationID, teamID id.TeamID) (*TeamResponse, error) {
	return s.withdrawTeam(ctx, orgID, teamID)
}

func newTestRouter(service HandlerService) chi.Router {
	r := chi.NewRouter()
	h := NewHandler(service, slog.New(slog.DiscardHandler))
	h.Register(r)
	return r
}

func authedRequest(method, target string, body []byte) *http.Request {
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	ctx := requestcontext.WithOrganisationID(req.Context(), "MN00001")
	return req.WithContext(ctx)
}

func TestCreateTeamReturns201(t *testing.T) {
	eventID := id.NewEventID()
	service := &stubService{
		createTeam: func(_ context.Context, orgID id.OrganisationID, req CreateTeamRequest) (*TeamResponse, error) {
			require.Equal(t, id.OrganisationID("MN00001"), orgID)
			require.Equal(t, "MNR", req.CategoryCode)
			return &TeamResponse{ID: "TMNR0001", OrganisationID: orgID, CategoryCode: req.CategoryCode}, nil
		},
	}
	router := newTestRouter(service)

	body, _ := json.Marshal(map[string]any{
		"event_id":       eventID.String(),
		"category_code":  "mnr",
		"contestant_ids": []string{"CN0001"},
		"coach_id":       "CH0001",
	})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(http.MethodPost, "/teams", body))

	require.Equal(t, http.StatusCreated, rec.Code)
	var resp TeamResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, id.TeamID("TMNR0001"), resp.ID)
}

func TestCreateTeamValidationReturns400(t *testing.T) {
	router := newTestRouter(&stubService{})

	body, _ := json.Marshal(map[string]any{
		"event_id":      id.NewEventID().String(),
		"category_code": "MNR",
		"coach_id":      "CH0001",
	})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(http.MethodPost, "/teams", body))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var envelope map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.NotEmpty(t, envelope["error"])
	require.NotEmpty(t, envelope["error_description"])
}

func TestCreateTeamDuplicateContestantsReturns400(t *testing.T) {
	router := newTestRouter(&stubService{})

	body, _ := json.Marshal(map[string]any{
		"event_id":       id.NewEventID().String(),
		"category_code":  "MNR",
		"contestant_ids": []string{"CN0001", "CN0001"},
		"coach_id":       "CH0001",
	})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(http.MethodPost, "/teams", body))

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateTeamUnknownEventReturns404(t *testing.T) {
	service := &stubService{
		createTeam: func(context.Context, id.OrganisationID, CreateTeamRequest) (*TeamResponse, error) {
			return nil, dErrors.New(dErrors.CodeNotFound, "event not found")
		},
	}
	router := newTestRouter(service)

	body, _ := json.Marshal(map[string]any{
		"event_id":       id.NewEventID().String(),
		"category_code":  "MNR",
		"contestant_ids": []string{"CN0001"},
		"coach_id":       "CH0001",
	})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(http.MethodPost, "/teams", body))

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateTeamUnauthenticatedReturns401(t *testing.T) {
	router := newTestRouter(&stubService{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/teams", bytes.NewReader(nil)))

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestListTeamsReturns200(t *testing.T) {
	eventID := id.NewEventID()
	service := &stubService{
		listTeams: func(_ context.Context, _ id.OrganisationID, got id.EventID) ([]TeamResponse, error) {
			require.Equal(t, eventID, got)
			return []TeamResponse{{ID: "TMNR0001"}}, nil
		},
	}
	router := newTestRouter(service)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(http.MethodGet, "/teams/event/"+eventID.String(), nil))

	require.Equal(t, http.StatusOK, rec.Code)
}

func TestListTeamsBadEventIDReturns400(t *testing.T) {
	router := newTestRouter(&stubService{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(http.MethodGet, "/teams/event/not-a-uuid", nil))

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWithdrawTeamReturns200(t *testing.T) {
	service := &stubService{
		withdrawTeam: func(_ context.Context, _ id.OrganisationID, teamID id.TeamID) (*TeamResponse, error) {
			require.Equal(t, id.TeamID("TMNR0001"), teamID)
			return &TeamResponse{ID: teamID}, nil
		},
	}
	router := newTestRouter(service)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(http.MethodPut, "/teams/TMNR0001/withdraw", nil))

	require.Equal(t, http.StatusOK, rec.Code)
}
