package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"escalation-service/internal/config"
	"escalation-service/internal/engine"
	"escalation-service/internal/events"
	"escalation-service/internal/models"
	"escalation-service/internal/store"
)

func newTestRouter(t *testing.T) (*gin.Engine, *engine.Registry) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	roster := []models.TeamMember{
		{ID: "alice", Name: "Alice", MaxCapacity: 2},
		{ID: "bob", Name: "Bob", MaxCapacity: 2},
	}
	registry := engine.NewRegistry(roster)
	eng := engine.New(store.NewMemory(), registry, events.Discard{}, logger)

	cfg := config.Config{}
	cfg.API.BasePath = "/api/v0"
	return NewRouter(eng, registry, events.NewHub(logger), logger, cfg), registry
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func createViaAPI(t *testing.T, r *gin.Engine) models.Escalation {
	t.Helper()
	w := doJSON(t, r, http.MethodPost, "/api/v0/escalations", gin.H{
		"service_request_id": "sr-1",
		"client_id":          "client-1",
		"escalation_type":    "client_complaint",
		"reason":             "filing is two days late",
		"actor":              "ops-1",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var esc models.Escalation
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &esc))
	return esc
}

func TestCreateAndFetchEscalation(t *testing.T) {
	r, _ := newTestRouter(t)
	esc := createViaAPI(t, r)
	require.Equal(t, models.StatusPending, esc.Status)
	require.Equal(t, models.PriorityLow, esc.Priority)

	w := doJSON(t, r, http.MethodGet, "/api/v0/escalations/"+esc.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Escalation models.Escalation   `json:"escalation"`
		AuditTrail []models.AuditEntry `json:"audit_trail"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, esc.ID, body.Escalation.ID)
	require.Len(t, body.AuditTrail, 1)
	require.Equal(t, models.ActionCreated, body.AuditTrail[0].Action)
}

func TestCreateValidation(t *testing.T) {
	r, _ := newTestRouter(t)

	// Missing required fields.
	w := doJSON(t, r, http.MethodPost, "/api/v0/escalations", gin.H{"reason": "x"})
	require.Equal(t, http.StatusBadRequest, w.Code)

	// Unknown escalation type.
	w = doJSON(t, r, http.MethodPost, "/api/v0/escalations", gin.H{
		"service_request_id": "sr-1",
		"escalation_type":    "mystery",
		"reason":             "x",
		"actor":              "ops-1",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAcknowledgeAssignsAndConflictsOnRepeat(t *testing.T) {
	r, _ := newTestRouter(t)
	esc := createViaAPI(t, r)

	path := fmt.Sprintf("/api/v0/escalations/%s/acknowledge", esc.ID)
	w := doJSON(t, r, http.MethodPost, path, gin.H{"actor": "ops-1"})
	require.Equal(t, http.StatusOK, w.Code)

	var acked models.Escalation
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &acked))
	require.Equal(t, models.StatusAcknowledged, acked.Status)
	require.NotEmpty(t, acked.AssignedTo)

	w = doJSON(t, r, http.MethodPost, path, gin.H{"actor": "ops-2"})
	require.Equal(t, http.StatusConflict, w.Code)
}

func TestResolveWithoutTextIsUnprocessable(t *testing.T) {
	r, _ := newTestRouter(t)
	esc := createViaAPI(t, r)
	doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/v0/escalations/%s/acknowledge", esc.ID), gin.H{"actor": "ops-1"})

	path := fmt.Sprintf("/api/v0/escalations/%s/resolve", esc.ID)
	w := doJSON(t, r, http.MethodPost, path, gin.H{"actor": "ops-1"})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = doJSON(t, r, http.MethodPost, path, gin.H{"actor": "ops-1", "resolution": "refiled and confirmed"})
	require.Equal(t, http.StatusOK, w.Code)
}

func TestActionOnUnknownEscalationIs404(t *testing.T) {
	r, _ := newTestRouter(t)
	w := doJSON(t, r, http.MethodPost, "/api/v0/escalations/nope/acknowledge", gin.H{"actor": "ops-1"})
	require.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/v0/escalations/nope", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestSaturatedTeamReturns503(t *testing.T) {
	r, registry := newTestRouter(t)
	for _, id := range []string{"alice", "bob"} {
		require.NoError(t, registry.SetUnavailable(id, true))
	}
	esc := createViaAPI(t, r)

	w := doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/v0/escalations/%s/acknowledge", esc.ID), gin.H{"actor": "ops-1"})
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestTeamWorkloadAndAvailability(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodPut, "/api/v0/team/alice/availability", gin.H{"unavailable": true})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/v0/team/workload", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var members []models.TeamMember
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &members))
	require.Len(t, members, 2)
	require.Equal(t, "alice", members[0].ID)
	require.True(t, members[0].Unavailable)

	w = doJSON(t, r, http.MethodPut, "/api/v0/team/ghost/availability", gin.H{"unavailable": true})
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestListFiltersByStatus(t *testing.T) {
	r, _ := newTestRouter(t)
	esc := createViaAPI(t, r)
	doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/v0/escalations/%s/acknowledge", esc.ID), gin.H{"actor": "ops-1"})

	w := doJSON(t, r, http.MethodGet, "/api/v0/escalations?status=acknowledged", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var acked []models.Escalation
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &acked))
	require.Len(t, acked, 1)

	w = doJSON(t, r, http.MethodGet, "/api/v0/escalations?status=pending", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var pending []models.Escalation
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &pending))
	require.Empty(t, pending)
}

func TestHealthEndpoint(t *testing.T) {
	r, _ := newTestRouter(t)
	w := doJSON(t, r, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
}
