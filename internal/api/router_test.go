package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DNA-Coded/RakshaMarg/internal/api"
	"github.com/DNA-Coded/RakshaMarg/internal/api/middleware"
	"github.com/DNA-Coded/RakshaMarg/internal/api/models"
	"github.com/DNA-Coded/RakshaMarg/internal/contacts"
	"github.com/DNA-Coded/RakshaMarg/internal/escalation"
	"github.com/DNA-Coded/RakshaMarg/internal/notify"
	"github.com/DNA-Coded/RakshaMarg/internal/routing"
	"github.com/DNA-Coded/RakshaMarg/internal/safety"
	"github.com/DNA-Coded/RakshaMarg/internal/sharetoken"
	"github.com/DNA-Coded/RakshaMarg/internal/tracking"
	"github.com/DNA-Coded/RakshaMarg/pkg/geo"
)

const testAPIKey = "test-api-key"

// stubRanker returns a fixed ranked route set without calling any
// upstream provider.
type stubRanker struct{}

func (stubRanker) Rank(_ context.Context, origin, destination string) (*safety.RankedRouteSet, error) {
	path := []geo.Coordinate{{Lat: 28.60, Lon: 77.20}, {Lat: 28.70, Lon: 77.20}}
	return &safety.RankedRouteSet{
		Routes: []safety.RankedRoute{
			{
				Route: routing.Route{
					ID:              "rt_safe",
					Summary:         "NH 48",
					Path:            path,
					DistanceMeters:  12000,
					DurationSeconds: 1500,
					Provider:        "googlemaps",
				},
				Score:     safety.Score{Value: 90},
				RiskLabel: safety.RiskLabelLow,
			},
			{
				Route: routing.Route{
					ID:              "rt_risky",
					Summary:         "Inner Ring Rd",
					Path:            path,
					DistanceMeters:  9000,
					DurationSeconds: 1200,
					Provider:        "googlemaps",
				},
				Score:     safety.Score{Value: 45},
				RiskLabel: safety.RiskLabelHigh,
			},
		},
		Origin:      origin,
		Destination: destination,
		Provider:    "googlemaps",
		GeneratedAt: time.Now(),
	}, nil
}

// stubChannel records deliveries instead of sending SMS.
type stubChannel struct{}

func (stubChannel) Send(_ context.Context, _ notify.Recipient, _ string) error { return nil }
func (stubChannel) Name() string                                               { return "stub" }

type testEnv struct {
	router   http.Handler
	contacts *contacts.Service
	trackers *tracking.Manager
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := zerolog.New(io.Discard)

	contactService := contacts.NewService(contacts.NewInMemoryRepository())
	trackers := tracking.NewManager(tracking.ManagerConfig{
		Reranker: stubRanker{},
		Logger:   logger,
	})
	t.Cleanup(trackers.StopAll)

	engine := escalation.NewEngine(escalation.EngineConfig{
		Contacts:   contactService,
		Channel:    stubChannel{},
		Emergency:  stubChannel{},
		Repository: escalation.NewInMemoryRepository(),
		Sessions:   trackers,
		Logger:     logger,
	})

	tokens := sharetoken.NewService(sharetoken.Config{
		SigningKey: "test-secret-key-for-testing-only",
		Issuer:     "https://api.rakshamarg.app",
		Audience:   "rakshamarg-tracking",
	})

	router := api.NewRouter(api.RouterConfig{
		Version:        "test",
		BuildTime:      "2024-01-01T00:00:00Z",
		Logger:         logger,
		APIKey:         testAPIKey,
		Ranker:         stubRanker{},
		TrackerManager: trackers,
		ShareTokens:    tokens,
		ContactService: contactService,
		Escalation:     engine,
	})

	return &testEnv{router: router, contacts: contactService, trackers: trackers}
}

func (e *testEnv) do(method, target string, body any) *httptest.ResponseRecorder {
	var reader io.Reader = http.NoBody
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(middleware.APIKeyHeader, testAPIKey)
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func TestRouter_HealthCheck(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/ops/health", http.NoBody)
	w := httptest.NewRecorder()

	env.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.NotEmpty(t, w.Header().Get("X-Request-Id"))

	var health models.Health
	err := json.Unmarshal(w.Body.Bytes(), &health)
	require.NoError(t, err)

	assert.Equal(t, models.HealthStatusOK, health.Status)
	assert.NotEmpty(t, health.Time)
}

func TestRouter_ReadinessCheck(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/ops/ready", http.NoBody)
	w := httptest.NewRecorder()

	env.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var health models.Health
	err := json.Unmarshal(w.Body.Bytes(), &health)
	require.NoError(t, err)

	assert.Equal(t, models.HealthStatusOK, health.Status)
}

func TestRouter_SystemStatus_RequiresAPIKey(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/ops/status", http.NoBody)
	w := httptest.NewRecorder()

	env.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRouter_SystemStatus(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodGet, "/v1/ops/status", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var status models.SystemStatus
	err := json.Unmarshal(w.Body.Bytes(), &status)
	require.NoError(t, err)

	assert.Equal(t, models.HealthStatusOK, status.Status)
	assert.Zero(t, status.ActiveSessions)
}

func TestRouter_CheckRoute(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodGet, "/v1/navigation/route?origin=Saket&destination=Connaught+Place", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var resp models.RouteCheckResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)

	require.Len(t, resp.Routes, 2)
	assert.Equal(t, "rt_safe", resp.Routes[0].ID)
	assert.True(t, resp.Routes[0].Recommended)
	assert.False(t, resp.Routes[1].Recommended)
	assert.Equal(t, 2, resp.Meta.Count)
	assert.Equal(t, "googlemaps", resp.Meta.Provider)
}

func TestRouter_CheckRoute_ValidationError(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodGet, "/v1/navigation/route?origin=Saket", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "application/problem+json", w.Header().Get("Content-Type"))

	var problem models.Problem
	err := json.Unmarshal(w.Body.Bytes(), &problem)
	require.NoError(t, err)

	assert.Equal(t, models.ProblemTypeValidation, problem.Type)
	assert.NotEmpty(t, problem.TraceID)
}

func TestRouter_SOS_Trigger(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.contacts.Create(context.Background(), "usr_meera", &models.ContactCreateRequest{
		Name:  "Asha",
		Phone: "+91 98100 12345",
	})
	require.NoError(t, err)

	lat, lng := 28.6139, 77.2090
	w := env.do(http.MethodPost, "/v1/navigation/usr_meera/sos", models.SOSRequest{
		Lat: &lat,
		Lng: &lng,
	})
	assert.Equal(t, http.StatusOK, w.Code)

	var resp models.SOSResponse
	err = json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)

	assert.Equal(t, "triggered", resp.Status)
	assert.Contains(t, resp.SOSID, "sos_")
	require.Len(t, resp.Deliveries, 1)
	assert.True(t, resp.Deliveries[0].Delivered)
	require.NotNil(t, resp.Position)
	assert.InDelta(t, 28.6139, resp.Position.Lat, 1e-9)
}

func TestRouter_Tracking_Lifecycle(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodPost, "/v1/tracking/usr_meera/start", models.TrackingStartRequest{
		Origin:      "Saket",
		Destination: "Connaught Place",
	})
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.NotEmpty(t, w.Header().Get("Location"))

	var session models.TrackingSession
	err := json.Unmarshal(w.Body.Bytes(), &session)
	require.NoError(t, err)
	assert.Contains(t, session.SessionID, "trk_")
	assert.Equal(t, "rt_safe", session.Route.ID)
	assert.Equal(t, "active", session.Status)

	// A second start for the same traveler conflicts.
	w = env.do(http.MethodPost, "/v1/tracking/usr_meera/start", models.TrackingStartRequest{
		Origin:      "Saket",
		Destination: "Connaught Place",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = env.do(http.MethodPost, "/v1/tracking/usr_meera/position", models.TrackingPositionRequest{
		Position: models.Point{Lat: 28.65, Lng: 77.20},
	})
	assert.Equal(t, http.StatusAccepted, w.Code)

	w = env.do(http.MethodGet, "/v1/tracking/usr_meera/status", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(http.MethodPost, "/v1/tracking/usr_meera/stop", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	// Stopping again is a no-op.
	w = env.do(http.MethodPost, "/v1/tracking/usr_meera/stop", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestRouter_Tracking_ShareLink(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodPost, "/v1/tracking/usr_meera/start", models.TrackingStartRequest{
		Origin:      "Saket",
		Destination: "Connaught Place",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = env.do(http.MethodPost, "/v1/tracking/usr_meera/share", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var share models.TrackingShareResponse
	err := json.Unmarshal(w.Body.Bytes(), &share)
	require.NoError(t, err)
	require.NotEmpty(t, share.Token)

	// The shared view is public: no API key needed.
	req := httptest.NewRequest(http.MethodGet, "/v1/tracking/shared/"+share.Token, http.NoBody)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	var session models.TrackingSession
	err = json.Unmarshal(rec.Body.Bytes(), &session)
	require.NoError(t, err)
	assert.Equal(t, "usr_meera", session.TravelerID)

	// A garbage token is rejected.
	req = httptest.NewRequest(http.MethodGet, "/v1/tracking/shared/not-a-token", http.NoBody)
	rec = httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouter_Contacts_CRUD(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodPost, "/v1/travelers/usr_meera/contacts", models.ContactCreateRequest{
		Name:  "Asha",
		Phone: "+91 98100 12345",
	})
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.NotEmpty(t, w.Header().Get("Location"))

	var contact models.Contact
	err := json.Unmarshal(w.Body.Bytes(), &contact)
	require.NoError(t, err)
	assert.Contains(t, contact.ID, "tc_")
	assert.Equal(t, "Asha", contact.Name)

	w = env.do(http.MethodGet, "/v1/travelers/usr_meera/contacts", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var list models.ContactList
	err = json.Unmarshal(w.Body.Bytes(), &list)
	require.NoError(t, err)
	require.Len(t, list.Items, 1)

	newName := "Asha Sharma"
	w = env.do(http.MethodPut, "/v1/travelers/usr_meera/contacts/"+contact.ID, models.ContactUpdateRequest{
		Name: &newName,
	})
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(http.MethodDelete, "/v1/travelers/usr_meera/contacts/"+contact.ID, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = env.do(http.MethodGet, "/v1/travelers/usr_meera/contacts/"+contact.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_Contacts_ValidationError(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodPost, "/v1/travelers/usr_meera/contacts", models.ContactCreateRequest{
		Name:  "",
		Phone: "not-a-phone",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var problem models.Problem
	err := json.Unmarshal(w.Body.Bytes(), &problem)
	require.NoError(t, err)
	assert.NotEmpty(t, problem.Errors)
}

func TestRouter_RequestID_Generated(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/ops/health", http.NoBody)
	w := httptest.NewRecorder()

	env.router.ServeHTTP(w, req)

	requestID := w.Header().Get("X-Request-Id")
	assert.NotEmpty(t, requestID)
	assert.Contains(t, requestID, "req_")
}

func TestRouter_RequestID_Preserved(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/ops/health", http.NoBody)
	req.Header.Set("X-Request-Id", "custom_request_id")
	w := httptest.NewRecorder()

	env.router.ServeHTTP(w, req)

	assert.Equal(t, "custom_request_id", w.Header().Get("X-Request-Id"))
}

func TestRouter_NotFound(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/nonexistent", http.NoBody)
	w := httptest.NewRecorder()

	env.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
