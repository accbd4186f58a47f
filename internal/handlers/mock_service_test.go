package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"shopfloor_dashboard/internal/models"
	"shopfloor_dashboard/internal/service"

	"github.com/gin-gonic/gin"
)

// ---- Service Mocks ----

type mockAuth struct {
	signUpID      int
	signUpErr     error
	genTokenToken string
	genTokenErr   error
	parseID       int
	parseErr      error

	lastSignUpUsername string
	lastSignUpPassword string
	lastGenUsername    string
	lastGenPassword    string
	lastParseToken     string
}

func (m *mockAuth) SignUp(username, password string) (int, error) {
	m.lastSignUpUsername = username
	m.lastSignUpPassword = password
	return m.signUpID, m.signUpErr
}
func (m *mockAuth) GenerateToken(username, password string) (string, error) {
	m.lastGenUsername = username
	m.lastGenPassword = password
	return m.genTokenToken, m.genTokenErr
}
func (m *mockAuth) ParseToken(token string) (int, error) {
	m.lastParseToken = token
	return m.parseID, m.parseErr
}

// mockProjection serves a settable view; set bumps the version.
type mockProjection struct {
	mu   sync.Mutex
	view models.DashboardView
}

func (m *mockProjection) View() models.DashboardView {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.view
}
func (m *mockProjection) Version() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.view.Version
}
func (m *mockProjection) set(fn func(v *models.DashboardView)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fn(&m.view)
	m.view.Version++
}

type mockResolution struct {
	action     models.OperatorAction
	err        error
	lastID     string
	lastUserID int
	calls      int
}

func (m *mockResolution) Resolve(ctx context.Context, incidentID string, userID int) (models.OperatorAction, error) {
	m.calls++
	m.lastID = incidentID
	m.lastUserID = userID
	return m.action, m.err
}

type mockActionLog struct {
	resp   []models.OperatorAction
	err    error
	last   service.ActionFilter
	called bool
}

func (m *mockActionLog) List(ctx context.Context, f service.ActionFilter) ([]models.OperatorAction, error) {
	m.called = true
	m.last = f
	return m.resp, m.err
}

type mockLifecycle struct {
	reloads int
}

func (m *mockLifecycle) Start(ctx context.Context) error { return nil }
func (m *mockLifecycle) Stop()                           {}
func (m *mockLifecycle) Reload()                         { m.reloads++ }

// ---- Shared Test Helpers ----

func newTestRouter(s *service.Service) *gin.Engine {
	h := NewHandler(s, nil, nil)
	gin.SetMode(gin.TestMode)
	return h.InitRoutes()
}

func authHeader(token string) http.Header {
	h := http.Header{}
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}

func sampleView() models.DashboardView {
	now := time.Now().UTC()
	notify := models.LogEntry{
		Actor:  "tool",
		Action: "notify",
		Extra: map[string]json.RawMessage{
			"message": json.RawMessage(`"Critical overheat"`),
			"level":   json.RawMessage(`"critical"`),
		},
	}
	return models.DashboardView{
		Version:  3,
		Machines: []models.Machine{{ID: "M1", Status: "RUNNING", Temperature: 70.2}},
		Orders:   []models.Order{{OrderID: "O-1", Stage: "Paint", Progress: 55}},
		SafetyIncidents: []models.SafetyIncident{
			{ID: "S-1", Status: models.SafetyUnresolved},
			{ID: "S-2", Status: models.SafetyResolved},
		},
		Workflows: []models.WorkflowRecord{{Triage: models.TriageVerdict{Severity: "S1", Category: "Safety"}}},
		Logs:      []models.LogEntry{notify},
		Sources: map[string]models.SourceStatus{
			models.CollectionMachines: {LastAttempt: now, LastSuccess: now},
			models.CollectionOrders:   {LastAttempt: now, LastError: "timeout"},
		},
		Stream: models.StreamStatus{Connected: true, ConnectedSince: now.Add(-time.Minute)},
		Triage: models.TriageSummary{
			Total:      1,
			BySeverity: map[string]int{"S1": 1},
			ByCategory: map[string]int{"Safety": 1},
		},
		GeneratedAt: now,
	}
}
