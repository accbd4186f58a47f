package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"shopfloor_dashboard/internal/models"
	"shopfloor_dashboard/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// --- parseInterval unit tests ---

func TestParseInterval(t *testing.T) {
	h := NewHandler(&service.Service{}, nil, nil)

	cases := []struct {
		name string
		u    string
		want time.Duration
	}{
		{"default_when_missing", "/ws", 1 * time.Second},
		{"interval_string_valid", "/ws?interval=200ms", 200 * time.Millisecond},
		{"interval_ms_valid", "/ws?interval_ms=150", 150 * time.Millisecond},
		{"interval_too_large", "/ws?interval=20s", 1 * time.Second},
		{"interval_ms_too_large", "/ws?interval_ms=20000", 1 * time.Second},
		{"interval_invalid_string", "/ws?interval=bogus", 1 * time.Second},
		{"interval_ms_invalid", "/ws?interval_ms=NaN", 1 * time.Second},
		{"both_present_interval_wins", "/ws?interval=2s&interval_ms=150", 2 * time.Second},
		{"both_present_invalid_interval_ms_used", "/ws?interval=bogus&interval_ms=250", 250 * time.Millisecond},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, tc.u, nil)
			c, _ := gin.CreateTestContext(w)
			c.Request = req
			got := h.parseInterval(c)
			if got != tc.want {
				t.Fatalf("got %v, want %v for %s", got, tc.want, tc.u)
			}
		})
	}
}

// --- websocket integration tests ---

type envelope struct {
	Type  string          `json:"type"`
	Data  json.RawMessage `json:"data"`
	Error string          `json:"error"`
}

func dialView(t *testing.T, proj *mockProjection) *websocket.Conn {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewHandler(&service.Service{Projection: proj}, nil, nil)
	r.GET("/ws", h.wsConnect)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	u, _ := url.Parse(srv.URL)
	u.Scheme = "ws"
	u.Path = "/ws"
	q := u.Query()
	q.Set("interval_ms", "20") // fast ticks for the test
	u.RawQuery = q.Encode()

	dialer := websocket.Dialer{HandshakeTimeout: 2 * time.Second}
	conn, _, err := dialer.Dial(u.String(), nil)
	if err != nil {
		t.Fatalf("dial error: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readView(t *testing.T, conn *websocket.Conn, timeout time.Duration) (models.DashboardView, error) {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(timeout))
	var env envelope
	if err := conn.ReadJSON(&env); err != nil {
		return models.DashboardView{}, err
	}
	if env.Type != "view" || len(env.Data) == 0 {
		t.Fatalf("bad envelope: %+v", env)
	}
	var v models.DashboardView
	if err := json.Unmarshal(env.Data, &v); err != nil {
		t.Fatalf("unmarshal view: %v", err)
	}
	return v, nil
}

func TestWebSocket_PushesInitialView(t *testing.T) {
	proj := &mockProjection{view: sampleView()}
	conn := dialView(t, proj)

	v, err := readView(t, conn, time.Second)
	if err != nil {
		t.Fatalf("read initial: %v", err)
	}
	if v.Version != 3 || len(v.Machines) != 1 || v.Machines[0].ID != "M1" {
		t.Fatalf("unexpected view: %+v", v)
	}
}

func TestWebSocket_PushesOnlyWhenVersionChanges(t *testing.T) {
	proj := &mockProjection{view: sampleView()}
	conn := dialView(t, proj)

	if _, err := readView(t, conn, time.Second); err != nil {
		t.Fatalf("read initial: %v", err)
	}

	// unchanged version: several ticks pass without a push
	if _, err := readView(t, conn, 150*time.Millisecond); err == nil {
		t.Fatalf("expected no push while version is unchanged")
	}

	// A read deadline error poisons the connection, so observe the next push on a new one.
	conn = dialView(t, proj)
	if _, err := readView(t, conn, time.Second); err != nil {
		t.Fatalf("read initial on second connection: %v", err)
	}
	proj.set(func(v *models.DashboardView) {
		v.Workflows = append([]models.WorkflowRecord{{Triage: models.TriageVerdict{Severity: "S2"}}}, v.Workflows...)
	})

	v, err := readView(t, conn, time.Second)
	if err != nil {
		t.Fatalf("read pushed view: %v", err)
	}
	if v.Version != 4 || len(v.Workflows) != 2 || v.Workflows[0].Triage.Severity != "S2" {
		t.Fatalf("unexpected pushed view: %+v", v)
	}
}
