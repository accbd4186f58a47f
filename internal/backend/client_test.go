package backend

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	sd "shopfloor_dashboard"
	"shopfloor_dashboard/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBackend(t *testing.T, mux *http.ServeMux) *Client {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	c, err := NewClient(srv.URL+"/", WithTimeout(2*time.Second))
	require.NoError(t, err)
	return c
}

func TestNewClient_RejectsBadURL(t *testing.T) {
	_, err := NewClient("ftp://example.com")
	assert.Error(t, err)
	_, err = NewClient("://nope")
	assert.Error(t, err)

	c, err := NewClient("http://localhost:8000/")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8000", c.BaseURL())
}

func TestClient_FetchCollections(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/machines", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `[{"id":"M1","status":"running","temperature":95,"vibration":0.2}]`)
	})
	mux.HandleFunc("/orders", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `[{"order_id":"O-1","stage":"assembly","progress":42,"due_in_hours":6}]`)
	})
	mux.HandleFunc("/safety_logs", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `[{"id":"S1","event_type":"ppe","location":"Bay 3","operator_id":"OP1","status":"unresolved","details":{"missing":["helmet"]}}]`)
	})
	mux.HandleFunc("/logs", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `[{"actor":"tool","action":"update_order","target":"O-7","new_due_in_hours":12,"timestamp":"2025-01-01T00:01:00"},{"actor":"tool","action":"stop_machine","target":"M1","timestamp":"2025-01-01T00:00:00"}]`)
	})
	c := newBackend(t, mux)
	ctx := context.Background()

	machines, err := c.FetchMachines(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.Machine{{ID: "M1", Status: "running", Temperature: 95, Vibration: 0.2}}, machines)

	orders, err := c.FetchOrders(ctx)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, "O-1", orders[0].OrderID)
	assert.Equal(t, 42.0, orders[0].Progress)

	incidents, err := c.FetchSafetyIncidents(ctx)
	require.NoError(t, err)
	require.Len(t, incidents, 1)
	assert.Equal(t, models.SafetyUnresolved, incidents[0].Status)
	assert.JSONEq(t, `{"missing":["helmet"]}`, string(incidents[0].Details))

	logs, err := c.FetchLogs(ctx)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, "update_order", logs[0].Action)
	assert.JSONEq(t, `12`, string(logs[0].Extra["new_due_in_hours"]))
	assert.Nil(t, logs[0].ReceivedAt)
	assert.Equal(t, "stop_machine", logs[1].Action)
}

func TestClient_FetchEmptyCollection(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/machines", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `[]`)
	})
	c := newBackend(t, mux)

	machines, err := c.FetchMachines(context.Background())
	require.NoError(t, err)
	assert.Empty(t, machines)
}

func TestClient_FetchErrors(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/machines", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	mux.HandleFunc("/orders", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{not json`)
	})
	c := newBackend(t, mux)

	_, err := c.FetchMachines(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnexpectedStatus)

	_, err = c.FetchOrders(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode body")
}

func TestClient_Publish(t *testing.T) {
	var (
		gotBody  map[string]any
		gotQuery string
	)
	mux := http.NewServeMux()
	mux.HandleFunc("/publish_event", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		gotQuery = r.URL.RawQuery
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_, _ = io.WriteString(w, `{"status":"ok","enqueued":false,"result":{}}`)
	})
	c := newBackend(t, mux)

	ack, err := c.Publish(context.Background(), sd.PublishEvent{
		Source:  sd.SourceUI,
		Type:    sd.EventSafetyResolve,
		Payload: map[string]string{"id": "S1"},
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", ack.Status)
	assert.Empty(t, gotQuery)
	assert.Equal(t, "UI", gotBody["source"])
	assert.Equal(t, "safety_resolve", gotBody["type"])
	assert.Equal(t, map[string]any{"id": "S1"}, gotBody["payload"])
}

func TestClient_PublishAsyncAndFailure(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/publish_event", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("async_mode") != "true" {
			t.Errorf("expected async_mode=true, got %q", r.URL.RawQuery)
		}
		http.Error(w, `{"detail":"graph down"}`, http.StatusInternalServerError)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c, err := NewClient(srv.URL, WithAsyncPublish(true))
	require.NoError(t, err)

	_, err = c.Publish(context.Background(), sd.PublishEvent{Source: sd.SourceUI, Type: sd.EventSafetyResolve})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnexpectedStatus)
	assert.Contains(t, err.Error(), "graph down")
}
