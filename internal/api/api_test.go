package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/peergap/internal/analysis"
	"github.com/wonny/peergap/internal/api/handlers"
	"github.com/wonny/peergap/pkg/logger"
)

type stubAnalyzer struct{}

func (stubAnalyzer) DiscoverPeers(ctx context.Context, symbol string, maxPeers int) (*analysis.PeerSet, error) {
	panic("boom")
}

func (stubAnalyzer) Run(ctx context.Context, req analysis.Request) (*analysis.RunResult, error) {
	return &analysis.RunResult{RunID: "run-1"}, nil
}

func newTestServer(t *testing.T) (*httptest.Server, *Hub) {
	t.Helper()
	log := logger.NewNop()
	hub := NewHub(log)
	h := handlers.NewAnalysisHandler(stubAnalyzer{}, nil, log)

	server := httptest.NewServer(NewRouter(h, hub, log))
	t.Cleanup(server.Close)
	return server, hub
}

func TestHealth(t *testing.T) {
	server, _ := newTestServer(t)

	resp, err := http.Get(server.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
}

func TestRecoveryMiddleware(t *testing.T) {
	server, _ := newTestServer(t)

	resp, err := http.Get(server.URL + "/api/peers/WRB")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestRouter_MethodNotAllowed(t *testing.T) {
	server, _ := newTestServer(t)

	req, err := http.NewRequest(http.MethodDelete, server.URL+"/api/analysis", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	resp2, err := http.Post(server.URL+"/api/peers/WRB", "application/json", nil)
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp2.StatusCode)
}

func TestRouter_NotFound(t *testing.T) {
	server, _ := newTestServer(t)

	resp, err := http.Get(server.URL + "/api/unknown")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func dial(t *testing.T, server *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/analysis" + query
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) analysis.Event {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var e analysis.Event
	require.NoError(t, conn.ReadJSON(&e))
	return e
}

func TestHub_StreamsEvents(t *testing.T) {
	server, hub := newTestServer(t)

	all := dial(t, server, "")
	wrbOnly := dial(t, server, "?symbol=wrb")
	require.Eventually(t, func() bool { return hub.ClientCount() == 2 }, 2*time.Second, 10*time.Millisecond)

	hub.Notify(analysis.Event{Type: analysis.EventStage, RunID: "r1", Target: "CINF", Stage: analysis.StageDiscovery})
	hub.Notify(analysis.Event{Type: analysis.EventEntity, RunID: "r2", Target: "WRB", Symbol: "AFG", Available: true, Done: 1, Total: 3})

	first := readEvent(t, all)
	assert.Equal(t, "r1", first.RunID)
	second := readEvent(t, all)
	assert.Equal(t, "r2", second.RunID)

	// Filtered client only sees its target
	e := readEvent(t, wrbOnly)
	assert.Equal(t, "r2", e.RunID)
	assert.Equal(t, "AFG", e.Symbol)
	assert.Equal(t, 3, e.Total)
}

func TestHub_UnregistersOnClose(t *testing.T) {
	server, hub := newTestServer(t)

	conn := dial(t, server, "")
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	conn.Close()
	require.Eventually(t, func() bool { return hub.ClientCount() == 0 }, 2*time.Second, 10*time.Millisecond)

	// No clients: must not block or panic
	hub.Notify(analysis.Event{Type: analysis.EventCompleted, RunID: "r1"})
}
