package websocket

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"idxlens/internal/pipeline"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(testWriter{}, &slog.HandlerOptions{Level: slog.LevelError}))
}

type testWriter struct{}

func (testWriter) Write(p []byte) (int, error) { return len(p), nil }

func dialTestHub(t *testing.T, hub *Hub) *websocket.Conn {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return conn
}

func waitForClients(t *testing.T, hub *Hub, want int) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if hub.ClientCount() == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("hub never reached %d clients, have %d", want, hub.ClientCount())
}

func TestHubRegisterAndWelcome(t *testing.T) {
	hub := NewHub(testLogger())
	hub.Start()
	defer hub.Stop()

	conn := dialTestHub(t, hub)
	waitForClients(t, hub, 1)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)

	var env Envelope
	require.NoError(t, json.Unmarshal(msg, &env))
	assert.Equal(t, TypeConnection, env.Type)

	data, ok := env.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "connected", data["status"])
	assert.NotEmpty(t, data["client_id"])
}

func TestHubPublishReachesAllClients(t *testing.T) {
	hub := NewHub(testLogger())
	hub.Start()
	defer hub.Stop()

	first := dialTestHub(t, hub)
	second := dialTestHub(t, hub)
	waitForClients(t, hub, 2)

	// Drain welcome messages first.
	for _, conn := range []*websocket.Conn{first, second} {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, _, err := conn.ReadMessage()
		require.NoError(t, err)
	}

	hub.Publish(pipeline.Event{
		RunID:     "run-1",
		StageID:   "scrape",
		StageName: "Scrape source tables",
		Status:    pipeline.StageStatusActive,
		Timestamp: time.Now(),
	})

	for _, conn := range []*websocket.Conn{first, second} {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, msg, err := conn.ReadMessage()
		require.NoError(t, err)

		var env Envelope
		require.NoError(t, json.Unmarshal(msg, &env))
		assert.Equal(t, TypeProgress, env.Type)

		data, ok := env.Data.(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "run-1", data["run_id"])
		assert.Equal(t, "scrape", data["stage_id"])
	}
}

func TestHubPublishRunLevelEvent(t *testing.T) {
	hub := NewHub(testLogger())
	hub.Start()
	defer hub.Stop()

	conn := dialTestHub(t, hub)
	waitForClients(t, hub, 1)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage() // welcome
	require.NoError(t, err)

	hub.Publish(pipeline.Event{
		RunID:     "run-2",
		RunStatus: pipeline.RunStatusCompleted,
		Timestamp: time.Now(),
	})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)

	var env Envelope
	require.NoError(t, json.Unmarshal(msg, &env))
	assert.Equal(t, TypeRunStatus, env.Type)
}

func TestHubUnregisterOnDisconnect(t *testing.T) {
	hub := NewHub(testLogger())
	hub.Start()
	defer hub.Stop()

	conn := dialTestHub(t, hub)
	waitForClients(t, hub, 1)

	conn.Close()
	waitForClients(t, hub, 0)
}

func TestHubBroadcastBeforeStartIsSafe(t *testing.T) {
	hub := NewHub(testLogger())

	// Must not panic or block.
	hub.Broadcast([]byte(`{"type":"noop"}`))
	assert.Equal(t, 0, hub.ClientCount())
}
