package arbiter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPinger struct{ err error }

func (s stubPinger) Ping(context.Context) error { return s.err }

func TestHealthCheckEndpoint_MethodNotAllowed(t *testing.T) {
	h := newHarness(t, testConfig(), 1)
	server := NewStatusServer(h.arbiter, nil)

	w := httptest.NewRecorder()
	server.healthCheckHandler(w, httptest.NewRequest(http.MethodPost, "/healthz", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestHealthCheckResponse(t *testing.T) {
	t.Run("healthy without an event bus", func(t *testing.T) {
		h := newHarness(t, testConfig(), 1)
		w := httptest.NewRecorder()
		NewStatusServer(h.arbiter, nil).healthCheckHandler(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

		var resp HealthResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "healthy", resp.Status)
		assert.Empty(t, resp.Events)
		assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	})

	t.Run("unhealthy when the event bus is down", func(t *testing.T) {
		h := newHarness(t, testConfig(), 1)
		w := httptest.NewRecorder()
		server := NewStatusServer(h.arbiter, stubPinger{err: errors.New("connection refused")})
		server.healthCheckHandler(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

		var resp HealthResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Equal(t, "unhealthy", resp.Status)
		assert.Equal(t, "disconnected", resp.Events)
		assert.Equal(t, "connection refused", resp.Error)
	})

	t.Run("finished game", func(t *testing.T) {
		h := newHarness(t, testConfig(), 1)
		h.arbiter.setState(StateTerminated)
		w := httptest.NewRecorder()
		NewStatusServer(h.arbiter, stubPinger{}).healthCheckHandler(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

		var resp HealthResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Equal(t, "finished", resp.Status)
		assert.Equal(t, "connected", resp.Events)
	})
}

func TestStatusEndpoint(t *testing.T) {
	h := newHarness(t, testConfig(), 2)
	h.arbiter.placeCardsOnTable(true)
	h.players[1].Point()

	w := httptest.NewRecorder()
	NewStatusServer(h.arbiter, nil).statusHandler(w, httptest.NewRequest(http.MethodGet, "/status", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var snap Snapshot
	require.NoError(t, json.NewDecoder(w.Body).Decode(&snap))
	assert.Equal(t, StateCountingDown, snap.State)
	assert.Equal(t, 1, snap.Round)
	assert.Equal(t, 69, snap.DeckSize)
	assert.Equal(t, 12, snap.BoardCards)
	require.Len(t, snap.Players, 2)
	assert.Equal(t, "p1", snap.Players[1].Name)
	assert.Equal(t, 1, snap.Players[1].Score)
	assert.Greater(t, snap.Players[1].FreezeMS, int64(0))
}

// brokenWriter is a ResponseWriter whose client has gone away.
type brokenWriter struct {
	*httptest.ResponseRecorder
}

func (brokenWriter) Write([]byte) (int, error) {
	return 0, errors.New("broken pipe")
}

func TestStatusEndpoint_LogsWriteFailure(t *testing.T) {
	h := newHarness(t, testConfig(), 1)
	var logs bytes.Buffer
	h.arbiter.log = zerolog.New(&logs)

	w := brokenWriter{httptest.NewRecorder()}
	NewStatusServer(h.arbiter, nil).statusHandler(w, httptest.NewRequest(http.MethodGet, "/status", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, logs.String(), "failed to write status response")
	assert.Contains(t, logs.String(), "broken pipe")
}
