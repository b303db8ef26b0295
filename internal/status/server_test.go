package status

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"serialbridge/internal/bridge"
	corelog "serialbridge/internal/core/log"
)

type fakeProvider struct {
	mu    sync.Mutex
	stats bridge.Stats
}

func (f *fakeProvider) Stats() bridge.Stats {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stats
}

func (f *fakeProvider) setState(state bridge.State) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stats.State = state.String()
}

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	s := NewServer("127.0.0.1:0", "test", corelog.NewTestLogger(t))
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, ts
}

func TestHealthz_NoSession(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	var body HealthzResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "unhealthy", body.Status)
	assert.Equal(t, "pending", body.State)
}

func TestHealthz_FollowsSessionState(t *testing.T) {
	s, ts := newTestServer(t)
	p := &fakeProvider{stats: bridge.Stats{ID: "sess-1"}}
	s.SetProvider(p)

	p.setState(bridge.StateRunning)
	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	var body HealthzResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "healthy", body.Status)
	assert.Equal(t, "sess-1", body.Session)

	// 会话结束后探测失败
	p.setState(bridge.StateClosed)
	resp, err = http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestStatus_ReturnsStats(t *testing.T) {
	s, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/status")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	s.SetProvider(&fakeProvider{stats: bridge.Stats{
		ID:    "sess-2",
		State: bridge.StateRunning.String(),
		AtoB:  bridge.DirectionStats{Route: "tcp://localhost:1234 → serial:COM4@9600", BytesRead: 10, BytesWritten: 10},
		BtoA:  bridge.DirectionStats{BytesRead: 7, BytesWritten: 7},
	}})

	resp, err = http.Get(ts.URL + "/status")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var body struct {
		Success bool         `json:"success"`
		Data    bridge.Stats `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.True(t, body.Success)
	assert.Equal(t, "sess-2", body.Data.ID)
	assert.Equal(t, int64(10), body.Data.AtoB.BytesWritten)
	assert.Equal(t, int64(7), body.Data.BtoA.BytesRead)
}

func TestStatus_RejectsWrites(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Post(ts.URL+"/status", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/sessions")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServer_StartAndClose(t *testing.T) {
	s := NewServer("127.0.0.1:0", "test", corelog.NewTestLogger(t))
	require.NoError(t, s.Start())
	require.NotEmpty(t, s.Addr())

	resp, err := http.Get("http://" + s.Addr() + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	require.NoError(t, s.CloseWithError())
	assert.True(t, s.IsClosed())
	assert.NoError(t, s.CloseWithError())
}
