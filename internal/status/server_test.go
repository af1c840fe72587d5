package status

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestHealth(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(NewServer(0, NewTracker("r", "c")).Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestStatus_Lifecycle(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	tracker := NewTracker("FedTransformer(c)20-lr0.03", "python3 main_vit_fine_tune.py")
	fixed := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	tracker.now = func() time.Time { return fixed }
	srv := httptest.NewServer(NewServer(0, tracker).Handler())
	defer srv.Close()

	get := func() Snapshot {
		resp, err := http.Get(srv.URL + "/status")
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.Equal(t, "application/json", resp.Header.Get("Content-Type"))
		var snap Snapshot
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&snap))
		return snap
	}

	// --- Act & Assert ---
	snap := get()
	require.Equal(t, StatePending, snap.State)
	require.Nil(t, snap.StartedAt)
	require.Nil(t, snap.ExitCode)

	tracker.Running(4242)
	snap = get()
	require.Equal(t, StateRunning, snap.State)
	require.Equal(t, 4242, snap.PID)
	require.True(t, fixed.Equal(*snap.StartedAt))

	tracker.Exited(0)
	snap = get()
	require.Equal(t, StateExited, snap.State)
	require.NotNil(t, snap.ExitCode)
	require.Equal(t, 0, *snap.ExitCode)
	require.Equal(t, "FedTransformer(c)20-lr0.03", snap.Run)
}

func TestStatus_MethodNotAllowed(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(NewServer(0, NewTracker("r", "c")).Handler())
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/status", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}
