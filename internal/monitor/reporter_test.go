package monitor

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/specialistvlad/vitlaunch/internal/config"
	"github.com/specialistvlad/vitlaunch/internal/launcher"
)

type emitted struct {
	event   string
	payload map[string]any
}

type fakeSocket struct {
	mu     sync.Mutex
	events []emitted
	closed int
}

func (f *fakeSocket) reporter() *SocketIO {
	return &SocketIO{
		emit: func(event string, payload map[string]any) {
			f.mu.Lock()
			defer f.mu.Unlock()
			f.events = append(f.events, emitted{event, payload})
		},
		close: func() {
			f.mu.Lock()
			defer f.mu.Unlock()
			f.closed++
		},
	}
}

func TestSocketIO_EmitsLifecycle(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	fake := &fakeSocket{}
	r := fake.reporter()

	// --- Act ---
	r.Started(RunInfo{Name: "FedTransformer(c)10-lr0.03", Command: "python3 main_vit_fine_tune.py", PID: 42, WorldSize: 16, Distributed: true, NodeRank: "1"})
	r.ObserveLine(launcher.Stdout, "Train/Acc 0.91")
	r.Finished(RunResult{ExitCode: 1, Duration: 1500 * time.Millisecond, Error: "process exited with status 1"})
	require.NoError(t, r.Close())
	r.ObserveLine(launcher.Stderr, "dropped after close")
	require.NoError(t, r.Close())

	// --- Assert ---
	require.Len(t, fake.events, 3)
	require.Equal(t, 1, fake.closed)

	require.Equal(t, EventRunStarted, fake.events[0].event)
	require.Equal(t, "FedTransformer(c)10-lr0.03", fake.events[0].payload["run"])
	require.Equal(t, 42, fake.events[0].payload["pid"])
	require.Equal(t, 16, fake.events[0].payload["world_size"])
	require.Equal(t, true, fake.events[0].payload["distributed"])

	require.Equal(t, EventRunOutput, fake.events[1].event)
	require.Equal(t, map[string]any{
		"run":    "FedTransformer(c)10-lr0.03",
		"stream": "stdout",
		"line":   "Train/Acc 0.91",
	}, fake.events[1].payload)

	require.Equal(t, EventRunFinished, fake.events[2].event)
	require.Equal(t, map[string]any{
		"run":         "FedTransformer(c)10-lr0.03",
		"exit_code":   1,
		"duration_ms": int64(1500),
		"error":       "process exited with status 1",
	}, fake.events[2].payload)
}

func TestFinishedPayload_NoError(t *testing.T) {
	t.Parallel()

	p := finishedPayload("r", RunResult{})
	_, hasError := p["error"]
	require.False(t, hasError)
}

func TestNew_FallsBackToNop(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name string
		cfg  *config.Report
	}{
		{name: "nil config", cfg: nil},
		{name: "empty url", cfg: &config.Report{}},
		{name: "relative url", cfg: &config.Report{URL: "monitor:3000"}},
		{name: "malformed url", cfg: &config.Report{URL: "http://[::1"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			r := New(context.Background(), tc.cfg)
			require.IsType(t, Nop{}, r)
			require.NoError(t, r.Close())
		})
	}
}

func TestDial_CancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Dial(ctx, &config.Report{URL: "http://127.0.0.1:9/socket.io/", Timeout: time.Second})
	require.Error(t, err)
}
