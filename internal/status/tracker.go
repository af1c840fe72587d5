// Package status tracks the state of the child process and serves it over
// HTTP for health checks and schedulers.
package status

import (
	"sync"
	"time"
)

// State is the lifecycle state of a run.
type State string

const (
	StatePending State = "pending"
	StateRunning State = "running"
	StateExited  State = "exited"
)

// Snapshot is a point-in-time copy of the tracked state.
type Snapshot struct {
	State     State      `json:"state"`
	Run       string     `json:"run,omitempty"`
	Command   string     `json:"command,omitempty"`
	PID       int        `json:"pid,omitempty"`
	StartedAt *time.Time `json:"started_at,omitempty"`
	ExitCode  *int       `json:"exit_code,omitempty"`
}

// Tracker records run transitions. It is safe for concurrent use.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
	now  func() time.Time
}

// NewTracker returns a tracker in the pending state.
func NewTracker(run, command string) *Tracker {
	return &Tracker{
		snap: Snapshot{State: StatePending, Run: run, Command: command},
		now:  time.Now,
	}
}

// Running marks the child as started.
func (t *Tracker) Running(pid int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	started := t.now()
	t.snap.State = StateRunning
	t.snap.PID = pid
	t.snap.StartedAt = &started
}

// Exited marks the child as finished with the given status.
func (t *Tracker) Exited(code int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.snap.State = StateExited
	t.snap.ExitCode = &code
}

// Snapshot returns a copy of the current state.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.snap
}
