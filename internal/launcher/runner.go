package launcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"syscall"
	"time"

	"github.com/specialistvlad/vitlaunch/internal/ctxlog"
	"github.com/specialistvlad/vitlaunch/internal/invocation"
)

// DefaultGracePeriod is how long a cancelled child gets between SIGTERM and
// SIGKILL.
const DefaultGracePeriod = 10 * time.Second

// Runner executes commands. The zero value relays nothing and uses the
// default grace period.
type Runner struct {
	Stdout io.Writer
	Stderr io.Writer

	// LogFile, when set, receives a copy of both streams. It is truncated
	// at the start of every run.
	LogFile string

	// Observer, when set, receives every output line.
	Observer LineObserver

	// OnStart is called with the child's PID right after it started.
	OnStart func(pid int)

	GracePeriod time.Duration
}

// Result describes a finished child process.
type Result struct {
	PID        int
	ExitCode   int
	StartedAt  time.Time
	FinishedAt time.Time
}

// Duration is the wall time between start and exit.
func (r *Result) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Run starts cmd and waits for it. When ctx is cancelled the child receives
// SIGTERM and is killed after the grace period. A non-zero exit status is
// returned as *ExitStatusError together with a populated Result.
func (r *Runner) Run(ctx context.Context, cmd *invocation.Command) (*Result, error) {
	logger := ctxlog.FromContext(ctx).With("path", cmd.Path)

	c := exec.CommandContext(ctx, cmd.Path, cmd.Args...)
	c.Dir = cmd.Dir
	c.Env = cmd.Env
	c.Cancel = func() error {
		logger.Warn("Context cancelled, sending SIGTERM to child process.", "pid", c.Process.Pid)
		return c.Process.Signal(syscall.SIGTERM)
	}
	c.WaitDelay = r.GracePeriod
	if c.WaitDelay <= 0 {
		c.WaitDelay = DefaultGracePeriod
	}

	stdout := []io.Writer{orDiscard(r.Stdout)}
	stderr := []io.Writer{orDiscard(r.Stderr)}

	if r.LogFile != "" {
		f, err := os.Create(r.LogFile)
		if err != nil {
			return nil, fmt.Errorf("failed to create log file %s: %w", r.LogFile, err)
		}
		defer f.Close()
		logFile := &syncWriter{w: f}
		stdout = append(stdout, logFile)
		stderr = append(stderr, logFile)
	}

	var lineWriters []*lineWriter
	if r.Observer != nil {
		outLines := newLineWriter(Stdout, r.Observer)
		errLines := newLineWriter(Stderr, r.Observer)
		lineWriters = append(lineWriters, outLines, errLines)
		stdout = append(stdout, outLines)
		stderr = append(stderr, errLines)
	}

	c.Stdout = io.MultiWriter(stdout...)
	c.Stderr = io.MultiWriter(stderr...)

	logger.Debug("Starting child process.", "args", cmd.Args, "dir", cmd.Dir)
	if err := c.Start(); err != nil {
		return nil, fmt.Errorf("failed to start %s: %w", cmd.Path, err)
	}

	result := &Result{PID: c.Process.Pid, StartedAt: time.Now()}
	logger.Info("Child process started.", "pid", result.PID)
	if r.OnStart != nil {
		r.OnStart(result.PID)
	}

	waitErr := c.Wait()
	result.FinishedAt = time.Now()
	for _, lw := range lineWriters {
		lw.Flush()
	}

	if waitErr == nil {
		logger.Info("Child process finished.", "pid", result.PID, "duration", result.Duration())
		return result, nil
	}

	var exitErr *exec.ExitError
	if errors.As(waitErr, &exitErr) {
		result.ExitCode = exitCode(exitErr.ProcessState)
		logger.Warn("Child process failed.", "pid", result.PID, "exit_code", result.ExitCode, "duration", result.Duration())
		return result, &ExitStatusError{Code: result.ExitCode}
	}

	// Wait reports ctx.Err() when a cancelled child still exits successfully.
	if ctx.Err() != nil && errors.Is(waitErr, ctx.Err()) && c.ProcessState != nil {
		result.ExitCode = exitCode(c.ProcessState)
		logger.Info("Child process stopped after cancellation.", "pid", result.PID, "exit_code", result.ExitCode, "duration", result.Duration())
		if result.ExitCode != 0 {
			return result, &ExitStatusError{Code: result.ExitCode}
		}
		return result, nil
	}

	// The process exited cleanly but its output pipes stayed open past the
	// grace period.
	if errors.Is(waitErr, exec.ErrWaitDelay) {
		logger.Warn("Child output was still open after exit.", "pid", result.PID)
		return result, nil
	}
	return result, fmt.Errorf("failed waiting for %s: %w", cmd.Path, waitErr)
}

func exitCode(state *os.ProcessState) int {
	if code := state.ExitCode(); code >= 0 {
		return code
	}
	if ws, ok := state.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return 128 + int(ws.Signal())
	}
	return 1
}

func orDiscard(w io.Writer) io.Writer {
	if w == nil {
		return io.Discard
	}
	return w
}
