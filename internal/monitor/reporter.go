// Package monitor reports the lifecycle and output of a training run to an
// external dashboard while it executes.
package monitor

import (
	"time"

	"github.com/specialistvlad/vitlaunch/internal/launcher"
)

// Event names emitted by reporters.
const (
	EventRunStarted  = "run_started"
	EventRunOutput   = "run_output"
	EventRunFinished = "run_finished"
)

// RunInfo identifies a run when it starts.
type RunInfo struct {
	Name        string
	Command     string
	Host        string
	PID         int
	Distributed bool
	NodeRank    string
	WorldSize   int
}

// RunResult describes how a run ended.
type RunResult struct {
	ExitCode int
	Duration time.Duration
	Error    string
}

// Reporter receives run events. Implementations must be safe for concurrent
// use because output lines arrive from both child streams at once.
type Reporter interface {
	launcher.LineObserver
	Started(info RunInfo)
	Finished(result RunResult)
	Close() error
}

// Nop discards every event.
type Nop struct{}

func (Nop) ObserveLine(launcher.Stream, string) {}
func (Nop) Started(RunInfo)                     {}
func (Nop) Finished(RunResult)                  {}
func (Nop) Close() error                        { return nil }

func startedPayload(info RunInfo) map[string]any {
	return map[string]any{
		"run":         info.Name,
		"command":     info.Command,
		"host":        info.Host,
		"pid":         info.PID,
		"distributed": info.Distributed,
		"node_rank":   info.NodeRank,
		"world_size":  info.WorldSize,
	}
}

func outputPayload(run string, stream launcher.Stream, line string) map[string]any {
	return map[string]any{
		"run":    run,
		"stream": string(stream),
		"line":   line,
	}
}

func finishedPayload(run string, result RunResult) map[string]any {
	payload := map[string]any{
		"run":         run,
		"exit_code":   result.ExitCode,
		"duration_ms": result.Duration.Milliseconds(),
	}
	if result.Error != "" {
		payload["error"] = result.Error
	}
	return payload
}
