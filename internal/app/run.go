package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/specialistvlad/vitlaunch/internal/ctxlog"
	"github.com/specialistvlad/vitlaunch/internal/launcher"
	"github.com/specialistvlad/vitlaunch/internal/monitor"
	"github.com/specialistvlad/vitlaunch/internal/status"
)

// Run resolves the launch and executes it. A child that exits non-zero is
// reported as *launcher.ExitStatusError so the caller can mirror its code.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	p, err := a.resolve(ctx)
	if err != nil {
		return err
	}

	if a.config.DryRun {
		a.logger.Debug("Dry run, printing command only.")
		fmt.Fprintln(a.outW, p.command.String())
		return nil
	}

	runName := p.training.RunName()
	ctx = ctxlog.With(ctx, "run", runName)
	logger := ctxlog.FromContext(ctx)

	tracker := status.NewTracker(runName, p.command.String())
	if a.config.HealthcheckPort > 0 {
		srv := status.NewServer(a.config.HealthcheckPort, tracker)
		srv.Start(ctx)
		defer srv.Shutdown(ctx)
	} else {
		logger.Debug("Health check server not started: disabled")
	}

	reporter := a.newReporter(ctx, p.report)
	defer func() {
		if err := reporter.Close(); err != nil {
			logger.Warn("Failed to close run reporter.", "error", err)
		}
	}()

	info := monitor.RunInfo{
		Name:        runName,
		Command:     p.command.String(),
		Distributed: p.distributed,
	}
	if host, err := a.hostname(); err == nil {
		info.Host = host
	}
	if p.topology != nil {
		info.NodeRank = p.topology.NodeRank
		info.WorldSize = p.topology.WorldSize()
	}

	runner := &launcher.Runner{
		Stdout:   a.outW,
		Stderr:   a.errW,
		LogFile:  p.artifacts.LogFile,
		Observer: reporter,
		OnStart: func(pid int) {
			tracker.Running(pid)
			info.PID = pid
			reporter.Started(info)
		},
	}

	logger.Info("🚀 Launching fine-tuning run.", "command", p.command.String(), "distributed", p.distributed)
	res, runErr := runner.Run(ctx, p.command)

	if res != nil {
		result := monitor.RunResult{ExitCode: res.ExitCode, Duration: res.Duration()}
		if runErr != nil {
			result.Error = runErr.Error()
		}
		tracker.Exited(res.ExitCode)
		reporter.Finished(result)
	}

	a.uploadArtifacts(ctx, p)

	var exitErr *launcher.ExitStatusError
	switch {
	case runErr == nil:
		logger.Info("🏁 Run finished.", "duration", res.Duration())
	case errors.As(runErr, &exitErr):
		logger.Error("Run failed.", "exit_code", exitErr.Code)
	default:
		return fmt.Errorf("launch failed: %w", runErr)
	}

	a.logger.Debug("App.Run method finished.")
	return runErr
}

// uploadArtifacts ships the captured log when both ends are configured.
// Failures are logged and never change the run's outcome.
func (a *App) uploadArtifacts(ctx context.Context, p *plan) {
	logger := ctxlog.FromContext(ctx)
	if p.artifacts.LogFile == "" || p.artifacts.UploadURL == "" {
		return
	}
	// ctx may already be cancelled by a signal.
	if err := a.uploader.Upload(context.WithoutCancel(ctx), p.artifacts.LogFile, p.artifacts.UploadURL); err != nil {
		logger.Error("Failed to upload run log.", "error", err)
	}
}
