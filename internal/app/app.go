package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/specialistvlad/vitlaunch/internal/artifacts"
	"github.com/specialistvlad/vitlaunch/internal/config"
	"github.com/specialistvlad/vitlaunch/internal/ctxlog"
	"github.com/specialistvlad/vitlaunch/internal/invocation"
	"github.com/specialistvlad/vitlaunch/internal/launcher"
	"github.com/specialistvlad/vitlaunch/internal/monitor"
)

// App encapsulates the launcher's dependencies, configuration, and lifecycle.
type App struct {
	outW   io.Writer
	errW   io.Writer
	logger *slog.Logger
	config *Config
	loader config.Loader

	environ     func() []string
	hostname    func() (string, error)
	newReporter func(ctx context.Context, cfg *config.Report) monitor.Reporter
	uploader    *artifacts.Uploader
}

// NewApp is the constructor for the application. The child's stdout is
// relayed to outW; the child's stderr and the launcher's own logs go to errW.
func NewApp(outW, errW io.Writer, cfg *Config, loader config.Loader) *App {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, errW)
	logger.Debug("Logger configured successfully.")

	return &App{
		outW:        outW,
		errW:        errW,
		logger:      logger,
		config:      cfg,
		loader:      loader,
		environ:     os.Environ,
		hostname:    os.Hostname,
		newReporter: monitor.New,
		uploader:    artifacts.NewUploader(),
	}
}

// plan is a fully resolved launch.
type plan struct {
	command     *invocation.Command
	training    invocation.Hyperparameters
	topology    *invocation.Topology
	report      *config.Report
	artifacts   config.Artifacts
	distributed bool
}

// resolve merges profile files and CLI values into a plan. CLI values win.
func (a *App) resolve(ctx context.Context) (*plan, error) {
	logger := ctxlog.FromContext(ctx)

	profile, err := a.loader.Load(ctx, a.config.ConfigPaths...)
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	logger.Debug("Profile loaded.", "paths", a.config.ConfigPaths)

	p := &plan{
		training:    profile.Training.Merge(a.config.Training),
		report:      profile.Report,
		artifacts:   profile.Artifacts,
		distributed: a.config.Distributed,
	}
	l := profile.Launcher.Merge(a.config.Launcher)

	if p.distributed {
		var base invocation.Topology
		if profile.Distributed != nil {
			base = *profile.Distributed
		}
		topology := base.Merge(a.config.Topology)
		p.topology = &topology
	}

	if a.config.ReportURL != "" {
		r := config.Report{Timeout: config.DefaultReportTimeout}
		if p.report != nil {
			r = *p.report
		}
		r.URL = a.config.ReportURL
		p.report = &r
	}
	if a.config.LogFile != "" {
		p.artifacts.LogFile = a.config.LogFile
	}
	if a.config.UploadURL != "" {
		p.artifacts.UploadURL = a.config.UploadURL
	}

	cmd, err := invocation.Build(l, p.topology, p.training)
	if err != nil {
		return nil, err
	}

	var fileEnv map[string]string
	if a.config.EnvFile != "" {
		fileEnv, err = launcher.LoadEnvFile(a.config.EnvFile)
		if err != nil {
			return nil, err
		}
	}
	cmd.Env = launcher.MergeEnv(a.environ(), profile.Environment, fileEnv)
	if p.distributed {
		cmd.Env = launcher.SetDefault(cmd.Env, "NCCL_DEBUG", "INFO")
	}
	p.command = cmd

	return p, nil
}
