package app

import (
	"errors"
	"fmt"
	"slices"

	"github.com/specialistvlad/vitlaunch/internal/invocation"
)

var (
	LogFormats = []string{"text", "json"}
	LogLevels  = []string{"debug", "info", "warn", "error"}
)

// Config holds everything the CLI resolved for a single launch. Values set
// here take precedence over the profile files in ConfigPaths.
type Config struct {
	ConfigPaths []string // hcl files or directories
	EnvFile     string

	Distributed bool
	DryRun      bool

	Launcher invocation.Launcher
	Training invocation.Hyperparameters
	Topology invocation.Topology

	ReportURL string
	LogFile   string
	UploadURL string

	LogFormat       string
	LogLevel        string
	HealthcheckPort int
}

// NewConfig validates cfg and returns a copy.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.LogFormat == "" {
		cfg.LogFormat = "text"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if !slices.Contains(LogFormats, cfg.LogFormat) {
		return nil, fmt.Errorf("invalid log-format %q: must be 'text' or 'json'", cfg.LogFormat)
	}
	if !slices.Contains(LogLevels, cfg.LogLevel) {
		return nil, fmt.Errorf("invalid log-level %q: must be 'debug', 'info', 'warn', or 'error'", cfg.LogLevel)
	}
	if cfg.HealthcheckPort < 0 || cfg.HealthcheckPort > 65535 {
		return nil, fmt.Errorf("invalid healthcheck-port %d", cfg.HealthcheckPort)
	}
	if cfg.UploadURL != "" && cfg.LogFile == "" && len(cfg.ConfigPaths) == 0 {
		return nil, errors.New("upload-url requires log-file")
	}
	return &cfg, nil
}
