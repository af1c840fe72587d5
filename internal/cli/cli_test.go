package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/specialistvlad/vitlaunch/internal/app"
	"github.com/specialistvlad/vitlaunch/internal/invocation"
)

func ptr[T any](v T) *T { return &v }

func TestParse(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name           string
		args           []string
		expectExit     bool
		expectErrCode  int
		expectedConfig *app.Config
		checkOutput    func(t *testing.T, output string)
	}{
		{
			name: "Local positional arguments",
			args: []string{"cifar10", "./data/cifar10", "0.03"},
			expectedConfig: &app.Config{
				Training:  invocation.Hyperparameters{Dataset: "cifar10", DataDir: "./data/cifar10", LearningRate: "0.03"},
				LogFormat: "text",
				LogLevel:  "info",
			},
		},
		{
			name: "Distributed positional arguments",
			args: []string{"-distributed", "8", "2", "1", "192.168.11.1", "11111", "cifar100", "/data", "3e-2"},
			expectedConfig: &app.Config{
				Distributed: true,
				Topology: invocation.Topology{
					NprocPerNode: "8",
					Nnodes:       "2",
					NodeRank:     "1",
					MasterAddr:   "192.168.11.1",
					MasterPort:   "11111",
				},
				Training:  invocation.Hyperparameters{Dataset: "cifar100", DataDir: "/data", LearningRate: "3e-2"},
				LogFormat: "text",
				LogLevel:  "info",
			},
		},
		{
			name: "Happy path with all flags",
			args: []string{
				"-c", "/profiles/vit.hcl",
				"--env-file=/etc/vit.env",
				"-dry-run",
				"-python", "/opt/conda/bin/python",
				"-entry", "main.py",
				"-workdir", "/srv/ft",
				"-model", "transformer",
				"-batch-size", "64",
				"-optimizer", "adam",
				"-decay-type", "linear",
				"-wd", "0",
				"-warmup-steps", "500",
				"-epochs", "10",
				"-img-size", "384",
				"-pretrained-dir", "/models/ViT-B_16.npz",
				"-report-url", "http://monitor:3000",
				"-log-file", "run.log",
				"-upload-url", "https://bucket/run.log",
				"-healthcheck-port", "8080",
				"-log-format", "JSON",
				"-log-level", "debug",
				"cifar10", "d", "0.01",
			},
			expectedConfig: &app.Config{
				ConfigPaths: []string{"/profiles/vit.hcl"},
				EnvFile:     "/etc/vit.env",
				DryRun:      true,
				Launcher:    invocation.Launcher{Python: "/opt/conda/bin/python", EntryPoint: "main.py", Workdir: "/srv/ft"},
				Training: invocation.Hyperparameters{
					Dataset:         "cifar10",
					DataDir:         "d",
					LearningRate:    "0.01",
					Model:           ptr("transformer"),
					BatchSize:       ptr(64),
					ClientOptimizer: ptr("adam"),
					DecayType:       ptr("linear"),
					WeightDecay:     ptr(0.0),
					WarmupSteps:     ptr(500),
					Epochs:          ptr(10),
					ImgSize:         ptr(384),
					PretrainedDir:   ptr("/models/ViT-B_16.npz"),
				},
				ReportURL:       "http://monitor:3000",
				LogFile:         "run.log",
				UploadURL:       "https://bucket/run.log",
				HealthcheckPort: 8080,
				LogFormat:       "json",
				LogLevel:        "debug",
			},
		},
		{
			name: "Profile only",
			args: []string{"-config", "profiles/"},
			expectedConfig: &app.Config{
				ConfigPaths: []string{"profiles/"},
				LogFormat:   "text",
				LogLevel:    "info",
			},
		},
		{
			name: "Distributed with topology from profile",
			args: []string{"-distributed", "-config", "cluster.hcl", "cifar10", "d", "0.1"},
			expectedConfig: &app.Config{
				ConfigPaths: []string{"cluster.hcl"},
				Distributed: true,
				Training:    invocation.Hyperparameters{Dataset: "cifar10", DataDir: "d", LearningRate: "0.1"},
				LogFormat:   "text",
				LogLevel:    "info",
			},
		},
		{
			name:       "Help flag triggers clean exit",
			args:       []string{"-h"},
			expectExit: true,
			checkOutput: func(t *testing.T, output string) {
				require.True(t, strings.Contains(output, "Usage:"), "Expected help text to be printed")
			},
		},
		{
			name:          "No arguments",
			args:          []string{},
			expectErrCode: 2,
			checkOutput: func(t *testing.T, output string) {
				require.Contains(t, output, "Usage:")
			},
		},
		{
			name:          "Wrong positional count",
			args:          []string{"cifar10", "d"},
			expectErrCode: 2,
		},
		{
			name:          "Eight positionals without distributed",
			args:          []string{"8", "2", "1", "h", "1", "cifar10", "d", "0.1"},
			expectErrCode: 2,
		},
		{
			name:          "Distributed with three positionals and no profile",
			args:          []string{"-distributed", "cifar10", "d", "0.1"},
			expectErrCode: 2,
		},
		{
			name:          "Unknown flag",
			args:          []string{"--this-is-not-a-valid-flag"},
			expectErrCode: 2,
		},
		{
			name:          "Invalid log format",
			args:          []string{"-log-format", "xml", "cifar10", "d", "0.1"},
			expectErrCode: 2,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			var out bytes.Buffer
			cfg, shouldExit, err := Parse(tc.args, &out)

			if tc.expectErrCode != 0 {
				require.Error(t, err)
				var exitErr *ExitError
				require.ErrorAs(t, err, &exitErr)
				require.Equal(t, tc.expectErrCode, exitErr.Code)
			} else {
				require.NoError(t, err)
			}
			require.Equal(t, tc.expectExit, shouldExit)

			if tc.expectedConfig != nil {
				if diff := cmp.Diff(tc.expectedConfig, cfg); diff != "" {
					t.Errorf("Parse() config mismatch (-want +got):\n%s", diff)
				}
			}
			if tc.checkOutput != nil {
				tc.checkOutput(t, out.String())
			}
		})
	}
}
