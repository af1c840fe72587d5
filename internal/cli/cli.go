package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/specialistvlad/vitlaunch/internal/app"
	"github.com/specialistvlad/vitlaunch/internal/invocation"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

const usageText = `
vitlaunch - launches ViT fine-tuning runs.

Usage:
  vitlaunch [options] DATASET DATA_DIR LR
  vitlaunch -distributed [options] NPROC_PER_NODE NNODES NODE_RANK MASTER_ADDR MASTER_PORT DATASET DATA_DIR LR

Arguments:
  DATASET     Dataset name passed as --dataset (e.g. cifar10, cifar100).
  DATA_DIR    Data directory passed as --data_dir.
  LR          Learning rate passed as --lr, forwarded exactly as written.

  With -config, positional arguments may be omitted and taken from the
  profile. With -distributed, the five process-group arguments may be
  omitted when the profile has a distributed block.

Options:
`

// Parse processes command-line arguments. It returns a populated Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("vitlaunch", flag.ContinueOnError)
	flagSet.SetOutput(output)
	flagSet.Usage = func() {
		fmt.Fprint(output, usageText)
		flagSet.PrintDefaults()
	}

	configFlag := flagSet.String("config", "", "Path to an .hcl run profile or a directory of profiles.")
	cFlag := flagSet.String("c", "", "Path to an .hcl run profile or a directory of profiles (shorthand).")
	envFileFlag := flagSet.String("env-file", "", "Dotenv file merged into the training process environment.")
	distributedFlag := flagSet.Bool("distributed", false, "Launch through torch.distributed.launch (8 positional arguments).")
	dryRunFlag := flagSet.Bool("dry-run", false, "Print the resolved command and exit without running it.")

	pythonFlag := flagSet.String("python", "", "Python interpreter. (default \"python3\")")
	entryFlag := flagSet.String("entry", "", "Training entry point. (default \"main_vit_fine_tune.py\")")
	workdirFlag := flagSet.String("workdir", "", "Working directory of the training process.")

	modelFlag := flagSet.String("model", "", "Override --model.")
	batchSizeFlag := flagSet.Int("batch-size", 0, "Override --batch_size.")
	optimizerFlag := flagSet.String("optimizer", "", "Override --client_optimizer: 'sgd' or 'adam'.")
	decayTypeFlag := flagSet.String("decay-type", "", "Override --decay_type: 'cosine' or 'linear'.")
	wdFlag := flagSet.Float64("wd", 0, "Override --wd.")
	warmupFlag := flagSet.Int("warmup-steps", 0, "Override --warmup_steps.")
	epochsFlag := flagSet.Int("epochs", 0, "Override --epochs.")
	imgSizeFlag := flagSet.Int("img-size", 0, "Override --img_size.")
	pretrainedFlag := flagSet.String("pretrained-dir", "", "Override --pretrained_dir.")

	reportURLFlag := flagSet.String("report-url", "", "socket.io endpoint receiving live run events.")
	logFileFlag := flagSet.String("log-file", "", "File receiving a copy of the training output.")
	uploadURLFlag := flagSet.String("upload-url", "", "Pre-signed URL the log file is PUT to after the run.")
	healthPortFlag := flagSet.Int("healthcheck-port", 0, "Port for the HTTP health check server. 0 is disabled.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	set := make(map[string]bool)
	flagSet.Visit(func(f *flag.Flag) { set[f.Name] = true })

	var configPaths []string
	if *configFlag != "" {
		configPaths = append(configPaths, *configFlag)
	}
	if *cFlag != "" {
		configPaths = append(configPaths, *cFlag)
	}

	positional := flagSet.Args()
	var training invocation.Hyperparameters
	var topology invocation.Topology

	switch {
	case len(positional) == 0 && len(configPaths) > 0:
		// Everything comes from the profile.
	case len(positional) == 3:
		training = invocation.Hyperparameters{Dataset: positional[0], DataDir: positional[1], LearningRate: positional[2]}
	case len(positional) == 8 && *distributedFlag:
		topology = invocation.Topology{
			NprocPerNode: positional[0],
			Nnodes:       positional[1],
			NodeRank:     positional[2],
			MasterAddr:   positional[3],
			MasterPort:   positional[4],
		}
		training = invocation.Hyperparameters{Dataset: positional[5], DataDir: positional[6], LearningRate: positional[7]}
	default:
		flagSet.Usage()
		want := "3"
		if *distributedFlag {
			want = "8 (or 3 with -config)"
		}
		return nil, false, &ExitError{Code: 2, Message: fmt.Sprintf("expected %s positional arguments, got %d", want, len(positional))}
	}
	if len(positional) == 3 && *distributedFlag && len(configPaths) == 0 {
		flagSet.Usage()
		return nil, false, &ExitError{Code: 2, Message: "distributed launch needs 8 positional arguments or a profile with a distributed block"}
	}

	if set["model"] {
		training.Model = modelFlag
	}
	if set["batch-size"] {
		training.BatchSize = batchSizeFlag
	}
	if set["optimizer"] {
		training.ClientOptimizer = optimizerFlag
	}
	if set["decay-type"] {
		training.DecayType = decayTypeFlag
	}
	if set["wd"] {
		training.WeightDecay = wdFlag
	}
	if set["warmup-steps"] {
		training.WarmupSteps = warmupFlag
	}
	if set["epochs"] {
		training.Epochs = epochsFlag
	}
	if set["img-size"] {
		training.ImgSize = imgSizeFlag
	}
	if set["pretrained-dir"] {
		training.PretrainedDir = pretrainedFlag
	}

	cfg, err := app.NewConfig(app.Config{
		ConfigPaths: configPaths,
		EnvFile:     *envFileFlag,
		Distributed: *distributedFlag,
		DryRun:      *dryRunFlag,
		Launcher: invocation.Launcher{
			Python:     *pythonFlag,
			EntryPoint: *entryFlag,
			Workdir:    *workdirFlag,
		},
		Training:        training,
		Topology:        topology,
		ReportURL:       *reportURLFlag,
		LogFile:         *logFileFlag,
		UploadURL:       *uploadURLFlag,
		LogFormat:       strings.ToLower(*logFormatFlag),
		LogLevel:        strings.ToLower(*logLevelFlag),
		HealthcheckPort: *healthPortFlag,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", cfg)
	return cfg, false, nil
}
