package hcl

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"

	"github.com/specialistvlad/vitlaunch/internal/config"
	"github.com/specialistvlad/vitlaunch/internal/ctxlog"
	"github.com/specialistvlad/vitlaunch/internal/fsutil"
	"github.com/specialistvlad/vitlaunch/internal/invocation"
)

// Loader is the HCL-specific implementation of the config.Loader interface.
type Loader struct {
	environ func() []string
}

// NewLoader creates a new HCL profile loader that evaluates `env.NAME`
// against the current process environment.
func NewLoader() *Loader {
	return &Loader{environ: os.Environ}
}

// NewLoaderWithEnviron creates a loader with a fixed environment, in the
// os.Environ "KEY=value" format.
func NewLoaderWithEnviron(environ []string) *Loader {
	return &Loader{environ: func() []string { return environ }}
}

// Load discovers every .hcl file under paths, decodes them in order and
// merges them into one profile.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Profile, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path_count", len(paths))

	profile := config.NewProfile()
	if len(paths) == 0 {
		return profile, nil
	}

	files, err := fsutil.FindFilesByExtension(".hcl", paths...)
	if err != nil {
		return nil, err
	}
	logger.Debug("Discovered HCL files.", "count", len(files))

	parser := hclparse.NewParser()
	evalCtx := newEvalContext(l.environ())

	for _, file := range files {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse HCL file %s: %w", file, diags)
		}

		var root fileRoot
		if diags := gohcl.DecodeBody(hclFile.Body, evalCtx, &root); diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode HCL file %s: %w", file, diags)
		}

		fileProfile, err := translate(&root, evalCtx)
		if err != nil {
			return nil, fmt.Errorf("invalid profile %s: %w", file, err)
		}
		profile.Merge(fileProfile)
		logger.Debug("Profile file merged.", "file", file)
	}

	logger.Debug("HCL loading complete.", "files", len(files), "environment_vars", len(profile.Environment))
	return profile, nil
}

// translate converts the decoded HCL blocks of one file into a profile.
func translate(root *fileRoot, evalCtx *hcl.EvalContext) (*config.Profile, error) {
	p := config.NewProfile()

	for _, b := range root.Launchers {
		p.Launcher = p.Launcher.Merge(invocation.Launcher{
			Python:       b.Python,
			EntryPoint:   b.EntryPoint,
			Workdir:      b.Workdir,
			LaunchModule: b.LaunchModule,
		})
	}

	for _, b := range root.Trainings {
		lr, err := decodeLearningRate(b.LearningRate, evalCtx)
		if err != nil {
			return nil, err
		}
		p.Training = p.Training.Merge(invocation.Hyperparameters{
			Dataset:         b.Dataset,
			DataDir:         b.DataDir,
			LearningRate:    lr,
			Model:           b.Model,
			BatchSize:       b.BatchSize,
			ClientOptimizer: b.ClientOptimizer,
			DecayType:       b.DecayType,
			WeightDecay:     b.WeightDecay,
			WarmupSteps:     b.WarmupSteps,
			Epochs:          b.Epochs,
			ImgSize:         b.ImgSize,
			PretrainedDir:   b.PretrainedDir,
			LocalRank:       b.LocalRank,
			GlobalRank:      b.GlobalRank,
		})
	}

	for _, b := range root.Distributed {
		var base invocation.Topology
		if p.Distributed != nil {
			base = *p.Distributed
		}
		merged := base.Merge(invocation.Topology{
			NprocPerNode: b.NprocPerNode,
			Nnodes:       b.Nnodes,
			NodeRank:     b.NodeRank,
			MasterAddr:   b.MasterAddr,
			MasterPort:   b.MasterPort,
		})
		p.Distributed = &merged
	}

	for _, b := range root.Environments {
		env, err := decodeEnvironment(b, evalCtx)
		if err != nil {
			return nil, err
		}
		for k, v := range env {
			p.Environment[k] = v
		}
	}

	for _, b := range root.Reports {
		timeout := config.DefaultReportTimeout
		if b.Timeout != "" {
			d, err := time.ParseDuration(b.Timeout)
			if err != nil {
				return nil, fmt.Errorf("report timeout %q: %w", b.Timeout, err)
			}
			timeout = d
		}
		p.Report = &config.Report{
			URL:                b.URL,
			Namespace:          b.Namespace,
			Timeout:            timeout,
			InsecureSkipVerify: b.InsecureSkipVerify,
		}
	}

	for _, b := range root.Artifacts {
		if b.LogFile != "" {
			p.Artifacts.LogFile = b.LogFile
		}
		if b.UploadURL != "" {
			p.Artifacts.UploadURL = b.UploadURL
		}
	}

	return p, nil
}

// decodeLearningRate evaluates lr, which must be a string. A number literal
// would reach the entry point re-spelled ("3e-2" becomes "0.03").
func decodeLearningRate(expr hcl.Expression, evalCtx *hcl.EvalContext) (string, error) {
	if expr == nil {
		return "", nil
	}
	val, diags := expr.Value(evalCtx)
	if diags.HasErrors() {
		return "", fmt.Errorf("training lr: %w", diags)
	}
	if val.IsNull() {
		return "", nil
	}
	if !val.Type().Equals(cty.String) {
		return "", hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Invalid lr value",
			Detail:   fmt.Sprintf("lr must be a quoted string so it is forwarded as written, got %s.", val.Type().FriendlyName()),
			Subject:  expr.Range().Ptr(),
		}}
	}
	return val.AsString(), nil
}

// decodeEnvironment evaluates every attribute of an environment block and
// converts it to a string. Null values are rejected.
func decodeEnvironment(b *environmentBlock, evalCtx *hcl.EvalContext) (map[string]string, error) {
	attrs, diags := b.Remain.JustAttributes()
	if diags.HasErrors() {
		return nil, fmt.Errorf("environment block: %w", diags)
	}

	names := make([]string, 0, len(attrs))
	for name := range attrs {
		names = append(names, name)
	}
	sort.Strings(names)

	env := make(map[string]string, len(attrs))
	for _, name := range names {
		val, diags := attrs[name].Expr.Value(evalCtx)
		if diags.HasErrors() {
			return nil, fmt.Errorf("environment %s: %w", name, diags)
		}
		if val.IsNull() {
			return nil, fmt.Errorf("environment %s: value must not be null", name)
		}
		str, err := convert.Convert(val, cty.String)
		if err != nil {
			return nil, fmt.Errorf("environment %s: %w", name, err)
		}
		env[name] = str.AsString()
	}
	return env, nil
}
