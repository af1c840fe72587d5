package invocation

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
)

// Hyperparameters holds the values forwarded to the fine-tuning entry point.
// Dataset, DataDir and LearningRate are required and forwarded verbatim. The
// pointer fields are optional overrides; nil means "use the entry point's
// own default" and the flag is not emitted at all.
type Hyperparameters struct {
	Dataset      string
	DataDir      string
	LearningRate string

	Model           *string
	BatchSize       *int
	ClientOptimizer *string
	DecayType       *string
	WeightDecay     *float64
	WarmupSteps     *int
	Epochs          *int
	ImgSize         *int
	PretrainedDir   *string
	LocalRank       *int
	GlobalRank      *int
}

// Known choices accepted by the entry point.
var (
	DecayTypes       = []string{"cosine", "linear"}
	ClientOptimizers = []string{"sgd", "adam"}
)

// Validate checks the required values and the overrides that the entry
// point would otherwise reject (or silently misinterpret).
func (h Hyperparameters) Validate() error {
	if strings.TrimSpace(h.Dataset) == "" {
		return fmt.Errorf("%w: dataset", ErrMissingArgument)
	}
	if strings.TrimSpace(h.DataDir) == "" {
		return fmt.Errorf("%w: data_dir", ErrMissingArgument)
	}
	if strings.TrimSpace(h.LearningRate) == "" {
		return fmt.Errorf("%w: lr", ErrMissingArgument)
	}
	if _, err := strconv.ParseFloat(h.LearningRate, 64); err != nil || isHexFloat(h.LearningRate) {
		return fmt.Errorf("%w: lr %q is not a number", ErrInvalidArgument, h.LearningRate)
	}

	if h.DecayType != nil && !slices.Contains(DecayTypes, *h.DecayType) {
		return fmt.Errorf("%w: decay_type %q, must be one of %s", ErrInvalidArgument, *h.DecayType, strings.Join(DecayTypes, ", "))
	}
	if h.ClientOptimizer != nil && !slices.Contains(ClientOptimizers, *h.ClientOptimizer) {
		return fmt.Errorf("%w: client_optimizer %q, must be one of %s", ErrInvalidArgument, *h.ClientOptimizer, strings.Join(ClientOptimizers, ", "))
	}

	nonNegative := []struct {
		name  string
		value *int
	}{
		{"batch_size", h.BatchSize},
		{"warmup_steps", h.WarmupSteps},
		{"epochs", h.Epochs},
		{"local_rank", h.LocalRank},
		{"global_rank", h.GlobalRank},
	}
	for _, f := range nonNegative {
		if f.value != nil && *f.value < 0 {
			return fmt.Errorf("%w: %s must not be negative, got %d", ErrInvalidArgument, f.name, *f.value)
		}
	}
	if h.BatchSize != nil && *h.BatchSize == 0 {
		return fmt.Errorf("%w: batch_size must be positive", ErrInvalidArgument)
	}
	if h.ImgSize != nil && *h.ImgSize <= 0 {
		return fmt.Errorf("%w: img_size must be positive, got %d", ErrInvalidArgument, *h.ImgSize)
	}
	if h.WeightDecay != nil && *h.WeightDecay < 0 {
		return fmt.Errorf("%w: wd must not be negative, got %v", ErrInvalidArgument, *h.WeightDecay)
	}
	return nil
}

// Flags returns the entry point flags in a stable order. The three required
// values always come first, in the order --dataset, --data_dir, --lr.
func (h Hyperparameters) Flags() []Flag {
	flags := []Flag{
		{Name: "dataset", Value: h.Dataset},
		{Name: "data_dir", Value: h.DataDir},
		{Name: "lr", Value: h.LearningRate},
	}

	flags = appendString(flags, "model", h.Model)
	flags = appendInt(flags, "batch_size", h.BatchSize)
	flags = appendString(flags, "client_optimizer", h.ClientOptimizer)
	flags = appendString(flags, "decay_type", h.DecayType)
	if h.WeightDecay != nil {
		flags = append(flags, Flag{Name: "wd", Value: strconv.FormatFloat(*h.WeightDecay, 'g', -1, 64)})
	}
	flags = appendInt(flags, "warmup_steps", h.WarmupSteps)
	flags = appendInt(flags, "epochs", h.Epochs)
	flags = appendInt(flags, "img_size", h.ImgSize)
	flags = appendString(flags, "pretrained_dir", h.PretrainedDir)
	flags = appendInt(flags, "local_rank", h.LocalRank)
	flags = appendInt(flags, "global_rank", h.GlobalRank)
	return flags
}

// RunName mirrors the run name the entry point reports under. The entry
// point parses lr as a float before naming the run, so "3e-2" and "0.03"
// give the same name.
func (h Hyperparameters) RunName() string {
	epochs := "20"
	if h.Epochs != nil {
		epochs = strconv.Itoa(*h.Epochs)
	}
	lr := h.LearningRate
	if f, err := strconv.ParseFloat(lr, 64); err == nil {
		lr = formatFloat(f)
	}
	return fmt.Sprintf("FedTransformer(c)%s-lr%s", epochs, lr)
}

// formatFloat renders f the way Python's repr does: the shortest
// round-tripping digits, fixed notation for decimal exponents in [-4, 16)
// with a trailing ".0" on integral values, scientific notation otherwise.
func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "nan"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}

	sci := strconv.FormatFloat(f, 'e', -1, 64)
	exp, err := strconv.Atoi(sci[strings.LastIndexByte(sci, 'e')+1:])
	if err != nil || exp < -4 || exp >= 16 {
		return sci
	}
	fixed := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(fixed, ".") {
		fixed += ".0"
	}
	return fixed
}

// isHexFloat reports whether s uses the 0x float syntax, which Go accepts
// and the entry point's float() does not.
func isHexFloat(s string) bool {
	s = strings.TrimLeft(s, "+-")
	return strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X")
}

// Merge returns a copy of h where every value set in o replaces the value
// in h. Empty strings in o do not replace anything.
func (h Hyperparameters) Merge(o Hyperparameters) Hyperparameters {
	out := h
	if o.Dataset != "" {
		out.Dataset = o.Dataset
	}
	if o.DataDir != "" {
		out.DataDir = o.DataDir
	}
	if o.LearningRate != "" {
		out.LearningRate = o.LearningRate
	}
	if o.Model != nil {
		out.Model = o.Model
	}
	if o.BatchSize != nil {
		out.BatchSize = o.BatchSize
	}
	if o.ClientOptimizer != nil {
		out.ClientOptimizer = o.ClientOptimizer
	}
	if o.DecayType != nil {
		out.DecayType = o.DecayType
	}
	if o.WeightDecay != nil {
		out.WeightDecay = o.WeightDecay
	}
	if o.WarmupSteps != nil {
		out.WarmupSteps = o.WarmupSteps
	}
	if o.Epochs != nil {
		out.Epochs = o.Epochs
	}
	if o.ImgSize != nil {
		out.ImgSize = o.ImgSize
	}
	if o.PretrainedDir != nil {
		out.PretrainedDir = o.PretrainedDir
	}
	if o.LocalRank != nil {
		out.LocalRank = o.LocalRank
	}
	if o.GlobalRank != nil {
		out.GlobalRank = o.GlobalRank
	}
	return out
}

func appendString(flags []Flag, name string, v *string) []Flag {
	if v == nil {
		return flags
	}
	return append(flags, Flag{Name: name, Value: *v})
}

func appendInt(flags []Flag, name string, v *int) []Flag {
	if v == nil {
		return flags
	}
	return append(flags, Flag{Name: name, Value: strconv.Itoa(*v)})
}
