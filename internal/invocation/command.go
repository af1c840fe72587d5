package invocation

import (
	"fmt"

	"github.com/alessio/shellescape"
)

// Defaults for the entry point and its launcher.
const (
	DefaultPython       = "python3"
	DefaultEntryPoint   = "main_vit_fine_tune.py"
	DefaultLaunchModule = "torch.distributed.launch"
)

// Flag is a single "--name value" pair passed to the entry point.
type Flag struct {
	Name  string
	Value string
}

// Launcher describes how the entry point is started.
type Launcher struct {
	Python       string
	EntryPoint   string
	Workdir      string
	LaunchModule string
}

// WithDefaults fills every empty field with its default.
func (l Launcher) WithDefaults() Launcher {
	if l.Python == "" {
		l.Python = DefaultPython
	}
	if l.EntryPoint == "" {
		l.EntryPoint = DefaultEntryPoint
	}
	if l.LaunchModule == "" {
		l.LaunchModule = DefaultLaunchModule
	}
	return l
}

// Merge returns a copy of l with every non-empty field of o applied.
func (l Launcher) Merge(o Launcher) Launcher {
	if o.Python != "" {
		l.Python = o.Python
	}
	if o.EntryPoint != "" {
		l.EntryPoint = o.EntryPoint
	}
	if o.Workdir != "" {
		l.Workdir = o.Workdir
	}
	if o.LaunchModule != "" {
		l.LaunchModule = o.LaunchModule
	}
	return l
}

// Command is a fully resolved process invocation.
type Command struct {
	Path string
	Args []string
	Dir  string
	Env  []string
}

// Build resolves the command line for a run. A nil topology selects the
// local variant; otherwise the entry point is started through the
// distributed launch module and receives --is_distributed 1.
func Build(l Launcher, topology *Topology, hp Hyperparameters) (*Command, error) {
	l = l.WithDefaults()

	if err := hp.Validate(); err != nil {
		return nil, err
	}

	var args []string
	if topology != nil {
		if err := topology.Validate(); err != nil {
			return nil, err
		}
		// The launch module passes each worker its own --local_rank.
		if hp.LocalRank != nil {
			return nil, fmt.Errorf("%w: local_rank is assigned by %s in distributed runs", ErrInvalidArgument, l.LaunchModule)
		}
		if hp.GlobalRank != nil {
			return nil, fmt.Errorf("%w: global_rank is assigned by %s in distributed runs", ErrInvalidArgument, l.LaunchModule)
		}
		args = append(args,
			"-m", l.LaunchModule,
			"--nproc_per_node="+topology.NprocPerNode,
			"--nnodes="+topology.Nnodes,
			"--node_rank="+topology.NodeRank,
			"--master_addr="+topology.MasterAddr,
			"--master_port="+topology.MasterPort,
		)
	}

	args = append(args, l.EntryPoint)
	if topology != nil {
		args = append(args, "--is_distributed", "1")
	}
	for _, f := range hp.Flags() {
		args = append(args, "--"+f.Name, f.Value)
	}

	return &Command{
		Path: l.Python,
		Args: args,
		Dir:  l.Workdir,
	}, nil
}

// Argv returns the path followed by the arguments.
func (c *Command) Argv() []string {
	return append([]string{c.Path}, c.Args...)
}

// String renders the command as a single shell line that can be pasted into
// a POSIX shell. A working directory is rendered as a leading "cd DIR &&".
func (c *Command) String() string {
	line := shellescape.QuoteCommand(c.Argv())
	if c.Dir != "" {
		line = fmt.Sprintf("cd %s && %s", shellescape.Quote(c.Dir), line)
	}
	return line
}
