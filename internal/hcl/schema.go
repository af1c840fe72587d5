package hcl

import "github.com/hashicorp/hcl/v2"

// fileRoot decodes all top-level blocks a profile file may contain. Every
// block type may appear more than once; later blocks win.
type fileRoot struct {
	Launchers    []*launcherBlock    `hcl:"launcher,block"`
	Trainings    []*trainingBlock    `hcl:"training,block"`
	Distributed  []*distributedBlock `hcl:"distributed,block"`
	Environments []*environmentBlock `hcl:"environment,block"`
	Reports      []*reportBlock      `hcl:"report,block"`
	Artifacts    []*artifactsBlock   `hcl:"artifacts,block"`
}

type launcherBlock struct {
	Python       string `hcl:"python,optional"`
	EntryPoint   string `hcl:"entry_point,optional"`
	Workdir      string `hcl:"workdir,optional"`
	LaunchModule string `hcl:"launch_module,optional"`
}

// trainingBlock keeps lr as an expression so a number literal can be
// rejected before HCL normalizes its spelling.
type trainingBlock struct {
	Dataset      string         `hcl:"dataset,optional"`
	DataDir      string         `hcl:"data_dir,optional"`
	LearningRate hcl.Expression `hcl:"lr,optional"`

	Model           *string  `hcl:"model,optional"`
	BatchSize       *int     `hcl:"batch_size,optional"`
	ClientOptimizer *string  `hcl:"client_optimizer,optional"`
	DecayType       *string  `hcl:"decay_type,optional"`
	WeightDecay     *float64 `hcl:"wd,optional"`
	WarmupSteps     *int     `hcl:"warmup_steps,optional"`
	Epochs          *int     `hcl:"epochs,optional"`
	ImgSize         *int     `hcl:"img_size,optional"`
	PretrainedDir   *string  `hcl:"pretrained_dir,optional"`
	LocalRank       *int     `hcl:"local_rank,optional"`
	GlobalRank      *int     `hcl:"global_rank,optional"`
}

// distributedBlock keeps every value as a string; HCL converts numbers for
// us and the values are forwarded verbatim.
type distributedBlock struct {
	NprocPerNode string `hcl:"nproc_per_node,optional"`
	Nnodes       string `hcl:"nnodes,optional"`
	NodeRank     string `hcl:"node_rank,optional"`
	MasterAddr   string `hcl:"master_addr,optional"`
	MasterPort   string `hcl:"master_port,optional"`
}

// environmentBlock holds free-form KEY = value attributes.
type environmentBlock struct {
	Remain hcl.Body `hcl:",remain"`
}

type reportBlock struct {
	URL                string `hcl:"url"`
	Namespace          string `hcl:"namespace,optional"`
	Timeout            string `hcl:"timeout,optional"`
	InsecureSkipVerify bool   `hcl:"insecure_skip_verify,optional"`
}

type artifactsBlock struct {
	LogFile   string `hcl:"log_file,optional"`
	UploadURL string `hcl:"upload_url,optional"`
}
