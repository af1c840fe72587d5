package config

import (
	"time"

	"github.com/specialistvlad/vitlaunch/internal/invocation"
)

// DefaultReportTimeout bounds how long the reporter waits for its first
// connection.
const DefaultReportTimeout = 10 * time.Second

// Profile is the merged content of one or more run profile files.
type Profile struct {
	Launcher    invocation.Launcher
	Training    invocation.Hyperparameters
	Distributed *invocation.Topology
	Environment map[string]string
	Report      *Report
	Artifacts   Artifacts
}

// Report configures the live run reporter.
type Report struct {
	URL                string
	Namespace          string
	Timeout            time.Duration
	InsecureSkipVerify bool
}

// Artifacts configures what happens to the run output after the run.
type Artifacts struct {
	LogFile   string
	UploadURL string
}

// NewProfile returns an empty profile ready to be merged into.
func NewProfile() *Profile {
	return &Profile{Environment: make(map[string]string)}
}

// Merge applies every value set in o on top of p.
func (p *Profile) Merge(o *Profile) {
	if o == nil {
		return
	}
	p.Launcher = p.Launcher.Merge(o.Launcher)
	p.Training = p.Training.Merge(o.Training)
	if o.Distributed != nil {
		var base invocation.Topology
		if p.Distributed != nil {
			base = *p.Distributed
		}
		merged := base.Merge(*o.Distributed)
		p.Distributed = &merged
	}
	if p.Environment == nil {
		p.Environment = make(map[string]string, len(o.Environment))
	}
	for k, v := range o.Environment {
		p.Environment[k] = v
	}
	if o.Report != nil {
		r := *o.Report
		p.Report = &r
	}
	if o.Artifacts.LogFile != "" {
		p.Artifacts.LogFile = o.Artifacts.LogFile
	}
	if o.Artifacts.UploadURL != "" {
		p.Artifacts.UploadURL = o.Artifacts.UploadURL
	}
}
