package invocation

import (
	"fmt"
	"strconv"
	"strings"
)

// Topology describes the process group of a distributed run. Values are kept
// as the user wrote them and forwarded verbatim to the launch module.
type Topology struct {
	NprocPerNode string
	Nnodes       string
	NodeRank     string
	MasterAddr   string
	MasterPort   string
}

// Validate checks that the process group is complete and consistent.
func (t Topology) Validate() error {
	fields := []struct {
		name  string
		value string
	}{
		{"nproc_per_node", t.NprocPerNode},
		{"nnodes", t.Nnodes},
		{"node_rank", t.NodeRank},
		{"master_addr", t.MasterAddr},
		{"master_port", t.MasterPort},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			return fmt.Errorf("%w: %s", ErrMissingArgument, f.name)
		}
	}

	nproc, err := parseCount("nproc_per_node", t.NprocPerNode)
	if err != nil {
		return err
	}
	if nproc == 0 {
		return fmt.Errorf("%w: nproc_per_node must be positive", ErrInvalidArgument)
	}
	nnodes, err := parseCount("nnodes", t.Nnodes)
	if err != nil {
		return err
	}
	if nnodes == 0 {
		return fmt.Errorf("%w: nnodes must be positive", ErrInvalidArgument)
	}
	rank, err := parseCount("node_rank", t.NodeRank)
	if err != nil {
		return err
	}
	if rank >= nnodes {
		return fmt.Errorf("%w: node_rank %d out of range for %d nodes", ErrInvalidArgument, rank, nnodes)
	}

	port, err := strconv.Atoi(t.MasterPort)
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("%w: master_port %q", ErrInvalidArgument, t.MasterPort)
	}
	return nil
}

// WorldSize is the total number of training processes, or 0 when the
// topology does not parse.
func (t Topology) WorldSize() int {
	nproc, err := strconv.Atoi(t.NprocPerNode)
	if err != nil {
		return 0
	}
	nnodes, err := strconv.Atoi(t.Nnodes)
	if err != nil {
		return 0
	}
	return nproc * nnodes
}

// Merge returns a copy of t with every non-empty field of o applied.
func (t Topology) Merge(o Topology) Topology {
	out := t
	if o.NprocPerNode != "" {
		out.NprocPerNode = o.NprocPerNode
	}
	if o.Nnodes != "" {
		out.Nnodes = o.Nnodes
	}
	if o.NodeRank != "" {
		out.NodeRank = o.NodeRank
	}
	if o.MasterAddr != "" {
		out.MasterAddr = o.MasterAddr
	}
	if o.MasterPort != "" {
		out.MasterPort = o.MasterPort
	}
	return out
}

func parseCount(name, v string) (int, error) {
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %s %q is not a non-negative integer", ErrInvalidArgument, name, v)
	}
	return n, nil
}
