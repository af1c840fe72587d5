package launcher

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMergeEnv(t *testing.T) {
	t.Parallel()

	base := []string{"PATH=/usr/bin", "NCCL_DEBUG=WARN", "HOME=/root"}
	got := MergeEnv(base,
		map[string]string{"NCCL_DEBUG": "INFO", "WANDB_MODE": "offline"},
		map[string]string{"WANDB_MODE": "disabled", "CUDA_VISIBLE_DEVICES": "0,1"},
	)

	require.Equal(t, []string{
		"PATH=/usr/bin",
		"NCCL_DEBUG=INFO",
		"HOME=/root",
		"CUDA_VISIBLE_DEVICES=0,1",
		"WANDB_MODE=disabled",
	}, got)
}

func TestMergeEnv_NoOverlays(t *testing.T) {
	t.Parallel()

	require.Equal(t, []string{"A=1"}, MergeEnv([]string{"A=1"}))
}

func TestSetDefault(t *testing.T) {
	t.Parallel()

	env := []string{"NCCL_DEBUG=WARN"}
	require.Equal(t, env, SetDefault(env, "NCCL_DEBUG", "INFO"))
	require.Equal(t, []string{"NCCL_DEBUG=WARN", "NCCL_SOCKET_IFNAME=ib0"}, SetDefault(env, "NCCL_SOCKET_IFNAME", "ib0"))
}

func TestLoadEnvFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), ".env")
	content := "# cluster settings\nNCCL_SOCKET_IFNAME=ib0\nWANDB_PROJECT=\"fed_transformer\"\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	env, err := LoadEnvFile(path)
	require.NoError(t, err)
	require.Equal(t, map[string]string{
		"NCCL_SOCKET_IFNAME": "ib0",
		"WANDB_PROJECT":      "fed_transformer",
	}, env)

	_, err = LoadEnvFile(filepath.Join(t.TempDir(), "missing.env"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to read env file")
}
