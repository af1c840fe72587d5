package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/specialistvlad/vitlaunch/internal/cli"
	"github.com/specialistvlad/vitlaunch/internal/launcher"
)

func TestRun_ShouldExit(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	// The "-h" (help) flag should cause cli.Parse to return `shouldExit=true`.
	args := []string{"-h"}
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}

	// --- Act ---
	err := run(context.Background(), out, errOut, args)

	// --- Assert ---
	require.NoError(t, err, "run() should return a nil error when shouldExit is true")
	require.Contains(t, errOut.String(), "Usage:", "Expected help text to be printed to the error stream")
	require.Empty(t, out.String())
}

func TestRun_ParseError(t *testing.T) {
	t.Parallel()

	args := []string{"--this-is-not-a-valid-flag"}
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}

	err := run(context.Background(), out, errOut, args)

	require.Error(t, err, "run() should return an error when argument parsing fails")
	require.Contains(t, err.Error(), "flag provided but not defined: -this-is-not-a-valid-flag")
	require.Equal(t, 2, exitCode(err, errOut))
}

func TestRun_DryRun(t *testing.T) {
	t.Parallel()

	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	err := run(context.Background(), out, errOut, []string{"-dry-run", "cifar10", "./../../../data/cifar10", "0.03"})

	require.NoError(t, err)
	require.Equal(t,
		"python3 main_vit_fine_tune.py --dataset cifar10 --data_dir ./../../../data/cifar10 --lr 0.03\n",
		out.String(),
	)
}

func TestRun_ProfileSyntaxError(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	invalidHCL := `
		training {
			dataset = "cifar10"
		// Missing closing brace here
	`
	filePath := filepath.Join(t.TempDir(), "vit.hcl")
	require.NoError(t, os.WriteFile(filePath, []byte(invalidHCL), 0o600), "failed to set up test file")
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}

	// --- Act ---
	err := run(context.Background(), out, errOut, []string{"-config", filePath})

	// --- Assert ---
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to parse")
	require.Equal(t, 1, exitCode(err, errOut))
}

func TestRun_PropagatesChildStatus(t *testing.T) {
	t.Parallel()

	script := filepath.Join(t.TempDir(), "train.sh")
	require.NoError(t, os.WriteFile(script, []byte("echo \"$@\"\nexit 7\n"), 0o600))
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}

	err := run(context.Background(), out, errOut, []string{"-python", "sh", "-entry", script, "cifar10", "d", "0.1"})

	require.Equal(t, 7, exitCode(err, errOut))
	require.Equal(t, "--dataset cifar10 --data_dir d --lr 0.1\n", out.String())
}

func TestExitCode(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		err      error
		want     int
		wantText string
	}{
		{name: "nil", err: nil, want: 0},
		{name: "usage", err: &cli.ExitError{Code: 2, Message: "bad usage"}, want: 2, wantText: "bad usage"},
		{name: "child status", err: &launcher.ExitStatusError{Code: 143}, want: 143},
		{name: "wrapped child status", err: fmt.Errorf("run: %w", &launcher.ExitStatusError{Code: 9}), want: 9},
		{name: "other", err: errors.New("boom"), want: 1, wantText: "boom"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			var errOut bytes.Buffer
			require.Equal(t, tc.want, exitCode(tc.err, &errOut))
			require.Equal(t, tc.wantText, strings.TrimSpace(errOut.String()))
		})
	}
}
