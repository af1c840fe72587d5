package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/specialistvlad/vitlaunch/internal/app"
	"github.com/specialistvlad/vitlaunch/internal/cli"
	"github.com/specialistvlad/vitlaunch/internal/hcl"
	"github.com/specialistvlad/vitlaunch/internal/launcher"
)

// main is the entrypoint for the vitlaunch application.
func main() {
	// Use a minimal logger until the full one is configured.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := exitCode(run(ctx, os.Stdout, os.Stderr, os.Args[1:]), os.Stderr)
	stop()
	os.Exit(code)
}

// run encapsulates the main application logic for easier testing and error handling.
func run(ctx context.Context, outW, errW io.Writer, args []string) error {
	appConfig, shouldExit, err := cli.Parse(args, errW)
	if err != nil {
		return err
	}
	if shouldExit {
		return nil
	}

	launchApp := app.NewApp(outW, errW, appConfig, hcl.NewLoader())
	return launchApp.Run(ctx)
}

// exitCode maps an error returned by run to the process exit code. The
// training process's own status is passed through untouched.
func exitCode(err error, errW io.Writer) int {
	if err == nil {
		return 0
	}

	var exitErr *cli.ExitError
	if errors.As(err, &exitErr) {
		fmt.Fprintln(errW, exitErr.Message)
		return exitErr.Code
	}

	var statusErr *launcher.ExitStatusError
	if errors.As(err, &statusErr) {
		return statusErr.Code
	}

	fmt.Fprintln(errW, err)
	return 1
}
