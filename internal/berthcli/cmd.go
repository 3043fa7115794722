// Package berthcli is the entry point for the berth CLI.
package berthcli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/schmitthub/berth/internal/cmd/factory"
	"github.com/schmitthub/berth/internal/cmd/root"
	"github.com/schmitthub/berth/internal/cmdutil"
	"github.com/schmitthub/berth/internal/logger"
	"github.com/schmitthub/berth/pkg/engine"
)

// Build-time variables injected via ldflags
var (
	Version   = "dev"
	BuildDate = ""
)

// Main initializes the Factory, creates the root command, and executes it.
// It returns the process exit code.
func Main() int {
	// Ensure logs are flushed on exit
	defer logger.CloseFileWriter()

	f := factory.New(Version)
	defer f.CloseEngine()

	rootCmd := root.NewCmdRoot(f, Version, BuildDate)

	// Ctrl-C cancels the command context; teardown still runs because the
	// controller detaches it from cancellation.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd.SetContext(ctx)
	cmd, err := rootCmd.ExecuteC()
	if err != nil {
		return handleError(cmd, err)
	}
	return 0
}

// handleError maps command errors to exit codes and user-facing output.
// Cobra already printed "Error: ..." for plain errors.
func handleError(cmd *cobra.Command, err error) int {
	var exitErr *cmdutil.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}

	if errors.Is(err, cmdutil.SilentError) {
		return 1
	}

	var flagErr *cmdutil.FlagError
	if errors.As(err, &flagErr) {
		fmt.Fprint(os.Stderr, cmd.UsageString())
		return 2
	}

	var engErr *engine.EngineError
	if errors.As(err, &engErr) {
		fmt.Fprint(os.Stderr, engErr.FormatUserError())
		return 1
	}

	return 1
}
