// Package root assembles the berth command tree.
package root

import (
	"github.com/spf13/cobra"

	"github.com/schmitthub/berth/internal/cmd/list"
	"github.com/schmitthub/berth/internal/cmd/run"
	versioncmd "github.com/schmitthub/berth/internal/cmd/version"
	"github.com/schmitthub/berth/internal/cmdutil"
	internalconfig "github.com/schmitthub/berth/internal/config"
	"github.com/schmitthub/berth/internal/logger"
)

// NewCmdRoot creates the root command for the berth CLI.
func NewCmdRoot(f *cmdutil.Factory, version, buildDate string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "berth",
		Short: "Run short-lived service containers for test suites",
		Long: `Berth provisions throwaway service containers (databases, caches,
object stores) on ephemeral ports, waits until they are actually ready,
and tears them down when you are done.

Quick start:
  berth list                       # Show the predefined services
  berth run couchdb -- pytest      # Run tests against a fresh CouchDB
  berth run postgres               # Keep a Postgres up until Ctrl-C`,
		SilenceUsage: true,
		Annotations: map[string]string{
			"versionInfo": versioncmd.Format(version, buildDate),
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			initializeLogger(f)

			logger.Debug().
				Str("version", f.Version).
				Bool("debug", f.Debug).
				Msg("berth starting")

			return nil
		},
		Version: f.Version,
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&f.Debug, "debug", "D", false, "Enable debug logging")

	// Version template
	cmd.SetVersionTemplate(versioncmd.Format(version, buildDate) + "\n")

	cmd.AddCommand(run.NewCmdRun(f))
	cmd.AddCommand(list.NewCmdList(f))
	cmd.AddCommand(versioncmd.NewCmdVersion(version, buildDate))

	return cmd
}

// initializeLogger sets up the logger with file logging if possible.
// Falls back to console-only logging on any errors.
func initializeLogger(f *cmdutil.Factory) {
	cfg, err := f.Config()
	if err != nil {
		logger.Init(f.Debug)
		logger.Warn().Err(err).Msg("file logging unavailable: failed to load config")
		return
	}

	logsDir, err := internalconfig.LogsDir()
	if err != nil {
		logger.Init(f.Debug)
		logger.Warn().Err(err).Msg("file logging unavailable: failed to get logs directory")
		return
	}

	logCfg := &logger.LoggingConfig{
		FileEnabled: cfg.Logging.FileEnabled,
		MaxSizeMB:   cfg.Logging.MaxSizeMB,
		MaxAgeDays:  cfg.Logging.MaxAgeDays,
		MaxBackups:  cfg.Logging.MaxBackups,
	}

	if err := logger.InitWithFile(f.Debug, logsDir, logCfg); err != nil {
		logger.Init(f.Debug)
		logger.Warn().Err(err).Msg("file logging unavailable: failed to initialize file writer")
	}
}
