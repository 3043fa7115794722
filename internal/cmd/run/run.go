// Package run implements "berth run": start a predefined service, hand its
// address to a child command (or wait for a signal), and tear the service
// down afterwards.
package run

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/docker/go-units"
	"github.com/spf13/cobra"

	"github.com/schmitthub/berth/internal/cmdutil"
	"github.com/schmitthub/berth/internal/logger"
	"github.com/schmitthub/berth/pkg/berth"
	"github.com/schmitthub/berth/pkg/predefined"
)

// Options holds the flag values and dependencies for the run command.
type Options struct {
	Factory *cmdutil.Factory

	ServiceName  string
	Image        string
	Policy       string
	Timeout      time.Duration
	StartTries   int
	SettingsFile string
	Args         []string
}

// NewCmdRun creates the "run" subcommand.
func NewCmdRun(f *cmdutil.Factory) *cobra.Command {
	opts := &Options{Factory: f}

	cmd := &cobra.Command{
		Use:   "run <service> [-- command [args...]]",
		Short: "Start a service container and run a command against it",
		Long: `Start a predefined service in a container, wait until it is ready, then
run the given command with the service's address in its environment:

  BERTH_URL       full connection URL
  BERTH_HOST      host address
  BERTH_PORT      mapped host port
  BERTH_USER      service credential user (if any)
  BERTH_PASSWORD  service credential password (if any)

The service is torn down when the command exits. Without a command, the
service stays up until interrupted (Ctrl-C).`,
		Example: `  berth run couchdb -- pytest tests/
  berth run postgres --timeout 2m -- go test ./...
  berth run redis`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.ServiceName = args[0]
			if dash := cmd.ArgsLenAtDash(); dash >= 0 {
				opts.Args = args[dash:]
			} else if len(args) > 1 {
				return cmdutil.FlagErrorf("unexpected arguments %v; separate the command with --", args[1:])
			}
			return runRun(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.Image, "image", "", "Override the service's image reference")
	cmdutil.StringEnumFlag(cmd, &opts.Policy, "policy", "", "",
		[]string{"pull-if-missing", "always-pull", "local-only"}, "Image policy")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", 0, "Startup deadline per attempt")
	cmd.Flags().IntVar(&opts.StartTries, "tries", 0, "Retry failed startups this many times")
	cmd.Flags().StringVar(&opts.SettingsFile, "settings-file", "", "Write the started service's connection settings to this YAML file")

	return cmd
}

func runRun(ctx context.Context, opts *Options) error {
	def, ok := predefined.Lookup(opts.ServiceName)
	if !ok {
		return cmdutil.FlagErrorf("unknown service %q; see 'berth list'", opts.ServiceName)
	}

	cfg, err := opts.Factory.Config()
	if err != nil {
		return err
	}
	cfg.Apply(&def)

	if opts.Image != "" {
		def.Image = opts.Image
	}
	if opts.Policy != "" {
		policy, err := berth.ParseImagePolicy(opts.Policy)
		if err != nil {
			return cmdutil.FlagErrorf("%v", err)
		}
		def.ImagePolicy = policy
	}
	if opts.Timeout > 0 {
		def.Timeout = opts.Timeout
	}
	if opts.StartTries > 0 {
		def.StartTries = opts.StartTries
	}

	eng, err := opts.Factory.Engine(ctx)
	if err != nil {
		return err
	}

	logger.SetService(def.Name)
	defer logger.ClearService()

	ctrl := berth.New(eng, def, berth.WithLogger(logger.Log))

	started := time.Now()
	return ctrl.WithService(ctx, func(ctx context.Context, svc *berth.Service) error {
		logger.Info().
			Str("url", svc.URL()).
			Str("elapsed", units.HumanDuration(time.Since(started))).
			Msg("service ready")

		if opts.SettingsFile != "" {
			if err := predefined.WriteSettings(svc, opts.SettingsFile); err != nil {
				return err
			}
		}

		if len(opts.Args) == 0 {
			return waitForSignal(ctx, svc)
		}
		return runChild(ctx, opts.Args, svc)
	})
}

// runChild executes the user's command with the service address exported in
// its environment, streaming its output through.
func runChild(ctx context.Context, args []string, svc *berth.Service) error {
	child := exec.CommandContext(ctx, args[0], args[1:]...)
	child.Stdin = os.Stdin
	child.Stdout = os.Stdout
	child.Stderr = os.Stderr
	child.Env = append(os.Environ(), serviceEnv(svc)...)

	err := child.Run()
	if err == nil {
		return nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return &cmdutil.ExitError{Code: exitErr.ExitCode()}
	}
	return fmt.Errorf("running %s: %w", args[0], err)
}

// serviceEnv renders the service's address as BERTH_* environment variables.
func serviceEnv(svc *berth.Service) []string {
	env := []string{
		"BERTH_URL=" + svc.URL(),
		"BERTH_HOST=" + svc.Host,
		"BERTH_PORT=" + strconv.Itoa(svc.Port),
	}
	if svc.Credentials != nil {
		env = append(env,
			"BERTH_USER="+svc.Credentials.User,
			"BERTH_PASSWORD="+svc.Credentials.Password,
		)
	}
	return env
}

// waitForSignal keeps the service up until the user interrupts.
func waitForSignal(ctx context.Context, svc *berth.Service) error {
	logger.Info().Str("url", svc.URL()).Msg("service running, press Ctrl-C to stop")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case <-ctx.Done():
		return ctx.Err()
	case sig := <-sigCh:
		logger.Info().Str("signal", sig.String()).Msg("stopping service")
		return nil
	}
}
