// Package commands implements CLI command handlers for dsmaint.
package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/dsmaint/pkg/config"
	"github.com/Sumatoshi-tech/dsmaint/pkg/observability"
	"github.com/Sumatoshi-tech/dsmaint/pkg/version"
)

// Global flag names.
const (
	flagConfig  = "config"
	flagVerbose = "verbose"
	flagQuiet   = "quiet"
	flagNoColor = "no-color"
)

// NewRootCommand builds the dsmaint command tree.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "dsmaint",
		Short: "Datastore maintenance toolkit",
		Long: `dsmaint runs validation jobs over stored records and keeps
datastore index definitions in sync with the emulator.

Commands:
  jobs      List and run record validation jobs
  records   Import, export and inspect record stores
  index     Extend and validate index.yaml`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.String(flagConfig, "", "config file (default: .dsmaint.yaml in ., ./config or /etc/dsmaint)")
	flags.BoolP(flagVerbose, "v", false, "verbose output")
	flags.BoolP(flagQuiet, "q", false, "suppress output")
	flags.Bool(flagNoColor, false, "disable colored output")

	rootCmd.AddCommand(NewJobsCommand())
	rootCmd.AddCommand(NewRecordsCommand())
	rootCmd.AddCommand(NewIndexCommand())

	return rootCmd
}

// session bundles what a command needs once flags are parsed.
type session struct {
	cfg     *config.Config
	obs     observability.Providers
	logger  *slog.Logger
	noColor bool
}

// sessionOptions carry per-command telemetry settings.
type sessionOptions struct {
	mode        observability.AppMode
	metricsFile string
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, err := cmd.Flags().GetString(flagConfig)
	if err != nil {
		return nil, fmt.Errorf("read --%s: %w", flagConfig, err)
	}

	return config.LoadConfig(path)
}

func openSession(cmd *cobra.Command, cfg *config.Config, opts sessionOptions) (*session, error) {
	verbose, _ := cmd.Flags().GetBool(flagVerbose)
	quiet, _ := cmd.Flags().GetBool(flagQuiet)
	noColor, _ := cmd.Flags().GetBool(flagNoColor)

	obsCfg := observability.DefaultConfig()
	obsCfg.ServiceVersion = version.Version
	obsCfg.Environment = cfg.Telemetry.Environment
	obsCfg.Mode = opts.mode
	obsCfg.OTLPEndpoint = cfg.Telemetry.OTLPEndpoint
	obsCfg.OTLPInsecure = cfg.Telemetry.OTLPInsecure
	obsCfg.MetricsFile = opts.metricsFile
	obsCfg.LogLevel = observability.ParseLevel(strings.ToLower(cfg.Logging.Level))
	obsCfg.LogJSON = cfg.Logging.JSON
	obsCfg.LogOutput = cmd.ErrOrStderr()

	switch {
	case quiet:
		obsCfg.LogLevel = slog.LevelError
	case verbose:
		obsCfg.LogLevel = slog.LevelDebug
	}

	providers, err := observability.Init(obsCfg)
	if err != nil {
		return nil, fmt.Errorf("init observability: %w", err)
	}

	return &session{
		cfg:     cfg,
		obs:     providers,
		logger:  providers.Logger,
		noColor: noColor,
	}, nil
}

// close flushes telemetry and joins the flush error with runErr.
func (s *session) close(ctx context.Context, runErr error) error {
	shutdownErr := s.obs.Shutdown(context.WithoutCancel(ctx))
	if shutdownErr != nil {
		shutdownErr = fmt.Errorf("shutdown observability: %w", shutdownErr)
	}

	return errors.Join(runErr, shutdownErr)
}

func (s *session) colored(attrs ...color.Attribute) *color.Color {
	return newColor(s.noColor, attrs...)
}

func newColor(noColor bool, attrs ...color.Attribute) *color.Color {
	c := color.New(attrs...)
	if noColor {
		c.DisableColor()
	}

	return c
}
