package commands

import (
	"errors"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/dsmaint/pkg/config"
	"github.com/Sumatoshi-tech/dsmaint/pkg/jobs"
	"github.com/Sumatoshi-tech/dsmaint/pkg/observability"
)

// Job flag names.
const (
	flagMaxTitleLength = "max-title-length"
	flagFailOnInvalid  = "fail-on-invalid"
	flagMetricsFile    = "metrics-file"
)

// ErrInvalidRecords is returned by "jobs run --fail-on-invalid" when the job
// reported violations.
var ErrInvalidRecords = errors.New("job reported invalid records")

// NewJobsCommand creates the jobs command group.
func NewJobsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "List and run record validation jobs",
	}

	cmd.AddCommand(newJobsListCommand())
	cmd.AddCommand(newJobsRunCommand())

	return cmd
}

// defaultRegistry registers every built-in job configured from cfg.
func defaultRegistry(cfg *config.Config) (*jobs.Registry, error) {
	registry := jobs.NewRegistry()

	err := registry.Register(jobs.NewTitleLengthJob(
		jobs.WithMaxTitleLength(cfg.Jobs.TitleMaxLength),
	))
	if err != nil {
		return nil, err
	}

	return registry, nil
}

func newJobsListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered jobs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			registry, err := defaultRegistry(cfg)
			if err != nil {
				return err
			}

			renderJobs(cmd.OutOrStdout(), registry.Jobs())

			return nil
		},
	}
}

func renderJobs(w io.Writer, list []jobs.Job) {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.AppendHeader(table.Row{"Job", "Description"})

	for _, job := range list {
		tbl.AppendRow(table.Row{job.Name(), job.Description()})
	}

	fmt.Fprintln(w, tbl.Render())
}

type jobsRunCommand struct {
	store          storeFlags
	maxTitleLength int
	failOnInvalid  bool
	metricsFile    string
}

func newJobsRunCommand() *cobra.Command {
	rc := &jobsRunCommand{}

	cmd := &cobra.Command{
		Use:   "run <job>",
		Short: "Run a job against the record store",
		Long: `Run a job against the configured record store and print its result
lines: summary lines on stdout, diagnostics on stderr.

Examples:
  dsmaint jobs run exp-title-length --fixture explorations.yaml
  dsmaint jobs run exp-title-length --store-backend pebble --store-path ./data`,
		Args: cobra.ExactArgs(1),
		RunE: rc.run,
	}

	rc.store.register(cmd)
	cmd.Flags().IntVar(&rc.maxTitleLength, flagMaxTitleLength, 0,
		"Maximum title length in characters (overrides jobs.title_max_length)")
	cmd.Flags().BoolVar(&rc.failOnInvalid, flagFailOnInvalid, false,
		"Exit non-zero when the job reports invalid records")
	cmd.Flags().StringVar(&rc.metricsFile, flagMetricsFile, "",
		"Write run metrics in Prometheus text format to this file")

	return cmd
}

func (rc *jobsRunCommand) applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	if cmd.Flags().Changed(flagMaxTitleLength) {
		cfg.Jobs.TitleMaxLength = rc.maxTitleLength
	}

	if cmd.Flags().Changed(flagFailOnInvalid) {
		cfg.Jobs.FailOnInvalid = rc.failOnInvalid
	}

	if cmd.Flags().Changed(flagMetricsFile) {
		cfg.Telemetry.MetricsFile = rc.metricsFile
	}

	return rc.store.apply(cmd, cfg)
}

func (rc *jobsRunCommand) run(cmd *cobra.Command, args []string) (err error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	err = rc.applyFlags(cmd, cfg)
	if err != nil {
		return err
	}

	registry, err := defaultRegistry(cfg)
	if err != nil {
		return err
	}

	job, err := registry.Get(args[0])
	if err != nil {
		return err
	}

	sess, err := openSession(cmd, cfg, sessionOptions{
		mode:        observability.ModeBatch,
		metricsFile: cfg.Telemetry.MetricsFile,
	})
	if err != nil {
		return err
	}

	ctx := cmd.Context()

	defer func() {
		err = sess.close(ctx, err)
	}()

	store, err := openStore(ctx, cfg.Store, sess.logger)
	if err != nil {
		return err
	}

	defer func() {
		err = errors.Join(err, store.Close())
	}()

	metrics, err := observability.NewJobMetrics(sess.obs.Meter)
	if err != nil {
		return err
	}

	runner := jobs.NewRunner(
		jobs.WithTracer(sess.obs.Tracer),
		jobs.WithMetrics(metrics),
		jobs.WithLogger(sess.logger),
	)

	report, err := runner.Run(ctx, job, store)
	if err != nil {
		return err
	}

	printResults(cmd.OutOrStdout(), cmd.ErrOrStderr(), report.Results, sess.colored(color.FgRed))

	if cfg.Jobs.FailOnInvalid && report.Invalid > 0 {
		return fmt.Errorf("%w: %d of %d", ErrInvalidRecords, report.Invalid, report.Examined)
	}

	return nil
}

// printResults writes each result line to its stream, keeping their order.
func printResults(stdout, stderr io.Writer, results []jobs.Result, errColor *color.Color) {
	for _, result := range results {
		if result.Stream == jobs.Stderr {
			errColor.Fprintln(stderr, result.Text)

			continue
		}

		fmt.Fprintln(stdout, result.Text)
	}
}
