package commands

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/dsmaint/pkg/indexyaml"
	"github.com/Sumatoshi-tech/dsmaint/pkg/observability"
	"github.com/Sumatoshi-tech/dsmaint/pkg/safeconv"
)

// Index flag names.
const (
	flagBase      = "base"
	flagCandidate = "candidate"
	flagDryRun    = "dry-run"
)

// ErrInvalidIndexFile is returned by "index validate" for a rejected file.
var ErrInvalidIndexFile = errors.New("index file is invalid")

// NewIndexCommand creates the index command group.
func NewIndexCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Extend and validate index.yaml",
	}

	cmd.AddCommand(newIndexExtendCommand())
	cmd.AddCommand(newIndexValidateCommand())

	return cmd
}

type indexExtendCommand struct {
	base      string
	candidate string
	dryRun    bool
}

func newIndexExtendCommand() *cobra.Command {
	ec := &indexExtendCommand{}

	cmd := &cobra.Command{
		Use:   "extend",
		Short: "Append new emulator indexes to index.yaml",
		Long: `Append to the base index file every index of the candidate file that it
does not already define. Indexes that differ only in property order are the
same index. Nothing is written when there is nothing to add.

Examples:
  dsmaint index extend
  dsmaint index extend --base index.yaml --candidate ../cloud_datastore_emulator_cache/WEB-INF/index.yaml
  dsmaint index extend --dry-run`,
		Args: cobra.NoArgs,
		RunE: ec.run,
	}

	cmd.Flags().StringVar(&ec.base, flagBase, "", "Index file to extend (overrides index.base_path)")
	cmd.Flags().StringVar(&ec.candidate, flagCandidate, "",
		"Index file to take new indexes from (overrides index.candidate_path)")
	cmd.Flags().BoolVar(&ec.dryRun, flagDryRun, false, "Print the change instead of writing it")

	return cmd
}

func (ec *indexExtendCommand) run(cmd *cobra.Command, _ []string) (err error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if cmd.Flags().Changed(flagBase) {
		cfg.Index.BasePath = ec.base
	}

	if cmd.Flags().Changed(flagCandidate) {
		cfg.Index.CandidatePath = ec.candidate
	}

	sess, err := openSession(cmd, cfg, sessionOptions{mode: observability.ModeCLI})
	if err != nil {
		return err
	}

	ctx := cmd.Context()

	defer func() {
		err = sess.close(ctx, err)
	}()

	outcome, err := indexyaml.Extend(ctx, cfg.Index.BasePath, cfg.Index.CandidatePath,
		indexyaml.ExtendOptions{DryRun: ec.dryRun})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()

	if len(outcome.Added) == 0 {
		sess.logger.InfoContext(ctx, "index file up to date", "path", cfg.Index.BasePath)

		return nil
	}

	if ec.dryRun {
		fmt.Fprint(out, outcome.Diff)

		return nil
	}

	added := sess.colored(color.FgGreen)
	for _, ix := range outcome.Added {
		added.Fprintf(out, "+ %s\n", ix)
	}

	sess.logger.InfoContext(ctx, "index file updated",
		"path", cfg.Index.BasePath,
		"added", len(outcome.Added),
		"size", humanize.Bytes(safeconv.MustIntToUint64(outcome.Bytes)),
	)

	return nil
}

func newIndexValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <index.yaml>",
		Short: "Check that an index file is well formed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			noColor, _ := cmd.Flags().GetBool(flagNoColor)
			red := newColor(noColor, color.FgRed)

			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}

			doc, err := indexyaml.Parse(data)
			if err != nil {
				red.Fprintf(cmd.OutOrStdout(), "Index file is invalid (%s)\n", args[0])

				for problem := range strings.SplitSeq(err.Error(), "; ") {
					red.Fprintf(cmd.OutOrStdout(), "  - %s\n", problem)
				}

				return fmt.Errorf("%w: %s", ErrInvalidIndexFile, args[0])
			}

			newColor(noColor, color.FgGreen).Fprintf(cmd.OutOrStdout(), "Index file is valid (%s)\n", args[0])
			fmt.Fprintf(cmd.OutOrStdout(), "  Indexes: %d\n", doc.Len())

			return nil
		},
	}
}
