package commands

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/dsmaint/pkg/observability"
	"github.com/Sumatoshi-tech/dsmaint/pkg/persist"
	"github.com/Sumatoshi-tech/dsmaint/pkg/record"
)

// NewRecordsCommand creates the records command group.
func NewRecordsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "records",
		Short: "Import, export and inspect record stores",
	}

	cmd.AddCommand(newRecordsImportCommand())
	cmd.AddCommand(newRecordsExportCommand())
	cmd.AddCommand(newRecordsStatsCommand())

	return cmd
}

// withStore loads config, applies store flags and opens a session and store
// for the duration of fn.
func withStore(
	cmd *cobra.Command,
	flags *storeFlags,
	persistent bool,
	fn func(ctx context.Context, sess *session, store record.Store) error,
) (err error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	err = flags.apply(cmd, cfg)
	if err != nil {
		return err
	}

	if persistent {
		err = requirePersistent(cfg.Store)
		if err != nil {
			return err
		}
	}

	sess, err := openSession(cmd, cfg, sessionOptions{mode: observability.ModeCLI})
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

	return fn(ctx, sess, store)
}

func newRecordsImportCommand() *cobra.Command {
	var flags storeFlags

	cmd := &cobra.Command{
		Use:   "import <fixture>",
		Short: "Load a fixture file into a persistent store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, &flags, true, func(ctx context.Context, sess *session, store record.Store) error {
				records, err := persist.LoadRecords(args[0])
				if err != nil {
					return err
				}

				for _, rec := range records {
					validateErr := rec.Validate()
					if validateErr != nil {
						return fmt.Errorf("fixture %s: %w", args[0], validateErr)
					}
				}

				putErr := store.Put(ctx, records...)
				if putErr != nil {
					return putErr
				}

				sess.logger.InfoContext(ctx, "records imported", "fixture", args[0], "records", len(records))
				fmt.Fprintf(cmd.OutOrStdout(), "imported %s records\n", humanize.Comma(int64(len(records))))

				return nil
			})
		},
	}

	flags.register(cmd)

	return cmd
}

func newRecordsExportCommand() *cobra.Command {
	var flags storeFlags

	cmd := &cobra.Command{
		Use:   "export <fixture>",
		Short: "Write every stored record to a fixture file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, &flags, false, func(ctx context.Context, sess *session, store record.Store) error {
				records, err := allRecords(ctx, store)
				if err != nil {
					return err
				}

				saveErr := persist.SaveRecords(args[0], records)
				if saveErr != nil {
					return saveErr
				}

				sess.logger.InfoContext(ctx, "records exported", "fixture", args[0], "records", len(records))
				fmt.Fprintf(cmd.OutOrStdout(), "exported %s records\n", humanize.Comma(int64(len(records))))

				return nil
			})
		},
	}

	flags.register(cmd)

	return cmd
}

func allRecords(ctx context.Context, store record.Store) ([]record.Record, error) {
	kinds, err := store.Kinds(ctx)
	if err != nil {
		return nil, err
	}

	var out []record.Record

	for _, kind := range kinds {
		records, listErr := store.List(ctx, kind)
		if listErr != nil {
			return nil, listErr
		}

		out = append(out, records...)
	}

	return out, nil
}

// kindStats summarizes the records of one kind.
type kindStats struct {
	kind        string
	records     int
	longest     int
	overLimit   int
	titleLength int
}

func collectStats(ctx context.Context, store record.Store, maxTitle int) ([]kindStats, error) {
	kinds, err := store.Kinds(ctx)
	if err != nil {
		return nil, err
	}

	stats := make([]kindStats, 0, len(kinds))

	for _, kind := range kinds {
		records, listErr := store.List(ctx, kind)
		if listErr != nil {
			return nil, listErr
		}

		ks := kindStats{kind: kind, records: len(records)}

		for _, rec := range records {
			length := rec.TitleLength()
			ks.titleLength += length
			ks.longest = max(ks.longest, length)

			if length > maxTitle {
				ks.overLimit++
			}
		}

		stats = append(stats, ks)
	}

	return stats, nil
}

func renderStats(w io.Writer, stats []kindStats, maxTitle int) {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.AppendHeader(table.Row{"Kind", "Records", "Longest title", "Mean title", fmt.Sprintf("Over %d", maxTitle)})

	total := 0

	for _, ks := range stats {
		mean := 0.0
		if ks.records > 0 {
			mean = float64(ks.titleLength) / float64(ks.records)
		}

		tbl.AppendRow(table.Row{
			ks.kind,
			humanize.Comma(int64(ks.records)),
			ks.longest,
			fmt.Sprintf("%.1f", mean),
			humanize.Comma(int64(ks.overLimit)),
		})

		total += ks.records
	}

	tbl.AppendFooter(table.Row{fmt.Sprintf("Total: %s records", humanize.Comma(int64(total)))})

	fmt.Fprintln(w, tbl.Render())
}

func newRecordsStatsCommand() *cobra.Command {
	var flags storeFlags

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Summarize stored records per kind",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withStore(cmd, &flags, false, func(ctx context.Context, sess *session, store record.Store) error {
				stats, err := collectStats(ctx, store, sess.cfg.Jobs.TitleMaxLength)
				if err != nil {
					return err
				}

				renderStats(cmd.OutOrStdout(), stats, sess.cfg.Jobs.TitleMaxLength)

				return nil
			})
		},
	}

	flags.register(cmd)

	return cmd
}
