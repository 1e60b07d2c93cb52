package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"stegtext/internal/config"
	"stegtext/internal/corpus"
	"stegtext/internal/services"
)

func newCorpusCommand(ctx *commandContext) *cobra.Command {
	corpusCmd := &cobra.Command{
		Use:   "corpus",
		Short: "Manage the cover text corpus",
	}
	corpusCmd.AddCommand(newCorpusImportCommand(ctx))
	corpusCmd.AddCommand(newCorpusStatsCommand(ctx))
	return corpusCmd
}

func newCorpusImportCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "import [csv]",
		Short: "Import articles from a CSV export (defaults to corpus.csv_path)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			sess, err := ctx.openSession(cmd)
			if err != nil {
				return err
			}
			defer func() { err = errors.Join(err, sess.Close()) }()

			path := sess.cfg.Corpus.CSVPath
			if len(args) == 1 {
				if path, err = config.ExpandPath(args[0]); err != nil {
					return err
				}
			}
			if strings.TrimSpace(path) == "" {
				return services.Wrap(services.ErrConfiguration, "cli", "corpus import", "no CSV given and corpus.csv_path is empty", nil)
			}

			store, err := sess.corpusStore(cmd.Context())
			if err != nil {
				return err
			}
			summary, err := store.Import(cmd.Context(), path, ctx.newProgress(cmd, "importing"))
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, summary)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d of %d rows into %s (%d skipped)\n", summary.Inserted, summary.Rows, store.Path(), summary.Skipped)
			return nil
		},
	}
}

func newCorpusStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show articles and digits per category",
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			sess, err := ctx.openSession(cmd)
			if err != nil {
				return err
			}
			defer func() { err = errors.Join(err, sess.Close()) }()

			store, err := sess.corpusStore(cmd.Context())
			if err != nil {
				return err
			}
			stats, err := store.Stats(cmd.Context())
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				if stats == nil {
					stats = []corpus.CategoryStats{}
				}
				return writeJSON(cmd, stats)
			}
			out := cmd.OutOrStdout()
			if len(stats) == 0 {
				fmt.Fprintln(out, "Corpus is empty; run `stegtext corpus import` first")
				return nil
			}
			selected := corpus.CategoryKey(sess.cfg.Corpus.Category)
			rows := make([][]string, 0, len(stats))
			for _, s := range stats {
				marker := ""
				if corpus.CategoryKey(s.Category) == selected {
					marker = "*"
				}
				rows = append(rows, []string{
					marker,
					s.Category,
					strconv.Itoa(s.Articles),
					strconv.Itoa(s.Digits),
					strconv.Itoa(s.MaxDigits),
					formatFloat(s.AverageLength, 0),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"", "Category", "Articles", "Digits", "Max digits", "Avg length"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight},
			))
			return nil
		},
	}
}
