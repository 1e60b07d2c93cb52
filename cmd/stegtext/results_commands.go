package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"stegtext/internal/results"
	"stegtext/internal/textutil"
)

func newResultsCommand(ctx *commandContext) *cobra.Command {
	resultsCmd := &cobra.Command{
		Use:   "results",
		Short: "Inspect archived comparison results",
	}
	resultsCmd.AddCommand(newResultsListCommand(ctx))
	return resultsCmd
}

func newResultsListCommand(ctx *commandContext) *cobra.Command {
	var opts results.ListOptions

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the most recent result rows",
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			sess, err := ctx.openSession(cmd)
			if err != nil {
				return err
			}
			defer func() { err = errors.Join(err, sess.Close()) }()

			store, err := sess.resultsStore(cmd.Context())
			if err != nil {
				return err
			}
			records, err := store.List(cmd.Context(), opts)
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				if records == nil {
					records = []results.Record{}
				}
				return writeJSON(cmd, records)
			}
			out := cmd.OutOrStdout()
			if len(records) == 0 {
				fmt.Fprintln(out, "No results recorded yet")
				return nil
			}
			rows := make([][]string, 0, len(records))
			for _, rec := range records {
				status := "ok"
				if rec.ErrorKind != "" {
					status = rec.ErrorKind
				}
				rows = append(rows, []string{
					rec.CreatedAt.Local().Format("2006-01-02 15:04"),
					textutil.Snippet(rec.BatchID, 8),
					rec.Experiment,
					rec.Method,
					rec.Message,
					rec.Model,
					formatOptional(rec.Temperature, 2),
					strconv.Itoa(rec.Attempts),
					formatOptional(rec.Perplexity, 2),
					status,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Created", "Batch", "Experiment", "Method", "Message", "Model", "Temp", "Attempts", "PPL", "Status"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.BatchID, "batch", "", "Only show rows of this batch")
	cmd.Flags().StringVar(&opts.Experiment, "experiment", "", "Only show rows of this experiment (models or methods)")
	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 20, "Maximum number of rows")
	return cmd
}
