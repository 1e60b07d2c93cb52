package main

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"stegtext/internal/harness"
)

func newCompareCommand(ctx *commandContext) *cobra.Command {
	compareCmd := &cobra.Command{
		Use:   "compare",
		Short: "Run comparison experiments",
	}
	compareCmd.AddCommand(newCompareModelsCommand(ctx))
	compareCmd.AddCommand(newCompareMethodsCommand(ctx))
	return compareCmd
}

func (s *session) newHarness(cmd *cobra.Command, ctx *commandContext, deps harness.Deps, description string) (*harness.Harness, error) {
	if s.cfg.Compare.Persist {
		store, err := s.resultsStore(cmd.Context())
		if err != nil {
			return nil, err
		}
		deps.Sink = store
	}
	deps.Metrics = s.metrics
	deps.Logger = s.logger
	return harness.New(deps, harness.Options{
		Parallelism:  s.cfg.Compare.Parallelism,
		ScoreTimeout: s.cfg.PerplexityTimeout(),
		Progress:     ctx.newProgress(cmd, description),
	}), nil
}

func newCompareModelsCommand(ctx *commandContext) *cobra.Command {
	var models []string
	var temperatures []float64
	var runs int

	cmd := &cobra.Command{
		Use:   "models <secret>",
		Short: "Compare models and temperatures for the generative strategy",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			sess, err := ctx.openSession(cmd)
			if err != nil {
				return err
			}
			defer func() { err = errors.Join(err, sess.Close()) }()

			generative, err := sess.generativeStrategy()
			if err != nil {
				return err
			}
			scorer, err := sess.scorer(cmd.Context())
			if err != nil {
				return err
			}
			h, err := sess.newHarness(cmd, ctx, harness.Deps{Generative: generative, Scorer: scorer}, "generating")
			if err != nil {
				return err
			}

			grid := harness.ModelGrid{
				Message:      args[0],
				Models:       sess.cfg.Compare.Models,
				Temperatures: sess.cfg.Compare.Temperatures,
				Runs:         sess.cfg.Compare.Runs,
				MaxAttempts:  sess.cfg.Generation.MaxAttempts,
				MaxTokens:    sess.cfg.LLM.MaxTokens,
			}
			if cmd.Flags().Changed("model") {
				grid.Models = models
			}
			if cmd.Flags().Changed("temperature") {
				grid.Temperatures = temperatures
			}
			if cmd.Flags().Changed("runs") {
				grid.Runs = runs
			}

			report, err := h.CompareModels(cmd.Context(), grid)
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, report)
			}
			rows := make([][]string, 0, len(report.Cells))
			for _, cell := range report.Cells {
				rows = append(rows, []string{
					cell.Model,
					formatFloat(cell.Temperature, 2),
					fmt.Sprintf("%d/%d", len(cell.Runs)-cell.Exhausted, len(cell.Runs)),
					formatFloat(cell.Attempts.Mean, 1),
					formatFloat(cell.Perplexity.Mean, 2),
					formatFloat(cell.Perplexity.Median, 2),
					formatFloat(cell.Perplexity.StdDev, 2),
					formatPercent(cell.Capacity.Mean),
				})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable(
				[]string{"Model", "Temp", "Valid", "Attempts", "PPL mean", "PPL median", "PPL stddev", "Capacity"},
				rows,
				[]columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight, alignRight, alignRight},
			))
			fmt.Fprintf(out, "Batch %s finished in %s\n", report.BatchID, report.Elapsed.Round(100*time.Millisecond))
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&models, "model", nil, "Models to compare (defaults to compare.models)")
	cmd.Flags().Float64SliceVar(&temperatures, "temperature", nil, "Temperatures to compare (defaults to compare.temperatures)")
	cmd.Flags().IntVar(&runs, "runs", 0, "Runs per model and temperature (defaults to compare.runs)")
	return cmd
}

func newCompareMethodsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "methods [secret...]",
		Short: "Compare the generative and corpus strategies (defaults to compare.messages)",
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			sess, err := ctx.openSession(cmd)
			if err != nil {
				return err
			}
			defer func() { err = errors.Join(err, sess.Close()) }()

			generative, err := sess.generativeStrategy()
			if err != nil {
				return err
			}
			scorer, err := sess.scorer(cmd.Context())
			if err != nil {
				return err
			}
			corpusStrategy, err := sess.corpusStrategy(cmd.Context(), scorer, nil)
			if err != nil {
				return err
			}
			h, err := sess.newHarness(cmd, ctx, harness.Deps{Generative: generative, Corpus: corpusStrategy, Scorer: scorer}, "embedding")
			if err != nil {
				return err
			}

			messages := args
			if len(messages) == 0 {
				messages = sess.cfg.Compare.Messages
			}
			report, err := h.CompareMethods(cmd.Context(), harness.MethodOptions{
				Messages:   messages,
				Generation: sess.generationOptions(),
			})
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, report)
			}
			rows := make([][]string, 0, len(report.Rows))
			for _, row := range report.Rows {
				capacity := "-"
				if row.PayloadCapacity != nil {
					capacity = formatPercent(*row.PayloadCapacity)
				}
				status := "ok"
				if row.ErrorKind != "" {
					status = row.ErrorKind
				}
				rows = append(rows, []string{
					row.Method,
					row.Message,
					formatOptional(row.OriginalPerplexity, 2),
					formatOptional(row.Perplexity, 2),
					capacity,
					strconv.Itoa(row.Attempts),
					status,
				})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable(
				[]string{"Method", "Message", "Original PPL", "PPL", "Capacity", "Attempts", "Status"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight, alignLeft},
			))
			fmt.Fprintf(out, "Batch %s finished in %s\n", report.BatchID, report.Elapsed.Round(100*time.Millisecond))
			return nil
		},
	}
}
