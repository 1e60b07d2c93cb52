package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"stegtext/internal/carrier"
	"stegtext/internal/harness"
	"stegtext/internal/logging"
	"stegtext/internal/services"
	"stegtext/internal/textutil"
)

func newEmbedCommand(ctx *commandContext) *cobra.Command {
	embedCmd := &cobra.Command{
		Use:   "embed",
		Short: "Embed a secret into a cover text",
	}
	embedCmd.AddCommand(newEmbedCorpusCommand(ctx))
	embedCmd.AddCommand(newEmbedGenerateCommand(ctx))
	return embedCmd
}

type corpusEmbedOutput struct {
	Secret             string   `json:"secret"`
	Pairs              []string `json:"pairs"`
	Payload            string   `json:"payload"`
	OriginalText       string   `json:"original_text"`
	OriginalPerplexity float64  `json:"original_perplexity"`
	ModifiedText       string   `json:"modified_text"`
	ModifiedPerplexity float64  `json:"modified_perplexity"`
	PayloadCapacity    float64  `json:"payload_capacity"`
	PayloadDigits      int      `json:"payload_digits"`
	PoolSize           int      `json:"pool_size"`
}

func newEmbedCorpusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "corpus <secret>",
		Short: "Overwrite the digits of the least perplexing corpus article",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			sess, err := ctx.openSession(cmd)
			if err != nil {
				return err
			}
			defer func() { err = errors.Join(err, sess.Close()) }()

			scorer, err := sess.scorer(cmd.Context())
			if err != nil {
				return err
			}
			strategy, err := sess.corpusStrategy(cmd.Context(), scorer, ctx.newProgress(cmd, "ranking candidates"))
			if err != nil {
				return err
			}
			runCtx := services.WithStrategy(cmd.Context(), harness.StrategyCorpus)
			result, err := strategy.Embed(runCtx, args[0])
			sess.metrics.ObserveRun(harness.StrategyCorpus, services.ErrorKind(err))
			if err != nil {
				logEmbedFailure(sess, err)
				return err
			}
			sess.metrics.ObservePoolSize(result.PoolSize)

			out := corpusEmbedOutput{
				Secret:             args[0],
				Pairs:              result.Pairs,
				Payload:            result.Payload,
				OriginalText:       result.OriginalText,
				OriginalPerplexity: result.OriginalPerplexity,
				ModifiedText:       result.ModifiedText,
				ModifiedPerplexity: result.ModifiedPerplexity,
				PayloadCapacity:    result.PayloadCapacity,
				PayloadDigits:      result.PayloadDigits,
				PoolSize:           result.PoolSize,
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, out)
			}
			w := cmd.OutOrStdout()
			fmt.Fprintln(w, renderTable(
				[]string{"Payload", "Candidates", "Original PPL", "Modified PPL", "Capacity"},
				[][]string{{
					out.Payload,
					strconv.Itoa(out.PoolSize),
					formatFloat(out.OriginalPerplexity, 2),
					formatFloat(out.ModifiedPerplexity, 2),
					formatPercent(out.PayloadCapacity),
				}},
				[]columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignRight},
			))
			fmt.Fprintln(w)
			fmt.Fprintln(w, out.ModifiedText)
			return nil
		},
	}
}

type generateOutput struct {
	Secret          string   `json:"secret"`
	Model           string   `json:"model"`
	Temperature     float64  `json:"temperature"`
	Pairs           []string `json:"pairs"`
	Attempts        int      `json:"attempts"`
	Text            string   `json:"text"`
	Perplexity      *float64 `json:"perplexity,omitempty"`
	PayloadCapacity float64  `json:"payload_capacity"`
}

func newEmbedGenerateCommand(ctx *commandContext) *cobra.Command {
	var model string
	var temperature float64
	var maxAttempts int
	var score bool

	cmd := &cobra.Command{
		Use:   "generate <secret>",
		Short: "Ask the language model for an article carrying the secret",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			sess, err := ctx.openSession(cmd)
			if err != nil {
				return err
			}
			defer func() { err = errors.Join(err, sess.Close()) }()

			strategy, err := sess.generativeStrategy()
			if err != nil {
				return err
			}
			opts := sess.generationOptions()
			if cmd.Flags().Changed("model") {
				opts.Model = model
			}
			if cmd.Flags().Changed("temperature") {
				opts.Temperature = temperature
			}
			if cmd.Flags().Changed("max-attempts") {
				opts.MaxAttempts = maxAttempts
			}

			runCtx := services.WithStrategy(cmd.Context(), harness.StrategyGenerative)
			result, err := strategy.Embed(runCtx, args[0], opts)
			var attemptsErr *carrier.AttemptsError
			switch {
			case errors.As(err, &attemptsErr):
				sess.metrics.ObserveAttempts(opts.Model, opts.Temperature, attemptsErr.Attempts, false)
			case err == nil:
				sess.metrics.ObserveAttempts(opts.Model, opts.Temperature, result.Attempts, true)
			}
			sess.metrics.ObserveRun(harness.StrategyGenerative, services.ErrorKind(err))
			if err != nil {
				logEmbedFailure(sess, err)
				return err
			}

			out := generateOutput{
				Secret:          args[0],
				Model:           opts.Model,
				Temperature:     opts.Temperature,
				Pairs:           result.Pairs,
				Attempts:        result.Attempts,
				Text:            result.Text,
				PayloadCapacity: float64(textutil.DigitCount(result.Text)) / float64(max(1, textutil.Length(result.Text))),
			}
			if score {
				scorer, err := sess.scorer(cmd.Context())
				if err != nil {
					return err
				}
				ranker := carrier.NewRanker(scorer, sess.logger, carrier.WithScoreTimeout(sess.cfg.PerplexityTimeout()))
				value, err := ranker.Score(runCtx, result.Text)
				if err != nil {
					return err
				}
				out.Perplexity = &value
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, out)
			}
			w := cmd.OutOrStdout()
			fmt.Fprintln(w, renderTable(
				[]string{"Model", "Temperature", "Attempts", "Perplexity", "Capacity"},
				[][]string{{
					out.Model,
					formatFloat(out.Temperature, 2),
					strconv.Itoa(out.Attempts),
					formatOptional(out.Perplexity, 2),
					formatPercent(out.PayloadCapacity),
				}},
				[]columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignRight},
			))
			fmt.Fprintln(w)
			fmt.Fprintln(w, out.Text)
			return nil
		},
	}

	cmd.Flags().StringVar(&model, "model", "", "Model to use (defaults to llm.model)")
	cmd.Flags().Float64Var(&temperature, "temperature", carrier.DefaultTemperature, "Sampling temperature (defaults to generation.temperature)")
	cmd.Flags().IntVar(&maxAttempts, "max-attempts", carrier.DefaultMaxAttempts, "Generation attempts before giving up (defaults to generation.max_attempts)")
	cmd.Flags().BoolVar(&score, "score", false, "Also score the generated text with the perplexity oracle")
	return cmd
}

func logEmbedFailure(sess *session, err error) {
	attrs := []logging.Attr{logging.Error(err), logging.ErrorKind(err)}
	switch {
	case errors.Is(err, services.ErrOracleUnavailable):
		attrs = append(attrs, logging.String(logging.FieldErrorHint, "check the oracle endpoint and credentials, then retry"))
	case errors.Is(err, services.ErrExhaustedCandidatePool):
		attrs = append(attrs, logging.String(logging.FieldErrorHint, "import more articles or choose a shorter secret"))
	case errors.Is(err, services.ErrExhaustedAttempts):
		attrs = append(attrs, logging.String(logging.FieldErrorHint, "raise generation.max_attempts or try another model"))
	}
	sess.logger.Error("embedding failed", logging.Args(attrs...)...)
}
