package harness

import (
	"context"
	"errors"
	"fmt"
	"time"

	"stegtext/internal/carrier"
	"stegtext/internal/logging"
	"stegtext/internal/results"
	"stegtext/internal/services"
	"stegtext/internal/textutil"
)

// MethodRow is one strategy applied to one message.
type MethodRow struct {
	Method             string   `json:"method"`
	Message            string   `json:"message"`
	OriginalPerplexity *float64 `json:"original_perplexity,omitempty"`
	Perplexity         *float64 `json:"perplexity,omitempty"`
	PayloadCapacity    *float64 `json:"payload_capacity,omitempty"`
	Attempts           int      `json:"attempts,omitempty"`
	OriginalText       string   `json:"original_text,omitempty"`
	Text               string   `json:"text"`
	ErrorKind          string   `json:"error_kind,omitempty"`
}

// MethodReport is the outcome of CompareMethods.
type MethodReport struct {
	BatchID string        `json:"batch_id"`
	Rows    []MethodRow   `json:"rows"`
	Elapsed time.Duration `json:"elapsed"`
}

// MethodOptions configures CompareMethods.
type MethodOptions struct {
	Messages   []string
	Generation carrier.GenerationOptions
}

// CompareMethods embeds every message with both strategies. For each message
// the generative row comes first, followed by the corpus row. Generative
// capacity is the secret length over the text length; corpus capacity is the
// digit density of the original cover text.
func (h *Harness) CompareMethods(ctx context.Context, opts MethodOptions) (MethodReport, error) {
	if h.deps.Generative == nil || h.deps.Corpus == nil || h.deps.Scorer == nil {
		return MethodReport{}, services.Wrap(services.ErrConfiguration, "harness", "compare methods", "both strategies and a scorer are required", nil)
	}
	if len(opts.Messages) == 0 {
		return MethodReport{}, services.Wrap(services.ErrConfiguration, "harness", "compare methods", "no messages", nil)
	}

	start := time.Now()
	report := MethodReport{BatchID: results.NewBatchID(), Rows: make([]MethodRow, 2*len(opts.Messages))}
	ctx = services.WithRunID(ctx, report.BatchID)
	logger := logging.WithContext(ctx, h.logger)

	err := h.forEach(ctx, len(report.Rows), func(ctx context.Context, i int) error {
		message := opts.Messages[i/2]
		var (
			row MethodRow
			err error
		)
		if i%2 == 0 {
			row, err = h.generativeRow(ctx, message, opts.Generation)
		} else {
			row, err = h.corpusRow(ctx, message)
		}
		if err != nil {
			return err
		}
		report.Rows[i] = row
		return nil
	})
	if err != nil {
		logger.Error("method comparison failed", logging.Error(err))
		return MethodReport{}, err
	}
	report.Elapsed = time.Since(start)

	records := make([]results.Record, 0, len(report.Rows))
	for _, row := range report.Rows {
		rec := results.Record{
			BatchID:            report.BatchID,
			Experiment:         results.ExperimentMethods,
			Method:             row.Method,
			Message:            row.Message,
			Attempts:           row.Attempts,
			Perplexity:         row.Perplexity,
			OriginalPerplexity: row.OriginalPerplexity,
			PayloadCapacity:    row.PayloadCapacity,
			Text:               row.Text,
			OriginalText:       row.OriginalText,
			ErrorKind:          row.ErrorKind,
		}
		if row.Method == StrategyGenerative {
			rec.Model = opts.Generation.Model
			rec.Temperature = results.Float(opts.Generation.Temperature)
		}
		records = append(records, rec)
	}
	if err := h.save(ctx, records); err != nil {
		return MethodReport{}, fmt.Errorf("save method comparison: %w", err)
	}
	logger.Info("method comparison complete",
		logging.Int("messages", len(opts.Messages)),
		logging.Duration("elapsed", report.Elapsed),
	)
	return report, nil
}

func (h *Harness) generativeRow(ctx context.Context, message string, opts carrier.GenerationOptions) (MethodRow, error) {
	out, err := h.generate(ctx, message, opts)
	if err != nil {
		return MethodRow{}, err
	}
	row := MethodRow{Method: StrategyGenerative, Message: message, Attempts: out.attempts, Text: out.text}
	if out.exhausted {
		row.ErrorKind = services.ErrorKind(services.ErrExhaustedAttempts)
		return row, nil
	}
	row.Perplexity = results.Float(out.score)
	row.PayloadCapacity = results.Float(capacity(textutil.Length(message), out.text))
	return row, nil
}

func (h *Harness) corpusRow(ctx context.Context, message string) (MethodRow, error) {
	ctx = services.WithStrategy(ctx, StrategyCorpus)
	result, err := h.deps.Corpus.Embed(ctx, message)
	h.observeRun(StrategyCorpus, err)
	if errors.Is(err, services.ErrExhaustedCandidatePool) {
		return MethodRow{Method: StrategyCorpus, Message: message, Text: err.Error(), ErrorKind: services.ErrorKind(err)}, nil
	}
	if err != nil {
		return MethodRow{}, err
	}
	if h.deps.Metrics != nil {
		h.deps.Metrics.ObservePoolSize(result.PoolSize)
	}
	return MethodRow{
		Method:             StrategyCorpus,
		Message:            message,
		OriginalPerplexity: results.Float(result.OriginalPerplexity),
		Perplexity:         results.Float(result.ModifiedPerplexity),
		PayloadCapacity:    results.Float(result.PayloadCapacity),
		OriginalText:       result.OriginalText,
		Text:               result.ModifiedText,
	}, nil
}
