package harness

import (
	"context"
	"fmt"
	"time"

	"stegtext/internal/carrier"
	"stegtext/internal/logging"
	"stegtext/internal/results"
	"stegtext/internal/services"
	"stegtext/internal/textutil"
)

// ModelGrid describes a model and temperature comparison for one secret.
type ModelGrid struct {
	Message      string
	Models       []string
	Temperatures []float64
	Runs         int
	MaxAttempts  int
	MaxTokens    int
}

// ModelRun is one generative run inside a cell.
type ModelRun struct {
	Run             int     `json:"run"`
	Attempts        int     `json:"attempts"`
	Exhausted       bool    `json:"exhausted"`
	Perplexity      float64 `json:"perplexity,omitempty"`
	PayloadCapacity float64 `json:"payload_capacity,omitempty"`
	Text            string  `json:"text"`
}

// ModelCell aggregates the runs of one model and temperature.
type ModelCell struct {
	Model       string     `json:"model"`
	Temperature float64    `json:"temperature"`
	Runs        []ModelRun `json:"runs"`
	Exhausted   int        `json:"exhausted"`
	// Perplexity and Capacity only cover validated runs; Attempts covers all.
	Perplexity Summary `json:"perplexity"`
	Attempts   Summary `json:"attempts"`
	Capacity   Summary `json:"payload_capacity"`
}

// ModelReport is the outcome of CompareModels.
type ModelReport struct {
	BatchID string        `json:"batch_id"`
	Message string        `json:"message"`
	Cells   []ModelCell   `json:"cells"`
	Elapsed time.Duration `json:"elapsed"`
}

// CompareModels runs the generative strategy grid.Runs times for every model
// and temperature and summarizes each cell.
func (h *Harness) CompareModels(ctx context.Context, grid ModelGrid) (ModelReport, error) {
	if h.deps.Generative == nil || h.deps.Scorer == nil {
		return ModelReport{}, services.Wrap(services.ErrConfiguration, "harness", "compare models", "generative strategy and scorer required", nil)
	}
	if grid.Message == "" || len(grid.Models) == 0 || len(grid.Temperatures) == 0 || grid.Runs <= 0 {
		return ModelReport{}, services.Wrap(services.ErrConfiguration, "harness", "compare models",
			fmt.Sprintf("empty grid (message=%q models=%d temperatures=%d runs=%d)", grid.Message, len(grid.Models), len(grid.Temperatures), grid.Runs), nil)
	}

	start := time.Now()
	report := ModelReport{BatchID: results.NewBatchID(), Message: grid.Message}
	ctx = services.WithRunID(ctx, report.BatchID)
	logger := logging.WithContext(ctx, h.logger)

	cells := make([]ModelCell, 0, len(grid.Models)*len(grid.Temperatures))
	for _, model := range grid.Models {
		for _, temp := range grid.Temperatures {
			cells = append(cells, ModelCell{Model: model, Temperature: temp, Runs: make([]ModelRun, grid.Runs)})
		}
	}

	total := len(cells) * grid.Runs
	err := h.forEach(ctx, total, func(ctx context.Context, i int) error {
		cell := &cells[i/grid.Runs]
		runIndex := i % grid.Runs
		out, err := h.generate(ctx, grid.Message, carrier.GenerationOptions{
			Model:       cell.Model,
			Temperature: cell.Temperature,
			MaxAttempts: grid.MaxAttempts,
			MaxTokens:   grid.MaxTokens,
		})
		if err != nil {
			return err
		}
		run := ModelRun{Run: runIndex + 1, Attempts: out.attempts, Exhausted: out.exhausted, Text: out.text}
		if !out.exhausted {
			run.Perplexity = out.score
			run.PayloadCapacity = capacity(textutil.DigitCount(out.text), out.text)
		}
		cell.Runs[runIndex] = run
		return nil
	})
	if err != nil {
		logger.Error("model comparison failed", logging.Error(err))
		return ModelReport{}, err
	}

	records := make([]results.Record, 0, total)
	for i := range cells {
		cell := &cells[i]
		var perplexities, attempts, capacities []float64
		for _, run := range cell.Runs {
			attempts = append(attempts, float64(run.Attempts))
			rec := results.Record{
				BatchID:     report.BatchID,
				Experiment:  results.ExperimentModels,
				Method:      StrategyGenerative,
				Message:     grid.Message,
				Model:       cell.Model,
				Temperature: results.Float(cell.Temperature),
				Run:         run.Run,
				Attempts:    run.Attempts,
				Text:        run.Text,
			}
			if run.Exhausted {
				cell.Exhausted++
				rec.ErrorKind = services.ErrorKind(services.ErrExhaustedAttempts)
			} else {
				perplexities = append(perplexities, run.Perplexity)
				capacities = append(capacities, run.PayloadCapacity)
				rec.Perplexity = results.Float(run.Perplexity)
				rec.PayloadCapacity = results.Float(run.PayloadCapacity)
			}
			records = append(records, rec)
		}
		cell.Perplexity = Summarize(perplexities)
		cell.Attempts = Summarize(attempts)
		cell.Capacity = Summarize(capacities)
	}
	report.Cells = cells
	report.Elapsed = time.Since(start)

	if err := h.save(ctx, records); err != nil {
		return ModelReport{}, fmt.Errorf("save model comparison: %w", err)
	}
	logger.Info("model comparison complete",
		logging.String("message", grid.Message),
		logging.Int("cells", len(cells)),
		logging.Int("runs", total),
		logging.Duration("elapsed", report.Elapsed),
	)
	return report, nil
}
