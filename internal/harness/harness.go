package harness

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"stegtext/internal/carrier"
	"stegtext/internal/logging"
	"stegtext/internal/metrics"
	"stegtext/internal/results"
	"stegtext/internal/services"
	"stegtext/internal/textutil"
)

// Strategy names used in records and logs.
const (
	StrategyGenerative = "generative"
	StrategyCorpus     = "corpus"
)

// GenerativeEmbedder is satisfied by *carrier.GenerativeStrategy.
type GenerativeEmbedder interface {
	Embed(ctx context.Context, secret string, opts carrier.GenerationOptions) (carrier.GenerationResult, error)
}

// CorpusEmbedder is satisfied by *carrier.CorpusStrategy.
type CorpusEmbedder interface {
	Embed(ctx context.Context, secret string) (carrier.CorpusResult, error)
}

// ResultSink persists harness records.
type ResultSink interface {
	Save(ctx context.Context, records []results.Record) error
}

// Deps are the collaborators of a Harness. Corpus is only needed by
// CompareMethods.
type Deps struct {
	Generative GenerativeEmbedder
	Corpus     CorpusEmbedder
	Scorer     carrier.Scorer
	Sink       ResultSink
	Metrics    *metrics.Recorder
	Logger     *slog.Logger
}

// Options tunes execution.
type Options struct {
	Parallelism  int
	ScoreTimeout time.Duration
	Progress     carrier.ProgressFunc
}

// Harness orchestrates comparison experiments.
type Harness struct {
	deps   Deps
	ranker *carrier.Ranker
	opts   Options
	logger *slog.Logger
}

// New constructs a Harness.
func New(deps Deps, opts Options) *Harness {
	if opts.Parallelism <= 0 {
		opts.Parallelism = 1
	}
	return &Harness{
		deps:   deps,
		ranker: carrier.NewRanker(deps.Scorer, deps.Logger, carrier.WithScoreTimeout(opts.ScoreTimeout)),
		opts:   opts,
		logger: logging.NewComponentLogger(deps.Logger, "harness"),
	}
}

// generated is the outcome of one generative run.
type generated struct {
	text      string
	attempts  int
	exhausted bool
	score     float64
}

// generate runs the generative strategy once and scores validated texts.
// Exhausted runs report the explanatory message as text and the attempt
// budget as attempts.
func (h *Harness) generate(ctx context.Context, secret string, opts carrier.GenerationOptions) (generated, error) {
	ctx = services.WithStrategy(ctx, StrategyGenerative)
	result, err := h.deps.Generative.Embed(ctx, secret, opts)
	var attemptsErr *carrier.AttemptsError
	switch {
	case errors.As(err, &attemptsErr):
		h.observeAttempts(opts, opts.MaxAttempts, false)
		h.observeRun(StrategyGenerative, err)
		return generated{text: attemptsErr.Error(), attempts: opts.MaxAttempts, exhausted: true}, nil
	case err != nil:
		h.observeRun(StrategyGenerative, err)
		return generated{}, err
	}
	h.observeAttempts(opts, result.Attempts, true)
	score, err := h.ranker.Score(ctx, result.Text)
	h.observeRun(StrategyGenerative, err)
	if err != nil {
		return generated{}, err
	}
	return generated{text: result.Text, attempts: result.Attempts, score: score}, nil
}

func (h *Harness) observeAttempts(opts carrier.GenerationOptions, attempts int, ok bool) {
	if h.deps.Metrics != nil {
		h.deps.Metrics.ObserveAttempts(opts.Model, opts.Temperature, attempts, ok)
	}
}

func (h *Harness) observeRun(strategy string, err error) {
	if h.deps.Metrics != nil {
		h.deps.Metrics.ObserveRun(strategy, services.ErrorKind(err))
	}
}

// forEach runs fn for indexes [0,total) with bounded parallelism and reports
// progress as runs finish. The first error cancels the remaining runs.
func (h *Harness) forEach(ctx context.Context, total int, fn func(ctx context.Context, i int) error) error {
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(h.opts.Parallelism)
	var (
		mu   sync.Mutex
		done int
	)
	for i := 0; i < total; i++ {
		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}
			if err := fn(groupCtx, i); err != nil {
				return err
			}
			if h.opts.Progress != nil {
				mu.Lock()
				done++
				h.opts.Progress(done, total)
				mu.Unlock()
			}
			return nil
		})
	}
	return group.Wait()
}

func (h *Harness) save(ctx context.Context, records []results.Record) error {
	if h.deps.Sink == nil || len(records) == 0 {
		return nil
	}
	return h.deps.Sink.Save(ctx, records)
}

func capacity(digits int, text string) float64 {
	length := textutil.Length(text)
	if length == 0 {
		return 0
	}
	return float64(digits) / float64(length)
}
