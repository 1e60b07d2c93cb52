package carrier

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"stegtext/internal/logging"
	"stegtext/internal/services"
)

// Candidate pairs a cover text with the text derived from it.
type Candidate struct {
	Original string
	Derived  string
}

// ScoredCandidate is a candidate with the perplexity of its derived text.
type ScoredCandidate struct {
	Candidate
	Perplexity float64
}

// ProgressFunc receives the number of finished and total units of work.
type ProgressFunc func(done, total int)

// Ranker scores candidates with the scoring oracle and orders them.
type Ranker struct {
	scorer   Scorer
	timeout  time.Duration
	progress ProgressFunc
	logger   *slog.Logger
}

// RankerOption customizes a Ranker.
type RankerOption func(*Ranker)

// WithScoreTimeout bounds every scoring call.
func WithScoreTimeout(timeout time.Duration) RankerOption {
	return func(r *Ranker) {
		r.timeout = timeout
	}
}

// WithRankProgress reports scoring progress.
func WithRankProgress(fn ProgressFunc) RankerOption {
	return func(r *Ranker) {
		r.progress = fn
	}
}

// NewRanker constructs a Ranker around scorer.
func NewRanker(scorer Scorer, logger *slog.Logger, opts ...RankerOption) *Ranker {
	r := &Ranker{
		scorer: scorer,
		logger: logging.NewComponentLogger(logger, "ranker"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Score returns the perplexity of a single text.
func (r *Ranker) Score(ctx context.Context, text string) (float64, error) {
	return scoreText(ctx, r.scorer, r.timeout, text)
}

// Rank scores every candidate once and returns them ordered by ascending
// perplexity. Equal scores keep their input order. The first oracle failure
// aborts ranking.
func (r *Ranker) Rank(ctx context.Context, candidates []Candidate) ([]ScoredCandidate, error) {
	scored := make([]ScoredCandidate, 0, len(candidates))
	for i, candidate := range candidates {
		score, err := r.Score(ctx, candidate.Derived)
		if err != nil {
			r.logger.Warn("candidate scoring failed",
				logging.Int("candidate", i),
				logging.Int("candidates", len(candidates)),
				logging.Error(err),
			)
			return nil, err
		}
		scored = append(scored, ScoredCandidate{Candidate: candidate, Perplexity: score})
		if r.progress != nil {
			r.progress(i+1, len(candidates))
		}
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Perplexity < scored[j].Perplexity
	})
	return scored, nil
}

// PickBest returns the candidate whose derived text has the lowest perplexity.
func (r *Ranker) PickBest(ctx context.Context, candidates []Candidate) (ScoredCandidate, error) {
	if len(candidates) == 0 {
		return ScoredCandidate{}, services.Wrap(services.ErrExhaustedCandidatePool, "ranker", "pick best", "no candidates to rank", nil)
	}
	ranked, err := r.Rank(ctx, candidates)
	if err != nil {
		return ScoredCandidate{}, err
	}
	best := ranked[0]
	r.logger.Debug("best candidate selected",
		logging.Float64("perplexity", best.Perplexity),
		logging.Int("candidates", len(ranked)),
	)
	return best, nil
}
