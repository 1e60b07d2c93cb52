package carrier

import (
	"context"
	"time"

	"stegtext/internal/services"
	"stegtext/internal/services/llm"
)

// Scorer returns the perplexity of a text. Lower is more natural.
type Scorer interface {
	Score(ctx context.Context, text string) (float64, error)
}

// Generator produces text for a chat prompt.
type Generator interface {
	CompleteText(ctx context.Context, req llm.ChatRequest) (string, error)
}

// CoverText is one corpus entry with its precomputed digit count.
type CoverText struct {
	Text   string
	Digits int
}

// CorpusSource supplies the cover texts of one topical category in a stable
// order. Implementations must not hand out shared mutable state.
type CorpusSource interface {
	CoverTexts(ctx context.Context) ([]CoverText, error)
}

func withOracleTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

func scoreText(ctx context.Context, scorer Scorer, timeout time.Duration, text string) (float64, error) {
	callCtx, cancel := withOracleTimeout(ctx, timeout)
	defer cancel()
	score, err := scorer.Score(callCtx, text)
	if err != nil {
		return 0, services.Wrap(services.ErrOracleUnavailable, "carrier", "score", "scoring oracle failed", err)
	}
	return score, nil
}

func generateText(ctx context.Context, generator Generator, timeout time.Duration, req llm.ChatRequest) (string, error) {
	callCtx, cancel := withOracleTimeout(ctx, timeout)
	defer cancel()
	text, err := generator.CompleteText(callCtx, req)
	if err != nil {
		return "", services.Wrap(services.ErrOracleUnavailable, "carrier", "generate", "generative oracle failed", err)
	}
	return text, nil
}
