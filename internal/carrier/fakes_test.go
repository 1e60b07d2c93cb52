package carrier

import (
	"context"
	"sync"

	"stegtext/internal/services/llm"
)

type scoreFunc func(ctx context.Context, text string) (float64, error)

func (f scoreFunc) Score(ctx context.Context, text string) (float64, error) {
	return f(ctx, text)
}

type recordingScorer struct {
	mu     sync.Mutex
	scores map[string]float64
	calls  []string
}

func (s *recordingScorer) Score(_ context.Context, text string) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, text)
	if score, ok := s.scores[text]; ok {
		return score, nil
	}
	return 100, nil
}

type scriptedGenerator struct {
	replies  []string
	err      error
	requests []llm.ChatRequest
}

func (g *scriptedGenerator) CompleteText(_ context.Context, req llm.ChatRequest) (string, error) {
	g.requests = append(g.requests, req)
	if g.err != nil {
		return "", g.err
	}
	if len(g.replies) == 0 {
		return "geen cijfers", nil
	}
	idx := len(g.requests) - 1
	if idx >= len(g.replies) {
		idx = len(g.replies) - 1
	}
	return g.replies[idx], nil
}

type staticSource struct {
	texts []CoverText
	err   error
}

func (s staticSource) CoverTexts(context.Context) ([]CoverText, error) {
	return s.texts, s.err
}
