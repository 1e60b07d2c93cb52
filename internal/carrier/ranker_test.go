package carrier

import (
	"context"
	"errors"
	"testing"
	"time"

	"stegtext/internal/logging"
	"stegtext/internal/services"
)

func TestRankOrdersByPerplexityAndKeepsTies(t *testing.T) {
	scorer := &recordingScorer{scores: map[string]float64{
		"a'": 30,
		"b'": 10,
		"c'": 20,
		"d'": 10,
	}}
	ranker := NewRanker(scorer, logging.NewNop())
	candidates := []Candidate{
		{Original: "a", Derived: "a'"},
		{Original: "b", Derived: "b'"},
		{Original: "c", Derived: "c'"},
		{Original: "d", Derived: "d'"},
	}

	ranked, err := ranker.Rank(context.Background(), candidates)
	if err != nil {
		t.Fatalf("Rank returned error: %v", err)
	}
	want := []string{"b", "d", "c", "a"}
	for i, w := range want {
		if ranked[i].Original != w {
			t.Fatalf("rank %d: got %q, want %q", i, ranked[i].Original, w)
		}
	}
	if len(scorer.calls) != len(candidates) {
		t.Fatalf("expected one oracle call per candidate, got %d", len(scorer.calls))
	}
	for _, call := range scorer.calls {
		if call[len(call)-1] != '\'' {
			t.Fatalf("expected derived texts to be scored, got %q", call)
		}
	}
}

func TestPickBestReturnsFirstOfEqualScores(t *testing.T) {
	ranker := NewRanker(scoreFunc(func(context.Context, string) (float64, error) {
		return 42, nil
	}), nil)
	best, err := ranker.PickBest(context.Background(), []Candidate{
		{Original: "first", Derived: "1"},
		{Original: "second", Derived: "2"},
	})
	if err != nil {
		t.Fatalf("PickBest returned error: %v", err)
	}
	if best.Original != "first" || best.Perplexity != 42 {
		t.Fatalf("unexpected best candidate: %+v", best)
	}
}

func TestPickBestEmptyPool(t *testing.T) {
	ranker := NewRanker(&recordingScorer{}, logging.NewNop())
	_, err := ranker.PickBest(context.Background(), nil)
	if !errors.Is(err, services.ErrExhaustedCandidatePool) {
		t.Fatalf("expected ErrExhaustedCandidatePool, got %v", err)
	}
}

func TestRankPropagatesOracleFailure(t *testing.T) {
	boom := errors.New("model offline")
	calls := 0
	ranker := NewRanker(scoreFunc(func(context.Context, string) (float64, error) {
		calls++
		if calls == 2 {
			return 0, boom
		}
		return 1, nil
	}), logging.NewNop())

	_, err := ranker.Rank(context.Background(), []Candidate{{Derived: "x"}, {Derived: "y"}, {Derived: "z"}})
	if !errors.Is(err, services.ErrOracleUnavailable) {
		t.Fatalf("expected ErrOracleUnavailable, got %v", err)
	}
	if !errors.Is(err, boom) {
		t.Fatalf("expected cause to be preserved, got %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected ranking to stop at the failing candidate, got %d calls", calls)
	}
}

func TestRankTimeoutMapsToOracleFailure(t *testing.T) {
	ranker := NewRanker(scoreFunc(func(ctx context.Context, _ string) (float64, error) {
		<-ctx.Done()
		return 0, ctx.Err()
	}), logging.NewNop(), WithScoreTimeout(10*time.Millisecond))

	_, err := ranker.PickBest(context.Background(), []Candidate{{Derived: "slow"}})
	if !errors.Is(err, services.ErrOracleUnavailable) {
		t.Fatalf("expected ErrOracleUnavailable, got %v", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded cause, got %v", err)
	}
}

func TestRankReportsProgress(t *testing.T) {
	var seen []int
	ranker := NewRanker(&recordingScorer{}, logging.NewNop(), WithRankProgress(func(done, total int) {
		if total != 3 {
			t.Fatalf("unexpected total %d", total)
		}
		seen = append(seen, done)
	}))
	if _, err := ranker.Rank(context.Background(), []Candidate{{Derived: "a"}, {Derived: "b"}, {Derived: "c"}}); err != nil {
		t.Fatalf("Rank returned error: %v", err)
	}
	if len(seen) != 3 || seen[2] != 3 {
		t.Fatalf("unexpected progress calls: %v", seen)
	}
}
