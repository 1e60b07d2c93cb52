package metrics

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"stegtext/internal/services/llm"
)

func counterValue(t *testing.T, rec *Recorder, name, oracle, outcome string) float64 {
	t.Helper()
	families, err := rec.Registry().Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, family := range families {
		if family.GetName() != name {
			continue
		}
		for _, metric := range family.GetMetric() {
			labels := map[string]string{}
			for _, pair := range metric.GetLabel() {
				labels[pair.GetName()] = pair.GetValue()
			}
			if labels["oracle"] == oracle && labels["outcome"] == outcome {
				return metric.GetCounter().GetValue()
			}
		}
	}
	return 0
}

type fixedScorer struct{ err error }

func (s fixedScorer) Score(context.Context, string) (float64, error) { return 12.5, s.err }

type fixedGenerator struct{}

func (fixedGenerator) CompleteText(context.Context, llm.ChatRequest) (string, error) {
	return "tekst", nil
}

func TestInstrumentedOraclesCountCalls(t *testing.T) {
	rec := New()
	scorer := rec.InstrumentScorer(fixedScorer{})
	failing := rec.InstrumentScorer(fixedScorer{err: errors.New("down")})
	gen := rec.InstrumentGenerator(fixedGenerator{})

	for i := 0; i < 3; i++ {
		if _, err := scorer.Score(context.Background(), "x"); err != nil {
			t.Fatalf("Score returned error: %v", err)
		}
	}
	if _, err := failing.Score(context.Background(), "x"); err == nil {
		t.Fatal("expected error to pass through")
	}
	if _, err := gen.CompleteText(context.Background(), llm.ChatRequest{}); err != nil {
		t.Fatalf("CompleteText returned error: %v", err)
	}

	if got := counterValue(t, rec, "stegtext_oracle_calls_total", OracleScoring, "success"); got != 3 {
		t.Fatalf("scoring successes = %v, want 3", got)
	}
	if got := counterValue(t, rec, "stegtext_oracle_calls_total", OracleScoring, "error"); got != 1 {
		t.Fatalf("scoring errors = %v, want 1", got)
	}
	if got := counterValue(t, rec, "stegtext_oracle_calls_total", OracleGenerative, "success"); got != 1 {
		t.Fatalf("generative successes = %v, want 1", got)
	}
}

func TestNilRecorderLeavesOraclesUnwrapped(t *testing.T) {
	var rec *Recorder
	inner := fixedScorer{}
	if got := rec.InstrumentScorer(inner); got != Scorer(inner) {
		t.Fatal("expected unwrapped scorer")
	}
}

func TestWriteTextfile(t *testing.T) {
	rec := New()
	rec.ObserveAttempts("gpt-4o", 0.6, 4, true)
	rec.ObserveAttempts("gpt-4o", 0.6, 20, false)
	rec.ObservePoolSize(17)
	rec.ObserveRun("corpus", "")
	rec.ObserveOracleCall(OracleScoring, 150*time.Millisecond, nil)

	path := filepath.Join(t.TempDir(), "metrics", "stegtext.prom")
	if err := rec.WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile returned error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read textfile: %v", err)
	}
	text := string(data)
	for _, want := range []string{
		`stegtext_generation_attempts_count{model="gpt-4o",outcome="exhausted",temperature="0.6"} 1`,
		`stegtext_corpus_candidate_pool_size_sum 17`,
		`stegtext_embed_runs_total{result="ok",strategy="corpus"} 1`,
		`stegtext_oracle_calls_total{oracle="scoring",outcome="success"} 1`,
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("textfile missing %q:\n%s", want, text)
		}
	}
}

func TestWriteTextfileSkipsUnobservedRecorder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stegtext.prom")
	previous := "stegtext_oracle_calls_total{oracle=\"scoring\",outcome=\"success\"} 4\n"
	if err := os.WriteFile(path, []byte(previous), 0o644); err != nil {
		t.Fatalf("seed textfile: %v", err)
	}

	rec := New()
	if rec.Observed() {
		t.Fatal("fresh recorder reports observations")
	}
	if err := rec.WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile returned error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read textfile: %v", err)
	}
	if string(data) != previous {
		t.Fatalf("textfile was rewritten:\n%s", data)
	}

	rec.ObserveRun("generative", "exhausted_attempts")
	if !rec.Observed() {
		t.Fatal("expected recorder to report observations")
	}
	if err := rec.WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile returned error: %v", err)
	}
	data, err = os.ReadFile(path)
	if err != nil {
		t.Fatalf("read textfile: %v", err)
	}
	if !strings.Contains(string(data), `stegtext_embed_runs_total{result="exhausted_attempts",strategy="generative"} 1`) {
		t.Fatalf("textfile missing run counter:\n%s", data)
	}
}

func TestWriteTextfileWithoutPathIsNoop(t *testing.T) {
	if err := New().WriteTextfile(""); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
}
