// Package metrics records oracle usage and generation effort in a private
// Prometheus registry and can dump it in the text exposition format for the
// node_exporter textfile collector.
package metrics

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"stegtext/internal/services/llm"
)

const namespace = "stegtext"

// Oracle label values.
const (
	OracleScoring    = "scoring"
	OracleGenerative = "generative"
)

// Recorder owns the registry and every collector.
type Recorder struct {
	registry      *prometheus.Registry
	oracleCalls   *prometheus.CounterVec
	oracleLatency *prometheus.HistogramVec
	attempts      *prometheus.HistogramVec
	poolSize      prometheus.Histogram
	runs          *prometheus.CounterVec
	observed      atomic.Bool
}

// New registers all collectors on a fresh registry.
func New() *Recorder {
	r := &Recorder{registry: prometheus.NewRegistry()}
	r.oracleCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "oracle",
			Name:      "calls_total",
			Help:      "Oracle calls by oracle and outcome",
		},
		[]string{"oracle", "outcome"},
	)
	r.oracleLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "oracle",
			Name:      "call_duration_seconds",
			Help:      "Oracle call latency in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"oracle"},
	)
	r.attempts = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "generation",
			Name:      "attempts",
			Help:      "Generation attempts used per embedding run",
			Buckets:   []float64{1, 2, 3, 5, 8, 10, 15, 20, 30},
		},
		[]string{"model", "temperature", "outcome"},
	)
	r.poolSize = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "corpus",
		Name:      "candidate_pool_size",
		Help:      "Ranked corpus candidates per embedding run",
		Buckets:   []float64{0, 1, 5, 10, 20, 30, 40, 50},
	})
	r.runs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "embed",
			Name:      "runs_total",
			Help:      "Embedding runs by strategy and error kind",
		},
		[]string{"strategy", "result"},
	)
	r.registry.MustRegister(r.oracleCalls, r.oracleLatency, r.attempts, r.poolSize, r.runs)
	return r
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// ObserveOracleCall records one oracle call.
func (r *Recorder) ObserveOracleCall(oracle string, elapsed time.Duration, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	r.oracleCalls.WithLabelValues(oracle, outcome).Inc()
	r.oracleLatency.WithLabelValues(oracle).Observe(elapsed.Seconds())
	r.observed.Store(true)
}

// ObserveAttempts records the attempts of one generation run.
func (r *Recorder) ObserveAttempts(model string, temperature float64, attempts int, succeeded bool) {
	outcome := "validated"
	if !succeeded {
		outcome = "exhausted"
	}
	temp := strconv.FormatFloat(temperature, 'f', -1, 64)
	r.attempts.WithLabelValues(model, temp, outcome).Observe(float64(attempts))
	r.observed.Store(true)
}

// ObservePoolSize records how many corpus candidates were ranked.
func (r *Recorder) ObservePoolSize(size int) {
	r.poolSize.Observe(float64(size))
	r.observed.Store(true)
}

// ObserveRun counts a finished embedding run. result is "ok" or an error kind.
func (r *Recorder) ObserveRun(strategy, result string) {
	if result == "" {
		result = "ok"
	}
	r.runs.WithLabelValues(strategy, result).Inc()
	r.observed.Store(true)
}

// Observed reports whether anything has been recorded yet.
func (r *Recorder) Observed() bool {
	return r.observed.Load()
}

// WriteTextfile atomically writes the registry to path. A recorder that has
// observed nothing leaves an existing file untouched, so commands that never
// call an oracle do not wipe the previous run's series.
func (r *Recorder) WriteTextfile(path string) error {
	if path == "" || !r.Observed() {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("metrics: create directory: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("metrics: write textfile: %w", err)
	}
	return nil
}

// Scorer matches the scoring oracle.
type Scorer interface {
	Score(ctx context.Context, text string) (float64, error)
}

// Generator matches the generative oracle.
type Generator interface {
	CompleteText(ctx context.Context, req llm.ChatRequest) (string, error)
}

type instrumentedScorer struct {
	next Scorer
	rec  *Recorder
}

func (s instrumentedScorer) Score(ctx context.Context, text string) (float64, error) {
	start := time.Now()
	score, err := s.next.Score(ctx, text)
	s.rec.ObserveOracleCall(OracleScoring, time.Since(start), err)
	return score, err
}

type instrumentedGenerator struct {
	next Generator
	rec  *Recorder
}

func (g instrumentedGenerator) CompleteText(ctx context.Context, req llm.ChatRequest) (string, error) {
	start := time.Now()
	text, err := g.next.CompleteText(ctx, req)
	g.rec.ObserveOracleCall(OracleGenerative, time.Since(start), err)
	return text, err
}

// InstrumentScorer wraps next so every call is counted and timed. A nil
// recorder returns next unchanged.
func (r *Recorder) InstrumentScorer(next Scorer) Scorer {
	if r == nil {
		return next
	}
	return instrumentedScorer{next: next, rec: r}
}

// InstrumentGenerator wraps next so every call is counted and timed. A nil
// recorder returns next unchanged.
func (r *Recorder) InstrumentGenerator(next Generator) Generator {
	if r == nil {
		return next
	}
	return instrumentedGenerator{next: next, rec: r}
}
