package services

import "context"

type contextKey string

const (
	runIDKey    contextKey = "run_id"
	strategyKey contextKey = "strategy"
	attemptKey  contextKey = "attempt"
)

// WithRunID annotates context with the harness or CLI run identifier.
func WithRunID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, runIDKey, id)
}

// RunIDFromContext extracts the run identifier if present.
func RunIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(runIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithStrategy annotates context with the carrier strategy name (corpus/generative).
func WithStrategy(ctx context.Context, strategy string) context.Context {
	if strategy == "" {
		return ctx
	}
	return context.WithValue(ctx, strategyKey, strategy)
}

// StrategyFromContext returns the strategy name if present.
func StrategyFromContext(ctx context.Context) (string, bool) {
	v := ctx.Value(strategyKey)
	if str, ok := v.(string); ok && str != "" {
		return str, true
	}
	return "", false
}

// WithAttempt annotates context with the 1-based generation attempt.
func WithAttempt(ctx context.Context, attempt int) context.Context {
	if attempt <= 0 {
		return ctx
	}
	return context.WithValue(ctx, attemptKey, attempt)
}

// AttemptFromContext extracts the generation attempt if present.
func AttemptFromContext(ctx context.Context) (int, bool) {
	v, ok := ctx.Value(attemptKey).(int)
	if !ok || v <= 0 {
		return 0, false
	}
	return v, true
}
