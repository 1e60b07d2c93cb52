package services_test

import (
	"context"
	"testing"

	"stegtext/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithRunID(ctx, "run-123")
	ctx = services.WithStrategy(ctx, "corpus")
	ctx = services.WithAttempt(ctx, 3)

	if id, ok := services.RunIDFromContext(ctx); !ok || id != "run-123" {
		t.Fatalf("unexpected run id: %v %v", id, ok)
	}
	if strategy, ok := services.StrategyFromContext(ctx); !ok || strategy != "corpus" {
		t.Fatalf("unexpected strategy: %v %v", strategy, ok)
	}
	if attempt, ok := services.AttemptFromContext(ctx); !ok || attempt != 3 {
		t.Fatalf("unexpected attempt: %v %v", attempt, ok)
	}
}

func TestBlankValuesPreserveContext(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithStrategy(ctx, "")
	ctx = services.WithAttempt(ctx, 0)
	if _, ok := services.StrategyFromContext(ctx); ok {
		t.Fatal("expected no strategy value")
	}
	if _, ok := services.AttemptFromContext(ctx); ok {
		t.Fatal("expected no attempt value")
	}
}
