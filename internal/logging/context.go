package logging

import (
	"context"
	"log/slog"

	"stegtext/internal/services"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldRunID is the standardized structured logging key for harness run identifiers.
	FieldRunID = "run_id"
	// FieldStrategy is the standardized structured logging key for carrier strategy names.
	FieldStrategy = "strategy"
	// FieldAttempt is the standardized structured logging key for 1-based generation attempts.
	FieldAttempt = "attempt"
	// FieldAlert flags warnings or anomalies that should stand out in structured logs.
	FieldAlert = "alert"
	// FieldEventType names the event a warning or error describes.
	FieldEventType = "event_type"
	// FieldErrorKind carries services.ErrorKind for classified failures.
	FieldErrorKind = "error_kind"
	// FieldErrorHint suggests the next step an operator should take.
	FieldErrorHint = "error_hint"
	// FieldImpact is the user-facing consequence of a warning.
	FieldImpact = "impact"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 3)
	if id, ok := services.RunIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldRunID, id))
	}
	if strategy, ok := services.StrategyFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldStrategy, strategy))
	}
	if attempt, ok := services.AttemptFromContext(ctx); ok {
		fields = append(fields, slog.Int(FieldAttempt, attempt))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(attrsToArgs(fields)...)
}
