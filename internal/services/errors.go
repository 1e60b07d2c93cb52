package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrMalformedTransformInput = errors.New("malformed transform input")
	ErrExhaustedCandidatePool  = errors.New("exhausted candidate pool")
	ErrExhaustedAttempts       = errors.New("exhausted attempts")
	ErrOracleUnavailable       = errors.New("oracle unavailable")
	ErrConfiguration           = errors.New("configuration error")
	ErrValidation              = errors.New("validation error")
)

// Wrap builds an error message that includes component context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrOracleUnavailable
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// ErrorKind maps an error to the short classification stored with harness
// results and printed in JSON output.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrMalformedTransformInput):
		return "malformed_input"
	case errors.Is(err, ErrExhaustedCandidatePool):
		return "exhausted_candidates"
	case errors.Is(err, ErrExhaustedAttempts):
		return "exhausted_attempts"
	case errors.Is(err, ErrOracleUnavailable), errors.Is(err, context.DeadlineExceeded):
		return "oracle_unavailable"
	case errors.Is(err, ErrConfiguration):
		return "configuration"
	case errors.Is(err, ErrValidation):
		return "validation"
	default:
		return "internal"
	}
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
