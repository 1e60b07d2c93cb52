package services_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"stegtext/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrOracleUnavailable, "perplexity", "score", "request failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrOracleUnavailable) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"perplexity", "score", "request failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapWithoutDetail(t *testing.T) {
	err := services.Wrap(services.ErrValidation, "", "", "", nil)
	if err.Error() != "validation error: service failure" {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestErrorKind(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{services.Wrap(services.ErrMalformedTransformInput, "mncodec", "", "", nil), "malformed_input"},
		{services.Wrap(services.ErrExhaustedCandidatePool, "carrier", "", "", nil), "exhausted_candidates"},
		{fmt.Errorf("outer: %w", services.ErrExhaustedAttempts), "exhausted_attempts"},
		{services.Wrap(services.ErrOracleUnavailable, "llm", "", "", nil), "oracle_unavailable"},
		{context.DeadlineExceeded, "oracle_unavailable"},
		{services.ErrConfiguration, "configuration"},
		{errors.New("other"), "internal"},
	}
	for _, tc := range tests {
		if got := services.ErrorKind(tc.err); got != tc.want {
			t.Errorf("ErrorKind(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}
