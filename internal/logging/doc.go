// Package logging assembles structured slog loggers and formatting helpers used
// across stegtext.
//
// It owns the console and JSON handlers, the rotating log file sink, and the
// context helpers that tag log lines with harness run IDs, carrier strategies,
// and generation attempts. A no-op logger is provided for tests and wiring
// code that cannot fail.
package logging
