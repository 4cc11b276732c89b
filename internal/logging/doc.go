// Package logging assembles structured slog loggers and formatting helpers used
// across Hermes.
//
// It owns the console/JSON handlers, centralizes level and output plumbing,
// and exposes context-aware helpers so export and session code can tag log
// lines with the project name and row being processed. The package also
// provides a no-op logger for tests and wiring code that cannot fail.
package logging
