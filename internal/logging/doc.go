// Package logging assembles structured slog loggers and formatting helpers used
// across the TALI dataset engine.
//
// It owns the configurable console/JSON handlers, session tagging, and
// context-aware helpers so dataset code can tag log lines with the requested
// index and retry attempt. The package also provides a no-op logger for tests
// and library callers that do not want output.
package logging
