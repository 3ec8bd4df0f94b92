// Package logging assembles structured slog loggers used across Shortsmith.
//
// Console output goes through a tint handler that colors levels when stdout
// is a terminal; JSON output and the persistent log file use the standard
// slog JSON handler with a stable key layout. Context helpers tag log lines
// with the source video ID, pipeline stage, and request correlation ID so
// pipeline and API code never assemble those attributes by hand.
package logging
