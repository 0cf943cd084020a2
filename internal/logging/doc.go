// Package logging builds the application slog logger and provides attribute
// helpers plus context-derived structured fields (run ID, entry name).
//
// Two output formats are supported: a compact console format for terminals
// and JSON for machine consumption. Output can fan out to stdout/stderr and
// an append-only log file at the same time.
package logging
