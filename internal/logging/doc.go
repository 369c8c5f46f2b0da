// Package logging assembles structured slog loggers and formatting helpers used
// across the highlighter pipeline.
//
// It owns the console and JSON handlers, centralizes level and output plumbing,
// and exposes context-aware helpers so stage code automatically tags log lines
// with run IDs, stage names, and scene indexes. Every run also tees its records
// into a JSON file under <log_dir>/runs so a single run can be inspected after
// the fact. A no-op logger is provided for tests and wiring code that cannot
// fail.
package logging
