// Package history records one row per pipeline run in a SQLite database so
// past outcomes can be listed with `highlighter history`.
//
// Only run-level facts are stored (timing, outcome, counts, output). Scene
// analysis results are never persisted; every run re-analyses its input.
package history
