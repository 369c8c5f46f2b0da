// Package logs reads the per-run JSON logs written under <log_dir>/runs.
//
// Locate resolves a run id (or a unique prefix of one, as printed by
// `highlighter history`) to its log file, Tail reads the last lines with
// bounded memory and can follow a live run, and Filter narrows lines by
// level or stage.
package logs
