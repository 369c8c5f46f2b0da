// Package metrics provides Prometheus instrumentation for highlighter runs.
//
// A Recorder owns a private registry for the lifetime of one run. When
// metrics.textfile_path is set the registry is written in the node_exporter
// textfile format at the end of the run, so scheduled runs can be monitored
// without a long-lived HTTP endpoint. All metrics are prefixed with
// "highlighter_".
//
// # Metric Categories
//
// ## Command Metrics
//
// Fed by the resilient executor through transcode.Observer:
//   - CommandsTotal: Counter by kind, result and whether the command fell back to software
//   - CommandDuration: Histogram of wall time by kind
//
// ## Run Metrics
//
// Set by the workflow as stages complete:
//   - Scenes: Gauge of detected, selected, dropped and ramped scenes
//   - ClipsBuilt, OutputBytes, EncoderHardware
//   - RunDuration, RunOutcome, LastRunTimestamp
package metrics
