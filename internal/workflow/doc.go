// Package workflow runs one highlight job end to end.
//
// The Manager takes the work directory lock, gates the run on preflight
// checks, and then drives the stages in order: encoder negotiation, input
// normalization, scene detection, scoring and selection, clip extraction,
// assembly, and the optional vertical export. Each stage runs through
// stageexec so logs carry the run ID and stage name with a duration.
//
// Every run gets a scratch directory under <work_dir>/runs that is removed
// when the run ends, a JSON run log under <log_dir>/runs, a row in the run
// history database, and (when configured) a Prometheus textfile with the
// run's command and scene metrics. A run in which no clip survives ends with
// assembly.ErrNoValidScenes, which callers report as its own outcome.
package workflow
