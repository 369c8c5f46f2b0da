// Package main hosts the highlighter CLI entrypoint and command graph.
//
// The Cobra-based command tree resolves configuration once, applies flag
// overrides, and hands the work to internal/workflow: `run` builds a
// highlight, `scenes` previews detection and scoring for one video, and the
// remaining commands inspect the encoder, the LUT, run history and run logs,
// check the environment, or clear scratch space. Keep this package lean:
// behaviour belongs in the internal packages and is only surfaced here.
package main
