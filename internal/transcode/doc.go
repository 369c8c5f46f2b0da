// Package transcode runs ffmpeg commands with a single automatic recovery
// step.
//
// Runner abstracts process execution so tests can script exit codes and
// stderr. Executor wraps a Runner with a RetryPolicy: when a command fails it
// is rebuilt without hardware acceleration (hwaccel flags dropped, hardware
// codec and quality arguments swapped for their software counterparts) and
// attempted exactly once more. A second failure surfaces as *CommandError,
// which matches services.ErrExternalTool.
//
// Commands carrying hardware flags pass through a single-slot gate owned by
// the Executor, so concurrent callers never run two hardware encodes at once.
package transcode
