// Package ffprobe decodes the ffprobe fields highlighter relies on: stream
// types for output verification and container duration for scene detection.
package ffprobe
