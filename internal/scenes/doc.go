// Package scenes defines scene time ranges and the shot-boundary detection
// collaborator.
//
// TimeRange is the immutable [start, end) interval every later stage keys on.
// Detector abstracts shot-boundary detection; FFmpegDetector is the default
// implementation built on ffmpeg's scene-change score.
package scenes
