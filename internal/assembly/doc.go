// Package assembly joins extracted clips into the finished highlight.
//
// The stage writes a concat manifest, stream-copies the clips into one merged
// file, grades it with a validated 3D LUT (falling back to a plain re-encode
// when the LUT is missing, malformed, or rejected by ffmpeg) and commits the
// result only after it passes an output check. Every intermediate file is
// removed on all exit paths.
package assembly
