// Package colorgrade validates 3D LUT files in the Adobe/Resolve .cube format
// before they are handed to ffmpeg's lut3d filter. A LUT that fails any check
// is bypassed by the caller rather than failing the run.
package colorgrade
