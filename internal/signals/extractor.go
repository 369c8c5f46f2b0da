package signals

import (
	"context"

	"highlighter/internal/scenes"
)

// Measurement is the mean of one signal across the analysed frames of a scene.
// Frames is zero when the scene produced no analysable frames.
type Measurement struct {
	Mean   float64
	Frames int
}

// CameraMotion summarises frame-to-frame motion vectors for a scene, in pixels
// at the sampling resolution. Magnitude is the mean vector length; Instability
// is the mean per-pair standard deviation of vector lengths.
type CameraMotion struct {
	Magnitude   float64
	Instability float64
}

// Extractor measures visual signals over a time range of a source video.
type Extractor interface {
	Sharpness(ctx context.Context, source string, r scenes.TimeRange) (Measurement, error)
	Brightness(ctx context.Context, source string, r scenes.TimeRange) (Measurement, error)
	Subjects(ctx context.Context, source string, r scenes.TimeRange) (Measurement, error)
	Motion(ctx context.Context, source string, r scenes.TimeRange) (Measurement, error)
	CameraMotion(ctx context.Context, source string, r scenes.TimeRange) (CameraMotion, error)
}
