package signals

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"sync"

	"highlighter/internal/config"
	"highlighter/internal/logging"
	"highlighter/internal/scenes"
	"highlighter/internal/transcode"
)

// subjectEvery samples subjects on one in this many analysed frames.
const subjectEvery = 15

type rangeKey struct {
	source string
	r      scenes.TimeRange
}

// FrameExtractor implements Extractor by decoding each scene once and caching
// its Summary for the lifetime of the extractor.
type FrameExtractor struct {
	source  FrameSource
	counter SubjectCounter
	logger  *slog.Logger

	mu    sync.Mutex
	cache map[rangeKey]*memo[Summary]
}

// NewFrameExtractor builds an extractor over source. counter may be nil, in
// which case every scene reports zero subjects.
func NewFrameExtractor(source FrameSource, counter SubjectCounter, logger *slog.Logger) *FrameExtractor {
	return &FrameExtractor{
		source:  source,
		counter: counter,
		logger:  logging.NewComponentLogger(logger, "signals"),
		cache:   make(map[rangeKey]*memo[Summary]),
	}
}

// NewFromConfig wires the ffmpeg frame sampler and, when configured, the
// external subject command.
func NewFromConfig(cfg *config.Config, runner transcode.Runner, tempDir string, logger *slog.Logger) *FrameExtractor {
	source := FFmpegFrames{
		Binary: cfg.Encoder.FFmpegBinary,
		Width:  cfg.Signals.SampleWidth,
		Height: cfg.Signals.SampleHeight,
		Stride: cfg.Signals.FrameStride,
	}
	var counter SubjectCounter
	if cfg.Signals.SubjectCommand != "" {
		counter = CommandCounter{Command: cfg.Signals.SubjectCommand, Runner: runner, TempDir: tempDir}
	}
	return NewFrameExtractor(source, counter, logger)
}

// Analyze returns every signal for r, decoding the scene on first use.
func (e *FrameExtractor) Analyze(ctx context.Context, source string, r scenes.TimeRange) (Summary, error) {
	key := rangeKey{source: source, r: r}
	e.mu.Lock()
	entry, ok := e.cache[key]
	if !ok {
		entry = &memo[Summary]{}
		e.cache[key] = entry
	}
	e.mu.Unlock()

	return entry.get(ctx, func(ctx context.Context) (Summary, error) {
		return e.analyze(ctx, source, r)
	})
}

func (e *FrameExtractor) analyze(ctx context.Context, source string, r scenes.TimeRange) (Summary, error) {
	if !r.Valid() {
		return Summary{}, fmt.Errorf("analyze %s: invalid range %s", source, r)
	}
	acc := &accumulator{}
	index := 0
	err := e.source.Frames(ctx, source, r, func(frame image.Image) error {
		acc.addFrame(frame)
		if e.counter != nil && index%subjectEvery == 0 {
			count, err := e.counter.Count(ctx, frame)
			if err != nil {
				return err
			}
			acc.subjects.add(float64(count))
		}
		index++
		return nil
	})
	if err != nil {
		return Summary{}, fmt.Errorf("analyze %s [%s]: %w", source, r, err)
	}
	summary := acc.summary()
	logging.WithContext(ctx, e.logger).Debug("scene analysed",
		logging.String("range", r.String()),
		logging.Int("frames", summary.Sharpness.Frames),
		logging.Float64("sharpness", summary.Sharpness.Mean),
		logging.Float64("brightness", summary.Brightness.Mean),
		logging.Float64("subjects", summary.Subjects.Mean),
		logging.Float64("motion", summary.Motion.Mean),
		logging.Float64("camera_motion", summary.Camera.Magnitude),
		logging.Float64("camera_instability", summary.Camera.Instability),
	)
	return summary, nil
}

// Sharpness implements Extractor.
func (e *FrameExtractor) Sharpness(ctx context.Context, source string, r scenes.TimeRange) (Measurement, error) {
	s, err := e.Analyze(ctx, source, r)
	return s.Sharpness, err
}

// Brightness implements Extractor.
func (e *FrameExtractor) Brightness(ctx context.Context, source string, r scenes.TimeRange) (Measurement, error) {
	s, err := e.Analyze(ctx, source, r)
	return s.Brightness, err
}

// Subjects implements Extractor.
func (e *FrameExtractor) Subjects(ctx context.Context, source string, r scenes.TimeRange) (Measurement, error) {
	s, err := e.Analyze(ctx, source, r)
	return s.Subjects, err
}

// Motion implements Extractor.
func (e *FrameExtractor) Motion(ctx context.Context, source string, r scenes.TimeRange) (Measurement, error) {
	s, err := e.Analyze(ctx, source, r)
	return s.Motion, err
}

// CameraMotion implements Extractor.
func (e *FrameExtractor) CameraMotion(ctx context.Context, source string, r scenes.TimeRange) (CameraMotion, error) {
	s, err := e.Analyze(ctx, source, r)
	return s.Camera, err
}
