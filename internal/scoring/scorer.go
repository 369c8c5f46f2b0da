package scoring

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"highlighter/internal/logging"
	"highlighter/internal/scenes"
	"highlighter/internal/services"
	"highlighter/internal/signals"
)

// Scorer scores detected scenes concurrently.
type Scorer struct {
	extractor signals.Extractor
	workers   int
	logger    *slog.Logger
}

// NewScorer builds a scorer. workers <= 0 uses GOMAXPROCS.
func NewScorer(extractor signals.Extractor, workers int, logger *slog.Logger) *Scorer {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Scorer{
		extractor: extractor,
		workers:   workers,
		logger:    logging.NewComponentLogger(logger, "scoring"),
	}
}

// ScoreAll returns one ScoredScene per range, in detection order. A failing
// scene gets score 0 and its error recorded; siblings are unaffected.
func (s *Scorer) ScoreAll(ctx context.Context, source string, ranges []scenes.TimeRange) []ScoredScene {
	results := make([]ScoredScene, len(ranges))
	jobs := make(chan int)
	var wg sync.WaitGroup
	for range min(s.workers, len(ranges)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = s.scoreOne(services.WithScene(ctx, i), source, i, ranges[i])
			}
		}()
	}
feed:
	for i := range ranges {
		select {
		case jobs <- i:
		case <-ctx.Done():
			for j := i; j < len(ranges); j++ {
				results[j] = ScoredScene{Index: j, Range: ranges[j], Err: ctx.Err()}
			}
			break feed
		}
	}
	close(jobs)
	wg.Wait()
	return results
}

func (s *Scorer) scoreOne(ctx context.Context, source string, index int, r scenes.TimeRange) ScoredScene {
	scene := ScoredScene{Index: index, Range: r}
	logger := logging.WithContext(ctx, s.logger)

	sig, cam, err := s.collect(ctx, source, r)
	if err != nil {
		scene.Err = err
		logging.WarnWithContext(logger, "scene scoring failed; scored as zero", "scene_score_failed",
			logging.String("range", r.String()),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the source file decodes cleanly over this range"),
			logging.String(logging.FieldImpact, "scene is unlikely to be selected"),
		)
		return scene
	}
	scene.Signals = sig
	scene.CameraMotion = cam.Magnitude
	scene.CameraInstability = cam.Instability
	scene.Score = Score(sig, cam.Magnitude, cam.Instability)
	logger.Debug("scene scored",
		logging.String("range", r.String()),
		logging.Float64("score", scene.Score),
		logging.Int("frames", sig.Frames),
	)
	return scene
}

func (s *Scorer) collect(ctx context.Context, source string, r scenes.TimeRange) (SceneSignals, signals.CameraMotion, error) {
	var sig SceneSignals
	sharp, err := s.extractor.Sharpness(ctx, source, r)
	if err != nil {
		return sig, signals.CameraMotion{}, fmt.Errorf("sharpness: %w", err)
	}
	bright, err := s.extractor.Brightness(ctx, source, r)
	if err != nil {
		return sig, signals.CameraMotion{}, fmt.Errorf("brightness: %w", err)
	}
	subjects, err := s.extractor.Subjects(ctx, source, r)
	if err != nil {
		return sig, signals.CameraMotion{}, fmt.Errorf("subjects: %w", err)
	}
	motion, err := s.extractor.Motion(ctx, source, r)
	if err != nil {
		return sig, signals.CameraMotion{}, fmt.Errorf("motion: %w", err)
	}
	cam, err := s.extractor.CameraMotion(ctx, source, r)
	if err != nil {
		return sig, signals.CameraMotion{}, fmt.Errorf("camera motion: %w", err)
	}
	sig = SceneSignals{
		SharpnessMean:         sharp.Mean,
		BrightnessMean:        bright.Mean,
		SubjectCountMean:      subjects.Mean,
		MotionMagnitudeMean:   motion.Mean,
		MotionInstabilityMean: cam.Instability,
		Frames:                sharp.Frames,
	}
	return sig, cam, nil
}
