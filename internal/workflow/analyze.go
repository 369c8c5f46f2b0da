package workflow

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"highlighter/internal/clips"
	"highlighter/internal/logging"
	"highlighter/internal/scoring"
	"highlighter/internal/services"
	"highlighter/internal/signals"
	"highlighter/internal/staging"
)

// SceneReport is one detected scene with its score and the treatment the clip
// pipeline would give it.
type SceneReport struct {
	Scene     scoring.ScoredScene
	Selected  bool
	Treatment clips.Treatment
}

// Analyze detects and scores the scenes of video without encoding anything.
// Reports are in detection order.
func (m *Manager) Analyze(ctx context.Context, video string) ([]SceneReport, error) {
	id := "analyze-" + uuid.NewString()
	ctx = services.WithRunID(ctx, id)
	if _, err := os.Stat(video); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, services.Wrap(services.ErrNotFound, "analyze", "open video", video, err)
		}
		return nil, services.Wrap(services.ErrValidation, "analyze", "open video", video, err)
	}
	if abs, err := filepath.Abs(video); err == nil {
		video = abs
	}

	if err := os.MkdirAll(m.cfg.RunsDir(), 0o755); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "analyze", "create scratch", m.cfg.RunsDir(), err)
	}
	tempDir, err := staging.Create(m.cfg.RunsDir(), id)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "analyze", "create scratch", m.cfg.RunsDir(), err)
	}
	defer os.RemoveAll(tempDir)

	ranges, err := m.sceneDetector().Detect(ctx, video)
	if err != nil {
		return nil, err
	}
	camera := signals.NewCameraCache(m.signalExtractor(tempDir, m.logger))
	scored := scoring.NewScorer(camera, m.cfg.Selection.ScoreWorkers, m.logger).ScoreAll(ctx, video, ranges)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	chosen := make(map[int]struct{})
	for _, s := range scoring.Select(scored, m.cfg.Selection.TopFraction) {
		chosen[s.Index] = struct{}{}
	}
	thresholds := clips.ThresholdsFromConfig(m.cfg)
	reports := make([]SceneReport, 0, len(scored))
	for _, s := range scored {
		_, selected := chosen[s.Index]
		reports = append(reports, SceneReport{
			Scene:    s,
			Selected: selected,
			Treatment: clips.Classify(signals.CameraMotion{
				Magnitude:   s.CameraMotion,
				Instability: s.CameraInstability,
			}, thresholds),
		})
	}
	logging.WithContext(ctx, m.logger).Info("scene analysis complete",
		logging.String("video", video),
		logging.Int("scenes_detected", len(ranges)),
		logging.Int("scenes_selected", len(chosen)),
		logging.String(logging.FieldEventType, "analysis_complete"),
	)
	return reports, nil
}
