package clips

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"highlighter/internal/encoder"
	"highlighter/internal/logging"
	"highlighter/internal/scenes"
	"highlighter/internal/scoring"
	"highlighter/internal/services"
	"highlighter/internal/signals"
	"highlighter/internal/transcode"
)

// CameraSource supplies camera motion per scene.
type CameraSource interface {
	CameraMotion(ctx context.Context, source string, r scenes.TimeRange) (signals.CameraMotion, error)
}

// Executor runs one ffmpeg command with the resilient retry policy and
// reports whether it fell back to the software encoder.
type Executor interface {
	Run(ctx context.Context, args []string, description string) (transcode.Report, error)
}

// Artifact is one extracted clip on disk.
type Artifact struct {
	Path        string
	Range       scenes.TimeRange
	SceneIndex  int
	Accelerated bool
	// AudioDropped marks a ramped clip whose original audio was replaced by
	// silence.
	AudioDropped bool
}

// Pipeline extracts clips for selected scenes.
type Pipeline struct {
	exec       Executor
	camera     CameraSource
	thresholds Thresholds
	workers    int
	workDir    string
	logger     *slog.Logger
}

// NewPipeline builds a pipeline writing clips into workDir.
func NewPipeline(exec Executor, camera CameraSource, thresholds Thresholds, workers int, workDir string, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		exec:       exec,
		camera:     camera,
		thresholds: thresholds,
		workers:    max(workers, 1),
		workDir:    workDir,
		logger:     logging.NewComponentLogger(logger, "clips"),
	}
}

// ExtractArgs builds the cut command for one scene. The seek and duration
// both precede "-i" so they bound the source, not the sped-up output.
func ExtractArgs(source string, r scenes.TimeRange, profile encoder.Profile, t Treatment, output string) []string {
	args := []string{"-y", "-threads", "0"}
	args = append(args, profile.HWAccelArgs()...)
	args = append(args, "-ss", r.StartArg(), "-t", r.DurationArg(), "-i", source)
	args = append(args, t.StreamArgs()...)
	args = append(args, profile.EncodeArgs()...)
	args = append(args, encoder.AudioArgs()...)
	return append(args, output)
}

type plan struct {
	scene     scoring.ScoredScene
	treatment Treatment
}

// Build extracts every surviving scene and returns the clips in detection
// order. Any extraction failure cancels outstanding work, removes clips
// already written, and is returned.
func (p *Pipeline) Build(ctx context.Context, source string, selected []scoring.ScoredScene, profile encoder.Profile) ([]Artifact, error) {
	ordered := scoring.InDetectionOrder(selected)
	plans := make([]plan, 0, len(ordered))
	for _, scene := range ordered {
		sceneCtx := services.WithScene(ctx, scene.Index)
		t := p.classify(sceneCtx, source, scene)
		if t.Action == ActionDrop {
			continue
		}
		plans = append(plans, plan{scene: scene, treatment: t})
	}
	if len(plans) == 0 {
		return nil, nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make([]*Artifact, len(plans))
	var (
		wg       sync.WaitGroup
		errOnce  sync.Once
		firstErr error
	)
	jobs := make(chan int)
	for range min(p.workers, len(plans)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				artifact, err := p.extract(ctx, source, plans[i], profile)
				if err != nil {
					errOnce.Do(func() {
						firstErr = err
						cancel()
					})
					continue
				}
				results[i] = artifact
			}
		}()
	}
feed:
	for i := range plans {
		select {
		case jobs <- i:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	artifacts := make([]Artifact, 0, len(results))
	for _, a := range results {
		if a != nil {
			artifacts = append(artifacts, *a)
		}
	}
	if firstErr == nil && ctx.Err() != nil {
		firstErr = ctx.Err()
	}
	if firstErr != nil {
		Remove(p.logger, artifacts)
		return nil, firstErr
	}
	return artifacts, nil
}

func (p *Pipeline) classify(ctx context.Context, source string, scene scoring.ScoredScene) Treatment {
	logger := logging.WithContext(ctx, p.logger)
	cam, err := p.camera.CameraMotion(ctx, source, scene.Range)
	if err != nil {
		logging.WarnWithContext(logger, "camera motion unavailable; keeping scene at original speed", "camera_motion_failed",
			logging.String("range", scene.Range.String()),
			logging.Error(err),
			logging.String(logging.FieldImpact, "no instability gate or speed ramp for this scene"),
		)
		return Treatment{Action: ActionKeep, Reason: "camera motion unavailable", Speed: 1}
	}
	t := Classify(cam, p.thresholds)
	switch t.Action {
	case ActionDrop:
		logger.Info("scene dropped", logging.Args(append(
			logging.DecisionAttrs("instability_gate", "dropped", t.Reason),
			logging.String("range", scene.Range.String()),
		)...)...)
	case ActionRamp:
		logger.Info("scene speed ramped", logging.Args(append(
			logging.DecisionAttrs("speed_ramp", fmt.Sprintf("%gx", t.Speed), t.Reason),
			logging.String("range", scene.Range.String()),
		)...)...)
	default:
		logger.Debug("scene kept", logging.Args(append(
			logging.DecisionAttrs("speed_ramp", "original", t.Reason),
			logging.String("range", scene.Range.String()),
		)...)...)
	}
	return t
}

func (p *Pipeline) extract(ctx context.Context, source string, pl plan, profile encoder.Profile) (*Artifact, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ctx = services.WithScene(ctx, pl.scene.Index)
	output := filepath.Join(p.workDir, "clip_"+uuid.NewString()+".mp4")
	args := ExtractArgs(source, pl.scene.Range, profile, pl.treatment, output)
	description := fmt.Sprintf("extract scene %d [%s]", pl.scene.Index, pl.scene.Range)
	report, err := p.exec.Run(ctx, args, description)
	if err != nil {
		_ = os.Remove(output)
		return nil, transcode.WrapStage("clips", "extract", output, err)
	}
	logging.WithContext(ctx, p.logger).Debug("clip extracted",
		logging.String("path", output),
		logging.String("action", string(pl.treatment.Action)),
		logging.Bool("software_fallback", report.Downgraded),
	)
	return &Artifact{
		Path:         output,
		Range:        pl.scene.Range,
		SceneIndex:   pl.scene.Index,
		Accelerated:  profile.Accelerated() && !report.Downgraded,
		AudioDropped: pl.treatment.Action == ActionRamp,
	}, nil
}

// Remove deletes clip files, ignoring ones already gone.
func Remove(logger *slog.Logger, artifacts []Artifact) {
	for _, a := range artifacts {
		if err := os.Remove(a.Path); err != nil && !errors.Is(err, os.ErrNotExist) && logger != nil {
			logger.Debug("clip cleanup failed", logging.String("path", a.Path), logging.Error(err))
		}
	}
}
