package workflow

import (
	"context"
	"errors"
	"log/slog"

	"highlighter/internal/assembly"
	"highlighter/internal/clips"
	"highlighter/internal/encoder"
	"highlighter/internal/export"
	"highlighter/internal/ingest"
	"highlighter/internal/logging"
	"highlighter/internal/metrics"
	"highlighter/internal/scenes"
	"highlighter/internal/scoring"
	"highlighter/internal/signals"
	"highlighter/internal/stageexec"
	"highlighter/internal/transcode"
)

// execute drives the pipeline stages in order. logger must not carry context
// fields; stages derive them from ctx.
func (m *Manager) execute(ctx context.Context, logger *slog.Logger, runDir string, recorder *metrics.Recorder, summary *Summary) error {
	stage := func(name string, fn stageexec.Func, done func() []logging.Attr) error {
		return stageexec.Run(ctx, stageexec.Options{Logger: logger, StageName: name, Summary: done}, fn)
	}

	var profile encoder.Profile
	if err := stage("encoder", func(ctx context.Context, _ *slog.Logger) error {
		profile = m.negotiated.Profile(ctx, m.cfg.Encoder.UseGPU)
		return nil
	}, func() []logging.Attr {
		return []logging.Attr{
			logging.String("encoder_profile", string(profile.Name())),
			logging.String("encoder_codec", profile.Codec()),
		}
	}); err != nil {
		return err
	}
	summary.EncoderProfile = profile.Name()
	if profile.Accelerated() {
		recorder.EncoderHardware.Set(1)
	}
	exec := transcode.NewExecutor(m.runner, m.cfg.Encoder.FFmpegBinary,
		encoder.RetryPolicy(encoder.SettingsFromConfig(m.cfg)),
		transcode.WithObserver(recorder),
		transcode.WithLogger(logger),
	)

	var prepared ingest.Result
	defer func() {
		if !m.cfg.Workflow.KeepNormalized {
			ingest.Cleanup(prepared)
		}
	}()
	if err := stage("ingest", func(ctx context.Context, _ *slog.Logger) error {
		inputs, err := ingest.Collect(m.cfg)
		if err != nil {
			return err
		}
		summary.Inputs = len(inputs)
		prepared, err = ingest.New(exec, m.cfg.NormalizedDir(), logger,
			ingest.WithProbe(m.probe, m.cfg.Encoder.FFprobeBinary),
		).Prepare(ctx, inputs, profile)
		return err
	}, func() []logging.Attr {
		return []logging.Attr{logging.Int("inputs", summary.Inputs), logging.String("merged", prepared.Merged)}
	}); err != nil {
		return err
	}
	source := prepared.Merged

	var ranges []scenes.TimeRange
	if err := stage("scenes", func(ctx context.Context, _ *slog.Logger) error {
		var err error
		ranges, err = m.sceneDetector().Detect(ctx, source)
		return err
	}, func() []logging.Attr {
		return []logging.Attr{logging.Int("scenes_detected", len(ranges))}
	}); err != nil {
		return err
	}
	summary.ScenesDetected = len(ranges)
	recorder.SetScenes("detected", len(ranges))

	camera := signals.NewCameraCache(m.signalExtractor(runDir, logger))
	var selected []scoring.ScoredScene
	failed := 0
	if err := stage("scoring", func(ctx context.Context, _ *slog.Logger) error {
		scored := scoring.NewScorer(camera, m.cfg.Selection.ScoreWorkers, logger).ScoreAll(ctx, source, ranges)
		if err := ctx.Err(); err != nil {
			return err
		}
		for _, s := range scored {
			if s.Err != nil {
				failed++
			}
		}
		selected = scoring.Select(scored, m.cfg.Selection.TopFraction)
		return nil
	}, func() []logging.Attr {
		return []logging.Attr{
			logging.Int("scenes_selected", len(selected)),
			logging.Int("scenes_unscored", failed),
		}
	}); err != nil {
		return err
	}
	summary.ScenesSelected = len(selected)
	recorder.SetScenes("selected", len(selected))

	var artifacts []clips.Artifact
	if err := stage("clips", func(ctx context.Context, _ *slog.Logger) error {
		pipeline := clips.NewPipeline(exec, camera, clips.ThresholdsFromConfig(m.cfg), m.cfg.Clips.Workers, runDir, logger)
		var err error
		artifacts, err = pipeline.Build(ctx, source, selected, profile)
		return err
	}, func() []logging.Attr {
		return []logging.Attr{logging.Int("clips_built", len(artifacts))}
	}); err != nil {
		return err
	}
	summary.ClipsBuilt = len(artifacts)
	summary.ScenesDropped = len(selected) - len(artifacts)
	for _, a := range artifacts {
		if a.AudioDropped {
			summary.ScenesRamped++
		}
	}
	recorder.SetScenes("dropped", summary.ScenesDropped)
	recorder.SetScenes("ramped", summary.ScenesRamped)
	recorder.ClipsBuilt.Set(float64(len(artifacts)))

	verifier := assembly.Verifier{Probe: m.probe, FFprobeBinary: m.cfg.Encoder.FFprobeBinary}
	noScenes := false
	if err := stage("assembly", func(ctx context.Context, _ *slog.Logger) error {
		opts := assembly.OptionsFromConfig(m.cfg, runDir)
		opts.Title = ingest.Title(m.cfg.Paths.InputDir)
		res, err := assembly.NewStage(exec, verifier, opts, logger).Assemble(ctx, artifacts, profile, m.cfg.HorizontalOutputPath())
		if errors.Is(err, assembly.ErrNoValidScenes) {
			noScenes = true
			return nil
		}
		if err != nil {
			return err
		}
		summary.Output = res.Output
		summary.OutputBytes = res.Bytes
		summary.Graded = res.Graded
		summary.LUTPath = res.LUTPath
		return nil
	}, func() []logging.Attr {
		return []logging.Attr{
			logging.String("output", summary.Output),
			logging.Bool("graded", summary.Graded),
		}
	}); err != nil {
		return err
	}
	if noScenes {
		return assembly.ErrNoValidScenes
	}
	recorder.OutputBytes.Set(float64(summary.OutputBytes))

	if !m.cfg.Export.Vertical {
		return nil
	}
	return stage("export", func(ctx context.Context, _ *slog.Logger) error {
		output := m.cfg.VerticalOutputPath()
		size, err := export.NewVertical(exec, verifier, m.cropDetector(), logger).Export(ctx, summary.Output, profile, output)
		if err != nil {
			return err
		}
		summary.VerticalOutput = output
		summary.VerticalBytes = size
		return nil
	}, func() []logging.Attr {
		return []logging.Attr{logging.String("vertical_output", summary.VerticalOutput)}
	})
}
