package assembly

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"highlighter/internal/clips"
	"highlighter/internal/colorgrade"
	"highlighter/internal/config"
	"highlighter/internal/encoder"
	"highlighter/internal/logging"
	"highlighter/internal/media/ffprobe"
	"highlighter/internal/transcode"
)

// ErrNoValidScenes is returned when no clip survived the pipeline. It is an
// expected outcome, not a defect.
var ErrNoValidScenes = errors.New("no valid scenes")

// Executor runs ffmpeg commands with the resilient retry policy.
type Executor interface {
	Execute(ctx context.Context, args []string, description string) error
}

// Options configure the stage.
type Options struct {
	LUTPath      string
	MinLUTBytes  int64
	ColorEnabled bool
	WorkDir      string
	// Title is written as container metadata when non-empty.
	Title string
}

// OptionsFromConfig reads paths and [color].
func OptionsFromConfig(cfg *config.Config, workDir string) Options {
	return Options{
		LUTPath:      cfg.Paths.LUTPath,
		MinLUTBytes:  cfg.Color.MinLUTBytes,
		ColorEnabled: cfg.Color.Enabled,
		WorkDir:      workDir,
	}
}

// Result describes the committed highlight.
type Result struct {
	Output  string
	Bytes   int64
	Graded  bool
	LUTPath string
}

// Stage assembles clips into the final video.
type Stage struct {
	exec     Executor
	verifier Verifier
	opts     Options
	logger   *slog.Logger
}

// NewStage builds an assembly stage.
func NewStage(exec Executor, verifier Verifier, opts Options, logger *slog.Logger) *Stage {
	return &Stage{
		exec:     exec,
		verifier: verifier,
		opts:     opts,
		logger:   logging.NewComponentLogger(logger, "assembly"),
	}
}

// NewStageFromConfig wires ffprobe verification from cfg.
func NewStageFromConfig(cfg *config.Config, exec Executor, workDir string, logger *slog.Logger) *Stage {
	verifier := Verifier{Probe: ffprobe.Inspect, FFprobeBinary: cfg.Encoder.FFprobeBinary}
	return NewStage(exec, verifier, OptionsFromConfig(cfg, workDir), logger)
}

// ConcatArgs joins the manifest entries into output, re-encoding video
// through profile and audio into the shared layout. Entries encoded by
// different codecs join cleanly this way.
func ConcatArgs(manifest string, profile encoder.Profile, output string) []string {
	args := []string{"-y", "-threads", "0"}
	args = append(args, profile.HWAccelArgs()...)
	args = append(args, "-f", "concat", "-safe", "0", "-i", manifest)
	args = append(args, profile.EncodeArgs()...)
	args = append(args, encoder.AudioArgs()...)
	return append(args, output)
}

// CopyConcatArgs stream-copies the manifest entries into output. Every entry
// must come from the same encoder with the same stream layout.
func CopyConcatArgs(manifest, output string) []string {
	return []string{"-y", "-threads", "0", "-f", "concat", "-safe", "0", "-i", manifest, "-c", "copy", output}
}

// FinalArgs re-encodes input into output, applying lut and title when
// non-empty.
func FinalArgs(input, lut, title string, profile encoder.Profile, output string) []string {
	args := []string{"-y", "-threads", "0"}
	args = append(args, profile.HWAccelArgs()...)
	args = append(args, "-i", input)
	if lut != "" {
		args = append(args, "-vf", "lut3d="+escapeFilterValue(lut))
	}
	args = append(args, profile.EncodeArgs()...)
	if title != "" {
		args = append(args, "-metadata", "title="+title)
	}
	return append(args, output)
}

// Assemble joins artifacts into output. Clips, manifest and merged file are
// removed whatever the outcome.
func (s *Stage) Assemble(ctx context.Context, artifacts []clips.Artifact, profile encoder.Profile, output string) (Result, error) {
	defer clips.Remove(s.logger, artifacts)
	logger := logging.WithContext(ctx, s.logger)

	if len(artifacts) == 0 {
		logger.Info("no clips survived selection",
			logging.String(logging.FieldEventType, "no_valid_scenes"))
		return Result{}, ErrNoValidScenes
	}

	id := uuid.NewString()
	manifest := filepath.Join(s.opts.WorkDir, "concat_"+id+".txt")
	merged := filepath.Join(s.opts.WorkDir, "merged_"+id+".mp4")
	defer removeQuietly(manifest, merged)

	files := make([]string, len(artifacts))
	for i, a := range artifacts {
		files[i] = a.Path
	}
	if err := WriteManifest(manifest, files); err != nil {
		return Result{}, transcode.WrapStage("assembly", "manifest", manifest, err)
	}
	if err := s.exec.Execute(ctx, ConcatArgs(manifest, profile, merged), "concatenate clips"); err != nil {
		return Result{}, transcode.WrapStage("assembly", "concatenate", merged, err)
	}

	if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
		return Result{}, transcode.WrapStage("assembly", "prepare output", output, err)
	}
	tmp := TempSibling(output)
	defer removeQuietly(tmp)

	lut := s.resolveLUT(ctx)
	graded := false
	if lut != "" {
		err := s.exec.Execute(ctx, FinalArgs(merged, lut, s.opts.Title, profile, tmp), "apply LUT and finalize")
		switch {
		case err == nil:
			graded = true
		case ctx.Err() != nil:
			return Result{}, ctx.Err()
		default:
			logging.WarnWithContext(logger, "color grade failed; finalizing without LUT", "lut_apply_failed",
				logging.String("lut", lut),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "re-export the LUT or check ffmpeg lut3d support"),
				logging.String(logging.FieldImpact, "highlight is delivered ungraded"),
			)
		}
	}
	if !graded {
		if err := s.exec.Execute(ctx, FinalArgs(merged, "", s.opts.Title, profile, tmp), "finalize without LUT"); err != nil {
			return Result{}, transcode.WrapStage("assembly", "finalize", output, err)
		}
	}

	size, err := s.verifier.Commit(ctx, "assembly", tmp, output)
	if err != nil {
		return Result{}, err
	}
	logger.Info("highlight assembled",
		logging.String("output", output),
		logging.Int("clips", len(artifacts)),
		logging.Bool("graded", graded),
		logging.Float64("size_mb", SizeMB(size)),
		logging.String(logging.FieldEventType, "highlight_complete"),
	)
	res := Result{Output: output, Bytes: size, Graded: graded}
	if graded {
		res.LUTPath = lut
	}
	return res, nil
}

// resolveLUT returns the absolute LUT path, or "" when grading is bypassed.
func (s *Stage) resolveLUT(ctx context.Context) string {
	logger := logging.WithContext(ctx, s.logger)
	if !s.opts.ColorEnabled {
		logger.Info("color grading disabled", logging.Args(
			logging.DecisionAttrs("lut", "bypassed", "color.enabled is false")...)...)
		return ""
	}
	in, err := colorgrade.Inspect(s.opts.LUTPath, s.opts.MinLUTBytes)
	if in.TooSmall {
		logging.WarnWithContext(logger, "LUT file is suspiciously small", "lut_small",
			logging.String("lut", in.Path),
			logging.Int64("bytes", in.Bytes),
			logging.Int64("min_bytes", s.opts.MinLUTBytes),
			logging.String(logging.FieldErrorHint, "the file may be truncated"),
			logging.String(logging.FieldImpact, "grading is still attempted"),
		)
	}
	if err != nil {
		logging.WarnWithContext(logger, "LUT unusable; skipping color grade", "lut_bypass",
			append(logging.DecisionAttrs("lut", "bypassed", err.Error()),
				logging.String("lut", s.opts.LUTPath),
				logging.String(logging.FieldErrorHint, "check paths.lut_path points to a valid .cube file"),
				logging.String(logging.FieldImpact, "highlight is delivered ungraded"),
			)...)
		return ""
	}
	logger.Debug("LUT validated",
		logging.String("lut", in.Path),
		logging.Int("size", in.Table.Size),
		logging.Int("rows", in.Table.Rows),
	)
	return in.Path
}

func removeQuietly(paths ...string) {
	for _, p := range paths {
		_ = os.Remove(p)
	}
}
