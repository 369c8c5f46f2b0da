package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"highlighter/internal/assembly"
	"highlighter/internal/config"
	"highlighter/internal/encoder"
	"highlighter/internal/logging"
	"highlighter/internal/media/ffprobe"
	"highlighter/internal/services"
	"highlighter/internal/transcode"
)

// MergedName is the file name of the joined source inside the normalized
// directory.
const MergedName = "merged.mp4"

// Executor runs ffmpeg commands with the resilient retry policy and reports
// whether each fell back to the software encoder.
type Executor interface {
	Execute(ctx context.Context, args []string, description string) error
	Run(ctx context.Context, args []string, description string) (transcode.Report, error)
}

// Collect lists input videos with an accepted extension, sorted by name.
func Collect(cfg *config.Config) ([]string, error) {
	entries, err := os.ReadDir(cfg.Paths.InputDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, services.Wrap(services.ErrNotFound, "ingest", "collect", cfg.Paths.InputDir, err)
		}
		return nil, services.Wrap(services.ErrConfiguration, "ingest", "collect", cfg.Paths.InputDir, err)
	}
	var files []string
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		if cfg.HasExtension(entry.Name()) {
			files = append(files, filepath.Join(cfg.Paths.InputDir, entry.Name()))
		}
	}
	sort.Strings(files)
	if len(files) == 0 {
		return nil, services.Wrap(services.ErrValidation, "ingest", "collect",
			fmt.Sprintf("no videos with extensions %s in %s", strings.Join(cfg.Scenes.Extensions, ", "), cfg.Paths.InputDir), nil)
	}
	return files, nil
}

// NormalizeArgs scales input to 1920x1080 at 30 fps with exactly one video
// and one stereo AAC stream. Inputs without audio get generated silence.
func NormalizeArgs(input string, hasAudio bool, profile encoder.Profile, output string) []string {
	args := []string{"-y", "-threads", "0"}
	args = append(args, profile.HWAccelArgs()...)
	args = append(args, "-i", input)
	if !hasAudio {
		args = append(args, encoder.SilentAudioInput()...)
	}
	args = append(args, "-vf", "scale=1920:1080", "-r", "30", "-map", "0:v:0")
	if hasAudio {
		args = append(args, "-map", "0:a:0")
	} else {
		args = append(args, "-map", "1:a:0", "-shortest")
	}
	args = append(args, profile.EncodeArgs()...)
	args = append(args, encoder.AudioArgs()...)
	return append(args, output)
}

// Ingester prepares the merged source.
type Ingester struct {
	exec          Executor
	dir           string
	probe         ffprobe.Prober
	ffprobeBinary string
	logger        *slog.Logger
}

// Option configures an Ingester.
type Option func(*Ingester)

// WithProbe inspects each input for an audio stream. Without it every input
// is assumed to carry audio.
func WithProbe(probe ffprobe.Prober, binary string) Option {
	return func(i *Ingester) {
		i.probe = probe
		i.ffprobeBinary = binary
	}
}

// New builds an Ingester writing into normalizedDir.
func New(exec Executor, normalizedDir string, logger *slog.Logger, opts ...Option) *Ingester {
	i := &Ingester{exec: exec, dir: normalizedDir, logger: logging.NewComponentLogger(logger, "ingest")}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

func (i *Ingester) hasAudio(ctx context.Context, input string) (bool, error) {
	if i.probe == nil {
		return true, nil
	}
	res, err := i.probe(ctx, i.ffprobeBinary, input)
	if err != nil {
		return false, err
	}
	return res.HasAudio(), nil
}

// Result lists what Prepare produced.
type Result struct {
	Merged     string
	Normalized []string
}

// Prepare normalizes inputs in order and concatenates them. Files it wrote
// are removed when it fails.
func (i *Ingester) Prepare(ctx context.Context, inputs []string, profile encoder.Profile) (Result, error) {
	logger := logging.WithContext(ctx, i.logger)
	if err := os.MkdirAll(i.dir, 0o755); err != nil {
		return Result{}, services.Wrap(services.ErrConfiguration, "ingest", "prepare", i.dir, err)
	}

	var res Result
	ok := false
	defer func() {
		if !ok {
			Cleanup(res)
		}
	}()

	downgraded := 0
	for n, input := range inputs {
		base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
		output := filepath.Join(i.dir, fmt.Sprintf("%03d_%s.mp4", n, base))
		audio, err := i.hasAudio(ctx, input)
		if err != nil {
			return res, services.Wrap(services.ErrExternalTool, "ingest", "inspect", input, err)
		}
		logger.Info("normalizing input",
			logging.String("input", input),
			logging.Int("position", n+1),
			logging.Int("total", len(inputs)),
			logging.Bool("has_audio", audio),
		)
		report, err := i.exec.Run(ctx, NormalizeArgs(input, audio, profile, output), "normalize "+filepath.Base(input))
		if err != nil {
			_ = os.Remove(output)
			return res, transcode.WrapStage("ingest", "normalize", input, err)
		}
		if report.Downgraded {
			downgraded++
		}
		res.Normalized = append(res.Normalized, output)
	}

	merged := filepath.Join(i.dir, MergedName)
	manifest := filepath.Join(i.dir, "all_videos.txt")
	defer os.Remove(manifest)
	if err := assembly.WriteManifest(manifest, res.Normalized); err != nil {
		return res, transcode.WrapStage("ingest", "manifest", manifest, err)
	}
	concat := assembly.CopyConcatArgs(manifest, merged)
	if downgraded > 0 && downgraded < len(inputs) {
		logger.Info("inputs encoded by different codecs; re-encoding on concatenation", logging.Args(
			logging.DecisionAttrs("ingest_concat", "re-encode",
				fmt.Sprintf("%d of %d inputs fell back to software", downgraded, len(inputs)))...)...)
		concat = assembly.ConcatArgs(manifest, profile, merged)
	}
	if err := i.exec.Execute(ctx, concat, "concatenate inputs"); err != nil {
		_ = os.Remove(merged)
		return res, transcode.WrapStage("ingest", "concatenate", merged, err)
	}
	res.Merged = merged
	ok = true
	logger.Info("inputs merged",
		logging.String("merged", merged),
		logging.Int("inputs", len(inputs)),
		logging.String(logging.FieldEventType, "ingest_complete"),
	)
	return res, nil
}

// Cleanup removes every file Prepare produced.
func Cleanup(res Result) {
	for _, path := range res.Normalized {
		_ = os.Remove(path)
	}
	if res.Merged != "" {
		_ = os.Remove(res.Merged)
	}
}
