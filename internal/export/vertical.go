package export

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	draptolib "github.com/five82/drapto"

	"highlighter/internal/assembly"
	"highlighter/internal/encoder"
	"highlighter/internal/logging"
	"highlighter/internal/transcode"
)

// verticalFilter crops the centre 9:16 column and scales it for phones.
const verticalFilter = "crop=ih*9/16:ih:(iw-ih*9/16)/2:0,scale=1080:1920"

// CropDetector reports letterbox bars in a video.
type CropDetector func(ctx context.Context, path string) (*draptolib.CropDetectionResult, error)

// Executor runs ffmpeg commands with the resilient retry policy.
type Executor interface {
	Execute(ctx context.Context, args []string, description string) error
}

// Vertical renders 9:16 derivatives.
type Vertical struct {
	exec     Executor
	verifier assembly.Verifier
	detect   CropDetector
	logger   *slog.Logger
}

// NewVertical builds the exporter. A nil detect skips letterbox removal.
func NewVertical(exec Executor, verifier assembly.Verifier, detect CropDetector, logger *slog.Logger) *Vertical {
	return &Vertical{
		exec:     exec,
		verifier: verifier,
		detect:   detect,
		logger:   logging.NewComponentLogger(logger, "export"),
	}
}

// DraptoCropDetector adapts drapto's crop detection.
func DraptoCropDetector() CropDetector {
	return func(ctx context.Context, path string) (*draptolib.CropDetectionResult, error) {
		return draptolib.DetectCrop(ctx, path)
	}
}

// VerticalFilter returns the filter chain, prefixed with letterbox when set.
func VerticalFilter(letterbox string) string {
	letterbox = strings.TrimSpace(letterbox)
	if letterbox == "" {
		return verticalFilter
	}
	if !strings.HasPrefix(letterbox, "crop=") {
		letterbox = "crop=" + letterbox
	}
	return letterbox + "," + verticalFilter
}

// VerticalArgs builds the single-pass export command.
func VerticalArgs(input, filter string, profile encoder.Profile, output string) []string {
	args := []string{"-y", "-threads", "0"}
	args = append(args, profile.HWAccelArgs()...)
	args = append(args, "-i", input, "-vf", filter)
	args = append(args, profile.EncodeArgs()...)
	return append(args, output)
}

// Export writes the vertical rendition of input to output and returns its
// size in bytes.
func (v *Vertical) Export(ctx context.Context, input string, profile encoder.Profile, output string) (int64, error) {
	logger := logging.WithContext(ctx, v.logger)
	filter := VerticalFilter(v.letterbox(ctx, input))

	if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
		return 0, transcode.WrapStage("export", "prepare output", output, err)
	}
	tmp := assembly.TempSibling(output)
	defer os.Remove(tmp)
	if err := v.exec.Execute(ctx, VerticalArgs(input, filter, profile, tmp), "export vertical"); err != nil {
		return 0, transcode.WrapStage("export", "vertical", output, err)
	}
	size, err := v.verifier.Commit(ctx, "export", tmp, output)
	if err != nil {
		return 0, err
	}
	logger.Info("vertical export complete",
		logging.String("output", output),
		logging.Float64("size_mb", assembly.SizeMB(size)),
		logging.String(logging.FieldEventType, "vertical_complete"),
	)
	return size, nil
}

func (v *Vertical) letterbox(ctx context.Context, input string) string {
	if v.detect == nil {
		return ""
	}
	logger := logging.WithContext(ctx, v.logger)
	result, err := v.detect(ctx, input)
	if err != nil {
		logging.WarnWithContext(logger, "crop detection failed; exporting without letterbox removal", "crop_detect_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "run highlighter doctor to confirm ffmpeg works"),
			logging.String(logging.FieldImpact, "black bars may remain in the vertical export"),
		)
		return ""
	}
	if result == nil || !result.Required {
		reason := "no letterbox detected"
		if result != nil && result.MultipleRatios {
			reason = "multiple aspect ratios detected"
		}
		logger.Debug("letterbox crop skipped", logging.Args(logging.DecisionAttrs("letterbox_crop", "skipped", reason)...)...)
		return ""
	}
	logger.Info("letterbox crop applied", logging.Args(append(
		logging.DecisionAttrs("letterbox_crop", "applied", result.Message),
		logging.String("crop_filter", result.CropFilter),
	)...)...)
	return result.CropFilter
}
