package assembly

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/google/uuid"

	"highlighter/internal/media/ffprobe"
	"highlighter/internal/services"
)

// Verifier checks an encoded file before it replaces the final output.
type Verifier struct {
	Probe         ffprobe.Prober
	FFprobeBinary string
}

// TempSibling returns a unique temporary path next to final with the same
// extension so ffmpeg picks the right muxer.
func TempSibling(final string) string {
	dir := filepath.Dir(final)
	ext := filepath.Ext(final)
	base := filepath.Base(final)
	base = base[:len(base)-len(ext)]
	return filepath.Join(dir, "."+base+"."+uuid.NewString()[:8]+".partial"+ext)
}

// Commit validates tmp and renames it onto final. tmp is removed when it is
// rejected. It returns the committed size in bytes.
func (v Verifier) Commit(ctx context.Context, stage, tmp, final string) (int64, error) {
	info, err := os.Stat(tmp)
	if err != nil {
		return 0, services.Wrap(services.ErrValidation, stage, "verify output", tmp, err)
	}
	if info.Size() == 0 {
		_ = os.Remove(tmp)
		return 0, services.Wrap(services.ErrValidation, stage, "verify output", "output file is empty: "+final, nil)
	}
	if v.Probe != nil {
		result, err := v.Probe(ctx, v.FFprobeBinary, tmp)
		switch {
		case err == nil:
			if _, ok := result.VideoStream(); !ok {
				_ = os.Remove(tmp)
				return 0, services.Wrap(services.ErrValidation, stage, "verify output", "no video stream in "+final, nil)
			}
		case errors.Is(err, exec.ErrNotFound):
			// ffprobe missing; size check only.
		default:
			_ = os.Remove(tmp)
			return 0, services.Wrap(services.ErrValidation, stage, "verify output", "ffprobe rejected "+final, err)
		}
	}
	if err := os.Rename(tmp, final); err != nil {
		_ = os.Remove(tmp)
		return 0, fmt.Errorf("%s: commit %s: %w", stage, final, err)
	}
	return info.Size(), nil
}

// SizeMB converts bytes to mebibytes for logs.
func SizeMB(bytes int64) float64 {
	return float64(bytes) / (1024 * 1024)
}
