package signals

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"os/exec"
	"strings"

	"highlighter/internal/scenes"
)

// FrameSource decodes sampled frames of a time range and hands each to fn in
// presentation order. Returning an error from fn stops decoding.
type FrameSource interface {
	Frames(ctx context.Context, source string, r scenes.TimeRange, fn func(image.Image) error) error
}

// FFmpegFrames streams raw RGB frames from ffmpeg's stdout.
type FFmpegFrames struct {
	Binary string
	Width  int
	Height int
	// Stride keeps every Stride-th decoded frame.
	Stride int
}

// Args builds the frame sampling command for r.
func (f FFmpegFrames) Args(source string, r scenes.TimeRange) []string {
	stride := max(f.Stride, 1)
	filter := fmt.Sprintf("select='not(mod(n,%d))',scale=%d:%d", stride, f.Width, f.Height)
	return []string{
		"-hide_banner", "-loglevel", "error", "-nostdin",
		"-ss", r.StartArg(), "-i", source, "-t", r.DurationArg(),
		"-an", "-vf", filter, "-fps_mode", "vfr",
		"-pix_fmt", "rgb24", "-f", "rawvideo", "-",
	}
}

// Frames implements FrameSource.
func (f FFmpegFrames) Frames(ctx context.Context, source string, r scenes.TimeRange, fn func(image.Image) error) error {
	if f.Width <= 0 || f.Height <= 0 {
		return fmt.Errorf("frame sampler: invalid size %dx%d", f.Width, f.Height)
	}
	binary := f.Binary
	if binary == "" {
		binary = "ffmpeg"
	}
	cmd := exec.CommandContext(ctx, binary, f.Args(source, r)...) //nolint:gosec
	var stderr strings.Builder
	cmd.Stderr = &stderr
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("frame sampler pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("frame sampler start: %w", err)
	}

	frameSize := f.Width * f.Height * 3
	buf := make([]byte, frameSize)
	var loopErr error
	for {
		if _, err := io.ReadFull(stdout, buf); err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
				loopErr = fmt.Errorf("frame sampler read: %w", err)
			}
			break
		}
		if err := fn(rgbToNRGBA(buf, f.Width, f.Height)); err != nil {
			loopErr = err
			break
		}
	}
	if loopErr != nil {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
		return loopErr
	}
	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("frame sampler: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return nil
}

func rgbToNRGBA(rgb []byte, w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i, j := 0, 0; i+2 < len(rgb); i, j = i+3, j+4 {
		img.Pix[j] = rgb[i]
		img.Pix[j+1] = rgb[i+1]
		img.Pix[j+2] = rgb[i+2]
		img.Pix[j+3] = 0xff
	}
	return img
}
