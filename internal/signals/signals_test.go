package signals

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"
	"math/rand/v2"
	"strings"
	"sync/atomic"
	"testing"

	"highlighter/internal/logging"
	"highlighter/internal/scenes"
	"highlighter/internal/testsupport"
	"highlighter/internal/transcode"
)

type sliceFrames struct {
	frames []image.Image
	calls  atomic.Int32
	err    error
}

func (s *sliceFrames) Frames(_ context.Context, _ string, _ scenes.TimeRange, fn func(image.Image) error) error {
	s.calls.Add(1)
	if s.err != nil {
		return s.err
	}
	for _, f := range s.frames {
		if err := fn(f); err != nil {
			return err
		}
	}
	return nil
}

func flatFrame(w, h int, v uint8) image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{v, v, v, 0xff})
		}
	}
	return img
}

func checkerFrame(w, h int) image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := uint8(0)
			if (x+y)%2 == 0 {
				v = 255
			}
			img.SetNRGBA(x, y, color.NRGBA{v, v, v, 0xff})
		}
	}
	return img
}

// panningFrames crops a fixed noise texture with a window that moves step
// pixels right per frame.
func panningFrames(w, h, count, step int) []image.Image {
	rng := rand.New(rand.NewPCG(7, 11))
	texW := w + step*count
	tex := make([]uint8, texW*h)
	for i := range tex {
		tex[i] = uint8(rng.IntN(256))
	}
	frames := make([]image.Image, 0, count)
	for k := 0; k < count; k++ {
		img := image.NewNRGBA(image.Rect(0, 0, w, h))
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				v := tex[y*texW+x+step*k]
				img.SetNRGBA(x, y, color.NRGBA{v, v, v, 0xff})
			}
		}
		frames = append(frames, img)
	}
	return frames
}

func testRange(t *testing.T) scenes.TimeRange {
	t.Helper()
	r, err := scenes.NewTimeRange(0, 2)
	if err != nil {
		t.Fatal(err)
	}
	return r
}

func TestFlatFramesHaveNoDetailOrMotion(t *testing.T) {
	src := &sliceFrames{frames: []image.Image{flatFrame(64, 48, 100), flatFrame(64, 48, 100), flatFrame(64, 48, 100)}}
	ext := NewFrameExtractor(src, nil, logging.NewNop())

	s, err := ext.Analyze(context.Background(), "in.mp4", testRange(t))
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if s.Sharpness.Frames != 3 || s.Sharpness.Mean != 0 {
		t.Fatalf("unexpected sharpness %+v", s.Sharpness)
	}
	if math.Abs(s.Brightness.Mean-100) > 1 {
		t.Fatalf("expected brightness near 100, got %v", s.Brightness.Mean)
	}
	if s.Motion.Mean != 0 || s.Camera.Magnitude != 0 || s.Camera.Instability != 0 {
		t.Fatalf("expected no motion, got %+v", s)
	}
	if s.Subjects.Frames != 0 {
		t.Fatalf("expected no subject samples without a counter, got %+v", s.Subjects)
	}
}

func TestCheckerboardIsSharp(t *testing.T) {
	src := &sliceFrames{frames: []image.Image{checkerFrame(32, 32)}}
	ext := NewFrameExtractor(src, nil, logging.NewNop())
	m, err := ext.Sharpness(context.Background(), "in.mp4", testRange(t))
	if err != nil {
		t.Fatalf("Sharpness: %v", err)
	}
	if m.Mean <= 1000 {
		t.Fatalf("expected high Laplacian variance, got %v", m.Mean)
	}
}

func TestPanningCameraReportsSteadyMotion(t *testing.T) {
	src := &sliceFrames{frames: panningFrames(128, 96, 5, 2)}
	ext := NewFrameExtractor(src, nil, logging.NewNop())
	cam, err := ext.CameraMotion(context.Background(), "in.mp4", testRange(t))
	if err != nil {
		t.Fatalf("CameraMotion: %v", err)
	}
	if math.Abs(cam.Magnitude-2) > 0.01 {
		t.Fatalf("expected magnitude 2, got %v", cam.Magnitude)
	}
	if cam.Instability > 0.01 {
		t.Fatalf("expected uniform pan to be stable, got %v", cam.Instability)
	}
	motion, _ := ext.Motion(context.Background(), "in.mp4", testRange(t))
	if motion.Mean <= 0 || motion.Frames != 4 {
		t.Fatalf("expected pixel motion across 4 pairs, got %+v", motion)
	}
}

func TestExtractorDecodesEachRangeOnce(t *testing.T) {
	src := &sliceFrames{frames: []image.Image{flatFrame(16, 16, 10)}}
	ext := NewFrameExtractor(src, nil, logging.NewNop())
	ctx := context.Background()
	r := testRange(t)
	_, _ = ext.Sharpness(ctx, "in.mp4", r)
	_, _ = ext.Brightness(ctx, "in.mp4", r)
	_, _ = ext.CameraMotion(ctx, "in.mp4", r)
	if got := src.calls.Load(); got != 1 {
		t.Fatalf("expected one decode, got %d", got)
	}
	other, _ := scenes.NewTimeRange(2, 4)
	_, _ = ext.Motion(ctx, "in.mp4", other)
	if got := src.calls.Load(); got != 2 {
		t.Fatalf("expected a second decode for a new range, got %d", got)
	}
}

func TestExtractorPropagatesDecodeErrors(t *testing.T) {
	boom := errors.New("decode failed")
	src := &sliceFrames{err: boom}
	ext := NewFrameExtractor(src, nil, logging.NewNop())
	for range 2 {
		if _, err := ext.Brightness(context.Background(), "in.mp4", testRange(t)); !errors.Is(err, boom) {
			t.Fatalf("expected decode error, got %v", err)
		}
	}
	if got := src.calls.Load(); got != 1 {
		t.Fatalf("decode failures should be remembered, got %d decodes", got)
	}
}

type cancellingFrames struct {
	sliceFrames
	cancel context.CancelFunc
}

func (c *cancellingFrames) Frames(ctx context.Context, source string, r scenes.TimeRange, fn func(image.Image) error) error {
	if c.cancel != nil {
		c.calls.Add(1)
		c.cancel()
		c.cancel = nil
		return ctx.Err()
	}
	return c.sliceFrames.Frames(ctx, source, r, fn)
}

func TestExtractorRecomputesAfterCancelledDecode(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	src := &cancellingFrames{sliceFrames: sliceFrames{frames: []image.Image{flatFrame(16, 16, 10)}}, cancel: cancel}
	ext := NewFrameExtractor(src, nil, logging.NewNop())
	r := testRange(t)

	if _, err := ext.Sharpness(ctx, "in.mp4", r); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
	m, err := ext.Sharpness(context.Background(), "in.mp4", r)
	if err != nil || m.Frames != 1 {
		t.Fatalf("expected a fresh decode after cancellation, got %+v %v", m, err)
	}
	if _, err := ext.Brightness(context.Background(), "in.mp4", r); err != nil {
		t.Fatalf("Brightness: %v", err)
	}
	if got := src.calls.Load(); got != 2 {
		t.Fatalf("expected the cancelled decode plus one more, got %d", got)
	}
}

type fixedCounter struct {
	n     int
	calls atomic.Int32
}

func (c *fixedCounter) Count(context.Context, image.Image) (int, error) {
	c.calls.Add(1)
	return c.n, nil
}

func TestSubjectsSampledPeriodically(t *testing.T) {
	frames := make([]image.Image, 31)
	for i := range frames {
		frames[i] = flatFrame(16, 16, 50)
	}
	counter := &fixedCounter{n: 2}
	ext := NewFrameExtractor(&sliceFrames{frames: frames}, counter, logging.NewNop())
	m, err := ext.Subjects(context.Background(), "in.mp4", testRange(t))
	if err != nil {
		t.Fatalf("Subjects: %v", err)
	}
	if counter.calls.Load() != 3 || m.Frames != 3 || m.Mean != 2 {
		t.Fatalf("unexpected subject sampling: calls=%d %+v", counter.calls.Load(), m)
	}
}

func TestCommandCounterParsesStdout(t *testing.T) {
	runner := &testsupport.FakeRunner{Handler: func(call testsupport.Call) (transcode.Result, error) {
		return transcode.Result{Stdout: " 3\n"}, nil
	}}
	counter := CommandCounter{Command: "detect-people --min-confidence 0.5", Runner: runner, TempDir: t.TempDir()}
	n, err := counter.Count(context.Background(), flatFrame(8, 8, 0))
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 3 {
		t.Fatalf("expected 3, got %d", n)
	}
	calls := runner.Calls()
	if len(calls) != 1 || calls[0].Name != "detect-people" || !strings.HasSuffix(calls[0].Output(), ".png") {
		t.Fatalf("unexpected call %+v", calls)
	}
	if calls[0].Args[0] != "--min-confidence" {
		t.Fatalf("expected command flags before the frame path, got %v", calls[0].Args)
	}
}

func TestCommandCounterRejectsGarbage(t *testing.T) {
	runner := &testsupport.FakeRunner{Handler: func(testsupport.Call) (transcode.Result, error) {
		return transcode.Result{Stdout: "people: many"}, nil
	}}
	counter := CommandCounter{Command: "detect", Runner: runner, TempDir: t.TempDir()}
	if _, err := counter.Count(context.Background(), flatFrame(8, 8, 0)); err == nil {
		t.Fatal("expected parse error")
	}
}

type countingExtractor struct {
	Extractor
	calls atomic.Int32
}

func (c *countingExtractor) CameraMotion(context.Context, string, scenes.TimeRange) (CameraMotion, error) {
	c.calls.Add(1)
	return CameraMotion{Magnitude: 1.5, Instability: 0.4}, nil
}

func TestCameraCacheComputesOncePerRange(t *testing.T) {
	inner := &countingExtractor{}
	cache := NewCameraCache(inner)
	r := testRange(t)
	for range 3 {
		cam, err := cache.CameraMotion(context.Background(), "in.mp4", r)
		if err != nil || cam.Magnitude != 1.5 {
			t.Fatalf("unexpected result %+v %v", cam, err)
		}
	}
	if inner.calls.Load() != 1 {
		t.Fatalf("expected one computation, got %d", inner.calls.Load())
	}
}

type timeoutOnceExtractor struct {
	Extractor
	calls atomic.Int32
}

func (c *timeoutOnceExtractor) CameraMotion(context.Context, string, scenes.TimeRange) (CameraMotion, error) {
	if c.calls.Add(1) == 1 {
		return CameraMotion{}, fmt.Errorf("sample frames: %w", context.DeadlineExceeded)
	}
	return CameraMotion{Magnitude: 0.5}, nil
}

func TestCameraCacheDoesNotKeepContextFailures(t *testing.T) {
	inner := &timeoutOnceExtractor{}
	cache := NewCameraCache(inner)
	r := testRange(t)

	if _, err := cache.CameraMotion(context.Background(), "in.mp4", r); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got %v", err)
	}
	for range 2 {
		cam, err := cache.CameraMotion(context.Background(), "in.mp4", r)
		if err != nil || cam.Magnitude != 0.5 {
			t.Fatalf("expected recomputed motion, got %+v %v", cam, err)
		}
	}
	if got := inner.calls.Load(); got != 2 {
		t.Fatalf("expected two computations, got %d", got)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	other, _ := scenes.NewTimeRange(2, 4)
	if _, err := cache.CameraMotion(ctx, "in.mp4", other); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
	if got := inner.calls.Load(); got != 2 {
		t.Fatalf("a cancelled caller must not compute, got %d calls", got)
	}
}

func TestFFmpegFramesArgs(t *testing.T) {
	r, _ := scenes.NewTimeRange(1, 3.5)
	args := strings.Join(FFmpegFrames{Width: 320, Height: 180, Stride: 2}.Args("in.mp4", r), " ")
	for _, want := range []string{"-ss 1.000", "-t 2.500", "select='not(mod(n,2))',scale=320:180", "-pix_fmt rgb24", "-f rawvideo -"} {
		if !strings.Contains(args, want) {
			t.Fatalf("args %q missing %q", args, want)
		}
	}
}
