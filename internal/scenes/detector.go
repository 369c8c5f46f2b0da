package scenes

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"highlighter/internal/logging"
	"highlighter/internal/media/ffprobe"
	"highlighter/internal/services"
	"highlighter/internal/transcode"
)

// Detector segments a video into ordered, non-overlapping scenes.
type Detector interface {
	Detect(ctx context.Context, path string) ([]TimeRange, error)
}

// DefaultMinSceneSeconds drops cuts that would produce slivers shorter than
// roughly fifteen frames at 30 fps.
const DefaultMinSceneSeconds = 0.5

var ptsTimePattern = regexp.MustCompile(`pts_time:\s*([0-9]+(?:\.[0-9]+)?)`)

// FFmpegDetector finds shot boundaries with ffmpeg's scene-change score
// (select='gt(scene,T)',showinfo) and closes the last scene at the ffprobe
// duration.
type FFmpegDetector struct {
	Runner          transcode.Runner
	FFmpegBinary    string
	FFprobeBinary   string
	Threshold       float64
	MinSceneSeconds float64
	Probe           ffprobe.Prober
	Logger          *slog.Logger
}

// Detect implements Detector.
func (d *FFmpegDetector) Detect(ctx context.Context, path string) ([]TimeRange, error) {
	logger := logging.WithContext(ctx, logging.NewComponentLogger(d.Logger, "scenes"))
	probe := d.Probe
	if probe == nil {
		probe = ffprobe.Inspect
	}
	info, err := probe(ctx, d.FFprobeBinary, path)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "scenes", "probe", path, err)
	}
	duration := info.DurationSeconds()
	if math.IsNaN(duration) || duration <= 0 {
		return nil, services.Wrap(services.ErrValidation, "scenes", "probe", fmt.Sprintf("%s has no usable duration", path), nil)
	}

	runner := d.Runner
	if runner == nil {
		runner = transcode.ExecRunner{}
	}
	binary := d.FFmpegBinary
	if binary == "" {
		binary = "ffmpeg"
	}
	result, err := runner.Run(ctx, binary, DetectArgs(path, d.Threshold))
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "scenes", "detect", path,
			fmt.Errorf("%w: %s", err, transcode.Tail(result.Stderr, 3)))
	}

	cuts := ParseCuts(result.Stderr)
	minLen := d.MinSceneSeconds
	if minLen <= 0 {
		minLen = DefaultMinSceneSeconds
	}
	ranges := BuildRanges(cuts, duration, minLen)
	logger.Info("scenes detected",
		logging.String("source_path", path),
		logging.Int("cut_count", len(cuts)),
		logging.Int("scene_count", len(ranges)),
		logging.Float64("duration_seconds", duration),
	)
	return ranges, nil
}

// DetectArgs builds the scene-detection ffmpeg command.
func DetectArgs(path string, threshold float64) []string {
	filter := fmt.Sprintf("select='gt(scene,%s)',showinfo", strconv.FormatFloat(threshold, 'f', -1, 64))
	return []string{"-hide_banner", "-nostats", "-i", path, "-an", "-filter:v", filter, "-f", "null", "-"}
}

// ParseCuts extracts pts_time values from showinfo output in ascending order.
func ParseCuts(stderr string) []float64 {
	var cuts []float64
	scanner := bufio.NewScanner(strings.NewReader(stderr))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.Contains(line, "showinfo") {
			continue
		}
		match := ptsTimePattern.FindStringSubmatch(line)
		if len(match) != 2 {
			continue
		}
		value, err := strconv.ParseFloat(match[1], 64)
		if err != nil {
			continue
		}
		cuts = append(cuts, value)
	}
	sort.Float64s(cuts)
	return cuts
}

// BuildRanges turns cut points into contiguous scenes covering [0, duration).
// Cuts closer than minLen to the previous boundary, or to the end, are
// ignored. With no usable cuts the whole video is one scene.
func BuildRanges(cuts []float64, duration, minLen float64) []TimeRange {
	if duration <= 0 {
		return nil
	}
	ranges := make([]TimeRange, 0, len(cuts)+1)
	start := 0.0
	for _, cut := range cuts {
		if cut-start < minLen || duration-cut < minLen {
			continue
		}
		ranges = append(ranges, TimeRange{Start: start, End: cut})
		start = cut
	}
	return append(ranges, TimeRange{Start: start, End: duration})
}
