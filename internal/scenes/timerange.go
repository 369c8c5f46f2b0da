package scenes

import (
	"fmt"
	"math"
	"strconv"

	"highlighter/internal/services"
)

// TimeRange is a half-open [Start, End) interval in seconds on the source
// video. Values are immutable; build them with NewTimeRange.
type TimeRange struct {
	Start float64
	End   float64
}

// NewTimeRange validates 0 <= start < end.
func NewTimeRange(start, end float64) (TimeRange, error) {
	if math.IsNaN(start) || math.IsNaN(end) || math.IsInf(start, 0) || math.IsInf(end, 0) {
		return TimeRange{}, services.Wrap(services.ErrValidation, "scenes", "time range", "non-finite bound", nil)
	}
	if start < 0 {
		return TimeRange{}, services.Wrap(services.ErrValidation, "scenes", "time range", fmt.Sprintf("negative start %v", start), nil)
	}
	if end <= start {
		return TimeRange{}, services.Wrap(services.ErrValidation, "scenes", "time range", fmt.Sprintf("end %v not after start %v", end, start), nil)
	}
	return TimeRange{Start: start, End: end}, nil
}

// Duration is End - Start.
func (r TimeRange) Duration() float64 {
	return r.End - r.Start
}

// Valid reports whether the range satisfies 0 <= Start < End.
func (r TimeRange) Valid() bool {
	return r.Start >= 0 && r.End > r.Start
}

// StartArg formats Start for ffmpeg's -ss flag.
func (r TimeRange) StartArg() string {
	return formatSeconds(r.Start)
}

// DurationArg formats the duration for ffmpeg's -t flag.
func (r TimeRange) DurationArg() string {
	return formatSeconds(r.Duration())
}

func (r TimeRange) String() string {
	return fmt.Sprintf("%s-%s", formatSeconds(r.Start), formatSeconds(r.End))
}

func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}
