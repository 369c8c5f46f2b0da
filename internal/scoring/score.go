package scoring

import (
	"cmp"
	"math"
	"slices"

	"highlighter/internal/scenes"
)

// Weights applied by Score.
const (
	SharpnessWeight          = 0.4
	BrightnessWeight         = 0.1
	SubjectWeight            = 120.0
	InstabilityPenaltyWeight = 150.0
	MotionPenaltyWeight      = 0.2
	SmoothBonus              = 200.0

	smoothMotionMin      = 0.5
	smoothMotionMax      = 5.0
	smoothInstabilityMax = 1.5

	// DefaultTopFraction is used when Select receives a non-positive fraction.
	DefaultTopFraction = 0.2
)

// SceneSignals are the aggregated per-scene measurements.
type SceneSignals struct {
	SharpnessMean         float64
	BrightnessMean        float64
	SubjectCountMean      float64
	MotionMagnitudeMean   float64
	MotionInstabilityMean float64
	// Frames is the number of analysed frames; zero means nothing usable.
	Frames int
}

// ScoredScene is a detected range with its computed score.
type ScoredScene struct {
	Index             int
	Range             scenes.TimeRange
	Score             float64
	CameraMotion      float64
	CameraInstability float64
	Signals           SceneSignals
	Err               error
}

// Score combines signals into a highlight score. Smooth camera movement earns
// a bonus; shake and raw pixel churn are penalised.
func Score(sig SceneSignals, camMotion, camInstability float64) float64 {
	if sig.Frames == 0 {
		return 0
	}
	base := sig.SharpnessMean*SharpnessWeight +
		sig.BrightnessMean*BrightnessWeight +
		sig.SubjectCountMean*SubjectWeight
	bonus := 0.0
	if camMotion > smoothMotionMin && camMotion < smoothMotionMax && camInstability < smoothInstabilityMax {
		bonus = SmoothBonus
	}
	return base + bonus - camInstability*InstabilityPenaltyWeight - sig.MotionMagnitudeMean*MotionPenaltyWeight
}

// SelectCount is max(1, ceil(fraction*n)) for n >= 1 and 0 otherwise.
func SelectCount(n int, fraction float64) int {
	if n <= 0 {
		return 0
	}
	if fraction <= 0 {
		fraction = DefaultTopFraction
	}
	k := int(math.Ceil(fraction * float64(n)))
	return min(max(k, 1), n)
}

// Select returns the highest scoring scenes, best first. Equal scores keep
// detection order. The input is not modified.
func Select(scored []ScoredScene, fraction float64) []ScoredScene {
	k := SelectCount(len(scored), fraction)
	if k == 0 {
		return nil
	}
	ranked := slices.Clone(scored)
	slices.SortStableFunc(ranked, func(a, b ScoredScene) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return cmp.Compare(a.Index, b.Index)
	})
	return ranked[:k]
}

// InDetectionOrder returns a copy of scenes sorted by Index.
func InDetectionOrder(selected []ScoredScene) []ScoredScene {
	out := slices.Clone(selected)
	slices.SortFunc(out, func(a, b ScoredScene) int { return cmp.Compare(a.Index, b.Index) })
	return out
}
