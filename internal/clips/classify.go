package clips

import (
	"fmt"
	"strconv"

	"highlighter/internal/config"
	"highlighter/internal/encoder"
	"highlighter/internal/signals"
)

// Action is what the pipeline does with a scene.
type Action string

const (
	ActionKeep Action = "keep"
	ActionRamp Action = "speed_ramp"
	ActionDrop Action = "drop"
)

// Thresholds drive Classify.
type Thresholds struct {
	InstabilityDiscard float64
	StaticMotion       float64
	StaticInstability  float64
	SpeedFactor        float64
}

// ThresholdsFromConfig reads the [clips] section.
func ThresholdsFromConfig(cfg *config.Config) Thresholds {
	return Thresholds{
		InstabilityDiscard: cfg.Clips.InstabilityDiscard,
		StaticMotion:       cfg.Clips.StaticMotion,
		StaticInstability:  cfg.Clips.StaticInstability,
		SpeedFactor:        cfg.Clips.SpeedFactor,
	}
}

// Treatment is the classification of one scene.
type Treatment struct {
	Action Action
	Reason string
	// Speed is the playback multiplier; 1 unless Action is ActionRamp.
	Speed float64
}

// Classify decides a scene's treatment from its camera motion. It is pure.
func Classify(cam signals.CameraMotion, th Thresholds) Treatment {
	switch {
	case cam.Instability > th.InstabilityDiscard:
		return Treatment{
			Action: ActionDrop,
			Reason: fmt.Sprintf("camera instability %.2f above %.2f", cam.Instability, th.InstabilityDiscard),
			Speed:  1,
		}
	case cam.Magnitude < th.StaticMotion && cam.Instability < th.StaticInstability:
		speed := th.SpeedFactor
		if speed <= 1 {
			speed = 2
		}
		return Treatment{
			Action: ActionRamp,
			Reason: fmt.Sprintf("static camera (motion %.2f, instability %.2f)", cam.Magnitude, cam.Instability),
			Speed:  speed,
		}
	default:
		return Treatment{Action: ActionKeep, Reason: "camera motion within range", Speed: 1}
	}
}

// StreamArgs returns the arguments that follow the source input. Both
// actions leave exactly one video and one audio stream. A ramp speeds the
// video up with setpts and swaps the sped-up audio for generated silence.
func (t Treatment) StreamArgs() []string {
	if t.Action != ActionRamp {
		return []string{"-map", "0:v:0", "-map", "0:a:0"}
	}
	factor := strconv.FormatFloat(1/t.Speed, 'f', -1, 64)
	args := encoder.SilentAudioInput()
	return append(args, "-filter:v", "setpts="+factor+"*PTS", "-map", "0:v:0", "-map", "1:a:0", "-shortest")
}
