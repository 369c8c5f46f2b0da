package config

import "runtime"

const (
	defaultConfigPath          = "~/.config/highlighter/config.toml"
	defaultInputDir            = "./input_videos"
	defaultWorkDir             = "~/.local/share/highlighter/work"
	defaultOutputDir           = "./output"
	defaultLogDir              = "~/.local/share/highlighter/logs"
	defaultLUTPath             = "assets/luts/cinematic.cube"
	defaultHistoryPath         = "~/.local/share/highlighter/history.db"
	defaultFFmpegBinary        = "ffmpeg"
	defaultFFprobeBinary       = "ffprobe"
	defaultHardwareCodec       = "h264_nvenc"
	defaultSoftwareCodec       = "libx264"
	defaultQuality             = 18
	defaultPreset              = "slow"
	defaultProbeTimeoutSeconds = 10
	maxProbeTimeoutSeconds     = 10
	defaultSceneThreshold      = 0.3
	defaultFrameStride         = 2
	defaultSampleWidth         = 320
	defaultSampleHeight        = 180
	defaultTopFraction         = 0.2
	defaultInstabilityDiscard  = 3.0
	defaultStaticMotion        = 0.8
	defaultStaticInstability   = 1.0
	defaultSpeedFactor         = 2.0
	defaultClipWorkers         = 2
	defaultMinLUTBytes         = 1024
	defaultStaleRunHours       = 24
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
	defaultLogRetentionDays    = 30
	defaultNotifyTimeout       = 10
)

var defaultExtensions = []string{".mp4", ".mov"}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			InputDir:  defaultInputDir,
			WorkDir:   defaultWorkDir,
			OutputDir: defaultOutputDir,
			LogDir:    defaultLogDir,
			LUTPath:   defaultLUTPath,
		},
		Encoder: Encoder{
			FFmpegBinary:        defaultFFmpegBinary,
			FFprobeBinary:       defaultFFprobeBinary,
			HardwareCodec:       defaultHardwareCodec,
			SoftwareCodec:       defaultSoftwareCodec,
			Quality:             defaultQuality,
			Preset:              defaultPreset,
			ProbeTimeoutSeconds: defaultProbeTimeoutSeconds,
		},
		Scenes: Scenes{
			Threshold:  defaultSceneThreshold,
			Extensions: append([]string(nil), defaultExtensions...),
		},
		Signals: Signals{
			FrameStride:  defaultFrameStride,
			SampleWidth:  defaultSampleWidth,
			SampleHeight: defaultSampleHeight,
		},
		Selection: Selection{
			TopFraction:  defaultTopFraction,
			ScoreWorkers: runtime.NumCPU(),
		},
		Clips: Clips{
			InstabilityDiscard: defaultInstabilityDiscard,
			StaticMotion:       defaultStaticMotion,
			StaticInstability:  defaultStaticInstability,
			SpeedFactor:        defaultSpeedFactor,
			Workers:            defaultClipWorkers,
		},
		Color: Color{
			Enabled:     true,
			MinLUTBytes: defaultMinLUTBytes,
		},
		Export: Export{
			LetterboxDetect: true,
		},
		Workflow: Workflow{
			StaleRunHours: defaultStaleRunHours,
		},
		History: History{
			Enabled: true,
			Path:    defaultHistoryPath,
		},
		Notify: Notifications{
			RequestTimeoutSeconds: defaultNotifyTimeout,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
