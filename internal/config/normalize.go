package config

import (
	"fmt"
	"os"
	"runtime"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeEncoder()
	c.normalizeScenes()
	c.normalizeWorkers()
	c.normalizeLogging()
	c.Notify.NtfyTopic = strings.TrimSpace(c.Notify.NtfyTopic)
	if c.Notify.RequestTimeoutSeconds <= 0 {
		c.Notify.RequestTimeoutSeconds = defaultNotifyTimeout
	}
	return nil
}

func (c *Config) normalizePaths() error {
	fields := []struct {
		name  string
		value *string
	}{
		{"paths.input_dir", &c.Paths.InputDir},
		{"paths.work_dir", &c.Paths.WorkDir},
		{"paths.output_dir", &c.Paths.OutputDir},
		{"paths.log_dir", &c.Paths.LogDir},
		{"paths.lut_path", &c.Paths.LUTPath},
		{"history.path", &c.History.Path},
		{"metrics.textfile_path", &c.Metrics.TextfilePath},
	}
	for _, field := range fields {
		expanded, err := expandPath(strings.TrimSpace(*field.value))
		if err != nil {
			return fmt.Errorf("%s: %w", field.name, err)
		}
		*field.value = expanded
	}
	return nil
}

func (c *Config) normalizeEncoder() {
	if value, ok := os.LookupEnv("USE_GPU"); ok && strings.TrimSpace(value) != "" {
		c.Encoder.UseGPU = parseEnvBool(value)
	}
	c.Encoder.FFmpegBinary = strings.TrimSpace(c.Encoder.FFmpegBinary)
	if c.Encoder.FFmpegBinary == "" {
		c.Encoder.FFmpegBinary = defaultFFmpegBinary
	}
	c.Encoder.FFprobeBinary = strings.TrimSpace(c.Encoder.FFprobeBinary)
	if c.Encoder.FFprobeBinary == "" {
		c.Encoder.FFprobeBinary = defaultFFprobeBinary
	}
	c.Encoder.HardwareCodec = strings.TrimSpace(c.Encoder.HardwareCodec)
	if c.Encoder.HardwareCodec == "" {
		c.Encoder.HardwareCodec = defaultHardwareCodec
	}
	c.Encoder.SoftwareCodec = strings.TrimSpace(c.Encoder.SoftwareCodec)
	if c.Encoder.SoftwareCodec == "" {
		c.Encoder.SoftwareCodec = defaultSoftwareCodec
	}
	c.Encoder.Preset = strings.TrimSpace(c.Encoder.Preset)
	if c.Encoder.Preset == "" {
		c.Encoder.Preset = defaultPreset
	}
	if c.Encoder.ProbeTimeoutSeconds <= 0 {
		c.Encoder.ProbeTimeoutSeconds = defaultProbeTimeoutSeconds
	}
	if c.Encoder.ProbeTimeoutSeconds > maxProbeTimeoutSeconds {
		c.Encoder.ProbeTimeoutSeconds = maxProbeTimeoutSeconds
	}
}

func (c *Config) normalizeScenes() {
	seen := make(map[string]struct{}, len(c.Scenes.Extensions))
	exts := make([]string, 0, len(c.Scenes.Extensions))
	for _, ext := range c.Scenes.Extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		if _, dup := seen[ext]; dup {
			continue
		}
		seen[ext] = struct{}{}
		exts = append(exts, ext)
	}
	if len(exts) == 0 {
		exts = append(exts, defaultExtensions...)
	}
	c.Scenes.Extensions = exts
	c.Signals.SubjectCommand = strings.TrimSpace(c.Signals.SubjectCommand)
}

func (c *Config) normalizeWorkers() {
	if c.Selection.ScoreWorkers <= 0 {
		c.Selection.ScoreWorkers = runtime.NumCPU()
	}
	if c.Clips.Workers <= 0 {
		c.Clips.Workers = defaultClipWorkers
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}

func parseEnvBool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}
