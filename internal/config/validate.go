package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateEncoder(); err != nil {
		return err
	}
	if err := c.validateAnalysis(); err != nil {
		return err
	}
	if err := c.validateClips(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateNotifications() error {
	topic := c.Notify.NtfyTopic
	if topic == "" {
		return nil
	}
	if !strings.HasPrefix(topic, "http://") && !strings.HasPrefix(topic, "https://") {
		return fmt.Errorf("notifications.ntfy_topic must be an http(s) URL, got %q", topic)
	}
	return nil
}

func (c *Config) validatePaths() error {
	if c.Paths.InputDir == "" {
		return errors.New("paths.input_dir must be set")
	}
	if c.Paths.WorkDir == "" {
		return errors.New("paths.work_dir must be set")
	}
	if c.Paths.OutputDir == "" {
		return errors.New("paths.output_dir must be set")
	}
	if c.History.Enabled && c.History.Path == "" {
		return errors.New("history.path must be set when history is enabled")
	}
	return nil
}

func (c *Config) validateEncoder() error {
	if c.Encoder.HardwareCodec == c.Encoder.SoftwareCodec {
		return fmt.Errorf("encoder.hardware_codec and encoder.software_codec must differ (both %q)", c.Encoder.HardwareCodec)
	}
	if c.Encoder.Quality < 0 || c.Encoder.Quality > 51 {
		return fmt.Errorf("encoder.quality must be between 0 and 51, got %d", c.Encoder.Quality)
	}
	return nil
}

func (c *Config) validateAnalysis() error {
	if c.Scenes.Threshold <= 0 || c.Scenes.Threshold >= 1 {
		return fmt.Errorf("scenes.threshold must be between 0 and 1 (exclusive), got %v", c.Scenes.Threshold)
	}
	if c.Signals.FrameStride < 1 {
		return errors.New("signals.frame_stride must be at least 1")
	}
	if c.Signals.SampleWidth < 16 || c.Signals.SampleHeight < 16 {
		return errors.New("signals.sample_width and signals.sample_height must be at least 16")
	}
	if c.Selection.TopFraction <= 0 || c.Selection.TopFraction > 1 {
		return fmt.Errorf("selection.top_fraction must be in (0, 1], got %v", c.Selection.TopFraction)
	}
	return nil
}

func (c *Config) validateClips() error {
	if c.Clips.SpeedFactor < 1 {
		return fmt.Errorf("clips.speed_factor must be at least 1, got %v", c.Clips.SpeedFactor)
	}
	if c.Clips.InstabilityDiscard <= 0 {
		return errors.New("clips.instability_discard must be positive")
	}
	if c.Clips.StaticMotion < 0 || c.Clips.StaticInstability < 0 {
		return errors.New("clips.static_motion and clips.static_instability must not be negative")
	}
	if c.Color.MinLUTBytes < 0 {
		return errors.New("color.min_lut_bytes must not be negative")
	}
	if c.Workflow.StaleRunHours < 0 {
		return errors.New("workflow.stale_run_hours must not be negative")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error; got %q", strings.TrimSpace(c.Logging.Level))
	}
	return nil
}
