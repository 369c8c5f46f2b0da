package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains input, output, and scratch locations.
type Paths struct {
	InputDir  string `toml:"input_dir"`
	WorkDir   string `toml:"work_dir"`
	OutputDir string `toml:"output_dir"`
	LogDir    string `toml:"log_dir"`
	LUTPath   string `toml:"lut_path"`
}

// Encoder contains codec selection and quality settings shared by every
// transcode the pipeline issues.
type Encoder struct {
	UseGPU              bool   `toml:"use_gpu"`
	FFmpegBinary        string `toml:"ffmpeg_binary"`
	FFprobeBinary       string `toml:"ffprobe_binary"`
	HardwareCodec       string `toml:"hardware_codec"`
	SoftwareCodec       string `toml:"software_codec"`
	Quality             int    `toml:"quality"`
	Preset              string `toml:"preset"`
	ProbeTimeoutSeconds int    `toml:"probe_timeout_seconds"`
}

// Scenes contains shot-boundary detection settings.
type Scenes struct {
	Threshold  float64  `toml:"threshold"`
	Extensions []string `toml:"extensions"`
}

// Signals contains frame sampling settings for scene analysis.
type Signals struct {
	FrameStride    int    `toml:"frame_stride"`
	SampleWidth    int    `toml:"sample_width"`
	SampleHeight   int    `toml:"sample_height"`
	SubjectCommand string `toml:"subject_command"`
}

// Selection controls how many scored scenes make the highlight.
type Selection struct {
	TopFraction  float64 `toml:"top_fraction"`
	ScoreWorkers int     `toml:"score_workers"`
}

// Clips contains the camera-motion gates and extraction concurrency.
type Clips struct {
	InstabilityDiscard float64 `toml:"instability_discard"`
	StaticMotion       float64 `toml:"static_motion"`
	StaticInstability  float64 `toml:"static_instability"`
	SpeedFactor        float64 `toml:"speed_factor"`
	Workers            int     `toml:"workers"`
}

// Color contains LUT grading settings.
type Color struct {
	Enabled     bool  `toml:"enabled"`
	MinLUTBytes int64 `toml:"min_lut_bytes"`
}

// Export contains derivative output settings.
type Export struct {
	Vertical        bool `toml:"vertical"`
	LetterboxDetect bool `toml:"letterbox_detect"`
}

// Workflow contains run lifecycle settings.
type Workflow struct {
	StaleRunHours  int  `toml:"stale_run_hours"`
	KeepNormalized bool `toml:"keep_normalized"`
}

// History contains run history persistence settings.
type History struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// Metrics contains Prometheus textfile export settings.
type Metrics struct {
	TextfilePath string `toml:"textfile_path"`
}

// Notifications contains ntfy push settings. An empty topic disables them.
type Notifications struct {
	NtfyTopic             string `toml:"ntfy_topic"`
	RequestTimeoutSeconds int    `toml:"request_timeout_seconds"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for highlighter.
//
// Configuration sections by subsystem:
//   - Paths: input footage, scratch, output, logs, and the LUT file
//   - Encoder: ffmpeg binaries plus hardware/software codec profiles
//   - Scenes: shot-boundary detection
//   - Signals: frame sampling for scoring
//   - Selection: top-fraction selection and scoring concurrency
//   - Clips: camera-motion gates, speed ramp, extraction concurrency
//   - Color: LUT grading
//   - Export: vertical 9:16 derivative
//   - Workflow: run directory lifecycle
//   - History: sqlite run history
//   - Metrics: Prometheus textfile output
//   - Notifications: ntfy run outcome pushes
//   - Logging: log format, level, and retention
type Config struct {
	Paths     Paths         `toml:"paths"`
	Encoder   Encoder       `toml:"encoder"`
	Scenes    Scenes        `toml:"scenes"`
	Signals   Signals       `toml:"signals"`
	Selection Selection     `toml:"selection"`
	Clips     Clips         `toml:"clips"`
	Color     Color         `toml:"color"`
	Export    Export        `toml:"export"`
	Workflow  Workflow      `toml:"workflow"`
	History   History       `toml:"history"`
	Metrics   Metrics       `toml:"metrics"`
	Notify    Notifications `toml:"notifications"`
	Logging   Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("highlighter.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories a run writes into.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.WorkDir, c.Paths.OutputDir, c.Paths.LogDir, c.RunsDir(), c.NormalizedDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// RunsDir is the parent of every per-run scratch directory.
func (c *Config) RunsDir() string {
	return filepath.Join(c.Paths.WorkDir, "runs")
}

// NormalizedDir holds normalized copies of the input footage.
func (c *Config) NormalizedDir() string {
	return filepath.Join(c.Paths.WorkDir, "normalized")
}

// LockPath is the flock file guarding the work directory.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.WorkDir, "highlighter.lock")
}

// HorizontalOutputPath is the final 16:9 highlight location.
func (c *Config) HorizontalOutputPath() string {
	return filepath.Join(c.Paths.OutputDir, "highlight_horizontal.mp4")
}

// VerticalOutputPath is the 9:16 derivative location.
func (c *Config) VerticalOutputPath() string {
	return filepath.Join(c.Paths.OutputDir, "highlight_vertical_9x16.mp4")
}

// ProbeTimeout returns the capability probe bound as a duration.
func (c *Config) ProbeTimeout() time.Duration {
	return time.Duration(c.Encoder.ProbeTimeoutSeconds) * time.Second
}

// StaleRunAge returns the age after which abandoned run directories are removed.
func (c *Config) StaleRunAge() time.Duration {
	return time.Duration(c.Workflow.StaleRunHours) * time.Hour
}

// HasExtension reports whether name carries one of the configured footage extensions.
func (c *Config) HasExtension(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, candidate := range c.Scenes.Extensions {
		if ext == candidate {
			return true
		}
	}
	return false
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// SampleConfig returns the embedded sample configuration text.
func SampleConfig() string {
	return sampleConfig
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// Marshal renders the effective configuration as TOML.
func (c *Config) Marshal() ([]byte, error) {
	return toml.Marshal(c)
}
