package encoder

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"highlighter/internal/config"
	"highlighter/internal/logging"
	"highlighter/internal/transcode"
)

// MaxProbeTimeout bounds the capability probe.
const MaxProbeTimeout = 10 * time.Second

// Negotiator decides between the hardware and software profiles.
type Negotiator struct {
	Runner   transcode.Runner
	Binary   string
	Settings Settings
	Timeout  time.Duration
	Logger   *slog.Logger
}

// NewNegotiator builds a Negotiator from configuration.
func NewNegotiator(cfg *config.Config, runner transcode.Runner, logger *slog.Logger) *Negotiator {
	return &Negotiator{
		Runner:   runner,
		Binary:   cfg.Encoder.FFmpegBinary,
		Settings: SettingsFromConfig(cfg),
		Timeout:  cfg.ProbeTimeout(),
		Logger:   logger,
	}
}

// SettingsFromConfig extracts profile settings from cfg.
func SettingsFromConfig(cfg *config.Config) Settings {
	return Settings{
		HardwareCodec: cfg.Encoder.HardwareCodec,
		SoftwareCodec: cfg.Encoder.SoftwareCodec,
		Quality:       cfg.Encoder.Quality,
		Preset:        cfg.Encoder.Preset,
	}
}

// ProbeArgs returns the test-encode command used to detect a working encoder.
func ProbeArgs(codec string) []string {
	return []string{
		"-hide_banner",
		"-f", "lavfi", "-i", "color=c=black:s=320x240:d=0.1",
		"-c:v", codec, "-preset", "slow",
		"-f", "null", "-",
	}
}

// Negotiate returns the hardware profile when requested and a bounded test
// encode succeeds, and the software profile otherwise. It never fails.
func (n *Negotiator) Negotiate(ctx context.Context, requested bool) Profile {
	logger := logging.WithContext(ctx, logging.NewComponentLogger(n.Logger, "encoder"))
	software := SoftwareProfile(n.Settings)
	if !requested {
		logger.Info("encoder selected", logging.Args(
			append(logging.DecisionAttrs("encoder_profile", string(Software), "hardware acceleration not requested"),
				logging.String("encoder_profile", string(Software)),
				logging.String("encoder_codec", software.Codec()),
			)...,
		)...)
		return software
	}

	timeout := n.Timeout
	if timeout <= 0 || timeout > MaxProbeTimeout {
		timeout = MaxProbeTimeout
	}
	runner := n.Runner
	if runner == nil {
		runner = transcode.ExecRunner{}
	}
	binary := strings.TrimSpace(n.Binary)
	if binary == "" {
		binary = "ffmpeg"
	}

	probeCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	result, err := runner.Run(probeCtx, binary, ProbeArgs(n.Settings.HardwareCodec))
	if err == nil {
		hardware := HardwareProfile(n.Settings)
		logger.Info("encoder selected", logging.Args(
			append(logging.DecisionAttrs("encoder_profile", string(Hardware), "test encode succeeded"),
				logging.String("encoder_profile", string(Hardware)),
				logging.String("encoder_codec", hardware.Codec()),
			)...,
		)...)
		return hardware
	}

	reason := "test encode failed"
	hint := "run the probe manually: ffmpeg " + strings.Join(ProbeArgs(n.Settings.HardwareCodec), " ")
	switch {
	case errors.Is(probeCtx.Err(), context.DeadlineExceeded):
		reason = "test encode timed out"
	case MissingDriver(result.Stderr):
		reason = "hardware driver libraries missing"
		hint = "install the NVIDIA driver and libnvidia-encode, or leave use_gpu disabled"
	}
	logging.WarnWithContext(logger, "hardware encoder unavailable; using software encoder", "encoder_fallback",
		append(logging.DecisionAttrs("encoder_profile", string(Software), reason),
			logging.String("encoder_profile", string(Software)),
			logging.String("encoder_codec", software.Codec()),
			logging.String("stderr_tail", transcode.Tail(result.Stderr, 5)),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, hint),
			logging.String(logging.FieldImpact, "every encode runs on the CPU"),
		)...,
	)
	return software
}

// MissingDriver reports whether probe stderr points at absent driver libraries.
func MissingDriver(stderr string) bool {
	lower := strings.ToLower(stderr)
	return strings.Contains(lower, "cannot load libnv") || strings.Contains(lower, "driver")
}

// Negotiated runs a Negotiator at most once per process. Every caller receives
// the same Profile.
type Negotiated struct {
	once    sync.Once
	profile Profile
	n       *Negotiator
}

// NewNegotiated wraps n.
func NewNegotiated(n *Negotiator) *Negotiated {
	return &Negotiated{n: n}
}

// Profile negotiates on first use and returns the cached result afterwards.
func (o *Negotiated) Profile(ctx context.Context, requested bool) Profile {
	o.once.Do(func() {
		o.profile = o.n.Negotiate(ctx, requested)
	})
	return o.profile
}
