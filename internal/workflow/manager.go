package workflow

import (
	"log/slog"
	"time"

	"highlighter/internal/config"
	"highlighter/internal/encoder"
	"highlighter/internal/export"
	"highlighter/internal/logging"
	"highlighter/internal/media/ffprobe"
	"highlighter/internal/notifications"
	"highlighter/internal/scenes"
	"highlighter/internal/signals"
	"highlighter/internal/transcode"
)

// Manager coordinates a highlight run using the configured collaborators.
type Manager struct {
	cfg    *config.Config
	logger *slog.Logger

	runner    transcode.Runner
	probe     ffprobe.Prober
	detector  scenes.Detector
	extractor signals.Extractor
	crop      export.CropDetector
	notifier  notifications.Service
	now       func() time.Time

	negotiated *encoder.Negotiated
}

// ManagerOption configures optional Manager behavior.
type ManagerOption func(*Manager)

// WithRunner replaces the process runner used for every external command.
func WithRunner(runner transcode.Runner) ManagerOption {
	return func(m *Manager) {
		m.runner = runner
	}
}

// WithProber replaces ffprobe for durations and output verification.
func WithProber(probe ffprobe.Prober) ManagerOption {
	return func(m *Manager) {
		m.probe = probe
	}
}

// WithDetector replaces the ffmpeg scene detector.
func WithDetector(detector scenes.Detector) ManagerOption {
	return func(m *Manager) {
		m.detector = detector
	}
}

// WithExtractor replaces the frame-sampling signal extractor.
func WithExtractor(extractor signals.Extractor) ManagerOption {
	return func(m *Manager) {
		m.extractor = extractor
	}
}

// WithCropDetector replaces drapto's letterbox detection for the vertical
// export.
func WithCropDetector(detect export.CropDetector) ManagerOption {
	return func(m *Manager) {
		m.crop = detect
	}
}

// WithNotifier replaces the ntfy service built from the configuration.
func WithNotifier(notifier notifications.Service) ManagerOption {
	return func(m *Manager) {
		m.notifier = notifier
	}
}

// NewManager constructs a workflow manager. The encoder profile is negotiated
// on the first run and reused by later runs of the same Manager.
func NewManager(cfg *config.Config, logger *slog.Logger, opts ...ManagerOption) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	m := &Manager{
		cfg:    cfg,
		logger: logger,
		runner: transcode.ExecRunner{},
		probe:  ffprobe.Inspect,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.notifier == nil {
		m.notifier = notifications.NewService(cfg)
	}
	m.negotiated = encoder.NewNegotiated(encoder.NewNegotiator(cfg, m.runner, logger))
	return m
}

func (m *Manager) sceneDetector() scenes.Detector {
	if m.detector != nil {
		return m.detector
	}
	return &scenes.FFmpegDetector{
		Runner:        m.runner,
		FFmpegBinary:  m.cfg.Encoder.FFmpegBinary,
		FFprobeBinary: m.cfg.Encoder.FFprobeBinary,
		Threshold:     m.cfg.Scenes.Threshold,
		Probe:         m.probe,
		Logger:        m.logger,
	}
}

func (m *Manager) signalExtractor(tempDir string, logger *slog.Logger) signals.Extractor {
	if m.extractor != nil {
		return m.extractor
	}
	return signals.NewFromConfig(m.cfg, m.runner, tempDir, logger)
}

func (m *Manager) cropDetector() export.CropDetector {
	if m.crop != nil {
		return m.crop
	}
	if !m.cfg.Export.LetterboxDetect {
		return nil
	}
	return export.DraptoCropDetector()
}
