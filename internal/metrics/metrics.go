package metrics

import (
	"errors"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"highlighter/internal/services"
)

// Recorder holds one run's metrics.
type Recorder struct {
	registry *prometheus.Registry

	CommandsTotal    *prometheus.CounterVec
	CommandDuration  *prometheus.HistogramVec
	Scenes           *prometheus.GaugeVec
	ClipsBuilt       prometheus.Gauge
	OutputBytes      prometheus.Gauge
	EncoderHardware  prometheus.Gauge
	RunDuration      prometheus.Gauge
	RunOutcome       *prometheus.GaugeVec
	LastRunTimestamp prometheus.Gauge
}

// New builds a Recorder with a fresh registry.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Recorder{
		registry: reg,
		CommandsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "highlighter_commands_total",
				Help: "Total number of ffmpeg commands by kind and result",
			},
			[]string{"kind", "result", "downgraded"},
		),
		CommandDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "highlighter_command_duration_seconds",
				Help:    "ffmpeg command wall time in seconds, retries included",
				Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 600},
			},
			[]string{"kind"},
		),
		Scenes: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "highlighter_scenes",
				Help: "Scene counts for the last run by pipeline state",
			},
			[]string{"state"}, // "detected", "selected", "dropped", "ramped"
		),
		ClipsBuilt: factory.NewGauge(prometheus.GaugeOpts{
			Name: "highlighter_clips_built",
			Help: "Number of clips assembled into the last highlight",
		}),
		OutputBytes: factory.NewGauge(prometheus.GaugeOpts{
			Name: "highlighter_output_bytes",
			Help: "Size of the last horizontal highlight in bytes",
		}),
		EncoderHardware: factory.NewGauge(prometheus.GaugeOpts{
			Name: "highlighter_encoder_hardware",
			Help: "1 when the negotiated encoder profile is hardware accelerated",
		}),
		RunDuration: factory.NewGauge(prometheus.GaugeOpts{
			Name: "highlighter_run_duration_seconds",
			Help: "Wall time of the last run in seconds",
		}),
		RunOutcome: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "highlighter_run_outcome",
				Help: "1 for the outcome of the last run, 0 for the others",
			},
			[]string{"outcome"},
		),
		LastRunTimestamp: factory.NewGauge(prometheus.GaugeOpts{
			Name: "highlighter_last_run_timestamp_seconds",
			Help: "Unix timestamp when the last run finished",
		}),
	}
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// ObserveCommand implements transcode.Observer.
func (r *Recorder) ObserveCommand(description string, _ int, downgraded bool, elapsed time.Duration, err error) {
	if r == nil {
		return
	}
	kind := CommandKind(description)
	result := "success"
	switch {
	case err == nil:
	case errors.Is(err, services.ErrExternalTool):
		result = "failure"
	default:
		result = "aborted"
	}
	down := "false"
	if downgraded {
		down = "true"
	}
	r.CommandsTotal.WithLabelValues(kind, result, down).Inc()
	r.CommandDuration.WithLabelValues(kind).Observe(elapsed.Seconds())
}

// SetScenes records scene counts by state.
func (r *Recorder) SetScenes(state string, n int) {
	if r == nil {
		return
	}
	r.Scenes.WithLabelValues(state).Set(float64(n))
}

// Finish records the outcome and stamps the completion time.
func (r *Recorder) Finish(outcome string, elapsed time.Duration) {
	if r == nil {
		return
	}
	for _, o := range []string{
		services.OutcomeSucceeded,
		services.OutcomeNoScenes,
		services.OutcomeRejected,
		services.OutcomeFailed,
		services.OutcomeCancelled,
	} {
		v := 0.0
		if o == outcome {
			v = 1
		}
		r.RunOutcome.WithLabelValues(o).Set(v)
	}
	r.RunDuration.Set(elapsed.Seconds())
	r.LastRunTimestamp.SetToCurrentTime()
}

// WriteTextfile writes the registry for node_exporter's textfile collector.
// An empty path is a no-op.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil || strings.TrimSpace(path) == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, r.registry)
}

// CommandKind reduces a command description to a low-cardinality label.
func CommandKind(description string) string {
	fields := strings.Fields(strings.ToLower(description))
	if len(fields) == 0 {
		return "unknown"
	}
	return fields[0]
}
