package metrics

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the detection loop counters and exposes them to Prometheus.
// It satisfies detection.Observer.
type Metrics struct {
	// Loop counters
	FramesRead       atomic.Uint64
	ReadErrors       atomic.Uint64
	InferenceErrors  atomic.Uint64
	InferenceLatency atomic.Uint64 // last inference in microseconds
	SessionsStarted  atomic.Uint64
	Running          atomic.Uint64 // 0 = idle, 1 = running

	detections *prometheus.CounterVec
	viewers    atomic.Pointer[func() int]

	registry *prometheus.Registry
}

// New creates a Metrics instance with its own registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		detections: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "camdetect_first_sightings_total",
				Help: "Classes recorded for the first time in a session",
			},
			[]string{"class"},
		),
	}

	m.registerPrometheusMetrics()
	return m
}

func (m *Metrics) registerPrometheusMetrics() {
	m.registry.MustRegister(m.detections)

	m.registry.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "camdetect_frames_read_total",
			Help: "Total frames read from the camera",
		},
		func() float64 { return float64(m.FramesRead.Load()) },
	))

	m.registry.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "camdetect_read_errors_total",
			Help: "Total failed camera reads",
		},
		func() float64 { return float64(m.ReadErrors.Load()) },
	))

	m.registry.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "camdetect_inference_errors_total",
			Help: "Total failed inference runs",
		},
		func() float64 { return float64(m.InferenceErrors.Load()) },
	))

	m.registry.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "camdetect_inference_latency_ms",
			Help: "Duration of the last inference in milliseconds",
		},
		func() float64 { return float64(m.InferenceLatency.Load()) / 1000 },
	))

	m.registry.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "camdetect_sessions_started_total",
			Help: "Total detection sessions started",
		},
		func() float64 { return float64(m.SessionsStarted.Load()) },
	))

	m.registry.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "camdetect_running",
			Help: "Detection running (0=idle, 1=running)",
		},
		func() float64 { return float64(m.Running.Load()) },
	))

	m.registry.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "camdetect_viewers",
			Help: "Connected dashboard viewers",
		},
		func() float64 {
			if count := m.viewers.Load(); count != nil {
				return float64((*count)())
			}
			return 0
		},
	))
}

// TrackViewers sets the function reporting the connected viewer count.
func (m *Metrics) TrackViewers(count func() int) {
	m.viewers.Store(&count)
}

func (m *Metrics) FrameRead()       { m.FramesRead.Add(1) }
func (m *Metrics) ReadFailed()      { m.ReadErrors.Add(1) }
func (m *Metrics) InferenceFailed() { m.InferenceErrors.Add(1) }

func (m *Metrics) InferenceDone(elapsed time.Duration) {
	m.InferenceLatency.Store(uint64(elapsed.Microseconds()))
}

func (m *Metrics) DetectionRecorded(className string) {
	m.detections.WithLabelValues(className).Inc()
}

func (m *Metrics) SessionStarted() {
	m.SessionsStarted.Add(1)
	m.Running.Store(1)
}

func (m *Metrics) SessionStopped() { m.Running.Store(0) }

// Handler returns the Prometheus HTTP handler
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
