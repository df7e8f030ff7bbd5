package xhr

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics records request outcomes. A nil *Metrics records nothing.
type Metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	inFlight prometheus.Gauge
}

// NewMetrics registers the adapter collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "auto_xhr_requests_total",
			Help: "Total number of settled requests",
		}, []string{"method", "outcome", "code"}), // outcome: resolved, timeout, status, transport, canceled, open, send
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "auto_xhr_request_duration_seconds",
			Help:    "Time from send to settlement",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "outcome"}),
		inFlight: factory.NewGauge(prometheus.GaugeOpts{
			Name: "auto_xhr_requests_in_flight",
			Help: "Number of requests that have not settled yet",
		}),
	}
}

func (m *Metrics) started() {
	if m == nil {
		return
	}
	m.inFlight.Inc()
}

func (m *Metrics) settled(method string, kind error, status int, d time.Duration) {
	if m == nil {
		return
	}
	out := outcome(kind)
	m.inFlight.Dec()
	m.requests.WithLabelValues(method, out, strconv.Itoa(status)).Inc()
	m.duration.WithLabelValues(method, out).Observe(d.Seconds())
}
