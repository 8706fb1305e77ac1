package cache

import "github.com/prometheus/client_golang/prometheus"

// Request outcomes recorded by Metrics.
const (
	outcomeOK       = "ok"
	outcomeNotFound = "not_found"
	outcomeError    = "error"
)

// Metrics counts gateway requests by endpoint and outcome.
type Metrics struct {
	Requests *prometheus.CounterVec
	Retries  *prometheus.CounterVec
}

// NewMetrics creates gateway counters and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vibe_bed",
			Subsystem: "gateway",
			Name:      "requests_total",
			Help:      "Metadata gateway requests by endpoint and outcome.",
		}, []string{"endpoint", "outcome"}),
		Retries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vibe_bed",
			Subsystem: "gateway",
			Name:      "retries_total",
			Help:      "Metadata gateway retries after rate limiting or server errors.",
		}, []string{"endpoint"}),
	}
	reg.MustRegister(m.Requests, m.Retries)
	return m
}

func (m *Metrics) request(endpoint, outcome string) {
	if m == nil {
		return
	}
	m.Requests.WithLabelValues(endpoint, outcome).Inc()
}

func (m *Metrics) retry(endpoint string) {
	if m == nil {
		return
	}
	m.Retries.WithLabelValues(endpoint).Inc()
}
