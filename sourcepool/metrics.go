package sourcepool

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	metricsNamespace = "chainsync"
	metricsSubsystem = "sourcepool"
)

// Metrics of the source pools. A single instance is shared by the pools of every blockchain
type Metrics struct {
	up        *prometheus.GaugeVec
	head      *prometheus.GaugeVec
	requests  *prometheus.CounterVec
	duration  *prometheus.HistogramVec
	failovers *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them on reg. A nil reg creates unregistered collectors
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		up: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "endpoint_up",
			Help:      "1 if the endpoint is healthy, 0 if it is throttled or down",
		}, []string{"blockchain", "endpoint"}),
		head: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "endpoint_head",
			Help:      "last block number reported by the endpoint",
		}, []string{"blockchain", "endpoint"}),
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "requests_total",
			Help:      "requests sent to the endpoint by result",
		}, []string{"blockchain", "endpoint", "result"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "request_duration_seconds",
			Help:      "latency of the requests sent to the endpoint",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
		}, []string{"blockchain", "endpoint"}),
		failovers: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "failovers_total",
			Help:      "times the active endpoint changed",
		}, []string{"blockchain"}),
	}
}

func (m *Metrics) setUp(bt, endpoint string, up bool) {
	if m == nil {
		return
	}
	v := 0.0
	if up {
		v = 1
	}
	m.up.WithLabelValues(bt, endpoint).Set(v)
}

func (m *Metrics) setHead(bt, endpoint string, head uint64) {
	if m == nil {
		return
	}
	m.head.WithLabelValues(bt, endpoint).Set(float64(head))
}

func (m *Metrics) observeRequest(bt, endpoint string, res result, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(bt, endpoint, res.String()).Inc()
	if res == resultOK || res == resultNotFound {
		m.duration.WithLabelValues(bt, endpoint).Observe(elapsed.Seconds())
	}
}

func (m *Metrics) failover(bt string) {
	if m == nil {
		return
	}
	m.failovers.WithLabelValues(bt).Inc()
}
