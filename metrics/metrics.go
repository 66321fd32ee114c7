// Package metrics exposes Prometheus instrumentation for the simulator.
// This is purely ambient observability: nothing in the core tick loop
// depends on it, and a nil *Metrics is safe to use everywhere (methods
// no-op). Adapted field-for-field from api/metrics.go's HTTP/gRPC
// request metrics, renamed to simulation metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds every Prometheus metric the simulator records.
type Metrics struct {
	TransactionsInjected  prometheus.Counter
	TransactionsPublished prometheus.Counter
	ForcedPublishes       prometheus.Counter

	BlockSize    prometheus.Histogram
	TickDuration prometheus.Histogram

	PendingCount prometheus.Gauge
	InFlightCount prometheus.Gauge
}

// Default is the package-level Metrics instance most callers should use;
// creating a second instance with the same namespace via New panics on
// duplicate Prometheus registration, matching the single-registry
// assumption api.DefaultMetrics makes.
var Default = New("txsim")

// New creates a Metrics instance registered under the given namespace.
func New(namespace string) *Metrics {
	return &Metrics{
		TransactionsInjected: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transactions_injected_total",
			Help:      "Total number of transactions injected into the simulation",
		}),
		TransactionsPublished: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transactions_published_total",
			Help:      "Total number of transactions published (normal or forced)",
		}),
		ForcedPublishes: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "forced_publishes_total",
			Help:      "Total number of forced publishes triggered by the blocktime watchdog",
		}),
		BlockSize: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "block_size_transactions",
			Help:      "Number of transactions per published block",
			Buckets:   []float64{1, 10, 100, 1000, 10000, 100000, 500000},
		}),
		TickDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tick_duration_seconds",
			Help:      "Wall-clock time spent processing one simulated tick",
			Buckets:   prometheus.DefBuckets,
		}),
		PendingCount: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pending_transactions",
			Help:      "Current number of pending (unpublished) transactions",
		}),
		InFlightCount: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "in_flight_transactions",
			Help:      "Current number of transactions with outstanding delivery attempts",
		}),
	}
}

// RecordPublish records a normal or forced publish of a block of the given
// size.
func (m *Metrics) RecordPublish(count int, forced bool) {
	if m == nil {
		return
	}
	m.TransactionsPublished.Add(float64(count))
	m.BlockSize.Observe(float64(count))
	if forced {
		m.ForcedPublishes.Inc()
	}
}

// RecordInjection records n transactions entering the pool.
func (m *Metrics) RecordInjection(n int) {
	if m == nil {
		return
	}
	m.TransactionsInjected.Add(float64(n))
}

// RecordTick records the wall-clock duration of one tick and the resulting
// queue depths.
func (m *Metrics) RecordTick(d time.Duration, pending, inFlight int) {
	if m == nil {
		return
	}
	m.TickDuration.Observe(d.Seconds())
	m.PendingCount.Set(float64(pending))
	m.InFlightCount.Set(float64(inFlight))
}

// Server runs an HTTP server exposing /metrics, adapted from the
// teacher's MetricsServer.
type Server struct {
	server *http.Server
}

// NewServer creates a metrics server on the given address.
func NewServer(addr string) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	return &Server{server: &http.Server{Addr: addr, Handler: mux}}
}

// StartAsync starts the metrics server in a goroutine, best-effort.
func (s *Server) StartAsync() {
	go func() {
		_ = s.server.ListenAndServe()
	}()
}

// Stop gracefully stops the metrics server.
func (s *Server) Stop() error {
	return s.server.Close()
}
