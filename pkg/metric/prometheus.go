package metric

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const DefaultNamespace = "dexscout"

// Metrics holds the Prometheus collectors of the scanner. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	// Scan metrics
	ScansTotal         *prometheus.CounterVec
	ScanDuration       prometheus.Histogram
	LastSuccessfulScan prometheus.Gauge

	// Source metrics
	RecordsFetched *prometheus.CounterVec
	FetchErrors    *prometheus.CounterVec
	RecordsSkipped *prometheus.CounterVec

	// Filter metrics
	Decisions   *prometheus.CounterVec
	FilterSkips *prometheus.CounterVec
	LedgerSize  prometheus.Gauge

	// Delivery and persistence
	AlertsSent       *prometheus.CounterVec
	DeliveryFailures prometheus.Counter
	PersistFailures  prometheus.Counter

	gatherer prometheus.Gatherer
}

// NewMetrics registers the collectors in registry
func NewMetrics(registry *prometheus.Registry, namespace string) *Metrics {
	if namespace == "" {
		namespace = DefaultNamespace
	}

	factory := promauto.With(registry)

	return &Metrics{
		ScansTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scan",
			Name:      "runs_total",
			Help:      "Total number of scan cycles by status",
		}, []string{"status"}),
		ScanDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "scan",
			Name:      "duration_seconds",
			Help:      "Scan cycle duration in seconds",
			Buckets:   []float64{1, 5, 10, 20, 30, 60, 120},
		}),
		LastSuccessfulScan: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "scan",
			Name:      "last_success_timestamp",
			Help:      "Unix timestamp of the last completed scan",
		}),
		RecordsFetched: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "source",
			Name:      "records_fetched_total",
			Help:      "Total number of normalized records by source",
		}, []string{"source"}),
		FetchErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "source",
			Name:      "fetch_errors_total",
			Help:      "Total number of failed source fetches",
		}, []string{"source"}),
		RecordsSkipped: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "source",
			Name:      "records_skipped_total",
			Help:      "Total number of provider records dropped during normalization",
		}, []string{"source", "reason"}),
		Decisions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "filter",
			Name:      "decisions_total",
			Help:      "Total number of qualifying tokens by category",
		}, []string{"category"}),
		FilterSkips: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "filter",
			Name:      "skips_total",
			Help:      "Total number of records rejected by reason",
		}, []string{"reason"}),
		LedgerSize: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "filter",
			Name:      "ledger_size",
			Help:      "Number of token addresses already alerted",
		}),
		AlertsSent: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "delivery",
			Name:      "alerts_sent_total",
			Help:      "Total number of delivered alerts by category",
		}, []string{"category"}),
		DeliveryFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "delivery",
			Name:      "failures_total",
			Help:      "Total number of alerts that could not be delivered",
		}),
		PersistFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "storage",
			Name:      "failures_total",
			Help:      "Total number of snapshots that could not be saved",
		}),
		gatherer: registry,
	}
}

// Handler serves the collectors registered by NewMetrics
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// RecordScan records the result of one scan cycle
func (m *Metrics) RecordScan(err error, duration time.Duration, finished time.Time) {
	if m == nil {
		return
	}

	m.ScanDuration.Observe(duration.Seconds())
	if err != nil {
		m.ScansTotal.WithLabelValues("failed").Inc()
		return
	}

	m.ScansTotal.WithLabelValues("ok").Inc()
	m.LastSuccessfulScan.Set(float64(finished.Unix()))
}

// RecordFetch records the outcome of one source fetch
func (m *Metrics) RecordFetch(source string, records int, err error) {
	if m == nil {
		return
	}

	if err != nil {
		m.FetchErrors.WithLabelValues(source).Inc()
	}
	m.RecordsFetched.WithLabelValues(source).Add(float64(records))
}

// RecordSourceSkip records a provider record dropped during normalization
func (m *Metrics) RecordSourceSkip(source, reason string) {
	if m == nil {
		return
	}
	m.RecordsSkipped.WithLabelValues(source, reason).Inc()
}

// RecordDecision records a qualifying token
func (m *Metrics) RecordDecision(category string) {
	if m == nil {
		return
	}
	m.Decisions.WithLabelValues(category).Inc()
}

// RecordFilterSkip records a rejected record
func (m *Metrics) RecordFilterSkip(reason string) {
	if m == nil {
		return
	}
	m.FilterSkips.WithLabelValues(reason).Inc()
}

// RecordLedgerSize updates the dedup ledger gauge
func (m *Metrics) RecordLedgerSize(size int) {
	if m == nil {
		return
	}
	m.LedgerSize.Set(float64(size))
}

// RecordDelivery records an alert delivery attempt
func (m *Metrics) RecordDelivery(category string, err error) {
	if m == nil {
		return
	}

	if err != nil {
		m.DeliveryFailures.Inc()
		return
	}
	m.AlertsSent.WithLabelValues(category).Inc()
}

// RecordPersist records a snapshot save attempt
func (m *Metrics) RecordPersist(err error) {
	if m == nil || err == nil {
		return
	}
	m.PersistFailures.Inc()
}
