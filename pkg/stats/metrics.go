package stats

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "polling"

const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

// Metrics groups the collectors exported by the daemon.
type Metrics struct {
	Enrichments        *prometheus.CounterVec
	EnrichmentDuration prometheus.Histogram
	HardwareScans      *prometheus.CounterVec
	StoreEvents        *prometheus.CounterVec
	WebhookDeliveries  *prometheus.CounterVec
	TrackedAccounts    prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with reg. A nil reg
// leaves them unregistered, which is handy for tests.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Enrichments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "enrichments_total",
			Help:      "Number of account enrichments by result.",
		}, []string{"result"}),
		EnrichmentDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "enrichment_duration_seconds",
			Help:      "Time spent querying the chain to enrich an account.",
			Buckets:   prometheus.DefBuckets,
		}),
		HardwareScans: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "hardware_scans_total",
			Help:      "Number of hardware device scans by account type and result.",
		}, []string{"type", "result"}),
		StoreEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_events_total",
			Help:      "Number of events applied to the account store by type.",
		}, []string{"event"}),
		WebhookDeliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhook_deliveries_total",
			Help:      "Number of webhook publications by result.",
		}, []string{"result"}),
		TrackedAccounts: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "tracked_accounts",
			Help:      "Number of accounts held by the account store.",
		}),
	}

	if reg != nil {
		reg.MustRegister(
			m.Enrichments,
			m.EnrichmentDuration,
			m.HardwareScans,
			m.StoreEvents,
			m.WebhookDeliveries,
			m.TrackedAccounts,
		)
	}
	return m
}

// ObserveEnrichment records the outcome of an enrichment started at start.
func (m *Metrics) ObserveEnrichment(start time.Time, err error) {
	m.EnrichmentDuration.Observe(time.Since(start).Seconds())
	m.Enrichments.WithLabelValues(result(err)).Inc()
}

func (m *Metrics) ObserveHardwareScan(accountType string, err error) {
	m.HardwareScans.WithLabelValues(accountType, result(err)).Inc()
}

func (m *Metrics) ObserveWebhookDelivery(err error) {
	m.WebhookDeliveries.WithLabelValues(result(err)).Inc()
}

func result(err error) string {
	if err != nil {
		return ResultFailure
	}
	return ResultSuccess
}
