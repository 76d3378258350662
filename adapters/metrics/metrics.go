// Package metrics provides Prometheus metrics collection for vaultmeter.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vaultmeter/vaultmeter/ports"
)

const namespace = "vaultmeter"

// Collector holds all Prometheus metrics for vaultmeter.
type Collector struct {
	// HTTP metrics
	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	RequestsInFlight prometheus.Gauge
	AuthFailures     *prometheus.CounterVec

	// Usage engine metrics
	UsageEvents        prometheus.Counter
	UsageAmount        prometheus.Counter
	Recomputes         *prometheus.CounterVec
	RecomputedAccounts *prometheus.CounterVec
	RecomputeDuration  *prometheus.HistogramVec
	RecomputeFallbacks *prometheus.CounterVec
	SnapshotLookups    *prometheus.CounterVec

	// Config metrics
	ConfigReloads      prometheus.Counter
	ConfigReloadErrors prometheus.Counter
	ConfigLastReload   prometheus.Gauge

	gatherer prometheus.Gatherer
}

// New creates a collector registered on the default registry.
func New() *Collector {
	return NewWithRegistry(prometheus.DefaultRegisterer, prometheus.DefaultGatherer)
}

// NewWithRegistry creates a collector on a custom registry.
// Tests use this to avoid global state.
func NewWithRegistry(reg prometheus.Registerer, g prometheus.Gatherer) *Collector {
	factory := promauto.With(reg)

	return &Collector{
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of API requests",
			},
			[]string{"method", "route", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "API request duration in seconds",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
			},
			[]string{"method", "route"},
		),
		RequestsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "http_requests_in_flight",
				Help:      "Number of API requests currently being served",
			},
		),
		AuthFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "auth_failures_total",
				Help:      "Total number of rejected owner credentials",
			},
			[]string{"reason"},
		),

		UsageEvents: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "usage_events_total",
				Help:      "Total number of usage events logged",
			},
		),
		UsageAmount: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "usage_amount_total",
				Help:      "Sum of logged usage amounts",
			},
		),
		Recomputes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "recomputes_total",
				Help:      "Number of usage recomputations by trigger",
			},
			[]string{"trigger"},
		),
		RecomputedAccounts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "recomputed_accounts_total",
				Help:      "Number of accounts whose usage was recomputed",
			},
			[]string{"trigger"},
		),
		RecomputeDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "recompute_duration_seconds",
				Help:      "Duration of usage recomputations",
				Buckets:   []float64{.0005, .001, .005, .01, .05, .1, .5, 1},
			},
			[]string{"trigger"},
		),
		RecomputeFallbacks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "recompute_fallbacks_total",
				Help:      "Accounts that fell back to their cached usage",
			},
			[]string{"stage"},
		),
		SnapshotLookups: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "snapshot_lookups_total",
				Help:      "Event snapshot cache lookups",
			},
			[]string{"result"},
		),

		ConfigReloads: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "config_reloads_total",
				Help:      "Total number of successful config reloads",
			},
		),
		ConfigReloadErrors: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "config_reload_errors_total",
				Help:      "Total number of config reload errors",
			},
		),
		ConfigLastReload: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "config_last_reload_timestamp",
				Help:      "Unix timestamp of last successful config reload",
			},
		),

		gatherer: g,
	}
}

// Handler serves the collector's registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.gatherer, promhttp.HandlerOpts{})
}

func (c *Collector) UsageLogged(amount int64) {
	c.UsageEvents.Inc()
	c.UsageAmount.Add(float64(amount))
}

func (c *Collector) Recomputed(trigger string, n int, d time.Duration) {
	c.Recomputes.WithLabelValues(trigger).Inc()
	c.RecomputedAccounts.WithLabelValues(trigger).Add(float64(n))
	c.RecomputeDuration.WithLabelValues(trigger).Observe(d.Seconds())
}

func (c *Collector) RecomputeFallback(stage string) {
	c.RecomputeFallbacks.WithLabelValues(stage).Inc()
}

func (c *Collector) Snapshot(result string) {
	c.SnapshotLookups.WithLabelValues(result).Inc()
}

// ConfigReloaded records the outcome of a config reload.
func (c *Collector) ConfigReloaded(err error) {
	if err != nil {
		c.ConfigReloadErrors.Inc()
		return
	}
	c.ConfigReloads.Inc()
	c.ConfigLastReload.SetToCurrentTime()
}

var _ ports.Metrics = (*Collector)(nil)

// Nop discards all measurements.
type Nop struct{}

func (Nop) UsageLogged(int64)                     {}
func (Nop) Recomputed(string, int, time.Duration) {}
func (Nop) RecomputeFallback(string)              {}
func (Nop) Snapshot(string)                       {}

var _ ports.Metrics = Nop{}
