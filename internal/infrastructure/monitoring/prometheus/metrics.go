package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dealershipai/visibility-engine/internal/application/validation"
	"github.com/dealershipai/visibility-engine/internal/domain/provider"
)

var providerDurationBuckets = []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30}

var cycleDurationBuckets = []float64{.1, .25, .5, 1, 2, 5, 10, 30, 60}

// Metrics is the engine's metric set.  It implements provider.Observer so
// the registry decorator can feed it every upstream call.
type Metrics struct {
	providerCallsTotal   *prometheus.CounterVec
	providerCallDuration *prometheus.HistogramVec

	scoringCyclesTotal   *prometheus.CounterVec
	scoringCycleDuration prometheus.Histogram
	batchDealersTotal    *prometheus.CounterVec

	healthFigure      *prometheus.GaugeVec
	healthAlertsTotal *prometheus.CounterVec

	modelVersion prometheus.Gauge
	modelR2      prometheus.Gauge
}

func newMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		providerCallsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_calls_total",
			Help:      "Upstream provider calls by capability and outcome.",
		}, []string{"capability", "provider", "status"}),
		providerCallDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "provider_call_duration_seconds",
			Help:      "Upstream provider call latency.",
			Buckets:   providerDurationBuckets,
		}, []string{"capability", "provider"}),
		scoringCyclesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scoring_cycles_total",
			Help:      "Completed scoring cycles by outcome.",
		}, []string{"status"}),
		scoringCycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "scoring_cycle_duration_seconds",
			Help:      "End-to-end duration of one dealer scoring cycle.",
			Buckets:   cycleDurationBuckets,
		}),
		batchDealersTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batch_dealers_total",
			Help:      "Dealers processed by batch runs, by outcome.",
		}, []string{"status"}),
		healthFigure: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "health_figure",
			Help:      "Latest health snapshot figures by metric name.",
		}, []string{"metric"}),
		healthAlertsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "health_alerts_total",
			Help:      "Health alerts raised, by metric and severity.",
		}, []string{"metric", "severity"}),
		modelVersion: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "credibility_model_version",
			Help:      "Version of the deployed credibility model.",
		}),
		modelR2: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "credibility_model_r2",
			Help:      "Held-out R-squared of the deployed credibility model.",
		}),
	}

	registry.MustRegister(
		m.providerCallsTotal,
		m.providerCallDuration,
		m.scoringCyclesTotal,
		m.scoringCycleDuration,
		m.batchDealersTotal,
		m.healthFigure,
		m.healthAlertsTotal,
		m.modelVersion,
		m.modelR2,
	)
	return m
}

// ObserveCall implements provider.Observer.
func (m *Metrics) ObserveCall(capability provider.Capability, providerName string, elapsed time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.providerCallsTotal.WithLabelValues(string(capability), providerName, status).Inc()
	m.providerCallDuration.WithLabelValues(string(capability), providerName).Observe(elapsed.Seconds())
}

// ObserveCycle records one dealer scoring cycle.
func (m *Metrics) ObserveCycle(elapsed time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.scoringCyclesTotal.WithLabelValues(status).Inc()
	m.scoringCycleDuration.Observe(elapsed.Seconds())
}

// ObserveBatch records a batch report's per-dealer outcomes.
func (m *Metrics) ObserveBatch(succeeded, failed int) {
	m.batchDealersTotal.WithLabelValues("ok").Add(float64(succeeded))
	m.batchDealersTotal.WithLabelValues("error").Add(float64(failed))
}

// ObserveHealth exports the snapshot's figures and counts its alerts.
func (m *Metrics) ObserveHealth(h validation.SystemHealthMetrics) {
	figures := map[string]float64{
		"seo_accuracy":        h.SEOAccuracy,
		"aeo_accuracy":        h.AEOAccuracy,
		"geo_accuracy":        h.GEOAccuracy,
		"model_r2":            h.ModelR2,
		"uptime":              h.Uptime,
		"success_rate":        h.SuccessRate,
		"cache_hit_rate":      h.CacheHitRate,
		"avg_latency_seconds": h.AvgLatencySeconds,
		"cost_per_dealer_usd": h.CostPerDealerUSD,
		"gross_margin":        h.GrossMargin,
		"satisfaction":        h.Satisfaction,
		"churn_rate":          h.ChurnRate,
		"spot_check_accuracy": h.SpotCheckAccuracy,
		"dispute_rate":        h.DisputeRate,
	}
	for name, value := range figures {
		m.healthFigure.WithLabelValues(name).Set(value)
	}
	for _, a := range h.Alerts {
		m.healthAlertsTotal.WithLabelValues(a.Type, string(a.Severity)).Inc()
	}
}

// ObserveModel exports the deployed model's version and fit.
func (m *Metrics) ObserveModel(version int, r2 float64) {
	m.modelVersion.Set(float64(version))
	m.modelR2.Set(r2)
}
