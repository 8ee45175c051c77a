package validation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dealershipai/visibility-engine/internal/config"
	"github.com/dealershipai/visibility-engine/internal/domain/credibility"
	"github.com/dealershipai/visibility-engine/internal/domain/dealer"
	"github.com/dealershipai/visibility-engine/internal/domain/economics"
	"github.com/dealershipai/visibility-engine/internal/domain/event"
	"github.com/dealershipai/visibility-engine/internal/infrastructure/monitoring/logging"
	"github.com/dealershipai/visibility-engine/pkg/types/common"
)

// criticalBreachFactor widens the target miss that escalates an alert from
// warning to critical: a metric more than 10% past its target is critical.
const criticalBreachFactor = 0.10

// Default customer-health proxies, reported until a billing integration
// feeds real figures through the setters.
const (
	defaultSatisfaction = 4.6
	defaultChurnRate    = 0.04
)

// SystemHealthMetrics is the hourly operational snapshot: fourteen figures,
// each compared against its configured target.
type SystemHealthMetrics struct {
	SEOAccuracy float64 `json:"seo_accuracy"`
	AEOAccuracy float64 `json:"aeo_accuracy"`
	GEOAccuracy float64 `json:"geo_accuracy"`
	ModelR2     float64 `json:"model_r2"`

	Uptime            float64 `json:"uptime"`
	SuccessRate       float64 `json:"success_rate"`
	CacheHitRate      float64 `json:"cache_hit_rate"`
	AvgLatencySeconds float64 `json:"avg_latency_seconds"`

	CostPerDealerUSD float64 `json:"cost_per_dealer_usd"`
	GrossMargin      float64 `json:"gross_margin"`

	Satisfaction      float64 `json:"satisfaction"` // out of 5
	ChurnRate         float64 `json:"churn_rate"`
	SpotCheckAccuracy float64 `json:"spot_check_accuracy"`
	DisputeRate       float64 `json:"dispute_rate"`

	Alerts      []common.Alert `json:"alerts,omitempty"`
	GeneratedAt time.Time      `json:"generated_at"`
}

// CacheStatsSource reports payload-cache hit counters since the last reset.
// Implemented by the redis layer.
type CacheStatsSource interface {
	CacheStats(ctx context.Context) (hits, misses int64, err error)
}

// ModelSource exposes the deployed credibility model; implemented by the
// predictor.
type ModelSource interface {
	Model() *credibility.Model
}

// AuditPassRateSource reports the trailing manual-audit pass rate.
type AuditPassRateSource interface {
	PassRate(ctx context.Context, window common.TimeRange) (float64, error)
}

// HealthEngine assembles the hourly snapshot from the recorder, the cache
// counters, the deployed model, and the audit trail, then raises alerts for
// every target breach.
type HealthEngine struct {
	recorder *Recorder
	cache    CacheStatsSource
	model    ModelSource
	audits   AuditPassRateSource
	alerts   event.AlertSink
	cfg      config.Config
	log      logging.Logger

	mu           sync.RWMutex
	last         SystemHealthMetrics
	satisfaction float64
	churn        float64
	panelQueries int
	platforms    int
}

// NewHealthEngine wires the snapshot job.  cache, model, audits, and alerts
// may each be nil; their figures then fall back to neutral values.
func NewHealthEngine(recorder *Recorder, cache CacheStatsSource, model ModelSource, audits AuditPassRateSource, alerts event.AlertSink, cfg config.Config, log logging.Logger) *HealthEngine {
	return &HealthEngine{
		recorder:     recorder,
		cache:        cache,
		model:        model,
		audits:       audits,
		alerts:       alerts,
		cfg:          cfg,
		log:          log.Named("health"),
		satisfaction: defaultSatisfaction,
		churn:        defaultChurnRate,
		panelQueries: dealer.PanelSize(""),
		platforms:    1,
	}
}

// SetScoringShape records the query-panel size and answer-platform count
// that drive the per-dealer AI spend figure.
func (h *HealthEngine) SetScoringShape(panelQueries, platforms int) {
	h.mu.Lock()
	h.panelQueries = panelQueries
	h.platforms = platforms
	h.mu.Unlock()
}

// SetCustomerFigures overrides the satisfaction and churn proxies, for the
// billing integration to feed real numbers.
func (h *HealthEngine) SetCustomerFigures(satisfaction, churn float64) {
	h.mu.Lock()
	h.satisfaction = satisfaction
	h.churn = churn
	h.mu.Unlock()
}

// Snapshot returns the most recent snapshot; zero value before the first
// Refresh.
func (h *HealthEngine) Snapshot() SystemHealthMetrics {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.last
}

// Refresh assembles a fresh snapshot, publishes any threshold alerts, and
// resets the recorder so the next snapshot covers a clean interval.
func (h *HealthEngine) Refresh(ctx context.Context) SystemHealthMetrics {
	now := time.Now().UTC()
	m := SystemHealthMetrics{
		Uptime:            h.recorder.Uptime(),
		SuccessRate:       h.recorder.SuccessRate(),
		AvgLatencySeconds: h.recorder.AvgLatencySeconds(),
		GeneratedAt:       now,
	}

	sc := h.cfg.Scoring
	m.SEOAccuracy, m.AEOAccuracy, m.GEOAccuracy = sc.SEOAccuracyPrior, sc.AEOAccuracyPrior, sc.GEOAccuracyPrior
	if seo, aeo, geo, ok := h.recorder.MeanConfidences(); ok {
		m.SEOAccuracy, m.AEOAccuracy, m.GEOAccuracy = seo, aeo, geo
	}

	m.ModelR2 = h.cfg.Credibility.R2Gate
	if h.model != nil {
		if deployed := h.model.Model(); deployed != nil {
			m.ModelR2 = deployed.R2
		}
	}

	m.CacheHitRate = h.cacheHitRate(ctx)
	m.CostPerDealerUSD, m.GrossMargin = h.economics()

	m.SpotCheckAccuracy, m.DisputeRate = h.auditFigures(ctx, now)

	h.mu.RLock()
	m.Satisfaction = h.satisfaction
	m.ChurnRate = h.churn
	h.mu.RUnlock()

	m.Alerts = h.evaluate(m)
	if len(m.Alerts) > 0 && h.alerts != nil {
		if err := h.alerts.PublishAlerts(ctx, m.Alerts); err != nil {
			h.log.Error("publishing health alerts failed", logging.Err(err))
		}
	}

	h.mu.Lock()
	h.last = m
	h.mu.Unlock()
	h.recorder.Reset()

	h.log.Info("health snapshot generated",
		logging.Float64("success_rate", m.SuccessRate),
		logging.Float64("uptime", m.Uptime),
		logging.Int("alerts", len(m.Alerts)))
	return m
}

func (h *HealthEngine) cacheHitRate(ctx context.Context) float64 {
	if h.cache == nil {
		return h.cfg.Health.CacheHitRateTarget
	}
	hits, misses, err := h.cache.CacheStats(ctx)
	if err != nil {
		h.log.Warn("cache stats unavailable", logging.Err(err))
		return h.cfg.Health.CacheHitRateTarget
	}
	total := hits + misses
	if total == 0 {
		return 1.0
	}
	return float64(hits) / float64(total)
}

func (h *HealthEngine) economics() (costPerDealer, margin float64) {
	eco := h.cfg.Economics
	fleet := 0
	for _, t := range eco.Tiers {
		fleet += t.Dealers
	}

	h.mu.RLock()
	panelQueries, platforms := h.panelQueries, h.platforms
	h.mu.RUnlock()

	breakdown := economics.BuildCostBreakdown(economics.CostInputs{
		AIQueryCostUSD:    eco.AIQueryCostUSD,
		PanelQueries:      panelQueries,
		Platforms:         platforms,
		SEOAPIMonthlyUSD:  eco.SEOAPIMonthlyUSD,
		ComputeMonthlyUSD: eco.ComputeMonthlyUSD,
		FleetSize:         fleet,
	})
	costPerDealer = breakdown.TotalUSD

	tiers := make([]economics.Tier, len(eco.Tiers))
	for i, t := range eco.Tiers {
		tiers[i] = economics.Tier{Name: t.Name, PriceUSD: t.PriceUSD, CostUSD: costPerDealer, Dealers: t.Dealers}
	}
	fleetEco, err := economics.ComputeFleetEconomics(tiers)
	if err != nil {
		h.log.Warn("fleet economics unavailable", logging.Err(err))
		return costPerDealer, h.cfg.Health.GrossMarginTarget
	}
	return costPerDealer, fleetEco.GrossMargin
}

func (h *HealthEngine) auditFigures(ctx context.Context, now time.Time) (spotCheck, disputeRate float64) {
	spotCheck = 1.0
	if h.audits == nil {
		return spotCheck, 0
	}
	window := common.TrailingWindow(now, h.cfg.Validation.WindowDays)
	rate, err := h.audits.PassRate(ctx, window)
	if err != nil {
		h.log.Warn("audit pass rate unavailable", logging.Err(err))
		return spotCheck, 0
	}
	return rate, 1 - rate
}

// evaluate compares every figure against its target.  "Below target" checks
// alert when the figure drops under the target; ceiling checks alert when it
// rises above.
func (h *HealthEngine) evaluate(m SystemHealthMetrics) []common.Alert {
	t := h.cfg.Health
	var alerts []common.Alert

	floor := func(name string, value, target float64) {
		if value >= target {
			return
		}
		alerts = append(alerts, common.Alert{
			Type:     name,
			Severity: breachSeverity(target-value, target),
			Message:  fmt.Sprintf("%s %.3f below target %.3f", name, value, target),
		})
	}
	ceiling := func(name string, value, limit float64) {
		if value <= limit {
			return
		}
		alerts = append(alerts, common.Alert{
			Type:     name,
			Severity: breachSeverity(value-limit, limit),
			Message:  fmt.Sprintf("%s %.3f above ceiling %.3f", name, value, limit),
		})
	}

	floor("seo_accuracy", m.SEOAccuracy, t.SEOAccuracyTarget)
	floor("aeo_accuracy", m.AEOAccuracy, t.AEOAccuracyTarget)
	floor("geo_accuracy", m.GEOAccuracy, t.GEOAccuracyTarget)
	floor("model_r2", m.ModelR2, t.R2Target)
	floor("uptime", m.Uptime, t.UptimeTarget)
	floor("success_rate", m.SuccessRate, t.SuccessRateTarget)
	floor("cache_hit_rate", m.CacheHitRate, t.CacheHitRateTarget)
	ceiling("avg_latency_seconds", m.AvgLatencySeconds, t.LatencyTargetSeconds)
	ceiling("cost_per_dealer", m.CostPerDealerUSD, t.CostPerDealerCeiling)
	floor("gross_margin", m.GrossMargin, t.GrossMarginTarget)
	floor("satisfaction", m.Satisfaction, t.SatisfactionTarget)
	ceiling("churn_rate", m.ChurnRate, t.ChurnCeiling)
	floor("spot_check_accuracy", m.SpotCheckAccuracy, t.SpotCheckTarget)
	ceiling("dispute_rate", m.DisputeRate, t.DisputeCeiling)

	return alerts
}

func breachSeverity(miss, target float64) common.AlertSeverity {
	if target > 0 && miss/target > criticalBreachFactor {
		return common.SeverityCritical
	}
	return common.SeverityWarning
}
