package validation

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dealershipai/visibility-engine/internal/config"
	"github.com/dealershipai/visibility-engine/internal/domain/credibility"
	"github.com/dealershipai/visibility-engine/internal/domain/dealer"
	"github.com/dealershipai/visibility-engine/internal/domain/scoring"
	"github.com/dealershipai/visibility-engine/internal/infrastructure/monitoring/logging"
	"github.com/dealershipai/visibility-engine/pkg/types/common"
)

// ─────────────────────────────────────────────────────────────────────────────
// Stubs
// ─────────────────────────────────────────────────────────────────────────────

type stubResultRepo struct {
	history []float64
	pairs   []scoring.CrossCheck
}

func (s *stubResultRepo) SaveResult(_ context.Context, _ *scoring.Result) error { return nil }

func (s *stubResultRepo) TrailingOverallScores(_ context.Context, _ common.ID, _ common.TimeRange) ([]float64, error) {
	return s.history, nil
}

func (s *stubResultRepo) TrailingCrossChecks(_ context.Context, _ common.ID, _ common.TimeRange) ([]scoring.CrossCheck, error) {
	return s.pairs, nil
}

func (s *stubResultRepo) Previous(_ context.Context, _ common.ID, _ time.Time) (*scoring.Result, error) {
	return nil, nil
}

func (s *stubResultRepo) History(_ context.Context, _ common.ID, _ common.Pagination) ([]*scoring.Result, error) {
	return nil, nil
}

type stubAuditRepo struct {
	mu       sync.Mutex
	enqueued []*scoring.ManualAudit
	passRate float64
}

func (s *stubAuditRepo) Enqueue(_ context.Context, a *scoring.ManualAudit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enqueued = append(s.enqueued, a)
	return nil
}

func (s *stubAuditRepo) Resolve(_ context.Context, _ common.ID, _ scoring.AuditStatus) error {
	return nil
}

func (s *stubAuditRepo) PassRate(_ context.Context, _ common.TimeRange) (float64, error) {
	return s.passRate, nil
}

type stubDetector struct {
	answers map[string]bool
	calls   int
}

func (s *stubDetector) DetectCitations(_ context.Context, _ *dealer.Dealer, queries []string) map[string]bool {
	s.calls++
	out := make(map[string]bool, len(queries))
	for _, q := range queries {
		out[q] = s.answers[q]
	}
	return out
}

type recordingSink struct {
	mu     sync.Mutex
	alerts []common.Alert
}

func (s *recordingSink) PublishAlerts(_ context.Context, alerts []common.Alert) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alerts = append(s.alerts, alerts...)
	return nil
}

func validationConfig() config.ValidationConfig {
	return config.ValidationConfig{
		WindowDays:         30,
		VarianceThreshold:  15,
		AuditProbability:   0, // off unless a test opts in
		SpotCheckQueries:   5,
		AgreementThreshold: 0.80,
	}
}

func testDealer() *dealer.Dealer {
	return &dealer.Dealer{ID: common.ID("d-1"), Name: "Lone Star Toyota", Domain: "lonestartoyota.com"}
}

func draftResult(overall float64) *scoring.Result {
	return &scoring.Result{
		ID:                common.NewID(),
		DealerID:          common.ID("d-1"),
		Overall:           overall,
		OverallConfidence: 0.85,
		SEO:               scoring.PillarScore{Confidence: 0.9},
		AEO:               scoring.PillarScore{Confidence: 0.8},
		GEO:               scoring.PillarScore{Confidence: 0.85},
		CreatedAt:         time.Now().UTC(),
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Variance check
// ─────────────────────────────────────────────────────────────────────────────

func TestVarianceFlagsLargeDeparture(t *testing.T) {
	repo := &stubResultRepo{history: []float64{70, 70, 70}}
	v := NewValidator(repo, &stubAuditRepo{}, nil, validationConfig(), logging.NewNopLogger())

	out := v.Validate(context.Background(), testDealer(), draftResult(86), Artifacts{})
	assert.InDelta(t, 16.0, out.Variance, 1e-9)
	assert.True(t, out.RequiresManualReview)
	require.Len(t, out.Reasons, 1)
	assert.Contains(t, out.Reasons[0], "30-day mean")
}

func TestVarianceAtThresholdDoesNotFlag(t *testing.T) {
	repo := &stubResultRepo{history: []float64{70, 70, 70}}
	v := NewValidator(repo, &stubAuditRepo{}, nil, validationConfig(), logging.NewNopLogger())

	// Exactly 15 points out: the threshold is strict.
	out := v.Validate(context.Background(), testDealer(), draftResult(85), Artifacts{})
	assert.InDelta(t, 15.0, out.Variance, 1e-9)
	assert.False(t, out.RequiresManualReview)
}

func TestVarianceSkippedWithoutHistory(t *testing.T) {
	v := NewValidator(&stubResultRepo{}, &stubAuditRepo{}, nil, validationConfig(), logging.NewNopLogger())

	out := v.Validate(context.Background(), testDealer(), draftResult(90), Artifacts{})
	assert.Zero(t, out.Variance)
	assert.False(t, out.RequiresManualReview)
}

// ─────────────────────────────────────────────────────────────────────────────
// Cross-source check
// ─────────────────────────────────────────────────────────────────────────────

func TestCrossSourceCorrelatedSeriesPasses(t *testing.T) {
	repo := &stubResultRepo{
		history: []float64{80},
		pairs: []scoring.CrossCheck{
			{EngineRankScore: 60, IndependentRankScore: 58},
			{EngineRankScore: 70, IndependentRankScore: 69},
			{EngineRankScore: 80, IndependentRankScore: 81},
		},
	}
	v := NewValidator(repo, &stubAuditRepo{}, nil, validationConfig(), logging.NewNopLogger())

	r := draftResult(80)
	r.CrossCheck = scoring.CrossCheck{EngineRankScore: 90, IndependentRankScore: 88}
	out := v.Validate(context.Background(), testDealer(), r, Artifacts{})
	assert.False(t, out.RequiresManualReview)
}

func TestCrossSourceAntiCorrelatedSeriesFlags(t *testing.T) {
	repo := &stubResultRepo{
		history: []float64{80},
		pairs: []scoring.CrossCheck{
			{EngineRankScore: 60, IndependentRankScore: 90},
			{EngineRankScore: 70, IndependentRankScore: 80},
			{EngineRankScore: 80, IndependentRankScore: 70},
		},
	}
	v := NewValidator(repo, &stubAuditRepo{}, nil, validationConfig(), logging.NewNopLogger())

	r := draftResult(80)
	r.CrossCheck = scoring.CrossCheck{EngineRankScore: 90, IndependentRankScore: 60}
	out := v.Validate(context.Background(), testDealer(), r, Artifacts{})
	assert.True(t, out.RequiresManualReview)
	require.NotEmpty(t, out.Reasons)
	assert.Contains(t, out.Reasons[0], "correlation")
}

func TestCrossSourceCorrelationBecomesSEOConfidence(t *testing.T) {
	repo := &stubResultRepo{
		history: []float64{80},
		pairs: []scoring.CrossCheck{
			{EngineRankScore: 60, IndependentRankScore: 58},
			{EngineRankScore: 70, IndependentRankScore: 69},
			{EngineRankScore: 80, IndependentRankScore: 81},
		},
	}
	v := NewValidator(repo, &stubAuditRepo{}, nil, validationConfig(), logging.NewNopLogger())

	r := draftResult(80)
	r.CrossCheck = scoring.CrossCheck{EngineRankScore: 90, IndependentRankScore: 88}
	out := v.Validate(context.Background(), testDealer(), r, Artifacts{})

	// A near-linear pair series replaces the scorer's 0.9 with the trailing
	// correlation.
	assert.Greater(t, out.PillarConfidences[scoring.PillarSEO], 0.99)

	// Anti-correlated series clamp at zero rather than going negative.
	repo.pairs = []scoring.CrossCheck{
		{EngineRankScore: 60, IndependentRankScore: 90},
		{EngineRankScore: 70, IndependentRankScore: 80},
		{EngineRankScore: 80, IndependentRankScore: 70},
	}
	r.CrossCheck = scoring.CrossCheck{EngineRankScore: 90, IndependentRankScore: 60}
	out = v.Validate(context.Background(), testDealer(), r, Artifacts{})
	assert.Zero(t, out.PillarConfidences[scoring.PillarSEO])
}

func TestCrossSourceShortHistoryFallsBackToPair(t *testing.T) {
	v := NewValidator(&stubResultRepo{}, &stubAuditRepo{}, nil, validationConfig(), logging.NewNopLogger())

	r := draftResult(80)
	r.CrossCheck = scoring.CrossCheck{EngineRankScore: 95, IndependentRankScore: 40}
	out := v.Validate(context.Background(), testDealer(), r, Artifacts{})
	assert.True(t, out.RequiresManualReview)
	assert.Contains(t, out.Reasons[0], "diverge")

	r.CrossCheck = scoring.CrossCheck{EngineRankScore: 80, IndependentRankScore: 75}
	out = v.Validate(context.Background(), testDealer(), r, Artifacts{})
	assert.False(t, out.RequiresManualReview)
}

// ─────────────────────────────────────────────────────────────────────────────
// Spot check
// ─────────────────────────────────────────────────────────────────────────────

func TestSpotCheckAgreementPasses(t *testing.T) {
	detections := map[string]bool{"q1": true, "q2": false, "q3": true, "q4": true, "q5": false}
	det := &stubDetector{answers: detections}
	v := NewValidator(&stubResultRepo{}, &stubAuditRepo{}, det, validationConfig(), logging.NewNopLogger()).WithSeed(1)

	out := v.Validate(context.Background(), testDealer(), draftResult(80), Artifacts{Detections: detections})
	assert.False(t, out.RequiresManualReview)
	assert.Equal(t, 1, det.calls)
}

func TestSpotCheckDisagreementFlags(t *testing.T) {
	detections := map[string]bool{"q1": true, "q2": true, "q3": true, "q4": true, "q5": true}
	// Re-run finds no citations at all: agreement 0.
	det := &stubDetector{answers: map[string]bool{}}
	v := NewValidator(&stubResultRepo{}, &stubAuditRepo{}, det, validationConfig(), logging.NewNopLogger()).WithSeed(1)

	out := v.Validate(context.Background(), testDealer(), draftResult(80), Artifacts{Detections: detections})
	assert.True(t, out.RequiresManualReview)
	require.NotEmpty(t, out.Reasons)
	assert.Contains(t, out.Reasons[0], "spot check")
}

func TestSpotCheckAgreementBecomesAEOConfidence(t *testing.T) {
	detections := map[string]bool{"q1": true, "q2": false, "q3": true, "q4": true, "q5": false}

	det := &stubDetector{answers: detections}
	v := NewValidator(&stubResultRepo{}, &stubAuditRepo{}, det, validationConfig(), logging.NewNopLogger()).WithSeed(1)
	out := v.Validate(context.Background(), testDealer(), draftResult(80), Artifacts{Detections: detections})
	assert.InDelta(t, 1.0, out.PillarConfidences[scoring.PillarAEO], 1e-9)

	// A re-run that agrees on nothing drives the confidence to zero.
	det = &stubDetector{answers: map[string]bool{"q2": true, "q5": true}}
	v = NewValidator(&stubResultRepo{}, &stubAuditRepo{}, det, validationConfig(), logging.NewNopLogger()).WithSeed(1)
	out = v.Validate(context.Background(), testDealer(), draftResult(80), Artifacts{Detections: detections})
	assert.Zero(t, out.PillarConfidences[scoring.PillarAEO])
}

func TestSpotCheckSkippedWithoutDetector(t *testing.T) {
	v := NewValidator(&stubResultRepo{}, &stubAuditRepo{}, nil, validationConfig(), logging.NewNopLogger())
	out := v.Validate(context.Background(), testDealer(), draftResult(80), Artifacts{Detections: map[string]bool{"q": true}})
	assert.False(t, out.RequiresManualReview)
}

// ─────────────────────────────────────────────────────────────────────────────
// Probabilistic audit
// ─────────────────────────────────────────────────────────────────────────────

func TestAuditSampling(t *testing.T) {
	cfg := validationConfig()
	cfg.AuditProbability = 1.0
	audits := &stubAuditRepo{}
	v := NewValidator(&stubResultRepo{}, audits, nil, cfg, logging.NewNopLogger())

	r := draftResult(80)
	v.Validate(context.Background(), testDealer(), r, Artifacts{})
	require.Len(t, audits.enqueued, 1)
	assert.Equal(t, r.ID, audits.enqueued[0].ResultID)
	assert.Equal(t, "random_sample", audits.enqueued[0].Reason)
	assert.Equal(t, scoring.AuditPending, audits.enqueued[0].Status)

	cfg.AuditProbability = 0
	v = NewValidator(&stubResultRepo{}, audits, nil, cfg, logging.NewNopLogger())
	v.Validate(context.Background(), testDealer(), draftResult(80), Artifacts{})
	assert.Len(t, audits.enqueued, 1)
}

func TestAuditSamplingStableAcrossRestarts(t *testing.T) {
	cfg := validationConfig()
	cfg.AuditProbability = 0.5

	// The draw depends only on the result ID, so a fresh validator makes
	// the same call for the same result.
	r := draftResult(80)
	first := &stubAuditRepo{}
	NewValidator(&stubResultRepo{}, first, nil, cfg, logging.NewNopLogger()).
		Validate(context.Background(), testDealer(), r, Artifacts{})

	second := &stubAuditRepo{}
	NewValidator(&stubResultRepo{}, second, nil, cfg, logging.NewNopLogger()).
		Validate(context.Background(), testDealer(), r, Artifacts{})

	assert.Equal(t, len(first.enqueued), len(second.enqueued))
}

// ─────────────────────────────────────────────────────────────────────────────
// Recorder
// ─────────────────────────────────────────────────────────────────────────────

func TestRecorderFigures(t *testing.T) {
	r := NewRecorder()
	assert.Equal(t, 1.0, r.SuccessRate())
	assert.Equal(t, 1.0, r.Uptime())
	assert.Zero(t, r.AvgLatencySeconds())

	r.RecordCycle(2*time.Second, false)
	r.RecordCycle(4*time.Second, true)
	r.RecordConfidences(0.9, 0.8, 0.85)
	r.RecordTick(true)
	r.RecordTick(true)
	r.RecordTick(false)

	assert.InDelta(t, 0.5, r.SuccessRate(), 1e-9)
	assert.InDelta(t, 3.0, r.AvgLatencySeconds(), 1e-9)
	assert.InDelta(t, 2.0/3, r.Uptime(), 1e-9)

	seo, aeo, geo, ok := r.MeanConfidences()
	require.True(t, ok)
	assert.InDelta(t, 0.9, seo, 1e-9)
	assert.InDelta(t, 0.8, aeo, 1e-9)
	assert.InDelta(t, 0.85, geo, 1e-9)

	r.Reset()
	assert.Equal(t, 1.0, r.SuccessRate())
	_, _, _, ok = r.MeanConfidences()
	assert.False(t, ok)
}

// ─────────────────────────────────────────────────────────────────────────────
// Health engine
// ─────────────────────────────────────────────────────────────────────────────

type stubCacheStats struct{ hits, misses int64 }

func (s *stubCacheStats) CacheStats(_ context.Context) (int64, int64, error) {
	return s.hits, s.misses, nil
}

type stubModelSource struct{ m *credibility.Model }

func (s *stubModelSource) Model() *credibility.Model { return s.m }

func healthConfig() config.Config {
	var cfg config.Config
	config.ApplyDefaults(&cfg)
	return cfg
}

func TestHealthSnapshotHealthy(t *testing.T) {
	rec := NewRecorder()
	rec.RecordCycle(time.Second, false)
	rec.RecordConfidences(0.93, 0.89, 0.91)
	rec.RecordTick(true)

	sink := &recordingSink{}
	h := NewHealthEngine(rec,
		&stubCacheStats{hits: 80, misses: 20},
		&stubModelSource{m: &credibility.Model{R2: 0.86}},
		&stubAuditRepo{passRate: 0.99},
		sink, healthConfig(), logging.NewNopLogger())

	m := h.Refresh(context.Background())
	assert.InDelta(t, 0.93, m.SEOAccuracy, 1e-9)
	assert.InDelta(t, 0.86, m.ModelR2, 1e-9)
	assert.Equal(t, 1.0, m.Uptime)
	assert.Equal(t, 1.0, m.SuccessRate)
	assert.InDelta(t, 0.80, m.CacheHitRate, 1e-9)
	assert.InDelta(t, 0.99, m.SpotCheckAccuracy, 1e-9)
	assert.InDelta(t, 0.01, m.DisputeRate, 1e-9)
	assert.Less(t, m.CostPerDealerUSD, 7.0)
	assert.Greater(t, m.GrossMargin, 0.95)
	assert.Empty(t, m.Alerts)
	assert.Empty(t, sink.alerts)

	// Snapshot retained, recorder reset for the next interval.
	assert.Equal(t, m.GeneratedAt, h.Snapshot().GeneratedAt)
	assert.Equal(t, 1.0, rec.SuccessRate())
}

func TestHealthSnapshotRaisesAlerts(t *testing.T) {
	rec := NewRecorder()
	for i := 0; i < 10; i++ {
		rec.RecordCycle(5*time.Second, i < 5) // 50% success, 5s latency
	}
	rec.RecordConfidences(0.93, 0.89, 0.91)

	sink := &recordingSink{}
	h := NewHealthEngine(rec, &stubCacheStats{hits: 10, misses: 90}, nil, nil, sink, healthConfig(), logging.NewNopLogger())

	m := h.Refresh(context.Background())
	types := make(map[string]common.AlertSeverity)
	for _, a := range m.Alerts {
		types[a.Type] = a.Severity
	}
	assert.Contains(t, types, "success_rate")
	assert.Contains(t, types, "avg_latency_seconds")
	assert.Contains(t, types, "cache_hit_rate")
	// 50% against a 98% target is far past the critical band.
	assert.Equal(t, common.SeverityCritical, types["success_rate"])
	assert.Equal(t, len(m.Alerts), len(sink.alerts))
}

func TestHealthCustomerFigureOverrides(t *testing.T) {
	h := NewHealthEngine(NewRecorder(), nil, nil, nil, nil, healthConfig(), logging.NewNopLogger())
	h.SetCustomerFigures(3.9, 0.08)

	m := h.Refresh(context.Background())
	assert.Equal(t, 3.9, m.Satisfaction)
	assert.Equal(t, 0.08, m.ChurnRate)

	types := make(map[string]struct{})
	for _, a := range m.Alerts {
		types[a.Type] = struct{}{}
	}
	assert.Contains(t, types, "satisfaction")
	assert.Contains(t, types, "churn_rate")
}
