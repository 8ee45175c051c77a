// Package validation runs the post-aggregation quality checks on every
// scoring result and maintains the hourly system-health snapshot.  A check
// that trips never blocks persistence; it raises the manual-review flag and
// routes the result to the review queue.
package validation

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"math/rand"
	"sort"
	"sync"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/dealershipai/visibility-engine/internal/config"
	"github.com/dealershipai/visibility-engine/internal/domain/dealer"
	"github.com/dealershipai/visibility-engine/internal/domain/scoring"
	"github.com/dealershipai/visibility-engine/internal/infrastructure/monitoring/logging"
	"github.com/dealershipai/visibility-engine/pkg/types/common"
)

// minCorrelationPoints is the smallest trailing series the Pearson check
// accepts; below it the check compares the current pair directly.
const minCorrelationPoints = 3

// crossCorrelationFloor flags the cross-source check when the trailing
// correlation of the two rank series drops below it.
const crossCorrelationFloor = 0.5

// pairDivergenceLimit is the fallback for short histories: the current
// engine and independent rank scores may differ by at most this many points.
const pairDivergenceLimit = 30.0

// CitationDetector re-runs answer-platform queries for the spot check.
// Implemented by the AEO scorer.
type CitationDetector interface {
	DetectCitations(ctx context.Context, d *dealer.Dealer, queries []string) map[string]bool
}

// Artifacts is the per-cycle evidence the validator consumes alongside the
// draft result.
type Artifacts struct {
	// Detections is the cycle's per-query citation outcome from the AEO
	// scorer, re-sampled by the spot check.
	Detections map[string]bool
}

// Validator runs the four per-result checks: trailing-variance, cross-source
// correlation, probabilistic manual audit, and the AEO spot check.
type Validator struct {
	results scoring.Repository
	audits  scoring.AuditRepository
	detect  CitationDetector
	cfg     config.ValidationConfig
	log     logging.Logger

	mu  sync.Mutex
	rnd *rand.Rand
}

// NewValidator wires the validation engine.  detect may be nil when no
// answer platforms are configured; the spot check is then skipped.
func NewValidator(results scoring.Repository, audits scoring.AuditRepository, detect CitationDetector, cfg config.ValidationConfig, log logging.Logger) *Validator {
	return &Validator{
		results: results,
		audits:  audits,
		detect:  detect,
		cfg:     cfg,
		log:     log.Named("validation"),
		rnd:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// WithSeed fixes the spot-check sampling seed.
func (v *Validator) WithSeed(seed int64) *Validator {
	v.mu.Lock()
	v.rnd = rand.New(rand.NewSource(seed))
	v.mu.Unlock()
	return v
}

// Validate runs all checks against the draft result and returns the outcome
// to attach to it.  Repository read failures degrade to a skipped check with
// a warning; they never fail the cycle.
func (v *Validator) Validate(ctx context.Context, d *dealer.Dealer, r *scoring.Result, art Artifacts) *scoring.ValidationOutcome {
	out := &scoring.ValidationOutcome{
		OverallConfidence: r.OverallConfidence,
		PillarConfidences: map[scoring.Pillar]float64{
			scoring.PillarSEO: r.SEO.Confidence,
			scoring.PillarAEO: r.AEO.Confidence,
			scoring.PillarGEO: r.GEO.Confidence,
		},
	}

	window := common.TrailingWindow(r.CreatedAt, v.cfg.WindowDays)

	v.checkVariance(ctx, d, r, window, out)
	v.checkCrossSource(ctx, d, r, window, out)
	v.spotCheck(ctx, d, art, out)

	if out.RequiresManualReview {
		v.log.Warn("result flagged for manual review",
			logging.String("dealer_id", string(d.ID)),
			logging.Any("reasons", out.Reasons))
	}

	v.maybeAudit(ctx, r)
	return out
}

// checkVariance compares the overall score against the trailing-window mean
// and flags when the distance exceeds the threshold.
func (v *Validator) checkVariance(ctx context.Context, d *dealer.Dealer, r *scoring.Result, window common.TimeRange, out *scoring.ValidationOutcome) {
	history, err := v.results.TrailingOverallScores(ctx, d.ID, window)
	if err != nil {
		v.log.Warn("variance check skipped",
			logging.String("dealer_id", string(d.ID)), logging.Err(err))
		return
	}
	if len(history) == 0 {
		return
	}

	mean := stat.Mean(history, nil)
	out.Variance = math.Abs(r.Overall - mean)
	if out.Variance > v.cfg.VarianceThreshold {
		out.RequiresManualReview = true
		out.Reasons = append(out.Reasons, fmt.Sprintf(
			"overall score %.1f departs %.1f points from the %d-day mean %.1f (threshold %.1f)",
			r.Overall, out.Variance, v.cfg.WindowDays, mean, v.cfg.VarianceThreshold))
	}
}

// checkCrossSource correlates the trailing engine and independent rank
// series.  Short histories fall back to comparing the current pair.
func (v *Validator) checkCrossSource(ctx context.Context, d *dealer.Dealer, r *scoring.Result, window common.TimeRange, out *scoring.ValidationOutcome) {
	pairs, err := v.results.TrailingCrossChecks(ctx, d.ID, window)
	if err != nil {
		v.log.Warn("cross-source check skipped",
			logging.String("dealer_id", string(d.ID)), logging.Err(err))
		return
	}
	pairs = append(pairs, r.CrossCheck)

	if len(pairs) < minCorrelationPoints {
		diff := math.Abs(r.CrossCheck.EngineRankScore - r.CrossCheck.IndependentRankScore)
		if diff > pairDivergenceLimit {
			out.RequiresManualReview = true
			out.Reasons = append(out.Reasons, fmt.Sprintf(
				"engine and independent rank scores diverge by %.1f points with insufficient history for correlation", diff))
		}
		return
	}

	engine := make([]float64, len(pairs))
	independent := make([]float64, len(pairs))
	for i, p := range pairs {
		engine[i] = p.EngineRankScore
		independent[i] = p.IndependentRankScore
	}
	corr := stat.Correlation(engine, independent, nil)
	// Constant series produce NaN; nothing to conclude from them.
	if math.IsNaN(corr) {
		return
	}
	// The trailing correlation replaces the scorer's own SEO confidence:
	// agreement with the independent source is the better calibration.
	out.PillarConfidences[scoring.PillarSEO] = common.Clamp(corr, 0, 1)
	if corr < crossCorrelationFloor {
		out.RequiresManualReview = true
		out.Reasons = append(out.Reasons, fmt.Sprintf(
			"cross-source rank correlation %.2f below %.2f over %d cycles",
			corr, crossCorrelationFloor, len(pairs)))
	}
}

// spotCheck re-runs a sample of the cycle's answer-platform queries and
// flags when the re-run disagrees with the recorded detections too often.
func (v *Validator) spotCheck(ctx context.Context, d *dealer.Dealer, art Artifacts, out *scoring.ValidationOutcome) {
	if v.detect == nil || len(art.Detections) == 0 {
		return
	}

	queries := make([]string, 0, len(art.Detections))
	for q := range art.Detections {
		queries = append(queries, q)
	}
	sort.Strings(queries)

	n := v.cfg.SpotCheckQueries
	if n > len(queries) {
		n = len(queries)
	}
	v.mu.Lock()
	v.rnd.Shuffle(len(queries), func(i, j int) { queries[i], queries[j] = queries[j], queries[i] })
	v.mu.Unlock()
	sample := queries[:n]

	rerun := v.detect.DetectCitations(ctx, d, sample)
	matches := 0
	for _, q := range sample {
		if rerun[q] == art.Detections[q] {
			matches++
		}
	}
	agreement := float64(matches) / float64(n)
	// The re-run agreement ratio replaces the scorer's own AEO confidence.
	out.PillarConfidences[scoring.PillarAEO] = agreement
	if agreement < v.cfg.AgreementThreshold {
		out.RequiresManualReview = true
		out.Reasons = append(out.Reasons, fmt.Sprintf(
			"citation spot check agreement %.2f below %.2f on %d queries",
			agreement, v.cfg.AgreementThreshold, n))
	}
}

// auditRoll derives a stable [0, 1) draw from the result ID, so whether a
// given result is sampled does not change across process restarts.
func auditRoll(id common.ID) float64 {
	h := fnv.New64a()
	h.Write([]byte(id))
	return float64(h.Sum64()%100000) / 100000
}

// maybeAudit enqueues the result for human review with the configured
// probability, independent of any check outcome.
func (v *Validator) maybeAudit(ctx context.Context, r *scoring.Result) {
	if auditRoll(r.ID) >= v.cfg.AuditProbability {
		return
	}

	audit := &scoring.ManualAudit{
		ID:        common.NewID(),
		DealerID:  r.DealerID,
		ResultID:  r.ID,
		Reason:    "random_sample",
		Status:    scoring.AuditPending,
		CreatedAt: time.Now().UTC(),
	}
	if err := v.audits.Enqueue(ctx, audit); err != nil {
		v.log.Error("audit enqueue failed",
			logging.String("dealer_id", string(r.DealerID)), logging.Err(err))
	}
}
