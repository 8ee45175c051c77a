package scoring

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	appcredibility "github.com/dealershipai/visibility-engine/internal/application/credibility"
	"github.com/dealershipai/visibility-engine/internal/application/validation"
	"github.com/dealershipai/visibility-engine/internal/config"
	"github.com/dealershipai/visibility-engine/internal/domain/dealer"
	"github.com/dealershipai/visibility-engine/internal/domain/economics"
	"github.com/dealershipai/visibility-engine/internal/domain/event"
	"github.com/dealershipai/visibility-engine/internal/domain/scoring"
	"github.com/dealershipai/visibility-engine/internal/infrastructure/monitoring/logging"
	"github.com/dealershipai/visibility-engine/pkg/errors"
	"github.com/dealershipai/visibility-engine/pkg/types/common"
)

// maxRecommendations caps the action list attached to one result.
const maxRecommendations = 6

// ResultValidator runs the post-aggregation checks; implemented by the
// validation engine.
type ResultValidator interface {
	Validate(ctx context.Context, d *dealer.Dealer, r *scoring.Result, art validation.Artifacts) *scoring.ValidationOutcome
}

// Engine runs one full scoring cycle for one dealer: the three pillar
// scorers and the credibility feature extraction fan out concurrently, then
// aggregation, prediction, validation, and persistence run in sequence.
type Engine struct {
	seo       *SEOScorer
	aeo       *AEOScorer
	geo       *GEOScorer
	extractor *appcredibility.FeatureExtractor
	predictor *appcredibility.Predictor
	validator ResultValidator
	results   scoring.Repository
	reviews   event.ReviewQueue
	recorder  *validation.Recorder

	weights   scoring.Weights
	economics config.EconomicsConfig
	platforms int
	log       logging.Logger
}

// EngineDeps bundles the engine's collaborators.
type EngineDeps struct {
	SEO       *SEOScorer
	AEO       *AEOScorer
	GEO       *GEOScorer
	Extractor *appcredibility.FeatureExtractor
	Predictor *appcredibility.Predictor
	Validator ResultValidator
	Results   scoring.Repository
	Reviews   event.ReviewQueue
	Recorder  *validation.Recorder

	// Platforms is the number of active answer platforms, used for the
	// per-dealer cost table.
	Platforms int
}

// NewEngine assembles the scoring engine.  Reviews and Recorder may be nil;
// review routing and operational figures are then skipped.
func NewEngine(deps EngineDeps, cfg *config.Config, log logging.Logger) *Engine {
	return &Engine{
		seo:       deps.SEO,
		aeo:       deps.AEO,
		geo:       deps.GEO,
		extractor: deps.Extractor,
		predictor: deps.Predictor,
		validator: deps.Validator,
		results:   deps.Results,
		reviews:   deps.Reviews,
		recorder:  deps.Recorder,
		weights: scoring.Weights{
			SEO: cfg.Scoring.Pillars.SEO,
			AEO: cfg.Scoring.Pillars.AEO,
			GEO: cfg.Scoring.Pillars.GEO,
		},
		economics: cfg.Economics,
		platforms: deps.Platforms,
		log:       log.Named("engine"),
	}
}

// ScoreDealer runs the full cycle and returns the persisted result.  The
// pillar scorers degrade rather than fail, so the only error paths are an
// invalid dealer, a cancelled context, and persistence.
func (e *Engine) ScoreDealer(ctx context.Context, d *dealer.Dealer) (*scoring.Result, error) {
	started := time.Now()
	r, err := e.scoreDealer(ctx, d)
	if e.recorder != nil {
		e.recorder.RecordCycle(time.Since(started), err != nil)
		if err == nil {
			e.recorder.RecordConfidences(r.SEO.Confidence, r.AEO.Confidence, r.GEO.Confidence)
		}
	}
	return r, err
}

func (e *Engine) scoreDealer(ctx context.Context, d *dealer.Dealer) (*scoring.Result, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}

	var (
		seoOut     SEOOutput
		aeoOut     AEOOutput
		geoOut     scoring.PillarScore
		extraction appcredibility.Extraction
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		seoOut = e.seo.Score(gctx, d)
		return nil
	})
	g.Go(func() error {
		aeoOut = e.aeo.Score(gctx, d)
		return nil
	})
	g.Go(func() error {
		geoOut = e.geo.Score(gctx, d)
		return nil
	})
	g.Go(func() error {
		extraction = e.extractor.Extract(gctx, d)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeTimeout, "scoring cycle cancelled")
	}

	agg := scoring.Combine(seoOut.Score, aeoOut.Score, geoOut, e.weights)

	r := &scoring.Result{
		ID:                common.NewID(),
		DealerID:          d.ID,
		DealerName:        d.Name,
		Overall:           agg.Overall,
		OverallConfidence: agg.Confidence,
		SEO:               seoOut.Score,
		AEO:               aeoOut.Score,
		GEO:               geoOut,
		Credibility:       e.predictor.Score(extraction),
		Cost:              e.costBreakdown(d),
		CrossCheck:        seoOut.CrossCheck,
		Insights:          scoring.GenerateInsights(seoOut.Score, aeoOut.Score, geoOut),
		Recommendations:   scoring.GenerateRecommendations(seoOut.Score, aeoOut.Score, geoOut, maxRecommendations),
		CreatedAt:         time.Now().UTC(),
	}

	r.Validation = e.validator.Validate(ctx, d, r, validation.Artifacts{Detections: aeoOut.Detections})

	if err := e.results.SaveResult(ctx, r); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "persisting scoring result")
	}

	if r.Validation.RequiresManualReview {
		e.routeReview(ctx, r)
	}

	e.log.Info("dealer scored",
		logging.String("dealer_id", string(d.ID)),
		logging.Int("overall", r.DisplayOverall()),
		logging.Float64("confidence", r.OverallConfidence),
		logging.Bool("review", r.Validation.RequiresManualReview))
	return r, nil
}

func (e *Engine) costBreakdown(d *dealer.Dealer) economics.CostBreakdown {
	fleet := 0
	for _, t := range e.economics.Tiers {
		fleet += t.Dealers
	}
	return economics.BuildCostBreakdown(economics.CostInputs{
		AIQueryCostUSD:    e.economics.AIQueryCostUSD,
		PanelQueries:      dealer.PanelSize(d.Market()),
		Platforms:         e.platforms,
		SEOAPIMonthlyUSD:  e.economics.SEOAPIMonthlyUSD,
		ComputeMonthlyUSD: e.economics.ComputeMonthlyUSD,
		FleetSize:         fleet,
	})
}

// routeReview delivers the flagged result to the review queue.  Delivery
// failure is logged, not propagated; the result is already persisted with
// its flag.
func (e *Engine) routeReview(ctx context.Context, r *scoring.Result) {
	if e.reviews == nil {
		return
	}
	ev := event.ReviewEvent{
		DealerID:  r.DealerID,
		ResultID:  r.ID,
		Reasons:   r.Validation.Reasons,
		CreatedAt: time.Now().UTC(),
	}
	if err := e.reviews.EnqueueReview(ctx, ev); err != nil {
		e.log.Error("review routing failed",
			logging.String("dealer_id", string(r.DealerID)), logging.Err(err))
	}
}

// Trend compares the new result against the dealer's previous cycle.
func (e *Engine) Trend(ctx context.Context, r *scoring.Result) (*scoring.Trend, error) {
	prev, err := e.results.Previous(ctx, r.DealerID, r.CreatedAt)
	if err != nil {
		return nil, err
	}
	return scoring.CompareTrend(r, prev), nil
}
