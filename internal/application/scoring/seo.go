// Package scoring orchestrates the pillar scorers, the per-dealer engine,
// and the fleet batch run.  Pure score math lives in the domain package;
// this layer fetches provider data, degrades confidence on failures, and
// assembles results.
package scoring

import (
	"context"
	"time"

	"github.com/dealershipai/visibility-engine/internal/config"
	"github.com/dealershipai/visibility-engine/internal/domain/dealer"
	"github.com/dealershipai/visibility-engine/internal/domain/provider"
	"github.com/dealershipai/visibility-engine/internal/domain/scoring"
	"github.com/dealershipai/visibility-engine/internal/infrastructure/monitoring/logging"
)

// degradedConfidence is assigned to components whose backing provider call
// failed or timed out; the data is absent but the failure is recoverable.
const degradedConfidence = 0.3

// Reference ceilings for log-scaled authority metrics.
const (
	refReferringDomains = 1000
	refQualityBacklinks = 5000
)

// SEOScorer computes the search-visibility pillar from the search and
// backlink sources.
type SEOScorer struct {
	search    provider.SearchSource
	backlinks provider.BacklinkSource
	weights   config.SEOWeights
	prior     float64
	log       logging.Logger
}

// NewSEOScorer wires the scorer to its sources.  Either source may be nil;
// the affected components then carry degraded confidence.
func NewSEOScorer(search provider.SearchSource, backlinks provider.BacklinkSource, cfg config.ScoringConfig, log logging.Logger) *SEOScorer {
	return &SEOScorer{
		search:    search,
		backlinks: backlinks,
		weights:   cfg.SEO,
		prior:     cfg.SEOAccuracyPrior,
		log:       log.Named("seo"),
	}
}

// SEOOutput carries the pillar score plus the cross-check pair consumed by
// the validation engine.
type SEOOutput struct {
	Score      scoring.PillarScore
	CrossCheck scoring.CrossCheck
}

// Score fetches search and backlink metrics and composes the pillar.
// Provider failures never fail the call; they degrade component confidence.
func (s *SEOScorer) Score(ctx context.Context, d *dealer.Dealer) SEOOutput {
	var (
		search    *provider.SearchMetrics
		backlinks *provider.BacklinkMetrics
	)

	if s.search != nil {
		m, err := s.search.FetchSearchMetrics(ctx, d)
		if err != nil {
			s.log.Warn("search source failed",
				logging.String("dealer_id", string(d.ID)), logging.Err(err))
		} else {
			search = m
		}
	}
	if s.backlinks != nil {
		m, err := s.backlinks.FetchBacklinkMetrics(ctx, d)
		if err != nil {
			s.log.Warn("backlink source failed",
				logging.String("dealer_id", string(d.ID)), logging.Err(err))
		} else {
			backlinks = m
		}
	}

	searchConf, backConf := 1.0, 1.0
	if search == nil {
		search = &provider.SearchMetrics{}
		searchConf = degradedConfidence
	}
	if backlinks == nil {
		backlinks = &provider.BacklinkMetrics{}
		backConf = degradedConfidence
	}

	// Organic strength blends position decay with top-10 share; the two
	// views disagree when a site ranks well on few keywords.
	organic := (scoring.PositionScore(search.AvgPosition) +
		scoring.RateScore(float64(search.Top10Keywords), float64(search.TrackedKeywords))) / 2
	branded := scoring.RateScore(float64(search.BrandedImpressions), float64(search.Impressions))
	backlink := (backlinks.DomainAuthority +
		scoring.LogScale(float64(backlinks.ReferringDomains), refReferringDomains)) / 2
	indexing := scoring.RateScore(float64(search.IndexedPages), float64(search.TotalPages))
	localPack := scoring.RateScore(float64(search.LocalPackHits), float64(search.LocalPackQueries))

	components := []scoring.Component{
		{Name: scoring.ComponentOrganicRankings, Value: organic, Weight: s.weights.OrganicRankings, Confidence: searchConf},
		{Name: scoring.ComponentBrandedSearch, Value: branded, Weight: s.weights.BrandedSearch, Confidence: searchConf},
		{Name: scoring.ComponentBacklinkQuality, Value: backlink, Weight: s.weights.BacklinkQuality, Confidence: backConf},
		{Name: scoring.ComponentContentIndexing, Value: indexing, Weight: s.weights.ContentIndexing, Confidence: searchConf},
		{Name: scoring.ComponentLocalPackPresence, Value: localPack, Weight: s.weights.LocalPackPresence, Confidence: searchConf},
	}

	anyData := searchConf == 1.0 || backConf == 1.0
	return SEOOutput{
		Score: scoring.ComposePillar(scoring.PillarSEO, s.prior, components, anyData, time.Now().UTC()),
		CrossCheck: scoring.CrossCheck{
			EngineRankScore:      scoring.PositionScore(search.AvgPosition),
			IndependentRankScore: scoring.PositionScore(backlinks.ObservedAvgPosition),
		},
	}
}
