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

// GEOScorer computes the generative-surface pillar from the overview and
// knowledge-graph sources.
type GEOScorer struct {
	overview  provider.OverviewSource
	knowledge provider.KnowledgeGraphSource
	weights   config.GEOWeights
	prior     float64
	log       logging.Logger
}

func NewGEOScorer(overview provider.OverviewSource, knowledge provider.KnowledgeGraphSource, cfg config.ScoringConfig, log logging.Logger) *GEOScorer {
	return &GEOScorer{
		overview:  overview,
		knowledge: knowledge,
		weights:   cfg.GEO,
		prior:     cfg.GEOAccuracyPrior,
		log:       log.Named("geo"),
	}
}

// Score fetches generative-surface and entity metrics and composes the
// pillar.  Source failures degrade confidence rather than failing the call.
func (s *GEOScorer) Score(ctx context.Context, d *dealer.Dealer) scoring.PillarScore {
	var (
		overview *provider.OverviewMetrics
		entity   *provider.EntityCheck
	)

	if s.overview != nil {
		m, err := s.overview.FetchOverviewMetrics(ctx, d)
		if err != nil {
			s.log.Warn("overview source failed",
				logging.String("dealer_id", string(d.ID)), logging.Err(err))
		} else {
			overview = m
		}
	}
	if s.knowledge != nil {
		m, err := s.knowledge.CheckEntity(ctx, d)
		if err != nil {
			s.log.Warn("knowledge graph source failed",
				logging.String("dealer_id", string(d.ID)), logging.Err(err))
		} else {
			entity = m
		}
	}

	overviewConf, entityConf := 1.0, 1.0
	if overview == nil {
		overview = &provider.OverviewMetrics{}
		overviewConf = degradedConfidence
	}
	if entity == nil {
		entity = &provider.EntityCheck{}
		entityConf = degradedConfidence
	}

	aiOverview := scoring.RateScore(float64(overview.OverviewAppearances), float64(overview.QueriesChecked))
	snippets := scoring.RateScore(float64(overview.SnippetAppearances), float64(overview.QueriesChecked))
	panel := scoring.RateScore(float64(overview.PanelFieldsFilled), float64(overview.PanelFieldsTotal))
	zeroClick := scoring.UnitScore(overview.ZeroClickShare)

	var entityScore float64
	if entity.Present {
		entityScore = scoring.UnitScore(entity.Confidence)
	}

	components := []scoring.Component{
		{Name: scoring.ComponentAIOverview, Value: aiOverview, Weight: s.weights.AIOverviewPresence, Confidence: overviewConf},
		{Name: scoring.ComponentFeaturedSnippets, Value: snippets, Weight: s.weights.FeaturedSnippets, Confidence: overviewConf},
		{Name: scoring.ComponentKnowledgePanel, Value: panel, Weight: s.weights.KnowledgePanel, Confidence: overviewConf},
		{Name: scoring.ComponentZeroClick, Value: zeroClick, Weight: s.weights.ZeroClickDominance, Confidence: overviewConf},
		{Name: scoring.ComponentEntityRecognition, Value: entityScore, Weight: s.weights.EntityRecognition, Confidence: entityConf},
	}

	anyData := overviewConf == 1.0 || entityConf == 1.0
	return scoring.ComposePillar(scoring.PillarGEO, s.prior, components, anyData, time.Now().UTC())
}
