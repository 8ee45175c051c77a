package scoring

import (
	"time"

	"github.com/dealershipai/visibility-engine/internal/domain/credibility"
	"github.com/dealershipai/visibility-engine/internal/domain/economics"
	"github.com/dealershipai/visibility-engine/pkg/types/common"
)

// ValidationOutcome is produced by the validation engine immediately after
// aggregation and travels with its Result; it is never persisted alone.
type ValidationOutcome struct {
	OverallConfidence float64            `json:"overall_confidence"`
	PillarConfidences map[Pillar]float64 `json:"pillar_confidences"`
	// Variance is the absolute distance of the current overall score from
	// the trailing-window historical mean.  Zero when no history exists.
	Variance             float64 `json:"variance"`
	RequiresManualReview bool    `json:"requires_manual_review"`
	// Reasons lists why the review flag was raised, empty otherwise.
	Reasons []string `json:"reasons,omitempty"`
}

// CrossCheck is one cycle's pair of rank scores from two independent
// sources, both normalized to [0, 100].
type CrossCheck struct {
	EngineRankScore      float64 `json:"engine_rank_score"`
	IndependentRankScore float64 `json:"independent_rank_score"`
}

// Result is the persisted unit of one scoring cycle for one dealer.
// Superseded, never mutated, by the next cycle's result.
type Result struct {
	ID         common.ID `json:"id"`
	DealerID   common.ID `json:"dealer_id"`
	DealerName string    `json:"dealer_name"`

	Overall           float64 `json:"overall"`
	OverallConfidence float64 `json:"overall_confidence"`

	SEO PillarScore `json:"seo"`
	AEO PillarScore `json:"aeo"`
	GEO PillarScore `json:"geo"`

	Credibility credibility.Scores      `json:"credibility"`
	Cost        economics.CostBreakdown `json:"cost"`

	// CrossCheck pairs the engine's ranking-derived sub-metric with the
	// independent provider's observation for the same cycle; the trailing
	// series of these pairs feeds the cross-source correlation check.
	CrossCheck CrossCheck `json:"cross_check"`

	Validation      *ValidationOutcome `json:"validation,omitempty"`
	Insights        []Insight          `json:"insights,omitempty"`
	Recommendations []Recommendation   `json:"recommendations,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// DisplayOverall returns the overall score rounded for presentation; the
// stored value stays unrounded.
func (r *Result) DisplayOverall() int {
	return PillarScore{Score: r.Overall}.DisplayScore()
}

// PillarByName returns the named pillar score.
func (r *Result) PillarByName(p Pillar) PillarScore {
	switch p {
	case PillarSEO:
		return r.SEO
	case PillarAEO:
		return r.AEO
	case PillarGEO:
		return r.GEO
	default:
		return PillarScore{}
	}
}
