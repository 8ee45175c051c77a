package scoring

import (
	"fmt"
	"math"

	"github.com/dealershipai/visibility-engine/pkg/errors"
)

// Weights blends the three pillar scores into the overall visibility score.
// The same weights blend pillar confidences.
type Weights struct {
	SEO float64 `json:"seo"`
	AEO float64 `json:"aeo"`
	GEO float64 `json:"geo"`
}

// Validate enforces the sum-to-one invariant.
func (w Weights) Validate() error {
	sum := w.SEO + w.AEO + w.GEO
	if math.Abs(sum-1.0) > 1e-9 {
		return errors.New(errors.ErrCodeWeightSumInvalid,
			fmt.Sprintf("pillar weights sum to %.12f, expected 1.0", sum))
	}
	return nil
}

// Of returns the weight for the given pillar.
func (w Weights) Of(p Pillar) float64 {
	switch p {
	case PillarSEO:
		return w.SEO
	case PillarAEO:
		return w.AEO
	case PillarGEO:
		return w.GEO
	default:
		return 0
	}
}

// Canonical component names per pillar, shared by scorers, insights, and
// tests.
const (
	ComponentOrganicRankings   = "organic_rankings"
	ComponentBrandedSearch     = "branded_search"
	ComponentBacklinkQuality   = "backlink_quality"
	ComponentContentIndexing   = "content_indexing"
	ComponentLocalPackPresence = "local_pack_presence"

	ComponentCitationFrequency  = "citation_frequency"
	ComponentSourceAuthority    = "source_authority"
	ComponentAnswerCompleteness = "answer_completeness"
	ComponentMultiPlatform      = "multi_platform_presence"
	ComponentSentimentQuality   = "sentiment_quality"

	ComponentAIOverview        = "ai_overview_presence"
	ComponentFeaturedSnippets  = "featured_snippets"
	ComponentKnowledgePanel    = "knowledge_panel"
	ComponentZeroClick         = "zero_click_dominance"
	ComponentEntityRecognition = "entity_recognition"
)

// ValidateComponents enforces the per-pillar sum-to-one invariant over a
// component slice.
func ValidateComponents(pillar Pillar, components []Component) error {
	var sum float64
	for _, c := range components {
		sum += c.Weight
	}
	if math.Abs(sum-1.0) > 1e-9 {
		return errors.New(errors.ErrCodeWeightSumInvalid,
			fmt.Sprintf("%s component weights sum to %.12f, expected 1.0", pillar, sum))
	}
	return nil
}
