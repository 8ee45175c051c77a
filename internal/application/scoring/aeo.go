package scoring

import (
	"context"
	"strings"
	"time"

	"github.com/dealershipai/visibility-engine/internal/config"
	"github.com/dealershipai/visibility-engine/internal/domain/dealer"
	"github.com/dealershipai/visibility-engine/internal/domain/provider"
	"github.com/dealershipai/visibility-engine/internal/domain/scoring"
	"github.com/dealershipai/visibility-engine/internal/infrastructure/monitoring/logging"
)

// answerTokenRef is the response length treated as a fully complete answer.
const answerTokenRef = 200

// AEOScorer computes the answer-engine pillar by running the dealer's market
// query panel against every configured chat platform and detecting citations
// in the responses.
type AEOScorer struct {
	platforms []provider.ChatPlatform
	weights   config.AEOWeights
	prior     float64
	log       logging.Logger
}

func NewAEOScorer(platforms []provider.ChatPlatform, cfg config.ScoringConfig, log logging.Logger) *AEOScorer {
	return &AEOScorer{
		platforms: platforms,
		weights:   cfg.AEO,
		prior:     cfg.AEOAccuracyPrior,
		log:       log.Named("aeo"),
	}
}

// AEOOutput carries the pillar score plus the per-query citation detections
// the validation engine replays during spot checks.
type AEOOutput struct {
	Score scoring.PillarScore
	// Detections maps each panel query to whether any platform cited the
	// dealer in its answer.
	Detections map[string]bool
}

// Score executes the panel across all platforms.  Per-call failures degrade
// confidence proportionally; only a fully dark panel trips the no-data cap.
func (s *AEOScorer) Score(ctx context.Context, d *dealer.Dealer) AEOOutput {
	panel := dealer.QueryPanel(d.Market())
	detections := make(map[string]bool, len(panel))

	var (
		totalCalls, okCalls  int
		mentions             int
		sentimentSum         float64
		completenessSum      float64
		authoritySum         float64
		platformsWithMention = map[string]bool{}
	)

	for _, platform := range s.platforms {
		if platform == nil {
			continue
		}
		for _, query := range panel {
			totalCalls++
			resp, err := platform.Complete(ctx, query)
			if err != nil {
				s.log.Warn("chat platform call failed",
					logging.String("platform", platform.Name()),
					logging.String("dealer_id", string(d.ID)),
					logging.Err(err))
				continue
			}
			okCalls++

			if !d.MentionedIn(resp.Text) {
				continue
			}
			mentions++
			detections[query] = true
			platformsWithMention[platform.Name()] = true
			sentimentSum += resp.Sentiment
			completenessSum += completeness(resp.Tokens)
			authoritySum += sourceAuthority(d, resp.Sources)
		}
	}
	for _, q := range panel {
		if !detections[q] {
			detections[q] = false
		}
	}

	platformCount := activeCount(s.platforms)
	var citation, authority, complete, breadth, sentiment float64
	if mentions > 0 {
		authority = authoritySum / float64(mentions)
		complete = completenessSum / float64(mentions)
		sentiment = scoring.SentimentScore(sentimentSum / float64(mentions))
	} else {
		// Neutral sentiment when nothing was cited; the citation component
		// already carries the zero.
		sentiment = scoring.SentimentScore(0)
	}
	if totalCalls > 0 {
		citation = scoring.RateScore(float64(mentions), float64(totalCalls))
	}
	if platformCount > 0 {
		breadth = scoring.RateScore(float64(len(platformsWithMention)), float64(platformCount))
	}

	callConf := 0.0
	if totalCalls > 0 {
		callConf = float64(okCalls) / float64(totalCalls)
	}

	components := []scoring.Component{
		{Name: scoring.ComponentCitationFrequency, Value: citation, Weight: s.weights.CitationFrequency, Confidence: callConf},
		{Name: scoring.ComponentSourceAuthority, Value: authority, Weight: s.weights.SourceAuthority, Confidence: callConf},
		{Name: scoring.ComponentAnswerCompleteness, Value: complete, Weight: s.weights.AnswerCompleteness, Confidence: callConf},
		{Name: scoring.ComponentMultiPlatform, Value: breadth, Weight: s.weights.MultiPlatform, Confidence: callConf},
		{Name: scoring.ComponentSentimentQuality, Value: sentiment, Weight: s.weights.SentimentQuality, Confidence: callConf},
	}

	return AEOOutput{
		Score:      scoring.ComposePillar(scoring.PillarAEO, s.prior, components, okCalls > 0, time.Now().UTC()),
		Detections: detections,
	}
}

// DetectCitations re-runs the given queries against every platform and
// reports whether any platform cites the dealer per query.  Used by the
// validation engine's spot check.
func (s *AEOScorer) DetectCitations(ctx context.Context, d *dealer.Dealer, queries []string) map[string]bool {
	out := make(map[string]bool, len(queries))
	for _, q := range queries {
		out[q] = false
		for _, platform := range s.platforms {
			if platform == nil {
				continue
			}
			resp, err := platform.Complete(ctx, q)
			if err != nil {
				continue
			}
			if d.MentionedIn(resp.Text) {
				out[q] = true
				break
			}
		}
	}
	return out
}

// completeness maps a response length to [0, 100] against the reference
// answer size.
func completeness(tokens int) float64 {
	if tokens <= 0 {
		return 0
	}
	v := float64(tokens) / answerTokenRef * 100
	if v > 100 {
		return 100
	}
	return v
}

// sourceAuthority scores the dealer's position in a response's cited
// sources: earlier citations carry more authority.  A mention without a
// source citation scores the neutral midpoint.
func sourceAuthority(d *dealer.Dealer, sources []string) float64 {
	for i, src := range sources {
		if d.Domain != "" && strings.Contains(strings.ToLower(src), strings.ToLower(d.Domain)) {
			return scoring.PositionScore(float64(i + 1))
		}
	}
	return 50
}

func activeCount(platforms []provider.ChatPlatform) int {
	n := 0
	for _, p := range platforms {
		if p != nil {
			n++
		}
	}
	return n
}
