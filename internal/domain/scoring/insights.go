package scoring

import (
	"fmt"
	"sort"
)

// Insight bands: a pillar below the improvement threshold yields an
// improvement insight, above the reinforcement threshold a reinforcement
// insight, and nothing in between.
const (
	improvementThreshold   = 70
	reinforcementThreshold = 85
)

// InsightKind tags an insight as corrective or confirming.
type InsightKind string

const (
	InsightImprovement   InsightKind = "improvement"
	InsightReinforcement InsightKind = "reinforcement"
)

// Insight is one generated observation about a pillar score.
type Insight struct {
	Pillar  Pillar      `json:"pillar"`
	Kind    InsightKind `json:"kind"`
	Message string      `json:"message"`
}

// Recommendation targets one weak component with its potential impact,
// computed as weight x gap-to-100.  Priority 1 is the highest.
type Recommendation struct {
	Pillar          Pillar  `json:"pillar"`
	Component       string  `json:"component"`
	Weight          float64 `json:"weight"`
	Priority        int     `json:"priority"`
	PotentialImpact float64 `json:"potential_impact"`
}

var improvementTexts = map[Pillar]string{
	PillarSEO: "search visibility is below target; prioritize local pack coverage and content indexation",
	PillarAEO: "AI assistants rarely cite this dealership; strengthen review volume and authoritative sources",
	PillarGEO: "generative surfaces miss this dealership; build out entity data and snippet-ready content",
}

var reinforcementTexts = map[Pillar]string{
	PillarSEO: "search visibility is a strength; maintain current content and link velocity",
	PillarAEO: "AI assistants cite this dealership consistently; keep review response quality high",
	PillarGEO: "generative surfaces feature this dealership reliably; preserve structured data coverage",
}

// GenerateInsights applies the band logic to the three pillar scores.
func GenerateInsights(seo, aeo, geo PillarScore) []Insight {
	var out []Insight
	for _, p := range []PillarScore{seo, aeo, geo} {
		switch {
		case p.Score < improvementThreshold:
			out = append(out, Insight{
				Pillar:  p.Pillar,
				Kind:    InsightImprovement,
				Message: fmt.Sprintf("%s (score %d)", improvementTexts[p.Pillar], p.DisplayScore()),
			})
		case p.Score > reinforcementThreshold:
			out = append(out, Insight{
				Pillar:  p.Pillar,
				Kind:    InsightReinforcement,
				Message: fmt.Sprintf("%s (score %d)", reinforcementTexts[p.Pillar], p.DisplayScore()),
			})
		}
	}
	return out
}

// GenerateRecommendations ranks the components of below-band pillars by
// potential impact.  Only pillars inside the improvement band produce
// recommendations; at most max entries are returned.
func GenerateRecommendations(seo, aeo, geo PillarScore, max int) []Recommendation {
	var out []Recommendation
	for _, p := range []PillarScore{seo, aeo, geo} {
		if p.Score >= improvementThreshold {
			continue
		}
		for _, c := range p.Components {
			gap := 100 - c.Value
			if gap <= 0 {
				continue
			}
			out = append(out, Recommendation{
				Pillar:          p.Pillar,
				Component:       c.Name,
				Weight:          c.Weight,
				PotentialImpact: c.Weight * gap,
			})
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].PotentialImpact > out[j].PotentialImpact
	})
	if max > 0 && len(out) > max {
		out = out[:max]
	}
	for i := range out {
		out[i].Priority = i + 1
	}
	return out
}
