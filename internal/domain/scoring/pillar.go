// Package scoring defines the pillar and aggregate score types, the fixed
// weight sets, normalization rules, and insight generation.  All functions
// here are pure; provider orchestration lives in the application layer.
package scoring

import (
	"math"
	"time"
)

// Pillar names one of the three visibility channels.
type Pillar string

const (
	PillarSEO Pillar = "seo"
	PillarAEO Pillar = "aeo"
	PillarGEO Pillar = "geo"
)

// Pillars lists the three pillars in canonical order.
func Pillars() []Pillar { return []Pillar{PillarSEO, PillarAEO, PillarGEO} }

// Component is one normalized sub-metric of a pillar.
type Component struct {
	Name   string  `json:"name"`
	Value  float64 `json:"value"`  // normalized [0, 100]
	Weight float64 `json:"weight"` // fixed per component set
	// Confidence degrades below 1 when the backing provider failed, timed
	// out, or returned nothing.
	Confidence float64 `json:"confidence"`
}

// PillarScore is the output of one pillar scorer.  Score stays unrounded so
// aggregation is exact; rounding happens only at the display boundary.
type PillarScore struct {
	Pillar     Pillar      `json:"pillar"`
	Score      float64     `json:"score"`
	Confidence float64     `json:"confidence"`
	Components []Component `json:"components"`
	ComputedAt time.Time   `json:"computed_at"`
}

// DisplayScore returns the score rounded to the nearest integer.
func (p PillarScore) DisplayScore() int {
	return int(math.Round(p.Score))
}

// Component returns the named component and whether it exists.
func (p PillarScore) Component(name string) (Component, bool) {
	for _, c := range p.Components {
		if c.Name == name {
			return c, true
		}
	}
	return Component{}, false
}

// lowDataConfidenceCeiling caps a pillar's confidence when its providers
// returned no data at all; the aggregator discounts such pillars.
const lowDataConfidenceCeiling = 0.5

// ComposePillar assembles a PillarScore from its weighted components.
//
// The score is the weighted sum of component values.  The confidence is the
// pillar's calibrated accuracy prior scaled by the weighted mean component
// confidence; when no provider supplied any data the result is additionally
// capped at the low-data ceiling.
func ComposePillar(pillar Pillar, prior float64, components []Component, anyData bool, now time.Time) PillarScore {
	var score, conf float64
	for _, c := range components {
		score += c.Value * c.Weight
		conf += c.Confidence * c.Weight
	}

	confidence := prior * conf
	if !anyData && confidence > lowDataConfidenceCeiling {
		confidence = lowDataConfidenceCeiling
	}

	return PillarScore{
		Pillar:     pillar,
		Score:      clampScore(score),
		Confidence: clampUnit(confidence),
		Components: components,
		ComputedAt: now,
	}
}

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
