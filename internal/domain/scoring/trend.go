package scoring

import "github.com/dealershipai/visibility-engine/pkg/types/common"

// Trend compares the current cycle's result with the previous one.
type Trend struct {
	OverallDelta float64            `json:"overall_delta"`
	PillarDeltas map[Pillar]float64 `json:"pillar_deltas"`
	// TopImprover and TopDecliner name the component with the largest
	// positive and negative movement across all pillars; empty when no
	// component moved in that direction.
	TopImprover string `json:"top_improver,omitempty"`
	TopDecliner string `json:"top_decliner,omitempty"`
}

// CompareTrend diffs current against previous.  Returns nil when previous is
// nil (first cycle for the dealer).
func CompareTrend(current, previous *Result) *Trend {
	if current == nil || previous == nil {
		return nil
	}

	t := &Trend{
		OverallDelta: common.Round2(current.Overall - previous.Overall),
		PillarDeltas: map[Pillar]float64{},
	}

	var bestUp, bestDown float64
	for _, p := range Pillars() {
		cur := current.PillarByName(p)
		prev := previous.PillarByName(p)
		t.PillarDeltas[p] = common.Round2(cur.Score - prev.Score)

		for _, c := range cur.Components {
			pc, ok := prev.Component(c.Name)
			if !ok {
				continue
			}
			delta := c.Value - pc.Value
			if delta > bestUp {
				bestUp = delta
				t.TopImprover = c.Name
			}
			if delta < bestDown {
				bestDown = delta
				t.TopDecliner = c.Name
			}
		}
	}
	return t
}
