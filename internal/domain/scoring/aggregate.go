package scoring

// Aggregate is the combined visibility output.
type Aggregate struct {
	Overall    float64 `json:"overall"`
	Confidence float64 `json:"confidence"`
}

// Combine blends the three pillar scores and their confidences with the
// pillar weights.  No pillar is ever excluded: a zero-confidence pillar
// still contributes its score at its fixed weight, and its low confidence
// drags the overall confidence down through the same weights.
func Combine(seo, aeo, geo PillarScore, w Weights) Aggregate {
	return Aggregate{
		Overall: clampScore(
			seo.Score*w.SEO + aeo.Score*w.AEO + geo.Score*w.GEO),
		Confidence: clampUnit(
			seo.Confidence*w.SEO + aeo.Confidence*w.AEO + geo.Confidence*w.GEO),
	}
}
