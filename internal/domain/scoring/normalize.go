package scoring

import "math"

// Normalization rules mapping raw provider metrics into [0, 100] sub-metric
// values.  Each rule is documented where it is applied:
//
//   - rank positions use exponential decay (position 1 is worth far more
//     than position 10),
//   - count-over-total figures use straight percentage-of-total,
//   - unbounded authority/volume figures use logarithmic scaling against a
//     reference ceiling.

// PositionScore converts an average rank position into [0, 100] with
// exponential decay: position 1 scores 100, position ~10 scores around 25,
// beyond 20 is effectively zero.  A zero or negative position means
// unranked.
func PositionScore(avgPosition float64) float64 {
	if avgPosition <= 0 {
		return 0
	}
	return 100 * math.Exp(-(avgPosition-1)/6.5)
}

// RateScore converts a count over a total into a percentage in [0, 100].
// A zero total yields 0.
func RateScore(count, total float64) float64 {
	if total <= 0 || count <= 0 {
		return 0
	}
	r := count / total * 100
	if r > 100 {
		return 100
	}
	return r
}

// LogScale maps an unbounded non-negative figure into [0, 100] against a
// reference ceiling: the score is log(1+v)/log(1+ref), so the reference
// value scores 100 and growth beyond it saturates.
func LogScale(v, ref float64) float64 {
	if v <= 0 || ref <= 0 {
		return 0
	}
	s := math.Log1p(v) / math.Log1p(ref) * 100
	if s > 100 {
		return 100
	}
	return s
}

// UnitScore maps a [0, 1] fraction into [0, 100].
func UnitScore(v float64) float64 {
	return clampScore(v * 100)
}

// FiveStarScore maps a rating out of five into [0, 100].
func FiveStarScore(rating float64) float64 {
	return clampScore(rating / 5 * 100)
}

// SentimentScore maps a [-1, 1] sentiment value into [0, 100] with neutral
// sentiment at 50.
func SentimentScore(s float64) float64 {
	return clampScore((s + 1) / 2 * 100)
}
