package validation

import (
	"sync"
	"time"
)

// Recorder accumulates per-cycle operational figures between health
// snapshots: scoring success rate, average latency, observed pillar
// confidences, and the dependency-probe uptime proxy.  Safe for concurrent
// use by the batch workers.
type Recorder struct {
	mu sync.Mutex

	cycles       int64
	failures     int64
	totalLatency time.Duration

	seoConfSum float64
	aeoConfSum float64
	geoConfSum float64

	ticks     int64
	downTicks int64
}

// NewRecorder returns an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// RecordCycle records one dealer scoring attempt.
func (r *Recorder) RecordCycle(elapsed time.Duration, failed bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cycles++
	r.totalLatency += elapsed
	if failed {
		r.failures++
	}
}

// RecordConfidences records the pillar confidences of one successful cycle;
// their rolling means feed the accuracy figures in the health snapshot.
func (r *Recorder) RecordConfidences(seo, aeo, geo float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seoConfSum += seo
	r.aeoConfSum += aeo
	r.geoConfSum += geo
}

// RecordTick records one dependency probe; failed probes lower the uptime
// proxy until the next reset.
func (r *Recorder) RecordTick(up bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ticks++
	if !up {
		r.downTicks++
	}
}

// SuccessRate returns completed/attempted cycles, 1.0 when idle.
func (r *Recorder) SuccessRate() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cycles == 0 {
		return 1.0
	}
	return float64(r.cycles-r.failures) / float64(r.cycles)
}

// AvgLatencySeconds returns the mean cycle latency, zero when idle.
func (r *Recorder) AvgLatencySeconds() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cycles == 0 {
		return 0
	}
	return r.totalLatency.Seconds() / float64(r.cycles)
}

// Uptime returns the share of healthy probes, 1.0 when none ran.
func (r *Recorder) Uptime() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ticks == 0 {
		return 1.0
	}
	return float64(r.ticks-r.downTicks) / float64(r.ticks)
}

// MeanConfidences returns the rolling mean pillar confidences and whether
// any successful cycle contributed.
func (r *Recorder) MeanConfidences() (seo, aeo, geo float64, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	succeeded := r.cycles - r.failures
	if succeeded == 0 {
		return 0, 0, 0, false
	}
	n := float64(succeeded)
	return r.seoConfSum / n, r.aeoConfSum / n, r.geoConfSum / n, true
}

// Reset clears all figures; called after each published snapshot so every
// snapshot covers one interval.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cycles, r.failures, r.totalLatency = 0, 0, 0
	r.seoConfSum, r.aeoConfSum, r.geoConfSum = 0, 0, 0
	r.ticks, r.downTicks = 0, 0
}
