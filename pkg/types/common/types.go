// Package common holds small shared types used across the engine's layers.
package common

import (
	"time"

	"github.com/google/uuid"
)

// ID is a string alias for an entity identifier (UUID v4 for generated ids,
// but externally supplied dealer ids are accepted verbatim).
type ID string

// NewID returns a freshly generated UUID-backed ID.
func NewID() ID {
	return ID(uuid.NewString())
}

// Metadata is an open-ended key-value bag.
type Metadata map[string]interface{}

// AlertSeverity tags an alert record for the alerting sink.
type AlertSeverity string

const (
	SeverityWarning  AlertSeverity = "warning"
	SeverityCritical AlertSeverity = "critical"
)

// Alert is the record shape accepted by the alerting sink.  Delivery
// mechanics (email, chat, pager) live entirely behind the sink.
type Alert struct {
	Type     string        `json:"type"`
	Severity AlertSeverity `json:"severity"`
	Message  string        `json:"message"`
}

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Round2 rounds v to two decimal places, the display precision used for
// confidences throughout the engine.
func Round2(v float64) float64 {
	return float64(int64(v*100+copysignHalf(v))) / 100
}

func copysignHalf(v float64) float64 {
	if v < 0 {
		return -0.5
	}
	return 0.5
}

// Pagination defines parameters for paginated requests.
type Pagination struct {
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
	Total    int64 `json:"total,omitempty"`
}

// TimeRange is a half-open interval [From, To).
type TimeRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// TrailingWindow returns the range covering the last n days ending at now.
func TrailingWindow(now time.Time, days int) TimeRange {
	return TimeRange{From: now.AddDate(0, 0, -days), To: now}
}
