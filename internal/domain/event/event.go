// Package event defines the outbound messaging ports: operational alerts
// and the manual-review queue.  Implemented by the kafka layer; consumers
// are the application engines.
package event

import (
	"context"
	"time"

	"github.com/dealershipai/visibility-engine/pkg/types/common"
)

// AlertSink publishes operational alerts (threshold breaches, degraded
// training runs) to the alert stream.
type AlertSink interface {
	PublishAlerts(ctx context.Context, alerts []common.Alert) error
}

// ReviewEvent asks an operator to look at one scoring result.
type ReviewEvent struct {
	DealerID  common.ID `json:"dealer_id"`
	ResultID  common.ID `json:"result_id"`
	Reasons   []string  `json:"reasons"`
	CreatedAt time.Time `json:"created_at"`
}

// ReviewQueue delivers flagged results to the manual-review stream.
type ReviewQueue interface {
	EnqueueReview(ctx context.Context, ev ReviewEvent) error
}
