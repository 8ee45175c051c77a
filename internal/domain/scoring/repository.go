package scoring

import (
	"context"
	"time"

	"github.com/dealershipai/visibility-engine/pkg/types/common"
)

// Repository is the persistence contract for scoring results.  History is
// append-only: one row per dealer per cycle, read back for trend validation
// and reporting.
type Repository interface {
	// SaveResult appends the result for its cycle.  Results are immutable
	// once written.
	SaveResult(ctx context.Context, r *Result) error

	// TrailingOverallScores returns the overall scores for the dealer inside
	// the window, oldest first.  An empty slice is not an error; the caller
	// decides how to treat missing history.
	TrailingOverallScores(ctx context.Context, dealerID common.ID, window common.TimeRange) ([]float64, error)

	// TrailingCrossChecks returns the cross-source rank pairs inside the
	// window, oldest first.
	TrailingCrossChecks(ctx context.Context, dealerID common.ID, window common.TimeRange) ([]CrossCheck, error)

	// Previous returns the most recent result for the dealer strictly before
	// the given time, or nil when none exists.
	Previous(ctx context.Context, dealerID common.ID, before time.Time) (*Result, error)

	// History returns the dealer's full result history, newest first.
	History(ctx context.Context, dealerID common.ID, p common.Pagination) ([]*Result, error)
}

// AuditStatus is the lifecycle of a manual spot-check.
type AuditStatus string

const (
	AuditPending AuditStatus = "pending"
	AuditPassed  AuditStatus = "passed"
	AuditFailed  AuditStatus = "failed"
)

// ManualAudit is one human spot-check of an automated result, either from
// the probabilistic sample or from a review flag.
type ManualAudit struct {
	ID       common.ID   `json:"id"`
	DealerID common.ID   `json:"dealer_id"`
	ResultID common.ID   `json:"result_id"`
	Reason   string      `json:"reason"`
	Status   AuditStatus `json:"status"`

	CreatedAt  time.Time  `json:"created_at"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
}

// AuditRepository persists manual audits and reports the trailing pass rate
// consumed by the health snapshot.
type AuditRepository interface {
	Enqueue(ctx context.Context, a *ManualAudit) error
	Resolve(ctx context.Context, id common.ID, status AuditStatus) error
	// PassRate returns resolved-passed / resolved-total inside the window.
	// Returns 1.0 when nothing was resolved, so an idle audit queue does not
	// read as a failing one.
	PassRate(ctx context.Context, window common.TimeRange) (float64, error)
}
