package dealer

import (
	"context"

	"github.com/dealershipai/visibility-engine/pkg/types/common"
)

// Repository is the persistence contract for dealers.  Implemented by the
// postgres layer; batch runs list the active fleet through it.
type Repository interface {
	// GetByID returns the dealer or an error with code SCORE_003 when the id
	// is unknown.
	GetByID(ctx context.Context, id common.ID) (*Dealer, error)

	// ListActive returns every dealer eligible for the scoring cycle,
	// ordered by id for deterministic batch ordering.
	ListActive(ctx context.Context) ([]*Dealer, error)

	// Upsert inserts the dealer or updates an existing row by id.
	Upsert(ctx context.Context, d *Dealer) error
}
