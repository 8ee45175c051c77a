// Package dealer defines the scored business entity and its market query
// panels.  It is pure domain logic with no infrastructure dependencies.
package dealer

import (
	"strings"
	"time"

	"github.com/dealershipai/visibility-engine/pkg/errors"
	"github.com/dealershipai/visibility-engine/pkg/types/common"
)

// Dealer is the business entity every scorer operates on.  Immutable during a
// scoring cycle; fields change only through admin correction.
type Dealer struct {
	ID            common.ID `json:"id"`
	Name          string    `json:"name"`
	// Aliases are alternative spellings and short forms of the dealership
	// name used by citation detection alongside Name.
	Aliases       []string  `json:"aliases,omitempty"`
	Domain        string    `json:"domain"`
	City          string    `json:"city"`
	State         string    `json:"state"`
	EstablishedAt time.Time `json:"established_at"`
	Brand         string    `json:"brand"`
	Models        []string  `json:"models,omitempty"`
	WebsiteURL    string    `json:"website_url"`
	BlogURL       string    `json:"blog_url,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Validate checks the minimal identity fields required before a dealer can be
// scored.
func (d *Dealer) Validate() error {
	if d == nil {
		return errors.New(errors.ErrCodeDealerInvalid, "dealer is nil")
	}
	if d.ID == "" {
		return errors.New(errors.ErrCodeDealerInvalid, "dealer id is required")
	}
	if strings.TrimSpace(d.Name) == "" {
		return errors.New(errors.ErrCodeDealerInvalid, "dealer name is required").
			WithDetail("id=" + string(d.ID))
	}
	if d.Domain == "" {
		return errors.New(errors.ErrCodeDealerInvalid, "dealer domain is required").
			WithDetail("id=" + string(d.ID))
	}
	return nil
}

// MentionedIn reports whether the dealer is referenced in text, matching the
// canonical name or any alias case-insensitively.  Used by answer-platform
// citation detection.
func (d *Dealer) MentionedIn(text string) bool {
	if d == nil || text == "" {
		return false
	}
	lower := strings.ToLower(text)
	if d.Name != "" && strings.Contains(lower, strings.ToLower(d.Name)) {
		return true
	}
	for _, alias := range d.Aliases {
		if alias != "" && strings.Contains(lower, strings.ToLower(alias)) {
			return true
		}
	}
	return false
}

// TenureYears returns the number of years the dealership has been in
// business as of now.  Returns 0 when the establishment date is unset or in
// the future.
func (d *Dealer) TenureYears(now time.Time) float64 {
	if d == nil || d.EstablishedAt.IsZero() || d.EstablishedAt.After(now) {
		return 0
	}
	return now.Sub(d.EstablishedAt).Hours() / (24 * 365.25)
}

// Market returns the "City, ST" key used to select a query panel.
func (d *Dealer) Market() string {
	if d.City == "" {
		return ""
	}
	if d.State == "" {
		return d.City
	}
	return d.City + ", " + d.State
}
