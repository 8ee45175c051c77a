// Package economics holds the static per-dealer cost model and the
// fleet-level margin calculator.  Everything here is a pure function of
// configuration plus tier counts; no external calls.
package economics

import (
	"github.com/dealershipai/visibility-engine/pkg/errors"
	"github.com/dealershipai/visibility-engine/pkg/types/common"
)

// LineItem is one entry in a dealer's monthly cost breakdown.
type LineItem struct {
	Name    string  `json:"name"`
	CostUSD float64 `json:"cost_usd"`
}

// CostBreakdown is the per-dealer monthly cost table attached to every
// scoring result.
type CostBreakdown struct {
	Items    []LineItem `json:"items"`
	TotalUSD float64    `json:"total_usd"`
}

// CostInputs carries the figures the breakdown is derived from.
type CostInputs struct {
	// AIQueryCostUSD is the blended per-query completion price across the
	// configured answer platforms.
	AIQueryCostUSD float64
	// PanelQueries and Platforms size the answer-platform spend: every query
	// in the panel runs on every platform each cycle, four cycles a month.
	PanelQueries int
	Platforms    int
	// SEOAPIMonthlyUSD is the pooled subscription cost of the search, profile
	// and backlink vendors, amortized over FleetSize dealers.
	SEOAPIMonthlyUSD float64
	// ComputeMonthlyUSD covers scoring infrastructure and model inference,
	// also amortized over the fleet.
	ComputeMonthlyUSD float64
	FleetSize         int
}

// cyclesPerMonth is the weekly collection cadence expressed monthly.
const cyclesPerMonth = 4

// BuildCostBreakdown derives a dealer's monthly cost table.  Line items are
// stable in name and order so persisted breakdowns stay comparable across
// cycles.
func BuildCostBreakdown(in CostInputs) CostBreakdown {
	fleet := in.FleetSize
	if fleet < 1 {
		fleet = 1
	}

	aiSpend := in.AIQueryCostUSD * float64(in.PanelQueries) * float64(in.Platforms) * cyclesPerMonth
	seoSpend := in.SEOAPIMonthlyUSD / float64(fleet)
	computeSpend := in.ComputeMonthlyUSD / float64(fleet)

	items := []LineItem{
		{Name: "ai_platform_queries", CostUSD: common.Round2(aiSpend)},
		{Name: "seo_data_apis", CostUSD: common.Round2(seoSpend)},
		{Name: "ml_inference_and_compute", CostUSD: common.Round2(computeSpend)},
	}

	var total float64
	for _, it := range items {
		total += it.CostUSD
	}
	return CostBreakdown{Items: items, TotalUSD: common.Round2(total)}
}

// Tier is one subscription tier with its dealer count and per-dealer cost.
type Tier struct {
	Name     string  `json:"name"`
	PriceUSD float64 `json:"price_usd"`
	CostUSD  float64 `json:"cost_usd"`
	Dealers  int     `json:"dealers"`
}

// FleetEconomics is the aggregate monthly view across all tiers.
type FleetEconomics struct {
	MonthlyRevenueUSD float64 `json:"monthly_revenue_usd"`
	MonthlyCostUSD    float64 `json:"monthly_cost_usd"`
	// GrossMargin is (revenue - cost) / revenue, in [0, 1].  Zero revenue
	// yields zero margin rather than a division error.
	GrossMargin float64 `json:"gross_margin"`
}

// ComputeFleetEconomics sums revenue and cost across tiers and derives the
// gross margin.  Returns a configuration error for a tier with non-positive
// price, since a zero-price tier silently poisons the margin figure.
func ComputeFleetEconomics(tiers []Tier) (FleetEconomics, error) {
	var out FleetEconomics
	for _, t := range tiers {
		if t.PriceUSD <= 0 {
			return FleetEconomics{}, errors.New(errors.ErrCodeRevenueTierInvalid,
				"tier price must be positive").WithDetail("tier=" + t.Name)
		}
		out.MonthlyRevenueUSD += t.PriceUSD * float64(t.Dealers)
		out.MonthlyCostUSD += t.CostUSD * float64(t.Dealers)
	}
	if out.MonthlyRevenueUSD > 0 {
		out.GrossMargin = (out.MonthlyRevenueUSD - out.MonthlyCostUSD) / out.MonthlyRevenueUSD
	}
	return out, nil
}
