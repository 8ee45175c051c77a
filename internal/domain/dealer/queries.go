package dealer

// defaultQueryPanel is the fallback panel applied to markets without a
// tailored list.  Queries are phrased the way shoppers ask AI assistants,
// not the way they type search keywords.
var defaultQueryPanel = []string{
	"best car dealership near me",
	"most trustworthy car dealer in my area",
	"where should I buy a used car",
	"which dealership has the best service department",
	"best place to trade in my car",
	"car dealership with no hidden fees",
	"best certified pre-owned deals nearby",
	"which car dealer has the best financing rates",
}

// marketQueryPanels maps a "City, ST" market to its natural-language query
// panel.  Panels stay small on purpose: every query is executed against every
// configured answer platform each cycle, so panel size is a direct cost lever.
var marketQueryPanels = map[string][]string{
	"Dallas, TX": {
		"best car dealership in Dallas",
		"most reliable used car dealer Dallas TX",
		"where to buy a truck in Dallas",
		"best Toyota dealer in Dallas Fort Worth",
		"Dallas dealership with best trade-in value",
		"no haggle car dealer Dallas",
		"best car service department Dallas",
		"which DFW dealership has the best reviews",
	},
	"Austin, TX": {
		"best car dealership in Austin",
		"most honest used car dealer Austin TX",
		"where to buy an EV in Austin",
		"Austin dealership with best financing",
		"best certified pre-owned dealer Austin",
		"car dealer near Austin with no dealer fees",
		"best car buying experience Austin",
		"which Austin dealership has the best service",
	},
	"Phoenix, AZ": {
		"best car dealership in Phoenix",
		"most trustworthy dealer in the Phoenix valley",
		"where to buy a used SUV in Phoenix",
		"Phoenix dealership with lowest prices",
		"best car trade-in offers Phoenix AZ",
		"family owned car dealership Phoenix",
		"best dealership service center Phoenix",
		"which Scottsdale or Phoenix dealer is best",
	},
}

// QueryPanel returns the natural-language query panel for the given market,
// falling back to the default panel when the market has no tailored list.
// The returned slice is a copy; callers may mutate it freely.
func QueryPanel(market string) []string {
	panel, ok := marketQueryPanels[market]
	if !ok {
		panel = defaultQueryPanel
	}
	out := make([]string, len(panel))
	copy(out, panel)
	return out
}

// PanelSize returns the number of queries in the panel for the given market.
func PanelSize(market string) int {
	if panel, ok := marketQueryPanels[market]; ok {
		return len(panel)
	}
	return len(defaultQueryPanel)
}
