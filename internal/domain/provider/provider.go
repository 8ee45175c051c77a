// Package provider defines the capability abstraction over external data
// sources.  Pillar scorers and the credibility extractor depend only on the
// interfaces here; concrete vendors (and the stubs used in tests) live
// behind them.
package provider

import (
	"context"

	"github.com/dealershipai/visibility-engine/internal/domain/dealer"
	"github.com/dealershipai/visibility-engine/pkg/errors"
)

// Capability names one class of external data a provider can supply.
type Capability string

const (
	CapabilitySearch         Capability = "search_performance"
	CapabilityProfile        Capability = "business_profile"
	CapabilityBacklinks      Capability = "backlink_authority"
	CapabilityChat           Capability = "ai_chat"
	CapabilityOverview       Capability = "ai_overview"
	CapabilityKnowledgeGraph Capability = "knowledge_graph"
)

// DataProvider is the base contract every source implements.  The typed
// sub-interfaces below add the capability-specific fetch method.
type DataProvider interface {
	// Name identifies the concrete vendor or stub, used in logs, metrics,
	// and cache keys.
	Name() string
	Capability() Capability
}

// SearchSource supplies organic-search performance metrics.
type SearchSource interface {
	DataProvider
	FetchSearchMetrics(ctx context.Context, d *dealer.Dealer) (*SearchMetrics, error)
}

// ProfileSource supplies business-profile and review metrics.
type ProfileSource interface {
	DataProvider
	FetchProfileMetrics(ctx context.Context, d *dealer.Dealer) (*ProfileMetrics, error)
}

// BacklinkSource supplies link-authority metrics.  It doubles as the
// independent source for the cross-check of ranking-derived sub-metrics.
type BacklinkSource interface {
	DataProvider
	FetchBacklinkMetrics(ctx context.Context, d *dealer.Dealer) (*BacklinkMetrics, error)
}

// ChatPlatform executes one natural-language query against an AI answer
// platform and returns its raw response.  Citation detection happens in the
// scorer, not here.
type ChatPlatform interface {
	DataProvider
	Complete(ctx context.Context, query string) (*ChatResponse, error)
}

// OverviewSource supplies generative-surface metrics: AI overviews, featured
// snippets, knowledge-panel completeness, and zero-click share.
type OverviewSource interface {
	DataProvider
	FetchOverviewMetrics(ctx context.Context, d *dealer.Dealer) (*OverviewMetrics, error)
}

// KnowledgeGraphSource confirms the dealer's entity presence in a public
// knowledge graph.
type KnowledgeGraphSource interface {
	DataProvider
	CheckEntity(ctx context.Context, d *dealer.Dealer) (*EntityCheck, error)
}

// Registry bundles one provider per capability plus the set of answer
// platforms.  Nil entries are tolerated at fetch time (scorers degrade
// confidence) but Validate rejects a registry that cannot score anything.
type Registry struct {
	Search    SearchSource
	Profile   ProfileSource
	Backlinks BacklinkSource
	Chat      []ChatPlatform
	Overview  OverviewSource
	Knowledge KnowledgeGraphSource
}

// Validate checks the registry can support at least one pillar end to end.
func (r *Registry) Validate() error {
	if r == nil {
		return errors.New(errors.ErrCodeConfigInvalid, "provider registry is nil")
	}
	if r.Search == nil && r.Overview == nil && len(r.Chat) == 0 {
		return errors.New(errors.ErrCodeConfigInvalid,
			"provider registry has no search, overview, or chat source; nothing can be scored")
	}
	return nil
}

// Platforms returns the names of the configured chat platforms.
func (r *Registry) Platforms() []string {
	names := make([]string, 0, len(r.Chat))
	for _, p := range r.Chat {
		if p != nil {
			names = append(names, p.Name())
		}
	}
	return names
}
