// Package stub supplies deterministic synthetic data sources.  Deployments
// without vendor credentials (local development, demos, CI) register these
// instead of real connectors; every figure is derived from a hash of the
// dealer's domain, so repeated cycles and spot checks see identical data.
package stub

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"
	"time"

	"github.com/dealershipai/visibility-engine/internal/domain/dealer"
	"github.com/dealershipai/visibility-engine/internal/domain/provider"
)

// seed hashes a string into a stable 64-bit value.
func seed(parts ...string) uint64 {
	h := fnv.New64a()
	for _, p := range parts {
		_, _ = h.Write([]byte(p))
		_, _ = h.Write([]byte{0})
	}
	return h.Sum64()
}

// pick maps a seed into [lo, hi].
func pick(s uint64, lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + int(s%uint64(hi-lo+1))
}

// pickF maps a seed into [lo, hi] with two decimal places of resolution.
func pickF(s uint64, lo, hi float64) float64 {
	span := int((hi - lo) * 100)
	if span <= 0 {
		return lo
	}
	return lo + float64(int(s%uint64(span+1)))/100
}

// ─────────────────────────────────────────────────────────────────────────────
// Search
// ─────────────────────────────────────────────────────────────────────────────

type searchSource struct{}

// NewSearchSource returns the synthetic search-performance source.
func NewSearchSource() provider.SearchSource { return searchSource{} }

func (searchSource) Name() string                    { return "stub_search" }
func (searchSource) Capability() provider.Capability { return provider.CapabilitySearch }

func (searchSource) FetchSearchMetrics(_ context.Context, d *dealer.Dealer) (*provider.SearchMetrics, error) {
	s := seed("search", d.Domain)
	tracked := pick(s, 120, 600)
	impressions := int64(pick(s>>8, 40_000, 400_000))
	totalPages := pick(s>>24, 200, 1_500)
	localQueries := pick(s>>40, 50, 200)
	return &provider.SearchMetrics{
		TrackedKeywords:    tracked,
		Top10Keywords:      tracked * pick(s>>4, 15, 55) / 100,
		AvgPosition:        pickF(s>>12, 3, 28),
		Impressions:        impressions,
		BrandedImpressions: impressions * int64(pick(s>>16, 10, 45)) / 100,
		Clicks:             impressions * int64(pick(s>>20, 2, 9)) / 100,
		IndexedPages:       totalPages * pick(s>>28, 70, 99) / 100,
		TotalPages:         totalPages,
		LocalPackHits:      localQueries * pick(s>>36, 20, 80) / 100,
		LocalPackQueries:   localQueries,
		FetchedAt:          time.Now().UTC(),
	}, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Business profile
// ─────────────────────────────────────────────────────────────────────────────

type profileSource struct{}

// NewProfileSource returns the synthetic business-profile source.
func NewProfileSource() provider.ProfileSource { return profileSource{} }

func (profileSource) Name() string                    { return "stub_profile" }
func (profileSource) Capability() provider.Capability { return provider.CapabilityProfile }

func (profileSource) FetchProfileMetrics(_ context.Context, d *dealer.Dealer) (*provider.ProfileMetrics, error) {
	s := seed("profile", d.Domain)
	reviews := pick(s, 150, 3_000)
	staff := pick(s>>16, 15, 120)
	complaints := pick(s>>32, 0, 40)
	return &provider.ProfileMetrics{
		ReviewCount:         reviews,
		VerifiedReviewCount: reviews * pick(s>>2, 40, 90) / 100,
		ReviewPhotoCount:    reviews * pick(s>>4, 5, 25) / 100,
		AvgRating:           pickF(s>>6, 3.4, 4.9),
		OwnerResponseRate:   pickF(s>>8, 0.30, 0.98),
		AvgResponseHours:    pickF(s>>10, 1, 72),

		PhotoCount:        pick(s>>12, 40, 400),
		VideoCount:        pick(s>>14, 0, 60),
		TestimonialCount:  pick(s>>18, 5, 120),
		CaseStudyCount:    pick(s>>20, 0, 15),
		FirstHandContent:  pickF(s>>22, 0.1, 0.9),
		StaffCount:        staff,
		StaffBioCount:     staff * pick(s>>24, 20, 90) / 100,
		StaffCredentialed: staff * pick(s>>26, 10, 70) / 100,

		OEMCertifications:     pick(s>>28, 0, 8),
		ServiceCertifications: pick(s>>30, 2, 25),
		ManufacturerTraining:  s>>31&1 == 1,
		ServiceAwards:         pick(s>>33, 0, 8),
		DealershipAwards:      pick(s>>35, 0, 6),
		TechnicalArticles:     pick(s>>37, 0, 40),
		HowToGuides:           pick(s>>39, 0, 25),
		ModelComparisons:      pick(s>>41, 0, 20),
		FAQPages:              pick(s>>43, 0, 12),

		LocalCitations:     pick(s>>45, 10, 90),
		TradeMemberships:   pick(s>>47, 0, 8),
		OEMAssociation:     s>>48&1 == 1,
		SocialFollowers:    pick(s>>50, 500, 80_000),
		YouTubeSubscribers: pick(s>>52, 0, 30_000),
		ContentShares:      pick(s>>54, 50, 8_000),
		GuestPosts:         pick(s>>56, 0, 15),
		PodcastAppearances: pick(s>>58, 0, 8),

		BBBGrade:           pickF(s>>60, 55, 100),
		ComplaintCount:     complaints,
		ResolvedComplaints: complaints * pick(s>>34, 50, 100) / 100,
		TransparentPricing: s>>36&1 == 1,
		SSLValid:           true,
		PrivacyPolicy:      s>>38&1 == 1,
		ReturnPolicy:       s>>40&1 == 1,

		FetchedAt: time.Now().UTC(),
	}, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Backlinks
// ─────────────────────────────────────────────────────────────────────────────

type backlinkSource struct{}

// NewBacklinkSource returns the synthetic link-authority source.
func NewBacklinkSource() provider.BacklinkSource { return backlinkSource{} }

func (backlinkSource) Name() string                    { return "stub_backlinks" }
func (backlinkSource) Capability() provider.Capability { return provider.CapabilityBacklinks }

func (backlinkSource) FetchBacklinkMetrics(_ context.Context, d *dealer.Dealer) (*provider.BacklinkMetrics, error) {
	s := seed("backlinks", d.Domain)
	total := pick(s, 800, 40_000)
	// Tracks the search stub's position band so the cross-source check sees
	// two agreeing rank samples for the same dealer.
	searchSeed := seed("search", d.Domain)
	observed := pickF(searchSeed>>12, 3, 28) + pickF(s>>4, -2, 2)
	if observed < 1 {
		observed = 1
	}
	return &provider.BacklinkMetrics{
		DomainAuthority:     pickF(s>>8, 15, 75),
		DomainRating:        pickF(s>>12, 15, 80),
		ReferringDomains:    pick(s>>16, 80, 1_200),
		TotalBacklinks:      total,
		QualityBacklinks:    total * pick(s>>20, 15, 60) / 100,
		MediaCitations:      pick(s>>24, 0, 35),
		PartnerLinks:        pick(s>>28, 2, 40),
		SpamScore:           pickF(s>>32, 0.01, 0.25),
		ObservedAvgPosition: observed,
		FetchedAt:           time.Now().UTC(),
	}, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Chat platforms
// ─────────────────────────────────────────────────────────────────────────────

// mentionThreshold controls how often a rostered dealer appears in a
// synthetic answer, out of 100.
const mentionThreshold = 55

type chatPlatform struct {
	name   string
	roster []string
}

// NewChatPlatform returns one synthetic answer platform.  roster lists the
// dealership names the platform may cite; pass the active fleet's names so
// citation rates vary per dealer.
func NewChatPlatform(name string, roster []string) provider.ChatPlatform {
	return &chatPlatform{name: name, roster: roster}
}

// DefaultPlatformNames is the panel of answer platforms the dev wiring
// registers.
var DefaultPlatformNames = []string{"chatgpt", "claude", "perplexity", "gemini", "copilot"}

func (p *chatPlatform) Name() string                    { return p.name }
func (p *chatPlatform) Capability() provider.Capability { return provider.CapabilityChat }

func (p *chatPlatform) Complete(_ context.Context, query string) (*provider.ChatResponse, error) {
	var mentioned []string
	for _, name := range p.roster {
		if seed("mention", p.name, query, name)%100 < mentionThreshold {
			mentioned = append(mentioned, name)
		}
	}

	var text string
	if len(mentioned) == 0 {
		text = fmt.Sprintf("For %q, compare inventory, reviews, and service pricing across nearby dealerships before visiting.", query)
	} else {
		text = fmt.Sprintf("For %q, shoppers frequently recommend %s for selection and after-sale service.",
			query, strings.Join(mentioned, ", "))
	}

	s := seed("sentiment", p.name, query)
	return &provider.ChatResponse{
		Platform:  p.name,
		Query:     query,
		Text:      text,
		Sentiment: pickF(s, -0.1, 0.9),
		Tokens:    len(text) / 4,
		FetchedAt: time.Now().UTC(),
	}, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Generative surfaces
// ─────────────────────────────────────────────────────────────────────────────

type overviewSource struct{}

// NewOverviewSource returns the synthetic generative-surface source.
func NewOverviewSource() provider.OverviewSource { return overviewSource{} }

func (overviewSource) Name() string                    { return "stub_overview" }
func (overviewSource) Capability() provider.Capability { return provider.CapabilityOverview }

func (overviewSource) FetchOverviewMetrics(_ context.Context, d *dealer.Dealer) (*provider.OverviewMetrics, error) {
	s := seed("overview", d.Domain)
	checked := dealer.PanelSize(d.Market())
	return &provider.OverviewMetrics{
		QueriesChecked:      checked,
		OverviewAppearances: checked * pick(s, 0, 70) / 100,
		SnippetAppearances:  checked * pick(s>>8, 0, 60) / 100,
		PanelFieldsFilled:   pick(s>>16, 3, 10),
		PanelFieldsTotal:    10,
		ZeroClickShare:      pickF(s>>24, 0.2, 0.7),
		FetchedAt:           time.Now().UTC(),
	}, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Knowledge graph
// ─────────────────────────────────────────────────────────────────────────────

type knowledgeSource struct{}

// NewKnowledgeSource returns the synthetic knowledge-graph source.
func NewKnowledgeSource() provider.KnowledgeGraphSource { return knowledgeSource{} }

func (knowledgeSource) Name() string                    { return "stub_knowledge" }
func (knowledgeSource) Capability() provider.Capability { return provider.CapabilityKnowledgeGraph }

func (knowledgeSource) CheckEntity(_ context.Context, d *dealer.Dealer) (*provider.EntityCheck, error) {
	s := seed("knowledge", d.Domain)
	present := s%100 < 80
	check := &provider.EntityCheck{
		Present:   present,
		FetchedAt: time.Now().UTC(),
	}
	if present {
		check.Confidence = pickF(s>>8, 0.6, 0.98)
		check.SameAs = pick(s>>16, 1, 6)
		check.Types = []string{"AutoDealer", "LocalBusiness"}
		check.WikipediaPresent = s>>24%100 < 10
	}
	return check, nil
}

// NewRegistry assembles the full synthetic registry.  roster lists the
// dealership names the chat platforms may cite.
func NewRegistry(roster []string) *provider.Registry {
	chat := make([]provider.ChatPlatform, 0, len(DefaultPlatformNames))
	for _, name := range DefaultPlatformNames {
		chat = append(chat, NewChatPlatform(name, roster))
	}
	return &provider.Registry{
		Search:    NewSearchSource(),
		Profile:   NewProfileSource(),
		Backlinks: NewBacklinkSource(),
		Chat:      chat,
		Overview:  NewOverviewSource(),
		Knowledge: NewKnowledgeSource(),
	}
}
