package provider

import "time"

// Payload types are plain data carriers returned by the capability
// interfaces.  Consumers must tolerate zero values in any field; a source
// that cannot supply a figure leaves it at zero rather than failing the
// whole fetch.

// SearchMetrics is the search-performance payload.
type SearchMetrics struct {
	TrackedKeywords    int       `json:"tracked_keywords"`
	Top10Keywords      int       `json:"top10_keywords"`
	AvgPosition        float64   `json:"avg_position"` // 0 means unranked
	Impressions        int64     `json:"impressions"`
	BrandedImpressions int64     `json:"branded_impressions"`
	Clicks             int64     `json:"clicks"`
	IndexedPages       int       `json:"indexed_pages"`
	TotalPages         int       `json:"total_pages"`
	LocalPackHits      int       `json:"local_pack_hits"`
	LocalPackQueries   int       `json:"local_pack_queries"`
	FetchedAt          time.Time `json:"fetched_at"`
}

// ProfileMetrics is the business-profile payload.  It carries the review and
// reputation figures the trustworthiness and experience features are
// extracted from.
type ProfileMetrics struct {
	ReviewCount         int     `json:"review_count"`
	VerifiedReviewCount int     `json:"verified_review_count"`
	ReviewPhotoCount    int     `json:"review_photo_count"`
	AvgRating           float64 `json:"avg_rating"` // out of 5
	OwnerResponseRate   float64 `json:"owner_response_rate"`
	AvgResponseHours    float64 `json:"avg_response_hours"`

	PhotoCount        int     `json:"photo_count"`
	VideoCount        int     `json:"video_count"`
	TestimonialCount  int     `json:"testimonial_count"`
	CaseStudyCount    int     `json:"case_study_count"`
	FirstHandContent  float64 `json:"first_hand_content"` // 0-1 share of first-person content
	StaffCount        int     `json:"staff_count"`
	StaffBioCount     int     `json:"staff_bio_count"`
	StaffCredentialed int     `json:"staff_credentialed"`

	OEMCertifications     int  `json:"oem_certifications"`
	ServiceCertifications int  `json:"service_certifications"`
	ManufacturerTraining  bool `json:"manufacturer_training"`
	ServiceAwards         int  `json:"service_awards"`
	DealershipAwards      int  `json:"dealership_awards"`
	TechnicalArticles     int  `json:"technical_articles"`
	HowToGuides           int  `json:"how_to_guides"`
	ModelComparisons      int  `json:"model_comparisons"`
	FAQPages              int  `json:"faq_pages"`

	LocalCitations     int  `json:"local_citations"`
	TradeMemberships   int  `json:"trade_memberships"`
	OEMAssociation     bool `json:"oem_association"`
	SocialFollowers    int  `json:"social_followers"`
	YouTubeSubscribers int  `json:"youtube_subscribers"`
	ContentShares      int  `json:"content_shares"`
	GuestPosts         int  `json:"guest_posts"`
	PodcastAppearances int  `json:"podcast_appearances"`

	BBBGrade           float64 `json:"bbb_grade"` // 0-100, 0 = unaccredited
	ComplaintCount     int     `json:"complaint_count"`
	ResolvedComplaints int     `json:"resolved_complaints"`
	TransparentPricing bool    `json:"transparent_pricing"`
	SSLValid           bool    `json:"ssl_valid"`
	PrivacyPolicy      bool    `json:"privacy_policy"`
	ReturnPolicy       bool    `json:"return_policy"`

	FetchedAt time.Time `json:"fetched_at"`
}

// BacklinkMetrics is the link-authority payload.  ObservedAvgPosition is an
// independent rank sample used by the cross-source validation check.
type BacklinkMetrics struct {
	DomainAuthority     float64   `json:"domain_authority"` // 0-100
	DomainRating        float64   `json:"domain_rating"`    // 0-100
	ReferringDomains    int       `json:"referring_domains"`
	TotalBacklinks      int       `json:"total_backlinks"`
	QualityBacklinks    int       `json:"quality_backlinks"`
	MediaCitations      int       `json:"media_citations"`
	PartnerLinks        int       `json:"partner_links"`
	SpamScore           float64   `json:"spam_score"` // 0-1
	ObservedAvgPosition float64   `json:"observed_avg_position"`
	FetchedAt           time.Time `json:"fetched_at"`
}

// ChatResponse is one answer-platform completion for one query.
type ChatResponse struct {
	Platform  string    `json:"platform"`
	Query     string    `json:"query"`
	Text      string    `json:"text"`
	Sources   []string  `json:"sources,omitempty"`
	Sentiment float64   `json:"sentiment"` // -1..1 toward the mentioned entity
	Tokens    int       `json:"tokens"`
	FetchedAt time.Time `json:"fetched_at"`
}

// OverviewMetrics is the generative-surface payload.
type OverviewMetrics struct {
	QueriesChecked      int       `json:"queries_checked"`
	OverviewAppearances int       `json:"overview_appearances"`
	SnippetAppearances  int       `json:"snippet_appearances"`
	PanelFieldsFilled   int       `json:"panel_fields_filled"`
	PanelFieldsTotal    int       `json:"panel_fields_total"`
	ZeroClickShare      float64   `json:"zero_click_share"` // 0-1
	FetchedAt           time.Time `json:"fetched_at"`
}

// EntityCheck is the knowledge-graph payload.
type EntityCheck struct {
	Present          bool      `json:"present"`
	Confidence       float64   `json:"confidence"` // 0-1
	SameAs           int       `json:"same_as"`    // linked external identities
	Types            []string  `json:"types,omitempty"`
	WikipediaPresent bool      `json:"wikipedia_present"`
	FetchedAt        time.Time `json:"fetched_at"`
}
