// Package credibility defines the EEAT feature vector, dimension scoring,
// and the trained prediction model for dealer credibility.
package credibility

// Dimension names one of the four credibility dimensions.
type Dimension string

const (
	DimExperience        Dimension = "experience"
	DimExpertise         Dimension = "expertise"
	DimAuthoritativeness Dimension = "authoritativeness"
	DimTrustworthiness   Dimension = "trustworthiness"
)

// Feature indices into a FeatureVector.  The layout is fixed: 10 experience,
// 12 expertise, 15 authoritativeness, 10 trustworthiness features, 47 total.
// Model artifacts store coefficients by this index order, so the layout must
// never be reordered, only appended to with a model version bump.
const (
	// Experience (0-9)
	FeatVerifiedReviews = iota
	FeatReviewPhotos
	FeatDealershipTenure
	FeatStaffBiosPresent
	FeatPhotoCount
	FeatVideoCount
	FeatTestimonialCount
	FeatCaseStudies
	FeatFirstHandContent
	FeatStaffCount

	// Expertise (10-21)
	FeatOEMCertifications
	FeatASECertifications
	FeatServiceAwards
	FeatBBBAccreditation
	FeatDealershipAwards
	FeatTechnicalBlogPosts
	FeatHowToGuides
	FeatModelComparisons
	FeatFAQPages
	FeatServiceCertifications
	FeatManufacturerTraining
	FeatYearsInBusiness

	// Authoritativeness (22-36)
	FeatDomainAuthority
	FeatDomainRating
	FeatReferringDomains
	FeatQualityBacklinks
	FeatLocalCitations
	FeatNewsMentions
	FeatIndustryLinks
	FeatOEMAssociation
	FeatTradeMemberships
	FeatSocialFollowing
	FeatYouTubeSubscribers
	FeatContentShares
	FeatGuestPosts
	FeatPodcastAppearances
	FeatWikipediaMention

	// Trustworthiness (37-46)
	FeatReviewAuthenticity
	FeatReviewResponseRate
	FeatReviewResponseTime
	FeatBBBRating
	FeatBBBComplaints
	FeatSSLCertificate
	FeatPrivacyPolicy
	FeatTransparentPricing
	FeatReturnPolicy
	FeatComplaintResolution

	// FeatureCount is the fixed vector length.
	FeatureCount
)

// featureNames is indexed by the constants above; used for artifact metadata
// and feature-importance reporting.
var featureNames = [FeatureCount]string{
	"verified_reviews", "review_photos", "dealership_tenure", "staff_bios_present",
	"photo_count", "video_count", "testimonial_count", "case_studies",
	"first_hand_content", "staff_count",

	"oem_certifications", "ase_certifications", "service_awards", "bbb_accreditation",
	"dealership_awards", "technical_blog_posts", "how_to_guides", "model_comparisons",
	"faq_pages", "service_certifications", "manufacturer_training", "years_in_business",

	"domain_authority", "domain_rating", "referring_domains", "quality_backlinks",
	"local_citations", "news_mentions", "industry_links", "oem_association",
	"trade_memberships", "social_following", "youtube_subscribers", "content_shares",
	"guest_posts", "podcast_appearances", "wikipedia_mention",

	"review_authenticity", "review_response_rate", "review_response_time", "bbb_rating",
	"bbb_complaints", "ssl_certificate", "privacy_policy", "transparent_pricing",
	"return_policy", "complaint_resolution",
}

// FeatureVector holds all 47 features, each normalized to [0, 100].
// Recomputed every scoring cycle; persisted only as a training sample.
type FeatureVector [FeatureCount]float64

// Slice returns the vector as a []float64 for matrix assembly.
func (v FeatureVector) Slice() []float64 {
	out := make([]float64, FeatureCount)
	copy(out, v[:])
	return out
}

// FeatureName returns the canonical name for a feature index, or "" when the
// index is out of range.
func FeatureName(i int) string {
	if i < 0 || i >= FeatureCount {
		return ""
	}
	return featureNames[i]
}

// FeatureNames returns all names in index order.
func FeatureNames() []string {
	out := make([]string, FeatureCount)
	copy(out, featureNames[:])
	return out
}

// DimensionOf maps a feature index to its dimension group.
func DimensionOf(i int) Dimension {
	switch {
	case i >= FeatVerifiedReviews && i <= FeatStaffCount:
		return DimExperience
	case i >= FeatOEMCertifications && i <= FeatYearsInBusiness:
		return DimExpertise
	case i >= FeatDomainAuthority && i <= FeatWikipediaMention:
		return DimAuthoritativeness
	case i >= FeatReviewAuthenticity && i <= FeatComplaintResolution:
		return DimTrustworthiness
	default:
		return ""
	}
}
