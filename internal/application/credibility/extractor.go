// Package credibility assembles the EEAT feature vector from provider
// payloads, predicts credibility with the deployed model, and retrains the
// model on accumulated samples.  Dimension math and the model artifact itself
// live in the domain package.
package credibility

import (
	"context"
	"math"
	"time"

	"github.com/dealershipai/visibility-engine/internal/domain/credibility"
	"github.com/dealershipai/visibility-engine/internal/domain/dealer"
	"github.com/dealershipai/visibility-engine/internal/domain/provider"
	"github.com/dealershipai/visibility-engine/internal/domain/scoring"
	"github.com/dealershipai/visibility-engine/internal/infrastructure/monitoring/logging"
)

// Reference ceilings for log-scaled counts.  A dealer at the ceiling scores
// 100 on that feature; the scale is logarithmic below it.
const (
	refVerifiedReviews  = 500
	refReviewPhotos     = 200
	refPhotoCount       = 300
	refVideoCount       = 50
	refTestimonials     = 100
	refCaseStudies      = 20
	refStaffCount       = 100
	refOEMCerts         = 10
	refASECerts         = 30
	refServiceAwards    = 10
	refDealershipAwards = 10
	refTechnicalPosts   = 50
	refHowToGuides      = 30
	refComparisons      = 30
	refFAQPages         = 10
	refServiceCerts     = 10
	refReferringDomains = 1000
	refQualityBacklinks = 5000
	refLocalCitations   = 100
	refNewsMentions     = 50
	refIndustryLinks    = 50
	refTradeMemberships = 10
	refSocialFollowers  = 100000
	refYouTubeSubs      = 50000
	refContentShares    = 10000
	refGuestPosts       = 20
	refPodcasts         = 10
	refComplaints       = 100

	// tenureCapYears caps the tenure features; half a century of operation
	// is full credit.
	tenureCapYears = 50

	// responseHalfLifeHours is the owner-response-time midpoint: a 24-hour
	// average response scores 50.
	responseHalfLifeHours = 24
)

// FeatureExtractor builds the 47-feature vector for one dealer from the
// profile, backlink, and knowledge-graph payloads.
type FeatureExtractor struct {
	profile   provider.ProfileSource
	backlinks provider.BacklinkSource
	knowledge provider.KnowledgeGraphSource
	log       logging.Logger
}

// NewFeatureExtractor wires the extractor to its sources.  Any source may be
// nil; its feature group then stays at zero and the extraction is reported
// as partial.
func NewFeatureExtractor(profile provider.ProfileSource, backlinks provider.BacklinkSource, knowledge provider.KnowledgeGraphSource, log logging.Logger) *FeatureExtractor {
	return &FeatureExtractor{
		profile:   profile,
		backlinks: backlinks,
		knowledge: knowledge,
		log:       log.Named("features"),
	}
}

// Extraction is a feature vector plus the share of sources that answered,
// used to degrade model confidence on partial data.
type Extraction struct {
	Vector   credibility.FeatureVector
	Coverage float64 // 0-1 share of sources that returned data
}

// Extract fetches the three payloads and normalizes every feature to
// [0, 100].  Source failures never fail the call; the missing group stays
// at zero and Coverage drops.
func (e *FeatureExtractor) Extract(ctx context.Context, d *dealer.Dealer) Extraction {
	var (
		profile   *provider.ProfileMetrics
		backlinks *provider.BacklinkMetrics
		entity    *provider.EntityCheck
	)

	if e.profile != nil {
		m, err := e.profile.FetchProfileMetrics(ctx, d)
		if err != nil {
			e.log.Warn("profile source failed",
				logging.String("dealer_id", string(d.ID)), logging.Err(err))
		} else {
			profile = m
		}
	}
	if e.backlinks != nil {
		m, err := e.backlinks.FetchBacklinkMetrics(ctx, d)
		if err != nil {
			e.log.Warn("backlink source failed",
				logging.String("dealer_id", string(d.ID)), logging.Err(err))
		} else {
			backlinks = m
		}
	}
	if e.knowledge != nil {
		m, err := e.knowledge.CheckEntity(ctx, d)
		if err != nil {
			e.log.Warn("knowledge source failed",
				logging.String("dealer_id", string(d.ID)), logging.Err(err))
		} else {
			entity = m
		}
	}

	var v credibility.FeatureVector
	answered := 0
	if profile != nil {
		answered++
		fillProfileFeatures(&v, d, profile)
	}
	if backlinks != nil {
		answered++
		fillBacklinkFeatures(&v, backlinks)
	}
	if entity != nil {
		answered++
		if entity.WikipediaPresent {
			v[credibility.FeatWikipediaMention] = 100
		}
	}

	// Tenure comes from the dealer record, not a provider.
	tenure := math.Min(d.TenureYears(time.Now().UTC())/tenureCapYears, 1) * 100
	v[credibility.FeatDealershipTenure] = tenure
	v[credibility.FeatYearsInBusiness] = tenure

	return Extraction{Vector: v, Coverage: float64(answered) / 3}
}

func fillProfileFeatures(v *credibility.FeatureVector, d *dealer.Dealer, p *provider.ProfileMetrics) {
	// Experience
	v[credibility.FeatVerifiedReviews] = scoring.LogScale(float64(p.VerifiedReviewCount), refVerifiedReviews)
	v[credibility.FeatReviewPhotos] = scoring.LogScale(float64(p.ReviewPhotoCount), refReviewPhotos)
	v[credibility.FeatStaffBiosPresent] = scoring.RateScore(float64(p.StaffBioCount), float64(p.StaffCount))
	v[credibility.FeatPhotoCount] = scoring.LogScale(float64(p.PhotoCount), refPhotoCount)
	v[credibility.FeatVideoCount] = scoring.LogScale(float64(p.VideoCount), refVideoCount)
	v[credibility.FeatTestimonialCount] = scoring.LogScale(float64(p.TestimonialCount), refTestimonials)
	v[credibility.FeatCaseStudies] = scoring.LogScale(float64(p.CaseStudyCount), refCaseStudies)
	v[credibility.FeatFirstHandContent] = scoring.UnitScore(p.FirstHandContent)
	v[credibility.FeatStaffCount] = scoring.LogScale(float64(p.StaffCount), refStaffCount)

	// Expertise
	v[credibility.FeatOEMCertifications] = scoring.LogScale(float64(p.OEMCertifications), refOEMCerts)
	v[credibility.FeatASECertifications] = scoring.LogScale(float64(p.StaffCredentialed), refASECerts)
	v[credibility.FeatServiceAwards] = scoring.LogScale(float64(p.ServiceAwards), refServiceAwards)
	v[credibility.FeatBBBAccreditation] = boolScore(p.BBBGrade > 0)
	v[credibility.FeatDealershipAwards] = scoring.LogScale(float64(p.DealershipAwards), refDealershipAwards)
	v[credibility.FeatTechnicalBlogPosts] = scoring.LogScale(float64(p.TechnicalArticles), refTechnicalPosts)
	v[credibility.FeatHowToGuides] = scoring.LogScale(float64(p.HowToGuides), refHowToGuides)
	v[credibility.FeatModelComparisons] = scoring.LogScale(float64(p.ModelComparisons), refComparisons)
	v[credibility.FeatFAQPages] = scoring.LogScale(float64(p.FAQPages), refFAQPages)
	v[credibility.FeatServiceCertifications] = scoring.LogScale(float64(p.ServiceCertifications), refServiceCerts)
	v[credibility.FeatManufacturerTraining] = boolScore(p.ManufacturerTraining)

	// Authoritativeness (profile-backed subset)
	v[credibility.FeatLocalCitations] = scoring.LogScale(float64(p.LocalCitations), refLocalCitations)
	v[credibility.FeatOEMAssociation] = boolScore(p.OEMAssociation)
	v[credibility.FeatTradeMemberships] = scoring.LogScale(float64(p.TradeMemberships), refTradeMemberships)
	v[credibility.FeatSocialFollowing] = scoring.LogScale(float64(p.SocialFollowers), refSocialFollowers)
	v[credibility.FeatYouTubeSubscribers] = scoring.LogScale(float64(p.YouTubeSubscribers), refYouTubeSubs)
	v[credibility.FeatContentShares] = scoring.LogScale(float64(p.ContentShares), refContentShares)
	v[credibility.FeatGuestPosts] = scoring.LogScale(float64(p.GuestPosts), refGuestPosts)
	v[credibility.FeatPodcastAppearances] = scoring.LogScale(float64(p.PodcastAppearances), refPodcasts)

	// Trustworthiness
	v[credibility.FeatReviewAuthenticity] = scoring.RateScore(float64(p.VerifiedReviewCount), float64(p.ReviewCount))
	v[credibility.FeatReviewResponseRate] = scoring.UnitScore(p.OwnerResponseRate)
	v[credibility.FeatReviewResponseTime] = responseTimeScore(p.AvgResponseHours)
	v[credibility.FeatBBBRating] = p.BBBGrade
	v[credibility.FeatBBBComplaints] = 100 - scoring.LogScale(float64(p.ComplaintCount), refComplaints)
	v[credibility.FeatSSLCertificate] = boolScore(p.SSLValid)
	v[credibility.FeatPrivacyPolicy] = boolScore(p.PrivacyPolicy)
	v[credibility.FeatTransparentPricing] = boolScore(p.TransparentPricing)
	v[credibility.FeatReturnPolicy] = boolScore(p.ReturnPolicy)
	v[credibility.FeatComplaintResolution] = complaintResolutionScore(p.ResolvedComplaints, p.ComplaintCount)
}

func fillBacklinkFeatures(v *credibility.FeatureVector, b *provider.BacklinkMetrics) {
	v[credibility.FeatDomainAuthority] = b.DomainAuthority
	v[credibility.FeatDomainRating] = b.DomainRating
	v[credibility.FeatReferringDomains] = scoring.LogScale(float64(b.ReferringDomains), refReferringDomains)
	v[credibility.FeatQualityBacklinks] = scoring.LogScale(float64(b.QualityBacklinks), refQualityBacklinks)
	v[credibility.FeatNewsMentions] = scoring.LogScale(float64(b.MediaCitations), refNewsMentions)
	v[credibility.FeatIndustryLinks] = scoring.LogScale(float64(b.PartnerLinks), refIndustryLinks)
}

func boolScore(b bool) float64 {
	if b {
		return 100
	}
	return 0
}

// responseTimeScore decays with average response hours; instant is 100 and
// the half-life point scores 50.
func responseTimeScore(hours float64) float64 {
	if hours <= 0 {
		return 100
	}
	return 100 * responseHalfLifeHours / (responseHalfLifeHours + hours)
}

// complaintResolutionScore is the resolved share; a clean record is full
// credit.
func complaintResolutionScore(resolved, total int) float64 {
	if total <= 0 {
		return 100
	}
	return scoring.RateScore(float64(resolved), float64(total))
}
