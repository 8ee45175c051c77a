package credibility

import "github.com/dealershipai/visibility-engine/pkg/types/common"

// Scores is the credibility output attached to every scoring result: four
// dimension scores in [0, 100], their equal-weighted overall, and the model's
// calibrated confidence in [0, 1].
type Scores struct {
	Experience        float64 `json:"experience"`
	Expertise         float64 `json:"expertise"`
	Authoritativeness float64 `json:"authoritativeness"`
	Trustworthiness   float64 `json:"trustworthiness"`
	Overall           float64 `json:"overall"`
	Confidence        float64 `json:"confidence"`
}

// Reference dimension weights.  Each dimension is a weighted sum over a
// documented subset of the feature vector; composite inputs (photo/video
// volume, technical content, staff credentials, industry partnerships) are
// the mean of their listed features.
//
//	experience        = verified_reviews 0.35 + tenure 0.25 + staff_bios 0.20 + photo/video 0.20
//	expertise         = oem_certs 0.40 + service_awards 0.25 + technical content 0.20 + staff credentials 0.15
//	authoritativeness = domain_authority 0.35 + quality_backlinks 0.30 + news_mentions 0.20 + partnerships 0.15
//	trustworthiness   = review_authenticity 0.30 + bbb_rating 0.25 + ssl 0.15 + transparent_pricing 0.15 + complaint_resolution 0.15
func scoreExperience(v FeatureVector) float64 {
	photoVideo := (v[FeatPhotoCount] + v[FeatVideoCount]) / 2
	return v[FeatVerifiedReviews]*0.35 +
		v[FeatDealershipTenure]*0.25 +
		v[FeatStaffBiosPresent]*0.20 +
		photoVideo*0.20
}

func scoreExpertise(v FeatureVector) float64 {
	technicalContent := (v[FeatTechnicalBlogPosts] + v[FeatHowToGuides] + v[FeatModelComparisons]) / 3
	staffCredentials := (v[FeatASECertifications] + v[FeatServiceCertifications] + v[FeatManufacturerTraining]) / 3
	return v[FeatOEMCertifications]*0.40 +
		v[FeatServiceAwards]*0.25 +
		technicalContent*0.20 +
		staffCredentials*0.15
}

func scoreAuthoritativeness(v FeatureVector) float64 {
	partnerships := (v[FeatIndustryLinks] + v[FeatOEMAssociation] + v[FeatTradeMemberships]) / 3
	return v[FeatDomainAuthority]*0.35 +
		v[FeatQualityBacklinks]*0.30 +
		v[FeatNewsMentions]*0.20 +
		partnerships*0.15
}

func scoreTrustworthiness(v FeatureVector) float64 {
	return v[FeatReviewAuthenticity]*0.30 +
		v[FeatBBBRating]*0.25 +
		v[FeatSSLCertificate]*0.15 +
		v[FeatTransparentPricing]*0.15 +
		v[FeatComplaintResolution]*0.15
}

// ScoreDimensions applies the reference dimension weights to a feature
// vector and combines the four dimensions with equal 25% weights.
// Confidence is left at zero; the caller fills it from the deployed model.
func ScoreDimensions(v FeatureVector) Scores {
	s := Scores{
		Experience:        common.Clamp(scoreExperience(v), 0, 100),
		Expertise:         common.Clamp(scoreExpertise(v), 0, 100),
		Authoritativeness: common.Clamp(scoreAuthoritativeness(v), 0, 100),
		Trustworthiness:   common.Clamp(scoreTrustworthiness(v), 0, 100),
	}
	s.Overall = (s.Experience + s.Expertise + s.Authoritativeness + s.Trustworthiness) / 4
	return s
}
