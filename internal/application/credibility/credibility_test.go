package credibility

import (
	"context"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dealershipai/visibility-engine/internal/config"
	"github.com/dealershipai/visibility-engine/internal/domain/credibility"
	"github.com/dealershipai/visibility-engine/internal/domain/dealer"
	"github.com/dealershipai/visibility-engine/internal/domain/provider"
	"github.com/dealershipai/visibility-engine/internal/infrastructure/monitoring/logging"
	"github.com/dealershipai/visibility-engine/pkg/errors"
	"github.com/dealershipai/visibility-engine/pkg/types/common"
)

// ─────────────────────────────────────────────────────────────────────────────
// Stubs
// ─────────────────────────────────────────────────────────────────────────────

type stubProfile struct {
	metrics *provider.ProfileMetrics
	err     error
}

func (s *stubProfile) Name() string                     { return "stub-profile" }
func (s *stubProfile) Capability() provider.Capability  { return provider.CapabilityProfile }
func (s *stubProfile) FetchProfileMetrics(_ context.Context, _ *dealer.Dealer) (*provider.ProfileMetrics, error) {
	return s.metrics, s.err
}

type stubBacklinks struct {
	metrics *provider.BacklinkMetrics
	err     error
}

func (s *stubBacklinks) Name() string                    { return "stub-backlinks" }
func (s *stubBacklinks) Capability() provider.Capability { return provider.CapabilityBacklinks }
func (s *stubBacklinks) FetchBacklinkMetrics(_ context.Context, _ *dealer.Dealer) (*provider.BacklinkMetrics, error) {
	return s.metrics, s.err
}

type stubKnowledge struct {
	check *provider.EntityCheck
	err   error
}

func (s *stubKnowledge) Name() string                    { return "stub-kg" }
func (s *stubKnowledge) Capability() provider.Capability { return provider.CapabilityKnowledgeGraph }
func (s *stubKnowledge) CheckEntity(_ context.Context, _ *dealer.Dealer) (*provider.EntityCheck, error) {
	return s.check, s.err
}

type memArtifactStore struct {
	mu      sync.Mutex
	current *credibility.Model
	saves   int
}

func (s *memArtifactStore) Save(_ context.Context, m *credibility.Model) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = m
	s.saves++
	return nil
}

func (s *memArtifactStore) LoadCurrent(_ context.Context) (*credibility.Model, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil, errors.New(errors.ErrCodeModelNotDeployed, "no artifact")
	}
	return s.current, nil
}

type memSampleSource struct {
	samples []credibility.TrainingSample
	err     error
}

func (s *memSampleSource) HistoricalSamples(_ context.Context) ([]credibility.TrainingSample, error) {
	return s.samples, s.err
}

type recordingAlertSink struct {
	mu     sync.Mutex
	alerts []common.Alert
}

func (s *recordingAlertSink) PublishAlerts(_ context.Context, alerts []common.Alert) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alerts = append(s.alerts, alerts...)
	return nil
}

func testDealer() *dealer.Dealer {
	est := time.Now().UTC().AddDate(-25, 0, 0)
	return &dealer.Dealer{
		ID:            common.ID("d-1"),
		Name:          "Lone Star Toyota",
		Domain:        "lonestartoyota.com",
		City:          "Dallas",
		State:         "TX",
		EstablishedAt: est,
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Extractor
// ─────────────────────────────────────────────────────────────────────────────

func TestExtractFullCoverage(t *testing.T) {
	profile := &provider.ProfileMetrics{
		ReviewCount:          400,
		VerifiedReviewCount:  200,
		OwnerResponseRate:    0.9,
		StaffCount:           40,
		StaffBioCount:        20,
		BBBGrade:             90,
		ComplaintCount:       4,
		ResolvedComplaints:   4,
		SSLValid:             true,
		PrivacyPolicy:        true,
		TransparentPricing:   true,
		ManufacturerTraining: true,
	}
	backlinks := &provider.BacklinkMetrics{
		DomainAuthority: 62,
		DomainRating:    58,
	}
	entity := &provider.EntityCheck{Present: true, WikipediaPresent: true}

	ex := NewFeatureExtractor(
		&stubProfile{metrics: profile},
		&stubBacklinks{metrics: backlinks},
		&stubKnowledge{check: entity},
		logging.NewNopLogger(),
	)

	out := ex.Extract(context.Background(), testDealer())
	assert.Equal(t, 1.0, out.Coverage)

	v := out.Vector
	assert.InDelta(t, 50.0, v[credibility.FeatStaffBiosPresent], 1e-9)
	assert.InDelta(t, 50.0, v[credibility.FeatReviewAuthenticity], 1e-9)
	assert.InDelta(t, 90.0, v[credibility.FeatReviewResponseRate], 1e-9)
	assert.Equal(t, 90.0, v[credibility.FeatBBBRating])
	assert.Equal(t, 100.0, v[credibility.FeatBBBAccreditation])
	assert.Equal(t, 100.0, v[credibility.FeatSSLCertificate])
	assert.Equal(t, 100.0, v[credibility.FeatManufacturerTraining])
	assert.Equal(t, 100.0, v[credibility.FeatComplaintResolution])
	assert.Equal(t, 100.0, v[credibility.FeatWikipediaMention])
	assert.Equal(t, 62.0, v[credibility.FeatDomainAuthority])
	assert.Equal(t, 58.0, v[credibility.FeatDomainRating])

	// 25 years of 50-year cap.
	assert.InDelta(t, 50.0, v[credibility.FeatDealershipTenure], 0.5)
	assert.Equal(t, v[credibility.FeatDealershipTenure], v[credibility.FeatYearsInBusiness])
}

func TestExtractPartialCoverage(t *testing.T) {
	ex := NewFeatureExtractor(
		&stubProfile{err: errors.New(errors.ErrCodeProviderUnavailable, "down")},
		&stubBacklinks{metrics: &provider.BacklinkMetrics{DomainAuthority: 40}},
		nil,
		logging.NewNopLogger(),
	)

	out := ex.Extract(context.Background(), testDealer())
	assert.InDelta(t, 1.0/3, out.Coverage, 1e-9)
	assert.Equal(t, 40.0, out.Vector[credibility.FeatDomainAuthority])
	assert.Zero(t, out.Vector[credibility.FeatVerifiedReviews])
}

func TestResponseTimeScore(t *testing.T) {
	assert.Equal(t, 100.0, responseTimeScore(0))
	assert.InDelta(t, 50.0, responseTimeScore(24), 1e-9)
	assert.InDelta(t, 200.0/3, responseTimeScore(12), 1e-9)
}

// ─────────────────────────────────────────────────────────────────────────────
// Predictor
// ─────────────────────────────────────────────────────────────────────────────

func TestPredictorFallback(t *testing.T) {
	p := NewPredictor(&memArtifactStore{}, logging.NewNopLogger())
	require.NoError(t, p.Reload(context.Background()))
	assert.Nil(t, p.Model())

	var v credibility.FeatureVector
	for i := range v {
		v[i] = 80
	}
	s := p.Score(Extraction{Vector: v, Coverage: 1})
	assert.Equal(t, 0.80, s.Confidence)
	assert.InDelta(t, 80.0, s.Overall, 1e-9)
}

func TestPredictorUsesDeployedModel(t *testing.T) {
	store := &memArtifactStore{current: &credibility.Model{
		Version:      3,
		Intercept:    10,
		Coefficients: make([]float64, credibility.FeatureCount),
		Confidence:   0.9,
	}}
	store.current.Coefficients[credibility.FeatVerifiedReviews] = 0.5

	p := NewPredictor(store, logging.NewNopLogger())
	require.NoError(t, p.Reload(context.Background()))
	require.NotNil(t, p.Model())

	var v credibility.FeatureVector
	v[credibility.FeatVerifiedReviews] = 60
	s := p.Score(Extraction{Vector: v, Coverage: 1})
	assert.InDelta(t, 40.0, s.Overall, 1e-9) // 10 + 0.5*60
	assert.Equal(t, 0.9, s.Confidence)
}

func TestPredictorDegradesOnPartialCoverage(t *testing.T) {
	p := NewPredictor(&memArtifactStore{}, logging.NewNopLogger())
	s := p.Score(Extraction{Coverage: 2.0 / 3})
	assert.InDelta(t, 0.80*2.0/3, s.Confidence, 1e-9)
}

// ─────────────────────────────────────────────────────────────────────────────
// Trainer
// ─────────────────────────────────────────────────────────────────────────────

func trainerConfig() config.CredibilityConfig {
	return config.CredibilityConfig{
		TrainSplit:  0.80,
		R2Gate:      0.80,
		RidgeLambda: 1e-6,
		MinSamples:  50,
	}
}

// linearSamples generates outcomes as an exact linear function of three
// features, which a ridge fit recovers almost perfectly.
func linearSamples(n int, seed int64) []credibility.TrainingSample {
	rnd := rand.New(rand.NewSource(seed))
	samples := make([]credibility.TrainingSample, n)
	for i := range samples {
		var v credibility.FeatureVector
		for j := range v {
			v[j] = rnd.Float64() * 100
		}
		samples[i] = credibility.TrainingSample{
			DealerID: common.ID("d"),
			Features: v,
			Outcome: 10 +
				0.4*v[credibility.FeatVerifiedReviews] +
				0.3*v[credibility.FeatDomainAuthority] +
				0.2*v[credibility.FeatReviewAuthenticity],
			ObservedAt: time.Now().UTC(),
		}
	}
	return samples
}

func noiseSamples(n int, seed int64) []credibility.TrainingSample {
	rnd := rand.New(rand.NewSource(seed))
	samples := linearSamples(n, seed)
	for i := range samples {
		samples[i].Outcome = rnd.Float64() * 100
	}
	return samples
}

func TestTrainDeploysWhenGateCleared(t *testing.T) {
	store := &memArtifactStore{}
	predictor := NewPredictor(store, logging.NewNopLogger())
	trainer := NewTrainer(
		&memSampleSource{samples: linearSamples(400, 7)},
		store, predictor, &recordingAlertSink{},
		trainerConfig(), logging.NewNopLogger(),
	).WithSeed(7)

	m, err := trainer.Train(context.Background())
	require.NoError(t, err)
	require.NotNil(t, m)

	assert.Equal(t, 1, m.Version)
	assert.Greater(t, m.R2, 0.80)
	assert.Equal(t, 400, m.Samples)
	assert.Len(t, m.Coefficients, credibility.FeatureCount)
	assert.Len(t, m.FeatureImportance, credibility.FeatureCount)
	assert.GreaterOrEqual(t, m.Confidence, 0.5)
	assert.LessOrEqual(t, m.Confidence, 0.99)

	// Deployed: store saved it and the predictor swapped to it.
	assert.Equal(t, 1, store.saves)
	assert.Same(t, m, predictor.Model())
}

func TestTrainGateRejectionKeepsPreviousModel(t *testing.T) {
	previous := &credibility.Model{
		Version:      2,
		Coefficients: make([]float64, credibility.FeatureCount),
		Confidence:   0.85,
	}
	store := &memArtifactStore{current: previous}
	predictor := NewPredictor(store, logging.NewNopLogger())
	require.NoError(t, predictor.Reload(context.Background()))

	sink := &recordingAlertSink{}
	trainer := NewTrainer(
		&memSampleSource{samples: noiseSamples(400, 11)},
		store, predictor, sink,
		trainerConfig(), logging.NewNopLogger(),
	).WithSeed(11)

	m, err := trainer.Train(context.Background())
	assert.Nil(t, m)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeModelGateRejected))

	// Previous model untouched, degraded-training alert published.
	assert.Same(t, previous, predictor.Model())
	assert.Equal(t, 0, store.saves)
	require.Len(t, sink.alerts, 1)
	assert.Equal(t, "model_training_degraded", sink.alerts[0].Type)
	assert.Equal(t, common.SeverityWarning, sink.alerts[0].Severity)
}

func TestTrainInsufficientSamples(t *testing.T) {
	trainer := NewTrainer(
		&memSampleSource{samples: linearSamples(10, 3)},
		&memArtifactStore{}, NewPredictor(&memArtifactStore{}, logging.NewNopLogger()), nil,
		trainerConfig(), logging.NewNopLogger(),
	)

	_, err := trainer.Train(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeModelTrainingFailed))
}

func TestTrainVersionIncrements(t *testing.T) {
	store := &memArtifactStore{}
	predictor := NewPredictor(store, logging.NewNopLogger())
	predictor.Swap(&credibility.Model{Version: 4, Coefficients: make([]float64, credibility.FeatureCount)})

	trainer := NewTrainer(
		&memSampleSource{samples: linearSamples(400, 5)},
		store, predictor, nil,
		trainerConfig(), logging.NewNopLogger(),
	).WithSeed(5)

	m, err := trainer.Train(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, m.Version)
}
