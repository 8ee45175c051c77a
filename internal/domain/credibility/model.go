package credibility

import (
	"context"
	"time"

	"github.com/dealershipai/visibility-engine/pkg/errors"
	"github.com/dealershipai/visibility-engine/pkg/types/common"
)

// Model is a deployed linear credibility model: a coefficient per feature
// plus an intercept, mapping a feature vector to a predicted AI-citation
// outcome in [0, 100].  The artifact carries its training metadata so the
// deploy gate and feature-importance reports are reproducible.
type Model struct {
	Version      int       `json:"version"`
	Intercept    float64   `json:"intercept"`
	Coefficients []float64 `json:"coefficients"` // length FeatureCount, feature-index order

	// R2 is the variance explained on the held-out test split; models only
	// reach deployment when it clears the gate.
	R2       float64 `json:"r2"`
	TestRMSE float64 `json:"test_rmse"`
	// Confidence is the calibrated prediction confidence derived from
	// TestRMSE at training time, in [0, 1].
	Confidence float64 `json:"confidence"`

	// FeatureImportance is |coefficient| x feature std-dev, normalized to
	// sum to 1, in feature-index order.
	FeatureImportance []float64 `json:"feature_importance"`

	Samples   int       `json:"samples"`
	TrainedAt time.Time `json:"trained_at"`
}

// Validate checks the artifact's structural integrity after loading.
func (m *Model) Validate() error {
	if m == nil {
		return errors.New(errors.ErrCodeModelArtifactCorrupt, "model is nil")
	}
	if len(m.Coefficients) != FeatureCount {
		return errors.New(errors.ErrCodeModelArtifactCorrupt, "coefficient length mismatch").
			WithDetail(FeatureName(0) + "..: expected 47 coefficients")
	}
	if m.Confidence < 0 || m.Confidence > 1 {
		return errors.New(errors.ErrCodeModelArtifactCorrupt, "confidence out of range")
	}
	return nil
}

// Predict maps a feature vector to the model's citation-outcome estimate,
// clamped to [0, 100].
func (m *Model) Predict(v FeatureVector) float64 {
	y := m.Intercept
	for i, c := range m.Coefficients {
		y += c * v[i]
	}
	return common.Clamp(y, 0, 100)
}

// TrainingSample pairs one historical feature vector with the realized
// AI-citation outcome observed for that dealer and cycle.
type TrainingSample struct {
	DealerID common.ID     `json:"dealer_id"`
	Features FeatureVector `json:"features"`
	// Outcome is the realized citation rate scaled to [0, 100].
	Outcome    float64   `json:"outcome"`
	ObservedAt time.Time `json:"observed_at"`
}

// TrainingDataSource supplies historical samples for the monthly retrain.
// Implemented by the postgres layer.
type TrainingDataSource interface {
	HistoricalSamples(ctx context.Context) ([]TrainingSample, error)
}

// ArtifactStore persists model artifacts keyed by version.  Implemented by
// the object-storage layer.
type ArtifactStore interface {
	// Save persists the model under its version and marks it current.
	Save(ctx context.Context, m *Model) error
	// LoadCurrent returns the currently deployed model, or an error with
	// code MODEL_001 when none has been deployed yet.
	LoadCurrent(ctx context.Context) (*Model, error)
}
