package credibility

import (
	"context"
	"sync"

	"github.com/dealershipai/visibility-engine/internal/domain/credibility"
	"github.com/dealershipai/visibility-engine/internal/infrastructure/monitoring/logging"
	"github.com/dealershipai/visibility-engine/pkg/errors"
)

// fallbackConfidence is reported before any model has been deployed; the
// heuristic dimension weights are the reference scorer at that point.
const fallbackConfidence = 0.80

// Predictor scores feature vectors with the currently deployed model,
// falling back to the reference dimension weights when none is deployed.
// The model is cached in memory and swapped atomically after a retrain.
type Predictor struct {
	store credibility.ArtifactStore
	log   logging.Logger

	mu    sync.RWMutex
	model *credibility.Model
}

// NewPredictor creates a predictor backed by the artifact store.  Call
// Reload to pick up the deployed model; until then predictions use the
// heuristic fallback.
func NewPredictor(store credibility.ArtifactStore, log logging.Logger) *Predictor {
	return &Predictor{store: store, log: log.Named("predictor")}
}

// Reload fetches the current artifact from the store.  A missing artifact
// is not an error; the predictor stays on the heuristic fallback.
func (p *Predictor) Reload(ctx context.Context) error {
	m, err := p.store.LoadCurrent(ctx)
	if err != nil {
		if errors.IsCode(err, errors.ErrCodeModelNotDeployed) {
			p.log.Info("no model deployed, using heuristic scoring")
			return nil
		}
		return err
	}
	if err := m.Validate(); err != nil {
		return err
	}
	p.Swap(m)
	return nil
}

// Swap installs a freshly trained model.
func (p *Predictor) Swap(m *credibility.Model) {
	p.mu.Lock()
	p.model = m
	p.mu.Unlock()
	p.log.Info("model deployed",
		logging.Int("version", m.Version),
		logging.Float64("r2", m.R2),
		logging.Float64("confidence", m.Confidence))
}

// Model returns the deployed model, or nil when running on the fallback.
func (p *Predictor) Model() *credibility.Model {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.model
}

// Score computes the four dimension scores from the reference weights and
// lets the deployed model set the overall and its confidence.  Partial
// feature coverage scales confidence down proportionally.
func (p *Predictor) Score(ex Extraction) credibility.Scores {
	s := credibility.ScoreDimensions(ex.Vector)

	m := p.Model()
	if m != nil {
		s.Overall = m.Predict(ex.Vector)
		s.Confidence = m.Confidence
	} else {
		s.Confidence = fallbackConfidence
	}
	if ex.Coverage < 1 {
		s.Confidence *= ex.Coverage
	}
	return s
}
