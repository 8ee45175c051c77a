package credibility

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/dealershipai/visibility-engine/internal/config"
	"github.com/dealershipai/visibility-engine/internal/domain/credibility"
	"github.com/dealershipai/visibility-engine/internal/domain/event"
	"github.com/dealershipai/visibility-engine/internal/infrastructure/monitoring/logging"
	"github.com/dealershipai/visibility-engine/pkg/errors"
	"github.com/dealershipai/visibility-engine/pkg/types/common"
)

// rmseConfidenceScale converts test RMSE into calibrated confidence:
// confidence = 1 / (1 + RMSE/25), clamped to [0.5, 0.99].  An RMSE of 25
// points on the 0-100 outcome scale maps to 0.5.
const rmseConfidenceScale = 25

// Trainer retrains the credibility model on accumulated samples.  A model
// only replaces the deployed one when its held-out R-squared clears the
// quality gate; a rejected run keeps the previous model and publishes a
// degraded-training alert.
type Trainer struct {
	source    credibility.TrainingDataSource
	store     credibility.ArtifactStore
	predictor *Predictor
	alerts    event.AlertSink
	cfg       config.CredibilityConfig
	log       logging.Logger

	// seed drives the train/test shuffle; fixed in tests for reproducible
	// splits.
	seed int64
}

// NewTrainer wires the monthly retrain job.
func NewTrainer(source credibility.TrainingDataSource, store credibility.ArtifactStore, predictor *Predictor, alerts event.AlertSink, cfg config.CredibilityConfig, log logging.Logger) *Trainer {
	return &Trainer{
		source:    source,
		store:     store,
		predictor: predictor,
		alerts:    alerts,
		cfg:       cfg,
		log:       log.Named("trainer"),
		seed:      time.Now().UnixNano(),
	}
}

// WithSeed fixes the shuffle seed.
func (t *Trainer) WithSeed(seed int64) *Trainer {
	t.seed = seed
	return t
}

// Train loads historical samples, fits a ridge model on an 80/20 split, and
// deploys it when the test R-squared clears the gate.  Returns the deployed
// model, or an error when training failed or the gate rejected the run.
func (t *Trainer) Train(ctx context.Context) (*credibility.Model, error) {
	samples, err := t.source.HistoricalSamples(ctx)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeModelTrainingFailed, "loading training samples")
	}
	if len(samples) < t.cfg.MinSamples {
		return nil, errors.New(errors.ErrCodeModelTrainingFailed,
			fmt.Sprintf("insufficient samples: %d < %d", len(samples), t.cfg.MinSamples))
	}

	train, test := t.split(samples)
	if len(test) == 0 {
		return nil, errors.New(errors.ErrCodeModelTrainingFailed, "empty test split")
	}

	intercept, coefs, err := fitRidge(train, t.cfg.RidgeLambda)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeModelTrainingFailed, "solving normal equations")
	}

	candidate := &credibility.Model{
		Version:      t.nextVersion(),
		Intercept:    intercept,
		Coefficients: coefs,
		Samples:      len(samples),
		TrainedAt:    time.Now().UTC(),
	}
	candidate.R2, candidate.TestRMSE = evaluate(candidate, test)
	candidate.Confidence = common.Clamp(1/(1+candidate.TestRMSE/rmseConfidenceScale), 0.5, 0.99)
	candidate.FeatureImportance = featureImportance(coefs, samples)

	if candidate.R2 <= t.cfg.R2Gate {
		t.log.Warn("trained model rejected by quality gate",
			logging.Int("version", candidate.Version),
			logging.Float64("r2", candidate.R2),
			logging.Float64("gate", t.cfg.R2Gate),
			logging.Int("samples", len(samples)))
		t.publishGateAlert(ctx, candidate)
		return nil, errors.New(errors.ErrCodeModelGateRejected,
			fmt.Sprintf("test r2 %.4f below gate %.2f", candidate.R2, t.cfg.R2Gate))
	}

	if err := t.store.Save(ctx, candidate); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeModelTrainingFailed, "persisting model artifact")
	}
	t.predictor.Swap(candidate)
	return candidate, nil
}

// split shuffles the samples and cuts the configured train share.
func (t *Trainer) split(samples []credibility.TrainingSample) (train, test []credibility.TrainingSample) {
	shuffled := make([]credibility.TrainingSample, len(samples))
	copy(shuffled, samples)
	rnd := rand.New(rand.NewSource(t.seed))
	rnd.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	cut := int(float64(len(shuffled)) * t.cfg.TrainSplit)
	return shuffled[:cut], shuffled[cut:]
}

func (t *Trainer) nextVersion() int {
	if m := t.predictor.Model(); m != nil {
		return m.Version + 1
	}
	return 1
}

func (t *Trainer) publishGateAlert(ctx context.Context, m *credibility.Model) {
	if t.alerts == nil {
		return
	}
	alert := common.Alert{
		Type:     "model_training_degraded",
		Severity: common.SeverityWarning,
		Message: fmt.Sprintf("model v%d rejected: test r2 %.4f below gate %.2f, previous model retained",
			m.Version, m.R2, t.cfg.R2Gate),
	}
	if err := t.alerts.PublishAlerts(ctx, []common.Alert{alert}); err != nil {
		t.log.Error("publishing training alert failed", logging.Err(err))
	}
}

// fitRidge solves the regularized normal equations
// (X'X + lambda*I) beta = X'y with an unpenalized intercept column.
func fitRidge(train []credibility.TrainingSample, lambda float64) (intercept float64, coefs []float64, err error) {
	n := len(train)
	p := credibility.FeatureCount

	x := mat.NewDense(n, p+1, nil)
	y := mat.NewVecDense(n, nil)
	for i, s := range train {
		x.Set(i, 0, 1)
		for j, f := range s.Features {
			x.Set(i, j+1, f)
		}
		y.SetVec(i, s.Outcome)
	}

	var xtx mat.Dense
	xtx.Mul(x.T(), x)
	for j := 1; j <= p; j++ {
		xtx.Set(j, j, xtx.At(j, j)+lambda)
	}

	var xty mat.VecDense
	xty.MulVec(x.T(), y)

	var beta mat.VecDense
	if err := beta.SolveVec(&xtx, &xty); err != nil {
		return 0, nil, err
	}

	coefs = make([]float64, p)
	for j := 0; j < p; j++ {
		coefs[j] = beta.AtVec(j + 1)
	}
	return beta.AtVec(0), coefs, nil
}

// evaluate computes test R-squared and RMSE.
func evaluate(m *credibility.Model, test []credibility.TrainingSample) (r2, rmse float64) {
	estimates := make([]float64, len(test))
	values := make([]float64, len(test))
	var sqErr float64
	for i, s := range test {
		estimates[i] = m.Predict(s.Features)
		values[i] = s.Outcome
		d := estimates[i] - values[i]
		sqErr += d * d
	}
	rmse = math.Sqrt(sqErr / float64(len(test)))
	return stat.RSquaredFrom(estimates, values, nil), rmse
}

// featureImportance is |coefficient| times the feature's standard deviation
// over the full sample set, normalized to sum to 1.
func featureImportance(coefs []float64, samples []credibility.TrainingSample) []float64 {
	importance := make([]float64, credibility.FeatureCount)
	col := make([]float64, len(samples))
	var total float64
	for j := 0; j < credibility.FeatureCount; j++ {
		for i, s := range samples {
			col[i] = s.Features[j]
		}
		importance[j] = math.Abs(coefs[j]) * stat.StdDev(col, nil)
		total += importance[j]
	}
	if total > 0 {
		for j := range importance {
			importance[j] /= total
		}
	}
	return importance
}
