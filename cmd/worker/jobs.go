package main

import (
	"context"
	"time"

	"github.com/dealershipai/visibility-engine/internal/app"
	"github.com/dealershipai/visibility-engine/internal/domain/credibility"
	"github.com/dealershipai/visibility-engine/internal/infrastructure/monitoring/logging"
)

// jobs binds the scheduled entrypoints to the bootstrapped engine.
type jobs struct {
	a   *app.App
	log logging.Logger
}

func newJobs(a *app.App, log logging.Logger) *jobs {
	return &jobs{a: a, log: log.Named("jobs")}
}

// batch scores the active fleet and then harvests training samples from the
// fresh results.  A partial report still feeds the metrics.
func (j *jobs) batch(ctx context.Context) error {
	report, err := j.a.Batch.Run(ctx)
	if report != nil {
		j.a.Collector.Metrics().ObserveBatch(report.Succeeded, len(report.Failures))
		j.log.Info("batch cycle finished",
			logging.Int("attempted", report.Attempted),
			logging.Int("succeeded", report.Succeeded),
			logging.Int("failed", len(report.Failures)),
			logging.Duration("elapsed", report.FinishedAt.Sub(report.StartedAt)),
		)
	}
	if err != nil {
		return err
	}

	j.collectSamples(ctx)
	return nil
}

// health refreshes the operational snapshot.  The database probe doubles as
// the dependency uptime tick.
func (j *jobs) health(ctx context.Context) error {
	j.a.Recorder.RecordTick(j.a.DB.HealthCheck(ctx) == nil)

	m := j.a.Health.Refresh(ctx)
	j.a.Collector.Metrics().ObserveHealth(m)
	return nil
}

// train runs the monthly retrain.  The trainer deploys and swaps the model
// itself when the candidate clears the quality gate.
func (j *jobs) train(ctx context.Context) error {
	m, err := j.a.Trainer.Train(ctx)
	if err != nil {
		return err
	}
	j.a.Collector.Metrics().ObserveModel(m.Version, m.R2)
	j.log.Info("model deployed",
		logging.Int("version", m.Version),
		logging.Float64("r2", m.R2),
	)
	return nil
}

// collectSamples pairs each dealer's current feature vector with the
// realized citation rate from its latest result, growing the corpus the
// next retrain draws from.  Per-dealer failures are logged and skipped.
func (j *jobs) collectSamples(ctx context.Context) {
	dealers, err := j.a.Dealers.ListActive(ctx)
	if err != nil {
		j.log.Warn("sample collection skipped", logging.Err(err))
		return
	}

	var stored int
	for _, d := range dealers {
		latest, err := j.a.Results.Previous(ctx, d.ID, time.Now().Add(time.Second))
		if err != nil || latest == nil {
			continue
		}

		ext := j.a.Extractor.Extract(ctx, d)
		sample := credibility.TrainingSample{
			DealerID:   d.ID,
			Features:   ext.Vector,
			Outcome:    latest.AEO.Score,
			ObservedAt: latest.CreatedAt,
		}
		if err := j.a.Samples.AddSample(ctx, sample); err != nil {
			j.log.Warn("sample not stored",
				logging.String("dealer_id", string(d.ID)),
				logging.Err(err),
			)
			continue
		}
		stored++
	}

	j.log.Info("training samples collected", logging.Int("stored", stored))
}
