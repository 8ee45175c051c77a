// Package scheduler drives the recurring jobs: the nightly fleet batch,
// the hourly health snapshot, and the monthly credibility retrain.
package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/dealershipai/visibility-engine/internal/config"
	"github.com/dealershipai/visibility-engine/internal/infrastructure/monitoring/logging"
	"github.com/dealershipai/visibility-engine/pkg/errors"
)

// Job is one schedulable unit of work.
type Job func(ctx context.Context) error

// Scheduler runs registered jobs on cron expressions.  A panicking job is
// recovered and logged; it never takes the process down.
type Scheduler struct {
	cron *cron.Cron
	base context.Context
	stop context.CancelFunc
	log  logging.Logger
}

// New builds an idle scheduler.  Jobs are added before Start.
func New(log logging.Logger) *Scheduler {
	base, stop := context.WithCancel(context.Background())
	logger := log.Named("scheduler")
	c := cron.New(cron.WithChain(
		cron.Recover(cronLogger{logger}),
	))
	return &Scheduler{cron: c, base: base, stop: stop, log: logger}
}

// Register schedules a named job.  An empty expression disables the job,
// which is how deployments without a trainer run.
func (s *Scheduler) Register(name, expr string, job Job) error {
	if expr == "" {
		s.log.Info("job disabled", logging.String("job", name))
		return nil
	}
	_, err := s.cron.AddFunc(expr, func() {
		start := time.Now()
		if err := job(s.base); err != nil {
			s.log.Error("scheduled job failed",
				logging.String("job", name),
				logging.Duration("elapsed", time.Since(start)),
				logging.Err(err))
			return
		}
		s.log.Info("scheduled job finished",
			logging.String("job", name),
			logging.Duration("elapsed", time.Since(start)))
	})
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeConfigInvalid, "invalid cron expression").
			WithDetail(name + ": " + expr)
	}
	s.log.Info("job registered", logging.String("job", name), logging.String("schedule", expr))
	return nil
}

// RegisterWorkerJobs wires the three standing jobs from the worker config.
func (s *Scheduler) RegisterWorkerJobs(cfg config.WorkerConfig, batch, health, train Job) error {
	if err := s.Register("batch", cfg.BatchSchedule, batch); err != nil {
		return err
	}
	if err := s.Register("health", cfg.HealthSchedule, health); err != nil {
		return err
	}
	return s.Register("trainer", cfg.TrainerSchedule, train)
}

// Start begins dispatching in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info("scheduler started")
}

// Stop cancels running jobs and waits for them to return.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.stop()
	done := s.cron.Stop()
	select {
	case <-done.Done():
		s.log.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		return errors.Wrap(ctx.Err(), errors.ErrCodeTimeout, "waiting for running jobs")
	}
}

// cronLogger adapts the structured logger to cron's interface, used only
// by the panic-recovery chain.
type cronLogger struct {
	log logging.Logger
}

func (l cronLogger) Info(msg string, kv ...interface{}) {
	l.log.Info(msg, logging.Any("details", kv))
}

func (l cronLogger) Error(err error, msg string, kv ...interface{}) {
	l.log.Error(msg, logging.Err(err), logging.Any("details", kv))
}
