package scoring

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dealershipai/visibility-engine/internal/domain/dealer"
	"github.com/dealershipai/visibility-engine/internal/domain/scoring"
	"github.com/dealershipai/visibility-engine/internal/infrastructure/monitoring/logging"
	"github.com/dealershipai/visibility-engine/pkg/errors"
	"github.com/dealershipai/visibility-engine/pkg/types/common"
)

// BatchFailure records one dealer that could not be scored; the rest of the
// batch is unaffected.
type BatchFailure struct {
	DealerID common.ID `json:"dealer_id"`
	Error    string    `json:"error"`
}

// BatchReport summarizes one fleet run.
type BatchReport struct {
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	Attempted int `json:"attempted"`
	Succeeded int `json:"succeeded"`

	// Results holds the successful cycle results; a run with one poisoned
	// dealer still delivers the other N-1 here.
	Results []*scoring.Result `json:"results,omitempty"`

	Failures []BatchFailure `json:"failures,omitempty"`
	// Aborted is set when the run stopped early on a cancelled context; the
	// counts above cover only the entities dispatched before the stop.
	Aborted bool `json:"aborted,omitempty"`
}

// BatchRunner scores the whole active fleet through a bounded worker pool.
// One dealer failing, even panicking, never takes down the run.
type BatchRunner struct {
	engine        *Engine
	dealers       dealer.Repository
	concurrency   int
	dealerTimeout time.Duration
	log           logging.Logger
}

// NewBatchRunner wires the fleet run.  concurrency and dealerTimeout come
// from the worker configuration.
func NewBatchRunner(engine *Engine, dealers dealer.Repository, concurrency int, dealerTimeout time.Duration, log logging.Logger) *BatchRunner {
	if concurrency < 1 {
		concurrency = 1
	}
	return &BatchRunner{
		engine:        engine,
		dealers:       dealers,
		concurrency:   concurrency,
		dealerTimeout: dealerTimeout,
		log:           log.Named("batch"),
	}
}

// Run scores every active dealer.  Cancellation is honored between
// entities: in-flight dealers finish, undispatched ones are dropped, and
// the partial report is returned alongside the abort error.
func (b *BatchRunner) Run(ctx context.Context) (*BatchReport, error) {
	fleet, err := b.dealers.ListActive(ctx)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "listing active dealers")
	}
	if len(fleet) == 0 {
		return nil, errors.New(errors.ErrCodeBatchEmptyFleet, "no active dealers to score")
	}

	report := &BatchReport{StartedAt: time.Now().UTC()}
	var mu sync.Mutex

	g := &errgroup.Group{}
	g.SetLimit(b.concurrency)

dispatch:
	for _, d := range fleet {
		select {
		case <-ctx.Done():
			report.Aborted = true
			break dispatch
		default:
		}

		d := d
		mu.Lock()
		report.Attempted++
		mu.Unlock()

		g.Go(func() error {
			res, err := b.scoreOne(ctx, d)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				report.Failures = append(report.Failures, BatchFailure{
					DealerID: d.ID,
					Error:    err.Error(),
				})
				return nil
			}
			report.Succeeded++
			report.Results = append(report.Results, res)
			return nil
		})
	}

	_ = g.Wait()
	report.FinishedAt = time.Now().UTC()

	b.log.Info("batch run finished",
		logging.Int("attempted", report.Attempted),
		logging.Int("succeeded", report.Succeeded),
		logging.Int("failed", len(report.Failures)),
		logging.Bool("aborted", report.Aborted),
		logging.Duration("elapsed", report.FinishedAt.Sub(report.StartedAt)))

	if report.Aborted {
		return report, errors.Wrap(ctx.Err(), errors.ErrCodeBatchAborted, "batch stopped before completing the fleet")
	}
	return report, nil
}

// scoreOne isolates a single dealer: its own timeout and a panic barrier so
// a poisoned entity cannot sink the pool worker.
func (b *BatchRunner) scoreOne(ctx context.Context, d *dealer.Dealer) (res *scoring.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.New(errors.ErrCodeBatchEntityFailed, fmt.Sprintf("panic scoring dealer: %v", r))
			b.log.Error("dealer scoring panicked",
				logging.String("dealer_id", string(d.ID)),
				logging.Any("panic", r))
		}
	}()

	dctx := ctx
	if b.dealerTimeout > 0 {
		var cancel context.CancelFunc
		dctx, cancel = context.WithTimeout(ctx, b.dealerTimeout)
		defer cancel()
	}

	res, err = b.engine.ScoreDealer(dctx, d)
	if err != nil {
		b.log.Warn("dealer scoring failed",
			logging.String("dealer_id", string(d.ID)), logging.Err(err))
		return nil, errors.Wrap(err, errors.ErrCodeBatchEntityFailed, "scoring dealer "+string(d.ID))
	}
	return res, nil
}
