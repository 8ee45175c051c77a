package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/dealershipai/visibility-engine/internal/domain/credibility"
	"github.com/dealershipai/visibility-engine/internal/domain/scoring"
	"github.com/dealershipai/visibility-engine/internal/infrastructure/database/postgres"
	"github.com/dealershipai/visibility-engine/internal/infrastructure/monitoring/logging"
	"github.com/dealershipai/visibility-engine/pkg/errors"
	"github.com/dealershipai/visibility-engine/pkg/types/common"
)

type postgresScoreRepo struct {
	conn *postgres.Connection
	log  logging.Logger
}

// NewPostgresScoreRepo returns the scoring-result repository backed by
// postgres.
func NewPostgresScoreRepo(conn *postgres.Connection, log logging.Logger) scoring.Repository {
	return &postgresScoreRepo{conn: conn, log: log}
}

func (r *postgresScoreRepo) executor() queryExecutor { return r.conn.DB() }

func (r *postgresScoreRepo) SaveResult(ctx context.Context, res *scoring.Result) error {
	seo, _ := json.Marshal(res.SEO)
	aeo, _ := json.Marshal(res.AEO)
	geo, _ := json.Marshal(res.GEO)
	cred, _ := json.Marshal(res.Credibility)
	cost, _ := json.Marshal(res.Cost)
	validation, _ := json.Marshal(res.Validation)
	insights, _ := json.Marshal(res.Insights)
	recommendations, _ := json.Marshal(res.Recommendations)

	query := `
		INSERT INTO scoring_results (
			id, dealer_id, dealer_name, overall, overall_confidence,
			seo, aeo, geo, credibility, cost,
			engine_rank_score, independent_rank_score,
			validation, insights, recommendations, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`

	_, err := r.executor().ExecContext(ctx, query,
		res.ID, res.DealerID, res.DealerName, res.Overall, res.OverallConfidence,
		seo, aeo, geo, cred, cost,
		res.CrossCheck.EngineRankScore, res.CrossCheck.IndependentRankScore,
		validation, insights, recommendations, res.CreatedAt,
	)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "inserting scoring result")
	}
	return nil
}

func (r *postgresScoreRepo) TrailingOverallScores(ctx context.Context, dealerID common.ID, window common.TimeRange) ([]float64, error) {
	query := `
		SELECT overall FROM scoring_results
		WHERE dealer_id = $1 AND created_at >= $2 AND created_at < $3
		ORDER BY created_at`
	rows, err := r.executor().QueryContext(ctx, query, dealerID, window.From, window.To)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "loading trailing scores")
	}
	defer rows.Close()

	var scores []float64
	for rows.Next() {
		var v float64
		if err := rows.Scan(&v); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "scanning trailing score")
		}
		scores = append(scores, v)
	}
	return scores, rows.Err()
}

func (r *postgresScoreRepo) TrailingCrossChecks(ctx context.Context, dealerID common.ID, window common.TimeRange) ([]scoring.CrossCheck, error) {
	query := `
		SELECT engine_rank_score, independent_rank_score FROM scoring_results
		WHERE dealer_id = $1 AND created_at >= $2 AND created_at < $3
		ORDER BY created_at`
	rows, err := r.executor().QueryContext(ctx, query, dealerID, window.From, window.To)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "loading trailing cross-checks")
	}
	defer rows.Close()

	var pairs []scoring.CrossCheck
	for rows.Next() {
		var p scoring.CrossCheck
		if err := rows.Scan(&p.EngineRankScore, &p.IndependentRankScore); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "scanning cross-check pair")
		}
		pairs = append(pairs, p)
	}
	return pairs, rows.Err()
}

const resultColumns = `
	id, dealer_id, dealer_name, overall, overall_confidence,
	seo, aeo, geo, credibility, cost,
	engine_rank_score, independent_rank_score,
	validation, insights, recommendations, created_at`

func (r *postgresScoreRepo) Previous(ctx context.Context, dealerID common.ID, before time.Time) (*scoring.Result, error) {
	query := `
		SELECT` + resultColumns + ` FROM scoring_results
		WHERE dealer_id = $1 AND created_at < $2
		ORDER BY created_at DESC LIMIT 1`
	res, err := scanResult(r.executor().QueryRowContext(ctx, query, dealerID, before))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "loading previous result")
	}
	return res, nil
}

func (r *postgresScoreRepo) History(ctx context.Context, dealerID common.ID, p common.Pagination) ([]*scoring.Result, error) {
	pageSize := p.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}
	page := p.Page
	if page < 1 {
		page = 1
	}

	query := `
		SELECT` + resultColumns + ` FROM scoring_results
		WHERE dealer_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`
	rows, err := r.executor().QueryContext(ctx, query, dealerID, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "loading result history")
	}
	defer rows.Close()

	var results []*scoring.Result
	for rows.Next() {
		res, err := scanResult(rows)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "scanning result row")
		}
		results = append(results, res)
	}
	return results, rows.Err()
}

func scanResult(s scanner) (*scoring.Result, error) {
	var (
		res                                   scoring.Result
		seo, aeo, geo, cred, cost             []byte
		validation, insights, recommendations []byte
	)
	err := s.Scan(
		&res.ID, &res.DealerID, &res.DealerName, &res.Overall, &res.OverallConfidence,
		&seo, &aeo, &geo, &cred, &cost,
		&res.CrossCheck.EngineRankScore, &res.CrossCheck.IndependentRankScore,
		&validation, &insights, &recommendations, &res.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	for _, col := range []struct {
		raw  []byte
		dest interface{}
	}{
		{seo, &res.SEO},
		{aeo, &res.AEO},
		{geo, &res.GEO},
		{cred, &res.Credibility},
		{cost, &res.Cost},
		{validation, &res.Validation},
		{insights, &res.Insights},
		{recommendations, &res.Recommendations},
	} {
		if len(col.raw) == 0 || string(col.raw) == "null" {
			continue
		}
		if err := json.Unmarshal(col.raw, col.dest); err != nil {
			return nil, err
		}
	}
	return &res, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Training samples
// ─────────────────────────────────────────────────────────────────────────────

type postgresSampleRepo struct {
	conn *postgres.Connection
	log  logging.Logger
}

// SampleRepository extends the read-only training source with sample
// recording, used after each cycle once the realized outcome is known.
type SampleRepository interface {
	credibility.TrainingDataSource
	AddSample(ctx context.Context, s credibility.TrainingSample) error
}

// NewPostgresSampleRepo returns the training-sample repository.
func NewPostgresSampleRepo(conn *postgres.Connection, log logging.Logger) SampleRepository {
	return &postgresSampleRepo{conn: conn, log: log}
}

func (r *postgresSampleRepo) AddSample(ctx context.Context, s credibility.TrainingSample) error {
	features, _ := json.Marshal(s.Features)
	query := `
		INSERT INTO training_samples (dealer_id, features, outcome, observed_at)
		VALUES ($1, $2, $3, $4)`
	_, err := r.conn.DB().ExecContext(ctx, query, s.DealerID, features, s.Outcome, s.ObservedAt)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "inserting training sample")
	}
	return nil
}

func (r *postgresSampleRepo) HistoricalSamples(ctx context.Context) ([]credibility.TrainingSample, error) {
	query := `
		SELECT dealer_id, features, outcome, observed_at
		FROM training_samples ORDER BY observed_at`
	rows, err := r.conn.DB().QueryContext(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "loading training samples")
	}
	defer rows.Close()

	var samples []credibility.TrainingSample
	for rows.Next() {
		var (
			s        credibility.TrainingSample
			features []byte
		)
		if err := rows.Scan(&s.DealerID, &features, &s.Outcome, &s.ObservedAt); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "scanning training sample")
		}
		if err := json.Unmarshal(features, &s.Features); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "decoding feature vector")
		}
		samples = append(samples, s)
	}
	return samples, rows.Err()
}
