package repositories

import (
	"context"

	"github.com/dealershipai/visibility-engine/internal/domain/scoring"
	"github.com/dealershipai/visibility-engine/internal/infrastructure/database/postgres"
	"github.com/dealershipai/visibility-engine/internal/infrastructure/monitoring/logging"
	"github.com/dealershipai/visibility-engine/pkg/errors"
	"github.com/dealershipai/visibility-engine/pkg/types/common"
)

type postgresAuditRepo struct {
	conn *postgres.Connection
	log  logging.Logger
}

// NewPostgresAuditRepo returns the manual-audit repository backed by
// postgres.
func NewPostgresAuditRepo(conn *postgres.Connection, log logging.Logger) scoring.AuditRepository {
	return &postgresAuditRepo{conn: conn, log: log}
}

func (r *postgresAuditRepo) Enqueue(ctx context.Context, a *scoring.ManualAudit) error {
	query := `
		INSERT INTO manual_audits (id, dealer_id, result_id, reason, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.conn.DB().ExecContext(ctx, query,
		a.ID, a.DealerID, a.ResultID, a.Reason, a.Status, a.CreatedAt)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "enqueueing manual audit")
	}
	return nil
}

func (r *postgresAuditRepo) Resolve(ctx context.Context, id common.ID, status scoring.AuditStatus) error {
	query := `
		UPDATE manual_audits SET status = $1, resolved_at = NOW()
		WHERE id = $2 AND status = $3`
	res, err := r.conn.DB().ExecContext(ctx, query, status, id, scoring.AuditPending)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "resolving manual audit")
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return errors.New(errors.ErrCodeNotFound, "no pending audit with that id").
			WithDetail("id=" + string(id))
	}
	return nil
}

func (r *postgresAuditRepo) PassRate(ctx context.Context, window common.TimeRange) (float64, error) {
	query := `
		SELECT
			COUNT(*) FILTER (WHERE status = $1),
			COUNT(*)
		FROM manual_audits
		WHERE resolved_at IS NOT NULL AND resolved_at >= $2 AND resolved_at < $3`
	var passed, total int64
	err := r.conn.DB().QueryRowContext(ctx, query, scoring.AuditPassed, window.From, window.To).
		Scan(&passed, &total)
	if err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "computing audit pass rate")
	}
	if total == 0 {
		return 1.0, nil
	}
	return float64(passed) / float64(total), nil
}
