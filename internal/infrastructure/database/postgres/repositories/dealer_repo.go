package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/dealershipai/visibility-engine/internal/domain/dealer"
	"github.com/dealershipai/visibility-engine/internal/infrastructure/database/postgres"
	"github.com/dealershipai/visibility-engine/internal/infrastructure/monitoring/logging"
	"github.com/dealershipai/visibility-engine/pkg/errors"
	"github.com/dealershipai/visibility-engine/pkg/types/common"
)

type postgresDealerRepo struct {
	conn *postgres.Connection
	log  logging.Logger
}

// NewPostgresDealerRepo returns the dealer repository backed by postgres.
func NewPostgresDealerRepo(conn *postgres.Connection, log logging.Logger) dealer.Repository {
	return &postgresDealerRepo{conn: conn, log: log}
}

func (r *postgresDealerRepo) executor() queryExecutor { return r.conn.DB() }

const dealerColumns = `
	id, name, aliases, domain, city, state, established_at,
	brand, models, website_url, blog_url, created_at, updated_at`

func (r *postgresDealerRepo) GetByID(ctx context.Context, id common.ID) (*dealer.Dealer, error) {
	query := `SELECT` + dealerColumns + ` FROM dealers WHERE id = $1`
	d, err := scanDealer(r.executor().QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, errors.New(errors.ErrCodeDealerNotFound, "dealer not found").
			WithDetail("id=" + string(id))
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "loading dealer")
	}
	return d, nil
}

func (r *postgresDealerRepo) ListActive(ctx context.Context) ([]*dealer.Dealer, error) {
	query := `SELECT` + dealerColumns + ` FROM dealers WHERE active ORDER BY id`
	rows, err := r.executor().QueryContext(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "listing active dealers")
	}
	defer rows.Close()

	var fleet []*dealer.Dealer
	for rows.Next() {
		d, err := scanDealer(rows)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "scanning dealer row")
		}
		fleet = append(fleet, d)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "iterating dealer rows")
	}
	return fleet, nil
}

func (r *postgresDealerRepo) Upsert(ctx context.Context, d *dealer.Dealer) error {
	if err := d.Validate(); err != nil {
		return err
	}
	aliases, _ := json.Marshal(d.Aliases)
	models, _ := json.Marshal(d.Models)

	query := `
		INSERT INTO dealers (
			id, name, aliases, domain, city, state, established_at,
			brand, models, website_url, blog_url, active, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, TRUE, NOW(), NOW())
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			aliases = EXCLUDED.aliases,
			domain = EXCLUDED.domain,
			city = EXCLUDED.city,
			state = EXCLUDED.state,
			established_at = EXCLUDED.established_at,
			brand = EXCLUDED.brand,
			models = EXCLUDED.models,
			website_url = EXCLUDED.website_url,
			blog_url = EXCLUDED.blog_url,
			updated_at = NOW()
		RETURNING created_at, updated_at`

	err := r.executor().QueryRowContext(ctx, query,
		d.ID, d.Name, aliases, d.Domain, d.City, d.State, nullTime(d.EstablishedAt),
		d.Brand, models, d.WebsiteURL, d.BlogURL,
	).Scan(&d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "upserting dealer")
	}
	return nil
}

func scanDealer(s scanner) (*dealer.Dealer, error) {
	var (
		d             dealer.Dealer
		aliases       []byte
		models        []byte
		establishedAt sql.NullTime
	)
	err := s.Scan(
		&d.ID, &d.Name, &aliases, &d.Domain, &d.City, &d.State, &establishedAt,
		&d.Brand, &models, &d.WebsiteURL, &d.BlogURL, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(aliases) > 0 {
		if err := json.Unmarshal(aliases, &d.Aliases); err != nil {
			return nil, err
		}
	}
	if len(models) > 0 {
		if err := json.Unmarshal(models, &d.Models); err != nil {
			return nil, err
		}
	}
	if establishedAt.Valid {
		d.EstablishedAt = establishedAt.Time
	}
	return &d, nil
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}
