// Package app assembles the engine from configuration: infrastructure
// clients, provider registry, application services.  All three binaries
// (apiserver, worker, CLI) bootstrap through it so wiring stays in one
// place.
package app

import (
	"context"
	"time"

	appcredibility "github.com/dealershipai/visibility-engine/internal/application/credibility"
	appscoring "github.com/dealershipai/visibility-engine/internal/application/scoring"
	"github.com/dealershipai/visibility-engine/internal/application/validation"
	"github.com/dealershipai/visibility-engine/internal/config"
	domaincredibility "github.com/dealershipai/visibility-engine/internal/domain/credibility"
	"github.com/dealershipai/visibility-engine/internal/domain/dealer"
	"github.com/dealershipai/visibility-engine/internal/domain/event"
	"github.com/dealershipai/visibility-engine/internal/domain/provider"
	"github.com/dealershipai/visibility-engine/internal/domain/scoring"
	"github.com/dealershipai/visibility-engine/internal/infrastructure/database/postgres"
	"github.com/dealershipai/visibility-engine/internal/infrastructure/database/postgres/repositories"
	"github.com/dealershipai/visibility-engine/internal/infrastructure/database/redis"
	"github.com/dealershipai/visibility-engine/internal/infrastructure/messaging/kafka"
	"github.com/dealershipai/visibility-engine/internal/infrastructure/monitoring/logging"
	"github.com/dealershipai/visibility-engine/internal/infrastructure/monitoring/prometheus"
	"github.com/dealershipai/visibility-engine/internal/infrastructure/providers/stub"
	"github.com/dealershipai/visibility-engine/internal/infrastructure/storage/memory"
	"github.com/dealershipai/visibility-engine/internal/infrastructure/storage/minio"
)

// Options tunes optional bootstrap steps.
type Options struct {
	// Migrate runs pending database migrations before wiring repositories.
	Migrate bool
}

// App bundles every wired component plus the infrastructure handles the
// binaries need for probes and shutdown.
type App struct {
	Config *config.Config
	Log    logging.Logger

	DB       *postgres.Connection
	Redis    *redis.Client
	Cache    *redis.PayloadCache
	Producer *kafka.Producer

	Collector *prometheus.Collector

	Dealers   dealer.Repository
	Results   scoring.Repository
	Audits    scoring.AuditRepository
	Samples   repositories.SampleRepository
	Artifacts domaincredibility.ArtifactStore

	Registry  *provider.Registry
	Recorder  *validation.Recorder
	Extractor *appcredibility.FeatureExtractor
	Predictor *appcredibility.Predictor
	Trainer   *appcredibility.Trainer
	Validator *validation.Validator
	Health    *validation.HealthEngine
	Engine    *appscoring.Engine
	Batch     *appscoring.BatchRunner
}

// Bootstrap wires the whole engine.  Postgres is required; Redis, Kafka,
// and MinIO degrade to in-process substitutes with a logged warning so a
// bare checkout can still score.
func Bootstrap(ctx context.Context, cfg *config.Config, log logging.Logger, opts Options) (*App, error) {
	a := &App{Config: cfg, Log: log}

	conn, err := postgres.NewConnection(cfg.Database, log)
	if err != nil {
		return nil, err
	}
	a.DB = conn
	if opts.Migrate {
		if err := conn.RunMigrations(); err != nil {
			a.Close()
			return nil, err
		}
	}

	a.Dealers = repositories.NewPostgresDealerRepo(conn, log)
	a.Results = repositories.NewPostgresScoreRepo(conn, log)
	a.Audits = repositories.NewPostgresAuditRepo(conn, log)
	a.Samples = repositories.NewPostgresSampleRepo(conn, log)

	if cfg.Redis.Addr != "" {
		client, err := redis.NewClient(cfg.Redis, log)
		if err != nil {
			log.Warn("redis unavailable, provider payloads will not be cached", logging.Err(err))
		} else {
			a.Redis = client
			a.Cache = redis.NewPayloadCache(client, log)
		}
	}

	var alerts event.AlertSink
	var reviews event.ReviewQueue
	if len(cfg.Kafka.Brokers) > 0 {
		producer, err := kafka.NewProducer(cfg.Kafka, log)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.Producer = producer
		alerts = producer
		reviews = producer
	} else {
		log.Warn("kafka not configured, alerts and review routing are log-only")
	}

	if cfg.MinIO.Endpoint != "" {
		store, err := minio.NewArtifactStore(cfg.MinIO, log)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.Artifacts = store
	} else {
		log.Warn("minio not configured, model artifacts are process-local")
		a.Artifacts = memory.NewArtifactStore()
	}

	a.Collector = prometheus.NewCollector(prometheus.CollectorConfig{
		EnableProcessMetrics: true,
		EnableGoMetrics:      true,
	})

	a.Registry = buildRegistry(ctx, a, cfg, log)
	if err := a.Registry.Validate(); err != nil {
		a.Close()
		return nil, err
	}

	a.Recorder = validation.NewRecorder()
	a.Extractor = appcredibility.NewFeatureExtractor(
		a.Registry.Profile, a.Registry.Backlinks, a.Registry.Knowledge, log)
	a.Predictor = appcredibility.NewPredictor(a.Artifacts, log)
	if err := a.Predictor.Reload(ctx); err != nil {
		log.Warn("credibility model reload failed, scoring with heuristic fallback", logging.Err(err))
	}
	a.Trainer = appcredibility.NewTrainer(a.Samples, a.Artifacts, a.Predictor, alerts, cfg.Credibility, log)

	aeo := appscoring.NewAEOScorer(a.Registry.Chat, cfg.Scoring, log)
	a.Validator = validation.NewValidator(a.Results, a.Audits, aeo, cfg.Validation, log)

	a.Health = validation.NewHealthEngine(a.Recorder, cacheStatsSource(a.Cache), a.Predictor, a.Audits, alerts, *cfg, log)
	a.Health.SetScoringShape(dealer.PanelSize(""), len(a.Registry.Chat))

	a.Engine = appscoring.NewEngine(appscoring.EngineDeps{
		SEO:       appscoring.NewSEOScorer(a.Registry.Search, a.Registry.Backlinks, cfg.Scoring, log),
		AEO:       aeo,
		GEO:       appscoring.NewGEOScorer(a.Registry.Overview, a.Registry.Knowledge, cfg.Scoring, log),
		Extractor: a.Extractor,
		Predictor: a.Predictor,
		Validator: a.Validator,
		Results:   a.Results,
		Reviews:   reviews,
		Recorder:  a.Recorder,
		Platforms: len(a.Registry.Chat),
	}, cfg, log)

	a.Batch = appscoring.NewBatchRunner(a.Engine, a.Dealers,
		cfg.Worker.Concurrency, cfg.Worker.DealerTimeout, log)

	return a, nil
}

// buildRegistry assembles the stub provider registry and decorates it with
// rate limiting, payload caching, and call observation.  The citation
// roster is the active fleet's names so synthetic answers cite real
// dealers.
func buildRegistry(ctx context.Context, a *App, cfg *config.Config, log logging.Logger) *provider.Registry {
	var roster []string
	listCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	fleet, err := a.Dealers.ListActive(listCtx)
	if err != nil {
		log.Warn("fleet listing failed, chat stubs start with an empty roster", logging.Err(err))
	}
	for _, d := range fleet {
		roster = append(roster, d.Name)
		roster = append(roster, d.Aliases...)
	}

	registry := *stub.NewRegistry(roster)
	if cfg.Provider.RateLimitRPS > 0 {
		registry = provider.WithRateLimits(registry, cfg.Provider.RateLimitRPS, cfg.Provider.RateBurst)
	}
	if a.Cache != nil {
		registry = provider.WithCache(registry, a.Cache, cfg.Provider.CacheTTL)
	}
	registry = provider.WithObserver(registry, a.Collector.Metrics())
	return &registry
}

// cacheStatsSource converts the optional cache into the health engine's
// interface.  A nil pointer must become a nil interface here; a typed nil
// would slip past the engine's guard and panic on the first snapshot.
func cacheStatsSource(c *redis.PayloadCache) validation.CacheStatsSource {
	if c == nil {
		return nil
	}
	return c
}

// Close releases infrastructure handles in reverse dependency order.
func (a *App) Close() {
	if a.Producer != nil {
		if err := a.Producer.Close(); err != nil {
			a.Log.Warn("closing kafka producer", logging.Err(err))
		}
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			a.Log.Warn("closing redis client", logging.Err(err))
		}
	}
	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			a.Log.Warn("closing postgres connection", logging.Err(err))
		}
	}
}
