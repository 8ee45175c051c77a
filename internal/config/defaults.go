// Package config provides configuration loading, defaults, and validation for
// the visibility engine.
package config

import "time"

// ─────────────────────────────────────────────────────────────────────────────
// Default value constants
// ─────────────────────────────────────────────────────────────────────────────

const (
	DefaultServerPort = 8080
	DefaultServerMode = "release"

	DefaultDBHost     = "localhost"
	DefaultDBPort     = 5432
	DefaultDBName     = "aivis"
	DefaultDBMaxConns = 25

	DefaultRedisAddr      = "localhost:6379"
	DefaultRedisKeyPrefix = "aivis:"
	DefaultRedisTTL       = 24 * time.Hour

	DefaultKafkaBroker = "localhost:9092"
	DefaultAlertTopic  = "visibility.alerts"
	DefaultReviewTopic = "visibility.review.queue"

	DefaultMinIOEndpoint = "localhost:9000"
	DefaultMinIOBucket   = "aivis-models"

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	DefaultWorkerConcurrency = 10
	DefaultDealerTimeout     = 30 * time.Second

	// Daily batch at 02:00, health snapshot every hour, trainer on the first
	// of each month.
	DefaultBatchSchedule   = "0 2 * * *"
	DefaultHealthSchedule  = "0 * * * *"
	DefaultTrainerSchedule = "0 0 1 * *"

	DefaultProviderTimeout = 10 * time.Second
	DefaultProviderRPS     = 5.0
	DefaultProviderBurst   = 10
	DefaultProviderRetries = 2
	DefaultProviderCache   = 6 * time.Hour
)

// ApplyDefaults fills every zero-value field in cfg with the engine default.
// Fields that have already been set by the caller (non-zero values) are left
// unchanged so that explicit configuration always wins.  It must be called
// after unmarshalling and before Validate().
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	// ── Server ────────────────────────────────────────────────────────────────
	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultServerPort
	}
	if cfg.Server.Mode == "" {
		cfg.Server.Mode = DefaultServerMode
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 15 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 30 * time.Second
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10 * time.Second
	}

	// ── Database ──────────────────────────────────────────────────────────────
	if cfg.Database.Host == "" {
		cfg.Database.Host = DefaultDBHost
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = DefaultDBPort
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "aivis"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = DefaultDBName
	}
	if cfg.Database.MaxConns == 0 {
		cfg.Database.MaxConns = DefaultDBMaxConns
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = time.Hour
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MigrationPath == "" {
		cfg.Database.MigrationPath = "migrations"
	}

	// ── Redis ─────────────────────────────────────────────────────────────────
	// Addr is not defaulted: an empty addr means caching is off and the
	// engine runs without it.
	if cfg.Redis.PoolSize == 0 {
		cfg.Redis.PoolSize = 10
	}
	if cfg.Redis.DialTimeout == 0 {
		cfg.Redis.DialTimeout = 5 * time.Second
	}
	if cfg.Redis.ReadTimeout == 0 {
		cfg.Redis.ReadTimeout = 3 * time.Second
	}
	if cfg.Redis.WriteTimeout == 0 {
		cfg.Redis.WriteTimeout = 3 * time.Second
	}
	if cfg.Redis.DefaultTTL == 0 {
		cfg.Redis.DefaultTTL = DefaultRedisTTL
	}
	if cfg.Redis.KeyPrefix == "" {
		cfg.Redis.KeyPrefix = DefaultRedisKeyPrefix
	}

	// ── Kafka ─────────────────────────────────────────────────────────────────
	// Brokers are not defaulted: no brokers means alert and review routing
	// stay log-only.
	if cfg.Kafka.AlertTopic == "" {
		cfg.Kafka.AlertTopic = DefaultAlertTopic
	}
	if cfg.Kafka.ReviewTopic == "" {
		cfg.Kafka.ReviewTopic = DefaultReviewTopic
	}
	if cfg.Kafka.ProducerRetries == 0 {
		cfg.Kafka.ProducerRetries = 3
	}
	if cfg.Kafka.BatchTimeout == 0 {
		cfg.Kafka.BatchTimeout = 100 * time.Millisecond
	}
	if cfg.Kafka.WriteTimeout == 0 {
		cfg.Kafka.WriteTimeout = 10 * time.Second
	}

	// ── MinIO ─────────────────────────────────────────────────────────────────
	if cfg.MinIO.Endpoint == "" {
		cfg.MinIO.Endpoint = DefaultMinIOEndpoint
	}
	if cfg.MinIO.Bucket == "" {
		cfg.MinIO.Bucket = DefaultMinIOBucket
	}

	// ── Worker ────────────────────────────────────────────────────────────────
	if cfg.Worker.Concurrency == 0 {
		cfg.Worker.Concurrency = DefaultWorkerConcurrency
	}
	if cfg.Worker.BatchSchedule == "" {
		cfg.Worker.BatchSchedule = DefaultBatchSchedule
	}
	if cfg.Worker.HealthSchedule == "" {
		cfg.Worker.HealthSchedule = DefaultHealthSchedule
	}
	if cfg.Worker.TrainerSchedule == "" {
		cfg.Worker.TrainerSchedule = DefaultTrainerSchedule
	}
	if cfg.Worker.DealerTimeout == 0 {
		cfg.Worker.DealerTimeout = DefaultDealerTimeout
	}

	// ── Log ───────────────────────────────────────────────────────────────────
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}

	// ── Provider ──────────────────────────────────────────────────────────────
	if cfg.Provider.Timeout == 0 {
		cfg.Provider.Timeout = DefaultProviderTimeout
	}
	if cfg.Provider.RateLimitRPS == 0 {
		cfg.Provider.RateLimitRPS = DefaultProviderRPS
	}
	if cfg.Provider.RateBurst == 0 {
		cfg.Provider.RateBurst = DefaultProviderBurst
	}
	if cfg.Provider.CacheTTL == 0 {
		cfg.Provider.CacheTTL = DefaultProviderCache
	}
	if cfg.Provider.MaxRetries == 0 {
		cfg.Provider.MaxRetries = DefaultProviderRetries
	}

	applyScoringDefaults(&cfg.Scoring)
	applyValidationDefaults(&cfg.Validation)
	applyCredibilityDefaults(&cfg.Credibility)
	applyHealthDefaults(&cfg.Health)
	applyEconomicsDefaults(&cfg.Economics)
}

// applyScoringDefaults installs the calibrated pillar and component weights.
// Weight groups default as a unit: a group is only defaulted when every entry
// in it is zero, so a partially-specified group fails validation instead of
// being silently completed.
func applyScoringDefaults(s *ScoringConfig) {
	if s.Pillars.Sum() == 0 {
		s.Pillars = PillarWeights{SEO: 0.30, AEO: 0.35, GEO: 0.35}
	}
	if s.SEO.Sum() == 0 {
		s.SEO = SEOWeights{
			OrganicRankings:   0.25,
			BrandedSearch:     0.20,
			BacklinkQuality:   0.20,
			ContentIndexing:   0.15,
			LocalPackPresence: 0.20,
		}
	}
	if s.AEO.Sum() == 0 {
		s.AEO = AEOWeights{
			CitationFrequency:  0.35,
			SourceAuthority:    0.25,
			AnswerCompleteness: 0.20,
			MultiPlatform:      0.15,
			SentimentQuality:   0.05,
		}
	}
	if s.GEO.Sum() == 0 {
		s.GEO = GEOWeights{
			AIOverviewPresence: 0.30,
			FeaturedSnippets:   0.25,
			KnowledgePanel:     0.20,
			ZeroClickDominance: 0.15,
			EntityRecognition:  0.10,
		}
	}
	if s.SEOAccuracyPrior == 0 {
		s.SEOAccuracyPrior = 0.92
	}
	if s.AEOAccuracyPrior == 0 {
		s.AEOAccuracyPrior = 0.87
	}
	if s.GEOAccuracyPrior == 0 {
		s.GEOAccuracyPrior = 0.89
	}
}

func applyValidationDefaults(v *ValidationConfig) {
	if v.WindowDays == 0 {
		v.WindowDays = 30
	}
	if v.VarianceThreshold == 0 {
		v.VarianceThreshold = 15
	}
	if v.AuditProbability == 0 {
		v.AuditProbability = 0.10
	}
	if v.SpotCheckQueries == 0 {
		v.SpotCheckQueries = 5
	}
	if v.AgreementThreshold == 0 {
		v.AgreementThreshold = 0.80
	}
}

func applyCredibilityDefaults(m *CredibilityConfig) {
	if m.TrainSplit == 0 {
		m.TrainSplit = 0.80
	}
	if m.R2Gate == 0 {
		m.R2Gate = 0.80
	}
	if m.RidgeLambda == 0 {
		m.RidgeLambda = 1e-6
	}
	if m.MinSamples == 0 {
		m.MinSamples = 50
	}
}

func applyHealthDefaults(h *HealthConfig) {
	if h.SEOAccuracyTarget == 0 {
		h.SEOAccuracyTarget = 0.92
	}
	if h.AEOAccuracyTarget == 0 {
		h.AEOAccuracyTarget = 0.87
	}
	if h.GEOAccuracyTarget == 0 {
		h.GEOAccuracyTarget = 0.89
	}
	if h.R2Target == 0 {
		h.R2Target = 0.80
	}
	if h.UptimeTarget == 0 {
		h.UptimeTarget = 0.995
	}
	if h.SuccessRateTarget == 0 {
		h.SuccessRateTarget = 0.98
	}
	if h.CacheHitRateTarget == 0 {
		h.CacheHitRateTarget = 0.70
	}
	if h.LatencyTargetSeconds == 0 {
		h.LatencyTargetSeconds = 2.0
	}
	if h.CostPerDealerCeiling == 0 {
		h.CostPerDealerCeiling = 7.0
	}
	if h.GrossMarginTarget == 0 {
		h.GrossMarginTarget = 0.95
	}
	if h.SatisfactionTarget == 0 {
		h.SatisfactionTarget = 4.5
	}
	if h.ChurnCeiling == 0 {
		h.ChurnCeiling = 0.05
	}
	if h.SpotCheckTarget == 0 {
		h.SpotCheckTarget = 0.90
	}
	if h.DisputeCeiling == 0 {
		h.DisputeCeiling = 0.02
	}
}

func applyEconomicsDefaults(e *EconomicsConfig) {
	if e.AIQueryCostUSD == 0 {
		e.AIQueryCostUSD = 0.001
	}
	if e.SEOAPIMonthlyUSD == 0 {
		// Pooled BrightLocal, Moz, and SEMrush subscriptions.
		e.SEOAPIMonthlyUSD = 268
	}
	if e.ComputeMonthlyUSD == 0 {
		e.ComputeMonthlyUSD = 500
	}
	if e.MaxCostPerDealer == 0 {
		e.MaxCostPerDealer = 5
	}
	if len(e.Tiers) == 0 {
		e.Tiers = []TierConfig{
			{Name: "tier-1", PriceUSD: 149, Dealers: 600},
			{Name: "tier-2", PriceUSD: 299, Dealers: 250},
			{Name: "tier-3", PriceUSD: 599, Dealers: 100},
		}
	}
}
