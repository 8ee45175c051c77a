// Package config defines all configuration structures for the visibility
// engine.  No I/O or parsing logic lives here, only plain data types and
// validation.
package config

import (
	"fmt"
	"math"
	"time"

	apperrors "github.com/dealershipai/visibility-engine/pkg/errors"
)

// weightTolerance is the permitted absolute deviation of any weight group sum
// from 1.0.  Weight groups that drift beyond it produce fatal config errors.
const weightTolerance = 1e-9

// ─────────────────────────────────────────────────────────────────────────────
// Sub-configuration structs
// ─────────────────────────────────────────────────────────────────────────────

// ServerConfig holds HTTP server tunables.
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"` // "debug" | "release" | "test"
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	MaxBodySize     int64         `mapstructure:"max_body_size"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig holds PostgreSQL connection parameters.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"db_name"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxConns        int           `mapstructure:"max_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	MigrationPath   string        `mapstructure:"migration_path"`
}

// RedisConfig holds Redis connection parameters for the score cache.
type RedisConfig struct {
	Addr         string        `mapstructure:"addr"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	DefaultTTL   time.Duration `mapstructure:"default_ttl"`
	KeyPrefix    string        `mapstructure:"key_prefix"`
}

// KafkaConfig holds Kafka producer parameters for the alert and review-queue
// topics.
type KafkaConfig struct {
	Brokers         []string      `mapstructure:"brokers"`
	AlertTopic      string        `mapstructure:"alert_topic"`
	ReviewTopic     string        `mapstructure:"review_topic"`
	ProducerRetries int           `mapstructure:"producer_retries"`
	BatchTimeout    time.Duration `mapstructure:"batch_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
}

// MinIOConfig holds object-storage parameters for credibility model
// artifacts.
type MinIOConfig struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Bucket    string `mapstructure:"bucket"`
	UseSSL    bool   `mapstructure:"use_ssl"`
}

// WorkerConfig holds batch-worker execution parameters.
type WorkerConfig struct {
	Concurrency     int           `mapstructure:"concurrency"`
	BatchSchedule   string        `mapstructure:"batch_schedule"`   // cron expression
	HealthSchedule  string        `mapstructure:"health_schedule"`  // cron expression
	TrainerSchedule string        `mapstructure:"trainer_schedule"` // cron expression
	DealerTimeout   time.Duration `mapstructure:"dealer_timeout"`
}

// LogConfig holds structured-logging parameters.
type LogConfig struct {
	Level  string `mapstructure:"level"`  // "debug" | "info" | "warn" | "error"
	Format string `mapstructure:"format"` // "json" | "console"
	Output string `mapstructure:"output"`
}

// ProviderConfig holds external data-source client parameters shared by the
// search, AI-platform, and generative-surface providers.
type ProviderConfig struct {
	Timeout      time.Duration `mapstructure:"timeout"`
	RateLimitRPS float64       `mapstructure:"rate_limit_rps"`
	RateBurst    int           `mapstructure:"rate_burst"`
	CacheTTL     time.Duration `mapstructure:"cache_ttl"`
	MaxRetries   int           `mapstructure:"max_retries"`
}

// SEOWeights are the component weights of the search-visibility pillar.
type SEOWeights struct {
	OrganicRankings   float64 `mapstructure:"organic_rankings"`
	BrandedSearch     float64 `mapstructure:"branded_search"`
	BacklinkQuality   float64 `mapstructure:"backlink_quality"`
	ContentIndexing   float64 `mapstructure:"content_indexing"`
	LocalPackPresence float64 `mapstructure:"local_pack_presence"`
}

// Sum returns the total of all SEO component weights.
func (w SEOWeights) Sum() float64 {
	return w.OrganicRankings + w.BrandedSearch + w.BacklinkQuality + w.ContentIndexing + w.LocalPackPresence
}

// AEOWeights are the component weights of the answer-engine pillar.
type AEOWeights struct {
	CitationFrequency  float64 `mapstructure:"citation_frequency"`
	SourceAuthority    float64 `mapstructure:"source_authority"`
	AnswerCompleteness float64 `mapstructure:"answer_completeness"`
	MultiPlatform      float64 `mapstructure:"multi_platform"`
	SentimentQuality   float64 `mapstructure:"sentiment_quality"`
}

// Sum returns the total of all AEO component weights.
func (w AEOWeights) Sum() float64 {
	return w.CitationFrequency + w.SourceAuthority + w.AnswerCompleteness + w.MultiPlatform + w.SentimentQuality
}

// GEOWeights are the component weights of the generative-surface pillar.
type GEOWeights struct {
	AIOverviewPresence float64 `mapstructure:"ai_overview_presence"`
	FeaturedSnippets   float64 `mapstructure:"featured_snippets"`
	KnowledgePanel     float64 `mapstructure:"knowledge_panel"`
	ZeroClickDominance float64 `mapstructure:"zero_click_dominance"`
	EntityRecognition  float64 `mapstructure:"entity_recognition"`
}

// Sum returns the total of all GEO component weights.
func (w GEOWeights) Sum() float64 {
	return w.AIOverviewPresence + w.FeaturedSnippets + w.KnowledgePanel + w.ZeroClickDominance + w.EntityRecognition
}

// PillarWeights are the top-level weights that blend the three pillar scores
// into the overall AI-visibility score.  The same weights blend pillar
// confidence values.
type PillarWeights struct {
	SEO float64 `mapstructure:"seo"`
	AEO float64 `mapstructure:"aeo"`
	GEO float64 `mapstructure:"geo"`
}

// Sum returns the total of the pillar weights.
func (w PillarWeights) Sum() float64 { return w.SEO + w.AEO + w.GEO }

// ScoringConfig holds all pillar and component weights plus the calibrated
// accuracy priors each pillar reports as its baseline confidence.
type ScoringConfig struct {
	Pillars PillarWeights `mapstructure:"pillars"`
	SEO     SEOWeights    `mapstructure:"seo"`
	AEO     AEOWeights    `mapstructure:"aeo"`
	GEO     GEOWeights    `mapstructure:"geo"`

	SEOAccuracyPrior float64 `mapstructure:"seo_accuracy_prior"`
	AEOAccuracyPrior float64 `mapstructure:"aeo_accuracy_prior"`
	GEOAccuracyPrior float64 `mapstructure:"geo_accuracy_prior"`
}

// ValidationConfig holds the accuracy-validation thresholds.
type ValidationConfig struct {
	WindowDays         int     `mapstructure:"window_days"`         // trailing history window
	VarianceThreshold  float64 `mapstructure:"variance_threshold"`  // points from trailing mean
	AuditProbability   float64 `mapstructure:"audit_probability"`   // manual-audit sampling rate
	SpotCheckQueries   int     `mapstructure:"spot_check_queries"`  // AEO re-run sample size
	AgreementThreshold float64 `mapstructure:"agreement_threshold"` // AEO spot-check floor
}

// CredibilityConfig holds the credibility-model training parameters.
type CredibilityConfig struct {
	TrainSplit  float64 `mapstructure:"train_split"`  // fraction of samples used for training
	R2Gate      float64 `mapstructure:"r2_gate"`      // minimum test R² required to deploy
	RidgeLambda float64 `mapstructure:"ridge_lambda"` // regularisation for the OLS solve
	MinSamples  int     `mapstructure:"min_samples"`  // minimum dataset size to attempt training
}

// HealthConfig holds the target values the hourly health snapshot is compared
// against.  A metric falling below (or rising above, for cost and latency)
// its target raises an alert.
type HealthConfig struct {
	SEOAccuracyTarget    float64 `mapstructure:"seo_accuracy_target"`
	AEOAccuracyTarget    float64 `mapstructure:"aeo_accuracy_target"`
	GEOAccuracyTarget    float64 `mapstructure:"geo_accuracy_target"`
	R2Target             float64 `mapstructure:"r2_target"`
	UptimeTarget         float64 `mapstructure:"uptime_target"`
	SuccessRateTarget    float64 `mapstructure:"success_rate_target"`
	CacheHitRateTarget   float64 `mapstructure:"cache_hit_rate_target"`
	LatencyTargetSeconds float64 `mapstructure:"latency_target_seconds"`
	CostPerDealerCeiling float64 `mapstructure:"cost_per_dealer_ceiling"`
	GrossMarginTarget    float64 `mapstructure:"gross_margin_target"`
	SatisfactionTarget   float64 `mapstructure:"satisfaction_target"` // out of 5
	ChurnCeiling         float64 `mapstructure:"churn_ceiling"`
	SpotCheckTarget      float64 `mapstructure:"spot_check_target"`
	DisputeCeiling       float64 `mapstructure:"dispute_ceiling"`
}

// TierConfig describes one subscription tier in the economics model.
type TierConfig struct {
	Name     string  `mapstructure:"name"`
	PriceUSD float64 `mapstructure:"price_usd"`
	Dealers  int     `mapstructure:"dealers"`
}

// EconomicsConfig holds the static cost model and the revenue tiers used to
// derive per-dealer cost and gross margin.
type EconomicsConfig struct {
	AIQueryCostUSD    float64      `mapstructure:"ai_query_cost_usd"`    // per AI platform query
	SEOAPIMonthlyUSD  float64      `mapstructure:"seo_api_monthly_usd"`  // pooled SEO data subscriptions
	ComputeMonthlyUSD float64      `mapstructure:"compute_monthly_usd"`  // scoring infrastructure
	MaxCostPerDealer  float64      `mapstructure:"max_cost_per_dealer"`  // hard ceiling per dealer per month
	Tiers             []TierConfig `mapstructure:"tiers"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Root Config
// ─────────────────────────────────────────────────────────────────────────────

// Config is the root configuration structure for the engine.  Every
// infrastructure component and application service reads its settings from
// the relevant sub-struct.
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Redis       RedisConfig       `mapstructure:"redis"`
	Kafka       KafkaConfig       `mapstructure:"kafka"`
	MinIO       MinIOConfig       `mapstructure:"minio"`
	Worker      WorkerConfig      `mapstructure:"worker"`
	Log         LogConfig         `mapstructure:"log"`
	Provider    ProviderConfig    `mapstructure:"provider"`
	Scoring     ScoringConfig     `mapstructure:"scoring"`
	Validation  ValidationConfig  `mapstructure:"validation"`
	Credibility CredibilityConfig `mapstructure:"credibility"`
	Health      HealthConfig      `mapstructure:"health"`
	Economics   EconomicsConfig   `mapstructure:"economics"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Validation
// ─────────────────────────────────────────────────────────────────────────────

// Validate performs semantic validation of the fully-populated Config.
// It returns the first error encountered; callers should treat any error as
// fatal and refuse to start the application.
func (c *Config) Validate() error {
	// Server
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port %d is out of range [1, 65535]", c.Server.Port)
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("config: server.mode %q is invalid; expected debug|release|test", c.Server.Mode)
	}

	// Database
	if c.Database.Host == "" {
		return fmt.Errorf("config: database.host is required")
	}
	if c.Database.Port < 1 || c.Database.Port > 65535 {
		return fmt.Errorf("config: database.port %d is out of range [1, 65535]", c.Database.Port)
	}
	if c.Database.User == "" {
		return fmt.Errorf("config: database.user is required")
	}
	if c.Database.DBName == "" {
		return fmt.Errorf("config: database.db_name is required")
	}
	if c.Database.MaxConns < 1 {
		return fmt.Errorf("config: database.max_conns must be >= 1, got %d", c.Database.MaxConns)
	}

	// Redis is optional; an empty addr disables payload caching.
	if c.Redis.DB < 0 {
		return fmt.Errorf("config: redis.db must be >= 0, got %d", c.Redis.DB)
	}

	// Kafka is optional; no brokers means alerts and review routing are
	// log-only.  Once brokers are set, the topics must be too.
	if len(c.Kafka.Brokers) > 0 && (c.Kafka.AlertTopic == "" || c.Kafka.ReviewTopic == "") {
		return fmt.Errorf("config: kafka.alert_topic and kafka.review_topic are required when brokers are set")
	}

	// Worker
	if c.Worker.Concurrency < 1 {
		return fmt.Errorf("config: worker.concurrency must be >= 1, got %d", c.Worker.Concurrency)
	}

	// Log
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: log.level %q is invalid; expected debug|info|warn|error", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("config: log.format %q is invalid; expected json|console", c.Log.Format)
	}

	if err := c.Scoring.validate(); err != nil {
		return err
	}
	if err := c.Validation.validate(); err != nil {
		return err
	}
	if err := c.Credibility.validate(); err != nil {
		return err
	}
	if err := c.Economics.validate(); err != nil {
		return err
	}

	return nil
}

func (s *ScoringConfig) validate() error {
	groups := []struct {
		name string
		sum  float64
	}{
		{"scoring.pillars", s.Pillars.Sum()},
		{"scoring.seo", s.SEO.Sum()},
		{"scoring.aeo", s.AEO.Sum()},
		{"scoring.geo", s.GEO.Sum()},
	}
	for _, g := range groups {
		if math.Abs(g.sum-1.0) > weightTolerance {
			return apperrors.New(apperrors.ErrCodeWeightSumInvalid,
				fmt.Sprintf("%s weights sum to %.12f, expected 1.0", g.name, g.sum))
		}
	}

	for _, p := range []struct {
		name  string
		prior float64
	}{
		{"seo_accuracy_prior", s.SEOAccuracyPrior},
		{"aeo_accuracy_prior", s.AEOAccuracyPrior},
		{"geo_accuracy_prior", s.GEOAccuracyPrior},
	} {
		if p.prior <= 0 || p.prior > 1 {
			return apperrors.New(apperrors.ErrCodeConfigInvalid,
				fmt.Sprintf("scoring.%s %.4f is out of range (0, 1]", p.name, p.prior))
		}
	}
	return nil
}

func (v *ValidationConfig) validate() error {
	if v.WindowDays < 1 {
		return apperrors.New(apperrors.ErrCodeConfigInvalid,
			fmt.Sprintf("validation.window_days must be >= 1, got %d", v.WindowDays))
	}
	if v.VarianceThreshold <= 0 {
		return apperrors.New(apperrors.ErrCodeConfigInvalid,
			fmt.Sprintf("validation.variance_threshold must be > 0, got %.4f", v.VarianceThreshold))
	}
	if v.AuditProbability < 0 || v.AuditProbability > 1 {
		return apperrors.New(apperrors.ErrCodeConfigInvalid,
			fmt.Sprintf("validation.audit_probability %.4f is out of range [0, 1]", v.AuditProbability))
	}
	if v.SpotCheckQueries < 1 {
		return apperrors.New(apperrors.ErrCodeConfigInvalid,
			fmt.Sprintf("validation.spot_check_queries must be >= 1, got %d", v.SpotCheckQueries))
	}
	if v.AgreementThreshold <= 0 || v.AgreementThreshold > 1 {
		return apperrors.New(apperrors.ErrCodeConfigInvalid,
			fmt.Sprintf("validation.agreement_threshold %.4f is out of range (0, 1]", v.AgreementThreshold))
	}
	return nil
}

func (m *CredibilityConfig) validate() error {
	if m.TrainSplit <= 0 || m.TrainSplit >= 1 {
		return apperrors.New(apperrors.ErrCodeConfigInvalid,
			fmt.Sprintf("credibility.train_split %.4f is out of range (0, 1)", m.TrainSplit))
	}
	if m.R2Gate <= 0 || m.R2Gate > 1 {
		return apperrors.New(apperrors.ErrCodeConfigInvalid,
			fmt.Sprintf("credibility.r2_gate %.4f is out of range (0, 1]", m.R2Gate))
	}
	if m.MinSamples < 10 {
		return apperrors.New(apperrors.ErrCodeConfigInvalid,
			fmt.Sprintf("credibility.min_samples must be >= 10, got %d", m.MinSamples))
	}
	return nil
}

func (e *EconomicsConfig) validate() error {
	if e.AIQueryCostUSD < 0 || e.SEOAPIMonthlyUSD < 0 || e.ComputeMonthlyUSD < 0 {
		return apperrors.New(apperrors.ErrCodeCostTableInvalid, "economics cost entries must be non-negative")
	}
	if e.MaxCostPerDealer <= 0 {
		return apperrors.New(apperrors.ErrCodeCostTableInvalid,
			fmt.Sprintf("economics.max_cost_per_dealer must be > 0, got %.2f", e.MaxCostPerDealer))
	}
	if len(e.Tiers) == 0 {
		return apperrors.New(apperrors.ErrCodeRevenueTierInvalid, "economics.tiers must contain at least one tier")
	}
	for _, t := range e.Tiers {
		if t.Name == "" {
			return apperrors.New(apperrors.ErrCodeRevenueTierInvalid, "economics tier name is required")
		}
		if t.PriceUSD <= 0 {
			return apperrors.New(apperrors.ErrCodeRevenueTierInvalid,
				fmt.Sprintf("economics tier %q price must be > 0, got %.2f", t.Name, t.PriceUSD))
		}
		if t.Dealers < 0 {
			return apperrors.New(apperrors.ErrCodeRevenueTierInvalid,
				fmt.Sprintf("economics tier %q dealer count must be >= 0, got %d", t.Name, t.Dealers))
		}
	}
	return nil
}
