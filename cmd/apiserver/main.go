// Command apiserver exposes the visibility engine over HTTP.  It serves
// the action dispatch endpoint, the liveness and readiness probes, and
// the Prometheus scrape endpoint.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dealershipai/visibility-engine/internal/app"
	"github.com/dealershipai/visibility-engine/internal/config"
	"github.com/dealershipai/visibility-engine/internal/infrastructure/monitoring/logging"
	httpserver "github.com/dealershipai/visibility-engine/internal/interfaces/http"
	"github.com/dealershipai/visibility-engine/internal/interfaces/http/handlers"
	"github.com/dealershipai/visibility-engine/internal/interfaces/http/middleware"
)

const defaultConfigPath = "configs/config.yaml"

// Populated via -ldflags at build time.
var version = "dev"

func main() {
	configPath := flag.String("config", defaultConfigPath, "path to configuration file")
	port := flag.Int("port", 0, "HTTP listen port (overrides config)")
	migrate := flag.Bool("migrate", false, "apply database migrations before serving")
	flag.Parse()

	if err := run(*configPath, *port, *migrate); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run(configPath string, port int, migrate bool) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if port > 0 {
		cfg.Server.Port = port
	}

	log, err := logging.NewLogger(logging.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})
	if err != nil {
		return err
	}

	log.Info("starting api server",
		logging.String("version", version),
		logging.Int("port", cfg.Server.Port),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.Bootstrap(ctx, cfg, log, app.Options{Migrate: migrate})
	if err != nil {
		return err
	}
	defer a.Close()

	scoringHandler := handlers.NewScoringHandler(a.Engine, a.Batch, a.Health, a.Dealers, log)
	healthHandler := handlers.NewHealthHandler(version, readinessCheckers(a)...)

	router := httpserver.NewRouter(httpserver.RouterConfig{
		ScoringHandler: scoringHandler,
		HealthHandler:  healthHandler,

		CORSMiddleware:      middleware.NewCORSMiddleware(nil),
		LoggingMiddleware:   middleware.NewLoggingMiddleware(log),
		RateLimitMiddleware: middleware.NewRateLimitMiddleware(cfg.Provider.RateLimitRPS, cfg.Provider.RateBurst),

		MetricsHandler: a.Collector.Handler(),
	})

	srv := httpserver.NewServer(cfg.Server, router, log)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Stop(shutdownCtx)
}

func loadConfig(path string) (*config.Config, error) {
	if _, err := os.Stat(path); err == nil {
		return config.Load(path)
	}
	return config.LoadFromEnv()
}

// readinessCheckers names the backing services the readiness probe reports
// on.  Optional dependencies that were not configured are skipped.
func readinessCheckers(a *app.App) []handlers.HealthChecker {
	checkers := []handlers.HealthChecker{
		namedChecker{"postgres", a.DB.HealthCheck},
	}
	if a.Redis != nil {
		checkers = append(checkers, namedChecker{"redis", a.Redis.HealthCheck})
	}
	return checkers
}

type namedChecker struct {
	name  string
	check func(ctx context.Context) error
}

func (c namedChecker) Name() string                          { return c.name }
func (c namedChecker) HealthCheck(ctx context.Context) error { return c.check(ctx) }
