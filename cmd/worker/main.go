// Command worker runs the scheduled side of the visibility engine: the
// nightly fleet batch, the hourly health snapshot, and the monthly model
// retrain.  A side HTTP listener serves the probes and the metrics scrape.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dealershipai/visibility-engine/internal/app"
	"github.com/dealershipai/visibility-engine/internal/config"
	"github.com/dealershipai/visibility-engine/internal/infrastructure/monitoring/logging"
	"github.com/dealershipai/visibility-engine/internal/infrastructure/scheduler"
	httpserver "github.com/dealershipai/visibility-engine/internal/interfaces/http"
	"github.com/dealershipai/visibility-engine/internal/interfaces/http/handlers"
)

const (
	defaultConfigPath = "configs/config.yaml"
	defaultProbePort  = 8081
	shutdownTimeout   = 30 * time.Second
)

// Populated via -ldflags at build time.
var version = "dev"

func main() {
	configPath := flag.String("config", defaultConfigPath, "path to configuration file")
	probePort := flag.Int("probe-port", defaultProbePort, "listen port for probes and metrics")
	migrate := flag.Bool("migrate", false, "apply database migrations before scheduling")
	runNow := flag.Bool("run-now", false, "run one batch cycle immediately, then keep the schedule")
	flag.Parse()

	if err := run(*configPath, *probePort, *migrate, *runNow); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run(configPath string, probePort int, migrate, runNow bool) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	log, err := logging.NewLogger(logging.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})
	if err != nil {
		return err
	}
	log = log.Named("worker")

	log.Info("starting worker",
		logging.String("version", version),
		logging.String("batch_schedule", cfg.Worker.BatchSchedule),
		logging.String("health_schedule", cfg.Worker.HealthSchedule),
		logging.String("trainer_schedule", cfg.Worker.TrainerSchedule),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.Bootstrap(ctx, cfg, log, app.Options{Migrate: migrate})
	if err != nil {
		return err
	}
	defer a.Close()

	j := newJobs(a, log)

	sched := scheduler.New(log)
	if err := sched.RegisterWorkerJobs(cfg.Worker, j.batch, j.health, j.train); err != nil {
		return err
	}
	sched.Start()

	probe := probeServer(a, probePort, log)
	go func() {
		if err := probe.Start(); err != nil {
			log.Error("probe server stopped", logging.Err(err))
		}
	}()

	if runNow {
		if err := j.batch(ctx); err != nil {
			log.Error("immediate batch run failed", logging.Err(err))
		}
	}

	<-ctx.Done()
	log.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := sched.Stop(shutdownCtx); err != nil {
		log.Warn("scheduler did not drain in time", logging.Err(err))
	}
	return probe.Stop(shutdownCtx)
}

func loadConfig(path string) (*config.Config, error) {
	if _, err := os.Stat(path); err == nil {
		return config.Load(path)
	}
	return config.LoadFromEnv()
}

// probeServer exposes the liveness and readiness probes plus the metrics
// scrape on the side port; the worker serves no API.
func probeServer(a *app.App, port int, log logging.Logger) *httpserver.Server {
	checkers := []handlers.HealthChecker{
		namedChecker{"postgres", a.DB.HealthCheck},
	}
	if a.Redis != nil {
		checkers = append(checkers, namedChecker{"redis", a.Redis.HealthCheck})
	}

	router := httpserver.NewRouter(httpserver.RouterConfig{
		HealthHandler:  handlers.NewHealthHandler(version, checkers...),
		MetricsHandler: a.Collector.Handler(),
	})

	srvCfg := a.Config.Server
	srvCfg.Port = port
	return httpserver.NewServer(srvCfg, router, log.Named("probe"))
}

type namedChecker struct {
	name  string
	check func(ctx context.Context) error
}

func (c namedChecker) Name() string                          { return c.name }
func (c namedChecker) HealthCheck(ctx context.Context) error { return c.check(ctx) }
