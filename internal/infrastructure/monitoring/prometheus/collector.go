// Package prometheus exposes the engine's operational metrics: provider
// call outcomes, scoring cycle figures, and the hourly health snapshot.
package prometheus

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "aivis"

// Collector owns a private registry so tests never collide on the global
// default.
type Collector struct {
	registry *prometheus.Registry
	metrics  *Metrics
}

// CollectorConfig toggles the runtime collectors.
type CollectorConfig struct {
	EnableProcessMetrics bool
	EnableGoMetrics      bool
}

// NewCollector builds the registry and registers every engine metric.
func NewCollector(cfg CollectorConfig) *Collector {
	registry := prometheus.NewRegistry()
	if cfg.EnableProcessMetrics {
		registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}
	if cfg.EnableGoMetrics {
		registry.MustRegister(collectors.NewGoCollector())
	}

	return &Collector{
		registry: registry,
		metrics:  newMetrics(registry),
	}
}

// Metrics returns the registered metric set.
func (c *Collector) Metrics() *Metrics { return c.metrics }

// Handler serves the scrape endpoint for this collector's registry.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

// MustRegister adds extra collectors to the private registry.
func (c *Collector) MustRegister(cs ...prometheus.Collector) {
	c.registry.MustRegister(cs...)
}
