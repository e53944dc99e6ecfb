package config

import (
	"github.com/marmos91/gopherd/pkg/metrics"
	promMetrics "github.com/marmos91/gopherd/pkg/metrics/prometheus"
)

// MetricsResult contains all metrics-related components created from configuration.
type MetricsResult struct {
	// Server exposes the registry over HTTP (nil if disabled)
	Server *metrics.Server

	// GopherMetrics is never nil; a no-op when disabled
	GopherMetrics metrics.GopherMetrics

	// StoreMetrics is nil when disabled so stores are left unwrapped
	StoreMetrics metrics.StoreMetrics
}

// InitializeMetrics creates the metrics components. When metrics are
// disabled no registry is created and every collector is a no-op.
func InitializeMetrics(cfg *Config) *MetricsResult {
	if !cfg.Server.Metrics.Enabled {
		return &MetricsResult{
			GopherMetrics: metrics.NewNoopGopherMetrics(),
		}
	}

	metrics.InitRegistry()

	return &MetricsResult{
		Server: metrics.NewServer(metrics.ServerConfig{
			Port:    cfg.Server.Metrics.Port,
			Address: cfg.Server.Metrics.Address,
		}),
		GopherMetrics: promMetrics.NewGopherMetrics(),
		StoreMetrics:  promMetrics.NewStoreMetrics(),
	}
}
