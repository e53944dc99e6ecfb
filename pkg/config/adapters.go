package config

import (
	"fmt"

	"github.com/marmos91/gopherd/pkg/adapter"
	gopherAdapter "github.com/marmos91/gopherd/pkg/adapter/gopher"
	"github.com/marmos91/gopherd/pkg/metrics"
)

// CreateAdapters creates all enabled protocol adapters from the
// configuration.
//
// Parameters:
//   - cfg: The complete gopherd configuration
//   - gopherMetrics: Optional Gopher metrics collector (nil = no metrics)
func CreateAdapters(cfg *Config, gopherMetrics metrics.GopherMetrics) ([]adapter.Adapter, error) {
	var adapters []adapter.Adapter

	if cfg.Adapters.Gopher.Enabled {
		adapters = append(adapters, gopherAdapter.New(cfg.Adapters.Gopher, gopherMetrics))
	}

	if len(adapters) == 0 {
		return nil, fmt.Errorf("no adapters enabled in configuration")
	}
	return adapters, nil
}
