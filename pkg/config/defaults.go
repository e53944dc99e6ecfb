package config

import (
	"strings"
	"time"

	gopherAdapter "github.com/marmos91/gopherd/pkg/adapter/gopher"
	"github.com/marmos91/gopherd/pkg/gopher"
)

// DefaultMetricsPort is the metrics HTTP port when none is configured.
const DefaultMetricsPort = 9090

// ApplyDefaults sets default values for any unspecified configuration fields.
//
// Zero values are replaced with defaults and explicit values are preserved.
// Booleans that default to true are seeded in Load instead, since false is
// their zero value. Store-specific defaults are handled by the store
// factories.
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyServerDefaults(&cfg.Server)
	applyGopherDefaults(&cfg.Gopher)

	for i := range cfg.Mounts {
		applyMountDefaults(&cfg.Mounts[i])
	}
	for i := range cfg.Routes {
		cfg.Routes[i].Type = strings.ToLower(cfg.Routes[i].Type)
	}
	if cfg.Helpers == nil {
		cfg.Helpers = make(map[string]string)
	}

	applyGopherAdapterDefaults(&cfg.Adapters.Gopher)
}

// applyLoggingDefaults sets logging defaults and normalizes values.
func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
}

func applyServerDefaults(cfg *ServerConfig) {
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}
	if cfg.Metrics.Port == 0 {
		cfg.Metrics.Port = DefaultMetricsPort
	}
}

func applyGopherDefaults(cfg *GopherConfig) {
	d := gopher.DefaultSettings()
	if cfg.Host == "" {
		cfg.Host = d.Host
	}
	if cfg.Port == 0 {
		cfg.Port = d.Port
	}
	if cfg.BindTo == "" {
		cfg.BindTo = d.BindTo
	}
}

func applyMountDefaults(cfg *MountConfig) {
	cfg.Store = strings.ToLower(cfg.Store)
	if cfg.Root == "" {
		cfg.Root = "."
	}
	if cfg.Filesystem == nil {
		cfg.Filesystem = make(map[string]any)
	}
	if cfg.Badger == nil {
		cfg.Badger = make(map[string]any)
	}
	if cfg.S3 == nil {
		cfg.S3 = make(map[string]any)
	}
}

// applyGopherAdapterDefaults mirrors the adapter's own defaults so they are
// visible in generated configuration files and validation.
func applyGopherAdapterDefaults(cfg *gopherAdapter.GopherConfig) {
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 30 * time.Second
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 30 * time.Second
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}
	if cfg.MetricsLogInterval == 0 {
		cfg.MetricsLogInterval = 5 * time.Minute
	}
}

// GetDefaultConfig returns a configuration serving one filesystem mount and
// a welcome menu.
func GetDefaultConfig() *Config {
	cfg := &Config{
		Gopher: GopherConfig{Redirects: true},
		Mounts: []MountConfig{
			{
				Selector: "/documents",
				Store:    "filesystem",
				Filesystem: map[string]any{
					"path": "/srv/gopher",
				},
			},
		},
		Routes: []RouteConfig{
			{
				Selector:    "/",
				Type:        "map",
				Description: "Welcome to gopherd.",
				Items: []ItemConfig{
					{Type: "helper", Helper: "ruler"},
					{Type: "submenu", Title: "Documents", Selector: "/documents"},
					{Type: "link", Title: "About this server", Selector: "/about"},
				},
			},
			{
				Selector: "/about",
				Type:     "text",
				Lines:    []string{"gopherd serves menus, documents and directories over the Gopher protocol."},
			},
		},
		Helpers: map[string]string{
			"ruler": "=-",
		},
		Adapters: AdaptersConfig{
			Gopher: gopherAdapter.GopherConfig{Enabled: true},
		},
	}

	ApplyDefaults(cfg)
	return cfg
}
