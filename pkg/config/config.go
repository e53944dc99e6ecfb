package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	gopherAdapter "github.com/marmos91/gopherd/pkg/adapter/gopher"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g.
// GOPHERD_LOGGING_LEVEL=DEBUG or GOPHERD_GOPHER_PORT=7070.
const EnvPrefix = "GOPHERD"

// Config represents the complete gopherd configuration.
//
// Configuration sources (in order of precedence):
//  1. Environment variables (GOPHERD_*)
//  2. Configuration file (YAML or TOML)
//  3. Default values
//
// Store Configuration Pattern:
// Each mount names a store type and carries one option section per type
// (filesystem, badger, s3). Only the section matching the type is decoded,
// by the store's own factory.
type Config struct {
	// Logging controls log output behavior
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`

	// Server contains process-wide settings
	Server ServerConfig `mapstructure:"server" yaml:"server"`

	// Gopher is the addressing advertised in menus and the bind address
	Gopher GopherConfig `mapstructure:"gopher" yaml:"gopher"`

	// Mounts serve store directories under a selector
	Mounts []MountConfig `mapstructure:"mounts" yaml:"mounts" validate:"dive"`

	// Routes are static text documents and menus
	Routes []RouteConfig `mapstructure:"routes" yaml:"routes" validate:"dive"`

	// Helpers are named ruler helpers callable from routes. The value is a
	// pattern repeated to the ruler width.
	Helpers map[string]string `mapstructure:"helpers" yaml:"helpers"`

	// Adapters contains protocol adapter configurations
	Adapters AdaptersConfig `mapstructure:"adapters" yaml:"adapters"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level to output
	// Valid values: DEBUG, INFO, WARN, ERROR (case-insensitive, normalized to uppercase)
	Level string `mapstructure:"level" yaml:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error"`

	// Format specifies the log output format
	// Valid values: text, json
	Format string `mapstructure:"format" yaml:"format" validate:"required,oneof=text json"`

	// Output specifies where logs are written
	// Valid values: stdout, stderr, or a file path
	Output string `mapstructure:"output" yaml:"output" validate:"required"`
}

// ServerConfig contains process-wide settings.
type ServerConfig struct {
	// ShutdownTimeout bounds the Stop() calls issued to adapters on shutdown
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout" validate:"required,gt=0"`

	// Metrics configures the Prometheus endpoint
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`
}

// MetricsConfig configures the metrics HTTP server.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Port    int    `mapstructure:"port" yaml:"port" validate:"omitempty,min=1,max=65535"`
	Address string `mapstructure:"address" yaml:"address,omitempty"`
}

// GopherConfig is the application addressing.
type GopherConfig struct {
	// Host is the hostname advertised in menu lines
	Host string `mapstructure:"host" yaml:"host" validate:"required,hostname_rfc1123|ip"`

	// Port is the port advertised in menu lines and, unless the adapter
	// overrides it, the port listened on
	Port int `mapstructure:"port" yaml:"port" validate:"required,min=1,max=65535"`

	// BindTo is the local interface to listen on
	BindTo string `mapstructure:"bindto" yaml:"bindto" validate:"required,ip|hostname_rfc1123"`

	// Redirects serves "URL:" selectors as an HTML redirect page
	Redirects bool `mapstructure:"redirects" yaml:"redirects"`
}

// MountConfig serves one store directory.
type MountConfig struct {
	// Selector the directory is served under (e.g., "/documents")
	Selector string `mapstructure:"selector" yaml:"selector" validate:"required,selector"`

	// Root is the directory within the store. Default: the store root
	Root string `mapstructure:"root" yaml:"root,omitempty"`

	// Store specifies which store implementation backs the mount
	// Valid values: filesystem, badger, s3
	Store string `mapstructure:"store" yaml:"store" validate:"required,oneof=filesystem badger s3"`

	// Filesystem contains filesystem-specific configuration
	// Only used when Store = "filesystem"
	Filesystem map[string]any `mapstructure:"filesystem" yaml:"filesystem,omitempty"`

	// Badger contains BadgerDB-specific configuration
	// Only used when Store = "badger"
	Badger map[string]any `mapstructure:"badger" yaml:"badger,omitempty"`

	// S3 contains S3-specific configuration
	// Only used when Store = "s3"
	S3 map[string]any `mapstructure:"s3" yaml:"s3,omitempty"`
}

// RouteConfig is a static route.
type RouteConfig struct {
	Selector string `mapstructure:"selector" yaml:"selector" validate:"required,selector"`

	// Type is "text" for a plain document or "map" for a menu
	Type string `mapstructure:"type" yaml:"type" validate:"required,oneof=text map"`

	// Description is wrapped into a paragraph at the top
	Description string `mapstructure:"description" yaml:"description,omitempty"`

	// Lines are written verbatim, one per line (text routes)
	Lines []string `mapstructure:"lines" yaml:"lines,omitempty"`

	// Items are the menu entries (map routes) or document parts (text routes)
	Items []ItemConfig `mapstructure:"items" yaml:"items,omitempty" validate:"dive"`
}

// ItemConfig is one entry of a route.
type ItemConfig struct {
	// Type: link, submenu, url, text, paragraph or helper
	Type string `mapstructure:"type" yaml:"type" validate:"required,oneof=link submenu url text paragraph helper"`

	Title    string `mapstructure:"title" yaml:"title,omitempty"`
	Selector string `mapstructure:"selector" yaml:"selector,omitempty" validate:"required_if=Type link,required_if=Type submenu"`
	URL      string `mapstructure:"url" yaml:"url,omitempty" validate:"required_if=Type url,omitempty,url"`

	// Helper and Args call a named helper (Type = "helper")
	Helper string   `mapstructure:"helper" yaml:"helper,omitempty" validate:"required_if=Type helper"`
	Args   []string `mapstructure:"args" yaml:"args,omitempty"`
}

// AdaptersConfig contains all protocol adapter configurations.
type AdaptersConfig struct {
	// Gopher uses the adapter's own config type to avoid duplication.
	Gopher gopherAdapter.GopherConfig `mapstructure:"gopher" yaml:"gopher"`
}

// Load loads configuration from file, environment, and defaults.
//
// Parameters:
//   - configPath: Path to config file (empty string uses default location)
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: Configuration loading or validation error
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setupViper(v, configPath)

	if err := readConfigFile(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

func setupViper(v *viper.Viper, configPath string) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Booleans that default to true must be seeded here: after Unmarshal an
	// explicit false is indistinguishable from an absent key.
	v.SetDefault("gopher.redirects", true)
	v.SetDefault("adapters.gopher.enabled", true)

	// Scalar keys only reach AutomaticEnv when viper knows about them.
	for _, key := range []string{
		"logging.level", "logging.format", "logging.output",
		"server.shutdown_timeout", "server.metrics.enabled", "server.metrics.port",
		"gopher.host", "gopher.port", "gopher.bindto",
		"adapters.gopher.listen_address", "adapters.gopher.max_connections",
	} {
		_ = v.BindEnv(key)
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// $XDG_CONFIG_HOME/gopherd/config.{yaml,toml}
		v.AddConfigPath(getConfigDir())
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
}

func readConfigFile(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}
	return nil
}

// getConfigDir uses XDG_CONFIG_HOME if set, otherwise ~/.config, or the
// current directory when no home can be determined.
func getConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "gopherd")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "gopherd")
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}

// ConfigExists checks if a config file exists at the default location.
func ConfigExists() bool {
	_, err := os.Stat(GetDefaultConfigPath())
	return err == nil
}

// GetConfigDir returns the configuration directory path.
func GetConfigDir() string {
	return getConfigDir()
}
