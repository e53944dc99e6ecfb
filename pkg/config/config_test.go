package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_MinimalConfig(t *testing.T) {
	path := writeConfig(t, "config.yaml", `
logging:
  level: debug
routes:
  - selector: /about
    type: text
    lines: ["hello"]
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "DEBUG", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.Equal(t, "stdout", cfg.Logging.Output)
	assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, DefaultMetricsPort, cfg.Server.Metrics.Port)
	assert.Equal(t, "localhost", cfg.Gopher.Host)
	assert.Equal(t, 70, cfg.Gopher.Port)
	assert.Equal(t, "0.0.0.0", cfg.Gopher.BindTo)
	assert.True(t, cfg.Gopher.Redirects)
	assert.True(t, cfg.Adapters.Gopher.Enabled)
	assert.Equal(t, 5*time.Minute, cfg.Adapters.Gopher.MetricsLogInterval)
}

func TestLoad_ExplicitFalseSurvives(t *testing.T) {
	path := writeConfig(t, "config.yaml", `
gopher:
  redirects: false
routes:
  - selector: /
    type: map
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.False(t, cfg.Gopher.Redirects)
}

func TestLoad_FullConfig(t *testing.T) {
	path := writeConfig(t, "config.yaml", `
server:
  shutdown_timeout: 10s
  metrics:
    enabled: true
    port: 9191
gopher:
  host: gopher.example.org
  port: 7070
  bindto: 127.0.0.1
mounts:
  - selector: /documents
    store: filesystem
    filesystem:
      path: /srv/gopher
  - selector: /archive
    store: badger
    root: old
    badger:
      path: /var/lib/gopherd
      prefix: archive
routes:
  - selector: /links
    type: map
    description: Some links
    items:
      - { type: link, title: Docs, selector: /documents }
      - { type: url, title: Site, url: "https://example.com" }
      - { type: helper, helper: ruler, args: ["40"] }
helpers:
  ruler: "=-"
adapters:
  gopher:
    max_connections: 100
    read_timeout: 5s
    write_terminator: true
    rate_limit:
      requests_per_second: 50
      burst: 100
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.True(t, cfg.Server.Metrics.Enabled)
	assert.Equal(t, 9191, cfg.Server.Metrics.Port)
	assert.Equal(t, "gopher.example.org", cfg.Gopher.Host)
	assert.Equal(t, 7070, cfg.Gopher.Port)

	require.Len(t, cfg.Mounts, 2)
	assert.Equal(t, ".", cfg.Mounts[0].Root)
	assert.Equal(t, "/srv/gopher", cfg.Mounts[0].Filesystem["path"])
	assert.Equal(t, "old", cfg.Mounts[1].Root)
	assert.Equal(t, "archive", cfg.Mounts[1].Badger["prefix"])

	require.Len(t, cfg.Routes, 1)
	require.Len(t, cfg.Routes[0].Items, 3)
	assert.Equal(t, []string{"40"}, cfg.Routes[0].Items[2].Args)
	assert.Equal(t, "=-", cfg.Helpers["ruler"])

	g := cfg.Adapters.Gopher
	assert.Equal(t, 100, g.MaxConnections)
	assert.Equal(t, 5*time.Second, g.ReadTimeout)
	assert.Equal(t, 30*time.Second, g.WriteTimeout)
	assert.True(t, g.WriteTerminator)
	assert.Equal(t, uint(50), g.RateLimit.RequestsPerSecond)
	assert.Equal(t, uint(100), g.RateLimit.Burst)
}

func TestLoad_TOML(t *testing.T) {
	path := writeConfig(t, "config.toml", `
[logging]
level = "WARN"
format = "json"

[gopher]
port = 7070

[[routes]]
selector = "/"
type = "map"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "WARN", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, 7070, cfg.Gopher.Port)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "invalid.yaml", `
logging:
  level: INFO
  invalid yaml here [[[
`)

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	// Defaults alone serve nothing, so validation must complain.
	_, err := Load(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	assert.ErrorContains(t, err, "nothing to serve")
}

func TestLoad_EnvironmentVariables(t *testing.T) {
	path := writeConfig(t, "config.yaml", `
routes:
  - selector: /
    type: map
`)

	t.Setenv("GOPHERD_LOGGING_LEVEL", "ERROR")
	t.Setenv("GOPHERD_GOPHER_PORT", "7071")
	t.Setenv("GOPHERD_GOPHER_HOST", "env.example.org")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "ERROR", cfg.Logging.Level)
	assert.Equal(t, 7071, cfg.Gopher.Port)
	assert.Equal(t, "env.example.org", cfg.Gopher.Host)
}

func TestConfigDirHonoursXDG(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	assert.Equal(t, filepath.Join(dir, "gopherd"), GetConfigDir())
	assert.Equal(t, filepath.Join(dir, "gopherd", "config.yaml"), GetDefaultConfigPath())
	assert.False(t, ConfigExists())
}
