package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// sectionComments are written above the top-level keys of generated files.
var sectionComments = map[string]string{
	"logging":  "Logging: level DEBUG|INFO|WARN|ERROR, format text|json, output stdout|stderr|<file>",
	"server":   "Process settings and the optional Prometheus endpoint",
	"gopher":   "Addressing advertised in menus (host, port) and the local bind address",
	"mounts":   "Store directories served under a selector.\nstore: filesystem (path), badger (path, prefix, in_memory, read_only) or s3 (bucket, region, ...)",
	"routes":   "Static routes. type: text (lines, items) or map (items: link, submenu, url, text, paragraph, helper)",
	"helpers":  "Ruler helpers: name -> pattern repeated to 80 columns",
	"adapters": "Protocol listeners. listen_address overrides gopher.bindto:gopher.port",
}

// InitConfig writes the default configuration to the default location and
// returns its path. An existing file is only replaced when force is set.
func InitConfig(force bool) (string, error) {
	path := GetDefaultConfigPath()
	if err := InitConfigToPath(path, force); err != nil {
		return "", err
	}
	return path, nil
}

// InitConfigToPath writes the default configuration to path, creating
// parent directories as needed.
func InitConfigToPath(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config file already exists at %s (use --force to overwrite)", path)
		}
	}

	content, err := generateYAMLWithComments(GetDefaultConfig())
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// generateYAMLWithComments renders cfg as YAML with a header and a comment
// above every section.
func generateYAMLWithComments(cfg *Config) (string, error) {
	var doc yaml.Node
	if err := doc.Encode(cfg); err != nil {
		return "", fmt.Errorf("failed to encode config: %w", err)
	}

	if doc.Kind == yaml.MappingNode {
		for i := 0; i+1 < len(doc.Content); i += 2 {
			key := doc.Content[i]
			if comment, ok := sectionComments[key.Value]; ok {
				key.HeadComment = comment
			}
		}
	}

	var buf bytes.Buffer
	buf.WriteString("# gopherd configuration file\n")
	buf.WriteString("# Every key can be overridden with a GOPHERD_ environment variable,\n")
	buf.WriteString("# e.g. GOPHERD_LOGGING_LEVEL=DEBUG.\n\n")

	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return "", fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", err
	}

	return buf.String(), nil
}
