// Package config loads the tool configuration from <dir>/.kb/plugins.yaml or
// <dir>/.kb/plugins.json, applies defaults and environment overrides, and
// writes it back as JSON. The schema is versioned to support
// forward-compatible migrations.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	configVersion = 1
	configDir     = ".kb"
	yamlFile      = "plugins.yaml"
	jsonFile      = "plugins.json"

	// DefaultTarget is the plugin root relative to the project directory.
	DefaultTarget = ".kb/plugins"
	// DefaultRegistry is the public npm registry.
	DefaultRegistry = "https://registry.npmjs.org"
	// DefaultPackageManager picks pnpm when installed, npm otherwise.
	DefaultPackageManager = "auto"

	EnvTarget   = "KB_PLUGINS_TARGET"
	EnvRegistry = "KB_PLUGINS_REGISTRY"
)

// Config is the effective tool configuration.
type Config struct {
	Target         string `json:"target" yaml:"target"`
	Registry       string `json:"registry" yaml:"registry"`
	PackageManager string `json:"packageManager" yaml:"packageManager"`
	Version        int    `json:"version" yaml:"version"`

	path string
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Version:        configVersion,
		Target:         DefaultTarget,
		Registry:       DefaultRegistry,
		PackageManager: DefaultPackageManager,
	}
}

// ConfigPath returns the path Write uses for dir.
func ConfigPath(dir string) string {
	return filepath.Join(dir, configDir, jsonFile)
}

// Load reads the configuration for the project in dir. The YAML file wins
// over the JSON one; with neither present the defaults are used. Environment
// variables override file values.
func Load(dir string) (*Config, error) {
	cfg := Default()

	for _, name := range []string{yamlFile, jsonFile} {
		path := filepath.Join(dir, configDir, name)
		data, err := os.ReadFile(path)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}

		if name == yamlFile {
			err = yaml.Unmarshal(data, cfg)
		} else {
			err = json.Unmarshal(data, cfg)
		}
		if err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
		cfg.path = path
		break
	}

	// Future: handle cfg.Version < configVersion migrations here.

	if v := os.Getenv(EnvTarget); v != "" {
		cfg.Target = v
	}
	if v := os.Getenv(EnvRegistry); v != "" {
		cfg.Registry = v
	}
	cfg.setDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Path returns the file the configuration was loaded from, or "" for defaults.
func (c *Config) Path() string {
	return c.path
}

// ResolveTarget returns the target root as an absolute path, resolving a
// relative Target against dir.
func (c *Config) ResolveTarget(dir string) (string, error) {
	target := c.Target
	if !filepath.IsAbs(target) {
		target = filepath.Join(dir, target)
	}
	return filepath.Abs(target)
}

// Validate checks field values.
func (c *Config) Validate() error {
	switch c.PackageManager {
	case "auto", "npm", "pnpm":
	default:
		return fmt.Errorf("config: packageManager must be auto, npm or pnpm, got %q", c.PackageManager)
	}
	u, err := url.Parse(c.Registry)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("config: registry must be an http(s) URL, got %q", c.Registry)
	}
	return nil
}

func (c *Config) setDefaults() {
	if c.Version == 0 {
		c.Version = configVersion
	}
	if c.Target == "" {
		c.Target = DefaultTarget
	}
	if c.Registry == "" {
		c.Registry = DefaultRegistry
	}
	if c.PackageManager == "" {
		c.PackageManager = DefaultPackageManager
	}
}

// Write persists cfg to <dir>/.kb/plugins.json.
func Write(dir string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Join(dir, configDir), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(ConfigPath(dir), append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
