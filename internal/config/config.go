// Package config loads the optional mdsite.yaml configuration file.
// Every knob has a built-in default; running without a config file is the
// normal case, not an error.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/mdsite/internal/logfields"
)

// DefaultConfigFile is the config filename looked up in the working directory.
const DefaultConfigFile = "mdsite.yaml"

// Reserved top-level source directories that are never converted or indexed.
const (
	AssetDirName     = "asset"
	ResourcesDirName = "_resources"
)

// Daemon timing defaults, used when the YAML values are absent or malformed.
const (
	DefaultQuietWindow = 2 * time.Second
	DefaultMaxDelay    = 30 * time.Second
)

// Config is the root configuration document.
type Config struct {
	Site    SiteConfig    `yaml:"site"`
	Daemon  DaemonConfig  `yaml:"daemon"`
	Metrics MetricsConfig `yaml:"metrics"`
	History HistoryConfig `yaml:"history"`
	Events  EventsConfig  `yaml:"events"`
	Publish PublishConfig `yaml:"publish"`
}

// SiteConfig tunes the generated site itself.
type SiteConfig struct {
	// HomeLabel is the text of the leading navbar link.
	HomeLabel string `yaml:"home_label,omitempty"`
	// AssetDir overrides the asset source directory. Empty means an
	// "asset" directory next to the executable.
	AssetDir string `yaml:"asset_dir,omitempty"`
	// Reserved lists extra top-level source directories excluded from
	// conversion and indexing.
	Reserved []string `yaml:"reserved,omitempty"`
}

// DaemonConfig tunes watch mode. Durations are Go duration strings ("2s",
// "1h30m"); parsing happens at the point of use with fallback defaults.
type DaemonConfig struct {
	QuietWindow     string `yaml:"quiet_window,omitempty"`
	MaxDelay        string `yaml:"max_delay,omitempty"`
	RebuildInterval string `yaml:"rebuild_interval,omitempty"`
}

// QuietWindowDuration returns the debounce quiet window.
func (d DaemonConfig) QuietWindowDuration() time.Duration {
	return parseDurationOr(d.QuietWindow, DefaultQuietWindow)
}

// MaxDelayDuration returns the upper bound on build deferral.
func (d DaemonConfig) MaxDelayDuration() time.Duration {
	return parseDurationOr(d.MaxDelay, DefaultMaxDelay)
}

// RebuildIntervalDuration returns the periodic rebuild interval, or zero when
// the schedule is disabled.
func (d DaemonConfig) RebuildIntervalDuration() time.Duration {
	return parseDurationOr(d.RebuildInterval, 0)
}

// MetricsConfig gates the Prometheus endpoint in daemon mode.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Listen  string `yaml:"listen,omitempty"`
}

// HistoryConfig gates the SQLite build-history store.
type HistoryConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path,omitempty"`
}

// EventsConfig gates NATS build-event publishing.
type EventsConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url,omitempty"`
	Subject string `yaml:"subject,omitempty"`
}

// PublishConfig gates committing the output tree after builds.
type PublishConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Message     string `yaml:"message,omitempty"`
	AuthorName  string `yaml:"author_name,omitempty"`
	AuthorEmail string `yaml:"author_email,omitempty"`
}

// Default returns a configuration with all defaults applied.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads the configuration file at configPath. A missing file yields the
// defaults. Environment variables referenced as ${VAR} in the YAML are
// expanded after an optional .env overlay is loaded.
func Load(configPath string) (*Config, error) {
	loadEnvOverlay()

	data, err := os.ReadFile(configPath) // #nosec G304 -- path comes from the --config flag
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", configPath, err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

// loadEnvOverlay loads the first available .env file. Existing process
// environment variables are never overridden.
func loadEnvOverlay() {
	for _, envPath := range []string{".env", ".env.local"} {
		if err := godotenv.Load(envPath); err == nil {
			slog.Debug("Loaded environment overlay", logfields.Path(envPath))
			return
		}
	}
}

func (c *Config) applyDefaults() {
	if c.Site.HomeLabel == "" {
		c.Site.HomeLabel = "Home"
	}
	if c.Metrics.Listen == "" {
		c.Metrics.Listen = ":9090"
	}
	if c.History.Path == "" {
		c.History.Path = "mdsite-history.db"
	}
	if c.Events.Subject == "" {
		c.Events.Subject = "mdsite.builds"
	}
	if c.Publish.Message == "" {
		c.Publish.Message = "Update generated site"
	}
	if c.Publish.AuthorName == "" {
		c.Publish.AuthorName = "mdsite"
	}
	if c.Publish.AuthorEmail == "" {
		c.Publish.AuthorEmail = "mdsite@localhost"
	}
}

// ReservedNames returns the top-level source directories excluded from
// conversion and indexing: the built-in asset and resource names plus any
// configured extras, deduplicated in order.
func (c *Config) ReservedNames() []string {
	names := []string{AssetDirName, ResourcesDirName}
	seen := map[string]bool{AssetDirName: true, ResourcesDirName: true}
	for _, extra := range c.Site.Reserved {
		if extra == "" || seen[extra] {
			continue
		}
		seen[extra] = true
		names = append(names, extra)
	}
	return names
}

func parseDurationOr(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil || d < 0 {
		slog.Warn("Invalid duration in config, using default",
			slog.String("value", value),
			slog.Duration("default", fallback))
		return fallback
	}
	return d
}
