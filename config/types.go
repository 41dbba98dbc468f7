package config

import (
	"fmt"
	"time"

	"github.com/mitchellh/mapstructure"
)

// Default values applied by SetDefaults.
const (
	DefaultBackendURL     = "http://localhost:4000/api"
	DefaultChannelURL     = "ws://localhost:4000/ws"
	DefaultAlertTimeout   = "5s"
	DefaultSuccessTimeout = "3s"
	DefaultRelayListen    = ":4001"
)

// AlertsConfig controls the alert banner owned by the project store.
type AlertsConfig struct {
	// Timeout is how long an ad-hoc alert stays visible.
	Timeout string `yaml:"timeout,omitempty" toml:"timeout,omitempty" json:"timeout,omitempty" jsonschema:"description=How long ad-hoc alerts stay visible (Go duration),pattern=^[0-9]+(ms|s|m)$"`
	// SuccessTimeout is how long post-mutation success alerts stay visible.
	SuccessTimeout string `yaml:"success_timeout,omitempty" toml:"success_timeout,omitempty" json:"success_timeout,omitempty" jsonschema:"description=How long success alerts stay visible after a mutation (Go duration),pattern=^[0-9]+(ms|s|m)$"`
	// SurfaceWriteErrors shows failed writes as error alerts instead of only logging them.
	SurfaceWriteErrors *bool `yaml:"surface_write_errors,omitempty" toml:"surface_write_errors,omitempty" json:"surface_write_errors,omitempty" jsonschema:"description=Show failed writes (project/task create/update/delete) as error alerts"`
}

// ReconcileConfig controls how inbound task events are merged.
type ReconcileConfig struct {
	// RevisionGuard drops inbound tasks older than the locally held revision.
	RevisionGuard *bool `yaml:"revision_guard,omitempty" toml:"revision_guard,omitempty" json:"revision_guard,omitempty" jsonschema:"description=Ignore inbound task events whose revision is older than the local copy"`
}

// CacheConfig configures the local project list cache.
type CacheConfig struct {
	Enabled *bool  `yaml:"enabled,omitempty" toml:"enabled,omitempty" json:"enabled,omitempty" jsonschema:"description=Cache the last loaded project list for offline listing"`
	Path    string `yaml:"path,omitempty" toml:"path,omitempty" json:"path,omitempty" jsonschema:"description=SQLite cache file (defaults to the cache directory)"`
}

// RelayConfig configures the bundled event relay.
type RelayConfig struct {
	Listen string `yaml:"listen,omitempty" toml:"listen,omitempty" json:"listen,omitempty" jsonschema:"description=Address the event relay listens on"`
}

// Config is the uptask client configuration.
type Config struct {
	BackendURL string          `yaml:"backend_url,omitempty" toml:"backend_url,omitempty" json:"backend_url,omitempty" jsonschema:"description=Base URL of the REST backend"`
	ChannelURL string          `yaml:"channel_url,omitempty" toml:"channel_url,omitempty" json:"channel_url,omitempty" jsonschema:"description=Websocket URL of the event-broadcast service"`
	Alerts     AlertsConfig    `yaml:"alerts,omitempty" toml:"alerts,omitempty" json:"alerts,omitempty" jsonschema:"description=Alert banner behaviour"`
	Reconcile  ReconcileConfig `yaml:"reconcile,omitempty" toml:"reconcile,omitempty" json:"reconcile,omitempty" jsonschema:"description=Remote event reconciliation"`
	Cache      CacheConfig     `yaml:"cache,omitempty" toml:"cache,omitempty" json:"cache,omitempty" jsonschema:"description=Local project list cache"`
	Relay      RelayConfig     `yaml:"relay,omitempty" toml:"relay,omitempty" json:"relay,omitempty" jsonschema:"description=Bundled event relay"`

	// Extensions captures all other top-level keys (e.g. "logging").
	Extensions map[string]interface{} `yaml:",inline" toml:"-" json:"-" jsonschema:"-"`
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	cfg.SetDefaults()
	return cfg
}

// SetDefaults sets default values for configuration
func (c *Config) SetDefaults() {
	if c.BackendURL == "" {
		c.BackendURL = DefaultBackendURL
	}
	if c.ChannelURL == "" {
		c.ChannelURL = DefaultChannelURL
	}
	if c.Alerts.Timeout == "" {
		c.Alerts.Timeout = DefaultAlertTimeout
	}
	if c.Alerts.SuccessTimeout == "" {
		c.Alerts.SuccessTimeout = DefaultSuccessTimeout
	}
	if c.Alerts.SurfaceWriteErrors == nil {
		c.Alerts.SurfaceWriteErrors = boolPtr(true)
	}
	if c.Reconcile.RevisionGuard == nil {
		c.Reconcile.RevisionGuard = boolPtr(true)
	}
	if c.Cache.Enabled == nil {
		c.Cache.Enabled = boolPtr(true)
	}
	if c.Relay.Listen == "" {
		c.Relay.Listen = DefaultRelayListen
	}
}

// AlertTimeout returns the parsed ad-hoc alert duration.
func (c *Config) AlertTimeout() time.Duration {
	return parseDuration(c.Alerts.Timeout, 5*time.Second)
}

// SuccessAlertTimeout returns the parsed success alert duration.
func (c *Config) SuccessAlertTimeout() time.Duration {
	return parseDuration(c.Alerts.SuccessTimeout, 3*time.Second)
}

// SurfaceWriteErrors reports whether failed writes become error alerts.
func (c *Config) SurfaceWriteErrors() bool {
	return c.Alerts.SurfaceWriteErrors == nil || *c.Alerts.SurfaceWriteErrors
}

// RevisionGuard reports whether stale inbound task revisions are dropped.
func (c *Config) RevisionGuard() bool {
	return c.Reconcile.RevisionGuard == nil || *c.Reconcile.RevisionGuard
}

// CacheEnabled reports whether the project list cache is used.
func (c *Config) CacheEnabled() bool {
	return c.Cache.Enabled == nil || *c.Cache.Enabled
}

// UnmarshalExtension decodes a specific extension's configuration from the
// loaded file into the provided target struct. The target must be a pointer.
//
// Example:
//
//	var logCfg logging.Config
//	err := cfg.UnmarshalExtension("logging", &logCfg)
func (c *Config) UnmarshalExtension(key string, target interface{}) error {
	extensionConfig, ok := c.Extensions[key]
	if !ok {
		// It's not an error if the key doesn't exist.
		// The target struct will simply remain zero-valued.
		return nil
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		TagName:          "yaml",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return fmt.Errorf("failed to create mapstructure decoder: %w", err)
	}

	if err := decoder.Decode(extensionConfig); err != nil {
		return fmt.Errorf("failed to decode extension config for '%s': %w", key, err)
	}

	return nil
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func boolPtr(b bool) *bool {
	return &b
}
