// Package config loads and validates importer configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/shelfbridge/shelfbridge/internal/mapping"
	"github.com/shelfbridge/shelfbridge/internal/pipeline"
)

// Fetcher provider names accepted by catalog.fetcher.
const (
	FetcherColly    = "colly"
	FetcherHeadless = "headless"
)

// Config captures all configuration knobs loaded via Viper.
type Config struct {
	Catalog  CatalogConfig          `mapstructure:"catalog"`
	Headless HeadlessConfig         `mapstructure:"headless"`
	Notion   NotionConfig           `mapstructure:"notion"`
	Server   ServerConfig           `mapstructure:"server"`
	Logging  LoggingConfig          `mapstructure:"logging"`
	Mapping  map[string]MappingRule `mapstructure:"mapping"`
}

// CatalogConfig governs the catalog fetcher.
type CatalogConfig struct {
	BaseURL        string `mapstructure:"base_url"`
	UserAgent      string `mapstructure:"user_agent"`
	Referer        string `mapstructure:"referer"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	Fetcher        string `mapstructure:"fetcher"`
}

// HeadlessConfig configures the browser-based fetcher.
type HeadlessConfig struct {
	NavTimeoutSec int `mapstructure:"nav_timeout_seconds"`
}

// NotionConfig holds session defaults for the record writer. The token is
// expected to arrive via environment (SHELFBRIDGE_NOTION_TOKEN) or a flag;
// it is never written back anywhere.
type NotionConfig struct {
	Token          string `mapstructure:"token"`
	DatabaseID     string `mapstructure:"database_id"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// ServerConfig controls the HTTP surface.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// MappingRule is one row of the field correspondence table as configured.
type MappingRule struct {
	Target string `mapstructure:"target"`
	Type   string `mapstructure:"type"`
}

// Load builds a Config from defaults, an optional file and the environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("SHELFBRIDGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Credentials have no default on purpose, so AutomaticEnv alone never
	// surfaces them during Unmarshal; bind them explicitly.
	for _, key := range []string{"notion.token", "notion.database_id"} {
		if err := v.BindEnv(key); err != nil {
			return Config{}, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("catalog.base_url", "https://book.douban.com")
	v.SetDefault("catalog.user_agent",
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	v.SetDefault("catalog.referer", "https://book.douban.com/")
	v.SetDefault("catalog.timeout_seconds", 10)
	v.SetDefault("catalog.fetcher", FetcherColly)
	v.SetDefault("headless.nav_timeout_seconds", 45)
	v.SetDefault("notion.timeout_seconds", 30)
	v.SetDefault("server.port", 8080)
	v.SetDefault("logging.development", true)

	for field, rule := range mapping.DefaultTable() {
		v.SetDefault("mapping."+field+".target", rule.Target)
		v.SetDefault("mapping."+field+".type", string(rule.Type))
	}
}

// Validate enforces required values and a coherent mapping table.
func (c Config) Validate() error {
	if c.Catalog.BaseURL == "" {
		return fmt.Errorf("catalog.base_url must be set")
	}
	if c.Catalog.TimeoutSeconds <= 0 {
		return fmt.Errorf("catalog.timeout_seconds must be > 0")
	}
	if c.Catalog.Fetcher != FetcherColly && c.Catalog.Fetcher != FetcherHeadless {
		return fmt.Errorf("catalog.fetcher must be %q or %q", FetcherColly, FetcherHeadless)
	}
	if c.Catalog.Fetcher == FetcherHeadless && c.Headless.NavTimeoutSec <= 0 {
		return fmt.Errorf("headless.nav_timeout_seconds must be > 0 when the headless fetcher is selected")
	}
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if err := c.MappingTable().Validate(); err != nil {
		return fmt.Errorf("mapping: %w", err)
	}
	return nil
}

// MappingTable converts the configured rules into the mapper's table form.
func (c Config) MappingTable() mapping.Table {
	table := make(mapping.Table, len(c.Mapping))
	for field, rule := range c.Mapping {
		table[field] = mapping.Rule{
			Target: rule.Target,
			Type:   pipeline.PropertyType(rule.Type),
		}
	}
	return table
}

// CatalogTimeout returns the fetch timeout as a duration.
func (c Config) CatalogTimeout() time.Duration {
	return time.Duration(c.Catalog.TimeoutSeconds) * time.Second
}

// NotionTimeout returns the write timeout as a duration.
func (c Config) NotionTimeout() time.Duration {
	return time.Duration(c.Notion.TimeoutSeconds) * time.Second
}

// HeadlessNavTimeout returns the navigation timeout as a duration.
func (c Config) HeadlessNavTimeout() time.Duration {
	return time.Duration(c.Headless.NavTimeoutSec) * time.Second
}
