package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shelfbridge/shelfbridge/internal/pipeline"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Catalog.BaseURL != "https://book.douban.com" {
		t.Fatalf("unexpected catalog base url: %q", cfg.Catalog.BaseURL)
	}
	if cfg.Catalog.Fetcher != FetcherColly {
		t.Fatalf("expected colly fetcher by default, got %q", cfg.Catalog.Fetcher)
	}
	if got := cfg.CatalogTimeout(); got != 10*time.Second {
		t.Fatalf("expected 10s catalog timeout, got %v", got)
	}

	table := cfg.MappingTable()
	if err := table.Validate(); err != nil {
		t.Fatalf("default mapping table invalid: %v", err)
	}
	rule, ok := table["title"]
	if !ok || rule.Target != "Title" || rule.Type != pipeline.TypeTitle {
		t.Fatalf("unexpected title rule: %+v", rule)
	}
}

func TestLoadCredentialsFromEnvironment(t *testing.T) {
	t.Setenv("SHELFBRIDGE_NOTION_TOKEN", "secret-from-env")
	t.Setenv("SHELFBRIDGE_NOTION_DATABASE_ID", "db-from-env")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Notion.Token != "secret-from-env" {
		t.Fatalf("expected token from environment, got %q", cfg.Notion.Token)
	}
	if cfg.Notion.DatabaseID != "db-from-env" {
		t.Fatalf("expected database id from environment, got %q", cfg.Notion.DatabaseID)
	}
}

func TestLoadWithFileOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	configYAML := `
catalog:
  base_url: https://catalog.example.com
  timeout_seconds: 20
  fetcher: headless
headless:
  nav_timeout_seconds: 30
notion:
  database_id: db-123
server:
  port: 9090
logging:
  development: false
mapping:
  title:
    target: 书名
    type: title
  authors:
    target: 作者
    type: rich_text
`
	if err := os.WriteFile(path, []byte(configYAML), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Catalog.BaseURL != "https://catalog.example.com" {
		t.Fatalf("expected base url override, got %q", cfg.Catalog.BaseURL)
	}
	if cfg.Catalog.Fetcher != FetcherHeadless {
		t.Fatalf("expected headless fetcher, got %q", cfg.Catalog.Fetcher)
	}
	if cfg.Notion.DatabaseID != "db-123" {
		t.Fatalf("expected database id, got %q", cfg.Notion.DatabaseID)
	}
	if cfg.Server.Port != 9090 {
		t.Fatalf("expected port 9090, got %d", cfg.Server.Port)
	}

	table := cfg.MappingTable()
	if table["title"].Target != "书名" {
		t.Fatalf("expected title target override, got %q", table["title"].Target)
	}
	if table["authors"].Type != pipeline.TypeRichText {
		t.Fatalf("expected authors type override, got %q", table["authors"].Type)
	}
}

func TestValidateErrors(t *testing.T) {
	valid := func() Config {
		return Config{
			Catalog: CatalogConfig{
				BaseURL:        "https://book.douban.com",
				TimeoutSeconds: 10,
				Fetcher:        FetcherColly,
			},
			Headless: HeadlessConfig{NavTimeoutSec: 45},
			Server:   ServerConfig{Port: 8080},
		}
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{
			name:   "missing base url",
			mutate: func(c *Config) { c.Catalog.BaseURL = "" },
			want:   "catalog.base_url",
		},
		{
			name:   "bad timeout",
			mutate: func(c *Config) { c.Catalog.TimeoutSeconds = 0 },
			want:   "catalog.timeout_seconds",
		},
		{
			name:   "unknown fetcher",
			mutate: func(c *Config) { c.Catalog.Fetcher = "curl" },
			want:   "catalog.fetcher",
		},
		{
			name: "headless without nav timeout",
			mutate: func(c *Config) {
				c.Catalog.Fetcher = FetcherHeadless
				c.Headless.NavTimeoutSec = 0
			},
			want: "headless.nav_timeout_seconds",
		},
		{
			name:   "bad port",
			mutate: func(c *Config) { c.Server.Port = 0 },
			want:   "server.port",
		},
		{
			name: "bad mapping",
			mutate: func(c *Config) {
				c.Mapping = map[string]MappingRule{
					"authors": {Target: "Author", Type: "date"},
				}
			},
			want: "mapping",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}
