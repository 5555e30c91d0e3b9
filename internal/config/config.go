package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Candidate struct {
	ID        string   `yaml:"id"`
	Keywords  []string `yaml:"keywords"`
	Locations []string `yaml:"locations"`
	FeedURL   string   `yaml:"feed_url"`
	Username  string   `yaml:"username"`
	Enabled   bool     `yaml:"enabled"`
	MaxItems  int      `yaml:"max_items"`
}

type Config struct {
	App struct {
		DataDir string `yaml:"data_dir"`
	} `yaml:"app"`

	Engine struct {
		StallThreshold      int    `yaml:"stall_threshold"`
		MaxPages            int    `yaml:"max_pages"`
		MaxScrolls          int    `yaml:"max_scrolls"`
		FetchTimeoutSeconds int    `yaml:"fetch_timeout_seconds"`
		FetchRetries        int    `yaml:"fetch_retries"`
		FetchBackoffMs      int    `yaml:"fetch_backoff_ms"`
		DedupScope          string `yaml:"dedup_scope"` // global | per-candidate
	} `yaml:"engine"`

	Defaults struct {
		Keywords []string `yaml:"keywords"`
		MaxItems int      `yaml:"max_items"`
	} `yaml:"defaults"`

	Feed struct {
		DefaultURL     string  `yaml:"default_url"`
		RequestsPerSec float64 `yaml:"requests_per_sec"`
		Burst          int     `yaml:"burst"`
	} `yaml:"feed"`

	Sinks struct {
		RetryBound     int `yaml:"retry_bound"`
		RetryBackoffMs int `yaml:"retry_backoff_ms"`

		CSV struct {
			Enabled bool   `yaml:"enabled"`
			Path    string `yaml:"path"`
		} `yaml:"csv"`

		Postgres struct {
			Enabled bool   `yaml:"enabled"`
			DSN     string `yaml:"dsn"` // usually supplied via EXTRACTOR_PG_DSN
		} `yaml:"postgres"`

		API struct {
			Enabled bool   `yaml:"enabled"`
			BaseURL string `yaml:"base_url"`
		} `yaml:"api"`
	} `yaml:"sinks"`

	Report struct {
		Dir string `yaml:"dir"`

		Telegram struct {
			Enabled bool   `yaml:"enabled"`
			Token   string `yaml:"token"` // usually supplied via TELEGRAM_BOT_TOKEN
			ChatID  int64  `yaml:"chat_id"`
		} `yaml:"telegram"`
	} `yaml:"report"`

	Candidates []Candidate `yaml:"candidates"`
}

func Load(path string) (Config, error) {
	var cfg Config
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	err = yaml.Unmarshal(b, &cfg)
	return cfg, err
}

func (c Config) FetchTimeout() time.Duration {
	return time.Duration(c.Engine.FetchTimeoutSeconds) * time.Second
}

func (c Config) FetchBackoff() time.Duration {
	return time.Duration(c.Engine.FetchBackoffMs) * time.Millisecond
}

func (c Config) SinkRetryBackoff() time.Duration {
	return time.Duration(c.Sinks.RetryBackoffMs) * time.Millisecond
}
