package config

import (
	"os"
	"strconv"
)

// OverlayEnv applies environment overrides on top of the YAML file. Secrets
// (DSNs, bot tokens) normally arrive this way rather than being committed in
// extractor.yml.
func OverlayEnv(cfg *Config) {
	if v := os.Getenv("EXTRACTOR_DATA_DIR"); v != "" {
		cfg.App.DataDir = v
	}
	if v := os.Getenv("EXTRACTOR_PG_DSN"); v != "" {
		cfg.Sinks.Postgres.DSN = v
	}
	if v := os.Getenv("EXTRACTOR_API_URL"); v != "" {
		cfg.Sinks.API.BaseURL = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Report.Telegram.Token = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Report.Telegram.ChatID = id
		}
	}
}
