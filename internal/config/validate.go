package config

import (
	"fmt"
	"strings"
)

type Validation struct {
	Errors   []string
	Warnings []string
}

func (v *Validation) addErr(format string, args ...any) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}
func (v *Validation) addWarn(format string, args ...any) {
	v.Warnings = append(v.Warnings, fmt.Sprintf(format, args...))
}
func (v Validation) OK() bool { return len(v.Errors) == 0 }

// NormalizeAndValidate fills defaults, cleans lists, and checks the knobs the
// engine consumes. A failed validation gates the whole batch (ConfigInvalid
// is fatal before any candidate starts).
func NormalizeAndValidate(cfg Config) (Config, Validation) {
	out := cfg
	var res Validation

	trimList := func(xs []string) []string {
		seen := map[string]bool{}
		var ys []string
		for _, x := range xs {
			x = strings.TrimSpace(x)
			if x == "" {
				continue
			}
			key := strings.ToLower(x)
			if seen[key] {
				continue
			}
			seen[key] = true
			ys = append(ys, x)
		}
		return ys
	}

	// ---- Defaults ----

	if out.App.DataDir == "" {
		out.App.DataDir = "."
	}
	if out.Engine.StallThreshold <= 0 {
		out.Engine.StallThreshold = 3
	}
	if out.Engine.MaxPages <= 0 {
		out.Engine.MaxPages = 40
	}
	if out.Engine.MaxScrolls <= 0 {
		out.Engine.MaxScrolls = 120
	}
	if out.Engine.FetchTimeoutSeconds <= 0 {
		out.Engine.FetchTimeoutSeconds = 30
	}
	if out.Engine.FetchRetries < 0 {
		out.Engine.FetchRetries = 0
	} else if out.Engine.FetchRetries == 0 {
		out.Engine.FetchRetries = 2
	}
	if out.Engine.FetchBackoffMs <= 0 {
		out.Engine.FetchBackoffMs = 1000
	}
	if out.Engine.DedupScope == "" {
		out.Engine.DedupScope = "global"
	}
	if out.Sinks.RetryBound < 0 {
		out.Sinks.RetryBound = 0
	} else if out.Sinks.RetryBound == 0 {
		out.Sinks.RetryBound = 2
	}
	if out.Sinks.RetryBackoffMs <= 0 {
		out.Sinks.RetryBackoffMs = 500
	}
	if out.Feed.RequestsPerSec <= 0 {
		out.Feed.RequestsPerSec = 1
	}
	if out.Feed.Burst <= 0 {
		out.Feed.Burst = 2
	}
	if out.Report.Dir == "" {
		out.Report.Dir = "reports"
	}
	if out.Defaults.MaxItems <= 0 {
		out.Defaults.MaxItems = 50
	}

	out.Defaults.Keywords = trimList(out.Defaults.Keywords)

	// ---- Validation rules ----

	switch out.Engine.DedupScope {
	case "global", "per-candidate":
	default:
		res.addErr("engine.dedup_scope must be %q or %q (got %q)",
			"global", "per-candidate", out.Engine.DedupScope)
	}

	if out.Engine.StallThreshold > 20 {
		res.addWarn("engine.stall_threshold is very high (%d); stalled feeds will burn time before stopping.", out.Engine.StallThreshold)
	}

	if out.Sinks.Postgres.Enabled && strings.TrimSpace(out.Sinks.Postgres.DSN) == "" {
		res.addErr("sinks.postgres.dsn is required when sinks.postgres.enabled=true (set EXTRACTOR_PG_DSN)")
	}
	if out.Sinks.API.Enabled && strings.TrimSpace(out.Sinks.API.BaseURL) == "" {
		res.addErr("sinks.api.base_url is required when sinks.api.enabled=true")
	}
	if out.Report.Telegram.Enabled {
		if strings.TrimSpace(out.Report.Telegram.Token) == "" {
			res.addErr("report.telegram.token is required when report.telegram.enabled=true (set TELEGRAM_BOT_TOKEN)")
		}
		if out.Report.Telegram.ChatID == 0 {
			res.addErr("report.telegram.chat_id is required when report.telegram.enabled=true")
		}
	}

	if len(out.Candidates) == 0 {
		res.addErr("no candidates configured")
	}

	ids := map[string]bool{}
	for i := range out.Candidates {
		c := &out.Candidates[i]
		c.ID = strings.TrimSpace(c.ID)
		c.Keywords = trimList(c.Keywords)
		c.Locations = trimList(c.Locations)

		if c.ID == "" {
			res.addErr("candidates[%d].id is required", i)
			continue
		}
		if ids[c.ID] {
			res.addErr("duplicate candidate id %q", c.ID)
		}
		ids[c.ID] = true

		// missing keywords inherit the engine defaults
		if len(c.Keywords) == 0 {
			c.Keywords = out.Defaults.Keywords
		}
		if c.MaxItems <= 0 {
			c.MaxItems = out.Defaults.MaxItems
		}
		if c.Enabled && len(c.Locations) == 0 {
			res.addWarn("candidate %q has no locations and will be skipped", c.ID)
		}
		if c.Enabled && strings.TrimSpace(c.FeedURL) == "" {
			res.addWarn("candidate %q has no feed_url; the default feed will be used", c.ID)
		}
	}

	return out, res
}
