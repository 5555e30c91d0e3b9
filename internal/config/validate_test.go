package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func minimalConfig() Config {
	var cfg Config
	cfg.Candidates = []Candidate{{
		ID:        "alice",
		Enabled:   true,
		Keywords:  []string{"go"},
		Locations: []string{"Remote"},
		FeedURL:   "https://example.com/jobs",
	}}
	return cfg
}

func TestDefaultsFilled(t *testing.T) {
	cfg, res := NormalizeAndValidate(minimalConfig())

	assert.True(t, res.OK(), "errors: %v", res.Errors)
	assert.Equal(t, 3, cfg.Engine.StallThreshold)
	assert.Equal(t, 40, cfg.Engine.MaxPages)
	assert.Equal(t, 120, cfg.Engine.MaxScrolls)
	assert.Equal(t, 30, cfg.Engine.FetchTimeoutSeconds)
	assert.Equal(t, 2, cfg.Engine.FetchRetries)
	assert.Equal(t, 1000, cfg.Engine.FetchBackoffMs)
	assert.Equal(t, "global", cfg.Engine.DedupScope)
	assert.Equal(t, 2, cfg.Sinks.RetryBound)
	assert.Equal(t, 500, cfg.Sinks.RetryBackoffMs)
	assert.Equal(t, "reports", cfg.Report.Dir)
	assert.Equal(t, 50, cfg.Candidates[0].MaxItems)
}

func TestBadDedupScopeRejected(t *testing.T) {
	cfg := minimalConfig()
	cfg.Engine.DedupScope = "per-run"

	_, res := NormalizeAndValidate(cfg)
	assert.False(t, res.OK())
	assert.Contains(t, res.Errors[0], "dedup_scope")
}

func TestEnabledSinksNeedConfig(t *testing.T) {
	cfg := minimalConfig()
	cfg.Sinks.Postgres.Enabled = true
	cfg.Sinks.API.Enabled = true

	_, res := NormalizeAndValidate(cfg)
	assert.Len(t, res.Errors, 2)
}

func TestTelegramNeedsTokenAndChat(t *testing.T) {
	cfg := minimalConfig()
	cfg.Report.Telegram.Enabled = true

	_, res := NormalizeAndValidate(cfg)
	assert.Len(t, res.Errors, 2)

	cfg.Report.Telegram.Token = "123:abc"
	cfg.Report.Telegram.ChatID = 42
	_, res = NormalizeAndValidate(cfg)
	assert.True(t, res.OK())
}

func TestNoCandidatesIsError(t *testing.T) {
	var cfg Config
	_, res := NormalizeAndValidate(cfg)
	assert.False(t, res.OK())
}

func TestDuplicateCandidateID(t *testing.T) {
	cfg := minimalConfig()
	cfg.Candidates = append(cfg.Candidates, cfg.Candidates[0])

	_, res := NormalizeAndValidate(cfg)
	assert.False(t, res.OK())
	assert.Contains(t, res.Errors[0], "duplicate candidate id")
}

func TestKeywordInheritance(t *testing.T) {
	cfg := minimalConfig()
	cfg.Defaults.Keywords = []string{"software engineer", " backend "}
	cfg.Candidates[0].Keywords = nil

	out, res := NormalizeAndValidate(cfg)
	assert.True(t, res.OK())
	assert.Equal(t, []string{"software engineer", "backend"}, out.Candidates[0].Keywords)
}

func TestListsDedupedAndTrimmed(t *testing.T) {
	cfg := minimalConfig()
	cfg.Candidates[0].Locations = []string{" Remote ", "remote", "", "Austin"}

	out, res := NormalizeAndValidate(cfg)
	assert.True(t, res.OK())
	assert.Equal(t, []string{"Remote", "Austin"}, out.Candidates[0].Locations)
}

func TestNoLocationsWarnsNotErrs(t *testing.T) {
	cfg := minimalConfig()
	cfg.Candidates[0].Locations = nil

	_, res := NormalizeAndValidate(cfg)
	assert.True(t, res.OK())
	assert.NotEmpty(t, res.Warnings)
}
