package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnsureUserConfigSeedsOnFirstRun(t *testing.T) {
	tmp := t.TempDir()
	defaultPath := filepath.Join(tmp, "default.yml")
	assert.NoError(t, os.WriteFile(defaultPath, []byte("candidates: []\n"), 0o644))

	dataDir := filepath.Join(tmp, "data")
	path, err := EnsureUserConfig(dataDir, defaultPath)
	assert.NoError(t, err)
	assert.Equal(t, filepath.Join(dataDir, "extractor.yml"), path)

	got, err := os.ReadFile(path)
	assert.NoError(t, err)
	assert.Equal(t, "candidates: []\n", string(got))
}

func TestEnsureUserConfigKeepsExistingFile(t *testing.T) {
	tmp := t.TempDir()
	defaultPath := filepath.Join(tmp, "default.yml")
	assert.NoError(t, os.WriteFile(defaultPath, []byte("candidates: []\n"), 0o644))

	dataDir := filepath.Join(tmp, "data")
	path, err := EnsureUserConfig(dataDir, defaultPath)
	assert.NoError(t, err)

	// local edits must survive subsequent startups
	assert.NoError(t, os.WriteFile(path, []byte("# edited by hand\n"), 0o644))

	again, err := EnsureUserConfig(dataDir, defaultPath)
	assert.NoError(t, err)
	assert.Equal(t, path, again)

	got, err := os.ReadFile(path)
	assert.NoError(t, err)
	assert.Equal(t, "# edited by hand\n", string(got))
}

func TestEnsureUserConfigMissingDefault(t *testing.T) {
	tmp := t.TempDir()
	_, err := EnsureUserConfig(filepath.Join(tmp, "data"), filepath.Join(tmp, "nope.yml"))
	assert.Error(t, err)
}
