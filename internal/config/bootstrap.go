package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const userConfigName = "extractor.yml"

// EnsureUserConfig returns the path of the editable config in the data dir,
// seeding it from the bundled default on first run. An existing user file is
// never touched, so local edits survive upgrades.
func EnsureUserConfig(dataDir string, defaultPath string) (string, error) {
	userPath := filepath.Join(dataDir, userConfigName)

	if _, err := os.Stat(userPath); err == nil {
		return userPath, nil
	} else if !os.IsNotExist(err) {
		return "", fmt.Errorf("stat %s: %w", userPath, err)
	}

	seed, err := os.ReadFile(defaultPath)
	if err != nil {
		return "", fmt.Errorf("read default config: %w", err)
	}

	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return "", fmt.Errorf("create data dir: %w", err)
	}
	if err := os.WriteFile(userPath, seed, 0o644); err != nil {
		return "", fmt.Errorf("seed user config: %w", err)
	}
	return userPath, nil
}
