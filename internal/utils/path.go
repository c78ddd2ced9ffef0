package utils

import (
	"fmt"
	"os"
	"path/filepath"
)

// GetConfigDir returns <UserConfigDir>/.charadex, unless overridden by
// CHARADEX_CONFIG_DIR.
func GetConfigDir() (string, error) {
	if dir := os.Getenv("CHARADEX_CONFIG_DIR"); dir != "" {
		return dir, nil
	}
	cfg, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user config directory: %w", err)
	}
	return filepath.Join(cfg, ".charadex"), nil
}
