package app

import (
	"fmt"
	"os"
	"path/filepath"
)

// GetDefaults resolves the config file path and the base/log data
// directories. Locations follow XDG conventions (~/.config for the
// config file, ~/.local/share for mutable data); TC_CONFIG_PATH and
// TC_HOME override them.
func GetDefaults() (map[string]string, error) {
	configPath, err := pathFromEnv("TC_CONFIG_PATH", ".config", "tc.toml")
	if err != nil {
		return nil, err
	}

	baseDir, err := pathFromEnv("TC_HOME", ".local", "share", "tc")
	if err != nil {
		return nil, err
	}

	return map[string]string{
		"config_path": configPath,
		"base_dir":    baseDir,
		"log_dir":     filepath.Join(baseDir, "log"),
	}, nil
}

// pathFromEnv returns the environment variable's value when set,
// otherwise the fallback elements joined under the home directory.
func pathFromEnv(envVar string, fallback ...string) (string, error) {
	if path := os.Getenv(envVar); path != "" {
		return path, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, filepath.Join(fallback...)), nil
}
