package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const (
	// ConfigDir is the default config directory name.
	ConfigDir = ".ringbridge"
	// ConfigFile is the default config file name.
	ConfigFile = "config.json"
)

// ConfigPath returns the path to the config file.
func ConfigPath() (string, error) {
	if explicit := strings.TrimSpace(os.Getenv("RINGBRIDGE_CONFIG")); explicit != "" {
		return ExpandHome(explicit)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ConfigDir, ConfigFile), nil
}

// ExpandHome resolves a leading ~ against the user's home directory.
func ExpandHome(path string) (string, error) {
	if !strings.HasPrefix(path, "~") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}

// LoadEnvFileCandidates loads environment variables from known env files.
// Existing process env vars are never overridden.
func LoadEnvFileCandidates() {
	candidates := make([]string, 0, 3)
	if explicit := strings.TrimSpace(os.Getenv("RINGBRIDGE_ENV_FILE")); explicit != "" {
		candidates = append(candidates, explicit)
	}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates,
			filepath.Join(home, ConfigDir, "env"),
			filepath.Join(home, ConfigDir, ".env"),
		)
	}
	for _, p := range candidates {
		if p == "" {
			continue
		}
		// godotenv.Load never overrides variables already present.
		_ = godotenv.Load(p)
	}
}

// Load reads the config file (if present), then applies environment
// overrides per section.
func Load() (*Config, error) {
	cfg := DefaultConfig()

	path, err := ConfigPath()
	if err == nil {
		if data, readErr := os.ReadFile(path); readErr == nil {
			if err := json.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	LoadEnvFileCandidates()

	if err := envconfig.Process("RINGBRIDGE_PLATFORM", &cfg.Platform); err != nil {
		return nil, fmt.Errorf("platform env: %w", err)
	}
	if err := envconfig.Process("RINGBRIDGE_GATEWAY", &cfg.Gateway); err != nil {
		return nil, fmt.Errorf("gateway env: %w", err)
	}
	if err := envconfig.Process("RINGBRIDGE_STORE", &cfg.Store); err != nil {
		return nil, fmt.Errorf("store env: %w", err)
	}

	return cfg, nil
}
