// Package config loads qbm configuration from a JSON file and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ilyakaznacheev/cleanenv"

	"github.com/nikbrunner/qbm/internal/model"
	"github.com/nikbrunner/qbm/internal/storage"
)

// Config is the root application configuration.
type Config struct {
	DataDir string     `json:"dataDir" env:"QBM_DATA_DIR"`
	Backend string     `json:"backend" env:"QBM_BACKEND"`
	Log     LogConfig  `json:"log"`
	List    ListConfig `json:"list"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `json:"level"  env:"QBM_LOG_LEVEL"  env-default:"warn"`
	Pretty bool   `json:"pretty" env:"QBM_LOG_PRETTY"`
}

// ListConfig holds the default layout of the bookmark list.
type ListConfig struct {
	GroupByTag bool   `json:"groupByTag" env:"QBM_GROUP_BY_TAG"`
	Sort       string `json:"sort"       env:"QBM_SORT"         env-default:"date"`
}

// Load reads configuration. Priority: ENV > JSON file > defaults.
// The file path comes from QBM_CONFIG, falling back to DefaultPath. A
// missing default file is fine; a missing explicit file is an error.
func Load() (*Config, error) {
	path := os.Getenv("QBM_CONFIG")
	explicitPath := path != ""
	if !explicitPath {
		var err error
		if path, err = DefaultPath(); err != nil {
			return nil, fmt.Errorf("config: %w", err)
		}
	}
	return LoadFile(path, explicitPath)
}

// LoadFile reads configuration from path. If required is false a missing
// file means ENV + defaults only.
func LoadFile(path string, required bool) (*Config, error) {
	var cfg Config

	if _, err := os.Stat(path); err == nil {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	} else if required || !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("config: file %s: %w", path, err)
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config: read env: %w", err)
	}

	if cfg.DataDir == "" {
		dir, err := defaultDataDir()
		if err != nil {
			return nil, fmt.Errorf("config: %w", err)
		}
		cfg.DataDir = dir
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}

	return &cfg, nil
}

// Validate rejects unknown backends and sort orders.
func (c *Config) Validate() error {
	switch c.Backend {
	case "", storage.BackendSQLite, storage.BackendJSON:
	default:
		return fmt.Errorf("unknown backend %q", c.Backend)
	}
	if _, ok := model.ParseSortOrder(c.List.Sort); !ok {
		return fmt.Errorf("unknown sort order %q", c.List.Sort)
	}
	return nil
}

// SortOrder returns the configured default sort order.
func (c *Config) SortOrder() model.SortOrder {
	order, _ := model.ParseSortOrder(c.List.Sort)
	return order
}

// SettingsPath returns the path of the settings file inside DataDir.
func (c *Config) SettingsPath() string {
	return filepath.Join(c.DataDir, "settings.json")
}

// DefaultPath returns the default config path: ~/.config/qbm/config.json
func DefaultPath() (string, error) {
	dir, err := defaultDataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

func defaultDataDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".config", "qbm"), nil
}
