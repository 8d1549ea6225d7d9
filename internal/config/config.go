// Package config loads server settings from the environment and an optional
// .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/caarlos0/env/v8"
	"github.com/joho/godotenv"
)

type Config struct {
	Port                string `env:"CLUB_PORT" envDefault:"8123"`
	DBPath              string `env:"CLUB_DB_PATH" envDefault:"club-expense.db"`
	StaticDir           string `env:"CLUB_STATIC_DIR" envDefault:"web"`
	LogLevel            string `env:"CLUB_LOG_LEVEL" envDefault:"info"`
	StorageKey          string `env:"CLUB_STORAGE_KEY" envDefault:"club-expense-data-v1"`
	AssetBaseURL        string `env:"CLUB_ASSET_BASE_URL"`
	ImportLimit         int    `env:"CLUB_IMPORT_LIMIT" envDefault:"10"`
	CacheName           string `env:"CLUB_CACHE_NAME" envDefault:"club-expense-cache-v2"`
	BackupRetentionDays int    `env:"CLUB_BACKUP_RETENTION_DAYS" envDefault:"30"`
}

// Load reads files (".env" when none are given) into the process environment
// without overriding variables already set, then parses Config. Missing
// files are ignored.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.ImportLimit <= 0 {
		return Config{}, fmt.Errorf("CLUB_IMPORT_LIMIT must be positive, got %d", cfg.ImportLimit)
	}
	return cfg, nil
}

// Addr returns the listen address for Port.
func (c Config) Addr() string {
	return ":" + c.Port
}
