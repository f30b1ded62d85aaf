package config

import (
	"fmt"
	"log/slog"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	HTTPAddr string     `env:"HTTP_ADDR" envDefault:":8080"`
	DBPath   string     `env:"DB_PATH" envDefault:"data/hunt.db"`
	LogLevel slog.Level `env:"LOG_LEVEL" envDefault:"INFO"`
	SPADir   string     `env:"SPA_DIR" envDefault:"../web/dist"`

	// RedisURL enables the cross-instance notification relay. Empty keeps
	// notifications in-process.
	RedisURL string `env:"REDIS_URL"`

	AdminEmail    string `env:"ADMIN_EMAIL" envDefault:"admin@playperu.com"`
	AdminPassword string `env:"ADMIN_PASSWORD" envDefault:"changeme"`
	SeedDemo      bool   `env:"SEED_DEMO" envDefault:"true"`

	// HuntSeed fixes the clue-order shuffle. Zero means random.
	HuntSeed uint64 `env:"HUNT_SEED"`
}

func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	return &cfg, nil
}
