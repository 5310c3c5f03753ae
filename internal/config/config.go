// Package config handles loading and parsing application configuration.
// It supports two sources for the file path (in priority order):
//  1. An environment variable:  CONFIG_PATH=/path/to/config.yaml
//  2. A command-line flag:      --config=/path/to/config.yaml
//
// Every value read from the file can be overridden by the environment
// variable named in its env:"..." tag.
package config

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Storage backends.
const (
	StorageMemory = "memory"
	StorageSQLite = "sqlite"
)

// Config is the root configuration structure.
//
// env-required:"true" means the app refuses to start if that value is
// missing; env-default fills in everything that is optional.
type Config struct {
	// Env controls log format and verbosity.
	// Valid values: "dev", "staging", "prod"
	Env string `yaml:"env" env:"ENV" env-required:"true"`

	// SortLocale is the BCP 47 tag used to collate names for ?sortBy=.
	SortLocale string `yaml:"sort_locale" env:"SORT_LOCALE" env-default:"en"`

	Storage    Storage    `yaml:"storage"`
	HTTPServer HTTPServer `yaml:"http_server"`
	RateLimit  RateLimit  `yaml:"rate_limit"`
}

// Storage selects and configures the student store.
type Storage struct {
	// Type is "memory" (default) or "sqlite".
	Type string `yaml:"type" env:"STORAGE_TYPE" env-default:"memory"`

	// Path is the SQLite .db file. Required when Type is "sqlite".
	Path string `yaml:"path" env:"STORAGE_PATH"`

	// SkipSeed leaves an empty store empty instead of loading the fixed
	// starting records. cleanenv treats false as unset, hence the negation.
	SkipSeed bool `yaml:"skip_seed" env:"STORAGE_SKIP_SEED"`
}

// HTTPServer holds settings specific to the HTTP server.
// Nested under http_server: in the YAML file.
type HTTPServer struct {
	// Addr is the TCP address the server listens on, e.g. "localhost:1227".
	Addr string `yaml:"address" env:"HTTP_SERVER_ADDR" env-required:"true"`

	ReadTimeout  time.Duration `yaml:"read_timeout" env:"HTTP_SERVER_READ_TIMEOUT" env-default:"10s"`
	WriteTimeout time.Duration `yaml:"write_timeout" env:"HTTP_SERVER_WRITE_TIMEOUT" env-default:"10s"`
	IdleTimeout  time.Duration `yaml:"idle_timeout" env:"HTTP_SERVER_IDLE_TIMEOUT" env-default:"60s"`
}

// RateLimit configures the per-client token bucket. RPS 0 disables it.
type RateLimit struct {
	RPS   float64 `yaml:"rps" env:"RATE_LIMIT_RPS" env-default:"0"`
	Burst int     `yaml:"burst" env:"RATE_LIMIT_BURST" env-default:"20"`
}

// Load reads the YAML file at path, applies environment overrides and
// checks the result.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", path)
	}

	var cfg Config
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, fmt.Errorf("cannot read config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// MustLoad reads, validates, and returns the application config.
//
// Functions prefixed with "Must" are allowed to fatal on failure. If this
// function returns, the config is valid.
func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")

	if configPath == "" {
		flags := flag.String("config", "", "Path to the configuration YAML file")
		flag.Parse()
		configPath = *flags
	}

	if configPath == "" {
		log.Fatal("config path is not set: use --config flag or CONFIG_PATH env var")
	}

	cfg, err := Load(configPath)
	if err != nil {
		log.Fatal(err.Error())
	}

	return cfg
}

func (c *Config) validate() error {
	switch c.Storage.Type {
	case StorageMemory:
	case StorageSQLite:
		if c.Storage.Path == "" {
			return errors.New("storage.path is required for the sqlite backend")
		}
	default:
		return fmt.Errorf("unknown storage type %q", c.Storage.Type)
	}

	if c.RateLimit.RPS < 0 {
		return errors.New("rate_limit.rps must not be negative")
	}
	if c.RateLimit.RPS > 0 && c.RateLimit.Burst < 1 {
		return errors.New("rate_limit.burst must be at least 1 when rate limiting is enabled")
	}

	return nil
}
