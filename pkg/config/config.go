package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/JoaoClaudiano/gittree/pkg/cache"
)

// Config holds all gittree configuration.
type Config struct {
	Listen          string        `yaml:"listen"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	Cache           CacheConfig   `yaml:"cache"`
}

// CacheConfig controls the repository model cache.
// Backend is "sqlite" (default), "postgres" or "memory".
type CacheConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Backend       string `yaml:"backend"`
	DBPath        string `yaml:"db_path"`
	DSN           string `yaml:"dsn"`
	CapacityBytes int64  `yaml:"capacity_bytes"`
	Eviction      string `yaml:"eviction"`
	MaxEntries    int    `yaml:"max_entries"`
	Degraded      bool   `yaml:"degraded"`
}

// Cache backends.
const (
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// DefaultCapacityBytes is the default cache budget (5 MiB).
const DefaultCapacityBytes = 5 * 1024 * 1024

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Listen:          ":8080",
		ShutdownTimeout: 5 * time.Second,
		Cache: CacheConfig{
			Enabled:       true,
			Backend:       BackendSQLite,
			DBPath:        "gittree.db",
			CapacityBytes: DefaultCapacityBytes,
			Eviction:      string(cache.EvictNone),
			MaxEntries:    1024,
		},
	}
}

// Load reads a YAML config file and expands environment variables.
// Variables from a .env file in the working directory are loaded first;
// a missing .env is not an error.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks field combinations that YAML decoding cannot. It
// normalizes cache.backend to its lowercase name.
func (c *Config) Validate() error {
	if _, err := cache.ParseEviction(c.Cache.Eviction); err != nil {
		return fmt.Errorf("config cache.eviction: %w", err)
	}
	if c.Cache.CapacityBytes < 0 {
		return fmt.Errorf("config cache.capacity_bytes: must not be negative")
	}
	if c.Cache.MaxEntries < 0 {
		return fmt.Errorf("config cache.max_entries: must not be negative")
	}
	c.Cache.Backend = strings.ToLower(strings.TrimSpace(c.Cache.Backend))
	if c.Cache.Backend == "" {
		c.Cache.Backend = BackendSQLite
	}
	switch c.Cache.Backend {
	case BackendSQLite:
		if c.Cache.Enabled && c.Cache.DBPath == "" {
			return fmt.Errorf("config cache.db_path: required for the sqlite backend")
		}
	case BackendPostgres:
		if c.Cache.Enabled && c.Cache.DSN == "" {
			return fmt.Errorf("config cache.dsn: required for the postgres backend")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("config cache.backend: unknown backend %q", c.Cache.Backend)
	}
	return nil
}
