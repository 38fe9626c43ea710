package main

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/JoaoClaudiano/gittree/pkg/cache"
	"github.com/JoaoClaudiano/gittree/pkg/cache/memory"
	"github.com/JoaoClaudiano/gittree/pkg/cache/sqlstore"
	"github.com/JoaoClaudiano/gittree/pkg/config"
	"github.com/JoaoClaudiano/gittree/pkg/repomodel"
)

const defaultConfigPath = "gittree.yaml"

// loadConfig reads the config file. A missing file at the default path
// yields the defaults.
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		if path == defaultConfigPath && errors.Is(err, fs.ErrNotExist) {
			return config.Default(), nil
		}
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// openStore opens the configured cache backend. It returns a nil store when
// caching is disabled.
func openStore(cfg config.CacheConfig) (cache.Store, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	eviction, err := cache.ParseEviction(cfg.Eviction)
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case config.BackendMemory:
		s, err := memory.New(memory.Config{
			MaxEntries:    cfg.MaxEntries,
			CapacityBytes: cfg.CapacityBytes,
			Eviction:      eviction,
		})
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.BackendPostgres:
		return openSQL(sqlstore.DialectPostgres, cfg.DSN, cfg.CapacityBytes, eviction)
	case config.BackendSQLite, "":
		return openSQL(sqlstore.DialectSQLite, cfg.DBPath, cfg.CapacityBytes, eviction)
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}

func openSQL(dialect sqlstore.Dialect, dsn string, capacity int64, eviction cache.Eviction) (cache.Store, error) {
	s, err := sqlstore.Open(sqlstore.Config{
		Dialect:       dialect,
		DSN:           dsn,
		CapacityBytes: capacity,
		Eviction:      eviction,
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

// openService loads the config and wires the model service to its store.
// The returned close function releases the store.
func openService(configPath string, noCache bool) (*config.Config, *repomodel.Service, func(), error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, nil, nil, err
	}
	if noCache {
		cfg.Cache.Enabled = false
	}
	store, err := openStore(cfg.Cache)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("init cache: %w", err)
	}
	closeFn := func() {}
	if store != nil {
		closeFn = func() { _ = store.Close() }
	}
	return cfg, repomodel.New(store, repomodel.WithDegraded(cfg.Cache.Degraded)), closeFn, nil
}
