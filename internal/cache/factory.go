package cache

import (
	"path/filepath"

	"github.com/socialmapper/socialmapper/internal/config"
	"github.com/socialmapper/socialmapper/internal/errs"
)

// New builds the configured cache strategy.
func New(cfg config.Config) (Cache, error) {
	switch cfg.CacheStrategy {
	case config.CacheNone:
		return NewNoop(), nil
	case config.CacheMemory:
		return NewMemory(), nil
	case config.CacheFile:
		store, err := NewSQLiteStore(filepath.Join(cfg.CacheDir, "cache.db"), cfg.MaxCacheFiles, cfg.MaxCacheBytes)
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.CacheHybrid:
		store, err := NewSQLiteStore(filepath.Join(cfg.CacheDir, "cache.db"), cfg.MaxCacheFiles, cfg.MaxCacheBytes)
		if err != nil {
			return nil, err
		}
		return NewHybrid(store), nil
	default:
		return nil, errs.New(errs.KindConfiguration, "cache", "unknown cache strategy")
	}
}
