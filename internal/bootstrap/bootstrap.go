// Package bootstrap builds the configured infrastructure shared by the
// HTTP server and the CLI.
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"

	"github.com/skinmatch/backend/config"
	"github.com/skinmatch/backend/internal/domain"
	"github.com/skinmatch/backend/internal/infrastructure/cache"
	"github.com/skinmatch/backend/internal/infrastructure/catalog"
	"github.com/skinmatch/backend/internal/infrastructure/logger"
	"github.com/skinmatch/backend/internal/infrastructure/persistence"
	"github.com/skinmatch/backend/internal/usecase"
)

const (
	redisKeyPrefix   = "skinmatch:"
	slowSQLThreshold = 200 * time.Millisecond
)

// CloseFunc releases a resource opened by this package
type CloseFunc func() error

func noopClose() error { return nil }

// OpenCatalog returns the catalog source selected by cfg.Catalog.Source,
// initialized and ready to serve
func OpenCatalog(ctx context.Context, cfg *config.Config, log *zap.Logger) (domain.CatalogSource, CloseFunc, error) {
	switch cfg.Catalog.Source {
	case config.CatalogSourceHTTP:
		h := cfg.Catalog.HTTP
		client := catalog.NewClient(catalog.ClientConfig{
			BaseURL:           h.BaseURL,
			APIKey:            h.APIKey,
			Collection:        h.Collection,
			Timeout:           h.Timeout,
			RequestsPerSecond: h.RequestsPerSecond,
			Burst:             h.Burst,
			MaxRetries:        h.MaxRetries,
		}, log)
		client.SetDebug(cfg.Matching.EnableDebugLogging)

		if err := client.Initialize(ctx); err != nil {
			return nil, nil, err
		}
		return client, client.Close, nil

	case config.CatalogSourceSQL:
		store, db, err := OpenProductStore(ctx, cfg.Catalog.Database, log)
		if err != nil {
			return nil, nil, err
		}
		return store, db.Close, nil

	case config.CatalogSourceFile:
		return catalog.NewFileSource(cfg.Catalog.File), noopClose, nil

	default:
		return nil, nil, fmt.Errorf("unsupported catalog source %q", cfg.Catalog.Source)
	}
}

// OpenProductStore connects to the SQL catalog and migrates the products table
func OpenProductStore(ctx context.Context, dbCfg config.DatabaseConfig, log *zap.Logger) (*persistence.ProductStore, *persistence.Database, error) {
	db, err := persistence.OpenWithLogger(persistence.DatabaseConfig{
		Driver:       dbCfg.Driver,
		DSN:          dbCfg.DSN,
		MaxOpenConns: dbCfg.MaxOpenConns,
		MaxIdleConns: dbCfg.MaxIdleConns,
	}, logger.NewGormLogger(log, gormlogger.Warn, slowSQLThreshold))
	if err != nil {
		return nil, nil, err
	}

	store := persistence.NewProductStore(db.DB)
	if err := store.AutoMigrate(ctx); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return store, db, nil
}

// OpenCache returns the snapshot cache selected by cfg.Cache.Type
func OpenCache(ctx context.Context, cfg *config.Config) (domain.SnapshotCache, CloseFunc, error) {
	switch cfg.Cache.Type {
	case "redis":
		rc, err := cache.NewRedisCache(ctx, cfg.Cache.RedisURL, redisKeyPrefix)
		if err != nil {
			return nil, nil, err
		}
		return rc, rc.Close, nil
	case "memory", "":
		mc := cache.NewMemoryCache()
		return mc, mc.Close, nil
	default:
		return nil, nil, fmt.Errorf("unsupported cache type %q", cfg.Cache.Type)
	}
}

// ServiceConfig maps application configuration onto the recommendation service
func ServiceConfig(cfg *config.Config) usecase.RecommendationServiceConfig {
	return usecase.RecommendationServiceConfig{
		SnapshotTTL:       cfg.Cache.TTL,
		MinDetectionScore: cfg.Matching.MinDetectionScore,
		Match: usecase.MatchConfig{
			SkincareCategory:   cfg.Matching.SkincareCategory,
			DefaultLimit:       cfg.Matching.DefaultLimit,
			MultiConcernLimit:  cfg.Matching.MultiLimit,
			EnableDebugLogging: cfg.Matching.EnableDebugLogging,
		},
	}
}
