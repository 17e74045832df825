package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/skinmatch/backend/config"
	"github.com/skinmatch/backend/internal/bootstrap"
	httpDelivery "github.com/skinmatch/backend/internal/delivery/http"
	"github.com/skinmatch/backend/internal/infrastructure/logger"
	"github.com/skinmatch/backend/internal/usecase"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zapLogger, err := newLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = zapLogger.Sync() }()

	if err := run(cfg, zapLogger); err != nil {
		zapLogger.Error("Server stopped with error", zap.Error(err))
		_ = zapLogger.Sync()
		os.Exit(1)
	}
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	logCfg := logger.DefaultConfig()
	if cfg.Server.Environment == "production" {
		logCfg = logger.ProductionConfig()
	}
	if cfg.Logging.Format != "" {
		logCfg.Format = cfg.Logging.Format
	}
	if cfg.Logging.Level != "" {
		logCfg.Level = cfg.Logging.Level
	}
	return logger.New(logCfg)
}

func run(cfg *config.Config, zapLogger *zap.Logger) error {
	zapLogger.Info("Starting SkinMatch Backend v1.0.0",
		zap.String("environment", cfg.Server.Environment),
		zap.String("port", cfg.Server.Port),
		zap.String("catalog_source", cfg.Catalog.Source),
		zap.String("cache_type", cfg.Cache.Type),
		zap.Duration("cache_ttl", cfg.Cache.TTL),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize infrastructure dependencies
	source, closeCatalog, err := bootstrap.OpenCatalog(ctx, cfg, zapLogger)
	if err != nil {
		return fmt.Errorf("failed to open catalog: %w", err)
	}
	defer closeResource(zapLogger, "catalog", closeCatalog)

	snapshotCache, closeCache, err := bootstrap.OpenCache(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to open cache: %w", err)
	}
	defer closeResource(zapLogger, "cache", closeCache)

	// Initialize usecase layer
	service := usecase.NewRecommendationService(source, snapshotCache, bootstrap.ServiceConfig(cfg), zapLogger)

	zapLogger.Info("Matching configured",
		zap.Int("default_limit", cfg.Matching.DefaultLimit),
		zap.Int("multi_limit", cfg.Matching.MultiLimit),
		zap.String("skincare_category", cfg.Matching.SkincareCategory),
		zap.Float64("min_detection_score", cfg.Matching.MinDetectionScore),
		zap.Bool("debug", cfg.Matching.EnableDebugLogging),
	)

	handler := httpDelivery.NewHandler(service)
	router := httpDelivery.SetupRouter(cfg, handler, zapLogger)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		zapLogger.Info("Server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	zapLogger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	zapLogger.Info("Server stopped")
	return nil
}

func closeResource(zapLogger *zap.Logger, name string, closeFn bootstrap.CloseFunc) {
	if err := closeFn(); err != nil {
		zapLogger.Warn("Failed to close resource", zap.String("resource", name), zap.Error(err))
	}
}
