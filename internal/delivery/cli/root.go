// Package cli implements the skinmatch command line tool.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/skinmatch/backend/config"
	"github.com/skinmatch/backend/internal/bootstrap"
	"github.com/skinmatch/backend/internal/infrastructure/logger"
	"github.com/skinmatch/backend/internal/usecase"
)

var (
	cfgFile     string
	catalogFile string
	verbose     bool
	outputJSON  bool
)

var rootCmd = &cobra.Command{
	Use:   "skinmatch",
	Short: "Skin concern to product matching",
	Long: `skinmatch ranks skincare products against detected skin concerns
using the same engine as the SkinMatch API.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml)")
	rootCmd.PersistentFlags().StringVar(&catalogFile, "catalog-file", "", "read the catalog from a JSON export instead of the configured source")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log matching details to stderr")
	rootCmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "output results as JSON")
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// session is the configured engine behind one command invocation
type session struct {
	cfg     *config.Config
	log     *zap.Logger
	service *usecase.RecommendationService
	closers []bootstrap.CloseFunc
}

func (s *session) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			s.log.Warn("failed to release resource", zap.Error(err))
		}
	}
	_ = s.log.Sync()
}

// loadConfig reads configuration. Unless overrides pick a catalog source,
// --catalog-file points the catalog at a JSON export.
func loadConfig(overrides map[string]any) (*config.Config, error) {
	if overrides == nil {
		overrides = map[string]any{}
	}
	if _, set := overrides["catalog.source"]; !set && catalogFile != "" {
		overrides["catalog.source"] = config.CatalogSourceFile
		overrides["catalog.file"] = catalogFile
	}
	return config.LoadWithOverrides(cfgFile, overrides)
}

// newCLILogger logs to stderr so stdout stays parseable
func newCLILogger() (*zap.Logger, error) {
	level := "warn"
	if verbose {
		level = "debug"
	}
	return logger.New(logger.Config{Level: level, Format: "console", Output: "stderr"})
}

// openSession loads configuration and wires the recommendation service
func openSession(ctx context.Context) (*session, error) {
	cfg, err := loadConfig(nil)
	if err != nil {
		return nil, err
	}
	if verbose {
		cfg.Matching.EnableDebugLogging = true
	}

	log, err := newCLILogger()
	if err != nil {
		return nil, err
	}

	source, closeCatalog, err := bootstrap.OpenCatalog(ctx, cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}

	// one-shot process: every command fetches the catalog at most once, so no snapshot cache
	service := usecase.NewRecommendationService(source, nil, bootstrap.ServiceConfig(cfg), log)

	return &session{
		cfg:     cfg,
		log:     log,
		service: service,
		closers: []bootstrap.CloseFunc{closeCatalog},
	}, nil
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
