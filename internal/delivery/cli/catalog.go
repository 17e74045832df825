package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/skinmatch/backend/config"
	"github.com/skinmatch/backend/internal/bootstrap"
	"github.com/skinmatch/backend/internal/domain"
	"github.com/skinmatch/backend/internal/infrastructure/catalog"
	"github.com/skinmatch/backend/internal/usecase"
)

var (
	importDriver string
	importDSN    string
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Manage the SQL product catalog",
}

var catalogImportCmd = &cobra.Command{
	Use:   "import [file.json]",
	Short: "Import a JSON catalog export into the SQL store",
	Long: `Reads a JSON array of product documents and upserts them into the
products table, creating it when needed. Products are matched by id.
When the service shares a redis snapshot cache, the cached catalog is
cleared so the next request sees the import.`,
	Args: cobra.ExactArgs(1),
	RunE: runCatalogImport,
}

func init() {
	catalogImportCmd.Flags().StringVar(&importDriver, "driver", "", "database driver (postgres or sqlite), overrides configuration")
	catalogImportCmd.Flags().StringVar(&importDSN, "dsn", "", "database DSN, overrides configuration")
	catalogCmd.AddCommand(catalogImportCmd)
	rootCmd.AddCommand(catalogCmd)
}

func runCatalogImport(cmd *cobra.Command, args []string) error {
	docs, err := catalog.ReadDocuments(args[0])
	if err != nil {
		return err
	}
	products := catalog.MapToProducts(docs)

	overrides := map[string]any{"catalog.source": config.CatalogSourceSQL}
	if importDriver != "" {
		overrides["catalog.database.driver"] = importDriver
	}
	if importDSN != "" {
		overrides["catalog.database.dsn"] = importDSN
	}
	cfg, err := loadConfig(overrides)
	if err != nil {
		return err
	}

	log, err := newCLILogger()
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx := cmd.Context()
	store, db, err := bootstrap.OpenProductStore(ctx, cfg.Catalog.Database, log)
	if err != nil {
		return fmt.Errorf("failed to open catalog database: %w", err)
	}
	defer db.Close()

	n, err := store.Upsert(ctx, products)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Imported %d products\n", n)

	if cfg.Cache.Type == "redis" {
		if err := clearSharedSnapshot(ctx, cfg, store, log); err != nil {
			log.Warn("failed to clear cached catalog snapshot", zap.Error(err))
			fmt.Fprintf(cmd.ErrOrStderr(), "Warning: could not clear cached catalog snapshot: %v\n", err)
		} else {
			fmt.Fprintln(cmd.OutOrStdout(), "Cleared cached catalog snapshot")
		}
	}
	return nil
}

// clearSharedSnapshot drops the snapshot a running service may still be
// serving. A memory cache lives in the service process and is left alone.
func clearSharedSnapshot(ctx context.Context, cfg *config.Config, source domain.CatalogSource, log *zap.Logger) error {
	snapshots, closeCache, err := bootstrap.OpenCache(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeCache()

	service := usecase.NewRecommendationService(source, snapshots, bootstrap.ServiceConfig(cfg), log)
	return service.InvalidateCatalog(ctx)
}
