package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"voipshop/internal/catalog"
	"voipshop/internal/config"
	"voipshop/internal/db"
	catalogrepo "voipshop/internal/repository/catalog"
	"voipshop/internal/seed"
)

func main() {
	base, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	logger := base.Named("seed")

	err = run(logger)
	if err != nil {
		logger.Error("seed failed", zap.Error(err))
	}
	_ = logger.Sync()
	if err != nil {
		os.Exit(1)
	}
}

func run(logger *zap.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString, logger)
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}
	defer pool.Close()

	cat := catalog.Default()
	if cfg.CatalogFile != "" {
		cat, err = catalog.LoadFile(cfg.CatalogFile)
		if err != nil {
			return fmt.Errorf("load catalog file %s: %w", cfg.CatalogFile, err)
		}
	}

	if err := seed.Apply(ctx, catalogrepo.NewPostgres(pool, logger), cat); err != nil {
		return fmt.Errorf("seed apply: %w", err)
	}

	logger.Info("seed applied", zap.Int("entries", len(cat.Entries())), zap.Int("aliases", len(cat.Aliases())))
	return nil
}
