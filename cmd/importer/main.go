package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"voipshop/internal/config"
	"voipshop/internal/db"
	"voipshop/internal/importer"
	catalogrepo "voipshop/internal/repository/catalog"
)

func main() {
	var filePath string
	flag.StringVar(&filePath, "file", "", "Path to the catalog price list CSV")
	flag.Parse()

	if filePath == "" {
		flag.Usage()
		os.Exit(2)
	}

	base, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	logger := base.Named("importer")

	err = run(logger, filePath)
	if err != nil {
		logger.Error("importer failed", zap.Error(err))
	}
	_ = logger.Sync()
	if err != nil {
		os.Exit(1)
	}
}

func run(logger *zap.Logger, filePath string) error {
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

	f, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("open %s: %w", filePath, err)
	}
	defer f.Close()

	imp := importer.NewCSVImporter(f, catalogrepo.NewPostgres(pool, logger), logger)

	start := time.Now()
	res, err := imp.Run(ctx)
	if err != nil {
		return fmt.Errorf("import stopped after %d entries: %w", res.Entries, err)
	}

	fmt.Printf("Imported %d entries and %d aliases in %s\n", res.Entries, res.Aliases, time.Since(start).Truncate(time.Millisecond))
	return nil
}
