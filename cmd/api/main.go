package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"voipshop/internal/catalog"
	"voipshop/internal/config"
	"voipshop/internal/db"
	"voipshop/internal/httpserver"
	"voipshop/internal/quoteapi"
	catalogrepo "voipshop/internal/repository/catalog"
	"voipshop/internal/service/storefront"
	"voipshop/internal/state"
)

func main() {
	base, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	logger := base.Named("api")

	err = run(logger)
	if err != nil {
		logger.Error("api stopped with error", zap.Error(err))
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

	var pool *pgxpool.Pool
	if cfg.NeedsDB() {
		pool, err = db.Connect(ctx, cfg.DBConnString, logger)
		if err != nil {
			return fmt.Errorf("connect to db: %w", err)
		}
		defer pool.Close()
	}

	cat, err := loadCatalog(ctx, cfg, pool, logger)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}

	store, closeStore, err := openStore(ctx, cfg, pool, logger)
	if err != nil {
		return fmt.Errorf("open state store: %w", err)
	}
	defer closeStore()

	quotes := quoteapi.New(quoteapi.Options{
		BaseURL:      cfg.QuoteAPIBase,
		OrderTimeout: cfg.OrderTimeout,
		QuoteTimeout: cfg.QuoteTimeout,
		Logger:       logger,
	})
	svc := storefront.New(cat, store, quotes, storefront.Options{
		Billing:     cfg.Billing,
		MaxQuantity: cfg.MaxHardwareQty,
		Logger:      logger,
	})

	srv, err := httpserver.New(cfg.HTTPAddr, logger, httpserver.Deps{
		Storefront:     svc,
		AllowedOrigins: cfg.AllowedOrigins,
	})
	if err != nil {
		return fmt.Errorf("init server: %w", err)
	}

	serverErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	var runErr error
	select {
	case sig := <-stopCh:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	case runErr = <-serverErr:
		runErr = fmt.Errorf("serve: %w", runErr)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Join(runErr, fmt.Errorf("graceful shutdown: %w", err))
	}
	logger.Info("server stopped")
	return runErr
}

func loadCatalog(ctx context.Context, cfg config.Config, pool *pgxpool.Pool, logger *zap.Logger) (*catalog.Catalog, error) {
	switch {
	case cfg.CatalogSource == config.CatalogPostgres:
		cat, err := catalogrepo.Load(ctx, catalogrepo.NewPostgres(pool, logger))
		if err != nil {
			return nil, err
		}
		logger.Info("catalog loaded from postgres", zap.Int("entries", len(cat.Entries())))
		return cat, nil
	case cfg.CatalogFile != "":
		cat, err := catalog.LoadFile(cfg.CatalogFile)
		if err != nil {
			return nil, err
		}
		logger.Info("catalog loaded from file", zap.String("path", cfg.CatalogFile), zap.Int("entries", len(cat.Entries())))
		return cat, nil
	default:
		return catalog.Default(), nil
	}
}

func openStore(ctx context.Context, cfg config.Config, pool *pgxpool.Pool, logger *zap.Logger) (state.Store, func(), error) {
	switch cfg.StateBackend {
	case config.StatePostgres:
		return state.NewPostgres(pool, logger), func() {}, nil
	case config.StateRedis:
		client, err := state.Connect(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		return state.NewRedis(client, cfg.StateTTL), func() { _ = client.Close() }, nil
	default:
		logger.Warn("using in-memory state store; carts are lost on restart")
		return state.NewMemory(), func() {}, nil
	}
}
