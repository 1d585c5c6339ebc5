package main

import (
	"PixelRelay/internal/api"
	"PixelRelay/internal/api/handlers"
	"PixelRelay/internal/config"
	"PixelRelay/internal/db"
	"PixelRelay/internal/ledger"
	"PixelRelay/internal/logging"
	"PixelRelay/internal/relay"
	"PixelRelay/internal/staging"
	"PixelRelay/internal/storage"
	"PixelRelay/internal/web"
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("error loading .env: %v", err)
	}

	app := &cli.App{
		Name:  "pixelrelay",
		Usage: "Relay uploaded images to object storage",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   "config.yaml",
				Usage:   "path to the YAML config file",
				EnvVars: []string{"PIXELRELAY_CONFIG"},
			},
		},
		Action: serve,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Start the HTTP front end",
				Action: serve,
			},
			{
				Name:   "prune",
				Usage:  "Delete upload ledger records older than a given age",
				Action: prune,
				Flags: []cli.Flag{
					&cli.DurationFlag{
						Name:  "older-than",
						Value: 30 * 24 * time.Hour,
						Usage: "minimum age of records to delete",
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// bootstrap loads config with a temporary logger, then builds the configured
// one.
func bootstrap(c *cli.Context) (*config.Config, *zap.Logger, error) {
	bootLogger, err := zap.NewProduction()
	if err != nil {
		return nil, nil, fmt.Errorf("can't initialize zap logger: %w", err)
	}
	defer bootLogger.Sync()

	cfg, err := config.NewConfigLoader(bootLogger).Load(c.String("config"))
	if err != nil {
		return nil, nil, err
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

func openLedger(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*pgxpool.Pool, *ledger.Manager, error) {
	if cfg.Database.DSN == "" {
		return nil, nil, nil
	}
	if cfg.Database.Migrate {
		if err := db.Migrate(cfg.Database.DSN, logger); err != nil {
			return nil, nil, err
		}
	}
	pool, err := db.Connect(ctx, cfg.Database.DSN, logger)
	if err != nil {
		return nil, nil, err
	}
	return pool, ledger.NewManager(ledger.NewStore(pool), logger), nil
}

func serve(c *cli.Context) error {
	cfg, logger, err := bootstrap(c)
	if err != nil {
		return err
	}
	defer func(logger *zap.Logger) {
		if err := logger.Sync(); err != nil {
			log.Printf("error syncing logger: %v", err)
		}
	}(logger)

	ctx := c.Context

	store, err := storage.NewStorage(ctx, cfg.Storage, []string{cfg.Buckets.Source, cfg.Buckets.Destination}, logger)
	if err != nil {
		logger.Error("Failed to init storage", zap.Error(err))
		return err
	}

	area, err := staging.New(cfg.Staging.Dir)
	if err != nil {
		logger.Error("Failed to init staging area", zap.Error(err))
		return err
	}

	pool, manager, err := openLedger(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to init upload ledger", zap.Error(err))
		return err
	}

	// Keep the interfaces nil when the ledger is disabled.
	var recorder relay.Recorder
	var lookup handlers.UploadLookup
	if manager != nil {
		defer pool.Close()
		recorder = manager
		lookup = manager
	} else {
		logger.Info("Upload ledger disabled")
	}

	tmpl, err := web.ParseTemplates()
	if err != nil {
		logger.Error("Failed to parse templates", zap.Error(err))
		return err
	}

	svc := relay.NewService(store, area, cfg.Buckets, recorder, logger)
	server := api.NewServer(svc, lookup, tmpl, cfg, logger)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		logger.Error("HTTP server failed", zap.Error(err))
		return err
	case sig := <-quit:
		logger.Info("Shutting down", zap.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeoutSec)*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Forced shutdown", zap.Error(err))
		return err
	}

	logger.Info("Server stopped")
	return nil
}

func prune(c *cli.Context) error {
	cfg, logger, err := bootstrap(c)
	if err != nil {
		return err
	}
	defer logger.Sync()

	pool, manager, err := openLedger(c.Context, cfg, logger)
	if err != nil {
		return err
	}
	if manager == nil {
		return fmt.Errorf("database.dsn is not configured")
	}
	defer pool.Close()

	_, err = manager.Cleanup(c.Context, c.Duration("older-than"))
	return err
}
