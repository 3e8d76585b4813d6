package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gymcore/internal/clock"
	"gymcore/internal/config"
	"gymcore/internal/db"
	"gymcore/internal/email"
	"gymcore/internal/logger"
	"gymcore/internal/server"
	"gymcore/internal/usage"
)

// @title GymCore API
// @version 1.0
// @description Gym membership lifecycle, plan entitlements and personal training bookings.
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	logger.Init()
	logger.Info("Starting GymCore")

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	opts := db.Options{PostgresURL: cfg.DatabaseURL, MigrationsPath: "migrations"}
	if cfg.UsageStore == config.UsageStoreMongo {
		opts.MongoURI = cfg.MongoURI
		opts.MongoDatabase = cfg.MongoDB
	}
	stores, err := db.Open(ctx, opts)
	if err != nil {
		logger.Fatalf("Failed to open stores: %v", err)
	}
	defer func() {
		if err := stores.Close(context.Background()); err != nil {
			logger.WithError(err).Warn("closing stores")
		}
	}()
	logger.Info("Stores ready", "usage_store", cfg.UsageStore)

	clk := clock.System()
	usageRepo, err := openUsageStore(ctx, stores, clk)
	if err != nil {
		logger.Fatalf("Failed to open usage store: %v", err)
	}

	emailService := email.New(email.Config{
		From:     cfg.EmailFrom,
		FromName: cfg.EmailFromName,
		SMTPHost: cfg.SMTPHost,
		SMTPPort: cfg.SMTPPort,
		SMTPUser: cfg.SMTPUser,
		SMTPPass: cfg.SMTPPass,
	}, cfg.RedisAddr)
	defer emailService.Close()
	go emailService.Start(ctx)

	srv := server.New(cfg, server.Deps{
		DB:    stores.SQL,
		Usage: usageRepo,
		Email: emailService,
		Clock: clk,
	})

	serverErr := make(chan error, 1)
	go func() {
		logger.Infof("Server starting on port %s", cfg.Port)
		serverErr <- srv.Start()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Infof("Received signal: %v", sig)
	case err := <-serverErr:
		if err != nil {
			logger.Errorf("Server error: %v", err)
		}
	}

	logger.Info("Shutting down gracefully...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Error during server shutdown: %v", err)
	}

	logger.Info("Server stopped")
}

// openUsageStore picks the ledger backend: Mongo when it was connected,
// PostgreSQL otherwise.
func openUsageStore(ctx context.Context, stores *db.Stores, clk clock.Clock) (usage.Repository, error) {
	if stores.Mongo == nil {
		return usage.NewRepository(stores.SQL), nil
	}

	col := stores.Mongo.Collection(usage.CollectionName)
	if err := usage.EnsureIndexes(ctx, col); err != nil {
		return nil, err
	}
	return usage.NewMongoRepository(col, clk), nil
}
