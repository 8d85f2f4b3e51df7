package main

import (
	"context"
	"fmt"
	"os"

	"nadlan/internal/cache"
	"nadlan/internal/config"
	"nadlan/internal/database"
	"nadlan/internal/logger"
	"nadlan/internal/server"
)

// @title           Nadlan API
// @version         1.0
// @description     Real-estate investment analysis for advisors and their investors.

// @host      localhost:8080
// @BasePath  /api

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the access token.

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key

func main() {
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	dbManager, err := database.NewManager(database.NewConfig(cfg))
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}
	defer func() {
		if err := dbManager.Close(); err != nil {
			log.Warnf("database close error: %v", err)
		}
	}()

	if err := dbManager.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	store, err := cache.Connect(context.Background(), cfg.RedisURL, cfg.CacheTTL)
	if err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	if store != nil {
		defer func() { _ = store.Close() }()
	} else {
		log.Info("REDIS_URL not set, running without cache")
	}

	router := server.New(dbManager.DB(), store, cfg)

	log.Infof("Starting Nadlan API on port %s", cfg.Port)
	log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", cfg.Port)
	return router.Run(":" + cfg.Port)
}
