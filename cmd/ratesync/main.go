package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"nadlan/internal/config"
	"nadlan/internal/logger"
	"nadlan/internal/rates"
)

func main() {
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Rate sync failed: %v", err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if cfg.PipelineAPIKey == "" {
		return fmt.Errorf("PIPELINE_API_KEY is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	syncer := rates.NewSyncer(
		rates.NewForexConverter(httpClient, cfg.RatesQuoteCurrency),
		rates.NewSettingsClient(cfg.APIURL, cfg.PipelineAPIKey, httpClient),
		cfg.RatesBaseCurrency,
		logger.Named("rates"),
	)

	_, err = syncer.Run(ctx)
	return err
}
