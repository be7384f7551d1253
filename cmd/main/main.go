package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"stock-stream/src/auth"
	"stock-stream/src/config"
	"stock-stream/src/interfaces"
	"stock-stream/src/logger"
	"stock-stream/src/models"
	"stock-stream/src/network"
	"stock-stream/src/quotes"
	"stock-stream/src/scheduler"
	"stock-stream/src/server"
	"stock-stream/src/storage"
	"stock-stream/src/subscription"
	"stock-stream/src/utils"
)

// -----------------------------------------------------------------------------

func main() {

	// Parse command line flags
	configPath := flag.String("config", "../../config/default.yaml", "path to config file")
	flag.Parse()

	// Load config from YAML file
	cfg, err := config.NewConfig(*configPath)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	// Setup logger
	appLogger := logger.NewLogger(cfg.LogLevel, cfg.Name)

	// 1. Storage
	var store interfaces.IQuoteStore

	switch cfg.Storage.DBType {
	case "postgres":
		store, err = storage.NewPostgresStore(cfg.MConfig, appLogger)
	default:
		// Default to SQLite
		store, err = storage.NewSQLiteStore(cfg.MConfig, appLogger)
	}

	if err != nil {
		appLogger.Critical("Failed to init store: %v", err)
	}
	if err := store.Initialize(); err != nil {
		appLogger.Critical("Failed to migrate store: %v", err)
	}
	defer store.Close()

	// 2. Quote providers behind the fetch adapter
	netMgr := network.NewNetworkManager(cfg.MConfig, appLogger)

	primary := buildProvider(cfg.Quotes.Primary, netMgr, appLogger)
	if primary == nil {
		appLogger.Critical("Unsupported primary provider: %s", cfg.Quotes.Primary.Name)
	}
	secondary := buildProvider(cfg.Quotes.Secondary, netMgr, appLogger)

	fetcher := quotes.NewFetcher(primary, secondary, cfg.Quotes, appLogger)

	// 3. Core: registry + scheduler
	registry := subscription.NewRegistry(cfg.Stream.MaxSymbolsPerConnection, appLogger)

	interval := time.Duration(cfg.Stream.UpdateIntervalSeconds) * time.Second
	sched := scheduler.NewScheduler(interval, registry, fetcher, nil, store, appLogger)

	// 4. Server (lifecycle manager + fan-out)
	verifier := auth.NewVerifier(cfg.Auth.Secret)
	market := utils.NewMarketHours(appLogger)
	srv := server.NewServer(cfg.MConfig, appLogger, registry, sched, fetcher, verifier, store, market)

	// The scheduler broadcasts through the server's fan-out; bind it now
	// that both exist.
	sched.Sink = srv

	go func() {
		if err := srv.Start(); err != nil {
			appLogger.Critical("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down...")
	srv.Stop()
	sched.Shutdown()
}

// -----------------------------------------------------------------------------

func buildProvider(cfg models.MProviderConfig, netMgr interfaces.INetworkManager, log *logger.Logger) interfaces.IQuoteProvider {
	switch cfg.Name {
	case "yahoo":
		return quotes.NewYahooProvider(cfg, netMgr, log)
	case "finnhub":
		return quotes.NewFinnhubProvider(cfg, netMgr, log)
	default:
		return nil
	}
}
