// Package app wires configuration, storage, clients and services into the
// shared application core.
package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/xuanruli/apex-trade/internal/clients/alphavantage"
	"github.com/xuanruli/apex-trade/internal/common"
	"github.com/xuanruli/apex-trade/internal/interfaces"
	"github.com/xuanruli/apex-trade/internal/services/ledger"
	"github.com/xuanruli/apex-trade/internal/services/market"
	"github.com/xuanruli/apex-trade/internal/services/risk"
	"github.com/xuanruli/apex-trade/internal/services/valuation"
	"github.com/xuanruli/apex-trade/internal/storage"
)

// App holds all initialized services, clients, and storage. It is the
// shared core used by cmd/apex-server and the tests.
type App struct {
	Config           *common.Config
	Logger           *common.Logger
	Storage          interfaces.StorageManager
	MarketClient     interfaces.MarketDataClient
	LedgerService    interfaces.LedgerService
	ValuationService interfaces.ValuationService
	RiskService      interfaces.RiskService
	MarketService    interfaces.MarketService
	StartupTime      time.Time

	schedulerCancel context.CancelFunc
}

// getBinaryDir returns the directory containing the executable.
func getBinaryDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

// NewApp initializes storage, clients and services. configPath may be
// empty, in which case APEX_CONFIG and then the binary directory are tried.
func NewApp(configPath string) (*App, error) {
	binDir := getBinaryDir()

	if configPath == "" {
		configPath = os.Getenv("APEX_CONFIG")
	}
	if configPath == "" {
		configPath = filepath.Join(binDir, "apex.toml")
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			configPath = "config/apex.toml" // fallback for development
		}
	}

	config, err := common.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger := common.NewLogger(config.Logging.Level)

	storageManager, err := storage.NewStorageManager(logger, config)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	var marketClient interfaces.MarketDataClient
	if key := config.Clients.AlphaVantage.APIKey; key != "" {
		marketClient = alphavantage.NewClient(key,
			alphavantage.WithBaseURL(config.Clients.AlphaVantage.BaseURL),
			alphavantage.WithLogger(logger),
			alphavantage.WithRateLimit(config.Clients.AlphaVantage.RateLimit),
			alphavantage.WithTimeout(config.Clients.AlphaVantage.GetTimeout()),
		)
	} else {
		logger.Warn().Msg("Alpha Vantage API key not configured - price ingest will be unavailable")
	}

	marketService := market.NewService(marketClient, storageManager.MarketData(), logger)
	ledgerService := ledger.NewService(storageManager.Holdings(), storageManager.Transactions(), logger)
	valuationService := valuation.NewService(storageManager.Holdings(), marketService, logger)
	riskService := risk.NewService(storageManager.Holdings(), marketService, config.Risk, logger)

	a := &App{
		Config:           config,
		Logger:           logger,
		Storage:          storageManager,
		MarketClient:     marketClient,
		LedgerService:    ledgerService,
		ValuationService: valuationService,
		RiskService:      riskService,
		MarketService:    marketService,
		StartupTime:      time.Now(),
	}

	logger.Info().
		Str("environment", config.Environment).
		Str("version", common.GetVersion()).
		Msg("App initialized")
	return a, nil
}

// StartPriceScheduler launches the background refresh of daily bars for
// every held symbol. No-op when no market client is configured.
func (a *App) StartPriceScheduler() {
	if a.MarketClient == nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.schedulerCancel = cancel
	interval := a.Config.Clients.AlphaVantage.GetRefreshInterval()
	go startPriceScheduler(ctx, a.Storage.Holdings(), a.Storage.InternalStore(), a.MarketService, a.Logger, interval)
}

// Close stops background work and closes storage.
func (a *App) Close() {
	if a.schedulerCancel != nil {
		a.schedulerCancel()
	}
	if a.Storage != nil {
		if err := a.Storage.Close(); err != nil {
			a.Logger.Error().Err(err).Msg("Failed to close storage")
		}
	}
}
