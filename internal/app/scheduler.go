package app

import (
	"context"
	"time"

	"github.com/xuanruli/apex-trade/internal/common"
	"github.com/xuanruli/apex-trade/internal/interfaces"
)

// LastRefreshKey is the system KV entry recording when the scheduler last
// completed a refresh pass. The health endpoint surfaces it.
const LastRefreshKey = "market.last_refresh"

// startPriceScheduler refreshes daily bars on a fixed interval for every
// symbol currently held by any account. Trades never wait on this loop;
// valuation reads whatever the store has.
func startPriceScheduler(ctx context.Context, holdings interfaces.HoldingStore, internal interfaces.InternalStore, marketService interfaces.MarketService, logger *common.Logger, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("Price scheduler: stopped")
			return
		case <-ticker.C:
			refreshPrices(ctx, holdings, internal, marketService, logger)
		}
	}
}

func refreshPrices(ctx context.Context, holdings interfaces.HoldingStore, internal interfaces.InternalStore, marketService interfaces.MarketService, logger *common.Logger) {
	start := time.Now()

	symbols, err := holdings.DistinctSymbols(ctx)
	if err != nil {
		logger.Warn().Err(err).Msg("Price refresh: failed to collect held symbols")
		return
	}
	if len(symbols) == 0 {
		return
	}

	if err := marketService.RefreshSymbols(ctx, symbols); err != nil {
		logger.Warn().Err(err).Msg("Price refresh: some symbols failed")
	}

	if err := internal.SetSystemKV(ctx, LastRefreshKey, time.Now().UTC().Format(time.RFC3339)); err != nil {
		logger.Warn().Err(err).Msg("Price refresh: failed to record refresh time")
	}

	logger.Info().
		Int("symbols", len(symbols)).
		Dur("elapsed", time.Since(start)).
		Msg("Price refresh: complete")
}
