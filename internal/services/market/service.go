// Package market ingests provider price data into the market store and
// serves price reads.
package market

import (
	"context"
	"fmt"
	"time"

	"github.com/xuanruli/apex-trade/internal/common"
	"github.com/xuanruli/apex-trade/internal/interfaces"
	"github.com/xuanruli/apex-trade/internal/models"
)

// historyYears is how far back a first-time ingest reaches.
const historyYears = 1

// Service implements interfaces.MarketService.
type Service struct {
	client interfaces.MarketDataClient
	store  interfaces.MarketDataStore
	logger *common.Logger
}

// NewService creates a new market data service. client may be nil when no
// API key is configured; refreshes then fail with ErrUpstream while reads
// keep working from whatever the store already has.
func NewService(client interfaces.MarketDataClient, store interfaces.MarketDataStore, logger *common.Logger) *Service {
	return &Service{client: client, store: store, logger: logger}
}

// RefreshSymbol fetches the symbol's daily series and persists it.
func (s *Service) RefreshSymbol(ctx context.Context, symbol string) error {
	if s.client == nil {
		return fmt.Errorf("%w: no market data client configured", models.ErrUpstream)
	}

	since := time.Now().AddDate(-historyYears, 0, 0)
	bars, err := s.client.GetDailySeries(ctx, symbol, since)
	if err != nil {
		return fmt.Errorf("failed to fetch series for %s: %w", symbol, err)
	}
	if len(bars) == 0 {
		s.logger.Warn().Str("symbol", symbol).Msg("Provider returned no bars")
		return nil
	}

	if err := s.store.SaveBars(ctx, bars); err != nil {
		return fmt.Errorf("failed to save bars for %s: %w", symbol, err)
	}

	s.logger.Info().Str("symbol", symbol).Int("bars", len(bars)).Msg("Market data refreshed")
	return nil
}

// RefreshSymbols refreshes each symbol, continuing past per-symbol
// failures and reporting the first error at the end.
func (s *Service) RefreshSymbols(ctx context.Context, symbols []string) error {
	var firstErr error
	for _, symbol := range symbols {
		if err := s.RefreshSymbol(ctx, symbol); err != nil {
			s.logger.Warn().Err(err).Str("symbol", symbol).Msg("Symbol refresh failed")
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// LatestClose serves the price oracle read from local storage.
func (s *Service) LatestClose(ctx context.Context, symbol string) (float64, bool, error) {
	return s.store.LatestClose(ctx, symbol)
}

// History serves the history read from local storage.
func (s *Service) History(ctx context.Context, symbol string, since time.Time) ([]models.PriceBar, error) {
	return s.store.History(ctx, symbol, since)
}
