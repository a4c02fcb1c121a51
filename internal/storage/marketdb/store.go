// Package marketdb persists daily close bars and serves the price oracle
// contract from local storage.
package marketdb

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/timshannon/badgerhold/v4"

	"github.com/xuanruli/apex-trade/internal/common"
	"github.com/xuanruli/apex-trade/internal/models"
)

const keySep = "\x00"

// Store implements interfaces.MarketDataStore using BadgerHold. Bars are
// keyed by (symbol, date) so re-ingesting a day is an idempotent overwrite.
type Store struct {
	db     *badgerhold.Store
	logger *common.Logger
}

// NewStore opens the market data store at the given directory path.
func NewStore(logger *common.Logger, path string) (*Store, error) {
	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, fmt.Errorf("failed to create market data path %s: %w", path, err)
	}
	opts := badgerhold.DefaultOptions
	opts.Dir = path
	opts.ValueDir = path
	opts.Logger = nil
	db, err := badgerhold.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open market data store at %s: %w", path, err)
	}
	logger.Debug().Str("path", path).Msg("Market data store opened")
	return &Store{db: db, logger: logger}, nil
}

func barKey(symbol string, date time.Time) string {
	return symbol + keySep + date.Format("2006-01-02")
}

// SaveBars upserts the given bars. Partial failure leaves earlier bars
// saved; ingest is idempotent so callers simply retry the whole batch.
func (s *Store) SaveBars(_ context.Context, bars []models.PriceBar) error {
	for i := range bars {
		bar := bars[i]
		if err := s.db.Upsert(barKey(bar.Symbol, bar.Date), &bar); err != nil {
			return fmt.Errorf("failed to save bar %s@%s: %w",
				bar.Symbol, bar.Date.Format("2006-01-02"), err)
		}
	}
	return nil
}

// History returns the symbol's bars from since onward, date ascending.
// An unknown symbol yields an empty series, not an error.
func (s *Store) History(_ context.Context, symbol string, since time.Time) ([]models.PriceBar, error) {
	var all []models.PriceBar
	if err := s.db.Find(&all, badgerhold.Where("Symbol").Eq(symbol)); err != nil {
		return nil, fmt.Errorf("failed to query bars for %s: %w", symbol, err)
	}
	var bars []models.PriceBar
	for _, bar := range all {
		if bar.Date.Before(since) {
			continue
		}
		bars = append(bars, bar)
	}
	sort.Slice(bars, func(i, j int) bool {
		return bars[i].Date.Before(bars[j].Date)
	})
	return bars, nil
}

// LatestClose returns the most recent close for the symbol. ok is false
// when no bar exists; that is a normal case, not an error.
func (s *Store) LatestClose(ctx context.Context, symbol string) (float64, bool, error) {
	bars, err := s.History(ctx, symbol, time.Time{})
	if err != nil {
		return 0, false, err
	}
	if len(bars) == 0 {
		return 0, false, nil
	}
	return bars[len(bars)-1].Close, true, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
