package interfaces

import (
	"context"
	"time"

	"github.com/xuanruli/apex-trade/internal/models"
)

// MarketDataClient fetches daily close series from the external market data
// provider. Implementations are read-only and idempotent, so calls may be
// issued concurrently across symbols without coordination.
type MarketDataClient interface {
	// GetDailySeries returns daily bars for symbol from since onward,
	// ordered by date ascending. Provider failures wrap models.ErrUpstream.
	GetDailySeries(ctx context.Context, symbol string, since time.Time) ([]models.PriceBar, error)
}
