// Package models defines data structures for Apex Trade.
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Holding is one account's position in a single symbol under the
// weighted-average cost method. A holding with zero shares is never stored;
// selling a position down to zero deletes it.
type Holding struct {
	AccountID string          `json:"account_id"`
	Symbol    string          `json:"symbol"`
	Shares    decimal.Decimal `json:"shares"`
	CostBasis decimal.Decimal `json:"cost_basis"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// AvgCost returns cost basis per share, or zero when no shares are held.
func (h Holding) AvgCost() decimal.Decimal {
	if h.Shares.IsZero() {
		return decimal.Zero
	}
	return h.CostBasis.Div(h.Shares)
}

// PortfolioSummary aggregates an account's holdings against latest prices.
// Symbols without an available price still contribute shares and cost but
// add nothing to TotalValue.
type PortfolioSummary struct {
	AccountID      string  `json:"account_id"`
	TotalShares    float64 `json:"total_shares"`
	TotalCost      float64 `json:"total_cost"`
	TotalValue     float64 `json:"total_value"`
	TotalPL        float64 `json:"total_pl"`
	TotalPLPercent float64 `json:"total_pl_percent"`
}

// HoldingDetail is the per-symbol valuation row. Symbols without an
// available price are omitted from the detail listing entirely.
type HoldingDetail struct {
	Symbol        string  `json:"symbol"`
	Shares        float64 `json:"shares"`
	AvgCost       float64 `json:"avg_cost"`
	CostBasis     float64 `json:"cost_basis"`
	CurrentPrice  float64 `json:"current_price"`
	MarketValue   float64 `json:"market_value"`
	GainLoss      float64 `json:"gain_loss"`
	PercentChange float64 `json:"percent_change"`
}
