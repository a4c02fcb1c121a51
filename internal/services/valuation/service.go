// Package valuation computes portfolio value and unrealized P&L from
// current holdings and latest close prices.
package valuation

import (
	"context"
	"fmt"

	"github.com/xuanruli/apex-trade/internal/common"
	"github.com/xuanruli/apex-trade/internal/interfaces"
	"github.com/xuanruli/apex-trade/internal/models"
)

// Service implements interfaces.ValuationService. It is stateless: every
// call re-reads holdings and prices.
type Service struct {
	holdings interfaces.HoldingStore
	prices   interfaces.PriceSource
	logger   *common.Logger
}

// NewService creates a new valuation service.
func NewService(holdings interfaces.HoldingStore, prices interfaces.PriceSource, logger *common.Logger) *Service {
	return &Service{holdings: holdings, prices: prices, logger: logger}
}

// Summary aggregates the account's holdings. A symbol without an available
// price contributes zero to total value but still counts its shares and
// cost, so totals never silently shrink when price data lags.
func (s *Service) Summary(ctx context.Context, accountID string) (*models.PortfolioSummary, error) {
	holdings, err := s.holdings.ListByAccount(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to load holdings: %w", err)
	}

	summary := &models.PortfolioSummary{AccountID: accountID}
	for _, h := range holdings {
		price, ok, err := s.prices.LatestClose(ctx, h.Symbol)
		if err != nil {
			return nil, fmt.Errorf("%w: latest close for %s: %v", models.ErrUpstream, h.Symbol, err)
		}

		shares := h.Shares.InexactFloat64()
		summary.TotalShares += shares
		summary.TotalCost += h.CostBasis.InexactFloat64()
		if ok {
			summary.TotalValue += shares * price
		}
	}

	summary.TotalPL = summary.TotalValue - summary.TotalCost
	if summary.TotalCost != 0 {
		summary.TotalPLPercent = summary.TotalPL / summary.TotalCost * 100
	}

	s.logger.Debug().
		Str("account", accountID).
		Float64("total_value", summary.TotalValue).
		Float64("total_pl", summary.TotalPL).
		Msg("Portfolio summary computed")
	return summary, nil
}

// HoldingDetails returns per-symbol valuation rows. Symbols without an
// available price are omitted entirely, unlike Summary which still counts
// them in the totals.
func (s *Service) HoldingDetails(ctx context.Context, accountID string) ([]models.HoldingDetail, error) {
	holdings, err := s.holdings.ListByAccount(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to load holdings: %w", err)
	}

	details := make([]models.HoldingDetail, 0, len(holdings))
	for _, h := range holdings {
		price, ok, err := s.prices.LatestClose(ctx, h.Symbol)
		if err != nil {
			return nil, fmt.Errorf("%w: latest close for %s: %v", models.ErrUpstream, h.Symbol, err)
		}
		if !ok {
			continue
		}

		shares := h.Shares.InexactFloat64()
		costBasis := h.CostBasis.InexactFloat64()
		marketValue := shares * price
		gainLoss := marketValue - costBasis

		detail := models.HoldingDetail{
			Symbol:       h.Symbol,
			Shares:       shares,
			AvgCost:      h.AvgCost().InexactFloat64(),
			CostBasis:    costBasis,
			CurrentPrice: price,
			MarketValue:  marketValue,
			GainLoss:     gainLoss,
		}
		if costBasis != 0 {
			detail.PercentChange = gainLoss / costBasis * 100
		}
		details = append(details, detail)
	}

	return details, nil
}
