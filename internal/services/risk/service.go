// Package risk produces the efficient-frontier inputs: annualised expected
// returns and the covariance matrix over the held symbol universe.
package risk

import (
	"context"
	"fmt"
	"time"

	"github.com/xuanruli/apex-trade/internal/common"
	"github.com/xuanruli/apex-trade/internal/interfaces"
	"github.com/xuanruli/apex-trade/internal/models"
)

// Service implements interfaces.RiskService.
type Service struct {
	holdings interfaces.HoldingStore
	prices   interfaces.PriceSource
	logger   *common.Logger

	riskFreeRate float64
	tradingDays  int
	historyDays  int

	// now is swappable for tests.
	now func() time.Time
}

// NewService creates a new risk service from config.
func NewService(holdings interfaces.HoldingStore, prices interfaces.PriceSource, config common.RiskConfig, logger *common.Logger) *Service {
	return &Service{
		holdings:     holdings,
		prices:       prices,
		logger:       logger,
		riskFreeRate: config.RiskFreeRate,
		tradingDays:  config.TradingDays,
		historyDays:  config.HistoryDays,
		now:          time.Now,
	}
}

// dailyReturn is one simple daily return, keyed by the date of the later
// close so series align on date rather than position.
type dailyReturn struct {
	date  time.Time
	value float64
}

// FrontierInputs analyses every symbol held by any account. The distinct
// symbol scan is a deliberate full read of all portfolios; this path is
// infrequent and analytical.
func (s *Service) FrontierInputs(ctx context.Context) (*models.FrontierInputs, error) {
	symbols, err := s.holdings.DistinctSymbols(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to collect symbol universe: %w", err)
	}
	return s.FrontierInputsFor(ctx, symbols)
}

// FrontierInputsFor analyses the given universe over one year of daily
// closes. Symbols with fewer than two closes are dropped, not errors. An
// empty universe yields an empty result, which callers must handle.
func (s *Service) FrontierInputsFor(ctx context.Context, symbols []string) (*models.FrontierInputs, error) {
	since := s.now().AddDate(0, 0, -s.historyDays)

	kept := make([]string, 0, len(symbols))
	returns := make(map[string][]dailyReturn, len(symbols))

	for _, symbol := range symbols {
		bars, err := s.prices.History(ctx, symbol, since)
		if err != nil {
			return nil, fmt.Errorf("failed to load history for %s: %w", symbol, err)
		}
		series := simpleReturns(bars)
		if len(series) == 0 {
			s.logger.Debug().Str("symbol", symbol).Msg("No usable history, dropping from universe")
			continue
		}
		kept = append(kept, symbol)
		returns[symbol] = series
	}

	inputs := &models.FrontierInputs{
		Symbols:         kept,
		ExpectedReturns: make([]float64, len(kept)),
		Covariance:      make([][]float64, len(kept)),
		RiskFreeRate:    s.riskFreeRate,
	}

	annualise := float64(s.tradingDays)
	for i, symbol := range kept {
		expected := mean(returns[symbol]) * annualise
		// Floor heuristic: an asset expected to underperform the risk-free
		// rate destabilises the downstream optimiser, so its estimate is
		// replaced outright rather than winsorised.
		if expected < s.riskFreeRate {
			expected = s.riskFreeRate + 0.01
		}
		inputs.ExpectedReturns[i] = expected

		inputs.Covariance[i] = make([]float64, len(kept))
		for j, other := range kept {
			inputs.Covariance[i][j] = covariance(returns[symbol], returns[other]) * annualise
		}
	}

	s.logger.Debug().
		Int("universe", len(kept)).
		Int("dropped", len(symbols)-len(kept)).
		Msg("Frontier inputs computed")
	return inputs, nil
}

// simpleReturns converts a close series into day-over-day simple returns.
// The first close has no prior day and produces no return. Sparse series
// are fine: each return spans consecutive available closes.
func simpleReturns(bars []models.PriceBar) []dailyReturn {
	var series []dailyReturn
	for i := 1; i < len(bars); i++ {
		prev := bars[i-1].Close
		if prev == 0 {
			continue
		}
		series = append(series, dailyReturn{
			date:  bars[i].Date,
			value: bars[i].Close/prev - 1,
		})
	}
	return series
}

func mean(series []dailyReturn) float64 {
	if len(series) == 0 {
		return 0
	}
	var sum float64
	for _, r := range series {
		sum += r.value
	}
	return sum / float64(len(series))
}

// covariance is the sample covariance of two return series joined on date:
// only dates present in both contribute, and the means are taken over that
// intersection. Fewer than two common observations yields 0.
func covariance(xs, ys []dailyReturn) float64 {
	// Join on the calendar date, not the time.Time value: stored dates may
	// differ in location even when they name the same trading day.
	byDate := make(map[string]float64, len(ys))
	for _, r := range ys {
		byDate[r.date.Format("2006-01-02")] = r.value
	}

	var px, py []float64
	for _, r := range xs {
		if y, ok := byDate[r.date.Format("2006-01-02")]; ok {
			px = append(px, r.value)
			py = append(py, y)
		}
	}

	n := len(px)
	if n < 2 {
		return 0
	}

	var meanX, meanY float64
	for i := 0; i < n; i++ {
		meanX += px[i]
		meanY += py[i]
	}
	meanX /= float64(n)
	meanY /= float64(n)

	var sum float64
	for i := 0; i < n; i++ {
		sum += (px[i] - meanX) * (py[i] - meanY)
	}
	return sum / float64(n-1)
}
