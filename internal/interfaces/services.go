package interfaces

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/xuanruli/apex-trade/internal/models"
)

// LedgerService owns the per-account cost-basis state machine and the trade
// log. Account identity is always explicit; the service never reads ambient
// request state.
type LedgerService interface {
	// ExecuteTrade records the trade in the transaction log, then applies it
	// to the account's holdings. The returned transaction carries its
	// assigned ID.
	ExecuteTrade(ctx context.Context, accountID, symbol string, shares, price decimal.Decimal, kind models.OrderKind) (*models.Transaction, error)

	// Apply mutates holdings only, without writing the transaction log.
	// Used for rebuilds and corrections.
	Apply(ctx context.Context, accountID, symbol string, shares, price decimal.Decimal, kind models.OrderKind) error

	Holdings(ctx context.Context, accountID string) ([]models.Holding, error)
	History(ctx context.Context, accountID string) ([]models.Transaction, error)
	AmendTransaction(ctx context.Context, id uint64, txn *models.Transaction) error
}

// ValuationService computes portfolio value and P&L from holdings plus
// latest close prices.
type ValuationService interface {
	Summary(ctx context.Context, accountID string) (*models.PortfolioSummary, error)
	HoldingDetails(ctx context.Context, accountID string) ([]models.HoldingDetail, error)
}

// RiskService produces efficient-frontier inputs over a symbol universe.
type RiskService interface {
	// FrontierInputs analyses every symbol held by any account.
	FrontierInputs(ctx context.Context) (*models.FrontierInputs, error)

	// FrontierInputsFor analyses an explicit universe. Symbols with no price
	// history are dropped, not errors; an empty universe yields an empty
	// result.
	FrontierInputsFor(ctx context.Context, symbols []string) (*models.FrontierInputs, error)
}

// MarketService ingests provider data into the market store and serves
// price reads.
type MarketService interface {
	PriceSource
	RefreshSymbol(ctx context.Context, symbol string) error
	RefreshSymbols(ctx context.Context, symbols []string) error
}
