// Package ledger owns the per-account holdings state machine under the
// weighted-average cost method, and orchestrates the trade log.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xuanruli/apex-trade/internal/common"
	"github.com/xuanruli/apex-trade/internal/interfaces"
	"github.com/xuanruli/apex-trade/internal/models"
)

// Service implements interfaces.LedgerService.
type Service struct {
	holdings interfaces.HoldingStore
	txns     interfaces.TransactionStore
	logger   *common.Logger

	// accountLocks serialises the load-mutate-persist cycle per account.
	// Two concurrent applies on the same account would otherwise race on
	// the read-modify-write of a holding.
	mu           sync.Mutex
	accountLocks map[string]*sync.Mutex
}

// NewService creates a new ledger service.
func NewService(holdings interfaces.HoldingStore, txns interfaces.TransactionStore, logger *common.Logger) *Service {
	return &Service{
		holdings:     holdings,
		txns:         txns,
		logger:       logger,
		accountLocks: make(map[string]*sync.Mutex),
	}
}

// lockAccount returns the mutex for accountID, creating it on first use.
// Locks are never released from the map; the account universe is small and
// bounded by registered users.
func (s *Service) lockAccount(accountID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.accountLocks[accountID]
	if !ok {
		lock = &sync.Mutex{}
		s.accountLocks[accountID] = lock
	}
	return lock
}

func validateOrder(accountID, symbol string, shares, price decimal.Decimal, kind models.OrderKind) error {
	if accountID == "" {
		return fmt.Errorf("%w: account id is required", models.ErrValidation)
	}
	if symbol == "" {
		return fmt.Errorf("%w: symbol is required", models.ErrValidation)
	}
	if !shares.IsPositive() {
		return fmt.Errorf("%w: quantity must be positive, got %s", models.ErrValidation, shares)
	}
	if !price.IsPositive() {
		return fmt.Errorf("%w: price must be positive, got %s", models.ErrValidation, price)
	}
	if _, err := models.ParseOrderKind(string(kind)); err != nil {
		return err
	}
	return nil
}

// ExecuteTrade appends the durable trade record, then applies it to the
// account's holdings. The transaction log is an audit trail: if the
// holdings mutation fails after the record is written, the error surfaces
// to the caller and the record stays for the admin correction path.
func (s *Service) ExecuteTrade(ctx context.Context, accountID, symbol string, shares, price decimal.Decimal, kind models.OrderKind) (*models.Transaction, error) {
	if err := validateOrder(accountID, symbol, shares, price, kind); err != nil {
		return nil, err
	}

	txn := &models.Transaction{
		AccountID:     accountID,
		Symbol:        symbol,
		Shares:        shares,
		PricePerShare: price,
		Kind:          kind,
		Date:          time.Now(),
	}
	id, err := s.txns.Append(ctx, txn)
	if err != nil {
		return nil, fmt.Errorf("failed to record trade: %w", err)
	}

	if err := s.Apply(ctx, accountID, symbol, shares, price, kind); err != nil {
		s.logger.Warn().
			Uint64("txn_id", id).
			Str("account", accountID).
			Str("symbol", symbol).
			Err(err).
			Msg("Trade recorded but holdings update rejected")
		return nil, err
	}

	s.logger.Info().
		Uint64("txn_id", id).
		Str("account", accountID).
		Str("symbol", symbol).
		Str("kind", string(kind)).
		Str("shares", shares.String()).
		Str("price", price.String()).
		Msg("Trade executed")
	return txn, nil
}

// Apply runs one transition of the cost-basis state machine and writes the
// result through to the holdings store. The whole load-mutate-persist cycle
// holds the account's lock.
//
// Selling a symbol the account does not hold fails with ErrNoPosition, and
// selling more than the held quantity fails with ErrInsufficientShares;
// both checks happen before anything is persisted.
func (s *Service) Apply(ctx context.Context, accountID, symbol string, shares, price decimal.Decimal, kind models.OrderKind) error {
	if err := validateOrder(accountID, symbol, shares, price, kind); err != nil {
		return err
	}

	lock := s.lockAccount(accountID)
	lock.Lock()
	defer lock.Unlock()

	held, err := s.holdings.Get(ctx, accountID, symbol)
	if err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			return fmt.Errorf("failed to load holding: %w", err)
		}
		if kind == models.OrderSell {
			return fmt.Errorf("%w: cannot sell %s, account %s holds none", models.ErrNoPosition, symbol, accountID)
		}
		opened := &models.Holding{
			AccountID: accountID,
			Symbol:    symbol,
			Shares:    shares,
			CostBasis: shares.Mul(price),
		}
		if err := s.holdings.Upsert(ctx, opened); err != nil {
			return fmt.Errorf("failed to open position: %w", err)
		}
		s.logger.Debug().
			Str("account", accountID).
			Str("symbol", symbol).
			Str("shares", opened.Shares.String()).
			Str("cost_basis", opened.CostBasis.String()).
			Msg("Position opened")
		return nil
	}

	switch kind {
	case models.OrderBuy:
		held.CostBasis = held.CostBasis.Add(shares.Mul(price))
		held.Shares = held.Shares.Add(shares)

	case models.OrderSell:
		cmp := held.Shares.Cmp(shares)
		if cmp < 0 {
			return fmt.Errorf("%w: sell %s exceeds held %s of %s", models.ErrInsufficientShares, shares, held.Shares, symbol)
		}
		if cmp == 0 {
			// Position fully closed: remove the holding rather than
			// retaining a zero-share row.
			if err := s.holdings.Delete(ctx, accountID, symbol); err != nil {
				return fmt.Errorf("failed to close position: %w", err)
			}
			s.logger.Debug().
				Str("account", accountID).
				Str("symbol", symbol).
				Msg("Position closed")
			return nil
		}
		// Each sell removes cost at the current average, so the per-share
		// average is unchanged by the sale.
		unitCost := held.CostBasis.Div(held.Shares)
		held.CostBasis = held.CostBasis.Sub(unitCost.Mul(shares))
		held.Shares = held.Shares.Sub(shares)
	}

	if err := s.holdings.Upsert(ctx, held); err != nil {
		return fmt.Errorf("failed to persist holding: %w", err)
	}
	s.logger.Debug().
		Str("account", accountID).
		Str("symbol", symbol).
		Str("shares", held.Shares.String()).
		Str("cost_basis", held.CostBasis.String()).
		Msg("Holding updated")
	return nil
}

// Holdings returns the account's current positions.
func (s *Service) Holdings(ctx context.Context, accountID string) ([]models.Holding, error) {
	return s.holdings.ListByAccount(ctx, accountID)
}

// History returns the account's trade records ordered by date ascending.
func (s *Service) History(ctx context.Context, accountID string) ([]models.Transaction, error) {
	return s.txns.ListByAccount(ctx, accountID)
}

// AmendTransaction fully replaces a trade record by identity. This is the
// administrative correction path; it does not replay holdings.
func (s *Service) AmendTransaction(ctx context.Context, id uint64, txn *models.Transaction) error {
	if err := txn.Validate(); err != nil {
		return err
	}
	return s.txns.Replace(ctx, id, txn)
}
