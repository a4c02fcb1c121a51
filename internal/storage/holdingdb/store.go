// Package holdingdb implements the durable holdings store using BadgerHold.
// Holdings are keyed by the composite (account_id, symbol) pair.
package holdingdb

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/timshannon/badgerhold/v4"

	"github.com/xuanruli/apex-trade/internal/common"
	"github.com/xuanruli/apex-trade/internal/models"
)

// maxWriteRetries bounds retries on badger transaction conflicts before the
// error surfaces as models.ErrConflict.
const maxWriteRetries = 3

// keySep is the composite key separator. A null byte prevents collisions
// when account IDs contain the symbol's characters.
const keySep = "\x00"

// Store implements interfaces.HoldingStore using BadgerHold.
type Store struct {
	db     *badgerhold.Store
	logger *common.Logger
}

// NewStore opens the holdings store at the given directory path.
func NewStore(logger *common.Logger, path string) (*Store, error) {
	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, fmt.Errorf("failed to create holdings path %s: %w", path, err)
	}
	opts := badgerhold.DefaultOptions
	opts.Dir = path
	opts.ValueDir = path
	opts.Logger = nil
	db, err := badgerhold.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open holdings store at %s: %w", path, err)
	}
	logger.Debug().Str("path", path).Msg("Holdings store opened")
	return &Store{db: db, logger: logger}, nil
}

func holdingKey(accountID, symbol string) string {
	return accountID + keySep + symbol
}

// retryConflict runs fn up to maxWriteRetries times while it fails with a
// badger transaction conflict.
func retryConflict(fn func() error) error {
	var err error
	for attempt := 0; attempt < maxWriteRetries; attempt++ {
		err = fn()
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
	}
	return fmt.Errorf("%w: holdings write still conflicting after %d attempts: %v",
		models.ErrConflict, maxWriteRetries, err)
}

func (s *Store) Get(_ context.Context, accountID, symbol string) (*models.Holding, error) {
	var h models.Holding
	if err := s.db.Get(holdingKey(accountID, symbol), &h); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("%w: no holding for %s/%s", models.ErrNotFound, accountID, symbol)
		}
		return nil, fmt.Errorf("failed to get holding %s/%s: %w", accountID, symbol, err)
	}
	return &h, nil
}

func (s *Store) Upsert(_ context.Context, holding *models.Holding) error {
	holding.UpdatedAt = time.Now()
	err := retryConflict(func() error {
		return s.db.Upsert(holdingKey(holding.AccountID, holding.Symbol), holding)
	})
	if err != nil {
		return fmt.Errorf("failed to upsert holding %s/%s: %w", holding.AccountID, holding.Symbol, err)
	}
	return nil
}

func (s *Store) Delete(_ context.Context, accountID, symbol string) error {
	err := retryConflict(func() error {
		return s.db.Delete(holdingKey(accountID, symbol), models.Holding{})
	})
	if err != nil && err != badgerhold.ErrNotFound {
		return fmt.Errorf("failed to delete holding %s/%s: %w", accountID, symbol, err)
	}
	return nil
}

func (s *Store) ListByAccount(_ context.Context, accountID string) ([]models.Holding, error) {
	var holdings []models.Holding
	if err := s.db.Find(&holdings, badgerhold.Where("AccountID").Eq(accountID)); err != nil {
		return nil, fmt.Errorf("failed to list holdings for %s: %w", accountID, err)
	}
	sort.Slice(holdings, func(i, j int) bool {
		return holdings[i].Symbol < holdings[j].Symbol
	})
	return holdings, nil
}

// DistinctSymbols is a full scan across all accounts. It backs the
// analytical path only, so no index is maintained for it.
func (s *Store) DistinctSymbols(_ context.Context) ([]string, error) {
	var holdings []models.Holding
	if err := s.db.Find(&holdings, nil); err != nil {
		return nil, fmt.Errorf("failed to scan holdings: %w", err)
	}
	seen := make(map[string]bool)
	var symbols []string
	for _, h := range holdings {
		if !seen[h.Symbol] {
			seen[h.Symbol] = true
			symbols = append(symbols, h.Symbol)
		}
	}
	sort.Strings(symbols)
	return symbols, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
