// Package txndb implements the append-and-replace transaction log using
// BadgerHold. Identities are assigned from the store's monotonic sequence.
package txndb

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/timshannon/badgerhold/v4"

	"github.com/xuanruli/apex-trade/internal/common"
	"github.com/xuanruli/apex-trade/internal/models"
)

const maxWriteRetries = 3

// Store implements interfaces.TransactionStore using BadgerHold.
type Store struct {
	db     *badgerhold.Store
	logger *common.Logger
}

// NewStore opens the transaction log at the given directory path.
func NewStore(logger *common.Logger, path string) (*Store, error) {
	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, fmt.Errorf("failed to create transactions path %s: %w", path, err)
	}
	opts := badgerhold.DefaultOptions
	opts.Dir = path
	opts.ValueDir = path
	opts.Logger = nil
	db, err := badgerhold.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open transaction log at %s: %w", path, err)
	}
	logger.Debug().Str("path", path).Msg("Transaction log opened")
	return &Store{db: db, logger: logger}, nil
}

func retryConflict(fn func() error) error {
	var err error
	for attempt := 0; attempt < maxWriteRetries; attempt++ {
		err = fn()
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
	}
	return fmt.Errorf("%w: transaction write still conflicting after %d attempts: %v",
		models.ErrConflict, maxWriteRetries, err)
}

// Append persists the record under the next sequence identity. The insert
// is a single badger transaction: either the full record is durable with
// its ID, or nothing is.
func (s *Store) Append(_ context.Context, txn *models.Transaction) (uint64, error) {
	if err := txn.Validate(); err != nil {
		return 0, err
	}
	err := retryConflict(func() error {
		return s.db.Insert(badgerhold.NextSequence(), txn)
	})
	if err != nil {
		return 0, fmt.Errorf("failed to append transaction for %s/%s: %w", txn.AccountID, txn.Symbol, err)
	}
	s.logger.Debug().
		Uint64("id", txn.ID).
		Str("account", txn.AccountID).
		Str("symbol", txn.Symbol).
		Str("kind", string(txn.Kind)).
		Msg("Transaction appended")
	return txn.ID, nil
}

func (s *Store) GetByID(_ context.Context, id uint64) (*models.Transaction, error) {
	var txn models.Transaction
	if err := s.db.Get(id, &txn); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("%w: transaction %d", models.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to get transaction %d: %w", id, err)
	}
	return &txn, nil
}

// Replace is a full overwrite keyed by identity, used by the admin
// correction path. The record keeps the identity it is replacing.
func (s *Store) Replace(_ context.Context, id uint64, txn *models.Transaction) error {
	if err := txn.Validate(); err != nil {
		return err
	}
	txn.ID = id
	err := retryConflict(func() error {
		return s.db.Update(id, txn)
	})
	if err != nil {
		if err == badgerhold.ErrNotFound {
			return fmt.Errorf("%w: transaction %d", models.ErrNotFound, id)
		}
		return fmt.Errorf("failed to replace transaction %d: %w", id, err)
	}
	s.logger.Debug().Uint64("id", id).Msg("Transaction replaced")
	return nil
}

// ListByAccount returns the account's records ordered by date ascending,
// breaking date ties by identity so replays are deterministic.
func (s *Store) ListByAccount(_ context.Context, accountID string) ([]models.Transaction, error) {
	var txns []models.Transaction
	if err := s.db.Find(&txns, badgerhold.Where("AccountID").Eq(accountID)); err != nil {
		return nil, fmt.Errorf("failed to list transactions for %s: %w", accountID, err)
	}
	sort.Slice(txns, func(i, j int) bool {
		if txns[i].Date.Equal(txns[j].Date) {
			return txns[i].ID < txns[j].ID
		}
		return txns[i].Date.Before(txns[j].Date)
	})
	return txns, nil
}

// ListAll returns an unordered snapshot across all accounts.
func (s *Store) ListAll(_ context.Context) ([]models.Transaction, error) {
	var txns []models.Transaction
	if err := s.db.Find(&txns, nil); err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return txns, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
