// Package interfaces defines service contracts for Apex Trade.
package interfaces

import (
	"context"
	"time"

	"github.com/xuanruli/apex-trade/internal/models"
)

// StorageManager coordinates all storage backends.
type StorageManager interface {
	Holdings() HoldingStore
	Transactions() TransactionStore
	MarketData() MarketDataStore
	InternalStore() InternalStore

	// Lifecycle
	Close() error
}

// HoldingStore is the durable holdings store, keyed by (account_id, symbol).
// Serialisation of the read-modify-write cycle is the ledger service's
// responsibility; the store only guarantees that each individual write is
// atomic.
type HoldingStore interface {
	// Get returns the holding or an error wrapping models.ErrNotFound.
	Get(ctx context.Context, accountID, symbol string) (*models.Holding, error)
	Upsert(ctx context.Context, holding *models.Holding) error
	Delete(ctx context.Context, accountID, symbol string) error
	ListByAccount(ctx context.Context, accountID string) ([]models.Holding, error)

	// DistinctSymbols scans every account's holdings and returns the sorted
	// set of held symbols. Analytical path only.
	DistinctSymbols(ctx context.Context) ([]string, error)

	Close() error
}

// TransactionStore is the append-and-replace trade log.
type TransactionStore interface {
	// Append assigns a monotonic identity, persists atomically, and returns
	// the assigned ID (also written back to txn.ID).
	Append(ctx context.Context, txn *models.Transaction) (uint64, error)
	GetByID(ctx context.Context, id uint64) (*models.Transaction, error)

	// Replace overwrites the full record keyed by id. Returns an error
	// wrapping models.ErrNotFound when id does not exist.
	Replace(ctx context.Context, id uint64, txn *models.Transaction) error
	ListByAccount(ctx context.Context, accountID string) ([]models.Transaction, error)
	ListAll(ctx context.Context) ([]models.Transaction, error)
	Close() error
}

// MarketDataStore persists daily close bars and serves the price oracle
// contract. A missing price is reported through the ok flag, never as an
// error.
type MarketDataStore interface {
	PriceSource
	SaveBars(ctx context.Context, bars []models.PriceBar) error
	Close() error
}

// PriceSource is the read side of the price oracle: latest close and
// date-ascending history for one symbol.
type PriceSource interface {
	LatestClose(ctx context.Context, symbol string) (price float64, ok bool, err error)
	History(ctx context.Context, symbol string, since time.Time) ([]models.PriceBar, error)
}

// InternalStore manages account identities and system-level KV.
type InternalStore interface {
	GetUser(ctx context.Context, accountID string) (*models.InternalUser, error)
	GetUserByUsername(ctx context.Context, username string) (*models.InternalUser, error)
	SaveUser(ctx context.Context, user *models.InternalUser) error
	DeleteUser(ctx context.Context, accountID string) error
	ListUsers(ctx context.Context) ([]*models.InternalUser, error)

	GetSystemKV(ctx context.Context, key string) (string, error)
	SetSystemKV(ctx context.Context, key, value string) error

	Close() error
}
