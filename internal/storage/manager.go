// Package storage wires the storage backends into a single manager.
package storage

import (
	"fmt"

	"github.com/xuanruli/apex-trade/internal/common"
	"github.com/xuanruli/apex-trade/internal/interfaces"
	"github.com/xuanruli/apex-trade/internal/storage/holdingdb"
	"github.com/xuanruli/apex-trade/internal/storage/internaldb"
	"github.com/xuanruli/apex-trade/internal/storage/marketdb"
	"github.com/xuanruli/apex-trade/internal/storage/txndb"
)

// Manager implements interfaces.StorageManager over four BadgerHold areas.
type Manager struct {
	holdings *holdingdb.Store
	txns     *txndb.Store
	market   *marketdb.Store
	internal *internaldb.Store
	logger   *common.Logger
}

// NewStorageManager opens every storage area from config. On any failure the
// already-opened areas are closed before returning.
func NewStorageManager(logger *common.Logger, config *common.Config) (*Manager, error) {
	m := &Manager{logger: logger}

	var err error
	if m.holdings, err = holdingdb.NewStore(logger, config.Storage.Holdings.Path); err != nil {
		return nil, fmt.Errorf("holdings store: %w", err)
	}
	if m.txns, err = txndb.NewStore(logger, config.Storage.Transactions.Path); err != nil {
		m.Close()
		return nil, fmt.Errorf("transaction log: %w", err)
	}
	if m.market, err = marketdb.NewStore(logger, config.Storage.Market.Path); err != nil {
		m.Close()
		return nil, fmt.Errorf("market data store: %w", err)
	}
	if m.internal, err = internaldb.NewStore(logger, config.Storage.Internal.Path); err != nil {
		m.Close()
		return nil, fmt.Errorf("internal store: %w", err)
	}

	logger.Info().Msg("Storage initialized")
	return m, nil
}

func (m *Manager) Holdings() interfaces.HoldingStore { return m.holdings }

func (m *Manager) Transactions() interfaces.TransactionStore { return m.txns }

func (m *Manager) MarketData() interfaces.MarketDataStore { return m.market }

func (m *Manager) InternalStore() interfaces.InternalStore { return m.internal }

// Close closes every open storage area, keeping the first error.
func (m *Manager) Close() error {
	var firstErr error
	record := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if m.holdings != nil {
		record(m.holdings.Close())
	}
	if m.txns != nil {
		record(m.txns.Close())
	}
	if m.market != nil {
		record(m.market.Close())
	}
	if m.internal != nil {
		record(m.internal.Close())
	}
	return firstErr
}
