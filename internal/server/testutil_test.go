package server

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xuanruli/apex-trade/internal/app"
	"github.com/xuanruli/apex-trade/internal/common"
	"github.com/xuanruli/apex-trade/internal/interfaces"
	"github.com/xuanruli/apex-trade/internal/models"
)

// memInternalStore is an in-memory interfaces.InternalStore for handler tests.
type memInternalStore struct {
	mu    sync.Mutex
	users map[string]*models.InternalUser
	kv    map[string]string
}

func newMemInternalStore() *memInternalStore {
	return &memInternalStore{
		users: make(map[string]*models.InternalUser),
		kv:    make(map[string]string),
	}
}

func (m *memInternalStore) GetUser(_ context.Context, accountID string) (*models.InternalUser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[accountID]
	if !ok {
		return nil, fmt.Errorf("%w: account %s", models.ErrNotFound, accountID)
	}
	copied := *user
	return &copied, nil
}

func (m *memInternalStore) GetUserByUsername(_ context.Context, username string) (*models.InternalUser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, user := range m.users {
		if user.Username == username {
			copied := *user
			return &copied, nil
		}
	}
	return nil, fmt.Errorf("%w: username %s", models.ErrNotFound, username)
}

func (m *memInternalStore) SaveUser(_ context.Context, user *models.InternalUser) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *user
	m.users[user.AccountID] = &copied
	return nil
}

func (m *memInternalStore) DeleteUser(_ context.Context, accountID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.users, accountID)
	return nil
}

func (m *memInternalStore) ListUsers(_ context.Context) ([]*models.InternalUser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var users []*models.InternalUser
	for _, u := range m.users {
		copied := *u
		users = append(users, &copied)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Username < users[j].Username })
	return users, nil
}

func (m *memInternalStore) GetSystemKV(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	value, ok := m.kv[key]
	if !ok {
		return "", fmt.Errorf("%w: system key %s", models.ErrNotFound, key)
	}
	return value, nil
}

func (m *memInternalStore) SetSystemKV(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.kv[key] = value
	return nil
}

func (m *memInternalStore) Close() error { return nil }

// mockTransactionStore implements interfaces.TransactionStore.
type mockTransactionStore struct {
	listAll func(ctx context.Context) ([]models.Transaction, error)
	replace func(ctx context.Context, id uint64, txn *models.Transaction) error
}

func (m *mockTransactionStore) Append(_ context.Context, txn *models.Transaction) (uint64, error) {
	return 0, nil
}

func (m *mockTransactionStore) GetByID(_ context.Context, id uint64) (*models.Transaction, error) {
	return nil, models.ErrNotFound
}

func (m *mockTransactionStore) Replace(ctx context.Context, id uint64, txn *models.Transaction) error {
	if m.replace != nil {
		return m.replace(ctx, id, txn)
	}
	return nil
}

func (m *mockTransactionStore) ListByAccount(_ context.Context, accountID string) ([]models.Transaction, error) {
	return nil, nil
}

func (m *mockTransactionStore) ListAll(ctx context.Context) ([]models.Transaction, error) {
	if m.listAll != nil {
		return m.listAll(ctx)
	}
	return nil, nil
}

func (m *mockTransactionStore) Close() error { return nil }

// mockStorageManager wires the store mocks into interfaces.StorageManager.
type mockStorageManager struct {
	internal interfaces.InternalStore
	txns     interfaces.TransactionStore
}

func (m *mockStorageManager) Holdings() interfaces.HoldingStore { return nil }

func (m *mockStorageManager) Transactions() interfaces.TransactionStore { return m.txns }

func (m *mockStorageManager) MarketData() interfaces.MarketDataStore { return nil }

func (m *mockStorageManager) InternalStore() interfaces.InternalStore { return m.internal }

func (m *mockStorageManager) Close() error { return nil }

// mockLedgerService implements interfaces.LedgerService.
type mockLedgerService struct {
	executeTrade func(ctx context.Context, accountID, symbol string, shares, price decimal.Decimal, kind models.OrderKind) (*models.Transaction, error)
	history      func(ctx context.Context, accountID string) ([]models.Transaction, error)
	amend        func(ctx context.Context, id uint64, txn *models.Transaction) error
}

func (m *mockLedgerService) ExecuteTrade(ctx context.Context, accountID, symbol string, shares, price decimal.Decimal, kind models.OrderKind) (*models.Transaction, error) {
	return m.executeTrade(ctx, accountID, symbol, shares, price, kind)
}

func (m *mockLedgerService) Apply(ctx context.Context, accountID, symbol string, shares, price decimal.Decimal, kind models.OrderKind) error {
	return nil
}

func (m *mockLedgerService) Holdings(ctx context.Context, accountID string) ([]models.Holding, error) {
	return nil, nil
}

func (m *mockLedgerService) History(ctx context.Context, accountID string) ([]models.Transaction, error) {
	if m.history != nil {
		return m.history(ctx, accountID)
	}
	return nil, nil
}

func (m *mockLedgerService) AmendTransaction(ctx context.Context, id uint64, txn *models.Transaction) error {
	if m.amend != nil {
		return m.amend(ctx, id, txn)
	}
	return nil
}

// mockValuationService implements interfaces.ValuationService.
type mockValuationService struct {
	summary        func(ctx context.Context, accountID string) (*models.PortfolioSummary, error)
	holdingDetails func(ctx context.Context, accountID string) ([]models.HoldingDetail, error)
}

func (m *mockValuationService) Summary(ctx context.Context, accountID string) (*models.PortfolioSummary, error) {
	if m.summary != nil {
		return m.summary(ctx, accountID)
	}
	return &models.PortfolioSummary{AccountID: accountID}, nil
}

func (m *mockValuationService) HoldingDetails(ctx context.Context, accountID string) ([]models.HoldingDetail, error) {
	if m.holdingDetails != nil {
		return m.holdingDetails(ctx, accountID)
	}
	return nil, nil
}

// mockRiskService implements interfaces.RiskService.
type mockRiskService struct {
	frontierInputs    func(ctx context.Context) (*models.FrontierInputs, error)
	frontierInputsFor func(ctx context.Context, symbols []string) (*models.FrontierInputs, error)
}

func (m *mockRiskService) FrontierInputs(ctx context.Context) (*models.FrontierInputs, error) {
	if m.frontierInputs != nil {
		return m.frontierInputs(ctx)
	}
	return &models.FrontierInputs{}, nil
}

func (m *mockRiskService) FrontierInputsFor(ctx context.Context, symbols []string) (*models.FrontierInputs, error) {
	if m.frontierInputsFor != nil {
		return m.frontierInputsFor(ctx, symbols)
	}
	return &models.FrontierInputs{Symbols: symbols}, nil
}

// mockMarketService implements interfaces.MarketService.
type mockMarketService struct {
	latestClose func(ctx context.Context, symbol string) (float64, bool, error)
}

func (m *mockMarketService) LatestClose(ctx context.Context, symbol string) (float64, bool, error) {
	if m.latestClose != nil {
		return m.latestClose(ctx, symbol)
	}
	return 0, false, nil
}

func (m *mockMarketService) History(_ context.Context, _ string, _ time.Time) ([]models.PriceBar, error) {
	return nil, nil
}

func (m *mockMarketService) RefreshSymbol(_ context.Context, _ string) error { return nil }

func (m *mockMarketService) RefreshSymbols(_ context.Context, _ []string) error { return nil }

// newTestApp assembles an app around mocks. Callers swap individual fields
// before building the server.
func newTestApp() *app.App {
	config := common.NewDefaultConfig()
	config.Auth.JWTSecret = "test-secret"
	return &app.App{
		Config: config,
		Logger: common.NewSilentLogger(),
		Storage: &mockStorageManager{
			internal: newMemInternalStore(),
			txns:     &mockTransactionStore{},
		},
		LedgerService:    &mockLedgerService{},
		ValuationService: &mockValuationService{},
		RiskService:      &mockRiskService{},
		MarketService:    &mockMarketService{},
		StartupTime:      time.Now(),
	}
}

// bearerToken signs a token for the given identity with the test secret.
func bearerToken(a *app.App, accountID, username, role string) string {
	user := &models.InternalUser{AccountID: accountID, Username: username, Role: role}
	token, err := signJWT(user, &a.Config.Auth)
	if err != nil {
		panic(err)
	}
	return "Bearer " + token
}

func dec(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}
