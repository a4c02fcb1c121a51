package txndb

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/shopspring/decimal"

	"github.com/xuanruli/apex-trade/internal/common"
	"github.com/xuanruli/apex-trade/internal/models"
)

func newUnitTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(common.NewSilentLogger(), t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func dec(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

func testTxn(account, symbol string, date time.Time) *models.Transaction {
	return &models.Transaction{
		AccountID:     account,
		Symbol:        symbol,
		Shares:        dec("10"),
		PricePerShare: dec("100"),
		Kind:          models.OrderBuy,
		Date:          date,
	}
}

func TestAppendAssignsIncreasingIDs(t *testing.T) {
	store := newUnitTestStore(t)
	ctx := context.Background()

	var ids []uint64
	for i := 0; i < 5; i++ {
		txn := testTxn("acct1", "AAPL", time.Now())
		id, err := store.Append(ctx, txn)
		if err != nil {
			t.Fatalf("Append %d: %v", i, err)
		}
		if txn.ID != id {
			t.Errorf("txn.ID = %d, returned id = %d", txn.ID, id)
		}
		ids = append(ids, id)
	}
	for i := 1; i < len(ids); i++ {
		if ids[i] <= ids[i-1] {
			t.Errorf("ids not strictly increasing: %v", ids)
		}
	}
}

func TestAppendRejectsInvalid(t *testing.T) {
	store := newUnitTestStore(t)
	ctx := context.Background()

	bad := testTxn("acct1", "AAPL", time.Now())
	bad.Shares = dec("-1")
	if _, err := store.Append(ctx, bad); !errors.Is(err, models.ErrValidation) {
		t.Errorf("got %v, want ErrValidation", err)
	}
}

func TestGetByID(t *testing.T) {
	store := newUnitTestStore(t)
	ctx := context.Background()

	txn := testTxn("acct1", "AAPL", time.Now())
	id, err := store.Append(ctx, txn)
	if err != nil {
		t.Fatalf("Append: %v", err)
	}

	got, err := store.GetByID(ctx, id)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Symbol != "AAPL" || !got.Shares.Equal(dec("10")) {
		t.Errorf("got %+v", got)
	}

	if _, err := store.GetByID(ctx, 9999); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("missing id: got %v, want ErrNotFound", err)
	}
}

func TestReplace(t *testing.T) {
	store := newUnitTestStore(t)
	ctx := context.Background()

	txn := testTxn("acct1", "AAPL", time.Now())
	id, err := store.Append(ctx, txn)
	if err != nil {
		t.Fatalf("Append: %v", err)
	}

	amended := testTxn("acct1", "AAPL", txn.Date)
	amended.Shares = dec("12")
	if err := store.Replace(ctx, id, amended); err != nil {
		t.Fatalf("Replace: %v", err)
	}

	got, err := store.GetByID(ctx, id)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if !got.Shares.Equal(dec("12")) {
		t.Errorf("Shares = %s, want 12", got.Shares)
	}
	if got.ID != id {
		t.Errorf("replaced record ID = %d, want %d", got.ID, id)
	}

	if err := store.Replace(ctx, 9999, amended); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("replace of missing id: got %v, want ErrNotFound", err)
	}
}

func TestListByAccountOrdering(t *testing.T) {
	store := newUnitTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	// Append out of date order; two records share the same date.
	if _, err := store.Append(ctx, testTxn("acct1", "MSFT", base.AddDate(0, 0, 2))); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if _, err := store.Append(ctx, testTxn("acct1", "AAPL", base)); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if _, err := store.Append(ctx, testTxn("acct1", "TSLA", base)); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if _, err := store.Append(ctx, testTxn("other", "NVDA", base)); err != nil {
		t.Fatalf("Append: %v", err)
	}

	txns, err := store.ListByAccount(ctx, "acct1")
	if err != nil {
		t.Fatalf("ListByAccount: %v", err)
	}
	if len(txns) != 3 {
		t.Fatalf("len = %d, want 3", len(txns))
	}
	// Date ascending, equal dates break by ID.
	if txns[0].Symbol != "AAPL" || txns[1].Symbol != "TSLA" || txns[2].Symbol != "MSFT" {
		t.Errorf("order = [%s, %s, %s], want [AAPL, TSLA, MSFT]",
			txns[0].Symbol, txns[1].Symbol, txns[2].Symbol)
	}
}

func TestListAll(t *testing.T) {
	store := newUnitTestStore(t)
	ctx := context.Background()

	if _, err := store.Append(ctx, testTxn("alice", "AAPL", time.Now())); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if _, err := store.Append(ctx, testTxn("bob", "MSFT", time.Now())); err != nil {
		t.Fatalf("Append: %v", err)
	}

	txns, err := store.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	if len(txns) != 2 {
		t.Errorf("len = %d, want 2", len(txns))
	}
}

func TestRetryConflictUnwrapsWrappedErrors(t *testing.T) {
	calls := 0
	err := retryConflict(func() error {
		calls++
		return fmt.Errorf("insert: %w", badger.ErrConflict)
	})
	if calls != maxWriteRetries {
		t.Errorf("calls = %d, want %d", calls, maxWriteRetries)
	}
	if !errors.Is(err, models.ErrConflict) {
		t.Errorf("got %v, want ErrConflict", err)
	}
}

func TestIDsSurviveReopen(t *testing.T) {
	dir := t.TempDir()
	logger := common.NewSilentLogger()
	ctx := context.Background()

	store, err := NewStore(logger, dir)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	id1, err := store.Append(ctx, testTxn("acct1", "AAPL", time.Now()))
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := NewStore(logger, dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	t.Cleanup(func() { reopened.Close() })

	got, err := reopened.GetByID(ctx, id1)
	if err != nil {
		t.Fatalf("GetByID after reopen: %v", err)
	}
	if got.Symbol != "AAPL" {
		t.Errorf("got %+v", got)
	}

	id2, err := reopened.Append(ctx, testTxn("acct1", "MSFT", time.Now()))
	if err != nil {
		t.Fatalf("Append after reopen: %v", err)
	}
	if id2 <= id1 {
		t.Errorf("id after reopen = %d, not greater than %d", id2, id1)
	}
}
