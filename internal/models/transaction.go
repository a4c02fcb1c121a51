package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// OrderKind is the direction of a trade.
type OrderKind string

const (
	OrderBuy  OrderKind = "buy"
	OrderSell OrderKind = "sell"
)

// ParseOrderKind normalises a raw order kind string. Anything other than
// "buy" or "sell" is a validation error.
func ParseOrderKind(raw string) (OrderKind, error) {
	switch OrderKind(raw) {
	case OrderBuy:
		return OrderBuy, nil
	case OrderSell:
		return OrderSell, nil
	default:
		return "", fmt.Errorf("%w: unknown order kind %q", ErrValidation, raw)
	}
}

// Transaction is one immutable trade record. ID is zero until the store
// assigns it on append; after that the record only changes by full
// replacement through the admin correction path.
type Transaction struct {
	ID            uint64          `json:"id" badgerhold:"key"`
	AccountID     string          `json:"account_id"`
	Symbol        string          `json:"symbol"`
	Shares        decimal.Decimal `json:"shares"`
	PricePerShare decimal.Decimal `json:"price_per_share"`
	Kind          OrderKind       `json:"kind"`
	Date          time.Time       `json:"date"`
}

// Validate checks the invariants a record must satisfy before persisting.
func (t *Transaction) Validate() error {
	if t.AccountID == "" {
		return fmt.Errorf("%w: account id is required", ErrValidation)
	}
	if t.Symbol == "" {
		return fmt.Errorf("%w: symbol is required", ErrValidation)
	}
	if !t.Shares.IsPositive() {
		return fmt.Errorf("%w: shares must be positive, got %s", ErrValidation, t.Shares)
	}
	if !t.PricePerShare.IsPositive() {
		return fmt.Errorf("%w: price must be positive, got %s", ErrValidation, t.PricePerShare)
	}
	if _, err := ParseOrderKind(string(t.Kind)); err != nil {
		return err
	}
	return nil
}

// SignedTotal is the cash effect of the trade: shares x price, negative for
// buys (cash out) and positive for sells (cash in). Downstream reporting
// depends on this exact sign convention.
func (t *Transaction) SignedTotal() decimal.Decimal {
	total := t.Shares.Mul(t.PricePerShare)
	if t.Kind == OrderBuy {
		return total.Neg()
	}
	return total
}
