package models

import "errors"

// Sentinel errors for the ledger and its collaborators. Callers match with
// errors.Is; layers add context with fmt.Errorf("...: %w", err).
var (
	// ErrValidation covers bad input: non-positive quantity or price, an
	// unknown order kind, or a missing symbol/account.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound covers unknown transaction IDs, accounts, and holdings.
	ErrNotFound = errors.New("not found")

	// ErrNoPosition is returned when a sell targets a symbol the account
	// does not hold.
	ErrNoPosition = errors.New("no open position")

	// ErrInsufficientShares is returned when a sell exceeds the held quantity.
	ErrInsufficientShares = errors.New("insufficient shares")

	// ErrConflict is returned when a storage write collides after retries.
	ErrConflict = errors.New("write conflict")

	// ErrUpstream is returned when the market data provider fails. Absence
	// of a price is not an error and is never reported this way.
	ErrUpstream = errors.New("upstream unavailable")
)
