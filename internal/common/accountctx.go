package common

import "context"

// AccountContext carries the authenticated account identity resolved by the
// HTTP layer. Services below the transport never read it; they take explicit
// account IDs. It exists only so handlers can pass identity from middleware
// to the handler body.
type AccountContext struct {
	AccountID string
	Username  string
	Role      string
}

type contextKey int

const accountContextKey contextKey = iota

// WithAccountContext stores an AccountContext in the request context.
func WithAccountContext(ctx context.Context, ac *AccountContext) context.Context {
	return context.WithValue(ctx, accountContextKey, ac)
}

// AccountFromContext retrieves the AccountContext, or nil when the request
// is unauthenticated.
func AccountFromContext(ctx context.Context) *AccountContext {
	ac, _ := ctx.Value(accountContextKey).(*AccountContext)
	return ac
}
