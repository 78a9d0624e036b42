package context

import (
	"context"
)

const contextKeyAccountID = contextKey("accountID")

// AccountIDFromContext extracts the authenticated account ID from the context.
// Returns the account ID and true if present, or empty string and false if not present.
func AccountIDFromContext(ctx context.Context) (string, bool) {
	accountID, ok := ctx.Value(contextKeyAccountID).(string)

	return accountID, ok
}

// WithAccountID creates a new context carrying the account that a request
// authenticated as, so downstream logging can attribute the request.
func WithAccountID(ctx context.Context, accountID string) context.Context {
	return context.WithValue(ctx, contextKeyAccountID, accountID)
}
