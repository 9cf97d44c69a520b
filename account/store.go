package account

import "context"

// Store defines persistence operations for accounts.
type Store interface {
	// CreateAccount persists a new account.
	CreateAccount(ctx context.Context, a *Account) error

	// GetAccount retrieves the account of a user.
	GetAccount(ctx context.Context, userID string) (*Account, error)

	// UpdateAccount persists changes to an account.
	UpdateAccount(ctx context.Context, a *Account) error

	// DeleteAccount removes the account of a user.
	DeleteAccount(ctx context.Context, userID string) error

	// ListAccounts returns accounts matching the filter.
	ListAccounts(ctx context.Context, filter *ListFilter) ([]*Account, error)
}
