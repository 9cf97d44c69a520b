package grant

import "context"

// Store defines persistence operations for user module grants.
type Store interface {
	// GetGrant retrieves the grant of a user for a module.
	GetGrant(ctx context.Context, userID, moduleCode string) (*Grant, error)

	// ListGrants returns every grant row of a user ordered by module code.
	ListGrants(ctx context.Context, userID string) ([]*Grant, error)

	// ReplaceGrants deletes all grant rows of a user and inserts grants in a
	// single transaction. Concurrent readers observe either the old or the
	// new set, never an empty intermediate.
	ReplaceGrants(ctx context.Context, userID string, grants []*Grant) error

	// DeleteGrantsByUser removes all grant rows of a user.
	DeleteGrantsByUser(ctx context.Context, userID string) error
}
