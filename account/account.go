// Package account defines the principal directory: which tenant a user
// belongs to and whether the user may act at all.
package account

import "time"

// Account is the access-control view of a user owned by the host application.
// TenantID is empty only for platform owners.
type Account struct {
	UserID    string    `json:"user_id" db:"user_id"`
	TenantID  string    `json:"tenant_id,omitempty" db:"tenant_id"`
	Active    bool      `json:"active" db:"active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// ListFilter contains filters for listing accounts.
type ListFilter struct {
	TenantID string `json:"tenant_id,omitempty"`
	Active   *bool  `json:"active,omitempty"`
	Limit    int    `json:"limit,omitempty"`
	Offset   int    `json:"offset,omitempty"`
}
