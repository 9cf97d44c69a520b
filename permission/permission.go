// Package permission defines the coarse Permission entity owned by roles.
package permission

import (
	"time"

	"github.com/xraph/gatehouse/id"
)

// Permission is a named, non-module-specific capability (e.g. "manage tenants").
// Module-scoped actions live in the grant package instead.
type Permission struct {
	ID          id.PermissionID `json:"id" db:"id"`
	Name        string          `json:"name" db:"name"`
	GuardName   string          `json:"guard_name" db:"guard_name"`
	Description string          `json:"description,omitempty" db:"description"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at" db:"updated_at"`
}

// ListFilter contains filters for listing permissions.
type ListFilter struct {
	GuardName string `json:"guard_name,omitempty"`
	Search    string `json:"search,omitempty"`
	Limit     int    `json:"limit,omitempty"`
	Offset    int    `json:"offset,omitempty"`
}
