// Package assignment defines the role-to-user binding.
package assignment

import (
	"time"

	"github.com/xraph/gatehouse/id"
)

// Assignment binds a catalog role to a user. A user holds each role at most once.
type Assignment struct {
	ID        id.AssignmentID `json:"id" db:"id"`
	UserID    string          `json:"user_id" db:"user_id"`
	RoleID    id.RoleID       `json:"role_id" db:"role_id"`
	GrantedBy string          `json:"granted_by,omitempty" db:"granted_by"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
}

// ListFilter contains filters for listing assignments.
type ListFilter struct {
	UserID string     `json:"user_id,omitempty"`
	RoleID *id.RoleID `json:"role_id,omitempty"`
	Limit  int        `json:"limit,omitempty"`
	Offset int        `json:"offset,omitempty"`
}
