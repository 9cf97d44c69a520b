package assignment

import (
	"context"

	"github.com/xraph/gatehouse/id"
)

// Store defines persistence operations for role assignments.
type Store interface {
	// CreateAssignment persists a new assignment. Assigning a role the user
	// already holds returns an error wrapping store.ErrConflict.
	CreateAssignment(ctx context.Context, a *Assignment) error

	// GetAssignment retrieves an assignment by ID.
	GetAssignment(ctx context.Context, assID id.AssignmentID) (*Assignment, error)

	// DeleteAssignment removes an assignment by ID.
	DeleteAssignment(ctx context.Context, assID id.AssignmentID) error

	// DeleteUserRole removes the binding between a user and a role, if any.
	DeleteUserRole(ctx context.Context, userID string, roleID id.RoleID) error

	// ListAssignments returns assignments matching the filter, oldest first.
	ListAssignments(ctx context.Context, filter *ListFilter) ([]*Assignment, error)

	// ListRolesForUser returns role IDs assigned to a user in assignment order.
	ListRolesForUser(ctx context.Context, userID string) ([]id.RoleID, error)

	// DeleteAssignmentsByUser removes all assignments for a user.
	DeleteAssignmentsByUser(ctx context.Context, userID string) error

	// DeleteAssignmentsByRole removes all assignments for a role.
	DeleteAssignmentsByRole(ctx context.Context, roleID id.RoleID) error
}
