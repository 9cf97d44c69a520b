// Package role defines the catalog Role entity and its store interface.
//
// Role rows are platform-administration data. The set of names a principal
// may carry is closed (see gatehouse.Role); this package only persists them
// together with the coarse permissions each role owns.
package role

import (
	"time"

	"github.com/xraph/gatehouse/id"
)

// Role is a named role in the platform catalog.
type Role struct {
	ID          id.RoleID `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	GuardName   string    `json:"guard_name" db:"guard_name"`
	Description string    `json:"description,omitempty" db:"description"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// ListFilter contains filters for listing roles.
type ListFilter struct {
	GuardName string `json:"guard_name,omitempty"`
	Search    string `json:"search,omitempty"`
	Limit     int    `json:"limit,omitempty"`
	Offset    int    `json:"offset,omitempty"`
}
