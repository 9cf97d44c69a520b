// Package grant defines per-user module permission overrides.
package grant

import (
	"time"

	"github.com/xraph/gatehouse/id"
)

// Grant is the set of actions a user may perform on one module,
// independent of role. (UserID, ModuleCode) is unique.
type Grant struct {
	ID         id.GrantID `json:"id" db:"id"`
	UserID     string     `json:"user_id" db:"user_id"`
	ModuleCode string     `json:"module_code" db:"module_code"`
	ModuleName string     `json:"module_name" db:"module_name"`
	Active     bool       `json:"active" db:"active"`
	Actions    []string   `json:"actions" db:"actions"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
}
