// Package entitlement defines tenant-level module entitlements.
package entitlement

import (
	"time"

	"github.com/xraph/gatehouse/id"
)

// Entitlement records whether a module is provisioned for a tenant.
// (TenantID, ModuleCode) is unique; a missing row means "not entitled".
type Entitlement struct {
	ID         id.EntitlementID `json:"id" db:"id"`
	TenantID   string           `json:"tenant_id" db:"tenant_id"`
	ModuleCode string           `json:"module_code" db:"module_code"`
	Active     bool             `json:"active" db:"active"`
	CreatedAt  time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time        `json:"updated_at" db:"updated_at"`
}
