package entitlement

import "context"

// Store defines persistence operations for tenant module entitlements.
type Store interface {
	// GetEntitlement retrieves the entitlement of a tenant for a module.
	GetEntitlement(ctx context.Context, tenantID, moduleCode string) (*Entitlement, error)

	// ListEntitlements returns every entitlement row of a tenant.
	ListEntitlements(ctx context.Context, tenantID string) ([]*Entitlement, error)

	// ReplaceEntitlements atomically replaces all entitlement rows of a tenant.
	ReplaceEntitlements(ctx context.Context, tenantID string, ents []*Entitlement) error

	// DeleteEntitlementsByTenant removes all entitlement rows of a tenant.
	DeleteEntitlementsByTenant(ctx context.Context, tenantID string) error
}
