// Package plugin defines the plugin system for Gatehouse.
// Plugins are notified of lifecycle events (guard evaluated, grants
// replaced, subscription changed, etc.) and can react with logging,
// metrics or outbound notifications.
//
// Each lifecycle hook is a separate interface so plugins opt in only
// to the events they care about.
package plugin

import (
	"context"

	"github.com/xraph/gatehouse/assignment"
	"github.com/xraph/gatehouse/entitlement"
	"github.com/xraph/gatehouse/grant"
	"github.com/xraph/gatehouse/id"
	"github.com/xraph/gatehouse/module"
	"github.com/xraph/gatehouse/permission"
	"github.com/xraph/gatehouse/role"
	"github.com/xraph/gatehouse/subscription"
)

// Plugin is the base interface all plugins must implement.
type Plugin interface {
	// Name returns a unique human-readable name for the plugin.
	Name() string
}

// ──────────────────────────────────────────────────
// Guard lifecycle hooks
// ──────────────────────────────────────────────────

// BeforeGuard is called before the guard chain runs.
// The principal parameter is *gatehouse.Principal and req is
// gatehouse.Requirement (passed as any to avoid import cycle).
type BeforeGuard interface {
	OnBeforeGuard(ctx context.Context, principal, req any) error
}

// AfterGuard is called after the guard chain produced a verdict.
// The verdict parameter is *gatehouse.Verdict.
type AfterGuard interface {
	OnAfterGuard(ctx context.Context, principal, req, verdict any) error
}

// ──────────────────────────────────────────────────
// Write path hooks
// ──────────────────────────────────────────────────

// GrantsReplaced is called after a user's module grants were replaced.
type GrantsReplaced interface {
	OnGrantsReplaced(ctx context.Context, userID string, grants []*grant.Grant) error
}

// EntitlementsReplaced is called after a tenant's entitlements were replaced.
type EntitlementsReplaced interface {
	OnEntitlementsReplaced(ctx context.Context, tenantID string, ents []*entitlement.Entitlement) error
}

// SubscriptionChanged is called after a tenant's subscription was created
// or updated.
type SubscriptionChanged interface {
	OnSubscriptionChanged(ctx context.Context, s *subscription.Subscription) error
}

// ──────────────────────────────────────────────────
// Catalog hooks
// ──────────────────────────────────────────────────

// RoleCreated is called after a role is seeded into the catalog.
type RoleCreated interface {
	OnRoleCreated(ctx context.Context, r *role.Role) error
}

// PermissionCreated is called after a permission is created.
type PermissionCreated interface {
	OnPermissionCreated(ctx context.Context, p *permission.Permission) error
}

// PermissionAttached is called after a permission is attached to a role.
type PermissionAttached interface {
	OnPermissionAttached(ctx context.Context, roleID id.RoleID, permID id.PermissionID) error
}

// ModuleCreated is called after a module is added to the catalog.
type ModuleCreated interface {
	OnModuleCreated(ctx context.Context, m *module.Module) error
}

// ModuleDeleted is called after a module is removed from the catalog.
type ModuleDeleted interface {
	OnModuleDeleted(ctx context.Context, code string) error
}

// ──────────────────────────────────────────────────
// Assignment lifecycle hooks
// ──────────────────────────────────────────────────

// RoleAssigned is called after a role is assigned to a user.
type RoleAssigned interface {
	OnRoleAssigned(ctx context.Context, a *assignment.Assignment) error
}

// RoleUnassigned is called after a role is removed from a user.
type RoleUnassigned interface {
	OnRoleUnassigned(ctx context.Context, userID string, roleID id.RoleID) error
}

// ──────────────────────────────────────────────────
// Shutdown hook
// ──────────────────────────────────────────────────

// Shutdown is called during graceful shutdown.
type Shutdown interface {
	OnShutdown(ctx context.Context) error
}
