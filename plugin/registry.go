package plugin

import (
	"context"
	"log/slog"

	"github.com/xraph/gatehouse/assignment"
	"github.com/xraph/gatehouse/entitlement"
	"github.com/xraph/gatehouse/grant"
	"github.com/xraph/gatehouse/id"
	"github.com/xraph/gatehouse/module"
	"github.com/xraph/gatehouse/permission"
	"github.com/xraph/gatehouse/role"
	"github.com/xraph/gatehouse/subscription"
)

// Named entry types pair a hook with the plugin name for logging.

type beforeGuardEntry struct {
	name string
	hook BeforeGuard
}
type afterGuardEntry struct {
	name string
	hook AfterGuard
}
type grantsReplacedEntry struct {
	name string
	hook GrantsReplaced
}
type entitlementsReplacedEntry struct {
	name string
	hook EntitlementsReplaced
}
type subscriptionChangedEntry struct {
	name string
	hook SubscriptionChanged
}
type roleCreatedEntry struct {
	name string
	hook RoleCreated
}
type permissionCreatedEntry struct {
	name string
	hook PermissionCreated
}
type permissionAttachedEntry struct {
	name string
	hook PermissionAttached
}
type moduleCreatedEntry struct {
	name string
	hook ModuleCreated
}
type moduleDeletedEntry struct {
	name string
	hook ModuleDeleted
}
type roleAssignedEntry struct {
	name string
	hook RoleAssigned
}
type roleUnassignedEntry struct {
	name string
	hook RoleUnassigned
}
type shutdownEntry struct {
	name string
	hook Shutdown
}

// Registry holds registered plugins and dispatches lifecycle events.
// It type-caches plugins at registration time so emit calls iterate
// only over plugins implementing the relevant hook.
type Registry struct {
	plugins []Plugin
	logger  *slog.Logger

	beforeGuard          []beforeGuardEntry
	afterGuard           []afterGuardEntry
	grantsReplaced       []grantsReplacedEntry
	entitlementsReplaced []entitlementsReplacedEntry
	subscriptionChanged  []subscriptionChangedEntry
	roleCreated          []roleCreatedEntry
	permissionCreated    []permissionCreatedEntry
	permissionAttached   []permissionAttachedEntry
	moduleCreated        []moduleCreatedEntry
	moduleDeleted        []moduleDeletedEntry
	roleAssigned         []roleAssignedEntry
	roleUnassigned       []roleUnassignedEntry
	shutdown             []shutdownEntry
}

// NewRegistry creates a plugin registry with the given logger.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{logger: logger}
}

// Register adds a plugin and type-asserts it into all applicable
// hook caches. Plugins are notified in registration order.
func (r *Registry) Register(p Plugin) {
	r.plugins = append(r.plugins, p)
	name := p.Name()

	if h, ok := p.(BeforeGuard); ok {
		r.beforeGuard = append(r.beforeGuard, beforeGuardEntry{name, h})
	}
	if h, ok := p.(AfterGuard); ok {
		r.afterGuard = append(r.afterGuard, afterGuardEntry{name, h})
	}
	if h, ok := p.(GrantsReplaced); ok {
		r.grantsReplaced = append(r.grantsReplaced, grantsReplacedEntry{name, h})
	}
	if h, ok := p.(EntitlementsReplaced); ok {
		r.entitlementsReplaced = append(r.entitlementsReplaced, entitlementsReplacedEntry{name, h})
	}
	if h, ok := p.(SubscriptionChanged); ok {
		r.subscriptionChanged = append(r.subscriptionChanged, subscriptionChangedEntry{name, h})
	}
	if h, ok := p.(RoleCreated); ok {
		r.roleCreated = append(r.roleCreated, roleCreatedEntry{name, h})
	}
	if h, ok := p.(PermissionCreated); ok {
		r.permissionCreated = append(r.permissionCreated, permissionCreatedEntry{name, h})
	}
	if h, ok := p.(PermissionAttached); ok {
		r.permissionAttached = append(r.permissionAttached, permissionAttachedEntry{name, h})
	}
	if h, ok := p.(ModuleCreated); ok {
		r.moduleCreated = append(r.moduleCreated, moduleCreatedEntry{name, h})
	}
	if h, ok := p.(ModuleDeleted); ok {
		r.moduleDeleted = append(r.moduleDeleted, moduleDeletedEntry{name, h})
	}
	if h, ok := p.(RoleAssigned); ok {
		r.roleAssigned = append(r.roleAssigned, roleAssignedEntry{name, h})
	}
	if h, ok := p.(RoleUnassigned); ok {
		r.roleUnassigned = append(r.roleUnassigned, roleUnassignedEntry{name, h})
	}
	if h, ok := p.(Shutdown); ok {
		r.shutdown = append(r.shutdown, shutdownEntry{name, h})
	}
}

// Plugins returns all registered plugins.
func (r *Registry) Plugins() []Plugin { return r.plugins }

// ──────────────────────────────────────────────────
// Guard event emitters
// ──────────────────────────────────────────────────

// EmitBeforeGuard notifies all plugins that implement BeforeGuard.
func (r *Registry) EmitBeforeGuard(ctx context.Context, principal, req any) {
	for _, e := range r.beforeGuard {
		if err := e.hook.OnBeforeGuard(ctx, principal, req); err != nil {
			r.logHookError("OnBeforeGuard", e.name, err)
		}
	}
}

// EmitAfterGuard notifies all plugins that implement AfterGuard.
func (r *Registry) EmitAfterGuard(ctx context.Context, principal, req, verdict any) {
	for _, e := range r.afterGuard {
		if err := e.hook.OnAfterGuard(ctx, principal, req, verdict); err != nil {
			r.logHookError("OnAfterGuard", e.name, err)
		}
	}
}

// ──────────────────────────────────────────────────
// Write path emitters
// ──────────────────────────────────────────────────

// EmitGrantsReplaced notifies all plugins that implement GrantsReplaced.
func (r *Registry) EmitGrantsReplaced(ctx context.Context, userID string, grants []*grant.Grant) {
	for _, e := range r.grantsReplaced {
		if err := e.hook.OnGrantsReplaced(ctx, userID, grants); err != nil {
			r.logHookError("OnGrantsReplaced", e.name, err)
		}
	}
}

// EmitEntitlementsReplaced notifies all plugins that implement EntitlementsReplaced.
func (r *Registry) EmitEntitlementsReplaced(ctx context.Context, tenantID string, ents []*entitlement.Entitlement) {
	for _, e := range r.entitlementsReplaced {
		if err := e.hook.OnEntitlementsReplaced(ctx, tenantID, ents); err != nil {
			r.logHookError("OnEntitlementsReplaced", e.name, err)
		}
	}
}

// EmitSubscriptionChanged notifies all plugins that implement SubscriptionChanged.
func (r *Registry) EmitSubscriptionChanged(ctx context.Context, s *subscription.Subscription) {
	for _, e := range r.subscriptionChanged {
		if err := e.hook.OnSubscriptionChanged(ctx, s); err != nil {
			r.logHookError("OnSubscriptionChanged", e.name, err)
		}
	}
}

// ──────────────────────────────────────────────────
// Catalog emitters
// ──────────────────────────────────────────────────

// EmitRoleCreated notifies all plugins that implement RoleCreated.
func (r *Registry) EmitRoleCreated(ctx context.Context, rl *role.Role) {
	for _, e := range r.roleCreated {
		if err := e.hook.OnRoleCreated(ctx, rl); err != nil {
			r.logHookError("OnRoleCreated", e.name, err)
		}
	}
}

// EmitPermissionCreated notifies all plugins that implement PermissionCreated.
func (r *Registry) EmitPermissionCreated(ctx context.Context, p *permission.Permission) {
	for _, e := range r.permissionCreated {
		if err := e.hook.OnPermissionCreated(ctx, p); err != nil {
			r.logHookError("OnPermissionCreated", e.name, err)
		}
	}
}

// EmitPermissionAttached notifies all plugins that implement PermissionAttached.
func (r *Registry) EmitPermissionAttached(ctx context.Context, roleID id.RoleID, permID id.PermissionID) {
	for _, e := range r.permissionAttached {
		if err := e.hook.OnPermissionAttached(ctx, roleID, permID); err != nil {
			r.logHookError("OnPermissionAttached", e.name, err)
		}
	}
}

// EmitModuleCreated notifies all plugins that implement ModuleCreated.
func (r *Registry) EmitModuleCreated(ctx context.Context, m *module.Module) {
	for _, e := range r.moduleCreated {
		if err := e.hook.OnModuleCreated(ctx, m); err != nil {
			r.logHookError("OnModuleCreated", e.name, err)
		}
	}
}

// EmitModuleDeleted notifies all plugins that implement ModuleDeleted.
func (r *Registry) EmitModuleDeleted(ctx context.Context, code string) {
	for _, e := range r.moduleDeleted {
		if err := e.hook.OnModuleDeleted(ctx, code); err != nil {
			r.logHookError("OnModuleDeleted", e.name, err)
		}
	}
}

// ──────────────────────────────────────────────────
// Assignment emitters
// ──────────────────────────────────────────────────

// EmitRoleAssigned notifies all plugins that implement RoleAssigned.
func (r *Registry) EmitRoleAssigned(ctx context.Context, a *assignment.Assignment) {
	for _, e := range r.roleAssigned {
		if err := e.hook.OnRoleAssigned(ctx, a); err != nil {
			r.logHookError("OnRoleAssigned", e.name, err)
		}
	}
}

// EmitRoleUnassigned notifies all plugins that implement RoleUnassigned.
func (r *Registry) EmitRoleUnassigned(ctx context.Context, userID string, roleID id.RoleID) {
	for _, e := range r.roleUnassigned {
		if err := e.hook.OnRoleUnassigned(ctx, userID, roleID); err != nil {
			r.logHookError("OnRoleUnassigned", e.name, err)
		}
	}
}

// ──────────────────────────────────────────────────
// Shutdown emitter
// ──────────────────────────────────────────────────

// EmitShutdown notifies all plugins that implement Shutdown.
func (r *Registry) EmitShutdown(ctx context.Context) {
	for _, e := range r.shutdown {
		if err := e.hook.OnShutdown(ctx); err != nil {
			r.logHookError("OnShutdown", e.name, err)
		}
	}
}

// logHookError logs a warning when a lifecycle hook returns an error.
// Hook errors are never propagated to the caller.
func (r *Registry) logHookError(hook, pluginName string, err error) {
	r.logger.Warn("plugin hook error",
		slog.String("hook", hook),
		slog.String("plugin", pluginName),
		slog.String("error", err.Error()),
	)
}
