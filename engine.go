package gatehouse

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/xraph/gatehouse/entitlement"
	"github.com/xraph/gatehouse/grant"
	"github.com/xraph/gatehouse/plugin"
	"github.com/xraph/gatehouse/store"
)

// Engine is the central access decision engine. It resolves principals,
// loads decision snapshots, runs the guard chain, projects capabilities and
// performs the atomic write path.
type Engine struct {
	store   store.Store
	cache   CapabilityCache
	plugins *plugin.Registry
	logger  *slog.Logger
	config  Config
	now     func() time.Time
}

// NewEngine creates a new Gatehouse engine with the given options.
func NewEngine(opts ...Option) (*Engine, error) {
	e := &Engine{
		logger: slog.Default(),
		config: DefaultConfig(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.store == nil {
		return nil, errors.New("gatehouse: store is required")
	}
	return e, nil
}

// Store returns the underlying composite store.
func (e *Engine) Store() store.Store { return e.store }

// Plugins returns the plugin registry (may be nil).
func (e *Engine) Plugins() *plugin.Registry { return e.plugins }

// Config returns the engine configuration.
func (e *Engine) Config() Config { return e.config }

// Now returns the current time of the engine clock.
func (e *Engine) Now() time.Time { return e.now() }

// Start seeds the role catalog.
func (e *Engine) Start(ctx context.Context) error {
	return e.SeedRoles(ctx)
}

// Stop performs graceful shutdown.
func (e *Engine) Stop(ctx context.Context) error {
	if e.plugins != nil {
		e.plugins.EmitShutdown(ctx)
	}
	return nil
}

// ResolvePrincipal loads the account and assigned roles of userID.
func (e *Engine) ResolvePrincipal(ctx context.Context, userID string) (*Principal, error) {
	if userID == "" {
		return nil, ErrUserRequired
	}
	acct, err := e.store.GetAccount(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrAccountNotFound, userID)
		}
		return nil, fmt.Errorf("gatehouse: get account: %w", err)
	}

	roleIDs, err := e.store.ListRolesForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("gatehouse: list roles for user: %w", err)
	}
	roles := make([]Role, 0, len(roleIDs))
	for _, rid := range roleIDs {
		row, err := e.store.GetRole(ctx, rid)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("gatehouse: get role %s: %w", rid, err)
		}
		r, err := ParseRole(row.Name)
		if err != nil {
			e.logger.Warn("gatehouse: ignoring catalog role outside vocabulary",
				"user_id", userID,
				"role", row.Name,
			)
			continue
		}
		roles = append(roles, r)
	}

	return NewPrincipal(acct.UserID, acct.TenantID, acct.Active, roles...)
}

// ResolveFromContext resolves the principal of the authenticated user in
// ctx. When the request scope names an organization, it must match the
// principal's tenant unless the principal is a platform owner.
func (e *Engine) ResolveFromContext(ctx context.Context) (*Principal, error) {
	if p, ok := PrincipalFrom(ctx); ok {
		return p, nil
	}
	uid := UserIDFromContext(ctx)
	if uid == "" {
		return nil, ErrUnauthenticated
	}
	p, err := e.ResolvePrincipal(ctx, uid)
	if err != nil {
		return nil, err
	}
	if hint := tenantHint(ctx); hint != "" && !p.IsPlatformOwner() && hint != p.TenantID() {
		return nil, fmt.Errorf("%w: scope %s", ErrTenantMismatch, hint)
	}
	return p, nil
}

// Snapshot loads every fact a decision about p needs. Platform owners get
// an empty snapshot since no stored fact can restrict them.
func (e *Engine) Snapshot(ctx context.Context, p *Principal) (*Snapshot, error) {
	now := e.now()
	if p == nil {
		return NewSnapshot("", "", nil, nil, nil, now), nil
	}
	if p.IsPlatformOwner() {
		return NewSnapshot(p.UserID(), p.TenantID(), nil, nil, nil, now), nil
	}

	sub, err := e.store.GetSubscription(ctx, p.TenantID())
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("gatehouse: get subscription: %w", err)
	}
	ents, err := e.store.ListEntitlements(ctx, p.TenantID())
	if err != nil {
		return nil, fmt.Errorf("gatehouse: list entitlements: %w", err)
	}
	grants, err := e.store.ListGrants(ctx, p.UserID())
	if err != nil {
		return nil, fmt.Errorf("gatehouse: list grants: %w", err)
	}
	catalog, err := e.catalogIndex(ctx)
	if err != nil {
		return nil, err
	}

	// Rows for codes missing from the catalog never grant anything.
	ents = slices.DeleteFunc(ents, func(ent *entitlement.Entitlement) bool {
		_, ok := catalog[ent.ModuleCode]
		return !ok
	})
	grants = slices.DeleteFunc(grants, func(g *grant.Grant) bool {
		_, ok := catalog[g.ModuleCode]
		return !ok
	})
	return NewSnapshot(p.UserID(), p.TenantID(), sub, ents, grants, now), nil
}

// CanAccessModule reports whether p may reach the module identified by
// code. Errors are returned only for storage failures.
func (e *Engine) CanAccessModule(ctx context.Context, p *Principal, code string) (bool, error) {
	if p == nil || !p.Active() {
		return false, nil
	}
	snap, err := e.Snapshot(ctx, p)
	if err != nil {
		return false, err
	}
	return snap.CanAccessModule(p, code), nil
}

// CanPerform reports whether p may perform action on the module.
func (e *Engine) CanPerform(ctx context.Context, p *Principal, code string, action Action) (bool, error) {
	if p == nil || !p.Active() {
		return false, nil
	}
	snap, err := e.Snapshot(ctx, p)
	if err != nil {
		return false, err
	}
	return snap.CanPerform(p, code, action), nil
}

// HasPermission reports whether any of p's roles owns the named coarse
// permission.
func (e *Engine) HasPermission(ctx context.Context, p *Principal, name string) (bool, error) {
	if p == nil || !p.Active() {
		return false, nil
	}
	for _, r := range p.Roles() {
		row, err := e.store.GetRoleByName(ctx, string(r))
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			return false, fmt.Errorf("gatehouse: get role %s: %w", r, err)
		}
		perms, err := e.store.ListPermissionsByRole(ctx, row.ID)
		if err != nil {
			return false, fmt.Errorf("gatehouse: list permissions: %w", err)
		}
		for _, perm := range perms {
			if perm.Name == name {
				return true, nil
			}
		}
	}
	return false, nil
}
