package gatehouse

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/xraph/gatehouse/module"
	"github.com/xraph/gatehouse/subscription"
)

// ModuleCapability is one reachable module with the actions allowed on it.
type ModuleCapability struct {
	Code    string   `json:"code"`
	Name    string   `json:"name"`
	Actions []Action `json:"actions"`
}

// Capabilities is the navigation projection for one principal: every
// module it can reach, ordered by catalog sort order then code.
type Capabilities struct {
	UserID       string              `json:"user_id"`
	TenantID     string              `json:"tenant_id,omitempty"`
	Roles        []Role              `json:"roles"`
	Active       bool                `json:"active"`
	Subscription subscription.Status `json:"subscription,omitempty"`
	Modules      []ModuleCapability  `json:"modules"`
	Generation   uint64              `json:"generation"`
	ComputedAt   time.Time           `json:"computed_at"`
}

// Module returns the capability entry for code.
func (c *Capabilities) Module(code string) (ModuleCapability, bool) {
	if c == nil {
		return ModuleCapability{}, false
	}
	for _, m := range c.Modules {
		if m.Code == code {
			return m, true
		}
	}
	return ModuleCapability{}, false
}

// Can reports whether the projection allows action on the module.
func (c *Capabilities) Can(code string, action Action) bool {
	m, ok := c.Module(code)
	return ok && slices.Contains(m.Actions, action)
}

// Evaluate runs the guard chain against the projection instead of stored
// facts, with the same stage order as Engine.Guard. It serves callers that
// hold a cached projection, such as client-side route guards.
func (c *Capabilities) Evaluate(p *Principal, req Requirement) *Verdict {
	if p == nil || !p.Active() || c == nil || c.UserID != p.UserID() {
		return deny(StageAuthentication, ReasonUnauthenticated)
	}
	if !p.IsPlatformOwner() {
		switch c.Subscription {
		case subscription.StatusActive, subscription.StatusUnlimited:
		default:
			return deny(StageSubscription, ReasonSubscriptionExpired)
		}
	}
	if len(req.Roles) > 0 && !p.HasAnyRole(req.Roles...) {
		return deny(StageRole, ReasonRoleDenied)
	}
	if req.Module != "" {
		if _, ok := c.Module(req.Module); !ok {
			return deny(StageModule, ReasonModuleDenied)
		}
		if req.Action != "" && !c.Can(req.Module, req.Action) {
			return deny(StageModule, ReasonActionDenied)
		}
	}
	return allow()
}

// Project builds the capability projection of p from a snapshot and the
// module catalog. It is pure.
func Project(p *Principal, snap *Snapshot, catalog []*module.Module) *Capabilities {
	caps := &Capabilities{Modules: []ModuleCapability{}}
	if snap != nil {
		caps.ComputedAt = snap.At
	}
	if p == nil {
		return caps
	}
	caps.UserID = p.UserID()
	caps.TenantID = p.TenantID()
	caps.Roles = p.Roles()
	caps.Active = p.Active()
	if !p.IsPlatformOwner() {
		caps.Subscription = snap.SubscriptionStatus()
	}

	ordered := slices.Clone(catalog)
	slices.SortStableFunc(ordered, func(a, b *module.Module) int {
		if a.SortOrder != b.SortOrder {
			return a.SortOrder - b.SortOrder
		}
		return strings.Compare(a.Code, b.Code)
	})

	for _, m := range ordered {
		if !snap.CanAccessModule(p, m.Code) {
			continue
		}
		var allowed []Action
		for _, a := range ModuleActions(m.Actions).Slice() {
			if snap.CanPerform(p, m.Code, a) {
				allowed = append(allowed, a)
			}
		}
		name := m.Name
		if g, ok := snap.Grant(m.Code); ok && g.Name != "" && name == "" {
			name = g.Name
		}
		caps.Modules = append(caps.Modules, ModuleCapability{
			Code:    m.Code,
			Name:    name,
			Actions: allowed,
		})
	}
	return caps
}

// Capabilities returns the projection for p, served from the capability
// cache when a current entry exists.
func (e *Engine) Capabilities(ctx context.Context, p *Principal) (*Capabilities, error) {
	if p == nil {
		return nil, ErrUnauthenticated
	}

	var gen uint64
	if e.cache != nil {
		gen = e.cache.Generation(ctx, p.TenantID(), p.UserID())
		if cached, ok := e.cache.Get(ctx, p.TenantID(), p.UserID()); ok && cached.Generation == gen {
			return cached, nil
		}
	}

	snap, err := e.Snapshot(ctx, p)
	if err != nil {
		return nil, err
	}
	catalog, err := e.store.ListModules(ctx)
	if err != nil {
		return nil, fmt.Errorf("gatehouse: list modules: %w", err)
	}

	caps := Project(p, snap, catalog)
	caps.Generation = gen
	if e.cache != nil {
		e.cache.Set(ctx, caps)
	}
	return caps, nil
}

// InvalidateCapabilities drops any cached projection for userID. Call it
// on login and logout.
func (e *Engine) InvalidateCapabilities(ctx context.Context, userID string) {
	if e.cache != nil {
		e.cache.InvalidateUser(ctx, userID)
	}
}
