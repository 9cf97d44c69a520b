package gatehouse

import (
	"time"

	"github.com/xraph/gatehouse/entitlement"
	"github.com/xraph/gatehouse/grant"
	"github.com/xraph/gatehouse/subscription"
)

// ModuleGrant is the decision-time view of a user's grant for one module.
type ModuleGrant struct {
	Code    string
	Name    string
	Active  bool
	Actions ActionSet
}

// Snapshot holds every stored fact a decision about one principal needs.
// Its methods are pure: no I/O, no errors, no side effects.
type Snapshot struct {
	UserID       string
	TenantID     string
	Subscription *subscription.Subscription
	Entitlements map[string]bool
	Grants       map[string]ModuleGrant
	At           time.Time
}

// NewSnapshot assembles a snapshot from stored rows. Rows belonging to
// other tenants or users are ignored.
func NewSnapshot(
	userID, tenantID string,
	sub *subscription.Subscription,
	ents []*entitlement.Entitlement,
	grants []*grant.Grant,
	at time.Time,
) *Snapshot {
	s := &Snapshot{
		UserID:       userID,
		TenantID:     tenantID,
		Entitlements: make(map[string]bool, len(ents)),
		Grants:       make(map[string]ModuleGrant, len(grants)),
		At:           at,
	}
	if sub != nil && sub.TenantID == tenantID {
		s.Subscription = sub
	}
	for _, e := range ents {
		if e.TenantID != tenantID {
			continue
		}
		s.Entitlements[e.ModuleCode] = e.Active
	}
	for _, g := range grants {
		if g.UserID != userID {
			continue
		}
		s.Grants[g.ModuleCode] = ModuleGrant{
			Code:    g.ModuleCode,
			Name:    g.ModuleName,
			Active:  g.Active,
			Actions: lenientActionSet(g.Actions),
		}
	}
	return s
}

// SubscriptionPermits reports whether the tenant's subscription allows
// access at the snapshot time. A missing subscription never permits.
func (s *Snapshot) SubscriptionPermits() bool {
	if s == nil {
		return false
	}
	return s.Subscription.Permits(s.At)
}

// SubscriptionStatus returns the effective subscription status.
func (s *Snapshot) SubscriptionStatus() subscription.Status {
	if s == nil {
		return subscription.StatusExpired
	}
	return s.Subscription.EffectiveStatus(s.At)
}

// Grant returns the user's grant for code and whether a row exists.
func (s *Snapshot) Grant(code string) (ModuleGrant, bool) {
	if s == nil {
		return ModuleGrant{}, false
	}
	g, ok := s.Grants[code]
	return g, ok
}

// Entitled reports whether the tenant holds an active entitlement for code.
func (s *Snapshot) Entitled(code string) bool {
	if s == nil {
		return false
	}
	return s.Entitlements[code]
}

// belongsTo reports whether the snapshot was loaded for p.
func (s *Snapshot) belongsTo(p *Principal) bool {
	return s != nil && s.UserID == p.UserID() && s.TenantID == p.TenantID()
}

// CanAccessModule reports whether p may reach the module identified by code.
// Platform owners always may. Everyone else needs a permitting subscription,
// an active tenant entitlement and an active user grant. Inactive
// principals never may.
func (s *Snapshot) CanAccessModule(p *Principal, code string) bool {
	if p == nil || !p.Active() {
		return false
	}
	if p.IsPlatformOwner() {
		return true
	}
	if !s.belongsTo(p) || !s.SubscriptionPermits() {
		return false
	}
	if !s.Entitled(code) {
		return false
	}
	g, ok := s.Grant(code)
	return ok && g.Active
}

// CanPerform reports whether p may perform action on the module. Platform
// owners and tenant admins hold every action on any module they can access.
func (s *Snapshot) CanPerform(p *Principal, code string, action Action) bool {
	if !action.Valid() || !s.CanAccessModule(p, code) {
		return false
	}
	if p.IsAdministrative() {
		return true
	}
	g, _ := s.Grant(code)
	return g.Actions.Has(action)
}
