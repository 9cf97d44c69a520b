package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/xraph/gatehouse/account"
	"github.com/xraph/gatehouse/entitlement"
	"github.com/xraph/gatehouse/grant"
	"github.com/xraph/gatehouse/id"
	"github.com/xraph/gatehouse/module"
	"github.com/xraph/gatehouse/store"
	"github.com/xraph/gatehouse/subscription"
)

// ──────────────────────────────────────────────────
// Account Store
// ──────────────────────────────────────────────────

func (s *Store) CreateAccount(_ context.Context, a *account.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[a.UserID]; ok {
		return fmt.Errorf("account %s: %w", a.UserID, store.ErrConflict)
	}
	c := *a
	s.accounts[a.UserID] = &c
	return nil
}

func (s *Store) GetAccount(_ context.Context, userID string) (*account.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.accounts[userID]
	if !ok {
		return nil, fmt.Errorf("account %s: %w", userID, store.ErrNotFound)
	}
	c := *a
	return &c, nil
}

func (s *Store) UpdateAccount(_ context.Context, a *account.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[a.UserID]; !ok {
		return fmt.Errorf("account %s: %w", a.UserID, store.ErrNotFound)
	}
	c := *a
	s.accounts[a.UserID] = &c
	return nil
}

func (s *Store) DeleteAccount(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.accounts, userID)
	return nil
}

func (s *Store) ListAccounts(_ context.Context, filter *account.ListFilter) ([]*account.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*account.Account, 0, len(s.accounts))
	for _, a := range s.accounts {
		if filter != nil {
			if filter.TenantID != "" && a.TenantID != filter.TenantID {
				continue
			}
			if filter.Active != nil && a.Active != *filter.Active {
				continue
			}
		}
		c := *a
		result = append(result, &c)
	}
	slices.SortFunc(result, func(a, b *account.Account) int { return cmp.Compare(a.UserID, b.UserID) })
	if filter == nil {
		return result, nil
	}
	return applyPagination(result, pagOpts{filter.Limit, filter.Offset}), nil
}

// ──────────────────────────────────────────────────
// Module Store
// ──────────────────────────────────────────────────

func (s *Store) CreateModule(_ context.Context, m *module.Module) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.modules[m.Code]; ok {
		return fmt.Errorf("module %s: %w", m.Code, store.ErrConflict)
	}
	s.modules[m.Code] = copyModule(m)
	return nil
}

func (s *Store) GetModule(_ context.Context, code string) (*module.Module, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.modules[code]
	if !ok {
		return nil, fmt.Errorf("module %s: %w", code, store.ErrNotFound)
	}
	return copyModule(m), nil
}

func (s *Store) UpdateModule(_ context.Context, m *module.Module) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.modules[m.Code]; !ok {
		return fmt.Errorf("module %s: %w", m.Code, store.ErrNotFound)
	}
	s.modules[m.Code] = copyModule(m)
	return nil
}

// DeleteModule removes the module with its entitlement and grant rows.
func (s *Store) DeleteModule(_ context.Context, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.modules[code]; !ok {
		return fmt.Errorf("module %s: %w", code, store.ErrNotFound)
	}
	delete(s.modules, code)

	// Sets are swapped, never edited, so readers holding the old slice
	// keep a consistent view.
	for tenantID, ents := range s.entitlements {
		if slices.ContainsFunc(ents, func(e *entitlement.Entitlement) bool { return e.ModuleCode == code }) {
			s.entitlements[tenantID] = slices.DeleteFunc(slices.Clone(ents), func(e *entitlement.Entitlement) bool {
				return e.ModuleCode == code
			})
		}
	}
	for userID, grants := range s.grants {
		if slices.ContainsFunc(grants, func(g *grant.Grant) bool { return g.ModuleCode == code }) {
			s.grants[userID] = slices.DeleteFunc(slices.Clone(grants), func(g *grant.Grant) bool {
				return g.ModuleCode == code
			})
		}
	}
	return nil
}

func (s *Store) ListModules(_ context.Context) ([]*module.Module, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*module.Module, 0, len(s.modules))
	for _, m := range s.modules {
		result = append(result, copyModule(m))
	}
	slices.SortFunc(result, func(a, b *module.Module) int {
		if c := cmp.Compare(a.SortOrder, b.SortOrder); c != 0 {
			return c
		}
		return cmp.Compare(a.Code, b.Code)
	})
	return result, nil
}

// ──────────────────────────────────────────────────
// Entitlement Store
// ──────────────────────────────────────────────────

func (s *Store) GetEntitlement(_ context.Context, tenantID, moduleCode string) (*entitlement.Entitlement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.entitlements[tenantID] {
		if e.ModuleCode == moduleCode {
			c := *e
			return &c, nil
		}
	}
	return nil, fmt.Errorf("entitlement %s/%s: %w", tenantID, moduleCode, store.ErrNotFound)
}

func (s *Store) ListEntitlements(_ context.Context, tenantID string) ([]*entitlement.Entitlement, error) {
	s.mu.RLock()
	set := s.entitlements[tenantID]
	s.mu.RUnlock()

	result := make([]*entitlement.Entitlement, len(set))
	for i, e := range set {
		c := *e
		result[i] = &c
	}
	return result, nil
}

// ReplaceEntitlements builds the new set off-lock and swaps it in.
func (s *Store) ReplaceEntitlements(_ context.Context, tenantID string, ents []*entitlement.Entitlement) error {
	next := make([]*entitlement.Entitlement, 0, len(ents))
	seen := make(map[string]struct{}, len(ents))
	for _, e := range ents {
		if _, dup := seen[e.ModuleCode]; dup {
			return fmt.Errorf("entitlement %s/%s: %w", tenantID, e.ModuleCode, store.ErrConflict)
		}
		seen[e.ModuleCode] = struct{}{}
		c := *e
		c.TenantID = tenantID
		next = append(next, &c)
	}
	slices.SortFunc(next, func(a, b *entitlement.Entitlement) int { return cmp.Compare(a.ModuleCode, b.ModuleCode) })

	s.mu.Lock()
	defer s.mu.Unlock()
	if len(next) == 0 {
		delete(s.entitlements, tenantID)
		return nil
	}
	s.entitlements[tenantID] = next
	return nil
}

func (s *Store) DeleteEntitlementsByTenant(_ context.Context, tenantID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entitlements, tenantID)
	return nil
}

// ──────────────────────────────────────────────────
// Grant Store
// ──────────────────────────────────────────────────

func (s *Store) GetGrant(_ context.Context, userID, moduleCode string) (*grant.Grant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, g := range s.grants[userID] {
		if g.ModuleCode == moduleCode {
			return copyGrant(g), nil
		}
	}
	return nil, fmt.Errorf("grant %s/%s: %w", userID, moduleCode, store.ErrNotFound)
}

func (s *Store) ListGrants(_ context.Context, userID string) ([]*grant.Grant, error) {
	s.mu.RLock()
	set := s.grants[userID]
	s.mu.RUnlock()

	result := make([]*grant.Grant, len(set))
	for i, g := range set {
		result[i] = copyGrant(g)
	}
	return result, nil
}

// ReplaceGrants builds the new set off-lock and swaps it in, so readers
// observe either the previous set or the new one.
func (s *Store) ReplaceGrants(_ context.Context, userID string, grants []*grant.Grant) error {
	next := make([]*grant.Grant, 0, len(grants))
	seen := make(map[string]struct{}, len(grants))
	for _, g := range grants {
		if _, dup := seen[g.ModuleCode]; dup {
			return fmt.Errorf("grant %s/%s: %w", userID, g.ModuleCode, store.ErrConflict)
		}
		seen[g.ModuleCode] = struct{}{}
		c := copyGrant(g)
		c.UserID = userID
		next = append(next, c)
	}
	slices.SortFunc(next, func(a, b *grant.Grant) int { return cmp.Compare(a.ModuleCode, b.ModuleCode) })

	s.mu.Lock()
	defer s.mu.Unlock()
	if len(next) == 0 {
		delete(s.grants, userID)
		return nil
	}
	s.grants[userID] = next
	return nil
}

func (s *Store) DeleteGrantsByUser(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.grants, userID)
	return nil
}

// ──────────────────────────────────────────────────
// Subscription Store
// ──────────────────────────────────────────────────

func (s *Store) CreateSubscription(_ context.Context, sub *subscription.Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.subscriptions[sub.TenantID]; ok {
		return fmt.Errorf("subscription for %s: %w", sub.TenantID, store.ErrConflict)
	}
	s.subscriptions[sub.TenantID] = copySubscription(sub)
	return nil
}

func (s *Store) GetSubscription(_ context.Context, tenantID string) (*subscription.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sub, ok := s.subscriptions[tenantID]
	if !ok {
		return nil, fmt.Errorf("subscription for %s: %w", tenantID, store.ErrNotFound)
	}
	return copySubscription(sub), nil
}

func (s *Store) UpdateSubscription(_ context.Context, sub *subscription.Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.subscriptions[sub.TenantID]
	if !ok || existing.ID.String() != sub.ID.String() {
		return fmt.Errorf("subscription %s: %w", sub.ID, store.ErrNotFound)
	}
	s.subscriptions[sub.TenantID] = copySubscription(sub)
	return nil
}

func (s *Store) DeleteSubscription(_ context.Context, subID id.SubscriptionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for tenantID, sub := range s.subscriptions {
		if sub.ID.String() == subID.String() {
			delete(s.subscriptions, tenantID)
		}
	}
	return nil
}

func copyModule(m *module.Module) *module.Module {
	c := *m
	c.Actions = slices.Clone(m.Actions)
	return &c
}

func copyGrant(g *grant.Grant) *grant.Grant {
	c := *g
	c.Actions = slices.Clone(g.Actions)
	return &c
}

func copySubscription(sub *subscription.Subscription) *subscription.Subscription {
	c := *sub
	if sub.EndsAt != nil {
		t := *sub.EndsAt
		c.EndsAt = &t
	}
	return &c
}
