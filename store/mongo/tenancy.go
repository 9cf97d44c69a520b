package mongo

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/xraph/gatehouse/account"
	"github.com/xraph/gatehouse/entitlement"
	"github.com/xraph/gatehouse/grant"
	"github.com/xraph/gatehouse/id"
	"github.com/xraph/gatehouse/module"
	"github.com/xraph/gatehouse/store"
	"github.com/xraph/gatehouse/subscription"
)

// ──────────────────────────────────────────────────
// Account operations
// ──────────────────────────────────────────────────

func (s *Store) CreateAccount(ctx context.Context, a *account.Account) error {
	stamp(&a.CreatedAt)
	stamp(&a.UpdatedAt)
	if _, err := s.mdb.NewInsert(accountToModel(a)).Exec(ctx); err != nil {
		return wrapWrite("create account", err)
	}
	return nil
}

func (s *Store) GetAccount(ctx context.Context, userID string) (*account.Account, error) {
	var m accountModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": userID}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, fmt.Errorf("account %s: %w", userID, store.ErrNotFound)
		}
		return nil, fmt.Errorf("gatehouse: get account: %w", err)
	}
	return accountFromModel(&m), nil
}

func (s *Store) UpdateAccount(ctx context.Context, a *account.Account) error {
	a.UpdatedAt = time.Now().UTC()
	m := accountToModel(a)
	res, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"_id": m.UserID}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("gatehouse: update account: %w", err)
	}
	if res.MatchedCount() == 0 {
		return fmt.Errorf("account %s: %w", a.UserID, store.ErrNotFound)
	}
	return nil
}

func (s *Store) DeleteAccount(ctx context.Context, userID string) error {
	_, err := s.mdb.NewDelete((*accountModel)(nil)).
		Filter(bson.M{"_id": userID}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("gatehouse: delete account: %w", err)
	}
	return nil
}

func (s *Store) ListAccounts(ctx context.Context, filter *account.ListFilter) ([]*account.Account, error) {
	var models []accountModel
	f := bson.M{}
	if filter != nil {
		if filter.TenantID != "" {
			f["tenant_id"] = filter.TenantID
		}
		if filter.Active != nil {
			f["active"] = *filter.Active
		}
	}
	q := s.mdb.NewFind(&models).
		Filter(f).
		Sort(bson.D{{Key: "_id", Value: 1}})
	if filter != nil {
		if filter.Limit > 0 {
			q = q.Limit(int64(filter.Limit))
		}
		if filter.Offset > 0 {
			q = q.Skip(int64(filter.Offset))
		}
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("gatehouse: list accounts: %w", err)
	}
	result := make([]*account.Account, len(models))
	for i := range models {
		result[i] = accountFromModel(&models[i])
	}
	return result, nil
}

// ──────────────────────────────────────────────────
// Module operations
// ──────────────────────────────────────────────────

func (s *Store) CreateModule(ctx context.Context, m *module.Module) error {
	stamp(&m.CreatedAt)
	stamp(&m.UpdatedAt)
	if _, err := s.mdb.NewInsert(moduleToModel(m)).Exec(ctx); err != nil {
		return wrapWrite("create module", err)
	}
	return nil
}

func (s *Store) GetModule(ctx context.Context, code string) (*module.Module, error) {
	var m moduleModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": code}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, fmt.Errorf("module %s: %w", code, store.ErrNotFound)
		}
		return nil, fmt.Errorf("gatehouse: get module: %w", err)
	}
	return moduleFromModel(&m), nil
}

func (s *Store) UpdateModule(ctx context.Context, m *module.Module) error {
	m.UpdatedAt = time.Now().UTC()
	mm := moduleToModel(m)
	res, err := s.mdb.NewUpdate(mm).
		Filter(bson.M{"_id": mm.Code}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("gatehouse: update module: %w", err)
	}
	if res.MatchedCount() == 0 {
		return fmt.Errorf("module %s: %w", m.Code, store.ErrNotFound)
	}
	return nil
}

// DeleteModule removes the module and pulls its entries out of every
// entitlement and grant document.
func (s *Store) DeleteModule(ctx context.Context, code string) error {
	res, err := s.mdb.NewDelete((*moduleModel)(nil)).
		Filter(bson.M{"_id": code}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("gatehouse: delete module: %w", err)
	}
	if res.DeletedCount() == 0 {
		return fmt.Errorf("module %s: %w", code, store.ErrNotFound)
	}

	// Each entry lives inside a per-tenant or per-user document, so one
	// $pull per collection drops it without touching the other entries.
	if _, err := s.mdb.Collection(colEntitlements).UpdateMany(ctx,
		bson.M{"entitlements.module_code": code},
		bson.M{"$pull": bson.M{"entitlements": bson.M{"module_code": code}}},
	); err != nil {
		return fmt.Errorf("gatehouse: delete module entitlements: %w", err)
	}
	if _, err := s.mdb.Collection(colGrants).UpdateMany(ctx,
		bson.M{"grants.module_code": code},
		bson.M{"$pull": bson.M{"grants": bson.M{"module_code": code}}},
	); err != nil {
		return fmt.Errorf("gatehouse: delete module grants: %w", err)
	}
	return nil
}

func (s *Store) ListModules(ctx context.Context) ([]*module.Module, error) {
	var models []moduleModel
	if err := s.mdb.NewFind(&models).
		Filter(bson.M{}).
		Sort(bson.D{{Key: "sort_order", Value: 1}, {Key: "_id", Value: 1}}).
		Scan(ctx); err != nil {
		return nil, fmt.Errorf("gatehouse: list modules: %w", err)
	}
	result := make([]*module.Module, len(models))
	for i := range models {
		result[i] = moduleFromModel(&models[i])
	}
	return result, nil
}

// ──────────────────────────────────────────────────
// Entitlement operations
// ──────────────────────────────────────────────────

func (s *Store) tenantEntitlements(ctx context.Context, tenantID string) (*tenantEntitlementsModel, error) {
	var m tenantEntitlementsModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": tenantID}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return &tenantEntitlementsModel{TenantID: tenantID}, nil
		}
		return nil, fmt.Errorf("gatehouse: load entitlements: %w", err)
	}
	return &m, nil
}

func (s *Store) GetEntitlement(ctx context.Context, tenantID, moduleCode string) (*entitlement.Entitlement, error) {
	m, err := s.tenantEntitlements(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	for i := range m.Entitlements {
		if m.Entitlements[i].ModuleCode == moduleCode {
			return entitlementFromEntry(tenantID, &m.Entitlements[i]), nil
		}
	}
	return nil, fmt.Errorf("entitlement %s/%s: %w", tenantID, moduleCode, store.ErrNotFound)
}

func (s *Store) ListEntitlements(ctx context.Context, tenantID string) ([]*entitlement.Entitlement, error) {
	m, err := s.tenantEntitlements(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	result := make([]*entitlement.Entitlement, len(m.Entitlements))
	for i := range m.Entitlements {
		result[i] = entitlementFromEntry(tenantID, &m.Entitlements[i])
	}
	return result, nil
}

// ReplaceEntitlements overwrites the tenant's entitlement document in a
// single write.
func (s *Store) ReplaceEntitlements(ctx context.Context, tenantID string, ents []*entitlement.Entitlement) error {
	entries := make([]entitlementEntry, 0, len(ents))
	seen := make(map[string]struct{}, len(ents))
	for _, e := range ents {
		if _, dup := seen[e.ModuleCode]; dup {
			return fmt.Errorf("entitlement %s/%s: %w", tenantID, e.ModuleCode, store.ErrConflict)
		}
		seen[e.ModuleCode] = struct{}{}
		e.TenantID = tenantID
		stamp(&e.CreatedAt)
		stamp(&e.UpdatedAt)
		entries = append(entries, entitlementToEntry(e))
	}
	slices.SortFunc(entries, func(a, b entitlementEntry) int { return strings.Compare(a.ModuleCode, b.ModuleCode) })

	doc := bson.M{"_id": tenantID, "entitlements": entries, "updated_at": time.Now().UTC()}
	_, err := s.mdb.Collection(colEntitlements).
		ReplaceOne(ctx, bson.M{"_id": tenantID}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("gatehouse: replace entitlements: %w", err)
	}
	return nil
}

func (s *Store) DeleteEntitlementsByTenant(ctx context.Context, tenantID string) error {
	_, err := s.mdb.NewDelete((*tenantEntitlementsModel)(nil)).
		Filter(bson.M{"_id": tenantID}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("gatehouse: delete entitlements by tenant: %w", err)
	}
	return nil
}

// ──────────────────────────────────────────────────
// Grant operations
// ──────────────────────────────────────────────────

func (s *Store) userGrants(ctx context.Context, userID string) (*userGrantsModel, error) {
	var m userGrantsModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": userID}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return &userGrantsModel{UserID: userID}, nil
		}
		return nil, fmt.Errorf("gatehouse: load grants: %w", err)
	}
	return &m, nil
}

func (s *Store) GetGrant(ctx context.Context, userID, moduleCode string) (*grant.Grant, error) {
	m, err := s.userGrants(ctx, userID)
	if err != nil {
		return nil, err
	}
	for i := range m.Grants {
		if m.Grants[i].ModuleCode == moduleCode {
			return grantFromEntry(userID, &m.Grants[i]), nil
		}
	}
	return nil, fmt.Errorf("grant %s/%s: %w", userID, moduleCode, store.ErrNotFound)
}

func (s *Store) ListGrants(ctx context.Context, userID string) ([]*grant.Grant, error) {
	m, err := s.userGrants(ctx, userID)
	if err != nil {
		return nil, err
	}
	result := make([]*grant.Grant, len(m.Grants))
	for i := range m.Grants {
		result[i] = grantFromEntry(userID, &m.Grants[i])
	}
	return result, nil
}

// ReplaceGrants overwrites the user's grant document in a single write, so
// readers see the old set or the new one.
func (s *Store) ReplaceGrants(ctx context.Context, userID string, grants []*grant.Grant) error {
	entries := make([]grantEntry, 0, len(grants))
	seen := make(map[string]struct{}, len(grants))
	for _, g := range grants {
		if _, dup := seen[g.ModuleCode]; dup {
			return fmt.Errorf("grant %s/%s: %w", userID, g.ModuleCode, store.ErrConflict)
		}
		seen[g.ModuleCode] = struct{}{}
		g.UserID = userID
		stamp(&g.CreatedAt)
		entries = append(entries, grantToEntry(g))
	}
	slices.SortFunc(entries, func(a, b grantEntry) int { return strings.Compare(a.ModuleCode, b.ModuleCode) })

	doc := bson.M{"_id": userID, "grants": entries, "updated_at": time.Now().UTC()}
	_, err := s.mdb.Collection(colGrants).
		ReplaceOne(ctx, bson.M{"_id": userID}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("gatehouse: replace grants: %w", err)
	}
	return nil
}

func (s *Store) DeleteGrantsByUser(ctx context.Context, userID string) error {
	_, err := s.mdb.NewDelete((*userGrantsModel)(nil)).
		Filter(bson.M{"_id": userID}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("gatehouse: delete grants by user: %w", err)
	}
	return nil
}

// ──────────────────────────────────────────────────
// Subscription operations
// ──────────────────────────────────────────────────

func (s *Store) CreateSubscription(ctx context.Context, sub *subscription.Subscription) error {
	stamp(&sub.CreatedAt)
	stamp(&sub.UpdatedAt)
	if _, err := s.mdb.NewInsert(subscriptionToModel(sub)).Exec(ctx); err != nil {
		return wrapWrite("create subscription", err)
	}
	return nil
}

func (s *Store) GetSubscription(ctx context.Context, tenantID string) (*subscription.Subscription, error) {
	var m subscriptionModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"tenant_id": tenantID}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, fmt.Errorf("subscription for %s: %w", tenantID, store.ErrNotFound)
		}
		return nil, fmt.Errorf("gatehouse: get subscription: %w", err)
	}
	return subscriptionFromModel(&m), nil
}

func (s *Store) UpdateSubscription(ctx context.Context, sub *subscription.Subscription) error {
	stamp(&sub.UpdatedAt)
	m := subscriptionToModel(sub)
	res, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"_id": m.ID}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("gatehouse: update subscription: %w", err)
	}
	if res.MatchedCount() == 0 {
		return fmt.Errorf("subscription %s: %w", sub.ID, store.ErrNotFound)
	}
	return nil
}

func (s *Store) DeleteSubscription(ctx context.Context, subID id.SubscriptionID) error {
	_, err := s.mdb.NewDelete((*subscriptionModel)(nil)).
		Filter(bson.M{"_id": subID.String()}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("gatehouse: delete subscription: %w", err)
	}
	return nil
}
