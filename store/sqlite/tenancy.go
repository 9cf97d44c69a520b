package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

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
	_, err := s.sdb.NewInsert(accountToModel(a)).Exec(ctx)
	if err != nil {
		return wrapWrite("create account", err)
	}
	return nil
}

func (s *Store) GetAccount(ctx context.Context, userID string) (*account.Account, error) {
	m := new(accountModel)
	err := s.sdb.NewSelect(m).Where("user_id = ?", userID).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("account %s: %w", userID, store.ErrNotFound)
		}
		return nil, fmt.Errorf("gatehouse: get account: %w", err)
	}
	return accountFromModel(m), nil
}

func (s *Store) UpdateAccount(ctx context.Context, a *account.Account) error {
	a.UpdatedAt = time.Now().UTC()
	res, err := s.sdb.NewUpdate(accountToModel(a)).WherePK().Exec(ctx)
	if err != nil {
		return fmt.Errorf("gatehouse: update account: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 { //nolint:errcheck // driver always reports affected rows
		return fmt.Errorf("account %s: %w", a.UserID, store.ErrNotFound)
	}
	return nil
}

func (s *Store) DeleteAccount(ctx context.Context, userID string) error {
	_, err := s.sdb.NewDelete((*accountModel)(nil)).
		Where("user_id = ?", userID).Exec(ctx)
	if err != nil {
		return fmt.Errorf("gatehouse: delete account: %w", err)
	}
	return nil
}

func (s *Store) ListAccounts(ctx context.Context, filter *account.ListFilter) ([]*account.Account, error) {
	var models []accountModel
	q := s.sdb.NewSelect(&models).OrderExpr("user_id ASC")
	if filter != nil {
		if filter.TenantID != "" {
			q = q.Where("tenant_id = ?", filter.TenantID)
		}
		if filter.Active != nil {
			q = q.Where("active = ?", *filter.Active)
		}
		if filter.Limit > 0 {
			q = q.Limit(filter.Limit)
		}
		if filter.Offset > 0 {
			q = q.Offset(filter.Offset)
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
	_, err := s.sdb.NewInsert(moduleToModel(m)).Exec(ctx)
	if err != nil {
		return wrapWrite("create module", err)
	}
	return nil
}

func (s *Store) GetModule(ctx context.Context, code string) (*module.Module, error) {
	m := new(moduleModel)
	err := s.sdb.NewSelect(m).Where("code = ?", code).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("module %s: %w", code, store.ErrNotFound)
		}
		return nil, fmt.Errorf("gatehouse: get module: %w", err)
	}
	return moduleFromModel(m)
}

func (s *Store) UpdateModule(ctx context.Context, m *module.Module) error {
	m.UpdatedAt = time.Now().UTC()
	res, err := s.sdb.NewUpdate(moduleToModel(m)).WherePK().Exec(ctx)
	if err != nil {
		return fmt.Errorf("gatehouse: update module: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 { //nolint:errcheck // driver always reports affected rows
		return fmt.Errorf("module %s: %w", m.Code, store.ErrNotFound)
	}
	return nil
}

// DeleteModule removes the module together with every entitlement and
// grant row that names it.
func (s *Store) DeleteModule(ctx context.Context, code string) error {
	tx, err := s.sdb.BeginTxQuery(ctx, nil)
	if err != nil {
		return fmt.Errorf("gatehouse: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback on error is intentional

	res, err := tx.NewDelete((*moduleModel)(nil)).
		Where("code = ?", code).Exec(ctx)
	if err != nil {
		return fmt.Errorf("gatehouse: delete module: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 { //nolint:errcheck // driver always reports affected rows
		return fmt.Errorf("module %s: %w", code, store.ErrNotFound)
	}
	if _, err := tx.NewDelete((*entitlementModel)(nil)).
		Where("module_code = ?", code).Exec(ctx); err != nil {
		return fmt.Errorf("gatehouse: delete module entitlements: %w", err)
	}
	if _, err := tx.NewDelete((*grantModel)(nil)).
		Where("module_code = ?", code).Exec(ctx); err != nil {
		return fmt.Errorf("gatehouse: delete module grants: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("gatehouse: commit tx: %w", err)
	}
	return nil
}

func (s *Store) ListModules(ctx context.Context) ([]*module.Module, error) {
	var models []moduleModel
	err := s.sdb.NewSelect(&models).
		OrderExpr("sort_order ASC, code ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("gatehouse: list modules: %w", err)
	}
	result := make([]*module.Module, len(models))
	for i := range models {
		mod, err := moduleFromModel(&models[i])
		if err != nil {
			return nil, fmt.Errorf("gatehouse/sqlite: list modules: %w", err)
		}
		result[i] = mod
	}
	return result, nil
}

// ──────────────────────────────────────────────────
// Entitlement operations
// ──────────────────────────────────────────────────

func (s *Store) GetEntitlement(ctx context.Context, tenantID, moduleCode string) (*entitlement.Entitlement, error) {
	m := new(entitlementModel)
	err := s.sdb.NewSelect(m).
		Where("tenant_id = ?", tenantID).
		Where("module_code = ?", moduleCode).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("entitlement %s/%s: %w", tenantID, moduleCode, store.ErrNotFound)
		}
		return nil, fmt.Errorf("gatehouse: get entitlement: %w", err)
	}
	return entitlementFromModel(m), nil
}

func (s *Store) ListEntitlements(ctx context.Context, tenantID string) ([]*entitlement.Entitlement, error) {
	var models []entitlementModel
	err := s.sdb.NewSelect(&models).
		Where("tenant_id = ?", tenantID).
		OrderExpr("module_code ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("gatehouse: list entitlements: %w", err)
	}
	result := make([]*entitlement.Entitlement, len(models))
	for i := range models {
		result[i] = entitlementFromModel(&models[i])
	}
	return result, nil
}

// ReplaceEntitlements deletes and reinserts a tenant's rows in one transaction.
func (s *Store) ReplaceEntitlements(ctx context.Context, tenantID string, ents []*entitlement.Entitlement) error {
	tx, err := s.sdb.BeginTxQuery(ctx, nil)
	if err != nil {
		return fmt.Errorf("gatehouse: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback on error is intentional

	_, err = tx.NewDelete((*entitlementModel)(nil)).
		Where("tenant_id = ?", tenantID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("gatehouse: clear entitlements: %w", err)
	}

	if len(ents) > 0 {
		models := make([]entitlementModel, len(ents))
		for i, e := range ents {
			e.TenantID = tenantID
			stamp(&e.CreatedAt)
			stamp(&e.UpdatedAt)
			models[i] = entitlementToModel(e)
		}
		_, err = tx.NewInsert(&models).Exec(ctx)
		if err != nil {
			return wrapWrite("insert entitlements", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("gatehouse: commit tx: %w", err)
	}
	return nil
}

func (s *Store) DeleteEntitlementsByTenant(ctx context.Context, tenantID string) error {
	_, err := s.sdb.NewDelete((*entitlementModel)(nil)).
		Where("tenant_id = ?", tenantID).Exec(ctx)
	if err != nil {
		return fmt.Errorf("gatehouse: delete entitlements by tenant: %w", err)
	}
	return nil
}

// ──────────────────────────────────────────────────
// Grant operations
// ──────────────────────────────────────────────────

func (s *Store) GetGrant(ctx context.Context, userID, moduleCode string) (*grant.Grant, error) {
	m := new(grantModel)
	err := s.sdb.NewSelect(m).
		Where("user_id = ?", userID).
		Where("module_code = ?", moduleCode).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("grant %s/%s: %w", userID, moduleCode, store.ErrNotFound)
		}
		return nil, fmt.Errorf("gatehouse: get grant: %w", err)
	}
	return grantFromModel(m)
}

func (s *Store) ListGrants(ctx context.Context, userID string) ([]*grant.Grant, error) {
	var models []grantModel
	err := s.sdb.NewSelect(&models).
		Where("user_id = ?", userID).
		OrderExpr("module_code ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("gatehouse: list grants: %w", err)
	}
	result := make([]*grant.Grant, len(models))
	for i := range models {
		g, err := grantFromModel(&models[i])
		if err != nil {
			return nil, fmt.Errorf("gatehouse/sqlite: list grants: %w", err)
		}
		result[i] = g
	}
	return result, nil
}

// ReplaceGrants deletes and reinserts a user's grants in one transaction.
// Any failure rolls back, leaving the previous set in place.
func (s *Store) ReplaceGrants(ctx context.Context, userID string, grants []*grant.Grant) error {
	tx, err := s.sdb.BeginTxQuery(ctx, nil)
	if err != nil {
		return fmt.Errorf("gatehouse: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback on error is intentional

	_, err = tx.NewDelete((*grantModel)(nil)).
		Where("user_id = ?", userID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("gatehouse: clear grants: %w", err)
	}

	if len(grants) > 0 {
		models := make([]grantModel, len(grants))
		for i, g := range grants {
			g.UserID = userID
			stamp(&g.CreatedAt)
			models[i] = grantToModel(g)
		}
		_, err = tx.NewInsert(&models).Exec(ctx)
		if err != nil {
			return wrapWrite("insert grants", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("gatehouse: commit tx: %w", err)
	}
	return nil
}

func (s *Store) DeleteGrantsByUser(ctx context.Context, userID string) error {
	_, err := s.sdb.NewDelete((*grantModel)(nil)).
		Where("user_id = ?", userID).Exec(ctx)
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
	_, err := s.sdb.NewInsert(subscriptionToModel(sub)).Exec(ctx)
	if err != nil {
		return wrapWrite("create subscription", err)
	}
	return nil
}

func (s *Store) GetSubscription(ctx context.Context, tenantID string) (*subscription.Subscription, error) {
	m := new(subscriptionModel)
	err := s.sdb.NewSelect(m).Where("tenant_id = ?", tenantID).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("subscription for %s: %w", tenantID, store.ErrNotFound)
		}
		return nil, fmt.Errorf("gatehouse: get subscription: %w", err)
	}
	return subscriptionFromModel(m), nil
}

func (s *Store) UpdateSubscription(ctx context.Context, sub *subscription.Subscription) error {
	stamp(&sub.UpdatedAt)
	res, err := s.sdb.NewUpdate((*subscriptionModel)(nil)).
		Set("status = ?", string(sub.Status)).
		Set("ends_at = ?", sub.EndsAt).
		Set("updated_at = ?", sub.UpdatedAt).
		Where("id = ?", sub.ID.String()).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("gatehouse: update subscription: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 { //nolint:errcheck // driver always reports affected rows
		return fmt.Errorf("subscription %s: %w", sub.ID, store.ErrNotFound)
	}
	return nil
}

func (s *Store) DeleteSubscription(ctx context.Context, subID id.SubscriptionID) error {
	_, err := s.sdb.NewDelete((*subscriptionModel)(nil)).
		Where("id = ?", subID.String()).Exec(ctx)
	if err != nil {
		return fmt.Errorf("gatehouse: delete subscription: %w", err)
	}
	return nil
}
