package gatehouse

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/xraph/gatehouse/assignment"
	"github.com/xraph/gatehouse/id"
	"github.com/xraph/gatehouse/module"
	"github.com/xraph/gatehouse/permission"
	"github.com/xraph/gatehouse/role"
	"github.com/xraph/gatehouse/store"
	"github.com/xraph/gatehouse/subscription"
)

// SeedRoles makes sure every role of the vocabulary has a catalog row.
// It is idempotent.
func (e *Engine) SeedRoles(ctx context.Context) error {
	for _, r := range Roles() {
		_, err := e.store.GetRoleByName(ctx, string(r))
		if err == nil {
			continue
		}
		if !isNotFound(err) {
			return fmt.Errorf("gatehouse: get role %s: %w", r, err)
		}
		now := e.now().UTC()
		row := &role.Role{
			ID:        id.NewRoleID(),
			Name:      string(r),
			GuardName: e.config.guardName(),
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := e.store.CreateRole(ctx, row); err != nil {
			if errors.Is(err, store.ErrConflict) {
				continue
			}
			return fmt.Errorf("gatehouse: create role %s: %w", r, err)
		}
		if e.plugins != nil {
			e.plugins.EmitRoleCreated(ctx, row)
		}
	}
	return nil
}

// AssignRole gives userID the role r. Assigning a role the user already
// holds is a no-op.
func (e *Engine) AssignRole(ctx context.Context, userID string, r Role, grantedBy string) error {
	if userID == "" {
		return ErrUserRequired
	}
	if !r.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownRole, string(r))
	}
	if r.TenantScoped() {
		acct, err := e.store.GetAccount(ctx, userID)
		if err != nil {
			if isNotFound(err) {
				return fmt.Errorf("%w: %s", ErrAccountNotFound, userID)
			}
			return fmt.Errorf("gatehouse: get account: %w", err)
		}
		if acct.TenantID == "" {
			return fmt.Errorf("%w: %s as %s", ErrTenantRequired, userID, r)
		}
	}
	row, err := e.roleRow(ctx, r)
	if err != nil {
		return err
	}

	a := &assignment.Assignment{
		ID:        id.NewAssignmentID(),
		UserID:    userID,
		RoleID:    row.ID,
		GrantedBy: grantedBy,
		CreatedAt: e.now().UTC(),
	}
	if err := e.store.CreateAssignment(ctx, a); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil
		}
		return fmt.Errorf("gatehouse: assign role: %w", err)
	}

	if e.cache != nil {
		e.cache.InvalidateUser(ctx, userID)
	}
	if e.plugins != nil {
		e.plugins.EmitRoleAssigned(ctx, a)
	}
	return nil
}

// UnassignRole removes r from userID.
func (e *Engine) UnassignRole(ctx context.Context, userID string, r Role) error {
	row, err := e.roleRow(ctx, r)
	if err != nil {
		return err
	}
	if err := e.store.DeleteUserRole(ctx, userID, row.ID); err != nil {
		return fmt.Errorf("gatehouse: unassign role: %w", err)
	}
	if e.cache != nil {
		e.cache.InvalidateUser(ctx, userID)
	}
	if e.plugins != nil {
		e.plugins.EmitRoleUnassigned(ctx, userID, row.ID)
	}
	return nil
}

func (e *Engine) roleRow(ctx context.Context, r Role) (*role.Role, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownRole, string(r))
	}
	row, err := e.store.GetRoleByName(ctx, string(r))
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: %s", ErrRoleNotFound, r)
		}
		return nil, fmt.Errorf("gatehouse: get role %s: %w", r, err)
	}
	return row, nil
}

// SetSubscription creates or updates the governing subscription of tenantID.
func (e *Engine) SetSubscription(ctx context.Context, tenantID string, status subscription.Status, endsAt *time.Time) (*subscription.Subscription, error) {
	if tenantID == "" {
		return nil, ErrTenantRequired
	}
	if !status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, string(status))
	}

	now := e.now().UTC()
	sub, err := e.store.GetSubscription(ctx, tenantID)
	switch {
	case err == nil:
		sub.Status = status
		sub.EndsAt = endsAt
		sub.UpdatedAt = now
		if err := e.store.UpdateSubscription(ctx, sub); err != nil {
			return nil, fmt.Errorf("gatehouse: update subscription: %w", err)
		}
	case isNotFound(err):
		sub = &subscription.Subscription{
			ID:        id.NewSubscriptionID(),
			TenantID:  tenantID,
			Status:    status,
			EndsAt:    endsAt,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := e.store.CreateSubscription(ctx, sub); err != nil {
			return nil, fmt.Errorf("gatehouse: create subscription: %w", err)
		}
	default:
		return nil, fmt.Errorf("gatehouse: get subscription: %w", err)
	}

	if e.cache != nil {
		e.cache.InvalidateTenant(ctx, tenantID)
	}
	if e.plugins != nil {
		e.plugins.EmitSubscriptionChanged(ctx, sub)
	}
	return sub, nil
}

// GetSubscription returns the governing subscription of tenantID.
func (e *Engine) GetSubscription(ctx context.Context, tenantID string) (*subscription.Subscription, error) {
	sub, err := e.store.GetSubscription(ctx, tenantID)
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: %s", ErrSubscriptionNotFound, tenantID)
		}
		return nil, fmt.Errorf("gatehouse: get subscription: %w", err)
	}
	return sub, nil
}

// CreateModule adds a module to the catalog.
func (e *Engine) CreateModule(ctx context.Context, m *module.Module) error {
	if m.Code == "" || m.Name == "" {
		return fmt.Errorf("%w: code and name are required", ErrInvalidModule)
	}
	for _, a := range m.Actions {
		act, err := ParseAction(a)
		if err != nil {
			return err
		}
		if act.Core() {
			return fmt.Errorf("%w: %q is a core action", ErrInvalidModule, a)
		}
	}
	now := e.now().UTC()
	m.CreatedAt = now
	m.UpdatedAt = now
	if err := e.store.CreateModule(ctx, m); err != nil {
		return fmt.Errorf("gatehouse: create module: %w", err)
	}
	if e.cache != nil {
		e.cache.InvalidateAll(ctx)
	}
	if e.plugins != nil {
		e.plugins.EmitModuleCreated(ctx, m)
	}
	return nil
}

// DeleteModule removes a module from the catalog. The store drops every
// entitlement and grant row naming it in the same operation.
func (e *Engine) DeleteModule(ctx context.Context, code string) error {
	if err := e.store.DeleteModule(ctx, code); err != nil {
		if isNotFound(err) {
			return fmt.Errorf("%w: %q", ErrModuleNotFound, code)
		}
		return fmt.Errorf("gatehouse: delete module: %w", err)
	}
	if e.cache != nil {
		e.cache.InvalidateAll(ctx)
	}
	if e.plugins != nil {
		e.plugins.EmitModuleDeleted(ctx, code)
	}
	return nil
}

// GrantPermission attaches the named coarse permission to r, creating the
// permission if needed.
func (e *Engine) GrantPermission(ctx context.Context, r Role, name string) error {
	row, err := e.roleRow(ctx, r)
	if err != nil {
		return err
	}
	perm, err := e.store.GetPermissionByName(ctx, name)
	if err != nil {
		if !isNotFound(err) {
			return fmt.Errorf("gatehouse: get permission: %w", err)
		}
		now := e.now().UTC()
		perm = &permission.Permission{
			ID:        id.NewPermissionID(),
			Name:      name,
			GuardName: e.config.guardName(),
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := e.store.CreatePermission(ctx, perm); err != nil {
			return fmt.Errorf("gatehouse: create permission: %w", err)
		}
		if e.plugins != nil {
			e.plugins.EmitPermissionCreated(ctx, perm)
		}
	}
	if err := e.store.AttachPermission(ctx, row.ID, perm.ID); err != nil {
		return fmt.Errorf("gatehouse: attach permission: %w", err)
	}
	if e.plugins != nil {
		e.plugins.EmitPermissionAttached(ctx, row.ID, perm.ID)
	}
	return nil
}
