package gatehouse

import (
	"context"
	"errors"
	"fmt"

	"github.com/xraph/gatehouse/entitlement"
	"github.com/xraph/gatehouse/grant"
	"github.com/xraph/gatehouse/id"
	"github.com/xraph/gatehouse/module"
	"github.com/xraph/gatehouse/store"
)

// GrantInput is one entry of a user's replacement grant set.
type GrantInput struct {
	ModuleCode string   `json:"moduleCode"`
	ModuleName string   `json:"moduleName,omitempty"`
	Active     bool     `json:"active"`
	Actions    []string `json:"permissions"`
}

// EntitlementInput is one entry of a tenant's replacement entitlement set.
type EntitlementInput struct {
	ModuleCode string `json:"moduleCode"`
	Active     bool   `json:"active"`
}

// ReplaceModulePermissions replaces the whole grant set of userID.
//
// Every input is validated before storage is touched. Inactive inputs are
// omitted, since a missing grant and an inactive grant decide identically.
// Storage failures are wrapped with ErrTransactionFailure and leave the
// previous set in place. Replacing with the same input twice is a no-op.
func (e *Engine) ReplaceModulePermissions(ctx context.Context, userID string, inputs []GrantInput) error {
	if userID == "" {
		return ErrUserRequired
	}
	catalog, err := e.catalogIndex(ctx)
	if err != nil {
		return err
	}

	seen := make(map[string]struct{}, len(inputs))
	grants := make([]*grant.Grant, 0, len(inputs))
	now := e.now().UTC()
	for _, in := range inputs {
		m, err := validateModuleRef(catalog, seen, in.ModuleCode)
		if err != nil {
			return err
		}
		actions, err := validateModuleActions(m, in.Actions)
		if err != nil {
			return err
		}
		if !in.Active {
			continue
		}
		name := in.ModuleName
		if name == "" {
			name = m.Name
		}
		grants = append(grants, &grant.Grant{
			ID:         id.NewGrantID(),
			UserID:     userID,
			ModuleCode: m.Code,
			ModuleName: name,
			Active:     true,
			Actions:    actions.Strings(),
			CreatedAt:  now,
		})
	}

	if err := e.store.ReplaceGrants(ctx, userID, grants); err != nil {
		return fmt.Errorf("%w: replace grants for %s: %w", ErrTransactionFailure, userID, err)
	}

	if e.cache != nil {
		e.cache.InvalidateUser(ctx, userID)
	}
	if e.plugins != nil {
		e.plugins.EmitGrantsReplaced(ctx, userID, grants)
	}
	e.logger.Info("gatehouse: module permissions replaced",
		"user_id", userID,
		"granted", len(grants),
	)
	return nil
}

// ReplaceEntitlements replaces the whole entitlement set of tenantID with
// the same replace-all semantics as ReplaceModulePermissions. Inactive
// entries are stored so that tenant screens can show them.
func (e *Engine) ReplaceEntitlements(ctx context.Context, tenantID string, inputs []EntitlementInput) error {
	if tenantID == "" {
		return ErrTenantRequired
	}
	catalog, err := e.catalogIndex(ctx)
	if err != nil {
		return err
	}

	seen := make(map[string]struct{}, len(inputs))
	ents := make([]*entitlement.Entitlement, 0, len(inputs))
	now := e.now().UTC()
	for _, in := range inputs {
		m, err := validateModuleRef(catalog, seen, in.ModuleCode)
		if err != nil {
			return err
		}
		ents = append(ents, &entitlement.Entitlement{
			ID:         id.NewEntitlementID(),
			TenantID:   tenantID,
			ModuleCode: m.Code,
			Active:     in.Active,
			CreatedAt:  now,
			UpdatedAt:  now,
		})
	}

	if err := e.store.ReplaceEntitlements(ctx, tenantID, ents); err != nil {
		return fmt.Errorf("%w: replace entitlements for %s: %w", ErrTransactionFailure, tenantID, err)
	}

	if e.cache != nil {
		e.cache.InvalidateTenant(ctx, tenantID)
	}
	if e.plugins != nil {
		e.plugins.EmitEntitlementsReplaced(ctx, tenantID, ents)
	}
	e.logger.Info("gatehouse: tenant entitlements replaced",
		"tenant_id", tenantID,
		"entries", len(ents),
	)
	return nil
}

// ProvisionAdministrator grants userID every action of every module the
// tenant is actively entitled to.
func (e *Engine) ProvisionAdministrator(ctx context.Context, userID, tenantID string) error {
	ents, err := e.store.ListEntitlements(ctx, tenantID)
	if err != nil {
		return fmt.Errorf("gatehouse: list entitlements: %w", err)
	}
	catalog, err := e.catalogIndex(ctx)
	if err != nil {
		return err
	}

	inputs := make([]GrantInput, 0, len(ents))
	for _, ent := range ents {
		if !ent.Active {
			continue
		}
		m, ok := catalog[ent.ModuleCode]
		if !ok {
			continue
		}
		inputs = append(inputs, GrantInput{
			ModuleCode: m.Code,
			ModuleName: m.Name,
			Active:     true,
			Actions:    ModuleActions(m.Actions).Strings(),
		})
	}
	return e.ReplaceModulePermissions(ctx, userID, inputs)
}

func (e *Engine) catalogIndex(ctx context.Context) (map[string]*module.Module, error) {
	mods, err := e.store.ListModules(ctx)
	if err != nil {
		return nil, fmt.Errorf("gatehouse: list modules: %w", err)
	}
	idx := make(map[string]*module.Module, len(mods))
	for _, m := range mods {
		idx[m.Code] = m
	}
	return idx, nil
}

func validateModuleRef(catalog map[string]*module.Module, seen map[string]struct{}, code string) (*module.Module, error) {
	m, ok := catalog[code]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrModuleNotFound, code)
	}
	if _, dup := seen[code]; dup {
		return nil, fmt.Errorf("%w: %q", ErrDuplicateModule, code)
	}
	seen[code] = struct{}{}
	return m, nil
}

func validateModuleActions(m *module.Module, names []string) (ActionSet, error) {
	set, err := ParseActionSet(names)
	if err != nil {
		return ActionSet{}, err
	}
	supported := ModuleActions(m.Actions)
	for _, a := range set.Slice() {
		if !supported.Has(a) {
			return ActionSet{}, fmt.Errorf("%w: %q not supported by module %s", ErrUnknownAction, a, m.Code)
		}
	}
	return set, nil
}

func isNotFound(err error) bool { return errors.Is(err, store.ErrNotFound) }
