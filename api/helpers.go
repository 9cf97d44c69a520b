package api

import (
	"errors"

	"github.com/xraph/forge"

	"github.com/xraph/gatehouse"
)

// fail writes err as an ErrorResponse with the status the engine maps it to.
func fail(ctx forge.Context, err error) error {
	return ctx.JSON(gatehouse.HTTPStatus(err), &ErrorResponse{
		Error:  err.Error(),
		Reason: string(gatehouse.ReasonOf(err)),
	})
}

// caller resolves the authenticated principal of the request. A user with
// no account is treated as unauthenticated.
func (a *API) caller(ctx forge.Context) (*gatehouse.Principal, error) {
	p, err := a.eng.ResolveFromContext(ctx.Context())
	if err != nil {
		if errors.Is(err, gatehouse.ErrAccountNotFound) || errors.Is(err, gatehouse.ErrUserRequired) {
			return nil, errors.Join(gatehouse.ErrUnauthenticated, err)
		}
		return nil, err
	}
	return p, nil
}

// require runs the guard chain for the caller and returns it when allowed.
func (a *API) require(ctx forge.Context, req gatehouse.Requirement) (*gatehouse.Principal, error) {
	p, err := a.caller(ctx)
	if err != nil {
		return nil, err
	}
	if err := a.eng.Enforce(ctx.Context(), p, req); err != nil {
		return nil, err
	}
	return p, nil
}

// requireOwner admits platform owners only.
func (a *API) requireOwner(ctx forge.Context) (*gatehouse.Principal, error) {
	return a.require(ctx, gatehouse.Requirement{Roles: []gatehouse.Role{gatehouse.RolePlatformOwner}})
}

// requireTenantAdmin admits platform owners and administrators of tenantID.
func (a *API) requireTenantAdmin(ctx forge.Context, tenantID string) (*gatehouse.Principal, error) {
	p, err := a.requireAdmin(ctx)
	if err != nil {
		return nil, err
	}
	if !p.IsPlatformOwner() && p.TenantID() != tenantID {
		return nil, errors.Join(gatehouse.ErrAccessDenied, gatehouse.ErrRoleDenied)
	}
	return p, nil
}

// requireTenantMember admits platform owners and any principal of tenantID.
func (a *API) requireTenantMember(ctx forge.Context, tenantID string) (*gatehouse.Principal, error) {
	p, err := a.caller(ctx)
	if err != nil {
		return nil, err
	}
	if !p.Active() {
		return nil, errors.Join(gatehouse.ErrAccessDenied, gatehouse.ErrUnauthenticated)
	}
	if !p.IsPlatformOwner() && p.TenantID() != tenantID {
		return nil, errors.Join(gatehouse.ErrAccessDenied, gatehouse.ErrRoleDenied)
	}
	return p, nil
}

// targetTenant returns the tenant of the account userID.
func (a *API) targetTenant(ctx forge.Context, userID string) (string, error) {
	acct, err := a.eng.Store().GetAccount(ctx.Context(), userID)
	if err != nil {
		if errors.Is(err, gatehouse.ErrNotFound) {
			return "", errors.Join(gatehouse.ErrAccountNotFound, err)
		}
		return "", err
	}
	return acct.TenantID, nil
}

func defaultLimit(limit int) int {
	if limit <= 0 {
		return 50
	}
	if limit > 1000 {
		return 1000
	}
	return limit
}

// requireAdmin admits platform owners and tenant administrators.
func (a *API) requireAdmin(ctx forge.Context) (*gatehouse.Principal, error) {
	return a.require(ctx, gatehouse.Requirement{
		Roles: []gatehouse.Role{gatehouse.RolePlatformOwner, gatehouse.RoleTenantAdmin},
	})
}
