package api

import (
	"errors"
	"net/http"

	"github.com/xraph/forge"

	"github.com/xraph/gatehouse"
)

func (a *API) registerUserRoutes(router forge.Router) error {
	g := router.Group("/v1/users", forge.WithGroupTags("users"))

	if err := g.GET("/:userId/module-permissions", a.listModulePermissions,
		forge.WithSummary("List module permissions"),
		forge.WithDescription("Returns the module grants of a user."),
		forge.WithOperationID("listModulePermissions"),
		forge.WithResponseSchema(http.StatusOK, "Grants", []ModulePermissionResponse{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.PUT("/:userId/module-permissions", a.replaceModulePermissions,
		forge.WithSummary("Replace module permissions"),
		forge.WithDescription("Atomically replaces every module grant of a user with the given list."),
		forge.WithOperationID("replaceModulePermissions"),
		forge.WithRequestSchema(ReplaceModulePermissionsRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Replaced", SuccessResponse{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.GET("/:userId/capabilities", a.getCapabilities,
		forge.WithSummary("Get capabilities"),
		forge.WithDescription("Returns the navigation projection of a user."),
		forge.WithOperationID("getCapabilities"),
		forge.WithResponseSchema(http.StatusOK, "Capabilities", &gatehouse.Capabilities{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.POST("/:userId/roles", a.assignRole,
		forge.WithSummary("Assign role"),
		forge.WithDescription("Gives a user a role. Assigning a held role is a no-op."),
		forge.WithOperationID("assignRole"),
		forge.WithRequestSchema(AssignRoleRequest{}),
		forge.WithNoContentResponse(),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	return g.DELETE("/:userId/roles/:role", a.unassignRole,
		forge.WithSummary("Unassign role"),
		forge.WithDescription("Removes a role from a user."),
		forge.WithOperationID("unassignRole"),
		forge.WithNoContentResponse(),
		forge.WithErrorResponses(),
	)
}

// requireUserAdmin admits platform owners and administrators of the tenant
// userID belongs to.
func (a *API) requireUserAdmin(ctx forge.Context, userID string) (*gatehouse.Principal, error) {
	tenantID, err := a.targetTenant(ctx, userID)
	if err != nil {
		return nil, err
	}
	return a.requireTenantAdmin(ctx, tenantID)
}

func (a *API) listModulePermissions(ctx forge.Context, _ *UserRequest) ([]ModulePermissionResponse, error) {
	userID := ctx.Param("userId")
	if _, err := a.requireUserAdmin(ctx, userID); err != nil {
		return nil, fail(ctx, err)
	}

	grants, err := a.eng.Store().ListGrants(ctx.Context(), userID)
	if err != nil {
		return nil, fail(ctx, err)
	}

	resp := make([]ModulePermissionResponse, 0, len(grants))
	for _, g := range grants {
		perms := g.Actions
		if perms == nil {
			perms = []string{}
		}
		resp = append(resp, ModulePermissionResponse{
			ModuleCode:  g.ModuleCode,
			ModuleName:  g.ModuleName,
			Active:      g.Active,
			Permissions: perms,
		})
	}
	return resp, ctx.JSON(http.StatusOK, resp)
}

func (a *API) replaceModulePermissions(ctx forge.Context, req *ReplaceModulePermissionsRequest) (*SuccessResponse, error) {
	userID := ctx.Param("userId")
	if _, err := a.requireUserAdmin(ctx, userID); err != nil {
		return nil, fail(ctx, err)
	}

	var inputs []gatehouse.GrantInput
	if req != nil {
		inputs = *req
	}
	if err := a.eng.ReplaceModulePermissions(ctx.Context(), userID, inputs); err != nil {
		return nil, fail(ctx, err)
	}

	resp := &SuccessResponse{Success: true}
	return resp, ctx.JSON(http.StatusOK, resp)
}

func (a *API) getCapabilities(ctx forge.Context, _ *UserRequest) (*gatehouse.Capabilities, error) {
	userID := ctx.Param("userId")

	var (
		p   *gatehouse.Principal
		err error
	)
	if gatehouse.UserIDFromContext(ctx.Context()) == userID {
		p, err = a.caller(ctx)
	} else if _, err = a.requireUserAdmin(ctx, userID); err == nil {
		p, err = a.eng.ResolvePrincipal(ctx.Context(), userID)
	}
	if err != nil {
		return nil, fail(ctx, err)
	}

	caps, err := a.eng.Capabilities(ctx.Context(), p)
	if err != nil {
		return nil, fail(ctx, err)
	}
	return caps, ctx.JSON(http.StatusOK, caps)
}

func (a *API) assignRole(ctx forge.Context, req *AssignRoleRequest) (*struct{}, error) {
	userID := ctx.Param("userId")
	r, err := gatehouse.ParseRole(req.Role)
	if err != nil {
		return nil, forge.BadRequest(err.Error())
	}

	caller, err := a.authorizeRoleChange(ctx, userID, r)
	if err != nil {
		return nil, fail(ctx, err)
	}

	if err := a.eng.AssignRole(ctx.Context(), userID, r, caller.UserID()); err != nil {
		return nil, fail(ctx, err)
	}
	return nil, ctx.NoContent(http.StatusNoContent)
}

func (a *API) unassignRole(ctx forge.Context, _ *UserRequest) (*struct{}, error) {
	userID := ctx.Param("userId")
	r, err := gatehouse.ParseRole(ctx.Param("role"))
	if err != nil {
		return nil, forge.BadRequest(err.Error())
	}

	if _, err := a.authorizeRoleChange(ctx, userID, r); err != nil {
		return nil, fail(ctx, err)
	}

	if err := a.eng.UnassignRole(ctx.Context(), userID, r); err != nil {
		return nil, fail(ctx, err)
	}
	return nil, ctx.NoContent(http.StatusNoContent)
}

// authorizeRoleChange admits platform owners for any role and tenant
// administrators for tenant-scoped roles of their own users.
func (a *API) authorizeRoleChange(ctx forge.Context, userID string, r gatehouse.Role) (*gatehouse.Principal, error) {
	if !r.TenantScoped() {
		return a.requireOwner(ctx)
	}
	p, err := a.requireUserAdmin(ctx, userID)
	if err != nil {
		if errors.Is(err, gatehouse.ErrAccountNotFound) {
			return a.requireOwner(ctx)
		}
		return nil, err
	}
	return p, nil
}
