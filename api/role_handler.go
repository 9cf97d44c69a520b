package api

import (
	"net/http"

	"github.com/xraph/forge"

	"github.com/xraph/gatehouse"
	"github.com/xraph/gatehouse/permission"
	"github.com/xraph/gatehouse/role"
)

// RoleResponse is a catalog role with its coarse permissions.
type RoleResponse struct {
	*role.Role
	Permissions []string `json:"permissions" description:"Permission names"`
}

func (a *API) registerRoleRoutes(router forge.Router) error {
	g := router.Group("/v1", forge.WithGroupTags("roles"))

	if err := g.GET("/roles", a.listRoles,
		forge.WithSummary("List roles"),
		forge.WithDescription("Returns the role catalog with the permissions attached to each role."),
		forge.WithOperationID("listRoles"),
		forge.WithRequestSchema(ListRolesRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Role list", ListResponse[RoleResponse]{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	return g.POST("/roles/:role/permissions", a.grantRolePermission,
		forge.WithSummary("Attach permission to role"),
		forge.WithDescription("Attaches a named permission to a role, creating the permission if needed. Platform owners only."),
		forge.WithOperationID("attachPermission"),
		forge.WithRequestSchema(GrantPermissionRequest{}),
		forge.WithNoContentResponse(),
		forge.WithErrorResponses(),
	)
}

func (a *API) listRoles(ctx forge.Context, req *ListRolesRequest) (*ListResponse[RoleResponse], error) {
	if _, err := a.requireAdmin(ctx); err != nil {
		return nil, fail(ctx, err)
	}

	filter := &role.ListFilter{
		Search: req.Search,
		Limit:  defaultLimit(req.Limit),
		Offset: req.Offset,
	}
	roles, err := a.eng.Store().ListRoles(ctx.Context(), filter)
	if err != nil {
		return nil, fail(ctx, err)
	}
	total, err := a.eng.Store().CountRoles(ctx.Context(), &role.ListFilter{Search: req.Search})
	if err != nil {
		return nil, fail(ctx, err)
	}

	items := make([]RoleResponse, 0, len(roles))
	for _, r := range roles {
		perms, err := a.eng.Store().ListPermissionsByRole(ctx.Context(), r.ID)
		if err != nil {
			return nil, fail(ctx, err)
		}
		items = append(items, RoleResponse{Role: r, Permissions: permissionNames(perms)})
	}

	resp := &ListResponse[RoleResponse]{
		Items:  items,
		Total:  total,
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}
	return resp, ctx.JSON(http.StatusOK, resp)
}

func (a *API) grantRolePermission(ctx forge.Context, req *GrantPermissionRequest) (*struct{}, error) {
	if _, err := a.requireOwner(ctx); err != nil {
		return nil, fail(ctx, err)
	}
	if req.Name == "" {
		return nil, forge.BadRequest("name is required")
	}
	r, err := gatehouse.ParseRole(ctx.Param("role"))
	if err != nil {
		return nil, forge.BadRequest(err.Error())
	}

	if err := a.eng.GrantPermission(ctx.Context(), r, req.Name); err != nil {
		return nil, fail(ctx, err)
	}
	return nil, ctx.NoContent(http.StatusNoContent)
}

func permissionNames(perms []*permission.Permission) []string {
	out := make([]string, 0, len(perms))
	for _, p := range perms {
		out = append(out, p.Name)
	}
	return out
}
