package api

import (
	"net/http"

	"github.com/xraph/forge"

	"github.com/xraph/gatehouse"
)

func (a *API) registerSessionRoutes(router forge.Router) error {
	g := router.Group("/v1/session", forge.WithGroupTags("session"))

	if err := g.GET("/principal", a.getPrincipal,
		forge.WithSummary("Current principal"),
		forge.WithDescription("Returns the user, tenant and roles of the authenticated caller."),
		forge.WithOperationID("getPrincipal"),
		forge.WithResponseSchema(http.StatusOK, "Principal", PrincipalResponse{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.GET("/capabilities", a.getOwnCapabilities,
		forge.WithSummary("Current capabilities"),
		forge.WithDescription("Returns the modules and actions the caller can reach."),
		forge.WithOperationID("getOwnCapabilities"),
		forge.WithResponseSchema(http.StatusOK, "Capabilities", &gatehouse.Capabilities{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	return g.POST("/refresh", a.refreshSession,
		forge.WithSummary("Refresh capabilities"),
		forge.WithDescription("Drops the cached capability projection of the caller, as on login or logout."),
		forge.WithOperationID("refreshSession"),
		forge.WithNoContentResponse(),
		forge.WithErrorResponses(),
	)
}

func (a *API) getPrincipal(ctx forge.Context, _ *struct{}) (*PrincipalResponse, error) {
	p, err := a.caller(ctx)
	if err != nil {
		return nil, fail(ctx, err)
	}
	if !p.Active() {
		return nil, fail(ctx, gatehouse.ErrUnauthenticated)
	}

	resp := &PrincipalResponse{
		UserID:   p.UserID(),
		TenantID: p.TenantID(),
		Roles:    p.RoleNames(),
	}
	return resp, ctx.JSON(http.StatusOK, resp)
}

func (a *API) getOwnCapabilities(ctx forge.Context, _ *struct{}) (*gatehouse.Capabilities, error) {
	p, err := a.caller(ctx)
	if err != nil {
		return nil, fail(ctx, err)
	}

	caps, err := a.eng.Capabilities(ctx.Context(), p)
	if err != nil {
		return nil, fail(ctx, err)
	}
	return caps, ctx.JSON(http.StatusOK, caps)
}

func (a *API) refreshSession(ctx forge.Context, _ *struct{}) (*struct{}, error) {
	userID := gatehouse.UserIDFromContext(ctx.Context())
	if userID == "" {
		return nil, fail(ctx, gatehouse.ErrUnauthenticated)
	}

	a.eng.InvalidateCapabilities(ctx.Context(), userID)
	return nil, ctx.NoContent(http.StatusNoContent)
}
