package api

import (
	"net/http"

	"github.com/xraph/forge"

	"github.com/xraph/gatehouse"
	"github.com/xraph/gatehouse/module"
)

func (a *API) registerModuleRoutes(router forge.Router) error {
	g := router.Group("/v1", forge.WithGroupTags("modules"))

	if err := g.GET("/modules", a.listModules,
		forge.WithSummary("List modules"),
		forge.WithDescription("Returns the module catalog in navigation order."),
		forge.WithOperationID("listModules"),
		forge.WithResponseSchema(http.StatusOK, "Module list", []*module.Module{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.POST("/modules", a.createModule,
		forge.WithSummary("Create module"),
		forge.WithDescription("Adds a module to the catalog. Platform owners only."),
		forge.WithOperationID("createModule"),
		forge.WithRequestSchema(CreateModuleRequest{}),
		forge.WithCreatedResponse(&module.Module{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	return g.DELETE("/modules/:code", a.deleteModule,
		forge.WithSummary("Delete module"),
		forge.WithDescription("Removes a module from the catalog. Platform owners only."),
		forge.WithOperationID("deleteModule"),
		forge.WithNoContentResponse(),
		forge.WithErrorResponses(),
	)
}

func (a *API) listModules(ctx forge.Context, _ *struct{}) ([]*module.Module, error) {
	if _, err := a.require(ctx, gatehouse.Requirement{}); err != nil {
		return nil, fail(ctx, err)
	}

	mods, err := a.eng.Store().ListModules(ctx.Context())
	if err != nil {
		return nil, fail(ctx, err)
	}
	return mods, ctx.JSON(http.StatusOK, mods)
}

func (a *API) createModule(ctx forge.Context, req *CreateModuleRequest) (*module.Module, error) {
	if _, err := a.requireOwner(ctx); err != nil {
		return nil, fail(ctx, err)
	}
	if req.Code == "" {
		return nil, forge.BadRequest("code is required")
	}
	if req.Name == "" {
		return nil, forge.BadRequest("name is required")
	}

	m := &module.Module{
		Code:        req.Code,
		Name:        req.Name,
		Description: req.Description,
		SortOrder:   req.SortOrder,
		Actions:     req.Actions,
	}
	if err := a.eng.CreateModule(ctx.Context(), m); err != nil {
		return nil, fail(ctx, err)
	}
	return m, ctx.JSON(http.StatusCreated, m)
}

func (a *API) deleteModule(ctx forge.Context, _ *ModuleRequest) (*struct{}, error) {
	if _, err := a.requireOwner(ctx); err != nil {
		return nil, fail(ctx, err)
	}

	if err := a.eng.DeleteModule(ctx.Context(), ctx.Param("code")); err != nil {
		return nil, fail(ctx, err)
	}
	return nil, ctx.NoContent(http.StatusNoContent)
}
