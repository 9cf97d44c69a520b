package api

import (
	"net/http"

	"github.com/xraph/forge"

	"github.com/xraph/gatehouse"
	"github.com/xraph/gatehouse/subscription"
)

func (a *API) registerTenantRoutes(router forge.Router) error {
	g := router.Group("/v1/tenants", forge.WithGroupTags("tenants"))

	if err := g.GET("/:tenantId/subscription", a.getSubscription,
		forge.WithSummary("Get subscription"),
		forge.WithDescription("Returns the effective subscription status of a tenant."),
		forge.WithOperationID("getSubscription"),
		forge.WithResponseSchema(http.StatusOK, "Subscription", SubscriptionResponse{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.PUT("/:tenantId/subscription", a.setSubscription,
		forge.WithSummary("Set subscription"),
		forge.WithDescription("Creates or updates the subscription of a tenant. Platform owners only."),
		forge.WithOperationID("setSubscription"),
		forge.WithRequestSchema(SetSubscriptionRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Subscription", SubscriptionResponse{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.GET("/:tenantId/modules", a.listTenantModules,
		forge.WithSummary("List tenant modules"),
		forge.WithDescription("Returns the module entitlements of a tenant."),
		forge.WithOperationID("listTenantModules"),
		forge.WithResponseSchema(http.StatusOK, "Entitlements", []TenantModuleResponse{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	return g.PUT("/:tenantId/modules", a.replaceTenantModules,
		forge.WithSummary("Replace tenant modules"),
		forge.WithDescription("Replaces every module entitlement of a tenant. Platform owners only."),
		forge.WithOperationID("replaceTenantModules"),
		forge.WithRequestSchema(ReplaceTenantModulesRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Replaced", SuccessResponse{}),
		forge.WithErrorResponses(),
	)
}

func (a *API) getSubscription(ctx forge.Context, _ *TenantRequest) (*SubscriptionResponse, error) {
	tenantID := ctx.Param("tenantId")
	if _, err := a.requireTenantMember(ctx, tenantID); err != nil {
		return nil, fail(ctx, err)
	}

	sub, err := a.eng.GetSubscription(ctx.Context(), tenantID)
	if err != nil {
		return nil, fail(ctx, err)
	}

	resp := toSubscriptionResponse(a.eng, sub)
	return resp, ctx.JSON(http.StatusOK, resp)
}

func (a *API) setSubscription(ctx forge.Context, req *SetSubscriptionRequest) (*SubscriptionResponse, error) {
	if _, err := a.requireOwner(ctx); err != nil {
		return nil, fail(ctx, err)
	}

	status := subscription.Status(req.Status)
	if !status.Valid() {
		return nil, forge.BadRequest("status must be one of ACTIVE, EXPIRED, SUSPENDED, UNLIMITED")
	}

	sub, err := a.eng.SetSubscription(ctx.Context(), ctx.Param("tenantId"), status, req.EndDate)
	if err != nil {
		return nil, fail(ctx, err)
	}

	resp := toSubscriptionResponse(a.eng, sub)
	return resp, ctx.JSON(http.StatusOK, resp)
}

func (a *API) listTenantModules(ctx forge.Context, _ *TenantRequest) ([]TenantModuleResponse, error) {
	tenantID := ctx.Param("tenantId")
	if _, err := a.requireTenantMember(ctx, tenantID); err != nil {
		return nil, fail(ctx, err)
	}

	ents, err := a.eng.Store().ListEntitlements(ctx.Context(), tenantID)
	if err != nil {
		return nil, fail(ctx, err)
	}

	resp := make([]TenantModuleResponse, 0, len(ents))
	for _, e := range ents {
		resp = append(resp, TenantModuleResponse{ModuleCode: e.ModuleCode, Active: e.Active})
	}
	return resp, ctx.JSON(http.StatusOK, resp)
}

func (a *API) replaceTenantModules(ctx forge.Context, req *ReplaceTenantModulesRequest) (*SuccessResponse, error) {
	if _, err := a.requireOwner(ctx); err != nil {
		return nil, fail(ctx, err)
	}

	if err := a.eng.ReplaceEntitlements(ctx.Context(), ctx.Param("tenantId"), req.Modules); err != nil {
		return nil, fail(ctx, err)
	}

	resp := &SuccessResponse{Success: true}
	return resp, ctx.JSON(http.StatusOK, resp)
}

func toSubscriptionResponse(eng *gatehouse.Engine, sub *subscription.Subscription) *SubscriptionResponse {
	return &SubscriptionResponse{
		Status:  string(sub.EffectiveStatus(eng.Now())),
		EndDate: sub.EndsAt,
	}
}
