package api

import (
	"net/http"
	"time"

	"github.com/xraph/forge"

	"github.com/xraph/gatehouse/checklog"
)

func (a *API) registerCheckLogRoutes(router forge.Router) error {
	g := router.Group("/v1", forge.WithGroupTags("check-logs"))

	return g.GET("/check-logs", a.listCheckLogs,
		forge.WithSummary("Query check logs"),
		forge.WithDescription("Returns guard decision audit logs with optional filters. Tenant administrators see their own tenant only."),
		forge.WithOperationID("listCheckLogs"),
		forge.WithRequestSchema(ListCheckLogsRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Check log list", ListResponse[*checklog.Entry]{}),
		forge.WithErrorResponses(),
	)
}

func (a *API) listCheckLogs(ctx forge.Context, req *ListCheckLogsRequest) (*ListResponse[*checklog.Entry], error) {
	p, err := a.requireAdmin(ctx)
	if err != nil {
		return nil, fail(ctx, err)
	}

	filter := &checklog.QueryFilter{
		TenantID: req.TenantID,
		UserID:   req.UserID,
		Module:   req.Module,
		Decision: req.Decision,
		Reason:   req.Reason,
		Limit:    defaultLimit(req.Limit),
		Offset:   req.Offset,
	}
	if !p.IsPlatformOwner() {
		filter.TenantID = p.TenantID()
	}

	if req.After != "" {
		t, err := time.Parse(time.RFC3339, req.After)
		if err != nil {
			return nil, forge.BadRequest("invalid after timestamp")
		}
		filter.After = &t
	}
	if req.Before != "" {
		t, err := time.Parse(time.RFC3339, req.Before)
		if err != nil {
			return nil, forge.BadRequest("invalid before timestamp")
		}
		filter.Before = &t
	}

	logs, err := a.eng.Store().ListCheckLogs(ctx.Context(), filter)
	if err != nil {
		return nil, fail(ctx, err)
	}
	total, err := a.eng.Store().CountCheckLogs(ctx.Context(), filter)
	if err != nil {
		return nil, fail(ctx, err)
	}

	resp := &ListResponse[*checklog.Entry]{
		Items:  logs,
		Total:  total,
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}
	return resp, ctx.JSON(http.StatusOK, resp)
}
