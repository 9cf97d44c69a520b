package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/xraph/forge"

	"github.com/xraph/gatehouse"
)

func (a *API) registerCheckRoutes(router forge.Router) error {
	g := router.Group("/v1/authz", forge.WithGroupTags("authorization"))

	if err := g.POST("/check", a.check,
		forge.WithSummary("Authorization check"),
		forge.WithDescription("Runs the guard chain for the caller and returns the verdict."),
		forge.WithOperationID("authzCheck"),
		forge.WithRequestSchema(CheckRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Check result", CheckResponse{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	return g.POST("/enforce", a.enforce,
		forge.WithSummary("Enforce authorization"),
		forge.WithDescription("Returns 200 if allowed, otherwise the status of the denying stage."),
		forge.WithOperationID("authzEnforce"),
		forge.WithRequestSchema(CheckRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Allowed", CheckResponse{}),
		forge.WithErrorResponses(),
	)
}

func (a *API) check(ctx forge.Context, req *CheckRequest) (*CheckResponse, error) {
	verdict, err := a.verdict(ctx, req)
	if err != nil {
		return nil, fail(ctx, err)
	}

	resp := toCheckResponse(verdict)
	return resp, ctx.JSON(http.StatusOK, resp)
}

func (a *API) enforce(ctx forge.Context, req *CheckRequest) (*CheckResponse, error) {
	verdict, err := a.verdict(ctx, req)
	if err != nil {
		return nil, fail(ctx, err)
	}

	resp := toCheckResponse(verdict)
	if !verdict.Allowed {
		return resp, ctx.JSON(gatehouse.HTTPStatus(verdict.Err()), resp)
	}
	return resp, ctx.JSON(http.StatusOK, resp)
}

// verdict resolves the caller and runs the guard chain. An unknown caller
// yields an unauthenticated verdict rather than an error. Malformed
// requirements come back unwrapped so fail maps them to 400.
func (a *API) verdict(ctx forge.Context, req *CheckRequest) (*gatehouse.Verdict, error) {
	requirement, err := toRequirement(req)
	if err != nil {
		return nil, err
	}

	p, err := a.caller(ctx)
	if err != nil && !errors.Is(err, gatehouse.ErrUnauthenticated) {
		return nil, err
	}
	return a.eng.Guard(ctx.Context(), p, requirement)
}

func toRequirement(req *CheckRequest) (gatehouse.Requirement, error) {
	out := gatehouse.Requirement{Module: req.Module}
	for _, name := range req.Roles {
		r, err := gatehouse.ParseRole(name)
		if err != nil {
			return out, fmt.Errorf("invalid role: %w", err)
		}
		out.Roles = append(out.Roles, r)
	}
	if req.Action != "" {
		act, err := gatehouse.ParseAction(req.Action)
		if err != nil {
			return out, fmt.Errorf("invalid action: %w", err)
		}
		out.Action = act
	}
	return out, out.Validate()
}

func toCheckResponse(v *gatehouse.Verdict) *CheckResponse {
	resp := &CheckResponse{
		Allowed:    v.Allowed,
		Decision:   string(v.Decision()),
		Reason:     string(v.Reason),
		EvalTimeNs: v.EvalTimeNs,
	}
	if !v.Allowed {
		resp.Stage = v.Stage.String()
	}
	return resp
}
