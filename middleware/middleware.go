// Package middleware provides HTTP authorization middleware for Gatehouse.
package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net"

	"github.com/xraph/forge"

	"github.com/xraph/gatehouse"
)

// Require runs the guard chain before the handler. The principal is
// resolved from the request context (Forge auth user, then WithUserID) and
// stored with gatehouse.WithPrincipal for the handler.
func Require(eng *gatehouse.Engine, req gatehouse.Requirement) forge.Middleware {
	return func(next forge.Handler) forge.Handler {
		return func(ctx forge.Context) error {
			p, err := resolve(ctx, eng)
			if err != nil {
				return denyResponse(ctx, err)
			}
			if err := eng.Enforce(requestContext(ctx), p, req); err != nil {
				return denyResponse(ctx, err)
			}
			return next(withPrincipal(ctx, p))
		}
	}
}

// RequireAny allows the request if ANY of the requirements pass. The deny
// response reports the last failure.
func RequireAny(eng *gatehouse.Engine, reqs ...gatehouse.Requirement) forge.Middleware {
	return func(next forge.Handler) forge.Handler {
		return func(ctx forge.Context) error {
			p, err := resolve(ctx, eng)
			if err != nil {
				return denyResponse(ctx, err)
			}
			last := gatehouse.ErrAccessDenied
			for _, req := range reqs {
				err := eng.Enforce(requestContext(ctx), p, req)
				if err == nil {
					return next(withPrincipal(ctx, p))
				}
				last = err
			}
			return denyResponse(ctx, last)
		}
	}
}

// RequireAll allows the request only if ALL requirements pass.
func RequireAll(eng *gatehouse.Engine, reqs ...gatehouse.Requirement) forge.Middleware {
	return func(next forge.Handler) forge.Handler {
		return func(ctx forge.Context) error {
			p, err := resolve(ctx, eng)
			if err != nil {
				return denyResponse(ctx, err)
			}
			for _, req := range reqs {
				if err := eng.Enforce(requestContext(ctx), p, req); err != nil {
					return denyResponse(ctx, err)
				}
			}
			return next(withPrincipal(ctx, p))
		}
	}
}

// resolve returns the caller's principal. A missing account is reported as
// unauthenticated.
func resolve(ctx forge.Context, eng *gatehouse.Engine) (*gatehouse.Principal, error) {
	p, err := eng.ResolveFromContext(ctx.Context())
	if err != nil {
		if errors.Is(err, gatehouse.ErrAccountNotFound) || errors.Is(err, gatehouse.ErrUserRequired) {
			return nil, errors.Join(gatehouse.ErrUnauthenticated, err)
		}
		return nil, err
	}
	return p, nil
}

// requestContext tags the request context with the client address so the
// check log can record it.
func requestContext(ctx forge.Context) context.Context {
	c := ctx.Context()
	if r := ctx.Request(); r != nil {
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			host = r.RemoteAddr
		}
		c = gatehouse.WithRequestIP(c, host)
	}
	return c
}

// withPrincipal attaches p to the request the handler will read. forge
// exposes no context setter, so the request is updated in place: Request()
// returns the same pointer for the life of the call, the swap happens on
// the serving goroutine before next runs, and only the context field of
// the shallow copy differs.
func withPrincipal(ctx forge.Context, p *gatehouse.Principal) forge.Context {
	if r := ctx.Request(); r != nil {
		*r = *r.WithContext(gatehouse.WithPrincipal(r.Context(), p))
	}
	return ctx
}

func denyResponse(ctx forge.Context, err error) error {
	body := map[string]string{"error": err.Error()}
	if reason := gatehouse.ReasonOf(err); reason != gatehouse.ReasonNone {
		body["reason"] = string(reason)
	}
	ctx.SetHeader("Content-Type", "application/json")
	ctx.Response().WriteHeader(gatehouse.HTTPStatus(err))
	return json.NewEncoder(ctx.Response()).Encode(body)
}
