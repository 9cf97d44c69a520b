package gatehouse

import (
	"context"

	"github.com/xraph/forge"
)

// UserIDFromContext returns the authenticated user ID. The Forge auth layer
// takes precedence; standalone callers use WithUserID.
func UserIDFromContext(ctx context.Context) string {
	if uid := forge.UserIDFromContext(ctx); uid != "" {
		return uid
	}
	return userIDFromContext(ctx)
}

// tenantHint returns the organization bound to the request scope, if any.
func tenantHint(ctx context.Context) string {
	if s, ok := forge.ScopeFrom(ctx); ok {
		return s.OrgID()
	}
	return ""
}
