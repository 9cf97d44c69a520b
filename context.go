package gatehouse

import "context"

type contextKey int

const (
	ctxKeyUserID contextKey = iota
	ctxKeyPrincipal
	ctxKeyRequestIP
)

// WithUserID returns a context carrying the authenticated user ID.
// Use this for standalone mode (without Forge).
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, ctxKeyUserID, userID)
}

// WithPrincipal returns a context carrying a resolved principal.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, ctxKeyPrincipal, p)
}

// PrincipalFrom returns the principal stored by WithPrincipal.
func PrincipalFrom(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(ctxKeyPrincipal).(*Principal)
	return p, ok && p != nil
}

// WithRequestIP returns a context carrying the caller's address, recorded
// in check log entries.
func WithRequestIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, ctxKeyRequestIP, ip)
}

func userIDFromContext(ctx context.Context) string {
	v, ok := ctx.Value(ctxKeyUserID).(string)
	if !ok {
		return ""
	}
	return v
}

func requestIPFromContext(ctx context.Context) string {
	v, ok := ctx.Value(ctxKeyRequestIP).(string)
	if !ok {
		return ""
	}
	return v
}
