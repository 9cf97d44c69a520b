package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/xraph/forge"

	"github.com/xraph/gatehouse"
)

// forgeContext names the embedded interface so its field name does not
// shadow the interface's own Context method.
type forgeContext = forge.Context

// requestCtx answers Request and leaves the rest of forge.Context unset.
type requestCtx struct {
	forgeContext
	r *http.Request
}

func (c requestCtx) Request() *http.Request { return c.r }

func TestWithPrincipalUpdatesSharedRequest(t *testing.T) {
	p, err := gatehouse.NewPrincipal("u1", "t1", true, gatehouse.RoleTenantUser)
	if err != nil {
		t.Fatal(err)
	}
	r := httptest.NewRequest(http.MethodGet, "/v1/finance", nil)
	ctx := requestCtx{r: r}

	out := withPrincipal(ctx, p)

	// The handler reads the request through its own forge.Context, which
	// hands out the same pointer.
	got, ok := gatehouse.PrincipalFrom(out.Request().Context())
	if !ok || got != p {
		t.Fatalf("principal not attached: %v %v", got, ok)
	}
	if got, _ := gatehouse.PrincipalFrom(r.Context()); got != p {
		t.Fatal("request pointer held before the swap must see the principal")
	}
	if r.URL.Path != "/v1/finance" || r.Method != http.MethodGet {
		t.Fatalf("request fields changed: %s %s", r.Method, r.URL.Path)
	}
}

func TestWithPrincipalNilRequest(t *testing.T) {
	p, _ := gatehouse.NewPrincipal("u1", "t1", true)
	ctx := requestCtx{}
	if out := withPrincipal(ctx, p); out.Request() != nil {
		t.Fatal("expected the context to pass through untouched")
	}
}
