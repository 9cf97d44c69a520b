package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/xraph/gatehouse"
	"github.com/xraph/gatehouse/account"
	"github.com/xraph/gatehouse/cache"
	"github.com/xraph/gatehouse/module"
	"github.com/xraph/gatehouse/store/memory"
	"github.com/xraph/gatehouse/subscription"
)

func newTestEngine(t *testing.T) *gatehouse.Engine {
	t.Helper()
	ctx := context.Background()
	s := memory.New()
	eng, err := gatehouse.NewEngine(gatehouse.WithStore(s), gatehouse.WithCache(cache.NewMemory()))
	if err != nil {
		t.Fatal(err)
	}
	if err := eng.Start(ctx); err != nil {
		t.Fatal(err)
	}

	_ = eng.CreateModule(ctx, &module.Module{Code: "FINANCE", Name: "Finance", SortOrder: 1})
	_ = eng.CreateModule(ctx, &module.Module{Code: "CRM", Name: "CRM", SortOrder: 2})
	_, _ = eng.SetSubscription(ctx, "t1", subscription.StatusUnlimited, nil)
	_ = eng.ReplaceEntitlements(ctx, "t1", []gatehouse.EntitlementInput{
		{ModuleCode: "FINANCE", Active: true},
		{ModuleCode: "CRM", Active: true},
	})
	_ = s.CreateAccount(ctx, &account.Account{UserID: "u1", TenantID: "t1", Active: true})
	_ = eng.AssignRole(ctx, "u1", gatehouse.RoleTenantUser, "setup")
	_ = eng.ReplaceModulePermissions(ctx, "u1", []gatehouse.GrantInput{
		{ModuleCode: "FINANCE", Active: true, Actions: []string{"view"}},
	})
	return eng
}

func TestSessionLifecycle(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngine(t)
	sess := New(eng)

	if v := sess.Guard(gatehouse.Requirement{Module: "FINANCE"}); v.Reason != gatehouse.ReasonUnauthenticated {
		t.Fatalf("logged-out session should be unauthenticated, got %+v", v)
	}

	p, err := eng.ResolvePrincipal(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if err := sess.Handle(ctx, LoggedIn{Principal: p}); err != nil {
		t.Fatal(err)
	}
	if sess.Version() != 1 {
		t.Fatalf("expected version 1, got %d", sess.Version())
	}
	if menu := sess.Menu(); len(menu) != 1 || menu[0].Code != "FINANCE" {
		t.Fatalf("unexpected menu %+v", menu)
	}
	if v := sess.Guard(gatehouse.Requirement{Module: "CRM"}); v.Reason != gatehouse.ReasonModuleDenied {
		t.Fatalf("expected module_denied for CRM, got %+v", v)
	}

	// Grants change; the session picks them up on the event.
	if err := eng.ReplaceModulePermissions(ctx, "u1", []gatehouse.GrantInput{
		{ModuleCode: "FINANCE", Active: true, Actions: []string{"view", "create"}},
		{ModuleCode: "CRM", Active: true, Actions: []string{"view"}},
	}); err != nil {
		t.Fatal(err)
	}
	before := sess.View()
	if err := sess.Handle(ctx, PermissionsUpdated{UserID: "u1"}); err != nil {
		t.Fatal(err)
	}
	after := sess.View()
	if after.Version != before.Version+1 {
		t.Fatal("version must advance on permission update")
	}
	if len(before.Capabilities.Modules) != 1 {
		t.Fatal("previous view must stay immutable")
	}
	if !sess.Guard(gatehouse.Requirement{Module: "FINANCE", Action: gatehouse.ActionCreate}).Allowed {
		t.Fatal("expected create on FINANCE after update")
	}

	// Events for other users are ignored.
	if err := sess.Handle(ctx, PermissionsUpdated{UserID: "u2"}); err != nil {
		t.Fatal(err)
	}
	if sess.Version() != after.Version {
		t.Fatal("foreign update must not bump version")
	}

	if err := sess.Handle(ctx, LoggedOut{}); err != nil {
		t.Fatal(err)
	}
	if v := sess.View(); v.Principal != nil || v.Capabilities != nil {
		t.Fatal("logout must drop principal and capabilities")
	}
	if sess.Menu() != nil {
		t.Fatal("logged-out menu should be empty")
	}
}

func TestSessionGuardMatchesSubscriptionStage(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngine(t)
	sess := New(eng)
	p, _ := eng.ResolvePrincipal(ctx, "u1")
	_ = sess.Handle(ctx, LoggedIn{Principal: p})

	if _, err := eng.SetSubscription(ctx, "t1", subscription.StatusSuspended, nil); err != nil {
		t.Fatal(err)
	}
	_ = sess.Handle(ctx, PermissionsUpdated{UserID: "u1"})

	v := sess.Guard(gatehouse.Requirement{Module: "FINANCE"})
	if v.Reason != gatehouse.ReasonSubscriptionExpired {
		t.Fatalf("expected subscription_expired, got %+v", v)
	}
	server, err := eng.Guard(ctx, p, gatehouse.Requirement{Module: "FINANCE"})
	if err != nil {
		t.Fatal(err)
	}
	if server.Reason != v.Reason || server.Stage != v.Stage {
		t.Fatalf("client verdict %+v differs from server %+v", v, server)
	}
}

func TestSessionRun(t *testing.T) {
	eng := newTestEngine(t)
	sess := New(eng)
	p, _ := eng.ResolvePrincipal(context.Background(), "u1")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	events := make(chan Event, 3)
	events <- LoggedIn{Principal: p}
	events <- LoggedIn{}
	events <- LoggedOut{}
	close(events)

	if err := sess.Run(ctx, events); err != nil {
		t.Fatal(err)
	}
	if sess.Version() != 2 {
		t.Fatalf("expected two applied events, got version %d", sess.Version())
	}
}

func TestSessionRunStopsOnCancel(t *testing.T) {
	sess := New(newTestEngine(t))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := sess.Run(ctx, make(chan Event))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

// blockingProjector parks every Capabilities call until release is closed.
type blockingProjector struct {
	entered chan struct{}
	release chan struct{}
}

func (b *blockingProjector) Capabilities(_ context.Context, p *gatehouse.Principal) (*gatehouse.Capabilities, error) {
	b.entered <- struct{}{}
	<-b.release
	return &gatehouse.Capabilities{UserID: p.UserID()}, nil
}

func (b *blockingProjector) InvalidateCapabilities(context.Context, string) {}

func TestSessionLogoutWinsOverPendingRefresh(t *testing.T) {
	ctx := context.Background()
	p, err := newTestEngine(t).ResolvePrincipal(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	proj := &blockingProjector{entered: make(chan struct{}), release: make(chan struct{})}
	sess := New(proj)

	done := make(chan error, 1)
	go func() { done <- sess.Handle(ctx, LoggedIn{Principal: p}) }()

	<-proj.entered
	if err := sess.Handle(ctx, LoggedOut{}); err != nil {
		t.Fatal(err)
	}
	close(proj.release)
	if err := <-done; err != nil {
		t.Fatal(err)
	}

	v := sess.View()
	if v.Principal != nil || v.Capabilities != nil {
		t.Fatalf("stale projection resurrected a logged-out session: %+v", v)
	}
	if v.Version != 1 {
		t.Fatalf("expected only the logout to apply, got version %d", v.Version)
	}
}
