package gatehouse

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/xraph/gatehouse/account"
	"github.com/xraph/gatehouse/checklog"
	"github.com/xraph/gatehouse/grant"
	"github.com/xraph/gatehouse/module"
	"github.com/xraph/gatehouse/store/memory"
	"github.com/xraph/gatehouse/subscription"
)

func newTestEngine(t *testing.T, opts ...Option) (*Engine, *memory.Store) {
	t.Helper()
	s := memory.New()
	opts = append([]Option{WithStore(s), WithClock(func() time.Time { return testNow })}, opts...)
	eng, err := NewEngine(opts...)
	if err != nil {
		t.Fatal(err)
	}
	if err := eng.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	return eng, s
}

// seedScenario provisions tenant T with FINANCE (active) and TAXI
// (inactive) entitlements, an ACTIVE subscription, and user U as a
// tenant-user granted view+create on FINANCE and view on TAXI.
func seedScenario(t *testing.T, eng *Engine, s *memory.Store) {
	t.Helper()
	ctx := context.Background()

	for _, m := range []*module.Module{
		{Code: "FINANCE", Name: "Finance", SortOrder: 1, Actions: []string{"approve", "export"}},
		{Code: "TAXI", Name: "Taxi", SortOrder: 2, Actions: []string{"track"}},
		{Code: "CRM", Name: "CRM", SortOrder: 3},
	} {
		if err := eng.CreateModule(ctx, m); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := eng.SetSubscription(ctx, "T", subscription.StatusActive, nil); err != nil {
		t.Fatal(err)
	}
	if err := eng.ReplaceEntitlements(ctx, "T", []EntitlementInput{
		{ModuleCode: "FINANCE", Active: true},
		{ModuleCode: "TAXI", Active: false},
	}); err != nil {
		t.Fatal(err)
	}
	if err := s.CreateAccount(ctx, &account.Account{UserID: "U", TenantID: "T", Active: true}); err != nil {
		t.Fatal(err)
	}
	if err := eng.AssignRole(ctx, "U", RoleTenantUser, "setup"); err != nil {
		t.Fatal(err)
	}
	if err := eng.ReplaceModulePermissions(ctx, "U", []GrantInput{
		{ModuleCode: "FINANCE", Active: true, Actions: []string{"view", "create"}},
		{ModuleCode: "TAXI", Active: true, Actions: []string{"view"}},
	}); err != nil {
		t.Fatal(err)
	}
}

func TestNewEngine_RequiresStore(t *testing.T) {
	_, err := NewEngine()
	if err == nil {
		t.Fatal("expected error when store is nil")
	}
}

func TestSeedRolesIsIdempotent(t *testing.T) {
	ctx := context.Background()
	eng, s := newTestEngine(t)

	if err := eng.SeedRoles(ctx); err != nil {
		t.Fatal(err)
	}
	count, err := s.CountRoles(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	if count != int64(len(Roles())) {
		t.Fatalf("expected %d roles, got %d", len(Roles()), count)
	}
}

func TestResolvePrincipal(t *testing.T) {
	ctx := context.Background()
	eng, s := newTestEngine(t)
	seedScenario(t, eng, s)

	p, err := eng.ResolvePrincipal(ctx, "U")
	if err != nil {
		t.Fatal(err)
	}
	if p.TenantID() != "T" || !p.HasRole(RoleTenantUser) || !p.Active() {
		t.Fatalf("unexpected principal %+v", p)
	}

	if _, err := eng.ResolvePrincipal(ctx, "ghost"); !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}

	// A tenant-scoped role on a tenant-less account fails construction.
	_ = s.CreateAccount(ctx, &account.Account{UserID: "floating", Active: true})
	if err := eng.AssignRole(ctx, "floating", RoleViewer, "setup"); !errors.Is(err, ErrTenantRequired) {
		t.Fatalf("expected ErrTenantRequired, got %v", err)
	}
}

func TestResolveFromContext(t *testing.T) {
	eng, s := newTestEngine(t)
	seedScenario(t, eng, s)

	if _, err := eng.ResolveFromContext(context.Background()); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}

	ctx := WithUserID(context.Background(), "U")
	p, err := eng.ResolveFromContext(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if p.UserID() != "U" {
		t.Fatalf("expected U, got %s", p.UserID())
	}

	// An explicitly stored principal wins.
	owner := mustPrincipal(t, "root", "", RolePlatformOwner)
	got, err := eng.ResolveFromContext(WithPrincipal(ctx, owner))
	if err != nil {
		t.Fatal(err)
	}
	if got != owner {
		t.Fatal("expected principal from context")
	}
}

func TestEngineScenario(t *testing.T) {
	ctx := context.Background()
	eng, s := newTestEngine(t)
	seedScenario(t, eng, s)

	u, err := eng.ResolvePrincipal(ctx, "U")
	if err != nil {
		t.Fatal(err)
	}

	expect := func(name string, got bool, err error, want bool) {
		t.Helper()
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if got != want {
			t.Errorf("%s: got %v, want %v", name, got, want)
		}
	}

	ok, err := eng.CanAccessModule(ctx, u, "FINANCE")
	expect("access FINANCE", ok, err, true)
	ok, err = eng.CanPerform(ctx, u, "FINANCE", ActionCreate)
	expect("create FINANCE", ok, err, true)
	ok, err = eng.CanPerform(ctx, u, "FINANCE", ActionDelete)
	expect("delete FINANCE", ok, err, false)
	ok, err = eng.CanAccessModule(ctx, u, "TAXI")
	expect("access TAXI", ok, err, false)
	ok, err = eng.CanPerform(ctx, u, "TAXI", ActionView)
	expect("view TAXI", ok, err, false)

	// Subscription flips to EXPIRED.
	if _, err := eng.SetSubscription(ctx, "T", subscription.StatusExpired, nil); err != nil {
		t.Fatal(err)
	}
	ok, err = eng.CanAccessModule(ctx, u, "FINANCE")
	expect("access FINANCE after expiry", ok, err, false)

	v, err := eng.Guard(ctx, u, Requirement{Module: "FINANCE", Action: ActionView})
	if err != nil {
		t.Fatal(err)
	}
	if v.Allowed || v.Reason != ReasonSubscriptionExpired {
		t.Fatalf("expected subscription_expired, got %+v", v)
	}
}

func TestGuardStageOrder(t *testing.T) {
	ctx := context.Background()
	eng, s := newTestEngine(t)
	seedScenario(t, eng, s)
	u, _ := eng.ResolvePrincipal(ctx, "U")

	tests := []struct {
		name      string
		principal *Principal
		req       Requirement
		allowed   bool
		reason    Reason
		stage     Stage
	}{
		{"nil principal", nil, Requirement{Module: "FINANCE"}, false, ReasonUnauthenticated, StageAuthentication},
		{"role mismatch", u, Requirement{Roles: []Role{RoleTenantAdmin}, Module: "FINANCE"}, false, ReasonRoleDenied, StageRole},
		{"module denied", u, Requirement{Module: "CRM"}, false, ReasonModuleDenied, StageModule},
		{"action denied", u, Requirement{Module: "FINANCE", Action: ActionApprove}, false, ReasonActionDenied, StageModule},
		{"allowed", u, Requirement{Roles: []Role{RoleTenantUser, RoleViewer}, Module: "FINANCE", Action: ActionCreate}, true, ReasonNone, 0},
		{"role only", u, Requirement{Roles: []Role{RoleTenantUser}}, true, ReasonNone, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := eng.Guard(ctx, tt.principal, tt.req)
			if err != nil {
				t.Fatal(err)
			}
			if v.Allowed != tt.allowed || v.Reason != tt.reason || v.Stage != tt.stage {
				t.Fatalf("got %+v, want allowed=%v reason=%q stage=%d", v, tt.allowed, tt.reason, tt.stage)
			}
		})
	}
}

func TestGuardRejectsInvalidRequirement(t *testing.T) {
	eng, _ := newTestEngine(t)
	_, err := eng.Guard(context.Background(), nil, Requirement{Action: ActionView})
	if !errors.Is(err, ErrInvalidRequirement) {
		t.Fatalf("expected ErrInvalidRequirement, got %v", err)
	}
}

func TestEnforceWrapsSentinels(t *testing.T) {
	ctx := context.Background()
	eng, s := newTestEngine(t)
	seedScenario(t, eng, s)
	u, _ := eng.ResolvePrincipal(ctx, "U")

	err := eng.Enforce(ctx, u, Requirement{Module: "FINANCE", Action: ActionDelete})
	if !errors.Is(err, ErrAccessDenied) || !errors.Is(err, ErrActionDenied) {
		t.Fatalf("expected access denied + action denied, got %v", err)
	}
	if err := eng.Enforce(ctx, u, Requirement{Module: "FINANCE"}); err != nil {
		t.Fatalf("expected allow, got %v", err)
	}
}

func TestGuardAuditsDenials(t *testing.T) {
	ctx := WithRequestIP(context.Background(), "10.0.0.7")
	eng, s := newTestEngine(t)
	seedScenario(t, eng, s)
	u, _ := eng.ResolvePrincipal(ctx, "U")

	_, _ = eng.Guard(ctx, u, Requirement{Module: "CRM"})
	_, _ = eng.Guard(ctx, u, Requirement{Module: "FINANCE"})

	logs, err := s.ListCheckLogs(ctx, &checklog.QueryFilter{TenantID: "T"})
	if err != nil {
		t.Fatal(err)
	}
	if len(logs) != 1 {
		t.Fatalf("expected only the denial to be logged, got %d", len(logs))
	}
	if logs[0].Reason != string(ReasonModuleDenied) || logs[0].RequestIP != "10.0.0.7" {
		t.Fatalf("unexpected entry %+v", logs[0])
	}
}

func TestHasPermission(t *testing.T) {
	ctx := context.Background()
	eng, s := newTestEngine(t)
	seedScenario(t, eng, s)
	u, _ := eng.ResolvePrincipal(ctx, "U")

	if err := eng.GrantPermission(ctx, RoleTenantUser, "reports.read"); err != nil {
		t.Fatal(err)
	}
	ok, err := eng.HasPermission(ctx, u, "reports.read")
	if err != nil || !ok {
		t.Fatalf("expected permission, got %v %v", ok, err)
	}
	ok, _ = eng.HasPermission(ctx, u, "reports.write")
	if ok {
		t.Fatal("unexpected permission")
	}
}

// faultyStore fails every grant replacement as if the transaction aborted.
type faultyStore struct {
	*memory.Store
}

func (f *faultyStore) ReplaceGrants(_ context.Context, _ string, _ []*grant.Grant) error {
	return errors.New("connection reset during commit")
}

func TestReplaceModulePermissions(t *testing.T) {
	ctx := context.Background()
	eng, s := newTestEngine(t)
	seedScenario(t, eng, s)

	input := []GrantInput{
		{ModuleCode: "FINANCE", Active: true, Actions: []string{"view", "approve"}},
		{ModuleCode: "CRM", Active: false, Actions: []string{"view"}},
	}

	t.Run("idempotent", func(t *testing.T) {
		if err := eng.ReplaceModulePermissions(ctx, "U", input); err != nil {
			t.Fatal(err)
		}
		first, _ := s.ListGrants(ctx, "U")
		if err := eng.ReplaceModulePermissions(ctx, "U", input); err != nil {
			t.Fatal(err)
		}
		second, _ := s.ListGrants(ctx, "U")

		if len(first) != 1 || len(second) != 1 {
			t.Fatalf("expected one active grant, got %d then %d", len(first), len(second))
		}
		if first[0].ModuleCode != second[0].ModuleCode ||
			len(first[0].Actions) != len(second[0].Actions) ||
			first[0].ModuleName != "Finance" {
			t.Fatalf("sets differ: %+v vs %+v", first[0], second[0])
		}
	})

	t.Run("validation happens before storage", func(t *testing.T) {
		cases := []struct {
			name  string
			input []GrantInput
			want  error
		}{
			{"unknown module", []GrantInput{{ModuleCode: "NOPE", Active: true}}, ErrModuleNotFound},
			{"unknown action", []GrantInput{{ModuleCode: "FINANCE", Active: true, Actions: []string{"fly"}}}, ErrUnknownAction},
			{"unsupported extra", []GrantInput{{ModuleCode: "CRM", Active: true, Actions: []string{"approve"}}}, ErrUnknownAction},
			{"duplicate", []GrantInput{{ModuleCode: "FINANCE"}, {ModuleCode: "FINANCE"}}, ErrDuplicateModule},
		}
		for _, c := range cases {
			if err := eng.ReplaceModulePermissions(ctx, "U", c.input); !errors.Is(err, c.want) {
				t.Errorf("%s: expected %v, got %v", c.name, c.want, err)
			}
		}
		list, _ := s.ListGrants(ctx, "U")
		if len(list) != 1 || list[0].ModuleCode != "FINANCE" {
			t.Fatalf("rejected input changed stored set: %+v", list)
		}
	})

	t.Run("fault leaves previous set intact", func(t *testing.T) {
		faulty, err := NewEngine(WithStore(&faultyStore{Store: s}), WithClock(func() time.Time { return testNow }))
		if err != nil {
			t.Fatal(err)
		}
		err = faulty.ReplaceModulePermissions(ctx, "U", []GrantInput{
			{ModuleCode: "CRM", Active: true, Actions: []string{"view"}},
		})
		if !errors.Is(err, ErrTransactionFailure) {
			t.Fatalf("expected ErrTransactionFailure, got %v", err)
		}
		list, _ := s.ListGrants(ctx, "U")
		if len(list) != 1 || list[0].ModuleCode != "FINANCE" {
			t.Fatalf("failed replace changed stored set: %+v", list)
		}
	})
}

func TestProvisionAdministrator(t *testing.T) {
	ctx := context.Background()
	eng, s := newTestEngine(t)
	seedScenario(t, eng, s)

	_ = s.CreateAccount(ctx, &account.Account{UserID: "A", TenantID: "T", Active: true})
	if err := eng.AssignRole(ctx, "A", RoleTenantAdmin, "setup"); err != nil {
		t.Fatal(err)
	}
	if err := eng.ProvisionAdministrator(ctx, "A", "T"); err != nil {
		t.Fatal(err)
	}

	g, err := s.GetGrant(ctx, "A", "FINANCE")
	if err != nil {
		t.Fatal(err)
	}
	if len(g.Actions) != 6 {
		t.Fatalf("expected core actions plus approve and export, got %v", g.Actions)
	}
	if _, err := s.GetGrant(ctx, "A", "TAXI"); err == nil {
		t.Fatal("inactive entitlement must not be provisioned")
	}
}

func TestUnassignRole(t *testing.T) {
	ctx := context.Background()
	eng, s := newTestEngine(t)
	seedScenario(t, eng, s)

	if err := eng.UnassignRole(ctx, "U", RoleTenantUser); err != nil {
		t.Fatal(err)
	}
	u, err := eng.ResolvePrincipal(ctx, "U")
	if err != nil {
		t.Fatal(err)
	}
	if u.HasRole(RoleTenantUser) {
		t.Fatal("role still assigned")
	}
}
