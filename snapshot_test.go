package gatehouse

import (
	"testing"
	"time"

	"github.com/xraph/gatehouse/entitlement"
	"github.com/xraph/gatehouse/grant"
	"github.com/xraph/gatehouse/subscription"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func mustPrincipal(t *testing.T, userID, tenantID string, roles ...Role) *Principal {
	t.Helper()
	p, err := NewPrincipal(userID, tenantID, true, roles...)
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func snapshotFor(p *Principal, status subscription.Status, entActive, grantActive bool, actions ...string) *Snapshot {
	var sub *subscription.Subscription
	if status != "" {
		sub = &subscription.Subscription{TenantID: p.TenantID(), Status: status}
	}
	ents := []*entitlement.Entitlement{{TenantID: p.TenantID(), ModuleCode: "FINANCE", Active: entActive}}
	grants := []*grant.Grant{{UserID: p.UserID(), ModuleCode: "FINANCE", Active: grantActive, Actions: actions}}
	return NewSnapshot(p.UserID(), p.TenantID(), sub, ents, grants, testNow)
}

func TestCanAccessModuleTruthTable(t *testing.T) {
	p := mustPrincipal(t, "u1", "t1", RoleTenantUser)

	statuses := []subscription.Status{
		subscription.StatusActive,
		subscription.StatusUnlimited,
		subscription.StatusSuspended,
		subscription.StatusExpired,
		"",
	}
	for _, status := range statuses {
		for _, entActive := range []bool{true, false} {
			for _, grantActive := range []bool{true, false} {
				snap := snapshotFor(p, status, entActive, grantActive, "view")
				permits := status == subscription.StatusActive || status == subscription.StatusUnlimited
				want := permits && entActive && grantActive

				if got := snap.CanAccessModule(p, "FINANCE"); got != want {
					t.Errorf("status=%q ent=%v grant=%v: CanAccessModule=%v, want %v",
						status, entActive, grantActive, got, want)
				}
				// CanPerform never exceeds CanAccessModule.
				for _, a := range []Action{ActionView, ActionCreate, ActionApprove} {
					if snap.CanPerform(p, "FINANCE", a) && !snap.CanAccessModule(p, "FINANCE") {
						t.Errorf("status=%q ent=%v grant=%v: CanPerform(%s) true without access",
							status, entActive, grantActive, a)
					}
				}
			}
		}
	}
}

func TestPlatformOwnerBypassesEverything(t *testing.T) {
	owner := mustPrincipal(t, "root", "", RolePlatformOwner)
	empty := NewSnapshot("root", "", nil, nil, nil, testNow)

	for _, code := range []string{"FINANCE", "TAXI", "UNKNOWN"} {
		if !empty.CanAccessModule(owner, code) {
			t.Errorf("owner denied access to %s", code)
		}
		for _, a := range []Action{ActionView, ActionDelete, ActionTrack} {
			if !empty.CanPerform(owner, code, a) {
				t.Errorf("owner denied %s on %s", a, code)
			}
		}
	}

	// A tenant on the owner is ignored, as is an expired subscription.
	withTenant := mustPrincipal(t, "root", "t9", RolePlatformOwner)
	expired := snapshotFor(withTenant, subscription.StatusExpired, false, false)
	if !expired.CanPerform(withTenant, "FINANCE", ActionDelete) {
		t.Fatal("owner must not be restricted by tenant state")
	}
}

func TestTenantAdminGetsAllActionsOnAccessibleModules(t *testing.T) {
	admin := mustPrincipal(t, "a1", "t1", RoleTenantAdmin)

	snap := snapshotFor(admin, subscription.StatusActive, true, true)
	if !snap.CanPerform(admin, "FINANCE", ActionDelete) {
		t.Fatal("tenant admin should hold every action")
	}

	// Admins still need entitlement and grant.
	snap = snapshotFor(admin, subscription.StatusActive, false, true)
	if snap.CanPerform(admin, "FINANCE", ActionView) {
		t.Fatal("tenant admin must not bypass entitlement")
	}
}

func TestConcreteScenario(t *testing.T) {
	u := mustPrincipal(t, "U", "T", RoleTenantUser)
	sub := &subscription.Subscription{TenantID: "T", Status: subscription.StatusActive}
	ents := []*entitlement.Entitlement{
		{TenantID: "T", ModuleCode: "FINANCE", Active: true},
		{TenantID: "T", ModuleCode: "TAXI", Active: false},
	}
	grants := []*grant.Grant{
		{UserID: "U", ModuleCode: "FINANCE", Active: true, Actions: []string{"view", "create"}},
		{UserID: "U", ModuleCode: "TAXI", Active: true, Actions: []string{"view"}},
	}
	snap := NewSnapshot("U", "T", sub, ents, grants, testNow)

	checks := []struct {
		name string
		got  bool
		want bool
	}{
		{"access FINANCE", snap.CanAccessModule(u, "FINANCE"), true},
		{"create FINANCE", snap.CanPerform(u, "FINANCE", ActionCreate), true},
		{"delete FINANCE", snap.CanPerform(u, "FINANCE", ActionDelete), false},
		{"access TAXI", snap.CanAccessModule(u, "TAXI"), false},
		{"view TAXI", snap.CanPerform(u, "TAXI", ActionView), false},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s: got %v, want %v", c.name, c.got, c.want)
		}
	}

	// Subscription flips to EXPIRED.
	sub.Status = subscription.StatusExpired
	snap = NewSnapshot("U", "T", sub, ents, grants, testNow)
	for _, code := range []string{"FINANCE", "TAXI"} {
		if snap.CanAccessModule(u, code) {
			t.Errorf("access %s should be denied after expiry", code)
		}
	}
	v := Evaluate(u, snap, Requirement{Module: "FINANCE", Action: ActionView})
	if v.Allowed || v.Reason != ReasonSubscriptionExpired || v.Stage != StageSubscription {
		t.Fatalf("expected subscription_expired at stage 2, got %+v", v)
	}
}

func TestActiveSubscriptionPastEndDateDenies(t *testing.T) {
	p := mustPrincipal(t, "u1", "t1", RoleTenantUser)
	ended := testNow.Add(-time.Hour)
	sub := &subscription.Subscription{TenantID: "t1", Status: subscription.StatusActive, EndsAt: &ended}
	ents := []*entitlement.Entitlement{{TenantID: "t1", ModuleCode: "FINANCE", Active: true}}
	grants := []*grant.Grant{{UserID: "u1", ModuleCode: "FINANCE", Active: true, Actions: []string{"view"}}}

	snap := NewSnapshot("u1", "t1", sub, ents, grants, testNow)
	if snap.CanAccessModule(p, "FINANCE") {
		t.Fatal("ACTIVE subscription past its end date must deny")
	}
	if snap.SubscriptionStatus() != subscription.StatusExpired {
		t.Fatalf("expected effective EXPIRED, got %s", snap.SubscriptionStatus())
	}
}

func TestSnapshotIgnoresForeignRowsAndUnknownActions(t *testing.T) {
	p := mustPrincipal(t, "u1", "t1", RoleTenantUser)
	sub := &subscription.Subscription{TenantID: "t1", Status: subscription.StatusUnlimited}
	ents := []*entitlement.Entitlement{
		{TenantID: "t2", ModuleCode: "FINANCE", Active: true},
		{TenantID: "t1", ModuleCode: "CRM", Active: true},
	}
	grants := []*grant.Grant{
		{UserID: "u1", ModuleCode: "FINANCE", Active: true, Actions: []string{"view"}},
		{UserID: "u1", ModuleCode: "CRM", Active: true, Actions: []string{"View", "teleport", "update"}},
	}
	snap := NewSnapshot("u1", "t1", sub, ents, grants, testNow)

	if snap.CanAccessModule(p, "FINANCE") {
		t.Fatal("entitlement of another tenant must not apply")
	}
	if snap.CanPerform(p, "CRM", ActionView) {
		t.Fatal("action names are case-sensitive")
	}
	if !snap.CanPerform(p, "CRM", ActionUpdate) {
		t.Fatal("valid stored action should still apply")
	}

	// A snapshot loaded for someone else never allows.
	other := mustPrincipal(t, "u2", "t1", RoleTenantUser)
	if snap.CanAccessModule(other, "CRM") {
		t.Fatal("snapshot of u1 must not authorize u2")
	}
}

func TestInactivePrincipalDenied(t *testing.T) {
	p, err := NewPrincipal("u1", "t1", false, RoleTenantAdmin)
	if err != nil {
		t.Fatal(err)
	}
	snap := snapshotFor(p, subscription.StatusActive, true, true, "view")
	if snap.CanAccessModule(p, "FINANCE") {
		t.Fatal("inactive principal must be denied")
	}
	v := Evaluate(p, snap, Requirement{})
	if v.Reason != ReasonUnauthenticated {
		t.Fatalf("expected unauthenticated, got %q", v.Reason)
	}
}
