package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/xraph/gatehouse/account"
	"github.com/xraph/gatehouse/assignment"
	"github.com/xraph/gatehouse/checklog"
	"github.com/xraph/gatehouse/entitlement"
	"github.com/xraph/gatehouse/grant"
	"github.com/xraph/gatehouse/id"
	"github.com/xraph/gatehouse/module"
	"github.com/xraph/gatehouse/permission"
	"github.com/xraph/gatehouse/role"
	"github.com/xraph/gatehouse/store"
	"github.com/xraph/gatehouse/subscription"
)

// Compile-time check that *Store implements store.Store.
var _ store.Store = (*Store)(nil)

func TestRoleCRUD(t *testing.T) {
	ctx := context.Background()
	s := New()

	r := &role.Role{
		ID:        id.NewRoleID(),
		Name:      "tenant-admin",
		GuardName: "web",
	}

	// Create
	if err := s.CreateRole(ctx, r); err != nil {
		t.Fatal(err)
	}
	err := s.CreateRole(ctx, &role.Role{ID: id.NewRoleID(), Name: "tenant-admin"})
	if !errors.Is(err, store.ErrConflict) {
		t.Fatalf("expected ErrConflict on duplicate name, got %v", err)
	}

	// Get
	got, err := s.GetRole(ctx, r.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "tenant-admin" {
		t.Fatalf("expected tenant-admin, got %s", got.Name)
	}

	// GetByName
	got, err = s.GetRoleByName(ctx, "tenant-admin")
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != r.ID {
		t.Fatal("name lookup mismatch")
	}

	// Update
	r.Description = "administers one tenant"
	if err := s.UpdateRole(ctx, r); err != nil {
		t.Fatal(err)
	}
	got, _ = s.GetRole(ctx, r.ID)
	if got.Description != "administers one tenant" {
		t.Fatal("update failed")
	}

	// List / Count
	list, _ := s.ListRoles(ctx, &role.ListFilter{GuardName: "web"})
	if len(list) != 1 {
		t.Fatalf("expected 1 role, got %d", len(list))
	}
	count, _ := s.CountRoles(ctx, &role.ListFilter{Search: "ADMIN"})
	if count != 1 {
		t.Fatalf("expected count 1, got %d", count)
	}

	// Delete
	if err := s.DeleteRole(ctx, r.ID); err != nil {
		t.Fatal(err)
	}
	_, err = s.GetRole(ctx, r.ID)
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestRolePermissions(t *testing.T) {
	ctx := context.Background()
	s := New()

	r := &role.Role{ID: id.NewRoleID(), Name: "viewer"}
	p1 := &permission.Permission{ID: id.NewPermissionID(), Name: "reports.read"}
	p2 := &permission.Permission{ID: id.NewPermissionID(), Name: "dashboard.read"}
	_ = s.CreateRole(ctx, r)
	_ = s.CreatePermission(ctx, p1)
	_ = s.CreatePermission(ctx, p2)

	if err := s.CreatePermission(ctx, &permission.Permission{ID: id.NewPermissionID(), Name: "reports.read"}); !errors.Is(err, store.ErrConflict) {
		t.Fatalf("expected ErrConflict on duplicate permission, got %v", err)
	}

	if err := s.AttachPermission(ctx, r.ID, p1.ID); err != nil {
		t.Fatal(err)
	}
	// Attaching twice is a no-op.
	if err := s.AttachPermission(ctx, r.ID, p1.ID); err != nil {
		t.Fatal(err)
	}

	perms, _ := s.ListPermissionsByRole(ctx, r.ID)
	if len(perms) != 1 || perms[0].Name != "reports.read" {
		t.Fatalf("expected [reports.read], got %v", perms)
	}

	if err := s.SetRolePermissions(ctx, r.ID, []id.PermissionID{p2.ID}); err != nil {
		t.Fatal(err)
	}
	ids, _ := s.ListRolePermissions(ctx, r.ID)
	if len(ids) != 1 || ids[0] != p2.ID {
		t.Fatalf("expected only %s, got %v", p2.ID, ids)
	}

	// Deleting a permission detaches it everywhere.
	_ = s.DeletePermission(ctx, p2.ID)
	perms, _ = s.ListPermissionsByRole(ctx, r.ID)
	if len(perms) != 0 {
		t.Fatalf("expected no permissions, got %d", len(perms))
	}
}

func TestAssignments(t *testing.T) {
	ctx := context.Background()
	s := New()

	roleID := id.NewRoleID()
	a := &assignment.Assignment{
		ID:        id.NewAssignmentID(),
		UserID:    "u1",
		RoleID:    roleID,
		CreatedAt: time.Now(),
	}
	if err := s.CreateAssignment(ctx, a); err != nil {
		t.Fatal(err)
	}
	dup := &assignment.Assignment{ID: id.NewAssignmentID(), UserID: "u1", RoleID: roleID}
	if err := s.CreateAssignment(ctx, dup); !errors.Is(err, store.ErrConflict) {
		t.Fatalf("expected ErrConflict on duplicate assignment, got %v", err)
	}

	roles, _ := s.ListRolesForUser(ctx, "u1")
	if len(roles) != 1 || roles[0] != roleID {
		t.Fatalf("expected [%s], got %v", roleID, roles)
	}

	list, _ := s.ListAssignments(ctx, &assignment.ListFilter{RoleID: &roleID})
	if len(list) != 1 {
		t.Fatalf("expected 1 assignment, got %d", len(list))
	}

	if err := s.DeleteUserRole(ctx, "u1", roleID); err != nil {
		t.Fatal(err)
	}
	roles, _ = s.ListRolesForUser(ctx, "u1")
	if len(roles) != 0 {
		t.Fatalf("expected no roles, got %v", roles)
	}
}

func TestAccounts(t *testing.T) {
	ctx := context.Background()
	s := New()

	_ = s.CreateAccount(ctx, &account.Account{UserID: "u1", TenantID: "t1", Active: true})
	_ = s.CreateAccount(ctx, &account.Account{UserID: "u2", TenantID: "t1", Active: false})
	_ = s.CreateAccount(ctx, &account.Account{UserID: "u3", TenantID: "t2", Active: true})

	if err := s.CreateAccount(ctx, &account.Account{UserID: "u1"}); !errors.Is(err, store.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	active := true
	list, _ := s.ListAccounts(ctx, &account.ListFilter{TenantID: "t1", Active: &active})
	if len(list) != 1 || list[0].UserID != "u1" {
		t.Fatalf("expected [u1], got %v", list)
	}

	if _, err := s.GetAccount(ctx, "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestModulesOrdered(t *testing.T) {
	ctx := context.Background()
	s := New()

	_ = s.CreateModule(ctx, &module.Module{Code: "SALES", Name: "Sales", SortOrder: 2})
	_ = s.CreateModule(ctx, &module.Module{Code: "FINANCE", Name: "Finance", SortOrder: 1, Actions: []string{"approve"}})
	_ = s.CreateModule(ctx, &module.Module{Code: "CRM", Name: "CRM", SortOrder: 2})

	mods, err := s.ListModules(ctx)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"FINANCE", "CRM", "SALES"}
	for i, m := range mods {
		if m.Code != want[i] {
			t.Fatalf("position %d: expected %s, got %s", i, want[i], m.Code)
		}
	}

	// Returned slices are copies.
	mods[0].Actions[0] = "export"
	got, _ := s.GetModule(ctx, "FINANCE")
	if got.Actions[0] != "approve" {
		t.Fatal("ListModules leaked internal state")
	}

	if err := s.DeleteModule(ctx, "NOPE"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestReplaceGrantsIsWholesale(t *testing.T) {
	ctx := context.Background()
	s := New()

	first := []*grant.Grant{
		{ID: id.NewGrantID(), ModuleCode: "FINANCE", Active: true, Actions: []string{"view", "create"}},
		{ID: id.NewGrantID(), ModuleCode: "CRM", Active: true, Actions: []string{"view"}},
	}
	if err := s.ReplaceGrants(ctx, "u1", first); err != nil {
		t.Fatal(err)
	}
	list, _ := s.ListGrants(ctx, "u1")
	if len(list) != 2 || list[0].ModuleCode != "CRM" || list[0].UserID != "u1" {
		t.Fatalf("unexpected grants after first replace: %+v", list)
	}

	second := []*grant.Grant{
		{ID: id.NewGrantID(), ModuleCode: "SALES", Active: true, Actions: []string{"view"}},
	}
	if err := s.ReplaceGrants(ctx, "u1", second); err != nil {
		t.Fatal(err)
	}
	list, _ = s.ListGrants(ctx, "u1")
	if len(list) != 1 || list[0].ModuleCode != "SALES" {
		t.Fatalf("expected only SALES, got %+v", list)
	}
	if _, err := s.GetGrant(ctx, "u1", "FINANCE"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected FINANCE removed, got %v", err)
	}

	// Duplicate module codes are rejected and leave the set intact.
	bad := []*grant.Grant{
		{ID: id.NewGrantID(), ModuleCode: "CRM", Active: true},
		{ID: id.NewGrantID(), ModuleCode: "CRM", Active: true},
	}
	if err := s.ReplaceGrants(ctx, "u1", bad); !errors.Is(err, store.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	list, _ = s.ListGrants(ctx, "u1")
	if len(list) != 1 || list[0].ModuleCode != "SALES" {
		t.Fatalf("failed replace changed the set: %+v", list)
	}

	// Empty replacement clears the set.
	if err := s.ReplaceGrants(ctx, "u1", nil); err != nil {
		t.Fatal(err)
	}
	list, _ = s.ListGrants(ctx, "u1")
	if len(list) != 0 {
		t.Fatalf("expected empty set, got %d", len(list))
	}
}

func TestReplaceGrantsConcurrentReaders(t *testing.T) {
	ctx := context.Background()
	s := New()

	setA := []*grant.Grant{
		{ID: id.NewGrantID(), ModuleCode: "A1", Active: true},
		{ID: id.NewGrantID(), ModuleCode: "A2", Active: true},
	}
	setB := []*grant.Grant{
		{ID: id.NewGrantID(), ModuleCode: "B1", Active: true},
		{ID: id.NewGrantID(), ModuleCode: "B2", Active: true},
		{ID: id.NewGrantID(), ModuleCode: "B3", Active: true},
	}
	_ = s.ReplaceGrants(ctx, "u1", setA)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			if i%2 == 0 {
				_ = s.ReplaceGrants(ctx, "u1", setB)
			} else {
				_ = s.ReplaceGrants(ctx, "u1", setA)
			}
		}
	}()

	for i := 0; i < 200; i++ {
		list, _ := s.ListGrants(ctx, "u1")
		switch len(list) {
		case 2:
			if list[0].ModuleCode != "A1" || list[1].ModuleCode != "A2" {
				t.Errorf("torn read: %+v", list)
			}
		case 3:
			if list[0].ModuleCode != "B1" || list[2].ModuleCode != "B3" {
				t.Errorf("torn read: %+v", list)
			}
		default:
			t.Errorf("reader saw a partial set of %d grants", len(list))
		}
	}
	wg.Wait()
}

func TestReplaceEntitlements(t *testing.T) {
	ctx := context.Background()
	s := New()

	ents := []*entitlement.Entitlement{
		{ID: id.NewEntitlementID(), ModuleCode: "FINANCE", Active: true},
		{ID: id.NewEntitlementID(), ModuleCode: "CRM", Active: false},
	}
	if err := s.ReplaceEntitlements(ctx, "t1", ents); err != nil {
		t.Fatal(err)
	}

	got, err := s.GetEntitlement(ctx, "t1", "CRM")
	if err != nil {
		t.Fatal(err)
	}
	if got.Active || got.TenantID != "t1" {
		t.Fatalf("expected inactive CRM entitlement for t1, got %+v", got)
	}

	list, _ := s.ListEntitlements(ctx, "t2")
	if len(list) != 0 {
		t.Fatalf("tenant isolation broken: %d rows for t2", len(list))
	}
}

func TestDeleteModuleCascades(t *testing.T) {
	ctx := context.Background()
	s := New()

	_ = s.CreateModule(ctx, &module.Module{Code: "FINANCE", Name: "Finance"})
	_ = s.CreateModule(ctx, &module.Module{Code: "CRM", Name: "CRM"})
	_ = s.ReplaceEntitlements(ctx, "t1", []*entitlement.Entitlement{
		{ID: id.NewEntitlementID(), ModuleCode: "FINANCE", Active: true},
		{ID: id.NewEntitlementID(), ModuleCode: "CRM", Active: true},
	})
	_ = s.ReplaceGrants(ctx, "u1", []*grant.Grant{
		{ID: id.NewGrantID(), ModuleCode: "FINANCE", Active: true, Actions: []string{"view"}},
	})
	held, _ := s.ListGrants(ctx, "u1")

	if err := s.DeleteModule(ctx, "FINANCE"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.GetEntitlement(ctx, "t1", "FINANCE"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected FINANCE entitlement removed, got %v", err)
	}
	if _, err := s.GetEntitlement(ctx, "t1", "CRM"); err != nil {
		t.Fatalf("unrelated entitlement removed: %v", err)
	}
	if list, _ := s.ListGrants(ctx, "u1"); len(list) != 0 {
		t.Fatalf("expected no grants for u1, got %+v", list)
	}
	// Slices handed out before the delete are untouched.
	if len(held) != 1 || held[0].ModuleCode != "FINANCE" {
		t.Fatalf("earlier read mutated: %+v", held)
	}
}

func TestSubscriptionOnePerTenant(t *testing.T) {
	ctx := context.Background()
	s := New()

	end := time.Now().Add(24 * time.Hour)
	sub := &subscription.Subscription{
		ID:       id.NewSubscriptionID(),
		TenantID: "t1",
		Status:   subscription.StatusActive,
		EndsAt:   &end,
	}
	if err := s.CreateSubscription(ctx, sub); err != nil {
		t.Fatal(err)
	}
	other := &subscription.Subscription{ID: id.NewSubscriptionID(), TenantID: "t1", Status: subscription.StatusUnlimited}
	if err := s.CreateSubscription(ctx, other); !errors.Is(err, store.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	sub.Status = subscription.StatusSuspended
	if err := s.UpdateSubscription(ctx, sub); err != nil {
		t.Fatal(err)
	}
	got, _ := s.GetSubscription(ctx, "t1")
	if got.Status != subscription.StatusSuspended {
		t.Fatalf("expected SUSPENDED, got %s", got.Status)
	}

	// Mutating the returned copy does not affect the store.
	*got.EndsAt = time.Time{}
	again, _ := s.GetSubscription(ctx, "t1")
	if again.EndsAt.IsZero() {
		t.Fatal("GetSubscription leaked internal state")
	}

	_ = s.DeleteSubscription(ctx, sub.ID)
	if _, err := s.GetSubscription(ctx, "t1"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCheckLogs(t *testing.T) {
	ctx := context.Background()
	s := New()

	base := time.Now().Add(-time.Hour)
	for i, decision := range []string{"deny", "allow", "deny"} {
		_ = s.CreateCheckLog(ctx, &checklog.Entry{
			ID:        id.NewCheckLogID(),
			TenantID:  "t1",
			UserID:    "u1",
			Module:    "FINANCE",
			Decision:  decision,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
	}

	list, _ := s.ListCheckLogs(ctx, &checklog.QueryFilter{TenantID: "t1", Decision: "deny"})
	if len(list) != 2 {
		t.Fatalf("expected 2 denials, got %d", len(list))
	}
	if !list[0].CreatedAt.After(list[1].CreatedAt) {
		t.Fatal("expected newest first")
	}

	count, _ := s.CountCheckLogs(ctx, &checklog.QueryFilter{TenantID: "t1", Limit: 1})
	if count != 3 {
		t.Fatalf("count should ignore pagination, got %d", count)
	}

	purged, _ := s.PurgeCheckLogs(ctx, base.Add(90*time.Second))
	if purged != 2 {
		t.Fatalf("expected 2 purged, got %d", purged)
	}
}
