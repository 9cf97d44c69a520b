package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/sqlitedriver"

	"github.com/xraph/gatehouse/entitlement"
	"github.com/xraph/gatehouse/grant"
	"github.com/xraph/gatehouse/id"
	"github.com/xraph/gatehouse/module"
	"github.com/xraph/gatehouse/store"
)

// newTestStore opens a migrated store on a file-backed database so every
// pooled connection sees the same data.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()

	drv := sqlitedriver.New()
	if err := drv.Open(ctx, filepath.Join(t.TempDir(), "gatehouse.db")); err != nil {
		t.Fatal(err)
	}
	db, err := grove.Open(drv)
	if err != nil {
		t.Fatal(err)
	}
	s := New(db)
	t.Cleanup(func() { _ = s.Close() })

	if err := s.Migrate(ctx); err != nil {
		t.Fatal(err)
	}
	return s
}

func grantCodes(t *testing.T, s *Store, userID string) []string {
	t.Helper()
	list, err := s.ListGrants(context.Background(), userID)
	if err != nil {
		t.Fatal(err)
	}
	codes := make([]string, len(list))
	for i, g := range list {
		codes[i] = g.ModuleCode
	}
	return codes
}

func TestReplaceGrantsRollsBackOnConflict(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	if err := s.ReplaceGrants(ctx, "u1", []*grant.Grant{
		{ID: id.NewGrantID(), ModuleCode: "CRM", Active: true, Actions: []string{"view"}},
		{ID: id.NewGrantID(), ModuleCode: "FINANCE", Active: true, Actions: []string{"view", "create"}},
	}); err != nil {
		t.Fatal(err)
	}

	// The unique violation fires after the existing rows were deleted
	// inside the transaction.
	err := s.ReplaceGrants(ctx, "u1", []*grant.Grant{
		{ID: id.NewGrantID(), ModuleCode: "SALES", Active: true, Actions: []string{"view"}},
		{ID: id.NewGrantID(), ModuleCode: "SALES", Active: false},
	})
	if !errors.Is(err, store.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	got := grantCodes(t, s, "u1")
	if len(got) != 2 || got[0] != "CRM" || got[1] != "FINANCE" {
		t.Fatalf("original grants must survive a failed replace, got %v", got)
	}
	g, err := s.GetGrant(ctx, "u1", "FINANCE")
	if err != nil {
		t.Fatal(err)
	}
	if len(g.Actions) != 2 {
		t.Fatalf("expected FINANCE actions intact, got %v", g.Actions)
	}
}

func TestDeleteModuleCascades(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	for _, m := range []*module.Module{
		{Code: "FINANCE", Name: "Finance", SortOrder: 1},
		{Code: "CRM", Name: "CRM", SortOrder: 2},
	} {
		if err := s.CreateModule(ctx, m); err != nil {
			t.Fatal(err)
		}
	}
	if err := s.ReplaceEntitlements(ctx, "t1", []*entitlement.Entitlement{
		{ID: id.NewEntitlementID(), ModuleCode: "FINANCE", Active: true},
		{ID: id.NewEntitlementID(), ModuleCode: "CRM", Active: true},
	}); err != nil {
		t.Fatal(err)
	}
	if err := s.ReplaceGrants(ctx, "u1", []*grant.Grant{
		{ID: id.NewGrantID(), ModuleCode: "FINANCE", Active: true, Actions: []string{"view"}},
		{ID: id.NewGrantID(), ModuleCode: "CRM", Active: true, Actions: []string{"view"}},
	}); err != nil {
		t.Fatal(err)
	}

	if err := s.DeleteModule(ctx, "FINANCE"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.GetEntitlement(ctx, "t1", "FINANCE"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected FINANCE entitlement removed, got %v", err)
	}
	if got := grantCodes(t, s, "u1"); len(got) != 1 || got[0] != "CRM" {
		t.Fatalf("expected only CRM grant left, got %v", got)
	}

	if err := s.DeleteModule(ctx, "FINANCE"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}
