package plugin

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/xraph/gatehouse/grant"
	"github.com/xraph/gatehouse/id"
	"github.com/xraph/gatehouse/role"
)

// testPlugin implements Plugin + RoleCreated + AfterGuard + GrantsReplaced.
type testPlugin struct {
	roleCreatedCalled bool
	afterGuardCalled  bool
	replacedUser      string
	replacedCount     int
}

func (t *testPlugin) Name() string { return "test-plugin" }

func (t *testPlugin) OnRoleCreated(_ context.Context, _ *role.Role) error {
	t.roleCreatedCalled = true
	return nil
}

func (t *testPlugin) OnAfterGuard(_ context.Context, _, _, _ any) error {
	t.afterGuardCalled = true
	return nil
}

func (t *testPlugin) OnGrantsReplaced(_ context.Context, userID string, grants []*grant.Grant) error {
	t.replacedUser = userID
	t.replacedCount = len(grants)
	return nil
}

// failingPlugin returns an error from every hook it implements.
type failingPlugin struct{ calls int }

func (f *failingPlugin) Name() string { return "failing" }

func (f *failingPlugin) OnGrantsReplaced(_ context.Context, _ string, _ []*grant.Grant) error {
	f.calls++
	return errors.New("boom")
}

// minimalPlugin only implements Plugin (no hooks).
type minimalPlugin struct{}

func (m *minimalPlugin) Name() string { return "minimal" }

func TestRegistryDispatch(t *testing.T) {
	ctx := context.Background()
	reg := NewRegistry(slog.Default())

	tp := &testPlugin{}
	reg.Register(tp)
	reg.Register(&minimalPlugin{})

	if len(reg.Plugins()) != 2 {
		t.Fatalf("expected 2 plugins, got %d", len(reg.Plugins()))
	}

	// Should dispatch RoleCreated to testPlugin only.
	reg.EmitRoleCreated(ctx, &role.Role{ID: id.NewRoleID(), Name: "tenant-admin"})
	if !tp.roleCreatedCalled {
		t.Fatal("OnRoleCreated was not called")
	}

	reg.EmitAfterGuard(ctx, nil, nil, nil)
	if !tp.afterGuardCalled {
		t.Fatal("OnAfterGuard was not called")
	}

	reg.EmitGrantsReplaced(ctx, "user_1", []*grant.Grant{{UserID: "user_1", ModuleCode: "FINANCE"}})
	if tp.replacedUser != "user_1" || tp.replacedCount != 1 {
		t.Fatalf("OnGrantsReplaced got user=%q count=%d", tp.replacedUser, tp.replacedCount)
	}

	// Should not panic on hooks with no listeners.
	reg.EmitBeforeGuard(ctx, nil, nil)
	reg.EmitModuleDeleted(ctx, "FINANCE")
	reg.EmitRoleUnassigned(ctx, "user_1", id.NewRoleID())
	reg.EmitShutdown(ctx)
}

func TestRegistryHookErrorsDoNotStopDispatch(t *testing.T) {
	ctx := context.Background()
	reg := NewRegistry(nil)

	fp := &failingPlugin{}
	tp := &testPlugin{}
	reg.Register(fp)
	reg.Register(tp)

	reg.EmitGrantsReplaced(ctx, "user_2", nil)
	if fp.calls != 1 {
		t.Fatalf("failing plugin called %d times, want 1", fp.calls)
	}
	if tp.replacedUser != "user_2" {
		t.Fatal("plugin registered after a failing one was not notified")
	}
}
