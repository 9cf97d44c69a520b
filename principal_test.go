package gatehouse

import (
	"errors"
	"testing"
)

func TestNewPrincipalValidation(t *testing.T) {
	tests := []struct {
		name     string
		userID   string
		tenantID string
		roles    []Role
		wantErr  error
	}{
		{"tenant user with tenant", "u1", "t1", []Role{RoleTenantUser}, nil},
		{"owner without tenant", "root", "", []Role{RolePlatformOwner}, nil},
		{"tenant role without tenant", "u1", "", []Role{RoleTenantAdmin}, ErrTenantRequired},
		{"viewer without tenant", "u1", "", []Role{RoleViewer}, ErrTenantRequired},
		{"no roles without tenant", "u1", "", nil, ErrTenantRequired},
		{"unknown role", "u1", "t1", []Role{"Tenant-Admin"}, ErrUnknownRole},
		{"empty user", "", "t1", []Role{RoleViewer}, ErrUserRequired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPrincipal(tt.userID, tt.tenantID, true, tt.roles...)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestPrincipalRolesAreOrderedAndCopied(t *testing.T) {
	p, err := NewPrincipal("u1", "t1", true, RoleViewer, RoleTenantAdmin, RoleViewer)
	if err != nil {
		t.Fatal(err)
	}
	roles := p.Roles()
	if len(roles) != 2 || roles[0] != RoleTenantAdmin || roles[1] != RoleViewer {
		t.Fatalf("unexpected roles %v", roles)
	}
	roles[0] = RolePlatformOwner
	if p.IsPlatformOwner() {
		t.Fatal("Roles must return a copy")
	}
	if !p.IsAdministrative() {
		t.Fatal("tenant admin is administrative")
	}
}

func TestParseRoleAndAction(t *testing.T) {
	if _, err := ParseRole("platform-owner"); err != nil {
		t.Fatal(err)
	}
	if _, err := ParseRole("PLATFORM-OWNER"); !errors.Is(err, ErrUnknownRole) {
		t.Fatalf("expected ErrUnknownRole, got %v", err)
	}
	if _, err := ParseAction("approve"); err != nil {
		t.Fatal(err)
	}
	if _, err := ParseAction("launch"); !errors.Is(err, ErrUnknownAction) {
		t.Fatalf("expected ErrUnknownAction, got %v", err)
	}

	set, err := ParseActionSet([]string{"view", "create", "view"})
	if err != nil {
		t.Fatal(err)
	}
	if set.Len() != 2 || !set.Has(ActionCreate) || set.Has(ActionDelete) {
		t.Fatalf("unexpected set %v", set.Strings())
	}

	mod := ModuleActions([]string{"export", "bogus"})
	if mod.Len() != 5 || !mod.Has(ActionExport) {
		t.Fatalf("expected core actions plus export, got %v", mod.Strings())
	}
}
