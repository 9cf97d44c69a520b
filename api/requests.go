package api

import (
	"time"

	"github.com/xraph/gatehouse"
)

// ──────────────────────────────────────────────────
// Check requests
// ──────────────────────────────────────────────────

// CheckRequest asks whether the caller may reach a module or perform an
// action on it.
type CheckRequest struct {
	Roles  []string `json:"roles,omitempty" description:"Roles of which the caller must hold at least one"`
	Module string   `json:"module,omitempty" description:"Module code"`
	Action string   `json:"action,omitempty" description:"Action on the module (view, create, update, delete, ...)"`
}

// ──────────────────────────────────────────────────
// Tenant requests
// ──────────────────────────────────────────────────

// TenantRequest is the path parameter of tenant routes.
type TenantRequest struct {
	TenantID string `path:"tenantId" description:"Tenant ID"`
}

// SetSubscriptionRequest sets the subscription of a tenant.
type SetSubscriptionRequest struct {
	Status  string     `json:"status" description:"ACTIVE, EXPIRED, SUSPENDED or UNLIMITED"`
	EndDate *time.Time `json:"endDate,omitempty" description:"End of validity (RFC 3339)"`
}

// ReplaceTenantModulesRequest replaces every entitlement of a tenant.
type ReplaceTenantModulesRequest struct {
	Modules []gatehouse.EntitlementInput `json:"modules" description:"Complete entitlement set"`
}

// ──────────────────────────────────────────────────
// User requests
// ──────────────────────────────────────────────────

// UserRequest is the path parameter of user routes.
type UserRequest struct {
	UserID string `path:"userId" description:"User ID"`
}

// AssignRoleRequest gives a user a role.
type AssignRoleRequest struct {
	Role string `json:"role" description:"platform-owner, tenant-admin, tenant-user or viewer"`
}

// ──────────────────────────────────────────────────
// Module requests
// ──────────────────────────────────────────────────

// CreateModuleRequest adds a module to the catalog.
type CreateModuleRequest struct {
	Code        string   `json:"code" description:"Stable module code (e.g. FINANCE)"`
	Name        string   `json:"name" description:"Display name"`
	Description string   `json:"description,omitempty" description:"Human-readable description"`
	SortOrder   int      `json:"sortOrder,omitempty" description:"Navigation order"`
	Actions     []string `json:"actions,omitempty" description:"Extra actions beyond view/create/update/delete"`
}

// ──────────────────────────────────────────────────
// CheckLog requests
// ──────────────────────────────────────────────────

// ListCheckLogsRequest holds query parameters for the audit log.
type ListCheckLogsRequest struct {
	TenantID string `query:"tenant_id" description:"Filter by tenant (platform owners only)"`
	UserID   string `query:"user_id" description:"Filter by user"`
	Module   string `query:"module" description:"Filter by module code"`
	Decision string `query:"decision" description:"Filter by decision (allow, deny)"`
	Reason   string `query:"reason" description:"Filter by deny reason"`
	After    string `query:"after" description:"Entries at or after (RFC 3339)"`
	Before   string `query:"before" description:"Entries at or before (RFC 3339)"`
	Limit    int    `query:"limit" description:"Maximum results (default: 50)"`
	Offset   int    `query:"offset" description:"Results to skip"`
}

// ReplaceModulePermissionsRequest is the complete grant set of a user. The
// body is a bare JSON list.
type ReplaceModulePermissionsRequest []gatehouse.GrantInput

// ModuleRequest is the path parameter of module routes.
type ModuleRequest struct {
	Code string `path:"code" description:"Module code"`
}

// ListRolesRequest holds query parameters for the role catalog.
type ListRolesRequest struct {
	Search string `query:"search" description:"Search by name"`
	Limit  int    `query:"limit" description:"Maximum results (default: 50)"`
	Offset int    `query:"offset" description:"Results to skip"`
}

// RoleRequest is the path parameter of role routes.
type RoleRequest struct {
	Role string `path:"role" description:"Role name"`
}

// GrantPermissionRequest attaches a coarse permission to a role.
type GrantPermissionRequest struct {
	Name string `json:"name" description:"Permission name (e.g. view_reports)"`
}
