package postgres

import (
	"time"

	"github.com/xraph/grove"

	"github.com/xraph/gatehouse/account"
	"github.com/xraph/gatehouse/assignment"
	"github.com/xraph/gatehouse/checklog"
	"github.com/xraph/gatehouse/entitlement"
	"github.com/xraph/gatehouse/grant"
	"github.com/xraph/gatehouse/id"
	"github.com/xraph/gatehouse/module"
	"github.com/xraph/gatehouse/permission"
	"github.com/xraph/gatehouse/role"
	"github.com/xraph/gatehouse/subscription"
)

// ──────────────────────────────────────────────────
// Role model
// ──────────────────────────────────────────────────

type roleModel struct {
	grove.BaseModel `grove:"table:gatehouse_roles"`
	ID              string    `grove:"id,pk"`
	Name            string    `grove:"name,notnull"`
	GuardName       string    `grove:"guard_name,notnull"`
	Description     string    `grove:"description"`
	CreatedAt       time.Time `grove:"created_at,notnull"`
	UpdatedAt       time.Time `grove:"updated_at,notnull"`
}

func roleToModel(r *role.Role) *roleModel {
	return &roleModel{
		ID:          r.ID.String(),
		Name:        r.Name,
		GuardName:   r.GuardName,
		Description: r.Description,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func roleFromModel(m *roleModel) *role.Role {
	rid, _ := id.ParseRoleID(m.ID) //nolint:errcheck // stored IDs are always valid
	return &role.Role{
		ID:          rid,
		Name:        m.Name,
		GuardName:   m.GuardName,
		Description: m.Description,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

// ──────────────────────────────────────────────────
// Permission model
// ──────────────────────────────────────────────────

type permissionModel struct {
	grove.BaseModel `grove:"table:gatehouse_permissions"`
	ID              string    `grove:"id,pk"`
	Name            string    `grove:"name,notnull"`
	GuardName       string    `grove:"guard_name,notnull"`
	Description     string    `grove:"description"`
	CreatedAt       time.Time `grove:"created_at,notnull"`
	UpdatedAt       time.Time `grove:"updated_at,notnull"`
}

func permissionToModel(p *permission.Permission) *permissionModel {
	return &permissionModel{
		ID:          p.ID.String(),
		Name:        p.Name,
		GuardName:   p.GuardName,
		Description: p.Description,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func permissionFromModel(m *permissionModel) *permission.Permission {
	pid, _ := id.ParsePermissionID(m.ID) //nolint:errcheck // stored IDs are always valid
	return &permission.Permission{
		ID:          pid,
		Name:        m.Name,
		GuardName:   m.GuardName,
		Description: m.Description,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

// ──────────────────────────────────────────────────
// Role-Permission join model
// ──────────────────────────────────────────────────

type rolePermissionModel struct {
	grove.BaseModel `grove:"table:gatehouse_role_permissions"`
	RoleID          string `grove:"role_id,pk"`
	PermissionID    string `grove:"permission_id,pk"`
}

// ──────────────────────────────────────────────────
// Assignment model
// ──────────────────────────────────────────────────

type assignmentModel struct {
	grove.BaseModel `grove:"table:gatehouse_assignments"`
	ID              string    `grove:"id,pk"`
	UserID          string    `grove:"user_id,notnull"`
	RoleID          string    `grove:"role_id,notnull"`
	GrantedBy       string    `grove:"granted_by"`
	CreatedAt       time.Time `grove:"created_at,notnull"`
}

func assignmentToModel(a *assignment.Assignment) *assignmentModel {
	return &assignmentModel{
		ID:        a.ID.String(),
		UserID:    a.UserID,
		RoleID:    a.RoleID.String(),
		GrantedBy: a.GrantedBy,
		CreatedAt: a.CreatedAt,
	}
}

func assignmentFromModel(m *assignmentModel) *assignment.Assignment {
	aid, _ := id.ParseAssignmentID(m.ID) //nolint:errcheck // stored IDs are always valid
	rid, _ := id.ParseRoleID(m.RoleID)   //nolint:errcheck // stored IDs are always valid
	return &assignment.Assignment{
		ID:        aid,
		UserID:    m.UserID,
		RoleID:    rid,
		GrantedBy: m.GrantedBy,
		CreatedAt: m.CreatedAt,
	}
}

// ──────────────────────────────────────────────────
// Account model
// ──────────────────────────────────────────────────

type accountModel struct {
	grove.BaseModel `grove:"table:gatehouse_accounts"`
	UserID          string    `grove:"user_id,pk"`
	TenantID        string    `grove:"tenant_id"`
	Active          bool      `grove:"active,notnull"`
	CreatedAt       time.Time `grove:"created_at,notnull"`
	UpdatedAt       time.Time `grove:"updated_at,notnull"`
}

func accountToModel(a *account.Account) *accountModel {
	return &accountModel{
		UserID:    a.UserID,
		TenantID:  a.TenantID,
		Active:    a.Active,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

func accountFromModel(m *accountModel) *account.Account {
	return &account.Account{
		UserID:    m.UserID,
		TenantID:  m.TenantID,
		Active:    m.Active,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// ──────────────────────────────────────────────────
// Module model
// ──────────────────────────────────────────────────

type moduleModel struct {
	grove.BaseModel `grove:"table:gatehouse_modules"`
	Code            string    `grove:"code,pk"`
	Name            string    `grove:"name,notnull"`
	Description     string    `grove:"description"`
	SortOrder       int       `grove:"sort_order,notnull"`
	Actions         []string  `grove:"actions,type:jsonb"`
	CreatedAt       time.Time `grove:"created_at,notnull"`
	UpdatedAt       time.Time `grove:"updated_at,notnull"`
}

func moduleToModel(m *module.Module) *moduleModel {
	return &moduleModel{
		Code:        m.Code,
		Name:        m.Name,
		Description: m.Description,
		SortOrder:   m.SortOrder,
		Actions:     m.Actions,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

func moduleFromModel(m *moduleModel) *module.Module {
	return &module.Module{
		Code:        m.Code,
		Name:        m.Name,
		Description: m.Description,
		SortOrder:   m.SortOrder,
		Actions:     m.Actions,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

// ──────────────────────────────────────────────────
// Entitlement model
// ──────────────────────────────────────────────────

type entitlementModel struct {
	grove.BaseModel `grove:"table:gatehouse_entitlements"`
	ID              string    `grove:"id,pk"`
	TenantID        string    `grove:"tenant_id,notnull"`
	ModuleCode      string    `grove:"module_code,notnull"`
	Active          bool      `grove:"active,notnull"`
	CreatedAt       time.Time `grove:"created_at,notnull"`
	UpdatedAt       time.Time `grove:"updated_at,notnull"`
}

func entitlementToModel(e *entitlement.Entitlement) entitlementModel {
	return entitlementModel{
		ID:         e.ID.String(),
		TenantID:   e.TenantID,
		ModuleCode: e.ModuleCode,
		Active:     e.Active,
		CreatedAt:  e.CreatedAt,
		UpdatedAt:  e.UpdatedAt,
	}
}

func entitlementFromModel(m *entitlementModel) *entitlement.Entitlement {
	eid, _ := id.ParseEntitlementID(m.ID) //nolint:errcheck // stored IDs are always valid
	return &entitlement.Entitlement{
		ID:         eid,
		TenantID:   m.TenantID,
		ModuleCode: m.ModuleCode,
		Active:     m.Active,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}

// ──────────────────────────────────────────────────
// Grant model
// ──────────────────────────────────────────────────

type grantModel struct {
	grove.BaseModel `grove:"table:gatehouse_module_grants"`
	ID              string    `grove:"id,pk"`
	UserID          string    `grove:"user_id,notnull"`
	ModuleCode      string    `grove:"module_code,notnull"`
	ModuleName      string    `grove:"module_name"`
	Active          bool      `grove:"active,notnull"`
	Actions         []string  `grove:"actions,type:jsonb"`
	CreatedAt       time.Time `grove:"created_at,notnull"`
}

func grantToModel(g *grant.Grant) grantModel {
	return grantModel{
		ID:         g.ID.String(),
		UserID:     g.UserID,
		ModuleCode: g.ModuleCode,
		ModuleName: g.ModuleName,
		Active:     g.Active,
		Actions:    g.Actions,
		CreatedAt:  g.CreatedAt,
	}
}

func grantFromModel(m *grantModel) *grant.Grant {
	gid, _ := id.ParseGrantID(m.ID) //nolint:errcheck // stored IDs are always valid
	return &grant.Grant{
		ID:         gid,
		UserID:     m.UserID,
		ModuleCode: m.ModuleCode,
		ModuleName: m.ModuleName,
		Active:     m.Active,
		Actions:    m.Actions,
		CreatedAt:  m.CreatedAt,
	}
}

// ──────────────────────────────────────────────────
// Subscription model
// ──────────────────────────────────────────────────

type subscriptionModel struct {
	grove.BaseModel `grove:"table:gatehouse_subscriptions"`
	ID              string     `grove:"id,pk"`
	TenantID        string     `grove:"tenant_id,notnull"`
	Status          string     `grove:"status,notnull"`
	EndsAt          *time.Time `grove:"ends_at"`
	CreatedAt       time.Time  `grove:"created_at,notnull"`
	UpdatedAt       time.Time  `grove:"updated_at,notnull"`
}

func subscriptionToModel(s *subscription.Subscription) *subscriptionModel {
	return &subscriptionModel{
		ID:        s.ID.String(),
		TenantID:  s.TenantID,
		Status:    string(s.Status),
		EndsAt:    s.EndsAt,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}

func subscriptionFromModel(m *subscriptionModel) *subscription.Subscription {
	sid, _ := id.ParseSubscriptionID(m.ID) //nolint:errcheck // stored IDs are always valid
	return &subscription.Subscription{
		ID:        sid,
		TenantID:  m.TenantID,
		Status:    subscription.Status(m.Status),
		EndsAt:    m.EndsAt,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// ──────────────────────────────────────────────────
// CheckLog model
// ──────────────────────────────────────────────────

type checkLogModel struct {
	grove.BaseModel `grove:"table:gatehouse_check_logs"`
	ID              string    `grove:"id,pk"`
	TenantID        string    `grove:"tenant_id"`
	UserID          string    `grove:"user_id"`
	Module          string    `grove:"module"`
	Action          string    `grove:"action"`
	Decision        string    `grove:"decision,notnull"`
	Reason          string    `grove:"reason"`
	Stage           int       `grove:"stage,notnull"`
	EvalTimeNs      int64     `grove:"eval_time_ns,notnull"`
	RequestIP       string    `grove:"request_ip"`
	CreatedAt       time.Time `grove:"created_at,notnull"`
}

func checkLogToModel(e *checklog.Entry) *checkLogModel {
	return &checkLogModel{
		ID:         e.ID.String(),
		TenantID:   e.TenantID,
		UserID:     e.UserID,
		Module:     e.Module,
		Action:     e.Action,
		Decision:   e.Decision,
		Reason:     e.Reason,
		Stage:      e.Stage,
		EvalTimeNs: e.EvalTimeNs,
		RequestIP:  e.RequestIP,
		CreatedAt:  e.CreatedAt,
	}
}

func checkLogFromModel(m *checkLogModel) *checklog.Entry {
	cid, _ := id.ParseCheckLogID(m.ID) //nolint:errcheck // stored IDs are always valid
	return &checklog.Entry{
		ID:         cid,
		TenantID:   m.TenantID,
		UserID:     m.UserID,
		Module:     m.Module,
		Action:     m.Action,
		Decision:   m.Decision,
		Reason:     m.Reason,
		Stage:      m.Stage,
		EvalTimeNs: m.EvalTimeNs,
		RequestIP:  m.RequestIP,
		CreatedAt:  m.CreatedAt,
	}
}
