package mongo

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
	ID              string    `grove:"id,pk"         bson:"_id"`
	Name            string    `grove:"name"          bson:"name"`
	GuardName       string    `grove:"guard_name"    bson:"guard_name"`
	Description     string    `grove:"description"   bson:"description"`
	CreatedAt       time.Time `grove:"created_at"    bson:"created_at"`
	UpdatedAt       time.Time `grove:"updated_at"    bson:"updated_at"`
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
	ID              string    `grove:"id,pk"         bson:"_id"`
	Name            string    `grove:"name"          bson:"name"`
	GuardName       string    `grove:"guard_name"    bson:"guard_name"`
	Description     string    `grove:"description"   bson:"description"`
	CreatedAt       time.Time `grove:"created_at"    bson:"created_at"`
	UpdatedAt       time.Time `grove:"updated_at"    bson:"updated_at"`
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
	RoleID          string `grove:"role_id"       bson:"role_id"`
	PermissionID    string `grove:"permission_id" bson:"permission_id"`
}

// ──────────────────────────────────────────────────
// Assignment model
// ──────────────────────────────────────────────────

type assignmentModel struct {
	grove.BaseModel `grove:"table:gatehouse_assignments"`
	ID              string    `grove:"id,pk"       bson:"_id"`
	UserID          string    `grove:"user_id"     bson:"user_id"`
	RoleID          string    `grove:"role_id"     bson:"role_id"`
	GrantedBy       string    `grove:"granted_by"  bson:"granted_by,omitempty"`
	CreatedAt       time.Time `grove:"created_at"  bson:"created_at"`
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
	UserID          string    `grove:"user_id,pk"  bson:"_id"`
	TenantID        string    `grove:"tenant_id"   bson:"tenant_id"`
	Active          bool      `grove:"active"      bson:"active"`
	CreatedAt       time.Time `grove:"created_at"  bson:"created_at"`
	UpdatedAt       time.Time `grove:"updated_at"  bson:"updated_at"`
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
	Code            string    `grove:"code,pk"       bson:"_id"`
	Name            string    `grove:"name"          bson:"name"`
	Description     string    `grove:"description"   bson:"description"`
	SortOrder       int       `grove:"sort_order"    bson:"sort_order"`
	Actions         []string  `grove:"actions"       bson:"actions"`
	CreatedAt       time.Time `grove:"created_at"    bson:"created_at"`
	UpdatedAt       time.Time `grove:"updated_at"    bson:"updated_at"`
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
// Entitlement set model
// ──────────────────────────────────────────────────

// tenantEntitlementsModel holds every entitlement of one tenant, so a
// replacement is a single document write.
type tenantEntitlementsModel struct {
	grove.BaseModel `grove:"table:gatehouse_entitlements"`
	TenantID        string             `grove:"tenant_id,pk"  bson:"_id"`
	Entitlements    []entitlementEntry `grove:"entitlements"  bson:"entitlements"`
	UpdatedAt       time.Time          `grove:"updated_at"    bson:"updated_at"`
}

type entitlementEntry struct {
	ID         string    `bson:"id"`
	ModuleCode string    `bson:"module_code"`
	Active     bool      `bson:"active"`
	CreatedAt  time.Time `bson:"created_at"`
	UpdatedAt  time.Time `bson:"updated_at"`
}

func entitlementToEntry(e *entitlement.Entitlement) entitlementEntry {
	return entitlementEntry{
		ID:         e.ID.String(),
		ModuleCode: e.ModuleCode,
		Active:     e.Active,
		CreatedAt:  e.CreatedAt,
		UpdatedAt:  e.UpdatedAt,
	}
}

func entitlementFromEntry(tenantID string, e *entitlementEntry) *entitlement.Entitlement {
	eid, _ := id.ParseEntitlementID(e.ID) //nolint:errcheck // stored IDs are always valid
	return &entitlement.Entitlement{
		ID:         eid,
		TenantID:   tenantID,
		ModuleCode: e.ModuleCode,
		Active:     e.Active,
		CreatedAt:  e.CreatedAt,
		UpdatedAt:  e.UpdatedAt,
	}
}

// ──────────────────────────────────────────────────
// Grant set model
// ──────────────────────────────────────────────────

// userGrantsModel holds every module grant of one user.
type userGrantsModel struct {
	grove.BaseModel `grove:"table:gatehouse_module_grants"`
	UserID          string       `grove:"user_id,pk"  bson:"_id"`
	Grants          []grantEntry `grove:"grants"      bson:"grants"`
	UpdatedAt       time.Time    `grove:"updated_at"  bson:"updated_at"`
}

type grantEntry struct {
	ID         string    `bson:"id"`
	ModuleCode string    `bson:"module_code"`
	ModuleName string    `bson:"module_name"`
	Active     bool      `bson:"active"`
	Actions    []string  `bson:"actions"`
	CreatedAt  time.Time `bson:"created_at"`
}

func grantToEntry(g *grant.Grant) grantEntry {
	return grantEntry{
		ID:         g.ID.String(),
		ModuleCode: g.ModuleCode,
		ModuleName: g.ModuleName,
		Active:     g.Active,
		Actions:    g.Actions,
		CreatedAt:  g.CreatedAt,
	}
}

func grantFromEntry(userID string, e *grantEntry) *grant.Grant {
	gid, _ := id.ParseGrantID(e.ID) //nolint:errcheck // stored IDs are always valid
	return &grant.Grant{
		ID:         gid,
		UserID:     userID,
		ModuleCode: e.ModuleCode,
		ModuleName: e.ModuleName,
		Active:     e.Active,
		Actions:    e.Actions,
		CreatedAt:  e.CreatedAt,
	}
}

// ──────────────────────────────────────────────────
// Subscription model
// ──────────────────────────────────────────────────

type subscriptionModel struct {
	grove.BaseModel `grove:"table:gatehouse_subscriptions"`
	ID              string     `grove:"id,pk"       bson:"_id"`
	TenantID        string     `grove:"tenant_id"   bson:"tenant_id"`
	Status          string     `grove:"status"      bson:"status"`
	EndsAt          *time.Time `grove:"ends_at"     bson:"ends_at,omitempty"`
	CreatedAt       time.Time  `grove:"created_at"  bson:"created_at"`
	UpdatedAt       time.Time  `grove:"updated_at"  bson:"updated_at"`
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
	ID              string    `grove:"id,pk"          bson:"_id"`
	TenantID        string    `grove:"tenant_id"      bson:"tenant_id"`
	UserID          string    `grove:"user_id"        bson:"user_id"`
	Module          string    `grove:"module"         bson:"module,omitempty"`
	Action          string    `grove:"action"         bson:"action,omitempty"`
	Decision        string    `grove:"decision"       bson:"decision"`
	Reason          string    `grove:"reason"         bson:"reason,omitempty"`
	Stage           int       `grove:"stage"          bson:"stage"`
	EvalTimeNs      int64     `grove:"eval_time_ns"   bson:"eval_time_ns"`
	RequestIP       string    `grove:"request_ip"     bson:"request_ip,omitempty"`
	CreatedAt       time.Time `grove:"created_at"     bson:"created_at"`
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
