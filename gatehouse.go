// Package gatehouse decides whether a principal may use a feature module of
// a multi-tenant product, and what it may do there.
//
// A decision combines four independent facts: the principal's global role,
// the tenant's module entitlement, the user's per-module grant and the
// tenant's subscription status. The same rules back server-side request
// authorization (Engine.Guard), client-side route guarding
// (Capabilities.Evaluate) and menu construction (Engine.Capabilities).
//
//	eng, err := gatehouse.NewEngine(gatehouse.WithStore(memStore))
//	p, err := eng.ResolvePrincipal(ctx, "user_42")
//	verdict, err := eng.Guard(ctx, p, gatehouse.Requirement{
//	    Module: "FINANCE",
//	    Action: gatehouse.ActionCreate,
//	})
package gatehouse

import "fmt"

// Role is one of the closed set of global roles a principal can hold.
// Names are case-sensitive.
type Role string

const (
	// RolePlatformOwner administers every tenant and bypasses all
	// tenant-level checks.
	RolePlatformOwner Role = "platform-owner"

	// RoleTenantAdmin administers one tenant and is implicitly granted every
	// action on the modules it can access.
	RoleTenantAdmin Role = "tenant-admin"

	// RoleTenantUser is a regular member of a tenant.
	RoleTenantUser Role = "tenant-user"

	// RoleViewer is a read-mostly member of a tenant.
	RoleViewer Role = "viewer"
)

// Roles returns the full role vocabulary in precedence order.
func Roles() []Role {
	return []Role{RolePlatformOwner, RoleTenantAdmin, RoleTenantUser, RoleViewer}
}

// ParseRole converts a stored role name into a Role.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownRole, s)
	}
	return r, nil
}

// Valid reports whether r belongs to the role vocabulary.
func (r Role) Valid() bool {
	switch r {
	case RolePlatformOwner, RoleTenantAdmin, RoleTenantUser, RoleViewer:
		return true
	}
	return false
}

// TenantScoped reports whether holders of r must belong to a tenant.
func (r Role) TenantScoped() bool { return r != RolePlatformOwner }

// Administrative reports whether r receives the full action set on every
// module it can access.
func (r Role) Administrative() bool {
	return r == RolePlatformOwner || r == RoleTenantAdmin
}

// Reason explains why the guard chain denied a request.
type Reason string

const (
	// ReasonNone accompanies an allow verdict.
	ReasonNone Reason = ""

	// ReasonUnauthenticated means no active principal could be resolved.
	ReasonUnauthenticated Reason = "unauthenticated"

	// ReasonSubscriptionExpired means the tenant's subscription does not
	// permit access.
	ReasonSubscriptionExpired Reason = "subscription_expired"

	// ReasonRoleDenied means the principal holds none of the required roles.
	ReasonRoleDenied Reason = "role_denied"

	// ReasonModuleDenied means the tenant entitlement or the user grant for
	// the module is missing or inactive.
	ReasonModuleDenied Reason = "module_denied"

	// ReasonActionDenied means module access holds but the action is not
	// granted.
	ReasonActionDenied Reason = "action_denied"
)

// Stage identifies a step of the guard chain.
type Stage int

const (
	StageAuthentication Stage = iota + 1
	StageSubscription
	StageRole
	StageModule
)

func (s Stage) String() string {
	switch s {
	case StageAuthentication:
		return "authentication"
	case StageSubscription:
		return "subscription"
	case StageRole:
		return "role"
	case StageModule:
		return "module"
	}
	return "none"
}

// Decision is the coarse outcome recorded in audit logs.
type Decision string

const (
	DecisionAllow Decision = "allow"
	DecisionDeny  Decision = "deny"
)

// Verdict is the outcome of one guard chain traversal.
// Stage is the stage that denied, or zero when allowed.
type Verdict struct {
	Allowed    bool   `json:"allowed"`
	Reason     Reason `json:"reason,omitempty"`
	Stage      Stage  `json:"stage,omitempty"`
	EvalTimeNs int64  `json:"eval_time_ns"`
}

// Decision returns the coarse allow/deny outcome.
func (v *Verdict) Decision() Decision {
	if v.Allowed {
		return DecisionAllow
	}
	return DecisionDeny
}

// Err converts a deny verdict into an error wrapping ErrAccessDenied and the
// reason-specific sentinel. It returns nil for an allow verdict.
func (v *Verdict) Err() error {
	if v == nil || v.Allowed {
		return nil
	}
	var reasonErr error
	switch v.Reason {
	case ReasonUnauthenticated:
		reasonErr = ErrUnauthenticated
	case ReasonSubscriptionExpired:
		reasonErr = ErrSubscriptionExpired
	case ReasonRoleDenied:
		reasonErr = ErrRoleDenied
	case ReasonModuleDenied:
		reasonErr = ErrModuleDenied
	default:
		reasonErr = ErrActionDenied
	}
	return fmt.Errorf("%w: %w", ErrAccessDenied, reasonErr)
}

func allow() *Verdict { return &Verdict{Allowed: true} }

func deny(stage Stage, reason Reason) *Verdict {
	return &Verdict{Stage: stage, Reason: reason}
}
