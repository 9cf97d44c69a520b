package gatehouse

import (
	"fmt"
	"slices"
)

// Principal is the resolved identity a decision is made for.
// Principals are immutable; construct them with NewPrincipal.
type Principal struct {
	userID   string
	tenantID string
	roles    []Role
	active   bool
}

// NewPrincipal validates and builds a principal.
//
// Every principal except a platform owner must carry a tenant. A
// platform-owner's tenant is kept but ignored by every check.
func NewPrincipal(userID, tenantID string, active bool, roles ...Role) (*Principal, error) {
	if userID == "" {
		return nil, ErrUserRequired
	}
	owner := false
	for _, r := range roles {
		if !r.Valid() {
			return nil, fmt.Errorf("%w: %q", ErrUnknownRole, string(r))
		}
		if r == RolePlatformOwner {
			owner = true
		}
	}
	if !owner && tenantID == "" {
		return nil, fmt.Errorf("%w: user %s", ErrTenantRequired, userID)
	}

	// Keep roles in vocabulary order without duplicates.
	ordered := make([]Role, 0, len(roles))
	for _, r := range Roles() {
		if slices.Contains(roles, r) {
			ordered = append(ordered, r)
		}
	}

	return &Principal{
		userID:   userID,
		tenantID: tenantID,
		roles:    ordered,
		active:   active,
	}, nil
}

// UserID returns the principal's user ID.
func (p *Principal) UserID() string { return p.userID }

// TenantID returns the principal's tenant. Platform owners may return an
// empty string.
func (p *Principal) TenantID() string { return p.tenantID }

// Roles returns a copy of the principal's roles in precedence order.
func (p *Principal) Roles() []Role { return slices.Clone(p.roles) }

// Active reports whether the principal's account is active.
func (p *Principal) Active() bool { return p.active }

// HasRole reports whether the principal holds r.
func (p *Principal) HasRole(r Role) bool { return slices.Contains(p.roles, r) }

// HasAnyRole reports whether the principal holds at least one of rs.
func (p *Principal) HasAnyRole(rs ...Role) bool {
	for _, r := range rs {
		if p.HasRole(r) {
			return true
		}
	}
	return false
}

// IsPlatformOwner reports whether the principal bypasses tenant checks.
func (p *Principal) IsPlatformOwner() bool { return p.HasRole(RolePlatformOwner) }

// IsAdministrative reports whether the principal receives every action on
// the modules it can access.
func (p *Principal) IsAdministrative() bool {
	return slices.ContainsFunc(p.roles, Role.Administrative)
}

// RoleNames returns the role names as strings.
func (p *Principal) RoleNames() []string {
	out := make([]string, len(p.roles))
	for i, r := range p.roles {
		out[i] = string(r)
	}
	return out
}
