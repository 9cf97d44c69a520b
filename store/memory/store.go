// Package memory provides an in-memory implementation of the Gatehouse
// composite store. It is intended for testing and development.
package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
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

// Compile-time interface checks.
var (
	_ role.Store         = (*Store)(nil)
	_ permission.Store   = (*Store)(nil)
	_ assignment.Store   = (*Store)(nil)
	_ account.Store      = (*Store)(nil)
	_ module.Store       = (*Store)(nil)
	_ entitlement.Store  = (*Store)(nil)
	_ grant.Store        = (*Store)(nil)
	_ subscription.Store = (*Store)(nil)
	_ checklog.Store     = (*Store)(nil)
)

// Store is a thread-safe in-memory store for all Gatehouse entities.
//
// Entitlement and grant sets are held as immutable slices per owner and
// swapped wholesale, so a reader sees either the old or the new set.
type Store struct {
	mu sync.RWMutex

	roles           map[string]*role.Role
	permissions     map[string]*permission.Permission
	rolePermissions map[string]map[string]struct{} // roleID -> set of permIDs
	assignments     map[string]*assignment.Assignment
	accounts        map[string]*account.Account
	modules         map[string]*module.Module
	entitlements    map[string][]*entitlement.Entitlement // tenantID -> set
	grants          map[string][]*grant.Grant             // userID -> set
	subscriptions   map[string]*subscription.Subscription // tenantID -> governing row
	checkLogs       map[string]*checklog.Entry
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		roles:           make(map[string]*role.Role),
		permissions:     make(map[string]*permission.Permission),
		rolePermissions: make(map[string]map[string]struct{}),
		assignments:     make(map[string]*assignment.Assignment),
		accounts:        make(map[string]*account.Account),
		modules:         make(map[string]*module.Module),
		entitlements:    make(map[string][]*entitlement.Entitlement),
		grants:          make(map[string][]*grant.Grant),
		subscriptions:   make(map[string]*subscription.Subscription),
		checkLogs:       make(map[string]*checklog.Entry),
	}
}

// Migrate is a no-op for the memory store.
func (s *Store) Migrate(_ context.Context) error { return nil }

// Ping is a no-op for the memory store.
func (s *Store) Ping(_ context.Context) error { return nil }

// Close is a no-op for the memory store.
func (s *Store) Close() error { return nil }

// ──────────────────────────────────────────────────
// Role Store
// ──────────────────────────────────────────────────

func (s *Store) CreateRole(_ context.Context, r *role.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.roles {
		if existing.Name == r.Name {
			return fmt.Errorf("role %q: %w", r.Name, store.ErrConflict)
		}
	}
	s.roles[r.ID.String()] = copyRole(r)
	return nil
}

func (s *Store) GetRole(_ context.Context, roleID id.RoleID) (*role.Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.roles[roleID.String()]
	if !ok {
		return nil, fmt.Errorf("role %s: %w", roleID, store.ErrNotFound)
	}
	return copyRole(r), nil
}

func (s *Store) GetRoleByName(_ context.Context, name string) (*role.Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.roles {
		if r.Name == name {
			return copyRole(r), nil
		}
	}
	return nil, fmt.Errorf("role %q: %w", name, store.ErrNotFound)
}

func (s *Store) UpdateRole(_ context.Context, r *role.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.roles[r.ID.String()]; !ok {
		return fmt.Errorf("role %s: %w", r.ID, store.ErrNotFound)
	}
	s.roles[r.ID.String()] = copyRole(r)
	return nil
}

func (s *Store) DeleteRole(_ context.Context, roleID id.RoleID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.roles, roleID.String())
	delete(s.rolePermissions, roleID.String())
	return nil
}

func (s *Store) ListRoles(_ context.Context, filter *role.ListFilter) ([]*role.Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*role.Role, 0, len(s.roles))
	for _, r := range s.roles {
		if filter != nil {
			if filter.GuardName != "" && r.GuardName != filter.GuardName {
				continue
			}
			if filter.Search != "" && !containsFold(r.Name, filter.Search) {
				continue
			}
		}
		result = append(result, copyRole(r))
	}
	slices.SortFunc(result, func(a, b *role.Role) int { return cmp.Compare(a.Name, b.Name) })
	if filter == nil {
		return result, nil
	}
	return applyPagination(result, pagOpts{filter.Limit, filter.Offset}), nil
}

func (s *Store) CountRoles(ctx context.Context, filter *role.ListFilter) (int64, error) {
	var f *role.ListFilter
	if filter != nil {
		c := *filter
		c.Limit, c.Offset = 0, 0
		f = &c
	}
	list, err := s.ListRoles(ctx, f)
	if err != nil {
		return 0, err
	}
	return int64(len(list)), nil
}

func (s *Store) ListRolePermissions(_ context.Context, roleID id.RoleID) ([]id.PermissionID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	set := s.rolePermissions[roleID.String()]
	result := make([]id.PermissionID, 0, len(set))
	for pid := range set {
		parsed, err := id.ParsePermissionID(pid)
		if err != nil {
			continue
		}
		result = append(result, parsed)
	}
	slices.SortFunc(result, func(a, b id.PermissionID) int { return cmp.Compare(a.String(), b.String()) })
	return result, nil
}

func (s *Store) AttachPermission(_ context.Context, roleID id.RoleID, permID id.PermissionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := roleID.String()
	if s.rolePermissions[key] == nil {
		s.rolePermissions[key] = make(map[string]struct{})
	}
	s.rolePermissions[key][permID.String()] = struct{}{}
	return nil
}

func (s *Store) DetachPermission(_ context.Context, roleID id.RoleID, permID id.PermissionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if set, ok := s.rolePermissions[roleID.String()]; ok {
		delete(set, permID.String())
	}
	return nil
}

func (s *Store) SetRolePermissions(_ context.Context, roleID id.RoleID, permIDs []id.PermissionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	set := make(map[string]struct{}, len(permIDs))
	for _, pid := range permIDs {
		set[pid.String()] = struct{}{}
	}
	s.rolePermissions[roleID.String()] = set
	return nil
}

// ──────────────────────────────────────────────────
// Permission Store
// ──────────────────────────────────────────────────

func (s *Store) CreatePermission(_ context.Context, p *permission.Permission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.permissions {
		if existing.Name == p.Name {
			return fmt.Errorf("permission %q: %w", p.Name, store.ErrConflict)
		}
	}
	s.permissions[p.ID.String()] = copyPermission(p)
	return nil
}

func (s *Store) GetPermission(_ context.Context, permID id.PermissionID) (*permission.Permission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.permissions[permID.String()]
	if !ok {
		return nil, fmt.Errorf("permission %s: %w", permID, store.ErrNotFound)
	}
	return copyPermission(p), nil
}

func (s *Store) GetPermissionByName(_ context.Context, name string) (*permission.Permission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.permissions {
		if p.Name == name {
			return copyPermission(p), nil
		}
	}
	return nil, fmt.Errorf("permission %q: %w", name, store.ErrNotFound)
}

func (s *Store) DeletePermission(_ context.Context, permID id.PermissionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.permissions, permID.String())
	for _, set := range s.rolePermissions {
		delete(set, permID.String())
	}
	return nil
}

func (s *Store) ListPermissions(_ context.Context, filter *permission.ListFilter) ([]*permission.Permission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*permission.Permission, 0, len(s.permissions))
	for _, p := range s.permissions {
		if filter != nil {
			if filter.GuardName != "" && p.GuardName != filter.GuardName {
				continue
			}
			if filter.Search != "" && !containsFold(p.Name, filter.Search) {
				continue
			}
		}
		result = append(result, copyPermission(p))
	}
	slices.SortFunc(result, func(a, b *permission.Permission) int { return cmp.Compare(a.Name, b.Name) })
	if filter == nil {
		return result, nil
	}
	return applyPagination(result, pagOpts{filter.Limit, filter.Offset}), nil
}

func (s *Store) CountPermissions(ctx context.Context, filter *permission.ListFilter) (int64, error) {
	var f *permission.ListFilter
	if filter != nil {
		c := *filter
		c.Limit, c.Offset = 0, 0
		f = &c
	}
	list, err := s.ListPermissions(ctx, f)
	if err != nil {
		return 0, err
	}
	return int64(len(list)), nil
}

func (s *Store) ListPermissionsByRole(_ context.Context, roleID id.RoleID) ([]*permission.Permission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	set := s.rolePermissions[roleID.String()]
	result := make([]*permission.Permission, 0, len(set))
	for pid := range set {
		if p, ok := s.permissions[pid]; ok {
			result = append(result, copyPermission(p))
		}
	}
	slices.SortFunc(result, func(a, b *permission.Permission) int { return cmp.Compare(a.Name, b.Name) })
	return result, nil
}

// ──────────────────────────────────────────────────
// Assignment Store
// ──────────────────────────────────────────────────

func (s *Store) CreateAssignment(_ context.Context, a *assignment.Assignment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.assignments {
		if existing.UserID == a.UserID && existing.RoleID.String() == a.RoleID.String() {
			return fmt.Errorf("assignment %s/%s: %w", a.UserID, a.RoleID, store.ErrConflict)
		}
	}
	s.assignments[a.ID.String()] = copyAssignment(a)
	return nil
}

func (s *Store) GetAssignment(_ context.Context, assID id.AssignmentID) (*assignment.Assignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.assignments[assID.String()]
	if !ok {
		return nil, fmt.Errorf("assignment %s: %w", assID, store.ErrNotFound)
	}
	return copyAssignment(a), nil
}

func (s *Store) DeleteAssignment(_ context.Context, assID id.AssignmentID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.assignments, assID.String())
	return nil
}

func (s *Store) DeleteUserRole(_ context.Context, userID string, roleID id.RoleID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, a := range s.assignments {
		if a.UserID == userID && a.RoleID.String() == roleID.String() {
			delete(s.assignments, k)
		}
	}
	return nil
}

func (s *Store) ListAssignments(_ context.Context, filter *assignment.ListFilter) ([]*assignment.Assignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*assignment.Assignment, 0, len(s.assignments))
	for _, a := range s.assignments {
		if filter != nil {
			if filter.UserID != "" && a.UserID != filter.UserID {
				continue
			}
			if filter.RoleID != nil && a.RoleID.String() != filter.RoleID.String() {
				continue
			}
		}
		result = append(result, copyAssignment(a))
	}
	slices.SortFunc(result, func(a, b *assignment.Assignment) int { return a.CreatedAt.Compare(b.CreatedAt) })
	if filter == nil {
		return result, nil
	}
	return applyPagination(result, pagOpts{filter.Limit, filter.Offset}), nil
}

func (s *Store) ListRolesForUser(_ context.Context, userID string) ([]id.RoleID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []id.RoleID
	for _, a := range s.assignments {
		if a.UserID == userID {
			result = append(result, a.RoleID)
		}
	}
	slices.SortFunc(result, func(a, b id.RoleID) int { return cmp.Compare(a.String(), b.String()) })
	return result, nil
}

func (s *Store) DeleteAssignmentsByUser(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, a := range s.assignments {
		if a.UserID == userID {
			delete(s.assignments, k)
		}
	}
	return nil
}

func (s *Store) DeleteAssignmentsByRole(_ context.Context, roleID id.RoleID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, a := range s.assignments {
		if a.RoleID.String() == roleID.String() {
			delete(s.assignments, k)
		}
	}
	return nil
}

// ──────────────────────────────────────────────────
// CheckLog Store
// ──────────────────────────────────────────────────

func (s *Store) CreateCheckLog(_ context.Context, e *checklog.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checkLogs[e.ID.String()] = copyCheckLog(e)
	return nil
}

func (s *Store) GetCheckLog(_ context.Context, logID id.CheckLogID) (*checklog.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.checkLogs[logID.String()]
	if !ok {
		return nil, fmt.Errorf("check log %s: %w", logID, store.ErrNotFound)
	}
	return copyCheckLog(e), nil
}

func (s *Store) ListCheckLogs(_ context.Context, filter *checklog.QueryFilter) ([]*checklog.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*checklog.Entry, 0, len(s.checkLogs))
	for _, e := range s.checkLogs {
		if filter != nil && !matchCheckLog(e, filter) {
			continue
		}
		result = append(result, copyCheckLog(e))
	}
	// Newest first.
	slices.SortFunc(result, func(a, b *checklog.Entry) int { return b.CreatedAt.Compare(a.CreatedAt) })
	if filter == nil {
		return result, nil
	}
	return applyPagination(result, pagOpts{filter.Limit, filter.Offset}), nil
}

func matchCheckLog(e *checklog.Entry, f *checklog.QueryFilter) bool {
	switch {
	case f.TenantID != "" && e.TenantID != f.TenantID,
		f.UserID != "" && e.UserID != f.UserID,
		f.Module != "" && e.Module != f.Module,
		f.Decision != "" && e.Decision != f.Decision,
		f.Reason != "" && e.Reason != f.Reason,
		f.After != nil && e.CreatedAt.Before(*f.After),
		f.Before != nil && e.CreatedAt.After(*f.Before):
		return false
	}
	return true
}

func (s *Store) CountCheckLogs(ctx context.Context, filter *checklog.QueryFilter) (int64, error) {
	var f *checklog.QueryFilter
	if filter != nil {
		c := *filter
		c.Limit, c.Offset = 0, 0
		f = &c
	}
	list, err := s.ListCheckLogs(ctx, f)
	if err != nil {
		return 0, err
	}
	return int64(len(list)), nil
}

func (s *Store) PurgeCheckLogs(_ context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var count int64
	for k, e := range s.checkLogs {
		if e.CreatedAt.Before(before) {
			delete(s.checkLogs, k)
			count++
		}
	}
	return count, nil
}

func (s *Store) DeleteCheckLogsByTenant(_ context.Context, tenantID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, e := range s.checkLogs {
		if e.TenantID == tenantID {
			delete(s.checkLogs, k)
		}
	}
	return nil
}

// ──────────────────────────────────────────────────
// Helpers
// ──────────────────────────────────────────────────

func copyRole(r *role.Role) *role.Role {
	c := *r
	return &c
}

func copyPermission(p *permission.Permission) *permission.Permission {
	c := *p
	return &c
}

func copyAssignment(a *assignment.Assignment) *assignment.Assignment {
	c := *a
	return &c
}

func copyCheckLog(e *checklog.Entry) *checklog.Entry {
	c := *e
	return &c
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

type pagOpts struct{ limit, offset int }

func applyPagination[T any](items []*T, p pagOpts) []*T {
	if p.offset > 0 && p.offset < len(items) {
		items = items[p.offset:]
	} else if p.offset > 0 && p.offset >= len(items) {
		return nil
	}
	if p.limit > 0 && p.limit < len(items) {
		items = items[:p.limit]
	}
	return items
}
