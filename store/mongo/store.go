// Package mongo provides a MongoDB implementation of the gatehouse
// composite store using grove's mongo driver.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	mongod "go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/mongodriver"

	"github.com/xraph/gatehouse/assignment"
	"github.com/xraph/gatehouse/checklog"
	"github.com/xraph/gatehouse/id"
	"github.com/xraph/gatehouse/permission"
	"github.com/xraph/gatehouse/role"
	"github.com/xraph/gatehouse/store"
)

// Collection name constants.
const (
	colRoles           = "gatehouse_roles"
	colPermissions     = "gatehouse_permissions"
	colRolePermissions = "gatehouse_role_permissions"
	colAssignments     = "gatehouse_assignments"
	colAccounts        = "gatehouse_accounts"
	colModules         = "gatehouse_modules"
	colEntitlements    = "gatehouse_entitlements"
	colGrants          = "gatehouse_module_grants"
	colSubscriptions   = "gatehouse_subscriptions"
	colCheckLogs       = "gatehouse_check_logs"
)

// Compile-time interface check.
var _ store.Store = (*Store)(nil)

// Store is a MongoDB implementation of the composite gatehouse store.
type Store struct {
	db  *grove.DB
	mdb *mongodriver.MongoDB
}

// New creates a new MongoDB store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		mdb: mongodriver.Unwrap(db),
	}
}

// Migrate creates indexes for all gatehouse collections.
func (s *Store) Migrate(ctx context.Context) error {
	indexes := migrationIndexes()
	for col, models := range indexes {
		if len(models) == 0 {
			continue
		}
		_, err := s.mdb.Collection(col).Indexes().CreateMany(ctx, models)
		if err != nil {
			return fmt.Errorf("gatehouse/mongo: migrate %s indexes: %w", col, err)
		}
	}
	return nil
}

// Ping verifies the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// stamp fills a zero timestamp with the current UTC time.
func stamp(t *time.Time) {
	if t.IsZero() {
		*t = time.Now().UTC()
	}
}

// isNoDocuments checks if an error wraps mongo.ErrNoDocuments.
func isNoDocuments(err error) bool {
	return errors.Is(err, mongod.ErrNoDocuments)
}

// wrapWrite maps duplicate key errors onto store.ErrConflict.
func wrapWrite(op string, err error) error {
	if mongod.IsDuplicateKeyError(err) {
		return fmt.Errorf("gatehouse: %s: %w: %w", op, store.ErrConflict, err)
	}
	return fmt.Errorf("gatehouse: %s: %w", op, err)
}

// migrationIndexes returns the index definitions for all gatehouse collections.
func migrationIndexes() map[string][]mongod.IndexModel {
	return map[string][]mongod.IndexModel{
		colRoles: {
			{
				Keys:    bson.D{{Key: "name", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
		},
		colPermissions: {
			{
				Keys:    bson.D{{Key: "name", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
		},
		colRolePermissions: {
			{
				Keys:    bson.D{{Key: "role_id", Value: 1}, {Key: "permission_id", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "permission_id", Value: 1}}},
		},
		colAssignments: {
			{
				Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "role_id", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "role_id", Value: 1}}},
		},
		colAccounts: {
			{Keys: bson.D{{Key: "tenant_id", Value: 1}}},
		},
		colModules: {
			{Keys: bson.D{{Key: "sort_order", Value: 1}, {Key: "_id", Value: 1}}},
		},
		colSubscriptions: {
			{
				Keys:    bson.D{{Key: "tenant_id", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
		},
		colCheckLogs: {
			{Keys: bson.D{{Key: "tenant_id", Value: 1}, {Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "tenant_id", Value: 1}, {Key: "decision", Value: 1}}},
			{Keys: bson.D{{Key: "created_at", Value: -1}}},
		},
	}
}

// ──────────────────────────────────────────────────
// Role operations
// ──────────────────────────────────────────────────

func (s *Store) CreateRole(ctx context.Context, r *role.Role) error {
	stamp(&r.CreatedAt)
	stamp(&r.UpdatedAt)
	if _, err := s.mdb.NewInsert(roleToModel(r)).Exec(ctx); err != nil {
		return wrapWrite("create role", err)
	}
	return nil
}

func (s *Store) GetRole(ctx context.Context, roleID id.RoleID) (*role.Role, error) {
	var m roleModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": roleID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, fmt.Errorf("role %s: %w", roleID, store.ErrNotFound)
		}
		return nil, fmt.Errorf("gatehouse: get role: %w", err)
	}
	return roleFromModel(&m), nil
}

func (s *Store) GetRoleByName(ctx context.Context, name string) (*role.Role, error) {
	var m roleModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"name": name}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, fmt.Errorf("role %q: %w", name, store.ErrNotFound)
		}
		return nil, fmt.Errorf("gatehouse: get role by name: %w", err)
	}
	return roleFromModel(&m), nil
}

func (s *Store) UpdateRole(ctx context.Context, r *role.Role) error {
	r.UpdatedAt = time.Now().UTC()
	m := roleToModel(r)
	res, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"_id": m.ID}).
		Exec(ctx)
	if err != nil {
		return wrapWrite("update role", err)
	}
	if res.MatchedCount() == 0 {
		return fmt.Errorf("role %s: %w", r.ID, store.ErrNotFound)
	}
	return nil
}

func (s *Store) DeleteRole(ctx context.Context, roleID id.RoleID) error {
	_, err := s.mdb.NewDelete((*roleModel)(nil)).
		Filter(bson.M{"_id": roleID.String()}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("gatehouse: delete role: %w", err)
	}
	_, err = s.mdb.NewDelete((*rolePermissionModel)(nil)).
		Many().
		Filter(bson.M{"role_id": roleID.String()}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("gatehouse: delete role permissions: %w", err)
	}
	return nil
}

func roleFilter(filter *role.ListFilter) bson.M {
	f := bson.M{}
	if filter != nil {
		if filter.GuardName != "" {
			f["guard_name"] = filter.GuardName
		}
		if filter.Search != "" {
			f["name"] = bson.M{"$regex": filter.Search, "$options": "i"}
		}
	}
	return f
}

func (s *Store) ListRoles(ctx context.Context, filter *role.ListFilter) ([]*role.Role, error) {
	var models []roleModel
	q := s.mdb.NewFind(&models).
		Filter(roleFilter(filter)).
		Sort(bson.D{{Key: "name", Value: 1}})
	if filter != nil {
		if filter.Limit > 0 {
			q = q.Limit(int64(filter.Limit))
		}
		if filter.Offset > 0 {
			q = q.Skip(int64(filter.Offset))
		}
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("gatehouse: list roles: %w", err)
	}
	result := make([]*role.Role, len(models))
	for i := range models {
		result[i] = roleFromModel(&models[i])
	}
	return result, nil
}

func (s *Store) CountRoles(ctx context.Context, filter *role.ListFilter) (int64, error) {
	count, err := s.mdb.NewFind((*roleModel)(nil)).
		Filter(roleFilter(filter)).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("gatehouse: count roles: %w", err)
	}
	return count, nil
}

func (s *Store) ListRolePermissions(ctx context.Context, roleID id.RoleID) ([]id.PermissionID, error) {
	var models []rolePermissionModel
	if err := s.mdb.NewFind(&models).
		Filter(bson.M{"role_id": roleID.String()}).
		Sort(bson.D{{Key: "permission_id", Value: 1}}).
		Scan(ctx); err != nil {
		return nil, fmt.Errorf("gatehouse: list role permissions: %w", err)
	}
	result := make([]id.PermissionID, 0, len(models))
	for _, m := range models {
		pid, err := id.ParsePermissionID(m.PermissionID)
		if err == nil {
			result = append(result, pid)
		}
	}
	return result, nil
}

func (s *Store) AttachPermission(ctx context.Context, roleID id.RoleID, permID id.PermissionID) error {
	m := &rolePermissionModel{
		RoleID:       roleID.String(),
		PermissionID: permID.String(),
	}
	_, err := s.mdb.NewInsert(m).Exec(ctx)
	if err != nil {
		if mongod.IsDuplicateKeyError(err) {
			return nil // already attached
		}
		return fmt.Errorf("gatehouse: attach permission: %w", err)
	}
	return nil
}

func (s *Store) DetachPermission(ctx context.Context, roleID id.RoleID, permID id.PermissionID) error {
	_, err := s.mdb.NewDelete((*rolePermissionModel)(nil)).
		Filter(bson.M{"role_id": roleID.String(), "permission_id": permID.String()}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("gatehouse: detach permission: %w", err)
	}
	return nil
}

func (s *Store) SetRolePermissions(ctx context.Context, roleID id.RoleID, permIDs []id.PermissionID) error {
	_, err := s.mdb.NewDelete((*rolePermissionModel)(nil)).
		Many().
		Filter(bson.M{"role_id": roleID.String()}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("gatehouse: clear role permissions: %w", err)
	}

	if len(permIDs) > 0 {
		models := make([]rolePermissionModel, len(permIDs))
		for i, pid := range permIDs {
			models[i] = rolePermissionModel{
				RoleID:       roleID.String(),
				PermissionID: pid.String(),
			}
		}
		if _, err := s.mdb.NewInsert(&models).Exec(ctx); err != nil {
			return fmt.Errorf("gatehouse: set role permissions: %w", err)
		}
	}
	return nil
}

// ──────────────────────────────────────────────────
// Permission operations
// ──────────────────────────────────────────────────

func (s *Store) CreatePermission(ctx context.Context, p *permission.Permission) error {
	stamp(&p.CreatedAt)
	stamp(&p.UpdatedAt)
	if _, err := s.mdb.NewInsert(permissionToModel(p)).Exec(ctx); err != nil {
		return wrapWrite("create permission", err)
	}
	return nil
}

func (s *Store) GetPermission(ctx context.Context, permID id.PermissionID) (*permission.Permission, error) {
	var m permissionModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": permID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, fmt.Errorf("permission %s: %w", permID, store.ErrNotFound)
		}
		return nil, fmt.Errorf("gatehouse: get permission: %w", err)
	}
	return permissionFromModel(&m), nil
}

func (s *Store) GetPermissionByName(ctx context.Context, name string) (*permission.Permission, error) {
	var m permissionModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"name": name}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, fmt.Errorf("permission %q: %w", name, store.ErrNotFound)
		}
		return nil, fmt.Errorf("gatehouse: get permission by name: %w", err)
	}
	return permissionFromModel(&m), nil
}

func (s *Store) DeletePermission(ctx context.Context, permID id.PermissionID) error {
	_, err := s.mdb.NewDelete((*permissionModel)(nil)).
		Filter(bson.M{"_id": permID.String()}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("gatehouse: delete permission: %w", err)
	}
	_, err = s.mdb.NewDelete((*rolePermissionModel)(nil)).
		Many().
		Filter(bson.M{"permission_id": permID.String()}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("gatehouse: detach deleted permission: %w", err)
	}
	return nil
}

func permissionFilter(filter *permission.ListFilter) bson.M {
	f := bson.M{}
	if filter != nil {
		if filter.GuardName != "" {
			f["guard_name"] = filter.GuardName
		}
		if filter.Search != "" {
			f["name"] = bson.M{"$regex": filter.Search, "$options": "i"}
		}
	}
	return f
}

func (s *Store) ListPermissions(ctx context.Context, filter *permission.ListFilter) ([]*permission.Permission, error) {
	var models []permissionModel
	q := s.mdb.NewFind(&models).
		Filter(permissionFilter(filter)).
		Sort(bson.D{{Key: "name", Value: 1}})
	if filter != nil {
		if filter.Limit > 0 {
			q = q.Limit(int64(filter.Limit))
		}
		if filter.Offset > 0 {
			q = q.Skip(int64(filter.Offset))
		}
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("gatehouse: list permissions: %w", err)
	}
	result := make([]*permission.Permission, len(models))
	for i := range models {
		result[i] = permissionFromModel(&models[i])
	}
	return result, nil
}

func (s *Store) CountPermissions(ctx context.Context, filter *permission.ListFilter) (int64, error) {
	count, err := s.mdb.NewFind((*permissionModel)(nil)).
		Filter(permissionFilter(filter)).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("gatehouse: count permissions: %w", err)
	}
	return count, nil
}

func (s *Store) ListPermissionsByRole(ctx context.Context, roleID id.RoleID) ([]*permission.Permission, error) {
	var rpModels []rolePermissionModel
	if err := s.mdb.NewFind(&rpModels).
		Filter(bson.M{"role_id": roleID.String()}).
		Scan(ctx); err != nil {
		return nil, fmt.Errorf("gatehouse: list permissions by role: %w", err)
	}
	if len(rpModels) == 0 {
		return []*permission.Permission{}, nil
	}

	permIDs := make([]string, len(rpModels))
	for i, rp := range rpModels {
		permIDs[i] = rp.PermissionID
	}

	var models []permissionModel
	if err := s.mdb.NewFind(&models).
		Filter(bson.M{"_id": bson.M{"$in": permIDs}}).
		Sort(bson.D{{Key: "name", Value: 1}}).
		Scan(ctx); err != nil {
		return nil, fmt.Errorf("gatehouse: list permissions by role: %w", err)
	}
	result := make([]*permission.Permission, len(models))
	for i := range models {
		result[i] = permissionFromModel(&models[i])
	}
	return result, nil
}

// ──────────────────────────────────────────────────
// Assignment operations
// ──────────────────────────────────────────────────

func (s *Store) CreateAssignment(ctx context.Context, a *assignment.Assignment) error {
	stamp(&a.CreatedAt)
	if _, err := s.mdb.NewInsert(assignmentToModel(a)).Exec(ctx); err != nil {
		return wrapWrite("create assignment", err)
	}
	return nil
}

func (s *Store) GetAssignment(ctx context.Context, assID id.AssignmentID) (*assignment.Assignment, error) {
	var m assignmentModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": assID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, fmt.Errorf("assignment %s: %w", assID, store.ErrNotFound)
		}
		return nil, fmt.Errorf("gatehouse: get assignment: %w", err)
	}
	return assignmentFromModel(&m), nil
}

func (s *Store) DeleteAssignment(ctx context.Context, assID id.AssignmentID) error {
	_, err := s.mdb.NewDelete((*assignmentModel)(nil)).
		Filter(bson.M{"_id": assID.String()}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("gatehouse: delete assignment: %w", err)
	}
	return nil
}

func (s *Store) DeleteUserRole(ctx context.Context, userID string, roleID id.RoleID) error {
	_, err := s.mdb.NewDelete((*assignmentModel)(nil)).
		Filter(bson.M{"user_id": userID, "role_id": roleID.String()}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("gatehouse: delete user role: %w", err)
	}
	return nil
}

func (s *Store) ListAssignments(ctx context.Context, filter *assignment.ListFilter) ([]*assignment.Assignment, error) {
	var models []assignmentModel
	f := bson.M{}
	if filter != nil {
		if filter.UserID != "" {
			f["user_id"] = filter.UserID
		}
		if filter.RoleID != nil {
			f["role_id"] = filter.RoleID.String()
		}
	}
	q := s.mdb.NewFind(&models).
		Filter(f).
		Sort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	if filter != nil {
		if filter.Limit > 0 {
			q = q.Limit(int64(filter.Limit))
		}
		if filter.Offset > 0 {
			q = q.Skip(int64(filter.Offset))
		}
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("gatehouse: list assignments: %w", err)
	}
	result := make([]*assignment.Assignment, len(models))
	for i := range models {
		result[i] = assignmentFromModel(&models[i])
	}
	return result, nil
}

func (s *Store) ListRolesForUser(ctx context.Context, userID string) ([]id.RoleID, error) {
	var models []assignmentModel
	if err := s.mdb.NewFind(&models).
		Filter(bson.M{"user_id": userID}).
		Sort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}).
		Scan(ctx); err != nil {
		return nil, fmt.Errorf("gatehouse: list roles for user: %w", err)
	}
	result := make([]id.RoleID, 0, len(models))
	for _, m := range models {
		rid, err := id.ParseRoleID(m.RoleID)
		if err == nil {
			result = append(result, rid)
		}
	}
	return result, nil
}

func (s *Store) DeleteAssignmentsByUser(ctx context.Context, userID string) error {
	_, err := s.mdb.NewDelete((*assignmentModel)(nil)).
		Many().
		Filter(bson.M{"user_id": userID}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("gatehouse: delete assignments by user: %w", err)
	}
	return nil
}

func (s *Store) DeleteAssignmentsByRole(ctx context.Context, roleID id.RoleID) error {
	_, err := s.mdb.NewDelete((*assignmentModel)(nil)).
		Many().
		Filter(bson.M{"role_id": roleID.String()}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("gatehouse: delete assignments by role: %w", err)
	}
	return nil
}

// ──────────────────────────────────────────────────
// CheckLog operations
// ──────────────────────────────────────────────────

func (s *Store) CreateCheckLog(ctx context.Context, e *checklog.Entry) error {
	stamp(&e.CreatedAt)
	if _, err := s.mdb.NewInsert(checkLogToModel(e)).Exec(ctx); err != nil {
		return fmt.Errorf("gatehouse: create check log: %w", err)
	}
	return nil
}

func (s *Store) GetCheckLog(ctx context.Context, logID id.CheckLogID) (*checklog.Entry, error) {
	var m checkLogModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": logID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, fmt.Errorf("check log %s: %w", logID, store.ErrNotFound)
		}
		return nil, fmt.Errorf("gatehouse: get check log: %w", err)
	}
	return checkLogFromModel(&m), nil
}

func checkLogFilter(filter *checklog.QueryFilter) bson.M {
	f := bson.M{}
	if filter == nil {
		return f
	}
	if filter.TenantID != "" {
		f["tenant_id"] = filter.TenantID
	}
	if filter.UserID != "" {
		f["user_id"] = filter.UserID
	}
	if filter.Module != "" {
		f["module"] = filter.Module
	}
	if filter.Decision != "" {
		f["decision"] = filter.Decision
	}
	if filter.Reason != "" {
		f["reason"] = filter.Reason
	}
	if filter.After != nil || filter.Before != nil {
		dateFilter := bson.M{}
		if filter.After != nil {
			dateFilter["$gte"] = *filter.After
		}
		if filter.Before != nil {
			dateFilter["$lte"] = *filter.Before
		}
		f["created_at"] = dateFilter
	}
	return f
}

func (s *Store) ListCheckLogs(ctx context.Context, filter *checklog.QueryFilter) ([]*checklog.Entry, error) {
	var models []checkLogModel
	q := s.mdb.NewFind(&models).
		Filter(checkLogFilter(filter)).
		Sort(bson.D{{Key: "created_at", Value: -1}})
	if filter != nil {
		if filter.Limit > 0 {
			q = q.Limit(int64(filter.Limit))
		}
		if filter.Offset > 0 {
			q = q.Skip(int64(filter.Offset))
		}
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("gatehouse: list check logs: %w", err)
	}
	result := make([]*checklog.Entry, len(models))
	for i := range models {
		result[i] = checkLogFromModel(&models[i])
	}
	return result, nil
}

func (s *Store) CountCheckLogs(ctx context.Context, filter *checklog.QueryFilter) (int64, error) {
	count, err := s.mdb.NewFind((*checkLogModel)(nil)).
		Filter(checkLogFilter(filter)).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("gatehouse: count check logs: %w", err)
	}
	return count, nil
}

func (s *Store) PurgeCheckLogs(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.mdb.NewDelete((*checkLogModel)(nil)).
		Many().
		Filter(bson.M{"created_at": bson.M{"$lt": before}}).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("gatehouse: purge check logs: %w", err)
	}
	return res.DeletedCount(), nil
}

func (s *Store) DeleteCheckLogsByTenant(ctx context.Context, tenantID string) error {
	_, err := s.mdb.NewDelete((*checkLogModel)(nil)).
		Many().
		Filter(bson.M{"tenant_id": tenantID}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("gatehouse: delete check logs by tenant: %w", err)
	}
	return nil
}
