// Package mongo provides a MongoDB implementation of the Lectern
// composite store backed by grove ORM's mongo driver.
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

	"github.com/lecternhq/lectern/assignment"
	"github.com/lecternhq/lectern/decisionlog"
	"github.com/lecternhq/lectern/grant"
	"github.com/lecternhq/lectern/id"
	"github.com/lecternhq/lectern/permission"
	"github.com/lecternhq/lectern/resource"
	"github.com/lecternhq/lectern/role"
	"github.com/lecternhq/lectern/store"
)

// Collection name constants.
const (
	colRoles          = "lectern_roles"
	colDefaultStances = "lectern_default_stances"
	colPermissions    = "lectern_permissions"
	colResources      = "lectern_resources"
	colAssignments    = "lectern_assignments"
	colGrants         = "lectern_grants"
	colDecisionLogs   = "lectern_decision_logs"
)

// Compile-time interface check.
var _ store.Store = (*Store)(nil)

// Store is a MongoDB implementation of the composite Lectern store.
type Store struct {
	db  *grove.DB
	mdb *mongodriver.MongoDB
}

// New creates a new MongoDB store backed by grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		mdb: mongodriver.Unwrap(db),
	}
}

// Migrate creates indexes for all lectern collections.
func (s *Store) Migrate(ctx context.Context) error {
	indexes := migrationIndexes()
	for col, models := range indexes {
		if len(models) == 0 {
			continue
		}
		_, err := s.mdb.Collection(col).Indexes().CreateMany(ctx, models)
		if err != nil {
			return fmt.Errorf("lectern/mongo: migrate %s indexes: %w", col, err)
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

// isNoDocuments checks if an error wraps mongo.ErrNoDocuments.
func isNoDocuments(err error) bool {
	return errors.Is(err, mongod.ErrNoDocuments)
}

// migrationIndexes returns the index definitions for all lectern collections.
func migrationIndexes() map[string][]mongod.IndexModel {
	return map[string][]mongod.IndexModel{
		colRoles: {
			{
				Keys:    bson.D{{Key: "slug", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "is_system", Value: 1}}},
		},
		colDefaultStances: {
			{
				Keys:    bson.D{{Key: "role_id", Value: 1}, {Key: "permission_id", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "permission_id", Value: 1}}},
		},
		colPermissions: {
			{
				Keys:    bson.D{{Key: "key", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
		},
		colResources: {
			{Keys: bson.D{{Key: "parent_id", Value: 1}}},
			{Keys: bson.D{{Key: "kind", Value: 1}}},
		},
		colAssignments: {
			{
				Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "role_id", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "role_id", Value: 1}}},
			{Keys: bson.D{{Key: "expires_at", Value: 1}}},
		},
		colGrants: {
			{
				Keys: bson.D{
					{Key: "role_id", Value: 1},
					{Key: "resource_id", Value: 1},
					{Key: "permission_id", Value: 1},
				},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "resource_id", Value: 1}, {Key: "permission_id", Value: 1}, {Key: "role_id", Value: 1}}},
			{Keys: bson.D{{Key: "role_id", Value: 1}}},
		},
		colDecisionLogs: {
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: 1}}},
			{Keys: bson.D{{Key: "created_at", Value: 1}}},
		},
	}
}

// ──────────────────────────────────────────────────
// Role operations
// ──────────────────────────────────────────────────

func (s *Store) CreateRole(ctx context.Context, r *role.Role) error {
	m := roleToModel(r)
	if _, err := s.mdb.NewInsert(m).Exec(ctx); err != nil {
		if mongod.IsDuplicateKeyError(err) {
			return fmt.Errorf("role slug %q: %w", r.Slug, store.ErrDuplicate)
		}
		return fmt.Errorf("lectern/mongo: create role: %w", err)
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
		return nil, fmt.Errorf("lectern/mongo: get role: %w", err)
	}
	return roleFromModel(&m), nil
}

func (s *Store) GetRoleBySlug(ctx context.Context, slug string) (*role.Role, error) {
	var m roleModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"slug": slug}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, fmt.Errorf("role slug %q: %w", slug, store.ErrNotFound)
		}
		return nil, fmt.Errorf("lectern/mongo: get role by slug: %w", err)
	}
	return roleFromModel(&m), nil
}

func (s *Store) UpdateRole(ctx context.Context, r *role.Role) error {
	m := roleToModel(r)
	res, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"_id": m.ID}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("lectern/mongo: update role: %w", err)
	}
	if res.MatchedCount() == 0 {
		return fmt.Errorf("role %s: %w", r.ID, store.ErrNotFound)
	}
	return nil
}

func (s *Store) DeleteRole(ctx context.Context, roleID id.RoleID) error {
	if _, err := s.mdb.NewDelete((*stanceModel)(nil)).
		Many().
		Filter(bson.M{"role_id": roleID.String()}).
		Exec(ctx); err != nil {
		return fmt.Errorf("lectern/mongo: delete role stances: %w", err)
	}
	res, err := s.mdb.NewDelete((*roleModel)(nil)).
		Filter(bson.M{"_id": roleID.String()}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("lectern/mongo: delete role: %w", err)
	}
	if res.DeletedCount() == 0 {
		return fmt.Errorf("role %s: %w", roleID, store.ErrNotFound)
	}
	return nil
}

func (s *Store) ListRoles(ctx context.Context, filter *role.ListFilter) ([]*role.Role, error) {
	var models []roleModel
	f := bson.M{}
	if filter != nil {
		if filter.IsSystem != nil {
			f["is_system"] = *filter.IsSystem
		}
		if filter.Search != "" {
			f["name"] = bson.M{"$regex": filter.Search, "$options": "i"}
		}
	}
	q := s.mdb.NewFind(&models).
		Filter(f).
		Sort(bson.D{{Key: "created_at", Value: 1}})
	if filter != nil {
		if filter.Limit > 0 {
			q = q.Limit(int64(filter.Limit))
		}
		if filter.Offset > 0 {
			q = q.Skip(int64(filter.Offset))
		}
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("lectern/mongo: list roles: %w", err)
	}
	result := make([]*role.Role, len(models))
	for i := range models {
		result[i] = roleFromModel(&models[i])
	}
	return result, nil
}

func (s *Store) CountRoles(ctx context.Context, filter *role.ListFilter) (int64, error) {
	f := bson.M{}
	if filter != nil {
		if filter.IsSystem != nil {
			f["is_system"] = *filter.IsSystem
		}
		if filter.Search != "" {
			f["name"] = bson.M{"$regex": filter.Search, "$options": "i"}
		}
	}
	count, err := s.mdb.NewFind((*roleModel)(nil)).
		Filter(f).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("lectern/mongo: count roles: %w", err)
	}
	return count, nil
}

func (s *Store) SetDefaultStance(ctx context.Context, roleID id.RoleID, permID id.PermissionID, allow bool) error {
	m := &stanceModel{
		RoleID:       roleID.String(),
		PermissionID: permID.String(),
		Allow:        allow,
		CreatedAt:    time.Now().UTC(),
	}
	_, err := s.mdb.NewInsert(m).Exec(ctx)
	if err == nil {
		return nil
	}
	if !mongod.IsDuplicateKeyError(err) {
		return fmt.Errorf("lectern/mongo: set default stance: %w", err)
	}
	// Stance already exists, flip the allow bit in place.
	if _, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"role_id": m.RoleID, "permission_id": m.PermissionID}).
		Exec(ctx); err != nil {
		return fmt.Errorf("lectern/mongo: set default stance: %w", err)
	}
	return nil
}

func (s *Store) ClearDefaultStance(ctx context.Context, roleID id.RoleID, permID id.PermissionID) error {
	_, err := s.mdb.NewDelete((*stanceModel)(nil)).
		Filter(bson.M{"role_id": roleID.String(), "permission_id": permID.String()}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("lectern/mongo: clear default stance: %w", err)
	}
	return nil
}

func (s *Store) DefaultStance(ctx context.Context, roleID id.RoleID, permID id.PermissionID) (role.Stance, error) {
	var m stanceModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"role_id": roleID.String(), "permission_id": permID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return role.Unset, nil
		}
		return role.Unset, fmt.Errorf("lectern/mongo: get default stance: %w", err)
	}
	return role.StanceFromAllow(m.Allow), nil
}

func (s *Store) ListDefaultStances(ctx context.Context, roleID id.RoleID) ([]*role.DefaultStance, error) {
	var models []stanceModel
	err := s.mdb.NewFind(&models).
		Filter(bson.M{"role_id": roleID.String()}).
		Sort(bson.D{{Key: "permission_id", Value: 1}}).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("lectern/mongo: list default stances: %w", err)
	}
	result := make([]*role.DefaultStance, len(models))
	for i := range models {
		result[i] = stanceFromModel(&models[i])
	}
	return result, nil
}

func (s *Store) DeleteStancesByPermission(ctx context.Context, permID id.PermissionID) error {
	_, err := s.mdb.NewDelete((*stanceModel)(nil)).
		Many().
		Filter(bson.M{"permission_id": permID.String()}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("lectern/mongo: delete stances by permission: %w", err)
	}
	return nil
}

// ──────────────────────────────────────────────────
// Permission operations
// ──────────────────────────────────────────────────

func (s *Store) CreatePermission(ctx context.Context, p *permission.Permission) error {
	m := permissionToModel(p)
	if _, err := s.mdb.NewInsert(m).Exec(ctx); err != nil {
		if mongod.IsDuplicateKeyError(err) {
			return fmt.Errorf("permission %q: %w", p.Key, store.ErrDuplicate)
		}
		return fmt.Errorf("lectern/mongo: create permission: %w", err)
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
		return nil, fmt.Errorf("lectern/mongo: get permission: %w", err)
	}
	return permissionFromModel(&m), nil
}

func (s *Store) GetPermissionByKey(ctx context.Context, key string) (*permission.Permission, error) {
	var m permissionModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"key": key}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, fmt.Errorf("permission %q: %w", key, store.ErrNotFound)
		}
		return nil, fmt.Errorf("lectern/mongo: get permission by key: %w", err)
	}
	return permissionFromModel(&m), nil
}

func (s *Store) UpdatePermission(ctx context.Context, p *permission.Permission) error {
	m := permissionToModel(p)
	res, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"_id": m.ID}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("lectern/mongo: update permission: %w", err)
	}
	if res.MatchedCount() == 0 {
		return fmt.Errorf("permission %s: %w", p.ID, store.ErrNotFound)
	}
	return nil
}

func (s *Store) DeletePermission(ctx context.Context, permID id.PermissionID) error {
	res, err := s.mdb.NewDelete((*permissionModel)(nil)).
		Filter(bson.M{"_id": permID.String()}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("lectern/mongo: delete permission: %w", err)
	}
	if res.DeletedCount() == 0 {
		return fmt.Errorf("permission %s: %w", permID, store.ErrNotFound)
	}
	return nil
}

func (s *Store) ListPermissions(ctx context.Context, filter *permission.ListFilter) ([]*permission.Permission, error) {
	var models []permissionModel
	f := bson.M{}
	if filter != nil {
		if filter.IsSystem != nil {
			f["is_system"] = *filter.IsSystem
		}
		if filter.Search != "" {
			f["key"] = bson.M{"$regex": filter.Search, "$options": "i"}
		}
	}
	q := s.mdb.NewFind(&models).
		Filter(f).
		Sort(bson.D{{Key: "key", Value: 1}})
	if filter != nil {
		if filter.Limit > 0 {
			q = q.Limit(int64(filter.Limit))
		}
		if filter.Offset > 0 {
			q = q.Skip(int64(filter.Offset))
		}
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("lectern/mongo: list permissions: %w", err)
	}
	result := make([]*permission.Permission, len(models))
	for i := range models {
		result[i] = permissionFromModel(&models[i])
	}
	return result, nil
}

func (s *Store) CountPermissions(ctx context.Context, filter *permission.ListFilter) (int64, error) {
	f := bson.M{}
	if filter != nil {
		if filter.IsSystem != nil {
			f["is_system"] = *filter.IsSystem
		}
		if filter.Search != "" {
			f["key"] = bson.M{"$regex": filter.Search, "$options": "i"}
		}
	}
	count, err := s.mdb.NewFind((*permissionModel)(nil)).
		Filter(f).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("lectern/mongo: count permissions: %w", err)
	}
	return count, nil
}

// ──────────────────────────────────────────────────
// Resource operations
// ──────────────────────────────────────────────────

func (s *Store) CreateResource(ctx context.Context, r *resource.Resource) error {
	m := resourceToModel(r)
	if _, err := s.mdb.NewInsert(m).Exec(ctx); err != nil {
		return fmt.Errorf("lectern/mongo: create resource: %w", err)
	}
	return nil
}

func (s *Store) GetResource(ctx context.Context, resID id.ResourceID) (*resource.Resource, error) {
	var m resourceModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": resID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, fmt.Errorf("resource %s: %w", resID, store.ErrNotFound)
		}
		return nil, fmt.Errorf("lectern/mongo: get resource: %w", err)
	}
	return resourceFromModel(&m), nil
}

func (s *Store) UpdateResource(ctx context.Context, r *resource.Resource) error {
	m := resourceToModel(r)
	res, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"_id": m.ID}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("lectern/mongo: update resource: %w", err)
	}
	if res.MatchedCount() == 0 {
		return fmt.Errorf("resource %s: %w", r.ID, store.ErrNotFound)
	}
	return nil
}

func (s *Store) SetResourceParent(ctx context.Context, resID id.ResourceID, parentID *id.ResourceID) error {
	r, err := s.GetResource(ctx, resID)
	if err != nil {
		return err
	}
	if parentID == nil || parentID.IsNil() {
		r.ParentID = nil
	} else {
		pid := *parentID
		r.ParentID = &pid
	}
	r.UpdatedAt = time.Now().UTC()
	return s.UpdateResource(ctx, r)
}

func (s *Store) DeleteResources(ctx context.Context, resIDs []id.ResourceID) error {
	if len(resIDs) == 0 {
		return nil
	}
	keys := make([]string, len(resIDs))
	for i, resID := range resIDs {
		keys[i] = resID.String()
	}
	_, err := s.mdb.NewDelete((*resourceModel)(nil)).
		Many().
		Filter(bson.M{"_id": bson.M{"$in": keys}}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("lectern/mongo: delete resources: %w", err)
	}
	return nil
}

func (s *Store) ListResources(ctx context.Context, filter *resource.ListFilter) ([]*resource.Resource, error) {
	var models []resourceModel
	f := bson.M{}
	if filter != nil {
		if filter.Kind != "" {
			f["kind"] = string(filter.Kind)
		}
		if filter.ParentID != nil {
			f["parent_id"] = filter.ParentID.String()
		}
		if filter.Search != "" {
			f["name"] = bson.M{"$regex": filter.Search, "$options": "i"}
		}
	}
	q := s.mdb.NewFind(&models).
		Filter(f).
		Sort(bson.D{{Key: "created_at", Value: 1}})
	if filter != nil {
		if filter.Limit > 0 {
			q = q.Limit(int64(filter.Limit))
		}
		if filter.Offset > 0 {
			q = q.Skip(int64(filter.Offset))
		}
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("lectern/mongo: list resources: %w", err)
	}
	result := make([]*resource.Resource, len(models))
	for i := range models {
		result[i] = resourceFromModel(&models[i])
	}
	return result, nil
}

func (s *Store) CountResources(ctx context.Context, filter *resource.ListFilter) (int64, error) {
	f := bson.M{}
	if filter != nil {
		if filter.Kind != "" {
			f["kind"] = string(filter.Kind)
		}
		if filter.ParentID != nil {
			f["parent_id"] = filter.ParentID.String()
		}
		if filter.Search != "" {
			f["name"] = bson.M{"$regex": filter.Search, "$options": "i"}
		}
	}
	count, err := s.mdb.NewFind((*resourceModel)(nil)).
		Filter(f).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("lectern/mongo: count resources: %w", err)
	}
	return count, nil
}

func (s *Store) ListChildResources(ctx context.Context, parentID id.ResourceID) ([]*resource.Resource, error) {
	var models []resourceModel
	err := s.mdb.NewFind(&models).
		Filter(bson.M{"parent_id": parentID.String()}).
		Sort(bson.D{{Key: "_id", Value: 1}}).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("lectern/mongo: list child resources: %w", err)
	}
	result := make([]*resource.Resource, len(models))
	for i := range models {
		result[i] = resourceFromModel(&models[i])
	}
	return result, nil
}

// ──────────────────────────────────────────────────
// Assignment operations
// ──────────────────────────────────────────────────

func (s *Store) CreateAssignment(ctx context.Context, a *assignment.Assignment) error {
	m := assignmentToModel(a)
	if _, err := s.mdb.NewInsert(m).Exec(ctx); err != nil {
		if mongod.IsDuplicateKeyError(err) {
			return fmt.Errorf("assignment %s/%s: %w", a.UserID, a.RoleID, store.ErrDuplicate)
		}
		return fmt.Errorf("lectern/mongo: create assignment: %w", err)
	}
	return nil
}

func (s *Store) GetAssignment(ctx context.Context, asgnID id.AssignmentID) (*assignment.Assignment, error) {
	var m assignmentModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": asgnID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, fmt.Errorf("assignment %s: %w", asgnID, store.ErrNotFound)
		}
		return nil, fmt.Errorf("lectern/mongo: get assignment: %w", err)
	}
	return assignmentFromModel(&m), nil
}

func (s *Store) DeleteAssignment(ctx context.Context, asgnID id.AssignmentID) error {
	res, err := s.mdb.NewDelete((*assignmentModel)(nil)).
		Filter(bson.M{"_id": asgnID.String()}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("lectern/mongo: delete assignment: %w", err)
	}
	if res.DeletedCount() == 0 {
		return fmt.Errorf("assignment %s: %w", asgnID, store.ErrNotFound)
	}
	return nil
}

func (s *Store) DeleteAssignmentByPair(ctx context.Context, userID string, roleID id.RoleID) error {
	res, err := s.mdb.NewDelete((*assignmentModel)(nil)).
		Filter(bson.M{"user_id": userID, "role_id": roleID.String()}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("lectern/mongo: delete assignment by pair: %w", err)
	}
	if res.DeletedCount() == 0 {
		return fmt.Errorf("assignment %s/%s: %w", userID, roleID, store.ErrNotFound)
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
		Sort(bson.D{{Key: "created_at", Value: 1}})
	if filter != nil {
		if filter.Limit > 0 {
			q = q.Limit(int64(filter.Limit))
		}
		if filter.Offset > 0 {
			q = q.Skip(int64(filter.Offset))
		}
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("lectern/mongo: list assignments: %w", err)
	}
	result := make([]*assignment.Assignment, len(models))
	for i := range models {
		result[i] = assignmentFromModel(&models[i])
	}
	return result, nil
}

func (s *Store) CountAssignments(ctx context.Context, filter *assignment.ListFilter) (int64, error) {
	f := bson.M{}
	if filter != nil {
		if filter.UserID != "" {
			f["user_id"] = filter.UserID
		}
		if filter.RoleID != nil {
			f["role_id"] = filter.RoleID.String()
		}
	}
	count, err := s.mdb.NewFind((*assignmentModel)(nil)).
		Filter(f).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("lectern/mongo: count assignments: %w", err)
	}
	return count, nil
}

func (s *Store) ListRolesForUser(ctx context.Context, userID string, now time.Time) ([]id.RoleID, error) {
	var models []assignmentModel
	err := s.mdb.NewFind(&models).
		Filter(bson.M{
			"user_id": userID,
			"$or": bson.A{
				bson.M{"expires_at": nil},
				bson.M{"expires_at": bson.M{"$gt": now}},
			},
		}).
		Sort(bson.D{{Key: "role_id", Value: 1}}).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("lectern/mongo: list roles for user: %w", err)
	}
	roles := make([]id.RoleID, 0, len(models))
	for i := range models {
		rid, err := id.ParseRoleID(models[i].RoleID)
		if err != nil {
			continue
		}
		roles = append(roles, rid)
	}
	return roles, nil
}

func (s *Store) ListUsersForRole(ctx context.Context, roleID id.RoleID) ([]*assignment.Assignment, error) {
	var models []assignmentModel
	err := s.mdb.NewFind(&models).
		Filter(bson.M{"role_id": roleID.String()}).
		Sort(bson.D{{Key: "user_id", Value: 1}}).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("lectern/mongo: list users for role: %w", err)
	}
	result := make([]*assignment.Assignment, len(models))
	for i := range models {
		result[i] = assignmentFromModel(&models[i])
	}
	return result, nil
}

func (s *Store) DeleteExpiredAssignments(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.mdb.NewDelete((*assignmentModel)(nil)).
		Many().
		Filter(bson.M{
			"expires_at": bson.M{
				"$ne":  nil,
				"$lte": now,
			},
		}).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("lectern/mongo: delete expired assignments: %w", err)
	}
	return res.DeletedCount(), nil
}

func (s *Store) DeleteAssignmentsByUser(ctx context.Context, userID string) error {
	_, err := s.mdb.NewDelete((*assignmentModel)(nil)).
		Many().
		Filter(bson.M{"user_id": userID}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("lectern/mongo: delete assignments by user: %w", err)
	}
	return nil
}

func (s *Store) DeleteAssignmentsByRole(ctx context.Context, roleID id.RoleID) error {
	_, err := s.mdb.NewDelete((*assignmentModel)(nil)).
		Many().
		Filter(bson.M{"role_id": roleID.String()}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("lectern/mongo: delete assignments by role: %w", err)
	}
	return nil
}

// ──────────────────────────────────────────────────
// Grant operations
// ──────────────────────────────────────────────────

func (s *Store) CreateGrant(ctx context.Context, g *grant.Grant) error {
	m := grantToModel(g)
	if _, err := s.mdb.NewInsert(m).Exec(ctx); err != nil {
		if mongod.IsDuplicateKeyError(err) {
			return fmt.Errorf("grant %s/%s/%s: %w", g.RoleID, g.ResourceID, g.PermissionID, store.ErrDuplicate)
		}
		return fmt.Errorf("lectern/mongo: create grant: %w", err)
	}
	return nil
}

func (s *Store) DeleteGrant(ctx context.Context, grantID id.GrantID) error {
	res, err := s.mdb.NewDelete((*grantModel)(nil)).
		Filter(bson.M{"_id": grantID.String()}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("lectern/mongo: delete grant: %w", err)
	}
	if res.DeletedCount() == 0 {
		return fmt.Errorf("grant %s: %w", grantID, store.ErrNotFound)
	}
	return nil
}

func (s *Store) DeleteGrantByTriple(ctx context.Context, roleID id.RoleID, resID id.ResourceID, permID id.PermissionID) error {
	res, err := s.mdb.NewDelete((*grantModel)(nil)).
		Filter(bson.M{
			"role_id":       roleID.String(),
			"resource_id":   resID.String(),
			"permission_id": permID.String(),
		}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("lectern/mongo: delete grant by triple: %w", err)
	}
	if res.DeletedCount() == 0 {
		return fmt.Errorf("grant %s/%s/%s: %w", roleID, resID, permID, store.ErrNotFound)
	}
	return nil
}

func (s *Store) HasGrant(ctx context.Context, roleID id.RoleID, resID id.ResourceID, permID id.PermissionID) (bool, error) {
	count, err := s.mdb.NewFind((*grantModel)(nil)).
		Filter(bson.M{
			"role_id":       roleID.String(),
			"resource_id":   resID.String(),
			"permission_id": permID.String(),
		}).
		Count(ctx)
	if err != nil {
		return false, fmt.Errorf("lectern/mongo: has grant: %w", err)
	}
	return count > 0, nil
}

func (s *Store) AnyGrant(ctx context.Context, roleIDs []id.RoleID, resID id.ResourceID, permID id.PermissionID) (id.RoleID, bool, error) {
	if len(roleIDs) == 0 {
		return id.RoleID{}, false, nil
	}
	keys := make([]string, len(roleIDs))
	for i, rid := range roleIDs {
		keys[i] = rid.String()
	}
	var m grantModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{
			"resource_id":   resID.String(),
			"permission_id": permID.String(),
			"role_id":       bson.M{"$in": keys},
		}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return id.RoleID{}, false, nil
		}
		return id.RoleID{}, false, fmt.Errorf("lectern/mongo: any grant: %w", err)
	}
	rid, err := id.ParseRoleID(m.RoleID)
	if err != nil {
		return id.RoleID{}, false, fmt.Errorf("lectern/mongo: any grant: %w", err)
	}
	return rid, true, nil
}

func (s *Store) ListGrants(ctx context.Context, filter *grant.ListFilter) ([]*grant.Grant, error) {
	var models []grantModel
	f := bson.M{}
	if filter != nil {
		if filter.RoleID != nil {
			f["role_id"] = filter.RoleID.String()
		}
		if filter.ResourceID != nil {
			f["resource_id"] = filter.ResourceID.String()
		}
		if filter.PermissionID != nil {
			f["permission_id"] = filter.PermissionID.String()
		}
	}
	q := s.mdb.NewFind(&models).
		Filter(f).
		Sort(bson.D{{Key: "created_at", Value: 1}})
	if filter != nil {
		if filter.Limit > 0 {
			q = q.Limit(int64(filter.Limit))
		}
		if filter.Offset > 0 {
			q = q.Skip(int64(filter.Offset))
		}
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("lectern/mongo: list grants: %w", err)
	}
	result := make([]*grant.Grant, len(models))
	for i := range models {
		result[i] = grantFromModel(&models[i])
	}
	return result, nil
}

func (s *Store) CountGrants(ctx context.Context, filter *grant.ListFilter) (int64, error) {
	f := bson.M{}
	if filter != nil {
		if filter.RoleID != nil {
			f["role_id"] = filter.RoleID.String()
		}
		if filter.ResourceID != nil {
			f["resource_id"] = filter.ResourceID.String()
		}
		if filter.PermissionID != nil {
			f["permission_id"] = filter.PermissionID.String()
		}
	}
	count, err := s.mdb.NewFind((*grantModel)(nil)).
		Filter(f).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("lectern/mongo: count grants: %w", err)
	}
	return count, nil
}

func (s *Store) DeleteGrantsByRole(ctx context.Context, roleID id.RoleID) error {
	_, err := s.mdb.NewDelete((*grantModel)(nil)).
		Many().
		Filter(bson.M{"role_id": roleID.String()}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("lectern/mongo: delete grants by role: %w", err)
	}
	return nil
}

func (s *Store) DeleteGrantsByResources(ctx context.Context, resIDs []id.ResourceID) error {
	if len(resIDs) == 0 {
		return nil
	}
	keys := make([]string, len(resIDs))
	for i, resID := range resIDs {
		keys[i] = resID.String()
	}
	_, err := s.mdb.NewDelete((*grantModel)(nil)).
		Many().
		Filter(bson.M{"resource_id": bson.M{"$in": keys}}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("lectern/mongo: delete grants by resources: %w", err)
	}
	return nil
}

func (s *Store) DeleteGrantsByPermission(ctx context.Context, permID id.PermissionID) error {
	_, err := s.mdb.NewDelete((*grantModel)(nil)).
		Many().
		Filter(bson.M{"permission_id": permID.String()}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("lectern/mongo: delete grants by permission: %w", err)
	}
	return nil
}

// ──────────────────────────────────────────────────
// Decision log operations
// ──────────────────────────────────────────────────

func (s *Store) CreateDecisionLog(ctx context.Context, e *decisionlog.Entry) error {
	m := decisionLogToModel(e)
	if _, err := s.mdb.NewInsert(m).Exec(ctx); err != nil {
		return fmt.Errorf("lectern/mongo: create decision log: %w", err)
	}
	return nil
}

func (s *Store) GetDecisionLog(ctx context.Context, logID id.DecisionLogID) (*decisionlog.Entry, error) {
	var m decisionLogModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": logID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, fmt.Errorf("decision log %s: %w", logID, store.ErrNotFound)
		}
		return nil, fmt.Errorf("lectern/mongo: get decision log: %w", err)
	}
	return decisionLogFromModel(&m), nil
}

func (s *Store) ListDecisionLogs(ctx context.Context, filter *decisionlog.QueryFilter) ([]*decisionlog.Entry, error) {
	var models []decisionLogModel
	q := s.mdb.NewFind(&models).
		Filter(logFilter(filter)).
		Sort(bson.D{{Key: "created_at", Value: 1}})
	if filter != nil {
		if filter.Limit > 0 {
			q = q.Limit(int64(filter.Limit))
		}
		if filter.Offset > 0 {
			q = q.Skip(int64(filter.Offset))
		}
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("lectern/mongo: list decision logs: %w", err)
	}
	result := make([]*decisionlog.Entry, len(models))
	for i := range models {
		result[i] = decisionLogFromModel(&models[i])
	}
	return result, nil
}

func (s *Store) CountDecisionLogs(ctx context.Context, filter *decisionlog.QueryFilter) (int64, error) {
	count, err := s.mdb.NewFind((*decisionLogModel)(nil)).
		Filter(logFilter(filter)).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("lectern/mongo: count decision logs: %w", err)
	}
	return count, nil
}

func (s *Store) PurgeDecisionLogs(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.mdb.NewDelete((*decisionLogModel)(nil)).
		Many().
		Filter(bson.M{"created_at": bson.M{"$lt": before}}).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("lectern/mongo: purge decision logs: %w", err)
	}
	return res.DeletedCount(), nil
}

func logFilter(filter *decisionlog.QueryFilter) bson.M {
	f := bson.M{}
	if filter == nil {
		return f
	}
	if filter.UserID != "" {
		f["user_id"] = filter.UserID
	}
	if filter.Permission != "" {
		f["permission"] = filter.Permission
	}
	if filter.ResourceID != "" {
		f["resource_id"] = filter.ResourceID
	}
	if filter.Allowed != nil {
		f["allowed"] = *filter.Allowed
	}
	if filter.Rule != "" {
		f["rule"] = filter.Rule
	}
	if filter.After != nil || filter.Before != nil {
		dateFilter := bson.M{}
		if filter.After != nil {
			dateFilter["$gt"] = *filter.After
		}
		if filter.Before != nil {
			dateFilter["$lt"] = *filter.Before
		}
		f["created_at"] = dateFilter
	}
	return f
}
