// Package sqlite provides a SQLite implementation of the Lectern
// composite store using grove ORM, suitable for embedded and
// single-process deployments.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/sqlitedriver"
	"github.com/xraph/grove/migrate"

	"github.com/lecternhq/lectern/assignment"
	"github.com/lecternhq/lectern/decisionlog"
	"github.com/lecternhq/lectern/grant"
	"github.com/lecternhq/lectern/id"
	"github.com/lecternhq/lectern/permission"
	"github.com/lecternhq/lectern/resource"
	"github.com/lecternhq/lectern/role"
	"github.com/lecternhq/lectern/store"
)

// Compile-time interface check.
var _ store.Store = (*Store)(nil)

// Store is a SQLite implementation of the composite Lectern store.
type Store struct {
	db  *grove.DB
	sdb *sqlitedriver.SqliteDB
}

// New creates a new SQLite store.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		sdb: sqlitedriver.Unwrap(db),
	}
}

// Migrate runs programmatic migrations via the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.sdb)
	if err != nil {
		return fmt.Errorf("lectern/sqlite: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("lectern/sqlite: migration failed: %w", err)
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

// isNoRows checks for the standard sql.ErrNoRows sentinel.
func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// isUniqueViolation matches the SQLite unique constraint error text.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// ──────────────────────────────────────────────────
// Role operations
// ──────────────────────────────────────────────────

func (s *Store) CreateRole(ctx context.Context, r *role.Role) error {
	m, err := roleToModel(r)
	if err != nil {
		return fmt.Errorf("lectern/sqlite: create role: %w", err)
	}
	if _, err := s.sdb.NewInsert(m).Exec(ctx); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("role slug %q: %w", r.Slug, store.ErrDuplicate)
		}
		return fmt.Errorf("lectern/sqlite: create role: %w", err)
	}
	return nil
}

func (s *Store) GetRole(ctx context.Context, roleID id.RoleID) (*role.Role, error) {
	m := new(roleModel)
	err := s.sdb.NewSelect(m).Where("id = ?", roleID.String()).Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("role %s: %w", roleID, store.ErrNotFound)
		}
		return nil, fmt.Errorf("lectern/sqlite: get role: %w", err)
	}
	return roleFromModel(m)
}

func (s *Store) GetRoleBySlug(ctx context.Context, slug string) (*role.Role, error) {
	m := new(roleModel)
	err := s.sdb.NewSelect(m).Where("slug = ?", slug).Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("role slug %q: %w", slug, store.ErrNotFound)
		}
		return nil, fmt.Errorf("lectern/sqlite: get role by slug: %w", err)
	}
	return roleFromModel(m)
}

func (s *Store) UpdateRole(ctx context.Context, r *role.Role) error {
	m, err := roleToModel(r)
	if err != nil {
		return fmt.Errorf("lectern/sqlite: update role: %w", err)
	}
	if _, err := s.sdb.NewUpdate(m).WherePK().Exec(ctx); err != nil {
		return fmt.Errorf("lectern/sqlite: update role: %w", err)
	}
	return nil
}

func (s *Store) DeleteRole(ctx context.Context, roleID id.RoleID) error {
	tx, err := s.sdb.BeginTxQuery(ctx, nil)
	if err != nil {
		return fmt.Errorf("lectern/sqlite: begin delete role: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback on error is intentional

	if _, err := tx.NewDelete((*stanceModel)(nil)).
		Where("role_id = ?", roleID.String()).Exec(ctx); err != nil {
		return fmt.Errorf("lectern/sqlite: delete role stances: %w", err)
	}
	res, err := tx.NewDelete((*roleModel)(nil)).
		Where("id = ?", roleID.String()).Exec(ctx)
	if err != nil {
		return fmt.Errorf("lectern/sqlite: delete role: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("role %s: %w", roleID, store.ErrNotFound)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("lectern/sqlite: commit delete role: %w", err)
	}
	return nil
}

func (s *Store) ListRoles(ctx context.Context, filter *role.ListFilter) ([]*role.Role, error) {
	var models []roleModel
	q := s.sdb.NewSelect(&models).OrderExpr("created_at ASC")
	if filter != nil {
		if filter.IsSystem != nil {
			q = q.Where("is_system = ?", *filter.IsSystem)
		}
		if filter.Search != "" {
			q = q.Where("(LOWER(name) LIKE LOWER(?) OR LOWER(slug) LIKE LOWER(?))",
				"%"+filter.Search+"%", "%"+filter.Search+"%")
		}
		if filter.Limit > 0 {
			q = q.Limit(filter.Limit)
		}
		if filter.Offset > 0 {
			q = q.Offset(filter.Offset)
		}
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("lectern/sqlite: list roles: %w", err)
	}
	result := make([]*role.Role, 0, len(models))
	for i := range models {
		r, err := roleFromModel(&models[i])
		if err != nil {
			return nil, fmt.Errorf("lectern/sqlite: list roles: %w", err)
		}
		result = append(result, r)
	}
	return result, nil
}

func (s *Store) CountRoles(ctx context.Context, filter *role.ListFilter) (int64, error) {
	q := s.sdb.NewSelect((*roleModel)(nil))
	if filter != nil {
		if filter.IsSystem != nil {
			q = q.Where("is_system = ?", *filter.IsSystem)
		}
		if filter.Search != "" {
			q = q.Where("(LOWER(name) LIKE LOWER(?) OR LOWER(slug) LIKE LOWER(?))",
				"%"+filter.Search+"%", "%"+filter.Search+"%")
		}
	}
	count, err := q.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("lectern/sqlite: count roles: %w", err)
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
	_, err := s.sdb.NewInsert(m).
		OnConflict("(role_id, permission_id) DO UPDATE SET allow = EXCLUDED.allow").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("lectern/sqlite: set default stance: %w", err)
	}
	return nil
}

func (s *Store) ClearDefaultStance(ctx context.Context, roleID id.RoleID, permID id.PermissionID) error {
	_, err := s.sdb.NewDelete((*stanceModel)(nil)).
		Where("role_id = ?", roleID.String()).
		Where("permission_id = ?", permID.String()).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("lectern/sqlite: clear default stance: %w", err)
	}
	return nil
}

func (s *Store) DefaultStance(ctx context.Context, roleID id.RoleID, permID id.PermissionID) (role.Stance, error) {
	m := new(stanceModel)
	err := s.sdb.NewSelect(m).
		Where("role_id = ?", roleID.String()).
		Where("permission_id = ?", permID.String()).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return role.Unset, nil
		}
		return role.Unset, fmt.Errorf("lectern/sqlite: get default stance: %w", err)
	}
	return role.StanceFromAllow(m.Allow), nil
}

func (s *Store) ListDefaultStances(ctx context.Context, roleID id.RoleID) ([]*role.DefaultStance, error) {
	var models []stanceModel
	err := s.sdb.NewSelect(&models).
		Where("role_id = ?", roleID.String()).
		OrderExpr("permission_id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("lectern/sqlite: list default stances: %w", err)
	}
	result := make([]*role.DefaultStance, len(models))
	for i := range models {
		result[i] = stanceFromModel(&models[i])
	}
	return result, nil
}

func (s *Store) DeleteStancesByPermission(ctx context.Context, permID id.PermissionID) error {
	_, err := s.sdb.NewDelete((*stanceModel)(nil)).
		Where("permission_id = ?", permID.String()).Exec(ctx)
	if err != nil {
		return fmt.Errorf("lectern/sqlite: delete stances by permission: %w", err)
	}
	return nil
}

// ──────────────────────────────────────────────────
// Permission operations
// ──────────────────────────────────────────────────

func (s *Store) CreatePermission(ctx context.Context, p *permission.Permission) error {
	m := permissionToModel(p)
	if _, err := s.sdb.NewInsert(m).Exec(ctx); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("permission %q: %w", p.Key, store.ErrDuplicate)
		}
		return fmt.Errorf("lectern/sqlite: create permission: %w", err)
	}
	return nil
}

func (s *Store) GetPermission(ctx context.Context, permID id.PermissionID) (*permission.Permission, error) {
	m := new(permissionModel)
	err := s.sdb.NewSelect(m).Where("id = ?", permID.String()).Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("permission %s: %w", permID, store.ErrNotFound)
		}
		return nil, fmt.Errorf("lectern/sqlite: get permission: %w", err)
	}
	return permissionFromModel(m), nil
}

func (s *Store) GetPermissionByKey(ctx context.Context, key string) (*permission.Permission, error) {
	m := new(permissionModel)
	err := s.sdb.NewSelect(m).Where("key = ?", key).Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("permission %q: %w", key, store.ErrNotFound)
		}
		return nil, fmt.Errorf("lectern/sqlite: get permission by key: %w", err)
	}
	return permissionFromModel(m), nil
}

func (s *Store) UpdatePermission(ctx context.Context, p *permission.Permission) error {
	m := permissionToModel(p)
	if _, err := s.sdb.NewUpdate(m).WherePK().Exec(ctx); err != nil {
		return fmt.Errorf("lectern/sqlite: update permission: %w", err)
	}
	return nil
}

func (s *Store) DeletePermission(ctx context.Context, permID id.PermissionID) error {
	res, err := s.sdb.NewDelete((*permissionModel)(nil)).
		Where("id = ?", permID.String()).Exec(ctx)
	if err != nil {
		return fmt.Errorf("lectern/sqlite: delete permission: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("permission %s: %w", permID, store.ErrNotFound)
	}
	return nil
}

func (s *Store) ListPermissions(ctx context.Context, filter *permission.ListFilter) ([]*permission.Permission, error) {
	var models []permissionModel
	q := s.sdb.NewSelect(&models).OrderExpr("key ASC")
	if filter != nil {
		if filter.IsSystem != nil {
			q = q.Where("is_system = ?", *filter.IsSystem)
		}
		if filter.Search != "" {
			q = q.Where("LOWER(key) LIKE LOWER(?)", "%"+filter.Search+"%")
		}
		if filter.Limit > 0 {
			q = q.Limit(filter.Limit)
		}
		if filter.Offset > 0 {
			q = q.Offset(filter.Offset)
		}
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("lectern/sqlite: list permissions: %w", err)
	}
	result := make([]*permission.Permission, len(models))
	for i := range models {
		result[i] = permissionFromModel(&models[i])
	}
	return result, nil
}

func (s *Store) CountPermissions(ctx context.Context, filter *permission.ListFilter) (int64, error) {
	q := s.sdb.NewSelect((*permissionModel)(nil))
	if filter != nil {
		if filter.IsSystem != nil {
			q = q.Where("is_system = ?", *filter.IsSystem)
		}
		if filter.Search != "" {
			q = q.Where("LOWER(key) LIKE LOWER(?)", "%"+filter.Search+"%")
		}
	}
	count, err := q.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("lectern/sqlite: count permissions: %w", err)
	}
	return count, nil
}

// ──────────────────────────────────────────────────
// Resource operations
// ──────────────────────────────────────────────────

func (s *Store) CreateResource(ctx context.Context, r *resource.Resource) error {
	m, err := resourceToModel(r)
	if err != nil {
		return fmt.Errorf("lectern/sqlite: create resource: %w", err)
	}
	if _, err := s.sdb.NewInsert(m).Exec(ctx); err != nil {
		return fmt.Errorf("lectern/sqlite: create resource: %w", err)
	}
	return nil
}

func (s *Store) GetResource(ctx context.Context, resID id.ResourceID) (*resource.Resource, error) {
	m := new(resourceModel)
	err := s.sdb.NewSelect(m).Where("id = ?", resID.String()).Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("resource %s: %w", resID, store.ErrNotFound)
		}
		return nil, fmt.Errorf("lectern/sqlite: get resource: %w", err)
	}
	return resourceFromModel(m)
}

func (s *Store) UpdateResource(ctx context.Context, r *resource.Resource) error {
	m, err := resourceToModel(r)
	if err != nil {
		return fmt.Errorf("lectern/sqlite: update resource: %w", err)
	}
	if _, err := s.sdb.NewUpdate(m).WherePK().Exec(ctx); err != nil {
		return fmt.Errorf("lectern/sqlite: update resource: %w", err)
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
	_, err := s.sdb.NewDelete((*resourceModel)(nil)).
		Where("id IN (?)", keys).Exec(ctx)
	if err != nil {
		return fmt.Errorf("lectern/sqlite: delete resources: %w", err)
	}
	return nil
}

func (s *Store) ListResources(ctx context.Context, filter *resource.ListFilter) ([]*resource.Resource, error) {
	var models []resourceModel
	q := s.sdb.NewSelect(&models).OrderExpr("created_at ASC")
	if filter != nil {
		if filter.Kind != "" {
			q = q.Where("kind = ?", string(filter.Kind))
		}
		if filter.ParentID != nil {
			q = q.Where("parent_id = ?", filter.ParentID.String())
		}
		if filter.Search != "" {
			q = q.Where("LOWER(name) LIKE LOWER(?)", "%"+filter.Search+"%")
		}
		if filter.Limit > 0 {
			q = q.Limit(filter.Limit)
		}
		if filter.Offset > 0 {
			q = q.Offset(filter.Offset)
		}
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("lectern/sqlite: list resources: %w", err)
	}
	result := make([]*resource.Resource, 0, len(models))
	for i := range models {
		r, err := resourceFromModel(&models[i])
		if err != nil {
			return nil, fmt.Errorf("lectern/sqlite: list resources: %w", err)
		}
		result = append(result, r)
	}
	return result, nil
}

func (s *Store) CountResources(ctx context.Context, filter *resource.ListFilter) (int64, error) {
	q := s.sdb.NewSelect((*resourceModel)(nil))
	if filter != nil {
		if filter.Kind != "" {
			q = q.Where("kind = ?", string(filter.Kind))
		}
		if filter.ParentID != nil {
			q = q.Where("parent_id = ?", filter.ParentID.String())
		}
		if filter.Search != "" {
			q = q.Where("LOWER(name) LIKE LOWER(?)", "%"+filter.Search+"%")
		}
	}
	count, err := q.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("lectern/sqlite: count resources: %w", err)
	}
	return count, nil
}

func (s *Store) ListChildResources(ctx context.Context, parentID id.ResourceID) ([]*resource.Resource, error) {
	var models []resourceModel
	err := s.sdb.NewSelect(&models).
		Where("parent_id = ?", parentID.String()).
		OrderExpr("id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("lectern/sqlite: list child resources: %w", err)
	}
	result := make([]*resource.Resource, 0, len(models))
	for i := range models {
		r, err := resourceFromModel(&models[i])
		if err != nil {
			return nil, fmt.Errorf("lectern/sqlite: list child resources: %w", err)
		}
		result = append(result, r)
	}
	return result, nil
}

// ──────────────────────────────────────────────────
// Assignment operations
// ──────────────────────────────────────────────────

func (s *Store) CreateAssignment(ctx context.Context, a *assignment.Assignment) error {
	m := assignmentToModel(a)
	if _, err := s.sdb.NewInsert(m).Exec(ctx); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("assignment %s/%s: %w", a.UserID, a.RoleID, store.ErrDuplicate)
		}
		return fmt.Errorf("lectern/sqlite: create assignment: %w", err)
	}
	return nil
}

func (s *Store) GetAssignment(ctx context.Context, asgnID id.AssignmentID) (*assignment.Assignment, error) {
	m := new(assignmentModel)
	err := s.sdb.NewSelect(m).Where("id = ?", asgnID.String()).Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("assignment %s: %w", asgnID, store.ErrNotFound)
		}
		return nil, fmt.Errorf("lectern/sqlite: get assignment: %w", err)
	}
	return assignmentFromModel(m), nil
}

func (s *Store) DeleteAssignment(ctx context.Context, asgnID id.AssignmentID) error {
	res, err := s.sdb.NewDelete((*assignmentModel)(nil)).
		Where("id = ?", asgnID.String()).Exec(ctx)
	if err != nil {
		return fmt.Errorf("lectern/sqlite: delete assignment: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("assignment %s: %w", asgnID, store.ErrNotFound)
	}
	return nil
}

func (s *Store) DeleteAssignmentByPair(ctx context.Context, userID string, roleID id.RoleID) error {
	res, err := s.sdb.NewDelete((*assignmentModel)(nil)).
		Where("user_id = ?", userID).
		Where("role_id = ?", roleID.String()).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("lectern/sqlite: delete assignment by pair: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("assignment %s/%s: %w", userID, roleID, store.ErrNotFound)
	}
	return nil
}

func (s *Store) ListAssignments(ctx context.Context, filter *assignment.ListFilter) ([]*assignment.Assignment, error) {
	var models []assignmentModel
	q := s.sdb.NewSelect(&models).OrderExpr("created_at ASC")
	if filter != nil {
		if filter.UserID != "" {
			q = q.Where("user_id = ?", filter.UserID)
		}
		if filter.RoleID != nil {
			q = q.Where("role_id = ?", filter.RoleID.String())
		}
		if filter.Limit > 0 {
			q = q.Limit(filter.Limit)
		}
		if filter.Offset > 0 {
			q = q.Offset(filter.Offset)
		}
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("lectern/sqlite: list assignments: %w", err)
	}
	result := make([]*assignment.Assignment, len(models))
	for i := range models {
		result[i] = assignmentFromModel(&models[i])
	}
	return result, nil
}

func (s *Store) CountAssignments(ctx context.Context, filter *assignment.ListFilter) (int64, error) {
	q := s.sdb.NewSelect((*assignmentModel)(nil))
	if filter != nil {
		if filter.UserID != "" {
			q = q.Where("user_id = ?", filter.UserID)
		}
		if filter.RoleID != nil {
			q = q.Where("role_id = ?", filter.RoleID.String())
		}
	}
	count, err := q.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("lectern/sqlite: count assignments: %w", err)
	}
	return count, nil
}

func (s *Store) ListRolesForUser(ctx context.Context, userID string, now time.Time) ([]id.RoleID, error) {
	var models []assignmentModel
	err := s.sdb.NewSelect(&models).
		Where("user_id = ?", userID).
		Where("(expires_at IS NULL OR expires_at > ?)", now).
		OrderExpr("role_id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("lectern/sqlite: list roles for user: %w", err)
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
	err := s.sdb.NewSelect(&models).
		Where("role_id = ?", roleID.String()).
		OrderExpr("user_id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("lectern/sqlite: list users for role: %w", err)
	}
	result := make([]*assignment.Assignment, len(models))
	for i := range models {
		result[i] = assignmentFromModel(&models[i])
	}
	return result, nil
}

func (s *Store) DeleteExpiredAssignments(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.sdb.NewDelete((*assignmentModel)(nil)).
		Where("expires_at IS NOT NULL").
		Where("expires_at <= ?", now).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("lectern/sqlite: delete expired assignments: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

func (s *Store) DeleteAssignmentsByUser(ctx context.Context, userID string) error {
	_, err := s.sdb.NewDelete((*assignmentModel)(nil)).
		Where("user_id = ?", userID).Exec(ctx)
	if err != nil {
		return fmt.Errorf("lectern/sqlite: delete assignments by user: %w", err)
	}
	return nil
}

func (s *Store) DeleteAssignmentsByRole(ctx context.Context, roleID id.RoleID) error {
	_, err := s.sdb.NewDelete((*assignmentModel)(nil)).
		Where("role_id = ?", roleID.String()).Exec(ctx)
	if err != nil {
		return fmt.Errorf("lectern/sqlite: delete assignments by role: %w", err)
	}
	return nil
}

// ──────────────────────────────────────────────────
// Grant operations
// ──────────────────────────────────────────────────

func (s *Store) CreateGrant(ctx context.Context, g *grant.Grant) error {
	m := grantToModel(g)
	if _, err := s.sdb.NewInsert(m).Exec(ctx); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("grant %s/%s/%s: %w", g.RoleID, g.ResourceID, g.PermissionID, store.ErrDuplicate)
		}
		return fmt.Errorf("lectern/sqlite: create grant: %w", err)
	}
	return nil
}

func (s *Store) DeleteGrant(ctx context.Context, grantID id.GrantID) error {
	res, err := s.sdb.NewDelete((*grantModel)(nil)).
		Where("id = ?", grantID.String()).Exec(ctx)
	if err != nil {
		return fmt.Errorf("lectern/sqlite: delete grant: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("grant %s: %w", grantID, store.ErrNotFound)
	}
	return nil
}

func (s *Store) DeleteGrantByTriple(ctx context.Context, roleID id.RoleID, resID id.ResourceID, permID id.PermissionID) error {
	res, err := s.sdb.NewDelete((*grantModel)(nil)).
		Where("role_id = ?", roleID.String()).
		Where("resource_id = ?", resID.String()).
		Where("permission_id = ?", permID.String()).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("lectern/sqlite: delete grant by triple: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("grant %s/%s/%s: %w", roleID, resID, permID, store.ErrNotFound)
	}
	return nil
}

func (s *Store) HasGrant(ctx context.Context, roleID id.RoleID, resID id.ResourceID, permID id.PermissionID) (bool, error) {
	count, err := s.sdb.NewSelect((*grantModel)(nil)).
		Where("role_id = ?", roleID.String()).
		Where("resource_id = ?", resID.String()).
		Where("permission_id = ?", permID.String()).
		Count(ctx)
	if err != nil {
		return false, fmt.Errorf("lectern/sqlite: has grant: %w", err)
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
	m := new(grantModel)
	err := s.sdb.NewSelect(m).
		Where("resource_id = ?", resID.String()).
		Where("permission_id = ?", permID.String()).
		Where("role_id IN (?)", keys).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return id.RoleID{}, false, nil
		}
		return id.RoleID{}, false, fmt.Errorf("lectern/sqlite: any grant: %w", err)
	}
	rid, err := id.ParseRoleID(m.RoleID)
	if err != nil {
		return id.RoleID{}, false, fmt.Errorf("lectern/sqlite: any grant: %w", err)
	}
	return rid, true, nil
}

func (s *Store) ListGrants(ctx context.Context, filter *grant.ListFilter) ([]*grant.Grant, error) {
	var models []grantModel
	q := s.sdb.NewSelect(&models).OrderExpr("created_at ASC")
	if filter != nil {
		if filter.RoleID != nil {
			q = q.Where("role_id = ?", filter.RoleID.String())
		}
		if filter.ResourceID != nil {
			q = q.Where("resource_id = ?", filter.ResourceID.String())
		}
		if filter.PermissionID != nil {
			q = q.Where("permission_id = ?", filter.PermissionID.String())
		}
		if filter.Limit > 0 {
			q = q.Limit(filter.Limit)
		}
		if filter.Offset > 0 {
			q = q.Offset(filter.Offset)
		}
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("lectern/sqlite: list grants: %w", err)
	}
	result := make([]*grant.Grant, len(models))
	for i := range models {
		result[i] = grantFromModel(&models[i])
	}
	return result, nil
}

func (s *Store) CountGrants(ctx context.Context, filter *grant.ListFilter) (int64, error) {
	q := s.sdb.NewSelect((*grantModel)(nil))
	if filter != nil {
		if filter.RoleID != nil {
			q = q.Where("role_id = ?", filter.RoleID.String())
		}
		if filter.ResourceID != nil {
			q = q.Where("resource_id = ?", filter.ResourceID.String())
		}
		if filter.PermissionID != nil {
			q = q.Where("permission_id = ?", filter.PermissionID.String())
		}
	}
	count, err := q.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("lectern/sqlite: count grants: %w", err)
	}
	return count, nil
}

func (s *Store) DeleteGrantsByRole(ctx context.Context, roleID id.RoleID) error {
	_, err := s.sdb.NewDelete((*grantModel)(nil)).
		Where("role_id = ?", roleID.String()).Exec(ctx)
	if err != nil {
		return fmt.Errorf("lectern/sqlite: delete grants by role: %w", err)
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
	_, err := s.sdb.NewDelete((*grantModel)(nil)).
		Where("resource_id IN (?)", keys).Exec(ctx)
	if err != nil {
		return fmt.Errorf("lectern/sqlite: delete grants by resources: %w", err)
	}
	return nil
}

func (s *Store) DeleteGrantsByPermission(ctx context.Context, permID id.PermissionID) error {
	_, err := s.sdb.NewDelete((*grantModel)(nil)).
		Where("permission_id = ?", permID.String()).Exec(ctx)
	if err != nil {
		return fmt.Errorf("lectern/sqlite: delete grants by permission: %w", err)
	}
	return nil
}

// ──────────────────────────────────────────────────
// Decision log operations
// ──────────────────────────────────────────────────

func (s *Store) CreateDecisionLog(ctx context.Context, e *decisionlog.Entry) error {
	m := decisionLogToModel(e)
	if _, err := s.sdb.NewInsert(m).Exec(ctx); err != nil {
		return fmt.Errorf("lectern/sqlite: create decision log: %w", err)
	}
	return nil
}

func (s *Store) GetDecisionLog(ctx context.Context, logID id.DecisionLogID) (*decisionlog.Entry, error) {
	m := new(decisionLogModel)
	err := s.sdb.NewSelect(m).Where("id = ?", logID.String()).Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("decision log %s: %w", logID, store.ErrNotFound)
		}
		return nil, fmt.Errorf("lectern/sqlite: get decision log: %w", err)
	}
	return decisionLogFromModel(m), nil
}

func (s *Store) ListDecisionLogs(ctx context.Context, filter *decisionlog.QueryFilter) ([]*decisionlog.Entry, error) {
	var models []decisionLogModel
	q := s.sdb.NewSelect(&models).OrderExpr("created_at ASC")
	if filter != nil {
		if filter.UserID != "" {
			q = q.Where("user_id = ?", filter.UserID)
		}
		if filter.Permission != "" {
			q = q.Where("permission = ?", filter.Permission)
		}
		if filter.ResourceID != "" {
			q = q.Where("resource_id = ?", filter.ResourceID)
		}
		if filter.Allowed != nil {
			q = q.Where("allowed = ?", *filter.Allowed)
		}
		if filter.Rule != "" {
			q = q.Where("rule = ?", filter.Rule)
		}
		if filter.After != nil {
			q = q.Where("created_at > ?", *filter.After)
		}
		if filter.Before != nil {
			q = q.Where("created_at < ?", *filter.Before)
		}
		if filter.Limit > 0 {
			q = q.Limit(filter.Limit)
		}
		if filter.Offset > 0 {
			q = q.Offset(filter.Offset)
		}
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("lectern/sqlite: list decision logs: %w", err)
	}
	result := make([]*decisionlog.Entry, len(models))
	for i := range models {
		result[i] = decisionLogFromModel(&models[i])
	}
	return result, nil
}

func (s *Store) CountDecisionLogs(ctx context.Context, filter *decisionlog.QueryFilter) (int64, error) {
	q := s.sdb.NewSelect((*decisionLogModel)(nil))
	if filter != nil {
		if filter.UserID != "" {
			q = q.Where("user_id = ?", filter.UserID)
		}
		if filter.Permission != "" {
			q = q.Where("permission = ?", filter.Permission)
		}
		if filter.ResourceID != "" {
			q = q.Where("resource_id = ?", filter.ResourceID)
		}
		if filter.Allowed != nil {
			q = q.Where("allowed = ?", *filter.Allowed)
		}
		if filter.Rule != "" {
			q = q.Where("rule = ?", filter.Rule)
		}
		if filter.After != nil {
			q = q.Where("created_at > ?", *filter.After)
		}
		if filter.Before != nil {
			q = q.Where("created_at < ?", *filter.Before)
		}
	}
	count, err := q.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("lectern/sqlite: count decision logs: %w", err)
	}
	return count, nil
}

func (s *Store) PurgeDecisionLogs(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.sdb.NewDelete((*decisionLogModel)(nil)).
		Where("created_at < ?", before).Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("lectern/sqlite: purge decision logs: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
