// Package postgres provides a PostgreSQL implementation of the Lectern
// composite store using grove ORM with Go-based migrations.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/pgdriver"
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

// Store is a PostgreSQL implementation of the composite Lectern store.
type Store struct {
	db   *grove.DB
	pgdb *pgdriver.PgDB
}

// New creates a new PostgreSQL store.
func New(db *grove.DB) *Store {
	return &Store{
		db:   db,
		pgdb: pgdriver.Unwrap(db),
	}
}

// Migrate runs programmatic migrations via the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.pgdb)
	if err != nil {
		return fmt.Errorf("lectern/postgres: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("lectern/postgres: migration failed: %w", err)
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

// isUniqueViolation checks for the Postgres unique_violation error code.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// ──────────────────────────────────────────────────
// Role operations
// ──────────────────────────────────────────────────

func (s *Store) CreateRole(ctx context.Context, r *role.Role) error {
	m := roleToModel(r)
	_, err := s.pgdb.NewInsert(m).Exec(ctx)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("role slug %q: %w", r.Slug, store.ErrDuplicate)
		}
		return fmt.Errorf("lectern/postgres: create role: %w", err)
	}
	return nil
}

func (s *Store) GetRole(ctx context.Context, roleID id.RoleID) (*role.Role, error) {
	m := new(roleModel)
	err := s.pgdb.NewSelect(m).Where("id = ?", roleID.String()).Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("role %s: %w", roleID, store.ErrNotFound)
		}
		return nil, fmt.Errorf("lectern/postgres: get role: %w", err)
	}
	return roleFromModel(m), nil
}

func (s *Store) GetRoleBySlug(ctx context.Context, slug string) (*role.Role, error) {
	m := new(roleModel)
	err := s.pgdb.NewSelect(m).Where("slug = ?", slug).Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("role slug %q: %w", slug, store.ErrNotFound)
		}
		return nil, fmt.Errorf("lectern/postgres: get role by slug: %w", err)
	}
	return roleFromModel(m), nil
}

func (s *Store) UpdateRole(ctx context.Context, r *role.Role) error {
	m := roleToModel(r)
	_, err := s.pgdb.NewUpdate(m).WherePK().Exec(ctx)
	if err != nil {
		return fmt.Errorf("lectern/postgres: update role: %w", err)
	}
	return nil
}

func (s *Store) DeleteRole(ctx context.Context, roleID id.RoleID) error {
	tx, err := s.pgdb.BeginTxQuery(ctx, nil)
	if err != nil {
		return fmt.Errorf("lectern/postgres: begin delete role: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback on error is intentional

	if _, err := tx.NewDelete((*stanceModel)(nil)).
		Where("role_id = ?", roleID.String()).Exec(ctx); err != nil {
		return fmt.Errorf("lectern/postgres: delete role stances: %w", err)
	}
	res, err := tx.NewDelete((*roleModel)(nil)).
		Where("id = ?", roleID.String()).Exec(ctx)
	if err != nil {
		return fmt.Errorf("lectern/postgres: delete role: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("role %s: %w", roleID, store.ErrNotFound)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("lectern/postgres: commit delete role: %w", err)
	}
	return nil
}

func (s *Store) ListRoles(ctx context.Context, filter *role.ListFilter) ([]*role.Role, error) {
	var models []roleModel
	q := s.pgdb.NewSelect(&models).OrderExpr("created_at ASC")
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
		return nil, fmt.Errorf("lectern/postgres: list roles: %w", err)
	}
	result := make([]*role.Role, len(models))
	for i := range models {
		result[i] = roleFromModel(&models[i])
	}
	return result, nil
}

func (s *Store) CountRoles(ctx context.Context, filter *role.ListFilter) (int64, error) {
	q := s.pgdb.NewSelect((*roleModel)(nil))
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
		return 0, fmt.Errorf("lectern/postgres: count roles: %w", err)
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
	_, err := s.pgdb.NewInsert(m).
		OnConflict("(role_id, permission_id) DO UPDATE SET allow = EXCLUDED.allow").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("lectern/postgres: set default stance: %w", err)
	}
	return nil
}

func (s *Store) ClearDefaultStance(ctx context.Context, roleID id.RoleID, permID id.PermissionID) error {
	_, err := s.pgdb.NewDelete((*stanceModel)(nil)).
		Where("role_id = ?", roleID.String()).
		Where("permission_id = ?", permID.String()).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("lectern/postgres: clear default stance: %w", err)
	}
	return nil
}

func (s *Store) DefaultStance(ctx context.Context, roleID id.RoleID, permID id.PermissionID) (role.Stance, error) {
	m := new(stanceModel)
	err := s.pgdb.NewSelect(m).
		Where("role_id = ?", roleID.String()).
		Where("permission_id = ?", permID.String()).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return role.Unset, nil
		}
		return role.Unset, fmt.Errorf("lectern/postgres: get default stance: %w", err)
	}
	return role.StanceFromAllow(m.Allow), nil
}

func (s *Store) ListDefaultStances(ctx context.Context, roleID id.RoleID) ([]*role.DefaultStance, error) {
	var models []stanceModel
	err := s.pgdb.NewSelect(&models).
		Where("role_id = ?", roleID.String()).
		OrderExpr("permission_id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("lectern/postgres: list default stances: %w", err)
	}
	result := make([]*role.DefaultStance, len(models))
	for i := range models {
		result[i] = stanceFromModel(&models[i])
	}
	return result, nil
}

func (s *Store) DeleteStancesByPermission(ctx context.Context, permID id.PermissionID) error {
	_, err := s.pgdb.NewDelete((*stanceModel)(nil)).
		Where("permission_id = ?", permID.String()).Exec(ctx)
	if err != nil {
		return fmt.Errorf("lectern/postgres: delete stances by permission: %w", err)
	}
	return nil
}

// ──────────────────────────────────────────────────
// Permission operations
// ──────────────────────────────────────────────────

func (s *Store) CreatePermission(ctx context.Context, p *permission.Permission) error {
	m := permissionToModel(p)
	_, err := s.pgdb.NewInsert(m).Exec(ctx)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("permission %q: %w", p.Key, store.ErrDuplicate)
		}
		return fmt.Errorf("lectern/postgres: create permission: %w", err)
	}
	return nil
}

func (s *Store) GetPermission(ctx context.Context, permID id.PermissionID) (*permission.Permission, error) {
	m := new(permissionModel)
	err := s.pgdb.NewSelect(m).Where("id = ?", permID.String()).Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("permission %s: %w", permID, store.ErrNotFound)
		}
		return nil, fmt.Errorf("lectern/postgres: get permission: %w", err)
	}
	return permissionFromModel(m), nil
}

func (s *Store) GetPermissionByKey(ctx context.Context, key string) (*permission.Permission, error) {
	m := new(permissionModel)
	err := s.pgdb.NewSelect(m).Where("key = ?", key).Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("permission %q: %w", key, store.ErrNotFound)
		}
		return nil, fmt.Errorf("lectern/postgres: get permission by key: %w", err)
	}
	return permissionFromModel(m), nil
}

func (s *Store) UpdatePermission(ctx context.Context, p *permission.Permission) error {
	m := permissionToModel(p)
	_, err := s.pgdb.NewUpdate(m).WherePK().Exec(ctx)
	if err != nil {
		return fmt.Errorf("lectern/postgres: update permission: %w", err)
	}
	return nil
}

func (s *Store) DeletePermission(ctx context.Context, permID id.PermissionID) error {
	res, err := s.pgdb.NewDelete((*permissionModel)(nil)).
		Where("id = ?", permID.String()).Exec(ctx)
	if err != nil {
		return fmt.Errorf("lectern/postgres: delete permission: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("permission %s: %w", permID, store.ErrNotFound)
	}
	return nil
}

func (s *Store) ListPermissions(ctx context.Context, filter *permission.ListFilter) ([]*permission.Permission, error) {
	var models []permissionModel
	q := s.pgdb.NewSelect(&models).OrderExpr("key ASC")
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
		return nil, fmt.Errorf("lectern/postgres: list permissions: %w", err)
	}
	result := make([]*permission.Permission, len(models))
	for i := range models {
		result[i] = permissionFromModel(&models[i])
	}
	return result, nil
}

func (s *Store) CountPermissions(ctx context.Context, filter *permission.ListFilter) (int64, error) {
	q := s.pgdb.NewSelect((*permissionModel)(nil))
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
		return 0, fmt.Errorf("lectern/postgres: count permissions: %w", err)
	}
	return count, nil
}

// ──────────────────────────────────────────────────
// Resource operations
// ──────────────────────────────────────────────────

func (s *Store) CreateResource(ctx context.Context, r *resource.Resource) error {
	m := resourceToModel(r)
	_, err := s.pgdb.NewInsert(m).Exec(ctx)
	if err != nil {
		return fmt.Errorf("lectern/postgres: create resource: %w", err)
	}
	return nil
}

func (s *Store) GetResource(ctx context.Context, resID id.ResourceID) (*resource.Resource, error) {
	m := new(resourceModel)
	err := s.pgdb.NewSelect(m).Where("id = ?", resID.String()).Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("resource %s: %w", resID, store.ErrNotFound)
		}
		return nil, fmt.Errorf("lectern/postgres: get resource: %w", err)
	}
	return resourceFromModel(m), nil
}

func (s *Store) UpdateResource(ctx context.Context, r *resource.Resource) error {
	m := resourceToModel(r)
	_, err := s.pgdb.NewUpdate(m).WherePK().Exec(ctx)
	if err != nil {
		return fmt.Errorf("lectern/postgres: update resource: %w", err)
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
	_, err := s.pgdb.NewDelete((*resourceModel)(nil)).
		Where("id IN (?)", keys).Exec(ctx)
	if err != nil {
		return fmt.Errorf("lectern/postgres: delete resources: %w", err)
	}
	return nil
}

func (s *Store) ListResources(ctx context.Context, filter *resource.ListFilter) ([]*resource.Resource, error) {
	var models []resourceModel
	q := s.pgdb.NewSelect(&models).OrderExpr("created_at ASC")
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
		return nil, fmt.Errorf("lectern/postgres: list resources: %w", err)
	}
	result := make([]*resource.Resource, len(models))
	for i := range models {
		result[i] = resourceFromModel(&models[i])
	}
	return result, nil
}

func (s *Store) CountResources(ctx context.Context, filter *resource.ListFilter) (int64, error) {
	q := s.pgdb.NewSelect((*resourceModel)(nil))
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
		return 0, fmt.Errorf("lectern/postgres: count resources: %w", err)
	}
	return count, nil
}

func (s *Store) ListChildResources(ctx context.Context, parentID id.ResourceID) ([]*resource.Resource, error) {
	var models []resourceModel
	err := s.pgdb.NewSelect(&models).
		Where("parent_id = ?", parentID.String()).
		OrderExpr("id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("lectern/postgres: list child resources: %w", err)
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
	_, err := s.pgdb.NewInsert(m).Exec(ctx)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("assignment %s/%s: %w", a.UserID, a.RoleID, store.ErrDuplicate)
		}
		return fmt.Errorf("lectern/postgres: create assignment: %w", err)
	}
	return nil
}

func (s *Store) GetAssignment(ctx context.Context, asgnID id.AssignmentID) (*assignment.Assignment, error) {
	m := new(assignmentModel)
	err := s.pgdb.NewSelect(m).Where("id = ?", asgnID.String()).Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("assignment %s: %w", asgnID, store.ErrNotFound)
		}
		return nil, fmt.Errorf("lectern/postgres: get assignment: %w", err)
	}
	return assignmentFromModel(m), nil
}

func (s *Store) DeleteAssignment(ctx context.Context, asgnID id.AssignmentID) error {
	res, err := s.pgdb.NewDelete((*assignmentModel)(nil)).
		Where("id = ?", asgnID.String()).Exec(ctx)
	if err != nil {
		return fmt.Errorf("lectern/postgres: delete assignment: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("assignment %s: %w", asgnID, store.ErrNotFound)
	}
	return nil
}

func (s *Store) DeleteAssignmentByPair(ctx context.Context, userID string, roleID id.RoleID) error {
	res, err := s.pgdb.NewDelete((*assignmentModel)(nil)).
		Where("user_id = ?", userID).
		Where("role_id = ?", roleID.String()).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("lectern/postgres: delete assignment by pair: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("assignment %s/%s: %w", userID, roleID, store.ErrNotFound)
	}
	return nil
}

func (s *Store) ListAssignments(ctx context.Context, filter *assignment.ListFilter) ([]*assignment.Assignment, error) {
	var models []assignmentModel
	q := s.pgdb.NewSelect(&models).OrderExpr("created_at ASC")
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
		return nil, fmt.Errorf("lectern/postgres: list assignments: %w", err)
	}
	result := make([]*assignment.Assignment, len(models))
	for i := range models {
		result[i] = assignmentFromModel(&models[i])
	}
	return result, nil
}

func (s *Store) CountAssignments(ctx context.Context, filter *assignment.ListFilter) (int64, error) {
	q := s.pgdb.NewSelect((*assignmentModel)(nil))
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
		return 0, fmt.Errorf("lectern/postgres: count assignments: %w", err)
	}
	return count, nil
}

func (s *Store) ListRolesForUser(ctx context.Context, userID string, now time.Time) ([]id.RoleID, error) {
	var models []assignmentModel
	err := s.pgdb.NewSelect(&models).
		Where("user_id = ?", userID).
		Where("(expires_at IS NULL OR expires_at > ?)", now).
		OrderExpr("role_id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("lectern/postgres: list roles for user: %w", err)
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
	err := s.pgdb.NewSelect(&models).
		Where("role_id = ?", roleID.String()).
		OrderExpr("user_id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("lectern/postgres: list users for role: %w", err)
	}
	result := make([]*assignment.Assignment, len(models))
	for i := range models {
		result[i] = assignmentFromModel(&models[i])
	}
	return result, nil
}

func (s *Store) DeleteExpiredAssignments(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.pgdb.NewDelete((*assignmentModel)(nil)).
		Where("expires_at IS NOT NULL").
		Where("expires_at <= ?", now).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("lectern/postgres: delete expired assignments: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

func (s *Store) DeleteAssignmentsByUser(ctx context.Context, userID string) error {
	_, err := s.pgdb.NewDelete((*assignmentModel)(nil)).
		Where("user_id = ?", userID).Exec(ctx)
	if err != nil {
		return fmt.Errorf("lectern/postgres: delete assignments by user: %w", err)
	}
	return nil
}

func (s *Store) DeleteAssignmentsByRole(ctx context.Context, roleID id.RoleID) error {
	_, err := s.pgdb.NewDelete((*assignmentModel)(nil)).
		Where("role_id = ?", roleID.String()).Exec(ctx)
	if err != nil {
		return fmt.Errorf("lectern/postgres: delete assignments by role: %w", err)
	}
	return nil
}

// ──────────────────────────────────────────────────
// Grant operations
// ──────────────────────────────────────────────────

func (s *Store) CreateGrant(ctx context.Context, g *grant.Grant) error {
	m := grantToModel(g)
	_, err := s.pgdb.NewInsert(m).Exec(ctx)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("grant %s/%s/%s: %w", g.RoleID, g.ResourceID, g.PermissionID, store.ErrDuplicate)
		}
		return fmt.Errorf("lectern/postgres: create grant: %w", err)
	}
	return nil
}

func (s *Store) DeleteGrant(ctx context.Context, grantID id.GrantID) error {
	res, err := s.pgdb.NewDelete((*grantModel)(nil)).
		Where("id = ?", grantID.String()).Exec(ctx)
	if err != nil {
		return fmt.Errorf("lectern/postgres: delete grant: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("grant %s: %w", grantID, store.ErrNotFound)
	}
	return nil
}

func (s *Store) DeleteGrantByTriple(ctx context.Context, roleID id.RoleID, resID id.ResourceID, permID id.PermissionID) error {
	res, err := s.pgdb.NewDelete((*grantModel)(nil)).
		Where("role_id = ?", roleID.String()).
		Where("resource_id = ?", resID.String()).
		Where("permission_id = ?", permID.String()).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("lectern/postgres: delete grant by triple: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("grant %s/%s/%s: %w", roleID, resID, permID, store.ErrNotFound)
	}
	return nil
}

func (s *Store) HasGrant(ctx context.Context, roleID id.RoleID, resID id.ResourceID, permID id.PermissionID) (bool, error) {
	count, err := s.pgdb.NewSelect((*grantModel)(nil)).
		Where("role_id = ?", roleID.String()).
		Where("resource_id = ?", resID.String()).
		Where("permission_id = ?", permID.String()).
		Count(ctx)
	if err != nil {
		return false, fmt.Errorf("lectern/postgres: has grant: %w", err)
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
	err := s.pgdb.NewSelect(m).
		Where("resource_id = ?", resID.String()).
		Where("permission_id = ?", permID.String()).
		Where("role_id IN (?)", keys).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return id.RoleID{}, false, nil
		}
		return id.RoleID{}, false, fmt.Errorf("lectern/postgres: any grant: %w", err)
	}
	rid, err := id.ParseRoleID(m.RoleID)
	if err != nil {
		return id.RoleID{}, false, fmt.Errorf("lectern/postgres: any grant: %w", err)
	}
	return rid, true, nil
}

func (s *Store) ListGrants(ctx context.Context, filter *grant.ListFilter) ([]*grant.Grant, error) {
	var models []grantModel
	q := s.pgdb.NewSelect(&models).OrderExpr("created_at ASC")
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
		return nil, fmt.Errorf("lectern/postgres: list grants: %w", err)
	}
	result := make([]*grant.Grant, len(models))
	for i := range models {
		result[i] = grantFromModel(&models[i])
	}
	return result, nil
}

func (s *Store) CountGrants(ctx context.Context, filter *grant.ListFilter) (int64, error) {
	q := s.pgdb.NewSelect((*grantModel)(nil))
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
		return 0, fmt.Errorf("lectern/postgres: count grants: %w", err)
	}
	return count, nil
}

func (s *Store) DeleteGrantsByRole(ctx context.Context, roleID id.RoleID) error {
	_, err := s.pgdb.NewDelete((*grantModel)(nil)).
		Where("role_id = ?", roleID.String()).Exec(ctx)
	if err != nil {
		return fmt.Errorf("lectern/postgres: delete grants by role: %w", err)
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
	_, err := s.pgdb.NewDelete((*grantModel)(nil)).
		Where("resource_id IN (?)", keys).Exec(ctx)
	if err != nil {
		return fmt.Errorf("lectern/postgres: delete grants by resources: %w", err)
	}
	return nil
}

func (s *Store) DeleteGrantsByPermission(ctx context.Context, permID id.PermissionID) error {
	_, err := s.pgdb.NewDelete((*grantModel)(nil)).
		Where("permission_id = ?", permID.String()).Exec(ctx)
	if err != nil {
		return fmt.Errorf("lectern/postgres: delete grants by permission: %w", err)
	}
	return nil
}

// ──────────────────────────────────────────────────
// Decision log operations
// ──────────────────────────────────────────────────

func (s *Store) CreateDecisionLog(ctx context.Context, e *decisionlog.Entry) error {
	m := decisionLogToModel(e)
	_, err := s.pgdb.NewInsert(m).Exec(ctx)
	if err != nil {
		return fmt.Errorf("lectern/postgres: create decision log: %w", err)
	}
	return nil
}

func (s *Store) GetDecisionLog(ctx context.Context, logID id.DecisionLogID) (*decisionlog.Entry, error) {
	m := new(decisionLogModel)
	err := s.pgdb.NewSelect(m).Where("id = ?", logID.String()).Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("decision log %s: %w", logID, store.ErrNotFound)
		}
		return nil, fmt.Errorf("lectern/postgres: get decision log: %w", err)
	}
	return decisionLogFromModel(m), nil
}

func (s *Store) ListDecisionLogs(ctx context.Context, filter *decisionlog.QueryFilter) ([]*decisionlog.Entry, error) {
	var models []decisionLogModel
	q := s.pgdb.NewSelect(&models).OrderExpr("created_at ASC")
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
		return nil, fmt.Errorf("lectern/postgres: list decision logs: %w", err)
	}
	result := make([]*decisionlog.Entry, len(models))
	for i := range models {
		result[i] = decisionLogFromModel(&models[i])
	}
	return result, nil
}

func (s *Store) CountDecisionLogs(ctx context.Context, filter *decisionlog.QueryFilter) (int64, error) {
	q := s.pgdb.NewSelect((*decisionLogModel)(nil))
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
		return 0, fmt.Errorf("lectern/postgres: count decision logs: %w", err)
	}
	return count, nil
}

func (s *Store) PurgeDecisionLogs(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.pgdb.NewDelete((*decisionLogModel)(nil)).
		Where("created_at < ?", before).Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("lectern/postgres: purge decision logs: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
