// Package memory provides an in-memory implementation of the Lectern
// composite store. It is intended for testing and development.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/lecternhq/lectern/assignment"
	"github.com/lecternhq/lectern/decisionlog"
	"github.com/lecternhq/lectern/grant"
	"github.com/lecternhq/lectern/id"
	"github.com/lecternhq/lectern/permission"
	"github.com/lecternhq/lectern/resource"
	"github.com/lecternhq/lectern/role"
	"github.com/lecternhq/lectern/store"
)

// Compile-time interface checks.
var (
	_ role.Store        = (*Store)(nil)
	_ permission.Store  = (*Store)(nil)
	_ resource.Store    = (*Store)(nil)
	_ assignment.Store  = (*Store)(nil)
	_ grant.Store       = (*Store)(nil)
	_ decisionlog.Store = (*Store)(nil)
	_ store.Store       = (*Store)(nil)
)

// Store is a thread-safe in-memory store for all Lectern entities.
type Store struct {
	mu sync.RWMutex

	roles       map[string]*role.Role
	stances     map[string]map[string]bool // roleID -> permID -> allow
	permissions map[string]*permission.Permission
	resources   map[string]*resource.Resource
	children    map[string]map[string]struct{} // parentID -> set of child IDs
	assignments map[string]*assignment.Assignment
	grants      map[string]*grant.Grant
	grantIndex  map[string]string // roleID|resID|permID -> grant ID
	logs        map[string]*decisionlog.Entry
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		roles:       make(map[string]*role.Role),
		stances:     make(map[string]map[string]bool),
		permissions: make(map[string]*permission.Permission),
		resources:   make(map[string]*resource.Resource),
		children:    make(map[string]map[string]struct{}),
		assignments: make(map[string]*assignment.Assignment),
		grants:      make(map[string]*grant.Grant),
		grantIndex:  make(map[string]string),
		logs:        make(map[string]*decisionlog.Entry),
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
		if existing.Slug != "" && existing.Slug == r.Slug {
			return fmt.Errorf("role slug %q: %w", r.Slug, store.ErrDuplicate)
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

func (s *Store) GetRoleBySlug(_ context.Context, slug string) (*role.Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.roles {
		if r.Slug == slug {
			return copyRole(r), nil
		}
	}
	return nil, fmt.Errorf("role slug %q: %w", slug, store.ErrNotFound)
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
	if _, ok := s.roles[roleID.String()]; !ok {
		return fmt.Errorf("role %s: %w", roleID, store.ErrNotFound)
	}
	delete(s.roles, roleID.String())
	delete(s.stances, roleID.String())
	return nil
}

func (s *Store) ListRoles(_ context.Context, filter *role.ListFilter) ([]*role.Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*role.Role, 0, len(s.roles))
	for _, r := range s.roles {
		if !matchRole(r, filter) {
			continue
		}
		result = append(result, copyRole(r))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	limit, offset := 0, 0
	if filter != nil {
		limit, offset = filter.Limit, filter.Offset
	}
	return paginate(result, limit, offset), nil
}

func (s *Store) CountRoles(_ context.Context, filter *role.ListFilter) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	for _, r := range s.roles {
		if matchRole(r, filter) {
			n++
		}
	}
	return n, nil
}

func (s *Store) SetDefaultStance(_ context.Context, roleID id.RoleID, permID id.PermissionID, allow bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.roles[roleID.String()]; !ok {
		return fmt.Errorf("role %s: %w", roleID, store.ErrNotFound)
	}
	m, ok := s.stances[roleID.String()]
	if !ok {
		m = make(map[string]bool)
		s.stances[roleID.String()] = m
	}
	m[permID.String()] = allow
	return nil
}

func (s *Store) ClearDefaultStance(_ context.Context, roleID id.RoleID, permID id.PermissionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m, ok := s.stances[roleID.String()]; ok {
		delete(m, permID.String())
	}
	return nil
}

func (s *Store) DefaultStance(_ context.Context, roleID id.RoleID, permID id.PermissionID) (role.Stance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.stances[roleID.String()]
	if !ok {
		return role.Unset, nil
	}
	allow, ok := m[permID.String()]
	if !ok {
		return role.Unset, nil
	}
	return role.StanceFromAllow(allow), nil
}

func (s *Store) ListDefaultStances(_ context.Context, roleID id.RoleID) ([]*role.DefaultStance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m := s.stances[roleID.String()]
	result := make([]*role.DefaultStance, 0, len(m))
	for permKey, allow := range m {
		permID, err := id.ParsePermissionID(permKey)
		if err != nil {
			continue
		}
		result = append(result, &role.DefaultStance{
			RoleID:       roleID,
			PermissionID: permID,
			Allow:        allow,
		})
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].PermissionID.String() < result[j].PermissionID.String()
	})
	return result, nil
}

func (s *Store) DeleteStancesByPermission(_ context.Context, permID id.PermissionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.stances {
		delete(m, permID.String())
	}
	return nil
}

// ──────────────────────────────────────────────────
// Permission Store
// ──────────────────────────────────────────────────

func (s *Store) CreatePermission(_ context.Context, p *permission.Permission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.permissions {
		if existing.Key == p.Key {
			return fmt.Errorf("permission %q: %w", p.Key, store.ErrDuplicate)
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

func (s *Store) GetPermissionByKey(_ context.Context, key string) (*permission.Permission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.permissions {
		if p.Key == key {
			return copyPermission(p), nil
		}
	}
	return nil, fmt.Errorf("permission %q: %w", key, store.ErrNotFound)
}

func (s *Store) UpdatePermission(_ context.Context, p *permission.Permission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.permissions[p.ID.String()]; !ok {
		return fmt.Errorf("permission %s: %w", p.ID, store.ErrNotFound)
	}
	s.permissions[p.ID.String()] = copyPermission(p)
	return nil
}

func (s *Store) DeletePermission(_ context.Context, permID id.PermissionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.permissions[permID.String()]; !ok {
		return fmt.Errorf("permission %s: %w", permID, store.ErrNotFound)
	}
	delete(s.permissions, permID.String())
	return nil
}

func (s *Store) ListPermissions(_ context.Context, filter *permission.ListFilter) ([]*permission.Permission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*permission.Permission, 0, len(s.permissions))
	for _, p := range s.permissions {
		if !matchPermission(p, filter) {
			continue
		}
		result = append(result, copyPermission(p))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Key < result[j].Key })
	limit, offset := 0, 0
	if filter != nil {
		limit, offset = filter.Limit, filter.Offset
	}
	return paginate(result, limit, offset), nil
}

func (s *Store) CountPermissions(_ context.Context, filter *permission.ListFilter) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	for _, p := range s.permissions {
		if matchPermission(p, filter) {
			n++
		}
	}
	return n, nil
}

// ──────────────────────────────────────────────────
// Resource Store
// ──────────────────────────────────────────────────

func (s *Store) CreateResource(_ context.Context, r *resource.Resource) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resources[r.ID.String()] = copyResource(r)
	if r.ParentID != nil && !r.ParentID.IsNil() {
		s.addChild(r.ParentID.String(), r.ID.String())
	}
	return nil
}

func (s *Store) GetResource(_ context.Context, resID id.ResourceID) (*resource.Resource, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.resources[resID.String()]
	if !ok {
		return nil, fmt.Errorf("resource %s: %w", resID, store.ErrNotFound)
	}
	return copyResource(r), nil
}

func (s *Store) UpdateResource(_ context.Context, r *resource.Resource) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.resources[r.ID.String()]
	if !ok {
		return fmt.Errorf("resource %s: %w", r.ID, store.ErrNotFound)
	}
	s.reindexParent(old, r.ParentID)
	s.resources[r.ID.String()] = copyResource(r)
	return nil
}

func (s *Store) SetResourceParent(_ context.Context, resID id.ResourceID, parentID *id.ResourceID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.resources[resID.String()]
	if !ok {
		return fmt.Errorf("resource %s: %w", resID, store.ErrNotFound)
	}
	s.reindexParent(r, parentID)
	if parentID == nil || parentID.IsNil() {
		r.ParentID = nil
	} else {
		pid := *parentID
		r.ParentID = &pid
	}
	r.UpdatedAt = time.Now()
	return nil
}

func (s *Store) DeleteResources(_ context.Context, resIDs []id.ResourceID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, resID := range resIDs {
		key := resID.String()
		r, ok := s.resources[key]
		if !ok {
			continue
		}
		if r.ParentID != nil {
			s.removeChild(r.ParentID.String(), key)
		}
		delete(s.resources, key)
		delete(s.children, key)
	}
	return nil
}

func (s *Store) ListResources(_ context.Context, filter *resource.ListFilter) ([]*resource.Resource, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*resource.Resource, 0, len(s.resources))
	for _, r := range s.resources {
		if !matchResource(r, filter) {
			continue
		}
		result = append(result, copyResource(r))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	limit, offset := 0, 0
	if filter != nil {
		limit, offset = filter.Limit, filter.Offset
	}
	return paginate(result, limit, offset), nil
}

func (s *Store) CountResources(_ context.Context, filter *resource.ListFilter) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	for _, r := range s.resources {
		if matchResource(r, filter) {
			n++
		}
	}
	return n, nil
}

func (s *Store) ListChildResources(_ context.Context, parentID id.ResourceID) ([]*resource.Resource, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	set := s.children[parentID.String()]
	result := make([]*resource.Resource, 0, len(set))
	for childKey := range set {
		if r, ok := s.resources[childKey]; ok {
			result = append(result, copyResource(r))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID.String() < result[j].ID.String() })
	return result, nil
}

func (s *Store) addChild(parentKey, childKey string) {
	set, ok := s.children[parentKey]
	if !ok {
		set = make(map[string]struct{})
		s.children[parentKey] = set
	}
	set[childKey] = struct{}{}
}

func (s *Store) removeChild(parentKey, childKey string) {
	if set, ok := s.children[parentKey]; ok {
		delete(set, childKey)
	}
}

// reindexParent moves the child-index entry for r to the new parent.
// Callers hold the write lock.
func (s *Store) reindexParent(r *resource.Resource, newParent *id.ResourceID) {
	if r.ParentID != nil {
		s.removeChild(r.ParentID.String(), r.ID.String())
	}
	if newParent != nil && !newParent.IsNil() {
		s.addChild(newParent.String(), r.ID.String())
	}
}

// ──────────────────────────────────────────────────
// Assignment Store
// ──────────────────────────────────────────────────

func (s *Store) CreateAssignment(_ context.Context, a *assignment.Assignment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.assignments {
		if existing.UserID == a.UserID && existing.RoleID.String() == a.RoleID.String() {
			return fmt.Errorf("assignment %s/%s: %w", a.UserID, a.RoleID, store.ErrDuplicate)
		}
	}
	s.assignments[a.ID.String()] = copyAssignment(a)
	return nil
}

func (s *Store) GetAssignment(_ context.Context, asgnID id.AssignmentID) (*assignment.Assignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.assignments[asgnID.String()]
	if !ok {
		return nil, fmt.Errorf("assignment %s: %w", asgnID, store.ErrNotFound)
	}
	return copyAssignment(a), nil
}

func (s *Store) DeleteAssignment(_ context.Context, asgnID id.AssignmentID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.assignments[asgnID.String()]; !ok {
		return fmt.Errorf("assignment %s: %w", asgnID, store.ErrNotFound)
	}
	delete(s.assignments, asgnID.String())
	return nil
}

func (s *Store) DeleteAssignmentByPair(_ context.Context, userID string, roleID id.RoleID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, a := range s.assignments {
		if a.UserID == userID && a.RoleID.String() == roleID.String() {
			delete(s.assignments, key)
			return nil
		}
	}
	return fmt.Errorf("assignment %s/%s: %w", userID, roleID, store.ErrNotFound)
}

func (s *Store) ListAssignments(_ context.Context, filter *assignment.ListFilter) ([]*assignment.Assignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*assignment.Assignment, 0, len(s.assignments))
	for _, a := range s.assignments {
		if !matchAssignment(a, filter) {
			continue
		}
		result = append(result, copyAssignment(a))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	limit, offset := 0, 0
	if filter != nil {
		limit, offset = filter.Limit, filter.Offset
	}
	return paginate(result, limit, offset), nil
}

func (s *Store) CountAssignments(_ context.Context, filter *assignment.ListFilter) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	for _, a := range s.assignments {
		if matchAssignment(a, filter) {
			n++
		}
	}
	return n, nil
}

func (s *Store) ListRolesForUser(_ context.Context, userID string, now time.Time) ([]id.RoleID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var roles []id.RoleID
	for _, a := range s.assignments {
		if a.UserID != userID || a.Expired(now) {
			continue
		}
		roles = append(roles, a.RoleID)
	}
	sort.Slice(roles, func(i, j int) bool { return roles[i].String() < roles[j].String() })
	return roles, nil
}

func (s *Store) ListUsersForRole(_ context.Context, roleID id.RoleID) ([]*assignment.Assignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []*assignment.Assignment
	for _, a := range s.assignments {
		if a.RoleID.String() == roleID.String() {
			result = append(result, copyAssignment(a))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].UserID < result[j].UserID })
	return result, nil
}

func (s *Store) DeleteExpiredAssignments(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for key, a := range s.assignments {
		if a.Expired(now) {
			delete(s.assignments, key)
			n++
		}
	}
	return n, nil
}

func (s *Store) DeleteAssignmentsByUser(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, a := range s.assignments {
		if a.UserID == userID {
			delete(s.assignments, key)
		}
	}
	return nil
}

func (s *Store) DeleteAssignmentsByRole(_ context.Context, roleID id.RoleID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, a := range s.assignments {
		if a.RoleID.String() == roleID.String() {
			delete(s.assignments, key)
		}
	}
	return nil
}

// ──────────────────────────────────────────────────
// Grant Store
// ──────────────────────────────────────────────────

func tripleKey(roleID id.RoleID, resID id.ResourceID, permID id.PermissionID) string {
	return roleID.String() + "|" + resID.String() + "|" + permID.String()
}

func (s *Store) CreateGrant(_ context.Context, g *grant.Grant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := tripleKey(g.RoleID, g.ResourceID, g.PermissionID)
	if _, ok := s.grantIndex[key]; ok {
		return fmt.Errorf("grant %s: %w", key, store.ErrDuplicate)
	}
	s.grants[g.ID.String()] = copyGrant(g)
	s.grantIndex[key] = g.ID.String()
	return nil
}

func (s *Store) DeleteGrant(_ context.Context, grantID id.GrantID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.grants[grantID.String()]
	if !ok {
		return fmt.Errorf("grant %s: %w", grantID, store.ErrNotFound)
	}
	delete(s.grantIndex, tripleKey(g.RoleID, g.ResourceID, g.PermissionID))
	delete(s.grants, grantID.String())
	return nil
}

func (s *Store) DeleteGrantByTriple(_ context.Context, roleID id.RoleID, resID id.ResourceID, permID id.PermissionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := tripleKey(roleID, resID, permID)
	grantID, ok := s.grantIndex[key]
	if !ok {
		return fmt.Errorf("grant %s: %w", key, store.ErrNotFound)
	}
	delete(s.grantIndex, key)
	delete(s.grants, grantID)
	return nil
}

func (s *Store) HasGrant(_ context.Context, roleID id.RoleID, resID id.ResourceID, permID id.PermissionID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.grantIndex[tripleKey(roleID, resID, permID)]
	return ok, nil
}

func (s *Store) AnyGrant(_ context.Context, roleIDs []id.RoleID, resID id.ResourceID, permID id.PermissionID) (id.RoleID, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, roleID := range roleIDs {
		if _, ok := s.grantIndex[tripleKey(roleID, resID, permID)]; ok {
			return roleID, true, nil
		}
	}
	return id.RoleID{}, false, nil
}

func (s *Store) ListGrants(_ context.Context, filter *grant.ListFilter) ([]*grant.Grant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*grant.Grant, 0, len(s.grants))
	for _, g := range s.grants {
		if !matchGrant(g, filter) {
			continue
		}
		result = append(result, copyGrant(g))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	limit, offset := 0, 0
	if filter != nil {
		limit, offset = filter.Limit, filter.Offset
	}
	return paginate(result, limit, offset), nil
}

func (s *Store) CountGrants(_ context.Context, filter *grant.ListFilter) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	for _, g := range s.grants {
		if matchGrant(g, filter) {
			n++
		}
	}
	return n, nil
}

func (s *Store) DeleteGrantsByRole(_ context.Context, roleID id.RoleID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, g := range s.grants {
		if g.RoleID.String() == roleID.String() {
			delete(s.grantIndex, tripleKey(g.RoleID, g.ResourceID, g.PermissionID))
			delete(s.grants, key)
		}
	}
	return nil
}

func (s *Store) DeleteGrantsByResources(_ context.Context, resIDs []id.ResourceID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doomed := make(map[string]struct{}, len(resIDs))
	for _, resID := range resIDs {
		doomed[resID.String()] = struct{}{}
	}
	for key, g := range s.grants {
		if _, ok := doomed[g.ResourceID.String()]; ok {
			delete(s.grantIndex, tripleKey(g.RoleID, g.ResourceID, g.PermissionID))
			delete(s.grants, key)
		}
	}
	return nil
}

func (s *Store) DeleteGrantsByPermission(_ context.Context, permID id.PermissionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, g := range s.grants {
		if g.PermissionID.String() == permID.String() {
			delete(s.grantIndex, tripleKey(g.RoleID, g.ResourceID, g.PermissionID))
			delete(s.grants, key)
		}
	}
	return nil
}

// ──────────────────────────────────────────────────
// Decision Log Store
// ──────────────────────────────────────────────────

func (s *Store) CreateDecisionLog(_ context.Context, e *decisionlog.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs[e.ID.String()] = copyLog(e)
	return nil
}

func (s *Store) GetDecisionLog(_ context.Context, logID id.DecisionLogID) (*decisionlog.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.logs[logID.String()]
	if !ok {
		return nil, fmt.Errorf("decision log %s: %w", logID, store.ErrNotFound)
	}
	return copyLog(e), nil
}

func (s *Store) ListDecisionLogs(_ context.Context, filter *decisionlog.QueryFilter) ([]*decisionlog.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*decisionlog.Entry, 0, len(s.logs))
	for _, e := range s.logs {
		if !matchLog(e, filter) {
			continue
		}
		result = append(result, copyLog(e))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	limit, offset := 0, 0
	if filter != nil {
		limit, offset = filter.Limit, filter.Offset
	}
	return paginate(result, limit, offset), nil
}

func (s *Store) CountDecisionLogs(_ context.Context, filter *decisionlog.QueryFilter) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	for _, e := range s.logs {
		if matchLog(e, filter) {
			n++
		}
	}
	return n, nil
}

func (s *Store) PurgeDecisionLogs(_ context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for key, e := range s.logs {
		if e.CreatedAt.Before(before) {
			delete(s.logs, key)
			n++
		}
	}
	return n, nil
}

// ──────────────────────────────────────────────────
// Filters and helpers
// ──────────────────────────────────────────────────

func paginate[T any](items []T, limit, offset int) []T {
	if offset > 0 {
		if offset >= len(items) {
			return nil
		}
		items = items[offset:]
	}
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

func matchRole(r *role.Role, f *role.ListFilter) bool {
	if f == nil {
		return true
	}
	if f.IsSystem != nil && r.IsSystem != *f.IsSystem {
		return false
	}
	if f.Search != "" && !strings.Contains(strings.ToLower(r.Name), strings.ToLower(f.Search)) &&
		!strings.Contains(strings.ToLower(r.Slug), strings.ToLower(f.Search)) {
		return false
	}
	return true
}

func matchPermission(p *permission.Permission, f *permission.ListFilter) bool {
	if f == nil {
		return true
	}
	if f.IsSystem != nil && p.IsSystem != *f.IsSystem {
		return false
	}
	if f.Search != "" && !strings.Contains(strings.ToLower(p.Key), strings.ToLower(f.Search)) {
		return false
	}
	return true
}

func matchResource(r *resource.Resource, f *resource.ListFilter) bool {
	if f == nil {
		return true
	}
	if f.Kind != "" && r.Kind != f.Kind {
		return false
	}
	if f.ParentID != nil {
		if r.ParentID == nil || r.ParentID.String() != f.ParentID.String() {
			return false
		}
	}
	if f.Search != "" && !strings.Contains(strings.ToLower(r.Name), strings.ToLower(f.Search)) {
		return false
	}
	return true
}

func matchAssignment(a *assignment.Assignment, f *assignment.ListFilter) bool {
	if f == nil {
		return true
	}
	if f.UserID != "" && a.UserID != f.UserID {
		return false
	}
	if f.RoleID != nil && a.RoleID.String() != f.RoleID.String() {
		return false
	}
	return true
}

func matchGrant(g *grant.Grant, f *grant.ListFilter) bool {
	if f == nil {
		return true
	}
	if f.RoleID != nil && g.RoleID.String() != f.RoleID.String() {
		return false
	}
	if f.ResourceID != nil && g.ResourceID.String() != f.ResourceID.String() {
		return false
	}
	if f.PermissionID != nil && g.PermissionID.String() != f.PermissionID.String() {
		return false
	}
	return true
}

func matchLog(e *decisionlog.Entry, f *decisionlog.QueryFilter) bool {
	if f == nil {
		return true
	}
	if f.UserID != "" && e.UserID != f.UserID {
		return false
	}
	if f.Permission != "" && e.Permission != f.Permission {
		return false
	}
	if f.ResourceID != "" && e.ResourceID != f.ResourceID {
		return false
	}
	if f.Allowed != nil && e.Allowed != *f.Allowed {
		return false
	}
	if f.Rule != "" && e.Rule != f.Rule {
		return false
	}
	if f.After != nil && !e.CreatedAt.After(*f.After) {
		return false
	}
	if f.Before != nil && !e.CreatedAt.Before(*f.Before) {
		return false
	}
	return true
}

func copyRole(r *role.Role) *role.Role {
	out := *r
	if r.Metadata != nil {
		out.Metadata = make(map[string]any, len(r.Metadata))
		for k, v := range r.Metadata {
			out.Metadata[k] = v
		}
	}
	return &out
}

func copyPermission(p *permission.Permission) *permission.Permission {
	out := *p
	return &out
}

func copyResource(r *resource.Resource) *resource.Resource {
	out := *r
	if r.ParentID != nil {
		pid := *r.ParentID
		out.ParentID = &pid
	}
	if r.Metadata != nil {
		out.Metadata = make(map[string]any, len(r.Metadata))
		for k, v := range r.Metadata {
			out.Metadata[k] = v
		}
	}
	return &out
}

func copyAssignment(a *assignment.Assignment) *assignment.Assignment {
	out := *a
	if a.ExpiresAt != nil {
		t := *a.ExpiresAt
		out.ExpiresAt = &t
	}
	return &out
}

func copyGrant(g *grant.Grant) *grant.Grant {
	out := *g
	return &out
}

func copyLog(e *decisionlog.Entry) *decisionlog.Entry {
	out := *e
	return &out
}
