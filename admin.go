package lectern

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lecternhq/lectern/assignment"
	"github.com/lecternhq/lectern/grant"
	"github.com/lecternhq/lectern/id"
	"github.com/lecternhq/lectern/permission"
	"github.com/lecternhq/lectern/resource"
	"github.com/lecternhq/lectern/role"
	"github.com/lecternhq/lectern/store"
)

// Administrative mutations. Every write that can change a resolution
// outcome invalidates the affected cache entries before returning, so a
// resolve issued after a mutation commits never sees the old answer.

// ──────────────────────────────────────────────────
// Grants
// ──────────────────────────────────────────────────

// Grant records an explicit grant of a permission to a role on a resource
// node. The grant covers the node and, by inheritance, its whole subtree.
func (e *Engine) Grant(ctx context.Context, roleID id.RoleID, resID id.ResourceID, permID id.PermissionID, grantedBy string) (*grant.Grant, error) {
	if _, err := e.store.GetRole(ctx, roleID); err != nil {
		return nil, e.mapStoreErr(err, ErrRoleNotFound)
	}
	if _, err := e.store.GetResource(ctx, resID); err != nil {
		return nil, e.mapStoreErr(err, ErrResourceNotFound)
	}
	if _, err := e.store.GetPermission(ctx, permID); err != nil {
		return nil, e.mapStoreErr(err, ErrPermissionNotFound)
	}

	g := &grant.Grant{
		ID:           id.NewGrantID(),
		RoleID:       roleID,
		ResourceID:   resID,
		PermissionID: permID,
		GrantedBy:    grantedBy,
		CreatedAt:    e.now(),
	}
	if err := e.store.CreateGrant(ctx, g); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, ErrDuplicateGrant
		}
		return nil, fmt.Errorf("%w: create grant: %v", ErrStoreUnavailable, err)
	}

	// The new grant can flip any cached decision whose walk crossed this
	// node, i.e. the node itself and everything below it.
	e.invalidateResources(ctx, resID)
	if e.plugins != nil {
		e.plugins.EmitGrantCreated(ctx, g)
	}
	return g, nil
}

// Revoke removes an explicit grant identified by its triple.
func (e *Engine) Revoke(ctx context.Context, roleID id.RoleID, resID id.ResourceID, permID id.PermissionID) error {
	if err := e.store.DeleteGrantByTriple(ctx, roleID, resID, permID); err != nil {
		return e.mapStoreErr(err, ErrGrantNotFound)
	}
	e.invalidateResources(ctx, resID)
	if e.plugins != nil {
		e.plugins.EmitGrantRevoked(ctx, roleID, resID, permID)
	}
	return nil
}

// ──────────────────────────────────────────────────
// Default stances
// ──────────────────────────────────────────────────

// SetDefault sets a role's default stance on a permission key.
func (e *Engine) SetDefault(ctx context.Context, roleID id.RoleID, permKey string, allow bool) error {
	if _, err := e.store.GetRole(ctx, roleID); err != nil {
		return e.mapStoreErr(err, ErrRoleNotFound)
	}
	perm, err := e.store.GetPermissionByKey(ctx, permKey)
	if err != nil {
		return e.mapStoreErr(err, ErrUnknownPermission)
	}
	if err := e.store.SetDefaultStance(ctx, roleID, perm.ID, allow); err != nil {
		return fmt.Errorf("%w: set default stance: %v", ErrStoreUnavailable, err)
	}

	// A stance change affects every user holding the role on every
	// resource. There is no resource anchor to target, so evict by
	// permission key: coarse but safe.
	e.invalidatePermission(ctx, permKey)
	if e.plugins != nil {
		e.plugins.EmitStanceSet(ctx, roleID, perm.ID, allow)
	}
	return nil
}

// ClearDefault removes a role's default stance on a permission key,
// returning it to Unset. Clearing an absent stance is a no-op.
func (e *Engine) ClearDefault(ctx context.Context, roleID id.RoleID, permKey string) error {
	perm, err := e.store.GetPermissionByKey(ctx, permKey)
	if err != nil {
		return e.mapStoreErr(err, ErrUnknownPermission)
	}
	if err := e.store.ClearDefaultStance(ctx, roleID, perm.ID); err != nil {
		return fmt.Errorf("%w: clear default stance: %v", ErrStoreUnavailable, err)
	}
	e.invalidatePermission(ctx, permKey)
	if e.plugins != nil {
		e.plugins.EmitStanceCleared(ctx, roleID, perm.ID)
	}
	return nil
}

// ──────────────────────────────────────────────────
// Assignments
// ──────────────────────────────────────────────────

// AssignRole assigns a role to a user, optionally with an expiry.
func (e *Engine) AssignRole(ctx context.Context, userID string, roleID id.RoleID, grantedBy string, expiresAt *time.Time) (*assignment.Assignment, error) {
	if userID == "" {
		return nil, errors.New("lectern: user id is required")
	}
	if _, err := e.store.GetRole(ctx, roleID); err != nil {
		return nil, e.mapStoreErr(err, ErrRoleNotFound)
	}

	a := &assignment.Assignment{
		ID:        id.NewAssignmentID(),
		UserID:    userID,
		RoleID:    roleID,
		GrantedBy: grantedBy,
		ExpiresAt: expiresAt,
		CreatedAt: e.now(),
	}
	if err := e.store.CreateAssignment(ctx, a); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, ErrDuplicateAssignment
		}
		return nil, fmt.Errorf("%w: create assignment: %v", ErrStoreUnavailable, err)
	}

	e.invalidateUser(ctx, userID)
	if e.plugins != nil {
		e.plugins.EmitRoleAssigned(ctx, a)
	}
	return a, nil
}

// UnassignRole removes a user's role assignment.
func (e *Engine) UnassignRole(ctx context.Context, userID string, roleID id.RoleID) error {
	if err := e.store.DeleteAssignmentByPair(ctx, userID, roleID); err != nil {
		return e.mapStoreErr(err, ErrAssignmentNotFound)
	}
	e.invalidateUser(ctx, userID)
	if e.plugins != nil {
		e.plugins.EmitRoleUnassigned(ctx, userID, roleID)
	}
	return nil
}

// PurgeExpiredAssignments deletes assignment rows whose expiry has passed.
// Reads already exclude expired assignments, so this is housekeeping only
// and needs no cache invalidation.
func (e *Engine) PurgeExpiredAssignments(ctx context.Context) (int64, error) {
	n, err := e.store.DeleteExpiredAssignments(ctx, e.now())
	if err != nil {
		return 0, fmt.Errorf("%w: purge expired assignments: %v", ErrStoreUnavailable, err)
	}
	return n, nil
}

// ──────────────────────────────────────────────────
// Roles
// ──────────────────────────────────────────────────

// CreateRole creates a role. ID and timestamps are filled in when empty.
func (e *Engine) CreateRole(ctx context.Context, r *role.Role) error {
	if r.Name == "" {
		return errors.New("lectern: role name is required")
	}
	if r.ID.IsNil() {
		r.ID = id.NewRoleID()
	}
	now := e.now()
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}
	r.UpdatedAt = now

	if err := e.store.CreateRole(ctx, r); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return fmt.Errorf("lectern: role %q: %w", r.Slug, store.ErrDuplicate)
		}
		return fmt.Errorf("%w: create role: %v", ErrStoreUnavailable, err)
	}
	if e.plugins != nil {
		e.plugins.EmitRoleCreated(ctx, r)
	}
	return nil
}

// UpdateRole persists changes to a role's descriptive fields. System roles
// are immutable. Name, description, and metadata never influence a
// resolution, so no cache invalidation is needed.
func (e *Engine) UpdateRole(ctx context.Context, r *role.Role) error {
	existing, err := e.store.GetRole(ctx, r.ID)
	if err != nil {
		return e.mapStoreErr(err, ErrRoleNotFound)
	}
	if existing.IsSystem {
		return ErrSystemRoleImmutable
	}
	r.UpdatedAt = e.now()

	if err := e.store.UpdateRole(ctx, r); err != nil {
		return e.mapStoreErr(err, ErrRoleNotFound)
	}
	return nil
}

// DeleteRole deletes a role and cascades its stances, grants, and
// assignments. System roles cannot be deleted.
func (e *Engine) DeleteRole(ctx context.Context, roleID id.RoleID) error {
	r, err := e.store.GetRole(ctx, roleID)
	if err != nil {
		return e.mapStoreErr(err, ErrRoleNotFound)
	}
	if r.IsSystem {
		return ErrSystemRoleImmutable
	}

	if err := e.store.DeleteGrantsByRole(ctx, roleID); err != nil {
		return fmt.Errorf("%w: cascade grants: %v", ErrStoreUnavailable, err)
	}
	if err := e.store.DeleteAssignmentsByRole(ctx, roleID); err != nil {
		return fmt.Errorf("%w: cascade assignments: %v", ErrStoreUnavailable, err)
	}
	if err := e.store.DeleteRole(ctx, roleID); err != nil {
		return e.mapStoreErr(err, ErrRoleNotFound)
	}

	// The role's grants and stances could have decided any cached entry,
	// and entries carry no role provenance. Drop everything.
	e.purgeCache(ctx)
	if e.plugins != nil {
		e.plugins.EmitRoleDeleted(ctx, roleID)
	}
	return nil
}

// ──────────────────────────────────────────────────
// Permissions
// ──────────────────────────────────────────────────

// CreatePermission adds a permission key to the catalog.
func (e *Engine) CreatePermission(ctx context.Context, p *permission.Permission) error {
	if p.Key == "" {
		return errors.New("lectern: permission key is required")
	}
	if p.ID.IsNil() {
		p.ID = id.NewPermissionID()
	}
	now := e.now()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now

	if err := e.store.CreatePermission(ctx, p); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return fmt.Errorf("lectern: permission %q: %w", p.Key, store.ErrDuplicate)
		}
		return fmt.Errorf("%w: create permission: %v", ErrStoreUnavailable, err)
	}
	if e.plugins != nil {
		e.plugins.EmitPermissionCreated(ctx, p)
	}
	return nil
}

// DeletePermission removes a permission from the catalog and cascades its
// grants and stances. Seeded system permissions cannot be deleted.
func (e *Engine) DeletePermission(ctx context.Context, permID id.PermissionID) error {
	p, err := e.store.GetPermission(ctx, permID)
	if err != nil {
		return e.mapStoreErr(err, ErrPermissionNotFound)
	}
	if p.IsSystem {
		return ErrSystemPermissionImmutable
	}

	if err := e.store.DeleteGrantsByPermission(ctx, permID); err != nil {
		return fmt.Errorf("%w: cascade grants: %v", ErrStoreUnavailable, err)
	}
	if err := e.store.DeleteStancesByPermission(ctx, permID); err != nil {
		return fmt.Errorf("%w: cascade stances: %v", ErrStoreUnavailable, err)
	}
	if err := e.store.DeletePermission(ctx, permID); err != nil {
		return e.mapStoreErr(err, ErrPermissionNotFound)
	}

	e.invalidatePermission(ctx, p.Key)
	if e.plugins != nil {
		e.plugins.EmitPermissionDeleted(ctx, permID)
	}
	return nil
}

// SeedCatalog inserts the canonical permission keys (read, write, delete,
// manage_roles) as system permissions. It is idempotent: keys that already
// exist are left untouched.
func (e *Engine) SeedCatalog(ctx context.Context) error {
	seeds := []struct {
		key  string
		desc string
	}{
		{permission.KeyRead, "View a resource and its content"},
		{permission.KeyWrite, "Create or modify content under a resource"},
		{permission.KeyDelete, "Delete a resource or its content"},
		{permission.KeyManageRoles, "Manage grants and role assignments on a resource"},
	}
	now := e.now()
	for _, s := range seeds {
		p := &permission.Permission{
			ID:          id.NewPermissionID(),
			Key:         s.key,
			Description: s.desc,
			IsSystem:    true,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := e.store.CreatePermission(ctx, p); err != nil {
			if errors.Is(err, store.ErrDuplicate) {
				continue
			}
			return fmt.Errorf("%w: seed permission %q: %v", ErrStoreUnavailable, s.key, err)
		}
	}
	return nil
}

// ──────────────────────────────────────────────────
// Resources
// ──────────────────────────────────────────────────

// CreateResource adds a node to the content hierarchy. The parent, when
// set, must exist.
func (e *Engine) CreateResource(ctx context.Context, r *resource.Resource) error {
	if !r.Kind.Valid() {
		return fmt.Errorf("lectern: invalid resource kind %q", r.Kind)
	}
	if r.ParentID != nil && !r.ParentID.IsNil() {
		if _, err := e.store.GetResource(ctx, *r.ParentID); err != nil {
			return e.mapStoreErr(err, ErrResourceNotFound)
		}
	}
	if r.ID.IsNil() {
		r.ID = id.NewResourceID()
	}
	now := e.now()
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}
	r.UpdatedAt = now

	if err := e.store.CreateResource(ctx, r); err != nil {
		return fmt.Errorf("%w: create resource: %v", ErrStoreUnavailable, err)
	}
	// A fresh node has no cached resolutions, so no eviction is needed.
	if e.plugins != nil {
		e.plugins.EmitResourceCreated(ctx, r)
	}
	return nil
}

// MoveResource reparents a node. A nil parent detaches it as a new root.
// The move is rejected when the new parent sits inside the node's own
// subtree, which would create a cycle.
func (e *Engine) MoveResource(ctx context.Context, resID id.ResourceID, newParentID *id.ResourceID) error {
	if _, err := e.store.GetResource(ctx, resID); err != nil {
		return e.mapStoreErr(err, ErrResourceNotFound)
	}

	if newParentID != nil && !newParentID.IsNil() {
		parentPath, err := e.treeWalker.AncestorPath(ctx, e.store, *newParentID)
		if err != nil {
			return err
		}
		for _, node := range parentPath {
			if node.String() == resID.String() {
				return fmt.Errorf("%w: %s is inside the subtree of %s", ErrCycleDetected, *newParentID, resID)
			}
		}
	}

	if err := e.store.SetResourceParent(ctx, resID, newParentID); err != nil {
		return e.mapStoreErr(err, ErrResourceNotFound)
	}

	// Every resolution under the moved node walked through it, so
	// invalidating the node alone evicts the whole subtree.
	e.invalidateResources(ctx, resID)
	if e.plugins != nil {
		e.plugins.EmitResourceMoved(ctx, resID, newParentID)
	}
	return nil
}

// DeleteResource deletes a node and its entire subtree, cascading the
// grants anchored anywhere inside it.
func (e *Engine) DeleteResource(ctx context.Context, resID id.ResourceID) error {
	if _, err := e.store.GetResource(ctx, resID); err != nil {
		return e.mapStoreErr(err, ErrResourceNotFound)
	}

	subtree, err := e.collectSubtree(ctx, resID)
	if err != nil {
		return err
	}

	if err := e.store.DeleteGrantsByResources(ctx, subtree); err != nil {
		return fmt.Errorf("%w: cascade grants: %v", ErrStoreUnavailable, err)
	}
	if err := e.store.DeleteResources(ctx, subtree); err != nil {
		return fmt.Errorf("%w: delete resources: %v", ErrStoreUnavailable, err)
	}

	e.invalidateResources(ctx, subtree...)
	if e.plugins != nil {
		e.plugins.EmitResourceDeleted(ctx, subtree)
	}
	return nil
}

// collectSubtree gathers a node and all of its descendants, breadth-first.
func (e *Engine) collectSubtree(ctx context.Context, rootID id.ResourceID) ([]id.ResourceID, error) {
	subtree := []id.ResourceID{rootID}
	queue := []id.ResourceID{rootID}
	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCancelled, err)
		}
		current := queue[0]
		queue = queue[1:]

		children, err := e.store.ListChildResources(ctx, current)
		if err != nil {
			return nil, fmt.Errorf("%w: list children of %s: %v", ErrStoreUnavailable, current, err)
		}
		for _, child := range children {
			subtree = append(subtree, child.ID)
			queue = append(queue, child.ID)
		}
	}
	return subtree, nil
}

// Cache invalidation runs synchronously inside every mutation, after the
// store write commits. Each helper advances the invalidation epoch before
// evicting, so a resolution whose store reads began earlier cannot
// re-populate the cache with pre-write state afterwards.

func (e *Engine) invalidateResources(ctx context.Context, resIDs ...id.ResourceID) {
	if e.cache == nil {
		return
	}
	e.epoch.Add(1)
	e.cache.InvalidateResources(ctx, resIDs...)
}

func (e *Engine) invalidatePermission(ctx context.Context, permKey string) {
	if e.cache == nil {
		return
	}
	e.epoch.Add(1)
	e.cache.InvalidatePermission(ctx, permKey)
}

func (e *Engine) invalidateUser(ctx context.Context, userID string) {
	if e.cache == nil {
		return
	}
	e.epoch.Add(1)
	e.cache.InvalidateUser(ctx, userID)
}

func (e *Engine) purgeCache(ctx context.Context) {
	if e.cache == nil {
		return
	}
	e.epoch.Add(1)
	e.cache.Purge(ctx)
}

// mapStoreErr translates the shared store sentinel into the entity-specific
// one; anything else is a store failure.
func (e *Engine) mapStoreErr(err error, notFound error) error {
	if errors.Is(err, store.ErrNotFound) {
		return notFound
	}
	return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
}
