// Package plugin defines the plugin system for Lectern.
// Plugins are notified of lifecycle events (resolution performed, grant
// written, role assigned, resource moved, etc.) and can react: logging,
// metrics, tracing, etc.
//
// Each lifecycle hook is a separate interface so plugins opt in only
// to the events they care about.
package plugin

import (
	"context"

	"github.com/lecternhq/lectern/assignment"
	"github.com/lecternhq/lectern/grant"
	"github.com/lecternhq/lectern/id"
	"github.com/lecternhq/lectern/permission"
	"github.com/lecternhq/lectern/resource"
	"github.com/lecternhq/lectern/role"
)

// Plugin is the base interface all plugins must implement.
type Plugin interface {
	// Name returns a unique human-readable name for the plugin.
	Name() string
}

// ──────────────────────────────────────────────────
// Resolution lifecycle hooks
// ──────────────────────────────────────────────────

// BeforeResolve is called before a permission resolution is evaluated.
// The req parameter is *lectern.ResolveRequest (passed as any to avoid
// an import cycle).
type BeforeResolve interface {
	OnBeforeResolve(ctx context.Context, req any) error
}

// AfterResolve is called after a permission resolution completes.
// The req parameter is *lectern.ResolveRequest; result is
// *lectern.ResolveResult.
type AfterResolve interface {
	OnAfterResolve(ctx context.Context, req, result any) error
}

// ──────────────────────────────────────────────────
// Grant lifecycle hooks
// ──────────────────────────────────────────────────

// GrantCreated is called after an explicit grant is written.
type GrantCreated interface {
	OnGrantCreated(ctx context.Context, g *grant.Grant) error
}

// GrantRevoked is called after an explicit grant is revoked.
type GrantRevoked interface {
	OnGrantRevoked(ctx context.Context, roleID id.RoleID, resID id.ResourceID, permID id.PermissionID) error
}

// ──────────────────────────────────────────────────
// Role lifecycle hooks
// ──────────────────────────────────────────────────

// RoleCreated is called after a role is created.
type RoleCreated interface {
	OnRoleCreated(ctx context.Context, r *role.Role) error
}

// RoleDeleted is called after a role is deleted.
type RoleDeleted interface {
	OnRoleDeleted(ctx context.Context, roleID id.RoleID) error
}

// StanceSet is called after a role's default stance on a permission is set.
type StanceSet interface {
	OnStanceSet(ctx context.Context, roleID id.RoleID, permID id.PermissionID, allow bool) error
}

// StanceCleared is called after a role's default stance is cleared to Unset.
type StanceCleared interface {
	OnStanceCleared(ctx context.Context, roleID id.RoleID, permID id.PermissionID) error
}

// ──────────────────────────────────────────────────
// Assignment lifecycle hooks
// ──────────────────────────────────────────────────

// RoleAssigned is called after a role is assigned to a user.
type RoleAssigned interface {
	OnRoleAssigned(ctx context.Context, a *assignment.Assignment) error
}

// RoleUnassigned is called after a role is unassigned from a user.
type RoleUnassigned interface {
	OnRoleUnassigned(ctx context.Context, userID string, roleID id.RoleID) error
}

// ──────────────────────────────────────────────────
// Permission lifecycle hooks
// ──────────────────────────────────────────────────

// PermissionCreated is called after a permission is added to the catalog.
type PermissionCreated interface {
	OnPermissionCreated(ctx context.Context, p *permission.Permission) error
}

// PermissionDeleted is called after a permission is removed from the catalog.
type PermissionDeleted interface {
	OnPermissionDeleted(ctx context.Context, permID id.PermissionID) error
}

// ──────────────────────────────────────────────────
// Resource lifecycle hooks
// ──────────────────────────────────────────────────

// ResourceCreated is called after a resource node is created.
type ResourceCreated interface {
	OnResourceCreated(ctx context.Context, r *resource.Resource) error
}

// ResourceMoved is called after a resource node is re-parented.
type ResourceMoved interface {
	OnResourceMoved(ctx context.Context, resID id.ResourceID, newParent *id.ResourceID) error
}

// ResourceDeleted is called after a resource subtree is deleted.
// The ids include the deleted node and every descendant.
type ResourceDeleted interface {
	OnResourceDeleted(ctx context.Context, resIDs []id.ResourceID) error
}

// ──────────────────────────────────────────────────
// Lifecycle
// ──────────────────────────────────────────────────

// Shutdown is called when the engine stops.
type Shutdown interface {
	OnShutdown(ctx context.Context) error
}
