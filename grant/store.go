package grant

import (
	"context"

	"github.com/lecternhq/lectern/id"
)

// Store defines persistence operations for explicit resource grants.
type Store interface {
	// CreateGrant persists a new grant. Creating a duplicate
	// (role, resource, permission) triple fails.
	CreateGrant(ctx context.Context, g *Grant) error

	// DeleteGrant removes a grant by ID.
	DeleteGrant(ctx context.Context, grantID id.GrantID) error

	// DeleteGrantByTriple removes the grant for an exact
	// (role, resource, permission) triple, if one exists.
	DeleteGrantByTriple(ctx context.Context, roleID id.RoleID, resID id.ResourceID, permID id.PermissionID) error

	// HasGrant reports whether a grant row exists for exactly that triple.
	HasGrant(ctx context.Context, roleID id.RoleID, resID id.ResourceID, permID id.PermissionID) (bool, error)

	// AnyGrant reports whether any of the given roles holds a grant for
	// the permission on the resource, returning the first matching role.
	// This is the resolver's hot path: one call per ancestor node.
	AnyGrant(ctx context.Context, roleIDs []id.RoleID, resID id.ResourceID, permID id.PermissionID) (id.RoleID, bool, error)

	// ListGrants returns grants matching the filter.
	ListGrants(ctx context.Context, filter *ListFilter) ([]*Grant, error)

	// CountGrants returns the number of grants matching the filter.
	CountGrants(ctx context.Context, filter *ListFilter) (int64, error)

	// DeleteGrantsByRole removes all grants held by a role.
	DeleteGrantsByRole(ctx context.Context, roleID id.RoleID) error

	// DeleteGrantsByResources removes all grants on the given resources.
	DeleteGrantsByResources(ctx context.Context, resIDs []id.ResourceID) error

	// DeleteGrantsByPermission removes all grants of a permission.
	DeleteGrantsByPermission(ctx context.Context, permID id.PermissionID) error
}
