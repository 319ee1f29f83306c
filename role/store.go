package role

import (
	"context"

	"github.com/lecternhq/lectern/id"
)

// Store defines persistence operations for roles and their default stances.
type Store interface {
	// CreateRole persists a new role.
	CreateRole(ctx context.Context, r *Role) error

	// GetRole retrieves a role by ID.
	GetRole(ctx context.Context, roleID id.RoleID) (*Role, error)

	// GetRoleBySlug retrieves a role by slug.
	GetRoleBySlug(ctx context.Context, slug string) (*Role, error)

	// UpdateRole persists changes to a role.
	UpdateRole(ctx context.Context, r *Role) error

	// DeleteRole removes a role by ID. Deletion cascades to the role's
	// default stances; assignment and grant cascades are the engine's job.
	DeleteRole(ctx context.Context, roleID id.RoleID) error

	// ListRoles returns roles matching the filter.
	ListRoles(ctx context.Context, filter *ListFilter) ([]*Role, error)

	// CountRoles returns the number of roles matching the filter.
	CountRoles(ctx context.Context, filter *ListFilter) (int64, error)

	// SetDefaultStance upserts the role's default stance on a permission.
	SetDefaultStance(ctx context.Context, roleID id.RoleID, permID id.PermissionID, allow bool) error

	// ClearDefaultStance removes the role's default stance on a permission,
	// returning it to Unset.
	ClearDefaultStance(ctx context.Context, roleID id.RoleID, permID id.PermissionID) error

	// DefaultStance returns the role's stance on a permission.
	// Absence of a stored row is Unset, never an error.
	DefaultStance(ctx context.Context, roleID id.RoleID, permID id.PermissionID) (Stance, error)

	// ListDefaultStances returns all stored stances for a role.
	ListDefaultStances(ctx context.Context, roleID id.RoleID) ([]*DefaultStance, error)

	// DeleteStancesByPermission removes all stances referencing a permission.
	DeleteStancesByPermission(ctx context.Context, permID id.PermissionID) error
}
