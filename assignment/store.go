package assignment

import (
	"context"
	"time"

	"github.com/lecternhq/lectern/id"
)

// Store defines persistence operations for user-role assignments.
type Store interface {
	// CreateAssignment persists a new assignment. Creating a duplicate
	// (user, role) pair fails.
	CreateAssignment(ctx context.Context, a *Assignment) error

	// GetAssignment retrieves an assignment by ID.
	GetAssignment(ctx context.Context, asgnID id.AssignmentID) (*Assignment, error)

	// DeleteAssignment removes an assignment by ID.
	DeleteAssignment(ctx context.Context, asgnID id.AssignmentID) error

	// DeleteAssignmentByPair removes the assignment binding a specific
	// user and role, if one exists.
	DeleteAssignmentByPair(ctx context.Context, userID string, roleID id.RoleID) error

	// ListAssignments returns assignments matching the filter.
	ListAssignments(ctx context.Context, filter *ListFilter) ([]*Assignment, error)

	// CountAssignments returns the number of assignments matching the filter.
	CountAssignments(ctx context.Context, filter *ListFilter) (int64, error)

	// ListRolesForUser returns the role IDs a user currently holds.
	// Assignments expired at `now` are excluded. A user with no roles
	// yields an empty slice, not an error.
	ListRolesForUser(ctx context.Context, userID string, now time.Time) ([]id.RoleID, error)

	// ListUsersForRole returns all assignments of a role.
	ListUsersForRole(ctx context.Context, roleID id.RoleID) ([]*Assignment, error)

	// DeleteExpiredAssignments removes assignments expired before now,
	// returning how many were removed.
	DeleteExpiredAssignments(ctx context.Context, now time.Time) (int64, error)

	// DeleteAssignmentsByUser removes all assignments of a user.
	DeleteAssignmentsByUser(ctx context.Context, userID string) error

	// DeleteAssignmentsByRole removes all assignments of a role.
	DeleteAssignmentsByRole(ctx context.Context, roleID id.RoleID) error
}
