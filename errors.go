package lectern

import "errors"

var (
	// ErrAccessDenied is returned by Enforce when a resolution denies.
	ErrAccessDenied = errors.New("lectern: access denied")

	// ErrResourceNotFound is returned when a resource cannot be found.
	// Callers must be able to tell "no such resource" apart from
	// "forbidden", so this is an error, never a Denied decision.
	ErrResourceNotFound = errors.New("lectern: resource not found")

	// ErrRoleNotFound is returned when a role cannot be found.
	ErrRoleNotFound = errors.New("lectern: role not found")

	// ErrPermissionNotFound is returned when a permission cannot be found by ID.
	ErrPermissionNotFound = errors.New("lectern: permission not found")

	// ErrAssignmentNotFound is returned when an assignment cannot be found.
	ErrAssignmentNotFound = errors.New("lectern: assignment not found")

	// ErrGrantNotFound is returned when a grant cannot be found.
	ErrGrantNotFound = errors.New("lectern: grant not found")

	// ErrUnknownPermission is returned when a resolution names a permission
	// key outside the catalog. This is a programmer error, not a denial.
	ErrUnknownPermission = errors.New("lectern: unknown permission key")

	// ErrCycleDetected is returned when a parent-pointer walk does not
	// terminate, or when a move would create a cycle.
	ErrCycleDetected = errors.New("lectern: resource hierarchy cycle detected")

	// ErrStoreUnavailable is returned when the backing store cannot be
	// reached. Resolutions fail closed: Denied with this error, never a
	// silent Allow.
	ErrStoreUnavailable = errors.New("lectern: store unavailable")

	// ErrCancelled is returned when the caller abandoned the request
	// before a decision was reached.
	ErrCancelled = errors.New("lectern: resolution cancelled")

	// ErrDuplicateAssignment is returned when a role is already assigned
	// to the user.
	ErrDuplicateAssignment = errors.New("lectern: role already assigned to user")

	// ErrDuplicateGrant is returned when an identical
	// (role, resource, permission) grant already exists.
	ErrDuplicateGrant = errors.New("lectern: grant already exists")

	// ErrSystemPermissionImmutable is returned when trying to delete a
	// permission from the seeded system catalog.
	ErrSystemPermissionImmutable = errors.New("lectern: system permission cannot be modified")

	// ErrSystemRoleImmutable is returned when trying to modify a system role.
	ErrSystemRoleImmutable = errors.New("lectern: system role cannot be modified")
)
