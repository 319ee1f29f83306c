// Package role defines the Role entity, its resource-independent default
// stances, and the role store interface.
package role

import (
	"time"

	"github.com/lecternhq/lectern/id"
)

// Role represents a named bundle of authorization behavior that can be
// assigned to users. A role carries default stances (resource-independent
// allow/deny opinions per permission) and may additionally hold explicit
// grants on individual resources.
type Role struct {
	ID          id.RoleID      `json:"id" db:"id"`
	Name        string         `json:"name" db:"name"`
	Slug        string         `json:"slug" db:"slug"`
	Description string         `json:"description,omitempty" db:"description"`
	IsSystem    bool           `json:"is_system" db:"is_system"`
	Metadata    map[string]any `json:"metadata,omitempty" db:"metadata"`
	CreatedAt   time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at" db:"updated_at"`
}

// Stance is a role's resource-independent opinion on a permission.
// Unset is distinct from Deny: a role with no stance simply has no opinion,
// and callers must not collapse absence into denial.
type Stance int

const (
	// Unset means the role holds no stance on the permission.
	Unset Stance = iota

	// Allow means the role permits the permission by default.
	Allow

	// Deny means the role refuses the permission by default.
	Deny
)

// String returns the lowercase name of the stance.
func (s Stance) String() string {
	switch s {
	case Allow:
		return "allow"
	case Deny:
		return "deny"
	default:
		return "unset"
	}
}

// StanceFromAllow converts a stored allow boolean into a Stance.
func StanceFromAllow(allow bool) Stance {
	if allow {
		return Allow
	}
	return Deny
}

// DefaultStance is one stored (role, permission) → allow row.
// Invariant: at most one row per pair.
type DefaultStance struct {
	RoleID       id.RoleID       `json:"role_id" db:"role_id"`
	PermissionID id.PermissionID `json:"permission_id" db:"permission_id"`
	Allow        bool            `json:"allow" db:"allow"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
}

// ListFilter contains filters for listing roles.
type ListFilter struct {
	IsSystem *bool  `json:"is_system,omitempty"`
	Search   string `json:"search,omitempty"`
	Limit    int    `json:"limit,omitempty"`
	Offset   int    `json:"offset,omitempty"`
}
