// Package permission defines the Permission entity and its store interface.
package permission

import (
	"time"

	"github.com/lecternhq/lectern/id"
)

// Canonical permission keys seeded by Seed. The catalog is
// administrator-curated: adding a key at runtime is a deliberate
// migration step, not something the engine does on the fly.
const (
	KeyRead        = "read"
	KeyWrite       = "write"
	KeyDelete      = "delete"
	KeyManageRoles = "manage_roles"
)

// Permission is one entry of the fixed, administrator-curated catalog of
// operation keys. Resolutions against a key outside the catalog fail with
// ErrUnknownPermission rather than resolving to a deny.
type Permission struct {
	ID          id.PermissionID `json:"id" db:"id"`
	Key         string          `json:"key" db:"key"`
	Description string          `json:"description,omitempty" db:"description"`
	IsSystem    bool            `json:"is_system" db:"is_system"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at" db:"updated_at"`
}

// ListFilter contains filters for listing permissions.
type ListFilter struct {
	IsSystem *bool  `json:"is_system,omitempty"`
	Search   string `json:"search,omitempty"`
	Limit    int    `json:"limit,omitempty"`
	Offset   int    `json:"offset,omitempty"`
}
