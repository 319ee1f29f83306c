// Package grant defines the Grant entity, an explicit (role, resource,
// permission) allowance, and its store interface.
package grant

import (
	"time"

	"github.com/lecternhq/lectern/id"
)

// Grant records that a role is explicitly granted a permission on one exact
// resource node. Grants are presence-only: there is no resource-scoped deny,
// and absence of a row simply means "no explicit grant here". Descendants of
// the resource inherit the grant through ancestor-path resolution.
type Grant struct {
	ID           id.GrantID      `json:"id" db:"id"`
	RoleID       id.RoleID       `json:"role_id" db:"role_id"`
	ResourceID   id.ResourceID   `json:"resource_id" db:"resource_id"`
	PermissionID id.PermissionID `json:"permission_id" db:"permission_id"`
	GrantedBy    string          `json:"granted_by,omitempty" db:"granted_by"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
}

// ListFilter contains filters for listing grants.
type ListFilter struct {
	RoleID       *id.RoleID       `json:"role_id,omitempty"`
	ResourceID   *id.ResourceID   `json:"resource_id,omitempty"`
	PermissionID *id.PermissionID `json:"permission_id,omitempty"`
	Limit        int              `json:"limit,omitempty"`
	Offset       int              `json:"offset,omitempty"`
}
