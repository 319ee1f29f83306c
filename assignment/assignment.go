// Package assignment defines the Assignment entity (user→role binding).
package assignment

import (
	"time"

	"github.com/lecternhq/lectern/id"
)

// Assignment binds a role to a user. Users are opaque identifiers supplied
// by an external identity directory; the engine never creates them.
// A user may hold zero, one, or many roles simultaneously.
type Assignment struct {
	ID        id.AssignmentID `json:"id" db:"id"`
	UserID    string          `json:"user_id" db:"user_id"`
	RoleID    id.RoleID       `json:"role_id" db:"role_id"`
	GrantedBy string          `json:"granted_by,omitempty" db:"granted_by"`
	ExpiresAt *time.Time      `json:"expires_at,omitempty" db:"expires_at"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
}

// Expired reports whether the assignment has lapsed at the given instant.
// The boundary is inclusive: an assignment expiring exactly now no longer
// confers its role, matching the SQL predicates (expires_at > now for held,
// expires_at <= now for purge).
func (a *Assignment) Expired(now time.Time) bool {
	return a.ExpiresAt != nil && !a.ExpiresAt.After(now)
}

// ListFilter contains filters for listing assignments.
type ListFilter struct {
	UserID string     `json:"user_id,omitempty"`
	RoleID *id.RoleID `json:"role_id,omitempty"`
	Limit  int        `json:"limit,omitempty"`
	Offset int        `json:"offset,omitempty"`
}
