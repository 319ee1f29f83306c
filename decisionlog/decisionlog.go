// Package decisionlog defines the resolution audit log Entry entity.
//
// Entries exist for operators and debugging: which rule produced a decision
// and at which resource node. They are never surfaced to denied callers, so
// one user's denial can't leak another user's grants.
package decisionlog

import (
	"time"

	"github.com/lecternhq/lectern/id"
)

// Entry is a single permission resolution audit record.
type Entry struct {
	ID         id.DecisionLogID `json:"id" db:"id"`
	UserID     string           `json:"user_id" db:"user_id"`
	Permission string           `json:"permission" db:"permission"`
	ResourceID string           `json:"resource_id" db:"resource_id"`
	Allowed    bool             `json:"allowed" db:"allowed"`
	Rule       string           `json:"rule" db:"rule"`
	DecidedAt  string           `json:"decided_at,omitempty" db:"decided_at"`
	RoleID     string           `json:"role_id,omitempty" db:"role_id"`
	Reason     string           `json:"reason,omitempty" db:"reason"`
	EvalTimeNs int64            `json:"eval_time_ns" db:"eval_time_ns"`
	CreatedAt  time.Time        `json:"created_at" db:"created_at"`
}

// QueryFilter contains filters for querying decision logs.
type QueryFilter struct {
	UserID     string     `json:"user_id,omitempty"`
	Permission string     `json:"permission,omitempty"`
	ResourceID string     `json:"resource_id,omitempty"`
	Allowed    *bool      `json:"allowed,omitempty"`
	Rule       string     `json:"rule,omitempty"`
	After      *time.Time `json:"after,omitempty"`
	Before     *time.Time `json:"before,omitempty"`
	Limit      int        `json:"limit,omitempty"`
	Offset     int        `json:"offset,omitempty"`
}
