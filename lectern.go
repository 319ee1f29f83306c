// Package lectern provides a permission resolution engine for hierarchical
// knowledge content organized as shelves → books → chapters → notes.
//
// The engine decides, for a given user and resource, whether a requested
// permission is allowed. Users hold roles; roles carry resource-independent
// default stances (allow/deny/unset per permission) and explicit grants on
// individual resource nodes. Grants inherit down the hierarchy: the nearest
// ancestor holding an explicit grant wins, and explicit grants always beat
// role defaults. With no grant anywhere on the ancestor path, defaults apply
// as a permissive union across the user's roles; with no stance at all, the
// engine fails closed.
//
//	eng, err := lectern.NewEngine(
//	    lectern.WithStore(memStore),
//	)
//	result, err := eng.Resolve(ctx, &lectern.ResolveRequest{
//	    UserID:     "user-123",
//	    ResourceID: noteID,
//	    Permission: "write",
//	})
package lectern

import "github.com/lecternhq/lectern/id"

// ResolveRequest is the input to a permission resolution.
type ResolveRequest struct {
	// UserID is the opaque identifier of the requesting user, as supplied
	// by the external identity directory.
	UserID string `json:"user_id"`

	// ResourceID is the content node the user wants to act on.
	ResourceID id.ResourceID `json:"resource_id"`

	// Permission is the catalog key of the requested operation,
	// e.g. "read", "write", "delete", "manage_roles".
	Permission string `json:"permission"`
}

// ResolveResult is the outcome of a permission resolution.
type ResolveResult struct {
	// Allowed reports the decision.
	Allowed bool `json:"allowed"`

	// Rule names which precedence rule produced the decision.
	Rule Rule `json:"rule"`

	// DecidedAt is the resource node whose explicit grant decided the
	// outcome. Nil for decisions made by role defaults or fail-closed.
	DecidedAt id.ResourceID `json:"decided_at,omitempty"`

	// RoleID is the role whose grant or stance fired, when one did.
	RoleID id.RoleID `json:"role_id,omitempty"`

	// Reason is a human-readable explanation for operators. It is audit
	// detail, not something to show a denied caller.
	Reason string `json:"reason,omitempty"`

	// EvalTimeNs is the wall time the resolution took, in nanoseconds.
	EvalTimeNs int64 `json:"eval_time_ns"`
}

// Rule identifies which precedence rule produced a decision.
type Rule string

const (
	// RuleExplicitGrant means a role's explicit grant at the nearest
	// granting ancestor allowed the request.
	RuleExplicitGrant Rule = "explicit_grant"

	// RuleDefaultAllow means a role's default stance allowed the request.
	RuleDefaultAllow Rule = "default_allow"

	// RuleDefaultDeny means every stance held was Deny and none Allow.
	RuleDefaultDeny Rule = "default_deny"

	// RuleNoRoles means the user holds no roles at all.
	RuleNoRoles Rule = "no_roles"

	// RuleFailClosed means no grant existed and every role was Unset.
	RuleFailClosed Rule = "fail_closed"
)
