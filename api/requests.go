package api

// ──────────────────────────────────────────────────
// Resolve requests
// ──────────────────────────────────────────────────

// ResolveRequest is the request body for a permission resolution.
type ResolveRequest struct {
	UserID     string `json:"user_id" description:"User identifier from the external directory"`
	ResourceID string `json:"resource_id" description:"Resource identifier"`
	Permission string `json:"permission" description:"Permission catalog key (e.g. read, write)"`
}

// BulkResolveRequest resolves one permission across many resources.
type BulkResolveRequest struct {
	UserID      string   `json:"user_id" description:"User identifier"`
	ResourceIDs []string `json:"resource_ids" description:"Resource identifiers to resolve"`
	Permission  string   `json:"permission" description:"Permission catalog key"`
}

// ──────────────────────────────────────────────────
// Role requests
// ──────────────────────────────────────────────────

// CreateRoleRequest is the body for creating a role.
type CreateRoleRequest struct {
	Name        string         `json:"name" description:"Role name"`
	Slug        string         `json:"slug" description:"URL-safe slug"`
	Description string         `json:"description,omitempty" description:"Human-readable description"`
	Metadata    map[string]any `json:"metadata,omitempty" description:"Custom metadata"`
}

// UpdateRoleRequest is the body for updating a role.
type UpdateRoleRequest struct {
	Name        string         `json:"name,omitempty" description:"Role name"`
	Description string         `json:"description,omitempty" description:"Human-readable description"`
	Metadata    map[string]any `json:"metadata,omitempty" description:"Custom metadata"`
}

// GetRoleRequest is the path parameter for getting a role.
type GetRoleRequest struct {
	RoleID string `path:"roleId" description:"Role ID"`
}

// ListRolesRequest holds query parameters for listing roles.
type ListRolesRequest struct {
	Search string `query:"search" description:"Search by name or slug"`
	Limit  int    `query:"limit" description:"Maximum results (default: 50)"`
	Offset int    `query:"offset" description:"Results to skip"`
}

// SetDefaultStanceRequest is the body for setting a role's default stance.
type SetDefaultStanceRequest struct {
	Permission string `json:"permission" description:"Permission catalog key"`
	Allow      bool   `json:"allow" description:"true for default-allow, false for default-deny"`
}

// ──────────────────────────────────────────────────
// Permission requests
// ──────────────────────────────────────────────────

// CreatePermissionRequest is the body for creating a permission.
type CreatePermissionRequest struct {
	Key         string `json:"key" description:"Permission key (e.g. read, manage_roles)"`
	Description string `json:"description,omitempty" description:"Human-readable description"`
}

// GetPermissionRequest is the path parameter for getting a permission.
type GetPermissionRequest struct {
	PermissionID string `path:"permissionId" description:"Permission ID"`
}

// ListPermissionsRequest holds query parameters.
type ListPermissionsRequest struct {
	Search string `query:"search" description:"Search by key"`
	Limit  int    `query:"limit" description:"Maximum results"`
	Offset int    `query:"offset" description:"Results to skip"`
}

// ──────────────────────────────────────────────────
// Resource requests
// ──────────────────────────────────────────────────

// CreateResourceRequest is the body for creating a resource node.
type CreateResourceRequest struct {
	Kind     string         `json:"kind" description:"Node kind (shelf, book, chapter, note)"`
	Name     string         `json:"name" description:"Display name"`
	ParentID string         `json:"parent_id,omitempty" description:"Parent node ID (empty for a root shelf)"`
	Metadata map[string]any `json:"metadata,omitempty" description:"Custom metadata"`
}

// GetResourceRequest is the path parameter for getting a resource.
type GetResourceRequest struct {
	ResourceID string `path:"resourceId" description:"Resource ID"`
}

// MoveResourceRequest is the body for reparenting a resource.
type MoveResourceRequest struct {
	NewParentID string `json:"new_parent_id,omitempty" description:"New parent ID (empty detaches as root)"`
}

// ListResourcesRequest holds query parameters.
type ListResourcesRequest struct {
	Kind     string `query:"kind" description:"Filter by kind"`
	ParentID string `query:"parent_id" description:"Filter by parent ID"`
	Search   string `query:"search" description:"Search by name"`
	Limit    int    `query:"limit" description:"Maximum results"`
	Offset   int    `query:"offset" description:"Results to skip"`
}

// ──────────────────────────────────────────────────
// Grant requests
// ──────────────────────────────────────────────────

// CreateGrantRequest is the body for creating an explicit grant.
type CreateGrantRequest struct {
	RoleID       string `json:"role_id" description:"Role receiving the grant"`
	ResourceID   string `json:"resource_id" description:"Resource node the grant anchors to"`
	PermissionID string `json:"permission_id" description:"Permission being granted"`
	GrantedBy    string `json:"granted_by,omitempty" description:"Operator creating the grant"`
}

// RevokeGrantRequest is the body for revoking a grant by its triple.
type RevokeGrantRequest struct {
	RoleID       string `json:"role_id" description:"Role the grant belongs to"`
	ResourceID   string `json:"resource_id" description:"Resource node"`
	PermissionID string `json:"permission_id" description:"Permission"`
}

// ListGrantsRequest holds query parameters.
type ListGrantsRequest struct {
	RoleID       string `query:"role_id" description:"Filter by role ID"`
	ResourceID   string `query:"resource_id" description:"Filter by resource ID"`
	PermissionID string `query:"permission_id" description:"Filter by permission ID"`
	Limit        int    `query:"limit" description:"Maximum results"`
	Offset       int    `query:"offset" description:"Results to skip"`
}

// ──────────────────────────────────────────────────
// Assignment requests
// ──────────────────────────────────────────────────

// AssignRoleRequest is the body for assigning a role to a user.
type AssignRoleRequest struct {
	UserID    string `json:"user_id" description:"User identifier"`
	RoleID    string `json:"role_id" description:"Role ID to assign"`
	GrantedBy string `json:"granted_by,omitempty" description:"Operator creating the assignment"`
	ExpiresAt string `json:"expires_at,omitempty" description:"Expiration time (RFC3339)"`
}

// UnassignRoleRequest is the body for removing a role from a user.
type UnassignRoleRequest struct {
	UserID string `json:"user_id" description:"User identifier"`
	RoleID string `json:"role_id" description:"Role ID to remove"`
}

// ListAssignmentsRequest holds query parameters.
type ListAssignmentsRequest struct {
	UserID string `query:"user_id" description:"Filter by user ID"`
	RoleID string `query:"role_id" description:"Filter by role ID"`
	Limit  int    `query:"limit" description:"Maximum results"`
	Offset int    `query:"offset" description:"Results to skip"`
}

// ──────────────────────────────────────────────────
// Decision log requests
// ──────────────────────────────────────────────────

// ListDecisionLogsRequest holds query parameters for querying decision logs.
type ListDecisionLogsRequest struct {
	UserID     string `query:"user_id" description:"Filter by user ID"`
	Permission string `query:"permission" description:"Filter by permission key"`
	ResourceID string `query:"resource_id" description:"Filter by resource ID"`
	Rule       string `query:"rule" description:"Filter by decision rule"`
	After      string `query:"after" description:"After timestamp (RFC3339)"`
	Before     string `query:"before" description:"Before timestamp (RFC3339)"`
	Limit      int    `query:"limit" description:"Maximum results"`
	Offset     int    `query:"offset" description:"Results to skip"`
}
