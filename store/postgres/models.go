package postgres

import (
	"time"

	"github.com/xraph/grove"

	"github.com/lecternhq/lectern/assignment"
	"github.com/lecternhq/lectern/decisionlog"
	"github.com/lecternhq/lectern/grant"
	"github.com/lecternhq/lectern/id"
	"github.com/lecternhq/lectern/permission"
	"github.com/lecternhq/lectern/resource"
	"github.com/lecternhq/lectern/role"
)

// ──────────────────────────────────────────────────
// Role model
// ──────────────────────────────────────────────────

type roleModel struct {
	grove.BaseModel `grove:"table:lectern_roles"`
	ID              string         `grove:"id,pk"`
	Name            string         `grove:"name,notnull"`
	Slug            string         `grove:"slug,notnull"`
	Description     string         `grove:"description"`
	IsSystem        bool           `grove:"is_system,notnull"`
	Metadata        map[string]any `grove:"metadata,type:jsonb"`
	CreatedAt       time.Time      `grove:"created_at,notnull"`
	UpdatedAt       time.Time      `grove:"updated_at,notnull"`
}

func roleToModel(r *role.Role) *roleModel {
	return &roleModel{
		ID:          r.ID.String(),
		Name:        r.Name,
		Slug:        r.Slug,
		Description: r.Description,
		IsSystem:    r.IsSystem,
		Metadata:    r.Metadata,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func roleFromModel(m *roleModel) *role.Role {
	rid, _ := id.ParseRoleID(m.ID) //nolint:errcheck // stored IDs are always valid
	return &role.Role{
		ID:          rid,
		Name:        m.Name,
		Slug:        m.Slug,
		Description: m.Description,
		IsSystem:    m.IsSystem,
		Metadata:    m.Metadata,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

// ──────────────────────────────────────────────────
// Default stance model
// ──────────────────────────────────────────────────

type stanceModel struct {
	grove.BaseModel `grove:"table:lectern_default_stances"`
	RoleID          string    `grove:"role_id,pk"`
	PermissionID    string    `grove:"permission_id,pk"`
	Allow           bool      `grove:"allow,notnull"`
	CreatedAt       time.Time `grove:"created_at,notnull"`
}

func stanceFromModel(m *stanceModel) *role.DefaultStance {
	rid, _ := id.ParseRoleID(m.RoleID)             //nolint:errcheck
	pid, _ := id.ParsePermissionID(m.PermissionID) //nolint:errcheck
	return &role.DefaultStance{
		RoleID:       rid,
		PermissionID: pid,
		Allow:        m.Allow,
		CreatedAt:    m.CreatedAt,
	}
}

// ──────────────────────────────────────────────────
// Permission model
// ──────────────────────────────────────────────────

type permissionModel struct {
	grove.BaseModel `grove:"table:lectern_permissions"`
	ID              string    `grove:"id,pk"`
	Key             string    `grove:"key,notnull"`
	Description     string    `grove:"description"`
	IsSystem        bool      `grove:"is_system,notnull"`
	CreatedAt       time.Time `grove:"created_at,notnull"`
	UpdatedAt       time.Time `grove:"updated_at,notnull"`
}

func permissionToModel(p *permission.Permission) *permissionModel {
	return &permissionModel{
		ID:          p.ID.String(),
		Key:         p.Key,
		Description: p.Description,
		IsSystem:    p.IsSystem,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func permissionFromModel(m *permissionModel) *permission.Permission {
	pid, _ := id.ParsePermissionID(m.ID) //nolint:errcheck
	return &permission.Permission{
		ID:          pid,
		Key:         m.Key,
		Description: m.Description,
		IsSystem:    m.IsSystem,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

// ──────────────────────────────────────────────────
// Resource model
// ──────────────────────────────────────────────────

type resourceModel struct {
	grove.BaseModel `grove:"table:lectern_resources"`
	ID              string         `grove:"id,pk"`
	Kind            string         `grove:"kind,notnull"`
	Name            string         `grove:"name,notnull"`
	ParentID        *string        `grove:"parent_id"`
	Metadata        map[string]any `grove:"metadata,type:jsonb"`
	CreatedAt       time.Time      `grove:"created_at,notnull"`
	UpdatedAt       time.Time      `grove:"updated_at,notnull"`
}

func resourceToModel(r *resource.Resource) *resourceModel {
	m := &resourceModel{
		ID:        r.ID.String(),
		Kind:      string(r.Kind),
		Name:      r.Name,
		Metadata:  r.Metadata,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
	if r.ParentID != nil {
		s := r.ParentID.String()
		m.ParentID = &s
	}
	return m
}

func resourceFromModel(m *resourceModel) *resource.Resource {
	rid, _ := id.ParseResourceID(m.ID) //nolint:errcheck
	r := &resource.Resource{
		ID:        rid,
		Kind:      resource.Kind(m.Kind),
		Name:      m.Name,
		Metadata:  m.Metadata,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
	if m.ParentID != nil {
		pid, err := id.ParseResourceID(*m.ParentID)
		if err == nil {
			r.ParentID = &pid
		}
	}
	return r
}

// ──────────────────────────────────────────────────
// Assignment model
// ──────────────────────────────────────────────────

type assignmentModel struct {
	grove.BaseModel `grove:"table:lectern_assignments"`
	ID              string     `grove:"id,pk"`
	UserID          string     `grove:"user_id,notnull"`
	RoleID          string     `grove:"role_id,notnull"`
	GrantedBy       string     `grove:"granted_by"`
	ExpiresAt       *time.Time `grove:"expires_at"`
	CreatedAt       time.Time  `grove:"created_at,notnull"`
}

func assignmentToModel(a *assignment.Assignment) *assignmentModel {
	return &assignmentModel{
		ID:        a.ID.String(),
		UserID:    a.UserID,
		RoleID:    a.RoleID.String(),
		GrantedBy: a.GrantedBy,
		ExpiresAt: a.ExpiresAt,
		CreatedAt: a.CreatedAt,
	}
}

func assignmentFromModel(m *assignmentModel) *assignment.Assignment {
	aid, _ := id.ParseAssignmentID(m.ID) //nolint:errcheck
	rid, _ := id.ParseRoleID(m.RoleID)   //nolint:errcheck
	return &assignment.Assignment{
		ID:        aid,
		UserID:    m.UserID,
		RoleID:    rid,
		GrantedBy: m.GrantedBy,
		ExpiresAt: m.ExpiresAt,
		CreatedAt: m.CreatedAt,
	}
}

// ──────────────────────────────────────────────────
// Grant model
// ──────────────────────────────────────────────────

type grantModel struct {
	grove.BaseModel `grove:"table:lectern_grants"`
	ID              string    `grove:"id,pk"`
	RoleID          string    `grove:"role_id,notnull"`
	ResourceID      string    `grove:"resource_id,notnull"`
	PermissionID    string    `grove:"permission_id,notnull"`
	GrantedBy       string    `grove:"granted_by"`
	CreatedAt       time.Time `grove:"created_at,notnull"`
}

func grantToModel(g *grant.Grant) *grantModel {
	return &grantModel{
		ID:           g.ID.String(),
		RoleID:       g.RoleID.String(),
		ResourceID:   g.ResourceID.String(),
		PermissionID: g.PermissionID.String(),
		GrantedBy:    g.GrantedBy,
		CreatedAt:    g.CreatedAt,
	}
}

func grantFromModel(m *grantModel) *grant.Grant {
	gid, _ := id.ParseGrantID(m.ID)                //nolint:errcheck
	rid, _ := id.ParseRoleID(m.RoleID)             //nolint:errcheck
	sid, _ := id.ParseResourceID(m.ResourceID)     //nolint:errcheck
	pid, _ := id.ParsePermissionID(m.PermissionID) //nolint:errcheck
	return &grant.Grant{
		ID:           gid,
		RoleID:       rid,
		ResourceID:   sid,
		PermissionID: pid,
		GrantedBy:    m.GrantedBy,
		CreatedAt:    m.CreatedAt,
	}
}

// ──────────────────────────────────────────────────
// Decision log model
// ──────────────────────────────────────────────────

type decisionLogModel struct {
	grove.BaseModel `grove:"table:lectern_decision_logs"`
	ID              string    `grove:"id,pk"`
	UserID          string    `grove:"user_id,notnull"`
	Permission      string    `grove:"permission,notnull"`
	ResourceID      string    `grove:"resource_id,notnull"`
	Allowed         bool      `grove:"allowed,notnull"`
	Rule            string    `grove:"rule,notnull"`
	DecidedAt       string    `grove:"decided_at"`
	RoleID          string    `grove:"role_id"`
	Reason          string    `grove:"reason"`
	EvalTimeNs      int64     `grove:"eval_time_ns,notnull"`
	CreatedAt       time.Time `grove:"created_at,notnull"`
}

func decisionLogToModel(e *decisionlog.Entry) *decisionLogModel {
	return &decisionLogModel{
		ID:         e.ID.String(),
		UserID:     e.UserID,
		Permission: e.Permission,
		ResourceID: e.ResourceID,
		Allowed:    e.Allowed,
		Rule:       e.Rule,
		DecidedAt:  e.DecidedAt,
		RoleID:     e.RoleID,
		Reason:     e.Reason,
		EvalTimeNs: e.EvalTimeNs,
		CreatedAt:  e.CreatedAt,
	}
}

func decisionLogFromModel(m *decisionLogModel) *decisionlog.Entry {
	lid, _ := id.ParseDecisionLogID(m.ID) //nolint:errcheck
	return &decisionlog.Entry{
		ID:         lid,
		UserID:     m.UserID,
		Permission: m.Permission,
		ResourceID: m.ResourceID,
		Allowed:    m.Allowed,
		Rule:       m.Rule,
		DecidedAt:  m.DecidedAt,
		RoleID:     m.RoleID,
		Reason:     m.Reason,
		EvalTimeNs: m.EvalTimeNs,
		CreatedAt:  m.CreatedAt,
	}
}
