package plugin

import (
	"context"
	"log/slog"

	"github.com/lecternhq/lectern/assignment"
	"github.com/lecternhq/lectern/grant"
	"github.com/lecternhq/lectern/id"
	"github.com/lecternhq/lectern/permission"
	"github.com/lecternhq/lectern/resource"
	"github.com/lecternhq/lectern/role"
)

// Named entry types pair a hook with the plugin name for logging.

type beforeResolveEntry struct {
	name string
	hook BeforeResolve
}
type afterResolveEntry struct {
	name string
	hook AfterResolve
}
type grantCreatedEntry struct {
	name string
	hook GrantCreated
}
type grantRevokedEntry struct {
	name string
	hook GrantRevoked
}
type roleCreatedEntry struct {
	name string
	hook RoleCreated
}
type roleDeletedEntry struct {
	name string
	hook RoleDeleted
}
type stanceSetEntry struct {
	name string
	hook StanceSet
}
type stanceClearedEntry struct {
	name string
	hook StanceCleared
}
type roleAssignedEntry struct {
	name string
	hook RoleAssigned
}
type roleUnassignedEntry struct {
	name string
	hook RoleUnassigned
}
type permissionCreatedEntry struct {
	name string
	hook PermissionCreated
}
type permissionDeletedEntry struct {
	name string
	hook PermissionDeleted
}
type resourceCreatedEntry struct {
	name string
	hook ResourceCreated
}
type resourceMovedEntry struct {
	name string
	hook ResourceMoved
}
type resourceDeletedEntry struct {
	name string
	hook ResourceDeleted
}
type shutdownEntry struct {
	name string
	hook Shutdown
}

// Registry holds registered plugins and dispatches lifecycle events.
// It type-caches plugins at registration time so emit calls iterate
// only over plugins implementing the relevant hook.
type Registry struct {
	plugins []Plugin
	logger  *slog.Logger

	beforeResolve     []beforeResolveEntry
	afterResolve      []afterResolveEntry
	grantCreated      []grantCreatedEntry
	grantRevoked      []grantRevokedEntry
	roleCreated       []roleCreatedEntry
	roleDeleted       []roleDeletedEntry
	stanceSet         []stanceSetEntry
	stanceCleared     []stanceClearedEntry
	roleAssigned      []roleAssignedEntry
	roleUnassigned    []roleUnassignedEntry
	permissionCreated []permissionCreatedEntry
	permissionDeleted []permissionDeletedEntry
	resourceCreated   []resourceCreatedEntry
	resourceMoved     []resourceMovedEntry
	resourceDeleted   []resourceDeletedEntry
	shutdown          []shutdownEntry
}

// NewRegistry creates a plugin registry with the given logger.
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{logger: logger}
}

// Register adds a plugin and type-asserts it into all applicable
// hook caches. Plugins are notified in registration order.
func (r *Registry) Register(p Plugin) {
	r.plugins = append(r.plugins, p)
	name := p.Name()

	if h, ok := p.(BeforeResolve); ok {
		r.beforeResolve = append(r.beforeResolve, beforeResolveEntry{name, h})
	}
	if h, ok := p.(AfterResolve); ok {
		r.afterResolve = append(r.afterResolve, afterResolveEntry{name, h})
	}
	if h, ok := p.(GrantCreated); ok {
		r.grantCreated = append(r.grantCreated, grantCreatedEntry{name, h})
	}
	if h, ok := p.(GrantRevoked); ok {
		r.grantRevoked = append(r.grantRevoked, grantRevokedEntry{name, h})
	}
	if h, ok := p.(RoleCreated); ok {
		r.roleCreated = append(r.roleCreated, roleCreatedEntry{name, h})
	}
	if h, ok := p.(RoleDeleted); ok {
		r.roleDeleted = append(r.roleDeleted, roleDeletedEntry{name, h})
	}
	if h, ok := p.(StanceSet); ok {
		r.stanceSet = append(r.stanceSet, stanceSetEntry{name, h})
	}
	if h, ok := p.(StanceCleared); ok {
		r.stanceCleared = append(r.stanceCleared, stanceClearedEntry{name, h})
	}
	if h, ok := p.(RoleAssigned); ok {
		r.roleAssigned = append(r.roleAssigned, roleAssignedEntry{name, h})
	}
	if h, ok := p.(RoleUnassigned); ok {
		r.roleUnassigned = append(r.roleUnassigned, roleUnassignedEntry{name, h})
	}
	if h, ok := p.(PermissionCreated); ok {
		r.permissionCreated = append(r.permissionCreated, permissionCreatedEntry{name, h})
	}
	if h, ok := p.(PermissionDeleted); ok {
		r.permissionDeleted = append(r.permissionDeleted, permissionDeletedEntry{name, h})
	}
	if h, ok := p.(ResourceCreated); ok {
		r.resourceCreated = append(r.resourceCreated, resourceCreatedEntry{name, h})
	}
	if h, ok := p.(ResourceMoved); ok {
		r.resourceMoved = append(r.resourceMoved, resourceMovedEntry{name, h})
	}
	if h, ok := p.(ResourceDeleted); ok {
		r.resourceDeleted = append(r.resourceDeleted, resourceDeletedEntry{name, h})
	}
	if h, ok := p.(Shutdown); ok {
		r.shutdown = append(r.shutdown, shutdownEntry{name, h})
	}
}

// Plugins returns all registered plugins.
func (r *Registry) Plugins() []Plugin { return r.plugins }

// ──────────────────────────────────────────────────
// Resolution event emitters
// ──────────────────────────────────────────────────

// EmitBeforeResolve notifies all plugins that implement BeforeResolve.
func (r *Registry) EmitBeforeResolve(ctx context.Context, req any) {
	for _, e := range r.beforeResolve {
		if err := e.hook.OnBeforeResolve(ctx, req); err != nil {
			r.logHookError("OnBeforeResolve", e.name, err)
		}
	}
}

// EmitAfterResolve notifies all plugins that implement AfterResolve.
func (r *Registry) EmitAfterResolve(ctx context.Context, req, result any) {
	for _, e := range r.afterResolve {
		if err := e.hook.OnAfterResolve(ctx, req, result); err != nil {
			r.logHookError("OnAfterResolve", e.name, err)
		}
	}
}

// ──────────────────────────────────────────────────
// Grant event emitters
// ──────────────────────────────────────────────────

// EmitGrantCreated notifies all plugins that implement GrantCreated.
func (r *Registry) EmitGrantCreated(ctx context.Context, g *grant.Grant) {
	for _, e := range r.grantCreated {
		if err := e.hook.OnGrantCreated(ctx, g); err != nil {
			r.logHookError("OnGrantCreated", e.name, err)
		}
	}
}

// EmitGrantRevoked notifies all plugins that implement GrantRevoked.
func (r *Registry) EmitGrantRevoked(ctx context.Context, roleID id.RoleID, resID id.ResourceID, permID id.PermissionID) {
	for _, e := range r.grantRevoked {
		if err := e.hook.OnGrantRevoked(ctx, roleID, resID, permID); err != nil {
			r.logHookError("OnGrantRevoked", e.name, err)
		}
	}
}

// ──────────────────────────────────────────────────
// Role event emitters
// ──────────────────────────────────────────────────

// EmitRoleCreated notifies all plugins that implement RoleCreated.
func (r *Registry) EmitRoleCreated(ctx context.Context, rl *role.Role) {
	for _, e := range r.roleCreated {
		if err := e.hook.OnRoleCreated(ctx, rl); err != nil {
			r.logHookError("OnRoleCreated", e.name, err)
		}
	}
}

// EmitRoleDeleted notifies all plugins that implement RoleDeleted.
func (r *Registry) EmitRoleDeleted(ctx context.Context, roleID id.RoleID) {
	for _, e := range r.roleDeleted {
		if err := e.hook.OnRoleDeleted(ctx, roleID); err != nil {
			r.logHookError("OnRoleDeleted", e.name, err)
		}
	}
}

// EmitStanceSet notifies all plugins that implement StanceSet.
func (r *Registry) EmitStanceSet(ctx context.Context, roleID id.RoleID, permID id.PermissionID, allow bool) {
	for _, e := range r.stanceSet {
		if err := e.hook.OnStanceSet(ctx, roleID, permID, allow); err != nil {
			r.logHookError("OnStanceSet", e.name, err)
		}
	}
}

// EmitStanceCleared notifies all plugins that implement StanceCleared.
func (r *Registry) EmitStanceCleared(ctx context.Context, roleID id.RoleID, permID id.PermissionID) {
	for _, e := range r.stanceCleared {
		if err := e.hook.OnStanceCleared(ctx, roleID, permID); err != nil {
			r.logHookError("OnStanceCleared", e.name, err)
		}
	}
}

// ──────────────────────────────────────────────────
// Assignment event emitters
// ──────────────────────────────────────────────────

// EmitRoleAssigned notifies all plugins that implement RoleAssigned.
func (r *Registry) EmitRoleAssigned(ctx context.Context, a *assignment.Assignment) {
	for _, e := range r.roleAssigned {
		if err := e.hook.OnRoleAssigned(ctx, a); err != nil {
			r.logHookError("OnRoleAssigned", e.name, err)
		}
	}
}

// EmitRoleUnassigned notifies all plugins that implement RoleUnassigned.
func (r *Registry) EmitRoleUnassigned(ctx context.Context, userID string, roleID id.RoleID) {
	for _, e := range r.roleUnassigned {
		if err := e.hook.OnRoleUnassigned(ctx, userID, roleID); err != nil {
			r.logHookError("OnRoleUnassigned", e.name, err)
		}
	}
}

// ──────────────────────────────────────────────────
// Permission event emitters
// ──────────────────────────────────────────────────

// EmitPermissionCreated notifies all plugins that implement PermissionCreated.
func (r *Registry) EmitPermissionCreated(ctx context.Context, p *permission.Permission) {
	for _, e := range r.permissionCreated {
		if err := e.hook.OnPermissionCreated(ctx, p); err != nil {
			r.logHookError("OnPermissionCreated", e.name, err)
		}
	}
}

// EmitPermissionDeleted notifies all plugins that implement PermissionDeleted.
func (r *Registry) EmitPermissionDeleted(ctx context.Context, permID id.PermissionID) {
	for _, e := range r.permissionDeleted {
		if err := e.hook.OnPermissionDeleted(ctx, permID); err != nil {
			r.logHookError("OnPermissionDeleted", e.name, err)
		}
	}
}

// ──────────────────────────────────────────────────
// Resource event emitters
// ──────────────────────────────────────────────────

// EmitResourceCreated notifies all plugins that implement ResourceCreated.
func (r *Registry) EmitResourceCreated(ctx context.Context, res *resource.Resource) {
	for _, e := range r.resourceCreated {
		if err := e.hook.OnResourceCreated(ctx, res); err != nil {
			r.logHookError("OnResourceCreated", e.name, err)
		}
	}
}

// EmitResourceMoved notifies all plugins that implement ResourceMoved.
func (r *Registry) EmitResourceMoved(ctx context.Context, resID id.ResourceID, newParent *id.ResourceID) {
	for _, e := range r.resourceMoved {
		if err := e.hook.OnResourceMoved(ctx, resID, newParent); err != nil {
			r.logHookError("OnResourceMoved", e.name, err)
		}
	}
}

// EmitResourceDeleted notifies all plugins that implement ResourceDeleted.
func (r *Registry) EmitResourceDeleted(ctx context.Context, resIDs []id.ResourceID) {
	for _, e := range r.resourceDeleted {
		if err := e.hook.OnResourceDeleted(ctx, resIDs); err != nil {
			r.logHookError("OnResourceDeleted", e.name, err)
		}
	}
}

// ──────────────────────────────────────────────────
// Lifecycle emitters
// ──────────────────────────────────────────────────

// EmitShutdown notifies all plugins that implement Shutdown.
func (r *Registry) EmitShutdown(ctx context.Context) {
	for _, e := range r.shutdown {
		if err := e.hook.OnShutdown(ctx); err != nil {
			r.logHookError("OnShutdown", e.name, err)
		}
	}
}

func (r *Registry) logHookError(hook, name string, err error) {
	if r.logger == nil {
		return
	}
	r.logger.Warn("lectern plugin hook failed",
		slog.String("hook", hook),
		slog.String("plugin", name),
		slog.Any("error", err),
	)
}
