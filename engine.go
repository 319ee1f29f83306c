package lectern

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/lecternhq/lectern/decisionlog"
	"github.com/lecternhq/lectern/id"
	"github.com/lecternhq/lectern/plugin"
	"github.com/lecternhq/lectern/role"
	"github.com/lecternhq/lectern/store"
)

// Engine is the central permission resolution engine. It walks the content
// hierarchy, applies grant and stance precedence, manages the store, and
// fires extension hooks.
type Engine struct {
	store      store.Store
	treeWalker TreeWalker
	cache      Cache
	plugins    *plugin.Registry
	logger     *slog.Logger
	config     Config
	now        func() time.Time
	sf         singleflight.Group

	// epoch counts cache invalidations. A resolution snapshots it before
	// reading the store and may only populate the cache if no invalidation
	// ran in between; otherwise its reads may predate the write that
	// triggered the eviction and caching them would resurrect stale state.
	epoch atomic.Uint64
}

// NewEngine creates a new Lectern engine with the given options.
func NewEngine(opts ...Option) (*Engine, error) {
	e := &Engine{
		logger: slog.Default(),
		config: DefaultConfig(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.store == nil {
		return nil, errors.New("lectern: store is required")
	}
	if e.treeWalker == nil {
		e.treeWalker = DefaultTreeWalker(e.config.MaxTreeDepth)
	}
	return e, nil
}

// Store returns the underlying composite store.
func (e *Engine) Store() store.Store { return e.store }

// Plugins returns the plugin registry (may be nil).
func (e *Engine) Plugins() *plugin.Registry { return e.plugins }

// Start performs any startup initialization.
func (e *Engine) Start(_ context.Context) error { return nil }

// Stop performs graceful shutdown.
func (e *Engine) Stop(ctx context.Context) error {
	if e.plugins != nil {
		e.plugins.EmitShutdown(ctx)
	}
	return nil
}

// resolution carries the outcome of an uncached resolve together with the
// ancestor path it walked, so the cache can index the entry for
// subtree invalidation.
type resolution struct {
	result *ResolveResult
	path   []id.ResourceID
	epoch  uint64
}

// Resolve decides whether the user may exercise the permission on the
// resource. This is the hot path.
//
// A Denied decision is a successful resolution: err is nil and
// result.Allowed is false. Errors mean the question itself could not be
// answered (unknown resource, unknown permission key, cancellation, or an
// unreachable store) and the caller must not treat them as a quiet deny
// or a quiet allow. On store failure a denied result accompanies the error
// so callers that ignore errors still fail closed.
func (e *Engine) Resolve(ctx context.Context, req *ResolveRequest) (*ResolveResult, error) {
	start := time.Now()

	// 1. Cache hit?
	if e.cache != nil {
		if cached, ok := e.cache.Get(ctx, req); ok {
			out := *cached
			out.EvalTimeNs = time.Since(start).Nanoseconds()
			return &out, nil
		}
	}

	// 2. Extension hook: before resolve.
	if e.plugins != nil {
		e.plugins.EmitBeforeResolve(ctx, req)
	}

	// 3. Compute, collapsing concurrent identical tuples unless disabled.
	var res resolution
	var err error
	if e.config.DisableSingleFlight {
		res, err = e.resolveSnapshot(ctx, req)
	} else {
		key := req.UserID + "\x00" + req.ResourceID.String() + "\x00" + req.Permission
		var v any
		v, err, _ = e.sf.Do(key, func() (any, error) {
			return e.resolveSnapshot(ctx, req)
		})
		if v != nil {
			res = v.(resolution)
		}
	}
	if err != nil && res.result == nil {
		return nil, err
	}

	result := *res.result
	result.EvalTimeNs = time.Since(start).Nanoseconds()

	// 4. Cache successful resolutions together with the walked path, but
	// only if no invalidation ran since the store reads began: a mutation
	// that committed mid-resolution already evicted this tuple, and what we
	// computed may reflect the pre-mutation state.
	if err == nil && e.cache != nil && e.epoch.Load() == res.epoch {
		e.cache.Set(ctx, req, res.path, &result)
	}

	// 5. Audit trail, best effort.
	if err == nil && e.config.EnableDecisionLog {
		e.writeDecisionLog(ctx, req, &result)
	}

	// 6. Extension hook: after resolve.
	if e.plugins != nil {
		e.plugins.EmitAfterResolve(ctx, req, &result)
	}

	return &result, err
}

// BulkResolve resolves one permission for the same user across many
// resources, keyed by resource ID. Resources that do not exist are omitted
// from the result map rather than failing the batch; any other error aborts.
func (e *Engine) BulkResolve(ctx context.Context, userID string, resIDs []id.ResourceID, permKey string) (map[string]*ResolveResult, error) {
	out := make(map[string]*ResolveResult, len(resIDs))
	for _, resID := range resIDs {
		result, err := e.Resolve(ctx, &ResolveRequest{
			UserID:     userID,
			ResourceID: resID,
			Permission: permKey,
		})
		if err != nil {
			if errors.Is(err, ErrResourceNotFound) {
				continue
			}
			return nil, fmt.Errorf("resolve %s: %w", resID, err)
		}
		out[resID.String()] = result
	}
	return out, nil
}

// Enforce returns an error if the resolution denies.
func (e *Engine) Enforce(ctx context.Context, req *ResolveRequest) error {
	result, err := e.Resolve(ctx, req)
	if err != nil {
		return fmt.Errorf("lectern resolve: %w", err)
	}
	if !result.Allowed {
		return fmt.Errorf("%w: %s: %s", ErrAccessDenied, result.Rule, result.Reason)
	}
	return nil
}

// CanI is a shorthand for a simple resolution.
func (e *Engine) CanI(ctx context.Context, userID string, resID id.ResourceID, permKey string) (bool, error) {
	result, err := e.Resolve(ctx, &ResolveRequest{
		UserID:     userID,
		ResourceID: resID,
		Permission: permKey,
	})
	if err != nil {
		return false, err
	}
	return result.Allowed, nil
}

// resolveSnapshot runs an uncached resolution stamped with the invalidation
// epoch observed before any store read.
func (e *Engine) resolveSnapshot(ctx context.Context, req *ResolveRequest) (resolution, error) {
	epoch := e.epoch.Load()
	res, err := e.resolveUncached(ctx, req)
	res.epoch = epoch
	return res, err
}

// resolveUncached runs the full precedence evaluation against the store.
//
// Precedence, highest first: explicit grant at the nearest granting
// ancestor, then role default stances as a permissive union, then
// fail-closed. The ancestor path is computed before the user's roles so
// that a missing resource surfaces as NotFound even for a user with no
// roles.
func (e *Engine) resolveUncached(ctx context.Context, req *ResolveRequest) (resolution, error) {
	if err := ctx.Err(); err != nil {
		return resolution{}, fmt.Errorf("%w: %v", ErrCancelled, err)
	}

	// 1. The permission key must exist in the catalog.
	perm, err := e.store.GetPermissionByKey(ctx, req.Permission)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return resolution{}, fmt.Errorf("permission %q: %w", req.Permission, ErrUnknownPermission)
		}
		return e.failClosed(ctx, fmt.Errorf("%w: get permission %q: %v", ErrStoreUnavailable, req.Permission, err))
	}

	// 2. Ancestor path, nearest-first. A missing resource is NotFound here
	// regardless of what roles the user holds.
	path, err := e.treeWalker.AncestorPath(ctx, e.store, req.ResourceID)
	if err != nil {
		if errors.Is(err, ErrStoreUnavailable) {
			return e.failClosed(ctx, err)
		}
		return resolution{}, err
	}

	// 3. Active roles, expiry applied at read time.
	roles, err := e.store.ListRolesForUser(ctx, req.UserID, e.now())
	if err != nil {
		return e.failClosedOnPath(ctx, path, fmt.Errorf("%w: list roles for %q: %v", ErrStoreUnavailable, req.UserID, err))
	}
	if len(roles) == 0 {
		return resolution{
			result: &ResolveResult{
				Allowed: false,
				Rule:    RuleNoRoles,
				Reason:  "user holds no roles",
			},
			path: path,
		}, nil
	}

	// 4. Nearest explicit grant wins, across all of the user's roles.
	for _, node := range path {
		roleID, ok, err := e.store.AnyGrant(ctx, roles, node, perm.ID)
		if err != nil {
			return e.failClosedOnPath(ctx, path, fmt.Errorf("%w: grant lookup at %s: %v", ErrStoreUnavailable, node, err))
		}
		if ok {
			return resolution{
				result: &ResolveResult{
					Allowed:   true,
					Rule:      RuleExplicitGrant,
					DecidedAt: node,
					RoleID:    roleID,
					Reason:    "explicit grant at " + node.String(),
				},
				path: path,
			}, nil
		}
	}

	// 5. No grant anywhere on the path: fold role defaults permissively.
	// Any Allow wins immediately; a Deny only decides if nothing allows.
	var denyRole id.RoleID
	sawDeny := false
	for _, roleID := range roles {
		stance, err := e.store.DefaultStance(ctx, roleID, perm.ID)
		if err != nil {
			return e.failClosedOnPath(ctx, path, fmt.Errorf("%w: default stance for role %s: %v", ErrStoreUnavailable, roleID, err))
		}
		switch stance {
		case role.Allow:
			return resolution{
				result: &ResolveResult{
					Allowed: true,
					Rule:    RuleDefaultAllow,
					RoleID:  roleID,
					Reason:  "role default allows " + req.Permission,
				},
				path: path,
			}, nil
		case role.Deny:
			if !sawDeny {
				denyRole = roleID
				sawDeny = true
			}
		}
	}
	if sawDeny {
		return resolution{
			result: &ResolveResult{
				Allowed: false,
				Rule:    RuleDefaultDeny,
				RoleID:  denyRole,
				Reason:  "role default denies " + req.Permission,
			},
			path: path,
		}, nil
	}

	// 6. Nothing granted, nothing stated: fail closed.
	return resolution{
		result: &ResolveResult{
			Allowed: false,
			Rule:    RuleFailClosed,
			Reason:  "no grant or stance covers " + req.Permission,
		},
		path: path,
	}, nil
}

// failClosed pairs the store error with a denied result so that callers
// ignoring the error still see a deny. A store call that failed because the
// caller's context ended is cancellation, not store unavailability.
func (e *Engine) failClosed(ctx context.Context, err error) (resolution, error) {
	return e.failClosedOnPath(ctx, nil, err)
}

func (e *Engine) failClosedOnPath(ctx context.Context, path []id.ResourceID, err error) (resolution, error) {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return resolution{}, fmt.Errorf("%w: %v", ErrCancelled, ctxErr)
	}
	e.logger.Error("lectern resolution failed closed", slog.Any("error", err))
	return resolution{
		result: &ResolveResult{
			Allowed: false,
			Rule:    RuleFailClosed,
			Reason:  "store unavailable",
		},
		path: path,
	}, err
}

func (e *Engine) writeDecisionLog(ctx context.Context, req *ResolveRequest, result *ResolveResult) {
	entry := &decisionlog.Entry{
		ID:         id.NewDecisionLogID(),
		UserID:     req.UserID,
		Permission: req.Permission,
		ResourceID: req.ResourceID.String(),
		Allowed:    result.Allowed,
		Rule:       string(result.Rule),
		Reason:     result.Reason,
		EvalTimeNs: result.EvalTimeNs,
		CreatedAt:  e.now(),
	}
	if !result.DecidedAt.IsNil() {
		entry.DecidedAt = result.DecidedAt.String()
	}
	if !result.RoleID.IsNil() {
		entry.RoleID = result.RoleID.String()
	}
	if err := e.store.CreateDecisionLog(ctx, entry); err != nil {
		e.logger.Warn("lectern decision log write failed", slog.Any("error", err))
	}
}
