package lectern

import (
	"context"

	"github.com/lecternhq/lectern/id"
)

// Cache memoizes resolution results keyed by (user, resource, permission).
// Every cached entry records the ancestor path the resolution walked, so
// that grant and hierarchy mutations anywhere on that path can evict it:
// invalidating a resource reaches every descendant's entry because the
// resource appears on each descendant's recorded path.
//
// Correctness invariant: a cached value must always match what a full
// recomputation would produce. Administrative mutations invalidate
// synchronously before returning, so staleness is never observable after
// a write commits.
type Cache interface {
	// Get returns a cached resolution, if present.
	Get(ctx context.Context, req *ResolveRequest) (*ResolveResult, bool)

	// Set stores a resolution together with the ancestor path it walked,
	// nearest-first.
	Set(ctx context.Context, req *ResolveRequest, path []id.ResourceID, result *ResolveResult)

	// InvalidateUser removes all cached resolutions for a user.
	InvalidateUser(ctx context.Context, userID string)

	// InvalidatePermission removes all cached resolutions of a permission
	// key, for every user and resource. Used when a role's default stance
	// changes: coarse but safe.
	InvalidatePermission(ctx context.Context, permission string)

	// InvalidateResources removes every cached resolution whose recorded
	// ancestor path touches any of the given resources.
	InvalidateResources(ctx context.Context, resIDs ...id.ResourceID)

	// Purge removes everything.
	Purge(ctx context.Context)
}
