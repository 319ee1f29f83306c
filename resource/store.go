package resource

import (
	"context"

	"github.com/lecternhq/lectern/id"
)

// Store defines persistence operations for the resource forest.
// It is an indexed arena: nodes are looked up by ID and hold a parent
// pointer, so ancestor walks are O(depth) and never chase object references.
type Store interface {
	// CreateResource persists a new resource node.
	CreateResource(ctx context.Context, r *Resource) error

	// GetResource retrieves a resource by ID.
	GetResource(ctx context.Context, resID id.ResourceID) (*Resource, error)

	// UpdateResource persists changes to a resource.
	UpdateResource(ctx context.Context, r *Resource) error

	// SetResourceParent re-points a resource's parent. A nil parent makes
	// the resource a root. Acyclicity is the engine's job to verify before
	// calling; the store only records the pointer.
	SetResourceParent(ctx context.Context, resID id.ResourceID, parentID *id.ResourceID) error

	// DeleteResources removes the given resource nodes. Subtree expansion
	// and grant cascades are the engine's job.
	DeleteResources(ctx context.Context, resIDs []id.ResourceID) error

	// ListResources returns resources matching the filter.
	ListResources(ctx context.Context, filter *ListFilter) ([]*Resource, error)

	// CountResources returns the number of resources matching the filter.
	CountResources(ctx context.Context, filter *ListFilter) (int64, error)

	// ListChildResources returns the direct children of a resource.
	ListChildResources(ctx context.Context, parentID id.ResourceID) ([]*Resource, error)
}
