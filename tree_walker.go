package lectern

import (
	"context"
	"errors"
	"fmt"

	"github.com/lecternhq/lectern/id"
	"github.com/lecternhq/lectern/resource"
	"github.com/lecternhq/lectern/store"
)

// TreeWalker computes ancestor paths through the resource forest.
type TreeWalker interface {
	// AncestorPath returns the path from the resource up to its root,
	// nearest-first and inclusive of both ends. It fails with
	// ErrResourceNotFound for an unknown resource and ErrCycleDetected
	// when the parent chain does not terminate.
	AncestorPath(ctx context.Context, resStore resource.Store, resID id.ResourceID) ([]id.ResourceID, error)
}

// DefaultTreeWalker returns a parent-chain walker with the given max depth.
// The depth bound is defense against corrupt data, on top of the visited-set
// cycle check; it must comfortably exceed the four-level content taxonomy.
func DefaultTreeWalker(maxDepth int) TreeWalker {
	if maxDepth <= 0 {
		maxDepth = 32
	}
	return &parentChainWalker{maxDepth: maxDepth}
}

type parentChainWalker struct {
	maxDepth int
}

func (w *parentChainWalker) AncestorPath(ctx context.Context, resStore resource.Store, resID id.ResourceID) ([]id.ResourceID, error) {
	path := make([]id.ResourceID, 0, 4)
	visited := make(map[string]struct{}, 4)

	current := resID
	for {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCancelled, err)
		}
		if len(path) >= w.maxDepth {
			return nil, fmt.Errorf("%w: parent chain exceeds %d nodes", ErrCycleDetected, w.maxDepth)
		}

		key := current.String()
		if _, seen := visited[key]; seen {
			return nil, fmt.Errorf("%w: revisited %s", ErrCycleDetected, current)
		}
		visited[key] = struct{}{}

		node, err := resStore.GetResource(ctx, current)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				// The entry resource itself missing is plain NotFound;
				// a dangling parent pointer mid-walk is data corruption
				// but surfaces the same way, with the chain in the message.
				if len(path) == 0 {
					return nil, fmt.Errorf("resource %s: %w", current, ErrResourceNotFound)
				}
				return nil, fmt.Errorf("ancestor %s of %s: %w", current, resID, ErrResourceNotFound)
			}
			return nil, fmt.Errorf("%w: get resource %s: %v", ErrStoreUnavailable, current, err)
		}

		path = append(path, node.ID)
		if node.ParentID == nil || node.ParentID.IsNil() {
			return path, nil
		}
		current = *node.ParentID
	}
}
