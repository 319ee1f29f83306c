// Package resource defines the Resource entity, a node in the
// shelf > book > chapter > note content hierarchy, and its store interface.
package resource

import (
	"time"

	"github.com/lecternhq/lectern/id"
)

// Kind is the closed enumeration of resource types. The engine's logic is
// identical across kinds; the taxonomy exists for callers and for the
// conventional shelf > book > chapter > note nesting, which is NOT
// hard-enforced; only acyclicity of the parent chain is.
type Kind string

const (
	// KindShelf is the top-level grouping of books.
	KindShelf Kind = "shelf"

	// KindBook groups chapters.
	KindBook Kind = "book"

	// KindChapter groups notes.
	KindChapter Kind = "chapter"

	// KindNote is a leaf content node.
	KindNote Kind = "note"
)

// Valid reports whether k is one of the recognized kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindShelf, KindBook, KindChapter, KindNote:
		return true
	default:
		return false
	}
}

// Resource is one node of the content forest. A nil ParentID marks a root.
type Resource struct {
	ID        id.ResourceID  `json:"id" db:"id"`
	Kind      Kind           `json:"kind" db:"kind"`
	Name      string         `json:"name" db:"name"`
	ParentID  *id.ResourceID `json:"parent_id,omitempty" db:"parent_id"`
	Metadata  map[string]any `json:"metadata,omitempty" db:"metadata"`
	CreatedAt time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt time.Time      `json:"updated_at" db:"updated_at"`
}

// ListFilter contains filters for listing resources.
type ListFilter struct {
	Kind     Kind           `json:"kind,omitempty"`
	ParentID *id.ResourceID `json:"parent_id,omitempty"`
	Search   string         `json:"search,omitempty"`
	Limit    int            `json:"limit,omitempty"`
	Offset   int            `json:"offset,omitempty"`
}
