package lectern_test

import (
	"context"
	"errors"
	"testing"

	"github.com/lecternhq/lectern"
	"github.com/lecternhq/lectern/id"
	"github.com/lecternhq/lectern/resource"
	"github.com/lecternhq/lectern/store/memory"
)

func TestAncestorPathNearestFirst(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	shelf := &resource.Resource{ID: id.NewResourceID(), Kind: resource.KindShelf, Name: "s"}
	book := &resource.Resource{ID: id.NewResourceID(), Kind: resource.KindBook, Name: "b", ParentID: &shelf.ID}
	note := &resource.Resource{ID: id.NewResourceID(), Kind: resource.KindNote, Name: "n", ParentID: &book.ID}
	for _, r := range []*resource.Resource{shelf, book, note} {
		if err := s.CreateResource(ctx, r); err != nil {
			t.Fatal(err)
		}
	}

	w := lectern.DefaultTreeWalker(32)
	path, err := w.AncestorPath(ctx, s, note.ID)
	if err != nil {
		t.Fatal(err)
	}
	want := []id.ResourceID{note.ID, book.ID, shelf.ID}
	if len(path) != len(want) {
		t.Fatalf("expected path of %d, got %d", len(want), len(path))
	}
	for i := range want {
		if path[i].String() != want[i].String() {
			t.Fatalf("path[%d]: expected %s, got %s", i, want[i], path[i])
		}
	}

	// A root's path is just itself.
	path, err = w.AncestorPath(ctx, s, shelf.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(path) != 1 {
		t.Fatalf("expected single-node path, got %d", len(path))
	}
}

func TestAncestorPathUnknownResource(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	w := lectern.DefaultTreeWalker(32)
	_, err := w.AncestorPath(ctx, s, id.NewResourceID())
	if !errors.Is(err, lectern.ErrResourceNotFound) {
		t.Fatalf("expected ErrResourceNotFound, got %v", err)
	}
}

func TestAncestorPathDanglingParent(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	ghost := id.NewResourceID()
	orphan := &resource.Resource{ID: id.NewResourceID(), Kind: resource.KindNote, Name: "orphan", ParentID: &ghost}
	if err := s.CreateResource(ctx, orphan); err != nil {
		t.Fatal(err)
	}

	w := lectern.DefaultTreeWalker(32)
	_, err := w.AncestorPath(ctx, s, orphan.ID)
	if !errors.Is(err, lectern.ErrResourceNotFound) {
		t.Fatalf("expected ErrResourceNotFound, got %v", err)
	}
}

func TestAncestorPathDetectsCycle(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	a := &resource.Resource{ID: id.NewResourceID(), Kind: resource.KindBook, Name: "a"}
	b := &resource.Resource{ID: id.NewResourceID(), Kind: resource.KindBook, Name: "b", ParentID: &a.ID}
	for _, r := range []*resource.Resource{a, b} {
		if err := s.CreateResource(ctx, r); err != nil {
			t.Fatal(err)
		}
	}
	// Corrupt the store directly: a's parent becomes its own child.
	if err := s.SetResourceParent(ctx, a.ID, &b.ID); err != nil {
		t.Fatal(err)
	}

	w := lectern.DefaultTreeWalker(32)
	_, err := w.AncestorPath(ctx, s, b.ID)
	if !errors.Is(err, lectern.ErrCycleDetected) {
		t.Fatalf("expected ErrCycleDetected, got %v", err)
	}
}

func TestAncestorPathDepthBound(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	// A chain deeper than the configured bound.
	var parent *id.ResourceID
	var leaf id.ResourceID
	for i := 0; i < 6; i++ {
		r := &resource.Resource{ID: id.NewResourceID(), Kind: resource.KindChapter, Name: "n", ParentID: parent}
		if err := s.CreateResource(ctx, r); err != nil {
			t.Fatal(err)
		}
		pid := r.ID
		parent = &pid
		leaf = r.ID
	}

	w := lectern.DefaultTreeWalker(4)
	_, err := w.AncestorPath(ctx, s, leaf)
	if !errors.Is(err, lectern.ErrCycleDetected) {
		t.Fatalf("expected ErrCycleDetected at depth bound, got %v", err)
	}
}

func TestAncestorPathCancelled(t *testing.T) {
	s := memory.New()
	ctx, cancel := context.WithCancel(context.Background())

	r := &resource.Resource{ID: id.NewResourceID(), Kind: resource.KindNote, Name: "n"}
	if err := s.CreateResource(context.Background(), r); err != nil {
		t.Fatal(err)
	}
	cancel()

	w := lectern.DefaultTreeWalker(32)
	_, err := w.AncestorPath(ctx, s, r.ID)
	if !errors.Is(err, lectern.ErrCancelled) {
		t.Fatalf("expected ErrCancelled, got %v", err)
	}
}
