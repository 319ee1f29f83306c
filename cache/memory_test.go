package cache

import (
	"context"
	"testing"
	"time"

	"github.com/lecternhq/lectern"
	"github.com/lecternhq/lectern/id"
)

func testRequest(userID string, resID id.ResourceID, perm string) *lectern.ResolveRequest {
	return &lectern.ResolveRequest{UserID: userID, ResourceID: resID, Permission: perm}
}

func allowResult() *lectern.ResolveResult {
	return &lectern.ResolveResult{Allowed: true, Rule: lectern.RuleExplicitGrant}
}

func TestMemoryGetSet(t *testing.T) {
	ctx := context.Background()
	c := NewMemory()

	note := id.NewResourceID()
	req := testRequest("user-1", note, "read")

	if _, ok := c.Get(ctx, req); ok {
		t.Fatal("expected miss on empty cache")
	}

	c.Set(ctx, req, []id.ResourceID{note}, allowResult())
	got, ok := c.Get(ctx, req)
	if !ok {
		t.Fatal("expected hit")
	}
	if !got.Allowed || got.Rule != lectern.RuleExplicitGrant {
		t.Fatalf("unexpected cached result: %+v", got)
	}

	// A hit returns a copy: mutating it must not poison the cache.
	got.Allowed = false
	again, _ := c.Get(ctx, req)
	if !again.Allowed {
		t.Fatal("cached entry was mutated through a returned copy")
	}
}

func TestMemoryTTL(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(WithTTL(20 * time.Millisecond))

	note := id.NewResourceID()
	req := testRequest("user-1", note, "read")
	c.Set(ctx, req, []id.ResourceID{note}, allowResult())

	if _, ok := c.Get(ctx, req); !ok {
		t.Fatal("expected hit before expiry")
	}
	time.Sleep(40 * time.Millisecond)
	if _, ok := c.Get(ctx, req); ok {
		t.Fatal("expected miss after expiry")
	}
}

func TestMemoryInvalidateUser(t *testing.T) {
	ctx := context.Background()
	c := NewMemory()

	note := id.NewResourceID()
	reqA := testRequest("user-a", note, "read")
	reqB := testRequest("user-b", note, "read")
	c.Set(ctx, reqA, []id.ResourceID{note}, allowResult())
	c.Set(ctx, reqB, []id.ResourceID{note}, allowResult())

	c.InvalidateUser(ctx, "user-a")

	if _, ok := c.Get(ctx, reqA); ok {
		t.Fatal("expected user-a entry evicted")
	}
	if _, ok := c.Get(ctx, reqB); !ok {
		t.Fatal("expected user-b entry untouched")
	}
}

func TestMemoryInvalidatePermission(t *testing.T) {
	ctx := context.Background()
	c := NewMemory()

	note := id.NewResourceID()
	read := testRequest("user-1", note, "read")
	write := testRequest("user-1", note, "write")
	c.Set(ctx, read, []id.ResourceID{note}, allowResult())
	c.Set(ctx, write, []id.ResourceID{note}, allowResult())

	c.InvalidatePermission(ctx, "write")

	if _, ok := c.Get(ctx, write); ok {
		t.Fatal("expected write entry evicted")
	}
	if _, ok := c.Get(ctx, read); !ok {
		t.Fatal("expected read entry untouched")
	}
}

func TestMemoryInvalidateResourcesReachesSubtree(t *testing.T) {
	ctx := context.Background()
	c := NewMemory()

	shelf := id.NewResourceID()
	book := id.NewResourceID()
	note := id.NewResourceID()
	other := id.NewResourceID()

	// The note's resolution walked note → book → shelf.
	noteReq := testRequest("user-1", note, "read")
	c.Set(ctx, noteReq, []id.ResourceID{note, book, shelf}, allowResult())

	// An unrelated root.
	otherReq := testRequest("user-1", other, "read")
	c.Set(ctx, otherReq, []id.ResourceID{other}, allowResult())

	// Invalidating the book must evict the note's entry even though the
	// request named the note, because the book is on its recorded path.
	c.InvalidateResources(ctx, book)

	if _, ok := c.Get(ctx, noteReq); ok {
		t.Fatal("expected descendant entry evicted via ancestor")
	}
	if _, ok := c.Get(ctx, otherReq); !ok {
		t.Fatal("expected unrelated entry untouched")
	}
}

func TestMemoryPurge(t *testing.T) {
	ctx := context.Background()
	c := NewMemory()

	note := id.NewResourceID()
	req := testRequest("user-1", note, "read")
	c.Set(ctx, req, []id.ResourceID{note}, allowResult())

	c.Purge(ctx)

	if _, ok := c.Get(ctx, req); ok {
		t.Fatal("expected empty cache after purge")
	}
	if c.Len() != 0 {
		t.Fatalf("expected 0 entries, got %d", c.Len())
	}
}
