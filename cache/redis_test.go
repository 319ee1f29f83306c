package cache

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"

	"github.com/lecternhq/lectern/id"
)

func newTestRedis(t *testing.T) *Redis {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedis(client)
}

func TestRedisGetSet(t *testing.T) {
	ctx := context.Background()
	c := newTestRedis(t)

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
	if !got.Allowed {
		t.Fatalf("unexpected cached result: %+v", got)
	}
}

func TestRedisInvalidateUser(t *testing.T) {
	ctx := context.Background()
	c := newTestRedis(t)

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

func TestRedisInvalidateResourcesReachesSubtree(t *testing.T) {
	ctx := context.Background()
	c := newTestRedis(t)

	shelf := id.NewResourceID()
	book := id.NewResourceID()
	note := id.NewResourceID()

	noteReq := testRequest("user-1", note, "read")
	c.Set(ctx, noteReq, []id.ResourceID{note, book, shelf}, allowResult())

	c.InvalidateResources(ctx, shelf)

	if _, ok := c.Get(ctx, noteReq); ok {
		t.Fatal("expected descendant entry evicted via ancestor")
	}
}

func TestRedisInvalidatePermissionAndPurge(t *testing.T) {
	ctx := context.Background()
	c := newTestRedis(t)

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

	c.Purge(ctx)
	if _, ok := c.Get(ctx, read); ok {
		t.Fatal("expected empty cache after purge")
	}
}
