package lectern_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lecternhq/lectern"
	"github.com/lecternhq/lectern/cache"
	"github.com/lecternhq/lectern/id"
	"github.com/lecternhq/lectern/permission"
	"github.com/lecternhq/lectern/resource"
	"github.com/lecternhq/lectern/role"
	"github.com/lecternhq/lectern/store"
	"github.com/lecternhq/lectern/store/memory"
)

// fixture is a seeded engine with the standard four-level taxonomy:
// shelf → book → chapter → note.
type fixture struct {
	eng     *lectern.Engine
	shelf   *resource.Resource
	book    *resource.Resource
	chapter *resource.Resource
	note    *resource.Resource
	editor  *role.Role
	viewer  *role.Role
	read    *permission.Permission
	write   *permission.Permission
}

func newFixture(t *testing.T, opts ...lectern.Option) *fixture {
	t.Helper()
	ctx := context.Background()

	opts = append([]lectern.Option{lectern.WithStore(memory.New())}, opts...)
	eng, err := lectern.NewEngine(opts...)
	if err != nil {
		t.Fatal(err)
	}
	if err := eng.SeedCatalog(ctx); err != nil {
		t.Fatal(err)
	}

	f := &fixture{eng: eng}

	f.read, err = eng.Store().GetPermissionByKey(ctx, permission.KeyRead)
	if err != nil {
		t.Fatal(err)
	}
	f.write, err = eng.Store().GetPermissionByKey(ctx, permission.KeyWrite)
	if err != nil {
		t.Fatal(err)
	}

	f.editor = &role.Role{Name: "Editor", Slug: "editor"}
	if err := eng.CreateRole(ctx, f.editor); err != nil {
		t.Fatal(err)
	}
	f.viewer = &role.Role{Name: "Viewer", Slug: "viewer"}
	if err := eng.CreateRole(ctx, f.viewer); err != nil {
		t.Fatal(err)
	}

	f.shelf = &resource.Resource{Kind: resource.KindShelf, Name: "Engineering"}
	if err := eng.CreateResource(ctx, f.shelf); err != nil {
		t.Fatal(err)
	}
	f.book = &resource.Resource{Kind: resource.KindBook, Name: "Runbooks", ParentID: &f.shelf.ID}
	if err := eng.CreateResource(ctx, f.book); err != nil {
		t.Fatal(err)
	}
	f.chapter = &resource.Resource{Kind: resource.KindChapter, Name: "Oncall", ParentID: &f.book.ID}
	if err := eng.CreateResource(ctx, f.chapter); err != nil {
		t.Fatal(err)
	}
	f.note = &resource.Resource{Kind: resource.KindNote, Name: "Escalation", ParentID: &f.chapter.ID}
	if err := eng.CreateResource(ctx, f.note); err != nil {
		t.Fatal(err)
	}
	return f
}

func (f *fixture) assign(t *testing.T, userID string, roleID id.RoleID) {
	t.Helper()
	if _, err := f.eng.AssignRole(context.Background(), userID, roleID, "test", nil); err != nil {
		t.Fatal(err)
	}
}

func (f *fixture) resolve(t *testing.T, userID string, resID id.ResourceID, perm string) *lectern.ResolveResult {
	t.Helper()
	result, err := f.eng.Resolve(context.Background(), &lectern.ResolveRequest{
		UserID:     userID,
		ResourceID: resID,
		Permission: perm,
	})
	if err != nil {
		t.Fatal(err)
	}
	return result
}

func TestGrantInheritsDownSubtree(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.assign(t, "alice", f.editor.ID)

	if _, err := f.eng.Grant(ctx, f.editor.ID, f.book.ID, f.write.ID, "admin"); err != nil {
		t.Fatal(err)
	}

	// The grant on the book covers the book, the chapter, and the note.
	for _, resID := range []id.ResourceID{f.book.ID, f.chapter.ID, f.note.ID} {
		result := f.resolve(t, "alice", resID, "write")
		if !result.Allowed {
			t.Fatalf("expected allow on %s", resID)
		}
		if result.Rule != lectern.RuleExplicitGrant {
			t.Fatalf("expected explicit_grant, got %s", result.Rule)
		}
		if result.DecidedAt.String() != f.book.ID.String() {
			t.Fatalf("expected decision at book, got %s", result.DecidedAt)
		}
	}

	// The shelf sits above the grant and is not covered.
	result := f.resolve(t, "alice", f.shelf.ID, "write")
	if result.Allowed {
		t.Fatal("expected deny above the granting node")
	}
}

func TestNearestAncestorGrantWins(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.assign(t, "alice", f.editor.ID)
	f.assign(t, "alice", f.viewer.ID)

	// Editor granted at the shelf, viewer granted closer, at the chapter.
	if _, err := f.eng.Grant(ctx, f.editor.ID, f.shelf.ID, f.read.ID, "admin"); err != nil {
		t.Fatal(err)
	}
	if _, err := f.eng.Grant(ctx, f.viewer.ID, f.chapter.ID, f.read.ID, "admin"); err != nil {
		t.Fatal(err)
	}

	result := f.resolve(t, "alice", f.note.ID, "read")
	if !result.Allowed {
		t.Fatal("expected allow")
	}
	if result.DecidedAt.String() != f.chapter.ID.String() {
		t.Fatalf("expected nearest grant at chapter to decide, got %s", result.DecidedAt)
	}
	if result.RoleID.String() != f.viewer.ID.String() {
		t.Fatalf("expected viewer's grant to fire, got %s", result.RoleID)
	}
}

func TestExplicitGrantBeatsDefaultDeny(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.assign(t, "alice", f.editor.ID)

	if err := f.eng.SetDefault(ctx, f.editor.ID, "write", false); err != nil {
		t.Fatal(err)
	}
	if _, err := f.eng.Grant(ctx, f.editor.ID, f.note.ID, f.write.ID, "admin"); err != nil {
		t.Fatal(err)
	}

	result := f.resolve(t, "alice", f.note.ID, "write")
	if !result.Allowed || result.Rule != lectern.RuleExplicitGrant {
		t.Fatalf("expected grant to beat default deny, got %+v", result)
	}
}

func TestDefaultStancePermissiveUnion(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.assign(t, "alice", f.editor.ID)
	f.assign(t, "alice", f.viewer.ID)

	// One role denies, the other allows: the allow wins.
	if err := f.eng.SetDefault(ctx, f.editor.ID, "read", false); err != nil {
		t.Fatal(err)
	}
	if err := f.eng.SetDefault(ctx, f.viewer.ID, "read", true); err != nil {
		t.Fatal(err)
	}

	result := f.resolve(t, "alice", f.note.ID, "read")
	if !result.Allowed {
		t.Fatal("expected permissive union to allow")
	}
	if result.Rule != lectern.RuleDefaultAllow {
		t.Fatalf("expected default_allow, got %s", result.Rule)
	}
	if result.RoleID.String() != f.viewer.ID.String() {
		t.Fatalf("expected viewer's stance to fire, got %s", result.RoleID)
	}
}

func TestDefaultDeny(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.assign(t, "bob", f.viewer.ID)

	if err := f.eng.SetDefault(ctx, f.viewer.ID, "write", false); err != nil {
		t.Fatal(err)
	}

	result := f.resolve(t, "bob", f.note.ID, "write")
	if result.Allowed {
		t.Fatal("expected deny")
	}
	if result.Rule != lectern.RuleDefaultDeny {
		t.Fatalf("expected default_deny, got %s", result.Rule)
	}
}

func TestFailClosedWhenEverythingUnset(t *testing.T) {
	f := newFixture(t)
	f.assign(t, "bob", f.viewer.ID)

	result := f.resolve(t, "bob", f.note.ID, "delete")
	if result.Allowed {
		t.Fatal("expected deny")
	}
	if result.Rule != lectern.RuleFailClosed {
		t.Fatalf("expected fail_closed, got %s", result.Rule)
	}
}

func TestNoRolesDenies(t *testing.T) {
	f := newFixture(t)

	result := f.resolve(t, "stranger", f.note.ID, "read")
	if result.Allowed {
		t.Fatal("expected deny")
	}
	if result.Rule != lectern.RuleNoRoles {
		t.Fatalf("expected no_roles, got %s", result.Rule)
	}
}

func TestUnknownResourceIsNotFoundEvenWithoutRoles(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	// A user with no roles still gets NotFound, not Denied, for a
	// resource that does not exist.
	_, err := f.eng.Resolve(ctx, &lectern.ResolveRequest{
		UserID:     "stranger",
		ResourceID: id.NewResourceID(),
		Permission: "read",
	})
	if !errors.Is(err, lectern.ErrResourceNotFound) {
		t.Fatalf("expected ErrResourceNotFound, got %v", err)
	}
}

func TestUnknownPermissionKey(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.assign(t, "alice", f.editor.ID)

	_, err := f.eng.Resolve(ctx, &lectern.ResolveRequest{
		UserID:     "alice",
		ResourceID: f.note.ID,
		Permission: "frobnicate",
	})
	if !errors.Is(err, lectern.ErrUnknownPermission) {
		t.Fatalf("expected ErrUnknownPermission, got %v", err)
	}
}

func TestCancelledContext(t *testing.T) {
	f := newFixture(t)
	f.assign(t, "alice", f.editor.ID)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.eng.Resolve(ctx, &lectern.ResolveRequest{
		UserID:     "alice",
		ResourceID: f.note.ID,
		Permission: "read",
	})
	if !errors.Is(err, lectern.ErrCancelled) {
		t.Fatalf("expected ErrCancelled, got %v", err)
	}
}

func TestExpiredAssignmentIgnored(t *testing.T) {
	ctx := context.Background()

	now := time.Now()
	clock := now
	f := newFixture(t, lectern.WithNow(func() time.Time { return clock }))

	expires := now.Add(time.Hour)
	if _, err := f.eng.AssignRole(ctx, "temp", f.editor.ID, "admin", &expires); err != nil {
		t.Fatal(err)
	}
	if err := f.eng.SetDefault(ctx, f.editor.ID, "read", true); err != nil {
		t.Fatal(err)
	}

	result := f.resolve(t, "temp", f.note.ID, "read")
	if !result.Allowed {
		t.Fatal("expected allow before expiry")
	}

	// Advance past the expiry: the role no longer counts.
	clock = now.Add(2 * time.Hour)
	result = f.resolve(t, "temp", f.note.ID, "read")
	if result.Allowed {
		t.Fatal("expected deny after expiry")
	}
	if result.Rule != lectern.RuleNoRoles {
		t.Fatalf("expected no_roles, got %s", result.Rule)
	}

	// Purge removes the lapsed row.
	n, err := f.eng.PurgeExpiredAssignments(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("expected 1 purged, got %d", n)
	}
}

func TestBulkResolveOmitsMissingResources(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.assign(t, "alice", f.editor.ID)
	if err := f.eng.SetDefault(ctx, f.editor.ID, "read", true); err != nil {
		t.Fatal(err)
	}

	missing := id.NewResourceID()
	results, err := f.eng.BulkResolve(ctx, "alice",
		[]id.ResourceID{f.book.ID, f.note.ID, missing}, "read")
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if _, ok := results[missing.String()]; ok {
		t.Fatal("expected missing resource omitted")
	}
	if !results[f.note.ID.String()].Allowed {
		t.Fatal("expected allow on note")
	}
}

func TestEnforce(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.assign(t, "alice", f.editor.ID)
	if _, err := f.eng.Grant(ctx, f.editor.ID, f.note.ID, f.read.ID, "admin"); err != nil {
		t.Fatal(err)
	}

	req := &lectern.ResolveRequest{UserID: "alice", ResourceID: f.note.ID, Permission: "read"}
	if err := f.eng.Enforce(ctx, req); err != nil {
		t.Fatal(err)
	}

	req.Permission = "delete"
	if err := f.eng.Enforce(ctx, req); !errors.Is(err, lectern.ErrAccessDenied) {
		t.Fatalf("expected ErrAccessDenied, got %v", err)
	}
}

func TestGrantInvalidatesCachedSubtree(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, lectern.WithCache(cache.NewMemory()))
	f.assign(t, "alice", f.editor.ID)

	// Cache a deny for the note.
	result := f.resolve(t, "alice", f.note.ID, "write")
	if result.Allowed {
		t.Fatal("expected deny before grant")
	}

	// Granting at the shelf must evict the note's cached deny.
	if _, err := f.eng.Grant(ctx, f.editor.ID, f.shelf.ID, f.write.ID, "admin"); err != nil {
		t.Fatal(err)
	}
	result = f.resolve(t, "alice", f.note.ID, "write")
	if !result.Allowed {
		t.Fatal("expected allow after ancestor grant")
	}

	// Revoking must flip it back.
	if err := f.eng.Revoke(ctx, f.editor.ID, f.shelf.ID, f.write.ID); err != nil {
		t.Fatal(err)
	}
	result = f.resolve(t, "alice", f.note.ID, "write")
	if result.Allowed {
		t.Fatal("expected deny after revoke")
	}
}

func TestStanceChangeInvalidatesCache(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, lectern.WithCache(cache.NewMemory()))
	f.assign(t, "alice", f.editor.ID)

	result := f.resolve(t, "alice", f.note.ID, "read")
	if result.Allowed {
		t.Fatal("expected deny with no stance")
	}

	if err := f.eng.SetDefault(ctx, f.editor.ID, "read", true); err != nil {
		t.Fatal(err)
	}
	result = f.resolve(t, "alice", f.note.ID, "read")
	if !result.Allowed {
		t.Fatal("expected allow after stance set")
	}

	if err := f.eng.ClearDefault(ctx, f.editor.ID, "read"); err != nil {
		t.Fatal(err)
	}
	result = f.resolve(t, "alice", f.note.ID, "read")
	if result.Allowed {
		t.Fatal("expected deny after stance cleared")
	}
}

func TestAssignmentChangeInvalidatesCache(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, lectern.WithCache(cache.NewMemory()))
	if err := f.eng.SetDefault(ctx, f.editor.ID, "read", true); err != nil {
		t.Fatal(err)
	}

	result := f.resolve(t, "alice", f.note.ID, "read")
	if result.Allowed {
		t.Fatal("expected deny with no roles")
	}

	f.assign(t, "alice", f.editor.ID)
	result = f.resolve(t, "alice", f.note.ID, "read")
	if !result.Allowed {
		t.Fatal("expected allow after assignment")
	}

	if err := f.eng.UnassignRole(ctx, "alice", f.editor.ID); err != nil {
		t.Fatal(err)
	}
	result = f.resolve(t, "alice", f.note.ID, "read")
	if result.Allowed {
		t.Fatal("expected deny after unassignment")
	}
}

func TestMoveResourceChangesInheritance(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, lectern.WithCache(cache.NewMemory()))
	f.assign(t, "alice", f.editor.ID)

	// Grant at the book: the note (inside the book) is covered.
	if _, err := f.eng.Grant(ctx, f.editor.ID, f.book.ID, f.read.ID, "admin"); err != nil {
		t.Fatal(err)
	}
	if !f.resolve(t, "alice", f.note.ID, "read").Allowed {
		t.Fatal("expected allow before move")
	}

	// Move the chapter (with the note inside) directly under the shelf:
	// the book's grant no longer reaches the note.
	if err := f.eng.MoveResource(ctx, f.chapter.ID, &f.shelf.ID); err != nil {
		t.Fatal(err)
	}
	if f.resolve(t, "alice", f.note.ID, "read").Allowed {
		t.Fatal("expected deny after moving out of the granted subtree")
	}
}

func TestMoveResourceRejectsCycle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	// The book cannot be moved under its own descendant.
	err := f.eng.MoveResource(ctx, f.book.ID, &f.note.ID)
	if !errors.Is(err, lectern.ErrCycleDetected) {
		t.Fatalf("expected ErrCycleDetected, got %v", err)
	}
}

func TestDeleteResourceCascades(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, lectern.WithCache(cache.NewMemory()))
	f.assign(t, "alice", f.editor.ID)

	if _, err := f.eng.Grant(ctx, f.editor.ID, f.chapter.ID, f.read.ID, "admin"); err != nil {
		t.Fatal(err)
	}
	if !f.resolve(t, "alice", f.note.ID, "read").Allowed {
		t.Fatal("expected allow before delete")
	}

	// Deleting the book takes the chapter and note with it.
	if err := f.eng.DeleteResource(ctx, f.book.ID); err != nil {
		t.Fatal(err)
	}
	for _, resID := range []id.ResourceID{f.book.ID, f.chapter.ID, f.note.ID} {
		_, err := f.eng.Resolve(ctx, &lectern.ResolveRequest{
			UserID: "alice", ResourceID: resID, Permission: "read",
		})
		if !errors.Is(err, lectern.ErrResourceNotFound) {
			t.Fatalf("expected ErrResourceNotFound for %s, got %v", resID, err)
		}
	}

	// The grants anchored inside are gone too.
	count, err := f.eng.Store().CountGrants(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	if count != 0 {
		t.Fatalf("expected 0 grants after cascade, got %d", count)
	}
}

func TestDeleteRoleCascades(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, lectern.WithCache(cache.NewMemory()))
	f.assign(t, "alice", f.editor.ID)

	if _, err := f.eng.Grant(ctx, f.editor.ID, f.shelf.ID, f.read.ID, "admin"); err != nil {
		t.Fatal(err)
	}
	if !f.resolve(t, "alice", f.note.ID, "read").Allowed {
		t.Fatal("expected allow before role delete")
	}

	if err := f.eng.DeleteRole(ctx, f.editor.ID); err != nil {
		t.Fatal(err)
	}

	result := f.resolve(t, "alice", f.note.ID, "read")
	if result.Allowed {
		t.Fatal("expected deny after role delete")
	}
	if result.Rule != lectern.RuleNoRoles {
		t.Fatalf("expected no_roles, got %s", result.Rule)
	}
}

func TestSystemEntitiesImmutable(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	// Seeded permissions cannot be deleted.
	if err := f.eng.DeletePermission(ctx, f.read.ID); !errors.Is(err, lectern.ErrSystemPermissionImmutable) {
		t.Fatalf("expected ErrSystemPermissionImmutable, got %v", err)
	}

	sys := &role.Role{Name: "Root", Slug: "root", IsSystem: true}
	if err := f.eng.CreateRole(ctx, sys); err != nil {
		t.Fatal(err)
	}
	if err := f.eng.DeleteRole(ctx, sys.ID); !errors.Is(err, lectern.ErrSystemRoleImmutable) {
		t.Fatalf("expected ErrSystemRoleImmutable, got %v", err)
	}
	sys.Description = "renamed"
	if err := f.eng.UpdateRole(ctx, sys); !errors.Is(err, lectern.ErrSystemRoleImmutable) {
		t.Fatalf("expected ErrSystemRoleImmutable on update, got %v", err)
	}
}

func TestSeedCatalogIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	if err := f.eng.SeedCatalog(ctx); err != nil {
		t.Fatal(err)
	}
	count, err := f.eng.Store().CountPermissions(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	if count != 4 {
		t.Fatalf("expected 4 seeded permissions, got %d", count)
	}
}

func TestDuplicateGrantAndAssignment(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.assign(t, "alice", f.editor.ID)

	if _, err := f.eng.AssignRole(ctx, "alice", f.editor.ID, "admin", nil); !errors.Is(err, lectern.ErrDuplicateAssignment) {
		t.Fatalf("expected ErrDuplicateAssignment, got %v", err)
	}

	if _, err := f.eng.Grant(ctx, f.editor.ID, f.note.ID, f.read.ID, "admin"); err != nil {
		t.Fatal(err)
	}
	if _, err := f.eng.Grant(ctx, f.editor.ID, f.note.ID, f.read.ID, "admin"); !errors.Is(err, lectern.ErrDuplicateGrant) {
		t.Fatalf("expected ErrDuplicateGrant, got %v", err)
	}
}

func TestDecisionLogRecordsResolutions(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, lectern.WithConfig(lectern.Config{
		MaxTreeDepth:      32,
		EnableDecisionLog: true,
	}))
	f.assign(t, "alice", f.editor.ID)

	f.resolve(t, "alice", f.note.ID, "read")
	f.resolve(t, "alice", f.note.ID, "write")

	count, err := f.eng.Store().CountDecisionLogs(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	if count != 2 {
		t.Fatalf("expected 2 log entries, got %d", count)
	}
}

// gatedStore parks AnyGrant after it has read a grant so the test can land
// a mutation while a resolution is in flight.
type gatedStore struct {
	store.Store
	read    chan struct{}
	release chan struct{}
}

func (g *gatedStore) AnyGrant(ctx context.Context, roleIDs []id.RoleID, resID id.ResourceID, permID id.PermissionID) (id.RoleID, bool, error) {
	roleID, ok, err := g.Store.AnyGrant(ctx, roleIDs, resID, permID)
	if ok {
		g.read <- struct{}{}
		<-g.release
	}
	return roleID, ok, err
}

func TestRevokeMidResolutionDoesNotRepopulateCache(t *testing.T) {
	ctx := context.Background()
	gate := &gatedStore{
		Store:   memory.New(),
		read:    make(chan struct{}),
		release: make(chan struct{}),
	}
	f := newFixture(t, lectern.WithStore(gate), lectern.WithCache(cache.NewMemory()))
	f.assign(t, "alice", f.editor.ID)
	if _, err := f.eng.Grant(ctx, f.editor.ID, f.book.ID, f.read.ID, "admin"); err != nil {
		t.Fatal(err)
	}

	// A resolution reads the grant, then parks before caching its result.
	inflight := make(chan *lectern.ResolveResult, 1)
	go func() {
		result, err := f.eng.Resolve(ctx, &lectern.ResolveRequest{
			UserID:     "alice",
			ResourceID: f.note.ID,
			Permission: "read",
		})
		if err != nil {
			inflight <- nil
			return
		}
		inflight <- result
	}()

	<-gate.read
	if err := f.eng.Revoke(ctx, f.editor.ID, f.book.ID, f.read.ID); err != nil {
		t.Fatal(err)
	}
	close(gate.release)

	result := <-inflight
	if result == nil {
		t.Fatal("in-flight resolution failed")
	}
	if !result.Allowed {
		t.Fatal("in-flight resolution should observe the pre-revoke grant")
	}

	// The in-flight result must not have survived the revoke's
	// invalidation: a fresh resolution recomputes and denies.
	after := f.resolve(t, "alice", f.note.ID, "read")
	if after.Allowed {
		t.Fatalf("revoked grant still allowed (rule=%s)", after.Rule)
	}
	if after.Rule != lectern.RuleFailClosed {
		t.Fatalf("expected rule %s, got %s", lectern.RuleFailClosed, after.Rule)
	}
}

// cancellingStore cancels the caller's context from inside a store call and
// returns the context error, the way DB drivers surface mid-query
// cancellation.
type cancellingStore struct {
	store.Store
	cancel context.CancelFunc
}

func (s *cancellingStore) ListRolesForUser(ctx context.Context, userID string, now time.Time) ([]id.RoleID, error) {
	s.cancel()
	return nil, ctx.Err()
}

func TestCancellationDuringStoreCallSurfacesCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	cs := &cancellingStore{Store: memory.New(), cancel: cancel}
	f := newFixture(t, lectern.WithStore(cs))

	_, err := f.eng.Resolve(ctx, &lectern.ResolveRequest{
		UserID:     "alice",
		ResourceID: f.note.ID,
		Permission: "read",
	})
	if !errors.Is(err, lectern.ErrCancelled) {
		t.Fatalf("expected ErrCancelled, got %v", err)
	}
	if errors.Is(err, lectern.ErrStoreUnavailable) {
		t.Fatalf("cancellation misreported as store failure: %v", err)
	}
}
