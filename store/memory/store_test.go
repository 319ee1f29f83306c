package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lecternhq/lectern/assignment"
	"github.com/lecternhq/lectern/decisionlog"
	"github.com/lecternhq/lectern/grant"
	"github.com/lecternhq/lectern/id"
	"github.com/lecternhq/lectern/permission"
	"github.com/lecternhq/lectern/resource"
	"github.com/lecternhq/lectern/role"
	"github.com/lecternhq/lectern/store"
)

func TestRoleCRUD(t *testing.T) {
	ctx := context.Background()
	s := New()

	r := &role.Role{
		ID:   id.NewRoleID(),
		Name: "Editor",
		Slug: "editor",
	}

	// Create
	if err := s.CreateRole(ctx, r); err != nil {
		t.Fatal(err)
	}

	// Duplicate slug
	dup := &role.Role{ID: id.NewRoleID(), Name: "Editor 2", Slug: "editor"}
	if err := s.CreateRole(ctx, dup); !errors.Is(err, store.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}

	// Get
	got, err := s.GetRole(ctx, r.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "Editor" {
		t.Fatalf("expected Editor, got %s", got.Name)
	}

	// GetBySlug
	got, err = s.GetRoleBySlug(ctx, "editor")
	if err != nil {
		t.Fatal(err)
	}
	if got.ID.String() != r.ID.String() {
		t.Fatal("slug lookup mismatch")
	}

	// Update
	r.Name = "Senior Editor"
	if err := s.UpdateRole(ctx, r); err != nil {
		t.Fatal(err)
	}
	got, _ = s.GetRole(ctx, r.ID)
	if got.Name != "Senior Editor" {
		t.Fatal("update failed")
	}

	// List + Count
	list, _ := s.ListRoles(ctx, &role.ListFilter{Search: "editor"})
	if len(list) != 1 {
		t.Fatalf("expected 1 role, got %d", len(list))
	}
	count, _ := s.CountRoles(ctx, nil)
	if count != 1 {
		t.Fatalf("expected count 1, got %d", count)
	}

	// Delete
	if err := s.DeleteRole(ctx, r.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := s.GetRole(ctx, r.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestDefaultStances(t *testing.T) {
	ctx := context.Background()
	s := New()

	r := &role.Role{ID: id.NewRoleID(), Name: "Viewer", Slug: "viewer"}
	if err := s.CreateRole(ctx, r); err != nil {
		t.Fatal(err)
	}
	permID := id.NewPermissionID()

	// Absent stance is Unset, not an error.
	stance, err := s.DefaultStance(ctx, r.ID, permID)
	if err != nil {
		t.Fatal(err)
	}
	if stance != role.Unset {
		t.Fatalf("expected Unset, got %v", stance)
	}

	// Set allow.
	if err := s.SetDefaultStance(ctx, r.ID, permID, true); err != nil {
		t.Fatal(err)
	}
	stance, _ = s.DefaultStance(ctx, r.ID, permID)
	if stance != role.Allow {
		t.Fatalf("expected Allow, got %v", stance)
	}

	// Overwrite with deny.
	if err := s.SetDefaultStance(ctx, r.ID, permID, false); err != nil {
		t.Fatal(err)
	}
	stance, _ = s.DefaultStance(ctx, r.ID, permID)
	if stance != role.Deny {
		t.Fatalf("expected Deny, got %v", stance)
	}

	stances, _ := s.ListDefaultStances(ctx, r.ID)
	if len(stances) != 1 {
		t.Fatalf("expected 1 stance, got %d", len(stances))
	}

	// Clear returns to Unset; clearing again is a no-op.
	if err := s.ClearDefaultStance(ctx, r.ID, permID); err != nil {
		t.Fatal(err)
	}
	if err := s.ClearDefaultStance(ctx, r.ID, permID); err != nil {
		t.Fatal(err)
	}
	stance, _ = s.DefaultStance(ctx, r.ID, permID)
	if stance != role.Unset {
		t.Fatalf("expected Unset after clear, got %v", stance)
	}

	// Role deletion cascades stances.
	if err := s.SetDefaultStance(ctx, r.ID, permID, true); err != nil {
		t.Fatal(err)
	}
	if err := s.DeleteRole(ctx, r.ID); err != nil {
		t.Fatal(err)
	}
	stances, _ = s.ListDefaultStances(ctx, r.ID)
	if len(stances) != 0 {
		t.Fatal("expected stances gone after role delete")
	}
}

func TestPermissionCRUD(t *testing.T) {
	ctx := context.Background()
	s := New()

	p := &permission.Permission{ID: id.NewPermissionID(), Key: "read"}
	if err := s.CreatePermission(ctx, p); err != nil {
		t.Fatal(err)
	}

	dup := &permission.Permission{ID: id.NewPermissionID(), Key: "read"}
	if err := s.CreatePermission(ctx, dup); !errors.Is(err, store.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}

	got, err := s.GetPermissionByKey(ctx, "read")
	if err != nil {
		t.Fatal(err)
	}
	if got.ID.String() != p.ID.String() {
		t.Fatal("key lookup mismatch")
	}

	if _, err := s.GetPermissionByKey(ctx, "publish"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := s.DeletePermission(ctx, p.ID); err != nil {
		t.Fatal(err)
	}
	count, _ := s.CountPermissions(ctx, nil)
	if count != 0 {
		t.Fatalf("expected 0 permissions, got %d", count)
	}
}

func TestResourceHierarchy(t *testing.T) {
	ctx := context.Background()
	s := New()

	shelf := &resource.Resource{ID: id.NewResourceID(), Kind: resource.KindShelf, Name: "Engineering"}
	if err := s.CreateResource(ctx, shelf); err != nil {
		t.Fatal(err)
	}
	book := &resource.Resource{ID: id.NewResourceID(), Kind: resource.KindBook, Name: "Runbooks", ParentID: &shelf.ID}
	if err := s.CreateResource(ctx, book); err != nil {
		t.Fatal(err)
	}
	chapter := &resource.Resource{ID: id.NewResourceID(), Kind: resource.KindChapter, Name: "Oncall", ParentID: &book.ID}
	if err := s.CreateResource(ctx, chapter); err != nil {
		t.Fatal(err)
	}

	children, err := s.ListChildResources(ctx, shelf.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(children) != 1 || children[0].ID.String() != book.ID.String() {
		t.Fatalf("expected [book], got %d children", len(children))
	}

	// Reparent the chapter directly under the shelf.
	if err := s.SetResourceParent(ctx, chapter.ID, &shelf.ID); err != nil {
		t.Fatal(err)
	}
	children, _ = s.ListChildResources(ctx, shelf.ID)
	if len(children) != 2 {
		t.Fatalf("expected 2 children after move, got %d", len(children))
	}
	children, _ = s.ListChildResources(ctx, book.ID)
	if len(children) != 0 {
		t.Fatalf("expected book emptied, got %d children", len(children))
	}

	// Detach as root.
	if err := s.SetResourceParent(ctx, chapter.ID, nil); err != nil {
		t.Fatal(err)
	}
	got, _ := s.GetResource(ctx, chapter.ID)
	if got.ParentID != nil {
		t.Fatal("expected nil parent after detach")
	}

	// Bulk delete removes nodes and their child-index entries.
	if err := s.DeleteResources(ctx, []id.ResourceID{book.ID, chapter.ID}); err != nil {
		t.Fatal(err)
	}
	children, _ = s.ListChildResources(ctx, shelf.ID)
	if len(children) != 0 {
		t.Fatalf("expected 0 children after delete, got %d", len(children))
	}
	if _, err := s.GetResource(ctx, book.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	list, _ := s.ListResources(ctx, &resource.ListFilter{Kind: resource.KindShelf})
	if len(list) != 1 {
		t.Fatalf("expected 1 shelf, got %d", len(list))
	}
}

func TestAssignments(t *testing.T) {
	ctx := context.Background()
	s := New()
	now := time.Now()

	roleID := id.NewRoleID()
	a := &assignment.Assignment{
		ID:        id.NewAssignmentID(),
		UserID:    "user-1",
		RoleID:    roleID,
		CreatedAt: now,
	}
	if err := s.CreateAssignment(ctx, a); err != nil {
		t.Fatal(err)
	}

	// Duplicate pair fails.
	dup := &assignment.Assignment{ID: id.NewAssignmentID(), UserID: "user-1", RoleID: roleID}
	if err := s.CreateAssignment(ctx, dup); !errors.Is(err, store.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}

	// Expired assignment excluded from the role listing.
	expired := now.Add(-time.Hour)
	old := &assignment.Assignment{
		ID:        id.NewAssignmentID(),
		UserID:    "user-1",
		RoleID:    id.NewRoleID(),
		ExpiresAt: &expired,
		CreatedAt: now.Add(-2 * time.Hour),
	}
	if err := s.CreateAssignment(ctx, old); err != nil {
		t.Fatal(err)
	}

	roles, err := s.ListRolesForUser(ctx, "user-1", now)
	if err != nil {
		t.Fatal(err)
	}
	if len(roles) != 1 || roles[0].String() != roleID.String() {
		t.Fatalf("expected only the unexpired role, got %d", len(roles))
	}

	// Purge deletes the expired row.
	n, err := s.DeleteExpiredAssignments(ctx, now)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("expected 1 purged, got %d", n)
	}

	// Delete by pair.
	if err := s.DeleteAssignmentByPair(ctx, "user-1", roleID); err != nil {
		t.Fatal(err)
	}
	if err := s.DeleteAssignmentByPair(ctx, "user-1", roleID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGrants(t *testing.T) {
	ctx := context.Background()
	s := New()

	roleA := id.NewRoleID()
	roleB := id.NewRoleID()
	resID := id.NewResourceID()
	permID := id.NewPermissionID()

	g := &grant.Grant{
		ID:           id.NewGrantID(),
		RoleID:       roleA,
		ResourceID:   resID,
		PermissionID: permID,
	}
	if err := s.CreateGrant(ctx, g); err != nil {
		t.Fatal(err)
	}

	// Duplicate triple fails even under a fresh grant ID.
	dup := &grant.Grant{ID: id.NewGrantID(), RoleID: roleA, ResourceID: resID, PermissionID: permID}
	if err := s.CreateGrant(ctx, dup); !errors.Is(err, store.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}

	ok, err := s.HasGrant(ctx, roleA, resID, permID)
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("expected grant present")
	}

	// AnyGrant reports which role matched.
	matched, ok, err := s.AnyGrant(ctx, []id.RoleID{roleB, roleA}, resID, permID)
	if err != nil {
		t.Fatal(err)
	}
	if !ok || matched.String() != roleA.String() {
		t.Fatalf("expected match on roleA, ok=%v matched=%s", ok, matched)
	}

	_, ok, _ = s.AnyGrant(ctx, []id.RoleID{roleB}, resID, permID)
	if ok {
		t.Fatal("expected no match for roleB")
	}

	// Delete by triple, then the index is clean.
	if err := s.DeleteGrantByTriple(ctx, roleA, resID, permID); err != nil {
		t.Fatal(err)
	}
	ok, _ = s.HasGrant(ctx, roleA, resID, permID)
	if ok {
		t.Fatal("expected grant gone")
	}

	// Cascade deletes.
	if err := s.CreateGrant(ctx, &grant.Grant{ID: id.NewGrantID(), RoleID: roleA, ResourceID: resID, PermissionID: permID}); err != nil {
		t.Fatal(err)
	}
	if err := s.DeleteGrantsByResources(ctx, []id.ResourceID{resID}); err != nil {
		t.Fatal(err)
	}
	count, _ := s.CountGrants(ctx, nil)
	if count != 0 {
		t.Fatalf("expected 0 grants, got %d", count)
	}
}

func TestDecisionLogs(t *testing.T) {
	ctx := context.Background()
	s := New()
	now := time.Now()

	for i, allowed := range []bool{true, false, true} {
		e := &decisionlog.Entry{
			ID:         id.NewDecisionLogID(),
			UserID:     "user-1",
			Permission: "read",
			ResourceID: "res-1",
			Allowed:    allowed,
			Rule:       "explicit_grant",
			CreatedAt:  now.Add(time.Duration(i) * time.Minute),
		}
		if err := s.CreateDecisionLog(ctx, e); err != nil {
			t.Fatal(err)
		}
	}

	allowed := true
	list, err := s.ListDecisionLogs(ctx, &decisionlog.QueryFilter{UserID: "user-1", Allowed: &allowed})
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 allowed entries, got %d", len(list))
	}

	n, err := s.PurgeDecisionLogs(ctx, now.Add(30*time.Second))
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("expected 1 purged, got %d", n)
	}
	count, _ := s.CountDecisionLogs(ctx, nil)
	if count != 2 {
		t.Fatalf("expected 2 remaining, got %d", count)
	}
}

func TestAssignmentExpiryBoundary(t *testing.T) {
	ctx := context.Background()
	s := New()
	now := time.Now()

	// Expiring exactly now no longer confers the role, matching the SQL
	// backends' expires_at > now predicate.
	at := now
	a := &assignment.Assignment{
		ID:        id.NewAssignmentID(),
		UserID:    "user-1",
		RoleID:    id.NewRoleID(),
		ExpiresAt: &at,
		CreatedAt: now.Add(-time.Hour),
	}
	if err := s.CreateAssignment(ctx, a); err != nil {
		t.Fatal(err)
	}

	roles, err := s.ListRolesForUser(ctx, "user-1", now)
	if err != nil {
		t.Fatal(err)
	}
	if len(roles) != 0 {
		t.Fatalf("expected no roles at the expiry instant, got %d", len(roles))
	}

	// And the purge collects it.
	n, err := s.DeleteExpiredAssignments(ctx, now)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("expected 1 purged, got %d", n)
	}
}
