package plugin

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/lecternhq/lectern/grant"
	"github.com/lecternhq/lectern/id"
	"github.com/lecternhq/lectern/role"
)

// testPlugin implements Plugin + RoleCreated + AfterResolve + GrantCreated.
type testPlugin struct {
	roleCreatedCalled  bool
	afterResolveCalled bool
	grantCreatedCalled bool
}

func (t *testPlugin) Name() string { return "test-plugin" }

func (t *testPlugin) OnRoleCreated(_ context.Context, _ *role.Role) error {
	t.roleCreatedCalled = true
	return nil
}

func (t *testPlugin) OnAfterResolve(_ context.Context, _, _ any) error {
	t.afterResolveCalled = true
	return nil
}

func (t *testPlugin) OnGrantCreated(_ context.Context, _ *grant.Grant) error {
	t.grantCreatedCalled = true
	return nil
}

// minimalPlugin only implements Plugin (no hooks).
type minimalPlugin struct{}

func (m *minimalPlugin) Name() string { return "minimal" }

// failingPlugin returns an error from its hook; the registry must log
// and keep dispatching.
type failingPlugin struct{}

func (f *failingPlugin) Name() string { return "failing" }

func (f *failingPlugin) OnRoleCreated(_ context.Context, _ *role.Role) error {
	return errors.New("boom")
}

func TestRegistryDispatch(t *testing.T) {
	ctx := context.Background()
	reg := NewRegistry(slog.Default())

	tp := &testPlugin{}
	reg.Register(tp)
	reg.Register(&minimalPlugin{})

	if len(reg.Plugins()) != 2 {
		t.Fatalf("expected 2 plugins, got %d", len(reg.Plugins()))
	}

	// Should dispatch RoleCreated to testPlugin only.
	reg.EmitRoleCreated(ctx, &role.Role{ID: id.NewRoleID(), Name: "editor"})
	if !tp.roleCreatedCalled {
		t.Fatal("OnRoleCreated was not called")
	}

	// Should dispatch AfterResolve.
	reg.EmitAfterResolve(ctx, nil, nil)
	if !tp.afterResolveCalled {
		t.Fatal("OnAfterResolve was not called")
	}

	// Should dispatch GrantCreated.
	reg.EmitGrantCreated(ctx, &grant.Grant{ID: id.NewGrantID()})
	if !tp.grantCreatedCalled {
		t.Fatal("OnGrantCreated was not called")
	}

	// Should not panic on hooks with no listeners.
	reg.EmitBeforeResolve(ctx, nil)
	reg.EmitRoleDeleted(ctx, id.NewRoleID())
	reg.EmitResourceDeleted(ctx, []id.ResourceID{id.NewResourceID()})
	reg.EmitShutdown(ctx)
}

func TestRegistryHookErrorDoesNotStopDispatch(t *testing.T) {
	ctx := context.Background()
	reg := NewRegistry(slog.Default())

	fp := &failingPlugin{}
	tp := &testPlugin{}
	reg.Register(fp)
	reg.Register(tp)

	reg.EmitRoleCreated(ctx, &role.Role{ID: id.NewRoleID(), Name: "viewer"})
	if !tp.roleCreatedCalled {
		t.Fatal("dispatch stopped after failing hook")
	}
}
