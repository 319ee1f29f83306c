// Package store defines the aggregate persistence interface. Each subsystem
// (role, permission, resource, assignment, grant, decisionlog) defines its
// own store interface. The composite Store composes them all.
// Backends: Postgres, SQLite, MongoDB, and Memory.
package store

import (
	"context"
	"errors"

	"github.com/lecternhq/lectern/assignment"
	"github.com/lecternhq/lectern/decisionlog"
	"github.com/lecternhq/lectern/grant"
	"github.com/lecternhq/lectern/permission"
	"github.com/lecternhq/lectern/resource"
	"github.com/lecternhq/lectern/role"
)

// ErrNotFound is the shared sentinel every backend wraps when an entity
// does not exist. The engine translates it into the entity-specific
// sentinel at the call site.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is the shared sentinel every backend wraps when an insert
// violates a uniqueness constraint.
var ErrDuplicate = errors.New("already exists")

// Store is the aggregate persistence interface.
// Each subsystem store is a composable interface; a single backend
// (postgres, sqlite, mongo, memory) implements all of them.
type Store interface {
	role.Store
	permission.Store
	resource.Store
	assignment.Store
	grant.Store
	decisionlog.Store

	// Migrate runs all schema migrations.
	Migrate(ctx context.Context) error

	// Ping checks database connectivity.
	Ping(ctx context.Context) error

	// Close closes the store connection.
	Close() error
}
