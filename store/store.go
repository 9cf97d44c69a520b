// Package store defines the aggregate persistence interface. Each leaf
// package (role, permission, assignment, account, module, entitlement,
// grant, subscription, checklog) defines its own store interface and the
// composite Store composes them all.
// Backends: Postgres, SQLite, MongoDB and Memory.
package store

import (
	"context"
	"errors"

	"github.com/xraph/gatehouse/account"
	"github.com/xraph/gatehouse/assignment"
	"github.com/xraph/gatehouse/checklog"
	"github.com/xraph/gatehouse/entitlement"
	"github.com/xraph/gatehouse/grant"
	"github.com/xraph/gatehouse/module"
	"github.com/xraph/gatehouse/permission"
	"github.com/xraph/gatehouse/role"
	"github.com/xraph/gatehouse/subscription"
)

var (
	// ErrNotFound is wrapped by every backend when a row does not exist.
	ErrNotFound = errors.New("gatehouse: not found")

	// ErrConflict is wrapped by every backend when a uniqueness constraint
	// would be violated.
	ErrConflict = errors.New("gatehouse: already exists")
)

// Store is the aggregate persistence interface.
// A single backend (postgres, sqlite, mongo, memory) implements all of them.
type Store interface {
	role.Store
	permission.Store
	assignment.Store
	account.Store
	module.Store
	entitlement.Store
	grant.Store
	subscription.Store
	checklog.Store

	// Migrate runs all schema migrations.
	Migrate(ctx context.Context) error

	// Ping checks database connectivity.
	Ping(ctx context.Context) error

	// Close closes the store connection.
	Close() error
}
