package gatehouse

import (
	"errors"

	"github.com/xraph/gatehouse/store"
)

var (
	// ErrAccessDenied is wrapped by every policy denial returned as an error.
	ErrAccessDenied = errors.New("gatehouse: access denied")

	// ErrUnauthenticated is returned when no active principal is present.
	ErrUnauthenticated = errors.New("gatehouse: unauthenticated")

	// ErrSubscriptionExpired is returned when the tenant subscription does
	// not permit access.
	ErrSubscriptionExpired = errors.New("gatehouse: subscription expired")

	// ErrRoleDenied is returned when the principal lacks every required role.
	ErrRoleDenied = errors.New("gatehouse: role denied")

	// ErrModuleDenied is returned when the module is not entitled or granted.
	ErrModuleDenied = errors.New("gatehouse: module denied")

	// ErrActionDenied is returned when the action is not granted.
	ErrActionDenied = errors.New("gatehouse: action denied")

	// ErrTransactionFailure is returned when an atomic replacement could not
	// complete. The previously stored set is left intact.
	ErrTransactionFailure = errors.New("gatehouse: transaction failure")

	// ErrTenantRequired is returned when a tenant-scoped principal has no tenant.
	ErrTenantRequired = errors.New("gatehouse: tenant-scoped role requires a tenant")

	// ErrTenantMismatch is returned when the request scope names a tenant
	// other than the principal's own.
	ErrTenantMismatch = errors.New("gatehouse: request tenant does not match principal")

	// ErrUserRequired is returned when a principal or write has no user ID.
	ErrUserRequired = errors.New("gatehouse: user id is required")

	// ErrUnknownRole is returned for names outside the role vocabulary.
	ErrUnknownRole = errors.New("gatehouse: unknown role")

	// ErrUnknownAction is returned for names outside the action vocabulary
	// or actions a module does not support.
	ErrUnknownAction = errors.New("gatehouse: unknown action")

	// ErrInvalidRequirement is returned when a guard requirement names an
	// action without a module.
	ErrInvalidRequirement = errors.New("gatehouse: invalid requirement")

	// ErrInvalidStatus is returned for unknown subscription statuses.
	ErrInvalidStatus = errors.New("gatehouse: invalid subscription status")

	// ErrDuplicateModule is returned when a replacement names a module twice.
	ErrDuplicateModule = errors.New("gatehouse: module listed more than once")

	// ErrModuleNotFound is returned when a module code is not in the catalog.
	ErrModuleNotFound = errors.New("gatehouse: module not found")

	// ErrInvalidModule is returned when a catalog module is malformed.
	ErrInvalidModule = errors.New("gatehouse: invalid module")

	// ErrAccountNotFound is returned when a user has no account.
	ErrAccountNotFound = errors.New("gatehouse: account not found")

	// ErrSubscriptionNotFound is returned when a tenant has no subscription.
	ErrSubscriptionNotFound = errors.New("gatehouse: subscription not found")

	// ErrRoleNotFound is returned when a role is missing from the catalog.
	ErrRoleNotFound = errors.New("gatehouse: role not found")

	// ErrNotFound and ErrConflict are the storage sentinels wrapped by
	// every backend.
	ErrNotFound = store.ErrNotFound
	ErrConflict = store.ErrConflict
)
