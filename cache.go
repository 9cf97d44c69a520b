package gatehouse

import "context"

// CapabilityCache stores capability projections stamped with a generation.
//
// The generation for a user is the sum of a global counter, the tenant's
// counter and the user's counter, so bumping any of them makes every
// affected entry stale. Implementations must never return an entry whose
// stamp differs from the current generation.
type CapabilityCache interface {
	// Generation returns the current generation for the user in tenant.
	Generation(ctx context.Context, tenantID, userID string) uint64

	// Get returns the cached projection if it is current.
	Get(ctx context.Context, tenantID, userID string) (*Capabilities, bool)

	// Set stores caps unless its generation is already stale.
	Set(ctx context.Context, caps *Capabilities)

	// InvalidateUser bumps the user's generation.
	InvalidateUser(ctx context.Context, userID string)

	// InvalidateTenant bumps the tenant's generation.
	InvalidateTenant(ctx context.Context, tenantID string)

	// InvalidateAll bumps the global generation.
	InvalidateAll(ctx context.Context)
}
