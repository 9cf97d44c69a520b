package subscription

import (
	"context"

	"github.com/xraph/gatehouse/id"
)

// Store defines persistence operations for subscriptions.
type Store interface {
	// CreateSubscription persists a tenant's subscription. A tenant has at
	// most one; a second create returns an error wrapping store.ErrConflict.
	CreateSubscription(ctx context.Context, s *Subscription) error

	// GetSubscription returns the subscription governing a tenant.
	GetSubscription(ctx context.Context, tenantID string) (*Subscription, error)

	// UpdateSubscription persists a status or validity change.
	UpdateSubscription(ctx context.Context, s *Subscription) error

	// DeleteSubscription removes a subscription by ID.
	DeleteSubscription(ctx context.Context, subID id.SubscriptionID) error
}
