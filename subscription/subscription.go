// Package subscription defines the tenant billing state that gates all
// non-owner access.
package subscription

import (
	"time"

	"github.com/xraph/gatehouse/id"
)

// Status is the lifecycle state of a subscription.
type Status string

const (
	StatusActive    Status = "ACTIVE"
	StatusSuspended Status = "SUSPENDED"
	StatusExpired   Status = "EXPIRED"
	StatusUnlimited Status = "UNLIMITED"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusSuspended, StatusExpired, StatusUnlimited:
		return true
	}
	return false
}

// Subscription governs gating for exactly one tenant.
type Subscription struct {
	ID        id.SubscriptionID `json:"id" db:"id"`
	TenantID  string            `json:"tenant_id" db:"tenant_id"`
	Status    Status            `json:"status" db:"status"`
	EndsAt    *time.Time        `json:"ends_at,omitempty" db:"ends_at"`
	CreatedAt time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt time.Time         `json:"updated_at" db:"updated_at"`
}

// EffectiveStatus returns the status in force at now. An ACTIVE
// subscription past its end date is EXPIRED; UNLIMITED never expires.
func (s *Subscription) EffectiveStatus(now time.Time) Status {
	if s == nil {
		return StatusExpired
	}
	if s.Status == StatusActive && s.EndsAt != nil && now.After(*s.EndsAt) {
		return StatusExpired
	}
	return s.Status
}

// Permits reports whether the subscription allows non-owner access at now.
// A nil subscription permits nothing.
func (s *Subscription) Permits(now time.Time) bool {
	switch s.EffectiveStatus(now) {
	case StatusActive, StatusUnlimited:
		return true
	}
	return false
}
