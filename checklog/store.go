package checklog

import (
	"context"
	"time"

	"github.com/xraph/gatehouse/id"
)

// Store defines persistence operations for guard audit logs.
type Store interface {
	// CreateCheckLog persists a new check log entry.
	CreateCheckLog(ctx context.Context, e *Entry) error

	// GetCheckLog retrieves a check log entry by ID.
	GetCheckLog(ctx context.Context, logID id.CheckLogID) (*Entry, error)

	// ListCheckLogs returns entries matching the filter, newest first.
	ListCheckLogs(ctx context.Context, filter *QueryFilter) ([]*Entry, error)

	// CountCheckLogs returns the number of entries matching the filter.
	CountCheckLogs(ctx context.Context, filter *QueryFilter) (int64, error)

	// PurgeCheckLogs removes entries older than the given time.
	PurgeCheckLogs(ctx context.Context, before time.Time) (int64, error)

	// DeleteCheckLogsByTenant removes all entries for a tenant.
	DeleteCheckLogsByTenant(ctx context.Context, tenantID string) error
}
