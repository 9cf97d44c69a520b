// Package checklog defines the guard audit log Entry entity.
package checklog

import (
	"time"

	"github.com/xraph/gatehouse/id"
)

// Entry is a single guard evaluation audit record.
type Entry struct {
	ID         id.CheckLogID `json:"id" db:"id"`
	TenantID   string        `json:"tenant_id" db:"tenant_id"`
	UserID     string        `json:"user_id" db:"user_id"`
	Module     string        `json:"module,omitempty" db:"module"`
	Action     string        `json:"action,omitempty" db:"action"`
	Decision   string        `json:"decision" db:"decision"`
	Reason     string        `json:"reason,omitempty" db:"reason"`
	Stage      int           `json:"stage" db:"stage"`
	EvalTimeNs int64         `json:"eval_time_ns" db:"eval_time_ns"`
	RequestIP  string        `json:"request_ip,omitempty" db:"request_ip"`
	CreatedAt  time.Time     `json:"created_at" db:"created_at"`
}

// QueryFilter contains filters for querying check logs.
type QueryFilter struct {
	TenantID string     `json:"tenant_id,omitempty"`
	UserID   string     `json:"user_id,omitempty"`
	Module   string     `json:"module,omitempty"`
	Decision string     `json:"decision,omitempty"`
	Reason   string     `json:"reason,omitempty"`
	After    *time.Time `json:"after,omitempty"`
	Before   *time.Time `json:"before,omitempty"`
	Limit    int        `json:"limit,omitempty"`
	Offset   int        `json:"offset,omitempty"`
}
