// Package module defines the platform feature-module catalog.
package module

import "time"

// Module is a platform-defined feature area (e.g. "FINANCE", "TAXI").
// Actions lists the module-specific actions it supports on top of the core
// view/create/update/delete set.
type Module struct {
	Code        string    `json:"code" db:"code"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description,omitempty" db:"description"`
	SortOrder   int       `json:"sort_order" db:"sort_order"`
	Actions     []string  `json:"actions,omitempty" db:"actions"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}
