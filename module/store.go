package module

import "context"

// Store defines persistence operations for the module catalog.
type Store interface {
	// CreateModule persists a new module. Codes are unique.
	CreateModule(ctx context.Context, m *Module) error

	// GetModule retrieves a module by code.
	GetModule(ctx context.Context, code string) (*Module, error)

	// UpdateModule persists changes to a module.
	UpdateModule(ctx context.Context, m *Module) error

	// DeleteModule removes a module from the catalog.
	DeleteModule(ctx context.Context, code string) error

	// ListModules returns the whole catalog ordered by sort order, then code.
	ListModules(ctx context.Context) ([]*Module, error)
}
