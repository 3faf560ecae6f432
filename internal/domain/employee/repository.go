package employee

import "context"

// EmployeeRepository is read-only from the engine's point of view.
type EmployeeRepository interface {
	// GetByID returns ErrEmployeeNotFound when no row matches
	GetByID(ctx context.Context, id string) (Employee, error)

	// ListActive returns every active employee, used by the nightly reconcile job
	ListActive(ctx context.Context) ([]Employee, error)
}
