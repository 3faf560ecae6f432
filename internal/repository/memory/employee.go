package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/employee"
)

// EmployeeRepository also exposes Save for seeding.
type EmployeeRepository struct {
	store *Store
}

func NewEmployeeRepository(store *Store) *EmployeeRepository {
	return &EmployeeRepository{store: store}
}

// GetByID implements employee.EmployeeRepository.
func (r *EmployeeRepository) GetByID(ctx context.Context, id string) (employee.Employee, error) {
	var out employee.Employee
	err := r.store.read(ctx, func(d *state) error {
		emp, ok := d.employees[id]
		if !ok {
			return employee.ErrEmployeeNotFound
		}
		out = emp
		return nil
	})
	return out, err
}

// ListActive implements employee.EmployeeRepository.
func (r *EmployeeRepository) ListActive(ctx context.Context) ([]employee.Employee, error) {
	var out []employee.Employee
	err := r.store.read(ctx, func(d *state) error {
		for _, emp := range d.employees {
			if emp.IsActive {
				out = append(out, emp)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, err
}

// Save inserts or replaces an employee. Employee CRUD lives outside the
// engine; this seeds the memory driver.
func (r *EmployeeRepository) Save(ctx context.Context, emp employee.Employee) (employee.Employee, error) {
	err := r.store.write(ctx, "employee.save", func(d *state) error {
		if emp.ID == "" {
			emp.ID = uuid.New().String()
		}
		now := r.store.now()
		if existing, ok := d.employees[emp.ID]; ok {
			emp.CreatedAt = existing.CreatedAt
		} else {
			emp.CreatedAt = now
		}
		emp.UpdatedAt = now
		d.employees[emp.ID] = emp
		return nil
	})
	if err != nil {
		return employee.Employee{}, err
	}
	return emp, nil
}
