package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/schedule"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type EmployeeRepository struct {
	db *database.DB
}

const employeeColumns = `
	id, full_name, joining_date, employment_type, is_active,
	weekly_off_policy, shift_start, timezone, internship_months,
	created_at, updated_at`

func scanEmployee(row pgx.Row) (employee.Employee, error) {
	var (
		emp            employee.Employee
		joiningDate    time.Time
		employmentType string
		policy         *string
	)
	err := row.Scan(
		&emp.ID, &emp.FullName, &joiningDate, &employmentType, &emp.IsActive,
		&policy, &emp.ShiftStart, &emp.Timezone, &emp.InternshipMonths,
		&emp.CreatedAt, &emp.UpdatedAt,
	)
	if err != nil {
		return employee.Employee{}, err
	}
	emp.JoiningDate = toDate(joiningDate)
	emp.EmploymentType = employee.EmploymentType(employmentType)
	if policy != nil {
		// Unknown values fall back to the default policy later on.
		p, err := schedule.ParseWeeklyOffPolicy(*policy)
		if err != nil {
			p = schedule.WeeklyOffPolicy(*policy)
		}
		emp.WeeklyOffPolicy = &p
	}
	return emp, nil
}

// GetByID implements employee.EmployeeRepository.
func (e *EmployeeRepository) GetByID(ctx context.Context, id string) (employee.Employee, error) {
	q := GetQuerier(ctx, e.db)

	query := `SELECT` + employeeColumns + `
		FROM employees
		WHERE id = $1`

	emp, err := scanEmployee(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return employee.Employee{}, employee.ErrEmployeeNotFound
		}
		return employee.Employee{}, fmt.Errorf("failed to get employee by id: %w", err)
	}
	return emp, nil
}

// ListActive implements employee.EmployeeRepository.
func (e *EmployeeRepository) ListActive(ctx context.Context) ([]employee.Employee, error) {
	q := GetQuerier(ctx, e.db)

	query := `SELECT` + employeeColumns + `
		FROM employees
		WHERE is_active = TRUE
		ORDER BY id`

	rows, err := q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list active employees: %w", err)
	}
	defer rows.Close()

	var employees []employee.Employee
	for rows.Next() {
		emp, err := scanEmployee(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan employee: %w", err)
		}
		employees = append(employees, emp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate employees: %w", err)
	}
	return employees, nil
}

// Save inserts or replaces the engine's view of an employee. The employee
// CRUD service owns these rows; Save exists for seeding and tests.
func (e *EmployeeRepository) Save(ctx context.Context, emp employee.Employee) (employee.Employee, error) {
	q := GetQuerier(ctx, e.db)

	var policy *string
	if emp.WeeklyOffPolicy != nil {
		s := string(*emp.WeeklyOffPolicy)
		policy = &s
	}

	query := `
		INSERT INTO employees (
			id, full_name, joining_date, employment_type, is_active,
			weekly_off_policy, shift_start, timezone, internship_months
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			full_name = EXCLUDED.full_name,
			joining_date = EXCLUDED.joining_date,
			employment_type = EXCLUDED.employment_type,
			is_active = EXCLUDED.is_active,
			weekly_off_policy = EXCLUDED.weekly_off_policy,
			shift_start = EXCLUDED.shift_start,
			timezone = EXCLUDED.timezone,
			internship_months = EXCLUDED.internship_months,
			updated_at = NOW()
		RETURNING created_at, updated_at
	`

	err := q.QueryRow(ctx, query,
		emp.ID, emp.FullName, emp.JoiningDate.Time(), string(emp.EmploymentType), emp.IsActive,
		policy, emp.ShiftStart, emp.Timezone, emp.InternshipMonths,
	).Scan(&emp.CreatedAt, &emp.UpdatedAt)
	if err != nil {
		return employee.Employee{}, fmt.Errorf("failed to save employee: %w", err)
	}
	return emp, nil
}

func NewEmployeeRepository(db *database.DB) *EmployeeRepository {
	return &EmployeeRepository{db: db}
}
