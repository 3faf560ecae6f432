package attendance

import (
	"context"

	"github.com/cmlabs-hris/attendance-engine/internal/pkg/calendar"
)

// AttendanceRepository defines data access methods for attendance records.
// All writes made with a transaction context join that transaction.
type AttendanceRepository interface {
	// GetByEmployeeAndDate returns nil, nil when the day has no record
	GetByEmployeeAndDate(ctx context.Context, employeeID string, date calendar.Date) (*Record, error)

	// ListByEmployeeBetween returns records with from <= date <= to, ordered by date
	ListByEmployeeBetween(ctx context.Context, employeeID string, from, to calendar.Date) ([]Record, error)

	// ListByLeaveRequest returns every record linked to the leave request
	ListByLeaveRequest(ctx context.Context, leaveRequestID string) ([]Record, error)

	// Create returns ErrRecordAlreadyExists on a duplicate (employee, date)
	Create(ctx context.Context, record Record) (Record, error)

	// Update returns ErrAttendanceNotFound when the record is gone
	Update(ctx context.Context, record Record) error
}
