package leave

import (
	"context"

	"github.com/cmlabs-hris/attendance-engine/internal/pkg/calendar"
)

// LeaveRequestRepository - interface for leave_requests table
type LeaveRequestRepository interface {
	Create(ctx context.Context, request Request) (Request, error)
	// GetByID returns ErrLeaveRequestNotFound when missing
	GetByID(ctx context.Context, id string) (Request, error)
	// ListApprovedByEmployeeBetween returns approved requests with at least one
	// date in [from, to]
	ListApprovedByEmployeeBetween(ctx context.Context, employeeID string, from, to calendar.Date) ([]Request, error)
	Update(ctx context.Context, request Request) error
	Delete(ctx context.Context, id string) error
}
