package leave

import (
	"context"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/calendar"
)

type LeaveService interface {
	Submit(ctx context.Context, req CreateLeaveRequestRequest) (Request, error)
	Get(ctx context.Context, id string) (Request, error)
	// Approve and Reject only act on pending requests
	Approve(ctx context.Context, id string) (TransitionResponse, error)
	Reject(ctx context.Context, id string) (TransitionResponse, error)
	UpdateDates(ctx context.Context, req UpdateLeaveDatesRequest) (TransitionResponse, error)
	Delete(ctx context.Context, id string) (TransitionResponse, error)
}

// Syncer keeps attendance records consistent with leave request state.
type Syncer interface {
	// RecalculateForLeaveTransition applies req's current state to the
	// attendance records. oldDates is the approved date list before an edit,
	// nil otherwise.
	RecalculateForLeaveTransition(ctx context.Context, req Request, oldDates []calendar.Date) ([]attendance.AffectedRecordUpdate, error)
}

// DayResolver resolves one day straight from storage, bypassing caches, so it
// sees uncommitted writes of the surrounding transaction. adjust may rewrite
// the approved requests before resolution.
type DayResolver interface {
	ResolveDay(ctx context.Context, employeeID string, date calendar.Date, record *attendance.Record, adjust func([]Request) []Request) (attendance.Resolution, error)
}
