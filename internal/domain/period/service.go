package period

import (
	"context"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/schedule"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/calendar"
)

// PeriodService computes extended probation and internship end dates.
// A nil policy falls back to the employee's configured policy.
type PeriodService interface {
	ComputeProbationExtension(ctx context.Context, employeeID string, joiningDate calendar.Date, policy *schedule.WeeklyOffPolicy) (ProbationExtension, error)
	ComputeInternshipExtension(ctx context.Context, employeeID string, joiningDate calendar.Date, durationMonths int, policy *schedule.WeeklyOffPolicy) (InternshipExtension, error)
}
