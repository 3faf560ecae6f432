package attendance

import (
	"context"

	"github.com/cmlabs-hris/attendance-engine/internal/pkg/calendar"
)

// AttendanceService defines the attendance-status operations of the engine
type AttendanceService interface {
	// ResolveStatus returns the canonical status of one employee on one day.
	// A drifted stored status is corrected unless the record is admin-overridden.
	ResolveStatus(ctx context.Context, employeeID string, date calendar.Date) (Resolution, error)

	// RecordPunch stores a clock-in or clock-out and returns the day's resolution
	RecordPunch(ctx context.Context, req PunchRequest) (Resolution, error)

	// OverrideRecord freezes the day's record with an admin-chosen status
	OverrideRecord(ctx context.Context, req OverrideRequest) (Resolution, error)

	// ClearOverride releases the freeze and re-resolves the day
	ClearOverride(ctx context.Context, employeeID string, date calendar.Date) (Resolution, error)

	// ReconcileDay resolves the day for every active employee and persists
	// absences and corrections
	ReconcileDay(ctx context.Context, date calendar.Date) (ReconcileSummary, error)

	InvalidateEmployeeCache(employeeID string)
	InvalidateSettingsCache()
}

// ReconcileSummary counts what one ReconcileDay pass did.
type ReconcileSummary struct {
	Date      calendar.Date `json:"date"`
	Employees int           `json:"employees"`
	Created   int           `json:"created"`
	Corrected int           `json:"corrected"`
	Skipped   int           `json:"skipped"`
	Failed    int           `json:"failed"`
}
