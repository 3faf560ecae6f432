package cron

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/calendar"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/clock"
)

type AttendanceJobs struct {
	attendanceService attendance.AttendanceService
	clock             clock.Clock
	location          *time.Location
	interval          time.Duration

	mu         sync.Mutex
	reconciled calendar.Date
}

// NewAttendanceJobs reconciles the previous day in loc. interval is how often
// the job checks whether a new day has started.
func NewAttendanceJobs(attendanceService attendance.AttendanceService, c clock.Clock, loc *time.Location, interval time.Duration) *AttendanceJobs {
	if loc == nil {
		loc = time.UTC
	}
	if c == nil {
		c = clock.Real{}
	}
	return &AttendanceJobs{
		attendanceService: attendanceService,
		clock:             c,
		location:          loc,
		interval:          interval,
	}
}

func (j *AttendanceJobs) RegisterJobs(scheduler *Scheduler) {
	scheduler.AddJob("reconcile_attendance", j.interval, j.ReconcileYesterday)
}

// ReconcileYesterday resolves yesterday for every active employee, storing
// absences and corrections. It acts once per local day; a failed pass is
// retried on the next tick.
func (j *AttendanceJobs) ReconcileYesterday(ctx context.Context) error {
	yesterday := calendar.FromTime(j.clock.Now(), j.location).AddDays(-1)

	j.mu.Lock()
	defer j.mu.Unlock()
	if j.reconciled.Equal(yesterday) {
		return nil
	}

	slog.Info("Cron: Starting attendance reconciliation", "date", yesterday)

	summary, err := j.attendanceService.ReconcileDay(ctx, yesterday)
	if err != nil {
		return fmt.Errorf("reconcile %s: %w", yesterday, err)
	}
	j.reconciled = yesterday

	slog.Info("Cron: Attendance reconciliation finished",
		"date", yesterday,
		"employees", summary.Employees,
		"created", summary.Created,
		"corrected", summary.Corrected,
		"skipped", summary.Skipped,
		"failed", summary.Failed,
	)
	return nil
}
