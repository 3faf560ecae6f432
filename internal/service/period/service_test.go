package period

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/holiday"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/leave"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/period"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/schedule"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/settings"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/calendar"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/clock"
	"github.com/cmlabs-hris/attendance-engine/internal/repository/memory"
	attendanceService "github.com/cmlabs-hris/attendance-engine/internal/service/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/service/cache"
	settingsService "github.com/cmlabs-hris/attendance-engine/internal/service/settings"
)

const employeeID = "0190d0f2-7b8c-7b4a-8a2b-6b8b8b8b8b8b"

func newService(t *testing.T, mode period.AccrualMode) (period.PeriodService, *memory.Store) {
	t.Helper()
	ctx := context.Background()

	// Friday 2025-12-12.
	fake := clock.NewFake(time.Date(2025, 12, 12, 12, 0, 0, 0, time.UTC))
	store := memory.NewStore(fake)
	cacheService := cache.NewCacheService(cache.Config{StatusTTL: time.Minute, LeaveTTL: time.Minute, SettingsTTL: time.Minute}, fake)
	provider := settingsService.NewProvider(memory.NewSettingsRepository(store), cacheService, settings.DefaultGraceMinutes)

	policy := schedule.AllSaturdaysOff
	_, err := memory.NewEmployeeRepository(store).Save(ctx, employee.Employee{
		ID:              employeeID,
		JoiningDate:     d("2025-12-01"),
		EmploymentType:  employee.EmploymentTypeProbation,
		IsActive:        true,
		WeeklyOffPolicy: &policy,
	})
	require.NoError(t, err)

	_, err = memory.NewHolidayRepository(store).Create(ctx, holiday.Holiday{Date: d("2025-12-10"), Name: "Founders Day"})
	require.NoError(t, err)

	records := memory.NewAttendanceRepository(store)
	for _, rec := range []attendance.Record{
		punchAt(d("2025-12-01"), 9, 0),
		punchAt(d("2025-12-02"), 9, 30),
		punchAt(d("2025-12-04"), 9, 45),
		punchAt(d("2025-12-09"), 9, 0),
		punchAt(d("2025-12-11"), 8, 55),
	} {
		rec.EmployeeID = employeeID
		_, err := records.Create(ctx, rec)
		require.NoError(t, err)
	}

	leaves := memory.NewLeaveRequestRepository(store)
	for _, req := range []leave.Request{
		approvedLeave("", leave.TypeFullDay, d("2025-12-05")),
		approvedLeave("", leave.TypeHalfDayFirst, d("2025-12-08"), d("2025-12-09")),
	} {
		req.EmployeeID = employeeID
		_, err := leaves.Create(ctx, req)
		require.NoError(t, err)
	}

	svc := NewPeriodService(
		records,
		memory.NewEmployeeRepository(store),
		memory.NewHolidayRepository(store),
		leaves,
		provider,
		cacheService,
		fake,
		Config{
			ProbationMonths: 1,
			Mode:            mode,
			Attendance:      attendanceService.Config{DefaultShiftStart: schedule.ClockTime{Hour: 9}},
		},
	)
	return svc, store
}

func TestComputeProbationExtension(t *testing.T) {
	svc, _ := newService(t, period.AccrualRolling)
	ctx := context.Background()

	got, err := svc.ComputeProbationExtension(ctx, employeeID, calendar.Date{}, nil)
	require.NoError(t, err)

	assert.Equal(t, d("2025-12-01"), got.JoiningDate)
	assert.Equal(t, d("2026-01-01"), got.BaseEndDate)
	assert.Equal(t, "3.5", got.ExtensionDays.String())
	assert.Equal(t, d("2026-01-05"), got.FinalEndDate)
	assert.Equal(t, 24, got.DaysLeft)

	again, err := svc.ComputeProbationExtension(ctx, employeeID, calendar.Date{}, nil)
	require.NoError(t, err)
	assert.Equal(t, got.FinalEndDate, again.FinalEndDate)
	assert.True(t, got.ExtensionDays.Equal(again.ExtensionDays))
}

func TestComputeInternshipExtension(t *testing.T) {
	svc, _ := newService(t, period.AccrualRolling)
	ctx := context.Background()

	got, err := svc.ComputeInternshipExtension(ctx, employeeID, d("2025-12-01"), 1, nil)
	require.NoError(t, err)
	assert.Equal(t, d("2026-01-01"), got.BaseEndDateCalendar)
	assert.Equal(t, d("2026-01-07"), got.FinalEndDate)
	assert.Equal(t, 26, got.DaysLeft)

	_, err = svc.ComputeInternshipExtension(ctx, employeeID, d("2025-12-01"), 0, nil)
	assert.ErrorIs(t, err, attendance.ErrInvalidInput)
	assert.ErrorIs(t, err, employee.ErrInternshipUndefined)

	_, err = svc.ComputeInternshipExtension(ctx, employeeID, d("2025-12-01"), -1, nil)
	assert.ErrorIs(t, err, period.ErrInvalidDurationMonth)
}

func TestComputeInternshipExtension_ConfiguredDuration(t *testing.T) {
	svc, store := newService(t, period.AccrualRolling)
	ctx := context.Background()
	employees := memory.NewEmployeeRepository(store)

	emp, err := employees.GetByID(ctx, employeeID)
	require.NoError(t, err)
	months := 1
	emp.InternshipMonths = &months
	_, err = employees.Save(ctx, emp)
	require.NoError(t, err)

	got, err := svc.ComputeInternshipExtension(ctx, employeeID, calendar.Date{}, 0, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, got.DurationMonths)
	assert.Equal(t, d("2026-01-07"), got.FinalEndDate)
}

func TestComputeProbationExtension_PolicyArgument(t *testing.T) {
	svc, _ := newService(t, period.AccrualRolling)
	ctx := context.Background()

	// With working Saturdays the 6th is a missed working day.
	working := schedule.AllSaturdaysWorking
	got, err := svc.ComputeProbationExtension(ctx, employeeID, calendar.Date{}, &working)
	require.NoError(t, err)
	assert.Equal(t, "4.5", got.ExtensionDays.String())

	bogus := schedule.WeeklyOffPolicy("every_day_off")
	_, err = svc.ComputeProbationExtension(ctx, employeeID, calendar.Date{}, &bogus)
	assert.ErrorIs(t, err, attendance.ErrInvalidInput)
}

func TestComputeProbationExtension_Errors(t *testing.T) {
	svc, _ := newService(t, period.AccrualCapped)
	ctx := context.Background()

	_, err := svc.ComputeProbationExtension(ctx, "", calendar.Date{}, nil)
	assert.ErrorIs(t, err, attendance.ErrInvalidInput)

	_, err = svc.ComputeProbationExtension(ctx, "0190d0f2-0000-7b4a-8a2b-6b8b8b8b8b8b", calendar.Date{}, nil)
	assert.ErrorIs(t, err, employee.ErrEmployeeNotFound)
}
