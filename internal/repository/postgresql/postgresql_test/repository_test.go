package postgresql_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/holiday"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/leave"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/schedule"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/settings"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/calendar"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/clock"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/keylock"
	"github.com/cmlabs-hris/attendance-engine/internal/repository/postgresql"
	attendanceService "github.com/cmlabs-hris/attendance-engine/internal/service/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/service/cache"
	leaveService "github.com/cmlabs-hris/attendance-engine/internal/service/leave"
	settingsService "github.com/cmlabs-hris/attendance-engine/internal/service/settings"
)

const employeeID = "0190d0f2-7b8c-7b4a-8a2b-6b8b8b8b8b8b"

var (
	friday   = calendar.MustParse("2025-12-26")
	saturday = calendar.MustParse("2025-12-27")
	monday   = calendar.MustParse("2025-12-29")
)

func TestMain(m *testing.M) {
	code := m.Run()
	StopPostgres()
	os.Exit(code)
}

func seedEmployee(t *testing.T, setup *TestDatabaseSetup) employee.Employee {
	t.Helper()
	policy := schedule.Week2And4Off
	shift := "09:00"
	emp, err := postgresql.NewEmployeeRepository(setup.DB).Save(context.Background(), employee.Employee{
		ID:              employeeID,
		FullName:        "Dewi Lestari",
		JoiningDate:     calendar.MustParse("2025-01-06"),
		EmploymentType:  employee.EmploymentTypeProbation,
		IsActive:        true,
		WeeklyOffPolicy: &policy,
		ShiftStart:      &shift,
	})
	require.NoError(t, err)
	return emp
}

func TestEmployeeRepository(t *testing.T) {
	setup := NewTestDatabase(t)
	ctx := context.Background()
	seedEmployee(t, setup)
	repo := postgresql.NewEmployeeRepository(setup.DB)

	got, err := repo.GetByID(ctx, employeeID)
	require.NoError(t, err)
	assert.Equal(t, calendar.MustParse("2025-01-06"), got.JoiningDate)
	require.NotNil(t, got.WeeklyOffPolicy)
	assert.Equal(t, schedule.Week2And4Off, *got.WeeklyOffPolicy)
	assert.Nil(t, got.Timezone)

	active, err := repo.ListActive(ctx)
	require.NoError(t, err)
	assert.Len(t, active, 1)

	_, err = repo.GetByID(ctx, "0190d0f2-0000-7b4a-8a2b-6b8b8b8b8b8b")
	assert.ErrorIs(t, err, employee.ErrEmployeeNotFound)
}

func TestAttendanceRepository(t *testing.T) {
	setup := NewTestDatabase(t)
	ctx := context.Background()
	seedEmployee(t, setup)
	repo := postgresql.NewAttendanceRepository(setup.DB)

	missing, err := repo.GetByEmployeeAndDate(ctx, employeeID, friday)
	require.NoError(t, err)
	assert.Nil(t, missing)

	in := time.Date(2025, 12, 26, 9, 10, 0, 0, time.UTC)
	created, err := repo.Create(ctx, attendance.Record{
		EmployeeID:  employeeID,
		Date:        friday,
		ClockIn:     &in,
		Status:      attendance.StatusOnTime,
		LateMinutes: 10,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)

	_, err = repo.Create(ctx, attendance.Record{EmployeeID: employeeID, Date: friday})
	assert.ErrorIs(t, err, attendance.ErrRecordAlreadyExists)

	got, err := repo.GetByEmployeeAndDate(ctx, employeeID, friday)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, friday, got.Date)
	assert.True(t, in.Equal(*got.ClockIn))
	assert.Equal(t, attendance.StatusOnTime, got.Status)

	got.Status = attendance.StatusAbsent
	got.ClockIn = nil
	require.NoError(t, repo.Update(ctx, *got))

	_, err = repo.Create(ctx, attendance.Record{EmployeeID: employeeID, Date: monday})
	require.NoError(t, err)

	list, err := repo.ListByEmployeeBetween(ctx, employeeID, friday, saturday)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, attendance.StatusAbsent, list[0].Status)
	assert.Nil(t, list[0].ClockIn)

	pending, err := repo.GetByEmployeeAndDate(ctx, employeeID, monday)
	require.NoError(t, err)
	assert.Equal(t, attendance.StatusPending, pending.Status)

	err = repo.Update(ctx, attendance.Record{ID: "0190d0f2-0000-0000-0000-000000000000"})
	assert.ErrorIs(t, err, attendance.ErrAttendanceNotFound)
}

func TestLeaveRequestRepository(t *testing.T) {
	setup := NewTestDatabase(t)
	ctx := context.Background()
	seedEmployee(t, setup)
	leaves := postgresql.NewLeaveRequestRepository(setup.DB)
	records := postgresql.NewAttendanceRepository(setup.DB)

	req, err := leaves.Create(ctx, leave.Request{
		EmployeeID: employeeID,
		Type:       leave.TypeHalfDayFirst,
		Dates:      []calendar.Date{saturday, friday, saturday},
	})
	require.NoError(t, err)
	assert.Equal(t, leave.StatusPending, req.Status)

	got, err := leaves.GetByID(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, []calendar.Date{friday, saturday}, got.Dates)
	assert.Equal(t, leave.TypeHalfDayFirst, got.Type)

	approved, err := leaves.ListApprovedByEmployeeBetween(ctx, employeeID, friday, friday)
	require.NoError(t, err)
	assert.Empty(t, approved)

	got.Status = leave.StatusApproved
	require.NoError(t, leaves.Update(ctx, got))

	approved, err = leaves.ListApprovedByEmployeeBetween(ctx, employeeID, saturday, monday)
	require.NoError(t, err)
	require.Len(t, approved, 1)
	assert.Equal(t, req.ID, approved[0].ID)

	approved, err = leaves.ListApprovedByEmployeeBetween(ctx, employeeID, monday, monday)
	require.NoError(t, err)
	assert.Empty(t, approved)

	id := req.ID
	_, err = records.Create(ctx, attendance.Record{EmployeeID: employeeID, Date: friday, Status: attendance.StatusLeave, LeaveRequestID: &id})
	require.NoError(t, err)
	linked, err := records.ListByLeaveRequest(ctx, req.ID)
	require.NoError(t, err)
	require.Len(t, linked, 1)
	assert.Equal(t, friday, linked[0].Date)

	require.NoError(t, leaves.Delete(ctx, req.ID))
	_, err = leaves.GetByID(ctx, req.ID)
	assert.ErrorIs(t, err, leave.ErrLeaveRequestNotFound)
	assert.ErrorIs(t, leaves.Delete(ctx, req.ID), leave.ErrLeaveRequestNotFound)

	// ON DELETE SET NULL unlinks the record but leaves its status alone.
	rec, err := records.GetByEmployeeAndDate(ctx, employeeID, friday)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Nil(t, rec.LeaveRequestID)
	assert.Equal(t, attendance.StatusLeave, rec.Status)
}

func TestLeaveService_DeleteRevertsLinkedRecords(t *testing.T) {
	setup := NewTestDatabase(t)
	ctx := context.Background()
	seedEmployee(t, setup)

	fake := clock.NewFake(time.Date(2025, 12, 29, 10, 0, 0, 0, time.UTC))
	cacheService := cache.NewCacheService(cache.Config{StatusTTL: time.Minute, LeaveTTL: time.Minute, SettingsTTL: time.Minute}, fake)
	locks := keylock.New()
	tx := postgresql.NewTransactor(setup.DB)
	records := postgresql.NewAttendanceRepository(setup.DB)
	employees := postgresql.NewEmployeeRepository(setup.DB)
	requests := postgresql.NewLeaveRequestRepository(setup.DB)
	provider := settingsService.NewProvider(postgresql.NewSettingsRepository(setup.DB), cacheService, settings.DefaultGraceMinutes)

	attendanceSvc := attendanceService.NewAttendanceService(
		tx, records, employees, postgresql.NewHolidayRepository(setup.DB), requests,
		provider, cacheService, locks, fake,
		attendanceService.Config{DefaultShiftStart: schedule.ClockTime{Hour: 9}, DefaultLocation: time.UTC},
	)
	syncer := leaveService.NewSyncer(tx, records, attendanceSvc, cacheService, locks)
	svc := leaveService.NewLeaveService(tx, requests, employees, syncer, cacheService, locks)

	req, err := svc.Submit(ctx, leave.CreateLeaveRequestRequest{EmployeeID: employeeID, Type: leave.TypeFullDay, Dates: []calendar.Date{friday}})
	require.NoError(t, err)
	_, err = svc.Approve(ctx, req.ID)
	require.NoError(t, err)

	resp, err := svc.Delete(ctx, req.ID)
	require.NoError(t, err)
	require.Len(t, resp.Updates, 1)
	assert.Equal(t, attendance.ActionReverted, resp.Updates[0].Action)

	rec, err := records.GetByEmployeeAndDate(ctx, employeeID, friday)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, attendance.StatusAbsent, rec.Status)
	assert.Nil(t, rec.LeaveRequestID)
}

func TestHolidayAndSettingsRepositories(t *testing.T) {
	setup := NewTestDatabase(t)
	ctx := context.Background()

	holidays := postgresql.NewHolidayRepository(setup.DB)
	_, err := holidays.Create(ctx, holiday.Holiday{Date: calendar.MustParse("2025-12-25"), Name: "Christmas"})
	require.NoError(t, err)
	_, err = holidays.Create(ctx, holiday.Holiday{Date: friday, Name: "Cuti bersama", IsTentative: true})
	require.NoError(t, err)

	list, err := holidays.ListBetween(ctx, calendar.MustParse("2025-12-24"), friday)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Christmas", list[0].Name)
	assert.True(t, list[1].IsTentative)

	repo := postgresql.NewSettingsRepository(setup.DB)
	_, found, err := repo.GetInt(ctx, settings.KeyGraceMinutes)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, repo.SetInt(ctx, settings.KeyGraceMinutes, 20))
	require.NoError(t, repo.SetInt(ctx, settings.KeyGraceMinutes, 25))
	v, found, err := repo.GetInt(ctx, settings.KeyGraceMinutes)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 25, v)
}

func TestTransactor_RollsBackAndJoins(t *testing.T) {
	setup := NewTestDatabase(t)
	ctx := context.Background()
	seedEmployee(t, setup)
	tx := postgresql.NewTransactor(setup.DB)
	repo := postgresql.NewAttendanceRepository(setup.DB)

	boom := errors.New("boom")
	err := tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		if _, err := repo.Create(txCtx, attendance.Record{EmployeeID: employeeID, Date: friday}); err != nil {
			return err
		}
		// Nested scopes join the outer transaction.
		return tx.WithinTransaction(txCtx, func(inner context.Context) error {
			if _, err := repo.Create(inner, attendance.Record{EmployeeID: employeeID, Date: saturday}); err != nil {
				return err
			}
			return boom
		})
	})
	assert.ErrorIs(t, err, boom)

	list, err := repo.ListByEmployeeBetween(ctx, employeeID, friday, saturday)
	require.NoError(t, err)
	assert.Empty(t, list)

	err = tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		_, err := repo.Create(txCtx, attendance.Record{EmployeeID: employeeID, Date: friday})
		return err
	})
	require.NoError(t, err)
	got, err := repo.GetByEmployeeAndDate(ctx, employeeID, friday)
	require.NoError(t, err)
	assert.NotNil(t, got)
}
