package period

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/holiday"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/leave"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/period"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/schedule"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/settings"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/calendar"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/clock"
	attendanceService "github.com/cmlabs-hris/attendance-engine/internal/service/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/service/cache"
)

type Config struct {
	ProbationMonths int
	Mode            period.AccrualMode
	MaxDays         int
	Attendance      attendanceService.Config
}

type PeriodServiceImpl struct {
	attendance.AttendanceRepository
	employee.EmployeeRepository
	holiday.HolidayRepository
	leave.LeaveRequestRepository
	settings settings.Provider
	cache    *cache.Service
	clock    clock.Clock
	cfg      Config
}

func NewPeriodService(
	attendanceRepository attendance.AttendanceRepository,
	employeeRepository employee.EmployeeRepository,
	holidayRepository holiday.HolidayRepository,
	leaveRequestRepository leave.LeaveRequestRepository,
	settingsProvider settings.Provider,
	cacheService *cache.Service,
	c clock.Clock,
	cfg Config,
) period.PeriodService {
	if cfg.ProbationMonths <= 0 {
		cfg.ProbationMonths = period.DefaultProbationMonths
	}
	if !cfg.Mode.Valid() {
		cfg.Mode = period.AccrualRolling
	}
	if cfg.MaxDays <= 0 {
		cfg.MaxDays = DefaultMaxDays
	}
	if c == nil {
		c = clock.Real{}
	}
	return &PeriodServiceImpl{
		AttendanceRepository:   attendanceRepository,
		EmployeeRepository:     employeeRepository,
		HolidayRepository:      holidayRepository,
		LeaveRequestRepository: leaveRequestRepository,
		settings:               settingsProvider,
		cache:                  cacheService,
		clock:                  c,
		cfg:                    cfg,
	}
}

// walk loads the inputs and runs Calculate. Holidays are loaded far enough
// past the base end date for AddWorkingDays.
func (s *PeriodServiceImpl) walk(ctx context.Context, employeeID string, joiningDate calendar.Date, months int, policy *schedule.WeeklyOffPolicy) (Extension, ExtensionInput, error) {
	if employeeID == "" {
		return Extension{}, ExtensionInput{}, fmt.Errorf("%w: employee_id is required", attendance.ErrInvalidInput)
	}

	emp, err := s.EmployeeRepository.GetByID(ctx, employeeID)
	if err != nil {
		if errors.Is(err, employee.ErrEmployeeNotFound) {
			return Extension{}, ExtensionInput{}, err
		}
		return Extension{}, ExtensionInput{}, attendance.Persistence("get employee", err)
	}
	p := attendanceService.NewProfile(emp, s.cfg.Attendance)
	if joiningDate.IsZero() {
		joiningDate = emp.JoiningDate
	}
	if joiningDate.IsZero() {
		return Extension{}, ExtensionInput{}, fmt.Errorf("%w: joining_date is required", attendance.ErrInvalidInput)
	}
	if policy != nil {
		if !policy.Valid() {
			return Extension{}, ExtensionInput{}, fmt.Errorf("%w: %w", attendance.ErrInvalidInput, schedule.ErrInvalidWeeklyOffPolicy)
		}
		p.Policy = *policy
	}

	in := ExtensionInput{
		EmployeeID:  employeeID,
		JoiningDate: joiningDate,
		BaseMonths:  months,
		Today:       p.Today(s.clock),
		Mode:        s.cfg.Mode,
		MaxDays:     s.cfg.MaxDays,
		Policy:      p.Policy,
		ShiftStart:  p.ShiftStart,
		Location:    p.Location,
	}
	baseEnd := joiningDate.AddMonths(months)
	walkEnd := WalkEnd(in, baseEnd)
	holidayEnd := calendar.Max(walkEnd, baseEnd).AddDays(s.cfg.MaxDays)

	holidays, err := s.HolidayRepository.ListBetween(ctx, joiningDate, holidayEnd)
	if err != nil {
		return Extension{}, ExtensionInput{}, attendance.Persistence("list holidays", err)
	}
	in.Holidays = holiday.NewSet(holidays)

	if !walkEnd.Before(joiningDate) {
		in.Leaves, err = s.cache.Leaves(ctx, employeeID, joiningDate, walkEnd, func(ctx context.Context) ([]leave.Request, error) {
			reqs, err := s.LeaveRequestRepository.ListApprovedByEmployeeBetween(ctx, employeeID, joiningDate, walkEnd)
			if err != nil {
				return nil, attendance.Persistence("list approved leave", err)
			}
			return reqs, nil
		})
		if err != nil {
			return Extension{}, ExtensionInput{}, err
		}

		in.Records, err = s.AttendanceRepository.ListByEmployeeBetween(ctx, employeeID, joiningDate, walkEnd)
		if err != nil {
			return Extension{}, ExtensionInput{}, attendance.Persistence("list attendance", err)
		}
	}

	in.GraceMinutes, err = s.settings.GraceMinutes(ctx)
	if err != nil {
		return Extension{}, ExtensionInput{}, err
	}

	return Calculate(in), in, nil
}

// ComputeProbationExtension implements period.PeriodService.
func (s *PeriodServiceImpl) ComputeProbationExtension(ctx context.Context, employeeID string, joiningDate calendar.Date, policy *schedule.WeeklyOffPolicy) (period.ProbationExtension, error) {
	ext, in, err := s.walk(ctx, employeeID, joiningDate, s.cfg.ProbationMonths, policy)
	if err != nil {
		return period.ProbationExtension{}, err
	}

	final := AddCalendarDays(ext.BaseEndDate, ext.Days())
	result := period.ProbationExtension{
		EmployeeID:    employeeID,
		JoiningDate:   in.JoiningDate,
		BaseEndDate:   ext.BaseEndDate,
		ExtensionDays: ext.ExtensionDays,
		FinalEndDate:  final,
		DaysLeft:      DaysLeft(in.Today, final),
		WorkingDays:   ext.WorkingDays,
		Truncated:     ext.Truncated,
	}

	slog.Debug("probation extension computed",
		"employee_id", employeeID,
		"base_end_date", result.BaseEndDate,
		"extension_days", result.ExtensionDays.String(),
		"final_end_date", result.FinalEndDate,
		"mode", in.Mode,
	)
	return result, nil
}

// ComputeInternshipExtension implements period.PeriodService.
func (s *PeriodServiceImpl) ComputeInternshipExtension(ctx context.Context, employeeID string, joiningDate calendar.Date, durationMonths int, policy *schedule.WeeklyOffPolicy) (period.InternshipExtension, error) {
	if durationMonths < 0 {
		return period.InternshipExtension{}, fmt.Errorf("%w: %w", attendance.ErrInvalidInput, period.ErrInvalidDurationMonth)
	}
	// Zero means the duration configured on the employee.
	if durationMonths == 0 && employeeID != "" {
		emp, err := s.EmployeeRepository.GetByID(ctx, employeeID)
		if err != nil {
			if errors.Is(err, employee.ErrEmployeeNotFound) {
				return period.InternshipExtension{}, err
			}
			return period.InternshipExtension{}, attendance.Persistence("get employee", err)
		}
		if emp.InternshipMonths == nil || *emp.InternshipMonths <= 0 {
			return period.InternshipExtension{}, fmt.Errorf("%w: %w", attendance.ErrInvalidInput, employee.ErrInternshipUndefined)
		}
		durationMonths = *emp.InternshipMonths
	}

	ext, in, err := s.walk(ctx, employeeID, joiningDate, durationMonths, policy)
	if err != nil {
		return period.InternshipExtension{}, err
	}

	final, err := AddWorkingDays(ext.BaseEndDate, ext.Days(), in.Policy, in.Holidays, in.MaxDays)
	if err != nil {
		slog.Warn("internship end date walk hit the iteration limit", "employee_id", employeeID, "extension_days", ext.Days())
		return period.InternshipExtension{}, err
	}

	result := period.InternshipExtension{
		EmployeeID:          employeeID,
		JoiningDate:         in.JoiningDate,
		DurationMonths:      durationMonths,
		BaseEndDateCalendar: ext.BaseEndDate,
		ExtensionDays:       ext.ExtensionDays,
		FinalEndDate:        final,
		DaysLeft:            DaysLeft(in.Today, final),
		WorkingDays:         ext.WorkingDays,
		Truncated:           ext.Truncated,
	}

	slog.Debug("internship extension computed",
		"employee_id", employeeID,
		"base_end_date", result.BaseEndDateCalendar,
		"extension_days", result.ExtensionDays.String(),
		"final_end_date", result.FinalEndDate,
		"mode", in.Mode,
	)
	return result, nil
}
