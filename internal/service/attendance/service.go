package attendance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/holiday"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/leave"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/schedule"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/settings"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/calendar"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/clock"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/database"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/keylock"
	"github.com/cmlabs-hris/attendance-engine/internal/service/cache"
)

// Config holds the fallbacks for employees without their own shift setup.
type Config struct {
	DefaultShiftStart schedule.ClockTime
	DefaultLocation   *time.Location
}

type AttendanceServiceImpl struct {
	tx database.Transactor
	attendance.AttendanceRepository
	employee.EmployeeRepository
	holiday.HolidayRepository
	leave.LeaveRequestRepository
	settings settings.Provider
	cache    *cache.Service
	locks    *keylock.KeyLock
	clock    clock.Clock
	cfg      Config
}

var (
	_ attendance.AttendanceService = (*AttendanceServiceImpl)(nil)
	_ leave.DayResolver            = (*AttendanceServiceImpl)(nil)
)

func NewAttendanceService(
	tx database.Transactor,
	attendanceRepository attendance.AttendanceRepository,
	employeeRepository employee.EmployeeRepository,
	holidayRepository holiday.HolidayRepository,
	leaveRequestRepository leave.LeaveRequestRepository,
	settingsProvider settings.Provider,
	cacheService *cache.Service,
	locks *keylock.KeyLock,
	c clock.Clock,
	cfg Config,
) *AttendanceServiceImpl {
	if cfg.DefaultLocation == nil {
		cfg.DefaultLocation = time.UTC
	}
	if c == nil {
		c = clock.Real{}
	}
	return &AttendanceServiceImpl{
		tx:                     tx,
		AttendanceRepository:   attendanceRepository,
		EmployeeRepository:     employeeRepository,
		HolidayRepository:      holidayRepository,
		LeaveRequestRepository: leaveRequestRepository,
		settings:               settingsProvider,
		cache:                  cacheService,
		locks:                  locks,
		clock:                  c,
		cfg:                    cfg,
	}
}

// Profile is the per-employee configuration with defaults applied.
type Profile struct {
	Employee        employee.Employee
	Location        *time.Location
	Policy          schedule.WeeklyOffPolicy
	PolicyDefaulted bool
	ShiftStart      schedule.ClockTime
}

// NewProfile fills in missing timezone, weekly-off policy and shift start
// from cfg. A missing setup is not an error.
func NewProfile(emp employee.Employee, cfg Config) Profile {
	p := Profile{Employee: emp, Location: cfg.DefaultLocation, ShiftStart: cfg.DefaultShiftStart}
	if p.Location == nil {
		p.Location = time.UTC
	}
	if emp.Timezone != nil {
		p.Location = calendar.LoadLocation(*emp.Timezone, p.Location)
	}

	var ok bool
	p.Policy, ok = emp.Policy()
	if !ok {
		p.PolicyDefaulted = true
		slog.Debug("weekly-off policy not configured, using default", "employee_id", emp.ID, "policy", p.Policy)
	}

	if emp.ShiftStart != nil {
		shift, err := schedule.ParseClockTime(*emp.ShiftStart)
		if err != nil {
			slog.Debug("invalid shift start, using default", "employee_id", emp.ID, "shift_start", *emp.ShiftStart)
		} else {
			p.ShiftStart = shift
		}
	}
	return p
}

// Today is the current date in the employee's timezone.
func (p Profile) Today(c clock.Clock) calendar.Date {
	return calendar.FromTime(c.Now(), p.Location)
}

func (s *AttendanceServiceImpl) profile(ctx context.Context, employeeID string) (Profile, error) {
	emp, err := s.EmployeeRepository.GetByID(ctx, employeeID)
	if err != nil {
		if errors.Is(err, employee.ErrEmployeeNotFound) {
			return Profile{}, err
		}
		return Profile{}, attendance.Persistence("get employee", err)
	}
	return NewProfile(emp, s.cfg), nil
}

func (s *AttendanceServiceImpl) input(ctx context.Context, p Profile, date calendar.Date, record *attendance.Record, leaves []leave.Request) (Input, error) {
	holidays, err := s.HolidayRepository.ListBetween(ctx, date, date)
	if err != nil {
		return Input{}, attendance.Persistence("list holidays", err)
	}
	grace, err := s.settings.GraceMinutes(ctx)
	if err != nil {
		return Input{}, err
	}

	return Input{
		EmployeeID:      p.Employee.ID,
		Date:            date,
		Holidays:        holiday.NewSet(holidays),
		Leaves:          leaves,
		Record:          record,
		Policy:          p.Policy,
		PolicyDefaulted: p.PolicyDefaulted,
		GraceMinutes:    grace,
		ShiftStart:      p.ShiftStart,
		Location:        p.Location,
		Today:           p.Today(s.clock),
	}, nil
}

// resolveFresh reads straight from the repositories, so inside a transaction
// it sees the transaction's own writes.
func (s *AttendanceServiceImpl) resolveFresh(ctx context.Context, p Profile, date calendar.Date, record *attendance.Record, adjust func([]leave.Request) []leave.Request) (attendance.Resolution, error) {
	leaves, err := s.LeaveRequestRepository.ListApprovedByEmployeeBetween(ctx, p.Employee.ID, date, date)
	if err != nil {
		return attendance.Resolution{}, attendance.Persistence("list approved leave", err)
	}
	if adjust != nil {
		leaves = adjust(leaves)
	}

	in, err := s.input(ctx, p, date, record, leaves)
	if err != nil {
		return attendance.Resolution{}, err
	}
	return Resolve(in), nil
}

// ResolveDay implements leave.DayResolver.
func (s *AttendanceServiceImpl) ResolveDay(ctx context.Context, employeeID string, date calendar.Date, record *attendance.Record, adjust func([]leave.Request) []leave.Request) (attendance.Resolution, error) {
	p, err := s.profile(ctx, employeeID)
	if err != nil {
		return attendance.Resolution{}, err
	}
	return s.resolveFresh(ctx, p, date, record, adjust)
}

func validateDay(employeeID string, date calendar.Date) error {
	if employeeID == "" {
		return fmt.Errorf("%w: employee_id is required", attendance.ErrInvalidInput)
	}
	if date.IsZero() {
		return fmt.Errorf("%w: date is required", attendance.ErrInvalidInput)
	}
	return nil
}

// ResolveStatus implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) ResolveStatus(ctx context.Context, employeeID string, date calendar.Date) (attendance.Resolution, error) {
	if err := validateDay(employeeID, date); err != nil {
		return attendance.Resolution{}, err
	}

	return s.cache.Status(ctx, employeeID, date, func(ctx context.Context) (attendance.Resolution, bool, error) {
		p, err := s.profile(ctx, employeeID)
		if err != nil {
			return attendance.Resolution{}, false, err
		}

		record, err := s.AttendanceRepository.GetByEmployeeAndDate(ctx, employeeID, date)
		if err != nil {
			return attendance.Resolution{}, false, attendance.Persistence("get attendance", err)
		}

		leaves, err := s.cache.Leaves(ctx, employeeID, date, date, func(ctx context.Context) ([]leave.Request, error) {
			reqs, err := s.LeaveRequestRepository.ListApprovedByEmployeeBetween(ctx, employeeID, date, date)
			if err != nil {
				return nil, attendance.Persistence("list approved leave", err)
			}
			return reqs, nil
		})
		if err != nil {
			return attendance.Resolution{}, false, err
		}

		in, err := s.input(ctx, p, date, record, leaves)
		if err != nil {
			return attendance.Resolution{}, false, err
		}
		res := Resolve(in)

		if record != nil && needsCorrection(*record, res) {
			if err := s.correct(ctx, *record, res); err != nil {
				return attendance.Resolution{}, false, err
			}
		}

		return res, !res.Metadata.AdminOverride, nil
	})
}

func needsCorrection(record attendance.Record, res attendance.Resolution) bool {
	if record.OverriddenByAdmin {
		return false
	}
	return record.Status != res.Status ||
		record.LateMinutes != res.LateMinutes ||
		record.IsHalfDay != res.IsHalfDay
}

func applyResolution(record *attendance.Record, res attendance.Resolution) {
	record.Status = res.Status
	record.LateMinutes = res.LateMinutes
	record.IsHalfDay = res.IsHalfDay
}

// correct persists a drifted status. It re-reads the record under the
// employee lock and gives up if a writer changed it in the meantime.
func (s *AttendanceServiceImpl) correct(ctx context.Context, seen attendance.Record, res attendance.Resolution) error {
	unlock := s.locks.Lock(seen.EmployeeID)
	defer unlock()

	current, err := s.AttendanceRepository.GetByEmployeeAndDate(ctx, seen.EmployeeID, seen.Date)
	if err != nil {
		return attendance.Persistence("get attendance", err)
	}
	if current == nil || !current.UpdatedAt.Equal(seen.UpdatedAt) || !needsCorrection(*current, res) {
		return nil
	}

	previous := current.Status
	applyResolution(current, res)
	if err := s.AttendanceRepository.Update(ctx, *current); err != nil {
		return attendance.Persistence("correct attendance", err)
	}

	slog.Info("attendance status corrected",
		"employee_id", seen.EmployeeID,
		"date", seen.Date,
		"from", previous,
		"to", res.Status,
		"rule", res.Rule,
	)
	return nil
}

// RecordPunch implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) RecordPunch(ctx context.Context, req attendance.PunchRequest) (attendance.Resolution, error) {
	if err := req.Validate(); err != nil {
		return attendance.Resolution{}, err
	}

	p, err := s.profile(ctx, req.EmployeeID)
	if err != nil {
		return attendance.Resolution{}, err
	}
	at := req.At.UTC()
	date := calendar.FromTime(at, p.Location)

	unlock := s.locks.Lock(req.EmployeeID)
	defer unlock()

	var res attendance.Resolution
	err = s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		record, err := s.AttendanceRepository.GetByEmployeeAndDate(txCtx, req.EmployeeID, date)
		if err != nil {
			return attendance.Persistence("get attendance", err)
		}
		isNew := record == nil
		if isNew {
			record = &attendance.Record{EmployeeID: req.EmployeeID, Date: date}
		}

		switch req.Kind {
		case attendance.PunchClockIn:
			if record.ClockIn != nil {
				return attendance.ErrAlreadyClockedIn
			}
			record.ClockIn = &at
		case attendance.PunchClockOut:
			if record.ClockIn == nil {
				return attendance.ErrNotClockedIn
			}
			if record.ClockOut != nil {
				return attendance.ErrAlreadyClockedOut
			}
			if !at.After(*record.ClockIn) {
				return attendance.ErrClockOutBeforeIn
			}
			record.ClockOut = &at
		}

		res, err = s.resolveFresh(txCtx, p, date, record, nil)
		if err != nil {
			return err
		}
		if !record.OverriddenByAdmin {
			applyResolution(record, res)
		}

		if isNew {
			if _, err := s.AttendanceRepository.Create(txCtx, *record); err != nil {
				if errors.Is(err, attendance.ErrRecordAlreadyExists) {
					return err
				}
				return attendance.Persistence("create attendance", err)
			}
			return nil
		}
		if err := s.AttendanceRepository.Update(txCtx, *record); err != nil {
			return attendance.Persistence("update attendance", err)
		}
		return nil
	})
	if err != nil {
		return attendance.Resolution{}, err
	}

	s.cache.InvalidateEmployee(req.EmployeeID)
	slog.Info("punch recorded",
		"employee_id", req.EmployeeID,
		"kind", req.Kind,
		"date", date,
		"status", res.Status,
		"late_minutes", res.LateMinutes,
	)
	return res, nil
}

// checkAbsenceAllowed rejects an absent status on a holiday, a weekly-off
// day or a day covered by approved leave.
func (s *AttendanceServiceImpl) checkAbsenceAllowed(ctx context.Context, p Profile, date calendar.Date) error {
	holidays, err := s.HolidayRepository.ListBetween(ctx, date, date)
	if err != nil {
		return attendance.Persistence("list holidays", err)
	}
	leaves, err := s.LeaveRequestRepository.ListApprovedByEmployeeBetween(ctx, p.Employee.ID, date, date)
	if err != nil {
		return attendance.Persistence("list approved leave", err)
	}

	day := ClassifyDay(date, p.Policy, holiday.NewSet(holidays))
	coverage := OverlayLeave(date, leaves)
	switch {
	case !day.Working():
		return fmt.Errorf("%w: %s is a %s", attendance.ErrAbsentNotAllowed, date, day.Kind)
	case coverage.Covered():
		return fmt.Errorf("%w: %s is covered by leave request %s", attendance.ErrAbsentNotAllowed, date, coverage.RequestID)
	}
	return nil
}

// OverrideRecord implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) OverrideRecord(ctx context.Context, req attendance.OverrideRequest) (attendance.Resolution, error) {
	if err := req.Validate(); err != nil {
		return attendance.Resolution{}, err
	}

	p, err := s.profile(ctx, req.EmployeeID)
	if err != nil {
		return attendance.Resolution{}, err
	}

	unlock := s.locks.Lock(req.EmployeeID)
	defer unlock()

	var (
		res      attendance.Resolution
		previous attendance.Status
	)
	err = s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		record, err := s.AttendanceRepository.GetByEmployeeAndDate(txCtx, req.EmployeeID, req.Date)
		if err != nil {
			return attendance.Persistence("get attendance", err)
		}
		isNew := record == nil
		if isNew {
			record = &attendance.Record{EmployeeID: req.EmployeeID, Date: req.Date}
		}
		previous = record.Status

		if req.Status == attendance.StatusAbsent {
			if err := s.checkAbsenceAllowed(txCtx, p, req.Date); err != nil {
				return err
			}
		}

		if req.ClockIn != nil {
			in := req.ClockIn.UTC()
			record.ClockIn = &in
		}
		if req.ClockOut != nil {
			out := req.ClockOut.UTC()
			record.ClockOut = &out
		}
		record.LateMinutes = 0
		if record.ClockIn != nil {
			start := req.Date.At(p.ShiftStart.Hour, p.ShiftStart.Minute, p.Location)
			record.LateMinutes = ClassifyArrival(*record.ClockIn, start, 0).LateMinutes
		}
		record.Status = req.Status
		record.IsHalfDay = req.Status == attendance.StatusHalfDay
		record.OverriddenByAdmin = true

		if isNew {
			if _, err := s.AttendanceRepository.Create(txCtx, *record); err != nil {
				return attendance.Persistence("create attendance", err)
			}
		} else if err := s.AttendanceRepository.Update(txCtx, *record); err != nil {
			return attendance.Persistence("update attendance", err)
		}

		res, err = s.resolveFresh(txCtx, p, req.Date, record, nil)
		return err
	})
	if err != nil {
		return attendance.Resolution{}, err
	}

	s.cache.InvalidateEmployee(req.EmployeeID)
	slog.Info("attendance record overridden by admin",
		"employee_id", req.EmployeeID,
		"date", req.Date,
		"from", previous,
		"to", req.Status,
		"reason", req.Reason,
	)
	return res, nil
}

// ClearOverride implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) ClearOverride(ctx context.Context, employeeID string, date calendar.Date) (attendance.Resolution, error) {
	if err := validateDay(employeeID, date); err != nil {
		return attendance.Resolution{}, err
	}

	p, err := s.profile(ctx, employeeID)
	if err != nil {
		return attendance.Resolution{}, err
	}

	unlock := s.locks.Lock(employeeID)
	defer unlock()

	var res attendance.Resolution
	err = s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		record, err := s.AttendanceRepository.GetByEmployeeAndDate(txCtx, employeeID, date)
		if err != nil {
			return attendance.Persistence("get attendance", err)
		}
		if record == nil {
			return attendance.ErrAttendanceNotFound
		}
		if !record.OverriddenByAdmin {
			return attendance.ErrNotOverridden
		}

		record.OverriddenByAdmin = false
		res, err = s.resolveFresh(txCtx, p, date, record, nil)
		if err != nil {
			return err
		}
		applyResolution(record, res)

		if err := s.AttendanceRepository.Update(txCtx, *record); err != nil {
			return attendance.Persistence("update attendance", err)
		}
		return nil
	})
	if err != nil {
		return attendance.Resolution{}, err
	}

	s.cache.InvalidateEmployee(employeeID)
	slog.Info("admin override cleared", "employee_id", employeeID, "date", date, "status", res.Status)
	return res, nil
}

type reconcileOutcome int

const (
	outcomeUnchanged reconcileOutcome = iota
	outcomeCreated
	outcomeCorrected
	outcomeSkipped
)

// ReconcileDay implements attendance.AttendanceService. Failures of single
// employees do not stop the pass; they are joined into the returned error.
func (s *AttendanceServiceImpl) ReconcileDay(ctx context.Context, date calendar.Date) (attendance.ReconcileSummary, error) {
	summary := attendance.ReconcileSummary{Date: date}
	if date.IsZero() {
		return summary, fmt.Errorf("%w: date is required", attendance.ErrInvalidInput)
	}

	employees, err := s.EmployeeRepository.ListActive(ctx)
	if err != nil {
		return summary, attendance.Persistence("list active employees", err)
	}
	summary.Employees = len(employees)

	var errs []error
	for _, emp := range employees {
		outcome, err := s.reconcileEmployee(ctx, emp.ID, date)
		if err != nil {
			summary.Failed++
			errs = append(errs, fmt.Errorf("employee %s: %w", emp.ID, err))
			slog.Error("failed to reconcile attendance", "employee_id", emp.ID, "date", date, "error", err)
			continue
		}
		switch outcome {
		case outcomeCreated:
			summary.Created++
		case outcomeCorrected:
			summary.Corrected++
		case outcomeSkipped:
			summary.Skipped++
		}
	}

	slog.Info("attendance reconciled",
		"date", date,
		"employees", summary.Employees,
		"created", summary.Created,
		"corrected", summary.Corrected,
		"skipped", summary.Skipped,
		"failed", summary.Failed,
	)
	return summary, errors.Join(errs...)
}

func (s *AttendanceServiceImpl) reconcileEmployee(ctx context.Context, employeeID string, date calendar.Date) (reconcileOutcome, error) {
	p, err := s.profile(ctx, employeeID)
	if err != nil {
		return outcomeUnchanged, err
	}
	if date.Before(p.Employee.JoiningDate) {
		return outcomeSkipped, nil
	}

	unlock := s.locks.Lock(employeeID)
	defer unlock()

	outcome := outcomeUnchanged
	err = s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		record, err := s.AttendanceRepository.GetByEmployeeAndDate(txCtx, employeeID, date)
		if err != nil {
			return attendance.Persistence("get attendance", err)
		}
		res, err := s.resolveFresh(txCtx, p, date, record, nil)
		if err != nil {
			return err
		}

		switch {
		case record == nil:
			if res.Status != attendance.StatusAbsent {
				return nil
			}
			rec := attendance.Record{EmployeeID: employeeID, Date: date}
			applyResolution(&rec, res)
			if _, err := s.AttendanceRepository.Create(txCtx, rec); err != nil {
				return attendance.Persistence("create attendance", err)
			}
			outcome = outcomeCreated
		case record.OverriddenByAdmin:
			outcome = outcomeSkipped
		case needsCorrection(*record, res):
			applyResolution(record, res)
			if err := s.AttendanceRepository.Update(txCtx, *record); err != nil {
				return attendance.Persistence("update attendance", err)
			}
			outcome = outcomeCorrected
		}
		return nil
	})
	if err != nil {
		return outcomeUnchanged, err
	}

	if outcome == outcomeCreated || outcome == outcomeCorrected {
		s.cache.InvalidateEmployee(employeeID)
	}
	return outcome, nil
}

// InvalidateEmployeeCache implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) InvalidateEmployeeCache(employeeID string) {
	s.cache.InvalidateEmployee(employeeID)
}

// InvalidateSettingsCache implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) InvalidateSettingsCache() {
	s.settings.Invalidate()
}
