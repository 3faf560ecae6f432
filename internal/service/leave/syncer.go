package leave

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/leave"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/calendar"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/database"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/keylock"
	"github.com/cmlabs-hris/attendance-engine/internal/service/cache"
)

type SyncerImpl struct {
	tx database.Transactor
	attendance.AttendanceRepository
	resolver leave.DayResolver
	cache    *cache.Service
	locks    *keylock.KeyLock
}

var _ leave.Syncer = (*SyncerImpl)(nil)

func NewSyncer(tx database.Transactor, attendanceRepository attendance.AttendanceRepository, resolver leave.DayResolver, cacheService *cache.Service, locks *keylock.KeyLock) *SyncerImpl {
	return &SyncerImpl{
		tx:                   tx,
		AttendanceRepository: attendanceRepository,
		resolver:             resolver,
		cache:                cacheService,
		locks:                locks,
	}
}

// RecalculateForLeaveTransition implements leave.Syncer. It joins the
// transaction carried by ctx, if any.
func (s *SyncerImpl) RecalculateForLeaveTransition(ctx context.Context, req leave.Request, oldDates []calendar.Date) ([]attendance.AffectedRecordUpdate, error) {
	if req.ID == "" || req.EmployeeID == "" {
		return nil, fmt.Errorf("%w: leave request id and employee_id are required", attendance.ErrInvalidInput)
	}

	ctx, unlock := s.locks.LockContext(ctx, req.EmployeeID)
	defer unlock()

	var updates []attendance.AffectedRecordUpdate
	err := s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		var err error
		updates, err = s.sync(txCtx, req, oldDates)
		return err
	})
	if err != nil {
		slog.Error("failed to sync attendance with leave request",
			"leave_request_id", req.ID,
			"employee_id", req.EmployeeID,
			"status", req.Status,
			"error", err,
		)
		return nil, err
	}

	s.cache.InvalidateEmployee(req.EmployeeID)
	slog.Info("attendance synced with leave request",
		"leave_request_id", req.ID,
		"employee_id", req.EmployeeID,
		"status", req.Status,
		"affected", len(updates),
	)
	return updates, nil
}

func (s *SyncerImpl) sync(ctx context.Context, req leave.Request, oldDates []calendar.Date) ([]attendance.AffectedRecordUpdate, error) {
	updates := []attendance.AffectedRecordUpdate{}
	collect := func(u *attendance.AffectedRecordUpdate, err error) error {
		if err != nil {
			return err
		}
		if u != nil {
			updates = append(updates, *u)
		}
		return nil
	}

	switch {
	case req.IsApproved() && oldDates == nil:
		for _, d := range req.DateSet().Sorted() {
			if err := collect(s.apply(ctx, req, d)); err != nil {
				return nil, err
			}
		}

	case req.IsApproved():
		current, previous := req.DateSet(), calendar.NewSet(oldDates...)
		for _, d := range previous.Difference(current) {
			record, err := s.AttendanceRepository.GetByEmployeeAndDate(ctx, req.EmployeeID, d)
			if err != nil {
				return nil, attendance.Persistence("get attendance", err)
			}
			if record == nil {
				continue
			}
			if err := collect(s.revert(ctx, req, *record)); err != nil {
				return nil, err
			}
		}
		for _, d := range current.Difference(previous) {
			if err := collect(s.apply(ctx, req, d)); err != nil {
				return nil, err
			}
		}

	default:
		records, err := s.AttendanceRepository.ListByLeaveRequest(ctx, req.ID)
		if err != nil {
			return nil, attendance.Persistence("list attendance by leave request", err)
		}
		for _, record := range records {
			if err := collect(s.revert(ctx, req, record)); err != nil {
				return nil, err
			}
		}
	}
	return updates, nil
}

// including makes sure req takes part in resolution with its current dates,
// whatever the store has committed so far.
func including(req leave.Request) func([]leave.Request) []leave.Request {
	return func(reqs []leave.Request) []leave.Request {
		return append(excluding(req.ID)(reqs), req)
	}
}

func excluding(id string) func([]leave.Request) []leave.Request {
	return func(reqs []leave.Request) []leave.Request {
		out := make([]leave.Request, 0, len(reqs))
		for _, r := range reqs {
			if r.ID != id {
				out = append(out, r)
			}
		}
		return out
	}
}

func skipped(record attendance.Record, req leave.Request) *attendance.AffectedRecordUpdate {
	slog.Warn("admin override preserved",
		"employee_id", record.EmployeeID,
		"date", record.Date,
		"status", record.Status,
		"leave_request_id", req.ID,
	)
	return &attendance.AffectedRecordUpdate{
		EmployeeID:     record.EmployeeID,
		Date:           record.Date,
		Action:         attendance.ActionSkippedAdminOverride,
		PreviousStatus: record.Status,
		NewStatus:      record.Status,
		LeaveRequestID: record.LeaveRequestID,
	}
}

func (s *SyncerImpl) apply(ctx context.Context, req leave.Request, date calendar.Date) (*attendance.AffectedRecordUpdate, error) {
	record, err := s.AttendanceRepository.GetByEmployeeAndDate(ctx, req.EmployeeID, date)
	if err != nil {
		return nil, attendance.Persistence("get attendance", err)
	}
	if record != nil && record.OverriddenByAdmin {
		if record.Status == attendance.StatusAbsent {
			return nil, fmt.Errorf("%w: %s is overridden as absent, clear the override first", attendance.ErrAbsentNotAllowed, date)
		}
		return skipped(*record, req), nil
	}

	res, err := s.resolver.ResolveDay(ctx, req.EmployeeID, date, record, including(req))
	if err != nil {
		return nil, err
	}

	id := req.ID
	update := &attendance.AffectedRecordUpdate{
		EmployeeID:     req.EmployeeID,
		Date:           date,
		NewStatus:      res.Status,
		LeaveRequestID: &id,
	}

	if record == nil {
		rec := attendance.Record{
			EmployeeID:     req.EmployeeID,
			Date:           date,
			Status:         res.Status,
			LateMinutes:    res.LateMinutes,
			IsHalfDay:      res.IsHalfDay,
			LeaveRequestID: &id,
		}
		if _, err := s.AttendanceRepository.Create(ctx, rec); err != nil {
			return nil, attendance.Persistence("create attendance", err)
		}
		update.Action = attendance.ActionCreated
		update.PreviousStatus = attendance.StatusPending
		return update, nil
	}

	update.PreviousStatus = record.Status
	if record.LinkedTo(req.ID) && record.Status == res.Status &&
		record.LateMinutes == res.LateMinutes && record.IsHalfDay == res.IsHalfDay {
		update.Action = attendance.ActionUnchanged
		return update, nil
	}

	record.Status = res.Status
	record.LateMinutes = res.LateMinutes
	record.IsHalfDay = res.IsHalfDay
	record.LeaveRequestID = &id
	if err := s.AttendanceRepository.Update(ctx, *record); err != nil {
		return nil, attendance.Persistence("update attendance", err)
	}
	update.Action = attendance.ActionUpdated
	return update, nil
}

// revert unlinks a record from req and stores the status the day has without
// it. Records linked to another request are left alone.
func (s *SyncerImpl) revert(ctx context.Context, req leave.Request, record attendance.Record) (*attendance.AffectedRecordUpdate, error) {
	if !record.LinkedTo(req.ID) {
		return nil, nil
	}
	if record.OverriddenByAdmin {
		return skipped(record, req), nil
	}

	previous := record.Status
	record.LeaveRequestID = nil
	res, err := s.resolver.ResolveDay(ctx, record.EmployeeID, record.Date, &record, excluding(req.ID))
	if err != nil {
		return nil, err
	}

	record.Status = res.Status
	record.LateMinutes = res.LateMinutes
	record.IsHalfDay = res.IsHalfDay
	if err := s.AttendanceRepository.Update(ctx, record); err != nil {
		return nil, attendance.Persistence("update attendance", err)
	}

	return &attendance.AffectedRecordUpdate{
		EmployeeID:     record.EmployeeID,
		Date:           record.Date,
		Action:         attendance.ActionReverted,
		PreviousStatus: previous,
		NewStatus:      res.Status,
	}, nil
}
