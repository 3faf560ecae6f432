package leave

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/leave"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/calendar"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/database"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/keylock"
	"github.com/cmlabs-hris/attendance-engine/internal/service/cache"
)

type LeaveServiceImpl struct {
	tx database.Transactor
	leave.LeaveRequestRepository
	employee.EmployeeRepository
	syncer leave.Syncer
	cache  *cache.Service
	locks  *keylock.KeyLock
}

var _ leave.LeaveService = (*LeaveServiceImpl)(nil)

func NewLeaveService(
	tx database.Transactor,
	leaveRequestRepository leave.LeaveRequestRepository,
	employeeRepository employee.EmployeeRepository,
	syncer leave.Syncer,
	cacheService *cache.Service,
	locks *keylock.KeyLock,
) *LeaveServiceImpl {
	return &LeaveServiceImpl{
		tx:                     tx,
		LeaveRequestRepository: leaveRequestRepository,
		EmployeeRepository:     employeeRepository,
		syncer:                 syncer,
		cache:                  cacheService,
		locks:                  locks,
	}
}

func (l *LeaveServiceImpl) getRequest(ctx context.Context, id string) (leave.Request, error) {
	req, err := l.LeaveRequestRepository.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, leave.ErrLeaveRequestNotFound) {
			return leave.Request{}, err
		}
		return leave.Request{}, attendance.Persistence("get leave request", err)
	}
	return req, nil
}

// Submit implements leave.LeaveService.
func (l *LeaveServiceImpl) Submit(ctx context.Context, req leave.CreateLeaveRequestRequest) (leave.Request, error) {
	if err := req.Validate(); err != nil {
		return leave.Request{}, err
	}

	if _, err := l.EmployeeRepository.GetByID(ctx, req.EmployeeID); err != nil {
		if errors.Is(err, employee.ErrEmployeeNotFound) {
			return leave.Request{}, err
		}
		return leave.Request{}, attendance.Persistence("get employee", err)
	}

	created, err := l.LeaveRequestRepository.Create(ctx, leave.Request{
		EmployeeID: req.EmployeeID,
		Status:     leave.StatusPending,
		Type:       req.Type,
		Dates:      calendar.Dedupe(req.Dates),
		Reason:     req.Reason,
	})
	if err != nil {
		return leave.Request{}, attendance.Persistence("create leave request", err)
	}

	slog.Info("leave request submitted",
		"leave_request_id", created.ID,
		"employee_id", created.EmployeeID,
		"leave_type", created.Type,
		"dates", len(created.Dates),
	)
	return created, nil
}

// Get implements leave.LeaveService.
func (l *LeaveServiceImpl) Get(ctx context.Context, id string) (leave.Request, error) {
	return l.getRequest(ctx, id)
}

// transition re-reads the request under the employee lock inside one
// transaction, lets mutate change and persist it, then syncs attendance.
// mutate returns the approved date list before an edit, or nil. finish, when
// set, runs after the sync in the same transaction.
func (l *LeaveServiceImpl) transition(
	ctx context.Context,
	id string,
	action string,
	mutate func(ctx context.Context, req *leave.Request) ([]calendar.Date, error),
	finish func(ctx context.Context, req leave.Request) error,
) (leave.TransitionResponse, error) {
	if id == "" {
		return leave.TransitionResponse{}, fmt.Errorf("%w: leave request id is required", attendance.ErrInvalidInput)
	}

	current, err := l.getRequest(ctx, id)
	if err != nil {
		return leave.TransitionResponse{}, err
	}

	ctx, unlock := l.locks.LockContext(ctx, current.EmployeeID)
	defer unlock()

	var (
		req     leave.Request
		updates []attendance.AffectedRecordUpdate
	)
	err = l.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		req, err = l.getRequest(txCtx, id)
		if err != nil {
			return err
		}
		oldDates, err := mutate(txCtx, &req)
		if err != nil {
			return err
		}
		updates, err = l.syncer.RecalculateForLeaveTransition(txCtx, req, oldDates)
		if err != nil || finish == nil {
			return err
		}
		return finish(txCtx, req)
	})
	if err != nil {
		return leave.TransitionResponse{}, err
	}

	l.cache.InvalidateEmployee(req.EmployeeID)
	slog.Info("leave request "+action,
		"leave_request_id", req.ID,
		"employee_id", req.EmployeeID,
		"status", req.Status,
		"affected", len(updates),
	)
	return leave.NewTransitionResponse(req, updates), nil
}

// checkOverlap enforces that approved requests of one employee never share a date.
func (l *LeaveServiceImpl) checkOverlap(ctx context.Context, req leave.Request) error {
	from, to, ok := req.Span()
	if !ok {
		return leave.ErrEmptyLeaveDates
	}
	approved, err := l.LeaveRequestRepository.ListApprovedByEmployeeBetween(ctx, req.EmployeeID, from, to)
	if err != nil {
		return attendance.Persistence("list approved leave", err)
	}
	for _, other := range approved {
		if other.ID == req.ID {
			continue
		}
		if shared := req.Overlaps(other); len(shared) > 0 {
			return fmt.Errorf("%w: request %s already covers %s", leave.ErrOverlappingLeave, other.ID, shared[0])
		}
	}
	return nil
}

func (l *LeaveServiceImpl) save(ctx context.Context, req leave.Request) error {
	if err := l.LeaveRequestRepository.Update(ctx, req); err != nil {
		if errors.Is(err, leave.ErrLeaveRequestNotFound) {
			return err
		}
		return attendance.Persistence("update leave request", err)
	}
	return nil
}

// Approve implements leave.LeaveService.
func (l *LeaveServiceImpl) Approve(ctx context.Context, id string) (leave.TransitionResponse, error) {
	return l.transition(ctx, id, "approved", func(ctx context.Context, req *leave.Request) ([]calendar.Date, error) {
		if req.Status != leave.StatusPending {
			return nil, leave.ErrLeaveRequestAlreadyProcessed
		}
		if err := l.checkOverlap(ctx, *req); err != nil {
			return nil, err
		}
		req.Status = leave.StatusApproved
		return nil, l.save(ctx, *req)
	}, nil)
}

// Reject implements leave.LeaveService. Rejecting an approved request
// withdraws it.
func (l *LeaveServiceImpl) Reject(ctx context.Context, id string) (leave.TransitionResponse, error) {
	return l.transition(ctx, id, "rejected", func(ctx context.Context, req *leave.Request) ([]calendar.Date, error) {
		if req.Status == leave.StatusRejected {
			return nil, leave.ErrLeaveRequestAlreadyProcessed
		}
		req.Status = leave.StatusRejected
		return nil, l.save(ctx, *req)
	}, nil)
}

// UpdateDates implements leave.LeaveService.
func (l *LeaveServiceImpl) UpdateDates(ctx context.Context, in leave.UpdateLeaveDatesRequest) (leave.TransitionResponse, error) {
	if err := in.Validate(); err != nil {
		return leave.TransitionResponse{}, err
	}

	return l.transition(ctx, in.ID, "dates updated", func(ctx context.Context, req *leave.Request) ([]calendar.Date, error) {
		var oldDates []calendar.Date
		switch req.Status {
		case leave.StatusRejected:
			return nil, leave.ErrLeaveRequestAlreadyProcessed
		case leave.StatusApproved:
			oldDates = append([]calendar.Date{}, req.Dates...)
		}

		req.Dates = calendar.Dedupe(in.Dates)
		if req.IsApproved() {
			if err := l.checkOverlap(ctx, *req); err != nil {
				return nil, err
			}
		}
		return oldDates, l.save(ctx, *req)
	}, nil)
}

// Delete implements leave.LeaveService. Records linked to the request are
// reverted while the link still exists, then the request is removed.
func (l *LeaveServiceImpl) Delete(ctx context.Context, id string) (leave.TransitionResponse, error) {
	return l.transition(ctx, id, "deleted", func(ctx context.Context, req *leave.Request) ([]calendar.Date, error) {
		req.Status = leave.StatusRejected
		return nil, nil
	}, func(ctx context.Context, req leave.Request) error {
		if err := l.LeaveRequestRepository.Delete(ctx, req.ID); err != nil {
			if errors.Is(err, leave.ErrLeaveRequestNotFound) {
				return err
			}
			return attendance.Persistence("delete leave request", err)
		}
		return nil
	})
}
