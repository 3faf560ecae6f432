package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/leave"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/calendar"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type leaveRequestRepository struct {
	db *database.DB
}

const leaveRequestColumns = `
	id, employee_id, status, leave_type, leave_dates, reason, created_at, updated_at`

func scanLeaveRequest(row pgx.Row) (leave.Request, error) {
	var (
		req    leave.Request
		status string
		typ    string
		dates  []time.Time
	)
	err := row.Scan(&req.ID, &req.EmployeeID, &status, &typ, &dates, &req.Reason, &req.CreatedAt, &req.UpdatedAt)
	if err != nil {
		return leave.Request{}, err
	}
	req.Status = leave.RequestStatus(status)
	req.Type = leave.Type(typ)
	req.Dates = calendar.Dedupe(toDates(dates))
	return req, nil
}

// Create implements leave.LeaveRequestRepository.
func (l *leaveRequestRepository) Create(ctx context.Context, request leave.Request) (leave.Request, error) {
	q := GetQuerier(ctx, l.db)

	if request.Status == "" {
		request.Status = leave.StatusPending
	}
	request.Dates = calendar.Dedupe(request.Dates)

	query := `
		INSERT INTO leave_requests (employee_id, status, leave_type, leave_dates, reason)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`

	err := q.QueryRow(ctx, query,
		request.EmployeeID,
		string(request.Status),
		string(request.Type),
		dateArgs(request.Dates),
		request.Reason,
	).Scan(&request.ID, &request.CreatedAt, &request.UpdatedAt)
	if err != nil {
		return leave.Request{}, fmt.Errorf("failed to create leave request: %w", err)
	}
	return request, nil
}

// GetByID implements leave.LeaveRequestRepository.
func (l *leaveRequestRepository) GetByID(ctx context.Context, id string) (leave.Request, error) {
	q := GetQuerier(ctx, l.db)

	query := `SELECT` + leaveRequestColumns + `
		FROM leave_requests
		WHERE id = $1`

	req, err := scanLeaveRequest(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return leave.Request{}, leave.ErrLeaveRequestNotFound
		}
		return leave.Request{}, fmt.Errorf("failed to get leave request by id: %w", err)
	}
	return req, nil
}

// ListApprovedByEmployeeBetween implements leave.LeaveRequestRepository.
func (l *leaveRequestRepository) ListApprovedByEmployeeBetween(ctx context.Context, employeeID string, from, to calendar.Date) ([]leave.Request, error) {
	q := GetQuerier(ctx, l.db)

	query := `SELECT` + leaveRequestColumns + `
		FROM leave_requests
		WHERE employee_id = $1
		  AND status = 'approved'
		  AND EXISTS (SELECT 1 FROM unnest(leave_dates) AS d WHERE d BETWEEN $2 AND $3)
		ORDER BY created_at, id`

	rows, err := q.Query(ctx, query, employeeID, from.Time(), to.Time())
	if err != nil {
		return nil, fmt.Errorf("failed to list approved leave requests: %w", err)
	}
	defer rows.Close()

	var requests []leave.Request
	for rows.Next() {
		req, err := scanLeaveRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan leave request: %w", err)
		}
		requests = append(requests, req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate leave requests: %w", err)
	}
	return requests, nil
}

// Update implements leave.LeaveRequestRepository.
func (l *leaveRequestRepository) Update(ctx context.Context, request leave.Request) error {
	q := GetQuerier(ctx, l.db)

	query := `
		UPDATE leave_requests
		SET status = $2, leave_type = $3, leave_dates = $4, reason = $5, updated_at = NOW()
		WHERE id = $1
	`

	tag, err := q.Exec(ctx, query,
		request.ID,
		string(request.Status),
		string(request.Type),
		dateArgs(calendar.Dedupe(request.Dates)),
		request.Reason,
	)
	if err != nil {
		return fmt.Errorf("failed to update leave request: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return leave.ErrLeaveRequestNotFound
	}
	return nil
}

// Delete implements leave.LeaveRequestRepository.
func (l *leaveRequestRepository) Delete(ctx context.Context, id string) error {
	q := GetQuerier(ctx, l.db)

	tag, err := q.Exec(ctx, `DELETE FROM leave_requests WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete leave request: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return leave.ErrLeaveRequestNotFound
	}
	return nil
}

func NewLeaveRequestRepository(db *database.DB) leave.LeaveRequestRepository {
	return &leaveRequestRepository{db: db}
}
