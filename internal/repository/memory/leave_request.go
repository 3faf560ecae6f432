package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/leave"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/calendar"
)

type leaveRequestRepository struct {
	store *Store
}

func NewLeaveRequestRepository(store *Store) leave.LeaveRequestRepository {
	return &leaveRequestRepository{store: store}
}

// Create implements leave.LeaveRequestRepository.
func (r *leaveRequestRepository) Create(ctx context.Context, request leave.Request) (leave.Request, error) {
	err := r.store.write(ctx, "leave.create", func(d *state) error {
		if request.ID == "" {
			request.ID = uuid.New().String()
		}
		if request.Status == "" {
			request.Status = leave.StatusPending
		}
		request.Dates = calendar.Dedupe(request.Dates)
		now := r.store.now()
		if request.CreatedAt.IsZero() {
			request.CreatedAt = now
		}
		request.UpdatedAt = now
		d.leaves[request.ID] = cloneRequest(request)
		return nil
	})
	if err != nil {
		return leave.Request{}, err
	}
	return request, nil
}

// GetByID implements leave.LeaveRequestRepository.
func (r *leaveRequestRepository) GetByID(ctx context.Context, id string) (leave.Request, error) {
	var out leave.Request
	err := r.store.read(ctx, func(d *state) error {
		req, ok := d.leaves[id]
		if !ok {
			return leave.ErrLeaveRequestNotFound
		}
		out = cloneRequest(req)
		return nil
	})
	return out, err
}

// ListApprovedByEmployeeBetween implements leave.LeaveRequestRepository.
func (r *leaveRequestRepository) ListApprovedByEmployeeBetween(ctx context.Context, employeeID string, from, to calendar.Date) ([]leave.Request, error) {
	var out []leave.Request
	err := r.store.read(ctx, func(d *state) error {
		for _, req := range d.leaves {
			if req.EmployeeID != employeeID || !req.IsApproved() {
				continue
			}
			for _, date := range req.Dates {
				if !date.Before(from) && !date.After(to) {
					out = append(out, cloneRequest(req))
					break
				}
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, err
}

// Update implements leave.LeaveRequestRepository.
func (r *leaveRequestRepository) Update(ctx context.Context, request leave.Request) error {
	return r.store.write(ctx, "leave.update", func(d *state) error {
		existing, ok := d.leaves[request.ID]
		if !ok {
			return leave.ErrLeaveRequestNotFound
		}
		request.EmployeeID = existing.EmployeeID
		request.CreatedAt = existing.CreatedAt
		request.Dates = calendar.Dedupe(request.Dates)
		request.UpdatedAt = r.store.now()
		d.leaves[request.ID] = cloneRequest(request)
		return nil
	})
}

// Delete implements leave.LeaveRequestRepository. Like the
// attendance_records foreign key, it clears the link on every record that
// still points at the request.
func (r *leaveRequestRepository) Delete(ctx context.Context, id string) error {
	return r.store.write(ctx, "leave.delete", func(d *state) error {
		if _, ok := d.leaves[id]; !ok {
			return leave.ErrLeaveRequestNotFound
		}
		delete(d.leaves, id)
		for key, rec := range d.records {
			if rec.LeaveRequestID != nil && *rec.LeaveRequestID == id {
				rec.LeaveRequestID = nil
				d.records[key] = rec
			}
		}
		return nil
	})
}
