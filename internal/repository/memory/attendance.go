package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/calendar"
)

type attendanceRepository struct {
	store *Store
}

func NewAttendanceRepository(store *Store) attendance.AttendanceRepository {
	return &attendanceRepository{store: store}
}

// GetByEmployeeAndDate implements attendance.AttendanceRepository.
func (r *attendanceRepository) GetByEmployeeAndDate(ctx context.Context, employeeID string, date calendar.Date) (*attendance.Record, error) {
	var out *attendance.Record
	err := r.store.read(ctx, func(d *state) error {
		id, ok := d.recordKeys[dayKey{EmployeeID: employeeID, Date: date}]
		if !ok {
			return nil
		}
		rec := cloneRecord(d.records[id])
		out = &rec
		return nil
	})
	return out, err
}

// ListByEmployeeBetween implements attendance.AttendanceRepository.
func (r *attendanceRepository) ListByEmployeeBetween(ctx context.Context, employeeID string, from, to calendar.Date) ([]attendance.Record, error) {
	var out []attendance.Record
	err := r.store.read(ctx, func(d *state) error {
		for _, rec := range d.records {
			if rec.EmployeeID != employeeID || rec.Date.Before(from) || rec.Date.After(to) {
				continue
			}
			out = append(out, cloneRecord(rec))
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, err
}

// ListByLeaveRequest implements attendance.AttendanceRepository.
func (r *attendanceRepository) ListByLeaveRequest(ctx context.Context, leaveRequestID string) ([]attendance.Record, error) {
	var out []attendance.Record
	err := r.store.read(ctx, func(d *state) error {
		for _, rec := range d.records {
			if rec.LinkedTo(leaveRequestID) {
				out = append(out, cloneRecord(rec))
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, err
}

// Create implements attendance.AttendanceRepository.
func (r *attendanceRepository) Create(ctx context.Context, record attendance.Record) (attendance.Record, error) {
	err := r.store.write(ctx, "attendance.create", func(d *state) error {
		key := dayKey{EmployeeID: record.EmployeeID, Date: record.Date}
		if _, exists := d.recordKeys[key]; exists {
			return attendance.ErrRecordAlreadyExists
		}
		if record.ID == "" {
			record.ID = uuid.New().String()
		}
		now := r.store.now()
		record.CreatedAt = now
		record.UpdatedAt = now
		d.records[record.ID] = cloneRecord(record)
		d.recordKeys[key] = record.ID
		return nil
	})
	if err != nil {
		return attendance.Record{}, err
	}
	return record, nil
}

// Update implements attendance.AttendanceRepository.
func (r *attendanceRepository) Update(ctx context.Context, record attendance.Record) error {
	return r.store.write(ctx, "attendance.update", func(d *state) error {
		existing, ok := d.records[record.ID]
		if !ok {
			return attendance.ErrAttendanceNotFound
		}
		// Identity is immutable.
		record.EmployeeID = existing.EmployeeID
		record.Date = existing.Date
		record.CreatedAt = existing.CreatedAt
		record.UpdatedAt = r.store.now()
		d.records[record.ID] = cloneRecord(record)
		return nil
	})
}
