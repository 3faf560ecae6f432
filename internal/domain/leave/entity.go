package leave

import (
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/calendar"
)

type RequestStatus string

const (
	StatusPending  RequestStatus = "pending"
	StatusApproved RequestStatus = "approved"
	StatusRejected RequestStatus = "rejected"
)

func (s RequestStatus) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// Type is the leave granularity. Half-day types cover one half of every
// date in the request.
type Type string

const (
	TypeFullDay       Type = "full_day"
	TypeHalfDayFirst  Type = "half_day_first"
	TypeHalfDaySecond Type = "half_day_second"
)

var TypeValues = []string{
	string(TypeFullDay),
	string(TypeHalfDayFirst),
	string(TypeHalfDaySecond),
}

func (t Type) Valid() bool {
	switch t {
	case TypeFullDay, TypeHalfDayFirst, TypeHalfDaySecond:
		return true
	}
	return false
}

func (t Type) IsHalfDay() bool {
	return t == TypeHalfDayFirst || t == TypeHalfDaySecond
}

// Half maps the type onto the attendance metadata value.
func (t Type) Half() attendance.LeaveHalf {
	switch t {
	case TypeHalfDayFirst:
		return attendance.LeaveHalfFirst
	case TypeHalfDaySecond:
		return attendance.LeaveHalfSecond
	default:
		return attendance.LeaveHalfNone
	}
}

// Request is a leave request. Dates is kept sorted and free of duplicates.
type Request struct {
	ID         string
	EmployeeID string
	Status     RequestStatus
	Type       Type
	Dates      []calendar.Date
	Reason     *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (r Request) IsApproved() bool {
	return r.Status == StatusApproved
}

func (r Request) Covers(d calendar.Date) bool {
	for _, ld := range r.Dates {
		if ld.Equal(d) {
			return true
		}
	}
	return false
}

func (r Request) DateSet() calendar.Set {
	return calendar.NewSet(r.Dates...)
}

// Span returns the first and last leave date. ok is false for an empty request.
func (r Request) Span() (from, to calendar.Date, ok bool) {
	if len(r.Dates) == 0 {
		return calendar.Date{}, calendar.Date{}, false
	}
	from, to = r.Dates[0], r.Dates[0]
	for _, d := range r.Dates[1:] {
		from = calendar.Min(from, d)
		to = calendar.Max(to, d)
	}
	return from, to, true
}

// Overlaps returns the dates both requests cover, sorted.
func (r Request) Overlaps(other Request) []calendar.Date {
	theirs := other.DateSet()
	var out []calendar.Date
	for d := range r.DateSet() {
		if theirs.Has(d) {
			out = append(out, d)
		}
	}
	calendar.Sort(out)
	return out
}
