package attendance

import "fmt"

// Status is the closed set of attendance statuses. The zero value means the
// day has no status yet (today or a future date with no punch).
type Status string

const (
	StatusPending   Status = ""
	StatusOnTime    Status = "on_time"
	StatusLate      Status = "late" // legacy rows only, never produced
	StatusHalfDay   Status = "half_day"
	StatusAbsent    Status = "absent"
	StatusLeave     Status = "leave"
	StatusHoliday   Status = "holiday"
	StatusWeeklyOff Status = "weekly_off"
)

var StatusValues = []string{
	string(StatusOnTime),
	string(StatusLate),
	string(StatusHalfDay),
	string(StatusAbsent),
	string(StatusLeave),
	string(StatusHoliday),
	string(StatusWeeklyOff),
}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusOnTime, StatusLate, StatusHalfDay, StatusAbsent,
		StatusLeave, StatusHoliday, StatusWeeklyOff:
		return true
	}
	return false
}

// Storable reports whether the status may be set on a record by an admin or
// by the nightly reconcile. A record may still hold StatusPending after a
// leave is withdrawn from a future day with no punch.
func (s Status) Storable() bool {
	return s != StatusPending && s.Valid()
}

// Present reports whether the employee showed up.
func (s Status) Present() bool {
	return s == StatusOnTime || s == StatusLate || s == StatusHalfDay
}

func (s Status) String() string {
	if s == StatusPending {
		return "pending"
	}
	return string(s)
}

func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !st.Storable() {
		return "", fmt.Errorf("%w: unknown status %q", ErrInvalidInput, s)
	}
	return st, nil
}

// LeaveHalf names which half of the day a half-day leave covers.
type LeaveHalf string

const (
	LeaveHalfNone   LeaveHalf = ""
	LeaveHalfFirst  LeaveHalf = "first_half"
	LeaveHalfSecond LeaveHalf = "second_half"
)
