package attendance

import (
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/holiday"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/leave"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/schedule"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/calendar"
)

// Input is everything needed to resolve one employee-day.
type Input struct {
	EmployeeID string
	Date       calendar.Date
	Holidays   holiday.Set
	// Leaves may contain requests of any status or date; only approved
	// requests covering Date are considered.
	Leaves []leave.Request
	// Record is the stored row for the day, nil when there is none.
	Record *attendance.Record

	Policy          schedule.WeeklyOffPolicy
	PolicyDefaulted bool
	GraceMinutes    int
	ShiftStart      schedule.ClockTime
	Location        *time.Location

	// Today is the current date in Location.
	Today calendar.Date
}

// Rule is one row of the resolution table.
type Rule struct {
	Name  string
	Match func(e *evaluation) bool
	Apply func(e *evaluation, res *attendance.Resolution)
}

type evaluation struct {
	in    Input
	day   DayClassification
	leave LeaveCoverage
}

func (e *evaluation) hasPunch() bool {
	return e.in.Record != nil && e.in.Record.HasPunch()
}

// Excused reports whether absence is ruled out for the day.
func Excused(day DayClassification, coverage LeaveCoverage) bool {
	return !day.Working() || coverage.Covered()
}

func (e *evaluation) arrival() (Arrival, bool) {
	if !e.hasPunch() {
		return Arrival{}, false
	}
	loc := e.in.Location
	if loc == nil {
		loc = time.UTC
	}
	start := e.in.Date.At(e.in.ShiftStart.Hour, e.in.ShiftStart.Minute, loc)
	return ClassifyArrival(*e.in.Record.ClockIn, start, e.in.GraceMinutes), true
}

// Rules is evaluated top to bottom; the first matching rule decides.
var Rules = []Rule{
	{
		Name: "admin_override",
		// An absent override on a day that later became a holiday or leave
		// day yields to the rules below.
		Match: func(e *evaluation) bool {
			r := e.in.Record
			if r == nil || !r.OverriddenByAdmin {
				return false
			}
			return r.Status != attendance.StatusAbsent || !Excused(e.day, e.leave)
		},
		Apply: func(e *evaluation, res *attendance.Resolution) {
			res.Status = e.in.Record.Status
			res.LateMinutes = e.in.Record.LateMinutes
			res.IsHalfDay = e.in.Record.IsHalfDay
			res.Metadata.AdminOverride = true
			if e.in.Record.LeaveRequestID != nil {
				res.Metadata.LeaveRequestID = *e.in.Record.LeaveRequestID
			}
		},
	},
	{
		Name:  "holiday",
		Match: func(e *evaluation) bool { return e.day.Kind == HolidayDay },
		Apply: func(e *evaluation, res *attendance.Resolution) {
			res.Status = attendance.StatusHoliday
			res.Metadata.HolidayName = e.day.Holiday.Name
		},
	},
	{
		Name:  "approved_leave",
		Match: func(e *evaluation) bool { return e.leave.Covered() },
		Apply: func(e *evaluation, res *attendance.Resolution) {
			res.Status = attendance.StatusLeave
			res.IsHalfDay = e.leave.Kind == HalfDayLeave
			res.Metadata.LeaveRequestID = e.leave.RequestID
			res.Metadata.LeaveHalf = e.leave.Half
			// Punch data stays visible for reporting.
			if a, ok := e.arrival(); ok {
				res.LateMinutes = a.LateMinutes
			}
		},
	},
	{
		Name:  "weekly_off",
		Match: func(e *evaluation) bool { return e.day.Kind == WeeklyOffDay },
		Apply: func(e *evaluation, res *attendance.Resolution) {
			res.Status = attendance.StatusWeeklyOff
		},
	},
	{
		Name:  "punch",
		Match: func(e *evaluation) bool { return e.hasPunch() },
		Apply: func(e *evaluation, res *attendance.Resolution) {
			a, _ := e.arrival()
			res.Status = a.Status
			res.LateMinutes = a.LateMinutes
			res.IsHalfDay = a.Status == attendance.StatusHalfDay
		},
	},
	{
		Name:  "absent",
		Match: func(e *evaluation) bool { return e.in.Date.Before(e.in.Today) },
		Apply: func(e *evaluation, res *attendance.Resolution) {
			res.Status = attendance.StatusAbsent
		},
	},
	{
		Name:  "pending",
		Match: func(e *evaluation) bool { return true },
		Apply: func(e *evaluation, res *attendance.Resolution) {
			res.Status = attendance.StatusPending
		},
	},
}

// Resolve returns the canonical status for in. It is pure and never touches
// storage; callers persist corrections.
func Resolve(in Input) attendance.Resolution {
	e := &evaluation{
		in:    in,
		day:   ClassifyDay(in.Date, in.Policy, in.Holidays),
		leave: OverlayLeave(in.Date, in.Leaves),
	}

	res := attendance.Resolution{
		EmployeeID: in.EmployeeID,
		Date:       in.Date,
		Metadata: attendance.Metadata{
			HasPunch:        e.hasPunch(),
			PolicyDefaulted: in.PolicyDefaulted,
		},
	}

	for _, rule := range Rules {
		if rule.Match(e) {
			res.Rule = rule.Name
			rule.Apply(e, &res)
			return res
		}
	}
	return res
}
