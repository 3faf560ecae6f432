package period

import (
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/holiday"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/leave"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/period"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/schedule"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/calendar"
	attendanceService "github.com/cmlabs-hris/attendance-engine/internal/service/attendance"
)

// DefaultMaxDays bounds every day walk, about five years.
const DefaultMaxDays = 1827

var (
	one  = decimal.NewFromInt(1)
	half = decimal.NewFromFloat(0.5)
)

// ExtensionInput holds everything one extension walk reads.
type ExtensionInput struct {
	EmployeeID  string
	JoiningDate calendar.Date
	BaseMonths  int
	Today       calendar.Date
	Mode        period.AccrualMode
	MaxDays     int

	Policy       schedule.WeeklyOffPolicy
	Holidays     holiday.Set
	Leaves       []leave.Request
	Records      []attendance.Record
	GraceMinutes int
	ShiftStart   schedule.ClockTime
	Location     *time.Location
}

type Extension struct {
	BaseEndDate   calendar.Date
	ExtensionDays decimal.Decimal
	WorkingDays   int
	// Truncated is set when the walk hit MaxDays.
	Truncated bool
}

// Days is the ceiling of the accumulated contribution.
func (e Extension) Days() int {
	return int(e.ExtensionDays.Ceil().IntPart())
}

// WalkEnd is the last date the walk visits.
func WalkEnd(in ExtensionInput, baseEnd calendar.Date) calendar.Date {
	if in.Mode == period.AccrualCapped {
		return calendar.Min(in.Today, baseEnd)
	}
	return in.Today
}

// Contribution is what one working day adds to the extension: a full day of
// leave or absence counts 1, a half-day leave or half-day arrival counts 0.5.
func Contribution(res attendance.Resolution) decimal.Decimal {
	switch res.Status {
	case attendance.StatusLeave:
		if res.IsHalfDay {
			return half
		}
		return one
	case attendance.StatusAbsent:
		if res.IsHalfDay {
			return half
		}
		return one
	case attendance.StatusHalfDay:
		return half
	default:
		return decimal.Zero
	}
}

// Calculate walks from the joining date to the walk end and sums the
// contributions of working days. Holidays and weekly-off days are skipped.
// It is pure; calling it twice with the same input gives the same result.
func Calculate(in ExtensionInput) Extension {
	maxDays := in.MaxDays
	if maxDays <= 0 {
		maxDays = DefaultMaxDays
	}

	ext := Extension{
		BaseEndDate:   in.JoiningDate.AddMonths(in.BaseMonths),
		ExtensionDays: decimal.Zero,
	}

	records := make(map[calendar.Date]*attendance.Record, len(in.Records))
	for i := range in.Records {
		records[in.Records[i].Date] = &in.Records[i]
	}

	end := WalkEnd(in, ext.BaseEndDate)
	steps := 0
	for d := in.JoiningDate; !d.After(end); d = d.AddDays(1) {
		if steps >= maxDays {
			ext.Truncated = true
			slog.Warn("extension walk hit the iteration limit",
				"employee_id", in.EmployeeID,
				"joining_date", in.JoiningDate,
				"stopped_at", d,
				"max_days", maxDays,
			)
			break
		}
		steps++

		if !attendanceService.ClassifyDay(d, in.Policy, in.Holidays).Working() {
			continue
		}
		ext.WorkingDays++

		res := attendanceService.Resolve(attendanceService.Input{
			EmployeeID:   in.EmployeeID,
			Date:         d,
			Holidays:     in.Holidays,
			Leaves:       in.Leaves,
			Record:       records[d],
			Policy:       in.Policy,
			GraceMinutes: in.GraceMinutes,
			ShiftStart:   in.ShiftStart,
			Location:     in.Location,
			Today:        in.Today,
		})
		ext.ExtensionDays = ext.ExtensionDays.Add(Contribution(res))
	}

	return ext
}

// AddCalendarDays moves d forward by n calendar days.
func AddCalendarDays(d calendar.Date, n int) calendar.Date {
	return d.AddDays(n)
}

// AddWorkingDays moves forward from start one day at a time until n working
// days have been consumed. Holidays and weekly-off days are skipped. It
// returns period.ErrIterationLimit if that takes more than maxDays steps.
func AddWorkingDays(start calendar.Date, n int, policy schedule.WeeklyOffPolicy, holidays holiday.Set, maxDays int) (calendar.Date, error) {
	if maxDays <= 0 {
		maxDays = DefaultMaxDays
	}

	d := start
	for consumed, steps := 0, 0; consumed < n; {
		if steps >= maxDays {
			return start, period.ErrIterationLimit
		}
		d = d.AddDays(1)
		steps++
		if attendanceService.ClassifyDay(d, policy, holidays).Working() {
			consumed++
		}
	}
	return d, nil
}

// DaysLeft counts calendar days from today to end, never negative.
func DaysLeft(today, end calendar.Date) int {
	if n := today.DaysUntil(end); n > 0 {
		return n
	}
	return 0
}
