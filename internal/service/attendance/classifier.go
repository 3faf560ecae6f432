package attendance

import (
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/holiday"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/schedule"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/calendar"
)

type DayKind int

const (
	WorkingDay DayKind = iota
	HolidayDay
	WeeklyOffDay
)

func (k DayKind) String() string {
	switch k {
	case HolidayDay:
		return "holiday"
	case WeeklyOffDay:
		return "weekly_off"
	default:
		return "working_day"
	}
}

type DayClassification struct {
	Kind    DayKind
	Holiday *holiday.Holiday
}

// Working reports whether the day counts towards attendance.
func (c DayClassification) Working() bool {
	return c.Kind == WorkingDay
}

// ClassifyDay decides whether date is a holiday, a weekly-off day or a
// working day. A confirmed holiday beats the weekly-off policy. Sundays are
// always off; Saturdays follow the policy using week-of-month ceil(day/7).
func ClassifyDay(date calendar.Date, policy schedule.WeeklyOffPolicy, holidays holiday.Set) DayClassification {
	if h, ok := holidays.Lookup(date); ok && !h.IsTentative {
		return DayClassification{Kind: HolidayDay, Holiday: &h}
	}

	switch date.Weekday() {
	case time.Sunday:
		return DayClassification{Kind: WeeklyOffDay}
	case time.Saturday:
		if policy.SaturdayOff(date.WeekOfMonth()) {
			return DayClassification{Kind: WeeklyOffDay}
		}
	}

	return DayClassification{Kind: WorkingDay}
}
