package schedule

import (
	"fmt"
	"strings"
	"time"
)

// WeeklyOffPolicy decides which Saturdays are non-working. Sundays are always
// off regardless of policy.
type WeeklyOffPolicy string

const (
	AllSaturdaysWorking WeeklyOffPolicy = "all_saturdays_working"
	AllSaturdaysOff     WeeklyOffPolicy = "all_saturdays_off"
	Week1And3Off        WeeklyOffPolicy = "week_1_3_off"
	Week2And4Off        WeeklyOffPolicy = "week_2_4_off"
)

// DefaultWeeklyOffPolicy applies to employees with no policy configured.
const DefaultWeeklyOffPolicy = AllSaturdaysWorking

var WeeklyOffPolicyValues = []string{
	string(AllSaturdaysWorking),
	string(AllSaturdaysOff),
	string(Week1And3Off),
	string(Week2And4Off),
}

// policyLabels accepts the display labels used by the admin UI and older
// data imports.
var policyLabels = map[string]WeeklyOffPolicy{
	"all saturdays working": AllSaturdaysWorking,
	"all saturdays off":     AllSaturdaysOff,
	"week 1 & 3 off":        Week1And3Off,
	"week 2 & 4 off":        Week2And4Off,
}

func (p WeeklyOffPolicy) Valid() bool {
	switch p {
	case AllSaturdaysWorking, AllSaturdaysOff, Week1And3Off, Week2And4Off:
		return true
	}
	return false
}

// ParseWeeklyOffPolicy accepts either the stored value or the display label.
func ParseWeeklyOffPolicy(s string) (WeeklyOffPolicy, error) {
	if p := WeeklyOffPolicy(strings.TrimSpace(s)); p.Valid() {
		return p, nil
	}
	if p, ok := policyLabels[strings.ToLower(strings.TrimSpace(s))]; ok {
		return p, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidWeeklyOffPolicy, s)
}

// OrDefault returns the policy, or DefaultWeeklyOffPolicy when unset.
func (p *WeeklyOffPolicy) OrDefault() WeeklyOffPolicy {
	if p == nil || !p.Valid() {
		return DefaultWeeklyOffPolicy
	}
	return *p
}

// SaturdayOff reports whether the Saturday in the given week of the month
// (1-based, ceil(day/7)) is a weekly-off day.
func (p WeeklyOffPolicy) SaturdayOff(weekOfMonth int) bool {
	switch p {
	case AllSaturdaysOff:
		return true
	case Week1And3Off:
		return weekOfMonth == 1 || weekOfMonth == 3
	case Week2And4Off:
		return weekOfMonth == 2 || weekOfMonth == 4
	default:
		return false
	}
}

// ClockTime is a wall-clock time of day, used for the nominal shift start.
type ClockTime struct {
	Hour   int
	Minute int
}

func ParseClockTime(s string) (ClockTime, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return ClockTime{}, fmt.Errorf("%w: %q", ErrInvalidShiftStart, s)
	}
	return ClockTime{Hour: t.Hour(), Minute: t.Minute()}, nil
}

func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}
