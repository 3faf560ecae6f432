package attendance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/holiday"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/leave"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/schedule"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/calendar"
)

var (
	christmas = calendar.MustParse("2025-12-25")
	friday    = calendar.MustParse("2025-12-26")
	saturday  = calendar.MustParse("2025-12-27")
	sunday    = calendar.MustParse("2025-12-28")
	monday    = calendar.MustParse("2025-12-29")
)

func holidays(hs ...holiday.Holiday) holiday.Set {
	return holiday.NewSet(hs)
}

func TestClassifyDay(t *testing.T) {
	hs := holidays(
		holiday.Holiday{Date: christmas, Name: "Christmas"},
		holiday.Holiday{Date: sunday, Name: "Sunday holiday"},
		holiday.Holiday{Date: friday, Name: "Maybe", IsTentative: true},
	)

	tests := []struct {
		name   string
		date   calendar.Date
		policy schedule.WeeklyOffPolicy
		want   DayKind
	}{
		{"holiday", christmas, schedule.AllSaturdaysWorking, HolidayDay},
		{"holiday beats sunday", sunday, schedule.AllSaturdaysWorking, HolidayDay},
		{"tentative holiday ignored", friday, schedule.AllSaturdaysWorking, WorkingDay},
		{"plain sunday", calendar.MustParse("2025-12-21"), schedule.AllSaturdaysOff, WeeklyOffDay},
		{"saturday working", saturday, schedule.AllSaturdaysWorking, WorkingDay},
		{"saturday off", saturday, schedule.AllSaturdaysOff, WeeklyOffDay},
		{"monday", monday, schedule.AllSaturdaysOff, WorkingDay},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyDay(tt.date, tt.policy, hs)
			assert.Equal(t, tt.want, got.Kind)
			if tt.want == HolidayDay {
				assert.NotNil(t, got.Holiday)
			}
		})
	}
}

func TestClassifyDay_AlternateSaturdays(t *testing.T) {
	// November 2025 has five Saturdays.
	saturdays := []string{"2025-11-01", "2025-11-08", "2025-11-15", "2025-11-22", "2025-11-29"}

	week13 := []DayKind{WeeklyOffDay, WorkingDay, WeeklyOffDay, WorkingDay, WorkingDay}
	week24 := []DayKind{WorkingDay, WeeklyOffDay, WorkingDay, WeeklyOffDay, WorkingDay}

	for i, s := range saturdays {
		d := calendar.MustParse(s)
		assert.Equal(t, time.Saturday, d.Weekday(), s)
		assert.Equal(t, week13[i], ClassifyDay(d, schedule.Week1And3Off, nil).Kind, "week 1 & 3 off: %s", s)
		assert.Equal(t, week24[i], ClassifyDay(d, schedule.Week2And4Off, nil).Kind, "week 2 & 4 off: %s", s)
	}
}

func TestClassifyArrival_GraceBoundary(t *testing.T) {
	start := time.Date(2025, 12, 26, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		in     time.Time
		grace  int
		late   int
		status attendance.Status
	}{
		{"early", start.Add(-10 * time.Minute), 30, 0, attendance.StatusOnTime},
		{"exactly on time", start, 30, 0, attendance.StatusOnTime},
		{"at grace", start.Add(30 * time.Minute), 30, 30, attendance.StatusOnTime},
		{"seconds past grace floor to grace", start.Add(30*time.Minute + 59*time.Second), 30, 30, attendance.StatusOnTime},
		{"grace plus one", start.Add(31 * time.Minute), 30, 31, attendance.StatusHalfDay},
		{"zero grace", start.Add(time.Minute), 0, 1, attendance.StatusHalfDay},
		{"negative grace treated as zero", start, -5, 0, attendance.StatusOnTime},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyArrival(tt.in, start, tt.grace)
			assert.Equal(t, tt.late, got.LateMinutes)
			assert.Equal(t, tt.status, got.Status)
			assert.NotEqual(t, attendance.StatusLate, got.Status)
		})
	}
}

func TestOverlayLeave(t *testing.T) {
	base := time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC)
	full := leave.Request{ID: "b", Status: leave.StatusApproved, Type: leave.TypeFullDay, Dates: []calendar.Date{friday}, CreatedAt: base.Add(time.Hour)}
	half := leave.Request{ID: "c", Status: leave.StatusApproved, Type: leave.TypeHalfDaySecond, Dates: []calendar.Date{friday}, CreatedAt: base}
	tied := leave.Request{ID: "a", Status: leave.StatusApproved, Type: leave.TypeFullDay, Dates: []calendar.Date{friday}, CreatedAt: base}
	pending := leave.Request{ID: "0", Status: leave.StatusPending, Type: leave.TypeFullDay, Dates: []calendar.Date{friday}, CreatedAt: base.Add(-time.Hour)}

	assert.Equal(t, LeaveCoverage{Kind: NoLeave}, OverlayLeave(friday, []leave.Request{pending}))
	assert.Equal(t, LeaveCoverage{Kind: NoLeave}, OverlayLeave(monday, []leave.Request{full}))

	got := OverlayLeave(friday, []leave.Request{full, half})
	assert.Equal(t, HalfDayLeave, got.Kind, "earliest created wins")
	assert.Equal(t, attendance.LeaveHalfSecond, got.Half)
	assert.Equal(t, "c", got.RequestID)

	got = OverlayLeave(friday, []leave.Request{full, half, tied, pending})
	assert.Equal(t, FullDayLeave, got.Kind, "equal timestamps fall back to the smaller ID")
	assert.Equal(t, "a", got.RequestID)
}

func baseInput(date calendar.Date) Input {
	return Input{
		EmployeeID:   "emp-1",
		Date:         date,
		Policy:       schedule.AllSaturdaysWorking,
		GraceMinutes: 30,
		ShiftStart:   schedule.ClockTime{Hour: 9},
		Location:     time.UTC,
		Today:        monday,
	}
}

func punch(date calendar.Date, hour, minute int) *attendance.Record {
	in := date.At(hour, minute, time.UTC)
	return &attendance.Record{EmployeeID: "emp-1", Date: date, ClockIn: &in}
}

func approved(id string, typ leave.Type, dates ...calendar.Date) leave.Request {
	return leave.Request{ID: id, EmployeeID: "emp-1", Status: leave.StatusApproved, Type: typ, Dates: dates}
}

func TestResolve_RuleOrder(t *testing.T) {
	hs := holidays(holiday.Holiday{Date: christmas, Name: "Christmas"})

	tests := []struct {
		name   string
		mutate func(in *Input)
		status attendance.Status
		rule   string
	}{
		{
			name: "holiday beats punch",
			mutate: func(in *Input) {
				in.Date = christmas
				in.Holidays = hs
				in.Record = punch(christmas, 11, 0)
			},
			status: attendance.StatusHoliday,
			rule:   "holiday",
		},
		{
			name: "holiday beats leave",
			mutate: func(in *Input) {
				in.Date = christmas
				in.Holidays = hs
				in.Leaves = []leave.Request{approved("l1", leave.TypeFullDay, christmas)}
			},
			status: attendance.StatusHoliday,
			rule:   "holiday",
		},
		{
			name: "leave beats weekly off",
			mutate: func(in *Input) {
				in.Date = sunday
				in.Leaves = []leave.Request{approved("l1", leave.TypeFullDay, sunday)}
			},
			status: attendance.StatusLeave,
			rule:   "approved_leave",
		},
		{
			name: "weekly off beats punch",
			mutate: func(in *Input) {
				in.Date = sunday
				in.Record = punch(sunday, 12, 0)
			},
			status: attendance.StatusWeeklyOff,
			rule:   "weekly_off",
		},
		{
			name:   "punch on time",
			mutate: func(in *Input) { in.Record = punch(friday, 9, 30) },
			status: attendance.StatusOnTime,
			rule:   "punch",
		},
		{
			name:   "punch half day",
			mutate: func(in *Input) { in.Record = punch(friday, 9, 31) },
			status: attendance.StatusHalfDay,
			rule:   "punch",
		},
		{
			name:   "past working day without punch",
			mutate: func(in *Input) {},
			status: attendance.StatusAbsent,
			rule:   "absent",
		},
		{
			name:   "today without punch",
			mutate: func(in *Input) { in.Date = monday },
			status: attendance.StatusPending,
			rule:   "pending",
		},
		{
			name:   "future without punch",
			mutate: func(in *Input) { in.Date = monday.AddDays(1) },
			status: attendance.StatusPending,
			rule:   "pending",
		},
		{
			name: "admin override wins over holiday",
			mutate: func(in *Input) {
				in.Date = christmas
				in.Holidays = hs
				in.Record = &attendance.Record{EmployeeID: "emp-1", Date: christmas, Status: attendance.StatusAbsent, OverriddenByAdmin: true}
			},
			status: attendance.StatusAbsent,
			rule:   "admin_override",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := baseInput(friday)
			tt.mutate(&in)
			got := Resolve(in)
			assert.Equal(t, tt.status, got.Status)
			assert.Equal(t, tt.rule, got.Rule)
		})
	}
}

func TestResolve_LeaveKeepsPunchData(t *testing.T) {
	in := baseInput(friday)
	in.Record = punch(friday, 10, 0)
	in.Leaves = []leave.Request{approved("l1", leave.TypeHalfDayFirst, friday)}

	got := Resolve(in)
	assert.Equal(t, attendance.StatusLeave, got.Status)
	assert.Equal(t, 60, got.LateMinutes)
	assert.True(t, got.IsHalfDay)
	assert.True(t, got.Metadata.HasPunch)
	assert.Equal(t, "l1", got.Metadata.LeaveRequestID)
	assert.Equal(t, attendance.LeaveHalfFirst, got.Metadata.LeaveHalf)
}

func TestResolve_ShiftStartInEmployeeLocation(t *testing.T) {
	kolkata, err := time.LoadLocation("Asia/Kolkata")
	if err != nil {
		t.Skip("tzdata not available")
	}

	in := baseInput(friday)
	in.Location = kolkata
	// 09:20 local is 03:50 UTC.
	clockIn := time.Date(2025, 12, 26, 3, 50, 0, 0, time.UTC)
	in.Record = &attendance.Record{EmployeeID: "emp-1", Date: friday, ClockIn: &clockIn}

	got := Resolve(in)
	assert.Equal(t, attendance.StatusOnTime, got.Status)
	assert.Equal(t, 20, got.LateMinutes)
}

// Holiday, weekly-off and approved-leave days are never absent, whatever the
// punch data and whether the day is past or future.
func TestResolve_NeverAbsentOnProtectedDays(t *testing.T) {
	hs := holidays(holiday.Holiday{Date: christmas, Name: "Christmas"})
	policies := []schedule.WeeklyOffPolicy{schedule.AllSaturdaysWorking, schedule.AllSaturdaysOff, schedule.Week1And3Off, schedule.Week2And4Off}

	start := calendar.MustParse("2025-11-01")
	for d := start; !d.After(calendar.MustParse("2026-01-31")); d = d.AddDays(1) {
		for _, policy := range policies {
			absentOverride := &attendance.Record{EmployeeID: "emp-1", Date: d, Status: attendance.StatusAbsent, OverriddenByAdmin: true}
			for _, rec := range []*attendance.Record{nil, punch(d, 13, 0), absentOverride} {
				for _, withLeave := range []bool{false, true} {
					in := baseInput(d)
					in.Holidays = hs
					in.Policy = policy
					in.Record = rec
					in.Today = calendar.MustParse("2026-03-01")
					if withLeave {
						in.Leaves = []leave.Request{approved("l1", leave.TypeFullDay, d)}
					}

					day := ClassifyDay(d, policy, hs)
					got := Resolve(in)
					if day.Kind != WorkingDay || withLeave {
						assert.NotEqual(t, attendance.StatusAbsent, got.Status, "%s %s leave=%v", d, policy, withLeave)
					}
					if rec != nil && rec.HasPunch() {
						assert.NotEqual(t, attendance.StatusAbsent, got.Status, "%s with punch", d)
					}
				}
			}
		}
	}
}

func TestResolve_AbsentOverrideYieldsOnExcusedDays(t *testing.T) {
	hs := holidays(holiday.Holiday{Date: christmas, Name: "Christmas"})
	override := func(d calendar.Date, status attendance.Status) *attendance.Record {
		return &attendance.Record{EmployeeID: "emp-1", Date: d, Status: status, OverriddenByAdmin: true}
	}

	in := baseInput(christmas)
	in.Holidays = hs
	in.Record = override(christmas, attendance.StatusAbsent)
	got := Resolve(in)
	assert.Equal(t, attendance.StatusHoliday, got.Status)
	assert.Equal(t, "holiday", got.Rule)
	assert.False(t, got.Metadata.AdminOverride)

	in = baseInput(friday)
	in.Record = override(friday, attendance.StatusAbsent)
	in.Leaves = []leave.Request{approved("l1", leave.TypeFullDay, friday)}
	got = Resolve(in)
	assert.Equal(t, attendance.StatusLeave, got.Status)

	// Other overrides still win on excused days.
	in = baseInput(christmas)
	in.Holidays = hs
	in.Record = override(christmas, attendance.StatusOnTime)
	got = Resolve(in)
	assert.Equal(t, attendance.StatusOnTime, got.Status)
	assert.Equal(t, "admin_override", got.Rule)

	in = baseInput(friday)
	in.Record = override(friday, attendance.StatusAbsent)
	got = Resolve(in)
	assert.Equal(t, attendance.StatusAbsent, got.Status)
	assert.Equal(t, "admin_override", got.Rule)
}

func TestResolve_Idempotent(t *testing.T) {
	in := baseInput(friday)
	in.Record = punch(friday, 9, 45)
	in.Leaves = []leave.Request{approved("l1", leave.TypeFullDay, monday)}

	first := Resolve(in)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, Resolve(in))
	}
}
