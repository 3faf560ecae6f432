package employee

import (
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/schedule"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/calendar"
)

// Employee carries only what the attendance engine reads. Profile data is
// owned by the employee CRUD service.
type Employee struct {
	ID             string
	FullName       string
	JoiningDate    calendar.Date
	EmploymentType EmploymentType
	IsActive       bool

	// Optional; nil falls back to engine defaults.
	WeeklyOffPolicy  *schedule.WeeklyOffPolicy
	ShiftStart       *string // "HH:MM" local time
	Timezone         *string // IANA name
	InternshipMonths *int

	CreatedAt time.Time
	UpdatedAt time.Time
}

type EmploymentType string

const (
	EmploymentTypePermanent  EmploymentType = "permanent"
	EmploymentTypeProbation  EmploymentType = "probation"
	EmploymentTypeInternship EmploymentType = "internship"
)

// Policy returns the configured weekly-off policy and whether it was set.
func (e Employee) Policy() (schedule.WeeklyOffPolicy, bool) {
	if e.WeeklyOffPolicy == nil || !e.WeeklyOffPolicy.Valid() {
		return schedule.DefaultWeeklyOffPolicy, false
	}
	return *e.WeeklyOffPolicy, true
}
