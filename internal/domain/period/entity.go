package period

import (
	"errors"

	"github.com/shopspring/decimal"

	"github.com/cmlabs-hris/attendance-engine/internal/pkg/calendar"
)

// DefaultProbationMonths is the base probation length.
const DefaultProbationMonths = 3

var (
	ErrIterationLimit       = errors.New("working-day walk exceeded the iteration limit")
	ErrInvalidDurationMonth = errors.New("duration months must be positive")
)

// AccrualMode decides how far the absence walk runs.
type AccrualMode string

const (
	// AccrualRolling walks from joining date to today, so contributions keep
	// accruing past the base end date until the employee is promoted.
	AccrualRolling AccrualMode = "rolling"
	// AccrualCapped stops the walk at the base end date.
	AccrualCapped AccrualMode = "capped"
)

func (m AccrualMode) Valid() bool {
	return m == AccrualRolling || m == AccrualCapped
}

type ProbationExtension struct {
	EmployeeID    string          `json:"employee_id"`
	JoiningDate   calendar.Date   `json:"joining_date"`
	BaseEndDate   calendar.Date   `json:"base_end_date"`
	ExtensionDays decimal.Decimal `json:"extension_days"`
	FinalEndDate  calendar.Date   `json:"final_end_date"`
	DaysLeft      int             `json:"days_left"`
	WorkingDays   int             `json:"working_days"`
	Truncated     bool            `json:"truncated,omitempty"`
}

type InternshipExtension struct {
	EmployeeID          string          `json:"employee_id"`
	JoiningDate         calendar.Date   `json:"joining_date"`
	DurationMonths      int             `json:"duration_months"`
	BaseEndDateCalendar calendar.Date   `json:"base_end_date_calendar"`
	ExtensionDays       decimal.Decimal `json:"extension_days"`
	FinalEndDate        calendar.Date   `json:"final_end_date"`
	DaysLeft            int             `json:"days_left"`
	WorkingDays         int             `json:"working_days"`
	Truncated           bool            `json:"truncated,omitempty"`
}
