package attendance

import (
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/pkg/calendar"
)

// Record is the stored attendance row, unique per (EmployeeID, Date).
type Record struct {
	ID         string
	EmployeeID string
	Date       calendar.Date

	// Absolute instants, stored in UTC
	ClockIn  *time.Time
	ClockOut *time.Time

	Status      Status
	LateMinutes int
	IsHalfDay   bool

	// OverriddenByAdmin freezes the record against automatic recompute.
	OverriddenByAdmin bool
	LeaveRequestID    *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (r Record) HasPunch() bool {
	return r.ClockIn != nil
}

// LinkedTo reports whether the record is linked to the given leave request.
func (r Record) LinkedTo(leaveRequestID string) bool {
	return r.LeaveRequestID != nil && *r.LeaveRequestID == leaveRequestID
}

// Resolution is the canonical status of one employee on one day.
type Resolution struct {
	EmployeeID  string        `json:"employee_id"`
	Date        calendar.Date `json:"date"`
	Status      Status        `json:"status"`
	LateMinutes int           `json:"late_minutes"`
	IsHalfDay   bool          `json:"is_half_day"`
	Rule        string        `json:"rule"`
	Metadata    Metadata      `json:"metadata"`
}

type Metadata struct {
	HolidayName     string    `json:"holiday_name,omitempty"`
	LeaveRequestID  string    `json:"leave_request_id,omitempty"`
	LeaveHalf       LeaveHalf `json:"leave_half,omitempty"`
	HasPunch        bool      `json:"has_punch"`
	AdminOverride   bool      `json:"admin_override"`
	PolicyDefaulted bool      `json:"policy_defaulted,omitempty"`
}

// UpdateAction describes what a sync did to one record.
type UpdateAction string

const (
	ActionCreated              UpdateAction = "created"
	ActionUpdated              UpdateAction = "updated"
	ActionReverted             UpdateAction = "reverted"
	ActionUnchanged            UpdateAction = "unchanged"
	ActionSkippedAdminOverride UpdateAction = "skipped_admin_override"
)

// AffectedRecordUpdate reports one record touched (or deliberately left
// alone) by a leave transition.
type AffectedRecordUpdate struct {
	EmployeeID     string        `json:"employee_id"`
	Date           calendar.Date `json:"date"`
	Action         UpdateAction  `json:"action"`
	PreviousStatus Status        `json:"previous_status"`
	NewStatus      Status        `json:"new_status"`
	LeaveRequestID *string       `json:"leave_request_id,omitempty"`
}
