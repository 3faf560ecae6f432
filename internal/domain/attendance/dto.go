package attendance

import (
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/pkg/calendar"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/validator"
)

// ========================================
// PUNCH DTOs
// ========================================

type PunchKind string

const (
	PunchClockIn  PunchKind = "clock_in"
	PunchClockOut PunchKind = "clock_out"
)

type PunchRequest struct {
	EmployeeID string    `json:"employee_id" validate:"required"`
	Kind       PunchKind `json:"kind" validate:"required,oneof=clock_in clock_out"`
	At         time.Time `json:"at" validate:"required"`
}

func (r *PunchRequest) Validate() error {
	errs := validator.Struct(r)

	if !validator.IsEmpty(r.EmployeeID) && !validator.IsValidUUID(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{
			Field:   "employee_id",
			Message: "employee_id must be a valid UUID",
		})
	}

	return errs.OrNil()
}

// ========================================
// ADMIN OVERRIDE DTOs
// ========================================

type OverrideRequest struct {
	EmployeeID string        `json:"employee_id" validate:"required"`
	Date       calendar.Date `json:"date"`
	Status     Status        `json:"status" validate:"required"`
	ClockIn    *time.Time    `json:"clock_in,omitempty"`
	ClockOut   *time.Time    `json:"clock_out,omitempty"`
	Reason     string        `json:"reason" validate:"max=500"`
}

func (r *OverrideRequest) Validate() error {
	errs := validator.Struct(r)

	if r.Date.IsZero() {
		errs = append(errs, validator.ValidationError{
			Field:   "date",
			Message: "date is required",
		})
	}

	if r.Status != StatusPending && !r.Status.Storable() {
		errs = append(errs, validator.ValidationError{
			Field:   "status",
			Message: "status must be one of: on_time, late, half_day, absent, leave, holiday, weekly_off",
		})
	}

	if r.ClockOut != nil {
		if r.ClockIn == nil {
			errs = append(errs, validator.ValidationError{
				Field:   "clock_out",
				Message: "clock_out requires clock_in",
			})
		} else if !r.ClockOut.After(*r.ClockIn) {
			errs = append(errs, validator.ValidationError{
				Field:   "clock_out",
				Message: "clock_out must be after clock_in",
			})
		}
	}

	return errs.OrNil()
}
