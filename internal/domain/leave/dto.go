package leave

import (
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/calendar"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/validator"
)

type CreateLeaveRequestRequest struct {
	EmployeeID string          `json:"employee_id" validate:"required"`
	Type       Type            `json:"leave_type" validate:"required,oneof=full_day half_day_first half_day_second"`
	Dates      []calendar.Date `json:"leave_dates" validate:"required,min=1"`
	Reason     *string         `json:"reason,omitempty" validate:"omitempty,max=500"`
}

func (r *CreateLeaveRequestRequest) Validate() error {
	errs := validator.Struct(r)

	if !validator.IsEmpty(r.EmployeeID) && !validator.IsValidUUID(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{
			Field:   "employee_id",
			Message: "employee_id must be a valid UUID",
		})
	}
	errs = append(errs, validateDates(r.Dates)...)

	return errs.OrNil()
}

type UpdateLeaveDatesRequest struct {
	ID    string          `json:"-"`
	Dates []calendar.Date `json:"leave_dates" validate:"required,min=1"`
}

func (r *UpdateLeaveDatesRequest) Validate() error {
	errs := validator.Struct(r)

	if validator.IsEmpty(r.ID) {
		errs = append(errs, validator.ValidationError{
			Field:   "id",
			Message: "id is required",
		})
	}
	errs = append(errs, validateDates(r.Dates)...)

	return errs.OrNil()
}

func validateDates(dates []calendar.Date) validator.ValidationErrors {
	var errs validator.ValidationErrors
	for _, d := range dates {
		if d.IsZero() {
			errs = append(errs, validator.ValidationError{
				Field:   "leave_dates",
				Message: "leave_dates must not contain empty dates",
			})
			break
		}
	}
	return errs
}

// TransitionResponse is returned by every status or date change.
type TransitionResponse struct {
	ID         string                            `json:"id"`
	EmployeeID string                            `json:"employee_id"`
	Status     RequestStatus                     `json:"status"`
	Type       Type                              `json:"leave_type"`
	Dates      []calendar.Date                   `json:"leave_dates"`
	Updates    []attendance.AffectedRecordUpdate `json:"affected_records"`
}

func NewTransitionResponse(req Request, updates []attendance.AffectedRecordUpdate) TransitionResponse {
	if updates == nil {
		updates = []attendance.AffectedRecordUpdate{}
	}
	return TransitionResponse{
		ID:         req.ID,
		EmployeeID: req.EmployeeID,
		Status:     req.Status,
		Type:       req.Type,
		Dates:      req.Dates,
		Updates:    updates,
	}
}

type RequestResponse struct {
	ID         string          `json:"id"`
	EmployeeID string          `json:"employee_id"`
	Status     RequestStatus   `json:"status"`
	Type       Type            `json:"leave_type"`
	Dates      []calendar.Date `json:"leave_dates"`
	Reason     *string         `json:"reason,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

func NewRequestResponse(req Request) RequestResponse {
	return RequestResponse{
		ID:         req.ID,
		EmployeeID: req.EmployeeID,
		Status:     req.Status,
		Type:       req.Type,
		Dates:      req.Dates,
		Reason:     req.Reason,
		CreatedAt:  req.CreatedAt,
		UpdatedAt:  req.UpdatedAt,
	}
}
