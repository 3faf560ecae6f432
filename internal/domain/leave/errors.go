package leave

import "errors"

var (
	ErrLeaveRequestNotFound         = errors.New("Leave request not found")
	ErrLeaveRequestAlreadyProcessed = errors.New("Leave request already processed")
	ErrOverlappingLeave             = errors.New("Leave dates overlap an approved leave request")
	ErrEmptyLeaveDates              = errors.New("Leave request must cover at least one date")
	ErrInvalidTransition            = errors.New("Invalid leave request status transition")
)
