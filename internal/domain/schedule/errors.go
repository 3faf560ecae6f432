package schedule

import "errors"

var (
	ErrInvalidWeeklyOffPolicy = errors.New("invalid weekly-off policy")
	ErrInvalidShiftStart      = errors.New("invalid shift start, expected HH:MM")
)
