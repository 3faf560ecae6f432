package attendance

import (
	"errors"
	"fmt"
)

// Attendance domain errors
var (
	ErrInvalidInput        = errors.New("invalid input")
	ErrAttendanceNotFound  = errors.New("attendance record not found")
	ErrNotOverridden       = errors.New("attendance record is not admin-overridden")
	ErrAlreadyClockedIn    = errors.New("already clocked in for this day")
	ErrNotClockedIn        = errors.New("cannot clock out before clocking in")
	ErrAlreadyClockedOut   = errors.New("already clocked out for this day")
	ErrClockOutBeforeIn    = errors.New("clock-out must be after clock-in")
	ErrRecordAlreadyExists = errors.New("attendance record already exists for this day")

	ErrAbsentNotAllowed = fmt.Errorf("%w: absent cannot be recorded on a non-working or leave day", ErrInvalidInput)

	// ErrPersistence matches every PersistenceError via errors.Is.
	ErrPersistence = errors.New("persistence failure")
)

// PersistenceError wraps a failed store read or write. It is always
// propagated, never downgraded to a partial success.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func (e *PersistenceError) Is(target error) bool {
	return target == ErrPersistence
}

// Persistence wraps err as a PersistenceError unless it already is one.
func Persistence(op string, err error) error {
	if err == nil {
		return nil
	}
	var pe *PersistenceError
	if errors.As(err, &pe) {
		return err
	}
	return &PersistenceError{Op: op, Err: err}
}
