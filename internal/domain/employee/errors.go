package employee

import "errors"

var (
	ErrEmployeeNotFound    = errors.New("employee not found")
	ErrInternshipUndefined = errors.New("internship duration is not configured")
)
