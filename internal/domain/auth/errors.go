package auth

import "errors"

var (
	ErrInvalidToken            = errors.New("invalid or expired token")
	ErrAdminPrivilegeRequired  = errors.New("admin privilege required")
	ErrEmployeeAccessForbidden = errors.New("access to another employee's data is forbidden")
)
