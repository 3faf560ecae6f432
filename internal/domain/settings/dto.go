package settings

import "github.com/cmlabs-hris/attendance-engine/internal/pkg/validator"

type UpdateGraceRequest struct {
	GraceMinutes *int `json:"grace_minutes" validate:"required,gte=0"`
}

func (r *UpdateGraceRequest) Validate() error {
	return validator.Struct(r).OrNil()
}
