package settings

import (
	"context"
	"errors"
)

// Keys of the global settings table.
const (
	KeyGraceMinutes = "attendance.grace_minutes"
)

// DefaultGraceMinutes applies when no grace setting has been stored.
const DefaultGraceMinutes = 30

var ErrInvalidGraceMinutes = errors.New("grace minutes must be zero or positive")

// SettingsRepository stores integer settings by key.
type SettingsRepository interface {
	// GetInt returns found=false when the key has never been written
	GetInt(ctx context.Context, key string) (value int, found bool, err error)
	SetInt(ctx context.Context, key string, value int) error
}

// Provider is the read-through view of settings used by the engine.
type Provider interface {
	GraceMinutes(ctx context.Context) (int, error)
	SetGraceMinutes(ctx context.Context, minutes int) error
	Invalidate()
}
