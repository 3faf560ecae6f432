package settings

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/settings"
	"github.com/cmlabs-hris/attendance-engine/internal/service/cache"
)

type ProviderImpl struct {
	settings.SettingsRepository
	cache        *cache.Service
	defaultGrace int
}

func NewProvider(repo settings.SettingsRepository, cacheService *cache.Service, defaultGrace int) settings.Provider {
	if defaultGrace < 0 {
		defaultGrace = settings.DefaultGraceMinutes
	}
	return &ProviderImpl{
		SettingsRepository: repo,
		cache:              cacheService,
		defaultGrace:       defaultGrace,
	}
}

// GraceMinutes implements settings.Provider.
func (p *ProviderImpl) GraceMinutes(ctx context.Context) (int, error) {
	return p.cache.Setting(ctx, settings.KeyGraceMinutes, func(ctx context.Context) (int, error) {
		v, found, err := p.SettingsRepository.GetInt(ctx, settings.KeyGraceMinutes)
		if err != nil {
			return 0, attendance.Persistence("get grace minutes", err)
		}
		if !found || v < 0 {
			slog.Debug("grace minutes not configured, using default", "default", p.defaultGrace)
			return p.defaultGrace, nil
		}
		return v, nil
	})
}

// SetGraceMinutes implements settings.Provider. A changed grace value can flip
// any cached status, so every engine cache is cleared.
func (p *ProviderImpl) SetGraceMinutes(ctx context.Context, minutes int) error {
	if minutes < 0 {
		return fmt.Errorf("%w: %w", attendance.ErrInvalidInput, settings.ErrInvalidGraceMinutes)
	}
	if err := p.SettingsRepository.SetInt(ctx, settings.KeyGraceMinutes, minutes); err != nil {
		return attendance.Persistence("set grace minutes", err)
	}
	p.Invalidate()
	slog.Info("grace minutes updated", "minutes", minutes)
	return nil
}

// Invalidate implements settings.Provider.
func (p *ProviderImpl) Invalidate() {
	p.cache.InvalidateAll()
}
