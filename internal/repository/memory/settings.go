package memory

import (
	"context"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/settings"
)

type settingsRepository struct {
	store *Store
}

func NewSettingsRepository(store *Store) settings.SettingsRepository {
	return &settingsRepository{store: store}
}

// GetInt implements settings.SettingsRepository.
func (r *settingsRepository) GetInt(ctx context.Context, key string) (int, bool, error) {
	var (
		value int
		found bool
	)
	err := r.store.read(ctx, func(d *state) error {
		value, found = d.settings[key]
		return nil
	})
	return value, found, err
}

// SetInt implements settings.SettingsRepository.
func (r *settingsRepository) SetInt(ctx context.Context, key string, value int) error {
	return r.store.write(ctx, "settings.set", func(d *state) error {
		d.settings[key] = value
		return nil
	})
}
