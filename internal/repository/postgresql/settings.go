package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/settings"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type settingsRepository struct {
	db *database.DB
}

// GetInt implements settings.SettingsRepository.
func (s *settingsRepository) GetInt(ctx context.Context, key string) (int, bool, error) {
	q := GetQuerier(ctx, s.db)

	var value int
	err := q.QueryRow(ctx, `SELECT int_value FROM settings WHERE key = $1`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("failed to get setting %s: %w", key, err)
	}
	return value, true, nil
}

// SetInt implements settings.SettingsRepository.
func (s *settingsRepository) SetInt(ctx context.Context, key string, value int) error {
	q := GetQuerier(ctx, s.db)

	query := `
		INSERT INTO settings (key, int_value) VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET int_value = EXCLUDED.int_value, updated_at = NOW()
	`
	if _, err := q.Exec(ctx, query, key, value); err != nil {
		return fmt.Errorf("failed to set setting %s: %w", key, err)
	}
	return nil
}

func NewSettingsRepository(db *database.DB) settings.SettingsRepository {
	return &settingsRepository{db: db}
}
