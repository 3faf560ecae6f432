package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/holiday"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/calendar"
)

type holidayRepository struct {
	store *Store
}

func NewHolidayRepository(store *Store) holiday.HolidayRepository {
	return &holidayRepository{store: store}
}

// ListBetween implements holiday.HolidayRepository.
func (r *holidayRepository) ListBetween(ctx context.Context, from, to calendar.Date) ([]holiday.Holiday, error) {
	var out []holiday.Holiday
	err := r.store.read(ctx, func(d *state) error {
		for _, h := range d.holidays {
			if !h.Date.Before(from) && !h.Date.After(to) {
				out = append(out, h)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, err
}

// Create implements holiday.HolidayRepository.
func (r *holidayRepository) Create(ctx context.Context, h holiday.Holiday) (holiday.Holiday, error) {
	err := r.store.write(ctx, "holiday.create", func(d *state) error {
		if h.ID == "" {
			h.ID = uuid.New().String()
		}
		now := r.store.now()
		h.CreatedAt = now
		h.UpdatedAt = now
		d.holidays[h.ID] = h
		return nil
	})
	if err != nil {
		return holiday.Holiday{}, err
	}
	return h, nil
}
