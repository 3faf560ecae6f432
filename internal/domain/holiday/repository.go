package holiday

import (
	"context"

	"github.com/cmlabs-hris/attendance-engine/internal/pkg/calendar"
)

type HolidayRepository interface {
	// ListBetween returns all holidays, tentative included, with from <= date <= to
	ListBetween(ctx context.Context, from, to calendar.Date) ([]Holiday, error)

	Create(ctx context.Context, h Holiday) (Holiday, error)
}
