package holiday

import (
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/pkg/calendar"
)

// Holiday is a company holiday. Tentative holidays are announced but not yet
// confirmed and are ignored by every attendance calculation.
type Holiday struct {
	ID          string
	Date        calendar.Date
	Name        string
	IsTentative bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Set indexes confirmed holidays by date.
type Set map[calendar.Date]Holiday

// NewSet drops tentative holidays. When two confirmed holidays share a date
// the first one in the input wins.
func NewSet(holidays []Holiday) Set {
	s := make(Set, len(holidays))
	for _, h := range holidays {
		if h.IsTentative {
			continue
		}
		if _, exists := s[h.Date]; !exists {
			s[h.Date] = h
		}
	}
	return s
}

func (s Set) Lookup(d calendar.Date) (Holiday, bool) {
	h, ok := s[d]
	return h, ok
}
