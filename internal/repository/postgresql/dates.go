package postgresql

import (
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/cmlabs-hris/attendance-engine/internal/pkg/calendar"
)

// DATE columns travel as time.Time at UTC midnight.
func toDate(t time.Time) calendar.Date {
	return calendar.FromTime(t, time.UTC)
}

func toDates(ts []time.Time) []calendar.Date {
	out := make([]calendar.Date, 0, len(ts))
	for _, t := range ts {
		out = append(out, toDate(t))
	}
	return out
}

func dateArgs(dates []calendar.Date) []time.Time {
	out := make([]time.Time, 0, len(dates))
	for _, d := range dates {
		out = append(out, d.Time())
	}
	return out
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
