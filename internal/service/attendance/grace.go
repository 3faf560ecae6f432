package attendance

import (
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
)

type Arrival struct {
	LateMinutes int
	Status      attendance.Status
}

// ClassifyArrival compares clockIn with the nominal shift start. Arrivals up
// to grace minutes late are on time, anything later is a half day. It never
// returns StatusLate.
func ClassifyArrival(clockIn, shiftStart time.Time, grace int) Arrival {
	if grace < 0 {
		grace = 0
	}

	late := 0
	if d := clockIn.Sub(shiftStart); d > 0 {
		late = int(d / time.Minute)
	}

	if late <= grace {
		return Arrival{LateMinutes: late, Status: attendance.StatusOnTime}
	}
	return Arrival{LateMinutes: late, Status: attendance.StatusHalfDay}
}
