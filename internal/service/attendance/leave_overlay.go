package attendance

import (
	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/leave"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/calendar"
)

type CoverageKind int

const (
	NoLeave CoverageKind = iota
	FullDayLeave
	HalfDayLeave
)

type LeaveCoverage struct {
	Kind      CoverageKind
	Half      attendance.LeaveHalf
	RequestID string
}

func (c LeaveCoverage) Covered() bool {
	return c.Kind != NoLeave
}

// OverlayLeave reports how approved leave covers date. Requests that are not
// approved are ignored. Approved requests should never overlap; when they do
// the earliest created request wins, ties broken by the smaller ID.
func OverlayLeave(date calendar.Date, requests []leave.Request) LeaveCoverage {
	var winner *leave.Request
	for i := range requests {
		req := &requests[i]
		if !req.IsApproved() || !req.Covers(date) {
			continue
		}
		if winner == nil || earlier(req, winner) {
			winner = req
		}
	}

	if winner == nil {
		return LeaveCoverage{Kind: NoLeave}
	}
	if winner.Type.IsHalfDay() {
		return LeaveCoverage{Kind: HalfDayLeave, Half: winner.Type.Half(), RequestID: winner.ID}
	}
	return LeaveCoverage{Kind: FullDayLeave, RequestID: winner.ID}
}

func earlier(a, b *leave.Request) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.ID < b.ID
}
