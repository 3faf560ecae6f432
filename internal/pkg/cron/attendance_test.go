package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/calendar"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/clock"
	"github.com/cmlabs-hris/attendance-engine/internal/service/cache"
)

type reconcilerStub struct {
	attendance.AttendanceService
	dates []calendar.Date
	err   error
}

func (r *reconcilerStub) ReconcileDay(ctx context.Context, date calendar.Date) (attendance.ReconcileSummary, error) {
	r.dates = append(r.dates, date)
	return attendance.ReconcileSummary{Date: date, Employees: 2, Created: 1}, r.err
}

func TestReconcileYesterday_OncePerLocalDay(t *testing.T) {
	jakarta := time.FixedZone("WIB", 7*60*60)
	// 2025-12-29 18:30 UTC is already 2025-12-30 in Jakarta.
	fake := clock.NewFake(time.Date(2025, 12, 29, 18, 30, 0, 0, time.UTC))
	stub := &reconcilerStub{}
	jobs := NewAttendanceJobs(stub, fake, jakarta, time.Hour)

	ctx := context.Background()
	require.NoError(t, jobs.ReconcileYesterday(ctx))
	require.NoError(t, jobs.ReconcileYesterday(ctx))
	assert.Equal(t, []calendar.Date{calendar.MustParse("2025-12-29")}, stub.dates)

	fake.Advance(24 * time.Hour)
	require.NoError(t, jobs.ReconcileYesterday(ctx))
	assert.Equal(t, []calendar.Date{
		calendar.MustParse("2025-12-29"),
		calendar.MustParse("2025-12-30"),
	}, stub.dates)
}

func TestReconcileYesterday_RetriesAfterFailure(t *testing.T) {
	fake := clock.NewFake(time.Date(2025, 12, 29, 1, 0, 0, 0, time.UTC))
	boom := errors.New("connection reset")
	stub := &reconcilerStub{err: boom}
	jobs := NewAttendanceJobs(stub, fake, nil, time.Hour)

	ctx := context.Background()
	assert.ErrorIs(t, jobs.ReconcileYesterday(ctx), boom)

	stub.err = nil
	require.NoError(t, jobs.ReconcileYesterday(ctx))
	require.NoError(t, jobs.ReconcileYesterday(ctx))
	assert.Len(t, stub.dates, 2)
}

func TestAttendanceJobs_Register(t *testing.T) {
	s := NewScheduler(context.Background(), nil)
	NewAttendanceJobs(&reconcilerStub{}, nil, nil, 15*time.Minute).RegisterJobs(s)

	statuses := s.Statuses()
	require.Len(t, statuses, 1)
	assert.Equal(t, "reconcile_attendance", statuses[0].Name)
	assert.Equal(t, 15*time.Minute, statuses[0].Interval)
}

func TestScheduler_SweepRunsWhileReconcileIsManual(t *testing.T) {
	fake := clock.NewFake(time.Date(2025, 12, 29, 1, 0, 0, 0, time.UTC))
	cacheService := cache.NewCacheService(cache.Config{
		StatusTTL:   time.Minute,
		LeaveTTL:    time.Minute,
		SettingsTTL: time.Minute,
	}, fake)
	stub := &reconcilerStub{}

	s := NewScheduler(context.Background(), fake)
	NewCacheJobs(cacheService, time.Hour).RegisterJobs(s)
	NewAttendanceJobs(stub, fake, nil, 0).RegisterJobs(s)
	s.Start()

	require.Eventually(t, func() bool {
		for _, st := range s.Statuses() {
			if st.Name == "cache_sweep" && st.Runs > 0 {
				return true
			}
		}
		return false
	}, time.Second, 10*time.Millisecond)
	s.Stop()
	assert.Empty(t, stub.dates)

	require.NoError(t, s.RunNow(context.Background(), "reconcile_attendance"))
	assert.Equal(t, []calendar.Date{calendar.MustParse("2025-12-28")}, stub.dates)
}
