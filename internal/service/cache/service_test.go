package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/leave"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/calendar"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/clock"
)

var day = calendar.MustParse("2025-12-26")

func newTestService() (*Service, *clock.Fake) {
	fake := clock.NewFake(time.Date(2025, 12, 26, 9, 0, 0, 0, time.UTC))
	return NewCacheService(Config{
		StatusTTL:   time.Minute,
		LeaveTTL:    5 * time.Minute,
		SettingsTTL: 30 * time.Minute,
	}, fake), fake
}

func resolution(status attendance.Status) attendance.Resolution {
	return attendance.Resolution{EmployeeID: "emp-1", Date: day, Status: status}
}

func TestStatus_CachesUntilTTL(t *testing.T) {
	svc, fake := newTestService()
	ctx := context.Background()

	var calls int32
	load := func(context.Context) (attendance.Resolution, bool, error) {
		atomic.AddInt32(&calls, 1)
		return resolution(attendance.StatusOnTime), true, nil
	}

	for i := 0; i < 3; i++ {
		res, err := svc.Status(ctx, "emp-1", day, load)
		require.NoError(t, err)
		assert.Equal(t, attendance.StatusOnTime, res.Status)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	fake.Advance(time.Minute)
	_, err := svc.Status(ctx, "emp-1", day, load)
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestStatus_AdminOverrideNeverCached(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	calls := 0
	load := func(context.Context) (attendance.Resolution, bool, error) {
		calls++
		res := resolution(attendance.StatusAbsent)
		res.Metadata.AdminOverride = true
		return res, false, nil
	}

	_, err := svc.Status(ctx, "emp-1", day, load)
	require.NoError(t, err)
	_, err = svc.Status(ctx, "emp-1", day, load)
	require.NoError(t, err)

	assert.Equal(t, 2, calls)
	assert.Equal(t, 0, svc.Stats().Statuses)
}

func TestStatus_ErrorNotCached(t *testing.T) {
	svc, _ := newTestService()
	boom := errors.New("boom")

	_, err := svc.Status(context.Background(), "emp-1", day, func(context.Context) (attendance.Resolution, bool, error) {
		return attendance.Resolution{}, false, boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, svc.Stats().Statuses)
}

func TestInvalidateEmployee_NoStaleReadAfterInvalidation(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	started := make(chan struct{})
	release := make(chan struct{})

	// A slow load reads the old value, then the employee is written and
	// invalidated before the load finishes.
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _ = svc.Status(ctx, "emp-1", day, func(context.Context) (attendance.Resolution, bool, error) {
			close(started)
			<-release
			return resolution(attendance.StatusAbsent), true, nil
		})
	}()

	<-started
	svc.InvalidateEmployee("emp-1")
	close(release)
	wg.Wait()

	res, err := svc.Status(ctx, "emp-1", day, func(context.Context) (attendance.Resolution, bool, error) {
		return resolution(attendance.StatusLeave), true, nil
	})
	require.NoError(t, err)
	assert.Equal(t, attendance.StatusLeave, res.Status)
}

func TestInvalidateEmployee_OnlyThatEmployee(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	for _, id := range []string{"emp-1", "emp-2"} {
		_, err := svc.Status(ctx, id, day, func(context.Context) (attendance.Resolution, bool, error) {
			return attendance.Resolution{EmployeeID: id, Date: day, Status: attendance.StatusOnTime}, true, nil
		})
		require.NoError(t, err)
		_, err = svc.Leaves(ctx, id, day, day, func(context.Context) ([]leave.Request, error) {
			return nil, nil
		})
		require.NoError(t, err)
	}
	require.Equal(t, Stats{Statuses: 2, Leaves: 2}, svc.Stats())

	svc.InvalidateEmployee("emp-1")
	assert.Equal(t, Stats{Statuses: 1, Leaves: 1}, svc.Stats())
}

func TestInvalidateAll_ClearsSettings(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	value := 30
	load := func(context.Context) (int, error) { return value, nil }

	got, err := svc.Setting(ctx, "attendance.grace_minutes", load)
	require.NoError(t, err)
	assert.Equal(t, 30, got)

	value = 45
	got, err = svc.Setting(ctx, "attendance.grace_minutes", load)
	require.NoError(t, err)
	assert.Equal(t, 30, got, "served from cache")

	svc.InvalidateAll()
	got, err = svc.Setting(ctx, "attendance.grace_minutes", load)
	require.NoError(t, err)
	assert.Equal(t, 45, got)
}

func TestStatus_ConcurrentLoadsCollapse(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	var calls int32
	gate := make(chan struct{})
	load := func(context.Context) (attendance.Resolution, bool, error) {
		atomic.AddInt32(&calls, 1)
		<-gate
		return resolution(attendance.StatusOnTime), true, nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := svc.Status(ctx, "emp-1", day, load)
			assert.NoError(t, err)
			assert.Equal(t, attendance.StatusOnTime, res.Status)
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(gate)
	wg.Wait()

	assert.LessOrEqual(t, atomic.LoadInt32(&calls), int32(20))
	assert.GreaterOrEqual(t, atomic.LoadInt32(&calls), int32(1))
}

func TestSweep(t *testing.T) {
	svc, fake := newTestService()
	ctx := context.Background()

	_, err := svc.Status(ctx, "emp-1", day, func(context.Context) (attendance.Resolution, bool, error) {
		return resolution(attendance.StatusOnTime), true, nil
	})
	require.NoError(t, err)
	_, err = svc.Leaves(ctx, "emp-1", day, day, func(context.Context) ([]leave.Request, error) { return nil, nil })
	require.NoError(t, err)

	fake.Advance(2 * time.Minute)
	result := svc.Sweep()
	assert.Equal(t, SweepResult{Statuses: 1}, result)
	assert.Equal(t, 1, result.Total())
	assert.Equal(t, Stats{Leaves: 1}, svc.Stats())
}
