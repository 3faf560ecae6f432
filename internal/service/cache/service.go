package cache

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/leave"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/calendar"
	ttlcache "github.com/cmlabs-hris/attendance-engine/internal/pkg/cache"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/clock"
)

type Config struct {
	StatusTTL   time.Duration
	LeaveTTL    time.Duration
	SettingsTTL time.Duration
}

type statusKey struct {
	EmployeeID string
	Date       calendar.Date
}

type leaveKey struct {
	EmployeeID string
	From       calendar.Date
	To         calendar.Date
}

// generation identifies the invalidation epoch a load started in.
type generation struct {
	global   uint64
	employee uint64
}

// Service holds the engine's three caches. Loads for the same key are
// collapsed, and a load that started before an invalidation never writes its
// result back.
type Service struct {
	statuses *ttlcache.TTLMap[statusKey, attendance.Resolution]
	leaves   *ttlcache.TTLMap[leaveKey, []leave.Request]
	settings *ttlcache.TTLMap[string, int]

	mu          sync.Mutex
	globalGen   uint64
	employeeGen map[string]uint64

	group singleflight.Group
}

func NewCacheService(cfg Config, c clock.Clock) *Service {
	return &Service{
		statuses:    ttlcache.NewTTLMap[statusKey, attendance.Resolution](cfg.StatusTTL, c),
		leaves:      ttlcache.NewTTLMap[leaveKey, []leave.Request](cfg.LeaveTTL, c),
		settings:    ttlcache.NewTTLMap[string, int](cfg.SettingsTTL, c),
		employeeGen: make(map[string]uint64),
	}
}

func (s *Service) generation(employeeID string) generation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return generation{global: s.globalGen, employee: s.employeeGen[employeeID]}
}

func (s *Service) current(employeeID string, g generation) func() bool {
	return func() bool {
		return s.generation(employeeID) == g
	}
}

// Status returns the cached resolution or runs load. load reports whether
// its result may be cached; admin-overridden days must not be.
func (s *Service) Status(ctx context.Context, employeeID string, date calendar.Date, load func(ctx context.Context) (attendance.Resolution, bool, error)) (attendance.Resolution, error) {
	key := statusKey{EmployeeID: employeeID, Date: date}
	if res, ok := s.statuses.Get(key); ok {
		return res, nil
	}

	g := s.generation(employeeID)
	flight := fmt.Sprintf("status:%s:%s:%d:%d", employeeID, date, g.global, g.employee)
	v, err, _ := s.group.Do(flight, func() (interface{}, error) {
		res, cacheable, err := load(ctx)
		if err != nil {
			return nil, err
		}
		if cacheable {
			s.statuses.SetIf(key, res, s.current(employeeID, g))
		}
		return res, nil
	})
	if err != nil {
		return attendance.Resolution{}, err
	}
	return v.(attendance.Resolution), nil
}

// Leaves returns the approved requests of the employee overlapping [from, to].
func (s *Service) Leaves(ctx context.Context, employeeID string, from, to calendar.Date, load func(ctx context.Context) ([]leave.Request, error)) ([]leave.Request, error) {
	key := leaveKey{EmployeeID: employeeID, From: from, To: to}
	if reqs, ok := s.leaves.Get(key); ok {
		return reqs, nil
	}

	g := s.generation(employeeID)
	flight := fmt.Sprintf("leaves:%s:%s:%s:%d:%d", employeeID, from, to, g.global, g.employee)
	v, err, _ := s.group.Do(flight, func() (interface{}, error) {
		reqs, err := load(ctx)
		if err != nil {
			return nil, err
		}
		s.leaves.SetIf(key, reqs, s.current(employeeID, g))
		return reqs, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]leave.Request), nil
}

// Setting returns a cached integer setting.
func (s *Service) Setting(ctx context.Context, key string, load func(ctx context.Context) (int, error)) (int, error) {
	if v, ok := s.settings.Get(key); ok {
		return v, nil
	}

	g := s.generation("")
	flight := fmt.Sprintf("setting:%s:%d", key, g.global)
	v, err, _ := s.group.Do(flight, func() (interface{}, error) {
		value, err := load(ctx)
		if err != nil {
			return nil, err
		}
		s.settings.SetIf(key, value, s.current("", g))
		return value, nil
	})
	if err != nil {
		return 0, err
	}
	return v.(int), nil
}

// InvalidateEmployee drops every status and leave entry of the employee.
func (s *Service) InvalidateEmployee(employeeID string) {
	// Bump first so in-flight loads fail their SetIf check.
	s.mu.Lock()
	s.employeeGen[employeeID]++
	s.mu.Unlock()

	statuses := s.statuses.DeleteFunc(func(k statusKey) bool { return k.EmployeeID == employeeID })
	leaves := s.leaves.DeleteFunc(func(k leaveKey) bool { return k.EmployeeID == employeeID })

	slog.Debug("employee cache invalidated", "employee_id", employeeID, "statuses", statuses, "leaves", leaves)
}

// InvalidateAll clears all three caches.
func (s *Service) InvalidateAll() {
	s.mu.Lock()
	s.globalGen++
	s.mu.Unlock()

	s.statuses.Clear()
	s.leaves.Clear()
	s.settings.Clear()

	slog.Info("attendance caches cleared")
}

type SweepResult struct {
	Statuses int
	Leaves   int
	Settings int
}

func (r SweepResult) Total() int {
	return r.Statuses + r.Leaves + r.Settings
}

// Sweep evicts expired entries from every cache.
func (s *Service) Sweep() SweepResult {
	return SweepResult{
		Statuses: s.statuses.Sweep(),
		Leaves:   s.leaves.Sweep(),
		Settings: s.settings.Sweep(),
	}
}

type Stats struct {
	Statuses int `json:"statuses"`
	Leaves   int `json:"leaves"`
	Settings int `json:"settings"`
}

func (s *Service) Stats() Stats {
	return Stats{
		Statuses: s.statuses.Len(),
		Leaves:   s.leaves.Len(),
		Settings: s.settings.Len(),
	}
}
