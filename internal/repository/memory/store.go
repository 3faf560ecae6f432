// Package memory is the in-process storage driver. It backs
// STORAGE_DRIVER=memory and every service test.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/holiday"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/leave"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/calendar"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/clock"
)

type dayKey struct {
	EmployeeID string
	Date       calendar.Date
}

type state struct {
	employees  map[string]employee.Employee
	holidays   map[string]holiday.Holiday
	records    map[string]attendance.Record
	recordKeys map[dayKey]string
	leaves     map[string]leave.Request
	settings   map[string]int
}

func newState() state {
	return state{
		employees:  make(map[string]employee.Employee),
		holidays:   make(map[string]holiday.Holiday),
		records:    make(map[string]attendance.Record),
		recordKeys: make(map[dayKey]string),
		leaves:     make(map[string]leave.Request),
		settings:   make(map[string]int),
	}
}

func (s state) clone() state {
	c := newState()
	for k, v := range s.employees {
		c.employees[k] = v
	}
	for k, v := range s.holidays {
		c.holidays[k] = v
	}
	for k, v := range s.records {
		c.records[k] = cloneRecord(v)
	}
	for k, v := range s.recordKeys {
		c.recordKeys[k] = v
	}
	for k, v := range s.leaves {
		c.leaves[k] = cloneRequest(v)
	}
	for k, v := range s.settings {
		c.settings[k] = v
	}
	return c
}

type fault struct {
	after int
	calls int
	err   error
}

// Store holds every table. A transaction holds the write lock for its whole
// duration, so transactions are serialized and other callers never observe
// partial writes.
type Store struct {
	mu     sync.RWMutex
	data   state
	clock  clock.Clock
	faults map[string]*fault
}

func NewStore(c clock.Clock) *Store {
	if c == nil {
		c = clock.Real{}
	}
	return &Store{
		data:   newState(),
		clock:  c,
		faults: make(map[string]*fault),
	}
}

type txKey struct{}

func (s *Store) inTx(ctx context.Context) bool {
	owner, _ := ctx.Value(txKey{}).(*Store)
	return owner == s
}

// read runs fn under the read lock unless ctx already owns the write lock.
func (s *Store) read(ctx context.Context, fn func(d *state) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !s.inTx(ctx) {
		s.mu.RLock()
		defer s.mu.RUnlock()
	}
	return fn(&s.data)
}

// write runs fn under the write lock unless ctx already owns it. op names the
// operation for fault injection.
func (s *Store) write(ctx context.Context, op string, fn func(d *state) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !s.inTx(ctx) {
		s.mu.Lock()
		defer s.mu.Unlock()
	}
	if err := s.injected(op); err != nil {
		return err
	}
	return fn(&s.data)
}

// WithinTransaction implements database.Transactor. Writes are applied in
// place and rolled back from a snapshot when fn fails or panics.
func (s *Store) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if s.inTx(ctx) {
		return fn(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.data.clone()
	defer func() {
		if p := recover(); p != nil {
			s.data = snapshot
			panic(p)
		}
		if err != nil {
			s.data = snapshot
		}
	}()

	return fn(context.WithValue(ctx, txKey{}, s))
}

// FailOn makes op fail with err once it has succeeded after times. Ops are
// named "<table>.<method>", for example "attendance.update".
func (s *Store) FailOn(op string, after int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults[op] = &fault{after: after, err: err}
}

func (s *Store) ClearFaults() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults = make(map[string]*fault)
}

func (s *Store) injected(op string) error {
	f, ok := s.faults[op]
	if !ok {
		return nil
	}
	f.calls++
	if f.calls > f.after {
		return fmt.Errorf("%s: %w", op, f.err)
	}
	return nil
}

func (s *Store) now() time.Time {
	return s.clock.Now().UTC()
}

func cloneRecord(r attendance.Record) attendance.Record {
	if r.ClockIn != nil {
		t := *r.ClockIn
		r.ClockIn = &t
	}
	if r.ClockOut != nil {
		t := *r.ClockOut
		r.ClockOut = &t
	}
	if r.LeaveRequestID != nil {
		id := *r.LeaveRequestID
		r.LeaveRequestID = &id
	}
	return r
}

func cloneRequest(r leave.Request) leave.Request {
	r.Dates = append([]calendar.Date(nil), r.Dates...)
	if r.Reason != nil {
		reason := *r.Reason
		r.Reason = &reason
	}
	return r
}
