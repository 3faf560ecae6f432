package cron

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/pkg/clock"
)

var ErrJobNotFound = errors.New("cron job not found")

// Job represents a scheduled job
type Job struct {
	Name     string
	Interval time.Duration
	Fn       func(ctx context.Context) error
}

// JobStatus is the outcome of a job's most recent run.
type JobStatus struct {
	Name      string        `json:"name"`
	Interval  time.Duration `json:"interval"`
	Runs      int           `json:"runs"`
	Failures  int           `json:"failures"`
	LastRunAt time.Time     `json:"last_run_at"`
	LastError string        `json:"last_error,omitempty"`
	Duration  time.Duration `json:"duration"`
}

// Scheduler runs each job on its own ticker. A job never overlaps with
// itself: a tick that arrives while the previous run is busy is dropped.
type Scheduler struct {
	jobs   []Job
	status map[string]*JobStatus
	busy   map[string]*sync.Mutex
	clock  clock.Clock
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewScheduler creates a scheduler whose jobs stop when parent is cancelled
// or Stop is called.
func NewScheduler(parent context.Context, c clock.Clock) *Scheduler {
	if c == nil {
		c = clock.Real{}
	}
	ctx, cancel := context.WithCancel(parent)
	return &Scheduler{
		jobs:   make([]Job, 0),
		status: make(map[string]*JobStatus),
		busy:   make(map[string]*sync.Mutex),
		clock:  c,
		ctx:    ctx,
		cancel: cancel,
	}
}

// AddJob adds a job to the scheduler. A non-positive interval registers the
// job for RunNow only.
func (s *Scheduler) AddJob(name string, interval time.Duration, fn func(ctx context.Context) error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.jobs = append(s.jobs, Job{
		Name:     name,
		Interval: interval,
		Fn:       fn,
	})
	s.status[name] = &JobStatus{Name: name, Interval: interval}
	s.busy[name] = &sync.Mutex{}
	slog.Info("Cron job registered", "name", name, "interval", interval)
}

// Start begins running all scheduled jobs
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	started := 0
	for _, job := range s.jobs {
		if job.Interval <= 0 {
			continue
		}
		s.wg.Add(1)
		go s.runJob(job)
		started++
	}

	slog.Info("Cron scheduler started", "job_count", started)
}

// Stop gracefully stops all scheduled jobs
func (s *Scheduler) Stop() {
	slog.Info("Stopping cron scheduler...")
	s.cancel()
	s.wg.Wait()
	slog.Info("Cron scheduler stopped")
}

// runJob runs a single job on its schedule
func (s *Scheduler) runJob(job Job) {
	defer s.wg.Done()

	ticker := time.NewTicker(job.Interval)
	defer ticker.Stop()

	// Run immediately on start
	s.tryExecute(s.ctx, job)

	for {
		select {
		case <-s.ctx.Done():
			slog.Info("Cron job stopping", "name", job.Name)
			return
		case <-ticker.C:
			s.tryExecute(s.ctx, job)
		}
	}
}

func (s *Scheduler) tryExecute(ctx context.Context, job Job) {
	lock := s.lockFor(job.Name)
	if !lock.TryLock() {
		slog.Warn("Cron job still running, tick skipped", "name", job.Name)
		return
	}
	defer lock.Unlock()

	_ = s.executeJob(ctx, job)
}

func (s *Scheduler) lockFor(name string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.busy[name]
}

// executeJob executes a job, records and logs the result
func (s *Scheduler) executeJob(ctx context.Context, job Job) error {
	start := s.clock.Now()
	slog.Debug("Cron job starting", "name", job.Name)

	err := job.Fn(ctx)
	elapsed := s.clock.Now().Sub(start)

	s.mu.Lock()
	st := s.status[job.Name]
	st.Runs++
	st.LastRunAt = start
	st.Duration = elapsed
	st.LastError = ""
	if err != nil {
		st.Failures++
		st.LastError = err.Error()
	}
	s.mu.Unlock()

	if err != nil {
		slog.Error("Cron job failed", "name", job.Name, "error", err, "duration", elapsed)
		return err
	}
	slog.Debug("Cron job completed", "name", job.Name, "duration", elapsed)
	return nil
}

// RunNow runs one job synchronously, waiting for a scheduled run of the same
// job to finish first.
func (s *Scheduler) RunNow(ctx context.Context, name string) error {
	s.mu.Lock()
	var (
		job   Job
		found bool
	)
	for _, j := range s.jobs {
		if j.Name == name {
			job, found = j, true
			break
		}
	}
	lock := s.busy[name]
	s.mu.Unlock()

	if !found {
		return fmt.Errorf("%w: %s", ErrJobNotFound, name)
	}

	lock.Lock()
	defer lock.Unlock()
	return s.executeJob(ctx, job)
}

// Statuses returns a snapshot of every job's last run, in registration order.
func (s *Scheduler) Statuses() []JobStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]JobStatus, 0, len(s.jobs))
	for _, job := range s.jobs {
		out = append(out, *s.status[job.Name])
	}
	return out
}
