// Package scheduler runs keyed jobs on a single goroutine using a min-heap
// ordered by next run time. Periodic entries stand in for the OS job
// scheduler the daily tip is armed on; one-shot entries back wake alarms.
// State is in memory only; callers re-arm on startup.
package scheduler

import (
	"container/heap"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// maxSleepCap bounds a single wait so wall-clock steps are noticed.
const maxSleepCap = 60 * time.Second

// ErrInvalidSchedule is returned for non-positive intervals or negative delays.
var ErrInvalidSchedule = errors.New("invalid schedule")

// Job is the work a scheduled entry runs. ctx is the scheduler's run context.
type Job func(ctx context.Context)

type entry struct {
	id       string
	next     time.Time
	interval time.Duration // zero for one-shot entries
	job      Job
	index    int
}

// Scheduler holds keyed entries; an id identifies at most one entry.
type Scheduler struct {
	log *zap.Logger
	now func() time.Time

	mu    sync.Mutex
	byID  map[string]*entry
	queue entryHeap
	wake  chan struct{}
	wg    sync.WaitGroup
}

// New creates an idle Scheduler; call Run to start firing entries.
func New(log *zap.Logger) *Scheduler {
	return &Scheduler{
		log:  log,
		now:  time.Now,
		byID: make(map[string]*entry),
		wake: make(chan struct{}, 1),
	}
}

// EnqueueUniquePeriodic arms job to run after initialDelay and then every interval.
// An existing entry with the same id is replaced.
func (s *Scheduler) EnqueueUniquePeriodic(id string, initialDelay, interval time.Duration, job Job) error {
	if interval <= 0 || initialDelay < 0 {
		return fmt.Errorf("%w: delay %s, interval %s", ErrInvalidSchedule, initialDelay, interval)
	}
	s.put(&entry{id: id, next: s.now().Add(initialDelay), interval: interval, job: job})
	return nil
}

// ScheduleOnce arms job to run once at the given instant, replacing any entry with the same id.
// An instant in the past fires on the next loop iteration.
func (s *Scheduler) ScheduleOnce(id string, at time.Time, job Job) {
	s.put(&entry{id: id, next: at, job: job})
}

func (s *Scheduler) put(e *entry) {
	s.mu.Lock()
	if old, ok := s.byID[e.id]; ok {
		s.queue.remove(old)
	}
	s.byID[e.id] = e
	heap.Push(&s.queue, e)
	s.mu.Unlock()
	s.poke()
}

// Cancel removes the entry with the given id. It reports whether one existed.
func (s *Scheduler) Cancel(id string) bool {
	s.mu.Lock()
	e, ok := s.byID[id]
	if ok {
		s.queue.remove(e)
		delete(s.byID, id)
	}
	s.mu.Unlock()
	if ok {
		s.poke()
	}
	return ok
}

// NextRun reports when the entry with the given id fires next.
func (s *Scheduler) NextRun(id string) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.byID[id]
	if !ok {
		return time.Time{}, false
	}
	return e.next, true
}

// Len returns the number of armed entries.
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byID)
}

func (s *Scheduler) poke() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Run fires entries until ctx is cancelled, then waits for running jobs.
func (s *Scheduler) Run(ctx context.Context) {
	timer := time.NewTimer(maxSleepCap)
	defer timer.Stop()

	for {
		timer.Reset(s.untilNext(s.now()))

		select {
		case <-ctx.Done():
			s.log.Info("scheduler stopping")
			s.wg.Wait()
			return
		case <-s.wake:
		case <-timer.C:
			for _, d := range s.popDue(s.now()) {
				s.spawn(ctx, d)
			}
		}
	}
}

func (s *Scheduler) untilNext(now time.Time) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.queue.peek()
	if e == nil {
		return maxSleepCap
	}
	d := e.next.Sub(now)
	if d < 0 {
		d = 0
	}
	if d > maxSleepCap {
		d = maxSleepCap
	}
	return d
}

type dueJob struct {
	id  string
	job Job
}

// popDue removes every entry due at now. Periodic entries are re-armed on
// their existing grid, skipping periods that were missed entirely.
func (s *Scheduler) popDue(now time.Time) []dueJob {
	s.mu.Lock()
	defer s.mu.Unlock()

	var due []dueJob
	for {
		e := s.queue.peek()
		if e == nil || e.next.After(now) {
			break
		}
		due = append(due, dueJob{id: e.id, job: e.job})
		if e.interval == 0 {
			heap.Pop(&s.queue)
			delete(s.byID, e.id)
			continue
		}
		missed := now.Sub(e.next) / e.interval
		e.next = e.next.Add((missed + 1) * e.interval)
		heap.Fix(&s.queue, e.index)
	}
	return due
}

func (s *Scheduler) spawn(ctx context.Context, d dueJob) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				s.log.Error("scheduled job panicked", zap.String("id", d.id), zap.Any("panic", r))
			}
		}()
		s.log.Debug("running scheduled job", zap.String("id", d.id))
		d.job(ctx)
	}()
}
