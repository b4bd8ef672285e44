package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func noop(context.Context) {}

// newFrozen returns a scheduler whose clock is pinned to the returned pointer.
func newFrozen(t *testing.T, start time.Time) (*Scheduler, *time.Time) {
	t.Helper()
	now := start
	s := New(zap.NewNop())
	s.now = func() time.Time { return now }
	return s, &now
}

func TestEnqueueUniquePeriodic_ReplacesExisting(t *testing.T) {
	start := time.Date(2025, time.May, 5, 21, 0, 0, 0, time.UTC)
	s, _ := newFrozen(t, start)

	require.NoError(t, s.EnqueueUniquePeriodic("daily", time.Hour, 24*time.Hour, noop))
	require.NoError(t, s.EnqueueUniquePeriodic("daily", 2*time.Hour, 24*time.Hour, noop))

	assert.Equal(t, 1, s.Len())
	next, ok := s.NextRun("daily")
	require.True(t, ok)
	assert.Equal(t, start.Add(2*time.Hour), next)
}

func TestEnqueueUniquePeriodic_Validation(t *testing.T) {
	s := New(zap.NewNop())
	assert.ErrorIs(t, s.EnqueueUniquePeriodic("x", 0, 0, noop), ErrInvalidSchedule)
	assert.ErrorIs(t, s.EnqueueUniquePeriodic("x", -time.Second, time.Hour, noop), ErrInvalidSchedule)
	assert.NoError(t, s.EnqueueUniquePeriodic("x", 0, time.Hour, noop))
}

func TestPopDue_OrderAndRearm(t *testing.T) {
	start := time.Date(2025, time.May, 5, 0, 0, 0, 0, time.UTC)
	s, now := newFrozen(t, start)

	require.NoError(t, s.EnqueueUniquePeriodic("tick", 10*time.Minute, time.Hour, noop))
	s.ScheduleOnce("alarm", start.Add(5*time.Minute), noop)
	s.ScheduleOnce("later", start.Add(3*time.Hour), noop)

	assert.Empty(t, s.popDue(start))

	*now = start.Add(10 * time.Minute)
	due := s.popDue(*now)
	require.Len(t, due, 2)
	assert.Equal(t, "alarm", due[0].id)
	assert.Equal(t, "tick", due[1].id)

	_, ok := s.NextRun("alarm")
	assert.False(t, ok, "one-shot entries are dropped after firing")
	next, ok := s.NextRun("tick")
	require.True(t, ok)
	assert.Equal(t, start.Add(70*time.Minute), next)
	assert.Equal(t, 2, s.Len())
}

func TestPopDue_SkipsMissedPeriods(t *testing.T) {
	start := time.Date(2025, time.May, 5, 0, 0, 0, 0, time.UTC)
	s, _ := newFrozen(t, start)
	require.NoError(t, s.EnqueueUniquePeriodic("tick", time.Hour, time.Hour, noop))

	// Woke up five and a half hours late: fire once, keep the hourly grid.
	due := s.popDue(start.Add(6*time.Hour + 30*time.Minute))
	assert.Len(t, due, 1)
	next, _ := s.NextRun("tick")
	assert.Equal(t, start.Add(7*time.Hour), next)
}

func TestCancel(t *testing.T) {
	s := New(zap.NewNop())
	s.ScheduleOnce("a", time.Now().Add(time.Hour), noop)
	assert.True(t, s.Cancel("a"))
	assert.False(t, s.Cancel("a"))
	assert.Equal(t, 0, s.Len())
	assert.Empty(t, s.popDue(time.Now().Add(2*time.Hour)))
}

func TestUntilNextIsCapped(t *testing.T) {
	start := time.Date(2025, time.May, 5, 0, 0, 0, 0, time.UTC)
	s, _ := newFrozen(t, start)
	assert.Equal(t, maxSleepCap, s.untilNext(start))

	s.ScheduleOnce("far", start.Add(time.Hour), noop)
	assert.Equal(t, maxSleepCap, s.untilNext(start))

	s.ScheduleOnce("past", start.Add(-time.Minute), noop)
	assert.Equal(t, time.Duration(0), s.untilNext(start))
}

func TestRun_FiresOnceAndPeriodic(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := New(zap.NewNop())

	var once atomic.Int32
	var ticks atomic.Int32
	s.ScheduleOnce("once", time.Now().Add(30*time.Millisecond), func(context.Context) { once.Add(1) })
	require.NoError(t, s.EnqueueUniquePeriodic("tick", 10*time.Millisecond, 40*time.Millisecond, func(context.Context) { ticks.Add(1) }))

	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return once.Load() == 1 && ticks.Load() >= 2 }, 2*time.Second, 5*time.Millisecond)
	cancel()
	<-done
	assert.EqualValues(t, 1, once.Load())
}

func TestRun_CancelledBeforeFire(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s := New(zap.NewNop())

	var fired atomic.Bool
	s.ScheduleOnce("a", time.Now().Add(80*time.Millisecond), func(context.Context) { fired.Store(true) })
	go s.Run(ctx)

	time.Sleep(10 * time.Millisecond)
	require.True(t, s.Cancel("a"))
	time.Sleep(150 * time.Millisecond)
	assert.False(t, fired.Load())
}

func TestRun_WaitsForRunningJobs(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := New(zap.NewNop())

	var mu sync.Mutex
	finished := false
	started := make(chan struct{})
	s.ScheduleOnce("slow", time.Now(), func(jobCtx context.Context) {
		close(started)
		<-jobCtx.Done()
		time.Sleep(20 * time.Millisecond)
		mu.Lock()
		finished = true
		mu.Unlock()
	})

	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	<-started
	cancel()
	<-done
	mu.Lock()
	defer mu.Unlock()
	assert.True(t, finished)
}

func TestRun_RecoversFromPanickingJob(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s := New(zap.NewNop())

	var after atomic.Bool
	s.ScheduleOnce("boom", time.Now(), func(context.Context) { panic("boom") })
	s.ScheduleOnce("ok", time.Now().Add(20*time.Millisecond), func(context.Context) { after.Store(true) })
	go s.Run(ctx)

	assert.Eventually(t, after.Load, time.Second, 5*time.Millisecond)
}
