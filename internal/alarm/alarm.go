package alarm

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/victoralves475/Sleepwellwell/internal/domain"
	"github.com/victoralves475/Sleepwellwell/internal/scheduler"
	"github.com/victoralves475/Sleepwellwell/internal/store"
)

// TestOffset is how far ahead a test alarm is armed.
const TestOffset = 5 * time.Second

// ErrInPast is returned when arming an alarm for an instant already gone.
var ErrInPast = errors.New("alarm time is in the past")

// Sender delivers the wake-up message, with a way to stop the ring.
type Sender interface {
	SendAlarm(chatID int64, text string) error
}

// Scheduler is the part of scheduler.Scheduler the alarm service needs.
type Scheduler interface {
	ScheduleOnce(id string, at time.Time, job scheduler.Job)
	Cancel(id string) bool
	NextRun(id string) (time.Time, bool)
}

// Service arms one wake alarm per user and rings it.
// A ring repeats every repeat interval until stopped or ringFor has elapsed.
type Service struct {
	repo    store.AlarmRepo
	sched   Scheduler
	sender  Sender
	log     *zap.Logger
	ringFor time.Duration
	repeat  time.Duration
	now     func() time.Time

	mu      sync.Mutex
	ringing map[string]time.Time // userID -> ring start
}

// New creates the alarm service.
func New(repo store.AlarmRepo, sched Scheduler, sender Sender, log *zap.Logger, ringFor, repeat time.Duration) *Service {
	return &Service{
		repo:    repo,
		sched:   sched,
		sender:  sender,
		log:     log,
		ringFor: ringFor,
		repeat:  repeat,
		now:     time.Now,
		ringing: make(map[string]time.Time),
	}
}

func fireID(userID string) string { return "alarm:" + userID }
func ringID(userID string) string { return "ring:" + userID }

// Arm persists and schedules the user's alarm, replacing a previous one.
func (s *Service) Arm(ctx context.Context, userID string, chatID int64, at time.Time) error {
	if at.Before(s.now()) {
		return ErrInPast
	}
	a := &domain.Alarm{UserID: userID, ChatID: chatID, FireAt: at.UTC(), CreatedAt: s.now().UTC()}
	if err := s.repo.PutAlarm(ctx, a); err != nil {
		return fmt.Errorf("store alarm: %w", err)
	}
	s.schedule(*a)
	s.log.Info("alarm armed", zap.String("userID", userID), zap.Time("at", a.FireAt))
	return nil
}

// ArmTest arms an alarm TestOffset from now.
func (s *Service) ArmTest(ctx context.Context, userID string, chatID int64) (time.Time, error) {
	at := s.now().Add(TestOffset)
	return at, s.Arm(ctx, userID, chatID, at)
}

// Cancel removes the user's pending alarm and silences an active ring.
// It reports whether a pending alarm existed.
func (s *Service) Cancel(ctx context.Context, userID string) (bool, error) {
	s.Stop(userID)
	pending := s.sched.Cancel(fireID(userID))
	if err := s.repo.DeleteAlarm(ctx, userID); err != nil && !errors.Is(err, store.ErrNotFound) {
		return pending, fmt.Errorf("delete alarm: %w", err)
	}
	return pending, nil
}

// Stop silences an active ring. It reports whether one was ringing.
func (s *Service) Stop(userID string) bool {
	s.mu.Lock()
	_, active := s.ringing[userID]
	delete(s.ringing, userID)
	s.mu.Unlock()
	cancelled := s.sched.Cancel(ringID(userID))
	return active || cancelled
}

// Pending returns when the user's alarm fires, if one is armed.
func (s *Service) Pending(userID string) (time.Time, bool) {
	return s.sched.NextRun(fireID(userID))
}

// Restore re-arms stored alarms at startup. Alarms whose time has passed are dropped.
func (s *Service) Restore(ctx context.Context, now time.Time) (int, error) {
	alarms, err := s.repo.ListAlarms(ctx)
	if err != nil {
		return 0, fmt.Errorf("list alarms: %w", err)
	}
	armed := 0
	for _, a := range alarms {
		if a.FireAt.Before(now) {
			s.log.Warn("dropping missed alarm", zap.String("userID", a.UserID), zap.Time("at", a.FireAt))
			if err := s.repo.DeleteAlarm(ctx, a.UserID); err != nil && !errors.Is(err, store.ErrNotFound) {
				s.log.Error("delete missed alarm failed", zap.Error(err), zap.String("userID", a.UserID))
			}
			continue
		}
		s.schedule(a)
		armed++
	}
	return armed, nil
}

func (s *Service) schedule(a domain.Alarm) {
	s.sched.ScheduleOnce(fireID(a.UserID), a.FireAt, s.fire(a))
}

// fire consumes the stored alarm, unless it was re-armed meanwhile, and starts ringing.
func (s *Service) fire(a domain.Alarm) scheduler.Job {
	return func(ctx context.Context) {
		if err := s.repo.DeleteAlarmAt(ctx, a.UserID, a.FireAt); err != nil && !errors.Is(err, store.ErrNotFound) {
			s.log.Error("delete fired alarm failed", zap.Error(err), zap.String("userID", a.UserID))
		}
		s.startRing(a, s.now())(ctx)
	}
}

func (s *Service) startRing(a domain.Alarm, started time.Time) scheduler.Job {
	s.mu.Lock()
	s.ringing[a.UserID] = started
	s.mu.Unlock()
	return s.ring(a, started)
}

// active reports whether the ring begun at started is still active.
func (s *Service) active(userID string, started time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.ringing[userID]
	return ok && cur.Equal(started)
}

func (s *Service) endRing(userID string, started time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.ringing[userID]; ok && cur.Equal(started) {
		delete(s.ringing, userID)
	}
}

func (s *Service) ring(a domain.Alarm, started time.Time) scheduler.Job {
	return func(ctx context.Context) {
		if !s.active(a.UserID, started) {
			return
		}
		if err := s.sender.SendAlarm(a.ChatID, wakeText); err != nil {
			s.log.Error("send alarm failed", zap.Error(err), zap.Int64("chatID", a.ChatID))
		}
		next := s.now().Add(s.repeat)
		if next.Sub(started) >= s.ringFor {
			s.endRing(a.UserID, started)
			return
		}
		s.sched.ScheduleOnce(ringID(a.UserID), next, s.ring(a, started))
	}
}

const wakeText = "⏰ Time to wake up! You are at the end of a sleep cycle."
