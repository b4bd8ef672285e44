// Package reminder sends the daily sleep tip.
package reminder

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/victoralves475/Sleepwellwell/internal/domain"
	"github.com/victoralves475/Sleepwellwell/internal/scheduler"
	"github.com/victoralves475/Sleepwellwell/internal/tips"
)

// JobID names the periodic tip job; arming again replaces it.
const JobID = "daily_tip_notification"

// ErrNoTips is returned when neither source produced a tip.
var ErrNoTips = errors.New("no tips available")

// Sender delivers a plain text message to a chat.
type Sender interface {
	SendMessage(chatID int64, text string) error
}

// Recipients lists users that should get the tip.
type Recipients interface {
	ListTipRecipients(ctx context.Context) ([]domain.User, error)
}

// Enqueuer is the part of scheduler.Scheduler used to arm the job.
type Enqueuer interface {
	EnqueueUniquePeriodic(id string, initialDelay, interval time.Duration, job scheduler.Job) error
}

// DailyTips broadcasts one random tip per day at a fixed local hour.
type DailyTips struct {
	sched    Enqueuer
	users    Recipients
	tips     tips.Source
	sender   Sender
	log      *zap.Logger
	at       domain.TargetHour
	interval time.Duration

	mu  sync.Mutex
	rnd *rand.Rand
}

// New creates the daily tip job. rnd may be nil for the global source.
func New(sched Enqueuer, users Recipients, src tips.Source, sender Sender, log *zap.Logger,
	at domain.TargetHour, interval time.Duration, rnd *rand.Rand) *DailyTips {
	return &DailyTips{
		sched:    sched,
		users:    users,
		tips:     src,
		sender:   sender,
		log:      log,
		at:       at,
		interval: interval,
		rnd:      rnd,
	}
}

// Arm schedules the job for the next occurrence of the target hour after now
// and every interval after that.
func (d *DailyTips) Arm(now time.Time) (time.Duration, error) {
	delay := domain.DelayUntilNext(now, d.at)
	if err := d.sched.EnqueueUniquePeriodic(JobID, delay, d.interval, d.job); err != nil {
		return 0, fmt.Errorf("arm %s: %w", JobID, err)
	}
	d.log.Info("daily tip armed",
		zap.Stringer("at", d.at),
		zap.Duration("delay", delay),
		zap.Duration("interval", d.interval),
	)
	return delay, nil
}

func (d *DailyTips) job(ctx context.Context) {
	sent, err := d.Run(ctx)
	if err != nil {
		d.log.Error("daily tip failed", zap.Error(err))
		return
	}
	d.log.Info("daily tip sent", zap.Int("recipients", sent))
}

// Run picks a tip and sends it to every recipient. It returns how many
// messages were delivered; a failed recipient is logged and skipped.
func (d *DailyTips) Run(ctx context.Context) (int, error) {
	list, err := d.tips.ListTips(ctx)
	if err != nil {
		return 0, fmt.Errorf("list tips: %w", err)
	}
	d.mu.Lock()
	tip, ok := tips.Pick(list, d.rnd)
	d.mu.Unlock()
	if !ok {
		return 0, ErrNoTips
	}

	users, err := d.users.ListTipRecipients(ctx)
	if err != nil {
		return 0, fmt.Errorf("list recipients: %w", err)
	}

	text := FormatTip(tip)
	sent := 0
	for _, u := range users {
		if ctx.Err() != nil {
			return sent, ctx.Err()
		}
		if u.ChatID == nil {
			continue
		}
		if err := d.sender.SendMessage(*u.ChatID, text); err != nil {
			d.log.Warn("send tip failed", zap.Error(err), zap.String("userID", u.ID), zap.Int64("chatID", *u.ChatID))
			continue
		}
		sent++
	}
	return sent, nil
}

// FormatTip renders a tip as a notification message.
func FormatTip(t domain.Tip) string {
	return "💤 " + t.Title + "\n\n" + t.Description
}
