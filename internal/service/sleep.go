package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/victoralves475/Sleepwellwell/internal/domain"
	"github.com/victoralves475/Sleepwellwell/internal/store"
)

// Sleep tracks self-reported sleep quality.
type Sleep struct {
	repo store.SleepRepo
}

// NewSleep creates the sleep service.
func NewSleep(repo store.SleepRepo) *Sleep {
	return &Sleep{repo: repo}
}

// CheckYesterday reports whether the user already rated the night before now,
// using the session's time zone for day boundaries.
func (s *Sleep) CheckYesterday(ctx context.Context, sess domain.Session, now time.Time) (bool, error) {
	if sess.UserID == "" {
		return false, ErrNotLoggedIn
	}
	from, to := domain.YesterdayBounds(now.In(sess.Location()))
	_, err := s.repo.FindSleepRecord(ctx, sess.UserID, from, to)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, store.ErrNotFound):
		return false, nil
	default:
		return false, fmt.Errorf("find sleep record: %w", err)
	}
}

// Record stores the quality of the night dated at date.
func (s *Sleep) Record(ctx context.Context, sess domain.Session, date time.Time, good bool) (*domain.SleepRecord, error) {
	if sess.UserID == "" {
		return nil, ErrNotLoggedIn
	}
	rec := &domain.SleepRecord{ID: uuid.NewString(), UserID: sess.UserID, Date: date.UTC(), Good: good}
	if err := s.repo.AddSleepRecord(ctx, rec); err != nil {
		return nil, fmt.Errorf("add sleep record: %w", err)
	}
	return rec, nil
}

// RecordYesterday stores the quality of the night before now, dated at the
// start of yesterday in the session's time zone.
func (s *Sleep) RecordYesterday(ctx context.Context, sess domain.Session, now time.Time, good bool) (*domain.SleepRecord, error) {
	from, _ := domain.YesterdayBounds(now.In(sess.Location()))
	return s.Record(ctx, sess, from, good)
}

// History returns the user's records (newest first) and the share of good nights.
func (s *Sleep) History(ctx context.Context, sess domain.Session) ([]domain.SleepRecord, int, error) {
	if sess.UserID == "" {
		return nil, 0, ErrNotLoggedIn
	}
	records, err := s.repo.ListSleepRecords(ctx, sess.UserID)
	if err != nil {
		return nil, 0, fmt.Errorf("list sleep records: %w", err)
	}
	return records, domain.QualityPercentage(records), nil
}
