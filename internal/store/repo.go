package store

import (
	"context"
	"errors"
	"time"

	"github.com/victoralves475/Sleepwellwell/internal/domain"
)

var (
	// ErrNotFound is returned when a lookup matches no row.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a unique constraint rejects a write.
	ErrConflict = errors.New("conflict")
)

// UserRepo defines storage operations for accounts.
type UserRepo interface {
	CreateUser(ctx context.Context, u *domain.User) error
	GetUser(ctx context.Context, id string) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	BindChat(ctx context.Context, userID string, chatID int64) error
	SetTipsEnabled(ctx context.Context, userID string, enabled bool) error
	ListTipRecipients(ctx context.Context) ([]domain.User, error)
}

// DreamRepo defines storage operations for the dream diary.
type DreamRepo interface {
	AddDream(ctx context.Context, d *domain.DreamEntry) error
	ListDreams(ctx context.Context, userID string) ([]domain.DreamEntry, error)
	UpdateDream(ctx context.Context, d *domain.DreamEntry) error
	DeleteDream(ctx context.Context, userID, id string) error
}

// SleepRepo defines storage operations for sleep-quality records.
type SleepRepo interface {
	AddSleepRecord(ctx context.Context, r *domain.SleepRecord) error
	FindSleepRecord(ctx context.Context, userID string, from, to time.Time) (*domain.SleepRecord, error)
	ListSleepRecords(ctx context.Context, userID string) ([]domain.SleepRecord, error)
}

// AlarmRepo defines storage operations for wake alarms.
type AlarmRepo interface {
	PutAlarm(ctx context.Context, a *domain.Alarm) error
	GetAlarm(ctx context.Context, userID string) (*domain.Alarm, error)
	DeleteAlarm(ctx context.Context, userID string) error
	DeleteAlarmAt(ctx context.Context, userID string, fireAt time.Time) error
	ListAlarms(ctx context.Context) ([]domain.Alarm, error)
}

// Repo is the full storage surface of the application.
type Repo interface {
	UserRepo
	DreamRepo
	SleepRepo
	AlarmRepo
	Close() error
}
