package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/victoralves475/Sleepwellwell/internal/domain"
	"github.com/victoralves475/Sleepwellwell/internal/store"
)

// Diary manages dream diary entries of the session's user.
type Diary struct {
	repo store.DreamRepo
}

// NewDiary creates the diary service.
func NewDiary(repo store.DreamRepo) *Diary {
	return &Diary{repo: repo}
}

// Add stores a new entry. date accepts dd/MM/yyyy or its eight bare digits.
func (d *Diary) Add(ctx context.Context, s domain.Session, title, body, date string) (*domain.DreamEntry, error) {
	entry, err := d.build(s, title, body, date)
	if err != nil {
		return nil, err
	}
	entry.ID = uuid.NewString()
	entry.CreatedAt = time.Now().UTC()
	if err := d.repo.AddDream(ctx, entry); err != nil {
		return nil, fmt.Errorf("add dream: %w", err)
	}
	return entry, nil
}

// List returns the user's entries, newest first.
func (d *Diary) List(ctx context.Context, s domain.Session) ([]domain.DreamEntry, error) {
	if s.UserID == "" {
		return nil, ErrNotLoggedIn
	}
	return d.repo.ListDreams(ctx, s.UserID)
}

// Update replaces title, body and date of an existing entry.
func (d *Diary) Update(ctx context.Context, s domain.Session, id, title, body, date string) error {
	entry, err := d.build(s, title, body, date)
	if err != nil {
		return err
	}
	entry.ID = id
	return notFound(d.repo.UpdateDream(ctx, entry))
}

// Delete removes an entry.
func (d *Diary) Delete(ctx context.Context, s domain.Session, id string) error {
	if s.UserID == "" {
		return ErrNotLoggedIn
	}
	return notFound(d.repo.DeleteDream(ctx, s.UserID, strings.TrimSpace(id)))
}

func (d *Diary) build(s domain.Session, title, body, date string) (*domain.DreamEntry, error) {
	if s.UserID == "" {
		return nil, ErrNotLoggedIn
	}
	title, body = strings.TrimSpace(title), strings.TrimSpace(body)
	if title == "" || body == "" || strings.TrimSpace(date) == "" {
		return nil, ErrMissingFields
	}
	normalized, err := domain.ParseDiaryDate(date)
	if err != nil {
		return nil, err
	}
	return &domain.DreamEntry{UserID: s.UserID, Title: title, Body: body, Date: normalized}, nil
}

func notFound(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return ErrNotFound
	}
	return err
}
