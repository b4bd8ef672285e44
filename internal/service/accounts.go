package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/victoralves475/Sleepwellwell/internal/domain"
	"github.com/victoralves475/Sleepwellwell/internal/store"
)

// Accounts handles sign-up and login.
type Accounts struct {
	repo      store.UserRepo
	log       *zap.Logger
	defaultTZ string
	cost      int
}

// NewAccounts creates the account service. New users get defaultTZ.
func NewAccounts(repo store.UserRepo, log *zap.Logger, defaultTZ string) *Accounts {
	return &Accounts{repo: repo, log: log, defaultTZ: defaultTZ, cost: bcrypt.DefaultCost}
}

// SignUp registers an account and returns it.
func (a *Accounts) SignUp(ctx context.Context, name, email, password string) (*domain.User, error) {
	name, email = strings.TrimSpace(name), strings.ToLower(strings.TrimSpace(email))
	password = strings.TrimSpace(password)
	if name == "" || email == "" || password == "" {
		return nil, ErrMissingFields
	}
	if !validEmail(email) {
		return nil, ErrInvalidEmail
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), a.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u := &domain.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		TZ:           a.defaultTZ,
		TipsEnabled:  true,
		CreatedAt:    time.Now().UTC(),
	}
	if err := a.repo.CreateUser(ctx, u); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	a.log.Info("user signed up", zap.String("userID", u.ID))
	return u, nil
}

// Login checks credentials, binds chatID to the account and returns the session.
func (a *Accounts) Login(ctx context.Context, email, password string, chatID int64) (domain.Session, error) {
	u, err := a.repo.GetUserByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Session{}, ErrInvalidCredentials
		}
		return domain.Session{}, fmt.Errorf("lookup user: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(strings.TrimSpace(password))) != nil {
		return domain.Session{}, ErrInvalidCredentials
	}
	if err := a.repo.BindChat(ctx, u.ID, chatID); err != nil {
		return domain.Session{}, fmt.Errorf("bind chat: %w", err)
	}
	return domain.Session{UserID: u.ID, Name: u.Name, ChatID: chatID, TZ: u.TZ}, nil
}

// SetTips enables or disables the daily tip for the session's account.
func (a *Accounts) SetTips(ctx context.Context, s domain.Session, enabled bool) error {
	if s.UserID == "" {
		return ErrNotLoggedIn
	}
	return a.repo.SetTipsEnabled(ctx, s.UserID, enabled)
}

func validEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s && strings.Contains(s[strings.LastIndex(s, "@")+1:], ".")
}
