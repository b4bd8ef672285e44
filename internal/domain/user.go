package domain

import "time"

// User is a registered SleepWell account.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	ChatID       *int64 // chat bound at last login, nullable
	TZ           string
	TipsEnabled  bool
	CreatedAt    time.Time // UTC
}

// Session identifies the logged-in user of one chat.
// Handlers pass it explicitly; there is no process-wide current user.
type Session struct {
	UserID string
	Name   string
	ChatID int64
	TZ     string
}

// Location returns the session's time zone, UTC if unknown.
func (s Session) Location() *time.Location {
	return LoadLocation(s.TZ)
}
