package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	// Also registers the "sqlite" driver (pure Go).
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/victoralves475/Sleepwellwell/internal/domain"
)

// SQLiteRepo implements Repo using an embedded SQLite database.
type SQLiteRepo struct{ db *sql.DB }

var _ Repo = (*SQLiteRepo)(nil)

// OpenSQLite opens (or creates) the SQLite database at the given path,
// applies recommended PRAGMAs, runs SQL migrations, and returns a repository.
func OpenSQLite(ctx context.Context, path string) (*SQLiteRepo, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// Reasonable pooling for SQLite; it's a single-writer engine.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := applyPragmas(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}
	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}

	return &SQLiteRepo{db: db}, nil
}

// applyPragmas configures the SQLite connection for durability and concurrency.
func applyPragmas(ctx context.Context, db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA foreign_keys=ON;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the underlying database resources.
func (r *SQLiteRepo) Close() error {
	return r.db.Close()
}

// mapErr translates driver errors into store sentinels.
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	var se *sqlite.Error
	if errors.As(err, &se) {
		switch se.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return fmt.Errorf("%w: %s", ErrConflict, se.Error())
		}
	}
	return err
}

// expectOne reports ErrNotFound when a write touched no row.
func expectOne(res sql.Result, err error) error {
	if err != nil {
		return mapErr(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Users ---

const userColumns = `id, name, email, password_hash, chat_id, tz, tips_enabled, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(s rowScanner) (*domain.User, error) {
	var (
		u          domain.User
		chatNS     sql.NullInt64
		tipsInt    int
		createdAtM int64
	)
	if err := s.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &chatNS, &u.TZ, &tipsInt, &createdAtM); err != nil {
		return nil, err
	}
	u.ChatID = fromNullInt64(chatNS)
	u.TipsEnabled = tipsInt != 0
	u.CreatedAt = fromUnixMilli(createdAtM)
	return &u, nil
}

// CreateUser inserts a new account. A taken email yields ErrConflict.
func (r *SQLiteRepo) CreateUser(ctx context.Context, u *domain.User) error {
	if u == nil {
		return errors.New("nil user")
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Name, strings.ToLower(u.Email), u.PasswordHash,
		toNullInt64(u.ChatID), u.TZ, boolToInt(u.TipsEnabled), toUnixMilli(u.CreatedAt),
	)
	return mapErr(err)
}

// GetUser returns an account by id.
func (r *SQLiteRepo) GetUser(ctx context.Context, id string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	u, err := scanUser(row)
	if err != nil {
		return nil, mapErr(err)
	}
	return u, nil
}

// GetUserByEmail returns an account by its (case-insensitive) email.
func (r *SQLiteRepo) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`,
		strings.ToLower(strings.TrimSpace(email)))
	u, err := scanUser(row)
	if err != nil {
		return nil, mapErr(err)
	}
	return u, nil
}

// BindChat attaches a chat to an account, detaching it from any other account first.
func (r *SQLiteRepo) BindChat(ctx context.Context, userID string, chatID int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `UPDATE users SET chat_id = NULL WHERE chat_id = ? AND id <> ?`, chatID, userID); err != nil {
		_ = tx.Rollback()
		return err
	}
	res, err := tx.ExecContext(ctx, `UPDATE users SET chat_id = ? WHERE id = ?`, chatID, userID)
	if err := expectOne(res, err); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// SetTipsEnabled toggles the daily tip for an account.
func (r *SQLiteRepo) SetTipsEnabled(ctx context.Context, userID string, enabled bool) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET tips_enabled = ? WHERE id = ?`, boolToInt(enabled), userID)
	return expectOne(res, err)
}

// ListTipRecipients returns accounts with a bound chat and tips enabled.
func (r *SQLiteRepo) ListTipRecipients(ctx context.Context) ([]domain.User, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE tips_enabled = 1 AND chat_id IS NOT NULL
		ORDER BY created_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

// --- Dreams ---

// AddDream inserts a diary entry.
func (r *SQLiteRepo) AddDream(ctx context.Context, d *domain.DreamEntry) error {
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO dreams (id, user_id, title, body, dream_date, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		d.ID, d.UserID, d.Title, d.Body, d.Date, toUnixMilli(d.CreatedAt),
	)
	return mapErr(err)
}

// ListDreams returns a user's entries, most recently created first.
func (r *SQLiteRepo) ListDreams(ctx context.Context, userID string) ([]domain.DreamEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, title, body, dream_date, created_at
		FROM dreams
		WHERE user_id = ?
		ORDER BY created_at DESC, id ASC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []domain.DreamEntry
	for rows.Next() {
		var (
			d        domain.DreamEntry
			createdM int64
		)
		if err := rows.Scan(&d.ID, &d.UserID, &d.Title, &d.Body, &d.Date, &createdM); err != nil {
			return nil, err
		}
		d.CreatedAt = fromUnixMilli(createdM)
		res = append(res, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

// UpdateDream rewrites title, body and date of an entry owned by d.UserID.
func (r *SQLiteRepo) UpdateDream(ctx context.Context, d *domain.DreamEntry) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE dreams
		SET title = ?, body = ?, dream_date = ?
		WHERE id = ? AND user_id = ?`,
		d.Title, d.Body, d.Date, d.ID, d.UserID,
	)
	return expectOne(res, err)
}

// DeleteDream removes an entry owned by userID.
func (r *SQLiteRepo) DeleteDream(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM dreams WHERE id = ? AND user_id = ?`, id, userID)
	return expectOne(res, err)
}

// --- Sleep records ---

// AddSleepRecord inserts a quality record.
func (r *SQLiteRepo) AddSleepRecord(ctx context.Context, rec *domain.SleepRecord) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sleep_records (id, user_id, date_ms, good)
		VALUES (?, ?, ?, ?)`,
		rec.ID, rec.UserID, toUnixMilli(rec.Date), boolToInt(rec.Good),
	)
	return mapErr(err)
}

// FindSleepRecord returns the first record of userID dated within [from, to].
func (r *SQLiteRepo) FindSleepRecord(ctx context.Context, userID string, from, to time.Time) (*domain.SleepRecord, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, date_ms, good
		FROM sleep_records
		WHERE user_id = ? AND date_ms >= ? AND date_ms <= ?
		ORDER BY date_ms ASC
		LIMIT 1`,
		userID, toUnixMilli(from), toUnixMilli(to),
	)
	rec, err := scanSleepRecord(row)
	if err != nil {
		return nil, mapErr(err)
	}
	return rec, nil
}

// ListSleepRecords returns all records of userID, newest first.
func (r *SQLiteRepo) ListSleepRecords(ctx context.Context, userID string) ([]domain.SleepRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, date_ms, good
		FROM sleep_records
		WHERE user_id = ?
		ORDER BY date_ms DESC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []domain.SleepRecord
	for rows.Next() {
		rec, err := scanSleepRecord(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

func scanSleepRecord(s rowScanner) (*domain.SleepRecord, error) {
	var (
		rec     domain.SleepRecord
		dateM   int64
		goodInt int
	)
	if err := s.Scan(&rec.ID, &rec.UserID, &dateM, &goodInt); err != nil {
		return nil, err
	}
	rec.Date = fromUnixMilli(dateM)
	rec.Good = goodInt != 0
	return &rec, nil
}

// --- Alarms ---

// PutAlarm inserts or replaces the alarm of a user.
func (r *SQLiteRepo) PutAlarm(ctx context.Context, a *domain.Alarm) error {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO alarms (user_id, chat_id, fire_at, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			chat_id    = excluded.chat_id,
			fire_at    = excluded.fire_at,
			created_at = excluded.created_at`,
		a.UserID, a.ChatID, toUnixMilli(a.FireAt), toUnixMilli(a.CreatedAt),
	)
	return mapErr(err)
}

// GetAlarm returns the alarm of a user.
func (r *SQLiteRepo) GetAlarm(ctx context.Context, userID string) (*domain.Alarm, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT user_id, chat_id, fire_at, created_at FROM alarms WHERE user_id = ?`, userID)
	a, err := scanAlarm(row)
	if err != nil {
		return nil, mapErr(err)
	}
	return a, nil
}

// DeleteAlarm removes the alarm of a user.
func (r *SQLiteRepo) DeleteAlarm(ctx context.Context, userID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM alarms WHERE user_id = ?`, userID)
	return expectOne(res, err)
}

// DeleteAlarmAt removes the alarm of a user only if it still fires at fireAt.
// A replaced alarm is left alone and ErrNotFound is returned.
func (r *SQLiteRepo) DeleteAlarmAt(ctx context.Context, userID string, fireAt time.Time) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM alarms WHERE user_id = ? AND fire_at = ?`,
		userID, toUnixMilli(fireAt))
	return expectOne(res, err)
}

// ListAlarms returns every stored alarm ordered by fire time.
func (r *SQLiteRepo) ListAlarms(ctx context.Context) ([]domain.Alarm, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT user_id, chat_id, fire_at, created_at FROM alarms ORDER BY fire_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []domain.Alarm
	for rows.Next() {
		a, err := scanAlarm(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

func scanAlarm(s rowScanner) (*domain.Alarm, error) {
	var (
		a              domain.Alarm
		fireM, createM int64
	)
	if err := s.Scan(&a.UserID, &a.ChatID, &fireM, &createM); err != nil {
		return nil, err
	}
	a.FireAt = fromUnixMilli(fireM)
	a.CreatedAt = fromUnixMilli(createM)
	return &a, nil
}
