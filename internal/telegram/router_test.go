package telegram

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/victoralves475/Sleepwellwell/assets"
	"github.com/victoralves475/Sleepwellwell/internal/alarm"
	"github.com/victoralves475/Sleepwellwell/internal/domain"
	"github.com/victoralves475/Sleepwellwell/internal/scheduler"
	"github.com/victoralves475/Sleepwellwell/internal/service"
	"github.com/victoralves475/Sleepwellwell/internal/store"
)

type fakeBot struct {
	mu       sync.Mutex
	sent     []tgbotapi.MessageConfig
	requests []tgbotapi.Chattable
}

func (f *fakeBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if m, ok := c.(tgbotapi.MessageConfig); ok {
		f.sent = append(f.sent, m)
	}
	return tgbotapi.Message{}, nil
}

func (f *fakeBot) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeBot) last(t *testing.T) tgbotapi.MessageConfig {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.sent)
	return f.sent[len(f.sent)-1]
}

func (f *fakeBot) lastAnswer(t *testing.T) string {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.requests) - 1; i >= 0; i-- {
		if cb, ok := f.requests[i].(tgbotapi.CallbackConfig); ok {
			return cb.Text
		}
	}
	t.Fatal("no callback answered")
	return ""
}

type staticTips []domain.Tip

func (s staticTips) ListTips(context.Context) ([]domain.Tip, error) { return s, nil }

func newTestRouter(t *testing.T) (*Router, *fakeBot) {
	t.Helper()
	ctx := context.Background()
	repo, err := store.OpenSQLite(ctx, filepath.Join(t.TempDir(), "bot.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	log := zap.NewNop()
	bot := &fakeBot{}
	fallback, err := assets.DefaultTips()
	require.NoError(t, err)

	r := NewRouter(bot, log, Deps{
		Accounts:        service.NewAccounts(repo, log, "UTC"),
		Diary:           service.NewDiary(repo),
		Sleep:           service.NewSleep(repo),
		Alarms:          alarm.New(repo, scheduler.New(log), NewNotifier(bot), log, time.Minute, 20*time.Second),
		Tips:            staticTips(fallback),
		CycleLength:     domain.DefaultCycleLength,
		SuggestionLimit: domain.DefaultSuggestionLimit,
	})
	return r, bot
}

func command(chatID int64, text string) tgbotapi.Update {
	cmd := strings.Fields(text)[0]
	return tgbotapi.Update{Message: &tgbotapi.Message{
		MessageID: 10,
		Chat:      &tgbotapi.Chat{ID: chatID},
		Text:      text,
		Entities:  []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(cmd)}},
	}}
}

func text(chatID int64, s string) tgbotapi.Update {
	return tgbotapi.Update{Message: &tgbotapi.Message{MessageID: 11, Chat: &tgbotapi.Chat{ID: chatID}, Text: s}}
}

func callback(chatID int64, data string) tgbotapi.Update {
	return tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:      "cb",
		Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: chatID}},
		Data:    data,
	}}
}

func login(t *testing.T, r *Router, chatID int64) {
	t.Helper()
	ctx := context.Background()
	r.HandleUpdate(ctx, command(chatID, "/signup Maria;maria@example.com;secret"))
	r.HandleUpdate(ctx, command(chatID, "/login maria@example.com secret"))
	_, ok := r.session(chatID)
	require.True(t, ok)
}

func TestStartAndLoginRequired(t *testing.T) {
	ctx := context.Background()
	r, bot := newTestRouter(t)

	r.HandleUpdate(ctx, command(1, "/start"))
	assert.Equal(t, startText, bot.last(t).Text)

	r.HandleUpdate(ctx, command(1, "/history"))
	assert.Equal(t, loginRequired, bot.last(t).Text)

	r.HandleUpdate(ctx, callback(1, cbSleepGood))
	assert.Equal(t, loginRequired, bot.lastAnswer(t))
}

func TestSignupAndLogin(t *testing.T) {
	ctx := context.Background()
	r, bot := newTestRouter(t)

	r.HandleUpdate(ctx, command(1, "/signup Maria;maria@example"))
	assert.Equal(t, signupUsage, bot.last(t).Text)

	r.HandleUpdate(ctx, command(1, "/signup Maria;maria@example.com;secret"))
	assert.Contains(t, bot.last(t).Text, "Account created")

	r.HandleUpdate(ctx, command(1, "/signup Other;maria@example.com;x"))
	assert.Equal(t, "This email is already registered.", bot.last(t).Text)

	r.HandleUpdate(ctx, command(1, "/login maria@example.com wrong"))
	assert.Equal(t, "Invalid email or password.", bot.last(t).Text)

	r.HandleUpdate(ctx, command(1, "/login maria@example.com secret"))
	s, ok := r.session(1)
	require.True(t, ok)
	assert.Equal(t, "Maria", s.Name)
	// no record for last night yet, so the bot asks
	last := bot.last(t)
	assert.Equal(t, sleepQuestion, last.Text)
	assert.IsType(t, tgbotapi.InlineKeyboardMarkup{}, last.ReplyMarkup)

	// credential messages are deleted
	deleted := 0
	for _, c := range bot.requests {
		if _, ok := c.(tgbotapi.DeleteMessageConfig); ok {
			deleted++
		}
	}
	assert.Equal(t, 5, deleted)

	r.HandleUpdate(ctx, command(1, "/logout"))
	_, ok = r.session(1)
	assert.False(t, ok)
}

func TestSleepCallbackRecordsOnce(t *testing.T) {
	ctx := context.Background()
	r, bot := newTestRouter(t)
	login(t, r, 1)

	r.HandleUpdate(ctx, callback(1, cbSleepGood))
	assert.Equal(t, "Saved", bot.lastAnswer(t))

	r.HandleUpdate(ctx, callback(1, cbSleepBad))
	assert.Equal(t, "Already recorded", bot.lastAnswer(t))

	r.HandleUpdate(ctx, command(1, "/history"))
	assert.Contains(t, bot.last(t).Text, "Good nights: 100%")
}

func TestDreamFlow(t *testing.T) {
	ctx := context.Background()
	r, bot := newTestRouter(t)
	login(t, r, 1)

	r.HandleUpdate(ctx, command(1, "/dream_add"))
	r.HandleUpdate(ctx, text(1, "Sea"))
	assert.Equal(t, dreamBodyAsk, bot.last(t).Text)
	r.HandleUpdate(ctx, text(1, "Big waves"))
	r.HandleUpdate(ctx, text(1, "99999999"))
	assert.Contains(t, bot.last(t).Text, "Invalid date")
	r.HandleUpdate(ctx, text(1, "12122025"))
	assert.Equal(t, "Dream saved 📓", bot.last(t).Text)
	assert.Nil(t, r.draft(1))

	r.HandleUpdate(ctx, command(1, "/dreams"))
	assert.Contains(t, bot.last(t).Text, "12/12/2025  Sea")

	r.HandleUpdate(ctx, command(1, "/dream_del nope"))
	assert.Equal(t, "No dream with that id.", bot.last(t).Text)

	r.HandleUpdate(ctx, command(1, "/dream_add"))
	r.HandleUpdate(ctx, command(1, "/cancel"))
	assert.Nil(t, r.draft(1))
}

func TestAlarmSuggestions(t *testing.T) {
	ctx := context.Background()
	r, bot := newTestRouter(t)
	login(t, r, 1)
	r.now = func() time.Time { return time.Date(2025, time.May, 5, 22, 0, 0, 0, time.UTC) }

	r.HandleUpdate(ctx, command(1, "/alarm 25:00"))
	assert.Equal(t, alarmUsage, bot.last(t).Text)

	r.HandleUpdate(ctx, command(1, "/alarm 07:00"))
	last := bot.last(t)
	kb, ok := last.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	require.True(t, ok)

	var labels []string
	for _, row := range kb.InlineKeyboard {
		for _, b := range row {
			labels = append(labels, b.Text)
		}
	}
	assert.Equal(t, []string{"04:00", "05:30", "07:00", "08:30"}, labels)
	require.NotNil(t, kb.InlineKeyboard[0][0].CallbackData)
	at, err := parseAlarmCallback(*kb.InlineKeyboard[0][0].CallbackData)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, time.May, 6, 4, 0, 0, 0, time.UTC), at.UTC())

	r.HandleUpdate(ctx, command(1, "/alarm 23:00 30m"))
	kb, ok = bot.last(t).ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	require.True(t, ok)
	assert.Equal(t, "22:30", kb.InlineKeyboard[0][0].Text)

	r.HandleUpdate(ctx, command(1, "/alarm 07:00 5m"))
	assert.Contains(t, bot.last(t).Text, "Invalid cycle length")
}

func TestAlarmCallbackArms(t *testing.T) {
	ctx := context.Background()
	r, bot := newTestRouter(t)
	login(t, r, 1)

	at := time.Now().Add(time.Hour).Truncate(time.Millisecond)
	r.HandleUpdate(ctx, callback(1, alarmCallback(at)))
	assert.Equal(t, "Alarm set", bot.lastAnswer(t))

	s, _ := r.session(1)
	pending, ok := r.deps.Alarms.Pending(s.UserID)
	require.True(t, ok)
	assert.True(t, at.Equal(pending))

	r.HandleUpdate(ctx, callback(1, alarmCallback(time.Now().Add(-time.Hour))))
	assert.Equal(t, "That time has passed.", bot.lastAnswer(t))

	r.HandleUpdate(ctx, command(1, "/alarm_cancel"))
	assert.Equal(t, "Alarm cancelled.", bot.last(t).Text)
	r.HandleUpdate(ctx, command(1, "/alarm_stop"))
	assert.Equal(t, "No alarm is ringing.", bot.last(t).Text)
}

func TestTipsCommands(t *testing.T) {
	ctx := context.Background()
	r, bot := newTestRouter(t)

	r.HandleUpdate(ctx, command(1, "/tips"))
	assert.Contains(t, bot.last(t).Text, "💡")

	login(t, r, 1)
	r.HandleUpdate(ctx, command(1, "/pause"))
	assert.Equal(t, "Daily tips paused ⏸", bot.last(t).Text)
	r.HandleUpdate(ctx, command(1, "/resume"))
	assert.Equal(t, "Daily tips resumed ✅", bot.last(t).Text)
}

func TestNotifierSendAlarmHasStopButton(t *testing.T) {
	bot := &fakeBot{}
	require.NoError(t, NewNotifier(bot).SendAlarm(3, "wake"))
	msg := bot.last(t)
	kb, ok := msg.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	require.True(t, ok)
	require.NotNil(t, kb.InlineKeyboard[0][0].CallbackData)
	assert.Equal(t, cbAlarmStop, *kb.InlineKeyboard[0][0].CallbackData)
}
