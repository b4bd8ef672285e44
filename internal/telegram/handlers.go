package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/victoralves475/Sleepwellwell/internal/alarm"
	"github.com/victoralves475/Sleepwellwell/internal/domain"
	"github.com/victoralves475/Sleepwellwell/internal/service"
)

// --- Generic helpers ---

func (r *Router) sendText(chatID int64, text string) {
	if _, err := r.bot.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		r.log.Warn("send failed", zap.Error(err), zap.Int64("chatID", chatID))
	}
}

func (r *Router) sendWithMarkup(chatID int64, text string, markup interface{}) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = markup
	if _, err := r.bot.Send(msg); err != nil {
		r.log.Warn("send failed", zap.Error(err), zap.Int64("chatID", chatID))
	}
}

func (r *Router) answerCallback(id, text string) error {
	_, err := r.bot.Request(tgbotapi.NewCallback(id, text))
	return err
}

// forget deletes a message that carried credentials.
func (r *Router) forget(chatID int64, messageID int) {
	if _, err := r.bot.Request(tgbotapi.NewDeleteMessage(chatID, messageID)); err != nil {
		r.log.Debug("delete credentials message failed", zap.Error(err))
	}
}

// fail logs err and replies with a generic message.
func (r *Router) fail(chatID int64, what string, err error) {
	r.log.Error(what+" failed", zap.Error(err), zap.Int64("chatID", chatID))
	r.sendText(chatID, genericError)
}

// --- Account ---

func (r *Router) handleStart(chatID int64) {
	_, loggedIn := r.session(chatID)
	r.sendWithMarkup(chatID, startText, mainMenuKeyboard(loggedIn))
}

func (r *Router) handleSignup(ctx context.Context, chatID int64, args string) {
	name, email, password, ok := parseSignup(args)
	if !ok {
		r.sendText(chatID, signupUsage)
		return
	}
	_, err := r.deps.Accounts.SignUp(ctx, name, email, password)
	switch {
	case err == nil:
		r.sendText(chatID, "Account created ✅ Now /login "+strings.ToLower(email)+" <password>")
	case errors.Is(err, service.ErrMissingFields):
		r.sendText(chatID, "Please fill in all fields. "+signupUsage)
	case errors.Is(err, service.ErrInvalidEmail):
		r.sendText(chatID, "That email does not look valid.")
	case errors.Is(err, service.ErrEmailTaken):
		r.sendText(chatID, "This email is already registered.")
	default:
		r.fail(chatID, "signup", err)
	}
}

func (r *Router) handleLogin(ctx context.Context, chatID int64, args string) {
	email, password, ok := parseLogin(args)
	if !ok {
		r.sendText(chatID, loginUsage)
		return
	}
	s, err := r.deps.Accounts.Login(ctx, email, password, chatID)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			r.sendText(chatID, "Invalid email or password.")
			return
		}
		r.fail(chatID, "login", err)
		return
	}
	r.setSession(chatID, s)
	r.log.Info("user logged in", zap.String("userID", s.UserID), zap.Int64("chatID", chatID))
	r.sendWithMarkup(chatID, "Welcome, "+s.Name+"!", mainMenuKeyboard(true))
	r.askSleep(ctx, s, false)
}

func (r *Router) handleLogout(chatID int64) {
	if _, ok := r.session(chatID); !ok {
		r.sendText(chatID, "You are not logged in.")
		return
	}
	r.endSession(chatID)
	r.sendWithMarkup(chatID, "Logged out. See you!", mainMenuKeyboard(false))
}

// --- Alarm ---

func (r *Router) handleAlarm(s domain.Session, args string) {
	if args == "" {
		if at, ok := r.deps.Alarms.Pending(s.UserID); ok {
			r.sendText(s.ChatID, "⏰ Alarm set for "+formatClock(at, s.Location())+". /alarm_cancel to remove it.")
			return
		}
		r.sendText(s.ChatID, alarmUsage)
		return
	}
	fields := strings.Fields(args)
	hour, minute, err := domain.ParseHHMM(fields[0])
	if err != nil || len(fields) > 2 {
		r.sendText(s.ChatID, alarmUsage)
		return
	}
	cycle := r.deps.CycleLength
	if len(fields) == 2 {
		if cycle, err = domain.ParseCycleHuman(fields[1]); err != nil {
			r.sendText(s.ChatID, "Invalid cycle length ("+err.Error()+"). Examples: 90m, 1h30m.")
			return
		}
	}
	now := r.now().In(s.Location())
	target, err := domain.ClockTarget(now, hour, minute)
	if err != nil {
		r.sendText(s.ChatID, alarmUsage)
		return
	}
	times, err := domain.SuggestWakeTimes(now, target, cycle, r.deps.SuggestionLimit)
	if err != nil {
		r.fail(s.ChatID, "suggest wake times", err)
		return
	}
	if len(times) == 0 {
		r.sendText(s.ChatID, noSuggestions)
		return
	}
	r.sendWithMarkup(s.ChatID, fmt.Sprintf(suggestTitleFmt, fmt.Sprintf("%02d:%02d", hour, minute)),
		suggestionsKeyboard(times, s.Location()))
}

func (r *Router) handleAlarmCallback(ctx context.Context, s domain.Session, data, cbID string) {
	at, err := parseAlarmCallback(data)
	if err != nil {
		_ = r.answerCallback(cbID, "")
		return
	}
	if err := r.deps.Alarms.Arm(ctx, s.UserID, s.ChatID, at); err != nil {
		if errors.Is(err, alarm.ErrInPast) {
			_ = r.answerCallback(cbID, "That time has passed.")
			return
		}
		_ = r.answerCallback(cbID, "")
		r.fail(s.ChatID, "arm alarm", err)
		return
	}
	_ = r.answerCallback(cbID, "Alarm set")
	r.sendText(s.ChatID, "⏰ Alarm set for "+formatClock(at, s.Location())+".")
}

func (r *Router) handleAlarmTest(ctx context.Context, s domain.Session) {
	if _, err := r.deps.Alarms.ArmTest(ctx, s.UserID, s.ChatID); err != nil {
		r.fail(s.ChatID, "arm test alarm", err)
		return
	}
	r.sendText(s.ChatID, fmt.Sprintf("Test alarm in %d seconds.", int(alarm.TestOffset.Seconds())))
}

func (r *Router) handleAlarmCancel(ctx context.Context, s domain.Session) {
	pending, err := r.deps.Alarms.Cancel(ctx, s.UserID)
	if err != nil {
		r.fail(s.ChatID, "cancel alarm", err)
		return
	}
	if !pending {
		r.sendText(s.ChatID, "No alarm set.")
		return
	}
	r.sendText(s.ChatID, "Alarm cancelled.")
}

func (r *Router) handleAlarmStop(s domain.Session) {
	if r.deps.Alarms.Stop(s.UserID) {
		r.sendText(s.ChatID, "Alarm stopped. Good morning ☀️")
		return
	}
	r.sendText(s.ChatID, "No alarm is ringing.")
}

func (r *Router) handleStopCallback(s domain.Session, cbID string) {
	r.deps.Alarms.Stop(s.UserID)
	_ = r.answerCallback(cbID, "Good morning ☀️")
}

// --- Sleep ---

// askSleep asks for yesterday's quality unless it is already recorded.
// explicit replies even when there is nothing to ask.
func (r *Router) askSleep(ctx context.Context, s domain.Session, explicit bool) {
	done, err := r.deps.Sleep.CheckYesterday(ctx, s, r.now())
	if err != nil {
		r.fail(s.ChatID, "check yesterday", err)
		return
	}
	if done {
		if explicit {
			r.sendText(s.ChatID, "Last night is already recorded. See /history.")
		}
		return
	}
	r.sendWithMarkup(s.ChatID, sleepQuestion, sleepKeyboard())
}

func (r *Router) handleSleepCallback(ctx context.Context, s domain.Session, good bool, cbID string) {
	done, err := r.deps.Sleep.CheckYesterday(ctx, s, r.now())
	if err != nil {
		_ = r.answerCallback(cbID, "")
		r.fail(s.ChatID, "check yesterday", err)
		return
	}
	if done {
		_ = r.answerCallback(cbID, "Already recorded")
		return
	}
	if _, err := r.deps.Sleep.RecordYesterday(ctx, s, r.now(), good); err != nil {
		_ = r.answerCallback(cbID, "")
		r.fail(s.ChatID, "record sleep", err)
		return
	}
	_ = r.answerCallback(cbID, "Saved")
	if good {
		r.sendText(s.ChatID, "Great! Keep it up 😊")
		return
	}
	r.sendText(s.ChatID, "Sorry to hear that. Try /tips for tonight.")
}

func (r *Router) handleHistory(ctx context.Context, s domain.Session) {
	records, pct, err := r.deps.Sleep.History(ctx, s)
	if err != nil {
		r.fail(s.ChatID, "sleep history", err)
		return
	}
	r.sendText(s.ChatID, formatHistory(records, pct, s.Location()))
}

// --- Dream diary ---

func (r *Router) handleDreams(ctx context.Context, s domain.Session) {
	list, err := r.deps.Diary.List(ctx, s)
	if err != nil {
		r.fail(s.ChatID, "list dreams", err)
		return
	}
	r.sendText(s.ChatID, formatDreams(list))
}

func (r *Router) startDream(s domain.Session, editID string) {
	r.setDraft(s.ChatID, &dreamDraft{step: pendingDreamTitle, editID: editID})
	r.sendText(s.ChatID, dreamTitleAsk+" (/cancel to stop)")
}

func (r *Router) handleDreamEdit(s domain.Session, id string) {
	if id == "" {
		r.sendText(s.ChatID, dreamEditUsage)
		return
	}
	r.startDream(s, id)
}

func (r *Router) handleDreamDelete(ctx context.Context, s domain.Session, id string) {
	if id == "" {
		r.sendText(s.ChatID, dreamDelUsage)
		return
	}
	err := r.deps.Diary.Delete(ctx, s, id)
	switch {
	case err == nil:
		r.sendText(s.ChatID, "Dream deleted.")
	case errors.Is(err, service.ErrNotFound):
		r.sendText(s.ChatID, "No dream with that id.")
	default:
		r.fail(s.ChatID, "delete dream", err)
	}
}

// --- Free-form dispatcher (dream flow) ---

func (r *Router) handleFreeForm(ctx context.Context, chatID int64, text string) {
	d := r.draft(chatID)
	if d == nil {
		// No pending flow: ignore free-form message
		return
	}
	s, ok := r.session(chatID)
	if !ok {
		r.clearDraft(chatID)
		r.sendText(chatID, loginRequired)
		return
	}
	if text == "" {
		return
	}

	switch d.step {
	case pendingDreamTitle:
		d.title = text
		d.step = pendingDreamBody
		r.sendText(chatID, dreamBodyAsk)

	case pendingDreamBody:
		d.body = text
		d.step = pendingDreamDate
		r.sendText(chatID, dreamDateAsk)

	case pendingDreamDate:
		r.saveDream(ctx, s, d, text)
	}
}

func (r *Router) saveDream(ctx context.Context, s domain.Session, d *dreamDraft, date string) {
	var err error
	if d.editID != "" {
		err = r.deps.Diary.Update(ctx, s, d.editID, d.title, d.body, date)
	} else {
		_, err = r.deps.Diary.Add(ctx, s, d.title, d.body, date)
	}
	switch {
	case err == nil:
		r.clearDraft(s.ChatID)
		r.sendText(s.ChatID, "Dream saved 📓")
	case errors.Is(err, domain.ErrInvalidDate):
		// stay on the date step
		r.sendText(s.ChatID, "Invalid date. "+dreamDateAsk)
	case errors.Is(err, service.ErrNotFound):
		r.clearDraft(s.ChatID)
		r.sendText(s.ChatID, "No dream with that id.")
	default:
		r.clearDraft(s.ChatID)
		r.fail(s.ChatID, "save dream", err)
	}
}

// --- Tips ---

func (r *Router) handleTips(ctx context.Context, chatID int64) {
	list, err := r.deps.Tips.ListTips(ctx)
	if err != nil {
		r.fail(chatID, "list tips", err)
		return
	}
	r.sendText(chatID, formatTips(list))
}

func (r *Router) handleTipsToggle(ctx context.Context, s domain.Session, enabled bool) {
	if err := r.deps.Accounts.SetTips(ctx, s, enabled); err != nil {
		r.fail(s.ChatID, "toggle tips", err)
		return
	}
	if enabled {
		r.sendText(s.ChatID, "Daily tips resumed ✅")
		return
	}
	r.sendText(s.ChatID, "Daily tips paused ⏸")
}
