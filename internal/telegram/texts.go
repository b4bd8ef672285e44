package telegram

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/victoralves475/Sleepwellwell/internal/domain"
)

// UI texts in English
const (
	startText = "😴 SleepWell helps you wake up between sleep cycles.\n\n" +
		"Account:\n" +
		"/signup Name;email;password\n" +
		"/login email password\n" +
		"/logout\n\n" +
		"Alarm:\n" +
		"/alarm HH:MM [cycle]  pick a wake time near HH:MM\n" +
		"/alarm_test  ring in 5 seconds\n" +
		"/alarm_cancel  /alarm_stop\n\n" +
		"Sleep and dreams:\n" +
		"/sleep  /history\n" +
		"/dreams  /dream_add  /dream_edit <id>  /dream_del <id>\n\n" +
		"Tips:\n" +
		"/tips  /pause  /resume"

	loginRequired   = "Please /login first."
	genericError    = "Something went wrong. Please try again later."
	signupUsage     = "Usage: /signup Name;email;password"
	loginUsage      = "Usage: /login email password"
	alarmUsage      = "Usage: /alarm HH:MM [cycle] (e.g. /alarm 07:00 or /alarm 07:00 1h30m)"
	noSuggestions   = "No wake time fits before that hour."
	suggestTitleFmt = "Wake up at the end of a cycle. Going to bed now, pick a time near %s:"
	sleepQuestion   = "How did you sleep last night?"
	dreamTitleAsk   = "Dream title?"
	dreamBodyAsk    = "Tell me the dream."
	dreamDateAsk    = "Date of the dream (dd/mm/yyyy or ddmmyyyy)?"
	dreamDelUsage   = "Usage: /dream_del <id>"
	dreamEditUsage  = "Usage: /dream_edit <id>"
	cancelled       = "Cancelled."
	stopButtonText  = "⏹ Stop"
)

const (
	cbAlarmPrefix = "alarm:"
	cbAlarmStop   = "alarm_stop"
	cbSleepGood   = "sleep:good"
	cbSleepBad    = "sleep:bad"
)

// mainMenuKeyboard builds the reply keyboard. Logged-out chats only get /start.
func mainMenuKeyboard(loggedIn bool) tgbotapi.ReplyKeyboardMarkup {
	if !loggedIn {
		return tgbotapi.NewReplyKeyboard(
			tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton("/start")),
		)
	}
	return tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("/alarm_test"),
			tgbotapi.NewKeyboardButton("/sleep"),
			tgbotapi.NewKeyboardButton("/history"),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("/dreams"),
			tgbotapi.NewKeyboardButton("/dream_add"),
			tgbotapi.NewKeyboardButton("/tips"),
		),
	)
}

func suggestionsKeyboard(times []time.Time, loc *time.Location) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	var row []tgbotapi.InlineKeyboardButton
	for _, t := range times {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(formatClock(t, loc), alarmCallback(t)))
		if len(row) == 2 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func sleepKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("😊 Good", cbSleepGood),
			tgbotapi.NewInlineKeyboardButtonData("😫 Bad", cbSleepBad),
		),
	)
}

func stopKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData(stopButtonText, cbAlarmStop)),
	)
}

func alarmCallback(t time.Time) string {
	return cbAlarmPrefix + strconv.FormatInt(t.UnixMilli(), 10)
}

// parseAlarmCallback reads the instant out of "alarm:<unix millis>".
func parseAlarmCallback(data string) (time.Time, error) {
	raw, ok := strings.CutPrefix(data, cbAlarmPrefix)
	if !ok {
		return time.Time{}, fmt.Errorf("not an alarm callback: %q", data)
	}
	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("alarm callback: %w", err)
	}
	return time.UnixMilli(ms), nil
}

// parseSignup splits "Name;email;password".
func parseSignup(args string) (name, email, password string, ok bool) {
	parts := strings.Split(args, ";")
	if len(parts) != 3 {
		return "", "", "", false
	}
	return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1]), strings.TrimSpace(parts[2]), true
}

// parseLogin splits "email password".
func parseLogin(args string) (email, password string, ok bool) {
	f := strings.Fields(args)
	if len(f) != 2 {
		return "", "", false
	}
	return f[0], f[1], true
}

func formatClock(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("15:04")
}

func formatHistory(records []domain.SleepRecord, pct int, loc *time.Location) string {
	if len(records) == 0 {
		return "No nights recorded yet. Use /sleep."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "🛏 Good nights: %d%%\n\n", pct)
	for _, r := range records {
		mark := "😫 bad"
		if r.Good {
			mark = "😊 good"
		}
		fmt.Fprintf(&b, "• %s %s\n", r.Date.In(loc).Format(domain.DiaryDateLayout), mark)
	}
	return b.String()
}

func formatDreams(list []domain.DreamEntry) string {
	if len(list) == 0 {
		return "Your dream diary is empty. Use /dream_add."
	}
	var b strings.Builder
	b.WriteString("📓 Dream diary\n")
	for _, d := range list {
		fmt.Fprintf(&b, "\n%s  %s\n%s\nid: %s\n", d.Date, d.Title, d.Body, d.ID)
	}
	return b.String()
}

func formatTips(list []domain.Tip) string {
	if len(list) == 0 {
		return "No tips right now."
	}
	var b strings.Builder
	for i, t := range list {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "💡 %s\n%s\n", t.Title, t.Description)
	}
	return b.String()
}
