package telegram

import (
	"context"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/victoralves475/Sleepwellwell/internal/alarm"
	"github.com/victoralves475/Sleepwellwell/internal/domain"
	"github.com/victoralves475/Sleepwellwell/internal/service"
	"github.com/victoralves475/Sleepwellwell/internal/tips"
)

// Pending state keys used in conversational flows.
const (
	pendingDreamTitle = "await_dream_title"
	pendingDreamBody  = "await_dream_body"
	pendingDreamDate  = "await_dream_date"
)

// dreamDraft collects a dream entry across several messages.
// editID is set when the flow updates an existing entry.
type dreamDraft struct {
	step   string
	editID string
	title  string
	body   string
}

// Deps are the services the router dispatches to.
type Deps struct {
	Accounts *service.Accounts
	Diary    *service.Diary
	Sleep    *service.Sleep
	Alarms   *alarm.Service
	Tips     tips.Source

	CycleLength     time.Duration
	SuggestionLimit int
}

// Router wires Telegram updates to handlers and holds in-memory per-chat state:
// the logged-in session and any pending flow.
type Router struct {
	bot  Bot
	log  *zap.Logger
	deps Deps
	now  func() time.Time

	mu       sync.RWMutex
	sessions map[int64]domain.Session
	drafts   map[int64]*dreamDraft
}

// NewRouter creates a new Telegram router.
func NewRouter(bot Bot, log *zap.Logger, deps Deps) *Router {
	return &Router{
		bot:      bot,
		log:      log,
		deps:     deps,
		now:      time.Now,
		sessions: make(map[int64]domain.Session),
		drafts:   make(map[int64]*dreamDraft),
	}
}

func (r *Router) session(chatID int64) (domain.Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[chatID]
	return s, ok
}

func (r *Router) setSession(chatID int64, s domain.Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[chatID] = s
}

// endSession drops the session and any pending flow of a chat.
func (r *Router) endSession(chatID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, chatID)
	delete(r.drafts, chatID)
}

func (r *Router) draft(chatID int64) *dreamDraft {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.drafts[chatID]
}

func (r *Router) setDraft(chatID int64, d *dreamDraft) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.drafts[chatID] = d
}

func (r *Router) clearDraft(chatID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.drafts, chatID)
}

// HandleUpdate routes a single update to appropriate handler.
func (r *Router) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	// Text messages
	if upd.Message != nil && upd.Message.Chat != nil {
		msg := upd.Message
		chatID := msg.Chat.ID
		if !msg.IsCommand() {
			r.handleFreeForm(ctx, chatID, strings.TrimSpace(msg.Text))
			return
		}
		args := strings.TrimSpace(msg.CommandArguments())

		switch msg.Command() {
		case "start", "help":
			r.handleStart(chatID)
		case "signup":
			r.forget(chatID, msg.MessageID)
			r.handleSignup(ctx, chatID, args)
		case "login":
			r.forget(chatID, msg.MessageID)
			r.handleLogin(ctx, chatID, args)
		case "logout":
			r.handleLogout(chatID)
		case "cancel":
			r.clearDraft(chatID)
			r.sendText(chatID, cancelled)
		case "alarm":
			r.withSession(chatID, func(s domain.Session) { r.handleAlarm(s, args) })
		case "alarm_test":
			r.withSession(chatID, func(s domain.Session) { r.handleAlarmTest(ctx, s) })
		case "alarm_cancel":
			r.withSession(chatID, func(s domain.Session) { r.handleAlarmCancel(ctx, s) })
		case "alarm_stop":
			r.withSession(chatID, func(s domain.Session) { r.handleAlarmStop(s) })
		case "sleep":
			r.withSession(chatID, func(s domain.Session) { r.askSleep(ctx, s, true) })
		case "history":
			r.withSession(chatID, func(s domain.Session) { r.handleHistory(ctx, s) })
		case "dreams":
			r.withSession(chatID, func(s domain.Session) { r.handleDreams(ctx, s) })
		case "dream_add":
			r.withSession(chatID, func(s domain.Session) { r.startDream(s, "") })
		case "dream_edit":
			r.withSession(chatID, func(s domain.Session) { r.handleDreamEdit(s, args) })
		case "dream_del":
			r.withSession(chatID, func(s domain.Session) { r.handleDreamDelete(ctx, s, args) })
		case "tips":
			r.handleTips(ctx, chatID)
		case "pause":
			r.withSession(chatID, func(s domain.Session) { r.handleTipsToggle(ctx, s, false) })
		case "resume":
			r.withSession(chatID, func(s domain.Session) { r.handleTipsToggle(ctx, s, true) })
		default:
			r.sendText(chatID, "Unknown command. See /start.")
		}
		return
	}

	// Callback queries (inline buttons)
	if upd.CallbackQuery != nil {
		cb := upd.CallbackQuery
		if cb.Message == nil || cb.Message.Chat == nil {
			_ = r.answerCallback(cb.ID, "")
			return
		}
		chatID := cb.Message.Chat.ID
		s, ok := r.session(chatID)
		if !ok {
			_ = r.answerCallback(cb.ID, loginRequired)
			return
		}

		switch data := cb.Data; {
		case data == cbAlarmStop:
			r.handleStopCallback(s, cb.ID)
		case strings.HasPrefix(data, cbAlarmPrefix):
			r.handleAlarmCallback(ctx, s, data, cb.ID)
		case data == cbSleepGood, data == cbSleepBad:
			r.handleSleepCallback(ctx, s, data == cbSleepGood, cb.ID)
		default:
			// unknown callback, ignore
			_ = r.answerCallback(cb.ID, "")
		}
	}
}

// withSession runs fn for a logged-in chat and asks to log in otherwise.
func (r *Router) withSession(chatID int64, fn func(domain.Session)) {
	s, ok := r.session(chatID)
	if !ok {
		r.sendText(chatID, loginRequired)
		return
	}
	fn(s)
}
