package telegram

import tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

// Bot is the subset of *tgbotapi.BotAPI the package uses.
type Bot interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Notifier pushes messages that do not answer an update.
// It satisfies reminder.Sender and alarm.Sender.
type Notifier struct {
	bot Bot
}

// NewNotifier wraps bot.
func NewNotifier(bot Bot) *Notifier {
	return &Notifier{bot: bot}
}

// SendMessage sends a plain text message to the given chat.
func (n *Notifier) SendMessage(chatID int64, text string) error {
	_, err := n.bot.Send(tgbotapi.NewMessage(chatID, text))
	return err
}

// SendAlarm sends the wake-up message with a Stop button.
func (n *Notifier) SendAlarm(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = stopKeyboard()
	_, err := n.bot.Send(msg)
	return err
}
