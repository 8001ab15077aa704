package alert

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Alert — сообщение оператору о сбое, который не виден пользователю.
type Alert struct {
	Kind      string
	SessionID string
	UserID    string
	Message   string
	Err       error
}

func (a Alert) text() string {
	msg := fmt.Sprintf("⚠️ <b>%s</b>\n%s\nsession: <code>%s</code>\nuser: <code>%s</code>",
		html.EscapeString(a.Kind), html.EscapeString(a.Message), a.SessionID, a.UserID)
	if a.Err != nil {
		msg += "\nerror: " + html.EscapeString(a.Err.Error())
	}
	return msg
}

type Notifier interface {
	Notify(ctx context.Context, a Alert) error
}

// Log writes alerts to slog at error level. Always available.
type Log struct{}

func (Log) Notify(ctx context.Context, a Alert) error {
	slog.ErrorContext(ctx, "operator alert",
		"kind", a.Kind,
		"session_id", a.SessionID,
		"user_id", a.UserID,
		"message", a.Message,
		"error", a.Err,
	)
	return nil
}

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Telegram posts alerts to an operator chat.
type Telegram struct {
	bot    sender
	chatID int64
}

// telegramTimeout caps a single Bot API call; the library's default client has none.
const telegramTimeout = 10 * time.Second

func NewTelegram(token string, chatID int64) (*Telegram, error) {
	client := &http.Client{Timeout: telegramTimeout}
	bot, err := tgbotapi.NewBotAPIWithClient(token, tgbotapi.APIEndpoint, client)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram bot: %w", err)
	}
	return &Telegram{bot: bot, chatID: chatID}, nil
}

func (t *Telegram) Notify(_ context.Context, a Alert) error {
	msg := tgbotapi.NewMessage(t.chatID, a.text())
	msg.ParseMode = tgbotapi.ModeHTML
	_, err := t.bot.Send(msg)
	return err
}

// Multi fans an alert out to every notifier and joins their errors.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, a Alert) error {
	var errs []error
	for _, n := range m {
		if n == nil {
			continue
		}
		if err := n.Notify(ctx, a); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
