package notification

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"
)

// Telegram sends MarkdownV2 messages to one chat through a bot.
type Telegram struct {
	token    string
	chatID   int64
	endpoint string
}

// NewTelegram returns a notifier for chatID. An empty endpoint uses the
// public Bot API.
func NewTelegram(token string, chatID int64, endpoint string) *Telegram {
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}
	return &Telegram{token: token, chatID: chatID, endpoint: endpoint}
}

func (t *Telegram) Success(ctx context.Context, message string) error {
	return t.send(ctx, "✅ Success!", message)
}

func (t *Telegram) Error(ctx context.Context, message string) error {
	return t.send(ctx, "🚨 Error Occurred!", message)
}

func (t *Telegram) send(ctx context.Context, title, message string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	bot, err := tgbotapi.NewBotAPIWithAPIEndpoint(t.token, t.endpoint)
	if err != nil {
		return errors.Wrap(err, "failed to create Telegram bot")
	}

	text := fmt.Sprintf("*%s*\n\n%s",
		tgbotapi.EscapeText(tgbotapi.ModeMarkdownV2, title),
		tgbotapi.EscapeText(tgbotapi.ModeMarkdownV2, message))
	msg := tgbotapi.NewMessage(t.chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdownV2

	if _, err := bot.Send(msg); err != nil {
		return errors.Wrap(err, "failed to send Telegram notification")
	}
	return nil
}
