package notification

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/Justclemax/Land-cover-Temporel-monthly-Sentinel-2/internal/config"
)

// Notifier reports the outcome of a run to a chat service.
type Notifier interface {
	Success(ctx context.Context, message string) error
	Error(ctx context.Context, message string) error
}

// Multi fans a notification out to every configured notifier.
type Multi []Notifier

func (m Multi) Success(ctx context.Context, message string) error {
	var errs []string
	for _, n := range m {
		if err := n.Success(ctx, message); err != nil {
			errs = append(errs, err.Error())
		}
	}
	return joinErrors(errs)
}

func (m Multi) Error(ctx context.Context, message string) error {
	var errs []string
	for _, n := range m {
		if err := n.Error(ctx, message); err != nil {
			errs = append(errs, err.Error())
		}
	}
	return joinErrors(errs)
}

// New builds the notifiers enabled in cfg. The result is empty when nothing
// is configured.
func New(cfg config.Notification) Multi {
	var m Multi
	if cfg.DiscordErrorURL != "" || cfg.DiscordSuccessURL != "" {
		m = append(m, NewDiscord(cfg.DiscordSuccessURL, cfg.DiscordErrorURL))
	}
	if cfg.TelegramBotToken != "" && cfg.TelegramChatID != 0 {
		m = append(m, NewTelegram(cfg.TelegramBotToken, cfg.TelegramChatID, ""))
	}
	return m
}

const sendTimeout = 15 * time.Second

// Send reports err (or success when err is nil) and only logs delivery
// failures. It still delivers after ctx is cancelled, bounded by sendTimeout.
func Send(ctx context.Context, n Notifier, log *logrus.Entry, message string, err error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sendTimeout)
	defer cancel()

	var sendErr error
	if err != nil {
		sendErr = n.Error(ctx, message+": "+err.Error())
	} else {
		sendErr = n.Success(ctx, message)
	}
	if sendErr != nil {
		log.WithError(sendErr).Warn("Failed to send notification")
	}
}

func joinErrors(errs []string) error {
	if len(errs) == 0 {
		return nil
	}
	return errors.New(strings.Join(errs, "; "))
}
