// Package notify delivers chat messages and fans them out to many chats.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"

	"github.com/m3rciful/wordbot/core/logger"
	tghelpers "github.com/m3rciful/wordbot/core/telegram/helpers"
	"github.com/m3rciful/wordbot/core/telegram/keyboard"

	tele "gopkg.in/telebot.v4"
)

// Options shape one outgoing message.
type Options struct {
	// Rich sends the text as MarkdownV2; the caller must have escaped it.
	Rich           bool
	DisablePreview bool
	// Buttons are laid out one per row under the message.
	Buttons []keyboard.InlineBtn
}

// Notifier delivers one message to one chat. Each send fails independently
// and is not retried.
type Notifier interface {
	Send(ctx context.Context, chatID int64, text string, opts Options) error
}

// API is the subset of *tele.Bot used for delivery.
type API interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
}

// Telegram is a Notifier over the Bot API.
type Telegram struct {
	api API
}

// NewTelegram wraps api, normally a *tele.Bot.
func NewTelegram(api API) *Telegram {
	return &Telegram{api: api}
}

var tokenRe = regexp.MustCompile(`bot[0-9]+:[A-Za-z0-9_-]+`)

// Send delivers text to chatID. Successful sends are counted on the request
// counters carried by ctx; failures are logged and returned.
func (t *Telegram) Send(ctx context.Context, chatID int64, text string, opts Options) error {
	sendOpts := &tele.SendOptions{}
	if opts.Rich {
		sendOpts.ParseMode = tele.ModeMarkdownV2
	}
	if len(opts.Buttons) > 0 {
		sendOpts.ReplyMarkup = keyboard.InlineButtons(opts.Buttons)
	}
	extra := []interface{}{sendOpts}
	if opts.DisablePreview {
		extra = append(extra, tele.NoPreview)
	}

	if _, err := t.api.Send(tele.ChatID(chatID), text, extra...); err != nil {
		msg := tokenRe.ReplaceAllString(err.Error(), "bot<redacted>")
		logger.Warn(ctx, "tg", "notify.fail",
			slog.Int64("chat_id", chatID),
			slog.Bool("rich", opts.Rich),
			slog.String("status", "fail"),
			slog.String("err", msg),
		)
		return fmt.Errorf("notify chat %d: %w", chatID, err)
	}
	tghelpers.CountersFrom(ctx).Record(len(opts.Buttons) > 0)
	return nil
}
