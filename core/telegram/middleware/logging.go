package middleware

import (
	"log/slog"
	"sync"
	"time"

	"github.com/m3rciful/wordbot/core/logger"
	"github.com/m3rciful/wordbot/core/telegram/callbacks"
	tghelpers "github.com/m3rciful/wordbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

const (
	receiptTTL     = 10 * time.Second
	maxPayloadLog  = 256
	maxUsernameLog = 64
)

// seenUpdates remembers recent update ids so a redelivered update logs its
// receipt once.
type seenUpdates struct {
	mu  sync.Mutex
	ttl time.Duration
	ids map[int]time.Time
}

var receipts = &seenUpdates{ttl: receiptTTL, ids: map[int]time.Time{}}

func (s *seenUpdates) first(id int, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, at := range s.ids {
		if now.Sub(at) > s.ttl {
			delete(s.ids, k)
		}
	}
	if _, ok := s.ids[id]; ok {
		return false
	}
	s.ids[id] = now
	return true
}

// LoggerMiddleware prepares the request context (rid and update metadata)
// and logs a sampled debug receipt for each update.
func LoggerMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		upd := c.Update()
		var chatID, userID int64
		if chat := c.Chat(); chat != nil {
			chatID = chat.ID
		}
		if user := c.Sender(); user != nil {
			userID = user.ID
		}
		c.Set("rid", logger.BuildRID(upd.ID, chatID, userID))
		c.Set("update_start", time.Now())
		ctx := tghelpers.BuildContext(c)

		if logger.ShouldSampleDebug() && receipts.first(upd.ID, time.Now()) {
			logger.LogEvent(ctx, logger.TG, slog.LevelDebug, "update.received", receiptAttrs(c)...)
		}
		return next(c)
	}
}

func receiptAttrs(c tele.Context) []slog.Attr {
	upd := c.Update()
	attrs := []slog.Attr{
		slog.String("status", "ok"),
		slog.String("kind", UpdateKind(upd)),
	}
	if chat := c.Chat(); chat != nil {
		attrs = append(attrs, slog.String("chat_type", string(chat.Type)))
	}
	if user := c.Sender(); user != nil {
		if user.Username != "" {
			attrs = append(attrs, slog.String("username", logger.SanitizeLimit(user.Username, maxUsernameLog)))
		}
		if user.LanguageCode != "" {
			attrs = append(attrs, slog.String("lang", user.LanguageCode))
		}
	}

	switch {
	case upd.Callback != nil:
		key, payload := callbacks.ParseCallbackData(upd.Callback)
		if key != "" {
			attrs = append(attrs, slog.String("cb_key", logger.SanitizeLimit(key, 128)))
		}
		if payload != "" {
			attrs = append(attrs, slog.String("payload", logger.SanitizeLimit(payload, maxPayloadLog)))
		}
	case upd.Message != nil:
		if text := c.Text(); text != "" {
			attrs = append(attrs, slog.String("payload", logger.SanitizeLimit(text, maxPayloadLog)))
		}
	}
	return attrs
}
