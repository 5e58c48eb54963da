package router

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/m3rciful/wordbot/core/logger"
	tghelpers "github.com/m3rciful/wordbot/core/telegram/helpers"
	"github.com/m3rciful/wordbot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// summary collects the fields of the handler.handled line written once per
// routed update.
type summary struct {
	name   string
	start  time.Time
	status string
	attrs  []slog.Attr
}

func newSummary(name string) *summary {
	return &summary{name: name, start: time.Now()}
}

func (s *summary) with(attrs ...slog.Attr) *summary {
	s.attrs = append(s.attrs, attrs...)
	return s
}

// skipped marks the update as not handled by a registered handler.
func (s *summary) skipped() *summary {
	s.status = "skip"
	return s
}

// run tags the request context with the handler name, calls fn and logs the
// outcome.
func (s *summary) run(c tele.Context, fn func() error) error {
	tghelpers.WithHandler(c, s.name)
	var err error
	if fn != nil {
		err = fn()
	}
	s.log(c, err)
	return err
}

func (s *summary) log(c tele.Context, err error) {
	ctx := tghelpers.WithHandler(c, s.name)
	msgs, kb := middleware.GetCounters(c)

	status, level := s.status, slog.LevelInfo
	if err != nil {
		status, level = "fail", slog.LevelError
	}
	if status == "" {
		status = "ok"
	}

	attrs := append([]slog.Attr{
		slog.String("status", status),
		slog.String("handler", s.name),
		slog.Int("messages", msgs),
		slog.Bool("kb", kb),
		slog.Duration("duration", time.Since(s.start)),
	}, s.attrs...)
	if err != nil {
		attrs = append(attrs,
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
			slog.String("err_code", errorCode(err)),
		)
	}
	logger.LogEvent(ctx, logger.TG, level, "handler.handled", attrs...)
}

// handlerName turns a command or callback key into a log-friendly name.
func handlerName(key string) string {
	key = strings.TrimPrefix(strings.TrimSpace(key), "/")
	if key == "" {
		return "unknown"
	}
	return strings.ToLower(strings.ReplaceAll(key, " ", "_"))
}

// errorCode names err by its Code method or, failing that, its type.
func errorCode(err error) string {
	if err == nil {
		return ""
	}
	if c, ok := err.(interface{ Code() string }); ok {
		if code := strings.TrimSpace(c.Code()); code != "" {
			return strings.ToUpper(strings.ReplaceAll(code, " ", "_"))
		}
	}
	name := strings.TrimLeft(fmt.Sprintf("%T", err), "*")
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		name = name[i+1:]
	}
	return strings.ToUpper(name)
}
