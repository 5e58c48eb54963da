package router

import (
	"log/slog"
	"strings"

	tg "github.com/m3rciful/wordbot/core/telegram"
	"github.com/m3rciful/wordbot/core/telegram/commands"

	tele "gopkg.in/telebot.v4"
)

// TextOptions sets the handler used when the registry has no text handler.
type TextOptions struct {
	UnknownText tele.HandlerFunc
}

// TextRoutes sends every text message, commands included, to the registry's
// text handler. Each update gets one summary log line named after the
// command it carried.
func TextRoutes(reg *tg.Registry, opts TextOptions) []tg.Route {
	handle := func(c tele.Context) error {
		name, cmd := handlerNameFor(reg, c.Text())
		s := newSummary(name)
		if cmd != "" {
			s.with(slog.String("command", cmd))
		}

		var h tele.HandlerFunc
		if reg != nil {
			h = reg.TextHandler()
		}
		switch {
		case h != nil:
			return s.run(c, func() error { return h(c) })
		case opts.UnknownText != nil:
			s.name = "unknown_text"
			return s.run(c, func() error { return opts.UnknownText(c) })
		}
		s.name = "unknown_text"
		return s.skipped().run(c, nil)
	}
	return []tg.Route{{Endpoint: tele.OnText, Handler: handle}}
}

// handlerNameFor returns the summary name and the normalized command token.
// Plain text and unregistered commands share a name.
func handlerNameFor(reg *tg.Registry, text string) (string, string) {
	fields := strings.Fields(text)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "/") {
		return "text", ""
	}
	token := commands.Normalize(fields[0])
	if reg != nil {
		if key, _, ok := reg.LookupCommand(token); ok {
			return "cmd." + handlerName(key), token
		}
	}
	return "cmd.other", token
}
