package router

import (
	"log/slog"

	tg "github.com/m3rciful/wordbot/core/telegram"
	"github.com/m3rciful/wordbot/core/telegram/callbacks"

	tele "gopkg.in/telebot.v4"
)

// CallbackOptions sets the handler for unregistered callback keys. Without
// one the registry's fallback is used.
type CallbackOptions struct {
	NotFound tele.HandlerFunc
}

// CallbackRoute dispatches inline button presses to the registry handler
// keyed by the callback's unique part.
func CallbackRoute(reg *tg.Registry, opts CallbackOptions) tg.Route {
	return tg.Route{Endpoint: tele.OnCallback, Handler: func(c tele.Context) error {
		cb := c.Callback()
		if cb == nil {
			return nil
		}
		key, _ := callbacks.ParseCallbackData(cb)
		s := newSummary("callback."+handlerName(key)).with(slog.String("cb_key", key))

		// answer first so the client stops its spinner
		_ = c.Respond()

		if h, ok := reg.GetCallback(key); ok && h != nil {
			return s.run(c, func() error { return h(c) })
		}

		fallback := opts.NotFound
		if fallback == nil {
			fallback = reg.CallbackNotFound()
		}
		s.skipped().with(slog.String("reason", "not_found"))
		if fallback == nil {
			return s.run(c, nil)
		}
		return s.run(c, func() error { return fallback(c) })
	}}
}
