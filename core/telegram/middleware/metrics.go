package middleware

import (
	tghelpers "github.com/m3rciful/wordbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// countingContext records every successful direct reply in the update's
// counters.
type countingContext struct {
	tele.Context
	counters *tghelpers.Counters
}

func (c countingContext) record(err error, opts []any) error {
	if err == nil {
		c.counters.Record(withKeyboard(opts))
	}
	return err
}

func (c countingContext) Send(what any, opts ...any) error {
	return c.record(c.Context.Send(what, opts...), opts)
}

func (c countingContext) Reply(what any, opts ...any) error {
	return c.record(c.Context.Reply(what, opts...), opts)
}

func (c countingContext) EditOrSend(what any, opts ...any) error {
	return c.record(c.Context.EditOrSend(what, opts...), opts)
}

func withKeyboard(opts []any) bool {
	for _, o := range opts {
		switch v := o.(type) {
		case *tele.ReplyMarkup:
			if v != nil {
				return true
			}
		case *tele.SendOptions:
			if v != nil && v.ReplyMarkup != nil {
				return true
			}
		}
	}
	return false
}

// MessageMetricsMiddleware attaches reply counters to the request context.
// Code that sends through context.Context records via
// tghelpers.CountersFrom.
func MessageMetricsMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		ctx, counters := tghelpers.WithCounters(tghelpers.BuildContext(c))
		tghelpers.StoreContext(c, ctx)
		return next(countingContext{Context: c, counters: counters})
	}
}

// GetCounters returns the reply count and keyboard flag for the update.
func GetCounters(c tele.Context) (int, bool) {
	ctx, ok := tghelpers.ContextFrom(c)
	if !ok {
		return 0, false
	}
	return tghelpers.CountersFrom(ctx).Snapshot()
}
