package notify

import (
	"context"
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/m3rciful/wordbot/core/logger"
	tgsender "github.com/m3rciful/wordbot/core/telegram/sender"
)

// Report counts the outcome of a broadcast.
type Report struct {
	Sent   int `json:"notified"`
	Failed int `json:"failed"`
}

// Message builds the text for one recipient. Returning an empty text skips
// the recipient.
type Message func(ctx context.Context, chatID int64) (string, Options)

// Broadcaster fans one message out to many chats through the sender queue.
type Broadcaster struct {
	n Notifier
	d *tgsender.Dispatcher
}

// NewBroadcaster sends through n. With a nil dispatcher, sends run
// sequentially on the caller's goroutine.
func NewBroadcaster(n Notifier, d *tgsender.Dispatcher) *Broadcaster {
	return &Broadcaster{n: n, d: d}
}

// Broadcast delivers msg to every chat and waits for all sends to finish.
// A failed send never stops the others.
func (b *Broadcaster) Broadcast(ctx context.Context, chatIDs []int64, msg Message) Report {
	var (
		sent, failed atomic.Int32
		wg           sync.WaitGroup
	)
	record := func(err error) {
		if err != nil {
			failed.Add(1)
			return
		}
		sent.Add(1)
	}

	for _, chatID := range chatIDs {
		text, opts := msg(ctx, chatID)
		if text == "" {
			continue
		}
		run := func() error { return b.n.Send(ctx, chatID, text, opts) }
		if b.d == nil {
			record(run())
			continue
		}

		wg.Add(1)
		err := b.d.Submit(ctx, "broadcast", strconv.FormatInt(chatID, 10), run, func(err error) {
			record(err)
			wg.Done()
		})
		if err != nil {
			wg.Done()
			logger.Warn(ctx, "jobs", "broadcast.enqueue",
				slog.Int64("chat_id", chatID),
				slog.String("status", "fail"),
				logger.Err(err),
			)
			record(err)
		}
	}
	wg.Wait()
	return Report{Sent: int(sent.Load()), Failed: int(failed.Load())}
}
