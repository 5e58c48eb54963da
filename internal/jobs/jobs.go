// Package jobs builds the morning prompt and the evening recap and fans them
// out to every authorized user. An external scheduler triggers them over HTTP.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	"github.com/m3rciful/wordbot/core/logger"
	"github.com/m3rciful/wordbot/core/telegram/format"
	"github.com/m3rciful/wordbot/internal/notify"
	"github.com/m3rciful/wordbot/internal/render"
	"github.com/m3rciful/wordbot/internal/words"
)

// Quotes are rotated through the morning prompt.
var Quotes = []string{
	"The limits of my language mean the limits of my world. - Ludwig Wittgenstein",
	"Language is the road map of a culture. - Rita Mae Brown",
	"A different language is a different vision of life. - Federico Fellini",
	"Language is the dress of thought. - Samuel Johnson",
	"Words are the most powerful drug used by mankind. - Rudyard Kipling",
	"The art of communication is the language of leadership. - James Humes",
	"Language shapes the way we think. - Guy Deutscher",
	"A word is worth a thousand pictures. - Unknown",
}

const (
	recapTitle = "🌙 Today's Vocabulary"
	recapEmpty = "🌙 Evening Vocabulary Recap\n" + render.Line + "\n\n" +
		"No words added today.\n\n" +
		"Every new word is a step forward! 💪\n\n" +
		"Try /sw [word] tomorrow to save new words!"
)

// Tips supplies the model-generated parts of the morning prompt.
type Tips interface {
	DailyTip(ctx context.Context) string
	Suggestions(ctx context.Context, n int) []string
}

// Options configure a Runner.
type Options struct {
	Store       words.Store
	Tips        Tips
	Broadcaster *notify.Broadcaster
	Users       []int64
	Render      render.Renderer
	Location    *time.Location
	Suggestions int
	// Now and Pick default to time.Now and rand.IntN.
	Now  func() time.Time
	Pick func(n int) int
}

// Runner executes the broadcast jobs.
type Runner struct {
	opts Options
}

// NewRunner returns a Runner with defaults filled in.
func NewRunner(opts Options) *Runner {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Pick == nil {
		opts.Pick = rand.IntN
	}
	return &Runner{opts: opts}
}

// Morning greets every user with their latest word, a quote, word
// suggestions and a tip. A failed per-user lookup only drops that line.
func (r *Runner) Morning(ctx context.Context) (notify.Report, error) {
	quote := Quotes[r.opts.Pick(len(Quotes))]
	var suggestions []string
	if r.opts.Tips != nil && r.opts.Suggestions > 0 {
		suggestions = r.opts.Tips.Suggestions(ctx, r.opts.Suggestions)
	}
	tip := ""
	if r.opts.Tips != nil {
		tip = r.opts.Tips.DailyTip(ctx)
	}

	msg := func(ctx context.Context, chatID int64) (string, notify.Options) {
		latest, err := r.opts.Store.Search(ctx, words.Query{AddedBy: strconv.FormatInt(chatID, 10), Limit: 1})
		if err != nil {
			logger.Warn(ctx, "jobs", "morning.latest",
				slog.Int64("chat_id", chatID),
				logger.Err(err),
			)
			latest = nil
		}
		return morningText(latest, quote, suggestions, tip), notify.Options{Rich: true}
	}
	return r.opts.Broadcaster.Broadcast(ctx, r.opts.Users, msg), nil
}

func morningText(latest []words.Word, quote string, suggestions []string, tip string) string {
	var b strings.Builder
	b.WriteString("🌅 " + format.Bold("Good Morning!") + "\n" + format.Repeat('━', 20) + "\n\n")
	if len(latest) > 0 {
		b.WriteString(format.Escape("Yesterday's word: ") + format.Bold(latest[0].Word) + " 🎉\n\n")
	}
	b.WriteString("💭 " + format.Italic(fmt.Sprintf("%q", quote)) + "\n")
	if len(suggestions) > 0 {
		b.WriteString("\n🎯 " + format.Bold("Today's Word Suggestions:") + "\n")
		for _, s := range suggestions {
			b.WriteString(format.Escape("• "+s) + "\n")
		}
	}
	if tip != "" {
		b.WriteString("\n" + format.Escape(tip) + "\n")
	}
	b.WriteString("\n" + format.Escape("Let's make today count!") + " 📚✨")
	return b.String()
}

// Evening sends the words added since local midnight, or a nudge when there
// are none. The recap is plain text.
func (r *Runner) Evening(ctx context.Context) (notify.Report, error) {
	now := r.opts.Now().In(r.opts.Location)
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, r.opts.Location)

	today, err := r.opts.Store.Search(ctx, words.Query{Since: midnight})
	if err != nil {
		return notify.Report{}, fmt.Errorf("evening recap: %w", err)
	}
	text := recapEmpty
	if len(today) > 0 {
		text = r.opts.Render.List(recapTitle, today)
	}
	chunks := render.Chunk(text, render.MessageLimit)

	var total notify.Report
	for _, chunk := range chunks {
		rep := r.opts.Broadcaster.Broadcast(ctx, r.opts.Users, func(context.Context, int64) (string, notify.Options) {
			return chunk, notify.Options{DisablePreview: true}
		})
		total.Sent += rep.Sent
		total.Failed += rep.Failed
	}
	logger.Info(ctx, "jobs", "evening.words", slog.Int("count", len(today)), slog.Int("chunks", len(chunks)))
	return total, nil
}
